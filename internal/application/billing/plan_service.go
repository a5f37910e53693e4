package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

// PlanService manages the platform's subscription plan catalog. Plans are
// platform-wide rather than tenant-scoped, so none of these operations take
// a tenant ID.
type PlanService struct {
	planRepo billing.PlanRepository
	clock    shared.Clock
}

// NewPlanService creates a new PlanService
func NewPlanService(planRepo billing.PlanRepository, clock shared.Clock) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		clock:    clock,
	}
}

// Create creates a new subscription plan
func (s *PlanService) Create(ctx context.Context, req CreatePlanRequest) (*PlanResponse, error) {
	tier := billing.PlanTier(strings.ToUpper(strings.TrimSpace(req.Tier)))
	if !tier.IsValid() {
		return nil, shared.NewValidationError("Unknown plan tier %q", req.Tier)
	}

	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		currency = valueobject.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))
		if !currency.IsValid() {
			return nil, shared.NewValidationError("Unsupported currency %q", req.Currency)
		}
	}

	code := strings.TrimSpace(strings.ToLower(req.Code))
	exists, err := s.planRepo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("CONFLICT", fmt.Sprintf("Plan code %s is already taken", code))
	}

	pricing := billing.PlanPricing{
		Monthly:   req.MonthlyPrice,
		Quarterly: req.QuarterlyPrice,
		Annual:    req.AnnualPrice,
		Lifetime:  req.LifetimePrice,
	}

	now := s.clock.Now()
	plan, err := billing.NewPlan(req.Code, req.Name, tier, pricing, currency, req.TrialDays)
	if err != nil {
		return nil, err
	}
	if req.Description != "" || req.SortOrder != 0 {
		if err := plan.UpdateDetails(req.Name, req.Description, req.SortOrder, now); err != nil {
			return nil, err
		}
	}
	for name, feature := range req.Features {
		if err := plan.SetFeature(name, feature.Enabled, feature.Limit, now); err != nil {
			return nil, err
		}
	}

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	response := ToPlanResponse(plan)
	return &response, nil
}

// GetByID retrieves a plan by ID
func (s *PlanService) GetByID(ctx context.Context, planID uuid.UUID) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	response := ToPlanResponse(plan)
	return &response, nil
}

// GetByCode retrieves a plan by its unique code
func (s *PlanService) GetByCode(ctx context.Context, code string) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByCode(ctx, strings.TrimSpace(strings.ToLower(code)))
	if err != nil {
		return nil, err
	}
	response := ToPlanResponse(plan)
	return &response, nil
}

// List retrieves all plans, or only those open for new subscriptions
func (s *PlanService) List(ctx context.Context, activeOnly bool) ([]PlanResponse, error) {
	var plans []*billing.Plan
	var err error
	if activeOnly {
		plans, err = s.planRepo.FindActive(ctx)
	} else {
		plans, err = s.planRepo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return ToPlanResponses(plans), nil
}

// UpdateDetails updates a plan's display fields
func (s *PlanService) UpdateDetails(ctx context.Context, planID uuid.UUID, req UpdatePlanRequest) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := plan.UpdateDetails(req.Name, req.Description, req.SortOrder, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	response := ToPlanResponse(plan)
	return &response, nil
}

// UpdatePricing reprices a plan. Existing subscriptions keep the amount they
// snapshotted at subscribe time.
func (s *PlanService) UpdatePricing(ctx context.Context, planID uuid.UUID, req UpdatePlanPricingRequest) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	pricing := billing.PlanPricing{
		Monthly:   req.MonthlyPrice,
		Quarterly: req.QuarterlyPrice,
		Annual:    req.AnnualPrice,
		Lifetime:  req.LifetimePrice,
	}
	if err := plan.UpdatePricing(pricing, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	response := ToPlanResponse(plan)
	return &response, nil
}

// SetFeature grants or adjusts a feature on a plan
func (s *PlanService) SetFeature(ctx context.Context, planID uuid.UUID, req SetPlanFeatureRequest) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := plan.SetFeature(req.Name, req.Enabled, req.Limit, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	response := ToPlanResponse(plan)
	return &response, nil
}

// RemoveFeature removes a feature grant from a plan
func (s *PlanService) RemoveFeature(ctx context.Context, planID uuid.UUID, featureName string) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	plan.RemoveFeature(featureName, s.clock.Now())

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	response := ToPlanResponse(plan)
	return &response, nil
}

// Activate opens a plan for new subscriptions
func (s *PlanService) Activate(ctx context.Context, planID uuid.UUID) (*PlanResponse, error) {
	return s.setActive(ctx, planID, true)
}

// Deactivate closes a plan to new subscriptions. Existing subscriptions on
// the plan keep running.
func (s *PlanService) Deactivate(ctx context.Context, planID uuid.UUID) (*PlanResponse, error) {
	return s.setActive(ctx, planID, false)
}

func (s *PlanService) setActive(ctx context.Context, planID uuid.UUID, active bool) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if active {
		plan.Activate(s.clock.Now())
	} else {
		plan.Deactivate(s.clock.Now())
	}

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	response := ToPlanResponse(plan)
	return &response, nil
}

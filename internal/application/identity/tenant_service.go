package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/shared"
)

// TenantService handles marketplace operator management. Tenants are
// platform-wide; none of these operations runs under a tenant scope.
type TenantService struct {
	tenantRepo     identity.TenantRepository
	userRepo       identity.UserRepository
	planRepo       billing.PlanRepository
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo identity.TenantRepository,
	userRepo identity.UserRepository,
	planRepo billing.PlanRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		planRepo:   planRepo,
		clock:      clock,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *TenantService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateTenantInput contains input for creating a tenant
type CreateTenantInput struct {
	Code         string
	Name         string
	TrialDays    int // 0 creates the tenant active, >0 in trial
	ContactName  string
	ContactPhone string
	ContactEmail string
	Domain       string
}

// UpdateTenantInput contains input for updating a tenant
type UpdateTenantInput struct {
	Name         *string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
}

// TenantListFilter contains filtering options for tenant lists
type TenantListFilter struct {
	Page     int
	PageSize int
	Search   string
	OrderBy  string
	OrderDir string
}

// TenantDTO represents tenant data returned to the transport layer
type TenantDTO struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	ContactName  string     `json:"contact_name,omitempty"`
	ContactPhone string     `json:"contact_phone,omitempty"`
	ContactEmail string     `json:"contact_email,omitempty"`
	Domain       string     `json:"domain,omitempty"`
	PlanID       *uuid.UUID `json:"plan_id,omitempty"`
	PlanCode     string     `json:"plan_code,omitempty"`
	TrialEndsAt  *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TenantListResult represents a paginated tenant list
type TenantListResult struct {
	Tenants    []TenantDTO `json:"tenants"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// TenantStatsDTO carries identity-local tenant counters. Marketplace KPIs
// live in the analytics services.
type TenantStatsDTO struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	UserCount int64     `json:"user_count"`
}

// Create provisions a new marketplace operator
func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*TenantDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	now := s.clock.Now()

	s.logger.Info("Creating tenant",
		zap.String("code", code),
		zap.String("name", input.Name))

	exists, err := s.tenantRepo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("TENANT_CODE_EXISTS", "Tenant code is already taken")
	}

	var tenant *identity.Tenant
	if input.TrialDays > 0 {
		tenant, err = identity.NewTrialTenant(code, input.Name, input.TrialDays, now)
	} else {
		tenant, err = identity.NewTenant(code, input.Name, now)
	}
	if err != nil {
		return nil, err
	}

	if input.ContactName != "" || input.ContactPhone != "" || input.ContactEmail != "" {
		if err := tenant.SetContact(input.ContactName, input.ContactPhone, input.ContactEmail, now); err != nil {
			return nil, err
		}
	}
	if input.Domain != "" {
		if err := s.checkDomainAvailable(ctx, input.Domain, tenant.ID); err != nil {
			return nil, err
		}
		if err := tenant.SetDomain(input.Domain, now); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("Tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("code", tenant.Code))

	return toTenantDTO(tenant), nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTenantDTO(tenant), nil
}

// GetByCode retrieves a tenant by its unique code
func (s *TenantService) GetByCode(ctx context.Context, code string) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	return toTenantDTO(tenant), nil
}

// List retrieves a paginated tenant list
func (s *TenantService) List(ctx context.Context, filter TenantListFilter) (*TenantListResult, error) {
	sharedFilter := buildTenantFilter(filter)

	tenants, total, err := s.tenantRepo.FindAll(ctx, sharedFilter)
	if err != nil {
		return nil, err
	}

	dtos := make([]TenantDTO, len(tenants))
	for i, tenant := range tenants {
		dtos[i] = *toTenantDTO(tenant)
	}

	totalPages := int(total) / sharedFilter.PageSize
	if int(total)%sharedFilter.PageSize > 0 {
		totalPages++
	}

	return &TenantListResult{
		Tenants:    dtos,
		Total:      total,
		Page:       sharedFilter.Page,
		PageSize:   sharedFilter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Update updates a tenant's name and contact details
func (s *TenantService) Update(ctx context.Context, id uuid.UUID, input UpdateTenantInput) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if input.Name != nil {
		if err := tenant.Update(*input.Name, now); err != nil {
			return nil, err
		}
	}

	if input.ContactName != nil || input.ContactPhone != nil || input.ContactEmail != nil {
		contactName := tenant.ContactName
		contactPhone := tenant.ContactPhone
		contactEmail := tenant.ContactEmail
		if input.ContactName != nil {
			contactName = *input.ContactName
		}
		if input.ContactPhone != nil {
			contactPhone = *input.ContactPhone
		}
		if input.ContactEmail != nil {
			contactEmail = *input.ContactEmail
		}
		if err := tenant.SetContact(contactName, contactPhone, contactEmail, now); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, tenant); err != nil {
		return nil, err
	}

	return toTenantDTO(tenant), nil
}

// SetDomain assigns the tenant's custom subdomain
func (s *TenantService) SetDomain(ctx context.Context, id uuid.UUID, domain string) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkDomainAvailable(ctx, domain, id); err != nil {
		return nil, err
	}
	if err := tenant.SetDomain(domain, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.save(ctx, tenant); err != nil {
		return nil, err
	}

	return toTenantDTO(tenant), nil
}

// checkDomainAvailable rejects a subdomain already claimed by another tenant
func (s *TenantService) checkDomainAvailable(ctx context.Context, domain string, selfID uuid.UUID) error {
	existing, err := s.tenantRepo.FindByDomain(ctx, strings.ToLower(strings.TrimSpace(domain)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return shared.NewDomainError("TENANT_DOMAIN_EXISTS", "Domain is already taken")
	}
	return nil
}

// SetPlan links the tenant to a platform plan. The plan code is denormalized
// onto the tenant so sign-in checks need no billing lookup.
func (s *TenantService) SetPlan(ctx context.Context, id, planID uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := tenant.SetPlan(plan.ID, plan.Code, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.save(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("Tenant plan changed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("plan_code", plan.Code))

	return toTenantDTO(tenant), nil
}

// Activate activates a tenant
func (s *TenantService) Activate(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	return s.transition(ctx, id, func(t *identity.Tenant, now time.Time) error {
		return t.Activate(now)
	})
}

// Deactivate deactivates a tenant
func (s *TenantService) Deactivate(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	return s.transition(ctx, id, func(t *identity.Tenant, now time.Time) error {
		return t.Deactivate(now)
	})
}

// Suspend suspends a tenant for payment or policy issues
func (s *TenantService) Suspend(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	return s.transition(ctx, id, func(t *identity.Tenant, now time.Time) error {
		return t.Suspend(now)
	})
}

// ExpireTrials suspends trial tenants whose window has ended. Called by
// the scheduler; returns the number of tenants suspended.
func (s *TenantService) ExpireTrials(ctx context.Context, limit int) (int, error) {
	now := s.clock.Now()

	tenants, err := s.tenantRepo.FindExpiredTrials(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	suspended := 0
	for _, tenant := range tenants {
		if err := tenant.Suspend(now); err != nil {
			s.logger.Warn("Skipping trial tenant that cannot be suspended",
				zap.String("tenant_id", tenant.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.save(ctx, tenant); err != nil {
			s.logger.Error("Failed to suspend expired trial",
				zap.String("tenant_id", tenant.ID.String()),
				zap.Error(err))
			continue
		}
		suspended++
	}

	if suspended > 0 {
		s.logger.Info("Expired trials suspended", zap.Int("count", suspended))
	}
	return suspended, nil
}

// GetStats returns identity-local counters for a tenant
func (s *TenantService) GetStats(ctx context.Context, id uuid.UUID) (*TenantStatsDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	userCount, err := s.userRepo.CountForTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	return &TenantStatsDTO{
		TenantID:  tenant.ID,
		UserCount: userCount,
	}, nil
}

// Delete removes a tenant
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.tenantRepo.Delete(ctx, tenant.ID); err != nil {
		return err
	}

	s.logger.Info("Tenant deleted",
		zap.String("tenant_id", id.String()),
		zap.String("code", tenant.Code))
	return nil
}

func (s *TenantService) transition(ctx context.Context, id uuid.UUID, fn func(*identity.Tenant, time.Time) error) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(tenant, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.save(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("Tenant status changed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("status", string(tenant.Status)))

	return toTenantDTO(tenant), nil
}

func (s *TenantService) save(ctx context.Context, tenant *identity.Tenant) error {
	events := tenant.GetDomainEvents()
	tenant.ClearDomainEvents()

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return err
	}

	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	return nil
}

func buildTenantFilter(filter TenantListFilter) shared.Filter {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir != "asc" {
		orderDir = "desc"
	}

	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
}

// toTenantDTO converts a domain Tenant to its DTO
func toTenantDTO(tenant *identity.Tenant) *TenantDTO {
	return &TenantDTO{
		ID:           tenant.ID,
		Code:         tenant.Code,
		Name:         tenant.Name,
		Status:       string(tenant.Status),
		ContactName:  tenant.ContactName,
		ContactPhone: tenant.ContactPhone,
		ContactEmail: tenant.ContactEmail,
		Domain:       tenant.Domain,
		PlanID:       tenant.PlanID,
		PlanCode:     tenant.PlanCode,
		TrialEndsAt:  tenant.TrialEndsAt,
		CreatedAt:    tenant.CreatedAt,
		UpdatedAt:    tenant.UpdatedAt,
	}
}

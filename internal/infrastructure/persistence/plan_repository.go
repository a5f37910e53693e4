package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormPlanRepository implements billing.PlanRepository using GORM. Plans are
// platform-wide, so nothing here is tenant scoped.
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a plan by ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Plan, error) {
	var plan billing.Plan
	err := dbFor(ctx, r.db).Where("id = ?", id).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// FindByCode finds a plan by its unique code
func (r *GormPlanRepository) FindByCode(ctx context.Context, code string) (*billing.Plan, error) {
	var plan billing.Plan
	err := dbFor(ctx, r.db).Where("code = ?", code).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// FindAll finds all plans ordered by sort order
func (r *GormPlanRepository) FindAll(ctx context.Context) ([]*billing.Plan, error) {
	var plans []*billing.Plan
	err := dbFor(ctx, r.db).
		Order("sort_order ASC, monthly_price ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// FindActive finds plans open for new subscriptions
func (r *GormPlanRepository) FindActive(ctx context.Context) ([]*billing.Plan, error) {
	var plans []*billing.Plan
	err := dbFor(ctx, r.db).
		Where("is_active = ?", true).
		Order("sort_order ASC, monthly_price ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// Save creates or updates a plan
func (r *GormPlanRepository) Save(ctx context.Context, plan *billing.Plan) error {
	return dbFor(ctx, r.db).Save(plan).Error
}

// ExistsByCode checks if a plan code is already taken
func (r *GormPlanRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&billing.Plan{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormPlanRepository implements PlanRepository
var _ billing.PlanRepository = (*GormPlanRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormSubscriptionRepository implements billing.SubscriptionRepository
// using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds a subscription by ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := dbFor(ctx, r.db).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// FindByIDForTenant finds a subscription by ID scoped to a tenant
func (r *GormSubscriptionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// FindByVendor finds every subscription a vendor has ever held, newest first
func (r *GormSubscriptionRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) ([]*billing.Subscription, error) {
	var subs []*billing.Subscription
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// FindCurrentByVendor finds the vendor's TRIAL or ACTIVE subscription
func (r *GormSubscriptionRepository) FindCurrentByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND vendor_id = ? AND status IN ?",
			tenantID, vendorID,
			[]billing.SubscriptionStatus{billing.SubscriptionStatusTrial, billing.SubscriptionStatusActive}).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// FindByStatus finds subscriptions in a given status
func (r *GormSubscriptionRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status billing.SubscriptionStatus, filter shared.Filter) ([]*billing.Subscription, error) {
	query := dbFor(ctx, r.db).
		Where("tenant_id = ? AND status = ?", tenantID, status)

	sortField := ValidateSortField(filter.OrderBy, SubscriptionSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var subs []*billing.Subscription
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// FindDueForRenewal finds auto-renewing subscriptions due at or before the
// cutoff. The renewal sweep runs across tenants, so there is no tenant scope.
func (r *GormSubscriptionRepository) FindDueForRenewal(ctx context.Context, cutoff time.Time, limit int) ([]*billing.Subscription, error) {
	var subs []*billing.Subscription
	err := dbFor(ctx, r.db).
		Where("status IN ? AND auto_renew = ? AND next_billing_date <= ?",
			[]billing.SubscriptionStatus{billing.SubscriptionStatusTrial, billing.SubscriptionStatusActive},
			true, cutoff).
		Order("next_billing_date ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// FindLapsed finds TRIAL or ACTIVE subscriptions that ran past their period
// end without auto-renewal, across all tenants
func (r *GormSubscriptionRepository) FindLapsed(ctx context.Context, cutoff time.Time, limit int) ([]*billing.Subscription, error) {
	var subs []*billing.Subscription
	err := dbFor(ctx, r.db).
		Where("status IN ? AND auto_renew = ? AND current_period_end <= ?",
			[]billing.SubscriptionStatus{billing.SubscriptionStatusTrial, billing.SubscriptionStatusActive},
			false, cutoff).
		Order("current_period_end ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Save creates or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, sub *billing.Subscription) error {
	return dbFor(ctx, r.db).Save(sub).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormSubscriptionRepository) SaveWithLock(ctx context.Context, sub *billing.Subscription) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		return r.saveWithLockTx(tx, sub)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and appends the given
// domain events to the outbox in the same transaction
func (r *GormSubscriptionRepository) SaveWithLockAndEvents(ctx context.Context, sub *billing.Subscription, events []shared.DomainEvent) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.saveWithLockTx(tx, sub); err != nil {
			return err
		}
		return appendOutboxEntries(tx, sub.TenantID, events)
	})
}

func (r *GormSubscriptionRepository) saveWithLockTx(tx *gorm.DB, sub *billing.Subscription) error {
	var currentVersion int
	if err := tx.Model(&billing.Subscription{}).
		Where("id = ?", sub.ID).
		Select("version").
		Scan(&currentVersion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}

	if currentVersion != sub.Version {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The subscription has been modified by another user")
	}

	sub.Version++
	sub.UpdatedAt = time.Now().UTC()

	result := tx.Model(&billing.Subscription{}).
		Where("id = ? AND version = ?", sub.ID, currentVersion).
		Updates(map[string]interface{}{
			"plan_id":              sub.PlanID,
			"plan_code":            sub.PlanCode,
			"status":               sub.Status,
			"billing_cycle":        sub.BillingCycle,
			"amount":               sub.Amount,
			"currency":             sub.Currency,
			"trial_end_date":       sub.TrialEndDate,
			"current_period_start": sub.CurrentPeriodStart,
			"current_period_end":   sub.CurrentPeriodEnd,
			"next_billing_date":    sub.NextBillingDate,
			"end_date":             sub.EndDate,
			"auto_renew":           sub.AutoRenew,
			"cancelled_at":         sub.CancelledAt,
			"cancellation_reason":  sub.CancellationReason,
			"pending_plan_id":      sub.PendingPlanID,
			"pending_plan_code":    sub.PendingPlanCode,
			"pending_amount":       sub.PendingAmount,
			"pending_currency":     sub.PendingCurrency,
			"version":              sub.Version,
			"updated_at":           sub.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The subscription has been modified by another user")
	}
	return nil
}

// CountByStatus counts subscriptions per status for a tenant
func (r *GormSubscriptionRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[billing.SubscriptionStatus]int64, error) {
	var rows []struct {
		Status billing.SubscriptionStatus
		Total  int64
	}
	err := dbFor(ctx, r.db).
		Model(&billing.Subscription{}).
		Select("status, COUNT(*) AS total").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[billing.SubscriptionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// Ensure GormSubscriptionRepository implements SubscriptionRepository
var _ billing.SubscriptionRepository = (*GormSubscriptionRepository)(nil)

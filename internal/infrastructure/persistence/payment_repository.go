package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var payment billing.Payment
	err := dbFor(ctx, r.db).Where("id = ?", id).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindByIDForTenant finds a payment by ID scoped to a tenant
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	var payment billing.Payment
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindBySubscription finds a subscription's payments, newest first
func (r *GormPaymentRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]*billing.Payment, error) {
	var payments []*billing.Payment
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// FindRetryable finds failed payments that still have retries left and last
// failed before the cutoff. The payment retry sweep runs across tenants, so
// there is no tenant scope; the cutoff spaces retries of the same payment.
func (r *GormPaymentRepository) FindRetryable(ctx context.Context, failedBefore time.Time, limit int) ([]*billing.Payment, error) {
	var payments []*billing.Payment
	err := dbFor(ctx, r.db).
		Where("status = ? AND retry_count < ? AND updated_at < ?",
			billing.PaymentStatusFailed, billing.MaxPaymentRetries, failedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	return dbFor(ctx, r.db).Save(payment).Error
}

// SaveWithLockAndEvents saves with optimistic locking and appends the given
// domain events to the outbox in the same transaction
func (r *GormPaymentRepository) SaveWithLockAndEvents(ctx context.Context, payment *billing.Payment, events []shared.DomainEvent) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&billing.Payment{}).
			Where("id = ?", payment.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != payment.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The payment has been modified by another user")
		}

		payment.Version++
		payment.UpdatedAt = time.Now().UTC()

		result := tx.Model(&billing.Payment{}).
			Where("id = ? AND version = ?", payment.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":         payment.Status,
				"method":         payment.Method,
				"transaction_id": payment.TransactionID,
				"failure_reason": payment.FailureReason,
				"retry_count":    payment.RetryCount,
				"paid_at":        payment.PaidAt,
				"version":        payment.Version,
				"updated_at":     payment.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The payment has been modified by another user")
		}

		return appendOutboxEntries(tx, payment.TenantID, events)
	})
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)

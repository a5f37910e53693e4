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

// GormUsageRecordRepository implements billing.UsageRecordRepository
// using GORM
type GormUsageRecordRepository struct {
	db *gorm.DB
}

// NewGormUsageRecordRepository creates a new GormUsageRecordRepository
func NewGormUsageRecordRepository(db *gorm.DB) *GormUsageRecordRepository {
	return &GormUsageRecordRepository{db: db}
}

// FindForPeriod finds the counter for one feature in one period
func (r *GormUsageRecordRepository) FindForPeriod(ctx context.Context, tenantID, subscriptionID uuid.UUID, featureName string, periodStart time.Time) (*billing.UsageRecord, error) {
	var record billing.UsageRecord
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND subscription_id = ? AND feature_name = ? AND period_start = ?",
			tenantID, subscriptionID, featureName, periodStart).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindBySubscription finds all counters for a subscription's period
func (r *GormUsageRecordRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, periodStart time.Time) ([]*billing.UsageRecord, error) {
	var records []*billing.UsageRecord
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND subscription_id = ? AND period_start = ?",
			tenantID, subscriptionID, periodStart).
		Order("feature_name ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a usage record
func (r *GormUsageRecordRepository) Save(ctx context.Context, record *billing.UsageRecord) error {
	return dbFor(ctx, r.db).Save(record).Error
}

// SaveWithLock saves with optimistic locking. Concurrent increments of the
// same counter conflict here instead of silently losing updates.
func (r *GormUsageRecordRepository) SaveWithLock(ctx context.Context, record *billing.UsageRecord) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&billing.UsageRecord{}).
			Where("id = ?", record.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != record.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The usage record has been modified by another user")
		}

		record.Version++
		record.UpdatedAt = time.Now().UTC()

		result := tx.Model(&billing.UsageRecord{}).
			Where("id = ? AND version = ?", record.ID, currentVersion).
			Updates(map[string]interface{}{
				"usage_count": record.UsageCount,
				"usage_limit": record.UsageLimit,
				"period_end":  record.PeriodEnd,
				"version":     record.Version,
				"updated_at":  record.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The usage record has been modified by another user")
		}
		return nil
	})
}

// DeleteOlderThan removes counters from periods that ended before the cutoff
func (r *GormUsageRecordRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := dbFor(ctx, r.db).
		Where("period_end < ?", cutoff).
		Delete(&billing.UsageRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Ensure GormUsageRecordRepository implements UsageRecordRepository
var _ billing.UsageRecordRepository = (*GormUsageRecordRepository)(nil)

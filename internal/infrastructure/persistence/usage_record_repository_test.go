package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared"
)

var (
	usagePeriodStart = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	usagePeriodEnd   = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
)

func setupUsageRecordTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&billing.UsageRecord{}))
	return db
}

func createTestUsageRecord(t *testing.T, db *gorm.DB, tenantID, subscriptionID uuid.UUID, featureName string, limit *int64) *billing.UsageRecord {
	t.Helper()
	record, err := billing.NewUsageRecord(tenantID, subscriptionID, uuid.New(), featureName, limit, usagePeriodStart, usagePeriodEnd)
	require.NoError(t, err)
	require.NoError(t, db.Create(record).Error)
	return record
}

func usageLimit(n int64) *int64 {
	return &n
}

func TestGormUsageRecordRepository_FindForPeriod(t *testing.T) {
	db := setupUsageRecordTestDB(t)
	repo := NewGormUsageRecordRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	subscriptionID := uuid.New()

	created := createTestUsageRecord(t, db, tenantID, subscriptionID, "product_listings", usageLimit(100))

	t.Run("matches the exact period", func(t *testing.T) {
		found, err := repo.FindForPeriod(ctx, tenantID, subscriptionID, "product_listings", usagePeriodStart)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "product_listings", found.FeatureName)
		require.NotNil(t, found.UsageLimit)
		assert.EqualValues(t, 100, *found.UsageLimit)
	})

	t.Run("a different period has no counter", func(t *testing.T) {
		_, err := repo.FindForPeriod(ctx, tenantID, subscriptionID, "product_listings", usagePeriodStart.AddDate(0, 1, 0))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("a different feature has no counter", func(t *testing.T) {
		_, err := repo.FindForPeriod(ctx, tenantID, subscriptionID, "api_calls", usagePeriodStart)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("scoped to the tenant", func(t *testing.T) {
		_, err := repo.FindForPeriod(ctx, uuid.New(), subscriptionID, "product_listings", usagePeriodStart)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormUsageRecordRepository_FindBySubscription(t *testing.T) {
	db := setupUsageRecordTestDB(t)
	repo := NewGormUsageRecordRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	subscriptionID := uuid.New()

	createTestUsageRecord(t, db, tenantID, subscriptionID, "product_listings", usageLimit(100))
	createTestUsageRecord(t, db, tenantID, subscriptionID, "api_calls", nil)
	createTestUsageRecord(t, db, tenantID, uuid.New(), "product_listings", usageLimit(50))

	records, err := repo.FindBySubscription(ctx, tenantID, subscriptionID, usagePeriodStart)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ordered by feature name
	assert.Equal(t, "api_calls", records[0].FeatureName)
	assert.Equal(t, "product_listings", records[1].FeatureName)
	assert.Nil(t, records[0].UsageLimit)

	records, err = repo.FindBySubscription(ctx, tenantID, subscriptionID, usagePeriodStart.AddDate(0, -1, 0))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGormUsageRecordRepository_SaveWithLock(t *testing.T) {
	db := setupUsageRecordTestDB(t)
	repo := NewGormUsageRecordRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	subscriptionID := uuid.New()

	t.Run("persists the increment and bumps the version", func(t *testing.T) {
		record := createTestUsageRecord(t, db, tenantID, subscriptionID, "product_listings", usageLimit(100))

		result, err := record.Track(5, usagePeriodStart.Add(time.Hour))
		require.NoError(t, err)
		require.True(t, result.Allowed)

		require.NoError(t, repo.SaveWithLock(ctx, record))

		found, err := repo.FindForPeriod(ctx, tenantID, subscriptionID, "product_listings", usagePeriodStart)
		require.NoError(t, err)
		assert.EqualValues(t, 5, found.UsageCount)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("concurrent increments conflict instead of losing updates", func(t *testing.T) {
		record := createTestUsageRecord(t, db, tenantID, subscriptionID, "api_calls", nil)

		stale, err := repo.FindForPeriod(ctx, tenantID, subscriptionID, "api_calls", usagePeriodStart)
		require.NoError(t, err)

		_, err = record.Track(3, usagePeriodStart.Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, record))

		_, err = stale.Track(4, usagePeriodStart.Add(time.Hour))
		require.NoError(t, err)
		err = repo.SaveWithLock(ctx, stale)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)

		found, err := repo.FindForPeriod(ctx, tenantID, subscriptionID, "api_calls", usagePeriodStart)
		require.NoError(t, err)
		assert.EqualValues(t, 3, found.UsageCount)
	})
}

func TestGormUsageRecordRepository_DeleteOlderThan(t *testing.T) {
	db := setupUsageRecordTestDB(t)
	repo := NewGormUsageRecordRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	subscriptionID := uuid.New()

	// Two counters from an old period, one from the current period
	old1, err := billing.NewUsageRecord(tenantID, subscriptionID, uuid.New(), "product_listings", usageLimit(100),
		usagePeriodStart.AddDate(0, -3, 0), usagePeriodEnd.AddDate(0, -3, 0))
	require.NoError(t, err)
	require.NoError(t, db.Create(old1).Error)

	old2, err := billing.NewUsageRecord(tenantID, subscriptionID, uuid.New(), "api_calls", nil,
		usagePeriodStart.AddDate(0, -3, 0), usagePeriodEnd.AddDate(0, -3, 0))
	require.NoError(t, err)
	require.NoError(t, db.Create(old2).Error)

	createTestUsageRecord(t, db, tenantID, subscriptionID, "product_listings", usageLimit(100))

	deleted, err := repo.DeleteOlderThan(ctx, usagePeriodStart)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, err = repo.FindForPeriod(ctx, tenantID, subscriptionID, "product_listings", usagePeriodStart)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&billing.UsageRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	deleted, err = repo.DeleteOlderThan(ctx, usagePeriodStart)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

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
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/markethub/backend/internal/infrastructure/persistence/models"
)

var paymentNow = time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

func setupPaymentTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&billing.Payment{}, &models.OutboxEntryModel{}))
	return db
}

func createTestPayment(t *testing.T, db *gorm.DB, tenantID, subscriptionID uuid.UUID, createdAt time.Time) *billing.Payment {
	t.Helper()
	payment, err := billing.NewPayment(tenantID, subscriptionID, uuid.New(),
		valueobject.NewMoneyUSDFromFloat(49.00), "card",
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	payment.CreatedAt = createdAt
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func forcePaymentUpdatedAt(t *testing.T, db *gorm.DB, id uuid.UUID, at time.Time) {
	t.Helper()
	require.NoError(t, db.Model(&billing.Payment{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error)
}

func TestGormPaymentRepository_FindByIDForTenant(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	payment := createTestPayment(t, db, tenantID, uuid.New(), paymentNow)

	found, err := repo.FindByIDForTenant(ctx, tenantID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, found.ID)
	assert.Equal(t, billing.PaymentStatusPending, found.Status)
	assert.True(t, found.Amount.Equal(payment.Amount))

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), payment.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormPaymentRepository_FindBySubscription(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	subscriptionID := uuid.New()

	june := createTestPayment(t, db, tenantID, subscriptionID, paymentNow.AddDate(0, -1, 0))
	july := createTestPayment(t, db, tenantID, subscriptionID, paymentNow)
	createTestPayment(t, db, tenantID, uuid.New(), paymentNow)

	payments, err := repo.FindBySubscription(ctx, tenantID, subscriptionID)
	require.NoError(t, err)
	require.Len(t, payments, 2)

	// Newest first
	assert.Equal(t, july.ID, payments[0].ID)
	assert.Equal(t, june.ID, payments[1].ID)
}

func TestGormPaymentRepository_FindRetryable(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	cutoff := paymentNow.Add(-6 * time.Hour)

	// Failed yesterday, retries left
	retryable := createTestPayment(t, db, tenantID, uuid.New(), paymentNow.AddDate(0, 0, -1))
	require.NoError(t, retryable.MarkFailed("card declined", paymentNow.AddDate(0, 0, -1)))
	require.NoError(t, db.Save(retryable).Error)
	forcePaymentUpdatedAt(t, db, retryable.ID, paymentNow.AddDate(0, 0, -1))

	// Failed an hour ago, too fresh for the cutoff
	fresh := createTestPayment(t, db, tenantID, uuid.New(), paymentNow)
	require.NoError(t, fresh.MarkFailed("card declined", paymentNow.Add(-time.Hour)))
	require.NoError(t, db.Save(fresh).Error)
	forcePaymentUpdatedAt(t, db, fresh.ID, paymentNow.Add(-time.Hour))

	// Out of retries
	exhausted := createTestPayment(t, db, tenantID, uuid.New(), paymentNow.AddDate(0, 0, -2))
	require.NoError(t, exhausted.MarkFailed("card declined", paymentNow.AddDate(0, 0, -2)))
	exhausted.RetryCount = billing.MaxPaymentRetries
	require.NoError(t, db.Save(exhausted).Error)
	forcePaymentUpdatedAt(t, db, exhausted.ID, paymentNow.AddDate(0, 0, -2))

	// Succeeded, nothing to retry
	completed := createTestPayment(t, db, tenantID, uuid.New(), paymentNow.AddDate(0, 0, -1))
	require.NoError(t, completed.MarkCompleted("txn_123", paymentNow.AddDate(0, 0, -1)))
	require.NoError(t, db.Save(completed).Error)
	forcePaymentUpdatedAt(t, db, completed.ID, paymentNow.AddDate(0, 0, -1))

	payments, err := repo.FindRetryable(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, retryable.ID, payments[0].ID)

	t.Run("oldest failure wins the batch slot", func(t *testing.T) {
		older := createTestPayment(t, db, tenantID, uuid.New(), paymentNow.AddDate(0, 0, -3))
		require.NoError(t, older.MarkFailed("card declined", paymentNow.AddDate(0, 0, -3)))
		require.NoError(t, db.Save(older).Error)
		forcePaymentUpdatedAt(t, db, older.ID, paymentNow.AddDate(0, 0, -3))

		payments, err := repo.FindRetryable(ctx, cutoff, 1)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, older.ID, payments[0].ID)
	})
}

func TestGormPaymentRepository_SaveWithLockAndEvents(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("persists the payment and its events atomically", func(t *testing.T) {
		payment := createTestPayment(t, db, tenantID, uuid.New(), paymentNow)
		require.NoError(t, payment.MarkCompleted("txn_abc", paymentNow))

		err := repo.SaveWithLockAndEvents(ctx, payment, payment.GetDomainEvents())
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusCompleted, found.Status)
		assert.Equal(t, "txn_abc", found.TransactionID)
		assert.Equal(t, 2, found.Version)

		var entries []models.OutboxEntryModel
		require.NoError(t, db.Where("aggregate_id = ?", payment.ID).Find(&entries).Error)
		require.Len(t, entries, 1)
		assert.Equal(t, billing.EventTypePaymentCompleted, entries[0].EventType)
		assert.Equal(t, tenantID, entries[0].TenantID)
	})

	t.Run("stale version writes nothing", func(t *testing.T) {
		payment := createTestPayment(t, db, tenantID, uuid.New(), paymentNow)

		stale, err := repo.FindByID(ctx, payment.ID)
		require.NoError(t, err)

		require.NoError(t, payment.MarkFailed("card declined", paymentNow))
		require.NoError(t, repo.SaveWithLockAndEvents(ctx, payment, payment.GetDomainEvents()))

		require.NoError(t, stale.MarkCompleted("txn_dup", paymentNow))
		err = repo.SaveWithLockAndEvents(ctx, stale, stale.GetDomainEvents())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)

		found, err := repo.FindByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusFailed, found.Status)

		var count int64
		require.NoError(t, db.Model(&models.OutboxEntryModel{}).
			Where("aggregate_id = ? AND event_type = ?", payment.ID, billing.EventTypePaymentCompleted).
			Count(&count).Error)
		assert.Zero(t, count)
	})
}

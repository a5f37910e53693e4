package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/markethub/backend/internal/infrastructure/persistence"
)

func testAddress(t *testing.T) valueobject.Address {
	t.Helper()
	addr, err := valueobject.NewAddress("Jane Buyer", "1 Market St", "Springfield", "IL", "62701", "US")
	require.NoError(t, err)
	return addr
}

func placeTestOrder(t *testing.T, repo *persistence.GormOrderRepository, tenantID, customerID, vendorID, productID uuid.UUID, now time.Time) *ordering.Order {
	t.Helper()

	addr := testAddress(t)
	number, err := repo.GenerateOrderNumber(context.Background(), tenantID)
	require.NoError(t, err)

	order, err := ordering.NewOrder(tenantID, number, customerID, "Jane Buyer", vendorID, "Acme Supplies", valueobject.USD, addr, addr, now)
	require.NoError(t, err)

	_, err = order.AddItem(productID, "Test Product", "SKU-1", 2, valueobject.NewMoneyUSD(decimal.NewFromFloat(19.99)), now)
	require.NoError(t, err)
	order.ClearDomainEvents()

	require.NoError(t, repo.Save(context.Background(), order))
	return order
}

func TestOrderLifecycle_FullFulfillmentFlow(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormOrderRepository(tdb.DB)

	tenantID := uuid.New()
	vendorID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()
	tdb.CreateTestTenant(tenantID.String(), "Lifecycle Tenant", "lifecycle")
	tdb.CreateTestVendor(tenantID, vendorID)
	tdb.CreateTestProduct(tenantID, vendorID, productID)

	now := time.Now().UTC()
	order := placeTestOrder(t, repo, tenantID, customerID, vendorID, productID, now)

	loaded, err := repo.FindByIDForTenant(ctx, tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusPending, loaded.Status)
	assert.Equal(t, ordering.PaymentStatusPending, loaded.PaymentStatus)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.TotalAmount.Equal(decimal.NewFromFloat(39.98)), "expected 39.98, got %s", loaded.TotalAmount)

	// Pay and walk the fulfillment chain, persisting each step with the
	// version check the handlers use.
	require.NoError(t, loaded.UpdatePaymentStatus(ordering.PaymentStatusPaid, "txn_test_1", now))
	require.NoError(t, loaded.Confirm(now))
	loaded.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	require.NoError(t, loaded.StartProcessing(now))
	require.NoError(t, loaded.Ship(now))
	require.NoError(t, loaded.Deliver(now))
	loaded.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	final, err := repo.FindByOrderNumber(ctx, tenantID, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusDelivered, final.Status)
	assert.Equal(t, ordering.PaymentStatusPaid, final.PaymentStatus)
	assert.Equal(t, "txn_test_1", final.TransactionID)
	require.NotNil(t, final.ConfirmedAt)
	require.NotNil(t, final.ShippedAt)
	require.NotNil(t, final.DeliveredAt)
	assert.Nil(t, final.CancelledAt)

	delivered, err := repo.FindDeliveredContainingProduct(ctx, tenantID, customerID, productID)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, order.ID, delivered[0].ID)
}

func TestOrderLifecycle_CancelRecordsReason(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormOrderRepository(tdb.DB)

	tenantID := uuid.New()
	vendorID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()
	tdb.CreateTestTenant(tenantID.String(), "Cancel Tenant", "cancel")
	tdb.CreateTestVendor(tenantID, vendorID)
	tdb.CreateTestProduct(tenantID, vendorID, productID)

	now := time.Now().UTC()
	order := placeTestOrder(t, repo, tenantID, customerID, vendorID, productID, now)

	require.NoError(t, order.Cancel("customer changed their mind", now))
	order.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(ctx, order))

	loaded, err := repo.FindByIDForTenant(ctx, tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusCancelled, loaded.Status)
	assert.Equal(t, "customer changed their mind", loaded.CancellationReason)
	require.NotNil(t, loaded.CancelledAt)

	// Terminal state, even a cancel is rejected now
	assert.Error(t, loaded.Cancel("again", now))
}

func TestOrderLifecycle_OptimisticLockConflict(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormOrderRepository(tdb.DB)

	tenantID := uuid.New()
	vendorID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()
	tdb.CreateTestTenant(tenantID.String(), "Lock Tenant", "lock")
	tdb.CreateTestVendor(tenantID, vendorID)
	tdb.CreateTestProduct(tenantID, vendorID, productID)

	now := time.Now().UTC()
	order := placeTestOrder(t, repo, tenantID, customerID, vendorID, productID, now)

	first, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, first.Confirm(now))
	first.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(ctx, first))

	// The second copy still carries the stale version
	require.NoError(t, second.Confirm(now))
	second.ClearDomainEvents()
	err = repo.SaveWithLock(ctx, second)
	require.Error(t, err)
	assert.Equal(t, "CONCURRENT_MODIFICATION", shared.ErrorCode(err))
}

func TestOrderLifecycle_CountByStatus(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormOrderRepository(tdb.DB)

	tenantID := uuid.New()
	vendorID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()
	tdb.CreateTestTenant(tenantID.String(), "Count Tenant", "count")
	tdb.CreateTestVendor(tenantID, vendorID)
	tdb.CreateTestProduct(tenantID, vendorID, productID)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		placeTestOrder(t, repo, tenantID, customerID, vendorID, productID, now)
	}
	confirmed := placeTestOrder(t, repo, tenantID, customerID, vendorID, productID, now)
	require.NoError(t, confirmed.Confirm(now))
	confirmed.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(ctx, confirmed))

	pending, err := repo.CountByStatus(ctx, tenantID, ordering.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending)

	total, err := repo.CountByCustomer(ctx, tenantID, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

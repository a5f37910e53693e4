package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/markethub/backend/internal/infrastructure/persistence"
)

// Every tenant-scoped query must stay inside its own tenant. These tests
// run two tenants side by side on the same database and verify that reads
// through the repositories never leak rows across the boundary.

func createTenantWithProduct(t *testing.T, tdb *TestDB, code, sku string) (tenantID, vendorID, productID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	tenantID = uuid.New()
	vendorID = uuid.New()
	tdb.CreateTestTenant(tenantID.String(), "Tenant "+code, code)
	tdb.CreateTestVendor(tenantID, vendorID)

	now := time.Now().UTC()
	product, err := catalog.NewProduct(tenantID, vendorID, sku, "Widget "+sku, valueobject.NewMoneyUSD(decimal.NewFromFloat(9.99)), now)
	require.NoError(t, err)
	require.NoError(t, product.SetStock(10, now))
	require.NoError(t, product.Publish(now))
	product.ClearDomainEvents()

	repo := persistence.NewGormProductRepository(tdb.DB)
	require.NoError(t, repo.Save(ctx, product))
	return tenantID, vendorID, product.ID
}

func TestTenantIsolation_Products(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormProductRepository(tdb.DB)

	tenantA, _, productA := createTenantWithProduct(t, tdb, "tenant-a", "SKU-A")
	tenantB, _, productB := createTenantWithProduct(t, tdb, "tenant-b", "SKU-B")

	// Each tenant sees only its own catalog
	productsA, totalA, err := repo.FindActive(ctx, tenantA, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), totalA)
	require.Len(t, productsA, 1)
	assert.Equal(t, productA, productsA[0].ID)

	// Cross-tenant lookup by ID misses even though the row exists
	_, err = repo.FindByIDForTenant(ctx, tenantA, productB)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))

	// SKU uniqueness is per tenant, so the same SKU is free in B
	exists, err := repo.ExistsBySKU(ctx, tenantB, "SKU-A")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsBySKU(ctx, tenantA, "SKU-A")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTenantIsolation_Customers(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormCustomerRepository(tdb.DB)

	tenantA := uuid.New()
	tenantB := uuid.New()
	tdb.CreateTestTenant(tenantA.String(), "Tenant A", "cust-a")
	tdb.CreateTestTenant(tenantB.String(), "Tenant B", "cust-b")

	now := time.Now().UTC()
	customerA, err := partner.NewCustomer(tenantA, "Alice", "alice@example.com", now)
	require.NoError(t, err)
	customerA.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, customerA))

	// The same email registers independently under another tenant
	customerB, err := partner.NewCustomer(tenantB, "Alice B", "alice@example.com", now)
	require.NoError(t, err)
	customerB.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, customerB))

	found, err := repo.FindByEmail(ctx, tenantA, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, customerA.ID, found.ID)

	found, err = repo.FindByEmail(ctx, tenantB, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, customerB.ID, found.ID)

	_, err = repo.FindByIDForTenant(ctx, tenantA, customerB.ID)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))

	_, totalA, err := repo.FindAll(ctx, tenantA, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), totalA)
}

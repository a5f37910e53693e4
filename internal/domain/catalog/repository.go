package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// ProductRepository defines persistence for catalog products
type ProductRepository interface {
	// FindByID retrieves a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDForTenant retrieves a product scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindByIDsForTenant retrieves several products at once, for order placement
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Product, error)

	// FindBySKU retrieves a product by its SKU within a tenant
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Product, error)

	// FindByVendor retrieves a vendor's listings
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]*Product, int64, error)

	// FindByCategory retrieves listings in a category
	FindByCategory(ctx context.Context, tenantID, categoryID uuid.UUID, filter shared.Filter) ([]*Product, int64, error)

	// FindActive retrieves purchasable listings for storefront browsing
	FindActive(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Product, int64, error)

	// FindLowStock retrieves active listings at or below the given stock level
	FindLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) ([]*Product, error)

	// Save persists a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock persists a product with optimistic concurrency control
	SaveWithLock(ctx context.Context, product *Product) error

	// SaveWithLockAndEvents saves with optimistic locking and persists domain
	// events to the outbox in the same transaction
	SaveWithLockAndEvents(ctx context.Context, product *Product, events []shared.DomainEvent) error

	// ExistsBySKU checks whether a SKU is already taken within a tenant
	ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)

	// CountByVendor counts a vendor's listings
	CountByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (int64, error)
}

// CategoryRepository defines persistence for the category tree
type CategoryRepository interface {
	// FindByID retrieves a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByIDForTenant retrieves a category scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)

	// FindBySlug retrieves a category by its slug within a tenant
	FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*Category, error)

	// FindRoots retrieves top-level categories ordered by sort order
	FindRoots(ctx context.Context, tenantID uuid.UUID) ([]*Category, error)

	// FindChildren retrieves the direct children of a category
	FindChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]*Category, error)

	// FindSubtree retrieves a category and all its descendants via the path prefix
	FindSubtree(ctx context.Context, tenantID uuid.UUID, path string) ([]*Category, error)

	// FindAllForTenant retrieves every category of a tenant ordered by sort
	// order, for building the browse tree in one query
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]*Category, error)

	// Save persists a category
	Save(ctx context.Context, category *Category) error

	// ExistsBySlug checks whether a slug is already taken within a tenant
	ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (bool, error)

	// HasChildren reports whether the category has direct children
	HasChildren(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error)

	// HasProducts reports whether any product references the category
	HasProducts(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error)

	// Delete removes a category. Callers must check for children and
	// products first.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := dbFor(ctx, r.db).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDForTenant finds a product by ID scoped to a tenant
func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDsForTenant finds several products at once. Missing IDs are simply
// absent from the result; callers decide whether that is an error.
func (r *GormProductRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return []*catalog.Product{}, nil
	}
	var products []*catalog.Product
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindBySKU finds a product by SKU within a tenant
func (r *GormProductRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	var product catalog.Product
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND sku = ?", tenantID, sku).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByVendor finds a vendor's listings with filtering
func (r *GormProductRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]*catalog.Product, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID)
	return r.findPage(query, filter)
}

// FindByCategory finds listings in a category with filtering
func (r *GormProductRepository) FindByCategory(ctx context.Context, tenantID, categoryID uuid.UUID, filter shared.Filter) ([]*catalog.Product, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND category_id = ?", tenantID, categoryID)
	return r.findPage(query, filter)
}

// FindActive finds purchasable listings for storefront browsing
func (r *GormProductRepository) FindActive(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*catalog.Product, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND status = ?", tenantID, catalog.ProductStatusActive)
	return r.findPage(query, filter)
}

// FindLowStock finds active listings at or below the stock threshold
func (r *GormProductRepository) FindLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) ([]*catalog.Product, error) {
	var products []*catalog.Product
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND status = ? AND stock_quantity <= ?",
			tenantID, catalog.ProductStatusActive, threshold).
		Order("stock_quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return dbFor(ctx, r.db).Save(product).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		return r.saveWithLockTx(tx, product)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and appends the given
// domain events to the outbox in the same transaction
func (r *GormProductRepository) SaveWithLockAndEvents(ctx context.Context, product *catalog.Product, events []shared.DomainEvent) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.saveWithLockTx(tx, product); err != nil {
			return err
		}
		return appendOutboxEntries(tx, product.TenantID, events)
	})
}

func (r *GormProductRepository) saveWithLockTx(tx *gorm.DB, product *catalog.Product) error {
	var currentVersion int
	if err := tx.Model(&catalog.Product{}).
		Where("id = ?", product.ID).
		Select("version").
		Scan(&currentVersion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}

	if currentVersion != product.Version {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The product has been modified by another user")
	}

	product.Version++
	product.UpdatedAt = time.Now().UTC()

	result := tx.Model(&catalog.Product{}).
		Where("id = ? AND version = ?", product.ID, currentVersion).
		Updates(map[string]interface{}{
			"name":             product.Name,
			"description":      product.Description,
			"category_id":      product.CategoryID,
			"price":            product.Price,
			"compare_at_price": product.CompareAtPrice,
			"currency":         product.Currency,
			"stock_quantity":   product.StockQuantity,
			"status":           product.Status,
			"images":           product.Images,
			"rating_average":   product.RatingAverage,
			"rating_count":     product.RatingCount,
			"sort_order":       product.SortOrder,
			"version":          product.Version,
			"updated_at":       product.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The product has been modified by another user")
	}
	return nil
}

// ExistsBySKU checks if a SKU exists for a tenant
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND sku = ?", tenantID, sku).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByVendor counts a vendor's listings
func (r *GormProductRepository) CountByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// findPage counts matching rows, then fetches one page sorted by the
// validated sort field
func (r *GormProductRepository) findPage(query *gorm.DB, filter shared.Filter) ([]*catalog.Product, int64, error) {
	query = r.applyFilterWithoutPagination(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, ProductSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var products []*catalog.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProductRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "category_id":
			query = query.Where("category_id = ?", value)
		case "vendor_id":
			query = query.Where("vendor_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "min_price":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("price >= ?", d)
			}
		case "max_price":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("price <= ?", d)
			}
		case "in_stock":
			if v, ok := value.(bool); ok && v {
				query = query.Where("stock_quantity > 0")
			}
		}
	}

	return query
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)

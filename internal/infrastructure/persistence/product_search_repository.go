package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/search"
)

// Relevance weights for the summed CASE score. A name hit outweighs a SKU
// hit, which outweighs a description hit.
const (
	nameHitWeight        = 5
	skuHitWeight         = 3
	descriptionHitWeight = 1
)

// Vendor facets cap at the busiest sellers rather than listing every
// storefront with a single match.
const vendorFacetLimit = 20

// GormProductSearchRepository answers catalog discovery queries with LIKE
// scans over lowercased columns. Terms are ANDed against each other; inside
// one term the name, SKU and description fields are ORed.
type GormProductSearchRepository struct {
	db *gorm.DB
}

// NewGormProductSearchRepository creates a product search repository
func NewGormProductSearchRepository(db *gorm.DB) *GormProductSearchRepository {
	return &GormProductSearchRepository{db: db}
}

// termFilteredProducts scopes to the tenant's ACTIVE listings matching every
// search term. Facets count on this scope, before structured filters apply.
func (r *GormProductSearchRepository) termFilteredProducts(ctx context.Context, query search.ProductQuery) *gorm.DB {
	db := r.db.WithContext(ctx).
		Table("products p").
		Where("p.tenant_id = ?", query.TenantID).
		Where("p.status = ?", catalog.ProductStatusActive)
	for _, term := range query.Terms {
		pattern := "%" + term + "%"
		db = db.Where("(LOWER(p.name) LIKE ? OR LOWER(p.sku) LIKE ? OR LOWER(p.description) LIKE ?)", pattern, pattern, pattern)
	}
	return db
}

// filteredProducts narrows the term scope with the structured filters
func (r *GormProductSearchRepository) filteredProducts(ctx context.Context, query search.ProductQuery) *gorm.DB {
	db := r.termFilteredProducts(ctx, query)
	if query.CategoryID != nil {
		db = db.Where("p.category_id = ?", *query.CategoryID)
	}
	if query.VendorID != nil {
		db = db.Where("p.vendor_id = ?", *query.VendorID)
	}
	if query.PriceMin != nil {
		db = db.Where("p.price >= ?", *query.PriceMin)
	}
	if query.PriceMax != nil {
		db = db.Where("p.price <= ?", *query.PriceMax)
	}
	if query.MinRating != nil {
		db = db.Where("p.rating_average >= ?", *query.MinRating)
	}
	return db
}

// SearchProducts returns one page of ranked hits plus the total match count
func (r *GormProductSearchRepository) SearchProducts(ctx context.Context, query search.ProductQuery) ([]search.ProductHit, int64, error) {
	var total int64
	if err := r.filteredProducts(ctx, query).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count product matches: %w", err)
	}

	scoreExpr, scoreArgs := termScoreExpr(query.Terms, "p.name", "p.sku", "p.description")

	type productRow struct {
		ProductID     uuid.UUID
		SKU           string
		Name          string
		Description   string
		Price         decimal.Decimal
		Currency      string
		CategoryID    *uuid.UUID
		CategoryName  string
		VendorID      uuid.UUID
		VendorName    string
		RatingAverage decimal.Decimal
		RatingCount   int
		StockQuantity int
		Score         int
	}
	var rows []productRow

	err := r.filteredProducts(ctx, query).
		Select(`p.id AS product_id, p.sku, p.name, p.description, p.price, p.currency,
			p.category_id, COALESCE(c.name, '') AS category_name,
			p.vendor_id, v.business_name AS vendor_name,
			p.rating_average, p.rating_count, p.stock_quantity,
			`+scoreExpr+` AS score`, scoreArgs...).
		Joins("JOIN vendors v ON v.id = p.vendor_id").
		Joins("LEFT JOIN categories c ON c.id = p.category_id").
		Order(productOrderClause(query.Sort)).
		Offset(query.Offset()).
		Limit(query.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}

	hits := make([]search.ProductHit, len(rows))
	for i, row := range rows {
		hits[i] = search.ProductHit{
			ProductID:     row.ProductID,
			SKU:           row.SKU,
			Name:          row.Name,
			Description:   row.Description,
			Price:         row.Price,
			Currency:      row.Currency,
			CategoryID:    row.CategoryID,
			CategoryName:  row.CategoryName,
			VendorID:      row.VendorID,
			VendorName:    row.VendorName,
			RatingAverage: row.RatingAverage,
			RatingCount:   row.RatingCount,
			StockQuantity: row.StockQuantity,
			Score:         row.Score,
			Position:      query.Offset() + i + 1,
		}
	}
	return hits, total, nil
}

// GetProductFacets aggregates category, price band and vendor counts over
// the term matches. Structured filters are deliberately left out so a
// filtered page still shows what the other buckets would hold.
func (r *GormProductSearchRepository) GetProductFacets(ctx context.Context, query search.ProductQuery) (*search.ProductFacets, error) {
	categories, err := r.categoryFacets(ctx, query)
	if err != nil {
		return nil, err
	}
	bands, err := r.priceBandFacets(ctx, query)
	if err != nil {
		return nil, err
	}
	vendors, err := r.vendorFacets(ctx, query)
	if err != nil {
		return nil, err
	}
	return &search.ProductFacets{
		Categories: categories,
		PriceBands: bands,
		Vendors:    vendors,
	}, nil
}

func (r *GormProductSearchRepository) categoryFacets(ctx context.Context, query search.ProductQuery) ([]search.CategoryFacet, error) {
	type categoryRow struct {
		CategoryID uuid.UUID
		Name       string
		Count      int64
	}
	var rows []categoryRow

	err := r.termFilteredProducts(ctx, query).
		Select("p.category_id, c.name, COUNT(p.id) AS count").
		Joins("JOIN categories c ON c.id = p.category_id").
		Group("p.category_id, c.name").
		Order("count DESC, c.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate category facets: %w", err)
	}

	facets := make([]search.CategoryFacet, len(rows))
	for i, row := range rows {
		facets[i] = search.CategoryFacet{
			CategoryID: row.CategoryID,
			Name:       row.Name,
			Count:      row.Count,
		}
	}
	return facets, nil
}

func (r *GormProductSearchRepository) priceBandFacets(ctx context.Context, query search.ProductQuery) ([]search.PriceBandFacet, error) {
	bands := search.PriceBands()
	facets := make([]search.PriceBandFacet, 0, len(bands))
	for _, band := range bands {
		db := r.termFilteredProducts(ctx, query).Where("p.price >= ?", band.Min)
		if band.Max != nil {
			db = db.Where("p.price < ?", *band.Max)
		}
		var count int64
		if err := db.Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count price band %q: %w", band.Label, err)
		}
		if count == 0 {
			continue
		}
		facets = append(facets, search.PriceBandFacet{
			Min:   band.Min,
			Max:   band.Max,
			Label: band.Label,
			Count: count,
		})
	}
	return facets, nil
}

func (r *GormProductSearchRepository) vendorFacets(ctx context.Context, query search.ProductQuery) ([]search.VendorFacet, error) {
	type vendorRow struct {
		VendorID     uuid.UUID
		BusinessName string
		Count        int64
	}
	var rows []vendorRow

	err := r.termFilteredProducts(ctx, query).
		Select("p.vendor_id, v.business_name, COUNT(p.id) AS count").
		Joins("JOIN vendors v ON v.id = p.vendor_id").
		Group("p.vendor_id, v.business_name").
		Order("count DESC, v.business_name ASC").
		Limit(vendorFacetLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate vendor facets: %w", err)
	}

	facets := make([]search.VendorFacet, len(rows))
	for i, row := range rows {
		facets[i] = search.VendorFacet{
			VendorID:     row.VendorID,
			BusinessName: row.BusinessName,
			Count:        row.Count,
		}
	}
	return facets, nil
}

// SuggestProductNames returns distinct ACTIVE listing names containing the
// term, alphabetically. The term is expected pre-lowercased.
func (r *GormProductSearchRepository) SuggestProductNames(ctx context.Context, tenantID uuid.UUID, term string, limit int) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("products").
		Where("tenant_id = ?", tenantID).
		Where("status = ?", catalog.ProductStatusActive).
		Where("LOWER(name) LIKE ?", "%"+term+"%").
		Distinct("name").
		Order("name ASC").
		Limit(limit).
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest product names: %w", err)
	}
	return names, nil
}

// SuggestCategoryNames returns distinct active category names containing
// the term, alphabetically
func (r *GormProductSearchRepository) SuggestCategoryNames(ctx context.Context, tenantID uuid.UUID, term string, limit int) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("categories").
		Where("tenant_id = ?", tenantID).
		Where("status = ?", catalog.CategoryStatusActive).
		Where("LOWER(name) LIKE ?", "%"+term+"%").
		Distinct("name").
		Order("name ASC").
		Limit(limit).
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest category names: %w", err)
	}
	return names, nil
}

// termScoreExpr builds the relevance expression: per term, a CASE per field
// weighted primary, secondary, tertiary, all summed. Returns "0" when there
// are no terms so browse-style queries still order deterministically.
func termScoreExpr(terms []string, primaryCol, secondaryCol, tertiaryCol string) (string, []interface{}) {
	if len(terms) == 0 {
		return "0", nil
	}
	parts := make([]string, 0, len(terms))
	args := make([]interface{}, 0, len(terms)*3)
	for _, term := range terms {
		pattern := "%" + term + "%"
		parts = append(parts, fmt.Sprintf(
			"(CASE WHEN LOWER(%s) LIKE ? THEN %d ELSE 0 END + CASE WHEN LOWER(%s) LIKE ? THEN %d ELSE 0 END + CASE WHEN LOWER(%s) LIKE ? THEN %d ELSE 0 END)",
			primaryCol, nameHitWeight, secondaryCol, skuHitWeight, tertiaryCol, descriptionHitWeight))
		args = append(args, pattern, pattern, pattern)
	}
	return "(" + strings.Join(parts, " + ") + ")", args
}

func productOrderClause(sort search.Sort) string {
	switch sort {
	case search.SortPriceAsc:
		return "p.price ASC"
	case search.SortPriceDesc:
		return "p.price DESC"
	case search.SortName:
		return "p.name ASC"
	case search.SortNewest:
		return "p.created_at DESC"
	case search.SortRating:
		return "p.rating_average DESC, p.rating_count DESC"
	default:
		return "score DESC, p.rating_average DESC"
	}
}

package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/search"
)

// Trending score weights: a distinct order counts ten, a unit sold counts
// five, so broad demand beats one bulk purchase.
const (
	trendingOrderWeight    = 10
	trendingQuantityWeight = 5
)

// GormRecommendationRepository computes the heuristic rankings straight
// from the order and catalog tables. Order status is ignored on purpose:
// a cancelled order still expressed demand when it was placed.
type GormRecommendationRepository struct {
	db *gorm.DB
}

// NewGormRecommendationRepository creates a recommendation repository
func NewGormRecommendationRepository(db *gorm.DB) *GormRecommendationRepository {
	return &GormRecommendationRepository{db: db}
}

type trendingRow struct {
	ProductID     uuid.UUID
	SKU           string
	Name          string
	Price         decimal.Decimal
	Currency      string
	CategoryID    *uuid.UUID
	VendorID      uuid.UUID
	VendorName    string
	RatingAverage decimal.Decimal
	OrderCount    int64
	QuantitySold  int64
	TrendScore    int64
}

func toTrendingProducts(rows []trendingRow) []search.TrendingProduct {
	products := make([]search.TrendingProduct, len(rows))
	for i, row := range rows {
		products[i] = search.TrendingProduct{
			ProductID:     row.ProductID,
			SKU:           row.SKU,
			Name:          row.Name,
			Price:         row.Price,
			Currency:      row.Currency,
			CategoryID:    row.CategoryID,
			VendorID:      row.VendorID,
			VendorName:    row.VendorName,
			RatingAverage: row.RatingAverage,
			OrderCount:    row.OrderCount,
			QuantitySold:  row.QuantitySold,
			TrendScore:    row.TrendScore,
		}
	}
	return products
}

// FindTrending ranks ACTIVE products by orders placed since the given
// instant
func (r *GormRecommendationRepository) FindTrending(ctx context.Context, tenantID uuid.UUID, since time.Time, categoryID *uuid.UUID, limit int) ([]search.TrendingProduct, error) {
	db := r.db.WithContext(ctx).
		Table("order_items oi").
		Select(fmt.Sprintf(`p.id AS product_id, p.sku, p.name, p.price, p.currency, p.category_id,
			p.vendor_id, v.business_name AS vendor_name, p.rating_average,
			COUNT(DISTINCT o.id) AS order_count,
			COALESCE(SUM(oi.quantity), 0) AS quantity_sold,
			(COUNT(DISTINCT o.id) * %d + COALESCE(SUM(oi.quantity), 0) * %d) AS trend_score`,
			trendingOrderWeight, trendingQuantityWeight)).
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN products p ON p.id = oi.product_id").
		Joins("JOIN vendors v ON v.id = p.vendor_id").
		Where("o.tenant_id = ?", tenantID).
		Where("o.placed_at >= ?", since).
		Where("p.status = ?", catalog.ProductStatusActive)
	if categoryID != nil {
		db = db.Where("p.category_id = ?", *categoryID)
	}

	var rows []trendingRow
	err := db.
		Group("p.id, p.sku, p.name, p.price, p.currency, p.category_id, p.vendor_id, v.business_name, p.rating_average").
		Order("trend_score DESC, p.name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank trending products: %w", err)
	}
	return toTrendingProducts(rows), nil
}

// FindNewestActive returns the freshest ACTIVE listings with zeroed demand
// metrics
func (r *GormRecommendationRepository) FindNewestActive(ctx context.Context, tenantID uuid.UUID, categoryID *uuid.UUID, limit int) ([]search.TrendingProduct, error) {
	db := r.db.WithContext(ctx).
		Table("products p").
		Select(`p.id AS product_id, p.sku, p.name, p.price, p.currency, p.category_id,
			p.vendor_id, v.business_name AS vendor_name, p.rating_average`).
		Joins("JOIN vendors v ON v.id = p.vendor_id").
		Where("p.tenant_id = ?", tenantID).
		Where("p.status = ?", catalog.ProductStatusActive)
	if categoryID != nil {
		db = db.Where("p.category_id = ?", *categoryID)
	}

	var rows []trendingRow
	err := db.
		Order("p.created_at DESC, p.name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list newest products: %w", err)
	}
	return toTrendingProducts(rows), nil
}

// FindSimilarCandidates returns the category's other ACTIVE products priced
// inside [priceLow, priceHigh], closest to sourcePrice first
func (r *GormRecommendationRepository) FindSimilarCandidates(ctx context.Context, tenantID, categoryID, excludeProductID uuid.UUID, sourcePrice, priceLow, priceHigh decimal.Decimal, limit int) ([]search.SimilarCandidate, error) {
	type candidateRow struct {
		ProductID     uuid.UUID
		SKU           string
		Name          string
		Price         decimal.Decimal
		Currency      string
		CategoryID    uuid.UUID
		VendorID      uuid.UUID
		VendorName    string
		RatingAverage decimal.Decimal
	}
	var rows []candidateRow

	err := r.db.WithContext(ctx).
		Table("products p").
		Select(`p.id AS product_id, p.sku, p.name, p.price, p.currency, p.category_id,
			p.vendor_id, v.business_name AS vendor_name, p.rating_average`).
		Joins("JOIN vendors v ON v.id = p.vendor_id").
		Where("p.tenant_id = ?", tenantID).
		Where("p.status = ?", catalog.ProductStatusActive).
		Where("p.category_id = ?", categoryID).
		Where("p.id <> ?", excludeProductID).
		Where("p.price BETWEEN ? AND ?", priceLow, priceHigh).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ABS(p.price - ?) ASC, p.name ASC",
			Vars:               []interface{}{sourcePrice},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find similar products: %w", err)
	}

	candidates := make([]search.SimilarCandidate, len(rows))
	for i, row := range rows {
		candidates[i] = search.SimilarCandidate{
			ProductID:     row.ProductID,
			SKU:           row.SKU,
			Name:          row.Name,
			Price:         row.Price,
			Currency:      row.Currency,
			CategoryID:    row.CategoryID,
			VendorID:      row.VendorID,
			VendorName:    row.VendorName,
			RatingAverage: row.RatingAverage,
		}
	}
	return candidates, nil
}

// FindCrossSell returns ACTIVE products that appeared in the same orders as
// any of the given products at least minFrequency times, most frequent
// first. The input products themselves are excluded.
func (r *GormRecommendationRepository) FindCrossSell(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, minFrequency int64, limit int) ([]search.CrossSellProduct, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	coOrders := r.db.
		Table("order_items co").
		Select("co.order_id").
		Joins("JOIN orders o ON o.id = co.order_id").
		Where("o.tenant_id = ?", tenantID).
		Where("co.product_id IN ?", productIDs)

	type crossSellRow struct {
		ProductID     uuid.UUID
		SKU           string
		Name          string
		Price         decimal.Decimal
		Currency      string
		VendorID      uuid.UUID
		VendorName    string
		RatingAverage decimal.Decimal
		Frequency     int64
	}
	var rows []crossSellRow

	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Select(`p.id AS product_id, p.sku, p.name, p.price, p.currency,
			p.vendor_id, v.business_name AS vendor_name, p.rating_average,
			COUNT(oi.id) AS frequency`).
		Joins("JOIN products p ON p.id = oi.product_id").
		Joins("JOIN vendors v ON v.id = p.vendor_id").
		Where("oi.order_id IN (?)", coOrders).
		Where("oi.product_id NOT IN ?", productIDs).
		Where("p.status = ?", catalog.ProductStatusActive).
		Group("p.id, p.sku, p.name, p.price, p.currency, p.vendor_id, v.business_name, p.rating_average").
		Having("COUNT(oi.id) >= ?", minFrequency).
		Order("frequency DESC, p.name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find cross-sell products: %w", err)
	}

	products := make([]search.CrossSellProduct, len(rows))
	for i, row := range rows {
		products[i] = search.CrossSellProduct{
			ProductID:     row.ProductID,
			SKU:           row.SKU,
			Name:          row.Name,
			Price:         row.Price,
			Currency:      row.Currency,
			VendorID:      row.VendorID,
			VendorName:    row.VendorName,
			RatingAverage: row.RatingAverage,
			Frequency:     row.Frequency,
		}
	}
	return products, nil
}

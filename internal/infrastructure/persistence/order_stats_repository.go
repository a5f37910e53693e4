package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/analytics"
)

// GormOrderStatsRepository implements analytics.OrderStatsRepository with SQL
// aggregation over the orders tables. Queries never load aggregates; each
// method scans directly into a result struct.
//
// Revenue queries sum order totals without joining items, and item counts run
// as their own query, so a multi-line order is never counted once per line.
type GormOrderStatsRepository struct {
	db *gorm.DB
}

// NewGormOrderStatsRepository creates a new GormOrderStatsRepository
func NewGormOrderStatsRepository(db *gorm.DB) *GormOrderStatsRepository {
	return &GormOrderStatsRepository{db: db}
}

// GetRevenueSummary returns order and revenue totals for the window
func (r *GormOrderStatsRepository) GetRevenueSummary(ctx context.Context, filter analytics.StatsFilter) (*analytics.RevenueSummary, error) {
	type summaryResult struct {
		OrderCount      int64
		GrossRevenue    decimal.Decimal
		ActiveVendors   int64
		UniqueCustomers int64
	}

	var result summaryResult

	query := r.db.WithContext(ctx).Table("orders o").
		Select(`
			COUNT(o.id) as order_count,
			COALESCE(SUM(o.total_amount), 0) as gross_revenue,
			COUNT(DISTINCT o.vendor_id) as active_vendors,
			COUNT(DISTINCT o.customer_id) as unique_customers
		`).
		Where("o.tenant_id = ?", filter.TenantID).
		Where("o.placed_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", analytics.RevenueStatuses())

	if filter.VendorID != nil {
		query = query.Where("o.vendor_id = ?", *filter.VendorID)
	}

	if err := query.Scan(&result).Error; err != nil {
		return nil, err
	}

	itemsSold, err := r.countItemsSold(ctx, filter)
	if err != nil {
		return nil, err
	}

	var avgOrderValue decimal.Decimal
	if result.OrderCount > 0 {
		avgOrderValue = result.GrossRevenue.DivRound(decimal.NewFromInt(result.OrderCount), 4)
	}

	return &analytics.RevenueSummary{
		PeriodStart:     filter.StartDate,
		PeriodEnd:       filter.EndDate,
		OrderCount:      result.OrderCount,
		ItemsSold:       itemsSold,
		GrossRevenue:    result.GrossRevenue,
		AvgOrderValue:   avgOrderValue,
		ActiveVendors:   result.ActiveVendors,
		UniqueCustomers: result.UniqueCustomers,
	}, nil
}

func (r *GormOrderStatsRepository) countItemsSold(ctx context.Context, filter analytics.StatsFilter) (int64, error) {
	var itemsSold int64

	query := r.db.WithContext(ctx).Table("order_items oi").
		Select("COALESCE(SUM(oi.quantity), 0)").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.tenant_id = ?", filter.TenantID).
		Where("o.placed_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", analytics.RevenueStatuses())

	if filter.VendorID != nil {
		query = query.Where("o.vendor_id = ?", *filter.VendorID)
	}

	err := query.Scan(&itemsSold).Error
	return itemsSold, err
}

// CountByStatus returns the order status distribution for the window
func (r *GormOrderStatsRepository) CountByStatus(ctx context.Context, filter analytics.StatsFilter) ([]analytics.StatusCount, error) {
	var counts []analytics.StatusCount

	query := r.db.WithContext(ctx).Table("orders o").
		Select("o.status as status, COUNT(o.id) as count").
		Where("o.tenant_id = ?", filter.TenantID).
		Where("o.placed_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Group("o.status").
		Order("count DESC")

	if filter.VendorID != nil {
		query = query.Where("o.vendor_id = ?", *filter.VendorID)
	}

	err := query.Scan(&counts).Error
	return counts, err
}

// GetDailyRevenue returns the day-by-day revenue trend for the window
func (r *GormOrderStatsRepository) GetDailyRevenue(ctx context.Context, filter analytics.StatsFilter) ([]analytics.RevenuePoint, error) {
	type dailyResult struct {
		Date          time.Time
		OrderCount    int64
		Revenue       decimal.Decimal
		ActiveVendors int64
	}

	var results []dailyResult

	query := r.db.WithContext(ctx).Table("orders o").
		Select(`
			DATE(o.placed_at) as date,
			COUNT(o.id) as order_count,
			COALESCE(SUM(o.total_amount), 0) as revenue,
			COUNT(DISTINCT o.vendor_id) as active_vendors
		`).
		Where("o.tenant_id = ?", filter.TenantID).
		Where("o.placed_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", analytics.RevenueStatuses()).
		Group("DATE(o.placed_at)").
		Order("date ASC")

	if filter.VendorID != nil {
		query = query.Where("o.vendor_id = ?", *filter.VendorID)
	}

	if err := query.Scan(&results).Error; err != nil {
		return nil, err
	}

	points := make([]analytics.RevenuePoint, len(results))
	for i, res := range results {
		points[i] = analytics.RevenuePoint{
			Date:          res.Date,
			OrderCount:    res.OrderCount,
			Revenue:       res.Revenue,
			ActiveVendors: res.ActiveVendors,
		}
	}

	return points, nil
}

// GetTopProducts returns the top N products by revenue for the window
func (r *GormOrderStatsRepository) GetTopProducts(ctx context.Context, filter analytics.StatsFilter) ([]analytics.ProductSales, error) {
	type productResult struct {
		ProductID    uuid.UUID
		ProductSKU   string
		ProductName  string
		QuantitySold int64
		Revenue      decimal.Decimal
		OrderCount   int64
	}

	var results []productResult

	topN := filter.TopN
	if topN <= 0 {
		topN = 10
	}

	query := r.db.WithContext(ctx).Table("order_items oi").
		Select(`
			oi.product_id,
			oi.product_sku,
			oi.product_name,
			COALESCE(SUM(oi.quantity), 0) as quantity_sold,
			COALESCE(SUM(oi.line_total), 0) as revenue,
			COUNT(DISTINCT o.id) as order_count
		`).
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.tenant_id = ?", filter.TenantID).
		Where("o.placed_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", analytics.RevenueStatuses()).
		Group("oi.product_id, oi.product_sku, oi.product_name").
		Order("revenue DESC").
		Limit(topN)

	if filter.VendorID != nil {
		query = query.Where("o.vendor_id = ?", *filter.VendorID)
	}

	if err := query.Scan(&results).Error; err != nil {
		return nil, err
	}

	rankings := make([]analytics.ProductSales, len(results))
	for i, res := range results {
		rankings[i] = analytics.ProductSales{
			Rank:         i + 1,
			ProductID:    res.ProductID,
			ProductSKU:   res.ProductSKU,
			ProductName:  res.ProductName,
			QuantitySold: res.QuantitySold,
			Revenue:      res.Revenue,
			OrderCount:   res.OrderCount,
		}
	}

	return rankings, nil
}

// GetVendorPerformance returns the top N vendors by revenue for the window.
// Product counts come from a grouped subquery so they never multiply the
// order rows being summed.
func (r *GormOrderStatsRepository) GetVendorPerformance(ctx context.Context, filter analytics.StatsFilter) ([]analytics.VendorPerformance, error) {
	type vendorResult struct {
		VendorID      uuid.UUID
		BusinessName  string
		OrderCount    int64
		Revenue       decimal.Decimal
		ProductCount  int64
		RatingAverage decimal.Decimal
	}

	var results []vendorResult

	topN := filter.TopN
	if topN <= 0 {
		topN = 10
	}

	err := r.db.WithContext(ctx).Table("orders o").
		Select(`
			o.vendor_id,
			v.business_name,
			COUNT(o.id) as order_count,
			COALESCE(SUM(o.total_amount), 0) as revenue,
			COALESCE(pc.product_count, 0) as product_count,
			v.rating_average
		`).
		Joins("JOIN vendors v ON v.id = o.vendor_id").
		Joins("LEFT JOIN (SELECT vendor_id, COUNT(*) AS product_count FROM products GROUP BY vendor_id) pc ON pc.vendor_id = o.vendor_id").
		Where("o.tenant_id = ?", filter.TenantID).
		Where("o.placed_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", analytics.RevenueStatuses()).
		Group("o.vendor_id, v.business_name, v.rating_average, pc.product_count").
		Order("revenue DESC").
		Limit(topN).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	rankings := make([]analytics.VendorPerformance, len(results))
	for i, res := range results {
		var avgOrderValue decimal.Decimal
		if res.OrderCount > 0 {
			avgOrderValue = res.Revenue.DivRound(decimal.NewFromInt(res.OrderCount), 4)
		}

		rankings[i] = analytics.VendorPerformance{
			Rank:          i + 1,
			VendorID:      res.VendorID,
			BusinessName:  res.BusinessName,
			OrderCount:    res.OrderCount,
			Revenue:       res.Revenue,
			AvgOrderValue: avgOrderValue,
			ProductCount:  res.ProductCount,
			RatingAverage: res.RatingAverage,
		}
	}

	return rankings, nil
}

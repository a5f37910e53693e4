// Package analytics holds the read models behind the marketplace dashboards.
// Everything in here is computed from data other contexts own; nothing is
// written back, so the package has rows, filters and query interfaces but no
// aggregates or events.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/ordering"
)

// RevenueStatuses are the fulfillment statuses whose orders count toward
// revenue: everything a vendor accepted that did not come back. PENDING
// orders are excluded because the vendor may still decline them.
func RevenueStatuses() []string {
	return []string{
		string(ordering.OrderStatusConfirmed),
		string(ordering.OrderStatusProcessing),
		string(ordering.OrderStatusShipped),
		string(ordering.OrderStatusDelivered),
	}
}

// StatsFilter scopes an aggregate query to a tenant and a time window.
// VendorID narrows the query to one storefront; TopN bounds ranking queries.
type StatsFilter struct {
	TenantID  uuid.UUID  `json:"-"`
	VendorID  *uuid.UUID `json:"vendor_id,omitempty"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	TopN      int        `json:"top_n,omitempty"`
}

// RevenueSummary aggregates order revenue over a window
type RevenueSummary struct {
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	OrderCount      int64           `json:"order_count"`
	ItemsSold       int64           `json:"items_sold"`
	GrossRevenue    decimal.Decimal `json:"gross_revenue"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	ActiveVendors   int64           `json:"active_vendors"`
	UniqueCustomers int64           `json:"unique_customers"`
}

// StatusCount is one slice of the order status distribution. Unlike the
// revenue aggregates it covers every status, cancelled orders included.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// RevenuePoint is one day of the revenue trend
type RevenuePoint struct {
	Date          time.Time       `json:"date"`
	OrderCount    int64           `json:"order_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	ActiveVendors int64           `json:"active_vendors"`
}

// ProductSales ranks one product by revenue over a window. Name and SKU come
// from the order item snapshots, so delisted products still rank correctly.
type ProductSales struct {
	Rank         int             `json:"rank"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductSKU   string          `json:"product_sku"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	OrderCount   int64           `json:"order_count"`
}

// VendorPerformance ranks one vendor by revenue over a window
type VendorPerformance struct {
	Rank          int             `json:"rank"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	BusinessName  string          `json:"business_name"`
	OrderCount    int64           `json:"order_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	ProductCount  int64           `json:"product_count"`
	RatingAverage decimal.Decimal `json:"rating_average"`
}

// OrderStatsRepository answers aggregate queries over orders. Implementations
// run SQL aggregation directly; none of these methods load aggregates.
type OrderStatsRepository interface {
	// GetRevenueSummary returns order and revenue totals for the window,
	// counting only orders in a revenue status
	GetRevenueSummary(ctx context.Context, filter StatsFilter) (*RevenueSummary, error)

	// CountByStatus returns the order status distribution for the window,
	// covering all statuses
	CountByStatus(ctx context.Context, filter StatsFilter) ([]StatusCount, error)

	// GetDailyRevenue returns the day-by-day revenue trend for the window,
	// ordered by date ascending; days without orders are absent
	GetDailyRevenue(ctx context.Context, filter StatsFilter) ([]RevenuePoint, error)

	// GetTopProducts returns the top N products by revenue for the window
	GetTopProducts(ctx context.Context, filter StatsFilter) ([]ProductSales, error)

	// GetVendorPerformance returns the top N vendors by revenue for the window
	GetVendorPerformance(ctx context.Context, filter StatsFilter) ([]VendorPerformance, error)
}

package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Query DTOs ====================

// OverviewQuery selects the reporting window for the marketplace overview.
// A zero PeriodDays falls back to 30.
type OverviewQuery struct {
	PeriodDays int `form:"period_days" binding:"omitempty,min=1,max=365"`
}

// TrendQuery selects the window and optional vendor scope for the revenue trend
type TrendQuery struct {
	PeriodDays int        `form:"period_days" binding:"omitempty,min=1,max=365"`
	VendorID   *uuid.UUID `form:"vendor_id"`
}

// RankingQuery selects the window and result size for ranking queries
type RankingQuery struct {
	PeriodDays int        `form:"period_days" binding:"omitempty,min=1,max=365"`
	TopN       int        `form:"top_n" binding:"omitempty,min=1,max=50"`
	VendorID   *uuid.UUID `form:"vendor_id"`
}

// ==================== Response DTOs ====================

// PeriodResponse describes the window an aggregate covers
type PeriodResponse struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      int       `json:"days"`
}

// StatusCountResponse is one slice of the order status distribution
type StatusCountResponse struct {
	Status     string  `json:"status"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// OverviewResponse is the marketplace dashboard headline: totals for the
// window plus growth rates against the previous window of the same length.
type OverviewResponse struct {
	Period            PeriodResponse        `json:"period"`
	TotalOrders       int64                 `json:"total_orders"`
	GrossRevenue      float64               `json:"gross_revenue"`
	AvgOrderValue     float64               `json:"avg_order_value"`
	ItemsSold         int64                 `json:"items_sold"`
	ActiveVendors     int64                 `json:"active_vendors"`
	UniqueCustomers   int64                 `json:"unique_customers"`
	StatusCounts      []StatusCountResponse `json:"status_counts"`
	OrdersGrowthRate  float64               `json:"orders_growth_rate"`
	RevenueGrowthRate float64               `json:"revenue_growth_rate"`
}

// TrendPointResponse is one day of the revenue trend
type TrendPointResponse struct {
	Date          time.Time `json:"date"`
	OrderCount    int64     `json:"order_count"`
	Revenue       float64   `json:"revenue"`
	ActiveVendors int64     `json:"active_vendors"`
}

// RevenueTrendResponse is the day-by-day revenue trend with window totals
type RevenueTrendResponse struct {
	Period          PeriodResponse       `json:"period"`
	Points          []TrendPointResponse `json:"points"`
	TotalOrders     int64                `json:"total_orders"`
	TotalRevenue    float64              `json:"total_revenue"`
	AvgDailyOrders  float64              `json:"avg_daily_orders"`
	AvgDailyRevenue float64              `json:"avg_daily_revenue"`
}

// TopProductResponse is one row of the product sales ranking
type TopProductResponse struct {
	Rank         int       `json:"rank"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductSKU   string    `json:"product_sku"`
	ProductName  string    `json:"product_name"`
	QuantitySold int64     `json:"quantity_sold"`
	Revenue      float64   `json:"revenue"`
	OrderCount   int64     `json:"order_count"`
}

// TopProductsResponse is the product sales ranking for a window
type TopProductsResponse struct {
	Period   PeriodResponse       `json:"period"`
	Products []TopProductResponse `json:"products"`
}

// VendorPerformanceResponse is one row of the vendor revenue ranking
type VendorPerformanceResponse struct {
	Rank          int       `json:"rank"`
	VendorID      uuid.UUID `json:"vendor_id"`
	BusinessName  string    `json:"business_name"`
	OrderCount    int64     `json:"order_count"`
	Revenue       float64   `json:"revenue"`
	AvgOrderValue float64   `json:"avg_order_value"`
	ProductCount  int64     `json:"product_count"`
	RatingAverage float64   `json:"rating_average"`
}

// VendorRankingResponse is the vendor revenue ranking for a window
type VendorRankingResponse struct {
	Period  PeriodResponse              `json:"period"`
	Vendors []VendorPerformanceResponse `json:"vendors"`
}

// VendorDashboardResponse is one vendor's view of their own numbers
type VendorDashboardResponse struct {
	Period        PeriodResponse        `json:"period"`
	OrderCount    int64                 `json:"order_count"`
	GrossRevenue  float64               `json:"gross_revenue"`
	AvgOrderValue float64               `json:"avg_order_value"`
	ItemsSold     int64                 `json:"items_sold"`
	StatusCounts  []StatusCountResponse `json:"status_counts"`
	TopProducts   []TopProductResponse  `json:"top_products"`
}

// FeatureUsageResponse is one metered feature of a subscription: how much of
// the period allowance is used. A nil UsageLimit means the feature is
// unmetered and UsagePercent stays zero.
type FeatureUsageResponse struct {
	FeatureName  string  `json:"feature_name"`
	UsageCount   int64   `json:"usage_count"`
	UsageLimit   *int64  `json:"usage_limit,omitempty"`
	Remaining    *int64  `json:"remaining,omitempty"`
	UsagePercent float64 `json:"usage_percent"`
	Exhausted    bool    `json:"exhausted"`
}

// UsageSummaryResponse reports a vendor's current-period feature consumption.
// Plan features the vendor has not touched yet appear with a zero count so
// the full allowance is always visible.
type UsageSummaryResponse struct {
	SubscriptionID uuid.UUID              `json:"subscription_id"`
	PlanCode       string                 `json:"plan_code"`
	PlanName       string                 `json:"plan_name"`
	Status         string                 `json:"status"`
	PeriodStart    time.Time              `json:"period_start"`
	PeriodEnd      time.Time              `json:"period_end"`
	DaysRemaining  int                    `json:"days_remaining"`
	Features       []FeatureUsageResponse `json:"features"`
}

// ==================== Helpers ====================

func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

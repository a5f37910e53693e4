package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/analytics"
	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared"
)

// DefaultCacheTTL is how long computed aggregates stay served from cache.
// Dashboards tolerate a few minutes of staleness; the window keeps repeated
// refreshes from re-running the aggregation queries.
const DefaultCacheTTL = 5 * time.Minute

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 365
	defaultTopN       = 10
	maxTopN           = 50
)

// QueryCache stores serialized query results with a TTL. A nil payload from
// Get means a miss. Cache failures are never surfaced to callers; the
// service falls through to the database and logs.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DashboardBlock names one cached dashboard aggregate
type DashboardBlock string

const (
	DashboardOverview      DashboardBlock = "OVERVIEW"
	DashboardRevenueTrend  DashboardBlock = "REVENUE_TREND"
	DashboardTopProducts   DashboardBlock = "TOP_PRODUCTS"
	DashboardVendorRanking DashboardBlock = "VENDOR_RANKING"
)

// AnalyticsService serves the read-side statistics: order and revenue
// aggregates for the marketplace and per-vendor dashboards, and feature
// usage summaries for subscriptions. All order aggregates run as SQL
// aggregation and are cached briefly; usage summaries are cheap row reads
// and always come straight from the database.
type AnalyticsService struct {
	orderStats       analytics.OrderStatsRepository
	subscriptionRepo billing.SubscriptionRepository
	usageRepo        billing.UsageRecordRepository
	planRepo         billing.PlanRepository
	cache            QueryCache
	cacheTTL         time.Duration
	clock            shared.Clock
	logger           *zap.Logger
}

// NewAnalyticsService creates a new analytics service without caching.
// Call SetQueryCache to serve repeated queries from Redis.
func NewAnalyticsService(
	orderStats analytics.OrderStatsRepository,
	subscriptionRepo billing.SubscriptionRepository,
	usageRepo billing.UsageRecordRepository,
	planRepo billing.PlanRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		orderStats:       orderStats,
		subscriptionRepo: subscriptionRepo,
		usageRepo:        usageRepo,
		planRepo:         planRepo,
		cacheTTL:         DefaultCacheTTL,
		clock:            clock,
		logger:           logger,
	}
}

// SetQueryCache enables result caching. A non-positive TTL keeps the default.
func (s *AnalyticsService) SetQueryCache(cache QueryCache, ttl time.Duration) {
	s.cache = cache
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// GetOverview returns the marketplace headline numbers for the window plus
// growth rates against the previous window of the same length.
func (s *AnalyticsService) GetOverview(ctx context.Context, tenantID uuid.UUID, query OverviewQuery) (*OverviewResponse, error) {
	days := normalizePeriodDays(query.PeriodDays)
	cacheKey := fmt.Sprintf("analytics:overview:%s:%dd", tenantID, days)

	var cached OverviewResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -days)
	filter := analytics.StatsFilter{TenantID: tenantID, StartDate: start, EndDate: end}

	summary, err := s.orderStats.GetRevenueSummary(ctx, filter)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.orderStats.CountByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}

	// The previous window of the same length, ending where this one starts
	prevFilter := analytics.StatsFilter{
		TenantID:  tenantID,
		StartDate: start.AddDate(0, 0, -days),
		EndDate:   start,
	}
	previous, err := s.orderStats.GetRevenueSummary(ctx, prevFilter)
	if err != nil {
		return nil, err
	}

	response := &OverviewResponse{
		Period:          PeriodResponse{StartDate: start, EndDate: end, Days: days},
		TotalOrders:     summary.OrderCount,
		GrossRevenue:    toFloat64(summary.GrossRevenue),
		AvgOrderValue:   toFloat64(summary.AvgOrderValue),
		ItemsSold:       summary.ItemsSold,
		ActiveVendors:   summary.ActiveVendors,
		UniqueCustomers: summary.UniqueCustomers,
		StatusCounts:    toStatusCountResponses(statusCounts),
		OrdersGrowthRate: growthRate(
			decimal.NewFromInt(summary.OrderCount),
			decimal.NewFromInt(previous.OrderCount),
		),
		RevenueGrowthRate: growthRate(summary.GrossRevenue, previous.GrossRevenue),
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// GetRevenueTrend returns the day-by-day revenue trend for the window
func (s *AnalyticsService) GetRevenueTrend(ctx context.Context, tenantID uuid.UUID, query TrendQuery) (*RevenueTrendResponse, error) {
	days := normalizePeriodDays(query.PeriodDays)
	cacheKey := fmt.Sprintf("analytics:trend:%s:%s:%dd", tenantID, vendorKey(query.VendorID), days)

	var cached RevenueTrendResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -days)
	filter := analytics.StatsFilter{
		TenantID:  tenantID,
		VendorID:  query.VendorID,
		StartDate: start,
		EndDate:   end,
	}

	points, err := s.orderStats.GetDailyRevenue(ctx, filter)
	if err != nil {
		return nil, err
	}

	var totalOrders int64
	totalRevenue := decimal.Zero
	pointResponses := make([]TrendPointResponse, len(points))
	for i, p := range points {
		totalOrders += p.OrderCount
		totalRevenue = totalRevenue.Add(p.Revenue)
		pointResponses[i] = TrendPointResponse{
			Date:          p.Date,
			OrderCount:    p.OrderCount,
			Revenue:       toFloat64(p.Revenue),
			ActiveVendors: p.ActiveVendors,
		}
	}

	daysDecimal := decimal.NewFromInt(int64(days))
	response := &RevenueTrendResponse{
		Period:          PeriodResponse{StartDate: start, EndDate: end, Days: days},
		Points:          pointResponses,
		TotalOrders:     totalOrders,
		TotalRevenue:    toFloat64(totalRevenue),
		AvgDailyOrders:  toFloat64(decimal.NewFromInt(totalOrders).DivRound(daysDecimal, 2)),
		AvgDailyRevenue: toFloat64(totalRevenue.DivRound(daysDecimal, 2)),
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// GetTopProducts returns the best selling products for the window, ranked
// by revenue. With a vendor scope it ranks only that storefront's products.
func (s *AnalyticsService) GetTopProducts(ctx context.Context, tenantID uuid.UUID, query RankingQuery) (*TopProductsResponse, error) {
	days := normalizePeriodDays(query.PeriodDays)
	topN := normalizeTopN(query.TopN)
	cacheKey := fmt.Sprintf("analytics:top-products:%s:%s:%dd:%d", tenantID, vendorKey(query.VendorID), days, topN)

	var cached TopProductsResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -days)
	rankings, err := s.orderStats.GetTopProducts(ctx, analytics.StatsFilter{
		TenantID:  tenantID,
		VendorID:  query.VendorID,
		StartDate: start,
		EndDate:   end,
		TopN:      topN,
	})
	if err != nil {
		return nil, err
	}

	response := &TopProductsResponse{
		Period:   PeriodResponse{StartDate: start, EndDate: end, Days: days},
		Products: toTopProductResponses(rankings),
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// GetVendorRanking returns the top vendors by revenue for the window
func (s *AnalyticsService) GetVendorRanking(ctx context.Context, tenantID uuid.UUID, query RankingQuery) (*VendorRankingResponse, error) {
	days := normalizePeriodDays(query.PeriodDays)
	topN := normalizeTopN(query.TopN)
	cacheKey := fmt.Sprintf("analytics:vendor-ranking:%s:%dd:%d", tenantID, days, topN)

	var cached VendorRankingResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -days)
	rankings, err := s.orderStats.GetVendorPerformance(ctx, analytics.StatsFilter{
		TenantID:  tenantID,
		StartDate: start,
		EndDate:   end,
		TopN:      topN,
	})
	if err != nil {
		return nil, err
	}

	vendors := make([]VendorPerformanceResponse, len(rankings))
	for i, v := range rankings {
		vendors[i] = VendorPerformanceResponse{
			Rank:          v.Rank,
			VendorID:      v.VendorID,
			BusinessName:  v.BusinessName,
			OrderCount:    v.OrderCount,
			Revenue:       toFloat64(v.Revenue),
			AvgOrderValue: toFloat64(v.AvgOrderValue),
			ProductCount:  v.ProductCount,
			RatingAverage: toFloat64(v.RatingAverage),
		}
	}

	response := &VendorRankingResponse{
		Period:  PeriodResponse{StartDate: start, EndDate: end, Days: days},
		Vendors: vendors,
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// GetVendorDashboard returns one vendor's view of their own numbers: revenue
// totals, status distribution and best sellers, all scoped to the vendor.
// A vendor with no orders in the window gets zeros, not an error.
func (s *AnalyticsService) GetVendorDashboard(ctx context.Context, tenantID, vendorID uuid.UUID, query OverviewQuery) (*VendorDashboardResponse, error) {
	days := normalizePeriodDays(query.PeriodDays)
	cacheKey := fmt.Sprintf("analytics:vendor-dashboard:%s:%s:%dd", tenantID, vendorID, days)

	var cached VendorDashboardResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -days)
	filter := analytics.StatsFilter{
		TenantID:  tenantID,
		VendorID:  &vendorID,
		StartDate: start,
		EndDate:   end,
		TopN:      defaultTopN,
	}

	summary, err := s.orderStats.GetRevenueSummary(ctx, filter)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.orderStats.CountByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}

	topProducts, err := s.orderStats.GetTopProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	response := &VendorDashboardResponse{
		Period:        PeriodResponse{StartDate: start, EndDate: end, Days: days},
		OrderCount:    summary.OrderCount,
		GrossRevenue:  toFloat64(summary.GrossRevenue),
		AvgOrderValue: toFloat64(summary.AvgOrderValue),
		ItemsSold:     summary.ItemsSold,
		StatusCounts:  toStatusCountResponses(statusCounts),
		TopProducts:   toTopProductResponses(topProducts),
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// GetUsageSummary reports the vendor's current-period feature consumption.
// Metered plan features the vendor has not used yet appear with a zero
// count. Returns the subscription repository's not-found error when the
// vendor has no TRIAL or ACTIVE subscription.
func (s *AnalyticsService) GetUsageSummary(ctx context.Context, tenantID, vendorID uuid.UUID) (*UsageSummaryResponse, error) {
	sub, err := s.subscriptionRepo.FindCurrentByVendor(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.FindByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	records, err := s.usageRepo.FindBySubscription(ctx, tenantID, sub.ID, sub.CurrentPeriodStart)
	if err != nil {
		return nil, err
	}

	features := make([]FeatureUsageResponse, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, record := range records {
		seen[record.FeatureName] = true
		features = append(features, FeatureUsageResponse{
			FeatureName:  record.FeatureName,
			UsageCount:   record.UsageCount,
			UsageLimit:   record.UsageLimit,
			Remaining:    record.Remaining(),
			UsagePercent: record.UsagePercent(),
			Exhausted:    record.IsExhausted(),
		})
	}

	// Enabled plan features with no counter yet still have their allowance
	for name, feature := range plan.Features {
		if seen[name] || !feature.Enabled {
			continue
		}
		row := FeatureUsageResponse{FeatureName: name, UsageLimit: feature.Limit}
		if feature.Limit != nil {
			remaining := *feature.Limit
			row.Remaining = &remaining
		}
		features = append(features, row)
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].FeatureName < features[j].FeatureName
	})

	now := s.clock.Now()
	daysRemaining := int(sub.CurrentPeriodEnd.Sub(now).Hours() / 24)
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return &UsageSummaryResponse{
		SubscriptionID: sub.ID,
		PlanCode:       sub.PlanCode,
		PlanName:       plan.Name,
		Status:         string(sub.Status),
		PeriodStart:    sub.CurrentPeriodStart,
		PeriodEnd:      sub.CurrentPeriodEnd,
		DaysRemaining:  daysRemaining,
		Features:       features,
	}, nil
}

// ==================== Cache plumbing ====================

// RefreshDashboard recomputes one cached dashboard aggregate for a tenant
// over the given window, dropping any cached copy first so the next read
// serves fresh numbers. periodDays is normalized the same way the query
// endpoints normalize it.
func (s *AnalyticsService) RefreshDashboard(ctx context.Context, tenantID uuid.UUID, block DashboardBlock, periodDays int) error {
	days := normalizePeriodDays(periodDays)

	switch block {
	case DashboardOverview:
		s.invalidate(ctx, fmt.Sprintf("analytics:overview:%s:%dd", tenantID, days))
		_, err := s.GetOverview(ctx, tenantID, OverviewQuery{PeriodDays: days})
		return err
	case DashboardRevenueTrend:
		s.invalidate(ctx, fmt.Sprintf("analytics:trend:%s:%s:%dd", tenantID, vendorKey(nil), days))
		_, err := s.GetRevenueTrend(ctx, tenantID, TrendQuery{PeriodDays: days})
		return err
	case DashboardTopProducts:
		s.invalidate(ctx, fmt.Sprintf("analytics:top-products:%s:%s:%dd:%d", tenantID, vendorKey(nil), days, defaultTopN))
		_, err := s.GetTopProducts(ctx, tenantID, RankingQuery{PeriodDays: days, TopN: defaultTopN})
		return err
	case DashboardVendorRanking:
		s.invalidate(ctx, fmt.Sprintf("analytics:vendor-ranking:%s:%dd:%d", tenantID, days, defaultTopN))
		_, err := s.GetVendorRanking(ctx, tenantID, RankingQuery{PeriodDays: days, TopN: defaultTopN})
		return err
	default:
		return fmt.Errorf("unknown dashboard block %q", block)
	}
}

func (s *AnalyticsService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("Analytics cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *AnalyticsService) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Analytics cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Analytics cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *AnalyticsService) storeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Analytics cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// ==================== Helpers ====================

func normalizePeriodDays(days int) int {
	if days <= 0 {
		return defaultPeriodDays
	}
	if days > maxPeriodDays {
		return maxPeriodDays
	}
	return days
}

func normalizeTopN(topN int) int {
	if topN <= 0 {
		return defaultTopN
	}
	if topN > maxTopN {
		return maxTopN
	}
	return topN
}

func vendorKey(vendorID *uuid.UUID) string {
	if vendorID == nil {
		return "all"
	}
	return vendorID.String()
}

// growthRate returns the percentage change from previous to current,
// rounded to two decimals. A zero previous window reports zero growth
// rather than dividing by it.
func growthRate(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	rate := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
	return toFloat64(rate.Round(2))
}

func toStatusCountResponses(counts []analytics.StatusCount) []StatusCountResponse {
	var total int64
	for _, c := range counts {
		total += c.Count
	}

	responses := make([]StatusCountResponse, len(counts))
	for i, c := range counts {
		var pct float64
		if total > 0 {
			pct = toFloat64(decimal.NewFromInt(c.Count).
				Div(decimal.NewFromInt(total)).
				Mul(decimal.NewFromInt(100)).
				Round(2))
		}
		responses[i] = StatusCountResponse{Status: c.Status, Count: c.Count, Percentage: pct}
	}
	return responses
}

func toTopProductResponses(rankings []analytics.ProductSales) []TopProductResponse {
	responses := make([]TopProductResponse, len(rankings))
	for i, r := range rankings {
		responses[i] = TopProductResponse{
			Rank:         r.Rank,
			ProductID:    r.ProductID,
			ProductSKU:   r.ProductSKU,
			ProductName:  r.ProductName,
			QuantitySold: r.QuantitySold,
			Revenue:      toFloat64(r.Revenue),
			OrderCount:   r.OrderCount,
		}
	}
	return responses
}

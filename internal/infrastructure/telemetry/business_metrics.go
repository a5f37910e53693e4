// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the marketplace.
// It tracks order placement, payment activity and subscription health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderPlacedTotal *Counter
	orderAmountTotal *Counter
	paymentTotal     *Counter

	// Gauge metrics (point-in-time values)
	subscriptionCount *Gauge
	lowStockCount     *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	provider          MarketplaceMetricsProvider
	lowStockThreshold int
}

// MarketplaceMetricsProvider provides aggregate marketplace data for periodic
// metrics collection. The interface keeps the telemetry layer free of any
// dependency on the billing and catalog domains.
type MarketplaceMetricsProvider interface {
	// GetSubscriptionCountsByStatus returns the number of vendor subscriptions
	// per status for a tenant
	GetSubscriptionCountsByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error)

	// GetLowStockCount returns the count of active products at or below the
	// given stock threshold for a tenant
	GetLowStockCount(ctx context.Context, tenantID uuid.UUID, threshold int) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	LowStockThreshold int           // Default: 5
	Provider          MarketplaceMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		provider:          cfg.Provider,
		lowStockThreshold: threshold,
	}

	var err error

	// Order metrics
	bm.orderPlacedTotal, err = NewCounter(
		cfg.Meter,
		"markethub_order_placed_total",
		"Total number of orders placed",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(
		cfg.Meter,
		"markethub_order_amount_total",
		"Total order amount in the smallest currency unit (cents)",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"markethub_payment_total",
		"Total number of payment transactions",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	// Subscription and catalog gauge metrics
	bm.subscriptionCount, err = NewGauge(
		cfg.Meter,
		"markethub_subscription_count",
		"Current number of vendor subscriptions per status",
		"{subscriptions}",
	)
	if err != nil {
		return nil, err
	}

	bm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"markethub_catalog_low_stock_count",
		"Number of active products at or below the stock threshold",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderPlaced records an order placement.
// This should be called from the application layer when an order is placed.
func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, tenantID, vendorID uuid.UUID) {
	bm.orderPlacedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrVendorID.String(vendorID.String()),
	)
}

// RecordOrderAmount records the order amount.
// Amount should be in the smallest currency unit (cents).
func (bm *BusinessMetrics) RecordOrderAmount(ctx context.Context, tenantID, vendorID uuid.UUID, amountCents int64) {
	bm.orderAmountTotal.Add(ctx, amountCents,
		AttrTenantID.String(tenantID.String()),
		AttrVendorID.String(vendorID.String()),
	)
}

// RecordOrderWithAmount is a convenience method that records both order count and amount.
func (bm *BusinessMetrics) RecordOrderWithAmount(ctx context.Context, tenantID, vendorID uuid.UUID, amount decimal.Decimal) {
	bm.RecordOrderPlaced(ctx, tenantID, vendorID)

	amountCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordOrderAmount(ctx, tenantID, vendorID, amountCents)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// PaymentOutcome represents the outcome of a payment for metrics labeling.
type PaymentOutcome string

const (
	PaymentOutcomeSuccess PaymentOutcome = "success"
	PaymentOutcomeFailed  PaymentOutcome = "failed"
)

// RecordPayment records a payment transaction.
// This should be called when a gateway callback is processed.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, paymentMethod string, outcome PaymentOutcome) {
	bm.paymentTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
		AttrPaymentStatus.String(string(outcome)),
	)
}

// =============================================================================
// Subscription and Catalog Metrics
// =============================================================================

// RecordSubscriptionCount records the current subscription count for a status.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordSubscriptionCount(ctx context.Context, tenantID uuid.UUID, status string, count int64) {
	bm.subscriptionCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
		AttrSubscriptionStatus.String(status),
	)
}

// RecordLowStockCount records the number of products at or below the threshold.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.lowStockCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects subscription and catalog metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectMarketplaceMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectMarketplaceMetrics(ctx, tenantProvider)
		}
	}
}

// collectMarketplaceMetrics collects gauge metrics for all tenants.
func (bm *BusinessMetrics) collectMarketplaceMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.provider == nil {
		bm.logger.Debug("No marketplace provider configured, skipping gauge collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantMetrics(ctx, tenantID)
	}
}

// collectTenantMetrics collects gauge metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantMetrics(ctx context.Context, tenantID uuid.UUID) {
	countsByStatus, err := bm.provider.GetSubscriptionCountsByStatus(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get subscription counts for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		for status, count := range countsByStatus {
			bm.RecordSubscriptionCount(ctx, tenantID, status, count)
		}
	}

	lowStock, err := bm.provider.GetLowStockCount(ctx, tenantID, bm.lowStockThreshold)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordLowStockCount(ctx, tenantID, lowStock)
	}
}

const defaultLowStockThreshold = 5

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	// Additional business attributes can be added here
	AttrOrderSource = attribute.Key("order_source")
)

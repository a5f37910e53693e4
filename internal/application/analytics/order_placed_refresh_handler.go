package analytics

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/shared"
)

// OrderActivityRefreshHandler drops cached dashboard aggregates whenever an
// order is placed or cancelled, so the next dashboard read reflects the
// change instead of waiting for the nightly refresh.
type OrderActivityRefreshHandler struct {
	analyticsService *AnalyticsService
	logger           *zap.Logger
}

// NewOrderActivityRefreshHandler creates a new handler for order activity events
func NewOrderActivityRefreshHandler(analyticsService *AnalyticsService, logger *zap.Logger) *OrderActivityRefreshHandler {
	return &OrderActivityRefreshHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderActivityRefreshHandler) EventTypes() []string {
	return []string{
		ordering.EventTypeOrderPlaced,
		ordering.EventTypeOrderCancelled,
	}
}

// Handle invalidates the revenue-bearing dashboard blocks for the tenant
// that produced the order event.
func (h *OrderActivityRefreshHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch event.EventType() {
	case ordering.EventTypeOrderPlaced, ordering.EventTypeOrderCancelled:
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	tenantID := event.TenantID()
	blocks := []DashboardBlock{DashboardOverview, DashboardRevenueTrend, DashboardTopProducts}
	for _, block := range blocks {
		if err := h.analyticsService.RefreshDashboard(ctx, tenantID, block, 0); err != nil {
			h.logger.Error("failed to refresh dashboard block",
				zap.String("tenant_id", tenantID.String()),
				zap.String("block", string(block)),
				zap.Error(err),
			)
			return fmt.Errorf("failed to refresh %s dashboard: %w", block, err)
		}
	}

	h.logger.Debug("refreshed dashboards after order activity",
		zap.String("tenant_id", tenantID.String()),
		zap.String("event_type", event.EventType()),
	)
	return nil
}

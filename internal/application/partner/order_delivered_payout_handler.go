package partner

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/shared"
)

// OrderDeliveredPayoutHandler credits the vendor's payout balance when an
// order reaches DELIVERED. The credited amount is the order total minus the
// platform commission configured on the vendor.
type OrderDeliveredPayoutHandler struct {
	vendorService *VendorService
	logger        *zap.Logger
}

// NewOrderDeliveredPayoutHandler creates a new handler for order status change events
func NewOrderDeliveredPayoutHandler(vendorService *VendorService, logger *zap.Logger) *OrderDeliveredPayoutHandler {
	return &OrderDeliveredPayoutHandler{
		vendorService: vendorService,
		logger:        logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderDeliveredPayoutHandler) EventTypes() []string {
	return []string{ordering.EventTypeOrderStatusChanged}
}

// Handle credits the vendor payout for delivered orders and ignores every
// other status transition.
func (h *OrderDeliveredPayoutHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	statusEvent, ok := event.(*ordering.OrderStatusChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", ordering.EventTypeOrderStatusChanged),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			ordering.EventTypeOrderStatusChanged, event.EventType())
	}

	if statusEvent.ToStatus != string(ordering.OrderStatusDelivered) {
		return nil
	}

	tenantID := statusEvent.TenantID()

	vendor, err := h.vendorService.GetByID(ctx, tenantID, statusEvent.VendorID)
	if err != nil {
		h.logger.Error("failed to load vendor for payout credit",
			zap.String("order_id", statusEvent.OrderID.String()),
			zap.String("vendor_id", statusEvent.VendorID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to load vendor: %w", err)
	}

	commission := statusEvent.TotalAmount.Mul(vendor.CommissionRate).Div(decimal.NewFromInt(100)).Round(4)
	net := statusEvent.TotalAmount.Sub(commission)
	if net.LessThanOrEqual(decimal.Zero) {
		h.logger.Warn("order payout is not positive after commission, skipping credit",
			zap.String("order_id", statusEvent.OrderID.String()),
			zap.String("vendor_id", statusEvent.VendorID.String()),
			zap.String("total", statusEvent.TotalAmount.String()),
			zap.String("commission", commission.String()),
		)
		return nil
	}

	_, err = h.vendorService.CreditPayout(ctx, tenantID, statusEvent.VendorID, AdjustPayoutRequest{
		Amount: net,
		Reason: fmt.Sprintf("order %s delivered", statusEvent.OrderNumber),
	})
	if err != nil {
		h.logger.Error("failed to credit vendor payout",
			zap.String("order_id", statusEvent.OrderID.String()),
			zap.String("vendor_id", statusEvent.VendorID.String()),
			zap.String("amount", net.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to credit payout: %w", err)
	}

	h.logger.Info("credited vendor payout for delivered order",
		zap.String("order_id", statusEvent.OrderID.String()),
		zap.String("order_number", statusEvent.OrderNumber),
		zap.String("vendor_id", statusEvent.VendorID.String()),
		zap.String("amount", net.String()),
	)
	return nil
}

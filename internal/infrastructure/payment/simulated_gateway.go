// Package payment holds the gateway adapters that collect subscription
// charges from vendors.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/billing"
	"go.uber.org/zap"
)

var _ billing.PaymentGateway = (*SimulatedGateway)(nil)

// ErrGatewayUnavailable is returned when the simulated provider pretends to
// be down. Callers treat it like any transport failure: the charge is
// neither approved nor declined.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Payment methods that force deterministic outcomes. Anything else is
// approved.
const (
	MethodDeclinedCard    = "declined_card"
	MethodExpiredCard     = "expired_card"
	MethodUnreachableCard = "unreachable_card"
)

// SimulatedGateway approves charges without talking to a real provider.
// Development and tests select failure paths through the magic payment
// methods above, the way Stripe test cards do.
type SimulatedGateway struct {
	logger *zap.Logger

	mu      sync.Mutex
	charges []billing.ChargeRequest
}

// NewSimulatedGateway creates a gateway that records every charge it sees
func NewSimulatedGateway(logger *zap.Logger) *SimulatedGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedGateway{logger: logger}
}

// Charge resolves the request deterministically from its payment method.
func (g *SimulatedGateway) Charge(ctx context.Context, req billing.ChargeRequest) (billing.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return billing.ChargeResult{}, err
	}
	if !req.Amount.IsPositive() {
		return billing.ChargeResult{}, fmt.Errorf("charge amount must be positive, got %s", req.Amount.String())
	}

	g.mu.Lock()
	g.charges = append(g.charges, req)
	g.mu.Unlock()

	var result billing.ChargeResult
	switch strings.ToLower(strings.TrimSpace(req.Method)) {
	case MethodUnreachableCard:
		g.logger.Warn("Simulated gateway unreachable",
			zap.String("payment_id", req.PaymentID.String()),
			zap.String("subscription_id", req.SubscriptionID.String()))
		return billing.ChargeResult{}, ErrGatewayUnavailable
	case MethodDeclinedCard:
		result = billing.ChargeResult{
			Succeeded:     false,
			FailureReason: "Insufficient funds",
		}
	case MethodExpiredCard:
		result = billing.ChargeResult{
			Succeeded:     false,
			FailureReason: "Card expired",
		}
	default:
		result = billing.ChargeResult{
			Succeeded:     true,
			TransactionID: "sim_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		}
	}

	g.logger.Debug("Simulated charge resolved",
		zap.String("payment_id", req.PaymentID.String()),
		zap.String("vendor_id", req.VendorID.String()),
		zap.String("amount", req.Amount.String()),
		zap.Bool("succeeded", result.Succeeded))

	return result, nil
}

// Charges returns a copy of every charge the gateway has seen, in order.
func (g *SimulatedGateway) Charges() []billing.ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]billing.ChargeRequest, len(g.charges))
	copy(out, g.charges)
	return out
}

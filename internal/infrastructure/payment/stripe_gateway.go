package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/markethub/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

var _ billing.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway collects subscription charges through Stripe payment
// intents. The payment method on the request must be a Stripe payment
// method ID the vendor saved earlier (pm_xxx).
type StripeGateway struct {
	logger *zap.Logger
}

// NewStripeGateway validates the configured credentials and sets the global
// Stripe API key.
func NewStripeGateway(cfg *config.PaymentConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg == nil {
		return nil, errors.New("stripe: payment configuration is required")
	}
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if cfg.StripeTestMode && !strings.HasPrefix(cfg.StripeSecretKey, "sk_test") {
		return nil, errors.New("stripe: test mode enabled but secret key is not a test key")
	}
	if !cfg.StripeTestMode && !strings.HasPrefix(cfg.StripeSecretKey, "sk_live") {
		return nil, errors.New("stripe: live mode enabled but secret key is not a live key")
	}

	stripe.Key = cfg.StripeSecretKey

	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeGateway{logger: logger}, nil
}

// Charge confirms a payment intent for the requested amount. A card decline
// comes back as an unsuccessful ChargeResult; an error means Stripe could
// not process the request at all and the charge should be retried later.
func (g *StripeGateway) Charge(ctx context.Context, req billing.ChargeRequest) (billing.ChargeResult, error) {
	if !req.Amount.IsPositive() {
		return billing.ChargeResult{}, fmt.Errorf("charge amount must be positive, got %s", req.Amount.String())
	}

	params := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(minorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(string(req.Amount.Currency()))),
		Description:   stripe.String(req.Description),
		PaymentMethod: stripe.String(req.Method),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	params.IdempotencyKey = stripe.String(req.PaymentID.String())
	params.Metadata = map[string]string{
		"payment_id":      req.PaymentID.String(),
		"subscription_id": req.SubscriptionID.String(),
		"vendor_id":       req.VendorID.String(),
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			reason := stripeErr.Msg
			if reason == "" {
				reason = string(stripeErr.Code)
			}
			g.logger.Info("Stripe declined charge",
				zap.String("payment_id", req.PaymentID.String()),
				zap.String("decline_code", string(stripeErr.Code)))
			return billing.ChargeResult{Succeeded: false, FailureReason: reason}, nil
		}

		g.logger.Error("Stripe charge request failed",
			zap.String("payment_id", req.PaymentID.String()),
			zap.Error(err))
		return billing.ChargeResult{}, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		g.logger.Info("Stripe payment intent not settled",
			zap.String("payment_id", req.PaymentID.String()),
			zap.String("intent_id", pi.ID),
			zap.String("status", string(pi.Status)))
		return billing.ChargeResult{
			Succeeded:     false,
			TransactionID: pi.ID,
			FailureReason: fmt.Sprintf("payment intent in status %s", pi.Status),
		}, nil
	}

	g.logger.Info("Stripe charge succeeded",
		zap.String("payment_id", req.PaymentID.String()),
		zap.String("intent_id", pi.ID))

	return billing.ChargeResult{Succeeded: true, TransactionID: pi.ID}, nil
}

// minorUnits converts the amount into the smallest currency unit Stripe
// expects. JPY has no minor unit.
func minorUnits(m valueobject.Money) int64 {
	if m.Currency() == valueobject.JPY {
		return m.Amount().Round(0).IntPart()
	}
	return m.Amount().Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

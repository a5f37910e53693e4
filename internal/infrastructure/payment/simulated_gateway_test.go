package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chargeRequest(method string) billing.ChargeRequest {
	return billing.ChargeRequest{
		PaymentID:      uuid.New(),
		SubscriptionID: uuid.New(),
		VendorID:       uuid.New(),
		Amount:         valueobject.NewMoneyUSDFromFloat(49.90),
		Method:         method,
		Description:    "pro plan renewal",
	}
}

func TestSimulatedGateway_Charge(t *testing.T) {
	gateway := NewSimulatedGateway(zap.NewNop())
	ctx := context.Background()

	t.Run("approves regular methods", func(t *testing.T) {
		result, err := gateway.Charge(ctx, chargeRequest("credit_card"))
		require.NoError(t, err)
		assert.True(t, result.Succeeded)
		assert.Contains(t, result.TransactionID, "sim_")
		assert.Empty(t, result.FailureReason)
	})

	t.Run("declined card fails with reason", func(t *testing.T) {
		result, err := gateway.Charge(ctx, chargeRequest(MethodDeclinedCard))
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		assert.Equal(t, "Insufficient funds", result.FailureReason)
		assert.Empty(t, result.TransactionID)
	})

	t.Run("expired card fails with reason", func(t *testing.T) {
		result, err := gateway.Charge(ctx, chargeRequest(MethodExpiredCard))
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		assert.Equal(t, "Card expired", result.FailureReason)
	})

	t.Run("unreachable card surfaces a transport error", func(t *testing.T) {
		_, err := gateway.Charge(ctx, chargeRequest(MethodUnreachableCard))
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})

	t.Run("method matching ignores case and whitespace", func(t *testing.T) {
		result, err := gateway.Charge(ctx, chargeRequest("  Declined_Card "))
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		req := chargeRequest("credit_card")
		req.Amount = valueobject.ZeroUSD()
		_, err := gateway.Charge(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("cancelled context aborts the charge", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := gateway.Charge(cancelled, chargeRequest("credit_card"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSimulatedGateway_RecordsCharges(t *testing.T) {
	gateway := NewSimulatedGateway(nil)
	ctx := context.Background()

	first := chargeRequest("credit_card")
	second := chargeRequest(MethodDeclinedCard)

	_, err := gateway.Charge(ctx, first)
	require.NoError(t, err)
	_, err = gateway.Charge(ctx, second)
	require.NoError(t, err)

	charges := gateway.Charges()
	require.Len(t, charges, 2)
	assert.Equal(t, first.PaymentID, charges[0].PaymentID)
	assert.Equal(t, second.PaymentID, charges[1].PaymentID)

	// The returned slice is a copy
	charges[0].Method = "mutated"
	assert.Equal(t, "credit_card", gateway.Charges()[0].Method)
}

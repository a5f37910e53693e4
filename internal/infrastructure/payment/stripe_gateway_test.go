package payment

import (
	"testing"

	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/markethub/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStripeGateway_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewStripeGateway(nil, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewStripeGateway(&config.PaymentConfig{Provider: "stripe"}, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("test mode requires a test key", func(t *testing.T) {
		cfg := &config.PaymentConfig{
			Provider:        "stripe",
			StripeSecretKey: "sk_live_0000000000000000",
			StripeTestMode:  true,
		}
		_, err := NewStripeGateway(cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a test key")
	})

	t.Run("live mode requires a live key", func(t *testing.T) {
		cfg := &config.PaymentConfig{
			Provider:        "stripe",
			StripeSecretKey: "sk_test_0000000000000000",
		}
		_, err := NewStripeGateway(cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a live key")
	})

	t.Run("valid test config creates gateway", func(t *testing.T) {
		cfg := &config.PaymentConfig{
			Provider:        "stripe",
			StripeSecretKey: "sk_test_0000000000000000",
			StripeTestMode:  true,
		}
		gateway, err := NewStripeGateway(cfg, nil)
		require.NoError(t, err)
		require.NotNil(t, gateway)
	})
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		ccy    valueobject.Currency
		want   int64
	}{
		{"two decimal currency", "49.90", valueobject.USD, 4990},
		{"whole dollars", "120", valueobject.USD, 12000},
		{"sub-cent rounds", "10.005", valueobject.EUR, 1001},
		{"yen has no minor unit", "5000", valueobject.JPY, 5000},
		{"yen fraction rounds", "5000.4", valueobject.JPY, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			money, err := valueobject.NewMoney(amt, tt.ccy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, minorUnits(money))
		})
	}
}

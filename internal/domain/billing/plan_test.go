package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

var planNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func int64Ptr(v int64) *int64 {
	return &v
}

func testPricing() PlanPricing {
	return PlanPricing{
		Monthly:   decimal.NewFromFloat(49.00),
		Quarterly: decimal.NewFromFloat(132.00),
		Annual:    decimal.NewFromFloat(470.00),
		Lifetime:  decimal.NewFromFloat(1400.00),
	}
}

func createTestPlan(t *testing.T) *Plan {
	plan, err := NewPlan("pro", "Pro", PlanTierPremium, testPricing(), valueobject.USD, 14)
	require.NoError(t, err)
	return plan
}

// ============================================
// BillingCycle Tests
// ============================================

func TestBillingCycle_IsValid(t *testing.T) {
	tests := []struct {
		cycle   BillingCycle
		isValid bool
	}{
		{BillingCycleMonthly, true},
		{BillingCycleQuarterly, true},
		{BillingCycleAnnually, true},
		{BillingCycleLifetime, true},
		{BillingCycle("WEEKLY"), false},
		{BillingCycle(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.cycle), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.cycle.IsValid())
		})
	}
}

func TestBillingCycle_Days(t *testing.T) {
	tests := []struct {
		cycle BillingCycle
		days  int
	}{
		{BillingCycleMonthly, 30},
		{BillingCycleQuarterly, 90},
		{BillingCycleAnnually, 365},
		{BillingCycleLifetime, 36500},
	}

	for _, tt := range tests {
		t.Run(string(tt.cycle), func(t *testing.T) {
			assert.Equal(t, tt.days, tt.cycle.Days())
			assert.Equal(t, time.Duration(tt.days)*24*time.Hour, tt.cycle.PeriodLength())
		})
	}
}

// ============================================
// Plan Tests
// ============================================

func TestNewPlan(t *testing.T) {
	t.Run("creates plan with valid inputs", func(t *testing.T) {
		plan, err := NewPlan("Pro", "Pro Tier", PlanTierPremium, testPricing(), valueobject.USD, 14)
		require.NoError(t, err)

		assert.Equal(t, "pro", plan.Code, "codes are normalized to lower case")
		assert.Equal(t, "Pro Tier", plan.Name)
		assert.Equal(t, PlanTierPremium, plan.Tier)
		assert.Equal(t, 14, plan.TrialDays)
		assert.True(t, plan.HasTrial())
		assert.True(t, plan.IsActive)
		assert.NotNil(t, plan.Features)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		_, err := NewPlan("", "Pro", PlanTierPremium, testPricing(), valueobject.USD, 0)
		require.Error(t, err)
	})

	t.Run("fails with invalid tier", func(t *testing.T) {
		_, err := NewPlan("pro", "Pro", PlanTier("GOLD"), testPricing(), valueobject.USD, 0)
		require.Error(t, err)
	})

	t.Run("fails with negative price", func(t *testing.T) {
		pricing := testPricing()
		pricing.Annual = decimal.NewFromFloat(-1.00)
		_, err := NewPlan("pro", "Pro", PlanTierPremium, pricing, valueobject.USD, 0)
		require.Error(t, err)
	})

	t.Run("fails with invalid currency", func(t *testing.T) {
		_, err := NewPlan("pro", "Pro", PlanTierPremium, testPricing(), valueobject.Currency("XTS"), 0)
		require.Error(t, err)
	})

	t.Run("fails with negative trial days", func(t *testing.T) {
		_, err := NewPlan("pro", "Pro", PlanTierPremium, testPricing(), valueobject.USD, -1)
		require.Error(t, err)
	})

	t.Run("free plan without trial", func(t *testing.T) {
		plan, err := NewPlan("free", "Free", PlanTierBasic, PlanPricing{}, valueobject.USD, 0)
		require.NoError(t, err)
		assert.True(t, plan.IsFree())
		assert.False(t, plan.HasTrial())
	})
}

func TestPlan_PriceFor(t *testing.T) {
	plan := createTestPlan(t)

	tests := []struct {
		cycle  BillingCycle
		amount string
	}{
		{BillingCycleMonthly, "49.00"},
		{BillingCycleQuarterly, "132.00"},
		{BillingCycleAnnually, "470.00"},
		{BillingCycleLifetime, "1400.00"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cycle), func(t *testing.T) {
			price, err := plan.PriceFor(tt.cycle)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, price.Amount().StringFixed(2))
			assert.Equal(t, valueobject.USD, price.Currency())
		})
	}

	t.Run("rejects unknown cycle", func(t *testing.T) {
		_, err := plan.PriceFor(BillingCycle("WEEKLY"))
		require.Error(t, err)
	})
}

func TestPlan_Features(t *testing.T) {
	t.Run("set and read a metered feature", func(t *testing.T) {
		plan := createTestPlan(t)
		require.NoError(t, plan.SetFeature("products", true, int64Ptr(500), planNow))

		assert.True(t, plan.HasFeature("products"))
		assert.True(t, plan.FeatureEnabled("products"))
		limit := plan.UsageLimit("products")
		require.NotNil(t, limit)
		assert.Equal(t, int64(500), *limit)
	})

	t.Run("unnamed feature is granted without limit", func(t *testing.T) {
		plan := createTestPlan(t)
		assert.False(t, plan.HasFeature("api_calls"))
		assert.True(t, plan.FeatureEnabled("api_calls"))
		assert.Nil(t, plan.UsageLimit("api_calls"))
	})

	t.Run("enabled feature without limit is unmetered", func(t *testing.T) {
		plan := createTestPlan(t)
		require.NoError(t, plan.SetFeature("storefront", true, nil, planNow))
		assert.Nil(t, plan.UsageLimit("storefront"))
	})

	t.Run("disabled feature yields a zero limit", func(t *testing.T) {
		plan := createTestPlan(t)
		require.NoError(t, plan.SetFeature("analytics", false, nil, planNow))

		assert.False(t, plan.FeatureEnabled("analytics"))
		limit := plan.UsageLimit("analytics")
		require.NotNil(t, limit)
		assert.Equal(t, int64(0), *limit)
	})

	t.Run("rejects negative limits", func(t *testing.T) {
		plan := createTestPlan(t)
		err := plan.SetFeature("products", true, int64Ptr(-5), planNow)
		require.Error(t, err)
	})

	t.Run("remove feature restores the unlimited default", func(t *testing.T) {
		plan := createTestPlan(t)
		require.NoError(t, plan.SetFeature("products", true, int64Ptr(500), planNow))
		plan.RemoveFeature("products", planNow)
		assert.Nil(t, plan.UsageLimit("products"))
	})
}

func TestPlanFeatures_ScanValue(t *testing.T) {
	t.Run("round trips through JSONB", func(t *testing.T) {
		features := PlanFeatures{
			"products":  {Enabled: true, Limit: int64Ptr(500)},
			"analytics": {Enabled: false},
			"storage":   {Enabled: true},
		}

		value, err := features.Value()
		require.NoError(t, err)

		var decoded PlanFeatures
		require.NoError(t, decoded.Scan(value))

		require.Len(t, decoded, 3)
		require.NotNil(t, decoded["products"].Limit)
		assert.Equal(t, int64(500), *decoded["products"].Limit)
		assert.False(t, decoded["analytics"].Enabled)
		assert.Nil(t, decoded["storage"].Limit)
	})

	t.Run("scans nil as empty map", func(t *testing.T) {
		var features PlanFeatures
		require.NoError(t, features.Scan(nil))
		assert.NotNil(t, features)
		assert.Empty(t, features)
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		var features PlanFeatures
		require.Error(t, features.Scan(42))
	})
}

func TestPlan_Lifecycle(t *testing.T) {
	plan := createTestPlan(t)

	plan.Deactivate(planNow)
	assert.False(t, plan.IsActive)

	plan.Activate(planNow)
	assert.True(t, plan.IsActive)

	repriced := testPricing()
	repriced.Monthly = decimal.NewFromFloat(59.00)
	require.NoError(t, plan.UpdatePricing(repriced, planNow))
	assert.Equal(t, "59.00", plan.MonthlyPrice.StringFixed(2))

	repriced.Monthly = decimal.NewFromFloat(-5.00)
	require.Error(t, plan.UpdatePricing(repriced, planNow))

	require.NoError(t, plan.UpdateDetails("Pro Plus", "Everything in Pro and more", 2, planNow))
	assert.Equal(t, "Pro Plus", plan.Name)
	assert.Equal(t, 2, plan.SortOrder)

	require.Error(t, plan.UpdateDetails("  ", "", 0, planNow))
}

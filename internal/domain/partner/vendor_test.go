package partner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vendorNow = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

func createTestVendor(t *testing.T) *Vendor {
	t.Helper()
	vendor, err := NewVendor(uuid.New(), "trail-gear-co", "Trail Gear Co Ltd", "owner@trailgear.example", vendorNow)
	require.NoError(t, err)
	vendor.ClearDomainEvents()
	return vendor
}

func verifiedVendor(t *testing.T) *Vendor {
	t.Helper()
	vendor := createTestVendor(t)
	require.NoError(t, vendor.Verify(uuid.New(), vendorNow))
	vendor.ClearDomainEvents()
	return vendor
}

// ============================================
// Registration
// ============================================

func TestNewVendor(t *testing.T) {
	t.Run("registers an unverified active vendor", func(t *testing.T) {
		tenantID := uuid.New()
		vendor, err := NewVendor(tenantID, "Trail-Gear-Co", "Trail Gear Co Ltd", "Owner@TrailGear.example", vendorNow)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, vendor.ID)
		assert.Equal(t, tenantID, vendor.TenantID)
		assert.Equal(t, "trail-gear-co", vendor.Slug, "slug should be lowercased")
		assert.Equal(t, "owner@trailgear.example", vendor.Email, "email should be lowercased")
		assert.Equal(t, VendorStatusActive, vendor.Status)
		assert.Equal(t, VerificationStatusPending, vendor.Verification)
		assert.Nil(t, vendor.VerifiedAt)
		assert.True(t, vendor.CommissionRate.Equal(DefaultCommissionRate))
		assert.True(t, vendor.PayoutBalance.IsZero())
		assert.Equal(t, vendorNow, vendor.CreatedAt)
		assert.Equal(t, 1, vendor.Version)
	})

	t.Run("new vendor cannot sell until verified", func(t *testing.T) {
		vendor := createTestVendor(t)

		assert.True(t, vendor.IsActive())
		assert.False(t, vendor.IsVerified())
		assert.False(t, vendor.CanSell())
	})

	t.Run("emits registered event", func(t *testing.T) {
		vendor, err := NewVendor(uuid.New(), "trail-gear-co", "Trail Gear Co Ltd", "owner@trailgear.example", vendorNow)
		require.NoError(t, err)

		events := vendor.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*VendorRegisteredEvent)
		require.True(t, ok)
		assert.Equal(t, "trail-gear-co", event.Slug)
		assert.Equal(t, "Trail Gear Co Ltd", event.BusinessName)
	})

	t.Run("fails with invalid slug characters", func(t *testing.T) {
		_, err := NewVendor(uuid.New(), "trail gear!", "Trail Gear Co Ltd", "owner@trailgear.example", vendorNow)
		assert.Error(t, err)
	})

	t.Run("fails with empty business name", func(t *testing.T) {
		_, err := NewVendor(uuid.New(), "trail-gear-co", "", "owner@trailgear.example", vendorNow)
		assert.Error(t, err)
	})

	t.Run("fails with malformed email", func(t *testing.T) {
		_, err := NewVendor(uuid.New(), "trail-gear-co", "Trail Gear Co Ltd", "not-an-email", vendorNow)
		assert.Error(t, err)
	})
}

// ============================================
// Verification
// ============================================

func TestVendor_Verification(t *testing.T) {
	t.Run("verify stamps reviewer and time", func(t *testing.T) {
		vendor := createTestVendor(t)
		adminID := uuid.New()

		err := vendor.Verify(adminID, vendorNow)

		require.NoError(t, err)
		assert.Equal(t, VerificationStatusVerified, vendor.Verification)
		require.NotNil(t, vendor.VerifiedBy)
		assert.Equal(t, adminID, *vendor.VerifiedBy)
		require.NotNil(t, vendor.VerifiedAt)
		assert.Equal(t, vendorNow, *vendor.VerifiedAt)
		assert.True(t, vendor.CanSell())

		events := vendor.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*VendorVerifiedEvent)
		require.True(t, ok)
		assert.Equal(t, adminID, *event.VerifiedBy)
	})

	t.Run("cannot verify twice", func(t *testing.T) {
		vendor := verifiedVendor(t)

		err := vendor.Verify(uuid.New(), vendorNow)

		assert.Error(t, err)
	})

	t.Run("verify requires a reviewer", func(t *testing.T) {
		vendor := createTestVendor(t)

		err := vendor.Verify(uuid.Nil, vendorNow)

		assert.Error(t, err)
		assert.Equal(t, VerificationStatusPending, vendor.Verification)
	})

	t.Run("reject records the reason", func(t *testing.T) {
		vendor := createTestVendor(t)

		err := vendor.RejectVerification("tax ID could not be confirmed", vendorNow)

		require.NoError(t, err)
		assert.Equal(t, VerificationStatusRejected, vendor.Verification)
		assert.Equal(t, "tax ID could not be confirmed", vendor.RejectionReason)
		assert.False(t, vendor.CanSell())
	})

	t.Run("cannot reject a verified vendor", func(t *testing.T) {
		vendor := verifiedVendor(t)

		err := vendor.RejectVerification("too late", vendorNow)

		assert.Error(t, err)
		assert.Equal(t, VerificationStatusVerified, vendor.Verification)
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		vendor := createTestVendor(t)
		err := vendor.RejectVerification("", vendorNow)
		assert.Error(t, err)
	})

	t.Run("rejected vendor can re-apply", func(t *testing.T) {
		vendor := createTestVendor(t)
		require.NoError(t, vendor.RejectVerification("missing documents", vendorNow))

		err := vendor.ReapplyForVerification(vendorNow)

		require.NoError(t, err)
		assert.Equal(t, VerificationStatusPending, vendor.Verification)
		assert.Empty(t, vendor.RejectionReason)
	})

	t.Run("only rejected vendors can re-apply", func(t *testing.T) {
		vendor := createTestVendor(t)
		err := vendor.ReapplyForVerification(vendorNow)
		assert.Error(t, err)
	})
}

// ============================================
// Profile
// ============================================

func TestVendor_Profile(t *testing.T) {
	t.Run("update profile", func(t *testing.T) {
		vendor := createTestVendor(t)

		err := vendor.Update("Trail Gear Company Ltd", "Trail Gear", "Outdoor equipment since 2011", vendorNow)

		require.NoError(t, err)
		assert.Equal(t, "Trail Gear Company Ltd", vendor.BusinessName)
		assert.Equal(t, "Trail Gear", vendor.DisplayName)
	})

	t.Run("storefront name prefers display name", func(t *testing.T) {
		vendor := createTestVendor(t)
		assert.Equal(t, "Trail Gear Co Ltd", vendor.StorefrontName())

		require.NoError(t, vendor.Update("Trail Gear Co Ltd", "Trail Gear", "", vendorNow))
		assert.Equal(t, "Trail Gear", vendor.StorefrontName())
	})

	t.Run("set contact validates phone and email", func(t *testing.T) {
		vendor := createTestVendor(t)

		err := vendor.SetContact("Jordan Smith", "+1 (555) 010-2345", "Jordan@TrailGear.example", vendorNow)
		require.NoError(t, err)
		assert.Equal(t, "Jordan Smith", vendor.ContactName)
		assert.Equal(t, "+1 (555) 010-2345", vendor.Phone)
		assert.Equal(t, "jordan@trailgear.example", vendor.Email)

		err = vendor.SetContact("Jordan Smith", "call me maybe", "", vendorNow)
		assert.Error(t, err)
	})

	t.Run("set business address", func(t *testing.T) {
		vendor := createTestVendor(t)
		address, err := valueobject.NewAddress("Trail Gear Co Ltd", "12 Summit Way", "Boulder", "CO", "80301", "US")
		require.NoError(t, err)

		require.NoError(t, vendor.SetBusinessAddress(address, vendorNow))
		assert.Equal(t, "Boulder", vendor.BusinessAddress.City())

		err = vendor.SetBusinessAddress(valueobject.Address{}, vendorNow)
		assert.Error(t, err)
	})

	t.Run("set logo and banner keys", func(t *testing.T) {
		vendor := createTestVendor(t)

		require.NoError(t, vendor.SetLogo("vendors/"+vendor.ID.String()+"/logo.png", vendorNow))
		require.NoError(t, vendor.SetBanner("vendors/"+vendor.ID.String()+"/banner.jpg", vendorNow))

		assert.Contains(t, vendor.LogoKey, "logo.png")
		assert.Contains(t, vendor.BannerKey, "banner.jpg")
	})
}

// ============================================
// Commission and payouts
// ============================================

func TestVendor_Commission(t *testing.T) {
	t.Run("commission on order amount", func(t *testing.T) {
		vendor := createTestVendor(t)
		require.NoError(t, vendor.SetCommissionRate(decimal.NewFromFloat(12.5), vendorNow))

		cut := vendor.CommissionOn(decimal.NewFromInt(200))

		assert.True(t, cut.Equal(decimal.NewFromInt(25)), "12.5%% of 200 should be 25, got %s", cut)
	})

	t.Run("rate must be a percentage", func(t *testing.T) {
		vendor := createTestVendor(t)

		assert.Error(t, vendor.SetCommissionRate(decimal.NewFromInt(-1), vendorNow))
		assert.Error(t, vendor.SetCommissionRate(decimal.NewFromInt(101), vendorNow))
		assert.NoError(t, vendor.SetCommissionRate(decimal.Zero, vendorNow))
		assert.NoError(t, vendor.SetCommissionRate(decimal.NewFromInt(100), vendorNow))
	})
}

func TestVendor_Payouts(t *testing.T) {
	t.Run("credit accumulates earnings", func(t *testing.T) {
		vendor := createTestVendor(t)

		require.NoError(t, vendor.CreditPayout(decimal.NewFromFloat(88.20), vendorNow))
		require.NoError(t, vendor.CreditPayout(decimal.NewFromFloat(11.80), vendorNow))

		assert.True(t, vendor.PayoutBalance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("credit emits balance change with old and new", func(t *testing.T) {
		vendor := createTestVendor(t)
		require.NoError(t, vendor.CreditPayout(decimal.NewFromInt(40), vendorNow))
		vendor.ClearDomainEvents()

		require.NoError(t, vendor.CreditPayout(decimal.NewFromInt(60), vendorNow))

		events := vendor.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*VendorPayoutBalanceChangedEvent)
		require.True(t, ok)
		assert.True(t, event.OldBalance.Equal(decimal.NewFromInt(40)))
		assert.True(t, event.NewBalance.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, "order_earnings", event.Reason)
	})

	t.Run("debit cannot overdraw the balance", func(t *testing.T) {
		vendor := createTestVendor(t)
		require.NoError(t, vendor.CreditPayout(decimal.NewFromInt(50), vendorNow))

		err := vendor.DebitPayout(decimal.NewFromInt(80), "payout_disbursed", vendorNow)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds balance")
		assert.True(t, vendor.PayoutBalance.Equal(decimal.NewFromInt(50)), "failed debit should not move the balance")
	})

	t.Run("debit to zero", func(t *testing.T) {
		vendor := createTestVendor(t)
		require.NoError(t, vendor.CreditPayout(decimal.NewFromInt(50), vendorNow))

		err := vendor.DebitPayout(decimal.NewFromInt(50), "payout_disbursed", vendorNow)

		require.NoError(t, err)
		assert.True(t, vendor.PayoutBalance.IsZero())
	})

	t.Run("amounts must be positive", func(t *testing.T) {
		vendor := createTestVendor(t)

		assert.Error(t, vendor.CreditPayout(decimal.Zero, vendorNow))
		assert.Error(t, vendor.DebitPayout(decimal.NewFromInt(-5), "oops", vendorNow))
	})
}

// ============================================
// Ratings
// ============================================

func TestVendor_Ratings(t *testing.T) {
	t.Run("record folds scores into the average", func(t *testing.T) {
		vendor := createTestVendor(t)

		require.NoError(t, vendor.RecordRating(5, vendorNow))
		require.NoError(t, vendor.RecordRating(4, vendorNow))
		require.NoError(t, vendor.RecordRating(3, vendorNow))

		assert.Equal(t, 3, vendor.RatingCount)
		assert.True(t, vendor.RatingAverage.Equal(decimal.RequireFromString("4.00")), "got %s", vendor.RatingAverage)
	})

	t.Run("remove reverses a score", func(t *testing.T) {
		vendor := createTestVendor(t)
		require.NoError(t, vendor.RecordRating(5, vendorNow))
		require.NoError(t, vendor.RecordRating(1, vendorNow))

		require.NoError(t, vendor.RemoveRating(1, vendorNow))

		assert.Equal(t, 1, vendor.RatingCount)
		assert.True(t, vendor.RatingAverage.Equal(decimal.NewFromInt(5)))

		require.NoError(t, vendor.RemoveRating(5, vendorNow))
		assert.Equal(t, 0, vendor.RatingCount)
		assert.True(t, vendor.RatingAverage.IsZero())
	})

	t.Run("out of range scores rejected", func(t *testing.T) {
		vendor := createTestVendor(t)
		assert.Error(t, vendor.RecordRating(0, vendorNow))
		assert.Error(t, vendor.RecordRating(6, vendorNow))
		assert.Error(t, vendor.RemoveRating(3, vendorNow))
	})
}

// ============================================
// Status lifecycle
// ============================================

func TestVendor_StatusLifecycle(t *testing.T) {
	t.Run("deactivate and reactivate", func(t *testing.T) {
		vendor := verifiedVendor(t)

		require.NoError(t, vendor.Deactivate(vendorNow))
		assert.Equal(t, VendorStatusInactive, vendor.Status)
		assert.False(t, vendor.CanSell(), "inactive vendor cannot sell even when verified")

		require.NoError(t, vendor.Activate(vendorNow))
		assert.Equal(t, VendorStatusActive, vendor.Status)
		assert.True(t, vendor.CanSell())
	})

	t.Run("suspend requires a reason and emits event", func(t *testing.T) {
		vendor := verifiedVendor(t)

		err := vendor.Suspend("counterfeit listings", vendorNow)

		require.NoError(t, err)
		assert.Equal(t, VendorStatusSuspended, vendor.Status)
		assert.Equal(t, "counterfeit listings", vendor.SuspensionReason)

		events := vendor.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*VendorSuspendedEvent)
		require.True(t, ok)
		assert.Equal(t, "counterfeit listings", event.Reason)

		assert.Error(t, vendor.Suspend("again", vendorNow))
	})

	t.Run("suspended vendor cannot self-activate", func(t *testing.T) {
		vendor := verifiedVendor(t)
		require.NoError(t, vendor.Suspend("policy violation", vendorNow))

		err := vendor.Activate(vendorNow)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reinstated")
		assert.Equal(t, VendorStatusSuspended, vendor.Status)
	})

	t.Run("reinstate lifts a suspension", func(t *testing.T) {
		vendor := verifiedVendor(t)
		require.NoError(t, vendor.Suspend("policy violation", vendorNow))

		require.NoError(t, vendor.Reinstate(vendorNow))

		assert.Equal(t, VendorStatusActive, vendor.Status)
		assert.Empty(t, vendor.SuspensionReason)
		assert.True(t, vendor.CanSell())
	})

	t.Run("only suspended vendors can be reinstated", func(t *testing.T) {
		vendor := createTestVendor(t)
		assert.Error(t, vendor.Reinstate(vendorNow))
	})
}

// ============================================
// Status validity
// ============================================

func TestVendorStatus_IsValid(t *testing.T) {
	valid := []VendorStatus{VendorStatusActive, VendorStatusInactive, VendorStatusSuspended}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}
	assert.False(t, VendorStatus("DELETED").IsValid())

	validVerification := []VerificationStatus{VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected}
	for _, s := range validVerification {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}
	assert.False(t, VerificationStatus("WAITING").IsValid())
}

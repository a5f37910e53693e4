package partner

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// VendorStatus represents the operational state of a vendor account
type VendorStatus string

const (
	VendorStatusActive    VendorStatus = "ACTIVE"
	VendorStatusInactive  VendorStatus = "INACTIVE"
	VendorStatusSuspended VendorStatus = "SUSPENDED" // Suspended by the platform for policy violations
)

// IsValid returns true if the status is valid
func (s VendorStatus) IsValid() bool {
	switch s {
	case VendorStatusActive, VendorStatusInactive, VendorStatusSuspended:
		return true
	}
	return false
}

// VerificationStatus tracks the platform's review of a vendor's business details
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "PENDING"
	VerificationStatusVerified VerificationStatus = "VERIFIED"
	VerificationStatusRejected VerificationStatus = "REJECTED"
)

// IsValid returns true if the verification status is valid
func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected:
		return true
	}
	return false
}

// DefaultCommissionRate is the platform cut applied to new vendors, in percent
var DefaultCommissionRate = decimal.NewFromFloat(10.0)

// Vendor is a seller on the marketplace. Vendors hold listings, receive
// orders, subscribe to plans, and accrue a payout balance from delivered
// orders net of the platform commission.
type Vendor struct {
	shared.TenantAggregateRoot
	Slug              string              `gorm:"type:varchar(100);not null;uniqueIndex:idx_vendor_tenant_slug,priority:2"`
	BusinessName      string              `gorm:"type:varchar(200);not null"`
	DisplayName       string              `gorm:"type:varchar(100)"`
	Description       string              `gorm:"type:text"`
	Status            VendorStatus        `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Verification      VerificationStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	VerifiedBy        *uuid.UUID          `gorm:"type:uuid"`
	VerifiedAt        *time.Time
	RejectionReason   string              `gorm:"type:varchar(500)"`
	ContactName       string              `gorm:"type:varchar(100)"`
	Phone             string              `gorm:"type:varchar(50);index"`
	Email             string              `gorm:"type:varchar(200);not null;index"`
	TaxID             string              `gorm:"type:varchar(50)"`
	BusinessAddress   valueobject.Address `gorm:"type:jsonb"`
	LogoKey           string              `gorm:"type:varchar(300)"` // Object storage key for the storefront logo
	BannerKey         string              `gorm:"type:varchar(300)"`
	CommissionRate    decimal.Decimal     `gorm:"type:decimal(5,2);not null"` // Platform cut in percent
	PayoutBalance     decimal.Decimal     `gorm:"type:decimal(19,4);not null;default:0"`
	PayoutBankName    string              `gorm:"type:varchar(200)"`
	PayoutBankAccount string              `gorm:"type:varchar(100)"`
	RatingAverage     decimal.Decimal     `gorm:"type:decimal(3,2);not null;default:0"`
	RatingCount       int                 `gorm:"not null;default:0"`
	SuspensionReason  string              `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Vendor) TableName() string {
	return "vendors"
}

// NewVendor registers a new seller. Vendors start unverified with the
// platform default commission rate and must pass review before the
// verified badge appears on their storefront.
func NewVendor(tenantID uuid.UUID, slug, businessName, email string, now time.Time) (*Vendor, error) {
	if err := validateVendorSlug(slug); err != nil {
		return nil, err
	}
	if err := validateBusinessName(businessName); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Vendor email cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	vendor := &Vendor{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Slug:                strings.ToLower(slug),
		BusinessName:        businessName,
		Email:               strings.ToLower(email),
		Status:              VendorStatusActive,
		Verification:        VerificationStatusPending,
		CommissionRate:      DefaultCommissionRate,
		PayoutBalance:       decimal.Zero,
		RatingAverage:       decimal.Zero,
	}
	vendor.CreatedAt = now
	vendor.UpdatedAt = now

	vendor.AddDomainEvent(NewVendorRegisteredEvent(vendor))
	return vendor, nil
}

// Update updates the vendor's profile
func (v *Vendor) Update(businessName, displayName, description string, now time.Time) error {
	if err := validateBusinessName(businessName); err != nil {
		return err
	}
	if displayName != "" && len(displayName) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Display name cannot exceed 100 characters")
	}

	v.BusinessName = businessName
	v.DisplayName = displayName
	v.Description = description
	v.Touch(now)
	return nil
}

// SetContact sets the vendor's contact information
func (v *Vendor) SetContact(contactName, phone, email string, now time.Time) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Contact name cannot exceed 100 characters")
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
		v.Email = strings.ToLower(email)
	}

	v.ContactName = contactName
	v.Phone = phone
	v.Touch(now)
	return nil
}

// SetTaxID sets the vendor's tax identification number
func (v *Vendor) SetTaxID(taxID string, now time.Time) error {
	if taxID != "" && len(taxID) > 50 {
		return shared.NewDomainError("VALIDATION_ERROR", "Tax ID cannot exceed 50 characters")
	}
	v.TaxID = taxID
	v.Touch(now)
	return nil
}

// SetBusinessAddress sets the vendor's registered business address
func (v *Vendor) SetBusinessAddress(address valueobject.Address, now time.Time) error {
	if address.IsZero() {
		return shared.NewDomainError("VALIDATION_ERROR", "Business address cannot be empty")
	}
	v.BusinessAddress = address
	v.Touch(now)
	return nil
}

// SetLogo stores the object key of the uploaded storefront logo
func (v *Vendor) SetLogo(objectKey string, now time.Time) error {
	if len(objectKey) > 300 {
		return shared.NewDomainError("VALIDATION_ERROR", "Logo key cannot exceed 300 characters")
	}
	v.LogoKey = objectKey
	v.Touch(now)
	return nil
}

// SetBanner stores the object key of the uploaded storefront banner
func (v *Vendor) SetBanner(objectKey string, now time.Time) error {
	if len(objectKey) > 300 {
		return shared.NewDomainError("VALIDATION_ERROR", "Banner key cannot exceed 300 characters")
	}
	v.BannerKey = objectKey
	v.Touch(now)
	return nil
}

// SetPayoutAccount sets where the vendor's payouts are sent
func (v *Vendor) SetPayoutAccount(bankName, bankAccount string, now time.Time) error {
	if bankName != "" && len(bankName) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Bank name cannot exceed 200 characters")
	}
	if bankAccount != "" && len(bankAccount) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Bank account cannot exceed 100 characters")
	}

	v.PayoutBankName = bankName
	v.PayoutBankAccount = bankAccount
	v.Touch(now)
	return nil
}

// Verify approves the vendor's business details after platform review
func (v *Vendor) Verify(verifiedBy uuid.UUID, now time.Time) error {
	if v.Verification == VerificationStatusVerified {
		return shared.NewDomainError("INVALID_STATE", "Vendor is already verified")
	}
	if verifiedBy == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Verifying user is required")
	}

	v.Verification = VerificationStatusVerified
	v.VerifiedBy = &verifiedBy
	v.VerifiedAt = &now
	v.RejectionReason = ""
	v.Touch(now)

	v.AddDomainEvent(NewVendorVerifiedEvent(v))
	return nil
}

// RejectVerification turns down the vendor's business details. The vendor
// may amend them and re-apply, which moves verification back to PENDING.
func (v *Vendor) RejectVerification(reason string, now time.Time) error {
	if v.Verification == VerificationStatusVerified {
		return shared.NewDomainError("INVALID_STATE", "Cannot reject an already verified vendor")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Rejection reason is required")
	}

	v.Verification = VerificationStatusRejected
	v.RejectionReason = reason
	v.Touch(now)
	return nil
}

// ReapplyForVerification puts an amended application back into review
func (v *Vendor) ReapplyForVerification(now time.Time) error {
	if v.Verification != VerificationStatusRejected {
		return shared.NewDomainError("INVALID_STATE", "Only rejected vendors can re-apply for verification")
	}

	v.Verification = VerificationStatusPending
	v.RejectionReason = ""
	v.Touch(now)
	return nil
}

// SetCommissionRate overrides the platform cut for this vendor
func (v *Vendor) SetCommissionRate(rate decimal.Decimal, now time.Time) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("VALIDATION_ERROR", "Commission rate must be between 0 and 100 percent")
	}

	v.CommissionRate = rate
	v.Touch(now)
	return nil
}

// CommissionOn computes the platform cut on an order amount
func (v *Vendor) CommissionOn(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(v.CommissionRate).Div(decimal.NewFromInt(100)).Round(4)
}

// CreditPayout adds a vendor's net earnings from a delivered order
func (v *Vendor) CreditPayout(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Payout credit must be positive")
	}

	oldBalance := v.PayoutBalance
	v.PayoutBalance = v.PayoutBalance.Add(amount)
	v.Touch(now)

	v.AddDomainEvent(NewVendorPayoutBalanceChangedEvent(v, oldBalance, "order_earnings"))
	return nil
}

// DebitPayout removes funds when a payout is disbursed or an order refunded
func (v *Vendor) DebitPayout(amount decimal.Decimal, reason string, now time.Time) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Payout debit must be positive")
	}
	if v.PayoutBalance.LessThan(amount) {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Payout debit %s exceeds balance %s", amount, v.PayoutBalance))
	}

	oldBalance := v.PayoutBalance
	v.PayoutBalance = v.PayoutBalance.Sub(amount)
	v.Touch(now)

	v.AddDomainEvent(NewVendorPayoutBalanceChangedEvent(v, oldBalance, reason))
	return nil
}

// RecordRating folds one more review score into the vendor's aggregate rating
func (v *Vendor) RecordRating(rating int, now time.Time) error {
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("VALIDATION_ERROR", "Rating must be between 1 and 5")
	}

	total := v.RatingAverage.Mul(decimal.NewFromInt(int64(v.RatingCount)))
	v.RatingCount++
	v.RatingAverage = total.Add(decimal.NewFromInt(int64(rating))).
		Div(decimal.NewFromInt(int64(v.RatingCount))).Round(2)
	v.Touch(now)
	return nil
}

// RemoveRating reverses one previously recorded review score
func (v *Vendor) RemoveRating(rating int, now time.Time) error {
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("VALIDATION_ERROR", "Rating must be between 1 and 5")
	}
	if v.RatingCount == 0 {
		return shared.NewDomainError("INVALID_STATE", "Vendor has no ratings to remove")
	}

	total := v.RatingAverage.Mul(decimal.NewFromInt(int64(v.RatingCount)))
	v.RatingCount--
	if v.RatingCount == 0 {
		v.RatingAverage = decimal.Zero
	} else {
		v.RatingAverage = total.Sub(decimal.NewFromInt(int64(rating))).
			Div(decimal.NewFromInt(int64(v.RatingCount))).Round(2)
	}
	v.Touch(now)
	return nil
}

// Deactivate closes the storefront at the vendor's request
func (v *Vendor) Deactivate(now time.Time) error {
	if v.Status == VendorStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Vendor is already inactive")
	}

	v.Status = VendorStatusInactive
	v.Touch(now)
	return nil
}

// Activate reopens a deactivated storefront
func (v *Vendor) Activate(now time.Time) error {
	if v.Status == VendorStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Vendor is already active")
	}
	if v.Status == VendorStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Suspended vendors must be reinstated by the platform")
	}

	v.Status = VendorStatusActive
	v.Touch(now)
	return nil
}

// Suspend closes the storefront for policy violations. Platform action only.
func (v *Vendor) Suspend(reason string, now time.Time) error {
	if v.Status == VendorStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Vendor is already suspended")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Suspension reason is required")
	}

	v.Status = VendorStatusSuspended
	v.SuspensionReason = reason
	v.Touch(now)

	v.AddDomainEvent(NewVendorSuspendedEvent(v, reason))
	return nil
}

// Reinstate lifts a platform suspension
func (v *Vendor) Reinstate(now time.Time) error {
	if v.Status != VendorStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Only suspended vendors can be reinstated")
	}

	v.Status = VendorStatusActive
	v.SuspensionReason = ""
	v.Touch(now)
	return nil
}

// IsActive returns true if the storefront is open
func (v *Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}

// IsVerified returns true once platform review approved the vendor
func (v *Vendor) IsVerified() bool {
	return v.Verification == VerificationStatusVerified
}

// CanSell reports whether the vendor may list products and receive orders
func (v *Vendor) CanSell() bool {
	return v.Status == VendorStatusActive && v.Verification == VerificationStatusVerified
}

// StorefrontName returns the name shown to customers
func (v *Vendor) StorefrontName() string {
	if v.DisplayName != "" {
		return v.DisplayName
	}
	return v.BusinessName
}

// Validation functions

func validateVendorSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Vendor slug cannot be empty")
	}
	if len(slug) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Vendor slug cannot exceed 100 characters")
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("VALIDATION_ERROR", "Vendor slug can only contain letters, numbers, and hyphens")
		}
	}
	return nil
}

func validateBusinessName(name string) error {
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Business name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Business name cannot exceed 200 characters")
	}
	return nil
}

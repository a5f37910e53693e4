package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

// ==================== Shared inputs ====================

// AddressInput represents an address in API requests
type AddressInput struct {
	ContactName  string `json:"contact_name" binding:"required,min=1,max=100"`
	ContactPhone string `json:"contact_phone"`
	Line1        string `json:"line1" binding:"required,min=1,max=200"`
	Line2        string `json:"line2"`
	City         string `json:"city" binding:"required,min=1,max=100"`
	State        string `json:"state" binding:"required,min=1,max=100"`
	PostalCode   string `json:"postal_code" binding:"required,min=1,max=20"`
	Country      string `json:"country" binding:"required,len=2"`
}

// ToAddress converts the input to the domain value object
func (a AddressInput) ToAddress() (valueobject.Address, error) {
	opts := make([]valueobject.AddressOption, 0, 2)
	if a.Line2 != "" {
		opts = append(opts, valueobject.WithLine2(a.Line2))
	}
	if a.ContactPhone != "" {
		opts = append(opts, valueobject.WithContactPhone(a.ContactPhone))
	}
	return valueobject.NewAddress(a.ContactName, a.Line1, a.City, a.State, a.PostalCode, a.Country, opts...)
}

// ==================== Vendor DTOs ====================

// OnboardVendorRequest registers a new seller on the marketplace
type OnboardVendorRequest struct {
	Slug         string `json:"slug" binding:"required,max=100"`
	BusinessName string `json:"business_name" binding:"required,max=200"`
	DisplayName  string `json:"display_name" binding:"max=100"`
	Description  string `json:"description"`
	Email        string `json:"email" binding:"required,email"`
	ContactName  string `json:"contact_name" binding:"max=100"`
	Phone        string `json:"phone" binding:"max=50"`
}

// UpdateVendorRequest changes the vendor's public profile
type UpdateVendorRequest struct {
	BusinessName string `json:"business_name" binding:"required,max=200"`
	DisplayName  string `json:"display_name" binding:"max=100"`
	Description  string `json:"description"`
}

// UpdateVendorContactRequest changes how the platform reaches the vendor
type UpdateVendorContactRequest struct {
	ContactName string `json:"contact_name" binding:"max=100"`
	Phone       string `json:"phone" binding:"max=50"`
	Email       string `json:"email" binding:"required,email"`
}

// SetBusinessDetailsRequest records the legal details used for verification
type SetBusinessDetailsRequest struct {
	TaxID   string        `json:"tax_id" binding:"max=50"`
	Address *AddressInput `json:"address"`
}

// RejectVerificationRequest turns down a vendor application
type RejectVerificationRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SuspendVendorRequest suspends a vendor for a policy violation
type SuspendVendorRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SetCommissionRateRequest overrides the platform cut for one vendor
type SetCommissionRateRequest struct {
	Rate decimal.Decimal `json:"rate" binding:"required"`
}

// SetPayoutAccountRequest records where vendor earnings are disbursed to
type SetPayoutAccountRequest struct {
	BankName    string `json:"bank_name" binding:"required,max=200"`
	BankAccount string `json:"bank_account" binding:"required,max=100"`
}

// AdjustPayoutRequest credits or debits the vendor's payout balance
type AdjustPayoutRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"max=200"`
}

// BrandingAssetLogo and BrandingAssetBanner name the two uploadable
// storefront assets.
const (
	BrandingAssetLogo   = "logo"
	BrandingAssetBanner = "banner"
)

// InitiateBrandingUploadRequest opens a presigned upload slot for a
// storefront asset
type InitiateBrandingUploadRequest struct {
	Asset       string `json:"asset" binding:"required,oneof=logo banner"`
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// ConfirmBrandingUploadRequest attaches an uploaded asset to the storefront
type ConfirmBrandingUploadRequest struct {
	Asset     string `json:"asset" binding:"required,oneof=logo banner"`
	ObjectKey string `json:"object_key" binding:"required"`
}

// VendorListFilter filters vendor listings
type VendorListFilter struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE SUSPENDED"`
}

// VendorResponse is the full vendor representation
type VendorResponse struct {
	ID                uuid.UUID           `json:"id"`
	TenantID          uuid.UUID           `json:"tenant_id"`
	Slug              string              `json:"slug"`
	BusinessName      string              `json:"business_name"`
	DisplayName       string              `json:"display_name,omitempty"`
	Description       string              `json:"description,omitempty"`
	Status            string              `json:"status"`
	Verification      string              `json:"verification"`
	VerifiedAt        *time.Time          `json:"verified_at,omitempty"`
	RejectionReason   string              `json:"rejection_reason,omitempty"`
	ContactName       string              `json:"contact_name,omitempty"`
	Phone             string              `json:"phone,omitempty"`
	Email             string              `json:"email"`
	TaxID             string              `json:"tax_id,omitempty"`
	BusinessAddress   valueobject.Address `json:"business_address"`
	LogoKey           string              `json:"logo_key,omitempty"`
	BannerKey         string              `json:"banner_key,omitempty"`
	CommissionRate    decimal.Decimal     `json:"commission_rate"`
	PayoutBalance     decimal.Decimal     `json:"payout_balance"`
	PayoutBankName    string              `json:"payout_bank_name,omitempty"`
	PayoutBankAccount string              `json:"payout_bank_account,omitempty"`
	RatingAverage     decimal.Decimal     `json:"rating_average"`
	RatingCount       int                 `json:"rating_count"`
	SuspensionReason  string              `json:"suspension_reason,omitempty"`
	Version           int                 `json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// BrandingUploadResponse carries the presigned slot for an asset upload
type BrandingUploadResponse struct {
	Asset     string    `json:"asset"`
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToVendorResponse converts a vendor aggregate to its response
func ToVendorResponse(vendor *partner.Vendor) VendorResponse {
	return VendorResponse{
		ID:                vendor.ID,
		TenantID:          vendor.TenantID,
		Slug:              vendor.Slug,
		BusinessName:      vendor.BusinessName,
		DisplayName:       vendor.DisplayName,
		Description:       vendor.Description,
		Status:            string(vendor.Status),
		Verification:      string(vendor.Verification),
		VerifiedAt:        vendor.VerifiedAt,
		RejectionReason:   vendor.RejectionReason,
		ContactName:       vendor.ContactName,
		Phone:             vendor.Phone,
		Email:             vendor.Email,
		TaxID:             vendor.TaxID,
		BusinessAddress:   vendor.BusinessAddress,
		LogoKey:           vendor.LogoKey,
		BannerKey:         vendor.BannerKey,
		CommissionRate:    vendor.CommissionRate,
		PayoutBalance:     vendor.PayoutBalance,
		PayoutBankName:    vendor.PayoutBankName,
		PayoutBankAccount: vendor.PayoutBankAccount,
		RatingAverage:     vendor.RatingAverage,
		RatingCount:       vendor.RatingCount,
		SuspensionReason:  vendor.SuspensionReason,
		Version:           vendor.Version,
		CreatedAt:         vendor.CreatedAt,
		UpdatedAt:         vendor.UpdatedAt,
	}
}

// ToVendorResponses converts a list of vendors
func ToVendorResponses(vendors []*partner.Vendor) []VendorResponse {
	responses := make([]VendorResponse, len(vendors))
	for i, vendor := range vendors {
		responses[i] = ToVendorResponse(vendor)
	}
	return responses
}

// ==================== Customer DTOs ====================

// RegisterCustomerRequest registers a new buyer account
type RegisterCustomerRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"max=50"`
}

// UpdateCustomerRequest changes the customer's profile
type UpdateCustomerRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Phone string `json:"phone" binding:"max=50"`
}

// ChangeCustomerEmailRequest moves the account to a new email address
type ChangeCustomerEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SetCustomerAddressRequest stores a default address
type SetCustomerAddressRequest struct {
	Address AddressInput `json:"address" binding:"required"`
}

// BlockCustomerRequest blocks a buyer from placing orders
type BlockCustomerRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CustomerListFilter filters customer listings
type CustomerListFilter struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE BLOCKED"`
}

// CustomerResponse is the full customer representation
type CustomerResponse struct {
	ID                     uuid.UUID           `json:"id"`
	TenantID               uuid.UUID           `json:"tenant_id"`
	Name                   string              `json:"name"`
	Email                  string              `json:"email"`
	Phone                  string              `json:"phone,omitempty"`
	Status                 string              `json:"status"`
	DefaultShippingAddress valueobject.Address `json:"default_shipping_address"`
	DefaultBillingAddress  valueobject.Address `json:"default_billing_address"`
	BlockReason            string              `json:"block_reason,omitempty"`
	LastOrderAt            *time.Time          `json:"last_order_at,omitempty"`
	Version                int                 `json:"version"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// ToCustomerResponse converts a customer aggregate to its response
func ToCustomerResponse(customer *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                     customer.ID,
		TenantID:               customer.TenantID,
		Name:                   customer.Name,
		Email:                  customer.Email,
		Phone:                  customer.Phone,
		Status:                 string(customer.Status),
		DefaultShippingAddress: customer.DefaultShippingAddress,
		DefaultBillingAddress:  customer.DefaultBillingAddress,
		BlockReason:            customer.BlockReason,
		LastOrderAt:            customer.LastOrderAt,
		Version:                customer.Version,
		CreatedAt:              customer.CreatedAt,
		UpdatedAt:              customer.UpdatedAt,
	}
}

// ToCustomerResponses converts a list of customers
func ToCustomerResponses(customers []*partner.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i, customer := range customers {
		responses[i] = ToCustomerResponse(customer)
	}
	return responses
}

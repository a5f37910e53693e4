package partner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
)

// brandingUploadExpiry bounds how long a presigned branding upload stays open.
const brandingUploadExpiry = 15 * time.Minute

// allowedBrandingTypes is the content-type whitelist for storefront assets.
// SVG is excluded, it can carry scripts.
var allowedBrandingTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// VendorService handles seller account operations
type VendorService struct {
	vendorRepo     partner.VendorRepository
	storage        shared.ObjectStorage
	clock          shared.Clock
	eventPublisher shared.EventPublisher
}

// NewVendorService creates a new VendorService
func NewVendorService(
	vendorRepo partner.VendorRepository,
	storage shared.ObjectStorage,
	clock shared.Clock,
) *VendorService {
	return &VendorService{
		vendorRepo: vendorRepo,
		storage:    storage,
		clock:      clock,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *VendorService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Onboard registers a new seller. The storefront starts unverified; listing
// products requires passing verification first.
func (s *VendorService) Onboard(ctx context.Context, tenantID uuid.UUID, req OnboardVendorRequest) (*VendorResponse, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	exists, err := s.vendorRepo.ExistsBySlug(ctx, tenantID, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Vendor slug %s is already taken", slug))
	}

	now := s.clock.Now()
	vendor, err := partner.NewVendor(tenantID, slug, req.BusinessName, req.Email, now)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != "" || req.Description != "" {
		if err := vendor.Update(req.BusinessName, req.DisplayName, req.Description, now); err != nil {
			return nil, err
		}
	}
	if req.ContactName != "" || req.Phone != "" {
		if err := vendor.SetContact(req.ContactName, req.Phone, "", now); err != nil {
			return nil, err
		}
	}

	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		// Events are delivered in-process after the save; a delivery failure
		// does not fail the onboarding
		_ = s.eventPublisher.Publish(ctx, vendor.GetDomainEvents()...)
	}
	vendor.ClearDomainEvents()

	response := ToVendorResponse(vendor)
	return &response, nil
}

// GetByID retrieves a vendor by ID
func (s *VendorService) GetByID(ctx context.Context, tenantID, vendorID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}
	response := ToVendorResponse(vendor)
	return &response, nil
}

// GetBySlug retrieves a vendor by its storefront slug
func (s *VendorService) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindBySlug(ctx, tenantID, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	response := ToVendorResponse(vendor)
	return &response, nil
}

// List retrieves vendors, optionally narrowed to one status
func (s *VendorService) List(ctx context.Context, tenantID uuid.UUID, filter VendorListFilter) ([]VendorResponse, int64, error) {
	domainFilter := buildVendorFilter(filter)

	var (
		vendors []*partner.Vendor
		total   int64
		err     error
	)
	if filter.Status != "" {
		vendors, total, err = s.vendorRepo.FindByStatus(ctx, tenantID, partner.VendorStatus(filter.Status), domainFilter)
	} else {
		vendors, total, err = s.vendorRepo.FindAll(ctx, tenantID, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}
	return ToVendorResponses(vendors), total, nil
}

// ListPendingVerification retrieves the verification review queue
func (s *VendorService) ListPendingVerification(ctx context.Context, tenantID uuid.UUID, filter VendorListFilter) ([]VendorResponse, int64, error) {
	vendors, total, err := s.vendorRepo.FindPendingVerification(ctx, tenantID, buildVendorFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToVendorResponses(vendors), total, nil
}

// UpdateProfile changes the vendor's public profile
func (s *VendorService) UpdateProfile(ctx context.Context, tenantID, vendorID uuid.UUID, req UpdateVendorRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.Update(req.BusinessName, req.DisplayName, req.Description, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// UpdateContact changes the vendor's contact details
func (s *VendorService) UpdateContact(ctx context.Context, tenantID, vendorID uuid.UUID, req UpdateVendorContactRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.SetContact(req.ContactName, req.Phone, req.Email, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// SetBusinessDetails records the legal details the verification review uses
func (s *VendorService) SetBusinessDetails(ctx context.Context, tenantID, vendorID uuid.UUID, req SetBusinessDetailsRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if req.TaxID != "" {
		if err := vendor.SetTaxID(req.TaxID, now); err != nil {
			return nil, err
		}
	}
	if req.Address != nil {
		address, err := req.Address.ToAddress()
		if err != nil {
			return nil, err
		}
		if err := vendor.SetBusinessAddress(address, now); err != nil {
			return nil, err
		}
	}

	return s.saveMutation(ctx, vendor)
}

// SetPayoutAccount records where the vendor's earnings are disbursed to
func (s *VendorService) SetPayoutAccount(ctx context.Context, tenantID, vendorID uuid.UUID, req SetPayoutAccountRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.SetPayoutAccount(req.BankName, req.BankAccount, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// SetCommissionRate overrides the platform cut for this vendor
func (s *VendorService) SetCommissionRate(ctx context.Context, tenantID, vendorID uuid.UUID, req SetCommissionRateRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.SetCommissionRate(req.Rate, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// Verify approves the vendor's business details after platform review
func (s *VendorService) Verify(ctx context.Context, tenantID, vendorID, verifiedBy uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.Verify(verifiedBy, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// RejectVerification turns down a vendor application with a reason
func (s *VendorService) RejectVerification(ctx context.Context, tenantID, vendorID uuid.UUID, req RejectVerificationRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.RejectVerification(req.Reason, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// ReapplyForVerification puts an amended application back into review
func (s *VendorService) ReapplyForVerification(ctx context.Context, tenantID, vendorID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.ReapplyForVerification(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// Activate reopens a deactivated storefront
func (s *VendorService) Activate(ctx context.Context, tenantID, vendorID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.Activate(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// Deactivate closes the storefront at the vendor's request
func (s *VendorService) Deactivate(ctx context.Context, tenantID, vendorID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.Deactivate(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// Suspend closes the storefront for a policy violation. Platform action only.
func (s *VendorService) Suspend(ctx context.Context, tenantID, vendorID uuid.UUID, req SuspendVendorRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.Suspend(req.Reason, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// Reinstate lifts a platform suspension
func (s *VendorService) Reinstate(ctx context.Context, tenantID, vendorID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.Reinstate(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// CreditPayout adds funds to the vendor's payout balance
func (s *VendorService) CreditPayout(ctx context.Context, tenantID, vendorID uuid.UUID, req AdjustPayoutRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	if err := vendor.CreditPayout(req.Amount, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// DebitPayout removes funds, recording a disbursement or correction
func (s *VendorService) DebitPayout(ctx context.Context, tenantID, vendorID uuid.UUID, req AdjustPayoutRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = "manual_adjustment"
	}
	if err := vendor.DebitPayout(req.Amount, reason, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, vendor)
}

// InitiateBrandingUpload hands out a presigned slot for a storefront asset.
// The client uploads directly to object storage and then confirms the key.
func (s *VendorService) InitiateBrandingUpload(ctx context.Context, tenantID, vendorID uuid.UUID, req InitiateBrandingUploadRequest) (*BrandingUploadResponse, error) {
	if _, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID); err != nil {
		return nil, err
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if !allowedBrandingTypes[contentType] {
		return nil, shared.NewValidationError("Content type %s is not an allowed image type", req.ContentType)
	}

	objectKey := brandingObjectKey(tenantID, vendorID, req.Asset, req.FileName)
	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, objectKey, contentType, brandingUploadExpiry)
	if err != nil {
		return nil, err
	}

	return &BrandingUploadResponse{
		Asset:     req.Asset,
		ObjectKey: objectKey,
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmBrandingUpload verifies the object landed in storage, attaches its
// key to the storefront and drops the previous asset.
func (s *VendorService) ConfirmBrandingUpload(ctx context.Context, tenantID, vendorID uuid.UUID, req ConfirmBrandingUploadRequest) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	prefix := brandingKeyPrefix(tenantID, vendorID, req.Asset)
	if !strings.HasPrefix(req.ObjectKey, prefix) {
		return nil, shared.NewValidationError("Object key does not belong to this storefront")
	}

	exists, err := s.storage.ObjectExists(ctx, req.ObjectKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewValidationError("No uploaded object found under key %s", req.ObjectKey)
	}

	now := s.clock.Now()
	var previousKey string
	switch req.Asset {
	case BrandingAssetLogo:
		previousKey = vendor.LogoKey
		err = vendor.SetLogo(req.ObjectKey, now)
	case BrandingAssetBanner:
		previousKey = vendor.BannerKey
		err = vendor.SetBanner(req.ObjectKey, now)
	default:
		err = shared.NewValidationError("Unknown branding asset %q", req.Asset)
	}
	if err != nil {
		return nil, err
	}

	response, err := s.saveMutation(ctx, vendor)
	if err != nil {
		return nil, err
	}

	if previousKey != "" && previousKey != req.ObjectKey {
		// The storefront no longer references the old key; a failed delete
		// only leaves an orphaned object behind
		_ = s.storage.DeleteObject(ctx, previousKey)
	}

	return response, nil
}

// saveMutation persists a changed vendor with its collected events
func (s *VendorService) saveMutation(ctx context.Context, vendor *partner.Vendor) (*VendorResponse, error) {
	events := vendor.GetDomainEvents()
	vendor.ClearDomainEvents()

	if err := s.vendorRepo.SaveWithLockAndEvents(ctx, vendor, events); err != nil {
		return nil, err
	}

	response := ToVendorResponse(vendor)
	return &response, nil
}

// buildVendorFilter applies list defaults and converts to a domain filter
func buildVendorFilter(filter VendorListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
}

// brandingKeyPrefix is the object-key namespace for one storefront asset kind
func brandingKeyPrefix(tenantID, vendorID uuid.UUID, asset string) string {
	return fmt.Sprintf("tenants/%s/vendors/%s/%s/", tenantID, vendorID, asset)
}

// brandingObjectKey generates a unique object key for an uploaded asset
func brandingObjectKey(tenantID, vendorID uuid.UUID, asset, fileName string) string {
	return brandingKeyPrefix(tenantID, vendorID, asset) + uuid.New().String() + filepath.Ext(fileName)
}

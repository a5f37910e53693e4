package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	partnerapp "github.com/markethub/backend/internal/application/partner"
)

// VendorHandler handles vendor API endpoints
type VendorHandler struct {
	BaseHandler
	vendorService *partnerapp.VendorService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendorService *partnerapp.VendorService) *VendorHandler {
	return &VendorHandler{
		vendorService: vendorService,
	}
}

// Onboard godoc
// @Summary      Onboard a vendor
// @Description  Register a seller; the account starts unverified and inactive for selling
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        request body partner.OnboardVendorRequest true "Vendor registration"
// @Success      201 {object} dto.Response{data=partner.VendorResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors [post]
func (h *VendorHandler) Onboard(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req partnerapp.OnboardVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.Onboard(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, vendor)
}

// GetByID godoc
// @Summary      Get vendor by ID
// @Tags         vendors
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id} [get]
func (h *VendorHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	vendor, err := h.vendorService.GetByID(c.Request.Context(), tenantID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// GetBySlug godoc
// @Summary      Get vendor by storefront slug
// @Tags         vendors
// @Produce      json
// @Param        slug path string true "Vendor slug"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vendors/slug/{slug} [get]
func (h *VendorHandler) GetBySlug(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	slug := c.Param("slug")
	if slug == "" {
		h.BadRequest(c, "Slug is required")
		return
	}

	vendor, err := h.vendorService.GetBySlug(c.Request.Context(), tenantID, slug)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// List godoc
// @Summary      List vendors
// @Tags         vendors
// @Produce      json
// @Param        status query string false "Vendor status" Enums(ACTIVE, INACTIVE, SUSPENDED)
// @Param        search query string false "Search term"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter partnerapp.VendorListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendors, total, err := h.vendorService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, vendors, total, filter.Page, filter.PageSize)
}

// ListPendingVerification godoc
// @Summary      List vendors awaiting verification
// @Tags         vendors
// @Produce      json
// @Success      200 {object} dto.Response{data=[]partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors/pending-verification [get]
func (h *VendorHandler) ListPendingVerification(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter partnerapp.VendorListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendors, total, err := h.vendorService.ListPendingVerification(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, vendors, total, filter.Page, filter.PageSize)
}

// UpdateProfile godoc
// @Summary      Update vendor profile
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.UpdateVendorRequest true "Profile details"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors/{id} [put]
func (h *VendorHandler) UpdateProfile(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.UpdateProfile(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// UpdateContact godoc
// @Summary      Update vendor contact details
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.UpdateVendorContactRequest true "Contact details"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/contact [put]
func (h *VendorHandler) UpdateContact(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.UpdateVendorContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.UpdateContact(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// SetBusinessDetails godoc
// @Summary      Record business details
// @Description  Legal details required before the vendor can be verified
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.SetBusinessDetailsRequest true "Business details"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/business-details [put]
func (h *VendorHandler) SetBusinessDetails(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.SetBusinessDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.SetBusinessDetails(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// SetPayoutAccount godoc
// @Summary      Set payout account
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.SetPayoutAccountRequest true "Payout account"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/payout-account [put]
func (h *VendorHandler) SetPayoutAccount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.SetPayoutAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.SetPayoutAccount(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// SetCommissionRate godoc
// @Summary      Override commission rate
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.SetCommissionRateRequest true "Commission rate"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/commission-rate [put]
func (h *VendorHandler) SetCommissionRate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.SetCommissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.SetCommissionRate(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// Verify godoc
// @Summary      Verify a vendor
// @Description  Approve the vendor's application; the acting admin is recorded
// @Tags         vendors
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/verify [post]
func (h *VendorHandler) Verify(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	adminID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	vendor, err := h.vendorService.Verify(c.Request.Context(), tenantID, vendorID, adminID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// RejectVerification godoc
// @Summary      Reject a vendor application
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.RejectVerificationRequest true "Rejection reason"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/reject-verification [post]
func (h *VendorHandler) RejectVerification(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.RejectVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.RejectVerification(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// ReapplyForVerification godoc
// @Summary      Reapply after rejection
// @Tags         vendors
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/reapply [post]
func (h *VendorHandler) ReapplyForVerification(c *gin.Context) {
	h.lifecycle(c, h.vendorService.ReapplyForVerification)
}

// Activate godoc
// @Summary      Activate a vendor
// @Tags         vendors
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/activate [post]
func (h *VendorHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.vendorService.Activate)
}

// Deactivate godoc
// @Summary      Deactivate a vendor
// @Tags         vendors
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/deactivate [post]
func (h *VendorHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.vendorService.Deactivate)
}

// Reinstate godoc
// @Summary      Reinstate a suspended vendor
// @Tags         vendors
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/reinstate [post]
func (h *VendorHandler) Reinstate(c *gin.Context) {
	h.lifecycle(c, h.vendorService.Reinstate)
}

func (h *VendorHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, tenantID, vendorID uuid.UUID) (*partnerapp.VendorResponse, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	vendor, err := fn(c.Request.Context(), tenantID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// Suspend godoc
// @Summary      Suspend a vendor
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.SuspendVendorRequest true "Suspension reason"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/suspend [post]
func (h *VendorHandler) Suspend(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.SuspendVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.Suspend(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// CreditPayout godoc
// @Summary      Credit the payout balance
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.AdjustPayoutRequest true "Credit amount"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/payout/credit [post]
func (h *VendorHandler) CreditPayout(c *gin.Context) {
	h.adjustPayout(c, h.vendorService.CreditPayout)
}

// DebitPayout godoc
// @Summary      Debit the payout balance
// @Description  Records a disbursement; the balance cannot go negative
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.AdjustPayoutRequest true "Debit amount"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/payout/debit [post]
func (h *VendorHandler) DebitPayout(c *gin.Context) {
	h.adjustPayout(c, h.vendorService.DebitPayout)
}

func (h *VendorHandler) adjustPayout(c *gin.Context, fn func(ctx context.Context, tenantID, vendorID uuid.UUID, req partnerapp.AdjustPayoutRequest) (*partnerapp.VendorResponse, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.AdjustPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := fn(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

// InitiateBrandingUpload godoc
// @Summary      Start a branding asset upload
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.InitiateBrandingUploadRequest true "Upload request"
// @Success      200 {object} dto.Response{data=partner.BrandingUploadResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/branding/upload [post]
func (h *VendorHandler) InitiateBrandingUpload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.InitiateBrandingUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	upload, err := h.vendorService.InitiateBrandingUpload(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, upload)
}

// ConfirmBrandingUpload godoc
// @Summary      Attach an uploaded branding asset
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body partner.ConfirmBrandingUploadRequest true "Uploaded object key"
// @Success      200 {object} dto.Response{data=partner.VendorResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/branding [post]
func (h *VendorHandler) ConfirmBrandingUpload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req partnerapp.ConfirmBrandingUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.ConfirmBrandingUpload(c.Request.Context(), tenantID, vendorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, vendor)
}

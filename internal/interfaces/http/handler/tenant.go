package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/markethub/backend/internal/application/identity"
)

// TenantHandler handles marketplace operator administration API endpoints.
// These routes are platform-level and not tenant-scoped.
type TenantHandler struct {
	BaseHandler
	tenantService *identityapp.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *identityapp.TenantService) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
	}
}

// CreateTenantRequest represents a tenant provisioning request
type CreateTenantRequest struct {
	Code         string `json:"code" binding:"required,min=2,max=32,alphanum"`
	Name         string `json:"name" binding:"required,max=200"`
	TrialDays    int    `json:"trial_days" binding:"omitempty,min=0,max=365"`
	ContactName  string `json:"contact_name" binding:"omitempty,max=100"`
	ContactPhone string `json:"contact_phone" binding:"omitempty,max=32"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	Domain       string `json:"domain" binding:"omitempty,fqdn"`
}

// UpdateTenantRequest represents a tenant update request
type UpdateTenantRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=200"`
	ContactName  *string `json:"contact_name" binding:"omitempty,max=100"`
	ContactPhone *string `json:"contact_phone" binding:"omitempty,max=32"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
}

// SetDomainRequest assigns a custom domain to a tenant
type SetDomainRequest struct {
	Domain string `json:"domain" binding:"required,fqdn"`
}

// SetTenantPlanRequest assigns a billing plan to a tenant
type SetTenantPlanRequest struct {
	PlanID string `json:"plan_id" binding:"required,uuid"`
}

// TenantListQuery represents tenant list filter parameters
type TenantListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=code name created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create godoc
// @Summary      Provision a tenant
// @Description  Creates a marketplace operator; trial_days > 0 starts a trial window
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body handler.CreateTenantRequest true "Tenant details"
// @Success      201 {object} dto.Response{data=identity.TenantDTO}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.Create(c.Request.Context(), identityapp.CreateTenantInput{
		Code:         req.Code,
		Name:         req.Name,
		TrialDays:    req.TrialDays,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Domain:       req.Domain,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, tenant)
}

// GetByID godoc
// @Summary      Get tenant by ID
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.TenantDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants/{id} [get]
func (h *TenantHandler) GetByID(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	tenant, err := h.tenantService.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

// GetByCode godoc
// @Summary      Get tenant by code
// @Tags         tenants
// @Produce      json
// @Param        code path string true "Tenant code"
// @Success      200 {object} dto.Response{data=identity.TenantDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants/code/{code} [get]
func (h *TenantHandler) GetByCode(c *gin.Context) {
	tenant, err := h.tenantService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

// List godoc
// @Summary      List tenants
// @Tags         tenants
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        search query string false "Search in code and name"
// @Success      200 {object} dto.Response{data=[]identity.TenantDTO}
// @Security     BearerAuth
// @Router       /tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	var query TenantListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tenantService.List(c.Request.Context(), identityapp.TenantListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Search:   query.Search,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Tenants, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @Summary      Update a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body handler.UpdateTenantRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=identity.TenantDTO}
// @Security     BearerAuth
// @Router       /tenants/{id} [put]
func (h *TenantHandler) Update(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.Update(c.Request.Context(), tenantID, identityapp.UpdateTenantInput{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

// SetDomain godoc
// @Summary      Assign a custom domain
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body handler.SetDomainRequest true "Domain"
// @Success      200 {object} dto.Response{data=identity.TenantDTO}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants/{id}/domain [put]
func (h *TenantHandler) SetDomain(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req SetDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.SetDomain(c.Request.Context(), tenantID, req.Domain)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

// SetPlan godoc
// @Summary      Assign a billing plan
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body handler.SetTenantPlanRequest true "Plan assignment"
// @Success      200 {object} dto.Response{data=identity.TenantDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants/{id}/plan [put]
func (h *TenantHandler) SetPlan(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req SetTenantPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	tenant, err := h.tenantService.SetPlan(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

// Activate godoc
// @Summary      Activate a tenant
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.TenantDTO}
// @Security     BearerAuth
// @Router       /tenants/{id}/activate [post]
func (h *TenantHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.tenantService.Activate)
}

// Deactivate godoc
// @Summary      Deactivate a tenant
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.TenantDTO}
// @Security     BearerAuth
// @Router       /tenants/{id}/deactivate [post]
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.tenantService.Deactivate)
}

// Suspend godoc
// @Summary      Suspend a tenant
// @Description  Used for payment and policy issues; suspended tenants keep their data
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.TenantDTO}
// @Security     BearerAuth
// @Router       /tenants/{id}/suspend [post]
func (h *TenantHandler) Suspend(c *gin.Context) {
	h.lifecycle(c, h.tenantService.Suspend)
}

// GetStats godoc
// @Summary      Tenant statistics
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.TenantStatsDTO}
// @Security     BearerAuth
// @Router       /tenants/{id}/stats [get]
func (h *TenantHandler) GetStats(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	stats, err := h.tenantService.GetStats(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// Delete godoc
// @Summary      Delete a tenant
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      204 "No Content"
// @Security     BearerAuth
// @Router       /tenants/{id} [delete]
func (h *TenantHandler) Delete(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	if err := h.tenantService.Delete(c.Request.Context(), tenantID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *TenantHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*identityapp.TenantDTO, error)) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	tenant, err := fn(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

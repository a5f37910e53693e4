package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityapp "github.com/markethub/backend/internal/application/identity"
	"github.com/markethub/backend/internal/domain/identity"
)

// UserHandler handles account administration API endpoints
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identityapp.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8,max=128"`
	DisplayName string  `json:"display_name" binding:"required,max=100"`
	Role        string  `json:"role" binding:"required,oneof=ADMIN VENDOR_STAFF CUSTOMER"`
	VendorID    *string `json:"vendor_id" binding:"omitempty,uuid"`
	CustomerID  *string `json:"customer_id" binding:"omitempty,uuid"`
	Activate    bool    `json:"activate"`
}

// UpdateUserRequest represents a user update request
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
}

// ChangeRoleRequest represents a role change request
type ChangeRoleRequest struct {
	Role       string  `json:"role" binding:"required,oneof=ADMIN VENDOR_STAFF CUSTOMER"`
	VendorID   *string `json:"vendor_id" binding:"omitempty,uuid"`
	CustomerID *string `json:"customer_id" binding:"omitempty,uuid"`
}

// AttachProfileRequest links an account to a vendor or customer profile
type AttachProfileRequest struct {
	ProfileID string `json:"profile_id" binding:"required,uuid"`
}

// LockUserRequest represents a temporary account lock request
type LockUserRequest struct {
	DurationMinutes int `json:"duration_minutes" binding:"required,min=1,max=43200"`
}

// ResetPasswordRequest represents an administrative password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
	ForceChange bool   `json:"force_change"`
}

// UserListQuery represents account list filter parameters
type UserListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Role     string `form:"role" binding:"omitempty,oneof=ADMIN VENDOR_STAFF CUSTOMER"`
	Search   string `form:"search"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=email display_name created_at last_login_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Create godoc
// @Summary      Create an account
// @Description  Creates an account; vendor staff and customers carry a profile link
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body handler.CreateUserRequest true "Account details"
// @Success      201 {object} dto.Response{data=identity.UserDTO}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendorID, err := parseOptionalUUID(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}
	customerID, err := parseOptionalUUID(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	user, err := h.userService.Create(c.Request.Context(), identityapp.CreateUserInput{
		TenantID:    tenantID,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        identity.Role(req.Role),
		VendorID:    vendorID,
		CustomerID:  customerID,
		Activate:    req.Activate,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, user)
}

// GetByID godoc
// @Summary      Get account by ID
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, user)
}

// List godoc
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        role query string false "Filter by role"
// @Param        search query string false "Search in email and display name"
// @Success      200 {object} dto.Response{data=[]identity.UserDTO}
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.List(c.Request.Context(), tenantID, identityapp.UserListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Role:     query.Role,
		Search:   query.Search,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Users, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @Summary      Update an account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body handler.UpdateUserRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Update(c.Request.Context(), tenantID, userID, identityapp.UpdateUserInput{
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, user)
}

// ChangeRole godoc
// @Summary      Change an account's role
// @Description  Profile links are replaced along with the role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body handler.ChangeRoleRequest true "New role and profile link"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendorID, err := parseOptionalUUID(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}
	customerID, err := parseOptionalUUID(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), tenantID, userID, identityapp.ChangeRoleInput{
		Role:       identity.Role(req.Role),
		VendorID:   vendorID,
		CustomerID: customerID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, user)
}

// AttachVendor godoc
// @Summary      Link an account to a vendor
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body handler.AttachProfileRequest true "Vendor to link"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Security     BearerAuth
// @Router       /users/{id}/vendor [put]
func (h *UserHandler) AttachVendor(c *gin.Context) {
	h.attachProfile(c, h.userService.AttachVendor)
}

// AttachCustomer godoc
// @Summary      Link an account to a customer profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body handler.AttachProfileRequest true "Customer profile to link"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Security     BearerAuth
// @Router       /users/{id}/customer [put]
func (h *UserHandler) AttachCustomer(c *gin.Context) {
	h.attachProfile(c, h.userService.AttachCustomer)
}

func (h *UserHandler) attachProfile(c *gin.Context, fn func(ctx context.Context, tenantID, userID, profileID uuid.UUID) (*identityapp.UserDTO, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req AttachProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	profileID, err := uuid.Parse(req.ProfileID)
	if err != nil {
		h.BadRequest(c, "Invalid profile ID format")
		return
	}

	user, err := fn(c.Request.Context(), tenantID, userID, profileID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, user)
}

// Activate godoc
// @Summary      Activate an account
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Security     BearerAuth
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.userService.Activate)
}

// Deactivate godoc
// @Summary      Deactivate an account
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Security     BearerAuth
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.userService.Deactivate)
}

// Unlock godoc
// @Summary      Unlock an account
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Security     BearerAuth
// @Router       /users/{id}/unlock [post]
func (h *UserHandler) Unlock(c *gin.Context) {
	h.lifecycle(c, h.userService.Unlock)
}

// Lock godoc
// @Summary      Lock an account temporarily
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body handler.LockUserRequest true "Lock duration"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Security     BearerAuth
// @Router       /users/{id}/lock [post]
func (h *UserHandler) Lock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req LockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Lock(c.Request.Context(), tenantID, userID, time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, user)
}

// ResetPassword godoc
// @Summary      Reset an account's password
// @Description  Administrative reset; all of the account's sessions are revoked
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body handler.ResetPasswordRequest true "New password"
// @Success      204 "No Content"
// @Security     BearerAuth
// @Router       /users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), tenantID, userID, req.NewPassword, req.ForceChange); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Delete godoc
// @Summary      Delete an account
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      204 "No Content"
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), tenantID, userID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *UserHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, tenantID, userID uuid.UUID) (*identityapp.UserDTO, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	user, err := fn(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, user)
}

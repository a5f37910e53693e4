package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/markethub/backend/internal/application/billing"
)

// PlanHandler handles subscription plan API endpoints. Plans are
// platform-wide; there is no tenant scope on these routes.
type PlanHandler struct {
	BaseHandler
	planService *billingapp.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService *billingapp.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// Create godoc
// @Summary      Create a subscription plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        request body billing.CreatePlanRequest true "Plan definition"
// @Success      201 {object} dto.Response{data=billing.PlanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	var req billingapp.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, plan)
}

// GetByID godoc
// @Summary      Get plan by ID
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.PlanResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /plans/{id} [get]
func (h *PlanHandler) GetByID(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	plan, err := h.planService.GetByID(c.Request.Context(), planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// GetByCode godoc
// @Summary      Get plan by code
// @Tags         plans
// @Produce      json
// @Param        code path string true "Plan code"
// @Success      200 {object} dto.Response{data=billing.PlanResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /plans/code/{code} [get]
func (h *PlanHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Plan code is required")
		return
	}

	plan, err := h.planService.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// List godoc
// @Summary      List plans
// @Description  All plans ordered by sort order; active_only=true hides retired tiers
// @Tags         plans
// @Produce      json
// @Param        active_only query bool false "Only active plans"
// @Success      200 {object} dto.Response{data=[]billing.PlanResponse}
// @Router       /plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	plans, err := h.planService.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plans)
}

// UpdateDetails godoc
// @Summary      Update plan details
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Param        request body billing.UpdatePlanRequest true "Plan details"
// @Success      200 {object} dto.Response{data=billing.PlanResponse}
// @Security     BearerAuth
// @Router       /plans/{id} [put]
func (h *PlanHandler) UpdateDetails(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	var req billingapp.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.UpdateDetails(c.Request.Context(), planID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// UpdatePricing godoc
// @Summary      Update plan pricing
// @Description  Reprice a plan; running subscriptions keep their snapshotted amounts
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Param        request body billing.UpdatePlanPricingRequest true "New prices"
// @Success      200 {object} dto.Response{data=billing.PlanResponse}
// @Security     BearerAuth
// @Router       /plans/{id}/pricing [put]
func (h *PlanHandler) UpdatePricing(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	var req billingapp.UpdatePlanPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.UpdatePricing(c.Request.Context(), planID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// SetFeature godoc
// @Summary      Grant or adjust a plan feature
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Param        request body billing.SetPlanFeatureRequest true "Feature grant"
// @Success      200 {object} dto.Response{data=billing.PlanResponse}
// @Security     BearerAuth
// @Router       /plans/{id}/features [put]
func (h *PlanHandler) SetFeature(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	var req billingapp.SetPlanFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.SetFeature(c.Request.Context(), planID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// RemoveFeature godoc
// @Summary      Remove a plan feature
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Param        name path string true "Feature name"
// @Success      200 {object} dto.Response{data=billing.PlanResponse}
// @Security     BearerAuth
// @Router       /plans/{id}/features/{name} [delete]
func (h *PlanHandler) RemoveFeature(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	name := c.Param("name")
	if name == "" {
		h.BadRequest(c, "Feature name is required")
		return
	}

	plan, err := h.planService.RemoveFeature(c.Request.Context(), planID, name)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// Activate godoc
// @Summary      Activate a plan
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.PlanResponse}
// @Security     BearerAuth
// @Router       /plans/{id}/activate [post]
func (h *PlanHandler) Activate(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	plan, err := h.planService.Activate(c.Request.Context(), planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// Deactivate godoc
// @Summary      Retire a plan
// @Description  Stop new enrollments; existing subscriptions continue to renew
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.PlanResponse}
// @Security     BearerAuth
// @Router       /plans/{id}/deactivate [post]
func (h *PlanHandler) Deactivate(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	plan, err := h.planService.Deactivate(c.Request.Context(), planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

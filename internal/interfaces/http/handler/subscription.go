package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/markethub/backend/internal/application/billing"
)

// SubscriptionHandler handles vendor subscription API endpoints
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService *billingapp.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *billingapp.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// Subscribe godoc
// @Summary      Enroll a vendor in a plan
// @Description  Create a subscription; trial starts only when the plan grants trial days
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        request body billing.SubscribeRequest true "Enrollment request"
// @Success      201 {object} dto.Response{data=billing.SubscriptionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.Subscribe(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, sub)
}

// GetByID godoc
// @Summary      Get subscription by ID
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.SubscriptionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	sub, err := h.subscriptionService.GetByID(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// GetCurrentForVendor godoc
// @Summary      Get a vendor's current subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.SubscriptionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /vendors/{id}/subscription [get]
func (h *SubscriptionHandler) GetCurrentForVendor(c *gin.Context) {
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

	sub, err := h.subscriptionService.GetCurrentForVendor(c.Request.Context(), tenantID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// ListByVendor godoc
// @Summary      List a vendor's subscription history
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]billing.SubscriptionResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/subscriptions [get]
func (h *SubscriptionHandler) ListByVendor(c *gin.Context) {
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

	subs, err := h.subscriptionService.ListByVendor(c.Request.Context(), tenantID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, subs)
}

// ListByStatus godoc
// @Summary      List subscriptions by status
// @Tags         subscriptions
// @Produce      json
// @Param        status path string true "Subscription status"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]billing.SubscriptionResponse}
// @Security     BearerAuth
// @Router       /subscriptions/status/{status} [get]
func (h *SubscriptionHandler) ListByStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter billingapp.SubscriptionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	subs, total, err := h.subscriptionService.ListByStatus(c.Request.Context(), tenantID, c.Param("status"), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, subs, total, filter.Page, filter.PageSize)
}

// StatusSummary godoc
// @Summary      Subscription status summary
// @Tags         subscriptions
// @Produce      json
// @Success      200 {object} dto.Response{data=billing.SubscriptionStatusSummary}
// @Security     BearerAuth
// @Router       /subscriptions/summary [get]
func (h *SubscriptionHandler) StatusSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	summary, err := h.subscriptionService.GetStatusSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// RecordPayment godoc
// @Summary      Record a successful charge
// @Description  Report an out-of-band payment; trial and past-due subscriptions activate
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body billing.RecordPaymentRequest true "Payment details"
// @Success      200 {object} dto.Response{data=billing.RenewalResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/payments [post]
func (h *SubscriptionHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	var req billingapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.subscriptionService.RecordPayment(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// RetryPayment godoc
// @Summary      Retry a failed payment
// @Tags         subscriptions
// @Produce      json
// @Param        payment_id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.RenewalResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/payments/{payment_id}/retry [post]
func (h *SubscriptionHandler) RetryPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("payment_id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	result, err := h.subscriptionService.RetryPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel godoc
// @Summary      Cancel a subscription
// @Description  Immediate cancellation ends access now; otherwise access runs to period end
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body billing.CancelSubscriptionRequest true "Cancellation request"
// @Success      200 {object} dto.Response{data=billing.SubscriptionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	var req billingapp.CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// Reactivate godoc
// @Summary      Reactivate a pending cancellation
// @Description  Withdraw an end-of-period cancellation before the period rolls over
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.SubscriptionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/reactivate [post]
func (h *SubscriptionHandler) Reactivate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	sub, err := h.subscriptionService.Reactivate(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// ChangePlan godoc
// @Summary      Change subscription plan
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body billing.ChangePlanRequest true "Plan change request"
// @Success      200 {object} dto.Response{data=billing.SubscriptionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/change-plan [post]
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	var req billingapp.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.ChangePlan(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// Suspend godoc
// @Summary      Suspend a subscription
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body billing.SuspendSubscriptionRequest true "Suspension reason"
// @Success      200 {object} dto.Response{data=billing.SubscriptionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/suspend [post]
func (h *SubscriptionHandler) Suspend(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	var req billingapp.SuspendSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.Suspend(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// Resume godoc
// @Summary      Resume a suspended subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.SubscriptionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/resume [post]
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	sub, err := h.subscriptionService.Resume(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sub)
}

// TrackUsage godoc
// @Summary      Report metered feature usage
// @Description  Atomically increment a usage counter; increments past the plan limit are rejected whole
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body billing.TrackUsageRequest true "Usage increment"
// @Success      200 {object} dto.Response{data=billing.TrackResult}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/usage [post]
func (h *SubscriptionHandler) TrackUsage(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	var req billingapp.TrackUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.subscriptionService.TrackUsage(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetUsage godoc
// @Summary      Current period usage
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]billing.UsageRecordResponse}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/usage [get]
func (h *SubscriptionHandler) GetUsage(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	usage, err := h.subscriptionService.GetUsage(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, usage)
}

// ListPayments godoc
// @Summary      Subscription payment history
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]billing.PaymentResponse}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/payments [get]
func (h *SubscriptionHandler) ListPayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	payments, err := h.subscriptionService.ListPayments(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payments)
}

// ListInvoices godoc
// @Summary      Subscription invoices
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]billing.InvoiceResponse}
// @Security     BearerAuth
// @Router       /subscriptions/{id}/invoices [get]
func (h *SubscriptionHandler) ListInvoices(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subscription ID format")
		return
	}

	invoices, err := h.subscriptionService.ListInvoices(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}

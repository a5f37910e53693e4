package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reviewapp "github.com/markethub/backend/internal/application/review"
	"github.com/markethub/backend/internal/interfaces/http/middleware"
)

// ReviewHandler handles product review API endpoints
type ReviewHandler struct {
	BaseHandler
	reviewService *reviewapp.ReviewService
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService *reviewapp.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// getCustomerID resolves the acting customer profile from the JWT claims
func (h *ReviewHandler) getCustomerID(c *gin.Context) (uuid.UUID, bool) {
	customerIDStr := middleware.GetJWTCustomerID(c)
	if customerIDStr == "" {
		h.Forbidden(c, "A customer profile is required for this action")
		return uuid.Nil, false
	}
	customerID, err := uuid.Parse(customerIDStr)
	if err != nil {
		h.BadRequest(c, "Invalid customer profile in token")
		return uuid.Nil, false
	}
	return customerID, true
}

// Submit godoc
// @Summary      Submit a review
// @Description  One review per customer and product; verified purchase is resolved from order history
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        request body review.SubmitReviewRequest true "Review content"
// @Success      201 {object} dto.Response{data=review.ReviewResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	customerID, ok := h.getCustomerID(c)
	if !ok {
		return
	}

	var req reviewapp.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), tenantID, customerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, review)
}

// GetByID godoc
// @Summary      Get review by ID
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Success      200 {object} dto.Response{data=review.ReviewResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id} [get]
func (h *ReviewHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review ID format")
		return
	}

	review, err := h.reviewService.GetByID(c.Request.Context(), tenantID, reviewID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, review)
}

// UpdateContent godoc
// @Summary      Amend own review
// @Description  The amended review goes back through moderation
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Param        request body review.UpdateReviewRequest true "Updated content"
// @Success      200 {object} dto.Response{data=review.ReviewResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id} [put]
func (h *ReviewHandler) UpdateContent(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	customerID, ok := h.getCustomerID(c)
	if !ok {
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review ID format")
		return
	}

	var req reviewapp.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.UpdateContent(c.Request.Context(), tenantID, customerID, reviewID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, review)
}

// Approve godoc
// @Summary      Approve a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Param        request body review.ApproveReviewRequest false "Moderation notes"
// @Success      200 {object} dto.Response{data=review.ReviewResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id}/approve [post]
func (h *ReviewHandler) Approve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	moderatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review ID format")
		return
	}

	var req reviewapp.ApproveReviewRequest
	_ = c.ShouldBindJSON(&req)

	review, err := h.reviewService.Approve(c.Request.Context(), tenantID, reviewID, moderatorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, review)
}

// Reject godoc
// @Summary      Reject a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Param        request body review.RejectReviewRequest true "Moderation notes"
// @Success      200 {object} dto.Response{data=review.ReviewResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id}/reject [post]
func (h *ReviewHandler) Reject(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	moderatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review ID format")
		return
	}

	var req reviewapp.RejectReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.Reject(c.Request.Context(), tenantID, reviewID, moderatorID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, review)
}

// Flag godoc
// @Summary      Flag a published review
// @Description  Pull a published review back into the moderation queue
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Success      200 {object} dto.Response{data=review.ReviewResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id}/flag [post]
func (h *ReviewHandler) Flag(c *gin.Context) {
	h.lifecycle(c, h.reviewService.Flag)
}

// MarkHelpful godoc
// @Summary      Mark a review helpful
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Success      200 {object} dto.Response{data=review.ReviewResponse}
// @Security     BearerAuth
// @Router       /reviews/{id}/helpful [post]
func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	h.lifecycle(c, h.reviewService.MarkHelpful)
}

// Report godoc
// @Summary      Report a review
// @Description  Reports accumulate; past the threshold the review is auto-flagged
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Success      200 {object} dto.Response{data=review.ReviewResponse}
// @Security     BearerAuth
// @Router       /reviews/{id}/report [post]
func (h *ReviewHandler) Report(c *gin.Context) {
	h.lifecycle(c, h.reviewService.Report)
}

func (h *ReviewHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, tenantID, reviewID uuid.UUID) (*reviewapp.ReviewResponse, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review ID format")
		return
	}

	review, err := fn(c.Request.Context(), tenantID, reviewID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, review)
}

// Delete godoc
// @Summary      Delete a review
// @Description  Removes the review and retracts its rating contribution
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Success      204 "No Content"
// @Security     BearerAuth
// @Router       /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review ID format")
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), tenantID, reviewID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ListByProduct godoc
// @Summary      List published reviews for a product
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        rating query int false "Filter by star rating"
// @Param        verified_only query bool false "Verified purchases only"
// @Success      200 {object} dto.Response{data=[]review.ReviewResponse}
// @Router       /products/{id}/reviews [get]
func (h *ReviewHandler) ListByProduct(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var filter reviewapp.ReviewListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reviews, total, err := h.reviewService.ListPublishedByProduct(c.Request.Context(), tenantID, productID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, reviews, total, filter.Page, filter.PageSize)
}

// ListByCustomer godoc
// @Summary      List a customer's reviews
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]review.ReviewResponse}
// @Security     BearerAuth
// @Router       /customers/{id}/reviews [get]
func (h *ReviewHandler) ListByCustomer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var filter reviewapp.ReviewListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reviews, total, err := h.reviewService.ListByCustomer(c.Request.Context(), tenantID, customerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, reviews, total, filter.Page, filter.PageSize)
}

// ListByVendor godoc
// @Summary      List reviews across a vendor's products
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]review.ReviewResponse}
// @Security     BearerAuth
// @Router       /vendors/{id}/reviews [get]
func (h *ReviewHandler) ListByVendor(c *gin.Context) {
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

	var filter reviewapp.ReviewListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reviews, total, err := h.reviewService.ListByVendor(c.Request.Context(), tenantID, vendorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, reviews, total, filter.Page, filter.PageSize)
}

// ListAwaitingModeration godoc
// @Summary      Moderation queue
// @Tags         reviews
// @Produce      json
// @Success      200 {object} dto.Response{data=[]review.ReviewResponse}
// @Security     BearerAuth
// @Router       /reviews/moderation-queue [get]
func (h *ReviewHandler) ListAwaitingModeration(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter reviewapp.ReviewListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reviews, total, err := h.reviewService.ListAwaitingModeration(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, reviews, total, filter.Page, filter.PageSize)
}

// RatingSummary godoc
// @Summary      Product rating summary
// @Description  Average rating and star distribution over published reviews
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=review.RatingSummaryResponse}
// @Router       /products/{id}/rating [get]
func (h *ReviewHandler) RatingSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	summary, err := h.reviewService.RatingSummary(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// ModerationOverview godoc
// @Summary      Moderation workload overview
// @Tags         reviews
// @Produce      json
// @Success      200 {object} dto.Response{data=review.ModerationOverviewResponse}
// @Security     BearerAuth
// @Router       /reviews/moderation-overview [get]
func (h *ReviewHandler) ModerationOverview(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	overview, err := h.reviewService.ModerationOverview(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, overview)
}

package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/review"
)

// ==================== Request DTOs ====================

// SubmitReviewRequest represents a customer submitting a product review.
// OrderID is optional; when present the order must belong to the customer
// and contain the product.
type SubmitReviewRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	OrderID   *uuid.UUID `json:"order_id"`
	Rating    int        `json:"rating" binding:"required,min=1,max=5"`
	Title     string     `json:"title" binding:"required,max=200"`
	Comment   string     `json:"comment" binding:"max=2000"`
}

// UpdateReviewRequest represents a customer amending their own review.
// Amended reviews go back through moderation.
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"required,max=200"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ApproveReviewRequest represents a moderator publishing a review
type ApproveReviewRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// RejectReviewRequest represents a moderator turning a review down
type RejectReviewRequest struct {
	Notes string `json:"notes" binding:"required,max=500"`
}

// ReviewListFilter represents filtering options for review lists
type ReviewListFilter struct {
	Page         int    `form:"page" binding:"min=0"`
	PageSize     int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy      string `form:"order_by" binding:"omitempty,oneof=created_at rating helpful_count"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Rating       int    `form:"rating" binding:"omitempty,min=1,max=5"`
	VerifiedOnly bool   `form:"verified_only"`
}

// ==================== Response DTOs ====================

// ReviewResponse represents review data returned to clients
type ReviewResponse struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	ProductID        uuid.UUID  `json:"product_id"`
	VendorID         uuid.UUID  `json:"vendor_id"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	OrderID          *uuid.UUID `json:"order_id,omitempty"`
	Rating           int        `json:"rating"`
	Title            string     `json:"title"`
	Comment          string     `json:"comment"`
	Status           string     `json:"status"`
	VerifiedPurchase bool       `json:"verified_purchase"`
	HelpfulCount     int        `json:"helpful_count"`
	ReportedCount    int        `json:"reported_count"`
	ModeratedBy      *uuid.UUID `json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time `json:"moderated_at,omitempty"`
	ModerationNotes  string     `json:"moderation_notes,omitempty"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// RatingSummaryResponse represents the aggregated rating of one product.
// Breakdown always carries all five star values, zero-filled.
type RatingSummaryResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	RatingAverage decimal.Decimal `json:"rating_average"`
	RatingCount   int             `json:"rating_count"`
	Breakdown     map[int]int64   `json:"breakdown"`
}

// ModerationOverviewResponse represents the state of the moderation queue
type ModerationOverviewResponse struct {
	PendingCount     int64 `json:"pending_count"`
	FlaggedCount     int64 `json:"flagged_count"`
	ApprovedLastWeek int64 `json:"approved_last_week"`
	RejectedLastWeek int64 `json:"rejected_last_week"`
}

// ==================== Converters ====================

// ToReviewResponse converts a review to a response DTO
func ToReviewResponse(r *review.ProductReview) ReviewResponse {
	return ReviewResponse{
		ID:               r.ID,
		TenantID:         r.TenantID,
		ProductID:        r.ProductID,
		VendorID:         r.VendorID,
		CustomerID:       r.CustomerID,
		OrderID:          r.OrderID,
		Rating:           r.Rating,
		Title:            r.Title,
		Comment:          r.Comment,
		Status:           string(r.Status),
		VerifiedPurchase: r.VerifiedPurchase,
		HelpfulCount:     r.HelpfulCount,
		ReportedCount:    r.ReportedCount,
		ModeratedBy:      r.ModeratedBy,
		ModeratedAt:      r.ModeratedAt,
		ModerationNotes:  r.ModerationNotes,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ToReviewResponses converts a slice of reviews to response DTOs
func ToReviewResponses(reviews []*review.ProductReview) []ReviewResponse {
	responses := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		responses[i] = ToReviewResponse(r)
	}
	return responses
}

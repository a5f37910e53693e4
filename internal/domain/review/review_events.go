package review

import (
	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// AggregateTypeProductReview identifies the review aggregate in events
const AggregateTypeProductReview = "ProductReview"

// Event type constants
const (
	EventTypeReviewSubmitted = "ReviewSubmitted"
	EventTypeReviewApproved  = "ReviewApproved"
	EventTypeReviewRejected  = "ReviewRejected"
	EventTypeReviewFlagged   = "ReviewFlagged"
)

// ReviewSubmittedEvent is raised when a customer submits a review
type ReviewSubmittedEvent struct {
	shared.BaseDomainEvent
	ReviewID         uuid.UUID `json:"review_id"`
	ProductID        uuid.UUID `json:"product_id"`
	VendorID         uuid.UUID `json:"vendor_id"`
	CustomerID       uuid.UUID `json:"customer_id"`
	Rating           int       `json:"rating"`
	VerifiedPurchase bool      `json:"verified_purchase"`
}

// NewReviewSubmittedEvent creates a new ReviewSubmittedEvent
func NewReviewSubmittedEvent(review *ProductReview) *ReviewSubmittedEvent {
	return &ReviewSubmittedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeReviewSubmitted, AggregateTypeProductReview, review.ID, review.TenantID),
		ReviewID:         review.ID,
		ProductID:        review.ProductID,
		VendorID:         review.VendorID,
		CustomerID:       review.CustomerID,
		Rating:           review.Rating,
		VerifiedPurchase: review.VerifiedPurchase,
	}
}

// EventType returns the event type name
func (e *ReviewSubmittedEvent) EventType() string {
	return EventTypeReviewSubmitted
}

// ReviewApprovedEvent is raised when moderation publishes a review
type ReviewApprovedEvent struct {
	shared.BaseDomainEvent
	ReviewID  uuid.UUID `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Rating    int       `json:"rating"`
}

// NewReviewApprovedEvent creates a new ReviewApprovedEvent
func NewReviewApprovedEvent(review *ProductReview) *ReviewApprovedEvent {
	return &ReviewApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReviewApproved, AggregateTypeProductReview, review.ID, review.TenantID),
		ReviewID:        review.ID,
		ProductID:       review.ProductID,
		VendorID:        review.VendorID,
		Rating:          review.Rating,
	}
}

// EventType returns the event type name
func (e *ReviewApprovedEvent) EventType() string {
	return EventTypeReviewApproved
}

// ReviewRejectedEvent is raised when moderation turns a review down
type ReviewRejectedEvent struct {
	shared.BaseDomainEvent
	ReviewID  uuid.UUID `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	Notes     string    `json:"notes"`
}

// NewReviewRejectedEvent creates a new ReviewRejectedEvent
func NewReviewRejectedEvent(review *ProductReview) *ReviewRejectedEvent {
	return &ReviewRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReviewRejected, AggregateTypeProductReview, review.ID, review.TenantID),
		ReviewID:        review.ID,
		ProductID:       review.ProductID,
		Notes:           review.ModerationNotes,
	}
}

// EventType returns the event type name
func (e *ReviewRejectedEvent) EventType() string {
	return EventTypeReviewRejected
}

// ReviewFlaggedEvent is raised when reports pull a review back into the queue
type ReviewFlaggedEvent struct {
	shared.BaseDomainEvent
	ReviewID      uuid.UUID `json:"review_id"`
	ProductID     uuid.UUID `json:"product_id"`
	ReportedCount int       `json:"reported_count"`
}

// NewReviewFlaggedEvent creates a new ReviewFlaggedEvent
func NewReviewFlaggedEvent(review *ProductReview) *ReviewFlaggedEvent {
	return &ReviewFlaggedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReviewFlagged, AggregateTypeProductReview, review.ID, review.TenantID),
		ReviewID:        review.ID,
		ProductID:       review.ProductID,
		ReportedCount:   review.ReportedCount,
	}
}

// EventType returns the event type name
func (e *ReviewFlaggedEvent) EventType() string {
	return EventTypeReviewFlagged
}

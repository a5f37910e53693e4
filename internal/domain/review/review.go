package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// ReviewStatus represents the moderation state of a review
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "PENDING"
	ReviewStatusApproved ReviewStatus = "APPROVED"
	ReviewStatusRejected ReviewStatus = "REJECTED"
	ReviewStatusFlagged  ReviewStatus = "FLAGGED" // Pulled back for re-moderation after reports
)

// AllReviewStatuses lists every review status
var AllReviewStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusApproved,
	ReviewStatusRejected,
	ReviewStatusFlagged,
}

// String returns the string representation
func (s ReviewStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected, ReviewStatusFlagged:
		return true
	}
	return false
}

// CanTransitionTo returns true if the transition is allowed.
// PENDING comes back into play when a customer edits their review, which
// re-queues it for moderation. REJECTED is terminal.
func (s ReviewStatus) CanTransitionTo(target ReviewStatus) bool {
	switch s {
	case ReviewStatusPending:
		return target == ReviewStatusApproved || target == ReviewStatusRejected
	case ReviewStatusApproved:
		return target == ReviewStatusFlagged || target == ReviewStatusRejected || target == ReviewStatusPending
	case ReviewStatusFlagged:
		return target == ReviewStatusApproved || target == ReviewStatusRejected || target == ReviewStatusPending
	case ReviewStatusRejected:
		return false
	}
	return false
}

const (
	// MaxTitleLength bounds the review headline
	MaxTitleLength = 200
	// MaxCommentLength bounds the review body
	MaxCommentLength = 2000
	// ReportAutoFlagThreshold is how many reports pull an approved review
	// back into the moderation queue
	ReportAutoFlagThreshold = 3
)

// ProductReview is a customer's rating of a product they bought. Reviews
// go through moderation before they are published; the product's and
// vendor's denormalized rating aggregates move only on approval. At most
// one review exists per (customer, product, order).
type ProductReview struct {
	shared.TenantAggregateRoot
	ProductID        uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_review_cust_prod_order,priority:3;index"`
	VendorID         uuid.UUID    `gorm:"type:uuid;not null;index"`
	CustomerID       uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_review_cust_prod_order,priority:2;index"`
	OrderID          *uuid.UUID   `gorm:"type:uuid;uniqueIndex:idx_review_cust_prod_order,priority:4"`
	Rating           int          `gorm:"not null"`
	Title            string       `gorm:"type:varchar(200);not null"`
	Comment          string       `gorm:"type:varchar(2000)"`
	Status           ReviewStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	VerifiedPurchase bool         `gorm:"not null;default:false"`
	HelpfulCount     int          `gorm:"not null;default:0"`
	ReportedCount    int          `gorm:"not null;default:0"`
	ModeratedBy      *uuid.UUID   `gorm:"type:uuid"`
	ModeratedAt      *time.Time
	ModerationNotes  string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ProductReview) TableName() string {
	return "product_reviews"
}

// NewProductReview submits a review for moderation. The verified purchase
// flag is decided by the caller, which checks that the linked order is
// DELIVERED and actually contains the product.
func NewProductReview(tenantID, productID, vendorID, customerID uuid.UUID, orderID *uuid.UUID,
	rating int, title, comment string, verifiedPurchase bool, now time.Time) (*ProductReview, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Product is required")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Vendor is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer is required")
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if err := validateContent(title, comment); err != nil {
		return nil, err
	}

	review := &ProductReview{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		VendorID:            vendorID,
		CustomerID:          customerID,
		OrderID:             orderID,
		Rating:              rating,
		Title:               title,
		Comment:             comment,
		Status:              ReviewStatusPending,
		VerifiedPurchase:    verifiedPurchase,
	}
	review.CreatedAt = now
	review.UpdatedAt = now

	review.AddDomainEvent(NewReviewSubmittedEvent(review))
	return review, nil
}

// transitionTo moves the review through the moderation machine
func (r *ProductReview) transitionTo(target ReviewStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("Invalid review status: %s", target)
	}
	if !r.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError("Review", r.Status.String(), target.String())
	}
	r.Status = target
	return nil
}

// Approve publishes the review. The caller folds the score into the
// product's and vendor's rating aggregates in the same transaction.
func (r *ProductReview) Approve(moderatorID uuid.UUID, notes string, now time.Time) error {
	if moderatorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Moderator is required")
	}
	if err := r.transitionTo(ReviewStatusApproved); err != nil {
		return err
	}

	r.ModeratedBy = &moderatorID
	r.ModeratedAt = &now
	r.ModerationNotes = notes
	r.Touch(now)

	r.AddDomainEvent(NewReviewApprovedEvent(r))
	return nil
}

// Reject turns the review down. Works from PENDING and FLAGGED, and also
// retracts an already approved review; the caller reverses the rating
// aggregates when retracting.
func (r *ProductReview) Reject(moderatorID uuid.UUID, notes string, now time.Time) error {
	if moderatorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Moderator is required")
	}
	if notes == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Rejection notes are required")
	}
	if err := r.transitionTo(ReviewStatusRejected); err != nil {
		return err
	}

	r.ModeratedBy = &moderatorID
	r.ModeratedAt = &now
	r.ModerationNotes = notes
	r.Touch(now)

	r.AddDomainEvent(NewReviewRejectedEvent(r))
	return nil
}

// Flag pulls an approved review back into the moderation queue
func (r *ProductReview) Flag(now time.Time) error {
	if err := r.transitionTo(ReviewStatusFlagged); err != nil {
		return err
	}
	r.Touch(now)

	r.AddDomainEvent(NewReviewFlaggedEvent(r))
	return nil
}

// UpdateContent lets the customer amend their review. Any amendment goes
// back through moderation, so the status returns to PENDING and the
// previous moderation verdict is cleared.
func (r *ProductReview) UpdateContent(rating int, title, comment string, now time.Time) error {
	if r.Status == ReviewStatusRejected {
		return shared.NewDomainError("INVALID_STATE", "Rejected reviews cannot be amended")
	}
	if err := validateRating(rating); err != nil {
		return err
	}
	if err := validateContent(title, comment); err != nil {
		return err
	}
	if r.Status != ReviewStatusPending {
		if err := r.transitionTo(ReviewStatusPending); err != nil {
			return err
		}
	}

	r.Rating = rating
	r.Title = title
	r.Comment = comment
	r.ModeratedBy = nil
	r.ModeratedAt = nil
	r.ModerationNotes = ""
	r.Touch(now)
	return nil
}

// MarkHelpful counts one more reader who found the review useful
func (r *ProductReview) MarkHelpful(now time.Time) error {
	if r.Status != ReviewStatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only published reviews can be voted on")
	}

	r.HelpfulCount++
	r.Touch(now)
	return nil
}

// Report counts one more abuse report. Enough reports on a published
// review pull it back into the moderation queue automatically.
func (r *ProductReview) Report(now time.Time) error {
	if r.Status == ReviewStatusRejected {
		return shared.NewDomainError("INVALID_STATE", "Rejected reviews cannot be reported")
	}

	r.ReportedCount++
	r.Touch(now)

	if r.Status == ReviewStatusApproved && r.ReportedCount >= ReportAutoFlagThreshold {
		return r.Flag(now)
	}
	return nil
}

// IsPublished returns true if the review is visible to shoppers
func (r *ProductReview) IsPublished() bool {
	return r.Status == ReviewStatusApproved
}

// AwaitingModeration returns true while the review sits in the queue
func (r *ProductReview) AwaitingModeration() bool {
	return r.Status == ReviewStatusPending || r.Status == ReviewStatusFlagged
}

// Validation functions

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("VALIDATION_ERROR", "Rating must be between 1 and 5")
	}
	return nil
}

func validateContent(title, comment string) error {
	if title == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Review title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return shared.NewValidationError("Review title cannot exceed %d characters", MaxTitleLength)
	}
	if len(comment) > MaxCommentLength {
		return shared.NewValidationError("Review comment cannot exceed %d characters", MaxCommentLength)
	}
	return nil
}

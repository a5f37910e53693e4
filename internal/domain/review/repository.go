package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// RatingBreakdown is the count of published reviews per star value
type RatingBreakdown map[int]int64

// ProductReviewRepository persists ProductReview aggregates
type ProductReviewRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductReview, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductReview, error)
	// FindPublishedByProduct returns APPROVED reviews for a product page
	FindPublishedByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]*ProductReview, int64, error)
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]*ProductReview, int64, error)
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]*ProductReview, int64, error)
	// FindAwaitingModeration returns PENDING and FLAGGED reviews, oldest first
	FindAwaitingModeration(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*ProductReview, int64, error)
	// ExistsFor reports whether the customer already reviewed the product
	// for the given order. A nil orderID matches reviews without an order.
	ExistsFor(ctx context.Context, tenantID, customerID, productID uuid.UUID, orderID *uuid.UUID) (bool, error)
	RatingBreakdownForProduct(ctx context.Context, tenantID, productID uuid.UUID) (RatingBreakdown, error)
	CountSince(ctx context.Context, tenantID uuid.UUID, status ReviewStatus, since time.Time) (int64, error)
	Save(ctx context.Context, review *ProductReview) error
	SaveWithLock(ctx context.Context, review *ProductReview) error
	SaveWithLockAndEvents(ctx context.Context, review *ProductReview, events []shared.DomainEvent) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

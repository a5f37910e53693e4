package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/review"
	"github.com/markethub/backend/internal/domain/shared"
)

// ReviewService handles product review business operations: submission,
// moderation, voting and the rating aggregates derived from published
// reviews.
//
// A review's score is counted in the product's and vendor's rating
// aggregates exactly while the review is APPROVED. Every transition into
// or out of APPROVED adjusts both aggregates in the same transaction that
// persists the review, so the denormalized averages never drift from the
// published set.
type ReviewService struct {
	reviewRepo     review.ProductReviewRepository
	productRepo    catalog.ProductRepository
	vendorRepo     partner.VendorRepository
	customerRepo   partner.CustomerRepository
	orderRepo      ordering.OrderRepository
	txManager      shared.TransactionManager
	clock          shared.Clock
	eventPublisher shared.EventPublisher
}

// NewReviewService creates a new review service
func NewReviewService(
	reviewRepo review.ProductReviewRepository,
	productRepo catalog.ProductRepository,
	vendorRepo partner.VendorRepository,
	customerRepo partner.CustomerRepository,
	orderRepo ordering.OrderRepository,
	txManager shared.TransactionManager,
	clock shared.Clock,
) *ReviewService {
	return &ReviewService{
		reviewRepo:   reviewRepo,
		productRepo:  productRepo,
		vendorRepo:   vendorRepo,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		txManager:    txManager,
		clock:        clock,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ReviewService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Submit creates a review in the moderation queue. The customer must be
// active and must not have reviewed the product for the same order before.
// When the request names an order, that order has to belong to the customer
// and contain the product, and the verified purchase badge follows its
// delivery state. Without an order reference the badge is granted when any
// delivered order of the customer contains the product.
func (s *ReviewService) Submit(ctx context.Context, tenantID, customerID uuid.UUID, req SubmitReviewRequest) (*ReviewResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, req.ProductID)
	if err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Customer %s cannot submit reviews", customer.Name))
	}

	exists, err := s.reviewRepo.ExistsFor(ctx, tenantID, customerID, req.ProductID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Customer has already reviewed product %s", product.SKU))
	}

	verifiedPurchase, err := s.resolveVerifiedPurchase(ctx, tenantID, customerID, req.ProductID, req.OrderID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rev, err := review.NewProductReview(tenantID, req.ProductID, product.VendorID, customerID,
		req.OrderID, req.Rating, req.Title, req.Comment, verifiedPurchase, now)
	if err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Save(ctx, rev); err != nil {
		return nil, err
	}

	// Events are delivered in-process after the save; a delivery failure
	// does not fail the submission.
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, rev.GetDomainEvents()...)
	}
	rev.ClearDomainEvents()

	response := ToReviewResponse(rev)
	return &response, nil
}

func (s *ReviewService) resolveVerifiedPurchase(ctx context.Context, tenantID, customerID, productID uuid.UUID, orderID *uuid.UUID) (bool, error) {
	if orderID == nil {
		delivered, err := s.orderRepo.FindDeliveredContainingProduct(ctx, tenantID, customerID, productID)
		if err != nil {
			return false, err
		}
		return len(delivered) > 0, nil
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, *orderID)
	if err != nil {
		return false, err
	}
	if order.CustomerID != customerID {
		return false, shared.NewDomainError("FORBIDDEN",
			fmt.Sprintf("Order %s belongs to another customer", order.OrderNumber))
	}
	if !order.ContainsProduct(productID) {
		return false, shared.NewValidationError("Order %s does not contain product %s", order.OrderNumber, productID)
	}
	return order.IsDelivered(), nil
}

// GetByID retrieves a review by ID
func (s *ReviewService) GetByID(ctx context.Context, tenantID, reviewID uuid.UUID) (*ReviewResponse, error) {
	rev, err := s.reviewRepo.FindByIDForTenant(ctx, tenantID, reviewID)
	if err != nil {
		return nil, err
	}
	response := ToReviewResponse(rev)
	return &response, nil
}

// UpdateContent lets a customer amend their own review. The amended review
// returns to the moderation queue; if it was published, its old score is
// retracted from the rating aggregates.
func (s *ReviewService) UpdateContent(ctx context.Context, tenantID, customerID, reviewID uuid.UUID, req UpdateReviewRequest) (*ReviewResponse, error) {
	rev, err := s.reviewRepo.FindByIDForTenant(ctx, tenantID, reviewID)
	if err != nil {
		return nil, err
	}
	if rev.CustomerID != customerID {
		return nil, shared.NewDomainError("FORBIDDEN", "Review belongs to another customer")
	}

	now := s.clock.Now()
	wasPublished := rev.IsPublished()
	previousRating := rev.Rating

	if err := rev.UpdateContent(req.Rating, req.Title, req.Comment, now); err != nil {
		return nil, err
	}

	if wasPublished {
		if err := s.saveMutationRetracting(ctx, rev, previousRating, now); err != nil {
			return nil, err
		}
	} else if err := s.saveMutation(ctx, rev); err != nil {
		return nil, err
	}

	response := ToReviewResponse(rev)
	return &response, nil
}

// Approve publishes a review and folds its score into the product's and
// vendor's rating aggregates
func (s *ReviewService) Approve(ctx context.Context, tenantID, reviewID, moderatorID uuid.UUID, req ApproveReviewRequest) (*ReviewResponse, error) {
	rev, err := s.reviewRepo.FindByIDForTenant(ctx, tenantID, reviewID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := rev.Approve(moderatorID, req.Notes, now); err != nil {
		return nil, err
	}

	events := rev.GetDomainEvents()
	rev.ClearDomainEvents()
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.recordRating(txCtx, rev, now); err != nil {
			return err
		}
		return s.reviewRepo.SaveWithLockAndEvents(txCtx, rev, events)
	})
	if err != nil {
		return nil, err
	}

	response := ToReviewResponse(rev)
	return &response, nil
}

// Reject turns a review down. Rejecting an already published review
// retracts its score from the rating aggregates.
func (s *ReviewService) Reject(ctx context.Context, tenantID, reviewID, moderatorID uuid.UUID, req RejectReviewRequest) (*ReviewResponse, error) {
	rev, err := s.reviewRepo.FindByIDForTenant(ctx, tenantID, reviewID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	wasPublished := rev.IsPublished()

	if err := rev.Reject(moderatorID, req.Notes, now); err != nil {
		return nil, err
	}

	if wasPublished {
		if err := s.saveMutationRetracting(ctx, rev, rev.Rating, now); err != nil {
			return nil, err
		}
	} else if err := s.saveMutation(ctx, rev); err != nil {
		return nil, err
	}

	response := ToReviewResponse(rev)
	return &response, nil
}

// Flag pulls a published review back into the moderation queue and
// retracts its score until a moderator decides again
func (s *ReviewService) Flag(ctx context.Context, tenantID, reviewID uuid.UUID) (*ReviewResponse, error) {
	rev, err := s.reviewRepo.FindByIDForTenant(ctx, tenantID, reviewID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := rev.Flag(now); err != nil {
		return nil, err
	}

	if err := s.saveMutationRetracting(ctx, rev, rev.Rating, now); err != nil {
		return nil, err
	}

	response := ToReviewResponse(rev)
	return &response, nil
}

// MarkHelpful counts one more reader who found the review useful
func (s *ReviewService) MarkHelpful(ctx context.Context, tenantID, reviewID uuid.UUID) (*ReviewResponse, error) {
	rev, err := s.reviewRepo.FindByIDForTenant(ctx, tenantID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := rev.MarkHelpful(s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.saveMutation(ctx, rev); err != nil {
		return nil, err
	}

	response := ToReviewResponse(rev)
	return &response, nil
}

// Report counts one more abuse report against a review. When enough
// reports accumulate on a published review it is flagged automatically,
// which also retracts its score from the rating aggregates.
func (s *ReviewService) Report(ctx context.Context, tenantID, reviewID uuid.UUID) (*ReviewResponse, error) {
	rev, err := s.reviewRepo.FindByIDForTenant(ctx, tenantID, reviewID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	wasPublished := rev.IsPublished()

	if err := rev.Report(now); err != nil {
		return nil, err
	}

	if wasPublished && !rev.IsPublished() {
		if err := s.saveMutationRetracting(ctx, rev, rev.Rating, now); err != nil {
			return nil, err
		}
	} else if err := s.saveMutation(ctx, rev); err != nil {
		return nil, err
	}

	response := ToReviewResponse(rev)
	return &response, nil
}

// Delete removes a review entirely. Deleting a published review retracts
// its score from the rating aggregates.
func (s *ReviewService) Delete(ctx context.Context, tenantID, reviewID uuid.UUID) error {
	rev, err := s.reviewRepo.FindByIDForTenant(ctx, tenantID, reviewID)
	if err != nil {
		return err
	}

	if !rev.IsPublished() {
		return s.reviewRepo.Delete(ctx, tenantID, reviewID)
	}

	now := s.clock.Now()
	return s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.retractRating(txCtx, rev, rev.Rating, now); err != nil {
			return err
		}
		return s.reviewRepo.Delete(txCtx, tenantID, reviewID)
	})
}

// ListPublishedByProduct retrieves the published reviews shown on a
// product page
func (s *ReviewService) ListPublishedByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter ReviewListFilter) ([]ReviewResponse, int64, error) {
	reviews, total, err := s.reviewRepo.FindPublishedByProduct(ctx, tenantID, productID, buildReviewFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToReviewResponses(reviews), total, nil
}

// ListByCustomer retrieves all reviews a customer has written
func (s *ReviewService) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter ReviewListFilter) ([]ReviewResponse, int64, error) {
	reviews, total, err := s.reviewRepo.FindByCustomer(ctx, tenantID, customerID, buildReviewFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToReviewResponses(reviews), total, nil
}

// ListByVendor retrieves all reviews across a vendor's listings
func (s *ReviewService) ListByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter ReviewListFilter) ([]ReviewResponse, int64, error) {
	reviews, total, err := s.reviewRepo.FindByVendor(ctx, tenantID, vendorID, buildReviewFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToReviewResponses(reviews), total, nil
}

// ListAwaitingModeration retrieves the moderation queue, oldest first
func (s *ReviewService) ListAwaitingModeration(ctx context.Context, tenantID uuid.UUID, filter ReviewListFilter) ([]ReviewResponse, int64, error) {
	reviews, total, err := s.reviewRepo.FindAwaitingModeration(ctx, tenantID, buildReviewFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToReviewResponses(reviews), total, nil
}

// RatingSummary returns a product's aggregated rating together with the
// per-star breakdown of its published reviews
func (s *ReviewService) RatingSummary(ctx context.Context, tenantID, productID uuid.UUID) (*RatingSummaryResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.reviewRepo.RatingBreakdownForProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	filled := make(map[int]int64, 5)
	for star := 1; star <= 5; star++ {
		filled[star] = breakdown[star]
	}

	return &RatingSummaryResponse{
		ProductID:     product.ID,
		RatingAverage: product.RatingAverage,
		RatingCount:   product.RatingCount,
		Breakdown:     filled,
	}, nil
}

// ModerationOverview returns queue depths and the past week's moderation
// throughput
func (s *ReviewService) ModerationOverview(ctx context.Context, tenantID uuid.UUID) (*ModerationOverviewResponse, error) {
	pending, err := s.reviewRepo.CountSince(ctx, tenantID, review.ReviewStatusPending, time.Time{})
	if err != nil {
		return nil, err
	}
	flagged, err := s.reviewRepo.CountSince(ctx, tenantID, review.ReviewStatusFlagged, time.Time{})
	if err != nil {
		return nil, err
	}

	weekAgo := s.clock.Now().AddDate(0, 0, -7)
	approved, err := s.reviewRepo.CountSince(ctx, tenantID, review.ReviewStatusApproved, weekAgo)
	if err != nil {
		return nil, err
	}
	rejected, err := s.reviewRepo.CountSince(ctx, tenantID, review.ReviewStatusRejected, weekAgo)
	if err != nil {
		return nil, err
	}

	return &ModerationOverviewResponse{
		PendingCount:     pending,
		FlaggedCount:     flagged,
		ApprovedLastWeek: approved,
		RejectedLastWeek: rejected,
	}, nil
}

// recordRating folds the review's score into the product's and vendor's
// aggregates. Runs inside the transaction that publishes the review.
func (s *ReviewService) recordRating(ctx context.Context, rev *review.ProductReview, now time.Time) error {
	product, err := s.productRepo.FindByIDForTenant(ctx, rev.TenantID, rev.ProductID)
	if err != nil {
		return err
	}
	if err := product.RecordRating(rev.Rating, now); err != nil {
		return err
	}
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return err
	}

	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, rev.TenantID, rev.VendorID)
	if err != nil {
		return err
	}
	if err := vendor.RecordRating(rev.Rating, now); err != nil {
		return err
	}
	return s.vendorRepo.SaveWithLock(ctx, vendor)
}

// retractRating reverses a previously folded score. The rating is passed
// explicitly because an amendment overwrites the review's score before the
// old one is reversed.
func (s *ReviewService) retractRating(ctx context.Context, rev *review.ProductReview, rating int, now time.Time) error {
	product, err := s.productRepo.FindByIDForTenant(ctx, rev.TenantID, rev.ProductID)
	if err != nil {
		return err
	}
	if err := product.RemoveRating(rating, now); err != nil {
		return err
	}
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return err
	}

	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, rev.TenantID, rev.VendorID)
	if err != nil {
		return err
	}
	if err := vendor.RemoveRating(rating, now); err != nil {
		return err
	}
	return s.vendorRepo.SaveWithLock(ctx, vendor)
}

// saveMutation persists a changed review with optimistic locking and hands
// its buffered events to the save so they are written with the aggregate
func (s *ReviewService) saveMutation(ctx context.Context, rev *review.ProductReview) error {
	events := rev.GetDomainEvents()
	rev.ClearDomainEvents()
	return s.reviewRepo.SaveWithLockAndEvents(ctx, rev, events)
}

// saveMutationRetracting persists a review leaving the published state and
// reverses its score in the same transaction
func (s *ReviewService) saveMutationRetracting(ctx context.Context, rev *review.ProductReview, rating int, now time.Time) error {
	events := rev.GetDomainEvents()
	rev.ClearDomainEvents()
	return s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.retractRating(txCtx, rev, rating, now); err != nil {
			return err
		}
		return s.reviewRepo.SaveWithLockAndEvents(txCtx, rev, events)
	})
}

func buildReviewFilter(filter ReviewListFilter) shared.Filter {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	result := shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Rating > 0 {
		result.Filters["rating"] = filter.Rating
	}
	if filter.VerifiedOnly {
		result.Filters["verified_purchase"] = true
	}
	return result
}

package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/review"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormProductReviewRepository implements review.ProductReviewRepository
// using GORM
type GormProductReviewRepository struct {
	db *gorm.DB
}

// NewGormProductReviewRepository creates a new GormProductReviewRepository
func NewGormProductReviewRepository(db *gorm.DB) *GormProductReviewRepository {
	return &GormProductReviewRepository{db: db}
}

// FindByID finds a review by ID
func (r *GormProductReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.ProductReview, error) {
	var rev review.ProductReview
	err := dbFor(ctx, r.db).Where("id = ?", id).First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

// FindByIDForTenant finds a review by ID scoped to a tenant
func (r *GormProductReviewRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*review.ProductReview, error) {
	var rev review.ProductReview
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

// FindPublishedByProduct finds approved reviews for a product page
func (r *GormProductReviewRepository) FindPublishedByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]*review.ProductReview, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&review.ProductReview{}).
		Where("tenant_id = ? AND product_id = ? AND status = ?",
			tenantID, productID, review.ReviewStatusApproved)
	return r.findPage(query, filter, "")
}

// FindByCustomer finds a customer's reviews in any moderation state
func (r *GormProductReviewRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]*review.ProductReview, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&review.ProductReview{}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID)
	return r.findPage(query, filter, "")
}

// FindByVendor finds reviews left on a vendor's listings
func (r *GormProductReviewRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]*review.ProductReview, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&review.ProductReview{}).
		Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID)
	return r.findPage(query, filter, "")
}

// FindAwaitingModeration finds reviews waiting for a moderator, oldest first
// unless the filter asks for a different order
func (r *GormProductReviewRepository) FindAwaitingModeration(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*review.ProductReview, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&review.ProductReview{}).
		Where("tenant_id = ? AND status IN ?",
			tenantID, []review.ReviewStatus{review.ReviewStatusPending, review.ReviewStatusFlagged})
	return r.findPage(query, filter, "created_at ASC")
}

// ExistsFor checks whether the customer already reviewed the product for the
// given order. A nil orderID matches reviews submitted without an order.
func (r *GormProductReviewRepository) ExistsFor(ctx context.Context, tenantID, customerID, productID uuid.UUID, orderID *uuid.UUID) (bool, error) {
	query := dbFor(ctx, r.db).
		Model(&review.ProductReview{}).
		Where("tenant_id = ? AND customer_id = ? AND product_id = ?",
			tenantID, customerID, productID)
	if orderID != nil {
		query = query.Where("order_id = ?", *orderID)
	} else {
		query = query.Where("order_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// RatingBreakdownForProduct counts approved reviews per star value. Stars
// with no reviews are present with a zero count.
func (r *GormProductReviewRepository) RatingBreakdownForProduct(ctx context.Context, tenantID, productID uuid.UUID) (review.RatingBreakdown, error) {
	var rows []struct {
		Rating int
		Total  int64
	}
	err := dbFor(ctx, r.db).
		Model(&review.ProductReview{}).
		Select("rating, COUNT(*) AS total").
		Where("tenant_id = ? AND product_id = ? AND status = ?",
			tenantID, productID, review.ReviewStatusApproved).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	breakdown := review.RatingBreakdown{}
	for star := 1; star <= 5; star++ {
		breakdown[star] = 0
	}
	for _, row := range rows {
		breakdown[row.Rating] = row.Total
	}
	return breakdown, nil
}

// CountSince counts reviews in a status created at or after the given time
func (r *GormProductReviewRepository) CountSince(ctx context.Context, tenantID uuid.UUID, status review.ReviewStatus, since time.Time) (int64, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&review.ProductReview{}).
		Where("tenant_id = ? AND status = ? AND created_at >= ?", tenantID, status, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a review
func (r *GormProductReviewRepository) Save(ctx context.Context, rev *review.ProductReview) error {
	return dbFor(ctx, r.db).Save(rev).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormProductReviewRepository) SaveWithLock(ctx context.Context, rev *review.ProductReview) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		return r.saveWithLockTx(tx, rev)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and appends the given
// domain events to the outbox in the same transaction
func (r *GormProductReviewRepository) SaveWithLockAndEvents(ctx context.Context, rev *review.ProductReview, events []shared.DomainEvent) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.saveWithLockTx(tx, rev); err != nil {
			return err
		}
		return appendOutboxEntries(tx, rev.TenantID, events)
	})
}

func (r *GormProductReviewRepository) saveWithLockTx(tx *gorm.DB, rev *review.ProductReview) error {
	var currentVersion int
	if err := tx.Model(&review.ProductReview{}).
		Where("id = ?", rev.ID).
		Select("version").
		Scan(&currentVersion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}

	if currentVersion != rev.Version {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The review has been modified by another user")
	}

	rev.Version++
	rev.UpdatedAt = time.Now().UTC()

	result := tx.Model(&review.ProductReview{}).
		Where("id = ? AND version = ?", rev.ID, currentVersion).
		Updates(map[string]interface{}{
			"rating":            rev.Rating,
			"title":             rev.Title,
			"comment":           rev.Comment,
			"status":            rev.Status,
			"verified_purchase": rev.VerifiedPurchase,
			"helpful_count":     rev.HelpfulCount,
			"reported_count":    rev.ReportedCount,
			"moderated_by":      rev.ModeratedBy,
			"moderated_at":      rev.ModeratedAt,
			"moderation_notes":  rev.ModerationNotes,
			"version":           rev.Version,
			"updated_at":        rev.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The review has been modified by another user")
	}
	return nil
}

// Delete removes a review
func (r *GormProductReviewRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&review.ProductReview{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// findPage counts matching rows, then fetches one page. defaultOrder, when
// set, is used whenever the filter does not name a sort field.
func (r *GormProductReviewRepository) findPage(query *gorm.DB, filter shared.Filter, defaultOrder string) ([]*review.ProductReview, int64, error) {
	query = r.applyFilterWithoutPagination(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.OrderBy == "" && defaultOrder != "" {
		query = query.Order(defaultOrder)
	} else {
		sortField := ValidateSortField(filter.OrderBy, ReviewSortFields, "created_at")
		sortOrder := ValidateSortOrder(filter.OrderDir)
		query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var reviews []*review.ProductReview
	if err := query.Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProductReviewRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(comment) LIKE ?)",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "rating":
			query = query.Where("rating = ?", value)
		case "min_rating":
			query = query.Where("rating >= ?", value)
		case "verified_purchase":
			if v, ok := value.(bool); ok {
				query = query.Where("verified_purchase = ?", v)
			}
		}
	}

	return query
}

// Ensure GormProductReviewRepository implements ProductReviewRepository
var _ review.ProductReviewRepository = (*GormProductReviewRepository)(nil)

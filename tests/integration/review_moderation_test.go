package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/domain/review"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/persistence"
)

func submitTestReview(t *testing.T, repo *persistence.GormProductReviewRepository, tenantID, productID, vendorID, customerID uuid.UUID, orderID *uuid.UUID, rating int) *review.ProductReview {
	t.Helper()

	rev, err := review.NewProductReview(tenantID, productID, vendorID, customerID, orderID,
		rating, "Solid product", "Does exactly what it says on the tin.", orderID != nil, time.Now().UTC())
	require.NoError(t, err)
	rev.ClearDomainEvents()
	require.NoError(t, repo.Save(context.Background(), rev))
	return rev
}

func TestReviewModeration_ApproveFlow(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormProductReviewRepository(tdb.DB)

	tenantID := uuid.New()
	vendorID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()
	orderID := uuid.New()
	tdb.CreateTestTenant(tenantID.String(), "Review Tenant", "review")
	tdb.CreateTestVendor(tenantID, vendorID)
	tdb.CreateTestProduct(tenantID, vendorID, productID)

	rev := submitTestReview(t, repo, tenantID, productID, vendorID, customerID, &orderID, 5)

	queue, total, err := repo.FindAwaitingModeration(ctx, tenantID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, queue, 1)
	assert.Equal(t, review.ReviewStatusPending, queue[0].Status)

	// Pending reviews stay out of the public product page
	published, publishedTotal, err := repo.FindPublishedByProduct(ctx, tenantID, productID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(0), publishedTotal)
	assert.Empty(t, published)

	moderatorID := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, rev.Approve(moderatorID, "looks genuine", now))
	rev.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(ctx, rev))

	published, publishedTotal, err = repo.FindPublishedByProduct(ctx, tenantID, productID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), publishedTotal)
	require.Len(t, published, 1)
	assert.Equal(t, review.ReviewStatusApproved, published[0].Status)
	require.NotNil(t, published[0].ModeratedBy)
	assert.Equal(t, moderatorID, *published[0].ModeratedBy)

	breakdown, err := repo.RatingBreakdownForProduct(ctx, tenantID, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), breakdown[5])
}

func TestReviewModeration_DuplicateDetection(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormProductReviewRepository(tdb.DB)

	tenantID := uuid.New()
	vendorID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()
	orderID := uuid.New()
	tdb.CreateTestTenant(tenantID.String(), "Dup Review Tenant", "dup-review")
	tdb.CreateTestVendor(tenantID, vendorID)
	tdb.CreateTestProduct(tenantID, vendorID, productID)

	submitTestReview(t, repo, tenantID, productID, vendorID, customerID, &orderID, 4)

	exists, err := repo.ExistsFor(ctx, tenantID, customerID, productID, &orderID)
	require.NoError(t, err)
	assert.True(t, exists)

	// A different order by the same customer is a separate purchase and
	// may be reviewed on its own
	otherOrderID := uuid.New()
	exists, err = repo.ExistsFor(ctx, tenantID, customerID, productID, &otherOrderID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReviewModeration_FlagPullsBackFromPublished(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormProductReviewRepository(tdb.DB)

	tenantID := uuid.New()
	vendorID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()
	orderID := uuid.New()
	tdb.CreateTestTenant(tenantID.String(), "Flag Tenant", "flag")
	tdb.CreateTestVendor(tenantID, vendorID)
	tdb.CreateTestProduct(tenantID, vendorID, productID)

	rev := submitTestReview(t, repo, tenantID, productID, vendorID, customerID, &orderID, 2)

	now := time.Now().UTC()
	require.NoError(t, rev.Approve(uuid.New(), "", now))
	rev.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(ctx, rev))

	require.NoError(t, rev.Flag(now))
	rev.ClearDomainEvents()
	require.NoError(t, repo.SaveWithLock(ctx, rev))

	published, total, err := repo.FindPublishedByProduct(ctx, tenantID, productID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, published)

	queue, _, err := repo.FindAwaitingModeration(ctx, tenantID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, review.ReviewStatusFlagged, queue[0].Status)
}

package review

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewNow = time.Date(2025, 7, 10, 16, 0, 0, 0, time.UTC)

func createTestReview(t *testing.T) *ProductReview {
	t.Helper()
	orderID := uuid.New()
	review, err := NewProductReview(uuid.New(), uuid.New(), uuid.New(), uuid.New(), &orderID,
		4, "Solid pack for weekend trips", "Carried it for three months, zippers still fine.", true, reviewNow)
	require.NoError(t, err)
	review.ClearDomainEvents()
	return review
}

func approvedReview(t *testing.T) *ProductReview {
	t.Helper()
	review := createTestReview(t)
	require.NoError(t, review.Approve(uuid.New(), "", reviewNow))
	review.ClearDomainEvents()
	return review
}

// ============================================
// Status machine
// ============================================

func TestReviewStatus_IsValid(t *testing.T) {
	for _, s := range AllReviewStatuses {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}
	assert.False(t, ReviewStatus("PUBLISHED").IsValid())
	assert.False(t, ReviewStatus("").IsValid())
}

func TestReviewStatus_CanTransitionTo_Exhaustive(t *testing.T) {
	allowed := map[ReviewStatus][]ReviewStatus{
		ReviewStatusPending:  {ReviewStatusApproved, ReviewStatusRejected},
		ReviewStatusApproved: {ReviewStatusFlagged, ReviewStatusRejected, ReviewStatusPending},
		ReviewStatusFlagged:  {ReviewStatusApproved, ReviewStatusRejected, ReviewStatusPending},
		ReviewStatusRejected: {},
	}

	for _, from := range AllReviewStatuses {
		for _, to := range AllReviewStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				want := false
				for _, a := range allowed[from] {
					if a == to {
						want = true
					}
				}
				assert.Equal(t, want, from.CanTransitionTo(to))
			})
		}
	}
}

// ============================================
// Submission
// ============================================

func TestNewProductReview(t *testing.T) {
	t.Run("submits into the moderation queue", func(t *testing.T) {
		tenantID := uuid.New()
		productID := uuid.New()
		vendorID := uuid.New()
		customerID := uuid.New()
		orderID := uuid.New()

		review, err := NewProductReview(tenantID, productID, vendorID, customerID, &orderID,
			5, "Great", "Exactly as described.", true, reviewNow)

		require.NoError(t, err)
		assert.Equal(t, ReviewStatusPending, review.Status)
		assert.True(t, review.AwaitingModeration())
		assert.False(t, review.IsPublished())
		assert.Equal(t, productID, review.ProductID)
		assert.Equal(t, vendorID, review.VendorID)
		assert.Equal(t, customerID, review.CustomerID)
		require.NotNil(t, review.OrderID)
		assert.Equal(t, orderID, *review.OrderID)
		assert.True(t, review.VerifiedPurchase)
		assert.Equal(t, 1, review.Version)
	})

	t.Run("review without an order is never a verified purchase", func(t *testing.T) {
		review, err := NewProductReview(uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil,
			3, "Fine", "", false, reviewNow)

		require.NoError(t, err)
		assert.Nil(t, review.OrderID)
		assert.False(t, review.VerifiedPurchase)
	})

	t.Run("emits submitted event", func(t *testing.T) {
		review, err := NewProductReview(uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil,
			2, "Meh", "", false, reviewNow)
		require.NoError(t, err)

		events := review.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*ReviewSubmittedEvent)
		require.True(t, ok)
		assert.Equal(t, 2, event.Rating)
		assert.False(t, event.VerifiedPurchase)
	})

	t.Run("rating must be 1 to 5", func(t *testing.T) {
		for _, bad := range []int{0, 6, -1} {
			_, err := NewProductReview(uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil,
				bad, "Title", "", false, reviewNow)
			assert.Error(t, err, "rating %d should be rejected", bad)
		}
	})

	t.Run("title is required and bounded", func(t *testing.T) {
		_, err := NewProductReview(uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil,
			4, "", "body", false, reviewNow)
		assert.Error(t, err)

		_, err = NewProductReview(uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil,
			4, strings.Repeat("x", MaxTitleLength+1), "", false, reviewNow)
		assert.Error(t, err)
	})

	t.Run("comment bounded", func(t *testing.T) {
		_, err := NewProductReview(uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil,
			4, "Title", strings.Repeat("x", MaxCommentLength+1), false, reviewNow)
		assert.Error(t, err)
	})

	t.Run("nil references rejected", func(t *testing.T) {
		_, err := NewProductReview(uuid.New(), uuid.Nil, uuid.New(), uuid.New(), nil, 4, "T", "", false, reviewNow)
		assert.Error(t, err)
		_, err = NewProductReview(uuid.New(), uuid.New(), uuid.Nil, uuid.New(), nil, 4, "T", "", false, reviewNow)
		assert.Error(t, err)
		_, err = NewProductReview(uuid.New(), uuid.New(), uuid.New(), uuid.Nil, nil, 4, "T", "", false, reviewNow)
		assert.Error(t, err)
	})
}

// ============================================
// Moderation
// ============================================

func TestProductReview_Approve(t *testing.T) {
	t.Run("publishes and stamps the moderator", func(t *testing.T) {
		review := createTestReview(t)
		moderatorID := uuid.New()

		err := review.Approve(moderatorID, "looks genuine", reviewNow)

		require.NoError(t, err)
		assert.Equal(t, ReviewStatusApproved, review.Status)
		assert.True(t, review.IsPublished())
		require.NotNil(t, review.ModeratedBy)
		assert.Equal(t, moderatorID, *review.ModeratedBy)
		require.NotNil(t, review.ModeratedAt)
		assert.Equal(t, reviewNow, *review.ModeratedAt)
		assert.Equal(t, "looks genuine", review.ModerationNotes)

		events := review.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*ReviewApprovedEvent)
		require.True(t, ok)
		assert.Equal(t, 4, event.Rating)
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		review := approvedReview(t)
		err := review.Approve(uuid.New(), "", reviewNow)
		assert.Error(t, err)
	})

	t.Run("requires a moderator", func(t *testing.T) {
		review := createTestReview(t)
		err := review.Approve(uuid.Nil, "", reviewNow)
		assert.Error(t, err)
		assert.Equal(t, ReviewStatusPending, review.Status)
	})
}

func TestProductReview_Reject(t *testing.T) {
	t.Run("rejects with notes", func(t *testing.T) {
		review := createTestReview(t)

		err := review.Reject(uuid.New(), "spam link in comment", reviewNow)

		require.NoError(t, err)
		assert.Equal(t, ReviewStatusRejected, review.Status)
		assert.Equal(t, "spam link in comment", review.ModerationNotes)

		events := review.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*ReviewRejectedEvent)
		require.True(t, ok)
		assert.Equal(t, "spam link in comment", event.Notes)
	})

	t.Run("notes required", func(t *testing.T) {
		review := createTestReview(t)
		err := review.Reject(uuid.New(), "", reviewNow)
		assert.Error(t, err)
	})

	t.Run("retracts an approved review", func(t *testing.T) {
		review := approvedReview(t)

		err := review.Reject(uuid.New(), "vendor reported fake account", reviewNow)

		require.NoError(t, err)
		assert.Equal(t, ReviewStatusRejected, review.Status)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		review := createTestReview(t)
		require.NoError(t, review.Reject(uuid.New(), "spam", reviewNow))

		assert.Error(t, review.Approve(uuid.New(), "", reviewNow))
		assert.Error(t, review.Flag(reviewNow))
		assert.Error(t, review.Reject(uuid.New(), "again", reviewNow))
	})
}

// ============================================
// Amendment
// ============================================

func TestProductReview_UpdateContent(t *testing.T) {
	t.Run("amendment re-queues an approved review", func(t *testing.T) {
		review := approvedReview(t)

		err := review.UpdateContent(2, "Changed my mind", "Strap broke after a month.", reviewNow)

		require.NoError(t, err)
		assert.Equal(t, ReviewStatusPending, review.Status)
		assert.Equal(t, 2, review.Rating)
		assert.Equal(t, "Changed my mind", review.Title)
		assert.Nil(t, review.ModeratedBy, "previous verdict should be cleared")
		assert.Nil(t, review.ModeratedAt)
		assert.Empty(t, review.ModerationNotes)
	})

	t.Run("pending review can be amended in place", func(t *testing.T) {
		review := createTestReview(t)

		err := review.UpdateContent(5, "Even better than I thought", "", reviewNow)

		require.NoError(t, err)
		assert.Equal(t, ReviewStatusPending, review.Status)
		assert.Equal(t, 5, review.Rating)
	})

	t.Run("rejected review cannot be amended", func(t *testing.T) {
		review := createTestReview(t)
		require.NoError(t, review.Reject(uuid.New(), "spam", reviewNow))

		err := review.UpdateContent(5, "Please", "", reviewNow)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "amended")
	})

	t.Run("amendment validates content", func(t *testing.T) {
		review := createTestReview(t)
		assert.Error(t, review.UpdateContent(0, "Title", "", reviewNow))
		assert.Error(t, review.UpdateContent(3, "", "", reviewNow))
	})
}

// ============================================
// Votes and reports
// ============================================

func TestProductReview_MarkHelpful(t *testing.T) {
	t.Run("counts votes on published reviews", func(t *testing.T) {
		review := approvedReview(t)

		require.NoError(t, review.MarkHelpful(reviewNow))
		require.NoError(t, review.MarkHelpful(reviewNow))

		assert.Equal(t, 2, review.HelpfulCount)
	})

	t.Run("only published reviews can be voted on", func(t *testing.T) {
		review := createTestReview(t)
		err := review.MarkHelpful(reviewNow)
		assert.Error(t, err)
		assert.Equal(t, 0, review.HelpfulCount)
	})
}

func TestProductReview_Report(t *testing.T) {
	t.Run("reports accumulate without flagging below the threshold", func(t *testing.T) {
		review := approvedReview(t)

		for i := 0; i < ReportAutoFlagThreshold-1; i++ {
			require.NoError(t, review.Report(reviewNow))
		}

		assert.Equal(t, ReportAutoFlagThreshold-1, review.ReportedCount)
		assert.Equal(t, ReviewStatusApproved, review.Status)
	})

	t.Run("threshold report pulls the review back into the queue", func(t *testing.T) {
		review := approvedReview(t)

		for i := 0; i < ReportAutoFlagThreshold; i++ {
			require.NoError(t, review.Report(reviewNow))
		}

		assert.Equal(t, ReviewStatusFlagged, review.Status)
		assert.True(t, review.AwaitingModeration())

		events := review.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*ReviewFlaggedEvent)
		require.True(t, ok)
		assert.Equal(t, ReportAutoFlagThreshold, event.ReportedCount)
	})

	t.Run("flagged review can be approved again", func(t *testing.T) {
		review := approvedReview(t)
		for i := 0; i < ReportAutoFlagThreshold; i++ {
			require.NoError(t, review.Report(reviewNow))
		}
		review.ClearDomainEvents()

		err := review.Approve(uuid.New(), "reports were baseless", reviewNow)

		require.NoError(t, err)
		assert.Equal(t, ReviewStatusApproved, review.Status)
	})

	t.Run("pending review collects reports without a machine move", func(t *testing.T) {
		review := createTestReview(t)

		for i := 0; i < ReportAutoFlagThreshold+1; i++ {
			require.NoError(t, review.Report(reviewNow))
		}

		assert.Equal(t, ReviewStatusPending, review.Status)
	})

	t.Run("rejected review cannot be reported", func(t *testing.T) {
		review := createTestReview(t)
		require.NoError(t, review.Reject(uuid.New(), "spam", reviewNow))
		assert.Error(t, review.Report(reviewNow))
	})
}

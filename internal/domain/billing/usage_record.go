package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// UsageRecord is the per-period counter for one metered feature of one
// subscription. One record exists per (subscription, feature, period); the
// count only grows within a period, and an increment that would pass the
// limit is rejected outright, never clamped.
//
// The version column makes the read-check-increment sequence safe under
// concurrent tracking calls: the repository's locked save fails when another
// writer got there first, and the service retries on the fresh count.
type UsageRecord struct {
	shared.TenantAggregateRoot
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;index:idx_usage_period,unique"`
	VendorID       uuid.UUID `gorm:"type:uuid;not null;index"`
	FeatureName    string    `gorm:"type:varchar(100);not null;index:idx_usage_period,unique"`
	UsageCount     int64     `gorm:"not null;default:0"`
	UsageLimit     *int64
	PeriodStart    time.Time `gorm:"not null;index:idx_usage_period,unique"`
	PeriodEnd      time.Time `gorm:"not null"`
}

// NewUsageRecord opens a fresh counter for a feature in the given period.
// A nil limit means the feature is unmetered for this subscription.
func NewUsageRecord(tenantID, subscriptionID, vendorID uuid.UUID, featureName string, limit *int64, periodStart, periodEnd time.Time) (*UsageRecord, error) {
	if subscriptionID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Subscription ID cannot be empty")
	}
	if strings.TrimSpace(featureName) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Feature name cannot be empty")
	}
	if limit != nil && *limit < 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Usage limit cannot be negative")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Period end must be after period start")
	}

	return &UsageRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SubscriptionID:      subscriptionID,
		VendorID:            vendorID,
		FeatureName:         strings.TrimSpace(featureName),
		UsageLimit:          limit,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
	}, nil
}

// TrackResult reports the outcome of a tracking call. Callers must check
// Allowed: a rejected increment is an answer, not an error.
type TrackResult struct {
	Allowed     bool   `json:"allowed"`
	FeatureName string `json:"feature_name"`
	Requested   int64  `json:"requested"`
	UsageCount  int64  `json:"usage_count"`
	UsageLimit  *int64 `json:"usage_limit,omitempty"`
	Remaining   *int64 `json:"remaining,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Track admits or rejects an increment against the period limit. When the
// increment fits, the count advances; when it would exceed the limit, the
// count is left untouched and the result says why. Repeated rejected calls
// therefore never move the counter.
func (r *UsageRecord) Track(increment int64, now time.Time) (TrackResult, error) {
	if increment <= 0 {
		return TrackResult{}, shared.NewDomainError("VALIDATION_ERROR", "Usage increment must be positive")
	}

	result := TrackResult{
		FeatureName: r.FeatureName,
		Requested:   increment,
		UsageLimit:  r.UsageLimit,
	}

	newCount := r.UsageCount + increment
	if r.UsageLimit != nil && newCount > *r.UsageLimit {
		result.Allowed = false
		result.UsageCount = r.UsageCount
		remaining := *r.UsageLimit - r.UsageCount
		if remaining < 0 {
			remaining = 0
		}
		result.Remaining = &remaining
		result.Reason = fmt.Sprintf("Feature %s is limited to %d per period, %d used, increment of %d rejected",
			r.FeatureName, *r.UsageLimit, r.UsageCount, increment)
		return result, nil
	}

	r.UsageCount = newCount
	r.Touch(now)

	result.Allowed = true
	result.UsageCount = r.UsageCount
	if r.UsageLimit != nil {
		remaining := *r.UsageLimit - r.UsageCount
		result.Remaining = &remaining
	}
	return result, nil
}

// IsUnlimited returns true when no limit applies
func (r *UsageRecord) IsUnlimited() bool {
	return r.UsageLimit == nil
}

// IsExhausted returns true once the count has reached the limit
func (r *UsageRecord) IsExhausted() bool {
	return r.UsageLimit != nil && r.UsageCount >= *r.UsageLimit
}

// Remaining returns how much headroom is left, or nil when unmetered
func (r *UsageRecord) Remaining() *int64 {
	if r.UsageLimit == nil {
		return nil
	}
	remaining := *r.UsageLimit - r.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// UsagePercent returns consumption as a percentage of the limit, 0 when unmetered
func (r *UsageRecord) UsagePercent() float64 {
	if r.UsageLimit == nil || *r.UsageLimit == 0 {
		return 0
	}
	return float64(r.UsageCount) / float64(*r.UsageLimit) * 100
}

// CoversInstant reports whether the instant falls inside this record's period
func (r *UsageRecord) CoversInstant(t time.Time) bool {
	return !t.Before(r.PeriodStart) && t.Before(r.PeriodEnd)
}

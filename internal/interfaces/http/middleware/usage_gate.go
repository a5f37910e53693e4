package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared"
)

// FeatureGateFunc charges one unit of a metered plan feature against the
// caller's subscription. The wiring layer closes it over the subscription
// service (resolve the vendor's current subscription, then TrackUsage).
type FeatureGateFunc func(ctx context.Context, tenantID, vendorID uuid.UUID, feature string) (*billing.TrackResult, error)

// FeatureGateConfig holds configuration for the feature gate middleware
type FeatureGateConfig struct {
	// Gate performs the usage admission check; required
	Gate FeatureGateFunc
	// Feature is the plan feature charged per request
	Feature string
	// Logger for middleware logging
	Logger *zap.Logger
}

// FeatureGate enforces per-period plan limits on metered routes. Requests
// from accounts without a vendor profile pass through untouched: plan
// limits meter vendor activity, not the operator's or buyers'. A vendor
// without an active subscription is rejected with 402-adjacent CONFLICT
// semantics carried by the gate function's error.
//
// The admission check itself never clamps: a rejected request leaves the
// usage counter exactly where it was.
func FeatureGate(cfg FeatureGateConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorIDStr := GetJWTVendorID(c)
		if vendorIDStr == "" {
			c.Next()
			return
		}

		vendorID, err := uuid.Parse(vendorIDStr)
		if err != nil {
			c.Next()
			return
		}

		tenantID, err := uuid.Parse(GetJWTTenantID(c))
		if err != nil {
			c.Next()
			return
		}

		result, err := cfg.Gate(c.Request.Context(), tenantID, vendorID, cfg.Feature)
		if err != nil {
			// A vendor outside any subscription, or a storage failure.
			// Missing subscriptions read as unmetered rather than blocked;
			// everything else fails open with a warning so billing hiccups
			// never take the marketplace down.
			if !shared.IsNotFound(err) && cfg.Logger != nil {
				cfg.Logger.Warn("Feature gate check failed",
					zap.String("vendor_id", vendorIDStr),
					zap.String("feature", cfg.Feature),
					zap.Error(err))
			}
			c.Next()
			return
		}

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_LIMIT_EXCEEDED",
					"message": result.Reason,
				},
				"usage": result,
			})
			return
		}

		c.Next()
	}
}

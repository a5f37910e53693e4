package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/identity"
)

// CapabilityConfig holds configuration for capability middleware
type CapabilityConfig struct {
	// Evaluator answers role -> capability questions; required
	Evaluator *identity.Evaluator
	// Optional callback when access is denied (default: return 403)
	OnDenied func(c *gin.Context, capability identity.Capability)
	// Logger for middleware logging
	Logger *zap.Logger
}

// RequireCapability returns middleware that admits the request only when
// the authenticated role holds the capability. There is exactly one grant
// table; handlers never compare role strings themselves.
func RequireCapability(evaluator *identity.Evaluator, capability identity.Capability) gin.HandlerFunc {
	return RequireCapabilityWithConfig(CapabilityConfig{Evaluator: evaluator}, capability)
}

// RequireCapabilityWithConfig is RequireCapability with custom config
func RequireCapabilityWithConfig(cfg CapabilityConfig, capability identity.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := roleFromContext(c)
		if !ok {
			denyUnauthenticated(c, cfg.Logger)
			return
		}

		if !cfg.Evaluator.Allows(role, capability) {
			handleCapabilityDenied(c, cfg, capability, role)
			return
		}

		c.Next()
	}
}

// RequireAnyCapability admits the request when the role holds at least one
// of the capabilities. Used for routes shared between operator staff and
// vendor staff.
func RequireAnyCapability(evaluator *identity.Evaluator, capabilities ...identity.Capability) gin.HandlerFunc {
	cfg := CapabilityConfig{Evaluator: evaluator}
	return func(c *gin.Context) {
		role, ok := roleFromContext(c)
		if !ok {
			denyUnauthenticated(c, cfg.Logger)
			return
		}

		if !cfg.Evaluator.AllowsAny(role, capabilities...) {
			cap := identity.Capability("")
			if len(capabilities) > 0 {
				cap = capabilities[0]
			}
			handleCapabilityDenied(c, cfg, cap, role)
			return
		}

		c.Next()
	}
}

// HasCapability reports whether the request's role grants the capability.
// For handlers that vary response shape by caller rather than denying.
func HasCapability(c *gin.Context, evaluator *identity.Evaluator, capability identity.Capability) bool {
	role, ok := roleFromContext(c)
	if !ok {
		return false
	}
	return evaluator.Allows(role, capability)
}

// roleFromContext reads the authenticated role set by the JWT middleware
func roleFromContext(c *gin.Context) (identity.Role, bool) {
	roleStr := GetJWTRole(c)
	if roleStr == "" {
		return "", false
	}
	role := identity.Role(roleStr)
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

func denyUnauthenticated(c *gin.Context, log *zap.Logger) {
	if log != nil {
		log.Warn("Capability check without authenticated role",
			zap.String("path", c.Request.URL.Path))
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_UNAUTHORIZED",
			"message": "Authentication required",
		},
	})
}

func handleCapabilityDenied(c *gin.Context, cfg CapabilityConfig, capability identity.Capability, role identity.Role) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, capability)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Capability denied",
			zap.String("role", role.String()),
			zap.String("capability", string(capability)),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_FORBIDDEN",
			"message": "Insufficient permissions for this operation",
		},
	})
}

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/auth"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock the account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles sign-in, token refresh and session revocation.
// Tokens stay valid until they expire or land on the revocation list,
// so logout and force-logout both go through the list.
type AuthService struct {
	userRepo    identity.UserRepository
	tenantRepo  identity.TenantRepository
	jwtService  *auth.JWTService
	revocations auth.TokenRevocationList
	evaluator   *identity.Evaluator
	config      AuthServiceConfig
	clock       shared.Clock
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	tenantRepo identity.TenantRepository,
	jwtService *auth.JWTService,
	revocations auth.TokenRevocationList,
	config AuthServiceConfig,
	clock shared.Clock,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tenantRepo:  tenantRepo,
		jwtService:  jwtService,
		revocations: revocations,
		evaluator:   identity.NewEvaluator(),
		config:      config,
		clock:       clock,
		logger:      logger,
	}
}

// Login authenticates an account and returns a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	now := s.clock.Now()

	s.logger.Info("Login attempt",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("email", email))

	tenant, err := s.tenantRepo.FindByID(ctx, input.TenantID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("TENANT_INACTIVE", "Tenant is not active")
		}
		return nil, err
	}
	if !tenant.CanOperate(now) {
		s.logger.Warn("Login refused, tenant cannot operate",
			zap.String("tenant_id", input.TenantID.String()),
			zap.String("tenant_status", string(tenant.Status)))
		return nil, shared.NewDomainError("TENANT_INACTIVE", "Tenant is not active")
	}

	user, err := s.userRepo.FindByEmail(ctx, input.TenantID, email)
	if err != nil {
		if shared.IsNotFound(err) {
			// Do not reveal whether the account exists
			return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
		}
		return nil, err
	}

	if err := s.loginEligibility(user, now); err != nil {
		s.logger.Warn("Login refused",
			zap.String("user_id", user.ID.String()),
			zap.String("status", string(user.Status)))
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration, now)
		if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
			s.logger.Error("Failed to record login failure",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after repeated failures",
				zap.String("user_id", user.ID.String()),
				zap.Int("failed_attempts", user.FailedAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts, account is temporarily locked")
		}
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	// A lock whose window has passed heals on the next successful sign-in
	if user.Status == identity.UserStatusLocked {
		if err := user.Unlock(now); err != nil {
			return nil, err
		}
	}

	user.RecordLoginSuccess(input.IP, now)
	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		// Tracking data only; the sign-in itself succeeded
		s.logger.Error("Failed to record login success",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	pair, err := s.jwtService.GenerateTokenPair(s.tokenInput(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_ERROR", "Failed to issue tokens")
	}

	s.logger.Info("Login successful",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  s.toUserInfo(user),
	}, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair. The
// account is reloaded so role or profile changes take effect, and the used
// refresh token is revoked for its remaining lifetime.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, s.mapTokenError(err)
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Revocation check failed", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_ERROR", "Unable to verify token")
	}
	if revoked {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	}

	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid token claims")
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid token claims")
	}

	userRevoked, err := s.revocations.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		s.logger.Error("User revocation check failed", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_ERROR", "Unable to verify token")
	}
	if userRevoked {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "All sessions have been signed out")
	}

	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}

	if err := s.loginEligibility(user, s.clock.Now()); err != nil {
		return nil, err
	}

	pair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, s.tokenInput(user))
	if err != nil {
		return nil, s.mapTokenError(err)
	}

	// Rotate: the used refresh token must not be replayable
	if err := s.revocations.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token",
			zap.String("user_id", claims.UserID),
			zap.Error(err))
	}

	return &RefreshTokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// Logout revokes the presented tokens for their remaining lifetimes.
// Tokens that no longer validate are skipped; they cannot be used anyway.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessToken != "" {
		if claims, err := s.jwtService.ValidateAccessToken(input.AccessToken); err == nil {
			if err := s.revocations.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				return fmt.Errorf("revoke access token: %w", err)
			}
		}
	}

	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil {
			if err := s.revocations.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				return fmt.Errorf("revoke refresh token: %w", err)
			}
		}
	}

	return nil
}

// ForceLogout signs out every session of the target user. Existing tokens
// keep validating cryptographically, so the user lands on the revocation
// list until the longest-lived token has expired.
func (s *AuthService) ForceLogout(ctx context.Context, input ForceLogoutInput) (*ForceLogoutResult, error) {
	target, err := s.userRepo.FindByIDForTenant(ctx, input.TenantID, input.TargetUserID)
	if err != nil {
		return nil, err
	}

	ttl := s.jwtService.GetRefreshTokenExpiration()
	if err := s.revocations.RevokeUser(ctx, target.ID.String(), ttl); err != nil {
		return nil, fmt.Errorf("revoke user sessions: %w", err)
	}

	s.logger.Info("Forced logout",
		zap.String("admin_user_id", input.AdminUserID.String()),
		zap.String("target_user_id", target.ID.String()),
		zap.String("reason", input.Reason))

	return &ForceLogoutResult{
		Message: fmt.Sprintf("All sessions for %s have been signed out", target.DisplayNameOrEmail()),
	}, nil
}

// GetCurrentUser returns the signed-in account with its capabilities
func (s *AuthService) GetCurrentUser(ctx context.Context, input GetCurrentUserInput) (*CurrentUserResult, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, input.TenantID, input.UserID)
	if err != nil {
		return nil, err
	}

	return &CurrentUserResult{User: s.toUserInfo(user)}, nil
}

// ChangePassword verifies the current password and sets a new one
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, input.TenantID, input.UserID)
	if err != nil {
		return err
	}

	if err := user.ChangePassword(input.OldPassword, input.NewPassword, s.clock.Now()); err != nil {
		return err
	}

	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		return err
	}

	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// loginEligibility maps an account's state to the error a sign-in or
// refresh must return. A LOCKED status with an elapsed window passes; the
// caller heals it.
func (s *AuthService) loginEligibility(user *identity.User, now time.Time) error {
	switch {
	case user.Status == identity.UserStatusDeactivated:
		return shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	case user.Status == identity.UserStatusPending:
		return shared.NewDomainError("ACCOUNT_PENDING", "Account has not been activated yet")
	case user.IsLocked(now):
		return shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked due to too many failed login attempts")
	}
	return nil
}

func (s *AuthService) mapTokenError(err error) error {
	switch {
	case err == auth.ErrExpiredToken:
		return shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	case err == auth.ErrMaxRefreshExceeded:
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Session expired, please sign in again")
	case err == auth.ErrInvalidToken, err == auth.ErrInvalidTokenType, err == auth.ErrInvalidClaims,
		err == auth.ErrTokenNotYetValid, err == auth.ErrMissingTenantID, err == auth.ErrMissingUserID:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	default:
		s.logger.Error("Token operation failed", zap.Error(err))
		return shared.NewDomainError("TOKEN_ERROR", "Token processing failed")
	}
}

func (s *AuthService) tokenInput(user *identity.User) auth.GenerateTokenInput {
	return auth.GenerateTokenInput{
		TenantID:   user.TenantID,
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		VendorID:   user.VendorID,
		CustomerID: user.CustomerID,
	}
}

func (s *AuthService) toUserInfo(user *identity.User) UserInfo {
	caps := s.evaluator.Capabilities(user.Role)
	capabilities := make([]string, len(caps))
	for i, c := range caps {
		capabilities[i] = string(c)
	}

	return UserInfo{
		ID:                 user.ID,
		TenantID:           user.TenantID,
		Email:              user.Email,
		DisplayName:        user.DisplayName,
		Role:               string(user.Role),
		VendorID:           user.VendorID,
		CustomerID:         user.CustomerID,
		Capabilities:       capabilities,
		MustChangePassword: user.MustChangePassword,
	}
}

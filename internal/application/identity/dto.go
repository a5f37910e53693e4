package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginInput contains the input for a sign-in attempt. The tenant is
// resolved by the transport layer before the credentials are checked.
type LoginInput struct {
	TenantID uuid.UUID
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains the account information returned after login
type UserInfo struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	Email              string
	DisplayName        string
	Role               string
	VendorID           *uuid.UUID
	CustomerID         *uuid.UUID
	Capabilities       []string
	MustChangePassword bool
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput carries the raw tokens to revoke. Either field may be empty;
// a token that no longer validates needs no revocation.
type LogoutInput struct {
	AccessToken  string
	RefreshToken string
}

// ChangePasswordInput contains the input for a password change
type ChangePasswordInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// GetCurrentUserInput contains the input for getting current user info
type GetCurrentUserInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

// CurrentUserResult contains the current user's information
type CurrentUserResult struct {
	User UserInfo
}

// ForceLogoutInput contains the input for signing out all of a user's
// sessions
type ForceLogoutInput struct {
	AdminUserID  uuid.UUID // Admin performing the action
	TargetUserID uuid.UUID // User to force logout
	TenantID     uuid.UUID
	Reason       string // Kept in the audit log
}

// ForceLogoutResult contains the result of a force logout
type ForceLogoutResult struct {
	Message string
}

package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusPending     UserStatus = "PENDING"     // Awaiting activation
	UserStatusActive      UserStatus = "ACTIVE"      // Normal active status
	UserStatusLocked      UserStatus = "LOCKED"      // Locked after failed login attempts
	UserStatusDeactivated UserStatus = "DEACTIVATED" // Manually deactivated
)

// IsValid returns true if the status is valid
func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusPending, UserStatusActive, UserStatusLocked, UserStatusDeactivated:
		return true
	}
	return false
}

// Password cost for bcrypt
const bcryptCost = 12

// User is an account that can sign in to the marketplace. The email is
// the login identifier, unique per tenant. Vendor staff accounts link to
// the vendor they manage; customer accounts link to a buyer profile.
type User struct {
	shared.TenantAggregateRoot
	Email              string     `gorm:"type:varchar(200);not null;uniqueIndex:idx_user_tenant_email,priority:2"`
	PasswordHash       string     `gorm:"type:varchar(100);not null"`
	DisplayName        string     `gorm:"type:varchar(200)"`
	Role               Role       `gorm:"type:varchar(20);not null;index"`
	Status             UserStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	VendorID           *uuid.UUID `gorm:"type:uuid;index"` // Set for VENDOR_STAFF accounts
	CustomerID         *uuid.UUID `gorm:"type:uuid;index"` // Set for CUSTOMER accounts
	LastLoginAt        *time.Time
	LastLoginIP        string `gorm:"type:varchar(45)"`
	FailedAttempts     int    `gorm:"not null;default:0"`
	LockedUntil        *time.Time
	PasswordChangedAt  *time.Time
	MustChangePassword bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user awaiting activation
func NewUser(tenantID uuid.UUID, email, password string, role Role, now time.Time) (*User, error) {
	if email == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Email cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("Invalid role: %s", role)
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:        passwordHash,
		Role:                role,
		Status:              UserStatusPending,
		PasswordChangedAt:   &now,
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// NewActiveUser creates a user that can sign in immediately
func NewActiveUser(tenantID uuid.UUID, email, password string, role Role, now time.Time) (*User, error) {
	user, err := NewUser(tenantID, email, password, role, now)
	if err != nil {
		return nil, err
	}

	user.Status = UserStatusActive
	return user, nil
}

// SetDisplayName sets the user's display name
func (u *User) SetDisplayName(displayName string, now time.Time) error {
	if displayName != "" && len(displayName) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Display name cannot exceed 200 characters")
	}

	u.DisplayName = strings.TrimSpace(displayName)
	u.Touch(now)
	return nil
}

// AttachVendor links a vendor staff account to the vendor it manages
func (u *User) AttachVendor(vendorID uuid.UUID, now time.Time) error {
	if u.Role != RoleVendorStaff {
		return shared.NewDomainError("INVALID_STATE", "Only vendor staff accounts can be linked to a vendor")
	}
	if vendorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Vendor ID cannot be empty")
	}

	u.VendorID = &vendorID
	u.Touch(now)
	return nil
}

// AttachCustomer links a customer account to its buyer profile
func (u *User) AttachCustomer(customerID uuid.UUID, now time.Time) error {
	if u.Role != RoleCustomer {
		return shared.NewDomainError("INVALID_STATE", "Only customer accounts can be linked to a buyer profile")
	}
	if customerID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Customer ID cannot be empty")
	}

	u.CustomerID = &customerID
	u.Touch(now)
	return nil
}

// ChangeRole reassigns the account's role. The vendor or customer link is
// cleared because it belongs to the old role.
func (u *User) ChangeRole(role Role, now time.Time) error {
	if !role.IsValid() {
		return shared.NewValidationError("Invalid role: %s", role)
	}
	if role == u.Role {
		return shared.NewDomainError("INVALID_STATE", "User already has this role")
	}

	u.Role = role
	u.VendorID = nil
	u.CustomerID = nil
	u.Touch(now)
	return nil
}

// ChangePassword changes the password after verifying the current one
func (u *User) ChangePassword(oldPassword, newPassword string, now time.Time) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}

	return u.SetPassword(newPassword, now)
}

// SetPassword sets a new password (admin reset, no old password check)
func (u *User) SetPassword(newPassword string, now time.Time) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &now
	u.MustChangePassword = false
	u.Touch(now)

	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// ForcePasswordChange marks that the user must change password on next login
func (u *User) ForcePasswordChange(now time.Time) {
	u.MustChangePassword = true
	u.Touch(now)
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// Activate activates the user
func (u *User) Activate(now time.Time) error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("INVALID_STATE", "User is already active")
	}

	oldStatus := u.Status
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch(now)

	u.AddDomainEvent(NewUserStatusChangedEvent(u, oldStatus, UserStatusActive))
	return nil
}

// Deactivate deactivates the user
func (u *User) Deactivate(now time.Time) error {
	if u.Status == UserStatusDeactivated {
		return shared.NewDomainError("INVALID_STATE", "User is already deactivated")
	}

	oldStatus := u.Status
	u.Status = UserStatusDeactivated
	u.Touch(now)

	u.AddDomainEvent(NewUserStatusChangedEvent(u, oldStatus, UserStatusDeactivated))
	return nil
}

// Lock locks the user account for the given duration
func (u *User) Lock(duration time.Duration, now time.Time) error {
	if u.Status == UserStatusDeactivated {
		return shared.NewDomainError("INVALID_STATE", "Cannot lock a deactivated user")
	}

	oldStatus := u.Status
	u.Status = UserStatusLocked
	if duration > 0 {
		lockedUntil := now.Add(duration)
		u.LockedUntil = &lockedUntil
	}
	u.Touch(now)

	u.AddDomainEvent(NewUserStatusChangedEvent(u, oldStatus, UserStatusLocked))
	return nil
}

// Unlock unlocks the user account
func (u *User) Unlock(now time.Time) error {
	if u.Status != UserStatusLocked {
		return shared.NewDomainError("INVALID_STATE", "User is not locked")
	}

	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch(now)

	u.AddDomainEvent(NewUserStatusChangedEvent(u, UserStatusLocked, UserStatusActive))
	return nil
}

// RecordLoginSuccess records a successful login
func (u *User) RecordLoginSuccess(ip string, now time.Time) {
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.Touch(now)
}

// RecordLoginFailure records a failed login attempt.
// Returns true if the account was locked by this failure.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration, now time.Time) bool {
	u.FailedAttempts++
	u.Touch(now)

	if u.FailedAttempts >= maxAttempts {
		_ = u.Lock(lockDuration, now)
		return true
	}
	return false
}

// IsActive returns true if the user is active
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsLocked returns true if the user is locked at the given instant
func (u *User) IsLocked(now time.Time) bool {
	if u.Status != UserStatusLocked {
		return false
	}
	// A timed lock expires on its own
	if u.LockedUntil != nil && now.After(*u.LockedUntil) {
		return false
	}
	return true
}

// CanLogin returns true if the user can sign in at the given instant
func (u *User) CanLogin(now time.Time) bool {
	if u.Status == UserStatusDeactivated || u.Status == UserStatusPending {
		return false
	}
	return !u.IsLocked(now)
}

// DisplayNameOrEmail returns the display name if set, otherwise the email
func (u *User) DisplayNameOrEmail() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Validation functions

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}

	// Require at least one letter and one number
	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}

	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Email cannot exceed 200 characters")
	}
	// Basic email validation
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("VALIDATION_ERROR", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

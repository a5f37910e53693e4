package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
)

// UserService handles account management. Sign-in itself lives in
// AuthService; everything here is admin-driven.
type UserService struct {
	userRepo       identity.UserRepository
	vendorRepo     partner.VendorRepository
	customerRepo   partner.CustomerRepository
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	vendorRepo partner.VendorRepository,
	customerRepo partner.CustomerRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		vendorRepo:   vendorRepo,
		customerRepo: customerRepo,
		clock:        clock,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateUserInput contains input for creating an account
type CreateUserInput struct {
	TenantID    uuid.UUID
	Email       string
	Password    string
	DisplayName string
	Role        identity.Role
	VendorID    *uuid.UUID // Links a VENDOR_STAFF account to its vendor
	CustomerID  *uuid.UUID // Links a CUSTOMER account to its profile
	Activate    bool       // Skip the PENDING stage
}

// UpdateUserInput contains input for updating an account
type UpdateUserInput struct {
	DisplayName *string
}

// ChangeRoleInput contains input for changing an account's role. Profile
// links do not survive a role change, so the new link comes along.
type ChangeRoleInput struct {
	Role       identity.Role
	VendorID   *uuid.UUID
	CustomerID *uuid.UUID
}

// UserListFilter contains filtering options for account lists
type UserListFilter struct {
	Page     int
	PageSize int
	Role     string
	Search   string
	OrderBy  string
	OrderDir string
}

// UserDTO represents account data returned to the transport layer
type UserDTO struct {
	ID                 uuid.UUID  `json:"id"`
	TenantID           uuid.UUID  `json:"tenant_id"`
	Email              string     `json:"email"`
	DisplayName        string     `json:"display_name"`
	Role               string     `json:"role"`
	Status             string     `json:"status"`
	VendorID           *uuid.UUID `json:"vendor_id,omitempty"`
	CustomerID         *uuid.UUID `json:"customer_id,omitempty"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// UserListResult represents a paginated account list
type UserListResult struct {
	Users      []UserDTO `json:"users"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Create creates a new account
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	now := s.clock.Now()

	s.logger.Info("Creating user",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("email", email),
		zap.String("role", string(input.Role)))

	if !input.Role.IsValid() {
		return nil, shared.NewValidationError("Invalid role: %s", input.Role)
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.TenantID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_EXISTS", "Email is already registered")
	}

	var user *identity.User
	if input.Activate {
		user, err = identity.NewActiveUser(input.TenantID, email, input.Password, input.Role, now)
	} else {
		user, err = identity.NewUser(input.TenantID, email, input.Password, input.Role, now)
	}
	if err != nil {
		return nil, err
	}

	if input.DisplayName != "" {
		if err := user.SetDisplayName(input.DisplayName, now); err != nil {
			return nil, err
		}
	}

	if input.VendorID != nil {
		if err := s.attachVendor(ctx, user, input.TenantID, *input.VendorID, now); err != nil {
			return nil, err
		}
	}
	if input.CustomerID != nil {
		if err := s.attachCustomer(ctx, user, input.TenantID, *input.CustomerID, now); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		// Events are delivered in-process after the save; a delivery
		// failure does not fail the account creation
		_ = s.eventPublisher.Publish(ctx, user.GetDomainEvents()...)
	}
	user.ClearDomainEvents()

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return toUserDTO(user), nil
}

// GetByID retrieves an account by ID
func (s *UserService) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// List retrieves a paginated account list, optionally narrowed to a role
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter UserListFilter) (*UserListResult, error) {
	sharedFilter := buildUserFilter(filter)

	var (
		users []*identity.User
		total int64
		err   error
	)
	if filter.Role != "" {
		role := identity.Role(filter.Role)
		if !role.IsValid() {
			return nil, shared.NewValidationError("Invalid role: %s", filter.Role)
		}
		users, total, err = s.userRepo.FindByRole(ctx, tenantID, role, sharedFilter)
	} else {
		users, total, err = s.userRepo.FindAll(ctx, tenantID, sharedFilter)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]UserDTO, len(users))
	for i, user := range users {
		dtos[i] = *toUserDTO(user)
	}

	totalPages := int(total) / sharedFilter.PageSize
	if int(total)%sharedFilter.PageSize > 0 {
		totalPages++
	}

	return &UserListResult{
		Users:      dtos,
		Total:      total,
		Page:       sharedFilter.Page,
		PageSize:   sharedFilter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Update updates an account's profile fields
func (s *UserService) Update(ctx context.Context, tenantID, userID uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		if err := user.SetDisplayName(*input.DisplayName, s.clock.Now()); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		return nil, err
	}

	return toUserDTO(user), nil
}

// ChangeRole moves an account to a different role and relinks its profile
func (s *UserService) ChangeRole(ctx context.Context, tenantID, userID uuid.UUID, input ChangeRoleInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := user.ChangeRole(input.Role, now); err != nil {
		return nil, err
	}

	if input.VendorID != nil {
		if err := s.attachVendor(ctx, user, tenantID, *input.VendorID, now); err != nil {
			return nil, err
		}
	}
	if input.CustomerID != nil {
		if err := s.attachCustomer(ctx, user, tenantID, *input.CustomerID, now); err != nil {
			return nil, err
		}
	}

	if err := s.saveMutation(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User role changed",
		zap.String("user_id", userID.String()),
		zap.String("role", string(input.Role)))

	return toUserDTO(user), nil
}

// AttachVendor links a vendor staff account to its vendor
func (s *UserService) AttachVendor(ctx context.Context, tenantID, userID, vendorID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.attachVendor(ctx, user, tenantID, vendorID, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		return nil, err
	}

	return toUserDTO(user), nil
}

// AttachCustomer links a customer account to its profile
func (s *UserService) AttachCustomer(ctx context.Context, tenantID, userID, customerID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.attachCustomer(ctx, user, tenantID, customerID, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		return nil, err
	}

	return toUserDTO(user), nil
}

// Activate activates an account
func (s *UserService) Activate(ctx context.Context, tenantID, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Activate(s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.saveMutation(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User activated", zap.String("user_id", userID.String()))
	return toUserDTO(user), nil
}

// Deactivate deactivates an account. Live sessions are revoked separately
// through AuthService.ForceLogout.
func (s *UserService) Deactivate(ctx context.Context, tenantID, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Deactivate(s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.saveMutation(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User deactivated", zap.String("user_id", userID.String()))
	return toUserDTO(user), nil
}

// Lock locks an account for the given duration
func (s *UserService) Lock(ctx context.Context, tenantID, userID uuid.UUID, duration time.Duration) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Lock(duration, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.saveMutation(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User locked",
		zap.String("user_id", userID.String()),
		zap.Duration("duration", duration))
	return toUserDTO(user), nil
}

// Unlock clears an account lock before its window has passed
func (s *UserService) Unlock(ctx context.Context, tenantID, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Unlock(s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.saveMutation(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User unlocked", zap.String("user_id", userID.String()))
	return toUserDTO(user), nil
}

// ResetPassword sets a new password on behalf of the user
func (s *UserService) ResetPassword(ctx context.Context, tenantID, userID uuid.UUID, newPassword string, forceChange bool) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if err := user.SetPassword(newPassword, now); err != nil {
		return err
	}
	if forceChange {
		user.ForcePasswordChange(now)
	}

	if err := s.saveMutation(ctx, user); err != nil {
		return err
	}

	s.logger.Info("Password reset", zap.String("user_id", userID.String()))
	return nil
}

// Delete removes an account
func (s *UserService) Delete(ctx context.Context, tenantID, userID uuid.UUID) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, tenantID, user.ID); err != nil {
		return err
	}

	s.logger.Info("User deleted", zap.String("user_id", userID.String()))
	return nil
}

// Count returns the number of accounts in the tenant
func (s *UserService) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.userRepo.CountForTenant(ctx, tenantID)
}

func (s *UserService) attachVendor(ctx context.Context, user *identity.User, tenantID, vendorID uuid.UUID, now time.Time) error {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		if shared.IsNotFound(err) {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Vendor %s not found", vendorID))
		}
		return err
	}
	return user.AttachVendor(vendor.ID, now)
}

func (s *UserService) attachCustomer(ctx context.Context, user *identity.User, tenantID, customerID uuid.UUID, now time.Time) error {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		if shared.IsNotFound(err) {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Customer %s not found", customerID))
		}
		return err
	}
	return user.AttachCustomer(customer.ID, now)
}

// saveMutation persists the aggregate with optimistic locking and then
// delivers its pending events
func (s *UserService) saveMutation(ctx context.Context, user *identity.User) error {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()

	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		return err
	}

	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	return nil
}

func buildUserFilter(filter UserListFilter) shared.Filter {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir != "asc" {
		orderDir = "desc"
	}

	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
}

// toUserDTO converts a domain User to its DTO
func toUserDTO(user *identity.User) *UserDTO {
	return &UserDTO{
		ID:                 user.ID,
		TenantID:           user.TenantID,
		Email:              user.Email,
		DisplayName:        user.DisplayNameOrEmail(),
		Role:               string(user.Role),
		Status:             string(user.Status),
		VendorID:           user.VendorID,
		CustomerID:         user.CustomerID,
		LastLoginAt:        user.LastLoginAt,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          user.CreatedAt,
		UpdatedAt:          user.UpdatedAt,
	}
}

package identity

import (
	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeUser   = "User"
	AggregateTypeTenant = "Tenant"
)

// Event type constants
const (
	EventTypeUserRegistered      = "UserRegistered"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserStatusChanged   = "UserStatusChanged"
	EventTypeTenantCreated       = "TenantCreated"
	EventTypeTenantStatusChanged = "TenantStatusChanged"
	EventTypeTenantPlanChanged   = "TenantPlanChanged"
)

// UserRegisteredEvent is raised when a new account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID, user.TenantID),
		UserID:          user.ID,
		Email:           user.Email,
		Role:            user.Role.String(),
	}
}

// EventType returns the event type name
func (e *UserRegisteredEvent) EventType() string {
	return EventTypeUserRegistered
}

// UserPasswordChangedEvent is raised whenever the password hash changes
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
}

// NewUserPasswordChangedEvent creates a new UserPasswordChangedEvent
func NewUserPasswordChangedEvent(user *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, user.ID, user.TenantID),
		UserID:          user.ID,
	}
}

// EventType returns the event type name
func (e *UserPasswordChangedEvent) EventType() string {
	return EventTypeUserPasswordChanged
}

// UserStatusChangedEvent is raised on every account status move
type UserStatusChangedEvent struct {
	shared.BaseDomainEvent
	UserID     uuid.UUID `json:"user_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
}

// NewUserStatusChangedEvent creates a new UserStatusChangedEvent
func NewUserStatusChangedEvent(user *User, from, to UserStatus) *UserStatusChangedEvent {
	return &UserStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserStatusChanged, AggregateTypeUser, user.ID, user.TenantID),
		UserID:          user.ID,
		FromStatus:      string(from),
		ToStatus:        string(to),
	}
}

// EventType returns the event type name
func (e *UserStatusChangedEvent) EventType() string {
	return EventTypeUserStatusChanged
}

// TenantCreatedEvent is raised when a marketplace operator is provisioned
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewTenantCreatedEvent creates a new TenantCreatedEvent
func NewTenantCreatedEvent(tenant *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, AggregateTypeTenant, tenant.ID, tenant.ID),
		Code:            tenant.Code,
		Name:            tenant.Name,
	}
}

// EventType returns the event type name
func (e *TenantCreatedEvent) EventType() string {
	return EventTypeTenantCreated
}

// TenantStatusChangedEvent is raised on every tenant status move
type TenantStatusChangedEvent struct {
	shared.BaseDomainEvent
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// NewTenantStatusChangedEvent creates a new TenantStatusChangedEvent
func NewTenantStatusChangedEvent(tenant *Tenant, from, to TenantStatus) *TenantStatusChangedEvent {
	return &TenantStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantStatusChanged, AggregateTypeTenant, tenant.ID, tenant.ID),
		FromStatus:      string(from),
		ToStatus:        string(to),
	}
}

// EventType returns the event type name
func (e *TenantStatusChangedEvent) EventType() string {
	return EventTypeTenantStatusChanged
}

// TenantPlanChangedEvent is raised when the operator's plan linkage moves
type TenantPlanChangedEvent struct {
	shared.BaseDomainEvent
	OldPlanCode string `json:"old_plan_code"`
	NewPlanCode string `json:"new_plan_code"`
}

// NewTenantPlanChangedEvent creates a new TenantPlanChangedEvent
func NewTenantPlanChangedEvent(tenant *Tenant, oldPlanCode string) *TenantPlanChangedEvent {
	return &TenantPlanChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantPlanChanged, AggregateTypeTenant, tenant.ID, tenant.ID),
		OldPlanCode:     oldPlanCode,
		NewPlanCode:     tenant.PlanCode,
	}
}

// EventType returns the event type name
func (e *TenantPlanChangedEvent) EventType() string {
	return EventTypeTenantPlanChanged
}

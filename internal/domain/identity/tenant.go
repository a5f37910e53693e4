package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusInactive  TenantStatus = "INACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED" // Suspended for payment or policy issues
	TenantStatusTrial     TenantStatus = "TRIAL"
)

// IsValid returns true if the status is valid
func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusActive, TenantStatusInactive, TenantStatusSuspended, TenantStatusTrial:
		return true
	}
	return false
}

// Tenant is one marketplace operator. Every other aggregate in the system
// is scoped to a tenant; the tenant itself is platform-wide.
type Tenant struct {
	shared.BaseAggregateRoot
	Code         string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string       `gorm:"type:varchar(200);not null"`
	Status       TenantStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	ContactName  string       `gorm:"type:varchar(100)"`
	ContactPhone string       `gorm:"type:varchar(50)"`
	ContactEmail string       `gorm:"type:varchar(200)"`
	Domain       string       `gorm:"type:varchar(200);index"` // Custom subdomain, unique when set
	PlanID       *uuid.UUID   `gorm:"type:uuid"`               // Operator's platform plan
	PlanCode     string       `gorm:"type:varchar(100)"`
	TrialEndsAt  *time.Time
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new active tenant
func NewTenant(code, name string, now time.Time) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            TenantStatusActive,
	}
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))
	return tenant, nil
}

// NewTrialTenant creates a new tenant in trial status
func NewTrialTenant(code, name string, trialDays int, now time.Time) (*Tenant, error) {
	if trialDays <= 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Trial days must be positive")
	}

	tenant, err := NewTenant(code, name, now)
	if err != nil {
		return nil, err
	}

	tenant.Status = TenantStatusTrial
	trialEnds := now.AddDate(0, 0, trialDays)
	tenant.TrialEndsAt = &trialEnds
	return tenant, nil
}

// Update updates the tenant's name
func (t *Tenant) Update(name string, now time.Time) error {
	if err := validateTenantName(name); err != nil {
		return err
	}

	t.Name = name
	t.Touch(now)
	return nil
}

// SetContact sets the tenant's contact information
func (t *Tenant) SetContact(contactName, phone, email string, now time.Time) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("VALIDATION_ERROR", "Contact name cannot exceed 100 characters")
	}
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("VALIDATION_ERROR", "Phone cannot exceed 50 characters")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	t.ContactName = contactName
	t.ContactPhone = phone
	t.ContactEmail = strings.ToLower(email)
	t.Touch(now)
	return nil
}

// SetDomain sets the tenant's custom subdomain
func (t *Tenant) SetDomain(domain string, now time.Time) error {
	if domain != "" && len(domain) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Domain cannot exceed 200 characters")
	}

	t.Domain = strings.ToLower(strings.TrimSpace(domain))
	t.Touch(now)
	return nil
}

// SetPlan links the operator to its platform plan. Upgrading out of a
// trial makes the tenant fully active.
func (t *Tenant) SetPlan(planID uuid.UUID, planCode string, now time.Time) error {
	if planID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Plan ID cannot be empty")
	}
	if planCode == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Plan code cannot be empty")
	}

	oldPlanCode := t.PlanCode
	t.PlanID = &planID
	t.PlanCode = planCode
	if t.Status == TenantStatusTrial {
		t.Status = TenantStatusActive
		t.TrialEndsAt = nil
	}
	t.Touch(now)

	t.AddDomainEvent(NewTenantPlanChangedEvent(t, oldPlanCode))
	return nil
}

// Activate activates the tenant
func (t *Tenant) Activate(now time.Time) error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already active")
	}

	oldStatus := t.Status
	t.Status = TenantStatusActive
	t.Touch(now)

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, TenantStatusActive))
	return nil
}

// Deactivate deactivates the tenant
func (t *Tenant) Deactivate(now time.Time) error {
	if t.Status == TenantStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already inactive")
	}

	oldStatus := t.Status
	t.Status = TenantStatusInactive
	t.Touch(now)

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, TenantStatusInactive))
	return nil
}

// Suspend suspends the tenant for payment or policy issues
func (t *Tenant) Suspend(now time.Time) error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already suspended")
	}

	oldStatus := t.Status
	t.Status = TenantStatusSuspended
	t.Touch(now)

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, TenantStatusSuspended))
	return nil
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// IsTrial returns true if the tenant is in its trial period
func (t *Tenant) IsTrial() bool {
	return t.Status == TenantStatusTrial
}

// IsTrialExpired returns true once the trial window has passed
func (t *Tenant) IsTrialExpired(now time.Time) bool {
	if t.Status != TenantStatusTrial || t.TrialEndsAt == nil {
		return false
	}
	return now.After(*t.TrialEndsAt)
}

// CanOperate returns true if requests for this tenant should be served
func (t *Tenant) CanOperate(now time.Time) bool {
	switch t.Status {
	case TenantStatusActive:
		return true
	case TenantStatusTrial:
		return !t.IsTrialExpired(now)
	}
	return false
}

// Validation functions

func validateTenantCode(code string) error {
	if code == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Tenant code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("VALIDATION_ERROR", "Tenant code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("VALIDATION_ERROR", "Tenant code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateTenantName(name string) error {
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Tenant name cannot exceed 200 characters")
	}
	return nil
}

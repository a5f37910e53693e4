package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

// CustomerStatus represents the state of a customer account
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "ACTIVE"
	CustomerStatusInactive CustomerStatus = "INACTIVE"
	CustomerStatusBlocked  CustomerStatus = "BLOCKED" // Blocked by the platform, cannot place orders
)

// IsValid returns true if the status is valid
func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusActive, CustomerStatusInactive, CustomerStatusBlocked:
		return true
	}
	return false
}

// Customer is a buyer on the marketplace. Customers place orders and
// leave reviews; their saved addresses are copied into each order as
// snapshots, so editing them here never touches placed orders.
type Customer struct {
	shared.TenantAggregateRoot
	Name                   string              `gorm:"type:varchar(200);not null"`
	Email                  string              `gorm:"type:varchar(200);not null;uniqueIndex:idx_customer_tenant_email,priority:2"`
	Phone                  string              `gorm:"type:varchar(50)"`
	Status                 CustomerStatus      `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	DefaultShippingAddress valueobject.Address `gorm:"type:jsonb"`
	DefaultBillingAddress  valueobject.Address `gorm:"type:jsonb"`
	BlockReason            string              `gorm:"type:varchar(500)"`
	LastOrderAt            *time.Time
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer registers a new buyer account
func NewCustomer(tenantID uuid.UUID, name, email string, now time.Time) (*Customer, error) {
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer email cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	customer := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Email:               strings.ToLower(email),
		Status:              CustomerStatusActive,
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now

	customer.AddDomainEvent(NewCustomerRegisteredEvent(customer))
	return customer, nil
}

// Update updates the customer's profile
func (c *Customer) Update(name, phone string, now time.Time) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}

	c.Name = name
	c.Phone = phone
	c.Touch(now)
	return nil
}

// ChangeEmail changes the customer's login email. Uniqueness within the
// tenant is enforced at the repository.
func (c *Customer) ChangeEmail(email string, now time.Time) error {
	if email == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Customer email cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	c.Email = strings.ToLower(email)
	c.Touch(now)
	return nil
}

// SetDefaultShippingAddress sets where the customer's orders ship by default
func (c *Customer) SetDefaultShippingAddress(address valueobject.Address, now time.Time) error {
	if address.IsZero() {
		return shared.NewDomainError("VALIDATION_ERROR", "Shipping address cannot be empty")
	}
	c.DefaultShippingAddress = address
	c.Touch(now)
	return nil
}

// SetDefaultBillingAddress sets the customer's default billing address
func (c *Customer) SetDefaultBillingAddress(address valueobject.Address, now time.Time) error {
	if address.IsZero() {
		return shared.NewDomainError("VALIDATION_ERROR", "Billing address cannot be empty")
	}
	c.DefaultBillingAddress = address
	c.Touch(now)
	return nil
}

// RecordOrder stamps the customer's most recent order time
func (c *Customer) RecordOrder(now time.Time) {
	c.LastOrderAt = &now
	c.Touch(now)
}

// Deactivate closes the account at the customer's request
func (c *Customer) Deactivate(now time.Time) error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Customer is already inactive")
	}

	c.Status = CustomerStatusInactive
	c.Touch(now)
	return nil
}

// Activate reopens a deactivated account
func (c *Customer) Activate(now time.Time) error {
	if c.Status == CustomerStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Customer is already active")
	}
	if c.Status == CustomerStatusBlocked {
		return shared.NewDomainError("INVALID_STATE", "Blocked customers must be unblocked by the platform")
	}

	c.Status = CustomerStatusActive
	c.Touch(now)
	return nil
}

// Block prevents the customer from placing orders. Platform action only.
func (c *Customer) Block(reason string, now time.Time) error {
	if c.Status == CustomerStatusBlocked {
		return shared.NewDomainError("INVALID_STATE", "Customer is already blocked")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Block reason is required")
	}

	c.Status = CustomerStatusBlocked
	c.BlockReason = reason
	c.Touch(now)
	return nil
}

// Unblock lifts a platform block
func (c *Customer) Unblock(now time.Time) error {
	if c.Status != CustomerStatusBlocked {
		return shared.NewDomainError("INVALID_STATE", "Only blocked customers can be unblocked")
	}

	c.Status = CustomerStatusActive
	c.BlockReason = ""
	c.Touch(now)
	return nil
}

// IsActive returns true if the account is open
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// CanPlaceOrders reports whether the customer may check out
func (c *Customer) CanPlaceOrders() bool {
	return c.Status == CustomerStatusActive
}

// Validation functions

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("VALIDATION_ERROR", "Phone number cannot exceed 50 characters")
	}
	// Basic phone validation - allow digits, spaces, hyphens, parentheses, and plus sign
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("VALIDATION_ERROR", "Invalid phone number format")
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

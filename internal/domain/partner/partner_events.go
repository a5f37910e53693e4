package partner

import (
	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeVendor   = "Vendor"
	AggregateTypeCustomer = "Customer"
)

// Event type constants
const (
	EventTypeVendorRegistered           = "VendorRegistered"
	EventTypeVendorVerified             = "VendorVerified"
	EventTypeVendorSuspended            = "VendorSuspended"
	EventTypeVendorPayoutBalanceChanged = "VendorPayoutBalanceChanged"
	EventTypeCustomerRegistered         = "CustomerRegistered"
)

// VendorRegisteredEvent is raised when a new seller signs up
type VendorRegisteredEvent struct {
	shared.BaseDomainEvent
	VendorID     uuid.UUID `json:"vendor_id"`
	Slug         string    `json:"slug"`
	BusinessName string    `json:"business_name"`
	Email        string    `json:"email"`
}

// NewVendorRegisteredEvent creates a new VendorRegisteredEvent
func NewVendorRegisteredEvent(vendor *Vendor) *VendorRegisteredEvent {
	return &VendorRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorRegistered, AggregateTypeVendor, vendor.ID, vendor.TenantID),
		VendorID:        vendor.ID,
		Slug:            vendor.Slug,
		BusinessName:    vendor.BusinessName,
		Email:           vendor.Email,
	}
}

// EventType returns the event type name
func (e *VendorRegisteredEvent) EventType() string {
	return EventTypeVendorRegistered
}

// VendorVerifiedEvent is raised when platform review approves a vendor
type VendorVerifiedEvent struct {
	shared.BaseDomainEvent
	VendorID     uuid.UUID  `json:"vendor_id"`
	BusinessName string     `json:"business_name"`
	VerifiedBy   *uuid.UUID `json:"verified_by,omitempty"`
}

// NewVendorVerifiedEvent creates a new VendorVerifiedEvent
func NewVendorVerifiedEvent(vendor *Vendor) *VendorVerifiedEvent {
	return &VendorVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorVerified, AggregateTypeVendor, vendor.ID, vendor.TenantID),
		VendorID:        vendor.ID,
		BusinessName:    vendor.BusinessName,
		VerifiedBy:      vendor.VerifiedBy,
	}
}

// EventType returns the event type name
func (e *VendorVerifiedEvent) EventType() string {
	return EventTypeVendorVerified
}

// VendorSuspendedEvent is raised when the platform suspends a storefront
type VendorSuspendedEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID `json:"vendor_id"`
	Reason   string    `json:"reason"`
}

// NewVendorSuspendedEvent creates a new VendorSuspendedEvent
func NewVendorSuspendedEvent(vendor *Vendor, reason string) *VendorSuspendedEvent {
	return &VendorSuspendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorSuspended, AggregateTypeVendor, vendor.ID, vendor.TenantID),
		VendorID:        vendor.ID,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *VendorSuspendedEvent) EventType() string {
	return EventTypeVendorSuspended
}

// VendorPayoutBalanceChangedEvent is raised on every payout balance movement
type VendorPayoutBalanceChangedEvent struct {
	shared.BaseDomainEvent
	VendorID   uuid.UUID       `json:"vendor_id"`
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Reason     string          `json:"reason"`
}

// NewVendorPayoutBalanceChangedEvent creates a new VendorPayoutBalanceChangedEvent
func NewVendorPayoutBalanceChangedEvent(vendor *Vendor, oldBalance decimal.Decimal, reason string) *VendorPayoutBalanceChangedEvent {
	return &VendorPayoutBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorPayoutBalanceChanged, AggregateTypeVendor, vendor.ID, vendor.TenantID),
		VendorID:        vendor.ID,
		OldBalance:      oldBalance,
		NewBalance:      vendor.PayoutBalance,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *VendorPayoutBalanceChangedEvent) EventType() string {
	return EventTypeVendorPayoutBalanceChanged
}

// CustomerRegisteredEvent is raised when a new buyer signs up
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
}

// NewCustomerRegisteredEvent creates a new CustomerRegisteredEvent
func NewCustomerRegisteredEvent(customer *Customer) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerRegistered, AggregateTypeCustomer, customer.ID, customer.TenantID),
		CustomerID:      customer.ID,
		Name:            customer.Name,
		Email:           customer.Email,
	}
}

// EventType returns the event type name
func (e *CustomerRegisteredEvent) EventType() string {
	return EventTypeCustomerRegistered
}

package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeSubscription = "Subscription"
	AggregateTypePayment      = "Payment"
)

// Event type constants
const (
	EventTypeSubscriptionStarted     = "SubscriptionStarted"
	EventTypeSubscriptionRenewed     = "SubscriptionRenewed"
	EventTypeSubscriptionCancelled   = "SubscriptionCancelled"
	EventTypeSubscriptionReactivated = "SubscriptionReactivated"
	EventTypeSubscriptionPlanChanged = "SubscriptionPlanChanged"
	EventTypeSubscriptionSuspended   = "SubscriptionSuspended"
	EventTypeSubscriptionResumed     = "SubscriptionResumed"
	EventTypeSubscriptionExpired     = "SubscriptionExpired"
	EventTypePaymentCompleted        = "PaymentCompleted"
	EventTypePaymentFailed           = "PaymentFailed"
)

// SubscriptionStartedEvent is raised when a vendor subscribes to a plan
type SubscriptionStartedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	PlanCode       string          `json:"plan_code"`
	Status         string          `json:"status"`
	BillingCycle   string          `json:"billing_cycle"`
	Amount         decimal.Decimal `json:"amount"`
	PeriodEnd      time.Time       `json:"period_end"`
}

// NewSubscriptionStartedEvent creates a new SubscriptionStartedEvent
func NewSubscriptionStartedEvent(sub *Subscription) *SubscriptionStartedEvent {
	return &SubscriptionStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionStarted, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:  sub.ID,
		VendorID:        sub.VendorID,
		PlanCode:        sub.PlanCode,
		Status:          sub.Status.String(),
		BillingCycle:    sub.BillingCycle.String(),
		Amount:          sub.Amount,
		PeriodEnd:       sub.CurrentPeriodEnd,
	}
}

// EventType returns the event type name
func (e *SubscriptionStartedEvent) EventType() string {
	return EventTypeSubscriptionStarted
}

// SubscriptionRenewedEvent is raised on every billing period rollover
type SubscriptionRenewedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	PlanCode       string          `json:"plan_code"`
	Amount         decimal.Decimal `json:"amount"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
}

// NewSubscriptionRenewedEvent creates a new SubscriptionRenewedEvent
func NewSubscriptionRenewedEvent(sub *Subscription) *SubscriptionRenewedEvent {
	return &SubscriptionRenewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionRenewed, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:  sub.ID,
		VendorID:        sub.VendorID,
		PlanCode:        sub.PlanCode,
		Amount:          sub.Amount,
		PeriodStart:     sub.CurrentPeriodStart,
		PeriodEnd:       sub.CurrentPeriodEnd,
	}
}

// EventType returns the event type name
func (e *SubscriptionRenewedEvent) EventType() string {
	return EventTypeSubscriptionRenewed
}

// SubscriptionCancelledEvent is raised when a vendor cancels
type SubscriptionCancelledEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	VendorID       uuid.UUID  `json:"vendor_id"`
	PlanCode       string     `json:"plan_code"`
	Reason         string     `json:"reason"`
	Immediate      bool       `json:"immediate"`
	EndDate        *time.Time `json:"end_date"`
}

// NewSubscriptionCancelledEvent creates a new SubscriptionCancelledEvent
func NewSubscriptionCancelledEvent(sub *Subscription, immediate bool) *SubscriptionCancelledEvent {
	return &SubscriptionCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionCancelled, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:  sub.ID,
		VendorID:        sub.VendorID,
		PlanCode:        sub.PlanCode,
		Reason:          sub.CancellationReason,
		Immediate:       immediate,
		EndDate:         sub.EndDate,
	}
}

// EventType returns the event type name
func (e *SubscriptionCancelledEvent) EventType() string {
	return EventTypeSubscriptionCancelled
}

// SubscriptionReactivatedEvent is raised when a cancelled subscription is restored
type SubscriptionReactivatedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	VendorID       uuid.UUID `json:"vendor_id"`
	PlanCode       string    `json:"plan_code"`
	PeriodEnd      time.Time `json:"period_end"`
}

// NewSubscriptionReactivatedEvent creates a new SubscriptionReactivatedEvent
func NewSubscriptionReactivatedEvent(sub *Subscription) *SubscriptionReactivatedEvent {
	return &SubscriptionReactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionReactivated, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:  sub.ID,
		VendorID:        sub.VendorID,
		PlanCode:        sub.PlanCode,
		PeriodEnd:       sub.CurrentPeriodEnd,
	}
}

// EventType returns the event type name
func (e *SubscriptionReactivatedEvent) EventType() string {
	return EventTypeSubscriptionReactivated
}

// SubscriptionPlanChangedEvent is raised when a subscription moves to another plan
type SubscriptionPlanChangedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	OldPlanCode    string          `json:"old_plan_code"`
	NewPlanCode    string          `json:"new_plan_code"`
	NewAmount      decimal.Decimal `json:"new_amount"`
}

// NewSubscriptionPlanChangedEvent creates a new SubscriptionPlanChangedEvent
func NewSubscriptionPlanChangedEvent(sub *Subscription, oldPlanCode string) *SubscriptionPlanChangedEvent {
	return &SubscriptionPlanChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionPlanChanged, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:  sub.ID,
		VendorID:        sub.VendorID,
		OldPlanCode:     oldPlanCode,
		NewPlanCode:     sub.PlanCode,
		NewAmount:       sub.Amount,
	}
}

// EventType returns the event type name
func (e *SubscriptionPlanChangedEvent) EventType() string {
	return EventTypeSubscriptionPlanChanged
}

// SubscriptionSuspendedEvent is raised when access is paused
type SubscriptionSuspendedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	VendorID       uuid.UUID `json:"vendor_id"`
	Reason         string    `json:"reason"`
}

// NewSubscriptionSuspendedEvent creates a new SubscriptionSuspendedEvent
func NewSubscriptionSuspendedEvent(sub *Subscription, reason string) *SubscriptionSuspendedEvent {
	return &SubscriptionSuspendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionSuspended, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:  sub.ID,
		VendorID:        sub.VendorID,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *SubscriptionSuspendedEvent) EventType() string {
	return EventTypeSubscriptionSuspended
}

// SubscriptionResumedEvent is raised when a suspension is lifted
type SubscriptionResumedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	VendorID       uuid.UUID `json:"vendor_id"`
}

// NewSubscriptionResumedEvent creates a new SubscriptionResumedEvent
func NewSubscriptionResumedEvent(sub *Subscription) *SubscriptionResumedEvent {
	return &SubscriptionResumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionResumed, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:  sub.ID,
		VendorID:        sub.VendorID,
	}
}

// EventType returns the event type name
func (e *SubscriptionResumedEvent) EventType() string {
	return EventTypeSubscriptionResumed
}

// SubscriptionExpiredEvent is raised by the billing sweep when a period lapses unrenewed
type SubscriptionExpiredEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	VendorID       uuid.UUID  `json:"vendor_id"`
	PlanCode       string     `json:"plan_code"`
	EndDate        *time.Time `json:"end_date"`
}

// NewSubscriptionExpiredEvent creates a new SubscriptionExpiredEvent
func NewSubscriptionExpiredEvent(sub *Subscription) *SubscriptionExpiredEvent {
	return &SubscriptionExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionExpired, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:  sub.ID,
		VendorID:        sub.VendorID,
		PlanCode:        sub.PlanCode,
		EndDate:         sub.EndDate,
	}
}

// EventType returns the event type name
func (e *SubscriptionExpiredEvent) EventType() string {
	return EventTypeSubscriptionExpired
}

// PaymentCompletedEvent is raised when the gateway confirms a charge
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	TransactionID  string          `json:"transaction_id"`
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(payment *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, AggregateTypePayment, payment.ID, payment.TenantID),
		PaymentID:       payment.ID,
		SubscriptionID:  payment.SubscriptionID,
		VendorID:        payment.VendorID,
		Amount:          payment.Amount,
		Currency:        string(payment.Currency),
		TransactionID:   payment.TransactionID,
	}
}

// EventType returns the event type name
func (e *PaymentCompletedEvent) EventType() string {
	return EventTypePaymentCompleted
}

// PaymentFailedEvent is raised when the gateway declines a charge
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	Amount         decimal.Decimal `json:"amount"`
	FailureReason  string          `json:"failure_reason"`
	RetryCount     int             `json:"retry_count"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(payment *Payment) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypePayment, payment.ID, payment.TenantID),
		PaymentID:       payment.ID,
		SubscriptionID:  payment.SubscriptionID,
		VendorID:        payment.VendorID,
		Amount:          payment.Amount,
		FailureReason:   payment.FailureReason,
		RetryCount:      payment.RetryCount,
	}
}

// EventType returns the event type name
func (e *PaymentFailedEvent) EventType() string {
	return EventTypePaymentFailed
}

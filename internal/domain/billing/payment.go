package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MaxPaymentRetries bounds how often a failed charge may be re-attempted
const MaxPaymentRetries = 3

// PaymentStatus represents the state of a subscription charge
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// AllPaymentStatuses contains all valid payment statuses
var AllPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusCancelled,
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid returns true if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if transitioning to the target status is allowed.
// A completed payment is immutable except for the refund transition.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusCompleted ||
			target == PaymentStatusFailed ||
			target == PaymentStatusCancelled
	case PaymentStatusFailed:
		return target == PaymentStatusPending
	case PaymentStatusCompleted:
		return target == PaymentStatusRefunded
	case PaymentStatusRefunded, PaymentStatusCancelled:
		return false
	}
	return false
}

// IsTerminal returns true if no transitions leave this status
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusRefunded || s == PaymentStatusCancelled
}

// Payment is a single charge attempt against a subscription for one billing
// period. The gateway decides the outcome; a failed charge may be re-queued
// up to MaxPaymentRetries times before the subscription gets suspended.
type Payment struct {
	shared.TenantAggregateRoot
	SubscriptionID     uuid.UUID `gorm:"type:uuid;not null;index"`
	VendorID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount             decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	Currency           valueobject.Currency
	Status             PaymentStatus `gorm:"type:varchar(20);not null;index"`
	Method             string        `gorm:"type:varchar(50)"`
	TransactionID      string        `gorm:"type:varchar(100);index"`
	BillingPeriodStart time.Time
	BillingPeriodEnd   time.Time
	FailureReason      string `gorm:"type:varchar(500)"`
	RetryCount         int    `gorm:"not null;default:0"`
	PaidAt             *time.Time
}

// NewPayment creates a pending charge for one billing period
func NewPayment(tenantID, subscriptionID, vendorID uuid.UUID, amount valueobject.Money, method string, periodStart, periodEnd time.Time) (*Payment, error) {
	if subscriptionID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Subscription ID cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Vendor ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount cannot be negative")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Billing period end must be after period start")
	}

	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SubscriptionID:      subscriptionID,
		VendorID:            vendorID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		Status:              PaymentStatusPending,
		Method:              method,
		BillingPeriodStart:  periodStart,
		BillingPeriodEnd:    periodEnd,
	}, nil
}

func (p *Payment) transitionTo(target PaymentStatus) error {
	if !p.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(
			fmt.Sprintf("Payment %s", p.ID), p.Status.String(), target.String())
	}
	p.Status = target
	return nil
}

// MarkCompleted records a successful gateway charge
func (p *Payment) MarkCompleted(transactionID string, now time.Time) error {
	if err := p.transitionTo(PaymentStatusCompleted); err != nil {
		return err
	}
	p.TransactionID = transactionID
	p.FailureReason = ""
	p.PaidAt = &now
	p.Touch(now)

	p.AddDomainEvent(NewPaymentCompletedEvent(p))
	return nil
}

// MarkFailed records a declined or errored gateway charge
func (p *Payment) MarkFailed(reason string, now time.Time) error {
	if err := p.transitionTo(PaymentStatusFailed); err != nil {
		return err
	}
	p.FailureReason = reason
	p.Touch(now)

	p.AddDomainEvent(NewPaymentFailedEvent(p))
	return nil
}

// Retry re-queues a failed charge for another gateway attempt. The retry
// count is bounded; exhausted payments stay FAILED.
func (p *Payment) Retry(now time.Time) error {
	if p.Status != PaymentStatusFailed {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only failed payments can be retried, current status is %s", p.Status))
	}
	if p.RetryCount >= MaxPaymentRetries {
		return shared.NewDomainError("LIMIT_EXCEEDED",
			fmt.Sprintf("Payment %s has exhausted its %d retries", p.ID, MaxPaymentRetries))
	}

	p.RetryCount++
	p.Status = PaymentStatusPending
	p.FailureReason = ""
	p.Touch(now)
	return nil
}

// Refund reverses a completed charge
func (p *Payment) Refund(now time.Time) error {
	if err := p.transitionTo(PaymentStatusRefunded); err != nil {
		return err
	}
	p.Touch(now)
	return nil
}

// Cancel withdraws a pending charge before the gateway processes it
func (p *Payment) Cancel(now time.Time) error {
	if err := p.transitionTo(PaymentStatusCancelled); err != nil {
		return err
	}
	p.Touch(now)
	return nil
}

// CanRetry reports whether another retry attempt is permitted
func (p *Payment) CanRetry() bool {
	return p.Status == PaymentStatusFailed && p.RetryCount < MaxPaymentRetries
}

// IsCompleted returns true once the charge succeeded
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// AmountMoney returns the charge amount as a money value
func (p *Payment) AmountMoney() valueobject.Money {
	money, err := valueobject.NewMoney(p.Amount, p.Currency)
	if err != nil {
		return valueobject.Zero(p.Currency)
	}
	return money
}

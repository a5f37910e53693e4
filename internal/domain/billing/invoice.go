package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of a billing invoice
type InvoiceStatus string

const (
	InvoiceStatusIssued  InvoiceStatus = "ISSUED"  // Awaiting payment
	InvoiceStatusPaid    InvoiceStatus = "PAID"    // Settled in full
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE" // Past due date, unpaid
	InvoiceStatusVoid    InvoiceStatus = "VOID"    // Withdrawn, no payment expected
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

// Invoice is the billing document issued to a vendor for one subscription
// period. Amounts are snapshotted from the subscription at issue time.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber  string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;index"`
	VendorID       uuid.UUID `gorm:"type:uuid;not null;index"`
	PaymentID      *uuid.UUID `gorm:"type:uuid"`
	Amount         decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	Currency       valueobject.Currency
	Status         InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	Description    string        `gorm:"type:varchar(500)"`
	PeriodStart    time.Time
	PeriodEnd      time.Time
	IssuedAt       time.Time
	DueAt          time.Time
	PaidAt         *time.Time
	VoidedAt       *time.Time
	VoidReason     string `gorm:"type:varchar(500)"`
}

// NewInvoice issues an invoice for one billing period, due at period end
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, sub *Subscription, now time.Time) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice number cannot be empty")
	}
	if sub == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Subscription is required")
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		SubscriptionID:      sub.ID,
		VendorID:            sub.VendorID,
		Amount:              sub.Amount,
		Currency:            sub.Currency,
		Status:              InvoiceStatusIssued,
		Description:         fmt.Sprintf("%s plan, %s billing", sub.PlanCode, sub.BillingCycle),
		PeriodStart:         sub.CurrentPeriodStart,
		PeriodEnd:           sub.CurrentPeriodEnd,
		IssuedAt:            now,
		DueAt:               sub.CurrentPeriodEnd,
	}, nil
}

// MarkPaid settles the invoice against a completed payment
func (i *Invoice) MarkPaid(paymentID uuid.UUID, now time.Time) error {
	if i.Status != InvoiceStatusIssued && i.Status != InvoiceStatusOverdue {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot pay a %s invoice", i.Status))
	}

	i.Status = InvoiceStatusPaid
	i.PaymentID = &paymentID
	i.PaidAt = &now
	i.Touch(now)
	return nil
}

// MarkOverdue flags an unpaid invoice past its due date
func (i *Invoice) MarkOverdue(now time.Time) error {
	if i.Status != InvoiceStatusIssued {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark a %s invoice overdue", i.Status))
	}
	if now.Before(i.DueAt) {
		return shared.NewDomainError("VALIDATION_ERROR", "Invoice is not yet past its due date")
	}

	i.Status = InvoiceStatusOverdue
	i.Touch(now)
	return nil
}

// Void withdraws the invoice, for example after an immediate cancellation
func (i *Invoice) Void(reason string, now time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot void a paid invoice")
	}
	if i.Status == InvoiceStatusVoid {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already void")
	}

	i.Status = InvoiceStatusVoid
	i.VoidedAt = &now
	i.VoidReason = reason
	i.Touch(now)
	return nil
}

// IsOutstanding returns true while payment is still expected
func (i *Invoice) IsOutstanding() bool {
	return i.Status == InvoiceStatusIssued || i.Status == InvoiceStatusOverdue
}

// AmountMoney returns the invoiced amount as a money value
func (i *Invoice) AmountMoney() valueobject.Money {
	money, err := valueobject.NewMoney(i.Amount, i.Currency)
	if err != nil {
		return valueobject.Zero(i.Currency)
	}
	return money
}

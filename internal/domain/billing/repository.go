package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// PlanRepository defines persistence for subscription plans
type PlanRepository interface {
	// FindByID retrieves a plan by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// FindByCode retrieves a plan by its unique code
	FindByCode(ctx context.Context, code string) (*Plan, error)

	// FindAll retrieves all plans ordered by sort order
	FindAll(ctx context.Context) ([]*Plan, error)

	// FindActive retrieves plans open for new subscriptions
	FindActive(ctx context.Context) ([]*Plan, error)

	// Save persists a plan
	Save(ctx context.Context, plan *Plan) error

	// ExistsByCode checks if a plan code is already taken
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// SubscriptionRepository defines persistence for subscriptions
type SubscriptionRepository interface {
	// FindByID retrieves a subscription by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// FindByIDForTenant retrieves a subscription scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error)

	// FindByVendor retrieves all subscriptions a vendor has ever held
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) ([]*Subscription, error)

	// FindCurrentByVendor retrieves the vendor's TRIAL or ACTIVE subscription,
	// or a not-found error when the vendor has none
	FindCurrentByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*Subscription, error)

	// FindByStatus retrieves subscriptions in a given status
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status SubscriptionStatus, filter shared.Filter) ([]*Subscription, error)

	// FindDueForRenewal retrieves auto-renewing subscriptions whose next
	// billing date is at or before the cutoff, across all tenants
	FindDueForRenewal(ctx context.Context, cutoff time.Time, limit int) ([]*Subscription, error)

	// FindLapsed retrieves subscriptions whose period ended at or before the
	// cutoff without renewal and which are still TRIAL or ACTIVE
	FindLapsed(ctx context.Context, cutoff time.Time, limit int) ([]*Subscription, error)

	// Save persists a subscription
	Save(ctx context.Context, sub *Subscription) error

	// SaveWithLock persists a subscription with optimistic concurrency control
	SaveWithLock(ctx context.Context, sub *Subscription) error

	// SaveWithLockAndEvents saves with optimistic locking and persists domain
	// events to the outbox in the same transaction
	SaveWithLockAndEvents(ctx context.Context, sub *Subscription, events []shared.DomainEvent) error

	// CountByStatus counts subscriptions per status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[SubscriptionStatus]int64, error)
}

// PaymentRepository defines persistence for subscription payments
type PaymentRepository interface {
	// FindByID retrieves a payment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIDForTenant retrieves a payment scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindBySubscription retrieves a subscription's payments, newest first
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]*Payment, error)

	// FindRetryable retrieves failed payments that still have retries left
	// and last failed before the cutoff
	FindRetryable(ctx context.Context, failedBefore time.Time, limit int) ([]*Payment, error)

	// Save persists a payment
	Save(ctx context.Context, payment *Payment) error

	// SaveWithLockAndEvents saves with optimistic locking and persists domain
	// events to the outbox in the same transaction
	SaveWithLockAndEvents(ctx context.Context, payment *Payment, events []shared.DomainEvent) error
}

// UsageRecordRepository defines persistence for per-period usage counters
type UsageRecordRepository interface {
	// FindForPeriod retrieves the counter for one feature in one period,
	// or a not-found error when tracking has not started yet
	FindForPeriod(ctx context.Context, tenantID, subscriptionID uuid.UUID, featureName string, periodStart time.Time) (*UsageRecord, error)

	// FindBySubscription retrieves all counters for a subscription's current period
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, periodStart time.Time) ([]*UsageRecord, error)

	// Save persists a usage record
	Save(ctx context.Context, record *UsageRecord) error

	// SaveWithLock persists a usage record with optimistic concurrency control,
	// making the read-check-increment sequence atomic
	SaveWithLock(ctx context.Context, record *UsageRecord) error

	// DeleteOlderThan removes counters from periods that ended before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// InvoiceRepository defines persistence for billing invoices
type InvoiceRepository interface {
	// FindByID retrieves an invoice by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber retrieves an invoice by its unique number
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindBySubscription retrieves a subscription's invoices, newest first
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]*Invoice, error)

	// FindOutstanding retrieves unpaid invoices for a vendor
	FindOutstanding(ctx context.Context, tenantID, vendorID uuid.UUID) ([]*Invoice, error)

	// Save persists an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// GenerateInvoiceNumber produces the next sequential invoice number.
	// Numbers are globally unique, so the sequence spans tenants.
	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

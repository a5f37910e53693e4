package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
)

const (
	// usageTrackAttempts bounds the optimistic retry loop when concurrent
	// usage reports collide on the same counter
	usageTrackAttempts = 3

	// renewalPaymentMethod is stamped on charges the renewal sweep initiates
	renewalPaymentMethod = "card_on_file"
)

// SubscriptionService handles vendor subscription business operations:
// enrollment, billing period rollover, cancellation, plan changes and
// metered feature usage.
type SubscriptionService struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	paymentRepo      billing.PaymentRepository
	invoiceRepo      billing.InvoiceRepository
	usageRepo        billing.UsageRecordRepository
	vendorRepo       partner.VendorRepository
	gateway          billing.PaymentGateway
	txManager        shared.TransactionManager
	clock            shared.Clock
	eventPublisher   shared.EventPublisher
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	paymentRepo billing.PaymentRepository,
	invoiceRepo billing.InvoiceRepository,
	usageRepo billing.UsageRecordRepository,
	vendorRepo partner.VendorRepository,
	gateway billing.PaymentGateway,
	txManager shared.TransactionManager,
	clock shared.Clock,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		paymentRepo:      paymentRepo,
		invoiceRepo:      invoiceRepo,
		usageRepo:        usageRepo,
		vendorRepo:       vendorRepo,
		gateway:          gateway,
		txManager:        txManager,
		clock:            clock,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SubscriptionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Subscribe enrolls a vendor in a plan. A vendor can hold at most one TRIAL
// or ACTIVE subscription at a time.
func (s *SubscriptionService) Subscribe(ctx context.Context, tenantID uuid.UUID, req SubscribeRequest) (*SubscriptionResponse, error) {
	cycle := billing.BillingCycle(strings.ToUpper(req.BillingCycle))
	if !cycle.IsValid() {
		return nil, shared.NewValidationError("Unknown billing cycle %q", req.BillingCycle)
	}

	if _, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, req.VendorID); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.FindByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	existing, err := s.subscriptionRepo.FindCurrentByVendor(ctx, tenantID, req.VendorID)
	if err == nil {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Vendor already has a %s subscription", existing.Status))
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	sub, err := billing.NewSubscription(tenantID, req.VendorID, plan, cycle, req.StartTrial, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
		return nil, err
	}

	// Events are delivered in-process after the save; a delivery failure
	// does not fail the enrollment
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, sub.GetDomainEvents()...)
		sub.ClearDomainEvents()
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// GetByID retrieves a subscription by ID
func (s *SubscriptionService) GetByID(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}
	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// GetCurrentForVendor retrieves the vendor's TRIAL or ACTIVE subscription
func (s *SubscriptionService) GetCurrentForVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindCurrentByVendor(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}
	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// ListByVendor retrieves every subscription a vendor has ever held
func (s *SubscriptionService) ListByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) ([]SubscriptionResponse, error) {
	subs, err := s.subscriptionRepo.FindByVendor(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponses(subs), nil
}

// ListByStatus retrieves subscriptions in a given status with pagination
func (s *SubscriptionService) ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, filter SubscriptionListFilter) ([]SubscriptionResponse, int64, error) {
	subStatus := billing.SubscriptionStatus(strings.ToUpper(status))
	if !subStatus.IsValid() {
		return nil, 0, shared.NewValidationError("Unknown subscription status %q", status)
	}

	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}

	subs, err := s.subscriptionRepo.FindByStatus(ctx, tenantID, subStatus, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	counts, err := s.subscriptionRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}

	return ToSubscriptionResponses(subs), counts[subStatus], nil
}

// GetStatusSummary retrieves subscription counts by status for a tenant
func (s *SubscriptionService) GetStatusSummary(ctx context.Context, tenantID uuid.UUID) (*SubscriptionStatusSummary, error) {
	counts, err := s.subscriptionRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &SubscriptionStatusSummary{
		Trial:     counts[billing.SubscriptionStatusTrial],
		Active:    counts[billing.SubscriptionStatusActive],
		Suspended: counts[billing.SubscriptionStatusSuspended],
		Cancelled: counts[billing.SubscriptionStatusCancelled],
		Expired:   counts[billing.SubscriptionStatusExpired],
	}
	summary.Total = summary.Trial + summary.Active + summary.Suspended + summary.Cancelled + summary.Expired
	return summary, nil
}

// RecordPayment records a successful out-of-band charge for the upcoming
// period and rolls the subscription into it, issuing a paid invoice. The
// payment gateway callback processor is the usual caller.
func (s *SubscriptionService) RecordPayment(ctx context.Context, tenantID, subscriptionID uuid.UUID, req RecordPaymentRequest) (*RenewalResponse, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	periodStart := sub.CurrentPeriodEnd
	periodEnd := periodStart.Add(sub.BillingCycle.PeriodLength())

	payment, err := billing.NewPayment(tenantID, sub.ID, sub.VendorID,
		sub.NextChargeAmount(), req.Method, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if err := payment.MarkCompleted(req.TransactionID, now); err != nil {
		return nil, err
	}

	invoice, err := s.settleRenewal(ctx, sub, payment, now)
	if err != nil {
		return nil, err
	}

	return s.renewalResponse(sub, payment, invoice), nil
}

// RunRenewals charges every auto-renewing subscription whose billing date
// has arrived, across all tenants. Declined charges are recorded as FAILED
// payments for the retry sweep; per-subscription failures do not stop the
// run. Returns the number of subscriptions successfully renewed.
func (s *SubscriptionService) RunRenewals(ctx context.Context, batchSize int) (int, error) {
	now := s.clock.Now()
	subs, err := s.subscriptionRepo.FindDueForRenewal(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	renewed := 0
	var errs []error
	for _, sub := range subs {
		ok, err := s.renewOne(ctx, sub, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			continue
		}
		if ok {
			renewed++
		}
	}
	return renewed, errors.Join(errs...)
}

// renewOne charges one subscription and reports whether the renewal settled.
// A declined charge is recorded as a FAILED payment and returns false with
// no error; the retry sweep takes it from there.
func (s *SubscriptionService) renewOne(ctx context.Context, sub *billing.Subscription, now time.Time) (bool, error) {
	periodStart := sub.CurrentPeriodEnd
	periodEnd := periodStart.Add(sub.BillingCycle.PeriodLength())

	payment, err := billing.NewPayment(sub.TenantID, sub.ID, sub.VendorID,
		sub.NextChargeAmount(), renewalPaymentMethod, periodStart, periodEnd)
	if err != nil {
		return false, err
	}

	charge, err := s.gateway.Charge(ctx, billing.ChargeRequest{
		PaymentID:      payment.ID,
		SubscriptionID: sub.ID,
		VendorID:       sub.VendorID,
		Amount:         payment.AmountMoney(),
		Method:         payment.Method,
		Description:    fmt.Sprintf("%s plan renewal", sub.PlanCode),
	})
	if err != nil {
		// Gateway unreachable: leave the subscription untouched so the next
		// sweep picks it up again
		return false, err
	}

	if !charge.Succeeded {
		if err := payment.MarkFailed(charge.FailureReason, now); err != nil {
			return false, err
		}
		events := payment.GetDomainEvents()
		payment.ClearDomainEvents()
		return false, s.paymentRepo.SaveWithLockAndEvents(ctx, payment, events)
	}

	if err := payment.MarkCompleted(charge.TransactionID, now); err != nil {
		return false, err
	}
	if _, err := s.settleRenewal(ctx, sub, payment, now); err != nil {
		return false, err
	}
	return true, nil
}

// settleRenewal rolls the subscription into the period the completed payment
// covers and issues a paid invoice for it, persisting all three aggregates
// and their events in one transaction.
func (s *SubscriptionService) settleRenewal(ctx context.Context, sub *billing.Subscription, payment *billing.Payment, now time.Time) (*billing.Invoice, error) {
	if err := sub.RollPeriod(now); err != nil {
		return nil, err
	}

	paymentEvents := payment.GetDomainEvents()
	payment.ClearDomainEvents()
	subEvents := sub.GetDomainEvents()
	sub.ClearDomainEvents()

	var invoice *billing.Invoice
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(txCtx, sub.TenantID)
		if err != nil {
			return err
		}
		invoice, err = billing.NewInvoice(sub.TenantID, invoiceNumber, sub, now)
		if err != nil {
			return err
		}
		if err := invoice.MarkPaid(payment.ID, now); err != nil {
			return err
		}

		if err := s.paymentRepo.SaveWithLockAndEvents(txCtx, payment, paymentEvents); err != nil {
			return err
		}
		if err := s.invoiceRepo.Save(txCtx, invoice); err != nil {
			return err
		}
		return s.subscriptionRepo.SaveWithLockAndEvents(txCtx, sub, subEvents)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// RetryPayment re-attempts a failed charge. Only FAILED payments with
// retries left qualify; a gateway outage leaves everything untouched. On
// success the billing period rolls exactly as a renewal would, and a
// suspended subscription is resumed. On the final failed retry the
// subscription is suspended.
func (s *SubscriptionService) RetryPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*RenewalResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := payment.Retry(now); err != nil {
		return nil, err
	}

	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, payment.SubscriptionID)
	if err != nil {
		return nil, err
	}

	charge, err := s.gateway.Charge(ctx, billing.ChargeRequest{
		PaymentID:      payment.ID,
		SubscriptionID: sub.ID,
		VendorID:       payment.VendorID,
		Amount:         payment.AmountMoney(),
		Method:         payment.Method,
		Description:    fmt.Sprintf("%s plan renewal retry", sub.PlanCode),
	})
	if err != nil {
		return nil, err
	}

	if charge.Succeeded {
		if err := payment.MarkCompleted(charge.TransactionID, now); err != nil {
			return nil, err
		}
		if sub.Status == billing.SubscriptionStatusSuspended {
			if err := sub.Resume(now); err != nil {
				return nil, err
			}
		}
		invoice, err := s.settleRenewal(ctx, sub, payment, now)
		if err != nil {
			return nil, err
		}
		return s.renewalResponse(sub, payment, invoice), nil
	}

	if err := payment.MarkFailed(charge.FailureReason, now); err != nil {
		return nil, err
	}

	suspended := false
	if !payment.CanRetry() && sub.Status == billing.SubscriptionStatusActive {
		if err := sub.Suspend("Payment retries exhausted", now); err != nil {
			return nil, err
		}
		suspended = true
	}

	paymentEvents := payment.GetDomainEvents()
	payment.ClearDomainEvents()
	subEvents := sub.GetDomainEvents()
	sub.ClearDomainEvents()

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.paymentRepo.SaveWithLockAndEvents(txCtx, payment, paymentEvents); err != nil {
			return err
		}
		if !suspended {
			return nil
		}
		return s.subscriptionRepo.SaveWithLockAndEvents(txCtx, sub, subEvents)
	})
	if err != nil {
		return nil, err
	}

	return s.renewalResponse(sub, payment, nil), nil
}

// RunPaymentRetries re-attempts failed payments that still have retries left,
// across all tenants. A payment is only picked up again once backoff has
// passed since its last failure. Returns the number of payments recovered.
func (s *SubscriptionService) RunPaymentRetries(ctx context.Context, backoff time.Duration, batchSize int) (int, error) {
	payments, err := s.paymentRepo.FindRetryable(ctx, s.clock.Now().Add(-backoff), batchSize)
	if err != nil {
		return 0, err
	}

	recovered := 0
	var errs []error
	for _, payment := range payments {
		result, err := s.RetryPayment(ctx, payment.TenantID, payment.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("payment %s: %w", payment.ID, err))
			continue
		}
		if result.Invoice != nil {
			recovered++
		}
	}
	return recovered, errors.Join(errs...)
}

// Cancel cancels a subscription. Immediate cancellation cuts access now and
// voids outstanding invoices; otherwise access runs to the period end.
func (s *SubscriptionService) Cancel(ctx context.Context, tenantID, subscriptionID uuid.UUID, req CancelSubscriptionRequest) (*SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := sub.Cancel(req.Reason, req.Immediate, now); err != nil {
		return nil, err
	}

	events := sub.GetDomainEvents()
	sub.ClearDomainEvents()

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if req.Immediate {
			invoices, err := s.invoiceRepo.FindOutstanding(txCtx, tenantID, sub.VendorID)
			if err != nil {
				return err
			}
			for _, invoice := range invoices {
				if invoice.SubscriptionID != sub.ID {
					continue
				}
				if err := invoice.Void("Subscription cancelled", now); err != nil {
					return err
				}
				if err := s.invoiceRepo.Save(txCtx, invoice); err != nil {
					return err
				}
			}
		}
		return s.subscriptionRepo.SaveWithLockAndEvents(txCtx, sub, events)
	})
	if err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// Reactivate restores a cancelled subscription whose access window is still
// open
func (s *SubscriptionService) Reactivate(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := sub.Reactivate(s.clock.Now()); err != nil {
		return nil, err
	}

	events := sub.GetDomainEvents()
	sub.ClearDomainEvents()

	if err := s.subscriptionRepo.SaveWithLockAndEvents(ctx, sub, events); err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// ChangePlan switches a subscription to a different plan, either repricing
// immediately or scheduling the switch for the next period rollover
func (s *SubscriptionService) ChangePlan(ctx context.Context, tenantID, subscriptionID uuid.UUID, req ChangePlanRequest) (*SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.FindByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if req.Immediate {
		err = sub.ChangePlan(plan, now)
	} else {
		err = sub.SchedulePlanChange(plan, now)
	}
	if err != nil {
		return nil, err
	}

	events := sub.GetDomainEvents()
	sub.ClearDomainEvents()

	if err := s.subscriptionRepo.SaveWithLockAndEvents(ctx, sub, events); err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// Suspend pauses a subscription, typically for payment or policy reasons
func (s *SubscriptionService) Suspend(ctx context.Context, tenantID, subscriptionID uuid.UUID, req SuspendSubscriptionRequest) (*SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := sub.Suspend(req.Reason, s.clock.Now()); err != nil {
		return nil, err
	}

	events := sub.GetDomainEvents()
	sub.ClearDomainEvents()

	if err := s.subscriptionRepo.SaveWithLockAndEvents(ctx, sub, events); err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// Resume lifts a suspension and restores access
func (s *SubscriptionService) Resume(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := sub.Resume(s.clock.Now()); err != nil {
		return nil, err
	}

	events := sub.GetDomainEvents()
	sub.ClearDomainEvents()

	if err := s.subscriptionRepo.SaveWithLockAndEvents(ctx, sub, events); err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// TrackUsage reports consumption of a metered plan feature against the
// subscription's current period. A rejected increment never moves the
// counter, so callers can safely retry the same report. Concurrent reports
// are serialized through optimistic locking with a bounded retry loop.
func (s *SubscriptionService) TrackUsage(ctx context.Context, tenantID, subscriptionID uuid.UUID, req TrackUsageRequest) (*billing.TrackResult, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !sub.IsActiveAt(now) {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot track usage on a %s subscription", sub.Status))
	}

	plan, err := s.planRepo.FindByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	limit := plan.UsageLimit(req.FeatureName)

	var result *billing.TrackResult
	for attempt := 0; attempt < usageTrackAttempts; attempt++ {
		result = nil
		err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
			record, err := s.usageRepo.FindForPeriod(txCtx, tenantID, sub.ID, req.FeatureName, sub.CurrentPeriodStart)
			created := false
			if err != nil {
				if !shared.IsNotFound(err) {
					return err
				}
				record, err = billing.NewUsageRecord(tenantID, sub.ID, sub.VendorID,
					req.FeatureName, limit, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
				if err != nil {
					return err
				}
				created = true
			}

			tracked, err := record.Track(req.Increment, now)
			if err != nil {
				return err
			}
			result = &tracked
			if !tracked.Allowed {
				// The rejected increment did not move the counter, nothing to save
				return nil
			}

			if created {
				return s.usageRepo.Save(txCtx, record)
			}
			return s.usageRepo.SaveWithLock(txCtx, record)
		})
		if err == nil {
			return result, nil
		}
		if !isWriteConflict(err) {
			return nil, err
		}
	}

	return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
		fmt.Sprintf("Usage tracking for feature %s kept conflicting, try again", req.FeatureName))
}

// GetUsage retrieves all usage counters for the subscription's current period
func (s *SubscriptionService) GetUsage(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]UsageRecordResponse, error) {
	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}

	records, err := s.usageRepo.FindBySubscription(ctx, tenantID, sub.ID, sub.CurrentPeriodStart)
	if err != nil {
		return nil, err
	}
	return ToUsageRecordResponses(records), nil
}

// ListPayments retrieves a subscription's payment history, newest first
func (s *SubscriptionService) ListPayments(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindBySubscription(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}

// ListInvoices retrieves a subscription's invoices, newest first
func (s *SubscriptionService) ListInvoices(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindBySubscription(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponses(invoices), nil
}

// ExpireOverdue expires subscriptions whose period lapsed without renewal
// and whose grace window has passed, across all tenants. Returns the number
// of subscriptions expired.
func (s *SubscriptionService) ExpireOverdue(ctx context.Context, grace time.Duration, batchSize int) (int, error) {
	now := s.clock.Now()
	subs, err := s.subscriptionRepo.FindLapsed(ctx, now.Add(-grace), batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	var errs []error
	for _, sub := range subs {
		if err := sub.MarkExpired(now); err != nil {
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			continue
		}
		events := sub.GetDomainEvents()
		sub.ClearDomainEvents()
		if err := s.subscriptionRepo.SaveWithLockAndEvents(ctx, sub, events); err != nil {
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			continue
		}
		expired++
	}
	return expired, errors.Join(errs...)
}

// CleanupUsage removes usage counters from periods that ended before the
// retention window. Returns the number of counters removed.
func (s *SubscriptionService) CleanupUsage(ctx context.Context, retention time.Duration) (int64, error) {
	return s.usageRepo.DeleteOlderThan(ctx, s.clock.Now().Add(-retention))
}

func (s *SubscriptionService) renewalResponse(sub *billing.Subscription, payment *billing.Payment, invoice *billing.Invoice) *RenewalResponse {
	response := &RenewalResponse{
		Subscription: ToSubscriptionResponse(sub),
		Payment:      ToPaymentResponse(payment),
	}
	if invoice != nil {
		invoiceResponse := ToInvoiceResponse(invoice)
		response.Invoice = &invoiceResponse
	}
	return response
}

// isWriteConflict reports whether a save failed because another writer got
// there first, through either the version check or the unique period index
func isWriteConflict(err error) bool {
	switch shared.ErrorCode(err) {
	case "CONCURRENCY_CONFLICT", "CONFLICT", "ALREADY_EXISTS":
		return true
	}
	return false
}

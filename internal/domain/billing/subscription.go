package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the lifecycle state of a subscription
type SubscriptionStatus string

const (
	// SubscriptionStatusTrial means the vendor is inside the free trial window
	SubscriptionStatusTrial SubscriptionStatus = "TRIAL"

	// SubscriptionStatusActive means the subscription is paid up and current
	SubscriptionStatusActive SubscriptionStatus = "ACTIVE"

	// SubscriptionStatusSuspended means access is paused, usually after payment failure
	SubscriptionStatusSuspended SubscriptionStatus = "SUSPENDED"

	// SubscriptionStatusCancelled means the vendor cancelled; access may run to period end
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"

	// SubscriptionStatusExpired means the end date passed with no renewal (terminal)
	SubscriptionStatusExpired SubscriptionStatus = "EXPIRED"
)

// AllSubscriptionStatuses contains all valid subscription statuses
var AllSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusTrial,
	SubscriptionStatusActive,
	SubscriptionStatusSuspended,
	SubscriptionStatusCancelled,
	SubscriptionStatusExpired,
}

// String returns the string representation of SubscriptionStatus
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusSuspended,
		SubscriptionStatusCancelled, SubscriptionStatusExpired:
		return true
	}
	return false
}

// CanTransitionTo checks if transitioning to the target status is allowed.
// The CANCELLED to ACTIVE edge additionally requires the reactivation window
// to still be open, which Reactivate enforces.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	switch s {
	case SubscriptionStatusTrial:
		return target == SubscriptionStatusActive ||
			target == SubscriptionStatusCancelled ||
			target == SubscriptionStatusExpired
	case SubscriptionStatusActive:
		return target == SubscriptionStatusSuspended ||
			target == SubscriptionStatusCancelled ||
			target == SubscriptionStatusExpired
	case SubscriptionStatusSuspended:
		return target == SubscriptionStatusActive ||
			target == SubscriptionStatusCancelled
	case SubscriptionStatusCancelled:
		return target == SubscriptionStatusActive
	case SubscriptionStatusExpired:
		return false
	}
	return false
}

// IsTerminal returns true if no transitions leave this status
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusExpired
}

// Subscription is a vendor's enrollment in a plan. Exactly one subscription
// per vendor may be TRIAL or ACTIVE at a time; the repository enforces that
// uniqueness and the application service checks it before creating another.
//
// Plan code, amount and currency are snapshotted at subscribe time so later
// plan repricing never silently changes what a vendor is charged.
type Subscription struct {
	shared.TenantAggregateRoot
	VendorID           uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanID             uuid.UUID `gorm:"type:uuid;not null"`
	PlanCode           string    `gorm:"type:varchar(50);not null"`
	Status             SubscriptionStatus `gorm:"type:varchar(20);not null;index"`
	BillingCycle       BillingCycle       `gorm:"type:varchar(20);not null"`
	Amount             decimal.Decimal    `gorm:"type:decimal(19,4);not null"`
	Currency           valueobject.Currency
	StartDate          time.Time
	TrialEndDate       *time.Time
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time `gorm:"index"`
	NextBillingDate    *time.Time
	EndDate            *time.Time
	AutoRenew          bool `gorm:"not null;default:true"`
	CancelledAt        *time.Time
	CancellationReason string `gorm:"type:varchar(500)"`

	// A scheduled plan change waits here until the next period rollover
	PendingPlanID   *uuid.UUID      `gorm:"type:uuid"`
	PendingPlanCode string          `gorm:"type:varchar(50)"`
	PendingAmount   decimal.Decimal `gorm:"type:decimal(19,4)"`
	PendingCurrency valueobject.Currency
}

// NewSubscription enrolls a vendor in a plan. With startTrial and a plan that
// offers one, the subscription begins in TRIAL and the first period runs for
// the trial length; otherwise it begins ACTIVE with a full billing period.
func NewSubscription(tenantID, vendorID uuid.UUID, plan *Plan, cycle BillingCycle, startTrial bool, now time.Time) (*Subscription, error) {
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Vendor ID cannot be empty")
	}
	if plan == nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Plan is required")
	}
	if !plan.IsActive {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Plan %s is not open for new subscriptions", plan.Code))
	}
	if !cycle.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid billing cycle: %s", cycle))
	}

	price, err := plan.PriceFor(cycle)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VendorID:            vendorID,
		PlanID:              plan.ID,
		PlanCode:            plan.Code,
		BillingCycle:        cycle,
		Amount:              price.Amount(),
		Currency:            price.Currency(),
		StartDate:           now,
		CurrentPeriodStart:  now,
		AutoRenew:           true,
	}

	if startTrial && plan.HasTrial() {
		trialEnd := now.Add(time.Duration(plan.TrialDays) * 24 * time.Hour)
		sub.Status = SubscriptionStatusTrial
		sub.TrialEndDate = &trialEnd
		sub.CurrentPeriodEnd = trialEnd
	} else {
		sub.Status = SubscriptionStatusActive
		sub.CurrentPeriodEnd = now.Add(cycle.PeriodLength())
	}
	next := sub.CurrentPeriodEnd
	sub.NextBillingDate = &next

	sub.AddDomainEvent(NewSubscriptionStartedEvent(sub))
	return sub, nil
}

// RollPeriod advances the billing period after a successful charge. The new
// period starts exactly where the old one ended, so late renewal runs never
// shift the billing cadence. A trial becomes ACTIVE on its first rollover,
// and a scheduled plan change takes effect here.
func (s *Subscription) RollPeriod(now time.Time) error {
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusTrial {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot roll billing period for %s subscription", s.Status))
	}

	if s.Status == SubscriptionStatusTrial {
		s.Status = SubscriptionStatusActive
	}

	if s.PendingPlanID != nil {
		oldCode := s.PlanCode
		s.PlanID = *s.PendingPlanID
		s.PlanCode = s.PendingPlanCode
		s.Amount = s.PendingAmount
		s.Currency = s.PendingCurrency
		s.clearPendingPlanChange()
		s.AddDomainEvent(NewSubscriptionPlanChangedEvent(s, oldCode))
	}

	s.CurrentPeriodStart = s.CurrentPeriodEnd
	s.CurrentPeriodEnd = s.CurrentPeriodEnd.Add(s.BillingCycle.PeriodLength())
	next := s.CurrentPeriodEnd
	s.NextBillingDate = &next
	s.Touch(now)

	s.AddDomainEvent(NewSubscriptionRenewedEvent(s))
	return nil
}

// Cancel stops renewal. Immediate cancellation cuts access now; otherwise
// access runs until the end of the already-paid period.
func (s *Subscription) Cancel(reason string, immediate bool, now time.Time) error {
	if s.Status == SubscriptionStatusCancelled || s.Status == SubscriptionStatusExpired {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel a %s subscription", s.Status))
	}

	s.Status = SubscriptionStatusCancelled
	s.CancelledAt = &now
	s.CancellationReason = reason
	s.AutoRenew = false

	if immediate {
		end := now
		s.EndDate = &end
	} else {
		end := s.CurrentPeriodEnd
		s.EndDate = &end
	}
	s.NextBillingDate = nil
	s.Touch(now)

	s.AddDomainEvent(NewSubscriptionCancelledEvent(s, immediate))
	return nil
}

// Reactivate restores a cancelled subscription whose access window has not
// yet closed. Once the end date has passed the subscription is gone for good
// and the vendor must subscribe again.
func (s *Subscription) Reactivate(now time.Time) error {
	if s.Status != SubscriptionStatusCancelled {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only cancelled subscriptions can be reactivated, current status is %s", s.Status))
	}
	if s.EndDate != nil && s.EndDate.Before(now) {
		return shared.NewDomainError("EXPIRED",
			fmt.Sprintf("Subscription lapsed on %s and can no longer be reactivated", s.EndDate.Format(time.RFC3339)))
	}

	s.Status = SubscriptionStatusActive
	s.CancelledAt = nil
	s.CancellationReason = ""
	s.EndDate = nil
	s.AutoRenew = true
	next := s.CurrentPeriodEnd
	s.NextBillingDate = &next
	s.Touch(now)

	s.AddDomainEvent(NewSubscriptionReactivatedEvent(s))
	return nil
}

func (s *Subscription) validatePlanChange(plan *Plan) error {
	if plan == nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Plan is required")
	}
	if !plan.IsActive {
		return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Plan %s is not open for new subscriptions", plan.Code))
	}
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusTrial {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot change plan on a %s subscription", s.Status))
	}
	if plan.ID == s.PlanID {
		return shared.NewDomainError("VALIDATION_ERROR", "Subscription is already on this plan")
	}
	return nil
}

// ChangePlan switches the subscription to a different plan immediately,
// superseding any scheduled change. The new price applies to the current
// period's snapshot and is charged from the next rollover.
func (s *Subscription) ChangePlan(plan *Plan, now time.Time) error {
	if err := s.validatePlanChange(plan); err != nil {
		return err
	}
	price, err := plan.PriceFor(s.BillingCycle)
	if err != nil {
		return err
	}

	oldCode := s.PlanCode
	s.PlanID = plan.ID
	s.PlanCode = plan.Code
	s.Amount = price.Amount()
	s.Currency = price.Currency()
	s.clearPendingPlanChange()
	s.Touch(now)

	s.AddDomainEvent(NewSubscriptionPlanChangedEvent(s, oldCode))
	return nil
}

// SchedulePlanChange records a plan switch to be applied at the next period
// rollover. The current period keeps its snapshotted price; the new plan
// takes over the moment the period rolls.
func (s *Subscription) SchedulePlanChange(plan *Plan, now time.Time) error {
	if err := s.validatePlanChange(plan); err != nil {
		return err
	}
	price, err := plan.PriceFor(s.BillingCycle)
	if err != nil {
		return err
	}

	id := plan.ID
	s.PendingPlanID = &id
	s.PendingPlanCode = plan.Code
	s.PendingAmount = price.Amount()
	s.PendingCurrency = price.Currency()
	s.Touch(now)
	return nil
}

// HasPendingPlanChange reports whether a plan switch awaits the next rollover
func (s *Subscription) HasPendingPlanChange() bool {
	return s.PendingPlanID != nil
}

func (s *Subscription) clearPendingPlanChange() {
	s.PendingPlanID = nil
	s.PendingPlanCode = ""
	s.PendingAmount = decimal.Decimal{}
	s.PendingCurrency = ""
}

// Suspend pauses an active subscription, typically after repeated payment failures
func (s *Subscription) Suspend(reason string, now time.Time) error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only active subscriptions can be suspended, current status is %s", s.Status))
	}

	s.Status = SubscriptionStatusSuspended
	s.Touch(now)

	s.AddDomainEvent(NewSubscriptionSuspendedEvent(s, reason))
	return nil
}

// Resume lifts a suspension and restores access
func (s *Subscription) Resume(now time.Time) error {
	if s.Status != SubscriptionStatusSuspended {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only suspended subscriptions can be resumed, current status is %s", s.Status))
	}

	s.Status = SubscriptionStatusActive
	s.Touch(now)

	s.AddDomainEvent(NewSubscriptionResumedEvent(s))
	return nil
}

// MarkExpired moves a subscription whose period lapsed without renewal to the
// terminal EXPIRED state. Invoked by the billing sweep, never by vendors.
func (s *Subscription) MarkExpired(now time.Time) error {
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusTrial {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot expire a %s subscription", s.Status))
	}

	s.Status = SubscriptionStatusExpired
	end := now
	s.EndDate = &end
	s.AutoRenew = false
	s.NextBillingDate = nil
	s.Touch(now)

	s.AddDomainEvent(NewSubscriptionExpiredEvent(s))
	return nil
}

// IsActiveAt reports whether the vendor has access at the given instant.
// Cancelled-at-period-end subscriptions keep access until their end date.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	switch s.Status {
	case SubscriptionStatusTrial, SubscriptionStatusActive:
		return true
	case SubscriptionStatusCancelled:
		return s.EndDate != nil && !s.EndDate.Before(t)
	}
	return false
}

// InTrial returns true while the subscription is in its trial window
func (s *Subscription) InTrial() bool {
	return s.Status == SubscriptionStatusTrial
}

// IsCancelled returns true once the vendor has cancelled
func (s *Subscription) IsCancelled() bool {
	return s.Status == SubscriptionStatusCancelled
}

// RenewalDue reports whether a renewal charge is due at the given instant
func (s *Subscription) RenewalDue(t time.Time) bool {
	if !s.AutoRenew || s.NextBillingDate == nil {
		return false
	}
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusTrial {
		return false
	}
	return !s.NextBillingDate.After(t)
}

// PeriodContains reports whether the instant falls inside the current period
func (s *Subscription) PeriodContains(t time.Time) bool {
	return !t.Before(s.CurrentPeriodStart) && t.Before(s.CurrentPeriodEnd)
}

// AmountMoney returns the per-period charge as a money value
func (s *Subscription) AmountMoney() valueobject.Money {
	money, err := valueobject.NewMoney(s.Amount, s.Currency)
	if err != nil {
		return valueobject.Zero(s.Currency)
	}
	return money
}

// NextChargeAmount returns the amount the upcoming renewal will bill. A
// scheduled plan change takes effect at rollover, so its price applies to the
// next period even though the subscription still carries the old plan.
func (s *Subscription) NextChargeAmount() valueobject.Money {
	if s.PendingPlanID != nil {
		money, err := valueobject.NewMoney(s.PendingAmount, s.PendingCurrency)
		if err == nil {
			return money
		}
	}
	return s.AmountMoney()
}

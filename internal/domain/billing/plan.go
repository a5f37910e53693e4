package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BillingCycle represents the recurring period length of a subscription
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "MONTHLY"
	BillingCycleQuarterly BillingCycle = "QUARTERLY"
	BillingCycleAnnually  BillingCycle = "ANNUALLY"
	BillingCycleLifetime  BillingCycle = "LIFETIME"
)

// AllBillingCycles contains all valid billing cycles
var AllBillingCycles = []BillingCycle{
	BillingCycleMonthly,
	BillingCycleQuarterly,
	BillingCycleAnnually,
	BillingCycleLifetime,
}

// String returns the string representation of BillingCycle
func (c BillingCycle) String() string {
	return string(c)
}

// IsValid returns true if the billing cycle is valid
func (c BillingCycle) IsValid() bool {
	switch c {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleAnnually, BillingCycleLifetime:
		return true
	}
	return false
}

// Days returns the length of one billing period in days.
// LIFETIME is modelled as a hundred-year period rather than a special case.
func (c BillingCycle) Days() int {
	switch c {
	case BillingCycleMonthly:
		return 30
	case BillingCycleQuarterly:
		return 90
	case BillingCycleAnnually:
		return 365
	case BillingCycleLifetime:
		return 36500
	}
	return 0
}

// PeriodLength returns the length of one billing period as a duration
func (c BillingCycle) PeriodLength() time.Duration {
	return time.Duration(c.Days()) * 24 * time.Hour
}

// PlanTier labels the market positioning of a plan
type PlanTier string

const (
	PlanTierBasic      PlanTier = "BASIC"
	PlanTierPremium    PlanTier = "PREMIUM"
	PlanTierEnterprise PlanTier = "ENTERPRISE"
)

// AllPlanTiers contains all valid plan tiers
var AllPlanTiers = []PlanTier{PlanTierBasic, PlanTierPremium, PlanTierEnterprise}

// String returns the string representation of PlanTier
func (t PlanTier) String() string {
	return string(t)
}

// IsValid returns true if the tier is valid
func (t PlanTier) IsValid() bool {
	switch t {
	case PlanTierBasic, PlanTierPremium, PlanTierEnterprise:
		return true
	}
	return false
}

// PlanPricing bundles the charge amount for every billing cycle a plan can
// be bought on. All amounts share the plan currency; a zero amount makes
// that cycle free.
type PlanPricing struct {
	Monthly   decimal.Decimal
	Quarterly decimal.Decimal
	Annual    decimal.Decimal
	Lifetime  decimal.Decimal
}

// For returns the charge amount for the given billing cycle
func (p PlanPricing) For(cycle BillingCycle) (decimal.Decimal, error) {
	switch cycle {
	case BillingCycleMonthly:
		return p.Monthly, nil
	case BillingCycleQuarterly:
		return p.Quarterly, nil
	case BillingCycleAnnually:
		return p.Annual, nil
	case BillingCycleLifetime:
		return p.Lifetime, nil
	}
	return decimal.Decimal{}, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid billing cycle: %s", cycle))
}

// Validate rejects negative amounts
func (p PlanPricing) Validate() error {
	for _, amount := range []decimal.Decimal{p.Monthly, p.Quarterly, p.Annual, p.Lifetime} {
		if amount.IsNegative() {
			return shared.NewDomainError("VALIDATION_ERROR", "Plan price cannot be negative")
		}
	}
	return nil
}

// PlanFeature describes what a plan grants for a single named feature.
// A nil Limit means the feature is not metered (unlimited use).
type PlanFeature struct {
	Enabled bool   `json:"enabled"`
	Limit   *int64 `json:"limit,omitempty"`
}

// PlanFeatures maps feature names to their grants. Stored as JSONB.
type PlanFeatures map[string]PlanFeature

// Value implements driver.Valuer for database storage
func (f PlanFeatures) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner for database retrieval
func (f *PlanFeatures) Scan(value any) error {
	if value == nil {
		*f = make(PlanFeatures)
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PlanFeatures", value)
	}

	if len(data) == 0 {
		*f = make(PlanFeatures)
		return nil
	}
	return json.Unmarshal(data, f)
}

// Plan is a purchasable subscription tier. Plans are platform-wide:
// every tenant subscribes against the same catalog of plans. Each plan
// carries one price per billing cycle; the subscription snapshots the
// price matching the cycle the vendor picked.
type Plan struct {
	shared.BaseAggregateRoot
	Code           string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name           string          `gorm:"type:varchar(200);not null"`
	Description    string          `gorm:"type:text"`
	Tier           PlanTier        `gorm:"type:varchar(20);not null"`
	MonthlyPrice   decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	QuarterlyPrice decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	AnnualPrice    decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	LifetimePrice  decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	Currency       valueobject.Currency
	TrialDays      int
	Features       PlanFeatures `gorm:"type:jsonb"`
	IsActive       bool         `gorm:"not null;default:true"`
	SortOrder      int
}

// NewPlan creates a new subscription plan
func NewPlan(code, name string, tier PlanTier, pricing PlanPricing, currency valueobject.Currency, trialDays int) (*Plan, error) {
	code = strings.TrimSpace(strings.ToLower(code))
	if code == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Plan code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Plan name cannot be empty")
	}
	if !tier.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid plan tier: %s", tier))
	}
	if err := pricing.Validate(); err != nil {
		return nil, err
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid currency: %s", currency))
	}
	if trialDays < 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Trial days cannot be negative")
	}

	return &Plan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              strings.TrimSpace(name),
		Tier:              tier,
		MonthlyPrice:      pricing.Monthly,
		QuarterlyPrice:    pricing.Quarterly,
		AnnualPrice:       pricing.Annual,
		LifetimePrice:     pricing.Lifetime,
		Currency:          currency,
		TrialDays:         trialDays,
		Features:          make(PlanFeatures),
		IsActive:          true,
	}, nil
}

// Pricing returns the per-cycle charge amounts
func (p *Plan) Pricing() PlanPricing {
	return PlanPricing{
		Monthly:   p.MonthlyPrice,
		Quarterly: p.QuarterlyPrice,
		Annual:    p.AnnualPrice,
		Lifetime:  p.LifetimePrice,
	}
}

// PriceFor returns the charge for one period of the given cycle
func (p *Plan) PriceFor(cycle BillingCycle) (valueobject.Money, error) {
	amount, err := p.Pricing().For(cycle)
	if err != nil {
		return valueobject.Money{}, err
	}
	return valueobject.NewMoney(amount, p.Currency)
}

// UpdatePricing changes the per-cycle prices. Existing subscriptions keep
// their snapshotted amount until their next plan change.
func (p *Plan) UpdatePricing(pricing PlanPricing, now time.Time) error {
	if err := pricing.Validate(); err != nil {
		return err
	}
	p.MonthlyPrice = pricing.Monthly
	p.QuarterlyPrice = pricing.Quarterly
	p.AnnualPrice = pricing.Annual
	p.LifetimePrice = pricing.Lifetime
	p.Touch(now)
	return nil
}

// UpdateDetails changes the descriptive attributes of the plan
func (p *Plan) UpdateDetails(name, description string, sortOrder int, now time.Time) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Plan name cannot be empty")
	}
	p.Name = strings.TrimSpace(name)
	p.Description = strings.TrimSpace(description)
	p.SortOrder = sortOrder
	p.Touch(now)
	return nil
}

// SetFeature grants or updates a feature on the plan
func (p *Plan) SetFeature(name string, enabled bool, limit *int64, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Feature name cannot be empty")
	}
	if limit != nil && *limit < 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Feature limit cannot be negative")
	}
	if p.Features == nil {
		p.Features = make(PlanFeatures)
	}
	p.Features[name] = PlanFeature{Enabled: enabled, Limit: limit}
	p.Touch(now)
	return nil
}

// RemoveFeature removes a feature grant from the plan
func (p *Plan) RemoveFeature(name string, now time.Time) {
	delete(p.Features, name)
	p.Touch(now)
}

// HasFeature returns true if the plan names the feature at all
func (p *Plan) HasFeature(name string) bool {
	_, ok := p.Features[name]
	return ok
}

// FeatureEnabled returns true if the plan grants the feature.
// Features the plan does not name are treated as granted without limit.
func (p *Plan) FeatureEnabled(name string) bool {
	feature, ok := p.Features[name]
	if !ok {
		return true
	}
	return feature.Enabled
}

// UsageLimit returns the metered limit for a feature. A nil result means
// unmetered use. A feature the plan names but disables yields a zero limit,
// which blocks every increment.
func (p *Plan) UsageLimit(name string) *int64 {
	feature, ok := p.Features[name]
	if !ok {
		return nil
	}
	if !feature.Enabled {
		zero := int64(0)
		return &zero
	}
	return feature.Limit
}

// HasTrial returns true if the plan offers a trial period
func (p *Plan) HasTrial() bool {
	return p.TrialDays > 0
}

// IsFree returns true if every cycle of the plan costs nothing
func (p *Plan) IsFree() bool {
	return p.MonthlyPrice.IsZero() && p.QuarterlyPrice.IsZero() &&
		p.AnnualPrice.IsZero() && p.LifetimePrice.IsZero()
}

// Activate makes the plan available for new subscriptions
func (p *Plan) Activate(now time.Time) {
	p.IsActive = true
	p.Touch(now)
}

// Deactivate withdraws the plan from sale. Existing subscriptions keep it.
func (p *Plan) Deactivate(now time.Time) {
	p.IsActive = false
	p.Touch(now)
}

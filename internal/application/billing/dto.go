package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/billing"
)

// ==================== Plan DTOs ====================

// PlanFeatureInput represents a feature grant in plan requests
type PlanFeatureInput struct {
	Enabled bool   `json:"enabled"`
	Limit   *int64 `json:"limit" binding:"omitempty,min=0"`
}

// CreatePlanRequest represents a request to create a subscription plan.
// Prices may all be zero for a free plan; a feature without a limit is
// unmetered.
type CreatePlanRequest struct {
	Code           string                      `json:"code" binding:"required,min=1,max=50"`
	Name           string                      `json:"name" binding:"required,min=1,max=200"`
	Description    string                      `json:"description"`
	Tier           string                      `json:"tier" binding:"required"`
	MonthlyPrice   decimal.Decimal             `json:"monthly_price"`
	QuarterlyPrice decimal.Decimal             `json:"quarterly_price"`
	AnnualPrice    decimal.Decimal             `json:"annual_price"`
	LifetimePrice  decimal.Decimal             `json:"lifetime_price"`
	Currency       string                      `json:"currency"`
	TrialDays      int                         `json:"trial_days" binding:"min=0"`
	Features       map[string]PlanFeatureInput `json:"features"`
	SortOrder      int                         `json:"sort_order"`
}

// UpdatePlanRequest represents a request to update plan details
type UpdatePlanRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// UpdatePlanPricingRequest represents a request to reprice a plan. Existing
// subscriptions keep their snapshotted amount; only new enrollments and plan
// changes pick up the new prices.
type UpdatePlanPricingRequest struct {
	MonthlyPrice   decimal.Decimal `json:"monthly_price"`
	QuarterlyPrice decimal.Decimal `json:"quarterly_price"`
	AnnualPrice    decimal.Decimal `json:"annual_price"`
	LifetimePrice  decimal.Decimal `json:"lifetime_price"`
}

// SetPlanFeatureRequest represents a request to grant or adjust a plan feature
type SetPlanFeatureRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Enabled bool   `json:"enabled"`
	Limit   *int64 `json:"limit" binding:"omitempty,min=0"`
}

// PlanResponse represents a plan in API responses
type PlanResponse struct {
	ID             uuid.UUID            `json:"id"`
	Code           string               `json:"code"`
	Name           string               `json:"name"`
	Description    string               `json:"description,omitempty"`
	Tier           string               `json:"tier"`
	MonthlyPrice   decimal.Decimal      `json:"monthly_price"`
	QuarterlyPrice decimal.Decimal      `json:"quarterly_price"`
	AnnualPrice    decimal.Decimal      `json:"annual_price"`
	LifetimePrice  decimal.Decimal      `json:"lifetime_price"`
	Currency       string               `json:"currency"`
	TrialDays      int                  `json:"trial_days"`
	Features       billing.PlanFeatures `json:"features,omitempty"`
	IsActive       bool                 `json:"is_active"`
	SortOrder      int                  `json:"sort_order"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ==================== Subscription DTOs ====================

// SubscribeRequest represents a request to enroll a vendor in a plan
type SubscribeRequest struct {
	VendorID     uuid.UUID `json:"vendor_id" binding:"required"`
	PlanID       uuid.UUID `json:"plan_id" binding:"required"`
	BillingCycle string    `json:"billing_cycle" binding:"required"`
	StartTrial   bool      `json:"start_trial"`
}

// RecordPaymentRequest represents an out-of-band successful charge, usually
// reported by the payment gateway callback processor
type RecordPaymentRequest struct {
	Method        string `json:"method" binding:"required,min=1,max=50"`
	TransactionID string `json:"transaction_id" binding:"required,min=1,max=100"`
}

// CancelSubscriptionRequest represents a request to cancel a subscription
type CancelSubscriptionRequest struct {
	Reason    string `json:"reason" binding:"required,min=1,max=500"`
	Immediate bool   `json:"immediate"`
}

// ChangePlanRequest represents a plan switch. Immediate changes reprice the
// subscription now; otherwise the switch waits for the next period rollover.
type ChangePlanRequest struct {
	PlanID    uuid.UUID `json:"plan_id" binding:"required"`
	Immediate bool      `json:"immediate"`
}

// SuspendSubscriptionRequest represents an administrative suspension
type SuspendSubscriptionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// TrackUsageRequest represents a metered feature consumption report
type TrackUsageRequest struct {
	FeatureName string `json:"feature_name" binding:"required,min=1,max=100"`
	Increment   int64  `json:"increment" binding:"required,min=1"`
}

// SubscriptionListFilter represents filter options for subscription lists
type SubscriptionListFilter struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	VendorID           uuid.UUID       `json:"vendor_id"`
	PlanID             uuid.UUID       `json:"plan_id"`
	PlanCode           string          `json:"plan_code"`
	Status             string          `json:"status"`
	BillingCycle       string          `json:"billing_cycle"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	StartDate          time.Time       `json:"start_date"`
	TrialEndDate       *time.Time      `json:"trial_end_date,omitempty"`
	CurrentPeriodStart time.Time       `json:"current_period_start"`
	CurrentPeriodEnd   time.Time       `json:"current_period_end"`
	NextBillingDate    *time.Time      `json:"next_billing_date,omitempty"`
	EndDate            *time.Time      `json:"end_date,omitempty"`
	AutoRenew          bool            `json:"auto_renew"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	PendingPlanCode    string          `json:"pending_plan_code,omitempty"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PaymentResponse represents a subscription payment in API responses
type PaymentResponse struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	SubscriptionID     uuid.UUID       `json:"subscription_id"`
	VendorID           uuid.UUID       `json:"vendor_id"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Status             string          `json:"status"`
	Method             string          `json:"method,omitempty"`
	TransactionID      string          `json:"transaction_id,omitempty"`
	BillingPeriodStart time.Time       `json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `json:"billing_period_end"`
	FailureReason      string          `json:"failure_reason,omitempty"`
	RetryCount         int             `json:"retry_count"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	PaymentID      *uuid.UUID      `json:"payment_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	Description    string          `json:"description,omitempty"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	IssuedAt       time.Time       `json:"issued_at"`
	DueAt          time.Time       `json:"due_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	VoidedAt       *time.Time      `json:"voided_at,omitempty"`
	VoidReason     string          `json:"void_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// RenewalResponse represents the outcome of a billing run for one
// subscription. Invoice is nil when the charge was declined.
type RenewalResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Payment      PaymentResponse      `json:"payment"`
	Invoice      *InvoiceResponse     `json:"invoice,omitempty"`
}

// UsageRecordResponse represents a per-period usage counter in API responses
type UsageRecordResponse struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	VendorID       uuid.UUID `json:"vendor_id"`
	FeatureName    string    `json:"feature_name"`
	UsageCount     int64     `json:"usage_count"`
	UsageLimit     *int64    `json:"usage_limit,omitempty"`
	Remaining      *int64    `json:"remaining,omitempty"`
	UsagePercent   float64   `json:"usage_percent"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
}

// SubscriptionStatusSummary represents subscription counts by status
type SubscriptionStatusSummary struct {
	Trial     int64 `json:"trial"`
	Active    int64 `json:"active"`
	Suspended int64 `json:"suspended"`
	Cancelled int64 `json:"cancelled"`
	Expired   int64 `json:"expired"`
	Total     int64 `json:"total"`
}

// ==================== Converters ====================

// ToPlanResponse converts a plan to its response DTO
func ToPlanResponse(plan *billing.Plan) PlanResponse {
	return PlanResponse{
		ID:             plan.ID,
		Code:           plan.Code,
		Name:           plan.Name,
		Description:    plan.Description,
		Tier:           string(plan.Tier),
		MonthlyPrice:   plan.MonthlyPrice,
		QuarterlyPrice: plan.QuarterlyPrice,
		AnnualPrice:    plan.AnnualPrice,
		LifetimePrice:  plan.LifetimePrice,
		Currency:       string(plan.Currency),
		TrialDays:      plan.TrialDays,
		Features:       plan.Features,
		IsActive:       plan.IsActive,
		SortOrder:      plan.SortOrder,
		CreatedAt:      plan.CreatedAt,
		UpdatedAt:      plan.UpdatedAt,
	}
}

// ToPlanResponses converts a slice of plans to response DTOs
func ToPlanResponses(plans []*billing.Plan) []PlanResponse {
	responses := make([]PlanResponse, len(plans))
	for i, plan := range plans {
		responses[i] = ToPlanResponse(plan)
	}
	return responses
}

// ToSubscriptionResponse converts a subscription to its response DTO
func ToSubscriptionResponse(sub *billing.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 sub.ID,
		TenantID:           sub.TenantID,
		VendorID:           sub.VendorID,
		PlanID:             sub.PlanID,
		PlanCode:           sub.PlanCode,
		Status:             string(sub.Status),
		BillingCycle:       string(sub.BillingCycle),
		Amount:             sub.Amount,
		Currency:           string(sub.Currency),
		StartDate:          sub.StartDate,
		TrialEndDate:       sub.TrialEndDate,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		NextBillingDate:    sub.NextBillingDate,
		EndDate:            sub.EndDate,
		AutoRenew:          sub.AutoRenew,
		CancelledAt:        sub.CancelledAt,
		CancellationReason: sub.CancellationReason,
		PendingPlanCode:    sub.PendingPlanCode,
		Version:            sub.Version,
		CreatedAt:          sub.CreatedAt,
		UpdatedAt:          sub.UpdatedAt,
	}
}

// ToSubscriptionResponses converts a slice of subscriptions to response DTOs
func ToSubscriptionResponses(subs []*billing.Subscription) []SubscriptionResponse {
	responses := make([]SubscriptionResponse, len(subs))
	for i, sub := range subs {
		responses[i] = ToSubscriptionResponse(sub)
	}
	return responses
}

// ToPaymentResponse converts a payment to its response DTO
func ToPaymentResponse(payment *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 payment.ID,
		TenantID:           payment.TenantID,
		SubscriptionID:     payment.SubscriptionID,
		VendorID:           payment.VendorID,
		Amount:             payment.Amount,
		Currency:           string(payment.Currency),
		Status:             string(payment.Status),
		Method:             payment.Method,
		TransactionID:      payment.TransactionID,
		BillingPeriodStart: payment.BillingPeriodStart,
		BillingPeriodEnd:   payment.BillingPeriodEnd,
		FailureReason:      payment.FailureReason,
		RetryCount:         payment.RetryCount,
		PaidAt:             payment.PaidAt,
		CreatedAt:          payment.CreatedAt,
		UpdatedAt:          payment.UpdatedAt,
	}
}

// ToPaymentResponses converts a slice of payments to response DTOs
func ToPaymentResponses(payments []*billing.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		responses[i] = ToPaymentResponse(payment)
	}
	return responses
}

// ToInvoiceResponse converts an invoice to its response DTO
func ToInvoiceResponse(invoice *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             invoice.ID,
		TenantID:       invoice.TenantID,
		InvoiceNumber:  invoice.InvoiceNumber,
		SubscriptionID: invoice.SubscriptionID,
		VendorID:       invoice.VendorID,
		PaymentID:      invoice.PaymentID,
		Amount:         invoice.Amount,
		Currency:       string(invoice.Currency),
		Status:         string(invoice.Status),
		Description:    invoice.Description,
		PeriodStart:    invoice.PeriodStart,
		PeriodEnd:      invoice.PeriodEnd,
		IssuedAt:       invoice.IssuedAt,
		DueAt:          invoice.DueAt,
		PaidAt:         invoice.PaidAt,
		VoidedAt:       invoice.VoidedAt,
		VoidReason:     invoice.VoidReason,
		CreatedAt:      invoice.CreatedAt,
	}
}

// ToInvoiceResponses converts a slice of invoices to response DTOs
func ToInvoiceResponses(invoices []*billing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i, invoice := range invoices {
		responses[i] = ToInvoiceResponse(invoice)
	}
	return responses
}

// ToUsageRecordResponse converts a usage counter to its response DTO
func ToUsageRecordResponse(record *billing.UsageRecord) UsageRecordResponse {
	return UsageRecordResponse{
		ID:             record.ID,
		SubscriptionID: record.SubscriptionID,
		VendorID:       record.VendorID,
		FeatureName:    record.FeatureName,
		UsageCount:     record.UsageCount,
		UsageLimit:     record.UsageLimit,
		Remaining:      record.Remaining(),
		UsagePercent:   record.UsagePercent(),
		PeriodStart:    record.PeriodStart,
		PeriodEnd:      record.PeriodEnd,
	}
}

// ToUsageRecordResponses converts a slice of usage counters to response DTOs
func ToUsageRecordResponses(records []*billing.UsageRecord) []UsageRecordResponse {
	responses := make([]UsageRecordResponse, len(records))
	for i, record := range records {
		responses[i] = ToUsageRecordResponse(record)
	}
	return responses
}

// Package billing provides domain models for vendor subscriptions in a multi-tenant marketplace.
//
// This package implements the subscription billing bounded context, which is responsible for:
//   - Subscription plans and the features/limits each plan grants
//   - The subscription lifecycle (trial, active, suspended, cancelled, expired)
//   - Billing period rollover on successful payment, with a fixed cadence
//   - Metered feature usage tracked against per-period limits
//   - Payments and invoices for each billing period
//
// Key Aggregates:
//   - Plan: A purchasable subscription tier with a typed feature map
//   - Subscription: A vendor's enrollment in a plan, with period bookkeeping
//   - Payment: A single charge attempt for a billing period
//   - UsageRecord: A per-period counter for one metered feature
//   - Invoice: The billing document issued for a period
//
// The billing domain integrates with:
//   - Partner domain: Subscriptions belong to vendors
//   - Identity domain: Feature limits gate tenant capabilities
package billing

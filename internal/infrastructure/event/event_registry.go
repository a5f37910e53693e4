package event

import (
	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/review"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the
// outbox_events table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Ordering events
	serializer.Register(ordering.EventTypeOrderPlaced, &ordering.OrderPlacedEvent{})
	serializer.Register(ordering.EventTypeOrderStatusChanged, &ordering.OrderStatusChangedEvent{})
	serializer.Register(ordering.EventTypeOrderCancelled, &ordering.OrderCancelledEvent{})
	serializer.Register(ordering.EventTypeOrderPaymentStatusChanged, &ordering.OrderPaymentStatusChangedEvent{})

	// Billing events
	serializer.Register(billing.EventTypeSubscriptionStarted, &billing.SubscriptionStartedEvent{})
	serializer.Register(billing.EventTypeSubscriptionRenewed, &billing.SubscriptionRenewedEvent{})
	serializer.Register(billing.EventTypeSubscriptionCancelled, &billing.SubscriptionCancelledEvent{})
	serializer.Register(billing.EventTypeSubscriptionReactivated, &billing.SubscriptionReactivatedEvent{})
	serializer.Register(billing.EventTypeSubscriptionPlanChanged, &billing.SubscriptionPlanChangedEvent{})
	serializer.Register(billing.EventTypeSubscriptionSuspended, &billing.SubscriptionSuspendedEvent{})
	serializer.Register(billing.EventTypeSubscriptionResumed, &billing.SubscriptionResumedEvent{})
	serializer.Register(billing.EventTypeSubscriptionExpired, &billing.SubscriptionExpiredEvent{})
	serializer.Register(billing.EventTypePaymentCompleted, &billing.PaymentCompletedEvent{})
	serializer.Register(billing.EventTypePaymentFailed, &billing.PaymentFailedEvent{})

	// Catalog events
	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	serializer.Register(catalog.EventTypeProductUpdated, &catalog.ProductUpdatedEvent{})
	serializer.Register(catalog.EventTypeProductPriceChanged, &catalog.ProductPriceChangedEvent{})
	serializer.Register(catalog.EventTypeProductStatusChanged, &catalog.ProductStatusChangedEvent{})
	serializer.Register(catalog.EventTypeProductStockChanged, &catalog.ProductStockChangedEvent{})
	serializer.Register(catalog.EventTypeCategoryCreated, &catalog.CategoryCreatedEvent{})

	// Partner events
	serializer.Register(partner.EventTypeVendorRegistered, &partner.VendorRegisteredEvent{})
	serializer.Register(partner.EventTypeVendorVerified, &partner.VendorVerifiedEvent{})
	serializer.Register(partner.EventTypeVendorSuspended, &partner.VendorSuspendedEvent{})
	serializer.Register(partner.EventTypeVendorPayoutBalanceChanged, &partner.VendorPayoutBalanceChangedEvent{})
	serializer.Register(partner.EventTypeCustomerRegistered, &partner.CustomerRegisteredEvent{})

	// Review events
	serializer.Register(review.EventTypeReviewSubmitted, &review.ReviewSubmittedEvent{})
	serializer.Register(review.EventTypeReviewApproved, &review.ReviewApprovedEvent{})
	serializer.Register(review.EventTypeReviewRejected, &review.ReviewRejectedEvent{})
	serializer.Register(review.EventTypeReviewFlagged, &review.ReviewFlaggedEvent{})

	// Identity events
	serializer.Register(identity.EventTypeUserRegistered, &identity.UserRegisteredEvent{})
	serializer.Register(identity.EventTypeUserPasswordChanged, &identity.UserPasswordChangedEvent{})
	serializer.Register(identity.EventTypeUserStatusChanged, &identity.UserStatusChangedEvent{})
	serializer.Register(identity.EventTypeTenantCreated, &identity.TenantCreatedEvent{})
	serializer.Register(identity.EventTypeTenantStatusChanged, &identity.TenantStatusChangedEvent{})
	serializer.Register(identity.EventTypeTenantPlanChanged, &identity.TenantPlanChangedEvent{})
}

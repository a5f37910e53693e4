package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

// ChargeRequest describes one subscription charge to collect through the
// payment gateway.
type ChargeRequest struct {
	PaymentID      uuid.UUID
	SubscriptionID uuid.UUID
	VendorID       uuid.UUID
	Amount         valueobject.Money
	Method         string
	Description    string
}

// ChargeResult is the gateway's verdict on a charge attempt. A decline is a
// result, not an error; an error means the gateway could not be reached.
type ChargeResult struct {
	Succeeded     bool
	TransactionID string
	FailureReason string
}

// PaymentGateway collects subscription charges from an external payment
// provider. Implementations live in infrastructure; development and tests
// run against a simulated gateway with deterministic outcomes.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

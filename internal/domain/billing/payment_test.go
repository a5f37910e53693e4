package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payNow = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func createTestPayment(t *testing.T) *Payment {
	payment, err := NewPayment(uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyUSDFromFloat(49.00), "card", payNow, payNow.Add(30*24*time.Hour))
	require.NoError(t, err)
	return payment
}

func TestPaymentStatus_CanTransitionTo_Exhaustive(t *testing.T) {
	allowed := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
		PaymentStatusFailed:    {PaymentStatusPending},
		PaymentStatusCompleted: {PaymentStatusRefunded},
		PaymentStatusRefunded:  {},
		PaymentStatusCancelled: {},
	}

	for _, from := range AllPaymentStatuses {
		for _, to := range AllPaymentStatuses {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
					break
				}
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, want, from.CanTransitionTo(to))
			})
		}
	}
}

func TestNewPayment(t *testing.T) {
	t.Run("creates pending payment", func(t *testing.T) {
		payment := createTestPayment(t)
		assert.Equal(t, PaymentStatusPending, payment.Status)
		assert.Equal(t, 0, payment.RetryCount)
		assert.Nil(t, payment.PaidAt)
	})

	t.Run("fails with inverted billing period", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), uuid.New(), uuid.New(),
			valueobject.NewMoneyUSDFromFloat(49.00), "card", payNow, payNow)
		require.Error(t, err)
	})

	t.Run("fails with negative amount", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), uuid.New(), uuid.New(),
			valueobject.NewMoneyUSDFromFloat(-1.00), "card", payNow, payNow.Add(time.Hour))
		require.Error(t, err)
	})
}

func TestPayment_Outcomes(t *testing.T) {
	t.Run("completion stamps transaction and time", func(t *testing.T) {
		payment := createTestPayment(t)
		require.NoError(t, payment.MarkCompleted("txn_abc", payNow))

		assert.Equal(t, PaymentStatusCompleted, payment.Status)
		assert.Equal(t, "txn_abc", payment.TransactionID)
		require.NotNil(t, payment.PaidAt)
		assert.True(t, payment.IsCompleted())

		events := payment.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePaymentCompleted, events[0].EventType())
	})

	t.Run("failure records the reason", func(t *testing.T) {
		payment := createTestPayment(t)
		require.NoError(t, payment.MarkFailed("card declined", payNow))

		assert.Equal(t, PaymentStatusFailed, payment.Status)
		assert.Equal(t, "card declined", payment.FailureReason)

		events := payment.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePaymentFailed, events[0].EventType())
	})

	t.Run("a completed payment only refunds", func(t *testing.T) {
		payment := createTestPayment(t)
		require.NoError(t, payment.MarkCompleted("txn_abc", payNow))

		require.Error(t, payment.MarkFailed("too late", payNow))
		require.Error(t, payment.Cancel(payNow))
		require.NoError(t, payment.Refund(payNow))
		assert.Equal(t, PaymentStatusRefunded, payment.Status)
	})
}

func TestPayment_Retry(t *testing.T) {
	t.Run("retry re-queues a failed charge", func(t *testing.T) {
		payment := createTestPayment(t)
		require.NoError(t, payment.MarkFailed("card declined", payNow))

		require.NoError(t, payment.Retry(payNow))
		assert.Equal(t, PaymentStatusPending, payment.Status)
		assert.Equal(t, 1, payment.RetryCount)
		assert.Empty(t, payment.FailureReason)
	})

	t.Run("retries are bounded", func(t *testing.T) {
		payment := createTestPayment(t)

		for i := 1; i <= MaxPaymentRetries; i++ {
			require.NoError(t, payment.MarkFailed("declined", payNow))
			assert.True(t, payment.CanRetry(), "retry %d should be available", i)
			require.NoError(t, payment.Retry(payNow))
			assert.Equal(t, i, payment.RetryCount)
		}

		require.NoError(t, payment.MarkFailed("declined", payNow))
		assert.False(t, payment.CanRetry())

		err := payment.Retry(payNow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exhausted")
		assert.Equal(t, MaxPaymentRetries, payment.RetryCount)
		assert.Equal(t, PaymentStatusFailed, payment.Status)
	})

	t.Run("cannot retry a pending payment", func(t *testing.T) {
		payment := createTestPayment(t)
		require.Error(t, payment.Retry(payNow))
	})
}

func TestInvoice(t *testing.T) {
	plan := createTestPlan(t)
	sub, err := NewSubscription(uuid.New(), uuid.New(), plan, BillingCycleMonthly, false, payNow)
	require.NoError(t, err)

	t.Run("issues against the subscription period", func(t *testing.T) {
		invoice, err := NewInvoice(sub.TenantID, "INV-202504-0001", sub, payNow)
		require.NoError(t, err)

		assert.Equal(t, InvoiceStatusIssued, invoice.Status)
		assert.Equal(t, sub.CurrentPeriodStart, invoice.PeriodStart)
		assert.Equal(t, sub.CurrentPeriodEnd, invoice.PeriodEnd)
		assert.Equal(t, sub.CurrentPeriodEnd, invoice.DueAt)
		assert.True(t, invoice.Amount.Equal(sub.Amount))
		assert.True(t, invoice.IsOutstanding())
	})

	t.Run("settles against a payment", func(t *testing.T) {
		invoice, err := NewInvoice(sub.TenantID, "INV-202504-0002", sub, payNow)
		require.NoError(t, err)

		paymentID := uuid.New()
		require.NoError(t, invoice.MarkPaid(paymentID, payNow.Add(time.Hour)))

		assert.Equal(t, InvoiceStatusPaid, invoice.Status)
		require.NotNil(t, invoice.PaymentID)
		assert.Equal(t, paymentID, *invoice.PaymentID)
		assert.False(t, invoice.IsOutstanding())

		require.Error(t, invoice.Void("no", payNow), "paid invoices cannot be voided")
	})

	t.Run("overdue only after the due date", func(t *testing.T) {
		invoice, err := NewInvoice(sub.TenantID, "INV-202504-0003", sub, payNow)
		require.NoError(t, err)

		require.Error(t, invoice.MarkOverdue(payNow))
		require.NoError(t, invoice.MarkOverdue(invoice.DueAt.Add(time.Hour)))
		assert.Equal(t, InvoiceStatusOverdue, invoice.Status)

		// Overdue invoices can still be paid.
		require.NoError(t, invoice.MarkPaid(uuid.New(), invoice.DueAt.Add(2*time.Hour)))
	})

	t.Run("void withdraws an open invoice", func(t *testing.T) {
		invoice, err := NewInvoice(sub.TenantID, "INV-202504-0004", sub, payNow)
		require.NoError(t, err)

		require.NoError(t, invoice.Void("immediate cancellation", payNow))
		assert.Equal(t, InvoiceStatusVoid, invoice.Status)
		require.Error(t, invoice.MarkPaid(uuid.New(), payNow))
	})
}

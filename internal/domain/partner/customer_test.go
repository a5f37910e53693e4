package partner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var custNow = time.Date(2025, 7, 2, 9, 30, 0, 0, time.UTC)

func createTestCustomer(t *testing.T) *Customer {
	t.Helper()
	customer, err := NewCustomer(uuid.New(), "Alex Rivera", "alex@example.com", custNow)
	require.NoError(t, err)
	customer.ClearDomainEvents()
	return customer
}

// ============================================
// Registration
// ============================================

func TestNewCustomer(t *testing.T) {
	t.Run("registers an active customer", func(t *testing.T) {
		tenantID := uuid.New()
		customer, err := NewCustomer(tenantID, "Alex Rivera", "Alex@Example.com", custNow)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, customer.ID)
		assert.Equal(t, tenantID, customer.TenantID)
		assert.Equal(t, "Alex Rivera", customer.Name)
		assert.Equal(t, "alex@example.com", customer.Email, "email should be lowercased")
		assert.Equal(t, CustomerStatusActive, customer.Status)
		assert.True(t, customer.CanPlaceOrders())
		assert.Equal(t, custNow, customer.CreatedAt)
		assert.Equal(t, 1, customer.Version)
	})

	t.Run("emits registered event", func(t *testing.T) {
		customer, err := NewCustomer(uuid.New(), "Alex Rivera", "alex@example.com", custNow)
		require.NoError(t, err)

		events := customer.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*CustomerRegisteredEvent)
		require.True(t, ok)
		assert.Equal(t, customer.ID, event.CustomerID)
		assert.Equal(t, "alex@example.com", event.Email)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCustomer(uuid.New(), "", "alex@example.com", custNow)
		assert.Error(t, err)
	})

	t.Run("fails with malformed email", func(t *testing.T) {
		_, err := NewCustomer(uuid.New(), "Alex Rivera", "alex@", custNow)
		assert.Error(t, err)
	})
}

// ============================================
// Profile and addresses
// ============================================

func TestCustomer_Profile(t *testing.T) {
	t.Run("update name and phone", func(t *testing.T) {
		customer := createTestCustomer(t)

		err := customer.Update("Alexandra Rivera", "+1 555 010 9876", custNow)

		require.NoError(t, err)
		assert.Equal(t, "Alexandra Rivera", customer.Name)
		assert.Equal(t, "+1 555 010 9876", customer.Phone)
	})

	t.Run("rejects garbage phone", func(t *testing.T) {
		customer := createTestCustomer(t)
		err := customer.Update("Alex Rivera", "phone#one", custNow)
		assert.Error(t, err)
	})

	t.Run("change email lowercases", func(t *testing.T) {
		customer := createTestCustomer(t)

		err := customer.ChangeEmail("Alex.Rivera@Example.com", custNow)

		require.NoError(t, err)
		assert.Equal(t, "alex.rivera@example.com", customer.Email)

		assert.Error(t, customer.ChangeEmail("", custNow))
		assert.Error(t, customer.ChangeEmail("still@not", custNow))
	})

	t.Run("set default addresses", func(t *testing.T) {
		customer := createTestCustomer(t)
		shipping, err := valueobject.NewAddress("Alex Rivera", "500 Main St", "Denver", "CO", "80202", "US",
			valueobject.WithLine2("Apt 12"))
		require.NoError(t, err)
		billing, err := valueobject.NewAddress("Alex Rivera", "1 Finance Plaza", "Denver", "CO", "80203", "US")
		require.NoError(t, err)

		require.NoError(t, customer.SetDefaultShippingAddress(shipping, custNow))
		require.NoError(t, customer.SetDefaultBillingAddress(billing, custNow))

		assert.Equal(t, "500 Main St", customer.DefaultShippingAddress.Line1())
		assert.Equal(t, "Apt 12", customer.DefaultShippingAddress.Line2())
		assert.Equal(t, "1 Finance Plaza", customer.DefaultBillingAddress.Line1())
	})

	t.Run("empty address rejected", func(t *testing.T) {
		customer := createTestCustomer(t)
		assert.Error(t, customer.SetDefaultShippingAddress(valueobject.Address{}, custNow))
		assert.Error(t, customer.SetDefaultBillingAddress(valueobject.Address{}, custNow))
	})

	t.Run("record order stamps last order time", func(t *testing.T) {
		customer := createTestCustomer(t)
		require.Nil(t, customer.LastOrderAt)

		customer.RecordOrder(custNow)

		require.NotNil(t, customer.LastOrderAt)
		assert.Equal(t, custNow, *customer.LastOrderAt)
	})
}

// ============================================
// Status lifecycle
// ============================================

func TestCustomer_StatusLifecycle(t *testing.T) {
	t.Run("deactivate and reactivate", func(t *testing.T) {
		customer := createTestCustomer(t)

		require.NoError(t, customer.Deactivate(custNow))
		assert.Equal(t, CustomerStatusInactive, customer.Status)
		assert.False(t, customer.CanPlaceOrders())
		assert.Error(t, customer.Deactivate(custNow))

		require.NoError(t, customer.Activate(custNow))
		assert.True(t, customer.CanPlaceOrders())
	})

	t.Run("block requires a reason", func(t *testing.T) {
		customer := createTestCustomer(t)

		assert.Error(t, customer.Block("", custNow))

		require.NoError(t, customer.Block("chargeback abuse", custNow))
		assert.Equal(t, CustomerStatusBlocked, customer.Status)
		assert.Equal(t, "chargeback abuse", customer.BlockReason)
		assert.False(t, customer.CanPlaceOrders())
	})

	t.Run("blocked customer cannot self-activate", func(t *testing.T) {
		customer := createTestCustomer(t)
		require.NoError(t, customer.Block("chargeback abuse", custNow))

		err := customer.Activate(custNow)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unblocked")
		assert.Equal(t, CustomerStatusBlocked, customer.Status)
	})

	t.Run("unblock restores the account", func(t *testing.T) {
		customer := createTestCustomer(t)
		require.NoError(t, customer.Block("chargeback abuse", custNow))

		require.NoError(t, customer.Unblock(custNow))

		assert.Equal(t, CustomerStatusActive, customer.Status)
		assert.Empty(t, customer.BlockReason)
	})

	t.Run("only blocked customers can be unblocked", func(t *testing.T) {
		customer := createTestCustomer(t)
		assert.Error(t, customer.Unblock(custNow))
	})
}

func TestCustomerStatus_IsValid(t *testing.T) {
	for _, s := range []CustomerStatus{CustomerStatusActive, CustomerStatusInactive, CustomerStatusBlocked} {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}
	assert.False(t, CustomerStatus("SUSPENDED").IsValid())
}

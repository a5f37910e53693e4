package partner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*partner.Customer, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*partner.Customer, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*partner.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func createTestCustomer() *partner.Customer {
	customer, _ := partner.NewCustomer(testTenantID, "Alex Moreno", "alex@moreno.example", partnerNow)
	customer.ClearDomainEvents()
	return customer
}

func newTestCustomerService() (*CustomerService, *MockCustomerRepository) {
	repo := new(MockCustomerRepository)
	service := NewCustomerService(repo, shared.NewFixedClock(partnerNow))
	return service, repo
}

func TestCustomerService_Register(t *testing.T) {
	t.Run("registers a buyer with a normalized email", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()

		repo.On("ExistsByEmail", ctx, testTenantID, "alex@moreno.example").Return(false, nil)
		repo.On("Save", ctx, mock.MatchedBy(func(c *partner.Customer) bool {
			return c.Email == "alex@moreno.example" &&
				c.Name == "Alex Moreno" &&
				c.Phone == "+1 555 0178" &&
				c.Status == partner.CustomerStatusActive
		})).Return(nil)

		result, err := service.Register(ctx, testTenantID, RegisterCustomerRequest{
			Name:  "Alex Moreno",
			Email: " Alex@Moreno.example ",
			Phone: "+1 555 0178",
		})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "alex@moreno.example", result.Email)
		assert.Equal(t, "ACTIVE", result.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects an email that is already registered", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()

		repo.On("ExistsByEmail", ctx, testTenantID, "alex@moreno.example").Return(true, nil)

		result, err := service.Register(ctx, testTenantID, RegisterCustomerRequest{
			Name:  "Alex Moreno",
			Email: "alex@moreno.example",
		})

		require.Error(t, err)
		assert.Nil(t, result)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONFLICT", domainErr.Code)
		assert.Contains(t, err.Error(), "already registered")
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()

		repo.On("ExistsByEmail", ctx, testTenantID, "not-an-email").Return(false, nil)

		result, err := service.Register(ctx, testTenantID, RegisterCustomerRequest{
			Name:  "Alex Moreno",
			Email: "not-an-email",
		})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "Invalid email format")
		repo.AssertExpectations(t)
	})
}

func TestCustomerService_ChangeEmail(t *testing.T) {
	t.Run("moves the account to a free address", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil)
		repo.On("ExistsByEmail", ctx, testTenantID, "a.moreno@fastmail.example").Return(false, nil)
		repo.On("SaveWithLock", ctx, customer).Return(nil)

		result, err := service.ChangeEmail(ctx, testTenantID, customer.ID, ChangeCustomerEmailRequest{
			Email: "A.Moreno@Fastmail.example",
		})

		require.NoError(t, err)
		assert.Equal(t, "a.moreno@fastmail.example", result.Email)
		repo.AssertExpectations(t)
	})

	t.Run("re-submitting the current address is a no-op", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil)

		result, err := service.ChangeEmail(ctx, testTenantID, customer.ID, ChangeCustomerEmailRequest{
			Email: "ALEX@moreno.example",
		})

		require.NoError(t, err)
		assert.Equal(t, "alex@moreno.example", result.Email)
		repo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("rejects an address held by another account", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil)
		repo.On("ExistsByEmail", ctx, testTenantID, "taken@moreno.example").Return(true, nil)

		result, err := service.ChangeEmail(ctx, testTenantID, customer.ID, ChangeCustomerEmailRequest{
			Email: "taken@moreno.example",
		})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "already registered")
		assert.Equal(t, "alex@moreno.example", customer.Email)
		repo.AssertExpectations(t)
	})
}

func TestCustomerService_Addresses(t *testing.T) {
	t.Run("stores default shipping and billing addresses", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil).Twice()
		repo.On("SaveWithLock", ctx, customer).Return(nil).Twice()

		shipping := SetCustomerAddressRequest{Address: AddressInput{
			ContactName: "Alex Moreno",
			Line1:       "18 Alder Way",
			Line2:       "Apt 4",
			City:        "Portland",
			State:       "OR",
			PostalCode:  "97205",
			Country:     "US",
		}}
		result, err := service.SetShippingAddress(ctx, testTenantID, customer.ID, shipping)
		require.NoError(t, err)
		assert.Equal(t, "Portland", result.DefaultShippingAddress.City())
		assert.Equal(t, "Apt 4", result.DefaultShippingAddress.Line2())

		billing := SetCustomerAddressRequest{Address: AddressInput{
			ContactName: "Alex Moreno",
			Line1:       "500 Commerce St",
			City:        "Portland",
			State:       "OR",
			PostalCode:  "97204",
			Country:     "US",
		}}
		result, err = service.SetBillingAddress(ctx, testTenantID, customer.ID, billing)
		require.NoError(t, err)
		assert.Equal(t, "500 Commerce St", result.DefaultBillingAddress.Line1())
		repo.AssertExpectations(t)
	})

	t.Run("rejects an incomplete address", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil)

		result, err := service.SetShippingAddress(ctx, testTenantID, customer.ID, SetCustomerAddressRequest{
			Address: AddressInput{
				ContactName: "Alex Moreno",
				Line1:       "18 Alder Way",
				State:       "OR",
				PostalCode:  "97205",
				Country:     "US",
			},
		})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "city is required")
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})
}

func TestCustomerService_Lifecycle(t *testing.T) {
	t.Run("blocks and unblocks a buyer", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil).Twice()
		repo.On("SaveWithLock", ctx, customer).Return(nil).Twice()

		blocked, err := service.Block(ctx, testTenantID, customer.ID, BlockCustomerRequest{
			Reason: "Serial refund abuse",
		})
		require.NoError(t, err)
		assert.Equal(t, "BLOCKED", blocked.Status)
		assert.Equal(t, "Serial refund abuse", blocked.BlockReason)
		assert.False(t, customer.CanPlaceOrders())

		unblocked, err := service.Unblock(ctx, testTenantID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", unblocked.Status)
		assert.Empty(t, unblocked.BlockReason)
		repo.AssertExpectations(t)
	})

	t.Run("a blocked buyer cannot self-activate", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()
		require.NoError(t, customer.Block("Chargeback fraud", partnerNow))

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil)

		result, err := service.Activate(ctx, testTenantID, customer.ID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "must be unblocked")
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})
}

func TestCustomerService_Delete(t *testing.T) {
	t.Run("deletes a deactivated account", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()
		require.NoError(t, customer.Deactivate(partnerNow))

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil)
		repo.On("Delete", ctx, testTenantID, customer.ID).Return(nil)

		err := service.Delete(ctx, testTenantID, customer.ID)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("refuses to delete an active account", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()
		customer := createTestCustomer()

		repo.On("FindByIDForTenant", ctx, testTenantID, customer.ID).Return(customer, nil)

		err := service.Delete(ctx, testTenantID, customer.ID)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.Contains(t, err.Error(), "must be deactivated")
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})
}

func TestCustomerService_List(t *testing.T) {
	t.Run("applies defaults and a status filter", func(t *testing.T) {
		service, repo := newTestCustomerService()
		ctx := context.Background()

		repo.On("FindAll", ctx, testTenantID, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 1 && f.PageSize == 20 &&
				f.OrderBy == "created_at" && f.OrderDir == "desc" &&
				f.Filters["status"] == "BLOCKED"
		})).Return([]*partner.Customer{createTestCustomer()}, int64(1), nil)

		result, total, err := service.List(ctx, testTenantID, CustomerListFilter{Status: "BLOCKED"})

		require.NoError(t, err)
		assert.Len(t, result, 1)
		assert.Equal(t, int64(1), total)
		repo.AssertExpectations(t)
	})
}

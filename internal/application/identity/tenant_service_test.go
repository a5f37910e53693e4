package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

// MockPlanRepository is a mock implementation of billing.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindByCode(ctx context.Context, code string) (*billing.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindAll(ctx context.Context) ([]*billing.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindActive(ctx context.Context) ([]*billing.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Plan), args.Error(1)
}

func (m *MockPlanRepository) Save(ctx context.Context, plan *billing.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func createPlatformPlan() *billing.Plan {
	plan, _ := billing.NewPlan("pro", "Pro", billing.PlanTierPremium, billing.PlanPricing{
		Monthly:   decimal.NewFromFloat(49.00),
		Quarterly: decimal.NewFromFloat(132.00),
		Annual:    decimal.NewFromFloat(470.00),
		Lifetime:  decimal.NewFromFloat(1400.00),
	}, valueobject.USD, 14)
	return plan
}

type tenantServiceMocks struct {
	tenants *MockTenantRepository
	users   *MockUserRepository
	plans   *MockPlanRepository
	clock   *shared.FixedClock
}

func newTestTenantService() (*TenantService, *tenantServiceMocks) {
	m := &tenantServiceMocks{
		tenants: new(MockTenantRepository),
		users:   new(MockUserRepository),
		plans:   new(MockPlanRepository),
		clock:   shared.NewFixedClock(identityNow),
	}
	svc := NewTenantService(m.tenants, m.users, m.plans, m.clock, zap.NewNop())
	return svc, m
}

func (m *tenantServiceMocks) assertExpectations(t *testing.T) {
	m.tenants.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.plans.AssertExpectations(t)
}

func TestCreateTenant_Active(t *testing.T) {
	svc, m := newTestTenantService()

	m.tenants.On("ExistsByCode", mock.Anything, "ACME").Return(false, nil)
	m.tenants.On("Save", mock.Anything, mock.MatchedBy(func(tn *identity.Tenant) bool {
		return tn.Code == "ACME" && tn.Status == identity.TenantStatusActive
	})).Return(nil)

	dto, err := svc.Create(context.Background(), CreateTenantInput{
		Code:         " acme ", // Uppercased and trimmed
		Name:         "Acme Marketplace",
		ContactName:  "Jordan Li",
		ContactEmail: "jordan@acme.example",
	})

	require.NoError(t, err)
	assert.Equal(t, "ACME", dto.Code)
	assert.Equal(t, "ACTIVE", dto.Status)
	assert.Equal(t, "Jordan Li", dto.ContactName)
	assert.Nil(t, dto.TrialEndsAt)
	m.assertExpectations(t)
}

func TestCreateTenant_Trial(t *testing.T) {
	svc, m := newTestTenantService()

	m.tenants.On("ExistsByCode", mock.Anything, "ACME").Return(false, nil)
	m.tenants.On("Save", mock.Anything, mock.Anything).Return(nil)

	dto, err := svc.Create(context.Background(), CreateTenantInput{
		Code:      "acme",
		Name:      "Acme Marketplace",
		TrialDays: 14,
	})

	require.NoError(t, err)
	assert.Equal(t, "TRIAL", dto.Status)
	require.NotNil(t, dto.TrialEndsAt)
	assert.Equal(t, identityNow.AddDate(0, 0, 14), *dto.TrialEndsAt)
	m.assertExpectations(t)
}

func TestCreateTenant_DuplicateCode(t *testing.T) {
	svc, m := newTestTenantService()

	m.tenants.On("ExistsByCode", mock.Anything, "ACME").Return(true, nil)

	_, err := svc.Create(context.Background(), CreateTenantInput{
		Code: "acme",
		Name: "Acme Marketplace",
	})

	assertDomainErrCode(t, err, "TENANT_CODE_EXISTS")
	m.tenants.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestGetTenantByCode_Normalizes(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()

	m.tenants.On("FindByCode", mock.Anything, "ACME").Return(tenant, nil)

	dto, err := svc.GetByCode(context.Background(), " acme ")

	require.NoError(t, err)
	assert.Equal(t, "ACME", dto.Code)
	m.assertExpectations(t)
}

func TestUpdateTenant_PartialContact(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()
	require.NoError(t, tenant.SetContact("Jordan Li", "+1-503-555-0142", "jordan@acme.example", identityNow))
	tenant.ClearDomainEvents()

	m.tenants.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)
	m.tenants.On("Save", mock.Anything, tenant).Return(nil)

	newEmail := "ops@acme.example"
	dto, err := svc.Update(context.Background(), testTenantID, UpdateTenantInput{
		ContactEmail: &newEmail,
	})

	require.NoError(t, err)
	// Only the email changed; the other contact fields are preserved
	assert.Equal(t, "Jordan Li", dto.ContactName)
	assert.Equal(t, "+1-503-555-0142", dto.ContactPhone)
	assert.Equal(t, "ops@acme.example", dto.ContactEmail)
	m.assertExpectations(t)
}

func TestSetTenantDomain(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()

	m.tenants.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)
	m.tenants.On("FindByDomain", mock.Anything, "shop.acme.example").Return(nil, shared.ErrNotFound)
	m.tenants.On("Save", mock.Anything, tenant).Return(nil)

	dto, err := svc.SetDomain(context.Background(), testTenantID, " Shop.Acme.Example ")

	require.NoError(t, err)
	assert.Equal(t, "shop.acme.example", dto.Domain)
	m.assertExpectations(t)
}

func TestSetTenantDomain_Taken(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()

	other, err := identity.NewTenant("RIVAL", "Rival Marketplace", identityNow)
	require.NoError(t, err)
	require.NoError(t, other.SetDomain("shop.acme.example", identityNow))

	m.tenants.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)
	m.tenants.On("FindByDomain", mock.Anything, "shop.acme.example").Return(other, nil)

	_, err = svc.SetDomain(context.Background(), testTenantID, "shop.acme.example")

	assertDomainErrCode(t, err, "TENANT_DOMAIN_EXISTS")
	m.tenants.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestSetTenantPlan(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()
	plan := createPlatformPlan()

	m.tenants.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)
	m.plans.On("FindByID", mock.Anything, plan.ID).Return(plan, nil)
	m.tenants.On("Save", mock.Anything, tenant).Return(nil)

	dto, err := svc.SetPlan(context.Background(), testTenantID, plan.ID)

	require.NoError(t, err)
	require.NotNil(t, dto.PlanID)
	assert.Equal(t, plan.ID, *dto.PlanID)
	assert.Equal(t, "pro", dto.PlanCode)
	m.assertExpectations(t)
}

func TestSuspendTenant(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()

	m.tenants.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)
	m.tenants.On("Save", mock.Anything, tenant).Return(nil)

	dto, err := svc.Suspend(context.Background(), testTenantID)

	require.NoError(t, err)
	assert.Equal(t, "SUSPENDED", dto.Status)
	m.assertExpectations(t)
}

func TestActivateTenant_AlreadyActive(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()

	m.tenants.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)

	_, err := svc.Activate(context.Background(), testTenantID)

	assertDomainErrCode(t, err, "INVALID_STATE")
	m.tenants.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestExpireTrials_SuspendsExpired(t *testing.T) {
	svc, m := newTestTenantService()

	first, err := identity.NewTrialTenant("FIRST", "First Market", 7, identityNow.AddDate(0, 0, -10))
	require.NoError(t, err)
	first.ClearDomainEvents()
	second, err := identity.NewTrialTenant("SECOND", "Second Market", 7, identityNow.AddDate(0, 0, -10))
	require.NoError(t, err)
	second.ClearDomainEvents()
	// Already suspended; the sweep skips it instead of failing
	stale, err := identity.NewTrialTenant("STALE", "Stale Market", 7, identityNow.AddDate(0, 0, -10))
	require.NoError(t, err)
	require.NoError(t, stale.Suspend(identityNow))
	stale.ClearDomainEvents()

	m.tenants.On("FindExpiredTrials", mock.Anything, identityNow, 50).
		Return([]*identity.Tenant{first, second, stale}, nil)
	m.tenants.On("Save", mock.Anything, first).Return(nil)
	m.tenants.On("Save", mock.Anything, second).Return(nil)

	suspended, err := svc.ExpireTrials(context.Background(), 50)

	require.NoError(t, err)
	assert.Equal(t, 2, suspended)
	assert.Equal(t, identity.TenantStatusSuspended, first.Status)
	assert.Equal(t, identity.TenantStatusSuspended, second.Status)
	m.assertExpectations(t)
}

func TestTenantStats(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()

	m.tenants.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)
	m.users.On("CountForTenant", mock.Anything, testTenantID).Return(int64(12), nil)

	stats, err := svc.GetStats(context.Background(), testTenantID)

	require.NoError(t, err)
	assert.Equal(t, testTenantID, stats.TenantID)
	assert.Equal(t, int64(12), stats.UserCount)
	m.assertExpectations(t)
}

func TestListTenants_Pagination(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()

	m.tenants.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "created_at" && f.OrderDir == "desc"
	})).Return([]*identity.Tenant{tenant}, int64(21), nil)

	result, err := svc.List(context.Background(), TenantListFilter{})

	require.NoError(t, err)
	assert.Len(t, result.Tenants, 1)
	assert.Equal(t, int64(21), result.Total)
	assert.Equal(t, 2, result.TotalPages)
	m.assertExpectations(t)
}

func TestDeleteTenant(t *testing.T) {
	svc, m := newTestTenantService()
	tenant := createOperatingTenant()

	m.tenants.On("FindByID", mock.Anything, testTenantID).Return(tenant, nil)
	m.tenants.On("Delete", mock.Anything, testTenantID).Return(nil)

	err := svc.Delete(context.Background(), testTenantID)

	require.NoError(t, err)
	m.assertExpectations(t)
}

package partner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
)

// CustomerService handles buyer account operations
type CustomerService struct {
	customerRepo   partner.CustomerRepository
	clock          shared.Clock
	eventPublisher shared.EventPublisher
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, clock shared.Clock) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		clock:        clock,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *CustomerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register creates a new buyer account
func (s *CustomerService) Register(ctx context.Context, tenantID uuid.UUID, req RegisterCustomerRequest) (*CustomerResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.customerRepo.ExistsByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Email %s is already registered", email))
	}

	now := s.clock.Now()
	customer, err := partner.NewCustomer(tenantID, req.Name, email, now)
	if err != nil {
		return nil, err
	}
	if req.Phone != "" {
		if err := customer.Update(req.Name, req.Phone, now); err != nil {
			return nil, err
		}
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		// Events are delivered in-process after the save; a delivery failure
		// does not fail the registration
		_ = s.eventPublisher.Publish(ctx, customer.GetDomainEvents()...)
	}
	customer.ClearDomainEvents()

	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByEmail retrieves a customer by email
func (s *CustomerService) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByEmail(ctx, tenantID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves customers with filtering and pagination
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	customers, total, err := s.customerRepo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerResponses(customers), total, nil
}

// Update changes the customer's profile
func (s *CustomerService) Update(ctx context.Context, tenantID, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Update(req.Name, req.Phone, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, customer)
}

// ChangeEmail moves the account to a new email address
func (s *CustomerService) ChangeEmail(ctx context.Context, tenantID, customerID uuid.UUID, req ChangeCustomerEmailRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == customer.Email {
		response := ToCustomerResponse(customer)
		return &response, nil
	}

	exists, err := s.customerRepo.ExistsByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Email %s is already registered", email))
	}

	if err := customer.ChangeEmail(email, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, customer)
}

// SetShippingAddress stores the customer's default shipping address
func (s *CustomerService) SetShippingAddress(ctx context.Context, tenantID, customerID uuid.UUID, req SetCustomerAddressRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	address, err := req.Address.ToAddress()
	if err != nil {
		return nil, err
	}
	if err := customer.SetDefaultShippingAddress(address, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, customer)
}

// SetBillingAddress stores the customer's default billing address
func (s *CustomerService) SetBillingAddress(ctx context.Context, tenantID, customerID uuid.UUID, req SetCustomerAddressRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	address, err := req.Address.ToAddress()
	if err != nil {
		return nil, err
	}
	if err := customer.SetDefaultBillingAddress(address, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, customer)
}

// Deactivate closes the account at the customer's request
func (s *CustomerService) Deactivate(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Deactivate(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, customer)
}

// Activate reopens a deactivated account
func (s *CustomerService) Activate(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Activate(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, customer)
}

// Block prevents the customer from placing orders. Platform action only.
func (s *CustomerService) Block(ctx context.Context, tenantID, customerID uuid.UUID, req BlockCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Block(req.Reason, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, customer)
}

// Unblock lifts a platform block
func (s *CustomerService) Unblock(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Unblock(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, customer)
}

// Delete removes a closed account
func (s *CustomerService) Delete(ctx context.Context, tenantID, customerID uuid.UUID) error {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return err
	}

	if customer.Status == partner.CustomerStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			"Customer must be deactivated before deletion")
	}

	return s.customerRepo.Delete(ctx, tenantID, customer.ID)
}

// saveMutation persists a changed customer with optimistic locking
func (s *CustomerService) saveMutation(ctx context.Context, customer *partner.Customer) (*CustomerResponse, error) {
	if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

package ordering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

// OrderService handles marketplace order business operations
type OrderService struct {
	orderRepo      ordering.OrderRepository
	productRepo    catalog.ProductRepository
	customerRepo   partner.CustomerRepository
	vendorRepo     partner.VendorRepository
	txManager      shared.TransactionManager
	clock          shared.Clock
	eventPublisher shared.EventPublisher
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo ordering.OrderRepository,
	productRepo catalog.ProductRepository,
	customerRepo partner.CustomerRepository,
	vendorRepo partner.VendorRepository,
	txManager shared.TransactionManager,
	clock shared.Clock,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		vendorRepo:   vendorRepo,
		txManager:    txManager,
		clock:        clock,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// PlaceOrder places a marketplace order. Product name, SKU and price are
// snapshotted into the order lines and stock is decremented inside one
// transaction, so two orders cannot both take the last unit.
func (s *OrderService) PlaceOrder(ctx context.Context, tenantID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order must contain at least one item")
	}

	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		currency = valueobject.Currency(req.Currency)
		if !currency.IsValid() {
			return nil, shared.NewValidationError("Unsupported currency %q", req.Currency)
		}
	}

	shippingAddr, err := req.ShippingAddress.ToAddress()
	if err != nil {
		return nil, err
	}
	billingAddr := shippingAddr
	if req.BillingAddress != nil {
		billingAddr, err = req.BillingAddress.ToAddress()
		if err != nil {
			return nil, err
		}
	}

	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.CanPlaceOrders() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Customer %s cannot place orders in %s status", customer.Email, customer.Status))
	}

	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, req.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.CanSell() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Vendor %s is not accepting orders", vendor.StorefrontName()))
	}

	productIDs := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}

	now := s.clock.Now()

	var order *ordering.Order
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		orderNumber, err := s.orderRepo.GenerateOrderNumber(txCtx, tenantID)
		if err != nil {
			return err
		}

		order, err = ordering.NewOrder(tenantID, orderNumber, customer.ID, customer.Name,
			vendor.ID, vendor.StorefrontName(), currency, shippingAddr, billingAddr, now)
		if err != nil {
			return err
		}

		products, err := s.productRepo.FindByIDsForTenant(txCtx, tenantID, productIDs)
		if err != nil {
			return err
		}
		productsByID := make(map[uuid.UUID]*catalog.Product, len(products))
		for _, product := range products {
			productsByID[product.ID] = product
		}

		for _, line := range req.Items {
			product, ok := productsByID[line.ProductID]
			if !ok {
				return shared.NewDomainError("NOT_FOUND",
					fmt.Sprintf("Product %s not found", line.ProductID))
			}
			if !product.BelongsToVendor(vendor.ID) {
				return shared.NewValidationError(
					"Product %s is not sold by vendor %s", product.SKU, vendor.StorefrontName())
			}
			if !product.IsPurchasable() {
				return shared.NewDomainError("INVALID_STATE",
					fmt.Sprintf("Product %s is not available for purchase", product.SKU))
			}
			if err := product.DecreaseStock(line.Quantity, now); err != nil {
				return err
			}
			if _, err := order.AddItem(product.ID, product.Name, product.SKU,
				line.Quantity, product.PriceMoney(), now); err != nil {
				return err
			}
		}

		if req.TaxAmount != nil || req.DiscountAmount != nil || req.ShippingFee != nil {
			tax := moneyOrZero(req.TaxAmount, currency)
			discount := moneyOrZero(req.DiscountAmount, currency)
			shipping := moneyOrZero(req.ShippingFee, currency)
			if err := order.SetCharges(tax, discount, shipping, now); err != nil {
				return err
			}
		}

		if req.PaymentMethod != "" {
			if err := order.SetPaymentMethod(ordering.PaymentMethod(req.PaymentMethod)); err != nil {
				return err
			}
		}
		if req.Notes != "" {
			order.SetNotes(req.Notes, now)
		}

		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return err
		}

		for _, product := range products {
			if err := s.productRepo.SaveWithLock(txCtx, product); err != nil {
				return err
			}
		}

		customer.RecordOrder(now)
		return s.customerRepo.Save(txCtx, customer)
	})
	if err != nil {
		return nil, err
	}

	// Events are delivered in-process after the commit; a delivery failure
	// does not fail the placement
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, order.GetDomainEvents()...)
		order.ClearDomainEvents()
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByOrderNumber retrieves an order by order number
func (s *OrderService) GetByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, tenantID, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves a list of orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	// Set defaults
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

	// Build domain filter
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.VendorID != nil {
		domainFilter.Filters["vendor_id"] = *filter.VendorID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.PaymentStatus != nil {
		domainFilter.Filters["payment_status"] = string(*filter.PaymentStatus)
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	if filter.MinAmount != nil {
		domainFilter.Filters["min_amount"] = *filter.MinAmount
	}
	if filter.MaxAmount != nil {
		domainFilter.Filters["max_amount"] = *filter.MaxAmount
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// ListByCustomer retrieves orders placed by a specific customer
func (s *OrderService) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	filter.CustomerID = &customerID
	return s.List(ctx, tenantID, filter)
}

// ListByVendor retrieves orders received by a specific vendor
func (s *OrderService) ListByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	filter.VendorID = &vendorID
	return s.List(ctx, tenantID, filter)
}

// TransitionStatus moves an order along the fulfillment status table.
// CANCELLED targets are routed through Cancel so a reason is recorded,
// but only on edges the table allows; the wider cancellation window
// (PROCESSING, SHIPPED) belongs to Cancel alone.
func (s *OrderService) TransitionStatus(ctx context.Context, tenantID, orderID uuid.UUID, req TransitionOrderRequest) (*OrderResponse, error) {
	status := ordering.OrderStatus(req.Status)
	if !status.IsValid() {
		return nil, shared.NewValidationError("Unknown order status %q", req.Status)
	}

	if status == ordering.OrderStatusCancelled {
		order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return nil, err
		}
		if !order.Status.CanTransitionTo(ordering.OrderStatusCancelled) {
			return nil, shared.NewInvalidTransitionError("Order "+order.OrderNumber,
				order.Status.String(), ordering.OrderStatusCancelled.String())
		}
		return s.Cancel(ctx, tenantID, orderID, CancelOrderRequest{Reason: req.Reason})
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionTo(status, s.clock.Now()); err != nil {
		return nil, err
	}

	// Collect domain events before save
	events := order.GetDomainEvents()
	order.ClearDomainEvents()

	// Save with optimistic locking and events atomically (transactional outbox pattern)
	if err := s.orderRepo.SaveWithLockAndEvents(ctx, order, events); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// Cancel cancels an order with a reason. Stock taken at placement is
// restored unless the order already shipped.
func (s *OrderService) Cancel(ctx context.Context, tenantID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	// Shipped units already left the vendor; cancelling those orders does
	// not return stock
	restock := order.Status != ordering.OrderStatusShipped

	now := s.clock.Now()
	if err := order.Cancel(req.Reason, now); err != nil {
		return nil, err
	}

	events := order.GetDomainEvents()
	order.ClearDomainEvents()

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if restock {
			if err := s.restoreStock(txCtx, order, now); err != nil {
				return err
			}
		}
		return s.orderRepo.SaveWithLockAndEvents(txCtx, order, events)
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// restoreStock returns the order's line quantities to their products.
// Products removed from the catalog since placement are skipped.
func (s *OrderService) restoreStock(ctx context.Context, order *ordering.Order, now time.Time) error {
	productIDs := make([]uuid.UUID, len(order.Items))
	for i := range order.Items {
		productIDs[i] = order.Items[i].ProductID
	}

	products, err := s.productRepo.FindByIDsForTenant(ctx, order.TenantID, productIDs)
	if err != nil {
		return err
	}
	productsByID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, product := range products {
		productsByID[product.ID] = product
	}

	for _, item := range order.Items {
		product, ok := productsByID[item.ProductID]
		if !ok {
			continue
		}
		if err := product.IncreaseStock(item.Quantity, now); err != nil {
			return err
		}
		if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePaymentStatus moves the order's payment status along the strict
// payment table, recording the gateway transaction reference.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, tenantID, orderID uuid.UUID, req UpdatePaymentStatusRequest) (*OrderResponse, error) {
	status := ordering.PaymentStatus(req.PaymentStatus)
	if !status.IsValid() {
		return nil, shared.NewValidationError("Unknown payment status %q", req.PaymentStatus)
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.UpdatePaymentStatus(status, req.TransactionID, s.clock.Now()); err != nil {
		return nil, err
	}

	// Collect domain events before save
	events := order.GetDomainEvents()
	order.ClearDomainEvents()

	// Save with optimistic locking and events atomically (transactional outbox pattern)
	if err := s.orderRepo.SaveWithLockAndEvents(ctx, order, events); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// GetStatusSummary retrieves order counts by status for a tenant
func (s *OrderService) GetStatusSummary(ctx context.Context, tenantID uuid.UUID) (*OrderStatusSummary, error) {
	counts := make(map[ordering.OrderStatus]int64, len(ordering.AllOrderStatuses))
	total := int64(0)
	for _, status := range ordering.AllOrderStatuses {
		count, err := s.orderRepo.CountByStatus(ctx, tenantID, status)
		if err != nil {
			return nil, err
		}
		counts[status] = count
		total += count
	}

	return &OrderStatusSummary{
		Pending:    counts[ordering.OrderStatusPending],
		Confirmed:  counts[ordering.OrderStatusConfirmed],
		Processing: counts[ordering.OrderStatusProcessing],
		Shipped:    counts[ordering.OrderStatusShipped],
		Delivered:  counts[ordering.OrderStatusDelivered],
		Cancelled:  counts[ordering.OrderStatusCancelled],
		Returned:   counts[ordering.OrderStatusReturned],
		Refunded:   counts[ordering.OrderStatusRefunded],
		Total:      total,
	}, nil
}

func moneyOrZero(amount *decimal.Decimal, currency valueobject.Currency) valueobject.Money {
	if amount == nil {
		return valueobject.Zero(currency)
	}
	money, err := valueobject.NewMoney(*amount, currency)
	if err != nil {
		return valueobject.Zero(currency)
	}
	return money
}

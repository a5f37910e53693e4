package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfillment status of a marketplace order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReturned   OrderStatus = "RETURNED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// AllOrderStatuses lists every order status, useful for exhaustive checks
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
	OrderStatusRefunded,
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusReturned, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// CANCELLED, RETURNED and REFUNDED are terminal.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusProcessing || target == OrderStatusCancelled
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered || target == OrderStatusReturned
	case OrderStatusDelivered:
		return target == OrderStatusReturned
	case OrderStatusCancelled, OrderStatusReturned, OrderStatusRefunded:
		return false
	}
	return false
}

// IsTerminal returns true for states with no outgoing transitions
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusReturned, OrderStatusRefunded:
		return true
	}
	return false
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusPaid              PaymentStatus = "PAID"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
)

// AllPaymentStatuses lists every payment status
var AllPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusPartiallyRefunded,
	PaymentStatusRefunded,
}

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusPartiallyRefunded, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks whether the payment status may move to target.
// Failed charges may be retried; refunds only follow a successful payment.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusPaid || target == PaymentStatusFailed
	case PaymentStatusFailed:
		return target == PaymentStatusPaid || target == PaymentStatusFailed
	case PaymentStatusPaid:
		return target == PaymentStatusPartiallyRefunded || target == PaymentStatusRefunded
	case PaymentStatusPartiallyRefunded:
		return target == PaymentStatusRefunded
	case PaymentStatusRefunded:
		return false
	}
	return false
}

// PaymentMethod represents how the customer pays for an order
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodPaypal       PaymentMethod = "PAYPAL"
	PaymentMethodStripe       PaymentMethod = "STRIPE"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

// IsValid checks if the payment method is supported
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPaypal,
		PaymentMethodStripe, PaymentMethodBankTransfer, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

// OrderItem is a line on a marketplace order. Product name, SKU and unit
// price are snapshots taken at placement time; later catalog edits never
// rewrite placed orders.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductSKU  string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderItem creates a line item snapshotting the product at order time
func NewOrderItem(orderID, productID uuid.UUID, productName, productSKU string, quantity int, unitPrice valueobject.Money, now time.Time) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit price cannot be negative")
	}

	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		ProductSKU:  productSKU,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		LineTotal:   unitPrice.Amount().Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetUnitPriceMoney returns the unit price as Money
func (i *OrderItem) GetUnitPriceMoney(currency valueobject.Currency) valueobject.Money {
	m, _ := valueobject.NewMoney(i.UnitPrice, currency)
	return m
}

// GetLineTotalMoney returns the line total as Money
func (i *OrderItem) GetLineTotalMoney(currency valueobject.Currency) valueobject.Money {
	m, _ := valueobject.NewMoney(i.LineTotal, currency)
	return m
}

// Order is the aggregate root for the marketplace order lifecycle. It owns
// the fulfillment status machine, the payment status machine and the
// derived totals over its items.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber    string
	CustomerID     uuid.UUID
	CustomerName   string
	VendorID       uuid.UUID
	VendorName     string
	Items          []OrderItem
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	PaymentMethod  *PaymentMethod
	TransactionID  string
	Currency       valueobject.Currency
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	ShippingFee    decimal.Decimal
	TotalAmount    decimal.Decimal
	ShippingAddress valueobject.Address
	BillingAddress  valueobject.Address
	Notes          string
	PlacedAt       time.Time
	ConfirmedAt    *time.Time
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	CancellationReason string
}

// NewOrder creates an order in PENDING status with no items yet. Items are
// attached with AddItem before the first save; totals start at zero.
func NewOrder(tenantID uuid.UUID, orderNumber string, customerID uuid.UUID, customerName string, vendorID uuid.UUID, vendorName string, currency valueobject.Currency, shippingAddr, billingAddr valueobject.Address, now time.Time) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Order number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Customer ID cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Vendor ID cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewValidationError("Unsupported currency %q", currency)
	}

	order := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		CustomerName:        customerName,
		VendorID:            vendorID,
		VendorName:          vendorName,
		Items:               make([]OrderItem, 0),
		Status:              OrderStatusPending,
		PaymentStatus:       PaymentStatusPending,
		Currency:            currency,
		Subtotal:            decimal.Zero,
		TaxAmount:           decimal.Zero,
		DiscountAmount:      decimal.Zero,
		ShippingFee:         decimal.Zero,
		TotalAmount:         decimal.Zero,
		ShippingAddress:     shippingAddr,
		BillingAddress:      billingAddr,
		PlacedAt:            now,
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	order.AddDomainEvent(NewOrderPlacedEvent(order))

	return order, nil
}

// AddItem attaches a line item. Only permitted while the order is still
// PENDING; afterwards the item set is immutable.
func (o *Order) AddItem(productID uuid.UUID, productName, productSKU string, quantity int, unitPrice valueobject.Money, now time.Time) (*OrderItem, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to an order that left PENDING status")
	}
	if unitPrice.Currency() != o.Currency {
		return nil, shared.NewValidationError("Item currency %s does not match order currency %s", unitPrice.Currency(), o.Currency)
	}

	for _, item := range o.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Product already present in order")
		}
	}

	item, err := NewOrderItem(o.ID, productID, productName, productSKU, quantity, unitPrice, now)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.Touch(now)

	return item, nil
}

// SetCharges sets tax, discount and shipping for the order and recomputes
// the total. Only permitted while the order is still PENDING.
func (o *Order) SetCharges(tax, discount, shipping valueobject.Money, now time.Time) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot change charges on an order that left PENDING status")
	}
	for _, m := range []valueobject.Money{tax, discount, shipping} {
		if m.Currency() != o.Currency {
			return shared.NewValidationError("Charge currency %s does not match order currency %s", m.Currency(), o.Currency)
		}
		if m.Amount().IsNegative() {
			return shared.NewDomainError("VALIDATION_ERROR", "Charges cannot be negative")
		}
	}
	if discount.Amount().GreaterThan(o.Subtotal) {
		return shared.NewDomainError("VALIDATION_ERROR", "Discount cannot exceed subtotal")
	}

	o.TaxAmount = tax.Amount()
	o.DiscountAmount = discount.Amount()
	o.ShippingFee = shipping.Amount()
	o.recalculateTotals()
	o.Touch(now)

	return nil
}

// SetPaymentMethod records how the customer pays
func (o *Order) SetPaymentMethod(method PaymentMethod) error {
	if !method.IsValid() {
		return shared.NewValidationError("Unsupported payment method %q", method)
	}
	o.PaymentMethod = &method
	return nil
}

// SetNotes sets free-form order notes
func (o *Order) SetNotes(notes string, now time.Time) {
	o.Notes = notes
	o.Touch(now)
}

// TransitionTo moves the order to newStatus if the transition table allows
// it, stamping the matching timestamp. Cancellation goes through Cancel so
// a reason is always recorded.
func (o *Order) TransitionTo(newStatus OrderStatus, now time.Time) error {
	if !newStatus.IsValid() {
		return shared.NewValidationError("Unknown order status %q", newStatus)
	}
	if !o.Status.CanTransitionTo(newStatus) {
		return shared.NewInvalidTransitionError("Order "+o.OrderNumber, o.Status.String(), newStatus.String())
	}

	previous := o.Status
	o.Status = newStatus
	switch newStatus {
	case OrderStatusConfirmed:
		o.ConfirmedAt = &now
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
	}
	o.Touch(now)

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous, newStatus))

	return nil
}

// Confirm moves PENDING → CONFIRMED. Requires at least one item.
func (o *Order) Confirm(now time.Time) error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Cannot confirm order without items")
	}
	return o.TransitionTo(OrderStatusConfirmed, now)
}

// StartProcessing moves CONFIRMED → PROCESSING
func (o *Order) StartProcessing(now time.Time) error {
	return o.TransitionTo(OrderStatusProcessing, now)
}

// Ship moves PROCESSING → SHIPPED
func (o *Order) Ship(now time.Time) error {
	return o.TransitionTo(OrderStatusShipped, now)
}

// Deliver moves SHIPPED → DELIVERED
func (o *Order) Deliver(now time.Time) error {
	return o.TransitionTo(OrderStatusDelivered, now)
}

// Return moves SHIPPED/DELIVERED → RETURNED
func (o *Order) Return(now time.Time) error {
	return o.TransitionTo(OrderStatusReturned, now)
}

// Cancel cancels the order with a reason. Rejected when the order is
// already DELIVERED, CANCELLED or RETURNED.
func (o *Order) Cancel(reason string, now time.Time) error {
	switch o.Status {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return shared.NewDomainError("INVALID_STATE",
			"Cannot cancel order "+o.OrderNumber+" in "+o.Status.String()+" status")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Cancellation reason is required")
	}

	previous := o.Status
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancellationReason = reason
	o.Touch(now)

	o.AddDomainEvent(NewOrderCancelledEvent(o, previous))

	return nil
}

// UpdatePaymentStatus moves the payment status along the strict payment
// table and records the gateway transaction reference.
func (o *Order) UpdatePaymentStatus(newStatus PaymentStatus, transactionID string, now time.Time) error {
	if !newStatus.IsValid() {
		return shared.NewValidationError("Unknown payment status %q", newStatus)
	}
	if !o.PaymentStatus.CanTransitionTo(newStatus) {
		return shared.NewInvalidTransitionError("Order "+o.OrderNumber+" payment", o.PaymentStatus.String(), newStatus.String())
	}

	previous := o.PaymentStatus
	o.PaymentStatus = newStatus
	if transactionID != "" {
		o.TransactionID = transactionID
	}
	o.Touch(now)

	o.AddDomainEvent(NewOrderPaymentStatusChangedEvent(o, previous, newStatus))

	return nil
}

// recalculateTotals recomputes subtotal and total from items and charges.
// TotalAmount is never assignable directly.
func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal.Add(o.TaxAmount).Sub(o.DiscountAmount).Add(o.ShippingFee)
}

// GetSubtotalMoney returns the subtotal as Money
func (o *Order) GetSubtotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.Subtotal, o.Currency)
	return m
}

// GetTotalAmountMoney returns the grand total as Money
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.TotalAmount, o.Currency)
	return m
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TotalQuantity returns the summed quantity over all lines
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// GetItem returns an item by its ID, nil when absent
func (o *Order) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// GetItemByProduct returns an item by product ID, nil when absent
func (o *Order) GetItemByProduct(productID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}

// ContainsProduct reports whether the order has a line for the product
func (o *Order) ContainsProduct(productID uuid.UUID) bool {
	return o.GetItemByProduct(productID) != nil
}

// IsPending returns true while the order awaits confirmation
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsDelivered returns true once the order reached the customer
func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// IsCancelled returns true if the order was cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// IsTerminal returns true when no further status transitions exist
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// IsPaid returns true once payment completed
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// EligibleForReview reports whether a delivered order qualifies the given
// product for a verified-purchase review.
func (o *Order) EligibleForReview(productID uuid.UUID) bool {
	return o.IsDelivered() && o.ContainsProduct(productID)
}

package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

// ==================== Order DTOs ====================

// PlaceOrderItemInput represents a line in the place order request
type PlaceOrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// AddressInput represents an address in API requests
type AddressInput struct {
	ContactName  string `json:"contact_name" binding:"required,min=1,max=100"`
	ContactPhone string `json:"contact_phone"`
	Line1        string `json:"line1" binding:"required,min=1,max=200"`
	Line2        string `json:"line2"`
	City         string `json:"city" binding:"required,min=1,max=100"`
	State        string `json:"state" binding:"required,min=1,max=100"`
	PostalCode   string `json:"postal_code" binding:"required,min=1,max=20"`
	Country      string `json:"country" binding:"required,len=2"`
}

// ToAddress converts the input to the domain value object
func (a AddressInput) ToAddress() (valueobject.Address, error) {
	opts := make([]valueobject.AddressOption, 0, 2)
	if a.Line2 != "" {
		opts = append(opts, valueobject.WithLine2(a.Line2))
	}
	if a.ContactPhone != "" {
		opts = append(opts, valueobject.WithContactPhone(a.ContactPhone))
	}
	return valueobject.NewAddress(a.ContactName, a.Line1, a.City, a.State, a.PostalCode, a.Country, opts...)
}

// PlaceOrderRequest represents a request to place a marketplace order.
// All items must belong to the stated vendor; cross-vendor carts are split
// into one order per vendor by the storefront before reaching this API.
type PlaceOrderRequest struct {
	CustomerID      uuid.UUID             `json:"customer_id" binding:"required"`
	VendorID        uuid.UUID             `json:"vendor_id" binding:"required"`
	Items           []PlaceOrderItemInput `json:"items" binding:"required,min=1,dive"`
	Currency        string                `json:"currency"`
	ShippingAddress AddressInput          `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressInput         `json:"billing_address"`
	PaymentMethod   string                `json:"payment_method"`
	TaxAmount       *decimal.Decimal      `json:"tax_amount"`
	DiscountAmount  *decimal.Decimal      `json:"discount_amount"`
	ShippingFee     *decimal.Decimal      `json:"shipping_fee"`
	Notes           string                `json:"notes"`
}

// TransitionOrderRequest represents a request to move an order to a new
// fulfillment status. Reason is required when the target is CANCELLED.
type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// UpdatePaymentStatusRequest represents a payment status update, usually
// driven by the payment gateway callback processor
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
	TransactionID string `json:"transaction_id"`
}

// OrderListFilter represents filter options for order lists
type OrderListFilter struct {
	Search        string                  `form:"search"`
	CustomerID    *uuid.UUID              `form:"customer_id"`
	VendorID      *uuid.UUID              `form:"vendor_id"`
	Status        *ordering.OrderStatus   `form:"status"`
	PaymentStatus *ordering.PaymentStatus `form:"payment_status"`
	StartDate     *time.Time              `form:"start_date"`
	EndDate       *time.Time              `form:"end_date"`
	MinAmount     *decimal.Decimal        `form:"min_amount"`
	MaxAmount     *decimal.Decimal        `form:"max_amount"`
	Page          int                     `form:"page" binding:"min=0"`
	PageSize      int                     `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string                  `form:"order_by"`
	OrderDir      string                  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	TenantID           uuid.UUID           `json:"tenant_id"`
	OrderNumber        string              `json:"order_number"`
	CustomerID         uuid.UUID           `json:"customer_id"`
	CustomerName       string              `json:"customer_name"`
	VendorID           uuid.UUID           `json:"vendor_id"`
	VendorName         string              `json:"vendor_name"`
	Items              []OrderItemResponse `json:"items"`
	ItemCount          int                 `json:"item_count"`
	TotalQuantity      int                 `json:"total_quantity"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"payment_status"`
	PaymentMethod      string              `json:"payment_method,omitempty"`
	TransactionID      string              `json:"transaction_id,omitempty"`
	Currency           string              `json:"currency"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	TaxAmount          decimal.Decimal     `json:"tax_amount"`
	DiscountAmount     decimal.Decimal     `json:"discount_amount"`
	ShippingFee        decimal.Decimal     `json:"shipping_fee"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	ShippingAddress    valueobject.Address `json:"shipping_address"`
	BillingAddress     valueobject.Address `json:"billing_address"`
	Notes              string              `json:"notes,omitempty"`
	PlacedAt           time.Time           `json:"placed_at"`
	ConfirmedAt        *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt          *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Version            int                 `json:"version"`
}

// OrderListItemResponse represents an order in list responses (less detail)
type OrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	ItemCount     int             `json:"item_count"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PlacedAt      time.Time       `json:"placed_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderStatusSummary represents order counts by fulfillment status
type OrderStatusSummary struct {
	Pending    int64 `json:"pending"`
	Confirmed  int64 `json:"confirmed"`
	Processing int64 `json:"processing"`
	Shipped    int64 `json:"shipped"`
	Delivered  int64 `json:"delivered"`
	Cancelled  int64 `json:"cancelled"`
	Returned   int64 `json:"returned"`
	Refunded   int64 `json:"refunded"`
	Total      int64 `json:"total"`
}

// ToOrderResponse converts a domain Order to the response DTO
func ToOrderResponse(order *ordering.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = ToOrderItemResponse(&order.Items[i])
	}

	paymentMethod := ""
	if order.PaymentMethod != nil {
		paymentMethod = string(*order.PaymentMethod)
	}

	return OrderResponse{
		ID:                 order.ID,
		TenantID:           order.TenantID,
		OrderNumber:        order.OrderNumber,
		CustomerID:         order.CustomerID,
		CustomerName:       order.CustomerName,
		VendorID:           order.VendorID,
		VendorName:         order.VendorName,
		Items:              items,
		ItemCount:          order.ItemCount(),
		TotalQuantity:      order.TotalQuantity(),
		Status:             string(order.Status),
		PaymentStatus:      string(order.PaymentStatus),
		PaymentMethod:      paymentMethod,
		TransactionID:      order.TransactionID,
		Currency:           string(order.Currency),
		Subtotal:           order.Subtotal,
		TaxAmount:          order.TaxAmount,
		DiscountAmount:     order.DiscountAmount,
		ShippingFee:        order.ShippingFee,
		TotalAmount:        order.TotalAmount,
		ShippingAddress:    order.ShippingAddress,
		BillingAddress:     order.BillingAddress,
		Notes:              order.Notes,
		PlacedAt:           order.PlacedAt,
		ConfirmedAt:        order.ConfirmedAt,
		ShippedAt:          order.ShippedAt,
		DeliveredAt:        order.DeliveredAt,
		CancelledAt:        order.CancelledAt,
		CancellationReason: order.CancellationReason,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
		Version:            order.Version,
	}
}

// ToOrderListItemResponse converts a domain Order to the list response DTO
func ToOrderListItemResponse(order *ordering.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		CustomerName:  order.CustomerName,
		VendorID:      order.VendorID,
		VendorName:    order.VendorName,
		ItemCount:     order.ItemCount(),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Currency:      string(order.Currency),
		TotalAmount:   order.TotalAmount,
		PlacedAt:      order.PlacedAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// ToOrderListItemResponses converts a slice of domain orders to list responses
func ToOrderListItemResponses(orders []ordering.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderListItemResponse(&orders[i])
	}
	return responses
}

// ToOrderItemResponse converts a domain OrderItem to the response DTO
func ToOrderItemResponse(item *ordering.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		ProductSKU:  item.ProductSKU,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		LineTotal:   item.LineTotal,
	}
}

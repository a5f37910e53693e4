package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the listing state of a product
type ProductStatus string

const (
	// ProductStatusDraft means the vendor is still editing; not purchasable
	ProductStatusDraft ProductStatus = "DRAFT"

	// ProductStatusActive means the product is listed and purchasable
	ProductStatusActive ProductStatus = "ACTIVE"

	// ProductStatusInactive means the vendor pulled the listing temporarily
	ProductStatusInactive ProductStatus = "INACTIVE"

	// ProductStatusDiscontinued means the listing is retired for good
	ProductStatusDiscontinued ProductStatus = "DISCONTINUED"
)

// AllProductStatuses contains all valid product statuses
var AllProductStatuses = []ProductStatus{
	ProductStatusDraft,
	ProductStatusActive,
	ProductStatusInactive,
	ProductStatusDiscontinued,
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusInactive, ProductStatusDiscontinued:
		return true
	}
	return false
}

// CanTransitionTo checks if transitioning to the target status is allowed
func (s ProductStatus) CanTransitionTo(target ProductStatus) bool {
	switch s {
	case ProductStatusDraft:
		return target == ProductStatusActive || target == ProductStatusDiscontinued
	case ProductStatusActive:
		return target == ProductStatusInactive || target == ProductStatusDiscontinued
	case ProductStatusInactive:
		return target == ProductStatusActive || target == ProductStatusDiscontinued
	case ProductStatusDiscontinued:
		return false
	}
	return false
}

// ImageKeys holds object storage keys for product images, stored as JSONB
type ImageKeys []string

// Value implements driver.Valuer for database storage
func (k ImageKeys) Value() (driver.Value, error) {
	if k == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(k)
}

// Scan implements sql.Scanner for database retrieval
func (k *ImageKeys) Scan(value any) error {
	if value == nil {
		*k = ImageKeys{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ImageKeys", value)
	}

	if len(data) == 0 {
		*k = ImageKeys{}
		return nil
	}
	return json.Unmarshal(data, k)
}

// Product is a vendor's listing in the marketplace catalog. Orders snapshot
// the name, SKU and price at placement time, so later edits never rewrite
// history. Stock is a plain counter decremented inside the order placement
// transaction.
type Product struct {
	shared.TenantAggregateRoot
	VendorID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	SKU            string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_tenant_sku,priority:2"`
	Name           string     `gorm:"type:varchar(200);not null"`
	Description    string     `gorm:"type:text"`
	CategoryID     *uuid.UUID `gorm:"type:uuid;index"`
	Price          decimal.Decimal `gorm:"type:decimal(19,4);not null;default:0"`
	CompareAtPrice *decimal.Decimal `gorm:"type:decimal(19,4)"`
	Currency       valueobject.Currency
	StockQuantity  int           `gorm:"not null;default:0"`
	Status         ProductStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Images         ImageKeys     `gorm:"type:jsonb"`
	RatingAverage  decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0"`
	RatingCount    int             `gorm:"not null;default:0"`
	SortOrder      int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new draft listing for a vendor
func NewProduct(tenantID, vendorID uuid.UUID, sku, name string, price valueobject.Money, now time.Time) (*Product, error) {
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Vendor ID cannot be empty")
	}
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Product price cannot be negative")
	}

	product := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VendorID:            vendorID,
		SKU:                 strings.ToUpper(sku),
		Name:                name,
		Price:               price.Amount(),
		Currency:            price.Currency(),
		Status:              ProductStatusDraft,
		Images:              ImageKeys{},
		RatingAverage:       decimal.Zero,
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	product.AddDomainEvent(NewProductCreatedEvent(product))
	return product, nil
}

// Update updates the listing's basic information
func (p *Product) Update(name, description string, now time.Time) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit a discontinued product")
	}

	p.Name = name
	p.Description = description
	p.Touch(now)

	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// SetCategory assigns the listing to a category
func (p *Product) SetCategory(categoryID *uuid.UUID, now time.Time) {
	p.CategoryID = categoryID
	p.Touch(now)
}

// UpdatePrice changes the listed price. Existing order items keep the
// price they snapshotted.
func (p *Product) UpdatePrice(price valueobject.Money, now time.Time) error {
	if price.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Product price cannot be negative")
	}
	if price.Currency() != p.Currency {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Price currency %s does not match product currency %s", price.Currency(), p.Currency))
	}

	oldPrice := p.Price
	p.Price = price.Amount()
	p.Touch(now)

	p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))
	return nil
}

// SetCompareAtPrice sets the strike-through price shown next to the real one
func (p *Product) SetCompareAtPrice(price *valueobject.Money, now time.Time) error {
	if price == nil {
		p.CompareAtPrice = nil
		p.Touch(now)
		return nil
	}
	if price.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Compare-at price cannot be negative")
	}
	amount := price.Amount()
	if amount.LessThanOrEqual(p.Price) {
		return shared.NewDomainError("VALIDATION_ERROR", "Compare-at price must exceed the listed price")
	}

	p.CompareAtPrice = &amount
	p.Touch(now)
	return nil
}

// SetImages replaces the listing's image object keys
func (p *Product) SetImages(keys []string, now time.Time) {
	if keys == nil {
		keys = []string{}
	}
	p.Images = ImageKeys(keys)
	p.Touch(now)
}

// AddImage appends one image object key
func (p *Product) AddImage(key string, now time.Time) error {
	if strings.TrimSpace(key) == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Image key cannot be empty")
	}
	p.Images = append(p.Images, key)
	p.Touch(now)
	return nil
}

// SetStock sets the absolute stock level
func (p *Product) SetStock(quantity int, now time.Time) error {
	if quantity < 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Stock quantity cannot be negative")
	}

	oldQuantity := p.StockQuantity
	p.StockQuantity = quantity
	p.Touch(now)

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldQuantity))
	return nil
}

// DecreaseStock reserves stock for an order line. Called inside the order
// placement transaction so two orders cannot both take the last unit.
func (p *Product) DecreaseStock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}
	if p.StockQuantity < quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Product %s has %d in stock, %d requested", p.SKU, p.StockQuantity, quantity))
	}

	oldQuantity := p.StockQuantity
	p.StockQuantity -= quantity
	p.Touch(now)

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldQuantity))
	return nil
}

// IncreaseStock returns stock, for example after a cancellation or return
func (p *Product) IncreaseStock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}

	oldQuantity := p.StockQuantity
	p.StockQuantity += quantity
	p.Touch(now)

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldQuantity))
	return nil
}

func (p *Product) transitionTo(target ProductStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(
			fmt.Sprintf("Product %s", p.SKU), p.Status.String(), target.String())
	}

	oldStatus := p.Status
	p.Status = target
	p.Touch(now)

	p.AddDomainEvent(NewProductStatusChangedEvent(p, oldStatus))
	return nil
}

// Publish lists a draft or pulled product for sale
func (p *Product) Publish(now time.Time) error {
	return p.transitionTo(ProductStatusActive, now)
}

// Unpublish pulls the listing temporarily
func (p *Product) Unpublish(now time.Time) error {
	return p.transitionTo(ProductStatusInactive, now)
}

// Discontinue retires the listing permanently
func (p *Product) Discontinue(now time.Time) error {
	return p.transitionTo(ProductStatusDiscontinued, now)
}

// RecordRating folds one more published review score into the aggregate rating
func (p *Product) RecordRating(rating int, now time.Time) error {
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("VALIDATION_ERROR", "Rating must be between 1 and 5")
	}

	total := p.RatingAverage.Mul(decimal.NewFromInt(int64(p.RatingCount)))
	p.RatingCount++
	p.RatingAverage = total.Add(decimal.NewFromInt(int64(rating))).
		Div(decimal.NewFromInt(int64(p.RatingCount))).Round(2)
	p.Touch(now)
	return nil
}

// RemoveRating reverses one previously recorded review score
func (p *Product) RemoveRating(rating int, now time.Time) error {
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("VALIDATION_ERROR", "Rating must be between 1 and 5")
	}
	if p.RatingCount == 0 {
		return shared.NewDomainError("INVALID_STATE", "Product has no ratings to remove")
	}

	total := p.RatingAverage.Mul(decimal.NewFromInt(int64(p.RatingCount)))
	p.RatingCount--
	if p.RatingCount == 0 {
		p.RatingAverage = decimal.Zero
	} else {
		p.RatingAverage = total.Sub(decimal.NewFromInt(int64(rating))).
			Div(decimal.NewFromInt(int64(p.RatingCount))).Round(2)
	}
	p.Touch(now)
	return nil
}

// IsActive returns true if the product is listed
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsPurchasable returns true if the product can go into an order right now
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusActive && p.StockQuantity > 0
}

// InStock returns true if at least the requested quantity is available
func (p *Product) InStock(quantity int) bool {
	return p.StockQuantity >= quantity
}

// BelongsToVendor returns true if the given vendor owns this listing
func (p *Product) BelongsToVendor(vendorID uuid.UUID) bool {
	return p.VendorID == vendorID
}

// PriceMoney returns the listed price as a money value
func (p *Product) PriceMoney() valueobject.Money {
	money, err := valueobject.NewMoney(p.Price, p.Currency)
	if err != nil {
		return valueobject.Zero(p.Currency)
	}
	return money
}

// validateSKU validates the stock keeping unit code
func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("VALIDATION_ERROR", "SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("VALIDATION_ERROR", "SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "Product name cannot exceed 200 characters")
	}
	return nil
}

package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/catalog"
)

// ==================== Product DTOs ====================

// CreateProductRequest represents a request to create a draft listing
type CreateProductRequest struct {
	VendorID     uuid.UUID       `json:"vendor_id" binding:"required"`
	SKU          string          `json:"sku" binding:"required,max=50"`
	Name         string          `json:"name" binding:"required,max=200"`
	Description  string          `json:"description"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	Currency     string          `json:"currency"`
	InitialStock int             `json:"initial_stock" binding:"min=0"`
}

// UpdateProductRequest represents a request to update listing details
type UpdateProductRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
}

// UpdateProductPriceRequest represents a request to reprice a listing.
// CompareAtPrice is cleared when omitted.
type UpdateProductPriceRequest struct {
	Price          decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
}

// SetProductCategoryRequest represents a request to move a listing into a
// category. A nil CategoryID removes the assignment.
type SetProductCategoryRequest struct {
	CategoryID *uuid.UUID `json:"category_id"`
}

// AdjustStockRequest represents a relative stock adjustment
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// SetStockRequest represents an absolute stock correction
type SetStockRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// InitiateImageUploadRequest asks for a presigned upload slot for one image
type InitiateImageUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// ConfirmImageUploadRequest attaches a previously uploaded object to the
// listing
type ConfirmImageUploadRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

// RemoveImageRequest detaches an image from the listing
type RemoveImageRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

// ProductListFilter represents filter options for product lists
type ProductListFilter struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
}

// ==================== Category DTOs ====================

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Slug        string     `json:"slug" binding:"required,max=100"`
	Name        string     `json:"name" binding:"required,max=100"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   *int       `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	SortOrder   *int   `json:"sort_order"`
}

// ==================== Responses ====================

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       uuid.UUID        `json:"tenant_id"`
	VendorID       uuid.UUID        `json:"vendor_id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	CategoryID     *uuid.UUID       `json:"category_id,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Currency       string           `json:"currency"`
	StockQuantity  int              `json:"stock_quantity"`
	Status         string           `json:"status"`
	Images         []string         `json:"images"`
	RatingAverage  decimal.Decimal  `json:"rating_average"`
	RatingCount    int              `json:"rating_count"`
	Version        int              `json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ImageUploadResponse carries the presigned slot the client uploads to
type ImageUploadResponse struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Path        string     `json:"path"`
	Level       int        `json:"level"`
	SortOrder   int        `json:"sort_order"`
	Status      string     `json:"status"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CategoryTreeNode is one node of the browse tree
type CategoryTreeNode struct {
	ID        uuid.UUID           `json:"id"`
	Slug      string              `json:"slug"`
	Name      string              `json:"name"`
	Level     int                 `json:"level"`
	SortOrder int                 `json:"sort_order"`
	Status    string              `json:"status"`
	Children  []*CategoryTreeNode `json:"children"`
}

// ==================== Converters ====================

// ToProductResponse converts a product aggregate to a response DTO
func ToProductResponse(product *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             product.ID,
		TenantID:       product.TenantID,
		VendorID:       product.VendorID,
		SKU:            product.SKU,
		Name:           product.Name,
		Description:    product.Description,
		CategoryID:     product.CategoryID,
		Price:          product.Price,
		CompareAtPrice: product.CompareAtPrice,
		Currency:       string(product.Currency),
		StockQuantity:  product.StockQuantity,
		Status:         string(product.Status),
		Images:         append([]string{}, product.Images...),
		RatingAverage:  product.RatingAverage,
		RatingCount:    product.RatingCount,
		Version:        product.Version,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products to response DTOs
func ToProductResponses(products []*catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, product := range products {
		responses[i] = ToProductResponse(product)
	}
	return responses
}

// ToCategoryResponse converts a category to a response DTO
func ToCategoryResponse(category *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		TenantID:    category.TenantID,
		Slug:        category.Slug,
		Name:        category.Name,
		Description: category.Description,
		ParentID:    category.ParentID,
		Path:        category.Path,
		Level:       category.Level,
		SortOrder:   category.SortOrder,
		Status:      string(category.Status),
		Version:     category.Version,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

// ToCategoryResponses converts a slice of categories to response DTOs
func ToCategoryResponses(categories []*catalog.Category) []CategoryResponse {
	responses := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		responses[i] = ToCategoryResponse(category)
	}
	return responses
}

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/domain/shared/valueobject"
)

// imageUploadExpiry bounds how long a presigned image upload slot stays open.
const imageUploadExpiry = 15 * time.Minute

// maxImagesPerProduct caps the gallery size of one listing.
const maxImagesPerProduct = 10

// allowedImageTypes is the content-type whitelist for listing images. SVG is
// excluded, it can carry scripts.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ProductService handles catalog listing operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	categoryRepo   catalog.CategoryRepository
	vendorRepo     partner.VendorRepository
	storage        shared.ObjectStorage
	clock          shared.Clock
	eventPublisher shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	vendorRepo partner.VendorRepository,
	storage shared.ObjectStorage,
	clock shared.Clock,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		vendorRepo:   vendorRepo,
		storage:      storage,
		clock:        clock,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a new draft listing for a vendor
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	vendor, err := s.vendorRepo.FindByIDForTenant(ctx, tenantID, req.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.CanSell() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Vendor %s cannot list products", vendor.StorefrontName()))
	}

	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		currency = valueobject.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))
		if !currency.IsValid() {
			return nil, shared.NewValidationError("Unsupported currency %q", req.Currency)
		}
	}
	price, err := valueobject.NewMoney(req.Price, currency)
	if err != nil {
		return nil, err
	}

	sku := strings.TrimSpace(req.SKU)
	exists, err := s.productRepo.ExistsBySKU(ctx, tenantID, strings.ToUpper(sku))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("SKU %s is already taken", strings.ToUpper(sku)))
	}

	now := s.clock.Now()
	product, err := catalog.NewProduct(tenantID, vendor.ID, sku, req.Name, price, now)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := product.Update(req.Name, req.Description, now); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, *req.CategoryID); err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewValidationError("Category %s does not exist", req.CategoryID)
			}
			return nil, err
		}
		product.SetCategory(req.CategoryID, now)
	}
	if req.InitialStock > 0 {
		if err := product.SetStock(req.InitialStock, now); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		// Events are delivered in-process after the save; a delivery failure
		// does not fail the creation
		_ = s.eventPublisher.Publish(ctx, product.GetDomainEvents()...)
	}
	product.ClearDomainEvents()

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// GetBySKU retrieves a product by its SKU
func (s *ProductService) GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, tenantID, strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// Update changes a listing's name and description
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Update(req.Name, req.Description, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, product)
}

// SetCategory moves a listing into a category, or clears the assignment
func (s *ProductService) SetCategory(ctx context.Context, tenantID, productID uuid.UUID, req SetProductCategoryRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, *req.CategoryID); err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewValidationError("Category %s does not exist", req.CategoryID)
			}
			return nil, err
		}
	}
	product.SetCategory(req.CategoryID, s.clock.Now())

	return s.saveMutation(ctx, product)
}

// UpdatePrice reprices a listing. Existing order items keep the price they
// snapshotted at placement.
func (s *ProductService) UpdatePrice(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductPriceRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	price, err := valueobject.NewMoney(req.Price, product.Currency)
	if err != nil {
		return nil, err
	}
	if err := product.UpdatePrice(price, now); err != nil {
		return nil, err
	}

	if req.CompareAtPrice != nil {
		compareAt, err := valueobject.NewMoney(*req.CompareAtPrice, product.Currency)
		if err != nil {
			return nil, err
		}
		if err := product.SetCompareAtPrice(&compareAt, now); err != nil {
			return nil, err
		}
	} else if err := product.SetCompareAtPrice(nil, now); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, product)
}

// Publish lists a draft or pulled product for sale
func (s *ProductService) Publish(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Publish(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, product)
}

// Unpublish pulls a listing from the storefront temporarily
func (s *ProductService) Unpublish(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Unpublish(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, product)
}

// Discontinue retires a listing permanently
func (s *ProductService) Discontinue(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Discontinue(s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, product)
}

// AdjustStock applies a relative stock change. Negative deltas that exceed
// the available stock are rejected, never clamped.
func (s *ProductService) AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	switch {
	case req.Delta > 0:
		err = product.IncreaseStock(req.Delta, now)
	case req.Delta < 0:
		err = product.DecreaseStock(-req.Delta, now)
	default:
		err = shared.NewValidationError("Stock adjustment cannot be zero")
	}
	if err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, product)
}

// SetStock records an absolute stock count, for corrections after a recount
func (s *ProductService) SetStock(ctx context.Context, tenantID, productID uuid.UUID, req SetStockRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.SetStock(req.Quantity, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, product)
}

// ListByVendor retrieves a vendor's listings
func (s *ProductService) ListByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter ProductListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.FindByVendor(ctx, tenantID, vendorID, buildProductFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// ListByCategory retrieves the listings in a category
func (s *ProductService) ListByCategory(ctx context.Context, tenantID, categoryID uuid.UUID, filter ProductListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.FindByCategory(ctx, tenantID, categoryID, buildProductFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// ListActive retrieves purchasable listings for storefront browsing
func (s *ProductService) ListActive(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.FindActive(ctx, tenantID, buildProductFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// ListLowStock retrieves active listings at or below the given stock level
func (s *ProductService) ListLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) ([]ProductResponse, error) {
	if threshold < 0 {
		return nil, shared.NewValidationError("Stock threshold cannot be negative")
	}
	products, err := s.productRepo.FindLowStock(ctx, tenantID, threshold)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// InitiateImageUpload hands out a presigned slot for one listing image. The
// client uploads directly to object storage and then confirms the key.
func (s *ProductService) InitiateImageUpload(ctx context.Context, tenantID, productID uuid.UUID, req InitiateImageUploadRequest) (*ImageUploadResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if !allowedImageTypes[contentType] {
		return nil, shared.NewValidationError("Content type %s is not an allowed image type", req.ContentType)
	}
	if len(product.Images) >= maxImagesPerProduct {
		return nil, shared.NewDomainError("LIMIT_EXCEEDED",
			fmt.Sprintf("Listing %s already has %d images", product.SKU, maxImagesPerProduct))
	}

	objectKey := imageObjectKey(tenantID, productID, req.FileName)
	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, objectKey, contentType, imageUploadExpiry)
	if err != nil {
		return nil, err
	}

	return &ImageUploadResponse{
		ObjectKey: objectKey,
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmImageUpload verifies the object landed in storage and attaches its
// key to the listing. Confirming an already attached key is a no-op.
func (s *ProductService) ConfirmImageUpload(ctx context.Context, tenantID, productID uuid.UUID, req ConfirmImageUploadRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	prefix := imageKeyPrefix(tenantID, productID)
	if !strings.HasPrefix(req.ObjectKey, prefix) {
		return nil, shared.NewValidationError("Object key does not belong to this listing")
	}

	for _, key := range product.Images {
		if key == req.ObjectKey {
			response := ToProductResponse(product)
			return &response, nil
		}
	}

	exists, err := s.storage.ObjectExists(ctx, req.ObjectKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewValidationError("No uploaded object found under key %s", req.ObjectKey)
	}

	if err := product.AddImage(req.ObjectKey, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.saveMutation(ctx, product)
}

// RemoveImage detaches an image from the listing and deletes the object
func (s *ProductService) RemoveImage(ctx context.Context, tenantID, productID uuid.UUID, req RemoveImageRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(product.Images))
	found := false
	for _, key := range product.Images {
		if key == req.ObjectKey {
			found = true
			continue
		}
		kept = append(kept, key)
	}
	if !found {
		return nil, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("Listing %s has no image %s", product.SKU, req.ObjectKey))
	}

	product.SetImages(kept, s.clock.Now())

	response, err := s.saveMutation(ctx, product)
	if err != nil {
		return nil, err
	}

	// The listing no longer references the key; a failed delete only leaves
	// an orphaned object behind
	_ = s.storage.DeleteObject(ctx, req.ObjectKey)

	return response, nil
}

// saveMutation persists a changed listing with its collected events
func (s *ProductService) saveMutation(ctx context.Context, product *catalog.Product) (*ProductResponse, error) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()

	if err := s.productRepo.SaveWithLockAndEvents(ctx, product, events); err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// buildProductFilter applies list defaults and converts to a domain filter
func buildProductFilter(filter ProductListFilter) shared.Filter {
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

	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
}

// imageKeyPrefix is the object-key namespace for one listing's images
func imageKeyPrefix(tenantID, productID uuid.UUID) string {
	return fmt.Sprintf("tenants/%s/products/%s/images/", tenantID, productID)
}

// imageObjectKey generates a unique object key for an uploaded image
func imageObjectKey(tenantID, productID uuid.UUID, fileName string) string {
	return imageKeyPrefix(tenantID, productID) + uuid.New().String() + filepath.Ext(fileName)
}

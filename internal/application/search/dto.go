package search

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Query DTOs ====================

// SearchProductsQuery carries a buyer's product search from the query string.
// Q is free text; every whitespace-separated term must match somewhere in the
// listing. The structured filters narrow the result on top of that.
type SearchProductsQuery struct {
	Q             string           `form:"q"`
	CategoryID    *uuid.UUID       `form:"category_id"`
	VendorID      *uuid.UUID       `form:"vendor_id"`
	PriceMin      *decimal.Decimal `form:"price_min"`
	PriceMax      *decimal.Decimal `form:"price_max"`
	MinRating     *decimal.Decimal `form:"min_rating" binding:"omitempty"`
	Sort          string           `form:"sort_by" binding:"omitempty,oneof=relevance price_asc price_desc name newest rating"`
	Page          int              `form:"page" binding:"omitempty,min=1"`
	PageSize      int              `form:"page_size" binding:"omitempty,min=1,max=100"`
	IncludeFacets bool             `form:"include_facets"`
}

// SearchVendorsQuery carries a storefront search
type SearchVendorsQuery struct {
	Q        string `form:"q"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SuggestQuery asks for autocomplete suggestions. Kind selects the corpus:
// product names plus category names, or vendor business names.
type SuggestQuery struct {
	Q     string `form:"q" binding:"required"`
	Kind  string `form:"type" binding:"omitempty,oneof=product vendor"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=20"`
}

// TrendingQuery selects the demand window, category scope and list size
type TrendingQuery struct {
	PeriodDays int        `form:"period_days" binding:"omitempty,min=1,max=30"`
	CategoryID *uuid.UUID `form:"category_id"`
	Limit      int        `form:"limit" binding:"omitempty,min=1,max=50"`
}

// SimilarQuery tunes the similar-products lookup. A nil Threshold keeps the
// default minimum similarity.
type SimilarQuery struct {
	Threshold *float64 `form:"threshold" binding:"omitempty,min=0,max=1"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=30"`
}

// CrossSellRequest asks what the given products are usually bought with,
// typically the current cart content
type CrossSellRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1,max=20"`
	Limit      int         `json:"limit" binding:"omitempty,min=1,max=50"`
}

// ==================== Response DTOs ====================

// ProductHitResponse is one ranked product search result
type ProductHitResponse struct {
	ProductID     uuid.UUID  `json:"product_id"`
	SKU           string     `json:"sku"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Price         float64    `json:"price"`
	Currency      string     `json:"currency"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	CategoryName  string     `json:"category_name,omitempty"`
	VendorID      uuid.UUID  `json:"vendor_id"`
	VendorName    string     `json:"vendor_name"`
	RatingAverage float64    `json:"rating_average"`
	RatingCount   int        `json:"rating_count"`
	InStock       bool       `json:"in_stock"`
	Score         int        `json:"score"`
	Position      int        `json:"position"`
}

// CategoryFacetResponse is one category bucket over the term matches
type CategoryFacetResponse struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Count      int64     `json:"count"`
}

// PriceBandFacetResponse is one price range bucket; a nil Max means open-ended
type PriceBandFacetResponse struct {
	Label string   `json:"label"`
	Min   float64  `json:"min"`
	Max   *float64 `json:"max,omitempty"`
	Count int64    `json:"count"`
}

// VendorFacetResponse is one vendor bucket over the term matches
type VendorFacetResponse struct {
	VendorID     uuid.UUID `json:"vendor_id"`
	BusinessName string    `json:"business_name"`
	Count        int64     `json:"count"`
}

// FacetsResponse groups the drill-down buckets of a product search
type FacetsResponse struct {
	Categories []CategoryFacetResponse  `json:"categories"`
	PriceBands []PriceBandFacetResponse `json:"price_bands"`
	Vendors    []VendorFacetResponse    `json:"vendors"`
}

// ProductSearchResponse is one page of product results
type ProductSearchResponse struct {
	Query      string               `json:"query"`
	Hits       []ProductHitResponse `json:"hits"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
	Facets     *FacetsResponse      `json:"facets,omitempty"`
}

// VendorHitResponse is one ranked storefront result
type VendorHitResponse struct {
	VendorID      uuid.UUID `json:"vendor_id"`
	Slug          string    `json:"slug"`
	BusinessName  string    `json:"business_name"`
	DisplayName   string    `json:"display_name,omitempty"`
	Description   string    `json:"description,omitempty"`
	RatingAverage float64   `json:"rating_average"`
	RatingCount   int       `json:"rating_count"`
	ProductCount  int64     `json:"product_count"`
	Score         int       `json:"score"`
	Position      int       `json:"position"`
}

// VendorSearchResponse is one page of storefront results
type VendorSearchResponse struct {
	Query      string              `json:"query"`
	Hits       []VendorHitResponse `json:"hits"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// SuggestResponse is the autocomplete payload
type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// TrendingProductResponse is one entry of the trending list
type TrendingProductResponse struct {
	ProductID     uuid.UUID  `json:"product_id"`
	SKU           string     `json:"sku"`
	Name          string     `json:"name"`
	Price         float64    `json:"price"`
	Currency      string     `json:"currency"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	VendorID      uuid.UUID  `json:"vendor_id"`
	VendorName    string     `json:"vendor_name"`
	RatingAverage float64    `json:"rating_average"`
	OrderCount    int64      `json:"order_count"`
	QuantitySold  int64      `json:"quantity_sold"`
	TrendScore    int64      `json:"trend_score"`
}

// TrendingResponse lists what sells right now. Fallback is true when the
// window held no orders and the newest listings were served instead.
type TrendingResponse struct {
	PeriodDays int                       `json:"period_days"`
	Fallback   bool                      `json:"fallback"`
	Products   []TrendingProductResponse `json:"products"`
}

// SimilarProductResponse is one similar product with its similarity score
type SimilarProductResponse struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	CategoryID    uuid.UUID `json:"category_id"`
	VendorID      uuid.UUID `json:"vendor_id"`
	VendorName    string    `json:"vendor_name"`
	RatingAverage float64   `json:"rating_average"`
	Similarity    float64   `json:"similarity"`
}

// SimilarResponse lists alternatives to one source product
type SimilarResponse struct {
	SourceProductID uuid.UUID                `json:"source_product_id"`
	Threshold       float64                  `json:"threshold"`
	Products        []SimilarProductResponse `json:"products"`
}

// CrossSellProductResponse is one frequently co-purchased product
type CrossSellProductResponse struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	VendorID      uuid.UUID `json:"vendor_id"`
	VendorName    string    `json:"vendor_name"`
	RatingAverage float64   `json:"rating_average"`
	Frequency     int64     `json:"frequency"`
	Score         int64     `json:"score"`
}

// CrossSellResponse lists companions for a set of products
type CrossSellResponse struct {
	Products []CrossSellProductResponse `json:"products"`
}

// Package search holds the discovery read side: normalized text queries
// over products and vendors, facet counts for the filter sidebar, and the
// heuristic recommendation rows. It owns no aggregates and publishes no
// events; everything here reads what catalog, partner and ordering wrote.
package search

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sort names the supported result orderings for product search
type Sort string

const (
	// SortRelevance orders by match score, best first
	SortRelevance Sort = "relevance"
	// SortPriceAsc orders by price, cheapest first
	SortPriceAsc Sort = "price_asc"
	// SortPriceDesc orders by price, most expensive first
	SortPriceDesc Sort = "price_desc"
	// SortName orders alphabetically by product name
	SortName Sort = "name"
	// SortNewest orders by listing creation time, newest first
	SortNewest Sort = "newest"
	// SortRating orders by rating average, best rated first
	SortRating Sort = "rating"
)

// ProductQuery is the fully resolved input for a product search: normalized
// terms plus the optional structured filters. Terms are ANDed together;
// within a term any of name, SKU or description may match.
type ProductQuery struct {
	TenantID   uuid.UUID
	Terms      []string
	CategoryID *uuid.UUID
	VendorID   *uuid.UUID
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	MinRating  *decimal.Decimal
	Sort       Sort
	Page       int
	PageSize   int
}

// Offset returns the row offset for the requested page
func (q ProductQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// VendorQuery is the resolved input for a vendor search
type VendorQuery struct {
	TenantID uuid.UUID
	Terms    []string
	Page     int
	PageSize int
}

// Offset returns the row offset for the requested page
func (q VendorQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// ProductHit is one product row in a search result page. Score is the
// summed term relevance (name hits weigh more than SKU hits, SKU more than
// description); Position is the absolute rank across pages.
type ProductHit struct {
	ProductID     uuid.UUID       `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName  string          `json:"category_name,omitempty"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	RatingAverage decimal.Decimal `json:"rating_average"`
	RatingCount   int             `json:"rating_count"`
	StockQuantity int             `json:"stock_quantity"`
	Score         int             `json:"score"`
	Position      int             `json:"position"`
}

// VendorHit is one vendor row in a search result page
type VendorHit struct {
	VendorID      uuid.UUID       `json:"vendor_id"`
	Slug          string          `json:"slug"`
	BusinessName  string          `json:"business_name"`
	DisplayName   string          `json:"display_name,omitempty"`
	Description   string          `json:"description,omitempty"`
	RatingAverage decimal.Decimal `json:"rating_average"`
	RatingCount   int             `json:"rating_count"`
	ProductCount  int64           `json:"product_count"`
	Score         int             `json:"score"`
	Position      int             `json:"position"`
}

// CategoryFacet counts the term matches inside one category
type CategoryFacet struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Count      int64     `json:"count"`
}

// PriceBand is one fixed bucket of the price facet. A nil Max means the
// band is open-ended.
type PriceBand struct {
	Min   decimal.Decimal
	Max   *decimal.Decimal
	Label string
}

// PriceBands returns the fixed buckets the price facet counts into
func PriceBands() []PriceBand {
	fifty := decimal.NewFromInt(50)
	hundred := decimal.NewFromInt(100)
	twoHundred := decimal.NewFromInt(200)
	return []PriceBand{
		{Min: decimal.Zero, Max: &fifty, Label: "Under $50"},
		{Min: fifty, Max: &hundred, Label: "$50 - $100"},
		{Min: hundred, Max: &twoHundred, Label: "$100 - $200"},
		{Min: twoHundred, Max: nil, Label: "Over $200"},
	}
}

// PriceBandFacet is one counted price bucket
type PriceBandFacet struct {
	Min   decimal.Decimal  `json:"min"`
	Max   *decimal.Decimal `json:"max,omitempty"`
	Label string           `json:"label"`
	Count int64            `json:"count"`
}

// VendorFacet counts the term matches belonging to one vendor
type VendorFacet struct {
	VendorID     uuid.UUID `json:"vendor_id"`
	BusinessName string    `json:"business_name"`
	Count        int64     `json:"count"`
}

// ProductFacets is the filter sidebar for a product search. Facets count
// over the term matches only, so a category filter still shows the other
// categories the same terms would reach.
type ProductFacets struct {
	Categories []CategoryFacet  `json:"categories"`
	PriceBands []PriceBandFacet `json:"price_bands"`
	Vendors    []VendorFacet    `json:"vendors"`
}

// ProductSearchRepository answers product discovery queries. Searches only
// ever see ACTIVE listings.
type ProductSearchRepository interface {
	// SearchProducts returns one result page plus the total match count
	SearchProducts(ctx context.Context, query ProductQuery) ([]ProductHit, int64, error)

	// GetProductFacets counts the term matches by category, price band and vendor
	GetProductFacets(ctx context.Context, query ProductQuery) (*ProductFacets, error)

	// SuggestProductNames returns distinct product names containing the term
	SuggestProductNames(ctx context.Context, tenantID uuid.UUID, term string, limit int) ([]string, error)

	// SuggestCategoryNames returns distinct category names containing the term
	SuggestCategoryNames(ctx context.Context, tenantID uuid.UUID, term string, limit int) ([]string, error)
}

// VendorSearchRepository answers vendor discovery queries. Searches only
// ever see ACTIVE, verified vendors.
type VendorSearchRepository interface {
	// SearchVendors returns one result page plus the total match count
	SearchVendors(ctx context.Context, query VendorQuery) ([]VendorHit, int64, error)

	// SuggestVendorNames returns distinct business names containing the term
	SuggestVendorNames(ctx context.Context, tenantID uuid.UUID, term string, limit int) ([]string, error)
}

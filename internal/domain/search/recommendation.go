package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrendingProduct is one row of the trending ranking. TrendScore weighs
// distinct orders ten times and units sold five times, so a product bought
// in many small orders outranks one bulk purchase of the same volume.
type TrendingProduct struct {
	ProductID     uuid.UUID       `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	RatingAverage decimal.Decimal `json:"rating_average"`
	OrderCount    int64           `json:"order_count"`
	QuantitySold  int64           `json:"quantity_sold"`
	TrendScore    int64           `json:"trend_score"`
}

// SimilarCandidate is a same-category product inside the price corridor
// around a source product. The repository orders candidates by price
// distance; the similarity weighting happens in the application layer.
type SimilarCandidate struct {
	ProductID     uuid.UUID       `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	CategoryID    uuid.UUID       `json:"category_id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	RatingAverage decimal.Decimal `json:"rating_average"`
}

// CrossSellProduct is a product frequently bought in the same orders as a
// given set of products. Frequency counts co-occurring order lines.
type CrossSellProduct struct {
	ProductID     uuid.UUID       `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	RatingAverage decimal.Decimal `json:"rating_average"`
	Frequency     int64           `json:"frequency"`
}

// RecommendationRepository answers the heuristic discovery queries. All
// rankings cover ACTIVE listings only.
type RecommendationRepository interface {
	// FindTrending ranks products by demand since the given instant,
	// optionally inside one category. Order status does not matter here;
	// a later cancellation does not undo the demand signal.
	FindTrending(ctx context.Context, tenantID uuid.UUID, since time.Time, categoryID *uuid.UUID, limit int) ([]TrendingProduct, error)

	// FindNewestActive returns the freshest listings with zeroed demand
	// metrics, the fallback when a window has no orders at all
	FindNewestActive(ctx context.Context, tenantID uuid.UUID, categoryID *uuid.UUID, limit int) ([]TrendingProduct, error)

	// FindSimilarCandidates returns other products of the category priced
	// inside [priceLow, priceHigh], closest to sourcePrice first
	FindSimilarCandidates(ctx context.Context, tenantID, categoryID, excludeProductID uuid.UUID, sourcePrice, priceLow, priceHigh decimal.Decimal, limit int) ([]SimilarCandidate, error)

	// FindCrossSell returns products co-purchased with the given ones at
	// least minFrequency times, most frequent first
	FindCrossSell(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID, minFrequency int64, limit int) ([]CrossSellProduct, error)
}

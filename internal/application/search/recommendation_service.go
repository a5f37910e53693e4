package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/search"
	"github.com/markethub/backend/internal/domain/shared"
)

const (
	// DefaultTrendingWindowDays is the demand window when the client names none
	DefaultTrendingWindowDays = 7
	maxTrendingWindowDays     = 30
	defaultTrendingLimit      = 10
	maxTrendingLimit          = 50

	// DefaultSimilarityThreshold is the minimum similarity a candidate needs
	// to make the similar-products list
	DefaultSimilarityThreshold = 0.5
	defaultSimilarLimit        = 10
	maxSimilarLimit            = 30

	defaultCrossSellLimit = 10
	maxCrossSellLimit     = 50
)

// Similarity weighting: sharing the category carries more than being close
// in price. Candidates always share the category, so the price component is
// what separates them.
const (
	similarPriceWeight    = 0.4
	similarCategoryWeight = 0.6
)

// Cross-sell pairs below this co-occurrence count are considered noise
const crossSellMinFrequency = 2

// crossSellScoreWeight scales co-occurrence counts into display scores
const crossSellScoreWeight = 10

// Price corridor for similar products: half to double the source price
var (
	similarPriceLowFactor  = decimal.NewFromFloat(0.5)
	similarPriceHighFactor = decimal.NewFromInt(2)
)

// RecommendationService serves the heuristic discovery lists: trending,
// similar products and cross-sell companions
type RecommendationService struct {
	recommendations search.RecommendationRepository
	productRepo     catalog.ProductRepository
	cache           QueryCache
	cacheTTL        time.Duration
	clock           shared.Clock
	logger          *zap.Logger
}

// NewRecommendationService creates a recommendation service without caching
func NewRecommendationService(
	recommendations search.RecommendationRepository,
	productRepo catalog.ProductRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *RecommendationService {
	return &RecommendationService{
		recommendations: recommendations,
		productRepo:     productRepo,
		cacheTTL:        DefaultCacheTTL,
		clock:           clock,
		logger:          logger,
	}
}

// SetQueryCache attaches a result cache. A non-positive ttl keeps the default.
func (s *RecommendationService) SetQueryCache(cache QueryCache, ttl time.Duration) {
	s.cache = cache
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// GetTrending ranks what sold inside the window. When the window holds no
// orders at all, the newest listings stand in so the storefront never shows
// an empty shelf.
func (s *RecommendationService) GetTrending(ctx context.Context, tenantID uuid.UUID, query TrendingQuery) (*TrendingResponse, error) {
	days := query.PeriodDays
	if days <= 0 {
		days = DefaultTrendingWindowDays
	}
	if days > maxTrendingWindowDays {
		days = maxTrendingWindowDays
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	if limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}

	cacheKey := fmt.Sprintf("search:trending:%s:%s:%dd:%d", tenantID, categoryKey(query.CategoryID), days, limit)
	var cached TrendingResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	since := s.clock.Now().UTC().AddDate(0, 0, -days)
	products, err := s.recommendations.FindTrending(ctx, tenantID, since, query.CategoryID, limit)
	if err != nil {
		return nil, err
	}

	fallback := false
	if len(products) == 0 {
		products, err = s.recommendations.FindNewestActive(ctx, tenantID, query.CategoryID, limit)
		if err != nil {
			return nil, err
		}
		fallback = true
	}

	response := &TrendingResponse{
		PeriodDays: days,
		Fallback:   fallback,
		Products:   toTrendingProductResponses(products),
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// GetSimilar lists alternatives to one listing: same category, priced between
// half and double the source, scored by price proximity. The source must be
// an ACTIVE listing of the tenant.
func (s *RecommendationService) GetSimilar(ctx context.Context, tenantID, productID uuid.UUID, query SimilarQuery) (*SimilarResponse, error) {
	threshold := DefaultSimilarityThreshold
	if query.Threshold != nil {
		threshold = *query.Threshold
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}

	cacheKey := fmt.Sprintf("search:similar:%s:%s:t=%.2f:%d", tenantID, productID, threshold, limit)
	var cached SimilarResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	source, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !source.IsActive() {
		return nil, shared.ErrNotFound
	}

	response := &SimilarResponse{
		SourceProductID: productID,
		Threshold:       threshold,
		Products:        []SimilarProductResponse{},
	}
	if source.CategoryID == nil {
		// Nothing to compare against without a category
		return response, nil
	}

	priceLow := source.Price.Mul(similarPriceLowFactor)
	priceHigh := source.Price.Mul(similarPriceHighFactor)

	// Overfetch: the threshold filter below can only shrink the list
	candidates, err := s.recommendations.FindSimilarCandidates(ctx, tenantID, *source.CategoryID, source.ID, source.Price, priceLow, priceHigh, limit*2)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		if len(response.Products) >= limit {
			break
		}
		similarity := similarityScore(source.Price, candidate.Price)
		if similarity < threshold {
			continue
		}
		response.Products = append(response.Products, SimilarProductResponse{
			ProductID:     candidate.ProductID,
			SKU:           candidate.SKU,
			Name:          candidate.Name,
			Price:         toFloat64(candidate.Price),
			Currency:      candidate.Currency,
			CategoryID:    candidate.CategoryID,
			VendorID:      candidate.VendorID,
			VendorName:    candidate.VendorName,
			RatingAverage: toFloat64(candidate.RatingAverage),
			Similarity:    similarity,
		})
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// GetCrossSell lists products frequently bought together with the given
// ones, usually the current cart
func (s *RecommendationService) GetCrossSell(ctx context.Context, tenantID uuid.UUID, req CrossSellRequest) (*CrossSellResponse, error) {
	ids := dedupeIDs(req.ProductIDs)
	response := &CrossSellResponse{Products: []CrossSellProductResponse{}}
	if len(ids) == 0 {
		return response, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultCrossSellLimit
	}
	if limit > maxCrossSellLimit {
		limit = maxCrossSellLimit
	}

	cacheKey := fmt.Sprintf("search:cross-sell:%s:%s:%d", tenantID, idSetKey(ids), limit)
	var cached CrossSellResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	products, err := s.recommendations.FindCrossSell(ctx, tenantID, ids, crossSellMinFrequency, limit)
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		response.Products = append(response.Products, CrossSellProductResponse{
			ProductID:     product.ProductID,
			SKU:           product.SKU,
			Name:          product.Name,
			Price:         toFloat64(product.Price),
			Currency:      product.Currency,
			VendorID:      product.VendorID,
			VendorName:    product.VendorName,
			RatingAverage: toFloat64(product.RatingAverage),
			Frequency:     product.Frequency,
			Score:         product.Frequency * crossSellScoreWeight,
		})
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *RecommendationService) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Recommendation cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Recommendation cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *RecommendationService) storeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Recommendation cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Recommendation cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// similarityScore blends price proximity with the shared category. Identical
// prices give 1.0; at the corridor edges the price component bottoms out and
// the category share keeps the score at its floor.
func similarityScore(sourcePrice, candidatePrice decimal.Decimal) float64 {
	maxPrice := decimal.Max(sourcePrice, candidatePrice)
	priceSimilarity := 1.0
	if !maxPrice.IsZero() {
		diff := sourcePrice.Sub(candidatePrice).Abs()
		ratio, _ := diff.Div(maxPrice).Float64()
		priceSimilarity = 1.0 - ratio
	}
	score := similarPriceWeight*priceSimilarity + similarCategoryWeight
	return math.Round(score*10000) / 10000
}

func toTrendingProductResponses(products []search.TrendingProduct) []TrendingProductResponse {
	responses := make([]TrendingProductResponse, len(products))
	for i, product := range products {
		responses[i] = TrendingProductResponse{
			ProductID:     product.ProductID,
			SKU:           product.SKU,
			Name:          product.Name,
			Price:         toFloat64(product.Price),
			Currency:      product.Currency,
			CategoryID:    product.CategoryID,
			VendorID:      product.VendorID,
			VendorName:    product.VendorName,
			RatingAverage: toFloat64(product.RatingAverage),
			OrderCount:    product.OrderCount,
			QuantitySold:  product.QuantitySold,
			TrendScore:    product.TrendScore,
		}
	}
	return responses
}

func categoryKey(categoryID *uuid.UUID) string {
	if categoryID == nil {
		return "all"
	}
	return categoryID.String()
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	deduped := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	return deduped
}

// idSetKey renders an order-independent cache key fragment for a set of ids
func idSetKey(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, "+")
}

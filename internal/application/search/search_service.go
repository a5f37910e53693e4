package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/search"
)

// DefaultCacheTTL is how long search pages stay served from cache. Listings
// churn faster than dashboards, so the window is short.
const DefaultCacheTTL = 2 * time.Minute

const (
	defaultPageSize     = 20
	maxPageSize         = 100
	minSuggestLength    = 2
	defaultSuggestLimit = 10
	maxSuggestLimit     = 20
)

// Suggestion corpora a SuggestQuery can select
const (
	SuggestKindProduct = "product"
	SuggestKindVendor  = "vendor"
)

// QueryCache is the slice of a cache the discovery side needs
type QueryCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SearchService runs buyer-facing discovery over the catalog read side
type SearchService struct {
	products search.ProductSearchRepository
	vendors  search.VendorSearchRepository
	cache    QueryCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSearchService creates a search service without result caching
func NewSearchService(products search.ProductSearchRepository, vendors search.VendorSearchRepository, logger *zap.Logger) *SearchService {
	return &SearchService{
		products: products,
		vendors:  vendors,
		cacheTTL: DefaultCacheTTL,
		logger:   logger,
	}
}

// SetQueryCache attaches a result cache. A non-positive ttl keeps the default.
func (s *SearchService) SetQueryCache(cache QueryCache, ttl time.Duration) {
	s.cache = cache
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// SearchProducts returns one ranked page of listings. The free text is
// normalized (case folded, accents stripped) into terms before matching;
// facets are computed on request, over the term matches alone.
func (s *SearchService) SearchProducts(ctx context.Context, tenantID uuid.UUID, query SearchProductsQuery) (*ProductSearchResponse, error) {
	terms := search.NormalizeQuery(query.Q)
	sortBy := normalizeSort(query.Sort)
	page, pageSize := normalizePage(query.Page, query.PageSize)

	cacheKey := productSearchCacheKey(tenantID, terms, sortBy, page, pageSize, query)
	var cached ProductSearchResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	productQuery := search.ProductQuery{
		TenantID:   tenantID,
		Terms:      terms,
		CategoryID: query.CategoryID,
		VendorID:   query.VendorID,
		PriceMin:   query.PriceMin,
		PriceMax:   query.PriceMax,
		MinRating:  query.MinRating,
		Sort:       sortBy,
		Page:       page,
		PageSize:   pageSize,
	}

	hits, total, err := s.products.SearchProducts(ctx, productQuery)
	if err != nil {
		return nil, err
	}

	response := &ProductSearchResponse{
		Query:      strings.TrimSpace(query.Q),
		Hits:       toProductHitResponses(hits),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}

	if query.IncludeFacets {
		facets, err := s.products.GetProductFacets(ctx, productQuery)
		if err != nil {
			return nil, err
		}
		response.Facets = toFacetsResponse(facets)
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// SearchVendors returns one ranked page of storefronts
func (s *SearchService) SearchVendors(ctx context.Context, tenantID uuid.UUID, query SearchVendorsQuery) (*VendorSearchResponse, error) {
	terms := search.NormalizeQuery(query.Q)
	page, pageSize := normalizePage(query.Page, query.PageSize)

	cacheKey := fmt.Sprintf("search:vendors:%s:q=%s:page=%d:size=%d", tenantID, strings.Join(terms, "+"), page, pageSize)
	var cached VendorSearchResponse
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	hits, total, err := s.vendors.SearchVendors(ctx, search.VendorQuery{
		TenantID: tenantID,
		Terms:    terms,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}

	response := &VendorSearchResponse{
		Query:      strings.TrimSpace(query.Q),
		Hits:       toVendorHitResponses(hits),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}

	s.storeCache(ctx, cacheKey, response)
	return response, nil
}

// Suggest returns typeahead completions. Queries shorter than two characters
// after normalization return nothing. Suggestions are never cached; the key
// space is too scattered for a useful hit rate.
func (s *SearchService) Suggest(ctx context.Context, tenantID uuid.UUID, query SuggestQuery) (*SuggestResponse, error) {
	term := search.NormalizeTerm(query.Q)
	response := &SuggestResponse{Query: term, Suggestions: []string{}}
	if utf8.RuneCountInString(term) < minSuggestLength {
		return response, nil
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	if query.Kind == SuggestKindVendor {
		names, err := s.vendors.SuggestVendorNames(ctx, tenantID, term, limit)
		if err != nil {
			return nil, err
		}
		response.Suggestions = append(response.Suggestions, names...)
		return response, nil
	}

	productNames, err := s.products.SuggestProductNames(ctx, tenantID, term, limit)
	if err != nil {
		return nil, err
	}
	categoryNames, err := s.products.SuggestCategoryNames(ctx, tenantID, term, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, limit)
	for _, name := range append(productNames, categoryNames...) {
		if len(response.Suggestions) >= limit {
			break
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		response.Suggestions = append(response.Suggestions, name)
	}
	return response, nil
}

func (s *SearchService) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Search cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Search cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *SearchService) storeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Search cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Search cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func productSearchCacheKey(tenantID uuid.UUID, terms []string, sortBy search.Sort, page, pageSize int, query SearchProductsQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "search:products:%s:q=%s:sort=%s:page=%d:size=%d", tenantID, strings.Join(terms, "+"), sortBy, page, pageSize)
	if query.CategoryID != nil {
		fmt.Fprintf(&b, ":cat=%s", *query.CategoryID)
	}
	if query.VendorID != nil {
		fmt.Fprintf(&b, ":vendor=%s", *query.VendorID)
	}
	if query.PriceMin != nil {
		fmt.Fprintf(&b, ":pmin=%s", query.PriceMin)
	}
	if query.PriceMax != nil {
		fmt.Fprintf(&b, ":pmax=%s", query.PriceMax)
	}
	if query.MinRating != nil {
		fmt.Fprintf(&b, ":minr=%s", query.MinRating)
	}
	if query.IncludeFacets {
		b.WriteString(":facets")
	}
	return b.String()
}

func toProductHitResponses(hits []search.ProductHit) []ProductHitResponse {
	responses := make([]ProductHitResponse, len(hits))
	for i, hit := range hits {
		responses[i] = ProductHitResponse{
			ProductID:     hit.ProductID,
			SKU:           hit.SKU,
			Name:          hit.Name,
			Description:   hit.Description,
			Price:         toFloat64(hit.Price),
			Currency:      hit.Currency,
			CategoryID:    hit.CategoryID,
			CategoryName:  hit.CategoryName,
			VendorID:      hit.VendorID,
			VendorName:    hit.VendorName,
			RatingAverage: toFloat64(hit.RatingAverage),
			RatingCount:   hit.RatingCount,
			InStock:       hit.StockQuantity > 0,
			Score:         hit.Score,
			Position:      hit.Position,
		}
	}
	return responses
}

func toVendorHitResponses(hits []search.VendorHit) []VendorHitResponse {
	responses := make([]VendorHitResponse, len(hits))
	for i, hit := range hits {
		responses[i] = VendorHitResponse{
			VendorID:      hit.VendorID,
			Slug:          hit.Slug,
			BusinessName:  hit.BusinessName,
			DisplayName:   hit.DisplayName,
			Description:   hit.Description,
			RatingAverage: toFloat64(hit.RatingAverage),
			RatingCount:   hit.RatingCount,
			ProductCount:  hit.ProductCount,
			Score:         hit.Score,
			Position:      hit.Position,
		}
	}
	return responses
}

func toFacetsResponse(facets *search.ProductFacets) *FacetsResponse {
	if facets == nil {
		return nil
	}
	response := &FacetsResponse{
		Categories: make([]CategoryFacetResponse, len(facets.Categories)),
		PriceBands: make([]PriceBandFacetResponse, len(facets.PriceBands)),
		Vendors:    make([]VendorFacetResponse, len(facets.Vendors)),
	}
	for i, facet := range facets.Categories {
		response.Categories[i] = CategoryFacetResponse{
			CategoryID: facet.CategoryID,
			Name:       facet.Name,
			Count:      facet.Count,
		}
	}
	for i, band := range facets.PriceBands {
		item := PriceBandFacetResponse{
			Label: band.Label,
			Min:   toFloat64(band.Min),
			Count: band.Count,
		}
		if band.Max != nil {
			upper := toFloat64(*band.Max)
			item.Max = &upper
		}
		response.PriceBands[i] = item
	}
	for i, facet := range facets.Vendors {
		response.Vendors[i] = VendorFacetResponse{
			VendorID:     facet.VendorID,
			BusinessName: facet.BusinessName,
			Count:        facet.Count,
		}
	}
	return response
}

func normalizeSort(raw string) search.Sort {
	switch sortBy := search.Sort(raw); sortBy {
	case search.SortPriceAsc, search.SortPriceDesc, search.SortName, search.SortNewest, search.SortRating:
		return sortBy
	default:
		return search.SortRelevance
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 {
		return 0
	}
	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}
	return int(pages)
}

func toFloat64(value decimal.Decimal) float64 {
	f, _ := value.Float64()
	return f
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	searchapp "github.com/markethub/backend/internal/application/search"
)

// SearchHandler handles catalog search and recommendation API endpoints
type SearchHandler struct {
	BaseHandler
	searchService         *searchapp.SearchService
	recommendationService *searchapp.RecommendationService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searchService *searchapp.SearchService, recommendationService *searchapp.RecommendationService) *SearchHandler {
	return &SearchHandler{
		searchService:         searchService,
		recommendationService: recommendationService,
	}
}

// SearchProducts godoc
// @Summary      Search products
// @Description  Full-text search over active products with optional facets
// @Tags         search
// @Produce      json
// @Param        q query string false "Search terms"
// @Param        category_id query string false "Filter by category" format(uuid)
// @Param        vendor_id query string false "Filter by vendor" format(uuid)
// @Param        price_min query number false "Minimum price"
// @Param        price_max query number false "Maximum price"
// @Param        min_rating query number false "Minimum average rating"
// @Param        sort_by query string false "Sort key (relevance, price_asc, price_desc, rating, newest)"
// @Param        include_facets query bool false "Include facet counts"
// @Success      200 {object} dto.Response{data=search.ProductSearchResponse}
// @Router       /search/products [get]
func (h *SearchHandler) SearchProducts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query searchapp.SearchProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.searchService.SearchProducts(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SearchVendors godoc
// @Summary      Search vendors
// @Tags         search
// @Produce      json
// @Param        q query string false "Search terms"
// @Success      200 {object} dto.Response{data=search.VendorSearchResponse}
// @Router       /search/vendors [get]
func (h *SearchHandler) SearchVendors(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query searchapp.SearchVendorsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.searchService.SearchVendors(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Suggest godoc
// @Summary      Search suggestions
// @Description  Prefix suggestions for the search box
// @Tags         search
// @Produce      json
// @Param        q query string true "Prefix"
// @Param        type query string false "Suggestion kind (product, vendor, category)"
// @Param        limit query int false "Maximum suggestions (default 10)"
// @Success      200 {object} dto.Response{data=search.SuggestResponse}
// @Router       /search/suggest [get]
func (h *SearchHandler) Suggest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query searchapp.SuggestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.searchService.Suggest(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetTrending godoc
// @Summary      Trending products
// @Description  Products ranked by recent sales velocity
// @Tags         recommendations
// @Produce      json
// @Param        period_days query int false "Lookback window in days"
// @Param        limit query int false "Maximum products (default 10)"
// @Success      200 {object} dto.Response{data=search.TrendingResponse}
// @Router       /recommendations/trending [get]
func (h *SearchHandler) GetTrending(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query searchapp.TrendingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.recommendationService.GetTrending(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetSimilar godoc
// @Summary      Similar products
// @Description  Products from the same category ranked by rating and sales
// @Tags         recommendations
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        limit query int false "Maximum products (default 10)"
// @Success      200 {object} dto.Response{data=search.SimilarResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /recommendations/products/{product_id}/similar [get]
func (h *SearchHandler) GetSimilar(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var query searchapp.SimilarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.recommendationService.GetSimilar(c.Request.Context(), tenantID, productID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetCrossSell godoc
// @Summary      Cross-sell products
// @Description  Products frequently bought together with the given cart contents
// @Tags         recommendations
// @Accept       json
// @Produce      json
// @Param        request body search.CrossSellRequest true "Cart product IDs"
// @Success      200 {object} dto.Response{data=search.CrossSellResponse}
// @Router       /recommendations/cross-sell [post]
func (h *SearchHandler) GetCrossSell(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req searchapp.CrossSellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.recommendationService.GetCrossSell(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

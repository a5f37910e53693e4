package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	analyticsapp "github.com/markethub/backend/internal/application/analytics"
)

// AnalyticsHandler handles marketplace analytics API endpoints
type AnalyticsHandler struct {
	BaseHandler
	analyticsService *analyticsapp.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService *analyticsapp.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// RefreshDashboardRequest forces a dashboard block recomputation
type RefreshDashboardRequest struct {
	Block      string `json:"block" binding:"required,oneof=OVERVIEW REVENUE_TREND TOP_PRODUCTS VENDOR_RANKING"`
	PeriodDays int    `json:"period_days" binding:"omitempty,min=1,max=365"`
}

// GetOverview godoc
// @Summary      Marketplace overview
// @Description  Order, revenue and subscription KPIs over the requested period
// @Tags         analytics
// @Produce      json
// @Param        period_days query int false "Period in days (default 30)"
// @Success      200 {object} dto.Response{data=analytics.OverviewResponse}
// @Security     BearerAuth
// @Router       /analytics/overview [get]
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query analyticsapp.OverviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	overview, err := h.analyticsService.GetOverview(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, overview)
}

// GetRevenueTrend godoc
// @Summary      Daily revenue trend
// @Tags         analytics
// @Produce      json
// @Param        period_days query int false "Period in days (default 30)"
// @Param        vendor_id query string false "Restrict to one vendor" format(uuid)
// @Success      200 {object} dto.Response{data=analytics.RevenueTrendResponse}
// @Security     BearerAuth
// @Router       /analytics/revenue-trend [get]
func (h *AnalyticsHandler) GetRevenueTrend(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query analyticsapp.TrendQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trend, err := h.analyticsService.GetRevenueTrend(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, trend)
}

// GetTopProducts godoc
// @Summary      Top selling products
// @Tags         analytics
// @Produce      json
// @Param        period_days query int false "Period in days (default 30)"
// @Param        top_n query int false "Ranking size (default 10)"
// @Param        vendor_id query string false "Restrict to one vendor" format(uuid)
// @Success      200 {object} dto.Response{data=analytics.TopProductsResponse}
// @Security     BearerAuth
// @Router       /analytics/top-products [get]
func (h *AnalyticsHandler) GetTopProducts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query analyticsapp.RankingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	products, err := h.analyticsService.GetTopProducts(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, products)
}

// GetVendorRanking godoc
// @Summary      Vendor performance ranking
// @Tags         analytics
// @Produce      json
// @Param        period_days query int false "Period in days (default 30)"
// @Param        top_n query int false "Ranking size (default 10)"
// @Success      200 {object} dto.Response{data=analytics.VendorRankingResponse}
// @Security     BearerAuth
// @Router       /analytics/vendor-ranking [get]
func (h *AnalyticsHandler) GetVendorRanking(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query analyticsapp.RankingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ranking, err := h.analyticsService.GetVendorRanking(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ranking)
}

// GetVendorDashboard godoc
// @Summary      Vendor dashboard
// @Description  One vendor's sales, rating and subscription usage in a single payload
// @Tags         analytics
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Param        period_days query int false "Period in days (default 30)"
// @Success      200 {object} dto.Response{data=analytics.VendorDashboardResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/vendors/{vendor_id}/dashboard [get]
func (h *AnalyticsHandler) GetVendorDashboard(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("vendor_id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var query analyticsapp.OverviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	dashboard, err := h.analyticsService.GetVendorDashboard(c.Request.Context(), tenantID, vendorID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dashboard)
}

// GetUsageSummary godoc
// @Summary      Vendor usage summary
// @Description  Per-feature metered usage against the vendor's plan limits
// @Tags         analytics
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=analytics.UsageSummaryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/vendors/{vendor_id}/usage [get]
func (h *AnalyticsHandler) GetUsageSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	vendorID, err := uuid.Parse(c.Param("vendor_id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	summary, err := h.analyticsService.GetUsageSummary(c.Request.Context(), tenantID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// RefreshDashboard godoc
// @Summary      Refresh a dashboard block
// @Description  Drops the cached block and recomputes it
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        request body handler.RefreshDashboardRequest true "Block to refresh"
// @Success      204 "No Content"
// @Security     BearerAuth
// @Router       /analytics/refresh [post]
func (h *AnalyticsHandler) RefreshDashboard(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req RefreshDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.analyticsService.RefreshDashboard(c.Request.Context(), tenantID, analyticsapp.DashboardBlock(req.Block), req.PeriodDays); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

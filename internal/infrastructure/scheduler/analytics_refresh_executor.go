package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/application/analytics"
)

// DashboardRefresher is the slice of the analytics service the executor needs
type DashboardRefresher interface {
	RefreshDashboard(ctx context.Context, tenantID uuid.UUID, block analytics.DashboardBlock, periodDays int) error
}

// AnalyticsRefreshExecutor recomputes cached dashboard aggregates. It is the
// JobExecutor behind the nightly refresh: each job names one tenant, one
// dashboard block, and the window to recompute.
type AnalyticsRefreshExecutor struct {
	service DashboardRefresher
	logger  *zap.Logger
}

// NewAnalyticsRefreshExecutor creates a new analytics refresh executor
func NewAnalyticsRefreshExecutor(service DashboardRefresher, logger *zap.Logger) *AnalyticsRefreshExecutor {
	return &AnalyticsRefreshExecutor{
		service: service,
		logger:  logger,
	}
}

// Execute runs a single refresh job
func (e *AnalyticsRefreshExecutor) Execute(ctx context.Context, job *Job) error {
	if job.TenantID == nil {
		return fmt.Errorf("%w: refresh jobs require a tenant", ErrRefreshFailed)
	}

	block, err := dashboardBlockFor(job.RefreshType)
	if err != nil {
		return err
	}

	days := periodDays(job.PeriodStart, job.PeriodEnd)
	start := time.Now()
	if err := e.service.RefreshDashboard(ctx, *job.TenantID, block, days); err != nil {
		return fmt.Errorf("%w: %s for tenant %s: %v", ErrRefreshFailed, job.RefreshType, job.TenantID, err)
	}

	e.logger.Debug("Dashboard aggregate refreshed",
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("refresh_type", string(job.RefreshType)),
		zap.Int("period_days", days),
		zap.Duration("took", time.Since(start)),
	)

	return nil
}

// dashboardBlockFor maps a refresh type to the service-side dashboard block
func dashboardBlockFor(t RefreshType) (analytics.DashboardBlock, error) {
	switch t {
	case RefreshTypeOverview:
		return analytics.DashboardOverview, nil
	case RefreshTypeRevenueTrend:
		return analytics.DashboardRevenueTrend, nil
	case RefreshTypeTopProducts:
		return analytics.DashboardTopProducts, nil
	case RefreshTypeVendorRanking:
		return analytics.DashboardVendorRanking, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRefreshType, t)
	}
}

// periodDays converts a job window to whole days, rounding up partial days
func periodDays(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int((end.Sub(start) + 24*time.Hour - 1) / (24 * time.Hour))
}

var _ JobExecutor = (*AnalyticsRefreshExecutor)(nil)

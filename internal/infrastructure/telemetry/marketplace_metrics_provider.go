// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMarketplaceMetricsProvider implements MarketplaceMetricsProvider using
// GORM. It queries the subscriptions and products tables directly for
// aggregated counts.
type GormMarketplaceMetricsProvider struct {
	db *gorm.DB
}

// NewGormMarketplaceMetricsProvider creates a new GormMarketplaceMetricsProvider.
func NewGormMarketplaceMetricsProvider(db *gorm.DB) *GormMarketplaceMetricsProvider {
	return &GormMarketplaceMetricsProvider{db: db}
}

// GetSubscriptionCountsByStatus returns the number of vendor subscriptions
// per status for a tenant.
func (p *GormMarketplaceMetricsProvider) GetSubscriptionCountsByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	type result struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("subscriptions").
		Select("status, COUNT(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.Status] = r.Count
	}

	return m, nil
}

// GetLowStockCount returns the count of active products at or below the
// stock threshold for a tenant.
func (p *GormMarketplaceMetricsProvider) GetLowStockCount(ctx context.Context, tenantID uuid.UUID, threshold int) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("tenant_id = ? AND status = ?", tenantID, "ACTIVE").
		Where("stock_quantity <= ?", threshold).
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all active tenant IDs.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("tenants").
		Select("id").
		Where("status IN ?", []string{"ACTIVE", "TRIAL"}).
		Find(&ids).Error

	return ids, err
}

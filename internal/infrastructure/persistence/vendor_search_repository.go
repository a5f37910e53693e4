package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/search"
)

// GormVendorSearchRepository finds storefronts by name or description.
// Only ACTIVE, VERIFIED vendors surface; a suspended or unvetted seller is
// invisible to buyers no matter how well the terms match.
type GormVendorSearchRepository struct {
	db *gorm.DB
}

// NewGormVendorSearchRepository creates a vendor search repository
func NewGormVendorSearchRepository(db *gorm.DB) *GormVendorSearchRepository {
	return &GormVendorSearchRepository{db: db}
}

func (r *GormVendorSearchRepository) matchedVendors(ctx context.Context, query search.VendorQuery) *gorm.DB {
	db := r.db.WithContext(ctx).
		Table("vendors v").
		Where("v.tenant_id = ?", query.TenantID).
		Where("v.status = ?", partner.VendorStatusActive).
		Where("v.verification = ?", partner.VerificationStatusVerified)
	for _, term := range query.Terms {
		pattern := "%" + term + "%"
		db = db.Where("(LOWER(v.business_name) LIKE ? OR LOWER(v.display_name) LIKE ? OR LOWER(v.description) LIKE ?)", pattern, pattern, pattern)
	}
	return db
}

// SearchVendors returns one page of ranked storefronts plus the total match
// count. ProductCount covers ACTIVE listings only.
func (r *GormVendorSearchRepository) SearchVendors(ctx context.Context, query search.VendorQuery) ([]search.VendorHit, int64, error) {
	var total int64
	if err := r.matchedVendors(ctx, query).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vendor matches: %w", err)
	}

	scoreExpr, scoreArgs := termScoreExpr(query.Terms, "v.business_name", "v.display_name", "v.description")

	type vendorRow struct {
		VendorID      uuid.UUID
		Slug          string
		BusinessName  string
		DisplayName   string
		Description   string
		RatingAverage decimal.Decimal
		RatingCount   int
		ProductCount  int64
		Score         int
	}
	var rows []vendorRow

	err := r.matchedVendors(ctx, query).
		Select(`v.id AS vendor_id, v.slug, v.business_name, v.display_name, v.description,
			v.rating_average, v.rating_count,
			COALESCE(pc.product_count, 0) AS product_count,
			`+scoreExpr+` AS score`, scoreArgs...).
		Joins(`LEFT JOIN (
			SELECT vendor_id, COUNT(*) AS product_count
			FROM products
			WHERE status = ?
			GROUP BY vendor_id
		) pc ON pc.vendor_id = v.id`, catalog.ProductStatusActive).
		Order("score DESC, v.rating_average DESC, v.business_name ASC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search vendors: %w", err)
	}

	hits := make([]search.VendorHit, len(rows))
	for i, row := range rows {
		hits[i] = search.VendorHit{
			VendorID:      row.VendorID,
			Slug:          row.Slug,
			BusinessName:  row.BusinessName,
			DisplayName:   row.DisplayName,
			Description:   row.Description,
			RatingAverage: row.RatingAverage,
			RatingCount:   row.RatingCount,
			ProductCount:  row.ProductCount,
			Score:         row.Score,
			Position:      query.Offset() + i + 1,
		}
	}
	return hits, total, nil
}

// SuggestVendorNames returns distinct business names of visible vendors
// containing the term, alphabetically. The term is expected pre-lowercased.
func (r *GormVendorSearchRepository) SuggestVendorNames(ctx context.Context, tenantID uuid.UUID, term string, limit int) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("vendors").
		Where("tenant_id = ?", tenantID).
		Where("status = ?", partner.VendorStatusActive).
		Where("verification = ?", partner.VerificationStatusVerified).
		Where("LOWER(business_name) LIKE ?", "%"+term+"%").
		Distinct("business_name").
		Order("business_name ASC").
		Limit(limit).
		Pluck("business_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest vendor names: %w", err)
	}
	return names, nil
}

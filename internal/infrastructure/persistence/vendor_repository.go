package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/partner"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormVendorRepository implements partner.VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindByID finds a vendor by ID
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Vendor, error) {
	var vendor partner.Vendor
	err := dbFor(ctx, r.db).Where("id = ?", id).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

// FindByIDForTenant finds a vendor by ID scoped to a tenant
func (r *GormVendorRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Vendor, error) {
	var vendor partner.Vendor
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

// FindBySlug finds a vendor by storefront slug within a tenant
func (r *GormVendorRepository) FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*partner.Vendor, error) {
	var vendor partner.Vendor
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).
		First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

// FindAll finds all vendors for a tenant with filtering
func (r *GormVendorRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*partner.Vendor, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&partner.Vendor{}).
		Where("tenant_id = ?", tenantID)
	return r.findPage(query, filter)
}

// FindByStatus finds vendors with a specific status
func (r *GormVendorRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status partner.VendorStatus, filter shared.Filter) ([]*partner.Vendor, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&partner.Vendor{}).
		Where("tenant_id = ? AND status = ?", tenantID, status)
	return r.findPage(query, filter)
}

// FindPendingVerification finds vendors awaiting verification review
func (r *GormVendorRepository) FindPendingVerification(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*partner.Vendor, int64, error) {
	query := dbFor(ctx, r.db).
		Model(&partner.Vendor{}).
		Where("tenant_id = ? AND verification = ?", tenantID, partner.VerificationStatusPending)
	return r.findPage(query, filter)
}

// Save creates or updates a vendor
func (r *GormVendorRepository) Save(ctx context.Context, vendor *partner.Vendor) error {
	return dbFor(ctx, r.db).Save(vendor).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormVendorRepository) SaveWithLock(ctx context.Context, vendor *partner.Vendor) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		return r.saveWithLockTx(tx, vendor)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and appends the given
// domain events to the outbox in the same transaction
func (r *GormVendorRepository) SaveWithLockAndEvents(ctx context.Context, vendor *partner.Vendor, events []shared.DomainEvent) error {
	return runInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.saveWithLockTx(tx, vendor); err != nil {
			return err
		}
		return appendOutboxEntries(tx, vendor.TenantID, events)
	})
}

func (r *GormVendorRepository) saveWithLockTx(tx *gorm.DB, vendor *partner.Vendor) error {
	var currentVersion int
	if err := tx.Model(&partner.Vendor{}).
		Where("id = ?", vendor.ID).
		Select("version").
		Scan(&currentVersion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}

	if currentVersion != vendor.Version {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The vendor has been modified by another user")
	}

	vendor.Version++
	vendor.UpdatedAt = time.Now().UTC()

	result := tx.Model(&partner.Vendor{}).
		Where("id = ? AND version = ?", vendor.ID, currentVersion).
		Updates(map[string]interface{}{
			"business_name":       vendor.BusinessName,
			"display_name":        vendor.DisplayName,
			"description":         vendor.Description,
			"status":              vendor.Status,
			"verification":        vendor.Verification,
			"verified_by":         vendor.VerifiedBy,
			"verified_at":         vendor.VerifiedAt,
			"rejection_reason":    vendor.RejectionReason,
			"contact_name":        vendor.ContactName,
			"phone":               vendor.Phone,
			"email":               vendor.Email,
			"tax_id":              vendor.TaxID,
			"business_address":    vendor.BusinessAddress,
			"logo_key":            vendor.LogoKey,
			"banner_key":          vendor.BannerKey,
			"commission_rate":     vendor.CommissionRate,
			"payout_balance":      vendor.PayoutBalance,
			"payout_bank_name":    vendor.PayoutBankName,
			"payout_bank_account": vendor.PayoutBankAccount,
			"rating_average":      vendor.RatingAverage,
			"rating_count":        vendor.RatingCount,
			"suspension_reason":   vendor.SuspensionReason,
			"version":             vendor.Version,
			"updated_at":          vendor.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The vendor has been modified by another user")
	}
	return nil
}

// ExistsBySlug checks if a storefront slug exists for a tenant
func (r *GormVendorRepository) ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (bool, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&partner.Vendor{}).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a vendor
func (r *GormVendorRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFor(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&partner.Vendor{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// findPage counts matching rows, then fetches one page sorted by the
// validated sort field
func (r *GormVendorRepository) findPage(query *gorm.DB, filter shared.Filter) ([]*partner.Vendor, int64, error) {
	query = r.applyFilterWithoutPagination(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, VendorSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var vendors []*partner.Vendor
	if err := query.Find(&vendors).Error; err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormVendorRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(business_name) LIKE ? OR LOWER(display_name) LIKE ? OR LOWER(slug) LIKE ?)",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "verification":
			query = query.Where("verification = ?", value)
		case "min_rating":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("rating_average >= ?", d)
			}
		}
	}

	return query
}

// Ensure GormVendorRepository implements VendorRepository
var _ partner.VendorRepository = (*GormVendorRepository)(nil)

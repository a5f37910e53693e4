package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	err := dbFor(ctx, r.db).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber finds an invoice by its unique number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var invoice billing.Invoice
	err := dbFor(ctx, r.db).
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindBySubscription finds a subscription's invoices, newest first
func (r *GormInvoiceRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]*billing.Invoice, error) {
	var invoices []*billing.Invoice
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID).
		Order("issued_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindOutstanding finds a vendor's unpaid invoices, most overdue first
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context, tenantID, vendorID uuid.UUID) ([]*billing.Invoice, error) {
	var invoices []*billing.Invoice
	err := dbFor(ctx, r.db).
		Where("tenant_id = ? AND vendor_id = ? AND status IN ?",
			tenantID, vendorID,
			[]billing.InvoiceStatus{billing.InvoiceStatusIssued, billing.InvoiceStatusOverdue}).
		Order("due_at ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return dbFor(ctx, r.db).Save(invoice).Error
}

// GenerateInvoiceNumber generates the next invoice number.
// Format: INV-YYYY-NNNN (e.g. INV-2025-0007). Invoice numbers are globally
// unique, so the yearly sequence is shared across tenants.
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, _ uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", time.Now().UTC().Year())

	// Get the highest invoice number for this year
	var lastInvoice billing.Invoice
	err := dbFor(ctx, r.db).
		Model(&billing.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		First(&lastInvoice).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastInvoice.InvoiceNumber != "" {
		parts := strings.Split(lastInvoice.InvoiceNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	invoiceNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, invoiceNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			invoiceNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, invoiceNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return invoiceNumber, nil
}

func (r *GormInvoiceRepository) existsByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	var count int64
	if err := dbFor(ctx, r.db).
		Model(&billing.Invoice{}).
		Where("invoice_number = ?", invoiceNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)

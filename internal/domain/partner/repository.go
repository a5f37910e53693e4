package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// VendorRepository persists Vendor aggregates
type VendorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Vendor, error)
	FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*Vendor, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Vendor, int64, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status VendorStatus, filter shared.Filter) ([]*Vendor, int64, error)
	FindPendingVerification(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Vendor, int64, error)
	Save(ctx context.Context, vendor *Vendor) error
	SaveWithLock(ctx context.Context, vendor *Vendor) error
	SaveWithLockAndEvents(ctx context.Context, vendor *Vendor, events []shared.DomainEvent) error
	ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (bool, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// CustomerRepository persists Customer aggregates
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Customer, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Customer, int64, error)
	Save(ctx context.Context, customer *Customer) error
	SaveWithLock(ctx context.Context, customer *Customer) error
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// UserRepository persists User aggregates
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	FindByRole(ctx context.Context, tenantID uuid.UUID, role Role, filter shared.Filter) ([]*User, int64, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*User, int64, error)
	Save(ctx context.Context, user *User) error
	SaveWithLock(ctx context.Context, user *User) error
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// TenantRepository persists Tenant aggregates
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	FindByDomain(ctx context.Context, domain string) (*Tenant, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Tenant, int64, error)
	// FindExpiredTrials returns trial tenants whose window ended before the cutoff
	FindExpiredTrials(ctx context.Context, cutoff time.Time, limit int) ([]*Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/shared"
)

// txContextKey carries the open transaction through the context handed to
// repository calls inside WithinTransaction.
type txContextKey struct{}

// GormTransactionManager implements TransactionManager using GORM
// transactions. Repositories called with the context the callback receives
// join the same transaction, so either every write commits or none do.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn inside a database transaction
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		// Already inside a transaction; join it
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// txFromContext returns the transaction carried by ctx, if any
func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx, ok
}

// dbFor returns the context's transaction when one is open, falling back to
// the base handle
func dbFor(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return base.WithContext(ctx)
}

// runInTx executes fn in the context's transaction when one is open,
// otherwise it opens a new transaction on base
func runInTx(ctx context.Context, base *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx, ok := txFromContext(ctx); ok {
		return fn(tx)
	}
	return base.WithContext(ctx).Transaction(fn)
}

// Ensure GormTransactionManager implements TransactionManager
var _ shared.TransactionManager = (*GormTransactionManager)(nil)

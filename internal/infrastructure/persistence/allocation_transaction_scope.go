package persistence

import (
	"context"

	appalloc "github.com/stockalloc/engine/internal/application/allocation"
	"github.com/stockalloc/engine/internal/domain/allocation"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appalloc.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// StockRepo returns the location ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockRepo() allocation.LocationStockRepository {
	return NewGormLocationStockRepository(r.tx)
}

// ItemRepo returns the item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ItemRepo() allocation.ItemRepository {
	return NewGormItemRepository(r.tx)
}

// AuditRepo returns the audit trail repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AuditRepo() allocation.AuditRepository {
	return NewGormAuditRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appalloc.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appalloc.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

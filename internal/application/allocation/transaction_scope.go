package allocation

import (
	"context"

	"github.com/stockalloc/engine/internal/domain/allocation"
)

// TransactionScope provides transactional access to allocation repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all allocation repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// Claims are child entities of the LocationStock aggregate and are persisted
// via GORM's association handling when the aggregate root is saved; they
// have no independent repository.
type TransactionalRepositories interface {
	// StockRepo returns the location ledger repository scoped to the current transaction
	StockRepo() allocation.LocationStockRepository
	// ItemRepo returns the item repository scoped to the current transaction
	ItemRepo() allocation.ItemRepository
	// AuditRepo returns the audit trail repository scoped to the current transaction
	AuditRepo() allocation.AuditRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	stockRepo allocation.LocationStockRepository
	itemRepo  allocation.ItemRepository
	auditRepo allocation.AuditRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	stockRepo allocation.LocationStockRepository,
	itemRepo allocation.ItemRepository,
	auditRepo allocation.AuditRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo: stockRepo,
		itemRepo:  itemRepo,
		auditRepo: auditRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the location ledger repository.
func (s *NoOpTransactionScope) StockRepo() allocation.LocationStockRepository {
	return s.stockRepo
}

// ItemRepo returns the item repository.
func (s *NoOpTransactionScope) ItemRepo() allocation.ItemRepository {
	return s.itemRepo
}

// AuditRepo returns the audit trail repository.
func (s *NoOpTransactionScope) AuditRepo() allocation.AuditRepository {
	return s.auditRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/shared"
)

// ItemRepository defines the interface for inventory item persistence
type ItemRepository interface {
	// FindByID finds an item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// FindByItemNo finds an item by its item number
	FindByItemNo(ctx context.Context, itemNo string) (*InventoryItem, error)

	// FindAll lists items matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryItem, error)

	// Save creates or updates an item
	Save(ctx context.Context, item *InventoryItem) error

	// Delete deletes an item
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByItemNo checks whether an item number is already registered
	ExistsByItemNo(ctx context.Context, itemNo string) (bool, error)
}

// LocationStockRepository defines the interface for location ledger
// persistence. Claims are child entities of LocationStock and are loaded
// and saved through the aggregate root, never independently.
type LocationStockRepository interface {
	// FindByID finds a ledger by its ID, claims included
	FindByID(ctx context.Context, id uuid.UUID) (*LocationStock, error)

	// FindByItemAndLocation finds the ledger for one (item, location) pair
	FindByItemAndLocation(ctx context.Context, itemID uuid.UUID, location string) (*LocationStock, error)

	// FindByItem finds all ledgers for an item, ordered by location
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]LocationStock, error)

	// FindByClaimID finds the ledger owning a claim
	FindByClaimID(ctx context.Context, claimID uuid.UUID) (*LocationStock, error)

	// FindByProject finds all ledgers where the project holds an active claim
	FindByProject(ctx context.Context, itemID uuid.UUID, projectCode string) ([]LocationStock, error)

	// Save creates or updates a ledger and its claims
	Save(ctx context.Context, ls *LocationStock) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, ls *LocationStock) error

	// GetOrCreate gets the ledger for (item, location) or creates an empty one
	GetOrCreate(ctx context.Context, itemID uuid.UUID, location string) (*LocationStock, error)
}

// AuditRepository defines the interface for the append-only audit trail.
// Entries are inserted and read, never updated or deleted.
type AuditRepository interface {
	// Append inserts audit entries
	Append(ctx context.Context, entries ...*AuditEntry) error

	// HistoryByItem lists an item's entries ordered by timestamp ascending
	HistoryByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]AuditEntry, error)

	// HistoryByProject lists a project's entries ordered by timestamp ascending
	HistoryByProject(ctx context.Context, projectCode string, filter shared.Filter) ([]AuditEntry, error)

	// CountByItem counts an item's audit entries
	CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

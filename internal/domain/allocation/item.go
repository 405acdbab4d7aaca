package allocation

import (
	"github.com/stockalloc/engine/internal/domain/shared"
)

// InventoryItem identifies one physical stock item tracked by the engine.
// It is created when stock for the item is first received and is never
// deleted while allocations reference it. Per-location quantities live in
// the LocationStock aggregate, keyed by this item's ID.
type InventoryItem struct {
	shared.BaseAggregateRoot
	ItemNo        string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Description   string `gorm:"type:varchar(255);not null"`
	Make          string `gorm:"type:varchar(100)"`
	MaterialGroup string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new inventory item
func NewInventoryItem(itemNo, description, itemMake, materialGroup string) (*InventoryItem, error) {
	if itemNo == "" {
		return nil, NewValidationError("item number is required")
	}
	if description == "" {
		return nil, NewValidationError("item description is required")
	}
	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemNo:            itemNo,
		Description:       description,
		Make:              itemMake,
		MaterialGroup:     materialGroup,
	}, nil
}

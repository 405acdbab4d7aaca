package allocation

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/shared"
)

// Claim represents a reservation of a quantity of stock at one location for
// one project. A claim is immutable from the caller's point of view once
// created; only reallocation shrinks a source claim and grows or creates a
// target claim, and only release returns its units to available stock.
// Zero-quantity claims are pruned by the owning LocationStock, never stored.
type Claim struct {
	shared.BaseEntity
	LocationStockID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProjectCode     string    `gorm:"type:varchar(50);not null;index"`
	Quantity        int64     `gorm:"not null"`
	Remarks         string    `gorm:"type:varchar(500);not null"`
}

// TableName returns the table name for GORM
func (Claim) TableName() string {
	return "claims"
}

// NewClaim creates a new claim for a project at a location
func NewClaim(locationStockID uuid.UUID, projectCode string, quantity int64, remarks string) *Claim {
	return &Claim{
		BaseEntity:      shared.NewBaseEntity(),
		LocationStockID: locationStockID,
		ProjectCode:     projectCode,
		Quantity:        quantity,
		Remarks:         remarks,
	}
}

// grow adds quantity to the claim (same-project top-up or reallocation merge)
func (c *Claim) grow(qty int64) {
	c.Quantity += qty
	c.UpdatedAt = time.Now()
}

// shrink removes quantity from the claim; the caller guarantees qty <= Quantity
func (c *Claim) shrink(qty int64) {
	c.Quantity -= qty
	c.UpdatedAt = time.Now()
}

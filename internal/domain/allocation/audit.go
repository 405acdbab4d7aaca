package allocation

import (
	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/shared"
)

// AuditKind distinguishes the operation that produced an audit entry
type AuditKind string

// Audit entry kinds
const (
	AuditKindAllocation   AuditKind = "allocation"
	AuditKindReallocation AuditKind = "reallocation"
)

// AuditEntry is one line of the append-only allocation history. Entries are
// written once per successful plan line item or reallocation and never
// mutated or deleted.
type AuditEntry struct {
	shared.BaseEntity
	Kind          AuditKind `gorm:"type:varchar(20);not null;index"`
	ItemID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Location      string    `gorm:"type:varchar(100);not null"`
	ProjectCode   string    `gorm:"type:varchar(50);not null;index"`
	SourceProject string    `gorm:"type:varchar(50)"`
	Quantity      int64     `gorm:"not null"`
	ClaimID       uuid.UUID `gorm:"type:uuid;not null"`
	CorrelationID uuid.UUID `gorm:"type:uuid;index"`
	Remarks       string    `gorm:"type:varchar(500);not null"`
}

// TableName returns the table name for GORM
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// NewAllocationAudit records one reserved line item of an allocation plan
func NewAllocationAudit(itemID uuid.UUID, location, projectCode string, qty int64, claimID, correlationID uuid.UUID, remarks string) *AuditEntry {
	return &AuditEntry{
		BaseEntity:    shared.NewBaseEntity(),
		Kind:          AuditKindAllocation,
		ItemID:        itemID,
		Location:      location,
		ProjectCode:   projectCode,
		Quantity:      qty,
		ClaimID:       claimID,
		CorrelationID: correlationID,
		Remarks:       remarks,
	}
}

// NewReallocationAudit records a transfer, linking the source and target projects
func NewReallocationAudit(itemID uuid.UUID, location, sourceProject, targetProject string, qty int64, claimID uuid.UUID, remarks string) *AuditEntry {
	return &AuditEntry{
		BaseEntity:    shared.NewBaseEntity(),
		Kind:          AuditKindReallocation,
		ItemID:        itemID,
		Location:      location,
		ProjectCode:   targetProject,
		SourceProject: sourceProject,
		Quantity:      qty,
		ClaimID:       claimID,
		Remarks:       remarks,
	}
}

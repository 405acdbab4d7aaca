package allocation

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/allocation"
)

// RegisterItemRequest represents a request to register an inventory item
type RegisterItemRequest struct {
	ItemNo        string `json:"item_no" binding:"required,max=50"`
	Description   string `json:"description" binding:"required,max=255"`
	Make          string `json:"make" binding:"max=100"`
	MaterialGroup string `json:"material_group" binding:"max=100"`
}

// ItemResponse represents an inventory item in API responses
type ItemResponse struct {
	ID            uuid.UUID `json:"id"`
	ItemNo        string    `json:"item_no"`
	Description   string    `json:"description"`
	Make          string    `json:"make"`
	MaterialGroup string    `json:"material_group"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToItemResponse converts an InventoryItem to its response representation
func ToItemResponse(item *allocation.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:            item.ID,
		ItemNo:        item.ItemNo,
		Description:   item.Description,
		Make:          item.Make,
		MaterialGroup: item.MaterialGroup,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

// AddStockRequest represents a replenishment of a location's total
type AddStockRequest struct {
	Location string `json:"location" binding:"required,max=100"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

// PlanRequest represents a proposed allocation for one item.
// Allocations maps project code to location to quantity.
type PlanRequest struct {
	Remarks     string                      `json:"remarks" binding:"required,max=500"`
	Allocations map[string]map[string]int64 `json:"allocations" binding:"required"`
}

// ReallocateRequest represents a request to move claim units to another project
type ReallocateRequest struct {
	ClaimID       uuid.UUID `json:"claim_id" binding:"required"`
	TargetProject string    `json:"target_project" binding:"required,max=50"`
	Quantity      int64     `json:"quantity" binding:"required,gt=0"`
	Remarks       string    `json:"remarks" binding:"required,max=500"`
}

// ReleaseRequest represents a request to return claim units to available stock
type ReleaseRequest struct {
	ClaimID  uuid.UUID `json:"claim_id" binding:"required"`
	Quantity int64     `json:"quantity" binding:"required,gt=0"`
}

// ClaimResponse represents an active claim
type ClaimResponse struct {
	ID          uuid.UUID `json:"id"`
	ProjectCode string    `json:"project_code"`
	Quantity    int64     `json:"quantity"`
	Remarks     string    `json:"remarks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockResponse represents one location's ledger state
type StockResponse struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Location  string          `json:"location"`
	Total     int64           `json:"total"`
	Allocated int64           `json:"allocated"`
	Available int64           `json:"available"`
	Claims    []ClaimResponse `json:"claims"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToStockResponse converts a LocationStock to its response representation
func ToStockResponse(ls *allocation.LocationStock) StockResponse {
	claims := make([]ClaimResponse, len(ls.Claims))
	for i, c := range ls.Claims {
		claims[i] = ClaimResponse{
			ID:          c.ID,
			ProjectCode: c.ProjectCode,
			Quantity:    c.Quantity,
			Remarks:     c.Remarks,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		}
	}
	return StockResponse{
		ID:        ls.ID,
		ItemID:    ls.ItemID,
		Location:  ls.Location,
		Total:     ls.Total,
		Allocated: ls.Allocated,
		Available: ls.Available(),
		Claims:    claims,
		Version:   ls.GetVersion(),
		UpdatedAt: ls.UpdatedAt,
	}
}

// PlanResponse represents the outcome of a fully applied allocation plan
type PlanResponse struct {
	CorrelationID uuid.UUID                    `json:"correlation_id"`
	ItemID        uuid.UUID                    `json:"item_id"`
	Reservations  []allocation.PlanReservation `json:"reservations"`
	TotalQuantity int64                        `json:"total_quantity"`
	Stocks        []StockResponse              `json:"stocks"`
}

// ReallocationResponse represents the outcome of a reallocation
type ReallocationResponse struct {
	ItemID          uuid.UUID     `json:"item_id"`
	Location        string        `json:"location"`
	SourceProject   string        `json:"source_project"`
	TargetProject   string        `json:"target_project"`
	Quantity        int64         `json:"quantity"`
	SourceClaimID   uuid.UUID     `json:"source_claim_id"`
	TargetClaimID   uuid.UUID     `json:"target_claim_id"`
	SourceRemaining int64         `json:"source_remaining"`
	Stock           StockResponse `json:"stock"`
}

// ReleaseResponse represents the outcome of a release
type ReleaseResponse struct {
	ItemID   uuid.UUID     `json:"item_id"`
	ClaimID  uuid.UUID     `json:"claim_id"`
	Quantity int64         `json:"quantity"`
	Stock    StockResponse `json:"stock"`
}

// RequirementResponse represents a ranked project requirement
type RequirementResponse struct {
	ProjectCode       string    `json:"project_code"`
	RequiredQuantity  int64     `json:"required_quantity"`
	AllocatedQuantity int64     `json:"allocated_quantity"`
	PendingQuantity   int64     `json:"pending_quantity"`
	PriorityLevel     string    `json:"priority_level"`
	IsCritical        bool      `json:"is_critical"`
	DaysRemaining     int       `json:"days_remaining"`
	RequiredByDate    time.Time `json:"required_by_date"`
}

// ToRequirementResponses converts requirements to their response representation
func ToRequirementResponses(requirements []allocation.ProjectRequirement) []RequirementResponse {
	responses := make([]RequirementResponse, len(requirements))
	for i, r := range requirements {
		responses[i] = RequirementResponse{
			ProjectCode:       r.ProjectCode,
			RequiredQuantity:  r.RequiredQuantity,
			AllocatedQuantity: r.AllocatedQuantity,
			PendingQuantity:   r.PendingQuantity,
			PriorityLevel:     string(r.PriorityLevel),
			IsCritical:        r.IsCritical,
			DaysRemaining:     r.DaysRemaining,
			RequiredByDate:    r.RequiredByDate,
		}
	}
	return responses
}

// AuditEntryResponse represents one line of the audit history
type AuditEntryResponse struct {
	ID            uuid.UUID `json:"id"`
	Kind          string    `json:"kind"`
	ItemID        uuid.UUID `json:"item_id"`
	Location      string    `json:"location"`
	ProjectCode   string    `json:"project_code"`
	SourceProject string    `json:"source_project,omitempty"`
	Quantity      int64     `json:"quantity"`
	ClaimID       uuid.UUID `json:"claim_id"`
	CorrelationID uuid.UUID `json:"correlation_id,omitempty"`
	Remarks       string    `json:"remarks"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToAuditEntryResponses converts audit entries to their response representation
func ToAuditEntryResponses(entries []allocation.AuditEntry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = AuditEntryResponse{
			ID:            e.ID,
			Kind:          string(e.Kind),
			ItemID:        e.ItemID,
			Location:      e.Location,
			ProjectCode:   e.ProjectCode,
			SourceProject: e.SourceProject,
			Quantity:      e.Quantity,
			ClaimID:       e.ClaimID,
			CorrelationID: e.CorrelationID,
			Remarks:       e.Remarks,
			CreatedAt:     e.CreatedAt,
		}
	}
	return responses
}

// HistoryFilter represents filter options for the audit history
type HistoryFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
}

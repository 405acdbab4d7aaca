package allocation

import (
	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeLocationStock = "LocationStock"
	AggregateTypeInventoryItem = "InventoryItem"
)

// Allocation event type constants
const (
	// EventTypeStockReserved is raised when a claim is created or topped up
	// at a location.
	EventTypeStockReserved = "StockReserved"

	// EventTypeStockReleased is raised when claimed stock is returned to the
	// available pool.
	EventTypeStockReleased = "StockReleased"

	// EventTypeStockReallocated is raised when claimed stock is moved from
	// one project's claim to another's without touching availability.
	EventTypeStockReallocated = "StockReallocated"

	// EventTypeAllocationCompleted is raised when every reservation in an
	// allocation plan succeeds.
	EventTypeAllocationCompleted = "AllocationCompleted"

	// EventTypeAllocationRolledBack is raised when a plan fails midway and
	// its successful reservations have been reversed.
	EventTypeAllocationRolledBack = "AllocationRolledBack"
)

// StockReservedEvent is raised by LocationStock.Reserve
type StockReservedEvent struct {
	shared.BaseDomainEvent
	ItemID      uuid.UUID `json:"item_id"`
	Location    string    `json:"location"`
	ProjectCode string    `json:"project_code"`
	Quantity    int64     `json:"quantity"`
	ClaimID     uuid.UUID `json:"claim_id"`
	Available   int64     `json:"available"`
}

// NewStockReservedEvent creates a new StockReservedEvent
func NewStockReservedEvent(ls *LocationStock, projectCode string, qty int64, claimID uuid.UUID) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, AggregateTypeLocationStock, ls.ID),
		ItemID:          ls.ItemID,
		Location:        ls.Location,
		ProjectCode:     projectCode,
		Quantity:        qty,
		ClaimID:         claimID,
		Available:       ls.Available(),
	}
}

// EventType returns the event type name
func (e *StockReservedEvent) EventType() string {
	return EventTypeStockReserved
}

// StockReleasedEvent is raised by LocationStock.Release
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	ItemID      uuid.UUID `json:"item_id"`
	Location    string    `json:"location"`
	ProjectCode string    `json:"project_code"`
	Quantity    int64     `json:"quantity"`
	ClaimID     uuid.UUID `json:"claim_id"`
	Available   int64     `json:"available"`
}

// NewStockReleasedEvent creates a new StockReleasedEvent
func NewStockReleasedEvent(ls *LocationStock, projectCode string, qty int64, claimID uuid.UUID) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReleased, AggregateTypeLocationStock, ls.ID),
		ItemID:          ls.ItemID,
		Location:        ls.Location,
		ProjectCode:     projectCode,
		Quantity:        qty,
		ClaimID:         claimID,
		Available:       ls.Available(),
	}
}

// EventType returns the event type name
func (e *StockReleasedEvent) EventType() string {
	return EventTypeStockReleased
}

// StockReallocatedEvent is raised by LocationStock.Transfer
type StockReallocatedEvent struct {
	shared.BaseDomainEvent
	ItemID        uuid.UUID `json:"item_id"`
	Location      string    `json:"location"`
	SourceProject string    `json:"source_project"`
	TargetProject string    `json:"target_project"`
	Quantity      int64     `json:"quantity"`
	SourceClaimID uuid.UUID `json:"source_claim_id"`
	TargetClaimID uuid.UUID `json:"target_claim_id"`
}

// NewStockReallocatedEvent creates a new StockReallocatedEvent
func NewStockReallocatedEvent(ls *LocationStock, sourceProject, targetProject string, qty int64, sourceClaimID, targetClaimID uuid.UUID) *StockReallocatedEvent {
	return &StockReallocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReallocated, AggregateTypeLocationStock, ls.ID),
		ItemID:          ls.ItemID,
		Location:        ls.Location,
		SourceProject:   sourceProject,
		TargetProject:   targetProject,
		Quantity:        qty,
		SourceClaimID:   sourceClaimID,
		TargetClaimID:   targetClaimID,
	}
}

// EventType returns the event type name
func (e *StockReallocatedEvent) EventType() string {
	return EventTypeStockReallocated
}

// ReservationInfo carries minimal per-reservation detail for plan events
type ReservationInfo struct {
	Location    string    `json:"location"`
	ProjectCode string    `json:"project_code"`
	Quantity    int64     `json:"quantity"`
	ClaimID     uuid.UUID `json:"claim_id,omitempty"`
}

// AllocationCompletedEvent is raised when an allocation plan is fully applied.
// The plan spans multiple location ledgers, so the correlation ID stands in
// as the aggregate ID.
type AllocationCompletedEvent struct {
	shared.BaseDomainEvent
	CorrelationID uuid.UUID         `json:"correlation_id"`
	ItemID        uuid.UUID         `json:"item_id"`
	Reservations  []ReservationInfo `json:"reservations"`
	TotalQuantity int64             `json:"total_quantity"`
}

// NewAllocationCompletedEvent creates a new AllocationCompletedEvent
func NewAllocationCompletedEvent(correlationID, itemID uuid.UUID, reservations []ReservationInfo) *AllocationCompletedEvent {
	var total int64
	for _, r := range reservations {
		total += r.Quantity
	}
	return &AllocationCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAllocationCompleted, AggregateTypeInventoryItem, correlationID),
		CorrelationID:   correlationID,
		ItemID:          itemID,
		Reservations:    reservations,
		TotalQuantity:   total,
	}
}

// EventType returns the event type name
func (e *AllocationCompletedEvent) EventType() string {
	return EventTypeAllocationCompleted
}

// AllocationRolledBackEvent is raised when a plan fails and its successful
// reservations are reversed
type AllocationRolledBackEvent struct {
	shared.BaseDomainEvent
	CorrelationID uuid.UUID         `json:"correlation_id"`
	ItemID        uuid.UUID         `json:"item_id"`
	Reversed      []ReservationInfo `json:"reversed"`
	Reason        string            `json:"reason"`
}

// NewAllocationRolledBackEvent creates a new AllocationRolledBackEvent
func NewAllocationRolledBackEvent(correlationID, itemID uuid.UUID, reversed []ReservationInfo, reason string) *AllocationRolledBackEvent {
	return &AllocationRolledBackEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAllocationRolledBack, AggregateTypeInventoryItem, correlationID),
		CorrelationID:   correlationID,
		ItemID:          itemID,
		Reversed:        reversed,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *AllocationRolledBackEvent) EventType() string {
	return EventTypeAllocationRolledBack
}

package allocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/shared"
)

// MaxRemarksLength bounds the free-text remark on plans and reallocations
const MaxRemarksLength = 500

// AllocationPlanner is a domain service that applies an allocation plan
// across the item's location ledgers. A plan is atomic: either every
// requested reservation commits, or every reservation applied so far is
// reversed and the caller sees the original state. Partial fulfilment of a
// project's demand happens across separate plans, never inside one.
//
// The planner mutates the LocationStock aggregates in place but does NOT
// persist them. The caller is responsible for:
//  1. Loading the ledgers and the current requirement set
//  2. Serializing access per (item, location)
//  3. Persisting the modified ledgers and audit entries on success
//  4. Publishing the domain events
type AllocationPlanner struct{}

// NewAllocationPlanner creates a new allocation planner
func NewAllocationPlanner() *AllocationPlanner {
	return &AllocationPlanner{}
}

// AllocationRequest is a proposed set of reservations for one item.
// Allocations maps project code to location to quantity.
type AllocationRequest struct {
	ItemID      uuid.UUID
	Remarks     string
	Allocations map[string]map[string]int64
}

// AllocationEntry is one flattened (project, location, qty) line of a request
type AllocationEntry struct {
	ProjectCode string
	Location    string
	Quantity    int64
}

// Entries flattens the request into lines sorted by project then location,
// so a request applies in a deterministic order. Zero-quantity lines are
// dropped.
func (r *AllocationRequest) Entries() []AllocationEntry {
	entries := make([]AllocationEntry, 0)
	for project, locations := range r.Allocations {
		for location, qty := range locations {
			if qty == 0 {
				continue
			}
			entries = append(entries, AllocationEntry{
				ProjectCode: project,
				Location:    location,
				Quantity:    qty,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ProjectCode != entries[j].ProjectCode {
			return entries[i].ProjectCode < entries[j].ProjectCode
		}
		return entries[i].Location < entries[j].Location
	})
	return entries
}

// Locations returns the distinct locations the request touches, sorted.
// Lock acquisition follows this order to avoid deadlock between concurrent
// multi-location plans.
func (r *AllocationRequest) Locations() []string {
	seen := make(map[string]struct{})
	locations := make([]string, 0)
	for _, byLocation := range r.Allocations {
		for location, qty := range byLocation {
			if qty == 0 {
				continue
			}
			if _, ok := seen[location]; !ok {
				seen[location] = struct{}{}
				locations = append(locations, location)
			}
		}
	}
	sort.Strings(locations)
	return locations
}

// PlanReservation is one committed reservation of a successful plan
type PlanReservation struct {
	Location    string    `json:"location"`
	ProjectCode string    `json:"project_code"`
	Quantity    int64     `json:"quantity"`
	ClaimID     uuid.UUID `json:"claim_id"`
}

// PlanResult is the outcome of a fully applied plan
type PlanResult struct {
	CorrelationID uuid.UUID         `json:"correlation_id"`
	ItemID        uuid.UUID         `json:"item_id"`
	Reservations  []PlanReservation `json:"reservations"`
	TotalQuantity int64             `json:"total_quantity"`

	// AuditEntries carries one entry per reservation for the caller to persist
	AuditEntries []*AuditEntry `json:"-"`

	// DomainEvents contains events generated during the operation
	DomainEvents []shared.DomainEvent `json:"-"`
}

// Plan validates and applies the request against the given ledgers, keyed by
// location. Validation short-circuits on the first failure: remarks, then
// non-empty request, then per-project pending bounds, then per-location
// availability and exclusivity. If a reservation fails after earlier ones
// were applied, the applied ones are reversed before returning the error;
// the result returned alongside that error carries the rollback event so
// the caller can still publish it.
//
// Cancellation is honored only before the first reservation; once one has
// been applied the plan runs to completion or full rollback.
func (p *AllocationPlanner) Plan(
	ctx context.Context,
	req AllocationRequest,
	requirements []ProjectRequirement,
	ledgers map[string]*LocationStock,
) (*PlanResult, error) {
	entries := req.Entries()
	if err := p.validate(req, entries, requirements, ledgers); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	correlationID := uuid.New()
	result := &PlanResult{
		CorrelationID: correlationID,
		ItemID:        req.ItemID,
		Reservations:  make([]PlanReservation, 0, len(entries)),
		AuditEntries:  make([]*AuditEntry, 0, len(entries)),
		DomainEvents:  make([]shared.DomainEvent, 0),
	}

	for _, entry := range entries {
		ls := ledgers[entry.Location]
		claim, err := ls.Reserve(entry.ProjectCode, entry.Quantity, req.Remarks)
		if err != nil {
			p.rollback(result, ledgers)
			result.DomainEvents = append(result.DomainEvents,
				NewAllocationRolledBackEvent(correlationID, req.ItemID, reservationInfos(result.Reservations), err.Error()))
			return result, err
		}
		result.Reservations = append(result.Reservations, PlanReservation{
			Location:    entry.Location,
			ProjectCode: entry.ProjectCode,
			Quantity:    entry.Quantity,
			ClaimID:     claim.ID,
		})
		result.TotalQuantity += entry.Quantity
		result.AuditEntries = append(result.AuditEntries,
			NewAllocationAudit(req.ItemID, entry.Location, entry.ProjectCode, entry.Quantity, claim.ID, correlationID, req.Remarks))
	}

	result.DomainEvents = append(result.DomainEvents,
		NewAllocationCompletedEvent(correlationID, req.ItemID, reservationInfos(result.Reservations)))
	return result, nil
}

// Preview reports what Plan would do without touching the ledgers
func (p *AllocationPlanner) Preview(
	_ context.Context,
	req AllocationRequest,
	requirements []ProjectRequirement,
	ledgers map[string]*LocationStock,
) *PlanPreview {
	entries := req.Entries()
	preview := &PlanPreview{
		ItemID:  req.ItemID,
		Entries: make([]PreviewEntry, 0, len(entries)),
		Valid:   true,
	}
	if err := p.validate(req, entries, requirements, ledgers); err != nil {
		preview.Valid = false
		preview.Reason = err.Error()
	}
	for _, entry := range entries {
		pe := PreviewEntry{
			ProjectCode: entry.ProjectCode,
			Location:    entry.Location,
			Quantity:    entry.Quantity,
		}
		if ls, ok := ledgers[entry.Location]; ok {
			pe.Available = ls.Available()
			pe.Fulfillable = entry.Quantity <= ls.Available() && ls.holderOtherThan(entry.ProjectCode) == ""
		}
		preview.Entries = append(preview.Entries, pe)
		preview.TotalQuantity += entry.Quantity
	}
	return preview
}

// PlanPreview is a dry-run view of an allocation request
type PlanPreview struct {
	ItemID        uuid.UUID      `json:"item_id"`
	Entries       []PreviewEntry `json:"entries"`
	TotalQuantity int64          `json:"total_quantity"`
	Valid         bool           `json:"valid"`
	Reason        string         `json:"reason,omitempty"`
}

// PreviewEntry is one line of a plan preview
type PreviewEntry struct {
	ProjectCode string `json:"project_code"`
	Location    string `json:"location"`
	Quantity    int64  `json:"quantity"`
	Available   int64  `json:"available"`
	Fulfillable bool   `json:"fulfillable"`
}

func (p *AllocationPlanner) validate(
	req AllocationRequest,
	entries []AllocationEntry,
	requirements []ProjectRequirement,
	ledgers map[string]*LocationStock,
) error {
	if req.ItemID == uuid.Nil {
		return NewValidationError("item ID cannot be empty")
	}
	if req.Remarks == "" {
		return NewValidationError("remarks required")
	}
	if len(req.Remarks) > MaxRemarksLength {
		return NewValidationError(fmt.Sprintf("remarks must be at most %d characters", MaxRemarksLength))
	}
	if len(entries) == 0 {
		return NewValidationError("no allocation specified")
	}
	for _, entry := range entries {
		if entry.Quantity < 0 {
			return NewValidationError(fmt.Sprintf("negative quantity for %s at %s", entry.ProjectCode, entry.Location))
		}
	}

	pending := PendingByProject(requirements)
	requested := make(map[string]int64)
	for _, entry := range entries {
		requested[entry.ProjectCode] += entry.Quantity
	}
	projects := make([]string, 0, len(requested))
	for project := range requested {
		projects = append(projects, project)
	}
	sort.Strings(projects)
	for _, project := range projects {
		if requested[project] > pending[project] {
			return NewValidationError("exceeds pending quantity").WithMeta(MetaProjectCode, project)
		}
	}

	for _, entry := range entries {
		ls, ok := ledgers[entry.Location]
		if !ok {
			return NewInsufficientStockError(entry.Location, 0, entry.Quantity)
		}
		if entry.Quantity > ls.Available() {
			return NewInsufficientStockError(entry.Location, ls.Available(), entry.Quantity)
		}
		if holder := ls.holderOtherThan(entry.ProjectCode); holder != "" {
			return NewLocationConflictError(entry.Location, holder)
		}
	}
	return nil
}

// rollback reverses every reservation applied so far, in reverse order
func (p *AllocationPlanner) rollback(result *PlanResult, ledgers map[string]*LocationStock) {
	for i := len(result.Reservations) - 1; i >= 0; i-- {
		r := result.Reservations[i]
		if ls, ok := ledgers[r.Location]; ok {
			// a release of what was just reserved cannot fail under correct
			// sequencing; a FatalError here would surface via invariant checks
			_ = ls.Release(r.ClaimID, r.Quantity)
		}
	}
}

func reservationInfos(reservations []PlanReservation) []ReservationInfo {
	infos := make([]ReservationInfo, len(reservations))
	for i, r := range reservations {
		infos[i] = ReservationInfo{
			Location:    r.Location,
			ProjectCode: r.ProjectCode,
			Quantity:    r.Quantity,
			ClaimID:     r.ClaimID,
		}
	}
	return infos
}

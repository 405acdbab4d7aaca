package allocation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/shared"
)

// LocationStock is the aggregate root for the per-(item, location) ledger.
// It tracks total, allocated and available quantities and owns the active
// claims against the location's lot.
//
// Invariants, checked after every mutation:
//  1. available = total - allocated, with 0 <= allocated <= total
//  2. allocated equals the sum of claim quantities
//  3. claim quantities are strictly positive (zero claims are pruned)
//
// A lot is reserved exclusively: Reserve refuses to claim a location that
// already carries an active claim for a different project. Reallocation is
// the sanctioned exception — Transfer may leave the source project's
// remainder and the target project's grant side by side.
//
// All mutating calls on one LocationStock must be serialized by the caller;
// the application layer owns a per-(item, location) mutex for this.
type LocationStock struct {
	shared.BaseAggregateRoot
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_location_stock_item_location,priority:1"`
	Location  string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_location_stock_item_location,priority:2"`
	Total     int64     `gorm:"not null;default:0"`
	Allocated int64     `gorm:"not null;default:0"`

	Claims []Claim `gorm:"foreignKey:LocationStockID;references:ID"`
}

// TableName returns the table name for GORM
func (LocationStock) TableName() string {
	return "location_stocks"
}

// NewLocationStock creates an empty ledger for an item at a location
func NewLocationStock(itemID uuid.UUID, location string) (*LocationStock, error) {
	if itemID == uuid.Nil {
		return nil, NewValidationError("item ID cannot be empty")
	}
	if location == "" {
		return nil, NewValidationError("location is required")
	}
	return &LocationStock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemID:            itemID,
		Location:          location,
		Claims:            make([]Claim, 0),
	}, nil
}

// Available returns the unclaimed quantity at this location
func (ls *LocationStock) Available() int64 {
	return ls.Total - ls.Allocated
}

// AddStock raises the total quantity (receiving/replenishment)
func (ls *LocationStock) AddStock(qty int64) error {
	if qty <= 0 {
		return shared.NewDomainError(CodeInvalidQuantity, "stock quantity must be positive")
	}
	ls.Total += qty
	ls.touch()
	return ls.checkInvariants()
}

// Reserve atomically claims qty units for a project. It fails with
// InsufficientStock when qty exceeds the available quantity and with
// LocationConflict when a different project already holds an active claim.
// Reserving again for the project that already holds the location's claim
// merges into the existing claim.
func (ls *LocationStock) Reserve(projectCode string, qty int64, remarks string) (*Claim, error) {
	if projectCode == "" {
		return nil, NewValidationError("project code is required")
	}
	if qty <= 0 {
		return nil, shared.NewDomainError(CodeInvalidQuantity, "reserve quantity must be positive")
	}
	if qty > ls.Available() {
		return nil, NewInsufficientStockError(ls.Location, ls.Available(), qty)
	}
	if holder := ls.holderOtherThan(projectCode); holder != "" {
		return nil, NewLocationConflictError(ls.Location, holder)
	}

	var claim *Claim
	if existing := ls.claimForProject(projectCode); existing != nil {
		existing.grow(qty)
		claim = existing
	} else {
		claim = NewClaim(ls.ID, projectCode, qty, remarks)
		ls.Claims = append(ls.Claims, *claim)
	}
	ls.Allocated += qty
	ls.touch()

	if err := ls.checkInvariants(); err != nil {
		return nil, err
	}
	ls.AddDomainEvent(NewStockReservedEvent(ls, projectCode, qty, claim.ID))
	return claim, nil
}

// Release returns qty units of a claim to available stock; the claim is
// removed entirely when its quantity reaches zero.
func (ls *LocationStock) Release(claimID uuid.UUID, qty int64) error {
	idx := ls.claimIndex(claimID)
	if idx < 0 {
		return ErrClaimNotFound
	}
	if qty <= 0 {
		return shared.NewDomainError(CodeInvalidQuantity, "release quantity must be positive")
	}
	claim := &ls.Claims[idx]
	if qty > claim.Quantity {
		return shared.NewDomainError(CodeOverRelease,
			fmt.Sprintf("release of %d exceeds claim quantity %d", qty, claim.Quantity))
	}

	projectCode := claim.ProjectCode
	claim.shrink(qty)
	if claim.Quantity == 0 {
		ls.Claims = append(ls.Claims[:idx], ls.Claims[idx+1:]...)
	}
	ls.Allocated -= qty
	ls.touch()

	if err := ls.checkInvariants(); err != nil {
		return err
	}
	ls.AddDomainEvent(NewStockReleasedEvent(ls, projectCode, qty, claimID))
	return nil
}

// Transfer moves qty units of the source claim to the target project without
// changing the allocated total (reallocation). The source claim shrinks or
// disappears; the target's existing claim grows, or a new one is created.
// Fails with LocationConflict if a project other than source or target holds
// an active claim. On failure the ledger is unchanged.
func (ls *LocationStock) Transfer(claimID uuid.UUID, targetProject string, qty int64, remarks string) (*Claim, error) {
	idx := ls.claimIndex(claimID)
	if idx < 0 {
		return nil, ErrClaimNotFound
	}
	source := &ls.Claims[idx]
	if qty <= 0 || qty > source.Quantity {
		return nil, shared.NewDomainError(CodeInvalidQuantity,
			fmt.Sprintf("transfer quantity must be between 1 and %d", source.Quantity))
	}
	if targetProject == "" || targetProject == source.ProjectCode {
		return nil, shared.NewDomainError(CodeNoEligibleTarget, "target project must differ from the claim's project")
	}
	for i := range ls.Claims {
		p := ls.Claims[i].ProjectCode
		if p != source.ProjectCode && p != targetProject {
			return nil, NewLocationConflictError(ls.Location, p)
		}
	}

	sourceProject := source.ProjectCode
	source.shrink(qty)
	if source.Quantity == 0 {
		ls.Claims = append(ls.Claims[:idx], ls.Claims[idx+1:]...)
	}

	var target *Claim
	if existing := ls.claimForProject(targetProject); existing != nil {
		existing.grow(qty)
		target = existing
	} else {
		target = NewClaim(ls.ID, targetProject, qty, remarks)
		ls.Claims = append(ls.Claims, *target)
	}
	ls.touch()

	if err := ls.checkInvariants(); err != nil {
		return nil, err
	}
	ls.AddDomainEvent(NewStockReallocatedEvent(ls, sourceProject, targetProject, qty, claimID, target.ID))
	return target, nil
}

// ClaimByID returns the active claim with the given ID, or nil
func (ls *LocationStock) ClaimByID(claimID uuid.UUID) *Claim {
	if idx := ls.claimIndex(claimID); idx >= 0 {
		return &ls.Claims[idx]
	}
	return nil
}

// AllocatedToProject returns the quantity claimed by one project at this location
func (ls *LocationStock) AllocatedToProject(projectCode string) int64 {
	if claim := ls.claimForProject(projectCode); claim != nil {
		return claim.Quantity
	}
	return 0
}

// HolderProjects returns the distinct projects holding active claims
func (ls *LocationStock) HolderProjects() []string {
	seen := make(map[string]struct{}, len(ls.Claims))
	projects := make([]string, 0, len(ls.Claims))
	for i := range ls.Claims {
		p := ls.Claims[i].ProjectCode
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			projects = append(projects, p)
		}
	}
	return projects
}

func (ls *LocationStock) claimIndex(claimID uuid.UUID) int {
	for i := range ls.Claims {
		if ls.Claims[i].ID == claimID {
			return i
		}
	}
	return -1
}

func (ls *LocationStock) claimForProject(projectCode string) *Claim {
	for i := range ls.Claims {
		if ls.Claims[i].ProjectCode == projectCode {
			return &ls.Claims[i]
		}
	}
	return nil
}

// holderOtherThan returns the first project holding a claim that is not
// projectCode, or "" when the location is free for that project.
func (ls *LocationStock) holderOtherThan(projectCode string) string {
	for i := range ls.Claims {
		if ls.Claims[i].ProjectCode != projectCode {
			return ls.Claims[i].ProjectCode
		}
	}
	return ""
}

func (ls *LocationStock) touch() {
	ls.UpdatedAt = time.Now()
	ls.IncrementVersion()
}

// checkInvariants verifies the ledger's internal consistency. A violation
// indicates a bug in the engine, never a caller error.
func (ls *LocationStock) checkInvariants() error {
	if ls.Allocated < 0 || ls.Allocated > ls.Total {
		return NewFatalError(fmt.Sprintf("ledger %s/%s: allocated=%d outside [0,%d]",
			ls.ItemID, ls.Location, ls.Allocated, ls.Total))
	}
	var sum int64
	for i := range ls.Claims {
		if ls.Claims[i].Quantity <= 0 {
			return NewFatalError(fmt.Sprintf("ledger %s/%s: non-positive claim stored", ls.ItemID, ls.Location))
		}
		sum += ls.Claims[i].Quantity
	}
	if sum != ls.Allocated {
		return NewFatalError(fmt.Sprintf("ledger %s/%s: claim sum %d != allocated %d",
			ls.ItemID, ls.Location, sum, ls.Allocated))
	}
	return nil
}

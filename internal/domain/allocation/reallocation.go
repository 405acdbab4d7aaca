package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/shared"
)

// ReallocationService is a domain service that moves committed claims
// between projects at one location. The allocated total of the location
// never changes; only the split between project claims does. Failure leaves
// the ledger untouched, there is no partial shrink without the matching
// grant.
//
// Like the planner, the service mutates the LocationStock in place and
// leaves persistence, serialization and event publishing to the caller.
type ReallocationService struct{}

// NewReallocationService creates a new reallocation service
func NewReallocationService() *ReallocationService {
	return &ReallocationService{}
}

// ReallocationResult is the outcome of a successful transfer
type ReallocationResult struct {
	ItemID        uuid.UUID `json:"item_id"`
	Location      string    `json:"location"`
	SourceProject string    `json:"source_project"`
	TargetProject string    `json:"target_project"`
	Quantity      int64     `json:"quantity"`
	SourceClaimID uuid.UUID `json:"source_claim_id"`
	TargetClaimID uuid.UUID `json:"target_claim_id"`

	// SourceRemaining is the source claim's quantity after the transfer,
	// zero when the claim was fully consumed and removed.
	SourceRemaining int64 `json:"source_remaining"`

	// AuditEntry links both projects for the history. The StockReallocated
	// event is attached to the ledger aggregate itself.
	AuditEntry *AuditEntry `json:"-"`
}

// Reallocate moves qty units of an existing claim to targetProject.
// Precondition checks run in a fixed order: claim lookup, quantity bounds,
// target eligibility against the current requirement set, remarks. Only
// then is the ledger touched.
func (s *ReallocationService) Reallocate(
	ctx context.Context,
	ls *LocationStock,
	claimID uuid.UUID,
	targetProject string,
	qty int64,
	remarks string,
	requirements []ProjectRequirement,
) (*ReallocationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := ls.ClaimByID(claimID)
	if source == nil {
		return nil, ErrClaimNotFound
	}
	if qty <= 0 || qty > source.Quantity {
		return nil, shared.NewDomainError(CodeInvalidQuantity,
			fmt.Sprintf("reallocation quantity must be between 1 and %d", source.Quantity))
	}
	if targetProject == "" || targetProject == source.ProjectCode {
		return nil, shared.NewDomainError(CodeNoEligibleTarget, "target project must differ from the claim's project")
	}
	if PendingByProject(requirements)[targetProject] <= 0 {
		return nil, shared.NewDomainError(CodeNoEligibleTarget,
			fmt.Sprintf("project %s has no pending requirement for this item", targetProject))
	}
	if remarks == "" {
		return nil, NewValidationError("remarks required")
	}
	if len(remarks) > MaxRemarksLength {
		return nil, NewValidationError(fmt.Sprintf("remarks must be at most %d characters", MaxRemarksLength))
	}

	sourceProject := source.ProjectCode
	target, err := ls.Transfer(claimID, targetProject, qty, remarks)
	if err != nil {
		return nil, err
	}

	result := &ReallocationResult{
		ItemID:          ls.ItemID,
		Location:        ls.Location,
		SourceProject:   sourceProject,
		TargetProject:   targetProject,
		Quantity:        qty,
		SourceClaimID:   claimID,
		TargetClaimID:   target.ID,
		SourceRemaining: remainingQuantity(ls, claimID),
		AuditEntry: NewReallocationAudit(ls.ItemID, ls.Location, sourceProject, targetProject,
			qty, target.ID, remarks),
	}
	return result, nil
}

func remainingQuantity(ls *LocationStock, claimID uuid.UUID) int64 {
	if claim := ls.ClaimByID(claimID); claim != nil {
		return claim.Quantity
	}
	return 0
}

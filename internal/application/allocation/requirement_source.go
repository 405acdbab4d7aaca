package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/allocation"
)

// RequirementSource supplies the current project requirements for an item.
// Requirements are recomputed by the external planning system on every call;
// the engine treats them as read-only input and never caches them across
// planning cycles.
type RequirementSource interface {
	// FetchRequirements returns the outstanding requirements for one item
	FetchRequirements(ctx context.Context, itemNo string) ([]allocation.ProjectRequirement, error)
}

// StaticRequirementSource serves a fixed requirement set, keyed by item
// number. Used in tests and in deployments without a planning system.
type StaticRequirementSource struct {
	requirements map[string][]allocation.ProjectRequirement
}

// NewStaticRequirementSource creates a source serving the given requirement sets
func NewStaticRequirementSource(requirements map[string][]allocation.ProjectRequirement) *StaticRequirementSource {
	if requirements == nil {
		requirements = make(map[string][]allocation.ProjectRequirement)
	}
	return &StaticRequirementSource{requirements: requirements}
}

// FetchRequirements returns the configured requirements for the item
func (s *StaticRequirementSource) FetchRequirements(_ context.Context, itemNo string) ([]allocation.ProjectRequirement, error) {
	return s.requirements[itemNo], nil
}

var _ RequirementSource = (*StaticRequirementSource)(nil)

// SnapshotCache caches per-item stock snapshots for read paths. Snapshots
// may be briefly stale; every successful mutation invalidates the item's
// entry. A nil cache disables caching.
type SnapshotCache interface {
	// GetStocks returns the cached snapshot for an item, or ok=false
	GetStocks(ctx context.Context, itemID uuid.UUID) ([]StockResponse, bool)

	// SetStocks stores the snapshot for an item
	SetStocks(ctx context.Context, itemID uuid.UUID, stocks []StockResponse)

	// Invalidate drops the item's snapshot
	Invalidate(ctx context.Context, itemID uuid.UUID)
}

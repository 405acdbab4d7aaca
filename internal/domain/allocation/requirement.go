package allocation

import (
	"sort"
	"time"
)

// PriorityLevel classifies the urgency of a project requirement
type PriorityLevel string

// Priority level constants
const (
	PriorityCritical PriorityLevel = "Critical"
	PriorityHigh     PriorityLevel = "High"
	PriorityMedium   PriorityLevel = "Medium"
	PriorityLow      PriorityLevel = "Low"
)

// Severity maps the level to a sortable rank, lower is more urgent.
// Unknown levels rank after Low.
func (p PriorityLevel) Severity() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// IsValid reports whether the level is one of the known constants
func (p PriorityLevel) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ProjectRequirement is a project's outstanding demand for one item,
// supplied fresh on each planning cycle by the external requirement source.
// The engine ranks and consumes it but never persists it.
type ProjectRequirement struct {
	ProjectCode       string        `json:"project_code"`
	RequiredQuantity  int64         `json:"required_quantity"`
	AllocatedQuantity int64         `json:"allocated_quantity"`
	PendingQuantity   int64         `json:"pending_quantity"`
	PriorityLevel     PriorityLevel `json:"priority_level"`
	IsCritical        bool          `json:"is_critical"`
	DaysRemaining     int           `json:"days_remaining"`
	RequiredByDate    time.Time     `json:"required_by_date"`
}

// Rank orders requirements by urgency: critical flags first, then priority
// severity, then fewest days remaining. The sort is stable so entries of
// equal urgency keep their submitted order, and the input slice is left
// untouched.
func Rank(requirements []ProjectRequirement) []ProjectRequirement {
	ranked := make([]ProjectRequirement, len(requirements))
	copy(ranked, requirements)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.IsCritical != b.IsCritical {
			return a.IsCritical
		}
		if a.PriorityLevel.Severity() != b.PriorityLevel.Severity() {
			return a.PriorityLevel.Severity() < b.PriorityLevel.Severity()
		}
		return a.DaysRemaining < b.DaysRemaining
	})
	return ranked
}

// PendingByProject indexes pending quantities by project code
func PendingByProject(requirements []ProjectRequirement) map[string]int64 {
	pending := make(map[string]int64, len(requirements))
	for _, r := range requirements {
		pending[r.ProjectCode] = r.PendingQuantity
	}
	return pending
}

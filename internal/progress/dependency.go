package progress

import (
	"fmt"

	"github.com/sells-group/tradeflow/internal/model"
)

// InconsistencyKind classifies a dependency violation.
type InconsistencyKind string

const (
	// CompletedBeforeDependency: a later phase is completed while an earlier
	// phase is not.
	CompletedBeforeDependency InconsistencyKind = "completed_before_dependency"
	// AheadOfDependency: a later phase leads an earlier one by more than the
	// allowed gap.
	AheadOfDependency InconsistencyKind = "ahead_of_dependency"
)

// Inconsistency is one flagged phase and the earlier phase it conflicts with.
type Inconsistency struct {
	Phase     int
	DependsOn int
	Kind      InconsistencyKind
	Gap       int
}

// Message renders the inconsistency for warnings and alerts.
func (i Inconsistency) Message() string {
	if i.Kind == CompletedBeforeDependency {
		return fmt.Sprintf("phase %d is completed while phase %d is not", i.Phase, i.DependsOn)
	}
	return fmt.Sprintf("phase %d is %d points ahead of phase %d", i.Phase, i.Gap, i.DependsOn)
}

// FindInconsistencies reports at most one inconsistency per phase: the
// earliest conflicting phase, preferring completion conflicts over gaps.
// Progress values are not modified.
func FindInconsistencies(phases []model.PhaseProgress, gap int) []Inconsistency {
	var out []Inconsistency
	for j := 1; j < len(phases); j++ {
		later := phases[j]
		var found *Inconsistency
		for i := 0; i < j; i++ {
			earlier := phases[i]
			if later.Status == model.StatusCompleted && earlier.Status != model.StatusCompleted {
				found = &Inconsistency{
					Phase:     later.Phase,
					DependsOn: earlier.Phase,
					Kind:      CompletedBeforeDependency,
					Gap:       later.Progress - earlier.Progress,
				}
				break
			}
			if found == nil && later.Progress-earlier.Progress > gap {
				found = &Inconsistency{
					Phase:     later.Phase,
					DependsOn: earlier.Phase,
					Kind:      AheadOfDependency,
					Gap:       later.Progress - earlier.Progress,
				}
			}
		}
		if found != nil {
			out = append(out, *found)
		}
	}
	return out
}

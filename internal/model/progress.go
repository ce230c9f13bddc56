package model

// PhaseCount is the number of lifecycle phases tracked per operation.
const PhaseCount = 5

// PhaseProgress is the computed state of one lifecycle phase.
type PhaseProgress struct {
	Phase               int    `json:"phase"`
	Name                string `json:"name"`
	Progress            int    `json:"progress"` // 0-100
	Status              Status `json:"status"`
	Reason              string `json:"reason"`
	DependencySatisfied bool   `json:"dependency_satisfied"`
}

// OverallProgress aggregates the five phases of an operation.
type OverallProgress struct {
	TotalProgress   int             `json:"total_progress"`
	CompletedPhases int             `json:"completed_phases"`
	CurrentPhase    *int            `json:"current_phase"`
	NextPhase       *int            `json:"next_phase"`
	Phases          []PhaseProgress `json:"phases"`
}

// Phase returns the phase with the given 1-based index, or nil.
func (o *OverallProgress) Phase(n int) *PhaseProgress {
	for i := range o.Phases {
		if o.Phases[i].Phase == n {
			return &o.Phases[i]
		}
	}
	return nil
}

// Warning is an advisory validation finding.
type Warning struct {
	Phase    int      `json:"phase,omitempty"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationError is a validation finding that may block downstream use.
type ValidationError struct {
	Phase    int    `json:"phase,omitempty"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

// ValidationResult collects the cross-checks run over a derived operation.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	Warnings    []Warning         `json:"warnings"`
	Errors      []ValidationError `json:"errors"`
	Suggestions []string          `json:"suggestions"`
}

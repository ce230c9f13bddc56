// Package timeline synthesizes per-phase calendars and fills missing due
// dates on draws and releases.
package timeline

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tradeflow/internal/model"
)

// PhaseConfig is the fixed timing of one phase.
type PhaseConfig struct {
	Phase        int  `yaml:"phase"`
	BaseDelay    int  `yaml:"base_delay"` // days from the dependency's completion
	Variation    int  `yaml:"variation"`  // days, shrinks as progress grows
	BusinessOnly bool `yaml:"business_only"`
	DependsOn    int  `yaml:"depends_on"` // 0 = none
}

// DefaultPhases returns the built-in timing for the five phases.
func DefaultPhases() []PhaseConfig {
	return []PhaseConfig{
		{Phase: 1, BaseDelay: 3, Variation: 2, BusinessOnly: true},
		{Phase: 2, BaseDelay: 5, Variation: 3, BusinessOnly: true, DependsOn: 1},
		{Phase: 3, BaseDelay: 10, Variation: 5, BusinessOnly: true, DependsOn: 2},
		{Phase: 4, BaseDelay: 30, Variation: 10, BusinessOnly: false, DependsOn: 3},
		{Phase: 5, BaseDelay: 7, Variation: 3, BusinessOnly: true, DependsOn: 4},
	}
}

// LoadPhases reads phase timing from a YAML file with a top-level "phases"
// list. Phases missing from the file keep their defaults.
func LoadPhases(path string) ([]PhaseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "timeline: read phases %s", path)
	}

	var wrapper struct {
		Phases []PhaseConfig `yaml:"phases"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "timeline: parse phases")
	}

	phases := DefaultPhases()
	for _, pc := range wrapper.Phases {
		if pc.Phase < 1 || pc.Phase > model.PhaseCount {
			return nil, eris.Errorf("timeline: phase %d out of range", pc.Phase)
		}
		phases[pc.Phase-1] = pc
	}
	if err := validatePhases(phases); err != nil {
		return nil, err
	}
	return phases, nil
}

// validatePhases requires every dependency to point at an earlier phase.
func validatePhases(phases []PhaseConfig) error {
	sort.Slice(phases, func(i, j int) bool { return phases[i].Phase < phases[j].Phase })
	for _, pc := range phases {
		if pc.DependsOn < 0 || pc.DependsOn >= pc.Phase {
			return eris.Errorf("timeline: phase %d cannot depend on phase %d", pc.Phase, pc.DependsOn)
		}
		if pc.BaseDelay < 0 || pc.Variation < 0 {
			return eris.Errorf("timeline: phase %d has negative timing", pc.Phase)
		}
	}
	return nil
}

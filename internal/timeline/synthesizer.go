package timeline

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/sells-group/tradeflow/internal/calendar"
	"github.com/sells-group/tradeflow/internal/model"
)

// Rand is the random source used to back-date actual completion dates.
type Rand interface {
	IntN(n int) int
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Synthesizer assigns start, estimated, actual and deadline dates to phases.
type Synthesizer struct {
	Phases   []PhaseConfig
	Rand     Rand
	Calendar *calendar.Calendar
	Now      func() time.Time
}

// NewSynthesizer returns a Synthesizer with default phase timing.
func NewSynthesizer(r Rand, cal *calendar.Calendar) *Synthesizer {
	return &Synthesizer{
		Phases:   DefaultPhases(),
		Rand:     r,
		Calendar: cal,
		Now:      time.Now,
	}
}

func (s *Synthesizer) now() time.Time {
	if s.Now == nil {
		return calendar.Date(time.Now())
	}
	return calendar.Date(s.Now())
}

func (s *Synthesizer) intN(n int) int {
	if s.Rand == nil || n <= 0 {
		return 0
	}
	return s.Rand.IntN(n)
}

// Synthesize returns one DateRange per configured phase. start is the
// operation's creation date; a zero start means today.
//
// Invariants: a pending phase never starts before its dependency's actual
// (or estimated) completion, and no actual date is later than today. A
// completed phase satisfies start <= actual <= estimated <= today; when its
// dependency is still expected in the future, its start is pulled back to
// today.
func (s *Synthesizer) Synthesize(phases []model.PhaseProgress, start time.Time) []model.DateRange {
	now := s.now()
	base := now
	if !start.IsZero() {
		base = calendar.Date(start)
	}

	byPhase := make(map[int]model.PhaseProgress, len(phases))
	for _, p := range phases {
		byPhase[p.Phase] = p
	}

	out := make([]model.DateRange, 0, len(s.Phases))
	done := make(map[int]model.DateRange, len(s.Phases))
	for _, pc := range s.Phases {
		pp := byPhase[pc.Phase]
		progress := min(max(pp.Progress, 0), 100)

		begin := base
		if dep, ok := done[pc.DependsOn]; ok {
			depEnd := dep.Estimated
			if dep.Actual != nil {
				depEnd = *dep.Actual
			}
			if depEnd.After(begin) {
				begin = depEnd
			}
		}
		if pc.BusinessOnly {
			begin = s.Calendar.AdjustToWorkingDay(begin)
		}
		completed := pp.Status == model.StatusCompleted
		if completed && begin.After(now) {
			// Already finished, so it cannot have started after today even
			// when an earlier phase is still pending.
			begin = now
		}

		shrink := int(math.Round(float64(pc.Variation) * (1 - float64(progress)/100)))
		estimated := calendar.AddDays(begin, pc.BaseDelay+shrink, pc.BusinessOnly)

		var actual *time.Time
		switch {
		case completed:
			if estimated.After(now) {
				estimated = now
			}
			if estimated.Before(begin) {
				estimated = begin
			}
			a := calendar.AddBusinessDays(estimated, -s.intN(pc.Variation+1))
			if a.Before(begin) {
				a = begin
			}
			actual = &a
		case pp.Status == model.StatusInProgress && progress > 50:
			span := int(estimated.Sub(begin).Hours() / 24)
			a := begin.AddDate(0, 0, span*progress/100)
			if a.After(now) {
				a = now
			}
			actual = &a
		}

		deadline := calendar.AddBusinessDays(estimated, int(math.Ceil(1.5*float64(pc.Variation))))

		dr := model.DateRange{
			Phase:     pc.Phase,
			Start:     begin,
			Deadline:  deadline,
			Estimated: estimated,
			Actual:    actual,
		}
		done[pc.Phase] = dr
		out = append(out, dr)
	}
	return out
}

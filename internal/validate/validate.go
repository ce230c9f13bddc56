// Package validate cross-checks a derived operation: phase ordering,
// reconciliation of releases and draws against the declared total, and
// extraction gaps. It also turns findings and due dates into alerts.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sells-group/tradeflow/internal/extract"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/progress"
)

// Finding categories.
const (
	CategoryPhaseOrder       = "phase_order"
	CategoryReconciliation   = "reconciliation"
	CategoryDrawsExceedTotal = "draws_exceed_total"
	CategoryExtraction       = "extraction"
	CategoryRequired         = "required_field"
)

// Options tunes the validator.
type Options struct {
	// Tolerance is the absolute difference allowed between the declared
	// total and the sum of releases. Nil means the default; zero means the
	// amounts must match exactly.
	Tolerance *decimal.Decimal
	// ErrorRatio is the share of the total above which a reconciliation
	// difference becomes an error instead of a warning.
	ErrorRatio    decimal.Decimal
	DependencyGap int
	// AlertWindowDays is how far ahead a due date counts as upcoming.
	AlertWindowDays int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		Tolerance:       Tolerance(progress.DefaultTolerance),
		ErrorRatio:      decimal.NewFromFloat(0.10),
		DependencyGap:   progress.DefaultDependencyGap,
		AlertWindowDays: 7,
	}
}

// Tolerance returns a pointer to d for Options.Tolerance.
func Tolerance(d decimal.Decimal) *decimal.Decimal { return &d }

// Validator runs the cross-checks.
type Validator struct {
	opts Options
}

// New returns a Validator. Zero-valued options fall back to defaults.
func New(opts Options) *Validator {
	def := DefaultOptions()
	if opts.Tolerance == nil || opts.Tolerance.IsNegative() {
		opts.Tolerance = def.Tolerance
	}
	if !opts.ErrorRatio.IsPositive() {
		opts.ErrorRatio = def.ErrorRatio
	}
	if opts.DependencyGap <= 0 {
		opts.DependencyGap = def.DependencyGap
	}
	if opts.AlertWindowDays <= 0 {
		opts.AlertWindowDays = def.AlertWindowDays
	}
	return &Validator{opts: opts}
}

// Input is everything Validate looks at.
type Input struct {
	Client   string
	Info     *model.ParsedGeneralInfo
	Progress model.OverallProgress
	Issues   []model.Issue
}

// Validate returns the findings for one operation. Valid is false only when
// a blocking error was found.
func (v *Validator) Validate(in Input) model.ValidationResult {
	info := in.Info
	if info == nil {
		info = &model.ParsedGeneralInfo{}
	}
	res := model.ValidationResult{
		Warnings:    []model.Warning{},
		Errors:      []model.ValidationError{},
		Suggestions: []string{},
	}
	suggest := newSuggestions()

	for _, inc := range progress.FindInconsistencies(in.Progress.Phases, v.opts.DependencyGap) {
		sev := model.SeverityMedium
		if inc.Kind == progress.CompletedBeforeDependency {
			sev = model.SeverityHigh
		}
		res.Warnings = append(res.Warnings, model.Warning{
			Phase:    inc.Phase,
			Category: CategoryPhaseOrder,
			Message:  inc.Message(),
			Severity: sev,
		})
		suggest.add(fmt.Sprintf("Review the status of phase %d before advancing phase %d", inc.DependsOn, inc.Phase))
	}

	v.reconcile(info, &res, suggest)

	if in.Client == "" {
		res.Errors = append(res.Errors, model.ValidationError{
			Category: CategoryRequired,
			Message:  "client could not be identified",
			Blocking: true,
		})
		suggest.add("Add a CLIENTE label to the client data")
	}
	if !info.TotalValue.IsPositive() {
		res.Errors = append(res.Errors, model.ValidationError{
			Category: CategoryRequired,
			Message:  "declared total value is missing or zero",
			Blocking: true,
		})
		suggest.add("Add a VALOR TOTAL label with the purchase value")
	}

	for _, is := range in.Issues {
		if is.Field == extract.FieldClient || is.Field == extract.FieldTotalValue {
			continue
		}
		if is.Severity == model.SeverityHigh {
			res.Errors = append(res.Errors, model.ValidationError{
				Category: CategoryExtraction,
				Message:  fmt.Sprintf("%s: %s", is.Field, is.Message),
			})
			continue
		}
		res.Warnings = append(res.Warnings, model.Warning{
			Category: CategoryExtraction,
			Message:  fmt.Sprintf("%s: %s", is.Field, is.Message),
			Severity: model.SeverityLow,
		})
	}

	res.Valid = true
	for _, e := range res.Errors {
		if e.Blocking {
			res.Valid = false
			break
		}
	}
	res.Suggestions = suggest.list
	return res
}

// reconcile compares releases and draws with the declared total.
func (v *Validator) reconcile(info *model.ParsedGeneralInfo, res *model.ValidationResult, suggest *suggestions) {
	total := info.TotalValue

	if len(info.Releases) > 0 {
		released := info.ReleaseTotal()
		diff := total.Sub(released).Abs()
		if diff.GreaterThan(*v.opts.Tolerance) {
			msg := fmt.Sprintf("releases total %s, declared %s (difference %s)", released, total, diff)
			if total.IsPositive() && diff.LessThanOrEqual(total.Mul(v.opts.ErrorRatio)) {
				res.Warnings = append(res.Warnings, model.Warning{
					Phase:    5,
					Category: CategoryReconciliation,
					Message:  msg,
					Severity: model.SeverityMedium,
				})
			} else {
				res.Errors = append(res.Errors, model.ValidationError{
					Phase:    5,
					Category: CategoryReconciliation,
					Message:  msg,
				})
			}
			suggest.add("Check the release amounts against the declared total value")
		}
	}

	if drawn := info.DrawTotal(); drawn.GreaterThan(total.Add(*v.opts.Tolerance)) {
		res.Warnings = append(res.Warnings, model.Warning{
			Phase:    3,
			Category: CategoryDrawsExceedTotal,
			Message:  fmt.Sprintf("draws total %s exceeds declared %s", drawn, total),
			Severity: model.SeverityMedium,
		})
		suggest.add("Check the requested draw amounts against the declared total value")
	}
}

// HasReconciliationFinding reports whether res carries a reconciliation
// warning or error, and whether it was an error.
func HasReconciliationFinding(res model.ValidationResult) (found, isError bool) {
	for _, e := range res.Errors {
		if e.Category == CategoryReconciliation {
			return true, true
		}
	}
	for _, w := range res.Warnings {
		if w.Category == CategoryReconciliation {
			return true, false
		}
	}
	return false, false
}

type suggestions struct {
	seen map[string]bool
	list []string
}

func newSuggestions() *suggestions {
	return &suggestions{seen: map[string]bool{}, list: []string{}}
}

func (s *suggestions) add(msg string) {
	if s.seen[msg] {
		return
	}
	s.seen[msg] = true
	s.list = append(s.list, msg)
}

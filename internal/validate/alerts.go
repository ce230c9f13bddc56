package validate

import (
	"fmt"
	"time"

	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/progress"
	"github.com/sells-group/tradeflow/internal/timeline"
)

// AlertInput is what Alerts inspects.
type AlertInput struct {
	Draws      []model.Draw
	Releases   []model.Release
	Progress   model.OverallProgress
	Validation model.ValidationResult
	Now        time.Time
}

// Alerts builds the user-facing alerts for one operation. Due-date checks are
// pure date comparisons; nothing in the input is modified.
//
// Draws alert until paid or cancelled. Releases alert until cancelled or
// until the closing phase completes.
func (v *Validator) Alerts(in AlertInput) []model.Alert {
	out := []model.Alert{}

	for _, d := range in.Draws {
		if d.DueDate == nil || d.Status == model.ItemPaid || d.Status == model.ItemCancelled {
			continue
		}
		if a, ok := v.dueAlert(model.ItemDraw, d.Label, *d.DueDate, in.Now); ok {
			out = append(out, a)
		}
	}

	closed := false
	if p := in.Progress.Phase(5); p != nil && p.Status == model.StatusCompleted {
		closed = true
	}
	for _, r := range in.Releases {
		if closed || r.DueDate == nil || r.Status == model.ItemCancelled {
			continue
		}
		if a, ok := v.dueAlert(model.ItemRelease, fmt.Sprintf("Liberación %d", r.Sequence), *r.DueDate, in.Now); ok {
			out = append(out, a)
		}
	}

	if found, isErr := HasReconciliationFinding(in.Validation); found {
		sev := model.SeverityMedium
		if isErr {
			sev = model.SeverityHigh
		}
		out = append(out, model.Alert{
			Kind:     model.AlertReconciliation,
			Severity: sev,
			Item:     model.ItemOperation,
			Label:    "Reconciliación",
			Message:  reconciliationMessage(in.Validation),
		})
	}

	for _, inc := range progress.FindInconsistencies(in.Progress.Phases, v.opts.DependencyGap) {
		sev := model.SeverityMedium
		if inc.Kind == progress.CompletedBeforeDependency {
			sev = model.SeverityHigh
		}
		out = append(out, model.Alert{
			Kind:     model.AlertDependency,
			Severity: sev,
			Item:     model.ItemOperation,
			Label:    fmt.Sprintf("Fase %d", inc.Phase),
			Message:  inc.Message(),
		})
	}
	return out
}

func (v *Validator) dueAlert(item model.AlertItem, label string, due, now time.Time) (model.Alert, bool) {
	days := timeline.DaysUntil(due, now)
	dueCopy := due
	switch {
	case timeline.IsOverdue(due, now):
		return model.Alert{
			Kind:      model.AlertOverdue,
			Severity:  model.SeverityHigh,
			Item:      item,
			Label:     label,
			DueDate:   &dueCopy,
			DaysDelta: days,
			Message:   fmt.Sprintf("%s is %d days overdue", label, -days),
		}, true
	case timeline.IsUpcoming(due, now, v.opts.AlertWindowDays):
		return model.Alert{
			Kind:      model.AlertUpcoming,
			Severity:  model.SeverityMedium,
			Item:      item,
			Label:     label,
			DueDate:   &dueCopy,
			DaysDelta: days,
			Message:   fmt.Sprintf("%s is due in %d days", label, days),
		}, true
	default:
		return model.Alert{}, false
	}
}

func reconciliationMessage(res model.ValidationResult) string {
	for _, e := range res.Errors {
		if e.Category == CategoryReconciliation {
			return e.Message
		}
	}
	for _, w := range res.Warnings {
		if w.Category == CategoryReconciliation {
			return w.Message
		}
	}
	return ""
}

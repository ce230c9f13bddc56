package timeline

import (
	"regexp"
	"strconv"
	"time"

	"github.com/sells-group/tradeflow/internal/calendar"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// Defaults for due-date filling and alert windows.
const (
	DefaultTermDays          = 30
	DefaultReleaseBufferDays = 15
	DefaultAlertWindowDays   = 7
)

var (
	explicitDaysRe = regexp.MustCompile(`(\d{1,3})\s*d[ií]as`)
	ninetyRe       = regexp.MustCompile(`noventa|\b90\b`)
	sixtyRe        = regexp.MustCompile(`sesenta|\b60\b`)
	thirtyRe       = regexp.MustCompile(`treinta|\b30\b`)
)

// TermDays reads a day count from payment terms: an explicit "N días", else
// a 90/60/30 keyword, else DefaultTermDays.
func TermDays(terms string) int {
	f := textutil.Fold(terms)
	if m := explicitDaysRe.FindStringSubmatch(f); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	switch {
	case ninetyRe.MatchString(f):
		return 90
	case sixtyRe.MatchString(f):
		return 60
	case thirtyRe.MatchString(f):
		return 30
	default:
		return DefaultTermDays
	}
}

// FillDrawDueDates returns a copy of draws where each draw without a due date
// gets base + TermDays(terms) calendar days, moved off weekends. Draws that
// already carry a due date are unchanged.
func FillDrawDueDates(draws []model.Draw, base time.Time, terms string) []model.Draw {
	if draws == nil {
		return nil
	}
	days := TermDays(terms)
	out := make([]model.Draw, len(draws))
	for i, d := range draws {
		if d.DueDate == nil {
			due := calendar.SkipWeekend(calendar.Date(base).AddDate(0, 0, days))
			d.DueDate = &due
		}
		out[i] = d
	}
	return out
}

// FillReleaseDueDates returns a copy of releases where each release without
// a due date gets its own date plus bufferDays business days. Releases with
// an unparsable date are left without one.
func FillReleaseDueDates(releases []model.Release, bufferDays int) []model.Release {
	if releases == nil {
		return nil
	}
	out := make([]model.Release, len(releases))
	for i, r := range releases {
		if r.DueDate == nil {
			if d, ok := textutil.ParseDate(r.Date); ok {
				due := calendar.AddBusinessDays(d, bufferDays)
				r.DueDate = &due
			}
		}
		out[i] = r
	}
	return out
}

// IsOverdue reports whether due is strictly before today.
func IsOverdue(due, now time.Time) bool {
	return calendar.Date(due).Before(calendar.Date(now))
}

// IsUpcoming reports whether due is today or within the next windowDays.
func IsUpcoming(due, now time.Time, windowDays int) bool {
	if IsOverdue(due, now) {
		return false
	}
	limit := calendar.Date(now).AddDate(0, 0, windowDays)
	return !calendar.Date(due).After(limit)
}

// DaysUntil is the signed number of calendar days from today to due.
func DaysUntil(due, now time.Time) int {
	return int(calendar.Date(due).Sub(calendar.Date(now)).Hours() / 24)
}

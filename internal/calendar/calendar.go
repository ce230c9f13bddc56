// Package calendar provides the day arithmetic used to synthesize phase dates
// and due dates: business days, weekend skipping and fixed-date holidays.
package calendar

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tradeflow/internal/country"
)

// Calendar knows the fixed-date holidays of one jurisdiction.
type Calendar struct {
	holidays map[country.MonthDay]bool
}

// New builds a Calendar from a holiday table.
func New(holidays []country.MonthDay) *Calendar {
	c := &Calendar{holidays: make(map[country.MonthDay]bool, len(holidays))}
	for _, h := range holidays {
		c.holidays[h] = true
	}
	return c
}

// ForProfile builds a Calendar from the profile's holiday table.
func ForProfile(p country.Profile) *Calendar {
	return New(p.Holidays)
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether t is one of the calendar's fixed-date holidays.
func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	return c.holidays[country.MonthDay{Month: t.Month(), Day: t.Day()}]
}

// IsWorkingDay is neither a weekend nor a holiday.
func (c *Calendar) IsWorkingDay(t time.Time) bool {
	return !IsWeekend(t) && !c.IsHoliday(t)
}

// AddBusinessDays moves t by n weekdays, skipping Saturdays and Sundays.
// Negative n moves backwards. Holidays are not skipped.
func AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	for n > 0 {
		t = t.AddDate(0, 0, step)
		if !IsWeekend(t) {
			n--
		}
	}
	return t
}

// AddDays adds n business days when businessOnly is set, else n calendar days.
func AddDays(t time.Time, n int, businessOnly bool) time.Time {
	if businessOnly {
		return AddBusinessDays(t, n)
	}
	return t.AddDate(0, 0, n)
}

// SkipWeekend rolls a Saturday or Sunday forward to Monday.
func SkipWeekend(t time.Time) time.Time {
	for IsWeekend(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AdjustToWorkingDay rolls t forward past weekends and holidays.
func (c *Calendar) AdjustToWorkingDay(t time.Time) time.Time {
	for !c.IsWorkingDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// BusinessDaysBetween counts weekdays in (from, to]. It is negative when to
// is before from.
func BusinessDaysBetween(from, to time.Time) int {
	from, to = Date(from), Date(to)
	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}
	n := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			n++
		}
	}
	return sign * n
}

// LoadHolidays reads a YAML file mapping profile codes to holiday tables:
//
//	CO:
//	  - {month: 1, day: 1}
//	MX:
//	  - {month: 9, day: 16}
func LoadHolidays(path string) (map[string][]country.MonthDay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "calendar: read holidays %s", path)
	}
	var raw map[string][]country.MonthDay
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "calendar: parse holidays %s", path)
	}
	out := make(map[string][]country.MonthDay, len(raw))
	for code, days := range raw {
		for _, d := range days {
			if d.Month < time.January || d.Month > time.December || d.Day < 1 || d.Day > 31 {
				return nil, eris.Errorf("calendar: invalid holiday %d/%d for %s", d.Day, d.Month, code)
			}
		}
		out[strings.ToUpper(code)] = days
	}
	return out, nil
}

// ApplyHolidays returns a copy of profile with its holidays replaced when
// overrides carries an entry for it.
func ApplyHolidays(p country.Profile, overrides map[string][]country.MonthDay) country.Profile {
	if days, ok := overrides[p.Code]; ok {
		p.Holidays = append([]country.MonthDay(nil), days...)
	}
	return p
}

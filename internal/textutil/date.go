package textutil

import (
	"regexp"
	"strings"
	"time"
)

var isoDateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// dateLayouts are tried in order; day-first layouts follow local convention.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
}

// ParseDate parses the first date-looking token of s as a UTC calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if f := strings.Fields(s); len(f) > 0 {
		s = strings.TrimRight(f[0], ".,;")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FirstISODate returns the first YYYY-MM-DD token in s.
func FirstISODate(s string) (string, bool) {
	m := isoDateRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", m[1]); err != nil {
		return "", false
	}
	return m[1], true
}

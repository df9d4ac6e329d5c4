package guard

import (
	"math"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
}

// DayUTC truncates t to midnight UTC of the calendar day it falls on in UTC.
func DayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays moves a day boundary forward (or back) by n calendar days.
func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// DaysBetween returns the whole number of days from a to b on UTC day boundaries.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(DayUTC(b).Sub(DayUTC(a)).Hours() / 24))
}

// ParseDate resolves v into a UTC day boundary. Strings in the common ISO
// layouts and unix timestamps (seconds or milliseconds) are accepted.
func ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return DayUTC(d), true
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return DayUTC(*d), true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return DayUTC(t), true
			}
		}
		return time.Time{}, false
	}

	f := Float(v, 0)
	if f <= 0 {
		return time.Time{}, false
	}
	// Anything past 1e11 cannot be seconds in a sane planning horizon.
	if f > 1e11 {
		return DayUTC(time.UnixMilli(int64(f))), true
	}
	return DayUTC(time.Unix(int64(f), 0)), true
}

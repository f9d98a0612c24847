package schedule

import (
	"strings"
	"time"
)

// Slot day-of-week values are Monday-based (0=Monday ... 6=Sunday) while Go's
// time.Weekday is Sunday-based. Every conversion between the two conventions
// goes through this pair of helpers.

// MondayBasedWeekday converts a Go weekday to the Monday-based numbering.
func MondayBasedWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// GoWeekday converts a Monday-based day back to Go's Sunday-based numbering.
func GoWeekday(mondayBased int) time.Weekday {
	return time.Weekday((mondayBased + 1) % 7)
}

// NormalizeDayOfWeek maps any integer into the Monday-based [0,6] range.
func NormalizeDayOfWeek(day int) int {
	return ((day % 7) + 7) % 7
}

const minutesPerDay = 24 * 60

// ValidMinuteOfDay reports whether m is a minute offset within a single day.
func ValidMinuteOfDay(m int) bool {
	return m >= 0 && m < minutesPerDay
}

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseLocalDateTime parses a local wall-clock date-time string. Zone-suffixed
// timestamps are accepted but their offset is discarded: the wall-clock fields
// are kept as-is, matching the rest of the package's timezone-naive
// arithmetic. Returns false when the string cannot be parsed.
func ParseLocalDateTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return stripZone(parsed), true
		}
	}
	return time.Time{}, false
}

func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atMinuteOfDay(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location())
}

func atClockOf(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), date.Location())
}

package schedule

import (
	"testing"
	"time"
)

func TestWeekdayConversionRoundTrip(t *testing.T) {
	for day := 0; day < 7; day++ {
		if got := MondayBasedWeekday(GoWeekday(day)); got != day {
			t.Fatalf("round trip %d -> %d", day, got)
		}
	}
	if MondayBasedWeekday(time.Monday) != 0 {
		t.Fatalf("Monday must map to 0")
	}
	if MondayBasedWeekday(time.Sunday) != 6 {
		t.Fatalf("Sunday must map to 6")
	}
}

func TestNormalizeDayOfWeek(t *testing.T) {
	cases := map[int]int{0: 0, 6: 6, 7: 0, 8: 1, -1: 6, -7: 0, 13: 6}
	for in, want := range cases {
		if got := NormalizeDayOfWeek(in); got != want {
			t.Fatalf("normalize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseLocalDateTimeLayouts(t *testing.T) {
	cases := []string{
		"2024-01-02",
		"2024-01-02T09:00",
		"2024-01-02T09:00:30",
		"2024-01-02 09:00",
		"  2024-01-02T09:00  ",
	}
	for _, raw := range cases {
		parsed, ok := ParseLocalDateTime(raw)
		if !ok {
			t.Fatalf("parse %q failed", raw)
		}
		if parsed.Year() != 2024 || parsed.Month() != time.January || parsed.Day() != 2 {
			t.Fatalf("parse %q = %v", raw, parsed)
		}
	}
}

func TestParseLocalDateTimeDiscardsZoneOffset(t *testing.T) {
	// Arithmetic is timezone-naive: a zone-suffixed timestamp keeps its
	// wall-clock fields rather than converting.
	parsed, ok := ParseLocalDateTime("2024-01-02T09:00:00-05:00")
	if !ok {
		t.Fatalf("parse failed")
	}
	if parsed.Hour() != 9 {
		t.Fatalf("hour = %d, want 9", parsed.Hour())
	}
}

func TestParseLocalDateTimeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "soon", "02/01/2024", "2024-01-02TXX:00"} {
		if _, ok := ParseLocalDateTime(raw); ok {
			t.Fatalf("parse %q unexpectedly succeeded", raw)
		}
	}
}

package schedule

import (
	"time"

	"github.com/fieldbook-app/fieldbook/internal/models"
)

// Now returns the current local wall-clock time as a naive instant, suitable
// as a reference for NextOccurrence.
func Now() time.Time {
	return stripZone(time.Now())
}

// NextOccurrence computes the next concrete date-time at which the slot is
// active, on or after the reference instant. It returns false when the slot
// has no such occurrence: the start date is missing or unparsable, a one-off
// slot's sole occurrence has already passed, or the slot's end date has been
// exceeded.
//
// All arithmetic is on local wall-clock fields. One-off slots never
// reschedule; recurring slots always roll forward to the next weekly instance.
func NextOccurrence(slot models.TimeSlot, reference time.Time) (time.Time, bool) {
	start, ok := ParseLocalDateTime(slot.StartDate)
	if !ok {
		return time.Time{}, false
	}

	if !slot.Repeating {
		occurrence := start
		if slot.StartTimeMinutes != nil && ValidMinuteOfDay(*slot.StartTimeMinutes) {
			occurrence = atMinuteOfDay(start, *slot.StartTimeMinutes)
		}
		if occurrence.Before(reference) {
			return time.Time{}, false
		}
		return occurrence, true
	}

	targetDay := MondayBasedWeekday(start.Weekday())
	if slot.DayOfWeek != nil {
		targetDay = NormalizeDayOfWeek(*slot.DayOfWeek)
	}

	// Occurrences never exist before the slot's declared start date.
	base := midnight(start)
	effective := reference
	if effective.Before(base) {
		effective = base
	}

	end, hasEnd := parseEndDate(slot.EndDate)
	if hasEnd && effective.After(end) {
		return time.Time{}, false
	}

	aligned := midnight(effective)
	aligned = aligned.AddDate(0, 0, (targetDay-MondayBasedWeekday(aligned.Weekday())+7)%7)
	if aligned.Before(base) {
		aligned = aligned.AddDate(0, 0, 7)
	}

	var occurrence time.Time
	if slot.StartTimeMinutes != nil && ValidMinuteOfDay(*slot.StartTimeMinutes) {
		occurrence = atMinuteOfDay(aligned, *slot.StartTimeMinutes)
	} else {
		occurrence = atClockOf(aligned, start)
	}

	if hasEnd && occurrence.After(end) {
		return time.Time{}, false
	}
	// The aligned day may carry a start time earlier than the reference's own
	// clock; in that case this week's instance has passed.
	if occurrence.Before(reference) {
		occurrence = occurrence.AddDate(0, 0, 7)
		if hasEnd && occurrence.After(end) {
			return time.Time{}, false
		}
	}
	return occurrence, true
}

func parseEndDate(endDate *string) (time.Time, bool) {
	if endDate == nil {
		return time.Time{}, false
	}
	return ParseLocalDateTime(*endDate)
}

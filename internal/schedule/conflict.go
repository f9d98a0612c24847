package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldbook-app/fieldbook/internal/models"
)

// SlotStore lists stored recurring slots booked on a field for one weekday.
type SlotStore interface {
	ListSlotsForField(ctx context.Context, fieldID string, dayOfWeek int) ([]models.TimeSlot, error)
}

// EventStore resolves the event owning a slot. A (nil, nil) result means the
// event no longer exists and is a valid, non-fatal outcome.
type EventStore interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
}

// Candidate is a proposed weekly slot, as assembled by a scheduling form. Any
// nil field marks the proposal as incomplete.
type Candidate struct {
	FieldID   string
	DayOfWeek *int
	StartTime *int
	EndTime   *int
	Timezone  string
}

// Conflict pairs an existing slot with its owning event when both the weekly
// minute pattern and the events' calendar ranges collide with a candidate.
type Conflict struct {
	Slot  models.TimeSlot `json:"slot"`
	Event models.Event    `json:"event"`
}

// CheckOptions adjusts a conflict check. IgnoreEventID excludes slots owned by
// that event, used when re-checking a slot being edited on the same event.
type CheckOptions struct {
	IgnoreEventID string
}

// Checker detects booking conflicts between a candidate weekly slot and the
// slots already stored for the same field. It holds no state between calls.
type Checker struct {
	slots  SlotStore
	events EventStore
}

// NewChecker returns a Checker reading from the given stores.
func NewChecker(slots SlotStore, events EventStore) *Checker {
	return &Checker{slots: slots, events: events}
}

// CheckConflictsForSlot returns the existing bookings on the candidate's field
// that would collide with it, given the date range of the event the candidate
// would belong to.
//
// An incomplete candidate or event range is not an error: the check declines
// to run and reports no conflicts. A failure to list the field's slots is
// returned to the caller; a failure to resolve one slot's owning event only
// skips that slot.
func (c *Checker) CheckConflictsForSlot(ctx context.Context, candidate Candidate, eventStart, eventEnd string, opts CheckOptions) ([]Conflict, error) {
	if candidate.FieldID == "" || candidate.DayOfWeek == nil || candidate.StartTime == nil || candidate.EndTime == nil {
		return nil, nil
	}
	rangeStart, okStart := ParseLocalDateTime(eventStart)
	rangeEnd, okEnd := ParseLocalDateTime(eventEnd)
	if !okStart || !okEnd {
		return nil, nil
	}

	day := NormalizeDayOfWeek(*candidate.DayOfWeek)
	existing, err := c.slots.ListSlotsForField(ctx, candidate.FieldID, day)
	if err != nil {
		return nil, fmt.Errorf("list slots for field %s: %w", candidate.FieldID, err)
	}

	// Owning events are cached for the duration of this check only; event data
	// can change between invocations.
	eventsByID := make(map[string]*models.Event)
	var conflicts []Conflict
	for _, slot := range existing {
		if opts.IgnoreEventID != "" && slot.EventID == opts.IgnoreEventID {
			continue
		}
		if slot.StartTimeMinutes == nil || slot.EndTimeMinutes == nil {
			continue
		}
		// Cheap minute comparison first; resolving the owning event may cost a
		// storage round trip.
		if !MinutesOverlap(*candidate.StartTime, *candidate.EndTime, *slot.StartTimeMinutes, *slot.EndTimeMinutes) {
			continue
		}

		event, ok := eventsByID[slot.EventID]
		if !ok {
			event, err = c.events.GetEventByID(ctx, slot.EventID)
			if err != nil {
				log.Ctx(ctx).Debug().
					Err(err).
					Str("slot_id", slot.ID).
					Str("event_id", slot.EventID).
					Msg("Skipping slot with unresolvable owning event")
				event = nil
			}
			eventsByID[slot.EventID] = event
		}
		if event == nil {
			continue
		}

		otherStart, okStart := ParseLocalDateTime(event.Start)
		otherEnd, okEnd := ParseLocalDateTime(event.End)
		if !okStart || !okEnd {
			continue
		}
		if !DateRangesOverlap(rangeStart, rangeEnd, otherStart, otherEnd) {
			continue
		}

		conflicts = append(conflicts, Conflict{Slot: slot, Event: *event})
	}
	return conflicts, nil
}

// MinutesOverlap reports whether the half-open minute intervals
// [startA, endA) and [startB, endB) intersect. Adjacent intervals that share
// a boundary do not overlap.
func MinutesOverlap(startA, endA, startB, endB int) bool {
	return !(endA <= startB || startA >= endB)
}

// DateRangesOverlap reports whether the inclusive ranges [startA, endA] and
// [startB, endB] intersect.
func DateRangesOverlap(startA, endA, startB, endB time.Time) bool {
	return !(endA.Before(startB) || startA.After(endB))
}

// internal/api/calendar/handlers.go
package calendar

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldbook-app/fieldbook/internal/api/apiutil"
	appdb "github.com/fieldbook-app/fieldbook/internal/db"
	"github.com/fieldbook-app/fieldbook/internal/models"
	"github.com/fieldbook-app/fieldbook/internal/schedule"
)

var (
	store     *appdb.Store
	storeOnce sync.Once
)

const (
	calendarQueryTimeout = 5 * time.Second
	defaultWeeks         = 4
	maxWeeks             = 26
	occurrenceLayout     = "2006-01-02T15:04:05"
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	storeOnce.Do(func() {
		store = database.Store
	})
}

// Occurrence is one concrete projection of a slot onto the calendar.
type Occurrence struct {
	SlotID  string `json:"slotId"`
	EventID string `json:"eventId"`
	FieldID string `json:"fieldId"`
	Start   string `json:"start"`
	End     string `json:"end,omitempty"`
}

// GET /api/v1/fields/{id}/calendar?from=2024-01-01&weeks=4
//
// Projects every slot booked on the field into its concrete occurrences
// within the requested window, sorted by start time.
func HandleFieldCalendar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	fieldID := strings.TrimSpace(r.PathValue("id"))
	if fieldID == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid field ID")
		return
	}

	from := schedule.Now()
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, ok := schedule.ParseLocalDateTime(raw)
		if !ok {
			apiutil.WriteError(w, http.StatusBadRequest, "from must be a valid date")
			return
		}
		from = parsed
	}

	weeks := defaultWeeks
	if raw := strings.TrimSpace(r.URL.Query().Get("weeks")); raw != "" {
		parsed, err := apiutil.ParsePositiveIntField(raw, "weeks")
		if err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if parsed > maxWeeks {
			parsed = maxWeeks
		}
		weeks = parsed
	}
	horizon := from.AddDate(0, 0, 7*weeks)

	ctx, cancel := context.WithTimeout(r.Context(), calendarQueryTimeout)
	defer cancel()

	if _, err := store.GetFieldByID(ctx, fieldID); err != nil {
		if errors.Is(err, appdb.ErrNotFound) {
			apiutil.WriteError(w, http.StatusNotFound, "Field not found")
			return
		}
		logger.Error().Err(err).Str("field_id", fieldID).Msg("Failed to fetch field")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch field")
		return
	}

	slots, err := store.ListSlotsOnField(ctx, fieldID)
	if err != nil {
		logger.Error().Err(err).Str("field_id", fieldID).Msg("Failed to list slots")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list slots")
		return
	}

	occurrences := projectOccurrences(slots, from, horizon)
	_ = apiutil.WriteJSON(w, http.StatusOK, occurrences)
}

// projectOccurrences walks each slot forward from the window start, collecting
// every occurrence before the horizon.
func projectOccurrences(slots []models.TimeSlot, from, horizon time.Time) []Occurrence {
	occurrences := []Occurrence{}
	for _, slot := range slots {
		reference := from
		for {
			start, ok := schedule.NextOccurrence(slot, reference)
			if !ok || !start.Before(horizon) {
				break
			}
			occurrences = append(occurrences, Occurrence{
				SlotID:  slot.ID,
				EventID: slot.EventID,
				FieldID: slot.FieldID,
				Start:   start.Format(occurrenceLayout),
				End:     occurrenceEnd(slot, start),
			})
			if !slot.Repeating {
				break
			}
			reference = start.Add(time.Minute)
		}
	}
	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].Start != occurrences[j].Start {
			return occurrences[i].Start < occurrences[j].Start
		}
		return occurrences[i].SlotID < occurrences[j].SlotID
	})
	return occurrences
}

func occurrenceEnd(slot models.TimeSlot, start time.Time) string {
	if slot.StartTimeMinutes == nil || slot.EndTimeMinutes == nil {
		return ""
	}
	duration := time.Duration(*slot.EndTimeMinutes-*slot.StartTimeMinutes) * time.Minute
	if duration <= 0 {
		return ""
	}
	return start.Add(duration).Format(occurrenceLayout)
}

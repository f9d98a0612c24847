// internal/api/events/handlers.go
package events

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldbook-app/fieldbook/internal/api/apiutil"
	appdb "github.com/fieldbook-app/fieldbook/internal/db"
	"github.com/fieldbook-app/fieldbook/internal/schedule"
)

var (
	store     *appdb.Store
	storeOnce sync.Once
)

const eventQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	storeOnce.Do(func() {
		store = database.Store
	})
}

type eventRequest struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func validateEventRequest(req eventRequest) (appdb.CreateEventParams, error) {
	name, err := apiutil.RequireString(req.Name, "name")
	if err != nil {
		return appdb.CreateEventParams{}, err
	}
	start, ok := schedule.ParseLocalDateTime(req.Start)
	if !ok {
		return appdb.CreateEventParams{}, apiutil.FieldError{Field: "start", Reason: "must be a valid date"}
	}
	end, ok := schedule.ParseLocalDateTime(req.End)
	if !ok {
		return appdb.CreateEventParams{}, apiutil.FieldError{Field: "end", Reason: "must be a valid date"}
	}
	if end.Before(start) {
		return appdb.CreateEventParams{}, apiutil.FieldError{Field: "end", Reason: "must not precede start"}
	}
	return appdb.CreateEventParams{
		Name:  name,
		Start: strings.TrimSpace(req.Start),
		End:   strings.TrimSpace(req.End),
	}, nil
}

// POST /api/v1/events
func HandleEventCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req eventRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := validateEventRequest(req)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	event, err := store.CreateEvent(ctx, params)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	logger.Info().Str("event_id", event.ID).Str("name", event.Name).Msg("Event created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, event)
}

// GET /api/v1/events
func HandleEventList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	events, err := store.ListEvents(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list events")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, events)
}

// GET /api/v1/events/{id}
func HandleEventGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	eventID := strings.TrimSpace(r.PathValue("id"))
	if eventID == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	event, err := store.GetEventByID(ctx, eventID)
	if err != nil {
		logger.Error().Err(err).Str("event_id", eventID).Msg("Failed to fetch event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}
	if event == nil {
		apiutil.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, event)
}

// DELETE /api/v1/events/{id}
//
// Deleting an event removes its slots with it; slots never outlive their
// owning event.
func HandleEventDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	eventID := strings.TrimSpace(r.PathValue("id"))
	if eventID == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	err := store.DeleteEvent(ctx, eventID)
	if errors.Is(err, appdb.ErrNotFound) {
		apiutil.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("event_id", eventID).Msg("Failed to delete event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete event")
		return
	}

	logger.Info().Str("event_id", eventID).Msg("Event deleted")
	w.WriteHeader(http.StatusNoContent)
}

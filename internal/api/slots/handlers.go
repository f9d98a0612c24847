// internal/api/slots/handlers.go
package slots

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
	"github.com/fieldbook-app/fieldbook/internal/models"
	"github.com/fieldbook-app/fieldbook/internal/schedule"
)

var (
	database  *appdb.DB
	store     *appdb.Store
	checker   *schedule.Checker
	storeOnce sync.Once
)

// errSlotConflict aborts a write transaction when the conflict check finds
// existing bookings.
var errSlotConflict = errors.New("slot conflicts with existing bookings")

const slotQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(db *appdb.DB) {
	if db == nil {
		return
	}
	storeOnce.Do(func() {
		database = db
		store = db.Store
		checker = schedule.NewChecker(db.Store, db.Store)
	})
}

type slotRequest struct {
	EventID          string  `json:"eventId"`
	FieldID          string  `json:"fieldId"`
	Repeating        bool    `json:"repeating"`
	DayOfWeek        *int    `json:"dayOfWeek"`
	StartTimeMinutes *int    `json:"startTimeMinutes"`
	EndTimeMinutes   *int    `json:"endTimeMinutes"`
	StartDate        string  `json:"startDate"`
	EndDate          *string `json:"endDate"`
	PriceCents       *int64  `json:"priceCents"`
	Timezone         string  `json:"timezone"`
}

type conflictResponse struct {
	Error     string              `json:"error,omitempty"`
	Conflicts []schedule.Conflict `json:"conflicts"`
}

func validateSlotRequest(req slotRequest) error {
	if _, err := apiutil.RequireString(req.FieldID, "fieldId"); err != nil {
		return err
	}
	if _, ok := schedule.ParseLocalDateTime(req.StartDate); !ok {
		return apiutil.FieldError{Field: "startDate", Reason: "must be a valid date"}
	}
	if req.EndDate != nil {
		end, ok := schedule.ParseLocalDateTime(*req.EndDate)
		if !ok {
			return apiutil.FieldError{Field: "endDate", Reason: "must be a valid date"}
		}
		start, _ := schedule.ParseLocalDateTime(req.StartDate)
		if end.Before(start) {
			return apiutil.FieldError{Field: "endDate", Reason: "must not precede startDate"}
		}
	}
	if !req.Repeating {
		return nil
	}
	if req.DayOfWeek == nil {
		return apiutil.FieldError{Field: "dayOfWeek", Reason: "is required for repeating slots"}
	}
	if req.StartTimeMinutes == nil || req.EndTimeMinutes == nil {
		return apiutil.FieldError{Field: "startTimeMinutes", Reason: "and endTimeMinutes are required for repeating slots"}
	}
	return apiutil.ValidateMinuteRange(*req.StartTimeMinutes, *req.EndTimeMinutes)
}

// POST /api/v1/slots
func HandleSlotCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req slotRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := apiutil.RequireString(req.EventID, "eventId"); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateSlotRequest(req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	event, err := store.GetEventByID(ctx, req.EventID)
	if err != nil {
		logger.Error().Err(err).Str("event_id", req.EventID).Msg("Failed to fetch owning event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch owning event")
		return
	}
	if event == nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Owning event does not exist")
		return
	}
	if _, err := store.GetFieldByID(ctx, req.FieldID); err != nil {
		if errors.Is(err, appdb.ErrNotFound) {
			apiutil.WriteError(w, http.StatusBadRequest, "Field does not exist")
			return
		}
		logger.Error().Err(err).Str("field_id", req.FieldID).Msg("Failed to fetch field")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch field")
		return
	}

	day := req.DayOfWeek
	if day != nil {
		normalized := schedule.NormalizeDayOfWeek(*day)
		day = &normalized
	}

	// The conflict check and the insert share a transaction so two concurrent
	// creates on the same field cannot both pass the check and book.
	var (
		slot      models.TimeSlot
		conflicts []schedule.Conflict
		checkErr  error
	)
	txErr := database.RunInTx(ctx, func(txdb *appdb.DB) error {
		if req.Repeating {
			txChecker := schedule.NewChecker(txdb.Store, txdb.Store)
			conflicts, checkErr = txChecker.CheckConflictsForSlot(ctx, schedule.Candidate{
				FieldID:   req.FieldID,
				DayOfWeek: day,
				StartTime: req.StartTimeMinutes,
				EndTime:   req.EndTimeMinutes,
				Timezone:  req.Timezone,
			}, event.Start, event.End, schedule.CheckOptions{})
			if checkErr != nil {
				return checkErr
			}
			if len(conflicts) > 0 {
				return errSlotConflict
			}
		}
		var err error
		slot, err = txdb.Store.CreateSlot(ctx, appdb.CreateSlotParams{
			EventID:          req.EventID,
			FieldID:          req.FieldID,
			Repeating:        req.Repeating,
			DayOfWeek:        day,
			StartTimeMinutes: req.StartTimeMinutes,
			EndTimeMinutes:   req.EndTimeMinutes,
			StartDate:        strings.TrimSpace(req.StartDate),
			EndDate:          req.EndDate,
			PriceCents:       req.PriceCents,
			Timezone:         req.Timezone,
		})
		return err
	})
	if errors.Is(txErr, errSlotConflict) {
		_ = apiutil.WriteJSON(w, http.StatusConflict, conflictResponse{
			Error:     "slot conflicts with existing bookings",
			Conflicts: conflicts,
		})
		return
	}
	if checkErr != nil {
		logger.Error().Err(checkErr).Str("field_id", req.FieldID).Msg("Failed to check availability")
		apiutil.WriteError(w, http.StatusBadGateway, "failed to check availability")
		return
	}
	if txErr != nil {
		logger.Error().Err(txErr).Msg("Failed to create slot")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create slot")
		return
	}

	logger.Info().
		Str("slot_id", slot.ID).
		Str("field_id", slot.FieldID).
		Str("event_id", slot.EventID).
		Bool("repeating", slot.Repeating).
		Msg("Slot created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, slot)
}

// PUT /api/v1/slots/{id}
//
// Edits re-run the conflict check with the slot's own event excluded, so a
// slot can keep (or shift within) its current booking without colliding with
// itself.
func HandleSlotUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slotID := strings.TrimSpace(r.PathValue("id"))
	if slotID == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid slot ID")
		return
	}

	var req slotRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateSlotRequest(req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	existing, err := store.GetSlotByID(ctx, slotID)
	if errors.Is(err, appdb.ErrNotFound) {
		apiutil.WriteError(w, http.StatusNotFound, "Slot not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("slot_id", slotID).Msg("Failed to fetch slot")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch slot")
		return
	}
	if req.EventID != "" && req.EventID != existing.EventID {
		apiutil.WriteError(w, http.StatusBadRequest, "Slot cannot move between events")
		return
	}

	event, err := store.GetEventByID(ctx, existing.EventID)
	if err != nil {
		logger.Error().Err(err).Str("event_id", existing.EventID).Msg("Failed to fetch owning event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch owning event")
		return
	}
	if event == nil {
		apiutil.WriteError(w, http.StatusConflict, "Owning event no longer exists")
		return
	}
	if _, err := store.GetFieldByID(ctx, req.FieldID); err != nil {
		if errors.Is(err, appdb.ErrNotFound) {
			apiutil.WriteError(w, http.StatusBadRequest, "Field does not exist")
			return
		}
		logger.Error().Err(err).Str("field_id", req.FieldID).Msg("Failed to fetch field")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch field")
		return
	}

	day := req.DayOfWeek
	if day != nil {
		normalized := schedule.NormalizeDayOfWeek(*day)
		day = &normalized
	}

	// Same transaction discipline as create: re-check and write atomically.
	var (
		updated   models.TimeSlot
		conflicts []schedule.Conflict
		checkErr  error
	)
	txErr := database.RunInTx(ctx, func(txdb *appdb.DB) error {
		if req.Repeating {
			txChecker := schedule.NewChecker(txdb.Store, txdb.Store)
			conflicts, checkErr = txChecker.CheckConflictsForSlot(ctx, schedule.Candidate{
				FieldID:   req.FieldID,
				DayOfWeek: day,
				StartTime: req.StartTimeMinutes,
				EndTime:   req.EndTimeMinutes,
				Timezone:  req.Timezone,
			}, event.Start, event.End, schedule.CheckOptions{IgnoreEventID: existing.EventID})
			if checkErr != nil {
				return checkErr
			}
			if len(conflicts) > 0 {
				return errSlotConflict
			}
		}
		var err error
		updated, err = txdb.Store.UpdateSlot(ctx, appdb.UpdateSlotParams{
			ID:               slotID,
			FieldID:          req.FieldID,
			Repeating:        req.Repeating,
			DayOfWeek:        day,
			StartTimeMinutes: req.StartTimeMinutes,
			EndTimeMinutes:   req.EndTimeMinutes,
			StartDate:        strings.TrimSpace(req.StartDate),
			EndDate:          req.EndDate,
			PriceCents:       req.PriceCents,
			Timezone:         req.Timezone,
		})
		return err
	})
	if errors.Is(txErr, errSlotConflict) {
		_ = apiutil.WriteJSON(w, http.StatusConflict, conflictResponse{
			Error:     "slot conflicts with existing bookings",
			Conflicts: conflicts,
		})
		return
	}
	if checkErr != nil {
		logger.Error().Err(checkErr).Str("field_id", req.FieldID).Msg("Failed to check availability")
		apiutil.WriteError(w, http.StatusBadGateway, "failed to check availability")
		return
	}
	if txErr != nil {
		logger.Error().Err(txErr).Str("slot_id", slotID).Msg("Failed to update slot")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update slot")
		return
	}

	logger.Info().Str("slot_id", slotID).Msg("Slot updated")
	_ = apiutil.WriteJSON(w, http.StatusOK, updated)
}

// DELETE /api/v1/slots/{id}
func HandleSlotDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slotID := strings.TrimSpace(r.PathValue("id"))
	if slotID == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid slot ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	err := store.DeleteSlot(ctx, slotID)
	if errors.Is(err, appdb.ErrNotFound) {
		apiutil.WriteError(w, http.StatusNotFound, "Slot not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("slot_id", slotID).Msg("Failed to delete slot")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete slot")
		return
	}

	logger.Info().Str("slot_id", slotID).Msg("Slot deleted")
	w.WriteHeader(http.StatusNoContent)
}

type checkRequest struct {
	FieldID       string `json:"fieldId"`
	DayOfWeek     *int   `json:"dayOfWeek"`
	StartTime     *int   `json:"startTime"`
	EndTime       *int   `json:"endTime"`
	Timezone      string `json:"timezone"`
	EventStart    string `json:"eventStart"`
	EventEnd      string `json:"eventEnd"`
	IgnoreEventID string `json:"ignoreEventId"`
}

// POST /api/v1/slots/check
//
// Dry-run conflict check used by scheduling forms while the user is still
// editing. An incomplete proposal is a normal form state: the check declines
// to run and answers with an empty conflict list.
func HandleSlotCheck(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req checkRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	conflicts, err := checker.CheckConflictsForSlot(ctx, schedule.Candidate{
		FieldID:   strings.TrimSpace(req.FieldID),
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Timezone:  req.Timezone,
	}, req.EventStart, req.EventEnd, schedule.CheckOptions{IgnoreEventID: req.IgnoreEventID})
	if err != nil {
		logger.Error().Err(err).Str("field_id", req.FieldID).Msg("Failed to check availability")
		apiutil.WriteError(w, http.StatusBadGateway, "failed to check availability")
		return
	}
	if conflicts == nil {
		conflicts = []schedule.Conflict{}
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, conflictResponse{Conflicts: conflicts})
}

// GET /api/v1/events/{id}/slots
func HandleEventSlotList(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	slots, err := store.ListSlotsForEvent(ctx, eventID)
	if err != nil {
		logger.Error().Err(err).Str("event_id", eventID).Msg("Failed to list slots")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list slots")
		return
	}
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, slots)
}

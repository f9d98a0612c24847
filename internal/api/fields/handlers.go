// internal/api/fields/handlers.go
package fields

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
)

var (
	store     *appdb.Store
	storeOnce sync.Once
)

const fieldQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	storeOnce.Do(func() {
		store = database.Store
	})
}

type fieldRequest struct {
	Name     string `json:"name"`
	Surface  string `json:"surface"`
	Location string `json:"location"`
}

// POST /api/v1/fields
func HandleFieldCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req fieldRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, err := apiutil.RequireString(req.Name, "name")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fieldQueryTimeout)
	defer cancel()

	field, err := store.CreateField(ctx, appdb.CreateFieldParams{
		Name:     name,
		Surface:  strings.TrimSpace(req.Surface),
		Location: strings.TrimSpace(req.Location),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create field")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create field")
		return
	}

	logger.Info().Str("field_id", field.ID).Str("name", field.Name).Msg("Field created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, field)
}

// GET /api/v1/fields
func HandleFieldList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fieldQueryTimeout)
	defer cancel()

	fields, err := store.ListFields(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list fields")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list fields")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, fields)
}

// GET /api/v1/fields/{id}
func HandleFieldGet(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), fieldQueryTimeout)
	defer cancel()

	field, err := store.GetFieldByID(ctx, fieldID)
	if errors.Is(err, appdb.ErrNotFound) {
		apiutil.WriteError(w, http.StatusNotFound, "Field not found")
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("field_id", fieldID).Msg("Failed to fetch field")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch field")
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, field)
}

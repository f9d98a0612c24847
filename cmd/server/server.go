// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fieldbook-app/fieldbook/internal/api"
	"github.com/fieldbook-app/fieldbook/internal/api/calendar"
	"github.com/fieldbook-app/fieldbook/internal/api/events"
	"github.com/fieldbook-app/fieldbook/internal/api/fields"
	"github.com/fieldbook-app/fieldbook/internal/api/slots"
	"github.com/fieldbook-app/fieldbook/internal/config"
	"github.com/fieldbook-app/fieldbook/internal/db"
	"github.com/fieldbook-app/fieldbook/internal/ratelimit"
)

func newServer(cfg *config.Config, database *db.DB) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	registerRoutes(router, database)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, database *db.DB) {
	fields.InitHandlers(database)
	events.InitHandlers(database)
	slots.InitHandlers(database)
	calendar.InitHandlers(database)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Field routes
	mux.HandleFunc("POST /api/v1/fields", fields.HandleFieldCreate)
	mux.HandleFunc("GET /api/v1/fields", fields.HandleFieldList)
	mux.HandleFunc("GET /api/v1/fields/{id}", fields.HandleFieldGet)
	mux.HandleFunc("GET /api/v1/fields/{id}/calendar", calendar.HandleFieldCalendar)

	// Event routes
	mux.HandleFunc("POST /api/v1/events", events.HandleEventCreate)
	mux.HandleFunc("GET /api/v1/events", events.HandleEventList)
	mux.HandleFunc("GET /api/v1/events/{id}", events.HandleEventGet)
	mux.HandleFunc("DELETE /api/v1/events/{id}", events.HandleEventDelete)
	mux.HandleFunc("GET /api/v1/events/{id}/slots", slots.HandleEventSlotList)

	// Slot routes
	mux.HandleFunc("POST /api/v1/slots", slots.HandleSlotCreate)
	mux.HandleFunc("PUT /api/v1/slots/{id}", slots.HandleSlotUpdate)
	mux.HandleFunc("DELETE /api/v1/slots/{id}", slots.HandleSlotDelete)

	// The availability check is called on every edit of a scheduling form,
	// so it gets its own per-client limit.
	checkLimiter := ratelimit.New(ratelimit.DefaultConfig())
	mux.Handle("POST /api/v1/slots/check",
		checkLimiter.Middleware(http.HandlerFunc(slots.HandleSlotCheck)))
}

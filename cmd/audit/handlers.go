package main

import (
	"net/http"
	"strconv"

	"mileage-service/common/response"

	"github.com/go-chi/chi/v5"
)

// Liveness probe
func (app *Config) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// RecentEvents returns the latest audit events
func (app *Config) RecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := int64(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := app.Store.Recent(r.Context(), limit)
	if err != nil {
		response.InternalServerError(w, "Failed to fetch audit events")
		return
	}

	response.Success(w, "Audit events retrieved", entries)
}

// EventsByActor returns the latest audit events for one actor
func (app *Config) EventsByActor(w http.ResponseWriter, r *http.Request) {
	actor := chi.URLParam(r, "actor")
	if actor == "" {
		response.BadRequest(w, "actor is required")
		return
	}

	entries, err := app.Store.ByActor(r.Context(), actor, 100)
	if err != nil {
		response.InternalServerError(w, "Failed to fetch audit events")
		return
	}

	response.Success(w, "Audit events retrieved", entries)
}

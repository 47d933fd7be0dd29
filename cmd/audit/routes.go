package main

import (
	"net/http"

	commonMiddleware "mileage-service/common/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *Config) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(commonMiddleware.RequestLogging)
	mux.Use(commonMiddleware.Recovery)
	mux.Use(commonMiddleware.Metrics("audit-service"))
	mux.Use(middleware.Heartbeat("/ping"))

	mux.Get("/health/live", app.Liveness)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Get("/events", app.RecentEvents)
	mux.Get("/events/{actor}", app.EventsByActor)

	return mux
}

package main

import (
	"net/http"

	commonMiddleware "mileage-service/common/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func (app *Config) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(commonMiddleware.RequestLogging)
	mux.Use(commonMiddleware.Recovery)
	mux.Use(commonMiddleware.Metrics(serviceName))

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Use(middleware.Heartbeat("/ping"))

	mux.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(
			next,
			serviceName+".http",
			otelhttp.WithFilter(func(req *http.Request) bool {
				return !commonMiddleware.ShouldSkipTrace(req.URL.Path)
			}),
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})

	// Health check endpoints for Kubernetes
	mux.Get("/health/live", app.Liveness)
	mux.Get("/health/ready", app.Readiness)

	// Metrics endpoint for Prometheus
	mux.Handle("/metrics", promhttp.Handler())

	// Authentication routes
	mux.Post("/auth/register", app.Register)
	mux.Post("/auth/authenticate", app.Authenticate)
	mux.Post("/auth/refresh", app.RefreshToken)
	mux.Post("/auth/validate", app.ValidateToken)

	// Routes below require a valid access token
	mux.Group(func(r chi.Router) {
		r.Use(commonMiddleware.AuthRequired(app.JWTSecret))

		r.Patch("/auth/change-password", app.ChangePassword)

		r.Post("/mileage/log", app.LogDrive)
		r.Get("/mileage/logs", app.ListDriveLogs)

		r.Get("/currency/status", app.CurrencyStatus)

		r.Post("/fitness/log", app.LogWorkout)
		r.Get("/fitness/summary", app.FitnessSummary)

		r.Get("/safety/media", app.ListSafetyMedia)
		r.Post("/safety/chat", app.SafetyChat)

		// Commander-only routes
		r.Group(func(admin chi.Router) {
			admin.Use(commonMiddleware.AdminRequired)

			admin.Get("/currency/team", app.TeamSummary)
			admin.Put("/roster", app.UpsertRoster)
			admin.Get("/roster", app.GetRoster)
			admin.Post("/safety/media", app.UploadSafetyMedia)
		})
	})

	return mux
}

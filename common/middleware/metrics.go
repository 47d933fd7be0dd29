package middleware

import (
	"net/http"
	"strconv"
	"time"

	"mileage-service/common/logger"
	"mileage-service/common/telemetry"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// httpInstruments bundles the per-request instruments so they are created
// once per router, not per request.
type httpInstruments struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments() (*httpInstruments, error) {
	if telemetry.Meter == nil {
		return nil, nil
	}

	requests, err := telemetry.Meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := telemetry.Meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	inFlight, err := telemetry.Meter.Int64UpDownCounter(
		"http.server.request.active",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpInstruments{requests: requests, latency: latency, inFlight: inFlight}, nil
}

// Metrics records request count, latency and in-flight gauge per route
// pattern. Paths excluded from tracing are excluded here too. When the meter
// is unavailable the middleware degrades to a no-op.
func Metrics(serviceName string) func(next http.Handler) http.Handler {
	inst, err := newHTTPInstruments()
	if err != nil {
		logger.Warn("HTTP metrics disabled", zap.Error(err))
		inst = nil
	}

	return func(next http.Handler) http.Handler {
		if inst == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ShouldSkipTrace(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ctx := r.Context()

			route := chi.RouteContext(ctx).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}

			attrs := []attribute.KeyValue{
				attribute.String("service.name", serviceName),
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
			}

			inst.inFlight.Add(ctx, 1, metric.WithAttributes(attrs...))
			defer inst.inFlight.Add(ctx, -1, metric.WithAttributes(attrs...))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			attrs = append(attrs, attribute.String("http.status_code", strconv.Itoa(rw.statusCode)))
			inst.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			inst.latency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
		})
	}
}

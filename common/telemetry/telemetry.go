package telemetry

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	// Tracer is the global tracer instance
	Tracer trace.Tracer
	// Meter is the global meter instance, backed by the Prometheus exporter
	// so recorded metrics show up on /metrics
	Meter metric.Meter
	// Logger is the global slog logger that exports to OTLP
	Logger *slog.Logger
)

// InitTracer initializes OpenTelemetry tracing, metrics and log export.
//
// Environment variables:
//   - OTEL_EXPORTER: "otlp" for OTLP export, anything else for stdout
//   - OTEL_COLLECTOR_ENDPOINT: endpoint URL or host:port
//   - OTEL_EXPORTER_OTLP_HEADERS: optional headers for auth (e.g. "Authorization=Basic xxx")
//   - OTEL_INSECURE: "true" to disable TLS (for local development)
func InitTracer(serviceName, serviceVersion string) (func(context.Context) error, error) {
	ctx := context.Background()

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	var tp *sdktrace.TracerProvider
	var lp *sdklog.LoggerProvider

	if os.Getenv("OTEL_EXPORTER") == "otlp" {
		endpoint := os.Getenv("OTEL_COLLECTOR_ENDPOINT")
		if endpoint == "" {
			endpoint = "alloy:4317"
		}

		var traceExporter sdktrace.SpanExporter
		var logExporter sdklog.Exporter

		// HTTPS endpoints (hosted collectors) use the HTTP exporters,
		// host:port endpoints use gRPC.
		if strings.HasPrefix(endpoint, "https://") {
			traceExporter, err = createHTTPTraceExporter(ctx, endpoint)
			if err != nil {
				return nil, err
			}
			logExporter, err = createHTTPLogExporter(ctx, endpoint)
			if err != nil {
				return nil, err
			}
		} else {
			traceExporter, err = createGRPCTraceExporter(ctx, endpoint)
			if err != nil {
				return nil, err
			}
			logExporter, err = createGRPCLogExporter(ctx, endpoint)
			if err != nil {
				return nil, err
			}
		}

		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		lp = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
	} else {
		// Use stdout exporter for development
		exporter, err := stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, err
		}

		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		// No log provider for stdout mode, slog already prints to stdout
	}

	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer(serviceName)

	// Metrics go through the Prometheus exporter so promhttp can serve them.
	promExporter, err := otelprom.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	Meter = mp.Meter(serviceName)

	if lp != nil {
		global.SetLoggerProvider(lp)
		Logger = otelslog.NewLogger(serviceName)
	} else {
		Logger = slog.Default()
	}

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := tp.Shutdown(ctx)
		if mErr := mp.Shutdown(ctx); err == nil {
			err = mErr
		}
		if lp != nil {
			if lErr := lp.Shutdown(ctx); err == nil {
				err = lErr
			}
		}
		return err
	}

	return shutdown, nil
}

// createGRPCTraceExporter creates a gRPC OTLP trace exporter for a local collector
func createGRPCTraceExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(endpoint),
	}

	if os.Getenv("OTEL_INSECURE") == "true" || !strings.Contains(endpoint, ":443") {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	return otlptracegrpc.New(ctx, opts...)
}

// createHTTPTraceExporter creates an HTTP OTLP trace exporter for hosted collectors
func createHTTPTraceExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
	}

	if headers := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); headers != "" {
		opts = append(opts, otlptracehttp.WithHeaders(parseHeaders(headers)))
	}

	if os.Getenv("OTEL_INSECURE") == "true" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	return otlptracehttp.New(ctx, opts...)
}

// createGRPCLogExporter creates a gRPC OTLP log exporter for a local collector
func createGRPCLogExporter(ctx context.Context, endpoint string) (sdklog.Exporter, error) {
	opts := []otlploggrpc.Option{
		otlploggrpc.WithEndpoint(endpoint),
	}

	if os.Getenv("OTEL_INSECURE") == "true" || !strings.Contains(endpoint, ":443") {
		opts = append(opts, otlploggrpc.WithInsecure())
	}

	return otlploggrpc.New(ctx, opts...)
}

// createHTTPLogExporter creates an HTTP OTLP log exporter for hosted collectors
func createHTTPLogExporter(ctx context.Context, endpoint string) (sdklog.Exporter, error) {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(endpoint),
	}

	if headers := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); headers != "" {
		opts = append(opts, otlploghttp.WithHeaders(parseHeaders(headers)))
	}

	if os.Getenv("OTEL_INSECURE") == "true" {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	return otlploghttp.New(ctx, opts...)
}

// parseHeaders parses a header string like "Key1=Value1,Key2=Value2"
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(headerStr, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			headers[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return headers
}

// StartSpan starts a new span with the given name
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return Tracer.Start(ctx, spanName)
}

// GetTraceID returns the trace ID from context if available
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mileage-service/common/logger"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey     contextKey = "request_id"
	RequestLoggerKey contextKey = "request_logger"
)

// RequestLogging tags every request with a generated ID, stores a
// request-scoped logger in the context, and writes one completion line. The
// ID is echoed in the X-Request-ID header so clients can quote it.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		reqLogger := logger.RequestLogger(
			r.Context(),
			r.Method,
			r.URL.Path,
			r.RemoteAddr,
			r.UserAgent(),
			requestID,
		)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, RequestLoggerKey, reqLogger)

		w.Header().Set("X-Request-ID", requestID)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(ctx))

		reqLogger.Info("request completed",
			"status_code", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_written", rw.bytesWritten,
		)
	})
}

// GetRequestLogger retrieves the request-scoped logger from the context
func GetRequestLogger(ctx context.Context) *slog.Logger {
	if reqLogger, ok := ctx.Value(RequestLoggerKey).(*slog.Logger); ok {
		return reqLogger
	}
	return logger.WithContext(ctx)
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

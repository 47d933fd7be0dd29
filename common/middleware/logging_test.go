package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestLogging_TagsRequest(t *testing.T) {
	var idInCtx string
	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idInCtx = GetRequestID(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mileage/logs", nil))

	assert.NotEmpty(t, idInCtx)
	assert.Equal(t, idInCtx, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestGetRequestID_MissingReturnsEmpty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetRequestLogger_AlwaysReturnsLogger(t *testing.T) {
	assert.NotNil(t, GetRequestLogger(context.Background()))
}

func TestRecovery_Returns500(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

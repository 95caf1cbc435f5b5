package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/enroll/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EUNAVAILABLE, http.StatusServiceUnavailable},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"unknown", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponse_InternalErrorHidesDetails(t *testing.T) {
	upstream := errors.New("dial tcp 10.0.0.7:8080: connection refused")
	err := domain.Internal(upstream, "client.users.sign_up", "Request failed")

	t.Run("html", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()

		ErrorResponse(rec, req, discardLogger(), err)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := rec.Body.String()
		assert.NotContains(t, body, "10.0.0.7")
		assert.NotContains(t, body, "client.users")
		assert.Contains(t, body, "internal error")
	})

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()

		ErrorResponse(rec, req, discardLogger(), err)

		var body JSONError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, domain.EINTERNAL, body.Error.Code)
		assert.NotContains(t, body.Error.Message, "10.0.0.7")
	})
}

func TestErrorResponse_ShowsClientErrorMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, discardLogger(), domain.Conflict("handler.signup.submit", "A sign-up request is already in progress"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in progress")
	assert.NotContains(t, rec.Body.String(), "handler.signup")
}

func TestErrorResponse_HTMXGetsPlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	NotFoundResponse(rec, req, discardLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "The requested resource was not found")
}

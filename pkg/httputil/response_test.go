package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusOK, map[string]string{"foo": "bar"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "bar", result["foo"])
	})

	t.Run("nil data writes no body", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusAccepted, nil)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteError_Envelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "invalid_input", "Name is required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "invalid_input", result["error"])
	assert.Equal(t, "Name is required", result["message"])
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "ok",
			write:      func(w http.ResponseWriter) { WriteOK(w, map[string]string{"status": "ok"}) },
			wantStatus: http.StatusOK,
			wantBody:   `"ok"`,
		},
		{
			name:       "created",
			write:      func(w http.ResponseWriter) { WriteCreated(w, map[string]string{"id": "new-123"}) },
			wantStatus: http.StatusCreated,
			wantBody:   `"new-123"`,
		},
		{
			name:       "no content",
			write:      WriteNoContent,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "bad request",
			write:      func(w http.ResponseWriter) { WriteBadRequest(w, "bad_request", "Invalid input") },
			wantStatus: http.StatusBadRequest,
			wantBody:   `"bad_request"`,
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter) { WriteNotFound(w, "not_found", "Resource not found") },
			wantStatus: http.StatusNotFound,
			wantBody:   `"not_found"`,
		},
		{
			name:       "conflict",
			write:      func(w http.ResponseWriter) { WriteConflict(w, "duplicate", "Already exists") },
			wantStatus: http.StatusConflict,
			wantBody:   `"duplicate"`,
		},
		{
			name:       "internal error",
			write:      func(w http.ResponseWriter) { WriteInternalError(w, "internal_error", "Broken") },
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"internal_error"`,
		},
		{
			name:       "service unavailable",
			write:      func(w http.ResponseWriter) { WriteServiceUnavailable(w, "no_request_log", "Not available") },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `"no_request_log"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			} else {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/api/middleware"
)

// logLines decodes every JSON log line in buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]interface{}
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}

// lastLine is the request log line, written after any handler lines.
func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := logLines(t, buf)
	require.NotEmpty(t, lines)
	return lines[len(lines)-1]
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusCreated, "info"},
		{http.StatusBadRequest, "warn"},
		{http.StatusNotFound, "warn"},
		{http.StatusInternalServerError, "error"},
		{http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			h := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/pets", http.NoBody))

			line := lastLine(t, &buf)
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, float64(tt.status), line["status"])
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	recordSpans(t)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Tracing(), middleware.Logger(zerolog.New(&buf)))
	r.Get("/v1/pets/{petId}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pet_abc"}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/pets/pet_abc", http.NoBody)
	req.Header.Set("User-Agent", "pollenpaw-ios/3.2")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := lastLine(t, &buf)
	assert.Equal(t, "request completed", line["message"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/v1/pets/pet_abc", line["path"])
	assert.Equal(t, "/v1/pets/{petId}", line["route"])
	assert.Equal(t, float64(200), line["status"])
	assert.Equal(t, float64(len(`{"id":"pet_abc"}`)), line["bytes"])
	assert.Equal(t, "pollenpaw-ios/3.2", line["user_agent"])
	assert.Contains(t, line["request_id"], "req_")
	assert.Len(t, line["trace_id"], 32)
	assert.Len(t, line["span_id"], 16)
	assert.NotNil(t, line["duration"])
}

func TestLogger_RequestScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	h := middleware.RequestID(middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.LoggerFromContext(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodDelete, "/v1/pets/pet_abc", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "req_fixed")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "inside handler", lines[0]["message"])
	assert.Equal(t, "req_fixed", lines[0]["request_id"])
}

func TestLogger_IncludesOwnerID(t *testing.T) {
	var buf bytes.Buffer

	jwt := newTestJWT(t)
	token, _, err := jwt.GenerateAccessToken("usr_owner1")
	require.NoError(t, err)

	h := middleware.Logger(zerolog.New(&buf))(middleware.Auth(jwt)(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/v1/pets", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "usr_owner1", lastLine(t, &buf)["owner_id"])
}

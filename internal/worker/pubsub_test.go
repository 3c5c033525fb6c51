package worker_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/events"
	"github.com/pollenpaw/pollenpaw/internal/pollen"
	"github.com/pollenpaw/pollenpaw/internal/worker"
)

func pushBody(t *testing.T, data []byte) *bytes.Reader {
	t.Helper()

	var env worker.PushEnvelope
	env.Message.Data = data
	env.Message.MessageID = "msg-1"
	env.Subscription = "projects/test/subscriptions/pollenpaw-worker"

	body, err := json.Marshal(env)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func encodeEvent(t *testing.T, e events.Event) []byte {
	t.Helper()
	data, err := events.Encode(e)
	require.NoError(t, err)
	return data
}

func TestPushHandler(t *testing.T) {
	symptomEvent := events.Event{Type: events.TypeSymptomLogged, ZipCode: "98074", Date: testToday}

	tests := []struct {
		name       string
		method     string
		body       func(t *testing.T) *bytes.Reader
		pollenErr  error
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "job succeeds",
			method:     http.MethodPost,
			body:       func(t *testing.T) *bytes.Reader { return pushBody(t, encodeEvent(t, symptomEvent)) },
			wantStatus: http.StatusNoContent,
			wantCalls:  1,
		},
		{
			name:       "job fails and is retried",
			method:     http.MethodPost,
			body:       func(t *testing.T) *bytes.Reader { return pushBody(t, encodeEvent(t, symptomEvent)) },
			pollenErr:  pollen.ErrProviderUnavailable,
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
		{
			name:   "unknown job is acknowledged",
			method: http.MethodPost,
			body: func(t *testing.T) *bytes.Reader {
				return pushBody(t, encodeEvent(t, events.Event{Type: "health_check"}))
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "malformed data is acknowledged",
			method:     http.MethodPost,
			body:       func(t *testing.T) *bytes.Reader { return pushBody(t, []byte("not json")) },
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "malformed envelope",
			method:     http.MethodPost,
			body:       func(*testing.T) *bytes.Reader { return bytes.NewReader([]byte("{")) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			body:       func(*testing.T) *bytes.Reader { return bytes.NewReader(nil) },
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newJob(t, nil)
			if tt.pollenErr != nil {
				f.pollen.errs["98074"] = tt.pollenErr
			}
			h := worker.NewPushHandler(worker.NewDispatcher(f.job, zerolog.Nop()), zerolog.Nop())

			req := httptest.NewRequest(tt.method, "/pubsub/push", tt.body(t))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, f.pollen.count())
		})
	}
}

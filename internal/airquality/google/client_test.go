package google_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/airquality"
	"github.com/pollenpaw/pollenpaw/internal/airquality/google"
	"github.com/pollenpaw/pollenpaw/internal/provider/resilience"
)

func TestClient_CurrentConditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/currentConditions:lookup", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body struct {
			Location struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"location"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.InDelta(t, 47.6149, body.Location.Latitude, 1e-9)
		assert.InDelta(t, -122.0326, body.Location.Longitude, 1e-9)

		_, _ = w.Write([]byte(`{
			"regionCode": "us",
			"indexes": [
				{"code": "uaqi", "aqi": 61, "category": "Good air quality", "dominantPollutant": "o3"},
				{"code": "usa_epa", "aqi": 40}
			]
		}`))
	}))
	defer server.Close()

	client := google.NewClient(google.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})

	conditions, err := client.CurrentConditions(context.Background(), 47.6149, -122.0326)
	require.NoError(t, err)
	assert.Equal(t, 61, conditions.AQI)
	assert.Equal(t, "Good air quality", conditions.Category)
	assert.Equal(t, "o3", conditions.DominantPollutant)
}

func TestClient_CurrentConditions_ValueFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"indexes": [{"code": "uaqi", "value": 33}]}`))
	}))
	defer server.Close()

	client := google.NewClient(google.ClientConfig{APIKey: "k", BaseURL: server.URL})

	conditions, err := client.CurrentConditions(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 33, conditions.AQI)
}

func TestClient_CurrentConditions_NoIndex(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no indexes", `{"indexes": []}`},
		{"index without value", `{"indexes": [{"code": "uaqi"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := google.NewClient(google.ClientConfig{APIKey: "k", BaseURL: server.URL})

			_, err := client.CurrentConditions(context.Background(), 1, 2)
			assert.ErrorIs(t, err, airquality.ErrNoData)
		})
	}
}

func TestClient_CurrentConditions_RetriesWithBody(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "location")

		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"indexes": [{"aqi": 12}]}`))
	}))
	defer server.Close()

	client := google.NewClient(google.ClientConfig{
		APIKey:  "k",
		BaseURL: server.URL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:            "test-aq-retry",
			Timeout:         5 * time.Second,
			MaxRetries:      3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
		}),
	})

	conditions, err := client.CurrentConditions(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 12, conditions.AQI)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestClient_CurrentConditions_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := google.NewClient(google.ClientConfig{APIKey: "k", BaseURL: server.URL})

	_, err := client.CurrentConditions(context.Background(), 1, 2)
	assert.ErrorIs(t, err, airquality.ErrProviderUnavailable)
}

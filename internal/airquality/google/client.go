// Package google implements airquality.Provider on the Google Air Quality API.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/airquality"
	"github.com/pollenpaw/pollenpaw/internal/provider/resilience"
)

const (
	// ProviderName identifies this air quality provider.
	ProviderName = "google-airquality"

	// DefaultBaseURL is the Google Air Quality API base URL.
	DefaultBaseURL = "https://airquality.googleapis.com"
)

// ClientConfig holds configuration for the Air Quality client.
type ClientConfig struct {
	// APIKey is the Google Maps Platform API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is a Google Air Quality API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Air Quality client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// CurrentConditions looks up the current AQI for a coordinate.
// The first index's aqi is used, falling back to its value field.
func (c *Client) CurrentConditions(ctx context.Context, lat, lng float64) (*airquality.Conditions, error) {
	payload, err := json.Marshal(lookupRequest{Location: latLng{Latitude: lat, Longitude: lng}})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/currentConditions:lookup?key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", airquality.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", airquality.ErrProviderUnavailable, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(body.Indexes) == 0 {
		c.logger.Warn().Msg("air quality response has no indexes")
		return nil, airquality.ErrNoData
	}

	first := body.Indexes[0]
	aqi := first.AQI
	if aqi == nil {
		aqi = first.Value
	}
	if aqi == nil {
		return nil, airquality.ErrNoData
	}

	return &airquality.Conditions{
		AQI:               *aqi,
		Category:          first.Category,
		DominantPollutant: first.DominantPollutant,
	}, nil
}

type lookupRequest struct {
	Location latLng `json:"location"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupResponse struct {
	RegionCode string `json:"regionCode"`
	Indexes    []struct {
		Code              string `json:"code"`
		AQI               *int   `json:"aqi"`
		Value             *int   `json:"value"`
		Category          string `json:"category"`
		DominantPollutant string `json:"dominantPollutant"`
	} `json:"indexes"`
}

var _ airquality.Provider = (*Client)(nil)

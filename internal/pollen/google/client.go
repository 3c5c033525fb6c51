// Package google implements pollen.Provider on the Google Pollen API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/pollen"
	"github.com/pollenpaw/pollenpaw/internal/provider/resilience"
)

const (
	// ProviderName identifies this pollen provider.
	ProviderName = "google-pollen"

	// DefaultBaseURL is the Google Pollen API base URL.
	DefaultBaseURL = "https://pollen.googleapis.com"

	// MaxForecastDays is the longest forecast the API serves.
	MaxForecastDays = 5
)

// ClientConfig holds configuration for the Google Pollen client.
type ClientConfig struct {
	// APIKey is the Google Maps Platform API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to Google).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Pollen API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Google Pollen client.
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

// GetForecast fetches the per-plant forecast for a location.
// days is clamped to [1, MaxForecastDays].
func (c *Client) GetForecast(ctx context.Context, lat, lng float64, days int) ([]pollen.DayReadings, error) {
	if days < 1 || days > MaxForecastDays {
		days = MaxForecastDays
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("location.latitude", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("location.longitude", strconv.FormatFloat(lng, 'f', 6, 64))
	q.Set("days", strconv.Itoa(days))
	endpoint := fmt.Sprintf("%s/v1/forecast:lookup?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pollen.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", pollen.ErrProviderUnavailable, resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	c.logger.Debug().
		Int("days", len(body.DailyInfo)).
		Str("region", body.RegionCode).
		Msg("pollen forecast received")

	return toDayReadings(&body), nil
}

// toDayReadings flattens both the type-level and plant-level entries.
// Type-level codes (GRASS, TREE, WEED) are not in the plant taxonomy and
// drop out during extraction.
func toDayReadings(body *forecastResponse) []pollen.DayReadings {
	days := make([]pollen.DayReadings, 0, len(body.DailyInfo))
	for _, d := range body.DailyInfo {
		readings := make([]pollen.PlantReading, 0, len(d.PollenTypeInfo)+len(d.PlantInfo))
		for _, info := range d.PollenTypeInfo {
			readings = append(readings, info.toReading())
		}
		for _, info := range d.PlantInfo {
			readings = append(readings, info.toReading())
		}
		days = append(days, pollen.DayReadings{Date: d.Date, Readings: readings})
	}
	return days
}

type forecastResponse struct {
	RegionCode string      `json:"regionCode"`
	DailyInfo  []dailyInfo `json:"dailyInfo"`
}

type dailyInfo struct {
	Date           pollen.CalendarDate `json:"date"`
	PollenTypeInfo []pollenInfo        `json:"pollenTypeInfo"`
	PlantInfo      []pollenInfo        `json:"plantInfo"`
}

type pollenInfo struct {
	Code                  string     `json:"code"`
	DisplayName           string     `json:"displayName"`
	InSeason              bool       `json:"inSeason"`
	IndexInfo             *indexInfo `json:"indexInfo"`
	HealthRecommendations []string   `json:"healthRecommendations"`
}

type indexInfo struct {
	Code     string   `json:"code"`
	Value    *float64 `json:"value"`
	Category string   `json:"category"`
}

func (p pollenInfo) toReading() pollen.PlantReading {
	r := pollen.PlantReading{
		Code:            p.Code,
		Recommendations: p.HealthRecommendations,
	}
	if p.IndexInfo != nil {
		r.IndexValue = p.IndexInfo.Value
	}
	return r
}

var _ pollen.Provider = (*Client)(nil)

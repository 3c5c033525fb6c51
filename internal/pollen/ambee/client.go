// Package ambee implements pollen.Provider on the Ambee pollen forecast API.
package ambee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/pollen"
	"github.com/pollenpaw/pollenpaw/internal/provider/resilience"
)

const (
	// ProviderName identifies this pollen provider.
	ProviderName = "ambee"

	// DefaultBaseURL is the Ambee API base URL.
	DefaultBaseURL = "https://api.ambeedata.com"
)

// ClientConfig holds configuration for the Ambee client.
type ClientConfig struct {
	// APIKey is the Ambee API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to Ambee API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Ambee API client for pollen data.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Ambee client.
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

// GetForecast fetches the pollen forecast for a location and returns at most
// days days. Ambee reports species per category with one risk per category;
// every species inherits its category's risk as an index value.
func (c *Client) GetForecast(ctx context.Context, lat, lng float64, days int) ([]pollen.DayReadings, error) {
	url := fmt.Sprintf("%s/forecast/pollen/by-lat-lng?lat=%.6f&lng=%.6f",
		c.baseURL, lat, lng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pollen.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", pollen.ErrProviderUnavailable, resp.StatusCode)
	}

	var ambeeResp forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&ambeeResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	result := toDayReadings(ambeeResp.Data)
	if days > 0 && len(result) > days {
		result = result[:days]
	}

	c.logger.Debug().
		Int("days", len(result)).
		Msg("pollen forecast received")

	return result, nil
}

// toDayReadings groups hourly entries by calendar day. The highest risk seen
// for a category on a day wins.
func toDayReadings(data []pollenData) []pollen.DayReadings {
	byDate := make(map[string]map[string]float64)
	dates := make(map[string]pollen.CalendarDate)

	for i := range data {
		entry := &data[i]
		date, ok := parseDate(entry.Time)
		if !ok {
			continue
		}
		key := date.String()
		codes, ok := byDate[key]
		if !ok {
			codes = make(map[string]float64)
			byDate[key] = codes
			dates[key] = date
		}

		for _, group := range []struct {
			risk    string
			species []string
		}{
			{entry.Risk.TreeIndex, entry.Species.Tree},
			{entry.Risk.GrassIndex, entry.Species.Grass},
			{entry.Risk.WeedIndex, entry.Species.Weed},
		} {
			value, ok := riskIndex(group.risk)
			if !ok {
				continue
			}
			for _, species := range group.species {
				code := PlantCode(species)
				if prev, seen := codes[code]; !seen || value > prev {
					codes[code] = value
				}
			}
		}
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]pollen.DayReadings, 0, len(keys))
	for _, k := range keys {
		codes := make([]string, 0, len(byDate[k]))
		for code := range byDate[k] {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		readings := make([]pollen.PlantReading, 0, len(codes))
		for _, code := range codes {
			readings = append(readings, pollen.PlantReading{
				Code:       code,
				IndexValue: pollen.Float(byDate[k][code]),
			})
		}
		result = append(result, pollen.DayReadings{Date: dates[k], Readings: readings})
	}
	return result
}

// speciesAliases maps Ambee species names that differ from the plant codes
// used by the default taxonomy.
var speciesAliases = map[string]string{
	"GRASS / POACEAE":     "GRAMINALES",
	"POACEAE":             "GRAMINALES",
	"GRASS":               "GRAMINALES",
	"POPLAR / COTTONWOOD": "COTTONWOOD",
	"POPLAR":              "COTTONWOOD",
}

// PlantCode normalises an Ambee species name to a taxonomy plant code.
func PlantCode(species string) string {
	code := strings.ToUpper(strings.TrimSpace(species))
	if alias, ok := speciesAliases[code]; ok {
		return alias
	}
	return code
}

// riskIndex maps an Ambee risk label onto the 0-5 universal pollen index.
func riskIndex(risk string) (float64, bool) {
	switch risk {
	case "Low":
		return 2, true
	case "Moderate":
		return 3, true
	case "High":
		return 4, true
	case "Very High":
		return 5, true
	default:
		return 0, false
	}
}

func parseDate(s string) (pollen.CalendarDate, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return pollen.CalendarDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, true
		}
	}
	return pollen.CalendarDate{}, false
}

// Ambee API response structures.

type forecastResponse struct {
	Message string       `json:"message"`
	Data    []pollenData `json:"data"`
}

type pollenData struct {
	Count struct {
		GrassIndex int `json:"grass_index"`
		TreeIndex  int `json:"tree_index"`
		WeedIndex  int `json:"weed_index"`
	} `json:"Count"`
	Risk struct {
		GrassIndex string `json:"grass_index"`
		TreeIndex  string `json:"tree_index"`
		WeedIndex  string `json:"weed_index"`
	} `json:"Risk"`
	Species struct {
		Grass []string `json:"Grass"`
		Tree  []string `json:"Tree"`
		Weed  []string `json:"Weed"`
	} `json:"Species"`
	Time string `json:"time"`
}

var _ pollen.Provider = (*Client)(nil)

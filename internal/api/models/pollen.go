package models

// PollenValues holds the per-category pollen index averages.
type PollenValues struct {
	Tree  float64 `json:"tree"`
	Grass float64 `json:"grass"`
	Weed  float64 `json:"weed"`
}

// PollenDay is one day of pollen data.
type PollenDay struct {
	Date            string       `json:"date"`
	Pollen          PollenValues `json:"pollen"`
	Level           string       `json:"level"`
	Recommendations []string     `json:"recommendations"`
}

// PollenForecast is the multi-day forecast for a postal code.
type PollenForecast struct {
	ZipCode  string      `json:"zipCode"`
	Location string      `json:"location,omitempty"`
	Days     []PollenDay `json:"days"`
	Provider string      `json:"provider"`
}

// AirQuality is the current air quality for a postal code.
type AirQuality struct {
	ZipCode           string    `json:"zipCode"`
	Date              string    `json:"date"`
	AQI               int       `json:"aqi"`
	Category          string    `json:"category,omitempty"`
	DominantPollutant string    `json:"dominantPollutant,omitempty"`
	Provider          string    `json:"provider"`
	FetchedAt         Timestamp `json:"fetchedAt"`
}

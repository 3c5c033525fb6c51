// Package airquality provides current air quality per postal code.
package airquality

import (
	"errors"
	"time"
)

// Provider errors.
var (
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
	ErrNoData              = errors.New("no air quality index in provider response")
	ErrDisabled            = errors.New("air quality lookups are disabled")
	ErrInvalidZipCode      = errors.New("zip code is required")
)

// Conditions is the provider's current-conditions result for a point.
type Conditions struct {
	AQI               int
	Category          string
	DominantPollutant string
}

// Reading is the air quality recorded for a postal code on a date.
type Reading struct {
	ZipCode           string
	Date              string
	AQI               int
	Category          string
	DominantPollutant string
	Lat               float64
	Lng               float64
	Provider          string
	FetchedAt         time.Time
}

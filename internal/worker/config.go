// Package worker provides background job processing for pollenpaw.
package worker

import (
	"sort"
	"strings"
	"time"
)

// RefreshConfig holds configuration for the provider refresh job.
type RefreshConfig struct {
	// SeedZipCodes are refreshed even before anyone has logged symptoms there.
	SeedZipCodes []string

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each zip code.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshAirQuality enables air quality recording.
	// Default: true
	RefreshAirQuality bool

	// RefreshPollen enables pollen recording.
	// Default: true
	RefreshPollen bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency:       3,
		Timeout:           30 * time.Second,
		RefreshAirQuality: true,
		RefreshPollen:     true,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	d := DefaultRefreshConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// mergeZipCodes returns the sorted union of the lists without blanks.
func mergeZipCodes(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var zips []string
	for _, list := range lists {
		for _, zip := range list {
			zip = strings.TrimSpace(zip)
			if zip == "" {
				continue
			}
			if _, ok := seen[zip]; ok {
				continue
			}
			seen[zip] = struct{}{}
			zips = append(zips, zip)
		}
	}
	sort.Strings(zips)
	return zips
}

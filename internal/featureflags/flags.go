// Package featureflags holds runtime switches operators flip while an
// upstream provider or the event transport is misbehaving.
package featureflags

import (
	"sort"
	"time"
)

// Flag keys.
const (
	// FlagPollenZeroAsReading counts pollen index values of 0 as real readings.
	FlagPollenZeroAsReading = "pollen_zero_as_reading"

	// FlagDisableAirQuality skips air quality lookups and recording.
	FlagDisableAirQuality = "disable_air_quality"

	// FlagDisableEventPublishing stops symptom events from being published.
	FlagDisableEventPublishing = "disable_event_publishing"

	// FlagCachedOnlyPollenHistory serves historical pollen from cache or storage only.
	FlagCachedOnlyPollenHistory = "cached_only_pollen_history"
)

// Definition describes a flag the service understands.
type Definition struct {
	Key         string
	Description string
	Default     bool
}

var definitions = []Definition{
	{
		Key:         FlagCachedOnlyPollenHistory,
		Description: "Answer pollen history from cache and stored data without calling the provider",
	},
	{
		Key:         FlagDisableAirQuality,
		Description: "Reject air quality lookups and skip recording them",
	},
	{
		Key:         FlagDisableEventPublishing,
		Description: "Log symptoms without publishing symptom_logged events",
	},
	{
		Key:         FlagPollenZeroAsReading,
		Description: "Treat a pollen index of 0 as a reading instead of missing data",
	},
}

// Definitions returns every known flag, sorted by key.
func Definitions() []Definition {
	defs := make([]Definition, len(definitions))
	copy(defs, definitions)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs
}

// IsKnown reports whether key names a defined flag.
func IsKnown(key string) bool {
	for _, d := range definitions {
		if d.Key == key {
			return true
		}
	}
	return false
}

// Flag is a flag's current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList is the response body for flag listings.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate sets one flag.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest is the body of a flag update. Reason is logged.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// BoolValue returns the value as a bool, or defaultValue when f is nil or
// holds something else. Numbers decoded from JSON count as true when non-zero.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return defaultValue
	}
}

// DefaultFlags returns every defined flag at its default value.
func DefaultFlags() map[string]*Flag {
	flags := make(map[string]*Flag, len(definitions))
	for _, d := range definitions {
		flags[d.Key] = &Flag{Key: d.Key, Value: d.Default}
	}
	return flags
}

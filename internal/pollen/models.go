// Package pollen turns per-plant pollen readings into daily category values,
// severity levels and health recommendations.
package pollen

import (
	"errors"
)

// Pollen errors.
var (
	ErrProviderUnavailable = errors.New("pollen provider unavailable")
	ErrNoData              = errors.New("no pollen data for date")
	ErrInvalidDate         = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrInvalidZipCode      = errors.New("zip code is required")
	ErrTaxonomyOverlap     = errors.New("plant code mapped to more than one category")
)

// Category is a canonical pollen category.
type Category string

const (
	CategoryNone  Category = "NONE"
	CategoryTree  Category = "TREE"
	CategoryGrass Category = "GRASS"
	CategoryWeed  Category = "WEED"
)

// Categories lists the reportable categories in priority order.
var Categories = []Category{CategoryTree, CategoryGrass, CategoryWeed}

// Key returns the lower-case identifier used in API payloads ("tree").
func (c Category) Key() string {
	switch c {
	case CategoryTree:
		return "tree"
	case CategoryGrass:
		return "grass"
	case CategoryWeed:
		return "weed"
	default:
		return "none"
	}
}

// Level is the four-band ordinal pollen severity.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
	LevelVeryHigh Level = "VERY_HIGH"
)

// Rank returns the ordinal position of the level, LOW being 0.
func (l Level) Rank() int {
	switch l {
	case LevelModerate:
		return 1
	case LevelHigh:
		return 2
	case LevelVeryHigh:
		return 3
	default:
		return 0
	}
}

// PlantReading is one taxonomic observation for a single day.
type PlantReading struct {
	Code string

	// IndexValue is nil when the provider sent no reading.
	IndexValue *float64

	Recommendations []string
}

// DayReadings groups the plant readings reported for one calendar day.
type DayReadings struct {
	Date     CalendarDate
	Readings []PlantReading
}

// Extracted holds one day's derived category values.
type Extracted struct {
	Tree  float64
	Grass float64
	Weed  float64

	TreeRecommendations  []string
	GrassRecommendations []string
	WeedRecommendations  []string
}

// Value returns the derived value for a category.
func (e Extracted) Value(c Category) float64 {
	switch c {
	case CategoryTree:
		return e.Tree
	case CategoryGrass:
		return e.Grass
	case CategoryWeed:
		return e.Weed
	default:
		return 0
	}
}

// DailyForecast is one calendar day of a multi-day forecast.
type DailyForecast struct {
	// Date is formatted as YYYY-MM-DD.
	Date            string
	Extracted       Extracted
	Level           Level
	Recommendations []string
}

// Forecast is a multi-day forecast for a location.
type Forecast struct {
	ZipCode  string
	Location string
	Lat      float64
	Lng      float64
	Days     []DailyForecast
	Provider string
}

// Float returns a pointer to v, for building readings.
func Float(v float64) *float64 {
	return &v
}

// Package symptom records daily symptom logs and builds the series the
// correlation analysis runs on.
package symptom

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrNotFound         = errors.New("symptom log not found")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// Log is one day's symptom observations for a pet.
type Log struct {
	ID        string
	PetID     string
	ZipCode   string
	LogDate   string
	Axes      Axes
	Notes     *string
	PhotoURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SeriesEntry is a symptom log joined with the environmental data for its
// postal code and date. Missing pollen values are zero.
type SeriesEntry struct {
	LogDate     string
	Axes        Axes
	TreePollen  float64
	GrassPollen float64
	WeedPollen  float64
	AirQuality  int
}

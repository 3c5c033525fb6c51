// Package environment stores daily pollen and air-quality values per postal code.
package environment

import (
	"errors"
	"time"
)

// Environment errors.
var (
	ErrNotFound = errors.New("environmental data not found")
)

// Record is one postal code's environmental values for one day.
// Nil fields have not been recorded yet.
type Record struct {
	ZipCode     string
	Date        string
	TreePollen  *float64
	GrassPollen *float64
	WeedPollen  *float64
	PollenLevel string
	AirQuality  *int
	UpdatedAt   time.Time
}

// PollenValues are the derived pollen values written by the pollen service.
type PollenValues struct {
	Tree  float64
	Grass float64
	Weed  float64
	Level string
}

// PollenOrZero returns the three pollen values with missing ones as 0.
func (r *Record) PollenOrZero() (tree, grass, weed float64) {
	return deref(r.TreePollen), deref(r.GrassPollen), deref(r.WeedPollen)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

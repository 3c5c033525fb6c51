package environment

import (
	"context"
)

// Repository persists environmental records keyed by (zip code, date).
type Repository interface {
	// Get returns the record for one day. Returns ErrNotFound if absent.
	Get(ctx context.Context, zipCode, date string) (*Record, error)

	// ListRange returns records with from <= date <= to, ascending by date.
	ListRange(ctx context.Context, zipCode, from, to string) ([]*Record, error)

	// UpsertPollen writes the pollen columns, keeping air quality.
	UpsertPollen(ctx context.Context, zipCode, date string, values PollenValues) error

	// UpsertAirQuality writes the air quality column, keeping pollen.
	UpsertAirQuality(ctx context.Context, zipCode, date string, aqi int) error

	// ListZipCodes returns every postal code with at least one record.
	ListZipCodes(ctx context.Context) ([]string, error)
}

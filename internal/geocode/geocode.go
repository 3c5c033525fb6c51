// Package geocode resolves postal codes to coordinates.
package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/cache"
)

// Geocode errors.
var (
	ErrNotFound            = errors.New("address not found")
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	ErrEmptyAddress        = errors.New("address is required")
)

// Location is a geocoded point.
type Location struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}

// Geocoder resolves a free-form address or postal code.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// CachedGeocoder decorates a Geocoder with a cache.Store.
// Postal codes rarely move, so the default TTL is long.
type CachedGeocoder struct {
	next   Geocoder
	store  cache.Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedGeocoder wraps next. A zero ttl defaults to 30 days.
func NewCachedGeocoder(next Geocoder, store cache.Store, ttl time.Duration, logger zerolog.Logger) *CachedGeocoder {
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &CachedGeocoder{next: next, store: store, ttl: ttl, logger: logger}
}

// Geocode returns the cached location or resolves and caches it.
func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}
	key := "geocode:" + strings.ToLower(address)

	var loc Location
	found, err := cache.GetJSON(ctx, g.store, key, &loc)
	if err != nil {
		g.logger.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
	}
	if found {
		return &loc, nil
	}

	resolved, err := g.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, g.store, key, resolved, g.ttl); err != nil {
		g.logger.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
	}
	return resolved, nil
}

var _ Geocoder = (*CachedGeocoder)(nil)

package geocode_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/cache"
	"github.com/pollenpaw/pollenpaw/internal/geocode"
)

type countingGeocoder struct {
	calls int
	loc   *geocode.Location
	err   error
}

func (g *countingGeocoder) Geocode(_ context.Context, _ string) (*geocode.Location, error) {
	g.calls++
	return g.loc, g.err
}

func TestCachedGeocoder_CachesResult(t *testing.T) {
	next := &countingGeocoder{loc: &geocode.Location{Lat: 37.7, Lng: -122.4, FormattedAddress: "SF"}}
	g := geocode.NewCachedGeocoder(next, cache.NewMemoryStore(nil), 0, zerolog.Nop())

	first, err := g.Geocode(context.Background(), "94110")
	require.NoError(t, err)
	second, err := g.Geocode(context.Background(), " 94110 ")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, *first, *second)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	next := &countingGeocoder{err: errors.New("boom")}
	g := geocode.NewCachedGeocoder(next, cache.NewMemoryStore(nil), 0, zerolog.Nop())

	_, err := g.Geocode(context.Background(), "94110")
	require.Error(t, err)
	_, err = g.Geocode(context.Background(), "94110")
	require.Error(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestCachedGeocoder_EmptyAddress(t *testing.T) {
	next := &countingGeocoder{}
	g := geocode.NewCachedGeocoder(next, cache.NewMemoryStore(nil), 0, zerolog.Nop())

	_, err := g.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, geocode.ErrEmptyAddress)
	assert.Zero(t, next.calls)
}

package pollen_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/pollen"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2026-01-05", pollen.FormatDate(2026, 1, 5))
	assert.Equal(t, "2026-12-31", pollen.FormatDate(2026, 12, 31))
	assert.Equal(t, "2026-01-05", pollen.CalendarDate{Year: 2026, Month: 1, Day: 5}.String())
}

func TestIsValidDateFormat(t *testing.T) {
	assert.True(t, pollen.IsValidDateFormat("2026-01-05"))
	assert.False(t, pollen.IsValidDateFormat("2026-1-5"))
	assert.False(t, pollen.IsValidDateFormat("01/05/2026"))
	assert.False(t, pollen.IsValidDateFormat("2026-01-05T00:00:00Z"))
	assert.False(t, pollen.IsValidDateFormat(""))
}

func TestParseDate(t *testing.T) {
	got, err := pollen.ParseDate("2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), got)

	_, err = pollen.ParseDate("2026-13-40")
	assert.ErrorIs(t, err, pollen.ErrInvalidDate)

	_, err = pollen.ParseDate("yesterday")
	assert.ErrorIs(t, err, pollen.ErrInvalidDate)
}

func TestDateOf(t *testing.T) {
	assert.Equal(t, "2026-07-04", pollen.DateOf(time.Date(2026, 7, 4, 23, 59, 0, 0, time.UTC)))
}

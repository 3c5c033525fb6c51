package pollen

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the layout of every date key.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// CalendarDate is a year/month/day triple as sent by upstream APIs.
type CalendarDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// String renders the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return FormatDate(d.Year, d.Month, d.Day)
}

// FormatDate renders a date as zero-padded YYYY-MM-DD.
func FormatDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// DateOf returns the YYYY-MM-DD key for t in its own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// IsValidDateFormat reports whether s has the YYYY-MM-DD shape.
func IsValidDateFormat(s string) bool {
	return datePattern.MatchString(s)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	if !IsValidDateFormat(s) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return t, nil
}

// Package timeutil converts the interpreter's date and clock strings into
// concrete instants for calendar operations.
package timeutil

import (
	"fmt"
	"time"
)

var defaultLocation = time.UTC

// ResolveLocation returns the location for a timezone name with UTC fallback.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return defaultLocation, true
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return defaultLocation, true
	}
	return loc, false
}

// CombineDateAndTime builds an instant from a YYYY-MM-DD date and an
// HH:MM:SS clock string in the provided location.
func CombineDateAndTime(date, clock string, loc *time.Location) (time.Time, error) {
	if date == "" {
		return time.Time{}, fmt.Errorf("date value is required")
	}
	if loc == nil {
		loc = defaultLocation
	}
	if clock == "" {
		clock = "00:00:00"
	}

	t, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse %s %s: %w", date, clock, err)
	}
	return t, nil
}

// DayBounds returns the half-open [start, end) window covering the whole of
// the given YYYY-MM-DD day in the provided location.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := CombineDateAndTime(date, "00:00:00", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

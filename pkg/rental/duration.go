package rental

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultLateDropoffCutoffHour is the hour from which a dropoff counts as late
const DefaultLateDropoffCutoffHour = 20

// ErrInvalidDate indicates a pickup or dropoff value could not be parsed
var ErrInvalidDate = errors.New("invalid date")

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseDate parses a date or date-time string as sent by the booking form
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// ParseDateTime combines a "2006-01-02" date with an optional "15:04" time
func ParseDateTime(date, clock string) (time.Time, error) {
	if strings.TrimSpace(clock) == "" {
		return ParseDate(date)
	}
	return ParseDate(strings.TrimSpace(date) + "T" + strings.TrimSpace(clock))
}

// InclusiveDays counts rental days on calendar dates with the time of day stripped.
// Pickup and dropoff on the same date is one day; every midnight crossed adds a day.
// The result is never below 1.
func InclusiveDays(pickup, dropoff time.Time) int {
	from := civilDate(pickup)
	to := civilDate(dropoff)

	days := int(math.Floor(to.Sub(from).Hours()/24)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// CalculateInclusiveDisplayDays is InclusiveDays over raw form values
func CalculateInclusiveDisplayDays(pickup, dropoff string) (int, error) {
	from, err := ParseDate(pickup)
	if err != nil {
		return 0, err
	}
	to, err := ParseDate(dropoff)
	if err != nil {
		return 0, err
	}
	return InclusiveDays(from, to), nil
}

// IsLateDropoff reports whether the dropoff hour is at or after the cutoff hour
func IsLateDropoff(dropoff time.Time, cutoffHour int) bool {
	if cutoffHour <= 0 {
		cutoffHour = DefaultLateDropoffCutoffHour
	}
	return dropoff.Hour() >= cutoffHour
}

// civilDate drops the time of day but keeps the calendar date of t in its own location
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

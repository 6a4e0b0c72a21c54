package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// AnchorMidday parses an ISO date string and anchors it to 12:00 local time.
// Using midday instead of midnight keeps the weekday and calendar day stable
// under timezone conversion.
func AnchorMidday(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, dateStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t.Add(12 * time.Hour), nil
}

// Weekday returns the day of week for an ISO date string
func Weekday(dateStr string) (time.Weekday, error) {
	t, err := AnchorMidday(dateStr)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// IsValidDate reports whether the string is a well-formed ISO date
func IsValidDate(dateStr string) bool {
	_, err := time.ParseInLocation(DateLayout, dateStr, time.Local)
	return err == nil
}

// StartOfDay truncates a time to local midnight
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthBounds returns the first and last day of the month containing the
// given time, both anchored at midday.
func MonthBounds(month time.Time) (time.Time, time.Time) {
	first := time.Date(month.Year(), month.Month(), 1, 12, 0, 0, 0, month.Location())
	last := first.AddDate(0, 1, -1)
	return first, last
}

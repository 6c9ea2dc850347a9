package notifications

import (
	"time"
)

// parseClockTime parses "HH:MM" into minutes since midnight.
func parseClockTime(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// deferPastQuietHours pushes the instant to the end of the quiet window when
// it falls inside one. The window may wrap midnight (22:00 to 07:00).
// Unparseable or degenerate windows leave the instant untouched: quiet hours
// defer, they never drop.
func deferPastQuietHours(at time.Time, start, end string, loc *time.Location) time.Time {
	if start == "" || end == "" {
		return at
	}
	startMin, err := parseClockTime(start)
	if err != nil {
		return at
	}
	endMin, err := parseClockTime(end)
	if err != nil {
		return at
	}
	if startMin == endMin {
		return at
	}
	if loc == nil {
		loc = time.UTC
	}

	local := at.In(loc)
	minutes := local.Hour()*60 + local.Minute()

	var inWindow bool
	if startMin < endMin {
		inWindow = minutes >= startMin && minutes < endMin
	} else {
		inWindow = minutes >= startMin || minutes < endMin
	}
	if !inWindow {
		return at
	}

	windowEnd := time.Date(local.Year(), local.Month(), local.Day(), endMin/60, endMin%60, 0, 0, loc)
	if !windowEnd.After(local) {
		windowEnd = windowEnd.Add(24 * time.Hour)
	}
	return windowEnd.In(at.Location())
}

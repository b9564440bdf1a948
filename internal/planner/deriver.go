// Package planner lays out a class day of periods, validates per-period edits against the
// day's other periods and gates the schedule before it is persisted.
package planner

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// TimeGrid describes how default period times are spread across the school day.
type TimeGrid struct {
	StartHour     int `json:"start_hour"`
	PeriodMinutes int `json:"period_minutes"`
	BreakMinutes  int `json:"break_minutes"`
}

// DefaultGrid starts at 08:00 with 45 minute periods and 5 minute breaks.
var DefaultGrid = TimeGrid{StartHour: 8, PeriodMinutes: 45, BreakMinutes: 5}

// DerivePeriodTimes returns the default start and end of the 0-based period index.
func DerivePeriodTimes(index int, grid TimeGrid) (start, end string) {
	startMinutes := grid.StartHour*60 + index*(grid.PeriodMinutes+grid.BreakMinutes)
	endMinutes := startMinutes + grid.PeriodMinutes
	return FormatClock(startMinutes), FormatClock(endMinutes)
}

// FormatClock renders minutes since midnight as zero-padded HH:MM. Values past
// midnight wrap around.
func FormatClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock converts an HH:MM wall clock value into minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour*60 + minute, nil
}

// normalizeClock returns the canonical HH:MM form so "8:05" and "08:05" compare equal.
func normalizeClock(raw string) (string, error) {
	minutes, err := ParseClock(raw)
	if err != nil {
		return "", err
	}
	return FormatClock(minutes), nil
}

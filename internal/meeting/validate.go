package meeting

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidateSchedule validates raw date and time form input and returns the
// absolute start instant for a scheduled meeting.
//
// dateStr must be in YYYY-MM-DD form and timeStr in 24h HH:MM form. The
// components are parsed positionally, never with a locale-dependent parse:
// an earlier incarnation of this flow read dates as DD-MM-YYYY on some
// inputs and silently scheduled meetings months off. The composed local
// date-time is interpreted in loc and must be strictly after now.
func ValidateSchedule(dateStr, timeStr string, loc *time.Location, now time.Time) (time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return time.Time{}, fmt.Errorf("date: %w", ErrMissingField)
	}
	if strings.TrimSpace(timeStr) == "" {
		return time.Time{}, fmt.Errorf("time: %w", ErrMissingField)
	}
	if loc == nil {
		loc = time.Local
	}

	year, month, day, err := parseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := parseClock(timeStr)
	if err != nil {
		return time.Time{}, err
	}

	start := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)

	// time.Date normalizes out-of-range components (Feb 30 becomes Mar 2),
	// so a round-trip mismatch means the calendar date never existed.
	y, m, d := start.Date()
	if y != year || int(m) != month || d != day {
		return time.Time{}, fmt.Errorf("date %q: %w", dateStr, ErrInvalidFormat)
	}

	if !start.After(now) {
		return time.Time{}, ErrNotInFuture
	}

	return start, nil
}

// parseDate parses a YYYY-MM-DD string positionally.
func parseDate(s string) (year, month, day int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("date %q: %w", s, ErrInvalidFormat)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return 0, 0, 0, fmt.Errorf("date %q: year: %w", s, ErrInvalidFormat)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("date %q: month: %w", s, ErrInvalidFormat)
	}
	day, err = strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("date %q: day: %w", s, ErrInvalidFormat)
	}

	return year, month, day, nil
}

// parseClock parses a 24h HH:MM string positionally.
func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time %q: %w", s, ErrInvalidFormat)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time %q: hour: %w", s, ErrInvalidFormat)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q: minute: %w", s, ErrInvalidFormat)
	}

	return hour, minute, nil
}

// MinSelectableDate returns the earliest date a user may pick in a
// scheduling form. It is today, not tomorrow, on purpose: the future check
// applies to the full timestamp, and scheduling a meeting for later today
// is legitimate.
func MinSelectableDate(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

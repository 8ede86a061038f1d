package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Operating window and grid constants. Sessions must lie inside
// [DayStart, DayEnd] and snap to the 15-minute persistence grid; the
// randomized search walks coarser 30-minute candidate starts.
const (
	DayStart = 7*60 + 30  // 07:30
	DayEnd   = 19*60 + 30 // 19:30

	GridMinutes        = 15
	DefaultStepMinutes = 30
)

// ErrInvalidTimeFormat rejects malformed, off-grid or out-of-window clock
// values. Input is never silently clamped.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// ParseClock converts an "H:MM" or "HH:MM" string to minutes from
// midnight. It validates shape only; use ParseTime for grid and window
// enforcement.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	return hours*60 + minutes, nil
}

// ParseTime parses a clock string and enforces the scheduling grid and
// operating window.
func ParseTime(raw string) (int, error) {
	minutes, err := ParseClock(raw)
	if err != nil {
		return 0, err
	}
	if !IsValidTime(minutes) {
		return 0, fmt.Errorf("%w: %q outside grid or operating window", ErrInvalidTimeFormat, raw)
	}
	return minutes, nil
}

// FormatClock renders minutes from midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Format12Hour renders minutes from midnight in the 12-hour display form
// used on printed timetables, e.g. "7:30 AM".
func Format12Hour(minutes int) string {
	hours := minutes / 60
	meridiem := "AM"
	if hours >= 12 {
		meridiem = "PM"
	}
	display := hours % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minutes%60, meridiem)
}

// NormalizeClock reparses arbitrary accepted input into canonical "HH:MM".
func NormalizeClock(raw string) (string, error) {
	minutes, err := ParseClock(raw)
	if err != nil {
		return "", err
	}
	return FormatClock(minutes), nil
}

// IsValidTime reports whether a minute offset sits on the 15-minute grid
// inside the operating window.
func IsValidTime(minutes int) bool {
	if minutes < DayStart || minutes > DayEnd {
		return false
	}
	return minutes%GridMinutes == 0
}

// IsValidRange reports whether both endpoints are valid and end follows start.
func IsValidRange(start, end int) bool {
	return IsValidTime(start) && IsValidTime(end) && end > start
}

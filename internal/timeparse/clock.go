// Package timeparse normalizes free-form diary clock strings to
// minutes after midnight.
package timeparse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseable marks a time string outside the accepted grammar.
// Callers treat the field as missing rather than failing the row.
var ErrUnparseable = errors.New("unparseable time string")

const minutesPerDay = 1440

// ParseClock parses a diary time string into minutes after midnight
// in [0,1439]. Accepted shapes are "HHMM", "HMM", "HH:MM" and "H:MM".
// Colonless strings take their last two digits as minutes and the
// remainder as hours ("945" is 09:45, "0245" is 02:45). Anything
// else, including out-of-range hours or minutes, returns
// ErrUnparseable. ParseClock never panics.
func ParseClock(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > 5 {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}

	var hourPart, minutePart string
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hourPart, minutePart = s[:i], s[i+1:]
		// Exactly one colon, 1-2 hour digits, 2 minute digits.
		if strings.IndexByte(minutePart, ':') >= 0 ||
			len(hourPart) < 1 || len(hourPart) > 2 || len(minutePart) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrUnparseable, raw)
		}
	} else {
		if len(s) != 3 && len(s) != 4 {
			return 0, fmt.Errorf("%w: %q", ErrUnparseable, raw)
		}
		hourPart, minutePart = s[:len(s)-2], s[len(s)-2:]
	}

	hour, ok := parseDigits(hourPart)
	if !ok || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}
	minute, ok := parseDigits(minutePart)
	if !ok || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}

	return hour*60 + minute, nil
}

// FormatClock converts minutes after midnight to "HH:MM", wrapping
// values outside a single day onto the 24-hour clock.
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// parseDigits parses an unsigned decimal integer consisting only of
// ASCII digits. Unlike strconv.Atoi it rejects signs and whitespace.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

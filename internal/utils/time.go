package utils

import (
	"fmt"
	"time"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// UseTimezone makes the named timezone the normalization zone for the process.
// It must run before any dates are normalized.
func UseTimezone(timezone string) error {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	time.Local = loc
	return nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// ParseDayOrToday parses a YYYY-MM-DD string, falling back to the normalized
// value of now when s is empty.
func ParseDayOrToday(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return Normalize(now), nil
	}
	d, err := ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

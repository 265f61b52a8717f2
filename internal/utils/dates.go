package utils

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// Normalize returns d at local midnight. Every date comparison in the engine
// goes through this function; time.Local is the only normalization zone.
func Normalize(d time.Time) time.Time {
	y, m, day := d.In(time.Local).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.Local)
}

// IsSameDay reports whether a and b fall on the same local calendar day.
func IsSameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// StartOfWeek returns the Monday at or before d. Weeks run Monday to Sunday,
// so a Sunday maps to the Monday six days earlier.
func StartOfWeek(d time.Time) time.Time {
	n := Normalize(d)
	offset := (int(n.Weekday()) + 6) % 7
	return n.AddDate(0, 0, -offset)
}

// EndOfWeek returns the last instant of the Sunday ending d's week.
func EndOfWeek(d time.Time) time.Time {
	return endOfDay(StartOfWeek(d).AddDate(0, 0, 6))
}

// StartOfMonth returns midnight on the first day of d's month.
func StartOfMonth(d time.Time) time.Time {
	n := Normalize(d)
	return time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.Local)
}

// EndOfMonth returns the last instant of d's month.
func EndOfMonth(d time.Time) time.Time {
	return endOfDay(StartOfMonth(d).AddDate(0, 1, -1))
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.Local)
}

// DateRange returns the normalized days base+startOffset through
// base+endOffset inclusive, ascending. It returns an empty slice when
// endOffset < startOffset.
func DateRange(base time.Time, startOffset, endOffset int) []time.Time {
	if endOffset < startOffset {
		return []time.Time{}
	}
	b := Normalize(base)
	days := make([]time.Time, 0, endOffset-startOffset+1)
	for i := startOffset; i <= endOffset; i++ {
		days = append(days, b.AddDate(0, 0, i))
	}
	return days
}

// DaysBetween returns the number of calendar days from a to b. Calendar
// arithmetic keeps the result exact across DST transitions.
func DaysBetween(a, b time.Time) int {
	na, nb := Normalize(a), Normalize(b)
	ua := time.Date(na.Year(), na.Month(), na.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(nb.Year(), nb.Month(), nb.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// WithinDays reports whether d lies in [from, to] comparing calendar days only.
func WithinDays(d, from, to time.Time) bool {
	n := Normalize(d)
	return !n.Before(Normalize(from)) && !n.After(Normalize(to))
}

// ParseDay parses a YYYY-MM-DD string as a local midnight.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(constants.DateFormat, s, time.Local)
}

// FormatDay formats d as YYYY-MM-DD in local time.
func FormatDay(d time.Time) string {
	return Normalize(d).Format(constants.DateFormat)
}

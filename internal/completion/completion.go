// Package completion holds the completion ledger of a habit: which days were
// marked done, and the single toggle primitive that flips one day.
package completion

import (
	"sort"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/streak"
	"github.com/julianstephens/habitual/internal/utils"
)

// LedgerOf returns the habit's completion days. A single ledger backs every
// frequency; for period-targeted habits it is read per week or month.
func LedgerOf(h models.Habit) []time.Time {
	return h.Completions
}

// IsCompletedOn reports whether date is in the habit's ledger.
func IsCompletedOn(h models.Habit, date time.Time) bool {
	_, found := search(LedgerOf(h), utils.Normalize(date))
	return found
}

// Toggle completes the habit on date if it is not completed there yet and
// uncompletes it otherwise. The habit itself is not modified.
func Toggle(h models.Habit, date time.Time) models.ToggleResult {
	day := utils.Normalize(date)
	ledger := LedgerOf(h)
	idx, found := search(ledger, day)

	next := make([]time.Time, 0, len(ledger)+1)
	next = append(next, ledger[:idx]...)
	if found {
		next = append(next, ledger[idx+1:]...)
	} else {
		next = append(next, day)
		next = append(next, ledger[idx:]...)
	}

	s, last := streak.ApplyToggle(h, day, next, !found)
	return models.ToggleResult{
		Completions: next,
		LastDone:    last,
		Streak:      s,
		Completed:   !found,
	}
}

// CompletionsInWeek returns the ledger days inside date's Monday-Sunday week.
func CompletionsInWeek(h models.Habit, date time.Time) []time.Time {
	return Between(h, utils.StartOfWeek(date), utils.EndOfWeek(date))
}

// CompletionsInMonth returns the ledger days inside date's calendar month.
func CompletionsInMonth(h models.Habit, date time.Time) []time.Time {
	return Between(h, utils.StartOfMonth(date), utils.EndOfMonth(date))
}

// CompletionsInPeriod returns the ledger days inside the period the habit's
// target is counted against: the calendar month for monthly habits, the week
// for everything else.
func CompletionsInPeriod(h models.Habit, date time.Time) []time.Time {
	if h.Frequency.Kind == models.FrequencyMonthly {
		return CompletionsInMonth(h, date)
	}
	return CompletionsInWeek(h, date)
}

// Between returns the ledger days within [from, to], comparing calendar days.
func Between(h models.Habit, from, to time.Time) []time.Time {
	var out []time.Time
	for _, d := range LedgerOf(h) {
		if utils.WithinDays(d, from, to) {
			out = append(out, d)
		}
	}
	return out
}

// Canonical returns days normalized, sorted ascending and deduplicated.
// Storage layers run loaded ledgers through it.
func Canonical(days []time.Time) []time.Time {
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		out = append(out, utils.Normalize(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	uniq := out[:0]
	for i, d := range out {
		if i > 0 && d.Equal(uniq[len(uniq)-1]) {
			continue
		}
		uniq = append(uniq, d)
	}
	return uniq
}

// search finds day in the ascending ledger, returning its index or the
// insertion point.
func search(ledger []time.Time, day time.Time) (int, bool) {
	idx := sort.Search(len(ledger), func(i int) bool {
		return !utils.Normalize(ledger[i]).Before(day)
	})
	return idx, idx < len(ledger) && utils.IsSameDay(ledger[idx], day)
}

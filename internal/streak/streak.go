// Package streak derives streak counters from a habit's completion ledger.
//
// Two notions coexist. Streak on the habit record is a toggle counter: it
// goes up by one when a day is completed and down by one (never below zero)
// when a day is uncompleted, so it tracks the net number of completions.
// CurrentRun and LongestRun measure actual consecutive runs and are computed
// on demand, never stored.
package streak

import (
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// ApplyToggle returns the streak counter and last-done day after date was
// toggled, given the ledger as it stands after the toggle.
func ApplyToggle(h models.Habit, date time.Time, ledgerAfter []time.Time, added bool) (int, *time.Time) {
	if added {
		day := utils.Normalize(date)
		return h.Streak + 1, &day
	}
	s := h.Streak - 1
	if s < 0 {
		s = 0
	}
	return s, latest(ledgerAfter)
}

// Check reports an InconsistentStateError when the stored counter or last-done
// marker has drifted from the ledger.
func Check(h models.Habit) error {
	if h.Streak != len(h.Completions) {
		return &apperrors.InconsistentStateError{
			HabitID:     h.ID,
			Streak:      h.Streak,
			LedgerCount: len(h.Completions),
			Reason:      "streak does not match completion count",
		}
	}
	want := latest(h.Completions)
	if !sameOptionalDay(want, h.LastDone) {
		return &apperrors.InconsistentStateError{
			HabitID:     h.ID,
			Streak:      h.Streak,
			LedgerCount: len(h.Completions),
			Reason:      "last done does not match latest completion",
		}
	}
	return nil
}

// Repair recomputes the counter and last-done marker from the ledger.
func Repair(h models.Habit) models.Habit {
	h.Streak = len(h.Completions)
	h.LastDone = latest(h.Completions)
	return h
}

// CurrentRun returns the length of the consecutive run that is still alive
// as of asOf.
//
// Daily and every_n_days habits count completions whose gaps never exceed the
// interval; the run is alive while the latest completion is within one
// interval of asOf. Weekly and monthly habits count consecutive periods that
// met their target (or had any completion when untargeted); the current
// period joins the run only once it is met.
func CurrentRun(h models.Habit, asOf time.Time) int {
	switch h.Frequency.Kind {
	case models.FrequencyWeekly, models.FrequencyMonthly:
		return periodRun(h, asOf)
	default:
		return dayRun(h, asOf, interval(h))
	}
}

// LongestRun returns the longest consecutive run anywhere in the ledger.
func LongestRun(h models.Habit) int {
	ledger := h.Completions
	if len(ledger) == 0 {
		return 0
	}

	switch h.Frequency.Kind {
	case models.FrequencyWeekly, models.FrequencyMonthly:
		best, run := 0, 0
		var prev time.Time
		for i, start := range periodStarts(h) {
			if i > 0 && !nextPeriod(h, prev).Equal(start) {
				run = 0
			}
			if periodMet(h, start) {
				run++
			} else {
				run = 0
			}
			if run > best {
				best = run
			}
			prev = start
		}
		return best
	default:
		step := interval(h)
		best, run := 1, 1
		for i := 1; i < len(ledger); i++ {
			if utils.DaysBetween(ledger[i-1], ledger[i]) <= step {
				run++
			} else {
				run = 1
			}
			if run > best {
				best = run
			}
		}
		return best
	}
}

func dayRun(h models.Habit, asOf time.Time, step int) int {
	ledger := h.Completions
	day := utils.Normalize(asOf)

	// Ignore completions recorded after asOf
	end := len(ledger)
	for end > 0 && utils.Normalize(ledger[end-1]).After(day) {
		end--
	}
	if end == 0 || utils.DaysBetween(ledger[end-1], day) > step {
		return 0
	}

	run := 1
	for i := end - 1; i > 0; i-- {
		if utils.DaysBetween(ledger[i-1], ledger[i]) > step {
			break
		}
		run++
	}
	return run
}

func periodRun(h models.Habit, asOf time.Time) int {
	start := periodStart(h, asOf)
	run := 0
	if periodMet(h, start) {
		run++
	}
	for p := previousPeriod(h, start); !p.Before(periodStart(h, h.StartDate)); p = previousPeriod(h, p) {
		if !periodMet(h, p) {
			break
		}
		run++
	}
	return run
}

func periodMet(h models.Habit, start time.Time) bool {
	end := periodEnd(h, start)
	count := 0
	for _, d := range h.Completions {
		if utils.WithinDays(d, start, end) {
			count++
		}
	}
	target := h.Frequency.TimesPerPeriod
	if target < 1 {
		target = 1
	}
	return count >= target
}

// periodStarts lists the distinct period starts that hold completions, ascending.
func periodStarts(h models.Habit) []time.Time {
	var starts []time.Time
	for _, d := range h.Completions {
		s := periodStart(h, d)
		if len(starts) == 0 || !starts[len(starts)-1].Equal(s) {
			starts = append(starts, s)
		}
	}
	return starts
}

func periodStart(h models.Habit, d time.Time) time.Time {
	if h.Frequency.Kind == models.FrequencyMonthly {
		return utils.StartOfMonth(d)
	}
	return utils.StartOfWeek(d)
}

func periodEnd(h models.Habit, start time.Time) time.Time {
	if h.Frequency.Kind == models.FrequencyMonthly {
		return utils.EndOfMonth(start)
	}
	return utils.EndOfWeek(start)
}

func nextPeriod(h models.Habit, start time.Time) time.Time {
	if h.Frequency.Kind == models.FrequencyMonthly {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 7)
}

func previousPeriod(h models.Habit, start time.Time) time.Time {
	if h.Frequency.Kind == models.FrequencyMonthly {
		return start.AddDate(0, -1, 0)
	}
	return start.AddDate(0, 0, -7)
}

func interval(h models.Habit) int {
	if h.Frequency.Kind == models.FrequencyEveryNDays && h.Frequency.CustomInterval > 1 {
		return h.Frequency.CustomInterval
	}
	return 1
}

func latest(ledger []time.Time) *time.Time {
	if len(ledger) == 0 {
		return nil
	}
	max := utils.Normalize(ledger[0])
	for _, d := range ledger[1:] {
		if n := utils.Normalize(d); n.After(max) {
			max = n
		}
	}
	return &max
}

func sameOptionalDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return utils.IsSameDay(*a, *b)
}

// Package visibility decides whether a habit belongs on a given day's agenda.
package visibility

import (
	"time"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// Engine evaluates habit visibility. The zero value uses the literal
// every_n_days policy.
type Engine struct {
	IntervalPolicy models.IntervalPolicy
}

// New creates an Engine with the given every_n_days policy
func New(policy models.IntervalPolicy) *Engine {
	return &Engine{IntervalPolicy: policy}
}

// IsActiveOn reports whether date lies within the habit's [StartDate, EndDate] span.
func IsActiveOn(h models.Habit, date time.Time) bool {
	day := utils.Normalize(date)
	if day.Before(utils.Normalize(h.StartDate)) {
		return false
	}
	if h.EndDate != nil && day.After(utils.Normalize(*h.EndDate)) {
		return false
	}
	return true
}

// IsDue reports whether the habit should appear on date's agenda when "today"
// is ref.
//
// Period-targeted habits look different forwards and backwards. On today and
// future days they stay visible until the period's target is met, and a day
// that was itself completed stays visible so it can be unchecked. On past days
// they appear only where a completion was actually recorded.
func (e *Engine) IsDue(h models.Habit, date, ref time.Time) bool {
	if !IsActiveOn(h, date) {
		return false
	}

	if !h.Frequency.PeriodTargeted() {
		if h.Frequency.Kind == models.FrequencyEveryNDays {
			return e.intervalDue(h, date)
		}
		return true
	}

	completedOnDate := completion.IsCompletedOn(h, date)
	if utils.Normalize(date).Before(utils.Normalize(ref)) {
		return completedOnDate
	}
	count := len(completion.CompletionsInPeriod(h, date))
	return count < h.Frequency.TimesPerPeriod || completedOnDate
}

func (e *Engine) intervalDue(h models.Habit, date time.Time) bool {
	if e == nil || e.IntervalPolicy != models.IntervalStrict || h.Frequency.CustomInterval < 1 {
		return true
	}
	return utils.DaysBetween(h.StartDate, date)%h.Frequency.CustomInterval == 0
}

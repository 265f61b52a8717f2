// Package agenda builds per-day habit lists on top of the visibility engine.
package agenda

import (
	"time"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/visibility"
)

type Service struct {
	visibility *visibility.Engine
}

func New(engine *visibility.Engine) *Service {
	if engine == nil {
		engine = &visibility.Engine{}
	}
	return &Service{visibility: engine}
}

// HabitsForDate returns the habits due on date, in input order.
func (s *Service) HabitsForDate(all []models.Habit, date, ref time.Time) []models.Habit {
	due := make([]models.Habit, 0, len(all))
	for _, h := range all {
		if s.visibility.IsDue(h, date, ref) {
			due = append(due, h)
		}
	}
	return due
}

// HabitsForDateRange applies HabitsForDate to every date. Keys are normalized
// days. Nothing is cached between calls.
func (s *Service) HabitsForDateRange(all []models.Habit, dates []time.Time, ref time.Time) map[time.Time][]models.Habit {
	out := make(map[time.Time][]models.Habit, len(dates))
	for _, d := range dates {
		out[utils.Normalize(d)] = s.HabitsForDate(all, d, ref)
	}
	return out
}

// Summarize counts due and completed habits on date.
func (s *Service) Summarize(all []models.Habit, date, ref time.Time) models.AgendaSummary {
	return SummarizeDue(s.HabitsForDate(all, date, ref), date)
}

// SummarizeDue counts an already computed agenda for date.
func SummarizeDue(due []models.Habit, date time.Time) models.AgendaSummary {
	summary := models.AgendaSummary{Date: utils.Normalize(date), Due: len(due)}
	for _, h := range due {
		if completion.IsCompletedOn(h, date) {
			summary.Completed++
		}
	}
	return summary
}

// Progress reports how far the habit is toward its target in the period
// containing date: the calendar month for monthly habits, the week otherwise.
// Untargeted habits expect one completion per scheduled day, so strict
// every_n_days habits only count the days their interval lands on.
func (s *Service) Progress(h models.Habit, date time.Time) models.PeriodProgress {
	start, end := utils.StartOfWeek(date), utils.EndOfWeek(date)
	if h.Frequency.Kind == models.FrequencyMonthly {
		start, end = utils.StartOfMonth(date), utils.EndOfMonth(date)
	}
	done := len(completion.Between(h, start, end))

	target := h.Frequency.TimesPerPeriod
	if !h.Frequency.PeriodTargeted() {
		target = 0
		for _, d := range utils.DateRange(start, 0, utils.DaysBetween(start, end)) {
			if s.visibility.IsDue(h, d, d) {
				target++
			}
		}
	}

	remaining := target - done
	if remaining < 0 {
		remaining = 0
	}
	return models.PeriodProgress{
		HabitID:     h.ID,
		Target:      target,
		Done:        done,
		Remaining:   remaining,
		Met:         done >= target,
		PeriodStart: start,
		PeriodEnd:   end,
	}
}

// Package service is the caller-facing habit API used by the CLI and the
// HTTP server. It owns id generation, validation, per-habit write
// serialization and retry of optimistic-concurrency conflicts.
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/agenda"
	"github.com/julianstephens/habitual/internal/clock"
	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/streak"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
	"github.com/julianstephens/habitual/internal/visibility"
)

type HabitService struct {
	store storage.Provider
	clock clock.Clock
	locks *keyedMutex
}

// New wires a service over store. A nil clock means the system clock.
func New(store storage.Provider, clk clock.Clock) *HabitService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &HabitService{store: store, clock: clk, locks: newKeyedMutex()}
}

// Now returns the service clock's current time
func (s *HabitService) Now() time.Time {
	return s.clock.Now()
}

// agenda builds an agenda service honouring the stored interval policy
func (s *HabitService) agenda() (*agenda.Service, models.Settings, error) {
	settings, err := s.store.GetSettings()
	if err != nil {
		return nil, models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return agenda.New(visibility.New(settings.IntervalPolicy)), settings, nil
}

func (s *HabitService) habitsFor(owner string) ([]models.Habit, error) {
	all, err := s.store.GetAllHabits(storage.HabitFilter{OwnerID: owner})
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	return all, nil
}

// GetHabitsForDate returns the owner's habits due on date
func (s *HabitService) GetHabitsForDate(date time.Time, owner string) ([]models.Habit, error) {
	ag, _, err := s.agenda()
	if err != nil {
		return nil, err
	}
	all, err := s.habitsFor(owner)
	if err != nil {
		return nil, err
	}
	return ag.HabitsForDate(all, date, s.clock.Now()), nil
}

// GetHabitsForRange returns agendas for base+from through base+to, keyed by
// normalized day
func (s *HabitService) GetHabitsForRange(base time.Time, from, to int, owner string) (map[time.Time][]models.Habit, error) {
	if to < from {
		return nil, apperrors.NewValidation("range", "end offset %d is before start offset %d", to, from)
	}
	if span := to - from; span < 0 || span >= constants.MaxRangeDays {
		return nil, apperrors.NewValidation("range", "must span at most %d days", constants.MaxRangeDays)
	}
	ag, _, err := s.agenda()
	if err != nil {
		return nil, err
	}
	all, err := s.habitsFor(owner)
	if err != nil {
		return nil, err
	}
	return ag.HabitsForDateRange(all, utils.DateRange(base, from, to), s.clock.Now()), nil
}

// Summarize counts due and completed habits on date
func (s *HabitService) Summarize(date time.Time, owner string) (models.AgendaSummary, error) {
	ag, _, err := s.agenda()
	if err != nil {
		return models.AgendaSummary{}, err
	}
	all, err := s.habitsFor(owner)
	if err != nil {
		return models.AgendaSummary{}, err
	}
	return ag.Summarize(all, date, s.clock.Now()), nil
}

// mutate serializes writes to one habit and retries lost optimistic races
func (s *HabitService) mutate(id string, fn storage.MutateFunc) (models.Habit, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= constants.MaxMutationRetries; attempt++ {
		h, err := s.store.MutateHabit(id, func(h *models.Habit) error {
			if err := fn(h); err != nil {
				return err
			}
			h.UpdatedAt = s.clock.Now()
			return nil
		})
		if err == nil {
			return h, nil
		}
		if !apperrors.Is(err, apperrors.ErrConflict) {
			return models.Habit{}, err
		}
		lastErr = err
		logger.Warn("Concurrent habit update, retrying", "habit", id, "attempt", attempt)
	}
	return models.Habit{}, lastErr
}

// ToggleHabitCompletion flips date in the habit's ledger. Paused habits,
// days outside the active span and habits whose counter has drifted from the
// ledger are rejected without writing.
func (s *HabitService) ToggleHabitCompletion(id string, date time.Time) (models.ToggleResult, error) {
	var result models.ToggleResult
	_, err := s.mutate(id, func(h *models.Habit) error {
		if err := validation.Toggle(*h, date); err != nil {
			return err
		}
		if err := streak.Check(*h); err != nil {
			return err
		}
		result = completion.Toggle(*h, date)
		h.Completions = result.Completions
		h.Streak = result.Streak
		h.LastDone = result.LastDone
		return nil
	})
	if err != nil {
		return models.ToggleResult{}, err
	}
	logger.Debug("Toggled habit", "habit", id, "date", utils.FormatDay(date), "completed", result.Completed)
	return result, nil
}

// CreateHabit validates input and stores a new habit with an empty ledger
func (s *HabitService) CreateHabit(input models.HabitInput) (models.Habit, error) {
	if err := validation.HabitInput(input); err != nil {
		return models.Habit{}, err
	}

	now := s.clock.Now()
	h := models.Habit{
		ID:          uuid.NewString(),
		OwnerID:     input.OwnerID,
		Name:        strings.TrimSpace(input.Name),
		Details:     input.Details,
		Frequency:   normalizeFrequency(input.Frequency),
		StartDate:   utils.Normalize(input.StartDate),
		Completions: []time.Time{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.EndDate != nil {
		end := utils.Normalize(*input.EndDate)
		h.EndDate = &end
	}

	if err := s.store.AddHabit(h); err != nil {
		return models.Habit{}, fmt.Errorf("failed to add habit: %w", err)
	}
	logger.Info("Created habit", "id", h.ID, "name", h.Name, "frequency", h.Frequency.String())
	return h, nil
}

// normalizeFrequency clears the field that does not belong to the kind
func normalizeFrequency(f models.Frequency) models.Frequency {
	switch f.Kind {
	case models.FrequencyWeekly, models.FrequencyMonthly:
		f.CustomInterval = 0
	case models.FrequencyEveryNDays:
		f.TimesPerPeriod = 0
	default:
		f.TimesPerPeriod, f.CustomInterval = 0, 0
	}
	return f
}

// UpdateHabit applies a partial update. The ledger and counter are kept.
func (s *HabitService) UpdateHabit(id string, patch models.HabitPatch) (models.Habit, error) {
	return s.mutate(id, func(h *models.Habit) error {
		if err := validation.Patch(*h, patch); err != nil {
			return err
		}
		if patch.Name != nil {
			h.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Details != nil {
			h.Details = *patch.Details
		}
		if patch.Frequency != nil {
			h.Frequency = normalizeFrequency(*patch.Frequency)
		}
		if patch.StartDate != nil {
			h.StartDate = utils.Normalize(*patch.StartDate)
		}
		if patch.EndDate != nil {
			end := utils.Normalize(*patch.EndDate)
			h.EndDate = &end
		}
		if patch.Paused != nil {
			h.Paused = *patch.Paused
		}
		return nil
	})
}

func (s *HabitService) GetHabit(id string) (models.Habit, error) {
	return s.store.GetHabit(id)
}

// ListHabits returns every habit of owner; an empty owner lists all
func (s *HabitService) ListHabits(owner string) ([]models.Habit, error) {
	return s.habitsFor(owner)
}

func (s *HabitService) DeleteHabit(id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.DeleteHabit(id); err != nil {
		return err
	}
	logger.Info("Deleted habit", "id", id)
	return nil
}

func (s *HabitService) PauseHabit(id string) (models.Habit, error) {
	return s.mutate(id, func(h *models.Habit) error {
		h.Paused = true
		return nil
	})
}

func (s *HabitService) ResumeHabit(id string) (models.Habit, error) {
	return s.mutate(id, func(h *models.Habit) error {
		h.Paused = false
		return nil
	})
}

// EndHabit sets the last active day. Completions after it stay in the ledger.
func (s *HabitService) EndHabit(id string, date time.Time) (models.Habit, error) {
	end := utils.Normalize(date)
	return s.mutate(id, func(h *models.Habit) error {
		if end.Before(utils.Normalize(h.StartDate)) {
			return apperrors.NewValidation("end_date", "must not be before the start date (%s)", utils.FormatDay(h.StartDate))
		}
		h.EndDate = &end
		return nil
	})
}

// RepairHabit rebuilds the counter and last-done day from the ledger
func (s *HabitService) RepairHabit(id string) (models.Habit, error) {
	h, err := s.mutate(id, func(h *models.Habit) error {
		*h = streak.Repair(*h)
		return nil
	})
	if err != nil {
		return models.Habit{}, err
	}
	logger.Info("Repaired habit", "id", id, "streak", h.Streak)
	return h, nil
}

// Progress reports the habit's standing in the period containing date
func (s *HabitService) Progress(id string, date time.Time) (models.PeriodProgress, error) {
	h, err := s.store.GetHabit(id)
	if err != nil {
		return models.PeriodProgress{}, err
	}
	ag, _, err := s.agenda()
	if err != nil {
		return models.PeriodProgress{}, err
	}
	return ag.Progress(h, date), nil
}

// Stats reports the stored counter and the run lengths as of now
func (s *HabitService) Stats(id string) (models.HabitStats, error) {
	h, err := s.store.GetHabit(id)
	if err != nil {
		return models.HabitStats{}, err
	}
	return models.HabitStats{
		HabitID:     h.ID,
		Streak:      h.Streak,
		CurrentRun:  streak.CurrentRun(h, s.clock.Now()),
		LongestRun:  streak.LongestRun(h),
		Completions: len(h.Completions),
		LastDone:    h.LastDone,
	}, nil
}

// Reminder composes the digest due now for owner. ok is false outside the
// reminder windows.
func (s *HabitService) Reminder(owner string) (reminder models.Reminder, ok bool, err error) {
	ag, settings, err := s.agenda()
	if err != nil {
		return models.Reminder{}, false, err
	}
	all, err := s.habitsFor(owner)
	if err != nil {
		return models.Reminder{}, false, err
	}
	reminder, ok = ag.ReminderDigest(all, s.clock.Now(), settings)
	return reminder, ok, nil
}

func (s *HabitService) GetSettings() (models.Settings, error) {
	return s.store.GetSettings()
}

// UpdateSettings validates and stores settings
func (s *HabitService) UpdateSettings(settings models.Settings) error {
	if err := validation.Settings(settings); err != nil {
		return err
	}
	return s.store.SaveSettings(settings)
}

package models

import (
	"fmt"
	"time"
)

// FrequencyKind names the scheduling policy of a habit
type FrequencyKind string

const (
	FrequencyDaily      FrequencyKind = "daily"
	FrequencyWeekly     FrequencyKind = "weekly"
	FrequencyMonthly    FrequencyKind = "monthly"
	FrequencyEveryNDays FrequencyKind = "every_n_days"
)

// Valid reports whether k is one of the known frequency kinds
func (k FrequencyKind) Valid() bool {
	switch k {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyEveryNDays:
		return true
	}
	return false
}

// Frequency is the scheduling variant of a habit. Only the field belonging to
// Kind is meaningful: TimesPerPeriod for weekly/monthly, CustomInterval for
// every_n_days.
type Frequency struct {
	Kind           FrequencyKind `json:"kind" validate:"required,oneof=daily weekly monthly every_n_days"`
	TimesPerPeriod int           `json:"times_per_period,omitempty" validate:"gte=0"`
	CustomInterval int           `json:"custom_interval,omitempty" validate:"gte=0"`
}

func Daily() Frequency { return Frequency{Kind: FrequencyDaily} }

func Weekly(times int) Frequency { return Frequency{Kind: FrequencyWeekly, TimesPerPeriod: times} }

func Monthly(times int) Frequency { return Frequency{Kind: FrequencyMonthly, TimesPerPeriod: times} }

func EveryNDays(interval int) Frequency {
	return Frequency{Kind: FrequencyEveryNDays, CustomInterval: interval}
}

// PeriodTargeted reports whether completions are counted against a per-period
// target. Weekly or monthly habits without a positive target are treated as
// untargeted.
func (f Frequency) PeriodTargeted() bool {
	return (f.Kind == FrequencyWeekly || f.Kind == FrequencyMonthly) && f.TimesPerPeriod > 0
}

func (f Frequency) String() string {
	switch f.Kind {
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		if f.TimesPerPeriod > 0 {
			return fmt.Sprintf("%dx per week", f.TimesPerPeriod)
		}
		return "weekly"
	case FrequencyMonthly:
		if f.TimesPerPeriod > 0 {
			return fmt.Sprintf("%dx per month", f.TimesPerPeriod)
		}
		return "monthly"
	case FrequencyEveryNDays:
		return fmt.Sprintf("every %d days", f.CustomInterval)
	default:
		return "unknown"
	}
}

// Habit represents a recurring practice to track
type Habit struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id,omitempty"`
	Name        string      `json:"name"`
	Details     string      `json:"details,omitempty"`
	Frequency   Frequency   `json:"frequency"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Paused      bool        `json:"paused"`
	Completions []time.Time `json:"completions"` // normalized days, ascending
	Streak      int         `json:"streak"`
	LastDone    *time.Time  `json:"last_done,omitempty"`
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Ended reports whether the habit has been terminated
func (h Habit) Ended() bool {
	return h.EndDate != nil
}

// Clone returns a copy that shares no slices or pointers with h
func (h Habit) Clone() Habit {
	c := h
	if h.Completions != nil {
		c.Completions = append([]time.Time(nil), h.Completions...)
	}
	if h.EndDate != nil {
		end := *h.EndDate
		c.EndDate = &end
	}
	if h.LastDone != nil {
		last := *h.LastDone
		c.LastDone = &last
	}
	return c
}

// ToggleResult is the outcome of flipping a habit's completion for one day
type ToggleResult struct {
	Completions []time.Time
	LastDone    *time.Time
	Streak      int
	Completed   bool // true when the day was added, false when removed
}

// HabitInput is the payload for creating a habit
type HabitInput struct {
	OwnerID   string     `json:"owner_id,omitempty" validate:"max=128"`
	Name      string     `json:"name" validate:"required,max=200"`
	Details   string     `json:"details,omitempty" validate:"max=2000"`
	Frequency Frequency  `json:"frequency"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// HabitPatch carries a partial update. Nil fields are left untouched.
type HabitPatch struct {
	Name      *string    `json:"name,omitempty"`
	Details   *string    `json:"details,omitempty"`
	Frequency *Frequency `json:"frequency,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Paused    *bool      `json:"paused,omitempty"`
}

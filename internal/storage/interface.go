package storage

import "github.com/julianstephens/habitual/internal/models"

// HabitFilter narrows GetAllHabits. An empty OwnerID matches every habit.
type HabitFilter struct {
	OwnerID string
}

// Matches reports whether h passes the filter
func (f HabitFilter) Matches(h models.Habit) bool {
	return f.OwnerID == "" || h.OwnerID == f.OwnerID
}

// MutateFunc edits a habit in place inside MutateHabit. Returning an error
// aborts the write.
type MutateFunc func(h *models.Habit) error

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetAllHabits(filter HabitFilter) ([]models.Habit, error)
	// MutateHabit loads the habit, applies fn and writes the result in one
	// transaction. The write succeeds only if the stored version is unchanged
	// since the read; otherwise a ConflictError is returned. The stored version
	// is incremented on every successful write.
	MutateHabit(id string, fn MutateFunc) (models.Habit, error)
	DeleteHabit(id string) error

	// Utils
	GetConfigPath() string
}

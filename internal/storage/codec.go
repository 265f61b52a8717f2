package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// HabitColumns lists the habits table columns in HabitRow.Dest order
const HabitColumns = "id, owner_id, name, details, frequency_kind, times_per_period, custom_interval, " +
	"start_date, end_date, paused, streak, last_done, version, created_at, updated_at"

// HabitRow is the flat SQL form of a habit. Days are stored as YYYY-MM-DD
// text and timestamps as UTC RFC3339 with nanoseconds.
type HabitRow struct {
	ID             string
	OwnerID        string
	Name           string
	Details        string
	Kind           string
	TimesPerPeriod int
	CustomInterval int
	StartDate      string
	EndDate        sql.NullString
	Paused         bool
	Streak         int
	LastDone       sql.NullString
	Version        int
	CreatedAt      string
	UpdatedAt      string
}

// Dest returns scan destinations matching HabitColumns
func (r *HabitRow) Dest() []interface{} {
	return []interface{}{
		&r.ID, &r.OwnerID, &r.Name, &r.Details, &r.Kind, &r.TimesPerPeriod, &r.CustomInterval,
		&r.StartDate, &r.EndDate, &r.Paused, &r.Streak, &r.LastDone, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	}
}

// Args returns the column values in HabitColumns order
func (r HabitRow) Args() []interface{} {
	return []interface{}{
		r.ID, r.OwnerID, r.Name, r.Details, r.Kind, r.TimesPerPeriod, r.CustomInterval,
		r.StartDate, r.EndDate, r.Paused, r.Streak, r.LastDone, r.Version, r.CreatedAt, r.UpdatedAt,
	}
}

// RowFromHabit flattens h for storage
func RowFromHabit(h models.Habit) HabitRow {
	row := HabitRow{
		ID:             h.ID,
		OwnerID:        h.OwnerID,
		Name:           h.Name,
		Details:        h.Details,
		Kind:           string(h.Frequency.Kind),
		TimesPerPeriod: h.Frequency.TimesPerPeriod,
		CustomInterval: h.Frequency.CustomInterval,
		StartDate:      utils.FormatDay(h.StartDate),
		Paused:         h.Paused,
		Streak:         h.Streak,
		Version:        h.Version,
		CreatedAt:      formatTimestamp(h.CreatedAt),
		UpdatedAt:      formatTimestamp(h.UpdatedAt),
	}
	if h.EndDate != nil {
		row.EndDate = sql.NullString{String: utils.FormatDay(*h.EndDate), Valid: true}
	}
	if h.LastDone != nil {
		row.LastDone = sql.NullString{String: utils.FormatDay(*h.LastDone), Valid: true}
	}
	return row
}

// Habit rebuilds the domain value. days are the raw completion rows.
func (r HabitRow) Habit(days []string) (models.Habit, error) {
	h := models.Habit{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Name:    r.Name,
		Details: r.Details,
		Frequency: models.Frequency{
			Kind:           models.FrequencyKind(r.Kind),
			TimesPerPeriod: r.TimesPerPeriod,
			CustomInterval: r.CustomInterval,
		},
		Paused:  r.Paused,
		Streak:  r.Streak,
		Version: r.Version,
	}

	var err error
	if h.StartDate, err = utils.ParseDay(r.StartDate); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse start_date for habit %s: %w", r.ID, err)
	}
	if h.EndDate, err = parseOptionalDay(r.EndDate); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse end_date for habit %s: %w", r.ID, err)
	}
	if h.LastDone, err = parseOptionalDay(r.LastDone); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse last_done for habit %s: %w", r.ID, err)
	}
	if h.CreatedAt, err = time.Parse(time.RFC3339Nano, r.CreatedAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", r.ID, err)
	}
	if h.UpdatedAt, err = time.Parse(time.RFC3339Nano, r.UpdatedAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse updated_at for habit %s: %w", r.ID, err)
	}

	ledger := make([]time.Time, 0, len(days))
	for _, d := range days {
		day, err := utils.ParseDay(d)
		if err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse completion %q for habit %s: %w", d, r.ID, err)
		}
		ledger = append(ledger, day)
	}
	h.Completions = completion.Canonical(ledger)
	return h, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseOptionalDay(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	d, err := utils.ParseDay(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DiffCompletions returns the days present only in after (added) and only in
// before (removed), formatted for storage.
func DiffCompletions(before, after []time.Time) (added, removed []string) {
	old := make(map[string]bool, len(before))
	for _, d := range before {
		old[utils.FormatDay(d)] = true
	}
	next := make(map[string]bool, len(after))
	for _, d := range after {
		key := utils.FormatDay(d)
		next[key] = true
		if !old[key] {
			added = append(added, key)
		}
	}
	for key := range old {
		if !next[key] {
			removed = append(removed, key)
		}
	}
	return added, removed
}

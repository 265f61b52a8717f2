package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/completion"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

func (s *Store) AddHabit(habit models.Habit) error {
	if habit.Version == 0 {
		habit.Version = 1
	}
	habit.Completions = completion.Canonical(habit.Completions)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := storage.RowFromHabit(habit)
	_, err = tx.Exec(`
		INSERT INTO habits (`+storage.HabitColumns+`, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM habits))`, row.Args()...)
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	added, _ := storage.DiffCompletions(nil, habit.Completions)
	if err := insertCompletions(tx, habit.ID, added); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	return loadHabit(s.db, id)
}

// GetAllHabits returns matching habits in insertion order
func (s *Store) GetAllHabits(filter storage.HabitFilter) ([]models.Habit, error) {
	query := "SELECT " + storage.HabitColumns + " FROM habits"
	var args []interface{}
	if filter.OwnerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, filter.OwnerID)
	}
	query += " ORDER BY seq, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	var habitRows []storage.HabitRow
	for rows.Next() {
		var r storage.HabitRow
		if err := rows.Scan(r.Dest()...); err != nil {
			rows.Close()
			return nil, err
		}
		habitRows = append(habitRows, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ledgers, err := allCompletions(s.db)
	if err != nil {
		return nil, err
	}

	habits := make([]models.Habit, 0, len(habitRows))
	for _, r := range habitRows {
		h, err := r.Habit(ledgers[r.ID])
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (s *Store) MutateHabit(id string, fn storage.MutateFunc) (models.Habit, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Habit{}, err
	}
	defer tx.Rollback()

	current, err := loadHabit(tx, id)
	if err != nil {
		return models.Habit{}, err
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return models.Habit{}, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.Completions = completion.Canonical(next.Completions)
	next.Version = current.Version + 1

	row := storage.RowFromHabit(next)
	res, err := tx.Exec(`
		UPDATE habits SET
			owner_id = ?, name = ?, details = ?, frequency_kind = ?, times_per_period = ?,
			custom_interval = ?, start_date = ?, end_date = ?, paused = ?, streak = ?,
			last_done = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		row.OwnerID, row.Name, row.Details, row.Kind, row.TimesPerPeriod,
		row.CustomInterval, row.StartDate, row.EndDate, row.Paused, row.Streak,
		row.LastDone, row.Version, row.UpdatedAt,
		id, current.Version)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to update habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Habit{}, err
	}
	if n == 0 {
		return models.Habit{}, &apperrors.ConflictError{HabitID: id, Version: current.Version}
	}

	added, removed := storage.DiffCompletions(current.Completions, next.Completions)
	for _, day := range removed {
		if _, err := tx.Exec("DELETE FROM habit_completions WHERE habit_id = ? AND day = ?", id, day); err != nil {
			return models.Habit{}, fmt.Errorf("failed to delete completion: %w", err)
		}
	}
	if err := insertCompletions(tx, id, added); err != nil {
		return models.Habit{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Habit{}, err
	}
	return next, nil
}

func (s *Store) DeleteHabit(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM habit_completions WHERE habit_id = ?", id); err != nil {
		return err
	}
	res, err := tx.Exec("DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewNotFound("habit", id)
	}
	return tx.Commit()
}

func loadHabit(q querier, id string) (models.Habit, error) {
	var r storage.HabitRow
	err := q.QueryRow("SELECT "+storage.HabitColumns+" FROM habits WHERE id = ?", id).Scan(r.Dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, apperrors.NewNotFound("habit", id)
	}
	if err != nil {
		return models.Habit{}, err
	}

	rows, err := q.Query("SELECT day FROM habit_completions WHERE habit_id = ? ORDER BY day", id)
	if err != nil {
		return models.Habit{}, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return models.Habit{}, err
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return models.Habit{}, err
	}
	return r.Habit(days)
}

func allCompletions(q querier) (map[string][]string, error) {
	rows, err := q.Query("SELECT habit_id, day FROM habit_completions ORDER BY habit_id, day")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var habitID, day string
		if err := rows.Scan(&habitID, &day); err != nil {
			return nil, err
		}
		out[habitID] = append(out[habitID], day)
	}
	return out, rows.Err()
}

func insertCompletions(tx *sql.Tx, habitID string, days []string) error {
	if len(days) == 0 {
		return nil
	}
	stmt, err := tx.Prepare("INSERT INTO habit_completions (habit_id, day, created_at) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339)
	for _, day := range days {
		if _, err := stmt.Exec(habitID, day, now); err != nil {
			return fmt.Errorf("failed to insert completion %s: %w", day, err)
		}
	}
	return nil
}

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// jsonSchemaVersion 2 stores days as YYYY-MM-DD strings. Version 1 files
// held them as RFC3339 instants and are upgraded on Load.
const jsonSchemaVersion = 2

// Document is the on-disk layout of a JSON store
type Document struct {
	Version  int                    `json:"version"`
	Settings models.Settings        `json:"settings"`
	NextSeq  int64                  `json:"next_seq"`
	Habits   map[string]HabitRecord `json:"habits"`
}

// HabitRecord is the stored form of a habit. Days stay strings until read so
// they always decode in the zone that is current at read time.
type HabitRecord struct {
	Seq         int64            `json:"seq"`
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id,omitempty"`
	Name        string           `json:"name"`
	Details     string           `json:"details,omitempty"`
	Frequency   models.Frequency `json:"frequency"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date,omitempty"`
	Paused      bool             `json:"paused"`
	Completions []string         `json:"completions"`
	Streak      int              `json:"streak"`
	LastDone    string           `json:"last_done,omitempty"`
	Version     int              `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// RecordFromHabit converts h to its stored form
func RecordFromHabit(h models.Habit, seq int64) HabitRecord {
	rec := HabitRecord{
		Seq:         seq,
		ID:          h.ID,
		OwnerID:     h.OwnerID,
		Name:        h.Name,
		Details:     h.Details,
		Frequency:   h.Frequency,
		StartDate:   utils.FormatDay(h.StartDate),
		Paused:      h.Paused,
		Completions: make([]string, 0, len(h.Completions)),
		Streak:      h.Streak,
		Version:     h.Version,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
	for _, d := range completion.Canonical(h.Completions) {
		rec.Completions = append(rec.Completions, utils.FormatDay(d))
	}
	if h.EndDate != nil {
		rec.EndDate = utils.FormatDay(*h.EndDate)
	}
	if h.LastDone != nil {
		rec.LastDone = utils.FormatDay(*h.LastDone)
	}
	return rec
}

// Habit decodes the record in the current local zone
func (r HabitRecord) Habit() (models.Habit, error) {
	h := models.Habit{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Details:   r.Details,
		Frequency: r.Frequency,
		Paused:    r.Paused,
		Streak:    r.Streak,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	var err error
	if h.StartDate, err = utils.ParseDay(r.StartDate); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse start_date for habit %s: %w", r.ID, err)
	}
	if h.EndDate, err = parseRecordDay(r.EndDate); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse end_date for habit %s: %w", r.ID, err)
	}
	if h.LastDone, err = parseRecordDay(r.LastDone); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse last_done for habit %s: %w", r.ID, err)
	}

	ledger := make([]time.Time, 0, len(r.Completions))
	for _, s := range r.Completions {
		d, err := utils.ParseDay(s)
		if err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse completion %q for habit %s: %w", s, r.ID, err)
		}
		ledger = append(ledger, d)
	}
	h.Completions = completion.Canonical(ledger)
	return h, nil
}

func parseRecordDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := utils.ParseDay(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// legacyDocument is the version 1 layout
type legacyDocument struct {
	Settings models.Settings         `json:"settings"`
	Habits   map[string]models.Habit `json:"habits"`
}

// upgradeLegacy converts a version 1 document. Each stored instant is read in
// the offset it was written with, which is the calendar day the user meant.
func upgradeLegacy(data []byte) (*Document, error) {
	var old legacyDocument
	if err := json.Unmarshal(data, &old); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(old.Habits))
	for id := range old.Habits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := old.Habits[ids[i]], old.Habits[ids[j]]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	doc := &Document{
		Version:  jsonSchemaVersion,
		Settings: old.Settings,
		Habits:   make(map[string]HabitRecord, len(old.Habits)),
	}
	for _, id := range ids {
		h := old.Habits[id]
		doc.NextSeq++
		rec := HabitRecord{
			Seq:         doc.NextSeq,
			ID:          h.ID,
			OwnerID:     h.OwnerID,
			Name:        h.Name,
			Details:     h.Details,
			Frequency:   h.Frequency,
			StartDate:   storedDay(h.StartDate),
			Paused:      h.Paused,
			Completions: make([]string, 0, len(h.Completions)),
			Streak:      h.Streak,
			Version:     h.Version,
			CreatedAt:   h.CreatedAt,
			UpdatedAt:   h.UpdatedAt,
		}
		seen := make(map[string]bool, len(h.Completions))
		for _, d := range h.Completions {
			s := storedDay(d)
			if !seen[s] {
				seen[s] = true
				rec.Completions = append(rec.Completions, s)
			}
		}
		sort.Strings(rec.Completions)
		if h.EndDate != nil {
			rec.EndDate = storedDay(*h.EndDate)
		}
		if h.LastDone != nil {
			rec.LastDone = storedDay(*h.LastDone)
		}
		doc.Habits[id] = rec
	}
	return doc, nil
}

func storedDay(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// JSONStore keeps every habit in a single JSON file. It is meant for small
// single-user setups and tests.
type JSONStore struct {
	path string

	mu  sync.Mutex
	doc *Document
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.doc = &Document{
		Version:  jsonSchemaVersion,
		Settings: models.DefaultSettings(),
		Habits:   make(map[string]HabitRecord),
	}
	return s.save()
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitual init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	var doc *Document
	switch {
	case header.Version > jsonSchemaVersion:
		return fmt.Errorf("storage version (%d) is newer than supported version (%d); upgrade habitual", header.Version, jsonSchemaVersion)
	case header.Version < jsonSchemaVersion:
		if doc, err = upgradeLegacy(data); err != nil {
			return fmt.Errorf("failed to upgrade storage: %w", err)
		}
		s.doc = doc
		if err := s.save(); err != nil {
			return err
		}
		return nil
	default:
		doc = &Document{}
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to parse storage: %w", err)
		}
	}
	if doc.Habits == nil {
		doc.Habits = make(map[string]HabitRecord)
	}
	s.doc = doc
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save writes through a temp file so a crash never leaves a truncated store.
// Callers hold mu.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

func (s *JSONStore) loaded() error {
	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *JSONStore) GetSettings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return models.Settings{}, err
	}
	return s.doc.Settings, nil
}

func (s *JSONStore) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	s.doc.Settings = settings
	return s.save()
}

func (s *JSONStore) AddHabit(h models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	if _, exists := s.doc.Habits[h.ID]; exists {
		return fmt.Errorf("habit %s already exists", h.ID)
	}
	if h.Version == 0 {
		h.Version = 1
	}
	s.doc.NextSeq++
	s.doc.Habits[h.ID] = RecordFromHabit(h, s.doc.NextSeq)
	if err := s.save(); err != nil {
		delete(s.doc.Habits, h.ID)
		s.doc.NextSeq--
		return err
	}
	return nil
}

func (s *JSONStore) GetHabit(id string) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return models.Habit{}, err
	}
	rec, ok := s.doc.Habits[id]
	if !ok {
		return models.Habit{}, apperrors.NewNotFound("habit", id)
	}
	return rec.Habit()
}

// GetAllHabits returns matching habits in insertion order
func (s *JSONStore) GetAllHabits(filter HabitFilter) ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}

	records := make([]HabitRecord, 0, len(s.doc.Habits))
	for _, rec := range s.doc.Habits {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Seq == records[j].Seq {
			return records[i].ID < records[j].ID
		}
		return records[i].Seq < records[j].Seq
	})

	habits := make([]models.Habit, 0, len(records))
	for _, rec := range records {
		h, err := rec.Habit()
		if err != nil {
			return nil, err
		}
		if filter.Matches(h) {
			habits = append(habits, h)
		}
	}
	return habits, nil
}

// MutateHabit holds the store lock for the whole read-modify-write, so a
// version mismatch can only come from a caller passing a stale copy through fn.
func (s *JSONStore) MutateHabit(id string, fn MutateFunc) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return models.Habit{}, err
	}

	stored, ok := s.doc.Habits[id]
	if !ok {
		return models.Habit{}, apperrors.NewNotFound("habit", id)
	}
	current, err := stored.Habit()
	if err != nil {
		return models.Habit{}, err
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return models.Habit{}, err
	}
	if next.Version != current.Version {
		return models.Habit{}, &apperrors.ConflictError{HabitID: id, Version: current.Version}
	}

	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.Completions = completion.Canonical(next.Completions)
	next.Version = current.Version + 1

	s.doc.Habits[id] = RecordFromHabit(next, stored.Seq)
	if err := s.save(); err != nil {
		s.doc.Habits[id] = stored
		return models.Habit{}, err
	}
	return next.Clone(), nil
}

func (s *JSONStore) DeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	stored, ok := s.doc.Habits[id]
	if !ok {
		return apperrors.NewNotFound("habit", id)
	}
	delete(s.doc.Habits, id)
	if err := s.save(); err != nil {
		s.doc.Habits[id] = stored
		return err
	}
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

// Package sqlite is the default storage backend, built on modernc.org/sqlite.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/migrations"
)

// Pragmas applied to every connection: enforce completion cascades and wait
// on a locked database instead of failing immediately.
const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.path+pragmas)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := runner.Apply(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if n, err := s.settingsCount(); err != nil {
		return err
	} else if n == 0 {
		if err := s.SaveSettings(models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
		logger.Debug("Wrote default settings", "path", s.path)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'habitual init' first")
	}
	if err := s.open(); err != nil {
		return err
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	st, err := runner.Status()
	if err != nil {
		return err
	}
	if len(st.Pending) > 0 {
		return fmt.Errorf("database schema is at version %d but %d is available, run 'habitual migrate'", st.Current, st.Latest)
	}
	return nil
}

// Close releases the connection; a closed store can be loaded again
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) runner() (*migration.Runner, error) {
	fsys, err := migrations.For(string(migration.SQLite))
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, fsys, migration.SQLite), nil
}

// Migrate applies pending schema migrations to an existing database
func (s *Store) Migrate() (int, error) {
	if s.db == nil {
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.Apply()
}

// SchemaStatus reports the applied and available schema versions
func (s *Store) SchemaStatus() (migration.Status, error) {
	runner, err := s.runner()
	if err != nil {
		return migration.Status{}, err
	}
	return runner.Status()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying connection, nil before Init or Load
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

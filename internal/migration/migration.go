// Package migration applies versioned SQL files to a SQLite or PostgreSQL
// database.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/logger"
)

// Dialect selects placeholder syntax and the embedded migration set
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Migration is one NNN_name.sql file
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status summarizes where a database stands relative to the available files
type Status struct {
	Current int
	Latest  int
	Pending []Migration
}

// Runner manages schema migrations
type Runner struct {
	db      *sql.DB
	fs      fs.FS
	dialect Dialect
}

// NewRunner creates a runner reading migration files from the root of fsys
func NewRunner(db *sql.DB, fsys fs.FS, dialect Dialect) *Runner {
	if dialect == "" {
		dialect = SQLite
	}
	return &Runner{db: db, fs: fsys, dialect: dialect}
}

// bind rewrites ? placeholders to $n for PostgreSQL
func (r *Runner) bind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Runner) ensureVersionTable() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`)
	return err
}

// CurrentVersion returns the applied schema version, 0 for a fresh database
func (r *Runner) CurrentVersion() (int, error) {
	if err := r.ensureVersionTable(); err != nil {
		return 0, fmt.Errorf("failed to ensure schema_version table: %w", err)
	}

	var version int
	err := r.db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// SetVersion overwrites the recorded schema version
func (r *Runner) SetVersion(version int) error {
	if err := r.ensureVersionTable(); err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if err := r.writeVersion(tx, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *Runner) writeVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear version: %w", err)
	}
	if _, err := tx.Exec(r.bind("INSERT INTO schema_version (version) VALUES (?)"), version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}

// Files parses the migration files, sorted by version
func (r *Runner) Files() ([]Migration, error) {
	entries, err := fs.ReadDir(r.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m, err := r.parse(entry.Name())
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", migrations[i].Version)
		}
	}
	return migrations, nil
}

func (r *Runner) parse(filename string) (Migration, error) {
	prefix, rest, ok := strings.Cut(filename, "_")
	if !ok {
		return Migration{}, fmt.Errorf("invalid migration filename %s (expected NNN_name.sql)", filename)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return Migration{}, fmt.Errorf("invalid version number in filename %s: %w", filename, err)
	}
	if version < 1 {
		return Migration{}, fmt.Errorf("invalid version number in filename %s: version must be at least 1", filename)
	}
	content, err := fs.ReadFile(r.fs, filename)
	if err != nil {
		return Migration{}, fmt.Errorf("failed to read migration file %s: %w", filename, err)
	}
	return Migration{Version: version, Name: strings.TrimSuffix(rest, ".sql"), SQL: string(content)}, nil
}

// Status compares the database version with the migration files. A database
// newer than the newest file is an error.
func (r *Runner) Status() (Status, error) {
	current, err := r.CurrentVersion()
	if err != nil {
		return Status{}, err
	}
	migrations, err := r.Files()
	if err != nil {
		return Status{}, err
	}

	st := Status{Current: current}
	if len(migrations) > 0 {
		st.Latest = migrations[len(migrations)-1].Version
	}
	if current > st.Latest {
		return st, fmt.Errorf("database schema version (%d) is newer than supported version (%d); upgrade habitual", current, st.Latest)
	}
	for _, m := range migrations {
		if m.Version > current {
			st.Pending = append(st.Pending, m)
		}
	}
	return st, nil
}

// Apply runs every pending migration, each in its own transaction, and
// returns how many were applied.
func (r *Runner) Apply() (int, error) {
	st, err := r.Status()
	if err != nil {
		return 0, err
	}
	if len(st.Pending) == 0 {
		logger.Debug("Schema up to date", "version", st.Current)
		return 0, nil
	}

	logger.Info("Applying migrations", "from", st.Current, "to", st.Latest, "count", len(st.Pending))
	start := time.Now()

	for i, m := range st.Pending {
		if err := r.applyOne(m); err != nil {
			return i, err
		}
		logger.Debug("Applied migration", "version", m.Version, "name", m.Name)
	}

	logger.Info("Migrations applied", "count", len(st.Pending), "duration", time.Since(start))
	return len(st.Pending), nil
}

func (r *Runner) applyOne(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if err := r.writeVersion(tx, m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

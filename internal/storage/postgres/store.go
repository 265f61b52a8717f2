// Package postgres stores habits in PostgreSQL through lib/pq.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/migrations"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

type Store struct {
	connStr string
	db      *sql.DB
}

// New returns a store for connStr. The habitual schema is added to the
// search_path unless the connection string already sets one.
func New(connStr string) *Store {
	return &Store{connStr: withSearchPath(connStr, constants.AppName)}
}

func withSearchPath(connStr, schema string) string {
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return connStr
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", schema)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	if _, ok := dsnParams(connStr)["search_path"]; ok {
		return connStr
	}
	return strings.TrimSpace(connStr) + " search_path=" + schema
}

func isURL(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://")
}

// dsnParams parses key=value DSN pairs with lower-cased keys
func dsnParams(connStr string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Fields(connStr) {
		k, v, ok := strings.Cut(part, "=")
		if ok {
			out[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return out
}

func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	_, ok := dsnParams(connStr)["sslmode"]
	return ok
}

// ValidateConnString checks that connStr is a well-formed PostgreSQL URI or
// DSN and carries no password. Passwords belong in ~/.pgpass or PGPASSWORD.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := u.User.Password(); isSet {
			return ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return nil
	}

	if _, ok := dsnParams(connStr)["password"]; ok {
		return ErrEmbeddedCredentials
	}
	return nil
}

func (s *Store) connect() error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init() error {
	if s.db == nil {
		if err := s.connect(); err != nil {
			return err
		}
	}
	if _, err := s.db.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(constants.AppName)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := runner.Apply(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if err := s.SaveSettings(models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if err := s.connect(); err != nil {
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
	fsys, err := migrations.For(string(migration.Postgres))
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, fsys, migration.Postgres), nil
}

// Migrate applies pending schema migrations
func (s *Store) Migrate() (int, error) {
	if s.db == nil {
		if err := s.connect(); err != nil {
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

// GetConfigPath returns a non-sensitive identifier instead of the connection string
func (s *Store) GetConfigPath() string {
	return "postgresql"
}

type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

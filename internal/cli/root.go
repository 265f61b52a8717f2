// Package cli holds the state shared by habitual's kong commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/utils"
)

type Context struct {
	Store   storage.Provider
	Service *service.HabitService
	// Owner scopes agenda and list commands; empty means every owner
	Owner string
	Out   io.Writer
}

// NewContext wires a service over store writing to stdout
func NewContext(store storage.Provider, owner string) *Context {
	return &Context{
		Store:   store,
		Service: service.New(store, nil),
		Owner:   owner,
		Out:     os.Stdout,
	}
}

// Printf writes to the command output
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// Day parses a YYYY-MM-DD flag value; empty means today
func (c *Context) Day(s string) (time.Time, error) {
	d, err := utils.ParseDayOrToday(s, c.Service.Now())
	if err != nil {
		return time.Time{}, apperrors.NewValidation("date", "%v", err)
	}
	return d, nil
}

// ApplyTimezone switches date normalization to the stored timezone setting
func (c *Context) ApplyTimezone() error {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return utils.UseTimezone(settings.Timezone)
}

// PerformAutomaticBackup snapshots SQLite databases and only logs failures
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// OpenStore picks the storage backend for target:
//   - a postgres:// URL, which must not embed a password
//   - with usePostgres, a connection string from HABITUAL_DB_CONNECTION or the keyring
//   - a path ending in .json for the JSON file store
//   - any other path for SQLite
func OpenStore(target string, usePostgres bool) (storage.Provider, error) {
	switch {
	case strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://"):
		if err := postgres.ValidateConnString(target); err != nil {
			if apperrors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store it with 'habitual keyring set' or export %s instead",
					err, constants.DBConnectionEnvVar)
			}
			return nil, err
		}
		return postgres.New(target), nil

	case usePostgres:
		connStr, source, err := keyring.ResolveConnectionString("", keyring.Default())
		if err != nil {
			return nil, fmt.Errorf("no PostgreSQL connection string configured: %w", err)
		}
		if err := postgres.ValidateConnString(connStr); err != nil && !apperrors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		logger.Debug("Using PostgreSQL storage", "source", source)
		return postgres.New(connStr), nil

	case strings.HasSuffix(target, ".json"):
		return storage.NewJSONStore(kong.ExpandPath(target)), nil

	default:
		return sqlite.NewStore(kong.ExpandPath(target)), nil
	}
}

// ParseFrequency builds a frequency from the habit flags. times applies to
// weekly and monthly habits, every to every_n_days.
func ParseFrequency(kind string, times, every int) (models.Frequency, error) {
	k := models.FrequencyKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(kind)), "-", "_"))
	if !k.Valid() {
		return models.Frequency{}, apperrors.NewValidation("frequency",
			"unknown frequency %q (want daily, weekly, monthly or every_n_days)", kind)
	}
	return models.Frequency{Kind: k, TimesPerPeriod: times, CustomInterval: every}, nil
}

// ResolveHabit finds a habit by full id, unique id prefix or case-insensitive
// name, within the context's owner.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	if h, err := c.Service.GetHabit(ref); err == nil {
		if c.Owner == "" || h.OwnerID == c.Owner {
			return h, nil
		}
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return models.Habit{}, err
	}

	all, err := c.Service.ListHabits(c.Owner)
	if err != nil {
		return models.Habit{}, err
	}
	var matches []models.Habit
	for _, h := range all {
		if strings.EqualFold(h.Name, ref) || strings.HasPrefix(h.ID, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, apperrors.NewNotFound("habit", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, apperrors.NewValidation("habit", "%q matches %d habits; use the full id", ref, len(matches))
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/settings"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/cli/views"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigFile string `help:"TOML file supplying flag defaults." default:"${config_file}" type:"path"`
	DB         string `help:"SQLite database path, a .json file, or a PostgreSQL URL without a password." default:"${db_path}"`
	Postgres   bool   `help:"Use the PostgreSQL connection string from HABITUAL_DB_CONNECTION or the OS keyring."`
	Owner      string `help:"Owner id that scopes habits." env:"HABITUAL_OWNER"`
	Debug      bool   `help:"Mirror debug logs to stderr."`
	LogLevel   string `help:"Log level (debug, info, warn, error)."`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitual storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the HTTP API."`

	Day    views.DayCmd    `cmd:"" help:"Show the habits due on a day." default:"1"`
	Range  views.RangeCmd  `cmd:"" help:"Show agendas for a range of days."`
	Week   views.WeekCmd   `cmd:"" help:"Show the agenda for a Monday-Sunday week."`
	Remind views.RemindCmd `cmd:"" help:"Print the reminder digest due now."`

	Habit    habits.HabitCmd      `cmd:"" help:"Manage habits and habit tracking."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with daily agendas, streaks and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(config.TOML, config.Path(os.Args[1:])),
		kong.Vars{
			"version":     constants.Version,
			"config_file": constants.DefaultConfigFile,
			"db_path":     constants.DefaultConfigPath,
			"server_addr": constants.DefaultServerAddr,
		},
	)
	command := strings.Fields(ctx.Command())[0]

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		JSON:      command == "serve",
		Level:     CLI.LogLevel,
		ConfigDir: filepath.Dir(kong.ExpandPath(constants.DefaultConfigPath)),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	appCtx, err := setup(command)
	if err != nil {
		apperrors.Fatal(err)
	}

	err = ctx.Run(appCtx)
	if appCtx.Store != nil {
		if cerr := appCtx.Store.Close(); cerr != nil {
			logger.Warn("Failed to close storage", "error", cerr)
		}
	}
	apperrors.Fatal(err)
}

// setup opens the store for command. init, migrate and doctor prepare it
// themselves; keyring commands run without one.
func setup(command string) (*cli.Context, error) {
	if command == "keyring" {
		return cli.NewContext(nil, CLI.Owner), nil
	}

	store, err := cli.OpenStore(CLI.DB, CLI.Postgres)
	if err != nil {
		return nil, err
	}
	appCtx := cli.NewContext(store, CLI.Owner)

	switch command {
	case "init", "migrate", "doctor":
		return appCtx, nil
	}

	if err := store.Load(); err != nil {
		return nil, err
	}
	if err := appCtx.ApplyTimezone(); err != nil {
		return nil, err
	}
	logger.Debug("Storage loaded", "path", store.GetConfigPath(), "command", command)
	return appCtx, nil
}

package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/streak"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(*cli.Context) error
	// warnOnly checks report but never fail the command
	warnOnly bool
	// needsDB checks are skipped when the database is unreachable
	needsDB bool
}

var checks = []check{
	{name: "Schema version", run: checkSchema, needsDB: true},
	{name: "Settings", run: checkSettings, needsDB: true},
	{name: "Clock/timezone", run: checkTimezone, needsDB: true},
	{name: "Habit integrity", run: checkHabits, needsDB: true},
	{name: "Backups present", run: checkBackups, warnOnly: true},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Printf("Running diagnostics...\n\n")

	hasError := false
	dbReachable := true
	if err := ctx.Store.Load(); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			hasError = true
		}
	}

	ctx.Printf("\n")
	if hasError {
		return fmt.Errorf("diagnostics found problems")
	}
	ctx.Printf("All checks passed.\n")
	return nil
}

func checkSchema(ctx *cli.Context) error {
	store, ok := ctx.Store.(schemaStore)
	if !ok {
		return nil
	}
	st, err := store.SchemaStatus()
	if err != nil {
		return err
	}
	if len(st.Pending) > 0 {
		return fmt.Errorf("schema version %d, %d available; run 'habitual migrate'", st.Current, st.Latest)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	return validation.Settings(settings)
}

func checkTimezone(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if _, err := utils.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("timezone %q cannot be loaded: %w", settings.Timezone, err)
	}
	now := ctx.Service.Now()
	if now.Year() < 2000 {
		return fmt.Errorf("system clock reports %s", now.Format("2006-01-02 15:04"))
	}
	return nil
}

// checkHabits reports habits whose counter has drifted from their ledger
func checkHabits(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(storage.HabitFilter{})
	if err != nil {
		return err
	}
	var bad []string
	for _, h := range habits {
		if err := streak.Check(h); err != nil {
			bad = append(bad, fmt.Sprintf("%s (%s)", h.Name, h.ID))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d inconsistent habit(s): %v; run 'habitual habit repair <id>'", len(bad), bad)
	}
	return nil
}

func checkBackups(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	path := ctx.Store.GetConfigPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("database file not found: %s", path)
	}
	mgr := backup.NewManager(path)
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups in %s; run 'habitual backup create'", filepath.Clean(mgr.Dir()))
	}
	return backup.Verify(backups[0].Path)
}

package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing database file before initialization."`
	Source string `help:"Database path or PostgreSQL URL to copy settings and habits from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habitual storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		source, err := cli.OpenStore(c.Source, false)
		if err != nil {
			return err
		}
		if err := copyData(ctx, source); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Printf("Copy completed successfully!\n")
	}
	return ctx.ApplyTimezone()
}

// reset removes the database file. PostgreSQL stores are left alone.
func (c *InitCmd) reset(ctx *cli.Context) error {
	dbPath := ctx.Store.GetConfigPath()
	if dbPath == "postgresql" {
		return fmt.Errorf("--force is not supported for PostgreSQL storage")
	}
	if c.Source != "" {
		absDB, err1 := filepath.Abs(dbPath)
		absSource, err2 := filepath.Abs(c.Source)
		if err1 == nil && err2 == nil && absDB == absSource {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

// copyData moves settings and every habit, ledger included, from source
func copyData(ctx *cli.Context, source storage.Provider) error {
	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	ctx.Printf("  Copying settings...\n")
	settings, err := source.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	ctx.Printf("  Copying habits...\n")
	habits, err := source.GetAllHabits(storage.HabitFilter{})
	if err != nil {
		return fmt.Errorf("failed to get habits from source: %w", err)
	}
	for _, h := range habits {
		if err := ctx.Store.AddHabit(h); err != nil {
			return fmt.Errorf("failed to add habit %s: %w", h.ID, err)
		}
	}
	ctx.Printf("    Copied %d habits\n", len(habits))
	return nil
}

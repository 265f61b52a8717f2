package system

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/migration"
)

// schemaStore is implemented by the SQL-backed stores
type schemaStore interface {
	Migrate() (int, error)
	SchemaStatus() (migration.Status, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	store, ok := ctx.Store.(schemaStore)
	if !ok {
		return fmt.Errorf("migrate command only supports SQLite and PostgreSQL storage")
	}

	count, err := store.Migrate()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if count == 0 {
		ctx.Printf("No migrations to apply. Database is up to date.\n")
	} else {
		ctx.Printf("Successfully applied %d migration(s).\n", count)
	}
	return nil
}

package system

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	Status KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
}

type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		ctx.Printf("⚠️  Warning: Connection string contains embedded credentials.\n")
		ctx.Printf("   It will be stored as-is in the encrypted OS keyring.\n")
	}

	if err := keyring.Default().Set(cmd.ConnectionString); err != nil {
		return err
	}
	ctx.Printf("✓ Connection string stored successfully in OS keyring\n")
	ctx.Printf("  Run habitual with --postgres to use it\n")
	return nil
}

type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.Default().Get()
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.New("no connection string found in keyring. Use 'habitual keyring set' to store one")
	}
	if err != nil {
		return err
	}
	ctx.Printf("%s\n", maskPassword(connStr))
	return nil
}

type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	err := keyring.Default().Delete()
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.New("no connection string found in keyring")
	}
	if err != nil {
		return err
	}
	ctx.Printf("✓ Connection string deleted from OS keyring\n")
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	entry := keyring.Default()
	if !entry.Available() {
		ctx.Printf("❌ OS keyring is not available on this system\n")
		return keyring.ErrKeyringUnavailable
	}
	ctx.Printf("✓ OS keyring is available\n")

	_, err := entry.Get()
	switch {
	case err == nil:
		ctx.Printf("✓ Connection string is stored in keyring\n")
	case errors.Is(err, keyring.ErrNotFound):
		ctx.Printf("ℹ No connection string stored in keyring\n")
	default:
		return err
	}
	return nil
}

// maskPassword hides the password of a URL or key=value connection string
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return connStr
		}
		return u.Redacted()
	}

	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=xxxxx"
		}
	}
	return strings.Join(parts, " ")
}

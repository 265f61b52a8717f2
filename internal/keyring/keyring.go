// Package keyring keeps the PostgreSQL connection string in the OS keyring.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitual/internal/constants"
)

var (
	// ErrNotFound is returned when no connection string is stored
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Entry addresses one keyring secret
type Entry struct {
	Service string
	User    string
}

// Default is the entry habitual reads its connection string from
func Default() Entry {
	return Entry{Service: constants.AppName, User: constants.DefaultKeyringUser}
}

func (e Entry) Get() (string, error) {
	v, err := keyring.Get(e.Service, e.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func (e Entry) Set(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(e.Service, e.User, value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func (e Entry) Delete() error {
	err := keyring.Delete(e.Service, e.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// Available probes the keyring with a read. A missing entry still counts as
// available.
func (e Entry) Available() bool {
	_, err := keyring.Get(e.Service, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// Source names where a connection string came from
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "environment"
	SourceKeyring Source = "keyring"
)

// ResolveConnectionString picks the PostgreSQL connection string from, in
// order: the explicit value, the HABITUAL_DB_CONNECTION variable, the keyring.
func ResolveConnectionString(explicit string, e Entry) (string, Source, error) {
	if explicit != "" {
		return explicit, SourceFlag, nil
	}
	if v := os.Getenv(constants.DBConnectionEnvVar); v != "" {
		return v, SourceEnv, nil
	}
	v, err := e.Get()
	if err != nil {
		return "", "", err
	}
	return v, SourceKeyring, nil
}

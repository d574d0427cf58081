package dbclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"whiteboard/internal/config"
	"whiteboard/internal/domain"
	"whiteboard/internal/secret"
)

// ErrUnsupportedDriver is returned by NewSource for unknown drivers.
var ErrUnsupportedDriver = errors.New("unsupported driver")

// DefaultQuery is used by SQL sources when no query is configured.
const DefaultQuery = `SELECT id, type, x, y, width, height, rotation, visible FROM elements`

// Source loads an element snapshot from an external database.
type Source interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// LoadElements reads every element the configured query or collection
	// returns. Rows missing an id get a fresh UUID.
	LoadElements(ctx context.Context) ([]domain.Element, error)

	// Close closes the connection.
	Close() error
}

// NewSource creates a Source for the configured driver. The password is
// read from the environment variable named in cfg, then from secrets
// under cfg.PasswordSecret. secrets may be nil.
func NewSource(cfg config.SourceConfig, secrets secret.SecretStore) (Source, error) {
	password, err := resolvePassword(cfg, secrets)
	if err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case "sqlite":
		return newSQLiteSource(cfg)
	case "mysql":
		return newSQLSource("mysql", buildMySQLDSN(cfg, password), cfg.Query)
	case "postgres":
		return newSQLSource("postgres", buildPostgresDSN(cfg, password), cfg.Query)
	case "mongodb":
		return newMongoSource(cfg, password)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func resolvePassword(cfg config.SourceConfig, secrets secret.SecretStore) (string, error) {
	if pw := cfg.Password(); pw != "" {
		return pw, nil
	}
	if cfg.PasswordSecret == "" || secrets == nil {
		return "", nil
	}
	v, err := secrets.Get(cfg.PasswordSecret)
	if err != nil {
		return "", fmt.Errorf("read secret %q: %w", cfg.PasswordSecret, err)
	}
	return string(v), nil
}

// ── Value coercion ─────────────────────────────────────────
//
// Drivers disagree on how they hand back numbers and booleans: MySQL sends
// []byte, Postgres and SQLite send native values, Mongo sends int32/int64
// or float64 depending on how the document was written.

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case []byte:
		return strconv.ParseFloat(string(n), 64)
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("cannot use %T as a number", v)
}

func toBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return true // absent means visible
	case bool:
		return b
	case int64:
		return b != 0
	case int32:
		return b != 0
	case int:
		return b != 0
	case float64:
		return b != 0
	case []byte:
		return parseBoolString(string(b))
	case string:
		return parseBoolString(b)
	}
	return true
}

func parseBoolString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "f", "false", "no", "n":
		return false
	}
	return true
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

package dbclient

import (
	"fmt"

	"whiteboard/internal/config"

	_ "github.com/lib/pq"
)

// buildPostgresDSN constructs a Postgres connection string. A configured
// DSN wins.
func buildPostgresDSN(cfg config.SourceConfig, password string) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, password, cfg.Database, sslMode,
	)
}

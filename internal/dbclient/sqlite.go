package dbclient

import (
	"whiteboard/internal/config"

	_ "modernc.org/sqlite"
)

// newSQLiteSource reads from an external SQLite file named by DSN or Host.
func newSQLiteSource(cfg config.SourceConfig) (*sqlSource, error) {
	path := cfg.DSN
	if path == "" {
		path = cfg.Host
	}
	return newSQLSource("sqlite", path+"?_pragma=busy_timeout(5000)", cfg.Query)
}

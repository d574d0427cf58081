package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"whiteboard/internal/elbow"
)

// ─────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────
//
// A single YAML file configures the router, the background worker, the
// local snapshot database and the optional external element source.
// Missing sections keep their defaults.

// Config is the whole application configuration.
type Config struct {
	Routing elbow.Options `yaml:"routing"`
	Worker  WorkerConfig  `yaml:"worker"`
	Storage StorageConfig `yaml:"storage"`
	Watch   WatchConfig   `yaml:"watch"`
	Cache   CacheConfig   `yaml:"cache"`
	Source  SourceConfig  `yaml:"source"`
}

// WorkerConfig controls the background route worker.
type WorkerConfig struct {
	// Timeout is how long a caller waits before routing synchronously.
	Timeout time.Duration `yaml:"timeout"`
	// QueueSize bounds pending requests.
	QueueSize int `yaml:"queueSize"`
}

// StorageConfig locates the local SQLite database.
type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

// WatchConfig names an element snapshot file reloaded on change.
type WatchConfig struct {
	SnapshotPath string        `yaml:"snapshotPath"`
	PageID       string        `yaml:"pageId"`
	Debounce     time.Duration `yaml:"debounce"`
}

// CacheConfig schedules route cache maintenance.
type CacheConfig struct {
	// PurgeSchedule is a cron spec; empty disables scheduled purges.
	PurgeSchedule string `yaml:"purgeSchedule"`
	// StatsSchedule logs cache counters on a cron spec.
	StatsSchedule string `yaml:"statsSchedule"`
}

// SourceConfig describes an external database to import elements from.
type SourceConfig struct {
	Driver      string `yaml:"driver"` // sqlite, mysql, postgres, mongodb
	DSN         string `yaml:"dsn"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"passwordEnv"`
	SSLMode     string `yaml:"sslMode"`
	// PasswordSecret names a secret-store entry used when PasswordEnv is unset or empty.
	PasswordSecret string `yaml:"passwordSecret"`
	// Query must return id, type, x, y, width, height, rotation, visible.
	Query string `yaml:"query"`
	// Collection is used by the mongodb driver instead of Query.
	Collection string `yaml:"collection"`
}

// Password reads the source password from the configured environment variable.
func (s SourceConfig) Password() string {
	if s.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(s.PasswordEnv)
}

const (
	defaultWorkerTimeout = 50 * time.Millisecond
	defaultQueueSize     = 64
	defaultDebounce      = 200 * time.Millisecond
	defaultDBPath        = "whiteboard.db"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Routing: elbow.DefaultOptions(),
		Worker:  WorkerConfig{Timeout: defaultWorkerTimeout, QueueSize: defaultQueueSize},
		Storage: StorageConfig{DBPath: defaultDBPath},
		Watch:   WatchConfig{PageID: "default", Debounce: defaultDebounce},
		Cache:   CacheConfig{PurgeSchedule: "@every 10m"},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	r := c.Routing
	for name, v := range map[string]float64{
		"clearance":       r.Clearance,
		"stubLength":      r.StubLength,
		"exitFaceMargin":  r.ExitFaceMargin,
		"bendPenalty":     r.BendPenalty,
		"relevanceMargin": r.RelevanceMargin,
		"boundsMargin":    r.BoundsMargin,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("routing.%s must not be negative", name))
		}
	}
	if r.StubLength > 0 && r.ExitFaceMargin >= r.StubLength {
		errs = append(errs, fmt.Errorf("routing.exitFaceMargin (%g) must be smaller than routing.stubLength (%g)", r.ExitFaceMargin, r.StubLength))
	}
	if c.Worker.Timeout < 0 {
		errs = append(errs, errors.New("worker.timeout must not be negative"))
	}
	if c.Worker.QueueSize < 0 {
		errs = append(errs, errors.New("worker.queueSize must not be negative"))
	}
	for name, spec := range map[string]string{
		"cache.purgeSchedule": c.Cache.PurgeSchedule,
		"cache.statsSchedule": c.Cache.StatsSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	switch c.Source.Driver {
	case "", "sqlite", "mysql", "postgres", "mongodb":
	default:
		errs = append(errs, fmt.Errorf("source.driver %q is not supported", c.Source.Driver))
	}
	return errors.Join(errs...)
}

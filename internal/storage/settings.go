package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"whiteboard/internal/elbow"
)

// ─────────────────────────────────────────────────────────────
// Router Settings Persistence
// ─────────────────────────────────────────────────────────────
//
// Router options tuned at runtime survive restarts as a JSON value in the
// app_settings key-value table.

const settingRouterOptions = "router_options"

// SettingsStore reads and writes app_settings rows.
type SettingsStore struct {
	db *DB
}

func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the raw value stored under key.
func (s *SettingsStore) Get(key string) (string, error) {
	var v string
	err := s.db.Conn().QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, nil
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// LoadRouterOptions returns the saved router options layered over fallback.
// A missing row returns fallback unchanged.
func (s *SettingsStore) LoadRouterOptions(fallback elbow.Options) (elbow.Options, error) {
	raw, err := s.Get(settingRouterOptions)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	opts := fallback
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return fallback, fmt.Errorf("decode router options: %w", err)
	}
	return opts, nil
}

func (s *SettingsStore) SaveRouterOptions(opts elbow.Options) error {
	b, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode router options: %w", err)
	}
	return s.Set(settingRouterOptions, string(b))
}

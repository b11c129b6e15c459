package config

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/pevans/blogscraper/articles"
	"github.com/pevans/blogscraper/scraper"
)

// Keys of the settings table.
const (
	keyBaseURL        = "base_url"
	keyTargetCount    = "target_count"
	keyRequestTimeout = "request_timeout"
	keyUserAgent      = "user_agent"
)

// SettingsStore persists runtime scrape settings using SQLite. Stored values
// override the file and environment configuration for API-triggered runs.
type SettingsStore struct {
	db *sql.DB
}

// Settings represents the persisted scrape settings. Empty fields are unset.
type Settings struct {
	BaseURL        string `json:"base_url"`
	TargetCount    int    `json:"target_count"`
	RequestTimeout string `json:"request_timeout"`
	UserAgent      string `json:"user_agent"`
}

// SettingsUpdate represents settings to change. Nil fields are left as they
// are.
type SettingsUpdate struct {
	BaseURL        *string
	TargetCount    *int
	RequestTimeout *time.Duration
	UserAgent      *string
}

// NewSettingsStore creates a new settings store with the given database path.
func NewSettingsStore(dbPath string) (*SettingsStore, error) {
	db, err := sql.Open("sqlite3", articles.DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SettingsStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the settings table if it doesn't exist.
func (s *SettingsStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SettingsStore) Close() error {
	return s.db.Close()
}

// GetSettings retrieves the stored settings.
func (s *SettingsStore) GetSettings(ctx context.Context) (*Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := &Settings{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}

		switch key {
		case keyBaseURL:
			settings.BaseURL = value
		case keyTargetCount:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid stored %s %q: %w", key, value, err)
			}
			settings.TargetCount = n
		case keyRequestTimeout:
			settings.RequestTimeout = value
		case keyUserAgent:
			settings.UserAgent = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return settings, nil
}

// UpdateSettings stores the supplied settings in one transaction.
func (s *SettingsStore) UpdateSettings(ctx context.Context, update SettingsUpdate) error {
	values := map[string]string{}
	if update.BaseURL != nil {
		values[keyBaseURL] = *update.BaseURL
	}
	if update.TargetCount != nil {
		values[keyTargetCount] = strconv.Itoa(*update.TargetCount)
	}
	if update.RequestTimeout != nil {
		values[keyRequestTimeout] = update.RequestTimeout.String()
	}
	if update.UserAgent != nil {
		values[keyUserAgent] = *update.UserAgent
	}
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)"
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("failed to update setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// Resolve returns base with the stored settings applied on top.
func (s *SettingsStore) Resolve(ctx context.Context, base scraper.Config) (scraper.Config, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return base, err
	}
	return settings.Apply(base)
}

// Apply overlays the set fields on base.
func (st Settings) Apply(base scraper.Config) (scraper.Config, error) {
	cfg := base
	if st.BaseURL != "" {
		cfg.BaseURL = st.BaseURL
	}
	if st.TargetCount > 0 {
		cfg.TargetCount = st.TargetCount
	}
	if st.RequestTimeout != "" {
		d, err := time.ParseDuration(st.RequestTimeout)
		if err != nil {
			return base, fmt.Errorf("invalid stored request_timeout %q: %w", st.RequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	if st.UserAgent != "" {
		cfg.UserAgent = st.UserAgent
	}
	return cfg, nil
}

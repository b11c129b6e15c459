package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/blogscraper/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test settings store
func createTestSettingsStore(t *testing.T) *SettingsStore {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	store, err := NewSettingsStore(dbPath)
	require.NoError(t, err, "should create settings store")
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr[T any](v T) *T {
	return &v
}

// TestGetSettings_Default verifies empty settings are returned when not set
func TestGetSettings_Default(t *testing.T) {
	store := createTestSettingsStore(t)

	settings, err := store.GetSettings(context.Background())
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, Settings{}, *settings, "nothing should be set")
}

// TestUpdateSettings_Success verifies updating settings
func TestUpdateSettings_Success(t *testing.T) {
	store := createTestSettingsStore(t)
	ctx := context.Background()

	err := store.UpdateSettings(ctx, SettingsUpdate{
		BaseURL:        ptr("https://blog.example.com/posts"),
		TargetCount:    ptr(12),
		RequestTimeout: ptr(45 * time.Second),
		UserAgent:      ptr("custom-agent"),
	})
	require.NoError(t, err)

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings{
		BaseURL:        "https://blog.example.com/posts",
		TargetCount:    12,
		RequestTimeout: "45s",
		UserAgent:      "custom-agent",
	}, *settings)
}

// TestUpdateSettings_Overwrites verifies updates replace only supplied values
func TestUpdateSettings_Overwrites(t *testing.T) {
	store := createTestSettingsStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateSettings(ctx, SettingsUpdate{TargetCount: ptr(3), UserAgent: ptr("a")}))
	require.NoError(t, store.UpdateSettings(ctx, SettingsUpdate{TargetCount: ptr(8)}))

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, settings.TargetCount)
	assert.Equal(t, "a", settings.UserAgent, "unsupplied values should be kept")
}

// TestUpdateSettings_Empty verifies an empty update is a no-op
func TestUpdateSettings_Empty(t *testing.T) {
	store := createTestSettingsStore(t)

	require.NoError(t, store.UpdateSettings(context.Background(), SettingsUpdate{}))
}

// TestResolve verifies stored settings override the base configuration
func TestResolve(t *testing.T) {
	store := createTestSettingsStore(t)
	ctx := context.Background()
	base := scraper.DefaultConfig()

	cfg, err := store.Resolve(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, base, cfg, "no settings leaves base unchanged")

	require.NoError(t, store.UpdateSettings(ctx, SettingsUpdate{
		TargetCount:    ptr(9),
		RequestTimeout: ptr(time.Minute),
	}))

	cfg, err = store.Resolve(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.TargetCount)
	assert.Equal(t, time.Minute, cfg.RequestTimeout)
	assert.Equal(t, base.BaseURL, cfg.BaseURL)
	assert.Equal(t, base.UserAgent, cfg.UserAgent)
}

// TestSettingsApply_InvalidTimeout verifies corrupt stored durations
func TestSettingsApply_InvalidTimeout(t *testing.T) {
	base := scraper.DefaultConfig()

	cfg, err := Settings{RequestTimeout: "soon"}.Apply(base)

	require.Error(t, err)
	assert.Equal(t, base, cfg)
}

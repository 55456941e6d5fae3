package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "database:\n  path: "+filepath.Join(dir, "data", "test.db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.BookingMinAdvance())
	assert.Equal(t, 60*24*time.Hour, cfg.BookingMaxAdvance())
	assert.Equal(t, 30*time.Minute, cfg.BookingSlotDuration())
	assert.Equal(t, time.Duration(0), cfg.SlotCacheTTL())
}

func TestLoadPolicyOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
database:
  path: `+filepath.Join(dir, "test.db")+`
booking:
  min_advance_minutes: 180
  max_advance_days: 14
  slot_duration_minutes: 45
redis:
  address: localhost:6379
  slot_cache_ttl_seconds: 120
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Hour, cfg.BookingMinAdvance())
	assert.Equal(t, 14*24*time.Hour, cfg.BookingMaxAdvance())
	assert.Equal(t, 45*time.Minute, cfg.BookingSlotDuration())
	assert.Equal(t, 2*time.Minute, cfg.SlotCacheTTL())
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "tok-123")
	dir := t.TempDir()
	path := writeConfig(t, `
database:
  path: `+filepath.Join(dir, "test.db")+`
telegram:
  bot_token: ${TEST_BOT_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cfg.Telegram.BotToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

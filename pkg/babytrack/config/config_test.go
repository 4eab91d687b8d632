package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 150*time.Minute, cfg.Predictor.HungerThreshold.Std())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "conf.yaml", `
storage:
  driver: memory
timezone: Europe/Berlin
predictor:
  hunger_threshold: 2h
  diaper_threshold: 10800
recent:
  limit: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	// Durations parse both as strings and as seconds.
	assert.Equal(t, 2*time.Hour, cfg.Predictor.HungerThreshold.Std())
	assert.Equal(t, 3*time.Hour, cfg.Predictor.DiaperThreshold.Std())
	// Unset fields keep their defaults.
	assert.Equal(t, 90*time.Minute, cfg.Predictor.AttentionThreshold.Std())
	assert.Equal(t, 5, cfg.Recent.Limit)
	assert.Equal(t, 2, cfg.Recent.LookbackDays)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "conf.json", `{
  "storage": {"driver": "sqlite", "path": "/tmp/track.db"},
  "predictor": {"hunger_threshold": "90m", "attention_threshold": 3600}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/track.db", cfg.Storage.Path)
	assert.Equal(t, 90*time.Minute, cfg.Predictor.HungerThreshold.Std())
	assert.Equal(t, time.Hour, cfg.Predictor.AttentionThreshold.Std())
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "conf.toml", "driver = 'memory'")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BABYTRACK_STORAGE_DRIVER", "memory")
	t.Setenv("BABYTRACK_TIMEZONE", "Asia/Singapore")
	t.Setenv("BABYTRACK_HUNGER_THRESHOLD", "4h")
	t.Setenv("BABYTRACK_RECENT_LIMIT", "25")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "Asia/Singapore", cfg.Timezone)
	assert.Equal(t, 4*time.Hour, cfg.Predictor.HungerThreshold.Std())
	assert.Equal(t, 25, cfg.Recent.Limit)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := writeFile(t, "conf.yaml", "storage:\n  driver: memory\n")
	t.Setenv("BABYTRACK_STORAGE_DRIVER", "sqlite")
	t.Setenv("BABYTRACK_STORAGE_PATH", "/tmp/env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Storage.Path = "" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres"; c.Storage.DSN = "" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"zero threshold", func(c *Config) { c.Predictor.HungerThreshold = 0 }},
		{"negative threshold", func(c *Config) { c.Predictor.DiaperThreshold = Duration(-time.Hour) }},
		{"zero recent limit", func(c *Config) { c.Recent.Limit = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

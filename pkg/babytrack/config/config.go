// Package config loads babytrack configuration from YAML or JSON
// files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Duration wraps time.Duration so config files can express durations
// either as strings ("2h30m") or as plain numbers of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	parsed, err := parseDuration(v)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		parsed, err := time.ParseDuration(s[1 : len(s)-1])
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}
		*d = Duration(parsed)
		return nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

func parseDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case string:
		return time.ParseDuration(val)
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("cannot parse %T as duration", v)
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver" json:"driver" validate:"required,oneof=memory sqlite postgres"`
	Path   string `yaml:"path" json:"path"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// PredictorConfig holds the elapsed-time thresholds for crying cause
// prediction. Zero values fall back to the defaults.
type PredictorConfig struct {
	HungerThreshold    Duration `yaml:"hunger_threshold" json:"hunger_threshold"`
	DiaperThreshold    Duration `yaml:"diaper_threshold" json:"diaper_threshold"`
	AttentionThreshold Duration `yaml:"attention_threshold" json:"attention_threshold"`
}

// RecentConfig bounds the recent-events feed.
type RecentConfig struct {
	Limit        int `yaml:"limit" json:"limit" validate:"gt=0"`
	LookbackDays int `yaml:"lookback_days" json:"lookback_days" validate:"gt=0"`
}

// Config is the root configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Timezone  string          `yaml:"timezone" json:"timezone"`
	Predictor PredictorConfig `yaml:"predictor" json:"predictor"`
	Recent    RecentConfig    `yaml:"recent" json:"recent"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Storage:  StorageConfig{Driver: "sqlite", Path: "./babytrack.db"},
		Timezone: "UTC",
		Predictor: PredictorConfig{
			HungerThreshold:    Duration(150 * time.Minute),
			DiaperThreshold:    Duration(3 * time.Hour),
			AttentionThreshold: Duration(90 * time.Minute),
		},
		Recent: RecentConfig{Limit: 10, LookbackDays: 2},
	}
}

var validate = validator.New()

// Validate checks field constraints and backend-specific requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("invalid config: sqlite driver requires storage.path")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("invalid config: postgres driver requires storage.dsn")
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: unknown timezone %q", c.Timezone)
	}
	for name, d := range map[string]Duration{
		"predictor.hunger_threshold":    c.Predictor.HungerThreshold,
		"predictor.diaper_threshold":    c.Predictor.DiaperThreshold,
		"predictor.attention_threshold": c.Predictor.AttentionThreshold,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid config: %s must be positive", name)
		}
	}
	return nil
}

// Location resolves the configured timezone. Validate must have
// passed first.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// applyEnv overrides fields from BABYTRACK_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("BABYTRACK_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("BABYTRACK_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("BABYTRACK_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("BABYTRACK_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	for env, dst := range map[string]*Duration{
		"BABYTRACK_HUNGER_THRESHOLD":    &c.Predictor.HungerThreshold,
		"BABYTRACK_DIAPER_THRESHOLD":    &c.Predictor.DiaperThreshold,
		"BABYTRACK_ATTENTION_THRESHOLD": &c.Predictor.AttentionThreshold,
	} {
		if v := os.Getenv(env); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", env, err)
			}
			*dst = Duration(d)
		}
	}
	if v := os.Getenv("BABYTRACK_RECENT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse BABYTRACK_RECENT_LIMIT: %w", err)
		}
		c.Recent.Limit = n
	}
	if v := os.Getenv("BABYTRACK_RECENT_LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse BABYTRACK_RECENT_LOOKBACK_DAYS: %w", err)
		}
		c.Recent.LookbackDays = n
	}
	return nil
}

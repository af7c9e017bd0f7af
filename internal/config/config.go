// Package config defines the service configuration and how it is loaded.
//
// Values are layered, lowest precedence first: built-in defaults, the
// selected profile, an optional YAML file and MEMENTO_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/memento/internal/engine"
)

// Profiles select a set of guard defaults.
const (
	ProfileProd = "prod"
	ProfileDev  = "dev"
	ProfileTest = "test"
)

// Config contains process configuration.
type Config struct {
	// Profile is one of prod, dev or test.
	Profile string `koanf:"profile"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// RewardAmount is recorded against every scored level.
	RewardAmount float64 `koanf:"reward_amount"`

	// MaxLevelTimeSec bounds allocation-to-submission time.
	MaxLevelTimeSec int `koanf:"max_level_time_sec"`

	// LevelsPerLife awards a life every this many scored levels.
	LevelsPerLife int `koanf:"levels_per_life"`

	// DefaultLives is what a new worker starts with.
	DefaultLives int `koanf:"default_lives"`

	EnableBlockUsers  bool `koanf:"enable_block_users"`
	ErrorOnFastSubmit bool `koanf:"error_on_fast_submit"`
	EnforceSameInputs bool `koanf:"enforce_same_inputs"`

	// TemplateDir holds level_templates/ and short_level_templates/.
	TemplateDir string `koanf:"template_dir"`

	// UseShortSequence serves templates from short_level_templates/.
	UseShortSequence bool `koanf:"use_short_sequence"`

	// TemplateCacheTTLSec is how long a parsed template directory is
	// reused. Zero caches forever.
	TemplateCacheTTLSec int `koanf:"template_cache_ttl_sec"`

	// ReconcileIntervalSec runs the label reconciler this often while
	// serving. Zero disables it.
	ReconcileIntervalSec int `koanf:"reconcile_interval_sec"`

	// UILogPath is the file client log messages are appended to.
	UILogPath string `koanf:"ui_log_path"`

	// AllowedOrigins lists CORS origins for the HTTP API.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// New returns the defaults for profile. An unknown profile gets the
// production guards and fails Validate.
func New(profile string) *Config {
	c := &Config{
		Profile:              profile,
		LogLevel:             "info",
		Addr:                 ":8080",
		DBPath:               "memento.db",
		RewardAmount:         engine.DefaultRewardAmount,
		MaxLevelTimeSec:      int(engine.DefaultMaxLevelTime / time.Second),
		LevelsPerLife:        engine.DefaultLevelsPerLife,
		DefaultLives:         engine.DefaultLives,
		EnableBlockUsers:     true,
		ErrorOnFastSubmit:    true,
		EnforceSameInputs:    true,
		TemplateDir:          "templates",
		TemplateCacheTTLSec:  300,
		ReconcileIntervalSec: 600,
		UILogPath:            "ui.log",
		AllowedOrigins:       []string{"*"},
	}

	switch profile {
	case ProfileDev:
		c.LogLevel = "debug"
		c.EnableBlockUsers = false
		c.ErrorOnFastSubmit = false
		c.EnforceSameInputs = false
	case ProfileTest:
		c.ErrorOnFastSubmit = false
	}
	return c
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch c.Profile {
	case ProfileProd, ProfileDev, ProfileTest:
	default:
		return fmt.Errorf("%w: unknown profile %q", ErrInvalidConfig, c.Profile)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if c.MaxLevelTimeSec <= 0 {
		return fmt.Errorf("%w: max_level_time_sec must be positive", ErrInvalidConfig)
	}
	if c.LevelsPerLife <= 0 {
		return fmt.Errorf("%w: levels_per_life must be positive", ErrInvalidConfig)
	}
	if c.RewardAmount < 0 {
		return fmt.Errorf("%w: reward_amount must not be negative", ErrInvalidConfig)
	}
	if c.TemplateCacheTTLSec < 0 || c.ReconcileIntervalSec < 0 {
		return fmt.Errorf("%w: intervals must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Policy builds the engine policy from c.
func (c *Config) Policy() engine.Policy {
	return engine.Policy{
		EnableBlockUsers:   c.EnableBlockUsers,
		ErrorOnFastSubmit:  c.ErrorOnFastSubmit,
		EnforceSameInputs:  c.EnforceSameInputs,
		RewardAmount:       c.RewardAmount,
		MaxLevelTime:       time.Duration(c.MaxLevelTimeSec) * time.Second,
		MinTimePerResponse: engine.DefaultMinTimePerResponse,
		LevelsPerLife:      c.LevelsPerLife,
		DefaultLives:       c.DefaultLives,
	}
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

// TemplateCacheTTL is TemplateCacheTTLSec as a duration.
func (c *Config) TemplateCacheTTL() time.Duration {
	return time.Duration(c.TemplateCacheTTLSec) * time.Second
}

// ReconcileInterval is ReconcileIntervalSec as a duration.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSec) * time.Second
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, s)
}

// Package config loads rooted's settings: where the database lives, the
// workday the planner fills, and the weights it scores tasks with.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Planner  PlannerConfig  `mapstructure:"planner" yaml:"planner"`
	Weights  WeightsConfig  `mapstructure:"weights" yaml:"weights"`
}

// DatabaseConfig is the single storage setting handed to db.Open
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type PlannerConfig struct {
	WorkdayStart    string `mapstructure:"workday_start" yaml:"workday_start"`
	WorkdayEnd      string `mapstructure:"workday_end" yaml:"workday_end"`
	HorizonDays     int    `mapstructure:"horizon_days" yaml:"horizon_days"`
	DefaultDuration int    `mapstructure:"default_duration" yaml:"default_duration"` // minutes, 0 disables the fallback
	SkipWeekends    bool   `mapstructure:"skip_weekends" yaml:"skip_weekends"`
}

// WeightsConfig maps each scoring feature to its weight. Priority keys are
// "1" through "5"; deadline type keys are hard, soft, advisory and none.
type WeightsConfig struct {
	DeadlineType map[string]float64 `mapstructure:"deadline_type" yaml:"deadline_type"`
	Priority     map[string]float64 `mapstructure:"priority" yaml:"priority"`
	Buckets      []BucketConfig     `mapstructure:"deadline_buckets" yaml:"deadline_buckets"`
	RiskFactor   float64            `mapstructure:"risk_factor" yaml:"risk_factor"`
	Leftover     float64            `mapstructure:"leftover" yaml:"leftover"`
}

// BucketConfig gives Weight to deadlines at most WithinDays away
type BucketConfig struct {
	WithinDays int     `mapstructure:"within_days" yaml:"within_days"`
	Weight     float64 `mapstructure:"weight" yaml:"weight"`
}

// Load reads the config file at path (the global file when path is empty)
// on top of the defaults. ROOTED_* environment variables override both, e.g.
// ROOTED_DATABASE_PATH. A missing global file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ROOTED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	explicit := path != ""
	if !explicit {
		path = GlobalConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// A configured bucket list replaces the default one instead of merging into it.
	if v.IsSet("weights.deadline_buckets") {
		cfg.Weights.Buckets = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("planner.workday_start", cfg.Planner.WorkdayStart)
	v.SetDefault("planner.workday_end", cfg.Planner.WorkdayEnd)
	v.SetDefault("planner.horizon_days", cfg.Planner.HorizonDays)
	v.SetDefault("planner.default_duration", cfg.Planner.DefaultDuration)
	v.SetDefault("planner.skip_weekends", cfg.Planner.SkipWeekends)
	v.SetDefault("weights.risk_factor", cfg.Weights.RiskFactor)
	v.SetDefault("weights.leftover", cfg.Weights.Leftover)
}

// Validate rejects settings the planner cannot work with
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("config: database.path is empty")
	}
	start, err := ParseClock(c.Planner.WorkdayStart)
	if err != nil {
		return fmt.Errorf("config: planner.workday_start: %w", err)
	}
	end, err := ParseClock(c.Planner.WorkdayEnd)
	if err != nil {
		return fmt.Errorf("config: planner.workday_end: %w", err)
	}
	if end <= start {
		return fmt.Errorf("config: workday ends (%s) before it starts (%s)", c.Planner.WorkdayEnd, c.Planner.WorkdayStart)
	}
	if c.Planner.HorizonDays < 1 {
		return fmt.Errorf("config: planner.horizon_days must be at least 1, got %d", c.Planner.HorizonDays)
	}
	if c.Planner.DefaultDuration < 0 {
		return fmt.Errorf("config: planner.default_duration must not be negative")
	}
	for key := range c.Weights.Priority {
		if p, err := strconv.Atoi(key); err != nil || p < 1 || p > 5 {
			return fmt.Errorf("config: weights.priority key %q is not 1-5", key)
		}
	}
	return nil
}

// ParseClock parses "HH:MM" into an offset from midnight
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// YAML renders the effective configuration
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	return filepath.Join(baseDir("XDG_CONFIG_HOME", ".config"), "rooted", "config.yaml")
}

// DefaultDBPath returns the path to the database file in the XDG data directory
func DefaultDBPath() string {
	return filepath.Join(baseDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "rooted", "rooted.db")
}

// baseDir resolves an XDG base directory. Without $env or a home directory it
// falls back to the system temp dir so paths never end up relative.
func baseDir(env, homeRel string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return os.TempDir()
	}
	return filepath.Join(home, homeRel)
}

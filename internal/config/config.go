package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Tables   []TableConfig  `yaml:"tables"`
	Cache    CacheConfig    `yaml:"cache"`
	Report   ReportConfig   `yaml:"report"`
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig locates the game's sqlite files.
type DatabaseConfig struct {
	SongData string `yaml:"songdata"`
	Score    string `yaml:"score"`
	ScoreLog string `yaml:"scorelog"`
	Player   string `yaml:"player"`
}

// TableConfig is one difficulty table, listed in priority order: the
// first entry wins when tables overlap.
type TableConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// CacheConfig configures the difficulty table cache.
type CacheConfig struct {
	Dir string `yaml:"dir"`
	TTL string `yaml:"ttl"`
}

// ParseTTL returns the cache TTL as time.Duration.
func (c CacheConfig) ParseTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// ReportConfig configures report generation.
type ReportConfig struct {
	Timezone string `yaml:"timezone"`
}

// Location resolves the configured timezone, falling back to the local
// one. Day boundaries are computed in this location.
func (r ReportConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// WatchConfig configures the watch daemon.
type WatchConfig struct {
	Interval string `yaml:"interval"`
}

// ParseInterval returns the watch interval as time.Duration.
func (w WatchConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(w.Interval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// NotifyConfig configures update notifications.
type NotifyConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
}

// WebhookConfig for the generic webhook notifier.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Default returns a Config with sensible defaults. Difficulty tables must
// be configured explicitly; there is no default set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			SongData: "songdata.db",
			Score:    "score.db",
			ScoreLog: "scorelog.db",
			Player:   "player.db",
		},
		Cache: CacheConfig{
			Dir: ".scoradar",
			TTL: "24h",
		},
		Report: ReportConfig{},
		Server: ServerConfig{Port: 8080},
		Watch:  WatchConfig{Interval: "5m"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCORADAR_SONGDATA"); v != "" {
		cfg.Database.SongData = v
	}
	if v := os.Getenv("SCORADAR_SCORE_DB"); v != "" {
		cfg.Database.Score = v
	}
	if v := os.Getenv("SCORADAR_SCORELOG_DB"); v != "" {
		cfg.Database.ScoreLog = v
	}
	if v := os.Getenv("SCORADAR_PLAYER_DB"); v != "" {
		cfg.Database.Player = v
	}
	if v := os.Getenv("SCORADAR_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("SCORADAR_TIMEZONE"); v != "" {
		cfg.Report.Timezone = v
	}
	if v := os.Getenv("SCORADAR_WEBHOOK_URL"); v != "" {
		cfg.Notify.Webhook.URL = v
		cfg.Notify.Webhook.Enabled = true
	}
}

// Package config loads the hedge book service configuration from YAML,
// with environment variables taking precedence over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFamily is assigned to rows whose strategy has no family mapping.
const DefaultFamily = "Vanilla Risk-Off Hedges"

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds every setting of the service.
type Config struct {
	Server struct {
		Port           string        `yaml:"port"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`

	Sources struct {
		// PositionsPath is a local JSON snapshot or an http(s) base URL of
		// the upstream system of record.
		PositionsPath string        `yaml:"positions_path"`
		FetchTimeout  time.Duration `yaml:"fetch_timeout"`
		DatabaseURL   string        `yaml:"database_url"`
		RedisURL      string        `yaml:"redis_url"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
	} `yaml:"sources"`

	Filters struct {
		// PortfolioFilter selects the rows whose long+short MV form the
		// basis-point denominator. Empty means every row.
		PortfolioFilter string `yaml:"portfolio_filter"`
	} `yaml:"filters"`

	HedgeClassification struct {
		StrategyToFamily map[string]string `yaml:"strategy_to_family"`
		DefaultFamily    string            `yaml:"default_family"`
	} `yaml:"hedge_classification"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns a configuration usable without a file.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Sources.PositionsPath = "data/positions.json"
	cfg.Sources.FetchTimeout = 30 * time.Second
	cfg.Sources.CacheTTL = 30 * time.Second
	cfg.Filters.PortfolioFilter = "CPAM"
	cfg.HedgeClassification.StrategyToFamily = map[string]string{}
	cfg.HedgeClassification.DefaultFamily = DefaultFamily
	cfg.Logging.Level = "info"
	return &cfg
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			slog.Warn("config file not found, using defaults", "path", path)
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server.port is required", ErrInvalidConfig)
	}
	if c.Sources.PositionsPath == "" {
		return fmt.Errorf("%w: sources.positions_path is required", ErrInvalidConfig)
	}
	if c.Sources.CacheTTL < 0 || c.Sources.FetchTimeout < 0 || c.Server.RequestTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if c.HedgeClassification.DefaultFamily == "" {
		c.HedgeClassification.DefaultFamily = DefaultFamily
	}
	if c.HedgeClassification.StrategyToFamily == nil {
		c.HedgeClassification.StrategyToFamily = map[string]string{}
	}
	return nil
}

// SlogLevel maps logging.level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// overrideWithEnv lets deployment secrets and endpoints stay out of the file.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Sources.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Sources.RedisURL = v
	}
	if v := os.Getenv("HEDGEBOOK_POSITIONS_PATH"); v != "" {
		cfg.Sources.PositionsPath = v
	}
	if v := os.Getenv("HEDGEBOOK_PORTFOLIO"); v != "" {
		cfg.Filters.PortfolioFilter = v
	}
	if v := os.Getenv("HEDGEBOOK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

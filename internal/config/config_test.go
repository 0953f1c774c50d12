package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
server:
  port: "9090"
  request_timeout: 15s
sources:
  positions_path: /srv/book/positions.json
  cache_ttl: 1m
filters:
  portfolio_filter: MACRO
hedge_classification:
  strategy_to_family:
    CPAM-RATES: Rates Hedges
    CPAM-HYBRID: Hybrid Hedges
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Sources.PositionsPath != "/srv/book/positions.json" || cfg.Sources.CacheTTL != time.Minute {
		t.Errorf("unexpected sources config %+v", cfg.Sources)
	}
	if cfg.Sources.FetchTimeout != 30*time.Second {
		t.Errorf("unset fields should keep defaults, got fetch_timeout=%v", cfg.Sources.FetchTimeout)
	}
	if cfg.Filters.PortfolioFilter != "MACRO" {
		t.Errorf("expected portfolio MACRO, got %s", cfg.Filters.PortfolioFilter)
	}
	if cfg.HedgeClassification.StrategyToFamily["CPAM-RATES"] != "Rates Hedges" {
		t.Errorf("unexpected strategy mapping %v", cfg.HedgeClassification.StrategyToFamily)
	}
	if cfg.HedgeClassification.DefaultFamily != DefaultFamily {
		t.Errorf("expected default family, got %q", cfg.HedgeClassification.DefaultFamily)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Filters.PortfolioFilter != "CPAM" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_URL", "postgres://book@db/hedges")
	t.Setenv("HEDGEBOOK_PORTFOLIO", "ALT")

	path := writeFile(t, "server:\n  port: \"9090\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("env PORT should win, got %s", cfg.Server.Port)
	}
	if cfg.Sources.DatabaseURL != "postgres://book@db/hedges" {
		t.Errorf("unexpected database url %s", cfg.Sources.DatabaseURL)
	}
	if cfg.Filters.PortfolioFilter != "ALT" {
		t.Errorf("unexpected portfolio %s", cfg.Filters.PortfolioFilter)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := writeFile(t, "sources:\n  positions_path: \"\"\n")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	bad := writeFile(t, "server: [not, a, map]\n")
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

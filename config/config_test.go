package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad(t *testing.T) {
	p := writeConfig(t, `
database:
  path: data/trains.db
navitia:
  baseURL: https://api.sncf.com/v1/coverage/sncf
  tokenEnv: TEST_SNCF_TOKEN
scraper:
  rawDir: /tmp/raw
  pollIntervalSec: 60
aggregator:
  commitEvery: 500
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "data/trains.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Navitia.BaseURL != "https://api.sncf.com/v1/coverage/sncf" {
		t.Errorf("navitia baseURL = %q", cfg.Navitia.BaseURL)
	}
	if cfg.Scraper.PollIntervalSec != 60 {
		t.Errorf("pollIntervalSec = %d", cfg.Scraper.PollIntervalSec)
	}
	if cfg.Aggregator.CommitEvery != 500 {
		t.Errorf("commitEvery = %d", cfg.Aggregator.CommitEvery)
	}
}

func TestLoadDefaults(t *testing.T) {
	p := writeConfig(t, `
database:
  path: trains.db
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Navitia.TokenEnv != "SNCF_API_TOKEN" {
		t.Errorf("default tokenEnv = %q", cfg.Navitia.TokenEnv)
	}
	if cfg.Scraper.RawDir != "data/raw" {
		t.Errorf("default rawDir = %q", cfg.Scraper.RawDir)
	}
	if cfg.Scraper.PollIntervalSec != 120 {
		t.Errorf("default pollIntervalSec = %d", cfg.Scraper.PollIntervalSec)
	}
	if cfg.Aggregator.CommitEvery != 1000 {
		t.Errorf("default commitEvery = %d", cfg.Aggregator.CommitEvery)
	}
	if cfg.Export.Output != "data/unified.csv" {
		t.Errorf("default export output = %q", cfg.Export.Output)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadRejectsMissingDatabasePath(t *testing.T) {
	p := writeConfig(t, `
scraper:
  rawDir: /tmp/raw
`)
	if _, err := Load(p); err == nil {
		t.Error("expected validation error for missing database.path")
	}
}

func TestLoadRejectsBadURL(t *testing.T) {
	p := writeConfig(t, `
database:
  path: trains.db
navitia:
  baseURL: not a url
`)
	if _, err := Load(p); err == nil {
		t.Error("expected validation error for malformed baseURL")
	}
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("TEST_SNCF_TOKEN", "secret")
	c := NavitiaConfig{TokenEnv: "TEST_SNCF_TOKEN"}
	if got := c.Token(); got != "secret" {
		t.Errorf("Token() = %q", got)
	}
}

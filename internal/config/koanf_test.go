// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Security.RateLimitReqs != 100 {
		t.Errorf("Security.RateLimitReqs = %d, want 100", cfg.Security.RateLimitReqs)
	}
	if cfg.Security.RateLimitWindow != 15*time.Minute {
		t.Errorf("Security.RateLimitWindow = %v, want 15m", cfg.Security.RateLimitWindow)
	}
	if !cfg.Automation.Enabled {
		t.Error("Automation.Enabled should be true by default")
	}
	if cfg.Automation.RefreshCron != "*/30 * * * *" {
		t.Errorf("Automation.RefreshCron = %q", cfg.Automation.RefreshCron)
	}
	if cfg.Automation.DailyStatsCron != "0 0 * * *" {
		t.Errorf("Automation.DailyStatsCron = %q", cfg.Automation.DailyStatsCron)
	}
	if cfg.Sources.NIPHURL != "" {
		t.Errorf("Sources.NIPHURL should be empty by default, got %q", cfg.Sources.NIPHURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DB_PATH", "database.path"},
		{"PORT", "server.port"},
		{"HTTP_PORT", "server.port"},
		{"RATE_LIMIT_WINDOW", "security.rate_limit_window"},
		{"RATE_LIMIT_MAX", "security.rate_limit_reqs"},
		{"AUTOMATION_ENABLED", "automation.enabled"},
		{"AUTOMATION_CRON", "automation.refresh_cron"},
		{"WHO_SOURCE_URL", "sources.who_url"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"RANDOM_VARIABLE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTOMATION_ENABLED", "false")
	t.Setenv("AUTOMATION_CRON", "*/5 * * * *")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://covid.rks-gov.net, https://dashboard.local")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Automation.Enabled {
		t.Error("Automation.Enabled should be false")
	}
	if cfg.Automation.RefreshCron != "*/5 * * * *" {
		t.Errorf("Automation.RefreshCron = %q", cfg.Automation.RefreshCron)
	}
	if cfg.Security.RateLimitWindow != time.Minute {
		t.Errorf("Security.RateLimitWindow = %v, want 1m", cfg.Security.RateLimitWindow)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://dashboard.local" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Database.MaxMemory != "1GB" {
		t.Errorf("Database.MaxMemory = %q, want 1GB (default)", cfg.Database.MaxMemory)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8888
  environment: production
database:
  path: /tmp/covid.duckdb
automation:
  timezone: UTC
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7000")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, env should win over file", cfg.Server.Port)
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment from file")
	}
	if cfg.Database.Path != "/tmp/covid.duckdb" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Automation.Location() != time.UTC {
		t.Errorf("Automation.Location() = %v, want UTC", cfg.Automation.Location())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown environment", func(c *Config) { c.Server.Environment = "staging" }, true},
		{"rate limit zero", func(c *Config) { c.Security.RateLimitReqs = 0 }, true},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, false},
		{"four-field cron", func(c *Config) { c.Automation.RefreshCron = "*/30 * * *" }, true},
		{"bad timezone", func(c *Config) { c.Automation.Timezone = "Mars/Olympus" }, true},
		{"relative source url", func(c *Config) { c.Sources.WHOURL = "covid19.who.int" }, true},
		{"valid source url", func(c *Config) { c.Sources.WHOURL = "https://covid19.who.int/data" }, false},
		{"inverted freshness", func(c *Config) { c.Freshness.StaleAfter = time.Minute }, true},
		{"page size over max", func(c *Config) { c.API.DefaultPageSize = 5000 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

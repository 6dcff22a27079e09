// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// Package config loads the server configuration from defaults, an optional
// YAML file and environment variables (in that order of precedence, lowest first).
package config

import (
	"time"

	// Embedded zoneinfo so AUTOMATION_TIMEZONE resolves in minimal containers.
	_ "time/tzdata"
)

// Config is the complete server configuration.
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Automation AutomationConfig `koanf:"automation"`
	Sources    SourcesConfig    `koanf:"sources"`
	Freshness  FreshnessConfig  `koanf:"freshness"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	Path                   string        `koanf:"path"`
	MaxMemory              string        `koanf:"max_memory"`
	Threads                int           `koanf:"threads"`
	MaxOpenConns           int           `koanf:"max_open_conns"`
	PreserveInsertionOrder bool          `koanf:"preserve_insertion_order"`
	SeedMockData           bool          `koanf:"seed_mock_data"`
	SeedDays               int           `koanf:"seed_days"`
	ConnectTimeout         time.Duration `koanf:"connect_timeout"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig bounds list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AutomationConfig configures the scheduler and its jobs.
type AutomationConfig struct {
	Enabled          bool          `koanf:"enabled"`
	RefreshCron      string        `koanf:"refresh_cron"`
	DailyStatsCron   string        `koanf:"daily_stats_cron"`
	WeeklyReportCron string        `koanf:"weekly_report_cron"`
	ProbeCron        string        `koanf:"probe_cron"`
	CheckInterval    time.Duration `koanf:"check_interval"`
	ExecutionTimeout time.Duration `koanf:"execution_timeout"`
	Timezone         string        `koanf:"timezone"`
	HistoryPath      string        `koanf:"history_path"`
}

// SourcesConfig lists the external data sources tracked in data_source_status.
// Empty URLs are not probed.
type SourcesConfig struct {
	NIPHURL            string        `koanf:"niph_url"`
	WHOURL             string        `koanf:"who_url"`
	MOHURL             string        `koanf:"moh_url"`
	ProbeTimeout       time.Duration `koanf:"probe_timeout"`
	ProbeRatePerSecond float64       `koanf:"probe_rate_per_second"`
}

// FreshnessConfig sets the data-freshness buckets.
type FreshnessConfig struct {
	FreshAfter time.Duration `koanf:"fresh_after"`
	StaleAfter time.Duration `koanf:"stale_after"`
}

// Load reads the configuration. It is the entry point used by main.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development" || c.Server.Environment == ""
}

// Location returns the automation timezone, falling back to UTC.
func (c *AutomationConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

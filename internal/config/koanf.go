// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kosovo-covid/config.yaml",
	"/etc/kosovo-covid/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:                   "/data/kosovo-covid.duckdb",
			MaxMemory:              "1GB",
			Threads:                0,
			MaxOpenConns:           10,
			PreserveInsertionOrder: true,
			SeedMockData:           true,
			SeedDays:               90,
			ConnectTimeout:         30 * time.Second,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        3001,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     1000,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   15 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"http://localhost:3000"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Automation: AutomationConfig{
			Enabled:          true,
			RefreshCron:      "*/30 * * * *",
			DailyStatsCron:   "0 0 * * *",
			WeeklyReportCron: "0 8 * * 1",
			ProbeCron:        "*/15 * * * *",
			CheckInterval:    30 * time.Second,
			ExecutionTimeout: 5 * time.Minute,
			Timezone:         "Europe/Belgrade",
			HistoryPath:      "/data/automation-history",
		},
		Sources: SourcesConfig{
			ProbeTimeout:       10 * time.Second,
			ProbeRatePerSecond: 1,
		},
		Freshness: FreshnessConfig{
			FreshAfter: time.Hour,
			StaleAfter: 24 * time.Hour,
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and environment
// variables, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"db_path":           "database.path",
	"duckdb_path":       "database.path",
	"db_max_memory":     "database.max_memory",
	"db_threads":        "database.threads",
	"db_max_open_conns": "database.max_open_conns",
	"seed_mock_data":    "database.seed_mock_data",
	"seed_days":         "database.seed_days",

	"host":        "server.host",
	"port":        "server.port",
	"http_port":   "server.port",
	"http_host":   "server.host",
	"environment": "server.environment",
	"node_env":    "server.environment",

	"default_page_size": "api.default_page_size",
	"max_page_size":     "api.max_page_size",

	"rate_limit_requests":  "security.rate_limit_reqs",
	"rate_limit_max":       "security.rate_limit_reqs",
	"rate_limit_window":    "security.rate_limit_window",
	"disable_rate_limit":   "security.rate_limit_disabled",
	"cors_allowed_origins": "security.cors_origins",
	"cors_origin":          "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"automation_enabled":        "automation.enabled",
	"automation_cron":           "automation.refresh_cron",
	"automation_daily_cron":     "automation.daily_stats_cron",
	"automation_weekly_cron":    "automation.weekly_report_cron",
	"automation_probe_cron":     "automation.probe_cron",
	"automation_check_interval": "automation.check_interval",
	"automation_exec_timeout":   "automation.execution_timeout",
	"automation_timezone":       "automation.timezone",
	"automation_history_path":   "automation.history_path",

	"niph_source_url":      "sources.niph_url",
	"who_source_url":       "sources.who_url",
	"moh_source_url":       "sources.moh_url",
	"source_probe_timeout": "sources.probe_timeout",
	"source_probe_rate":    "sources.probe_rate_per_second",

	"freshness_fresh_after": "freshness.fresh_after",
	"freshness_stale_after": "freshness.stale_after",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

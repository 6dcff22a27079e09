// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/kosovo-covid/internal/logging"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateDatabase,
		c.validateServer,
		c.validateAPI,
		c.validateRateLimits,
		c.validateLogging,
		c.validateAutomation,
		c.validateSources,
		c.validateFreshness,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Database.SeedDays < 0 || c.Database.SeedDays > 3650 {
		return fmt.Errorf("SEED_DAYS must be between 0 and 3650")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("ENVIRONMENT must be one of: development, production, test")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and MAX_PAGE_SIZE (%d)", c.API.MaxPageSize)
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a known level (trace, debug, info, warn, error, fatal, panic, disabled)", c.Logging.Level)
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateAutomation() error {
	a := c.Automation
	crons := map[string]string{
		"AUTOMATION_CRON":        a.RefreshCron,
		"AUTOMATION_DAILY_CRON":  a.DailyStatsCron,
		"AUTOMATION_WEEKLY_CRON": a.WeeklyReportCron,
		"AUTOMATION_PROBE_CRON":  a.ProbeCron,
	}
	for name, expr := range crons {
		if len(strings.Fields(expr)) != 5 {
			return fmt.Errorf("%s must be a 5-field cron expression, got %q", name, expr)
		}
	}
	if a.CheckInterval < time.Second || a.CheckInterval > time.Minute {
		return fmt.Errorf("AUTOMATION_CHECK_INTERVAL must be between 1s and 1m")
	}
	if a.ExecutionTimeout < time.Second {
		return fmt.Errorf("AUTOMATION_EXEC_TIMEOUT must be at least 1s")
	}
	if a.Timezone != "" {
		if _, err := time.LoadLocation(a.Timezone); err != nil {
			return fmt.Errorf("AUTOMATION_TIMEZONE is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateSources() error {
	for name, raw := range map[string]string{
		"NIPH_SOURCE_URL": c.Sources.NIPHURL,
		"WHO_SOURCE_URL":  c.Sources.WHOURL,
		"MOH_SOURCE_URL":  c.Sources.MOHURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL", name)
		}
	}
	if c.Sources.ProbeRatePerSecond <= 0 {
		return fmt.Errorf("SOURCE_PROBE_RATE must be positive")
	}
	return nil
}

func (c *Config) validateFreshness() error {
	if c.Freshness.FreshAfter <= 0 || c.Freshness.StaleAfter <= c.Freshness.FreshAfter {
		return fmt.Errorf("freshness thresholds must satisfy 0 < FRESHNESS_FRESH_AFTER < FRESHNESS_STALE_AFTER")
	}
	return nil
}

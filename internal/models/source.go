// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package models

import "time"

// Named external data sources. Each has exactly one DataSourceStatus row.
const (
	SourceNIPH           = "niph_kosovo"
	SourceWHO            = "who"
	SourceMinistryHealth = "ministry_of_health"
)

// Source status values.
const (
	SourceStatusActive = "active"
	SourceStatusError  = "error"
)

// DataSourceStatus tracks the last outcome of work attributed to a source.
// Only the automation service writes it.
type DataSourceStatus struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	LastUpdated *time.Time `json:"last_updated"`
	LastSuccess *time.Time `json:"last_success"`
	ErrorCount  int64      `json:"error_count"`
	LastError   *string    `json:"last_error"`
	Status      string     `json:"status"`
}

// Freshness buckets for /health/data-freshness.
const (
	FreshnessFresh     = "fresh"
	FreshnessStale     = "stale"
	FreshnessVeryStale = "very-stale"
	FreshnessNoData    = "no-data"
)

// TableFreshness is the newest write to one table.
type TableFreshness struct {
	Table       string     `json:"table"`
	LastUpdated *time.Time `json:"last_updated"`
	AgeSeconds  *int64     `json:"age_seconds"`
	Status      string     `json:"status"`
}

// TableCount is one entry of DatabaseStats.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/kosovo-covid/internal/automation"
	"github.com/tomtom215/kosovo-covid/internal/metrics"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// Health states.
const (
	healthHealthy  = "healthy"
	healthDegraded = "degraded"
)

// HealthStatus is GET /api/v1/health.
type HealthStatus struct {
	Status            string             `json:"status"`
	Version           string             `json:"version"`
	Environment       string             `json:"environment"`
	DatabaseConnected bool               `json:"database_connected"`
	Automation        *AutomationSummary `json:"automation"`
	UptimeSeconds     float64            `json:"uptime_seconds"`
	Timestamp         time.Time          `json:"timestamp"`
}

// AutomationSummary is the scheduler line of the health card.
type AutomationSummary struct {
	Enabled bool `json:"enabled"`
	Running bool `json:"running"`
	Jobs    int  `json:"jobs"`
}

// DatabaseHealth is GET /api/v1/health/database.
type DatabaseHealth struct {
	Connected bool                `json:"connected"`
	LatencyMS float64             `json:"latency_ms"`
	Error     string              `json:"error,omitempty"`
	Tables    []models.TableCount `json:"tables"`
}

// FreshnessReport is GET /api/v1/health/data-freshness.
type FreshnessReport struct {
	Status            string                    `json:"status"`
	FreshAfterSeconds int64                     `json:"fresh_after_seconds"`
	StaleAfterSeconds int64                     `json:"stale_after_seconds"`
	Tables            []models.TableFreshness   `json:"tables"`
	Sources           []models.DataSourceStatus `json:"sources"`
}

// Health handles GET /api/v1/health. A failed database ping reports
// degraded with 503 so load balancers take the instance out.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	health := HealthStatus{
		Status:            healthHealthy,
		Version:           Version,
		Environment:       h.config.Server.Environment,
		DatabaseConnected: dbConnected,
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
		Timestamp:         time.Now().UTC(),
	}
	if h.automation != nil {
		st := h.automation.Status(r.Context())
		health.Automation = &AutomationSummary{Enabled: st.Enabled, Running: st.Running, Jobs: len(st.Jobs)}
	}

	status := http.StatusOK
	if !dbConnected {
		health.Status = healthDegraded
		status = http.StatusServiceUnavailable
	}
	respondData(w, status, health)
}

// HealthDatabase handles GET /api/v1/health/database: ping latency and row
// counts per table.
func (h *Handler) HealthDatabase(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := h.db.Ping(r.Context())
	report := DatabaseHealth{
		Connected: err == nil,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
		Tables:    []models.TableCount{},
	}
	if err != nil {
		if !h.config.IsProduction() {
			report.Error = err.Error()
		}
		respondData(w, http.StatusServiceUnavailable, report)
		return
	}

	stats := h.db.DatabaseStats(r.Context())
	if !stats.Success {
		h.respondFailure(w, r, "Failed to count table rows", stats.Err())
		return
	}
	report.Tables = nonNil(stats.Data)
	respondData(w, http.StatusOK, report)
}

// HealthAutomation handles GET /api/v1/health/automation.
func (h *Handler) HealthAutomation(w http.ResponseWriter, r *http.Request) {
	if h.automation == nil {
		respondData(w, http.StatusOK, automation.Status{Jobs: []automation.JobStatus{}})
		return
	}
	st := h.automation.Status(r.Context())
	st.Jobs = nonNil(st.Jobs)
	respondData(w, http.StatusOK, st)
}

// HealthMetrics handles GET /api/v1/health/metrics: a JSON digest of the
// Prometheus registry.
func (h *Handler) HealthMetrics(w http.ResponseWriter, r *http.Request) {
	metrics.UpdateUptime(h.startTime)
	snap, err := metrics.TakeSnapshot(h.gatherer)
	if err != nil {
		h.respondFailure(w, r, "Failed to gather metrics", err)
		return
	}
	respondData(w, http.StatusOK, snap)
}

// HealthDataFreshness handles GET /api/v1/health/data-freshness. The
// overall status is the worst table status.
func (h *Handler) HealthDataFreshness(w http.ResponseWriter, r *http.Request) {
	fresh, stale := h.config.Freshness.FreshAfter, h.config.Freshness.StaleAfter

	tables := h.db.TableFreshness(r.Context(), fresh, stale)
	if !tables.Success {
		h.respondFailure(w, r, "Failed to read table freshness", tables.Err())
		return
	}
	sources := h.db.ListDataSources(r.Context())
	if !sources.Success {
		h.respondFailure(w, r, "Failed to list data sources", sources.Err())
		return
	}

	respondData(w, http.StatusOK, FreshnessReport{
		Status:            worstFreshness(tables.Data),
		FreshAfterSeconds: int64(fresh.Seconds()),
		StaleAfterSeconds: int64(stale.Seconds()),
		Tables:            nonNil(tables.Data),
		Sources:           nonNil(sources.Data),
	})
}

var freshnessRank = map[string]int{
	models.FreshnessFresh:     0,
	models.FreshnessStale:     1,
	models.FreshnessVeryStale: 2,
	models.FreshnessNoData:    3,
}

func worstFreshness(tables []models.TableFreshness) string {
	if len(tables) == 0 {
		return models.FreshnessNoData
	}
	worst := models.FreshnessFresh
	for _, t := range tables {
		if freshnessRank[t.Status] > freshnessRank[worst] {
			worst = t.Status
		}
	}
	return worst
}

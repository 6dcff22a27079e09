// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Snapshot is the JSON summary served by /health/metrics. It is derived from
// the same registry that /metrics exposes.
type Snapshot struct {
	APIRequests       uint64               `json:"api_requests"`
	APIServerErrors   uint64               `json:"api_server_errors"`
	APIAvgLatencyMs   float64              `json:"api_avg_latency_ms"`
	APIActiveRequests float64              `json:"api_active_requests"`
	RateLimitHits     uint64               `json:"rate_limit_hits"`
	DBQueries         uint64               `json:"db_queries"`
	DBQueryErrors     uint64               `json:"db_query_errors"`
	DBAvgLatencyMs    float64              `json:"db_avg_latency_ms"`
	DBOpenConnections float64              `json:"db_open_connections"`
	Jobs              map[string]JobCounts `json:"jobs"`
	Breakers          map[string]float64   `json:"circuit_breakers"`
	UptimeSeconds     float64              `json:"uptime_seconds"`
}

// JobCounts is the outcome breakdown of one automation job.
type JobCounts struct {
	Success uint64 `json:"success"`
	Failure uint64 `json:"failure"`
	Skipped uint64 `json:"skipped"`
}

// TakeSnapshot gathers g and folds the families this service registers into
// a Snapshot. Families it does not know are ignored.
func TakeSnapshot(g prometheus.Gatherer) (*Snapshot, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	s := &Snapshot{
		Jobs:     make(map[string]JobCounts),
		Breakers: make(map[string]float64),
	}
	var apiSeconds, dbSeconds float64

	for _, mf := range families {
		switch mf.GetName() {
		case "api_requests_total":
			for _, m := range mf.GetMetric() {
				n := uint64(m.GetCounter().GetValue())
				s.APIRequests += n
				if strings.HasPrefix(labelValue(m, "status_code"), "5") {
					s.APIServerErrors += n
				}
			}
		case "api_request_duration_seconds":
			_, apiSeconds = sumHistograms(mf)
		case "api_active_requests":
			s.APIActiveRequests = firstGauge(mf)
		case "api_rate_limit_hits_total":
			s.RateLimitHits = sumCounters(mf)
		case "duckdb_query_duration_seconds":
			s.DBQueries, dbSeconds = sumHistograms(mf)
		case "duckdb_query_errors_total":
			s.DBQueryErrors = sumCounters(mf)
		case "duckdb_open_connections":
			s.DBOpenConnections = firstGauge(mf)
		case "automation_job_runs_total":
			for _, m := range mf.GetMetric() {
				job := labelValue(m, "job")
				counts := s.Jobs[job]
				n := uint64(m.GetCounter().GetValue())
				switch labelValue(m, "status") {
				case JobStatusSuccess:
					counts.Success += n
				case JobStatusFailure:
					counts.Failure += n
				case JobStatusSkipped:
					counts.Skipped += n
				}
				s.Jobs[job] = counts
			}
		case "circuit_breaker_state":
			for _, m := range mf.GetMetric() {
				s.Breakers[labelValue(m, "name")] = m.GetGauge().GetValue()
			}
		case "app_uptime_seconds":
			s.UptimeSeconds = firstGauge(mf)
		}
	}

	// Request count comes from the counter; the histogram count matches it.
	if s.APIRequests > 0 {
		s.APIAvgLatencyMs = round3(apiSeconds * 1000 / float64(s.APIRequests))
	}
	if s.DBQueries > 0 {
		s.DBAvgLatencyMs = round3(dbSeconds * 1000 / float64(s.DBQueries))
	}
	return s, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func sumCounters(mf *dto.MetricFamily) uint64 {
	var total uint64
	for _, m := range mf.GetMetric() {
		total += uint64(m.GetCounter().GetValue())
	}
	return total
}

func sumHistograms(mf *dto.MetricFamily) (count uint64, sum float64) {
	for _, m := range mf.GetMetric() {
		count += m.GetHistogram().GetSampleCount()
		sum += m.GetHistogram().GetSampleSum()
	}
	return count, sum
}

func firstGauge(mf *dto.MetricFamily) float64 {
	if ms := mf.GetMetric(); len(ms) > 0 {
		return ms[0].GetGauge().GetValue()
	}
	return 0
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}

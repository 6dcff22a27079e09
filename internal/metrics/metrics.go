// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// Package metrics registers the Prometheus collectors for the database
// gateway, the HTTP API, the automation jobs and the source probes.
package metrics

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBOpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_open_connections",
			Help: "Number of open database connections in the pool",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Automation Metrics
	AutomationJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_job_runs_total",
			Help: "Total number of automation job executions by outcome",
		},
		[]string{"job", "status"}, // status: "success", "failure", "skipped"
	)

	AutomationJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "automation_job_duration_seconds",
			Help:    "Duration of automation job executions in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"job"},
	)

	AutomationJobLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "automation_job_last_success_timestamp",
			Help: "Unix time of the last successful run of each job",
		},
		[]string{"job"},
	)

	AutomationJobsRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "automation_jobs_registered",
			Help: "Number of jobs in the scheduler registry",
		},
	)

	SimulatedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_simulated_rows_total",
			Help: "Total number of rows written by the data-refresh simulator",
		},
		[]string{"table"},
	)

	// Source Probe Metrics
	SourceProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_probe_duration_seconds",
			Help:    "Duration of external source availability probes",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// Job outcome labels.
const (
	JobStatusSuccess = "success"
	JobStatusFailure = "failure"
	JobStatusSkipped = "skipped"
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, classifyDBError(err)).Inc()
	}
}

// classifyDBError keeps the error_type label bounded.
func classifyDBError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "constraint"), strings.Contains(msg, "duplicate key"):
		return "constraint"
	case strings.Contains(msg, "connection"), strings.Contains(msg, "database is closed"):
		return "connection"
	case strings.Contains(msg, "parser error"), strings.Contains(msg, "syntax"):
		return "syntax"
	case strings.Contains(msg, "binder error"), strings.Contains(msg, "catalog error"):
		return "schema"
	case strings.Contains(msg, "panic"):
		return "panic"
	default:
		return "other"
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a request rejected with 429.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordJobRun records one finished job execution.
func RecordJobRun(job string, duration time.Duration, err error) {
	AutomationJobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		AutomationJobRuns.WithLabelValues(job, JobStatusFailure).Inc()
		return
	}
	AutomationJobRuns.WithLabelValues(job, JobStatusSuccess).Inc()
	AutomationJobLastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
}

// RecordJobSkipped counts a dispatch dropped because the previous run of
// the job was still in flight.
func RecordJobSkipped(job string) {
	AutomationJobRuns.WithLabelValues(job, JobStatusSkipped).Inc()
}

// SetJobsRegistered publishes the scheduler registry size.
func SetJobsRegistered(n int) {
	AutomationJobsRegistered.Set(float64(n))
}

// RecordSimulatedRows counts rows written by the simulator.
func RecordSimulatedRows(table string, n int) {
	SimulatedRows.WithLabelValues(table).Add(float64(n))
}

// RecordSourceProbe records one probe of an external source.
func RecordSourceProbe(source string, duration time.Duration) {
	SourceProbeDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordCircuitBreakerState publishes the numeric state of a breaker.
func RecordCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerRequest counts a request through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition counts a breaker state change.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// UpdateUptime sets the uptime gauge from the process start time.
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}

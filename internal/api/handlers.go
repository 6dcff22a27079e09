// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/kosovo-covid/internal/automation"
	"github.com/tomtom215/kosovo-covid/internal/config"
	"github.com/tomtom215/kosovo-covid/internal/database"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// Version is reported by /health. It is set at build time with
// -ldflags "-X github.com/tomtom215/kosovo-covid/internal/api.Version=...".
var Version = "dev"

// Automation is the part of the scheduler the API uses.
type Automation interface {
	Status(ctx context.Context) automation.Status
	RunNow(name string) (automation.RunRecord, error)
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files by resource:
//   - handlers_cases.go, handlers_vaccinations.go, handlers_hospitals.go,
//     handlers_testing.go, handlers_regions.go: data endpoints
//   - handlers_automation.go: admin job trigger
//   - handlers_health.go: health and monitoring endpoints
type Handler struct {
	db         *database.DB
	automation Automation
	config     *config.Config
	gatherer   prometheus.Gatherer
	loc        *time.Location
	now        func() time.Time
	startTime  time.Time
}

// NewHandler creates the API handler. automation may be nil, in which case
// the automation endpoints answer 503.
func NewHandler(db *database.DB, auto Automation, cfg *config.Config) *Handler {
	return &Handler{
		db:         db,
		automation: auto,
		config:     cfg,
		gatherer:   prometheus.DefaultGatherer,
		loc:        cfg.Automation.Location(),
		now:        time.Now,
		startTime:  time.Now(),
	}
}

// today is the current date in the automation timezone, so "today" means
// the same day for the API and the jobs.
func (h *Handler) today() models.Day {
	return models.NewDay(h.now().In(h.loc))
}

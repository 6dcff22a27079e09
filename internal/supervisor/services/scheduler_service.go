// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package services

import (
	"context"
	"fmt"
)

// Scheduler is the lifecycle of *automation.Scheduler.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService adapts the scheduler's Start/Stop lifecycle to suture's
// Serve: start, wait for cancellation, stop. Stop waits for in-flight jobs.
type SchedulerService struct {
	scheduler Scheduler
	name      string
}

// NewSchedulerService creates a new scheduler service wrapper.
func NewSchedulerService(scheduler Scheduler) *SchedulerService {
	return &SchedulerService{
		scheduler: scheduler,
		name:      "automation-scheduler",
	}
}

// Serve implements suture.Service. A failed Start is returned so suture
// restarts the service under its backoff.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *SchedulerService) String() string {
	return s.name
}

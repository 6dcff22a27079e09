// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// Package services adapts the server's components to suture.Service.
//
// Each wrapper depends on a small interface rather than the concrete type,
// so the wrappers are tested with hand-written mocks:
//   - HTTPServerService: *http.Server (ListenAndServe/Shutdown)
//   - SchedulerService: *automation.Scheduler (Start/Stop)
//   - CheckpointService: *database.DB (Checkpoint)
package services

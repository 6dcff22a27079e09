// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// errors.go - Common API error definitions
package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/kosovo-covid/internal/automation"
	"github.com/tomtom215/kosovo-covid/internal/database"
)

// ErrAutomationUnavailable is returned when the server runs without a
// scheduler.
var ErrAutomationUnavailable = errors.New("automation is not configured")

// statusForError maps store and scheduler errors to an HTTP status and
// error code. Anything unrecognized is a 500.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrDuplicate),
		errors.Is(err, database.ErrUnknownRegion):
		return http.StatusBadRequest, ErrCodeValidationFailed
	case errors.Is(err, automation.ErrJobNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, automation.ErrJobRunning):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, automation.ErrSchedulerStopped),
		errors.Is(err, ErrAutomationUnavailable):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

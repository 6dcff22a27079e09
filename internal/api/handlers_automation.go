// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/kosovo-covid/internal/logging"
)

// RunJob handles POST /api/v1/automation/jobs/{name}/run. The job runs
// synchronously and the run record is returned; a failed run is still a
// 200 because the trigger itself succeeded.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.automation == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			ErrAutomationUnavailable.Error(), nil, nil)
		return
	}

	name := chi.URLParam(r, "name")
	logging.Ctx(r.Context()).Info().Str("job", sanitizeLogValue(name)).Msg("Manual job run requested")

	rec, err := h.automation.RunNow(name)
	if err != nil {
		h.respondFailure(w, r, "Failed to run job", err)
		return
	}
	respondData(w, http.StatusOK, rec)
}

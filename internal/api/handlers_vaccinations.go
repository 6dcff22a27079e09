// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"net/http"

	"github.com/tomtom215/kosovo-covid/internal/analytics"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// ListVaccinations handles GET /api/v1/vaccinations. vaccine_type narrows
// the list to one vaccine.
func (h *Handler) ListVaccinations(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.parseListRequest(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	filter := models.VaccinationFilter{
		RegionID:    req.RegionID,
		VaccineType: r.URL.Query().Get("vaccine_type"),
		From:        req.StartDate,
		To:          req.EndDate,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}
	rows := h.db.ListVaccinations(r.Context(), filter)
	if !rows.Success {
		h.respondFailure(w, r, "Failed to list vaccinations", rows.Err())
		return
	}
	total := h.db.CountVaccinations(r.Context(), filter)
	if !total.Success {
		h.respondFailure(w, r, "Failed to count vaccinations", total.Err())
		return
	}
	respondList(w, rows.Data, total.Data, req.Limit, req.Offset)
}

// VaccinationSummary handles GET /api/v1/vaccinations/summary.
func (h *Handler) VaccinationSummary(w http.ResponseWriter, r *http.Request) {
	res := h.db.VaccinationSummary(r.Context())
	if !res.Success {
		h.respondFailure(w, r, "Failed to compute vaccination summary", res.Err())
		return
	}
	respondData(w, http.StatusOK, res.Data)
}

// VaccinationsByRegion handles GET /api/v1/vaccinations/by-region.
func (h *Handler) VaccinationsByRegion(w http.ResponseWriter, r *http.Request) {
	res := h.db.VaccinationsByRegion(r.Context())
	if !res.Success {
		h.respondFailure(w, r, "Failed to compute regional coverage", res.Err())
		return
	}
	respondData(w, http.StatusOK, nonNil(res.Data))
}

// VaccinationTrends handles GET /api/v1/vaccinations/trends?days=N. The
// moving average and change are over total daily doses.
func (h *Handler) VaccinationTrends(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseTrendsRequest(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.VaccinationDailySeries(r.Context(), req.Days, h.today())
	if !res.Success {
		h.respondFailure(w, r, "Failed to load vaccination trends", res.Err())
		return
	}

	values := make([]float64, len(res.Data))
	for i, d := range res.Data {
		values[i] = float64(d.TotalDoses)
	}
	averages := analytics.MovingAverage7(values)
	changes := analytics.PercentChanges(values)

	points := make([]models.VaccinationTrendPoint, len(res.Data))
	for i, d := range res.Data {
		points[i] = models.VaccinationTrendPoint{
			VaccinationDailyTotals: d,
			MovingAvg7d:            averages[i],
			PercentChange:          changes[i],
		}
	}
	respondData(w, http.StatusOK, points)
}

// CreateVaccination handles POST /api/v1/vaccinations.
func (h *Handler) CreateVaccination(w http.ResponseWriter, r *http.Request) {
	var in models.VaccinationInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if apiErr := validateRequest(&in); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	res := h.db.InsertVaccination(r.Context(), in)
	if !res.Success {
		h.respondFailure(w, r, "Failed to create vaccination record", res.Err())
		return
	}
	respondData(w, http.StatusCreated, res.Data)
}

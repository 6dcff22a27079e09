// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"net/http"

	"github.com/tomtom215/kosovo-covid/internal/analytics"
	"github.com/tomtom215/kosovo-covid/internal/models"
	"github.com/tomtom215/kosovo-covid/internal/validation"
)

// ListCases handles GET /api/v1/cases.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.parseListRequest(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	filter := models.CaseFilter{
		RegionID: req.RegionID,
		From:     req.StartDate,
		To:       req.EndDate,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	cases := h.db.ListCases(r.Context(), filter)
	if !cases.Success {
		h.respondFailure(w, r, "Failed to list cases", cases.Err())
		return
	}
	total := h.db.CountCases(r.Context(), filter)
	if !total.Success {
		h.respondFailure(w, r, "Failed to count cases", total.Err())
		return
	}
	respondList(w, cases.Data, total.Data, req.Limit, req.Offset)
}

// LatestCases handles GET /api/v1/cases/latest: the newest row of every
// region.
func (h *Handler) LatestCases(w http.ResponseWriter, r *http.Request) {
	res := h.db.LatestCases(r.Context())
	if !res.Success {
		h.respondFailure(w, r, "Failed to load latest cases", res.Err())
		return
	}
	respondData(w, http.StatusOK, nonNil(res.Data))
}

// CaseSummary handles GET /api/v1/cases/summary?period=7d|30d|90d|all.
func (h *Handler) CaseSummary(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parsePeriodRequest(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.CaseSummary(r.Context(), req.Period, h.today())
	if !res.Success {
		h.respondFailure(w, r, "Failed to compute case summary", res.Err())
		return
	}
	respondData(w, http.StatusOK, res.Data)
}

// CaseTrends handles GET /api/v1/cases/trends?days=N: the national daily
// series with the 7-day moving average and day-over-day change of
// new_cases.
func (h *Handler) CaseTrends(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseTrendsRequest(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.NationalDailySeries(r.Context(), req.Days, h.today())
	if !res.Success {
		h.respondFailure(w, r, "Failed to load case trends", res.Err())
		return
	}

	values := make([]float64, len(res.Data))
	for i, d := range res.Data {
		values[i] = float64(d.NewCases)
	}
	averages := analytics.MovingAverage7(values)
	changes := analytics.PercentChanges(values)

	points := make([]models.CaseTrendPoint, len(res.Data))
	for i, d := range res.Data {
		points[i] = models.CaseTrendPoint{
			DailyTotals:   d,
			MovingAvg7d:   averages[i],
			PercentChange: changes[i],
		}
	}
	respondData(w, http.StatusOK, points)
}

// GetCase handles GET /api/v1/cases/{id}.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathID(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.GetCase(r.Context(), id)
	if !res.Success {
		h.respondFailure(w, r, "Failed to load case record", res.Err())
		return
	}
	if res.Data == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Case record not found", nil, nil)
		return
	}
	respondData(w, http.StatusOK, res.Data)
}

// CreateCase handles POST /api/v1/cases.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var in models.CaseInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if apiErr := validateRequest(&in); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if out := validation.ValidateCaseRecord(&in); !out.IsValid {
		respondValidation(w, out.ToAPIError())
		return
	}

	res := h.db.InsertCase(r.Context(), in)
	if !res.Success {
		h.respondFailure(w, r, "Failed to create case record", res.Err())
		return
	}
	respondData(w, http.StatusCreated, res.Data)
}

// nonNil turns a nil slice into an empty one so lists encode as [].
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

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

// ListTesting handles GET /api/v1/testing.
func (h *Handler) ListTesting(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.parseListRequest(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	filter := models.TestingFilter{
		RegionID: req.RegionID,
		From:     req.StartDate,
		To:       req.EndDate,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	rows := h.db.ListTesting(r.Context(), filter)
	if !rows.Success {
		h.respondFailure(w, r, "Failed to list testing data", rows.Err())
		return
	}
	total := h.db.CountTesting(r.Context(), filter)
	if !total.Success {
		h.respondFailure(w, r, "Failed to count testing data", total.Err())
		return
	}
	respondList(w, rows.Data, total.Data, req.Limit, req.Offset)
}

// TestingSummary handles GET /api/v1/testing/summary?period=.
func (h *Handler) TestingSummary(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parsePeriodRequest(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.TestingSummary(r.Context(), req.Period, h.today())
	if !res.Success {
		h.respondFailure(w, r, "Failed to compute testing summary", res.Err())
		return
	}
	respondData(w, http.StatusOK, res.Data)
}

// TestingTrends handles GET /api/v1/testing/trends?days=N. The moving
// average and change are over total daily tests.
func (h *Handler) TestingTrends(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseTrendsRequest(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.TestingDailySeries(r.Context(), req.Days, h.today())
	if !res.Success {
		h.respondFailure(w, r, "Failed to load testing trends", res.Err())
		return
	}

	values := make([]float64, len(res.Data))
	for i, d := range res.Data {
		values[i] = float64(d.TotalTests)
	}
	averages := analytics.MovingAverage7(values)
	changes := analytics.PercentChanges(values)

	points := make([]models.TestingTrendPoint, len(res.Data))
	for i, d := range res.Data {
		points[i] = models.TestingTrendPoint{
			TestingDailyTotals: d,
			PositivityRate:     analytics.PositivityRate(d.PositiveTests, d.TotalTests),
			MovingAvg7d:        averages[i],
			PercentChange:      changes[i],
		}
	}
	respondData(w, http.StatusOK, points)
}

// TestingCenters handles GET /api/v1/testing/centers?region_id=.
func (h *Handler) TestingCenters(w http.ResponseWriter, r *http.Request) {
	regionID, apiErr := getOptionalID(r, "region_id")
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.ListTestingCenters(r.Context(), regionID)
	if !res.Success {
		h.respondFailure(w, r, "Failed to list testing centers", res.Err())
		return
	}
	respondData(w, http.StatusOK, nonNil(res.Data))
}

// CreateTesting handles POST /api/v1/testing.
func (h *Handler) CreateTesting(w http.ResponseWriter, r *http.Request) {
	var in models.TestingInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if apiErr := validateRequest(&in); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if out := validation.ValidateTestingRecord(&in); !out.IsValid {
		respondValidation(w, out.ToAPIError())
		return
	}

	res := h.db.InsertTesting(r.Context(), in)
	if !res.Success {
		h.respondFailure(w, r, "Failed to create testing record", res.Err())
		return
	}
	respondData(w, http.StatusCreated, res.Data)
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// requests.go - Query parameter structs with go-playground/validator tags.
//
// The json tags name the query parameter so validation details point at
// what the client sent.
package api

import (
	"net/http"

	"github.com/tomtom215/kosovo-covid/internal/models"
	"github.com/tomtom215/kosovo-covid/internal/validation"
)

// ListRequest holds the filter and page of GET /cases, /vaccinations and
// /testing.
type ListRequest struct {
	RegionID  *int64
	StartDate *models.Day
	EndDate   *models.Day
	Limit     int `json:"limit" validate:"min=1"`
	Offset    int `json:"offset" validate:"min=0"`
}

// PeriodRequest is the ?period= parameter of the summary endpoints.
type PeriodRequest struct {
	Period string `json:"period" validate:"oneof=7d 30d 90d all"`
}

// TrendsRequest is the ?days= parameter of the trend endpoints.
type TrendsRequest struct {
	Days int `json:"days" validate:"min=1,max=365"`
}

// parseListRequest reads region_id, start_date, end_date, limit and offset.
// The limit is clamped to the configured maximum page size.
func (h *Handler) parseListRequest(r *http.Request) (ListRequest, *validation.APIError) {
	var req ListRequest
	var apiErr *validation.APIError

	if req.RegionID, apiErr = getOptionalID(r, "region_id"); apiErr != nil {
		return req, apiErr
	}
	if req.StartDate, apiErr = getOptionalDate(r, "start_date"); apiErr != nil {
		return req, apiErr
	}
	if req.EndDate, apiErr = getOptionalDate(r, "end_date"); apiErr != nil {
		return req, apiErr
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(req.StartDate.Time) {
		return req, paramError("end_date", "end_date must not be before start_date")
	}
	if req.Limit, apiErr = getIntParam(r, "limit", h.config.API.DefaultPageSize); apiErr != nil {
		return req, apiErr
	}
	if req.Offset, apiErr = getIntParam(r, "offset", 0); apiErr != nil {
		return req, apiErr
	}
	if apiErr = validateRequest(&req); apiErr != nil {
		return req, apiErr
	}
	req.Limit = min(req.Limit, h.config.API.MaxPageSize)
	return req, nil
}

func parsePeriodRequest(r *http.Request) (PeriodRequest, *validation.APIError) {
	req := PeriodRequest{Period: r.URL.Query().Get("period")}
	if req.Period == "" {
		req.Period = "all"
	}
	return req, validateRequest(&req)
}

func parseTrendsRequest(r *http.Request) (TrendsRequest, *validation.APIError) {
	days, apiErr := getIntParam(r, "days", 30)
	if apiErr != nil {
		return TrendsRequest{}, apiErr
	}
	req := TrendsRequest{Days: days}
	return req, validateRequest(&req)
}

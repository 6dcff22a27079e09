// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

// APIResponse is the envelope of every /api/v1 response.
//
//	success: {"success": true, "data": ..., "total": n, "pagination": {...}}
//	failure: {"success": false, "error": "NOT_FOUND", "message": "...", "details": [...]}
type APIResponse struct {
	Success bool `json:"success"`

	// Data is the payload of a successful response.
	Data any `json:"data,omitempty"`

	// Total and Pagination are set by list endpoints only.
	Total      *int64          `json:"total,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`

	// Error is a machine-readable code; Message and Details explain it.
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`

	// RequestID is echoed on failures only, so success bodies stay stable
	// for ETag comparison.
	RequestID string `json:"request_id,omitempty"`
}

// PaginationMeta describes the page returned by a list endpoint.
type PaginationMeta struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Count   int   `json:"count"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
)

func newPagination(limit, offset, count int, total int64) *PaginationMeta {
	return &PaginationMeta{
		Limit:   limit,
		Offset:  offset,
		Count:   count,
		Total:   total,
		HasMore: int64(offset+count) < total,
	}
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/kosovo-covid/internal/logging"
	"github.com/tomtom215/kosovo-covid/internal/middleware"
	"github.com/tomtom215/kosovo-covid/internal/models"
	"github.com/tomtom215/kosovo-covid/internal/validation"
)

// maxBodyBytes bounds POST and PUT bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	if !response.Success && response.RequestID == "" {
		response.RequestID = w.Header().Get(middleware.RequestIDHeader)
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusOK {
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Header().Set("ETag", generateETag(data))
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag hashes the body with FNV-1a.
func generateETag(data []byte) string {
	h := fnv.New32a()
	_, _ = h.Write(data)
	return `W/"` + strconv.FormatUint(uint64(h.Sum32()), 16) + `"`
}

// respondData sends a successful response.
func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, &APIResponse{Success: true, Data: data})
}

// respondList sends a page of a list endpoint.
func respondList[T any](w http.ResponseWriter, items []T, total int64, limit, offset int) {
	if items == nil {
		items = []T{}
	}
	respondJSON(w, http.StatusOK, &APIResponse{
		Success:    true,
		Data:       items,
		Total:      &total,
		Pagination: newPagination(limit, offset, len(items), total),
	})
}

// respondError sends an error response. err is logged, never sent.
func respondError(w http.ResponseWriter, status int, code, message string, details any, err error) {
	if err != nil {
		logging.Error().
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}
	respondJSON(w, status, &APIResponse{
		Success: false,
		Error:   code,
		Message: message,
		Details: details,
	})
}

// respondFailure maps err to a status via statusForError. Client errors
// carry err's message; server errors carry it only outside production.
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, code := statusForError(err)
	if status < http.StatusInternalServerError {
		respondError(w, status, code, err.Error(), nil, nil)
		return
	}

	logging.CtxErr(r.Context(), err).
		Str("path", sanitizeLogValue(r.URL.Path)).
		Msg(message)

	var details any
	if !h.config.IsProduction() {
		details = err.Error()
	}
	respondError(w, status, code, message, details, nil)
}

// respondValidation sends a 400 with the field issues.
func respondValidation(w http.ResponseWriter, apiErr *validation.APIError) {
	respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes.
func validateRequest(v any) *validation.APIError {
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr.ToAPIError()
	}
	return nil
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) *validation.APIError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &validation.APIError{
			Code:    validation.CodeValidationFailed,
			Message: "Invalid JSON body",
			Details: []validation.FieldIssue{{Field: "body", Message: sanitizeLogValue(err.Error())}},
		}
	}
	return nil
}

// paramError is the 400 for a malformed query or path parameter.
func paramError(field, message string) *validation.APIError {
	return &validation.APIError{
		Code:    validation.CodeValidationFailed,
		Message: message,
		Details: []validation.FieldIssue{{Field: field, Message: message}},
	}
}

// getIntParam extracts an integer query parameter with a default value.
// A value that is present but not an integer is an error.
func getIntParam(r *http.Request, key string, defaultValue int) (int, *validation.APIError) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, paramError(key, key+" must be an integer")
	}
	return n, nil
}

// getOptionalID extracts an optional positive id query parameter.
func getOptionalID(r *http.Request, key string) (*int64, *validation.APIError) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id < 1 {
		return nil, paramError(key, key+" must be a positive integer")
	}
	return &id, nil
}

// getOptionalDate extracts an optional YYYY-MM-DD query parameter.
func getOptionalDate(r *http.Request, key string) (*models.Day, *validation.APIError) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	d, err := models.ParseDay(value)
	if err != nil {
		return nil, paramError(key, key+" must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, *validation.APIError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, paramError("id", "id must be a positive integer")
	}
	return id, nil
}

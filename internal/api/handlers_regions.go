// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"net/http"
)

// ListRegions handles GET /api/v1/regions.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	res := h.db.ListRegions(r.Context())
	if !res.Success {
		h.respondFailure(w, r, "Failed to list regions", res.Err())
		return
	}
	respondData(w, http.StatusOK, nonNil(res.Data))
}

// RegionComparison handles GET /api/v1/regions/comparison.
func (h *Handler) RegionComparison(w http.ResponseWriter, r *http.Request) {
	res := h.db.RegionComparison(r.Context())
	if !res.Success {
		h.respondFailure(w, r, "Failed to compare regions", res.Err())
		return
	}
	respondData(w, http.StatusOK, nonNil(res.Data))
}

// GetRegion handles GET /api/v1/regions/{id}.
func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathID(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.GetRegion(r.Context(), id)
	if !res.Success {
		h.respondFailure(w, r, "Failed to load region", res.Err())
		return
	}
	if res.Data == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Region not found", nil, nil)
		return
	}
	respondData(w, http.StatusOK, res.Data)
}

// RegionStats handles GET /api/v1/regions/{id}/stats.
func (h *Handler) RegionStats(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathID(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.RegionStats(r.Context(), id)
	if !res.Success {
		h.respondFailure(w, r, "Failed to compute region statistics", res.Err())
		return
	}
	if res.Data == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Region not found", nil, nil)
		return
	}
	respondData(w, http.StatusOK, res.Data)
}

// RegionMunicipalities handles GET /api/v1/regions/{id}/municipalities. An
// unknown region is a 404 rather than an empty list.
func (h *Handler) RegionMunicipalities(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathID(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	region := h.db.GetRegion(r.Context(), id)
	if !region.Success {
		h.respondFailure(w, r, "Failed to load region", region.Err())
		return
	}
	if region.Data == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Region not found", nil, nil)
		return
	}

	res := h.db.ListMunicipalities(r.Context(), id)
	if !res.Success {
		h.respondFailure(w, r, "Failed to list municipalities", res.Err())
		return
	}
	respondData(w, http.StatusOK, nonNil(res.Data))
}

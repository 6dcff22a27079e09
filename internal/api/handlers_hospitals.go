// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"net/http"

	"github.com/tomtom215/kosovo-covid/internal/models"
	"github.com/tomtom215/kosovo-covid/internal/validation"
)

// ListHospitals handles GET /api/v1/hospitals?region_id=.
func (h *Handler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	regionID, apiErr := getOptionalID(r, "region_id")
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.ListHospitals(r.Context(), regionID)
	if !res.Success {
		h.respondFailure(w, r, "Failed to list hospitals", res.Err())
		return
	}
	respondData(w, http.StatusOK, nonNil(res.Data))
}

// HospitalCapacity handles GET /api/v1/hospitals/capacity.
func (h *Handler) HospitalCapacity(w http.ResponseWriter, r *http.Request) {
	res := h.db.HospitalCapacity(r.Context())
	if !res.Success {
		h.respondFailure(w, r, "Failed to compute hospital capacity", res.Err())
		return
	}
	report := res.Data
	report.ByRegion = nonNil(report.ByRegion)
	respondData(w, http.StatusOK, report)
}

// GetHospital handles GET /api/v1/hospitals/{id}.
func (h *Handler) GetHospital(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathID(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	res := h.db.GetHospital(r.Context(), id)
	if !res.Success {
		h.respondFailure(w, r, "Failed to load hospital", res.Err())
		return
	}
	if res.Data == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Hospital not found", nil, nil)
		return
	}
	respondData(w, http.StatusOK, res.Data)
}

// UpdateHospitalOccupancy handles PUT /api/v1/hospitals/{id}/occupancy.
// Every occupancy counter must stay within the hospital's capacity.
func (h *Handler) UpdateHospitalOccupancy(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathID(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	var occ models.HospitalOccupancy
	if apiErr := decodeJSON(w, r, &occ); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if apiErr := validateRequest(&occ); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	hospital := h.db.GetHospital(r.Context(), id)
	if !hospital.Success {
		h.respondFailure(w, r, "Failed to load hospital", hospital.Err())
		return
	}
	if hospital.Data == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Hospital not found", nil, nil)
		return
	}
	if out := validation.ValidateHospitalOccupancy(hospital.Data, &occ); !out.IsValid {
		respondValidation(w, out.ToAPIError())
		return
	}

	if res := h.db.UpdateHospitalOccupancy(r.Context(), id, occ); !res.Success {
		h.respondFailure(w, r, "Failed to update occupancy", res.Err())
		return
	}
	updated := h.db.GetHospital(r.Context(), id)
	if !updated.Success {
		h.respondFailure(w, r, "Failed to reload hospital", updated.Err())
		return
	}
	respondData(w, http.StatusOK, updated.Data)
}

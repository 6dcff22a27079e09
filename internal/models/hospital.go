// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package models

import "time"

// Hospital holds static capacity and the latest occupancy of one facility.
// Occupancy never exceeding capacity is checked on write only.
type Hospital struct {
	ID                int64     `json:"id"`
	RegionID          int64     `json:"region_id"`
	RegionName        string    `json:"region_name,omitempty"`
	MunicipalityID    *int64    `json:"municipality_id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	TotalBeds         int64     `json:"total_beds"`
	CovidBeds         int64     `json:"covid_beds"`
	ICUBeds           int64     `json:"icu_beds"`
	Ventilators       int64     `json:"ventilators"`
	OccupiedBeds      int64     `json:"occupied_beds"`
	OccupiedCovidBeds int64     `json:"occupied_covid_beds"`
	OccupiedICUBeds   int64     `json:"occupied_icu_beds"`
	VentilatorsInUse  int64     `json:"ventilators_in_use"`
	OccupancyRate     string    `json:"occupancy_rate"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HospitalOccupancy is the PUT /hospitals/{id}/occupancy body and the
// simulator's occupancy draw.
type HospitalOccupancy struct {
	OccupiedBeds      int64 `json:"occupied_beds" validate:"min=0"`
	OccupiedCovidBeds int64 `json:"occupied_covid_beds" validate:"min=0"`
	OccupiedICUBeds   int64 `json:"occupied_icu_beds" validate:"min=0"`
	VentilatorsInUse  int64 `json:"ventilators_in_use" validate:"min=0"`
}

// CapacityTotals sums capacity and occupancy over a set of hospitals.
type CapacityTotals struct {
	Hospitals          int64  `json:"hospitals"`
	TotalBeds          int64  `json:"total_beds"`
	OccupiedBeds       int64  `json:"occupied_beds"`
	CovidBeds          int64  `json:"covid_beds"`
	OccupiedCovidBeds  int64  `json:"occupied_covid_beds"`
	ICUBeds            int64  `json:"icu_beds"`
	OccupiedICUBeds    int64  `json:"occupied_icu_beds"`
	Ventilators        int64  `json:"ventilators"`
	VentilatorsInUse   int64  `json:"ventilators_in_use"`
	BedOccupancyRate   string `json:"bed_occupancy_rate"`
	CovidOccupancyRate string `json:"covid_occupancy_rate"`
	ICUOccupancyRate   string `json:"icu_occupancy_rate"`
	VentilatorUseRate  string `json:"ventilator_use_rate"`
}

// RegionCapacity is CapacityTotals for one region.
type RegionCapacity struct {
	RegionID   int64  `json:"region_id"`
	RegionName string `json:"region_name"`
	CapacityTotals
}

// CapacityReport is GET /hospitals/capacity.
type CapacityReport struct {
	National CapacityTotals   `json:"national"`
	ByRegion []RegionCapacity `json:"by_region"`
}

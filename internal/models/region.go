// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package models

import "time"

// Region is one of Kosovo's seven districts.
type Region struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	Population int64     `json:"population"`
	AreaKm2    float64   `json:"area_km2"`
	Capital    string    `json:"capital"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Municipality belongs to exactly one Region.
type Municipality struct {
	ID         int64     `json:"id"`
	RegionID   int64     `json:"region_id"`
	Name       string    `json:"name"`
	Population int64     `json:"population"`
	AreaKm2    float64   `json:"area_km2"`
	CreatedAt  time.Time `json:"created_at"`
}

// RegionStats is the per-region dashboard card returned by
// /regions/{id}/stats and /regions/comparison.
type RegionStats struct {
	RegionID              int64   `json:"region_id"`
	RegionName            string  `json:"region_name"`
	RegionCode            string  `json:"region_code"`
	Population            int64   `json:"population"`
	LatestDate            *Day    `json:"latest_date"`
	TotalCases            int64   `json:"total_cases"`
	ActiveCases           int64   `json:"active_cases"`
	Deaths                int64   `json:"deaths"`
	Recovered             int64   `json:"recovered"`
	NewCases              int64   `json:"new_cases"`
	CaseFatalityRate      string  `json:"case_fatality_rate"`
	RecoveryRate          string  `json:"recovery_rate"`
	IncidencePer100k      string  `json:"incidence_per_100k"`
	PeopleVaccinated      int64   `json:"people_vaccinated"`
	PeopleFullyVaccinated int64   `json:"people_fully_vaccinated"`
	VaccinationRate       string  `json:"vaccination_rate"`
	Hospitals             int64   `json:"hospitals"`
	TotalBeds             int64   `json:"total_beds"`
	OccupiedBeds          int64   `json:"occupied_beds"`
	BedOccupancyRate      string  `json:"bed_occupancy_rate"`
	PopulationDensity     float64 `json:"population_density"`
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package models

import "time"

// Vaccine types administered in Kosovo.
const (
	VaccinePfizer      = "Pfizer-BioNTech"
	VaccineAstraZeneca = "AstraZeneca"
	VaccineSinovac     = "Sinovac"
	VaccineModerna     = "Moderna"
)

// VaccineTypes lists the vaccine types the simulator and seed draw from.
var VaccineTypes = []string{VaccinePfizer, VaccineAstraZeneca, VaccineSinovac, VaccineModerna}

// VaccinationRecord is one (date, region_id, vaccine_type) row. The dose
// columns are daily counts; the people_* columns are cumulative.
type VaccinationRecord struct {
	ID                    int64     `json:"id"`
	Date                  Day       `json:"date"`
	RegionID              int64     `json:"region_id"`
	RegionName            string    `json:"region_name,omitempty"`
	VaccineType           string    `json:"vaccine_type"`
	FirstDose             int64     `json:"first_dose"`
	SecondDose            int64     `json:"second_dose"`
	BoosterDose           int64     `json:"booster_dose"`
	PeopleVaccinated      int64     `json:"people_vaccinated"`
	PeopleFullyVaccinated int64     `json:"people_fully_vaccinated"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// VaccinationInput is the POST /vaccinations body.
type VaccinationInput struct {
	Date                  string `json:"date" validate:"required,datetime=2006-01-02"`
	RegionID              int64  `json:"region_id" validate:"required,min=1"`
	VaccineType           string `json:"vaccine_type" validate:"required,max=50"`
	FirstDose             int64  `json:"first_dose" validate:"min=0"`
	SecondDose            int64  `json:"second_dose" validate:"min=0"`
	BoosterDose           int64  `json:"booster_dose" validate:"min=0"`
	PeopleVaccinated      int64  `json:"people_vaccinated" validate:"min=0"`
	PeopleFullyVaccinated int64  `json:"people_fully_vaccinated" validate:"min=0,ltefield=PeopleVaccinated"`
}

// DoseDelta is added to the (date, region, vaccine_type) row by the
// data-refresh job.
type DoseDelta struct {
	FirstDose   int64
	SecondDose  int64
	BoosterDose int64
}

// VaccinationFilter narrows GET /vaccinations.
type VaccinationFilter struct {
	RegionID    *int64
	VaccineType string
	From        *Day
	To          *Day
	Limit       int
	Offset      int
}

// VaccinationSummary is the national coverage card.
type VaccinationSummary struct {
	TotalFirstDoses       int64            `json:"total_first_doses"`
	TotalSecondDoses      int64            `json:"total_second_doses"`
	TotalBoosterDoses     int64            `json:"total_booster_doses"`
	TotalDoses            int64            `json:"total_doses"`
	PeopleVaccinated      int64            `json:"people_vaccinated"`
	PeopleFullyVaccinated int64            `json:"people_fully_vaccinated"`
	Population            int64            `json:"population"`
	VaccinationRate       string           `json:"vaccination_rate"`
	FullVaccinationRate   string           `json:"full_vaccination_rate"`
	ByVaccineType         []VaccineTypeUse `json:"by_vaccine_type"`
	LatestDate            *Day             `json:"latest_date"`
}

// VaccineTypeUse is the dose total of one vaccine type.
type VaccineTypeUse struct {
	VaccineType string `json:"vaccine_type"`
	TotalDoses  int64  `json:"total_doses"`
}

// RegionVaccination is one row of GET /vaccinations/by-region.
type RegionVaccination struct {
	RegionID              int64  `json:"region_id"`
	RegionName            string `json:"region_name"`
	Population            int64  `json:"population"`
	PeopleVaccinated      int64  `json:"people_vaccinated"`
	PeopleFullyVaccinated int64  `json:"people_fully_vaccinated"`
	TotalDoses            int64  `json:"total_doses"`
	VaccinationRate       string `json:"vaccination_rate"`
	FullVaccinationRate   string `json:"full_vaccination_rate"`
}

// VaccinationDailyTotals is one date of the national dose series.
type VaccinationDailyTotals struct {
	Date        Day   `json:"date"`
	FirstDose   int64 `json:"first_dose"`
	SecondDose  int64 `json:"second_dose"`
	BoosterDose int64 `json:"booster_dose"`
	TotalDoses  int64 `json:"total_doses"`
}

// VaccinationTrendPoint is one date of GET /vaccinations/trends.
type VaccinationTrendPoint struct {
	VaccinationDailyTotals
	MovingAvg7d   *float64 `json:"moving_avg_7d"`
	PercentChange float64  `json:"percent_change"`
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package models

import "time"

// DailyCaseRecord is the cumulative and daily case state of one region on
// one date. (date, region_id) is unique.
type DailyCaseRecord struct {
	ID                 int64     `json:"id"`
	Date               Day       `json:"date"`
	RegionID           int64     `json:"region_id"`
	RegionName         string    `json:"region_name,omitempty"`
	TotalCases         int64     `json:"total_cases"`
	NewCases           int64     `json:"new_cases"`
	ActiveCases        int64     `json:"active_cases"`
	Deaths             int64     `json:"deaths"`
	NewDeaths          int64     `json:"new_deaths"`
	Recovered          int64     `json:"recovered"`
	NewRecovered       int64     `json:"new_recovered"`
	Hospitalized       int64     `json:"hospitalized"`
	ICUPatients        int64     `json:"icu_patients"`
	VentilatorPatients int64     `json:"ventilator_patients"`
	MovingAvg7d        *float64  `json:"moving_avg_7d"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CaseInput is the POST /cases body.
type CaseInput struct {
	Date               string `json:"date" validate:"required,datetime=2006-01-02"`
	RegionID           int64  `json:"region_id" validate:"required,min=1"`
	TotalCases         int64  `json:"total_cases" validate:"min=0"`
	NewCases           int64  `json:"new_cases" validate:"min=0"`
	ActiveCases        *int64 `json:"active_cases" validate:"omitempty,min=0"`
	Deaths             int64  `json:"deaths" validate:"min=0"`
	NewDeaths          int64  `json:"new_deaths" validate:"min=0"`
	Recovered          int64  `json:"recovered" validate:"min=0"`
	NewRecovered       int64  `json:"new_recovered" validate:"min=0"`
	Hospitalized       int64  `json:"hospitalized" validate:"min=0"`
	ICUPatients        int64  `json:"icu_patients" validate:"min=0"`
	VentilatorPatients int64  `json:"ventilator_patients" validate:"min=0"`
}

// CaseDelta is one simulated increment applied by the data-refresh job.
// New* fields are added to the stored counters; the patient counts replace
// the stored values.
type CaseDelta struct {
	NewCases           int64
	NewDeaths          int64
	NewRecovered       int64
	Hospitalized       int64
	ICUPatients        int64
	VentilatorPatients int64
}

// CaseFilter narrows GET /cases.
type CaseFilter struct {
	RegionID *int64
	From     *Day
	To       *Day
	Limit    int
	Offset   int
}

// CaseSummary is the national summary for a period.
type CaseSummary struct {
	Period           string  `json:"period"`
	From             *Day    `json:"from"`
	To               *Day    `json:"to"`
	TotalCases       int64   `json:"total_cases"`
	ActiveCases      int64   `json:"active_cases"`
	Deaths           int64   `json:"deaths"`
	Recovered        int64   `json:"recovered"`
	NewCases         int64   `json:"new_cases"`
	NewDeaths        int64   `json:"new_deaths"`
	NewRecovered     int64   `json:"new_recovered"`
	Hospitalized     int64   `json:"hospitalized"`
	ICUPatients      int64   `json:"icu_patients"`
	CaseFatalityRate string  `json:"case_fatality_rate"`
	RecoveryRate     string  `json:"recovery_rate"`
	AvgDailyNewCases float64 `json:"avg_daily_new_cases"`
}

// DailyTotals is one date of the national (summed over regions) series.
type DailyTotals struct {
	Date         Day   `json:"date"`
	TotalCases   int64 `json:"total_cases"`
	NewCases     int64 `json:"new_cases"`
	ActiveCases  int64 `json:"active_cases"`
	Deaths       int64 `json:"deaths"`
	NewDeaths    int64 `json:"new_deaths"`
	Recovered    int64 `json:"recovered"`
	NewRecovered int64 `json:"new_recovered"`
}

// CaseTrendPoint is one date of GET /cases/trends.
type CaseTrendPoint struct {
	DailyTotals
	MovingAvg7d   *float64 `json:"moving_avg_7d"`
	PercentChange float64  `json:"percent_change"`
}

// WeeklyReport is the summary logged by the weekly-report job.
type WeeklyReport struct {
	From         Day           `json:"from"`
	To           Day           `json:"to"`
	Days         int           `json:"days"`
	NewCases     SeriesSummary `json:"new_cases"`
	NewDeaths    SeriesSummary `json:"new_deaths"`
	NewRecovered SeriesSummary `json:"new_recovered"`
}

// SeriesSummary mirrors analytics.Summary for the wire.
type SeriesSummary struct {
	Sum float64 `json:"sum"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

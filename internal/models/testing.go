// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package models

import "time"

// TestingCenter is a facility that runs PCR or antigen tests.
type TestingCenter struct {
	ID             int64     `json:"id"`
	RegionID       int64     `json:"region_id"`
	RegionName     string    `json:"region_name,omitempty"`
	MunicipalityID *int64    `json:"municipality_id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	DailyCapacity  int64     `json:"daily_capacity"`
	CreatedAt      time.Time `json:"created_at"`
}

// TestingRecord is the unique (date, region_id) testing row. PositivityRate
// is derived on read.
type TestingRecord struct {
	ID             int64     `json:"id"`
	Date           Day       `json:"date"`
	RegionID       int64     `json:"region_id"`
	RegionName     string    `json:"region_name,omitempty"`
	TotalTests     int64     `json:"total_tests"`
	PCRTests       int64     `json:"pcr_tests"`
	AntigenTests   int64     `json:"antigen_tests"`
	PositiveTests  int64     `json:"positive_tests"`
	NegativeTests  int64     `json:"negative_tests"`
	PendingTests   int64     `json:"pending_tests"`
	PositivityRate string    `json:"positivity_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TestingInput is the POST /testing body.
type TestingInput struct {
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	RegionID      int64  `json:"region_id" validate:"required,min=1"`
	TotalTests    int64  `json:"total_tests" validate:"min=0"`
	PCRTests      int64  `json:"pcr_tests" validate:"min=0"`
	AntigenTests  int64  `json:"antigen_tests" validate:"min=0"`
	PositiveTests int64  `json:"positive_tests" validate:"min=0"`
	NegativeTests int64  `json:"negative_tests" validate:"min=0"`
	PendingTests  int64  `json:"pending_tests" validate:"min=0"`
}

// TestingDelta is added to today's testing row by the data-refresh job.
type TestingDelta struct {
	PCRTests      int64
	AntigenTests  int64
	PositiveTests int64
	NegativeTests int64
	PendingTests  int64
}

// Total is the number of tests in the delta.
func (d TestingDelta) Total() int64 {
	return d.PCRTests + d.AntigenTests
}

// TestingFilter narrows GET /testing.
type TestingFilter struct {
	RegionID *int64
	From     *Day
	To       *Day
	Limit    int
	Offset   int
}

// TestingSummary is GET /testing/summary.
type TestingSummary struct {
	Period         string `json:"period"`
	From           *Day   `json:"from"`
	To             *Day   `json:"to"`
	TotalTests     int64  `json:"total_tests"`
	PCRTests       int64  `json:"pcr_tests"`
	AntigenTests   int64  `json:"antigen_tests"`
	PositiveTests  int64  `json:"positive_tests"`
	NegativeTests  int64  `json:"negative_tests"`
	PendingTests   int64  `json:"pending_tests"`
	PositivityRate string `json:"positivity_rate"`
	Centers        int64  `json:"centers"`
	DailyCapacity  int64  `json:"daily_capacity"`
}

// TestingDailyTotals is one date of the national testing series.
type TestingDailyTotals struct {
	Date          Day   `json:"date"`
	TotalTests    int64 `json:"total_tests"`
	PositiveTests int64 `json:"positive_tests"`
}

// TestingTrendPoint is one date of GET /testing/trends.
type TestingTrendPoint struct {
	TestingDailyTotals
	PositivityRate string   `json:"positivity_rate"`
	MovingAvg7d    *float64 `json:"moving_avg_7d"`
	PercentChange  float64  `json:"percent_change"`
}

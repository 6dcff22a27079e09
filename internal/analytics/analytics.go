// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// Package analytics holds the derived-metric calculators shared by the
// automation jobs and the read endpoints: trailing moving averages,
// day-over-day percentage change, and percentage rates.
//
// All functions are pure. Sequences are ordered by date ascending and are
// recomputed from scratch on every call.
package analytics

import (
	"github.com/shopspring/decimal"
)

// MovingAverageWindow is the trailing window used for daily series.
const MovingAverageWindow = 7

var hundred = decimal.NewFromInt(100)

// MovingAverage returns the trailing moving average of values over window
// elements, inclusive of the current index. Entries for i < window-1 are nil.
func MovingAverage(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			avg := Round2(sum / float64(window))
			out[i] = &avg
		}
	}
	return out
}

// MovingAverage7 is MovingAverage with the 7-day window.
func MovingAverage7(values []float64) []*float64 {
	return MovingAverage(values, MovingAverageWindow)
}

// PercentChange returns (curr-prev)/prev*100 rounded to two decimals.
// A zero prev yields 0, which hides growth from zero.
func PercentChange(prev, curr float64) float64 {
	if prev == 0 {
		return 0
	}
	d := decimal.NewFromFloat(curr).Sub(decimal.NewFromFloat(prev)).
		Div(decimal.NewFromFloat(prev)).
		Mul(hundred).
		Round(2)
	return d.InexactFloat64()
}

// PercentChanges returns the day-over-day change for every index; index 0 is 0.
func PercentChanges(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		out[i] = PercentChange(values[i-1], values[i])
	}
	return out
}

// Rate renders numerator/denominator*100 with exactly two decimals.
// A zero denominator renders "0.00".
func Rate(numerator, denominator float64) string {
	return rateDecimal(numerator, denominator).StringFixed(2)
}

// RateFloat is Rate as a float64 rounded to two decimals.
func RateFloat(numerator, denominator float64) float64 {
	return rateDecimal(numerator, denominator).Round(2).InexactFloat64()
}

func rateDecimal(numerator, denominator float64) decimal.Decimal {
	if denominator == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(numerator).
		Div(decimal.NewFromFloat(denominator)).
		Mul(hundred)
}

// CaseFatalityRate is deaths per 100 confirmed cases.
func CaseFatalityRate(deaths, totalCases int64) string {
	return Rate(float64(deaths), float64(totalCases))
}

// RecoveryRate is recoveries per 100 confirmed cases.
func RecoveryRate(recovered, totalCases int64) string {
	return Rate(float64(recovered), float64(totalCases))
}

// OccupancyRate is occupied units per 100 available units.
func OccupancyRate(occupied, capacity int64) string {
	return Rate(float64(occupied), float64(capacity))
}

// VaccinationRate is vaccinated people per 100 residents.
func VaccinationRate(vaccinated, population int64) string {
	return Rate(float64(vaccinated), float64(population))
}

// PositivityRate is positive tests per 100 tests.
func PositivityRate(positive, total int64) string {
	return Rate(float64(positive), float64(total))
}

// IncidencePer100k is cases per 100,000 residents, two decimals.
func IncidencePer100k(cases, population int64) string {
	if population == 0 {
		return "0.00"
	}
	return decimal.NewFromInt(cases).
		Div(decimal.NewFromInt(population)).
		Mul(decimal.NewFromInt(100000)).
		StringFixed(2)
}

// ActiveCases is total - deaths - recovered, never negative.
func ActiveCases(total, deaths, recovered int64) int64 {
	return max(0, total-deaths-recovered)
}

// NonNegativeDelta is today - yesterday floored at zero. Corrections that
// lower a cumulative total produce 0 rather than a negative daily count.
func NonNegativeDelta(today, yesterday int64) int64 {
	return max(0, today-yesterday)
}

// Summary aggregates a series for reporting.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
}

// Summarize returns sum, average, max and min of values. An empty series
// yields the zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(values), Max: values[0], Min: values[0]}
	for _, v := range values {
		s.Sum += v
		s.Max = max(s.Max, v)
		s.Min = min(s.Min, v)
	}
	s.Avg = Round2(s.Sum / float64(len(values)))
	return s
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

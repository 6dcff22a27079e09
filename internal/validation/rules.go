// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package validation

import (
	"fmt"
	"strings"

	"github.com/tomtom215/kosovo-covid/internal/models"
)

// Outcome is the result of a domain rule check. Errors is empty when
// IsValid is true.
type Outcome struct {
	IsValid bool
	Errors  []FieldIssue
}

func (o *Outcome) fail(field, format string, args ...any) {
	o.IsValid = false
	o.Errors = append(o.Errors, FieldIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Error joins the messages; it is empty for a valid outcome.
func (o Outcome) Error() string {
	messages := make([]string, len(o.Errors))
	for i, e := range o.Errors {
		messages[i] = e.Message
	}
	return strings.Join(messages, "; ")
}

// ToAPIError converts a failed outcome into the 400 error shape.
func (o Outcome) ToAPIError() *APIError {
	message := "Validation failed"
	if len(o.Errors) == 1 {
		message = o.Errors[0].Message
	}
	return &APIError{Code: CodeValidationFailed, Message: message, Details: o.Errors}
}

// ValidateCaseRecord checks the cross-field case invariants. Deaths and
// recoveries cannot exceed confirmed cases, and a daily count cannot exceed
// its cumulative counterpart.
func ValidateCaseRecord(in *models.CaseInput) Outcome {
	out := Outcome{IsValid: true}
	if in.Deaths > in.TotalCases {
		out.fail("deaths", "deaths (%d) cannot exceed total_cases (%d)", in.Deaths, in.TotalCases)
	}
	if in.Recovered > in.TotalCases {
		out.fail("recovered", "recovered (%d) cannot exceed total_cases (%d)", in.Recovered, in.TotalCases)
	}
	if in.NewCases > in.TotalCases {
		out.fail("new_cases", "new_cases (%d) cannot exceed total_cases (%d)", in.NewCases, in.TotalCases)
	}
	if in.NewDeaths > in.Deaths {
		out.fail("new_deaths", "new_deaths (%d) cannot exceed deaths (%d)", in.NewDeaths, in.Deaths)
	}
	if in.NewRecovered > in.Recovered {
		out.fail("new_recovered", "new_recovered (%d) cannot exceed recovered (%d)", in.NewRecovered, in.Recovered)
	}
	if in.ICUPatients > in.Hospitalized {
		out.fail("icu_patients", "icu_patients (%d) cannot exceed hospitalized (%d)", in.ICUPatients, in.Hospitalized)
	}
	if in.VentilatorPatients > in.ICUPatients {
		out.fail("ventilator_patients", "ventilator_patients (%d) cannot exceed icu_patients (%d)", in.VentilatorPatients, in.ICUPatients)
	}
	return out
}

// ValidateHospitalOccupancy checks every occupancy counter against the
// matching capacity of h.
func ValidateHospitalOccupancy(h *models.Hospital, occ *models.HospitalOccupancy) Outcome {
	out := Outcome{IsValid: true}
	checks := []struct {
		field    string
		occupied int64
		capacity int64
		label    string
	}{
		{"occupied_beds", occ.OccupiedBeds, h.TotalBeds, "total_beds"},
		{"occupied_covid_beds", occ.OccupiedCovidBeds, h.CovidBeds, "covid_beds"},
		{"occupied_icu_beds", occ.OccupiedICUBeds, h.ICUBeds, "icu_beds"},
		{"ventilators_in_use", occ.VentilatorsInUse, h.Ventilators, "ventilators"},
	}
	for _, c := range checks {
		if c.occupied > c.capacity {
			out.fail(c.field, "%s (%d) cannot exceed %s (%d)", c.field, c.occupied, c.label, c.capacity)
		}
	}
	if occ.OccupiedCovidBeds > occ.OccupiedBeds {
		out.fail("occupied_covid_beds", "occupied_covid_beds (%d) cannot exceed occupied_beds (%d)", occ.OccupiedCovidBeds, occ.OccupiedBeds)
	}
	return out
}

// ValidateTestingRecord checks that the test breakdown adds up.
func ValidateTestingRecord(in *models.TestingInput) Outcome {
	out := Outcome{IsValid: true}
	if in.PCRTests+in.AntigenTests > in.TotalTests {
		out.fail("total_tests", "pcr_tests plus antigen_tests (%d) cannot exceed total_tests (%d)", in.PCRTests+in.AntigenTests, in.TotalTests)
	}
	if sum := in.PositiveTests + in.NegativeTests + in.PendingTests; sum > in.TotalTests {
		out.fail("total_tests", "positive, negative and pending tests (%d) cannot exceed total_tests (%d)", sum, in.TotalTests)
	}
	return out
}

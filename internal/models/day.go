// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// Package models defines the stored entities and the per-endpoint response
// shapes of the API.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DayLayout is the wire and query-parameter format of Day.
const DayLayout = "2006-01-02"

// Day is a calendar date held as UTC midnight. It maps to a DuckDB DATE
// column and serializes as YYYY-MM-DD.
type Day struct {
	time.Time
}

// NewDay returns the calendar date of t as seen in t's location.
func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in loc.
func Today(loc *time.Location) Day {
	return NewDay(time.Now().In(loc))
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Day{t}, nil
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Day) AddDays(n int) Day {
	return Day{d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD.
func (d Day) String() string {
	return d.Time.Format(DayLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Day) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("date must be a YYYY-MM-DD string")
	}
	parsed, err := ParseDay(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDay(v.UTC())
		return nil
	case string:
		parsed, err := ParseDay(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Day{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Day", src)
	}
}

// Value implements driver.Valuer.
func (d Day) Value() (driver.Value, error) {
	return d.Time, nil
}

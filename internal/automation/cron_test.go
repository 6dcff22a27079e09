// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package automation

import (
	"testing"
	"time"
)

func TestParseCron(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "every 30 minutes", expr: "*/30 * * * *"},
		{name: "daily at midnight", expr: "0 0 * * *"},
		{name: "monday at 8am", expr: "0 8 * * 1"},
		{name: "every 15 minutes", expr: "*/15 * * * *"},
		{name: "weekday range", expr: "0 * * * 1-5"},
		{name: "list", expr: "0,15,30,45 * * * *"},
		{name: "range with step", expr: "0-30/10 * * * *"},
		{name: "sunday as 7", expr: "0 0 * * 7"},
		{name: "too few fields", expr: "0 9 * *", wantErr: true},
		{name: "too many fields", expr: "0 9 * * * *", wantErr: true},
		{name: "invalid minute", expr: "60 9 * * *", wantErr: true},
		{name: "invalid hour", expr: "0 24 * * *", wantErr: true},
		{name: "invalid month", expr: "0 0 1 13 *", wantErr: true},
		{name: "zero step", expr: "*/0 * * * *", wantErr: true},
		{name: "reversed range", expr: "0 10-5 * * *", wantErr: true},
		{name: "empty list element", expr: "0, * * * *", wantErr: true},
		{name: "not a number", expr: "x * * * *", wantErr: true},
		{name: "empty", expr: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCron(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCron(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if err == nil && c.String() != tt.expr {
				t.Errorf("String() = %q, want %q", c.String(), tt.expr)
			}
		})
	}
}

func TestCronExpression_NextRun(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name     string
		expr     string
		after    time.Time
		expected time.Time
	}{
		{
			name:     "every 30 minutes from :10",
			expr:     "*/30 * * * *",
			after:    time.Date(2024, 1, 1, 12, 10, 0, 0, loc),
			expected: time.Date(2024, 1, 1, 12, 30, 0, 0, loc),
		},
		{
			name:     "every 30 minutes from exactly :30",
			expr:     "*/30 * * * *",
			after:    time.Date(2024, 1, 1, 12, 30, 0, 0, loc),
			expected: time.Date(2024, 1, 1, 13, 0, 0, 0, loc),
		},
		{
			name:     "seconds are truncated",
			expr:     "*/15 * * * *",
			after:    time.Date(2024, 1, 1, 12, 14, 59, 0, loc),
			expected: time.Date(2024, 1, 1, 12, 15, 0, 0, loc),
		},
		{
			name:     "midnight rolls to next day",
			expr:     "0 0 * * *",
			after:    time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
			expected: time.Date(2024, 1, 2, 0, 0, 0, 0, loc),
		},
		{
			name:     "monday 8am from sunday",
			expr:     "0 8 * * 1",
			after:    time.Date(2024, 1, 7, 10, 0, 0, 0, loc), // Sunday
			expected: time.Date(2024, 1, 8, 8, 0, 0, 0, loc),
		},
		{
			name:     "monday 8am from monday 9am",
			expr:     "0 8 * * 1",
			after:    time.Date(2024, 1, 8, 9, 0, 0, 0, loc),
			expected: time.Date(2024, 1, 15, 8, 0, 0, 0, loc),
		},
		{
			name:     "sunday written as 7",
			expr:     "0 0 * * 7",
			after:    time.Date(2024, 1, 8, 0, 0, 0, 0, loc),
			expected: time.Date(2024, 1, 14, 0, 0, 0, 0, loc),
		},
		{
			name:     "year boundary",
			expr:     "0 0 1 1 *",
			after:    time.Date(2024, 6, 1, 0, 0, 0, 0, loc),
			expected: time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		},
		{
			name:     "leap day",
			expr:     "0 0 29 2 *",
			after:    time.Date(2024, 3, 1, 0, 0, 0, 0, loc),
			expected: time.Date(2028, 2, 29, 0, 0, 0, 0, loc),
		},
		{
			name:     "day-of-month or day-of-week",
			expr:     "0 0 15 * 1",
			after:    time.Date(2024, 1, 9, 0, 0, 0, 0, loc), // Tuesday
			expected: time.Date(2024, 1, 15, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCron(tt.expr)
			if err != nil {
				t.Fatalf("ParseCron: %v", err)
			}
			got := c.NextRun(tt.after, loc)
			if !got.Equal(tt.expected) {
				t.Errorf("NextRun(%v) = %v, want %v", tt.after, got, tt.expected)
			}
		})
	}
}

func TestCronExpression_NextRunImpossible(t *testing.T) {
	c, err := ParseCron("0 0 31 2 *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}
	if got := c.NextRun(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil); !got.IsZero() {
		t.Errorf("expected zero time for 31 February, got %v", got)
	}
}

func TestCronExpression_NextRunLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	c, err := ParseCron("0 0 * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}

	// 22:30 UTC is 23:30 local; local midnight is 23:00 UTC.
	after := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)
	got := c.NextRun(after, loc)
	want := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun = %v, want %v", got.UTC(), want)
	}
	if got.Location() != loc {
		t.Errorf("NextRun location = %v, want %v", got.Location(), loc)
	}
}

func TestCronExpression_Matches(t *testing.T) {
	c, err := ParseCron("*/15 9-17 * * 1-5")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday in window", time.Date(2024, 1, 8, 9, 45, 0, 0, time.UTC), true},
		{"off minute", time.Date(2024, 1, 8, 9, 44, 0, 0, time.UTC), false},
		{"after hours", time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC), false},
		{"saturday", time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Matches(tt.t); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

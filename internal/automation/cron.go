// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package automation

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// cronSet is a bitmask of allowed values for one cron field.
type cronSet uint64

func (s cronSet) has(v int) bool { return s&(1<<uint(v)) != 0 }

func (s cronSet) count() int { return bits.OnesCount64(uint64(s)) }

// CronExpression is a parsed 5-field cron schedule:
// minute hour day-of-month month day-of-week.
type CronExpression struct {
	expr        string
	minutes     cronSet
	hours       cronSet
	daysOfMonth cronSet
	months      cronSet
	daysOfWeek  cronSet
	domAny      bool
	dowAny      bool
}

type cronField struct {
	name     string
	min, max int
}

var cronFields = [5]cronField{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 7},
}

// ParseCron parses a 5-field cron expression. Each field accepts *, n,
// n-m, comma lists, */s and n-m/s. Day-of-week 7 is Sunday. When both
// day fields are restricted, a time matches if either one matches.
func ParseCron(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != len(cronFields) {
		return nil, fmt.Errorf("cron expression %q must have 5 fields, got %d", expr, len(fields))
	}

	var sets [5]cronSet
	for i, f := range cronFields {
		set, err := parseCronField(fields[i], f.min, f.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field %q: %w", f.name, fields[i], err)
		}
		sets[i] = set
	}

	dow := sets[4]
	if dow.has(7) {
		dow = (dow &^ (1 << 7)) | 1
	}

	return &CronExpression{
		expr:        expr,
		minutes:     sets[0],
		hours:       sets[1],
		daysOfMonth: sets[2],
		months:      sets[3],
		daysOfWeek:  dow,
		domAny:      sets[2].count() == 31,
		dowAny:      dow.count() == 7,
	}, nil
}

// String returns the expression as parsed.
func (c *CronExpression) String() string {
	return c.expr
}

// NextRun returns the first matching minute strictly after after, in loc
// (UTC when nil). The zero time is returned if nothing matches within four
// years, which only happens for impossible dates such as 31 February.
func (c *CronExpression) NextRun(after time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := after.In(loc).Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(4, 0, 0)

	for t.Before(limit) {
		if !c.months.has(int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
			continue
		}
		if !c.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
			continue
		}
		if !c.hours.has(t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc)
			continue
		}
		if !c.minutes.has(t.Minute()) {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}
	return time.Time{}
}

// Matches reports whether t (in its own location) falls on a scheduled
// minute.
func (c *CronExpression) Matches(t time.Time) bool {
	return c.minutes.has(t.Minute()) &&
		c.hours.has(t.Hour()) &&
		c.months.has(int(t.Month())) &&
		c.dayMatches(t)
}

func (c *CronExpression) dayMatches(t time.Time) bool {
	dom := c.daysOfMonth.has(t.Day())
	dow := c.daysOfWeek.has(int(t.Weekday()))
	switch {
	case c.domAny && c.dowAny:
		return true
	case c.domAny:
		return dow
	case c.dowAny:
		return dom
	default:
		return dom || dow
	}
}

func parseCronField(field string, lo, hi int) (cronSet, error) {
	var set cronSet
	for _, part := range strings.Split(field, ",") {
		s, err := parseCronPart(part, lo, hi)
		if err != nil {
			return 0, err
		}
		set |= s
	}
	return set, nil
}

func parseCronPart(part string, lo, hi int) (cronSet, error) {
	if part == "" {
		return 0, fmt.Errorf("empty list element")
	}

	rangePart, stepPart, hasStep := strings.Cut(part, "/")
	step := 1
	if hasStep {
		n, err := strconv.Atoi(stepPart)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step %q", stepPart)
		}
		step = n
	}

	start, end := lo, hi
	switch {
	case rangePart == "*":
	case strings.Contains(rangePart, "-"):
		a, b, _ := strings.Cut(rangePart, "-")
		var err error
		if start, err = cronValue(a, lo, hi); err != nil {
			return 0, err
		}
		if end, err = cronValue(b, lo, hi); err != nil {
			return 0, err
		}
		if start > end {
			return 0, fmt.Errorf("range %d-%d is reversed", start, end)
		}
	default:
		v, err := cronValue(rangePart, lo, hi)
		if err != nil {
			return 0, err
		}
		start = v
		if !hasStep {
			end = v
		}
	}

	var set cronSet
	for v := start; v <= end; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}

func cronValue(s string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("value %d out of range %d-%d", v, lo, hi)
	}
	return v, nil
}

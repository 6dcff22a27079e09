// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// Package query builds the optional WHERE conditions and pagination shared
// by the list endpoints on top of squirrel.
package query

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/kosovo-covid/internal/models"
)

// Builder is the statement builder every store query starts from. DuckDB
// takes ? placeholders.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Filter collects optional conditions. Nil and empty inputs are skipped, so
// a Filter built from an empty request matches every row.
//
// Example usage:
//
//	f := query.NewFilter().
//	    Int64("c.region_id", filter.RegionID).
//	    DateRange("c.date", filter.From, filter.To)
//	stmt := f.Apply(query.Builder.Select("*").From("daily_cases c"))
type Filter struct {
	conds sq.And
}

// NewFilter creates an empty Filter.
func NewFilter() *Filter {
	return &Filter{conds: sq.And{}}
}

// Int64 adds column = *v when v is non-nil.
func (f *Filter) Int64(column string, v *int64) *Filter {
	if v != nil {
		f.conds = append(f.conds, sq.Eq{column: *v})
	}
	return f
}

// String adds column = v when v is non-empty.
func (f *Filter) String(column, v string) *Filter {
	if v != "" {
		f.conds = append(f.conds, sq.Eq{column: v})
	}
	return f
}

// DateRange adds inclusive bounds for the non-nil ends.
func (f *Filter) DateRange(column string, from, to *models.Day) *Filter {
	if from != nil {
		f.conds = append(f.conds, sq.GtOrEq{column: from.Time})
	}
	if to != nil {
		f.conds = append(f.conds, sq.LtOrEq{column: to.Time})
	}
	return f
}

// Since adds column >= from when from is non-nil.
func (f *Filter) Since(column string, from *models.Day) *Filter {
	return f.DateRange(column, from, nil)
}

// IsEmpty reports whether no condition was added.
func (f *Filter) IsEmpty() bool {
	return len(f.conds) == 0
}

// Apply attaches the conditions to b.
func (f *Filter) Apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.IsEmpty() {
		return b
	}
	return b.Where(f.conds)
}

// Paginate applies LIMIT and OFFSET. A non-positive limit leaves the
// statement unbounded.
func Paginate(b sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}

// Summary periods accepted by /cases/summary and /testing/summary.
const (
	Period7d  = "7d"
	Period30d = "30d"
	Period90d = "90d"
	PeriodAll = "all"
)

// PeriodStart returns the first day covered by period ending on today, or
// nil for "all".
func PeriodStart(period string, today models.Day) (*models.Day, error) {
	var days int
	switch period {
	case Period7d:
		days = 7
	case Period30d:
		days = 30
	case Period90d:
		days = 90
	case PeriodAll, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}
	start := today.AddDays(-(days - 1))
	return &start, nil
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package database

import (
	"context"
	"time"

	"github.com/tomtom215/kosovo-covid/internal/database/query"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// freshnessTables are the tables written by automation.
var freshnessTables = []string{
	tableDailyCases,
	tableVaccinations,
	tableHospitals,
	tableTestingData,
}

// TableFreshness reports when each automation-written table last changed.
// The age is computed by DuckDB against its own clock.
func (db *DB) TableFreshness(ctx context.Context, freshAfter, staleAfter time.Duration) Result[[]models.TableFreshness] {
	out := make([]models.TableFreshness, 0, len(freshnessTables))
	for _, table := range freshnessTables {
		stmt := query.Builder.Select(
			"MAX(updated_at)",
			"date_diff('second', MAX(updated_at), CAST(CURRENT_TIMESTAMP AS TIMESTAMP))",
		).From(table)

		res := QueryOne(ctx, db.conn, Op{"table_freshness", table}, stmt,
			func(rs RowScanner) (models.TableFreshness, error) {
				f := models.TableFreshness{Table: table}
				err := rs.Scan(&f.LastUpdated, &f.AgeSeconds)
				return f, err
			})
		if !res.Success {
			return Fail[[]models.TableFreshness](res.Err())
		}

		f := models.TableFreshness{Table: table}
		if res.Data != nil {
			f = *res.Data
		}
		f.Status = FreshnessStatus(f.AgeSeconds, freshAfter, staleAfter)
		out = append(out, f)
	}
	return OK(out)
}

// FreshnessStatus buckets an age: fresh up to freshAfter, stale up to
// staleAfter, very-stale beyond. A nil age means the table is empty.
func FreshnessStatus(ageSeconds *int64, freshAfter, staleAfter time.Duration) string {
	if ageSeconds == nil {
		return models.FreshnessNoData
	}
	age := time.Duration(*ageSeconds) * time.Second
	switch {
	case age <= freshAfter:
		return models.FreshnessFresh
	case age <= staleAfter:
		return models.FreshnessStale
	default:
		return models.FreshnessVeryStale
	}
}

// DatabaseStats returns the row count of every table.
func (db *DB) DatabaseStats(ctx context.Context) Result[[]models.TableCount] {
	out := make([]models.TableCount, 0, len(AllTables))
	for _, table := range AllTables {
		n := Scalar[int64](ctx, db.conn, Op{"table_count", table},
			query.Builder.Select("COUNT(*)").From(table))
		if !n.Success {
			return Fail[[]models.TableCount](n.Err())
		}
		out = append(out, models.TableCount{Table: table, Rows: n.Data})
	}
	return OK(out)
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package database

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/kosovo-covid/internal/database/query"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// ListDataSources returns the status row of every external source.
func (db *DB) ListDataSources(ctx context.Context) Result[[]models.DataSourceStatus] {
	stmt := query.Builder.Select("id", "name", "url", "last_updated", "last_success",
		"error_count", "last_error", "status").
		From("data_source_status").
		OrderBy("name")

	return Query(ctx, db.conn, Op{"list_data_sources", tableDataSources}, stmt,
		func(rs RowScanner) (models.DataSourceStatus, error) {
			var s models.DataSourceStatus
			err := rs.Scan(&s.ID, &s.Name, &s.URL, &s.LastUpdated, &s.LastSuccess,
				&s.ErrorCount, &s.LastError, &s.Status)
			return s, err
		})
}

// EnsureDataSource creates the status row for name if it is missing and
// refreshes its URL otherwise.
func (db *DB) EnsureDataSource(ctx context.Context, name, url string) Result[int64] {
	return ensureDataSource(ctx, db.conn, name, url)
}

func ensureDataSource(ctx context.Context, q Querier, name, url string) Result[int64] {
	stmt := query.Builder.Insert("data_source_status").
		Columns("name", "url").
		Values(name, url).
		Suffix("ON CONFLICT (name) DO UPDATE SET url = EXCLUDED.url")
	return Exec(ctx, q, Op{"ensure_data_source", tableDataSources}, stmt)
}

// RecordSourceSuccess marks name active and stamps last_updated and
// last_success. The error counter is kept as a lifetime total.
func (db *DB) RecordSourceSuccess(ctx context.Context, name string) Result[int64] {
	stmt := query.Builder.Update("data_source_status").
		Set("last_updated", sq.Expr("now()")).
		Set("last_success", sq.Expr("now()")).
		Set("status", models.SourceStatusActive).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"name": name})
	return Exec(ctx, db.conn, Op{"record_source_success", tableDataSources}, stmt)
}

// RecordSourceError increments the error counter of name and stores msg.
func (db *DB) RecordSourceError(ctx context.Context, name, msg string) Result[int64] {
	stmt := query.Builder.Update("data_source_status").
		Set("last_updated", sq.Expr("now()")).
		Set("error_count", sq.Expr("error_count + 1")).
		Set("last_error", msg).
		Set("status", models.SourceStatusError).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"name": name})
	return Exec(ctx, db.conn, Op{"record_source_error", tableDataSources}, stmt)
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/kosovo-covid/internal/logging"
	"github.com/tomtom215/kosovo-covid/internal/metrics"
)

// Result is the uniform outcome of every store call. Exactly one of Data
// (on success) or Error (on failure) is meaningful.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Success: true, Data: v}
}

// Fail wraps err. A nil err still produces a failed result.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result[T]{Error: err.Error(), err: err}
}

// Err returns the failure as an error, or nil on success. The original
// error is preserved for errors.Is checks.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return errors.New(r.Error)
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RowScanner is the Scan method of *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Op names a statement for logs and metrics.
type Op struct {
	Name  string
	Table string
}

// Query runs stmt and scans every row with scan. It never panics; a panic
// inside scan becomes a failed Result.
func Query[T any](ctx context.Context, q Querier, op Op, stmt sq.Sqlizer, scan func(RowScanner) (T, error)) (res Result[[]T]) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = Fail[[]T](fmt.Errorf("panic in %s: %v", op.Name, rec))
		}
		finish(ctx, op, start, res.err)
	}()

	query, args, err := stmt.ToSql()
	if err != nil {
		return Fail[[]T](fmt.Errorf("build %s: %w", op.Name, err))
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return Fail[[]T](fmt.Errorf("%s: %w", op.Name, err))
	}
	defer closeQuietly(rows)

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return Fail[[]T](fmt.Errorf("scan %s: %w", op.Name, err))
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return Fail[[]T](fmt.Errorf("iterate %s: %w", op.Name, err))
	}
	return OK(out)
}

// QueryOne runs stmt and scans the first row. Data is nil when the query
// matched nothing; callers map that to 404.
func QueryOne[T any](ctx context.Context, q Querier, op Op, stmt sq.Sqlizer, scan func(RowScanner) (T, error)) Result[*T] {
	res := Query(ctx, q, op, stmt, scan)
	if !res.Success {
		return Result[*T]{Error: res.Error, err: res.err}
	}
	if len(res.Data) == 0 {
		return OK[*T](nil)
	}
	return OK(&res.Data[0])
}

// Exec runs a statement that returns no rows and reports rows affected.
func Exec(ctx context.Context, q Querier, op Op, stmt sq.Sqlizer) (res Result[int64]) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = Fail[int64](fmt.Errorf("panic in %s: %v", op.Name, rec))
		}
		finish(ctx, op, start, res.err)
	}()

	query, args, err := stmt.ToSql()
	if err != nil {
		return Fail[int64](fmt.Errorf("build %s: %w", op.Name, err))
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return Fail[int64](fmt.Errorf("%s: %w", op.Name, err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		// Some statements (DDL, CHECKPOINT) cannot report a count.
		return OK[int64](0)
	}
	return OK(n)
}

// Scalar runs stmt and scans a single value from the first row.
func Scalar[T any](ctx context.Context, q Querier, op Op, stmt sq.Sqlizer) Result[T] {
	res := QueryOne(ctx, q, op, stmt, func(rs RowScanner) (T, error) {
		var v T
		err := rs.Scan(&v)
		return v, err
	})
	if !res.Success {
		return Result[T]{Error: res.Error, err: res.err}
	}
	if res.Data == nil {
		var zero T
		return OK(zero)
	}
	return OK(*res.Data)
}

func finish(ctx context.Context, op Op, start time.Time, err error) {
	metrics.RecordDBQuery(op.Name, op.Table, time.Since(start), err)
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("operation", op.Name).
			Str("table", op.Table).
			Msg("Database operation failed")
	}
}

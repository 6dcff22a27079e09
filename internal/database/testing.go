// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package database

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/kosovo-covid/internal/analytics"
	"github.com/tomtom215/kosovo-covid/internal/database/query"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

const testingColumns = `t.id, t.date, t.region_id, r.name, t.total_tests, t.pcr_tests,
	t.antigen_tests, t.positive_tests, t.negative_tests, t.pending_tests,
	t.created_at, t.updated_at`

func scanTesting(rs RowScanner) (models.TestingRecord, error) {
	var t models.TestingRecord
	if err := rs.Scan(&t.ID, &t.Date, &t.RegionID, &t.RegionName, &t.TotalTests, &t.PCRTests,
		&t.AntigenTests, &t.PositiveTests, &t.NegativeTests, &t.PendingTests,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, err
	}
	t.PositivityRate = analytics.PositivityRate(t.PositiveTests, t.TotalTests)
	return t, nil
}

func testingSelect() sq.SelectBuilder {
	return query.Builder.Select(testingColumns).
		From("testing_data t").
		Join("regions r ON r.id = t.region_id")
}

func testingFilter(f *models.TestingFilter) *query.Filter {
	return query.NewFilter().
		Int64("t.region_id", f.RegionID).
		DateRange("t.date", f.From, f.To)
}

// ListTesting returns testing rows newest first.
func (db *DB) ListTesting(ctx context.Context, f models.TestingFilter) Result[[]models.TestingRecord] {
	stmt := testingFilter(&f).Apply(testingSelect()).OrderBy("t.date DESC", "t.region_id")
	stmt = query.Paginate(stmt, f.Limit, f.Offset)
	return Query(ctx, db.conn, Op{"list_testing", tableTestingData}, stmt, scanTesting)
}

// CountTesting counts the rows ListTesting would return.
func (db *DB) CountTesting(ctx context.Context, f models.TestingFilter) Result[int64] {
	stmt := testingFilter(&f).Apply(query.Builder.Select("COUNT(*)").From("testing_data t"))
	return Scalar[int64](ctx, db.conn, Op{"count_testing", tableTestingData}, stmt)
}

// GetTesting returns one row; Data is nil when id does not exist.
func (db *DB) GetTesting(ctx context.Context, id int64) Result[*models.TestingRecord] {
	stmt := testingSelect().Where(sq.Eq{"t.id": id})
	return QueryOne(ctx, db.conn, Op{"get_testing", tableTestingData}, stmt, scanTesting)
}

// TestingSummary sums tests over period ending today and derives the
// positivity rate.
func (db *DB) TestingSummary(ctx context.Context, period string, today models.Day) Result[models.TestingSummary] {
	from, err := query.PeriodStart(period, today)
	if err != nil {
		return Fail[models.TestingSummary](err)
	}
	if period == "" {
		period = query.PeriodAll
	}

	stmt := query.NewFilter().DateRange("date", from, &today).Apply(
		query.Builder.Select(
			sumBigint("total_tests"), sumBigint("pcr_tests"), sumBigint("antigen_tests"),
			sumBigint("positive_tests"), sumBigint("negative_tests"), sumBigint("pending_tests"),
			"MAX(date)",
		).From("testing_data"),
	)
	res := QueryOne(ctx, db.conn, Op{"testing_summary", tableTestingData}, stmt,
		func(rs RowScanner) (models.TestingSummary, error) {
			s := models.TestingSummary{Period: period, From: from}
			var latest models.Day
			err := rs.Scan(&s.TotalTests, &s.PCRTests, &s.AntigenTests,
				&s.PositiveTests, &s.NegativeTests, &s.PendingTests, &latest)
			if !latest.IsZero() {
				s.To = &latest
			}
			return s, err
		})
	if !res.Success {
		return Fail[models.TestingSummary](res.Err())
	}

	summary := models.TestingSummary{Period: period, From: from}
	if res.Data != nil {
		summary = *res.Data
	}
	summary.PositivityRate = analytics.PositivityRate(summary.PositiveTests, summary.TotalTests)

	centers := QueryOne(ctx, db.conn, Op{"testing_center_totals", tableTestingCenters},
		query.Builder.Select("COUNT(*)", sumBigint("daily_capacity")).From("testing_centers"),
		func(rs RowScanner) ([2]int64, error) {
			var v [2]int64
			err := rs.Scan(&v[0], &v[1])
			return v, err
		})
	if !centers.Success {
		return Fail[models.TestingSummary](centers.Err())
	}
	if centers.Data != nil {
		summary.Centers, summary.DailyCapacity = centers.Data[0], centers.Data[1]
	}
	return OK(summary)
}

// TestingDailySeries returns national test counts per date ending on today,
// oldest first.
func (db *DB) TestingDailySeries(ctx context.Context, days int, today models.Day) Result[[]models.TestingDailyTotals] {
	stmt := query.Builder.Select("date", sumBigint("total_tests"), sumBigint("positive_tests")).
		From("testing_data").
		Where(sq.LtOrEq{"date": today.Time}).
		GroupBy("date").
		OrderBy("date")
	if days > 0 {
		stmt = stmt.Where(sq.GtOrEq{"date": today.AddDays(-(days - 1)).Time})
	}

	return Query(ctx, db.conn, Op{"testing_daily_series", tableTestingData}, stmt,
		func(rs RowScanner) (models.TestingDailyTotals, error) {
			var d models.TestingDailyTotals
			err := rs.Scan(&d.Date, &d.TotalTests, &d.PositiveTests)
			return d, err
		})
}

// ListTestingCenters returns centers, optionally limited to one region.
func (db *DB) ListTestingCenters(ctx context.Context, regionID *int64) Result[[]models.TestingCenter] {
	stmt := query.NewFilter().Int64("tc.region_id", regionID).Apply(
		query.Builder.Select("tc.id", "tc.region_id", "r.name", "tc.municipality_id",
			"tc.name", "tc.type", "tc.daily_capacity", "tc.created_at").
			From("testing_centers tc").
			Join("regions r ON r.id = tc.region_id"),
	).OrderBy("r.name", "tc.name")

	return Query(ctx, db.conn, Op{"list_testing_centers", tableTestingCenters}, stmt,
		func(rs RowScanner) (models.TestingCenter, error) {
			var c models.TestingCenter
			err := rs.Scan(&c.ID, &c.RegionID, &c.RegionName, &c.MunicipalityID,
				&c.Name, &c.Type, &c.DailyCapacity, &c.CreatedAt)
			return c, err
		})
}

// InsertTesting stores a validated POST /testing body.
func (db *DB) InsertTesting(ctx context.Context, in models.TestingInput) Result[*models.TestingRecord] {
	date, err := models.ParseDay(in.Date)
	if err != nil {
		return Fail[*models.TestingRecord](err)
	}

	stmt := query.Builder.Insert("testing_data").
		Columns("date", "region_id", "total_tests", "pcr_tests", "antigen_tests",
			"positive_tests", "negative_tests", "pending_tests").
		Values(date.Time, in.RegionID, in.TotalTests, in.PCRTests, in.AntigenTests,
			in.PositiveTests, in.NegativeTests, in.PendingTests).
		Suffix("RETURNING id")

	id := Scalar[int64](ctx, db.conn, Op{"insert_testing", tableTestingData}, stmt)
	if !id.Success {
		return Fail[*models.TestingRecord](classifyWriteError(id.Err()))
	}
	return db.GetTesting(ctx, id.Data)
}

// UpsertTestingDelta adds d to the (date, region) testing row, creating it
// when absent. Testing counters are daily, so a new row starts at d.
func (db *DB) UpsertTestingDelta(ctx context.Context, date models.Day, regionID int64, d models.TestingDelta) Result[int64] {
	stmt := query.Builder.Insert("testing_data").
		Columns("date", "region_id", "total_tests", "pcr_tests", "antigen_tests",
			"positive_tests", "negative_tests", "pending_tests").
		Values(date.Time, regionID, d.Total(), d.PCRTests, d.AntigenTests,
			d.PositiveTests, d.NegativeTests, d.PendingTests).
		Suffix(`ON CONFLICT (date, region_id) DO UPDATE SET
			total_tests = total_tests + EXCLUDED.total_tests,
			pcr_tests = pcr_tests + EXCLUDED.pcr_tests,
			antigen_tests = antigen_tests + EXCLUDED.antigen_tests,
			positive_tests = positive_tests + EXCLUDED.positive_tests,
			negative_tests = negative_tests + EXCLUDED.negative_tests,
			pending_tests = pending_tests + EXCLUDED.pending_tests,
			updated_at = now()`)

	return Exec(ctx, db.conn, Op{"upsert_testing_delta", tableTestingData}, stmt)
}

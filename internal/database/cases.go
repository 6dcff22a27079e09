// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package database

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/kosovo-covid/internal/analytics"
	"github.com/tomtom215/kosovo-covid/internal/database/query"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

const caseColumns = `c.id, c.date, c.region_id, r.name, c.total_cases, c.new_cases,
	c.active_cases, c.deaths, c.new_deaths, c.recovered, c.new_recovered,
	c.hospitalized, c.icu_patients, c.ventilator_patients, c.moving_avg_7d,
	c.created_at, c.updated_at`

// latestCaseDates maps each region to the date of its newest case row.
const latestCaseDates = `(SELECT region_id, MAX(date) AS max_date FROM daily_cases GROUP BY region_id)`

func scanCase(rs RowScanner) (models.DailyCaseRecord, error) {
	var c models.DailyCaseRecord
	err := rs.Scan(
		&c.ID, &c.Date, &c.RegionID, &c.RegionName, &c.TotalCases, &c.NewCases,
		&c.ActiveCases, &c.Deaths, &c.NewDeaths, &c.Recovered, &c.NewRecovered,
		&c.Hospitalized, &c.ICUPatients, &c.VentilatorPatients, &c.MovingAvg7d,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// sumBigint sums a BIGINT column. DuckDB widens SUM(BIGINT) to HUGEINT,
// which database/sql cannot scan into int64.
func sumBigint(expr string) string {
	return fmt.Sprintf("CAST(COALESCE(SUM(%s), 0) AS BIGINT)", expr)
}

func caseSelect() sq.SelectBuilder {
	return query.Builder.Select(caseColumns).
		From("daily_cases c").
		Join("regions r ON r.id = c.region_id")
}

func caseFilter(f *models.CaseFilter) *query.Filter {
	return query.NewFilter().
		Int64("c.region_id", f.RegionID).
		DateRange("c.date", f.From, f.To)
}

// ListCases returns case rows newest first.
func (db *DB) ListCases(ctx context.Context, f models.CaseFilter) Result[[]models.DailyCaseRecord] {
	stmt := caseFilter(&f).Apply(caseSelect()).OrderBy("c.date DESC", "c.region_id ASC")
	stmt = query.Paginate(stmt, f.Limit, f.Offset)
	return Query(ctx, db.conn, Op{"list_cases", tableDailyCases}, stmt, scanCase)
}

// CountCases counts the rows ListCases would return without pagination.
func (db *DB) CountCases(ctx context.Context, f models.CaseFilter) Result[int64] {
	stmt := caseFilter(&f).Apply(query.Builder.Select("COUNT(*)").From("daily_cases c"))
	return Scalar[int64](ctx, db.conn, Op{"count_cases", tableDailyCases}, stmt)
}

// GetCase returns one case row; Data is nil when id does not exist.
func (db *DB) GetCase(ctx context.Context, id int64) Result[*models.DailyCaseRecord] {
	stmt := caseSelect().Where(sq.Eq{"c.id": id})
	return QueryOne(ctx, db.conn, Op{"get_case", tableDailyCases}, stmt, scanCase)
}

// GetRegionDay returns the row for (date, region); Data is nil when absent.
func (db *DB) GetRegionDay(ctx context.Context, date models.Day, regionID int64) Result[*models.DailyCaseRecord] {
	stmt := caseSelect().Where(sq.Eq{"c.date": date.Time, "c.region_id": regionID})
	return QueryOne(ctx, db.conn, Op{"get_region_day", tableDailyCases}, stmt, scanCase)
}

// CaseExists reports whether (date, region) already has a row.
func (db *DB) CaseExists(ctx context.Context, date models.Day, regionID int64) Result[bool] {
	stmt := query.Builder.Select("COUNT(*) > 0").
		From("daily_cases").
		Where(sq.Eq{"date": date.Time, "region_id": regionID})
	return Scalar[bool](ctx, db.conn, Op{"case_exists", tableDailyCases}, stmt)
}

// LatestCases returns the newest row of every region.
func (db *DB) LatestCases(ctx context.Context) Result[[]models.DailyCaseRecord] {
	stmt := caseSelect().
		Join(latestCaseDates + " m ON m.region_id = c.region_id AND m.max_date = c.date").
		OrderBy("r.name")
	return Query(ctx, db.conn, Op{"latest_cases", tableDailyCases}, stmt, scanCase)
}

// CaseSummary returns national totals: cumulative counters as of each
// region's latest row, and daily counters summed over period ending today.
func (db *DB) CaseSummary(ctx context.Context, period string, today models.Day) Result[models.CaseSummary] {
	from, err := query.PeriodStart(period, today)
	if err != nil {
		return Fail[models.CaseSummary](err)
	}
	if period == "" {
		period = query.PeriodAll
	}

	cumulative := query.Builder.Select(
		sumBigint("c.total_cases"),
		sumBigint("c.active_cases"),
		sumBigint("c.deaths"),
		sumBigint("c.recovered"),
		sumBigint("c.hospitalized"),
		sumBigint("c.icu_patients"),
		"MAX(c.date)",
	).From("daily_cases c").
		Join(latestCaseDates + " m ON m.region_id = c.region_id AND m.max_date = c.date")

	type totals struct {
		total, active, deaths, recovered, hospitalized, icu int64
		latest                                              models.Day
	}
	cum := QueryOne(ctx, db.conn, Op{"case_summary_cumulative", tableDailyCases}, cumulative,
		func(rs RowScanner) (totals, error) {
			var t totals
			err := rs.Scan(&t.total, &t.active, &t.deaths, &t.recovered, &t.hospitalized, &t.icu, &t.latest)
			return t, err
		})
	if !cum.Success {
		return Fail[models.CaseSummary](cum.Err())
	}

	daily := query.NewFilter().DateRange("date", from, &today).Apply(
		query.Builder.Select(
			sumBigint("new_cases"),
			sumBigint("new_deaths"),
			sumBigint("new_recovered"),
			"COUNT(DISTINCT date)",
		).From("daily_cases"),
	)
	type periodSums struct {
		cases, deaths, recovered, days int64
	}
	sums := QueryOne(ctx, db.conn, Op{"case_summary_period", tableDailyCases}, daily,
		func(rs RowScanner) (periodSums, error) {
			var p periodSums
			err := rs.Scan(&p.cases, &p.deaths, &p.recovered, &p.days)
			return p, err
		})
	if !sums.Success {
		return Fail[models.CaseSummary](sums.Err())
	}

	var t totals
	if cum.Data != nil {
		t = *cum.Data
	}
	var p periodSums
	if sums.Data != nil {
		p = *sums.Data
	}

	summary := models.CaseSummary{
		Period:           period,
		From:             from,
		TotalCases:       t.total,
		ActiveCases:      t.active,
		Deaths:           t.deaths,
		Recovered:        t.recovered,
		NewCases:         p.cases,
		NewDeaths:        p.deaths,
		NewRecovered:     p.recovered,
		Hospitalized:     t.hospitalized,
		ICUPatients:      t.icu,
		CaseFatalityRate: analytics.CaseFatalityRate(t.deaths, t.total),
		RecoveryRate:     analytics.RecoveryRate(t.recovered, t.total),
	}
	if !t.latest.IsZero() {
		latest := t.latest
		summary.To = &latest
	}
	if p.days > 0 {
		summary.AvgDailyNewCases = analytics.Round2(float64(p.cases) / float64(p.days))
	}
	return OK(summary)
}

// NationalDailySeries returns per-date national sums for the days ending on
// today, oldest first. days <= 0 returns the full history.
func (db *DB) NationalDailySeries(ctx context.Context, days int, today models.Day) Result[[]models.DailyTotals] {
	stmt := query.Builder.Select(
		"date",
		sumBigint("total_cases"),
		sumBigint("new_cases"),
		sumBigint("active_cases"),
		sumBigint("deaths"),
		sumBigint("new_deaths"),
		sumBigint("recovered"),
		sumBigint("new_recovered"),
	).From("daily_cases").
		Where(sq.LtOrEq{"date": today.Time}).
		GroupBy("date").
		OrderBy("date")
	if days > 0 {
		stmt = stmt.Where(sq.GtOrEq{"date": today.AddDays(-(days - 1)).Time})
	}

	return Query(ctx, db.conn, Op{"national_daily_series", tableDailyCases}, stmt,
		func(rs RowScanner) (models.DailyTotals, error) {
			var d models.DailyTotals
			err := rs.Scan(&d.Date, &d.TotalCases, &d.NewCases, &d.ActiveCases,
				&d.Deaths, &d.NewDeaths, &d.Recovered, &d.NewRecovered)
			return d, err
		})
}

// RegionCaseSeries returns one region's rows between from and to inclusive,
// oldest first.
func (db *DB) RegionCaseSeries(ctx context.Context, regionID int64, from, to models.Day) Result[[]models.DailyCaseRecord] {
	stmt := caseSelect().
		Where(sq.Eq{"c.region_id": regionID}).
		Where(sq.GtOrEq{"c.date": from.Time}).
		Where(sq.LtOrEq{"c.date": to.Time}).
		OrderBy("c.date")
	return Query(ctx, db.conn, Op{"region_case_series", tableDailyCases}, stmt, scanCase)
}

// InsertCase stores a validated POST /cases body. A second row for the
// same (date, region) fails with ErrDuplicate; an unknown region with
// ErrUnknownRegion.
func (db *DB) InsertCase(ctx context.Context, in models.CaseInput) Result[*models.DailyCaseRecord] {
	date, err := models.ParseDay(in.Date)
	if err != nil {
		return Fail[*models.DailyCaseRecord](err)
	}
	active := analytics.ActiveCases(in.TotalCases, in.Deaths, in.Recovered)
	if in.ActiveCases != nil {
		active = *in.ActiveCases
	}

	stmt := query.Builder.Insert("daily_cases").
		Columns("date", "region_id", "total_cases", "new_cases", "active_cases",
			"deaths", "new_deaths", "recovered", "new_recovered",
			"hospitalized", "icu_patients", "ventilator_patients").
		Values(date.Time, in.RegionID, in.TotalCases, in.NewCases, active,
			in.Deaths, in.NewDeaths, in.Recovered, in.NewRecovered,
			in.Hospitalized, in.ICUPatients, in.VentilatorPatients).
		Suffix("RETURNING id")

	id := Scalar[int64](ctx, db.conn, Op{"insert_case", tableDailyCases}, stmt)
	if !id.Success {
		return Fail[*models.DailyCaseRecord](classifyWriteError(id.Err()))
	}
	return db.GetCase(ctx, id.Data)
}

// previousCase returns the newest row of region strictly before date.
func (db *DB) previousCase(ctx context.Context, date models.Day, regionID int64) Result[*models.DailyCaseRecord] {
	stmt := caseSelect().
		Where(sq.Eq{"c.region_id": regionID}).
		Where(sq.Lt{"c.date": date.Time}).
		OrderBy("c.date DESC").
		Limit(1)
	return QueryOne(ctx, db.conn, Op{"previous_case", tableDailyCases}, stmt, scanCase)
}

// UpsertDailyCaseDelta adds d to the (date, region) row. When the row is
// absent it is created from the region's previous cumulative totals plus
// d. Applying the same delta N times accumulates N deltas. active_cases is
// recomputed and clamped at zero; the patient counts are last-write-wins.
func (db *DB) UpsertDailyCaseDelta(ctx context.Context, date models.Day, regionID int64, d models.CaseDelta) Result[int64] {
	prev := db.previousCase(ctx, date, regionID)
	if !prev.Success {
		return Fail[int64](prev.Err())
	}
	var base models.DailyCaseRecord
	if prev.Data != nil {
		base = *prev.Data
	}

	total := base.TotalCases + d.NewCases
	deaths := base.Deaths + d.NewDeaths
	recovered := base.Recovered + d.NewRecovered

	stmt := query.Builder.Insert("daily_cases").
		Columns("date", "region_id", "total_cases", "new_cases", "active_cases",
			"deaths", "new_deaths", "recovered", "new_recovered",
			"hospitalized", "icu_patients", "ventilator_patients").
		Values(date.Time, regionID, total, d.NewCases, analytics.ActiveCases(total, deaths, recovered),
			deaths, d.NewDeaths, recovered, d.NewRecovered,
			d.Hospitalized, d.ICUPatients, d.VentilatorPatients).
		Suffix(`ON CONFLICT (date, region_id) DO UPDATE SET
			total_cases = total_cases + EXCLUDED.new_cases,
			new_cases = new_cases + EXCLUDED.new_cases,
			deaths = deaths + EXCLUDED.new_deaths,
			new_deaths = new_deaths + EXCLUDED.new_deaths,
			recovered = recovered + EXCLUDED.new_recovered,
			new_recovered = new_recovered + EXCLUDED.new_recovered,
			active_cases = GREATEST(0,
				(total_cases + EXCLUDED.new_cases)
				- (deaths + EXCLUDED.new_deaths)
				- (recovered + EXCLUDED.new_recovered)),
			hospitalized = EXCLUDED.hospitalized,
			icu_patients = EXCLUDED.icu_patients,
			ventilator_patients = EXCLUDED.ventilator_patients,
			updated_at = now()`)

	return Exec(ctx, db.conn, Op{"upsert_case_delta", tableDailyCases}, stmt)
}

// UpdateDailyNewCounts overwrites the daily counters of (date, region) and
// recomputes active_cases from the row's cumulative totals.
func (db *DB) UpdateDailyNewCounts(ctx context.Context, date models.Day, regionID int64, newCases, newDeaths, newRecovered int64) Result[int64] {
	stmt := query.Builder.Update("daily_cases").
		Set("new_cases", newCases).
		Set("new_deaths", newDeaths).
		Set("new_recovered", newRecovered).
		Set("active_cases", sq.Expr("GREATEST(0, total_cases - deaths - recovered)")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"date": date.Time, "region_id": regionID})
	return Exec(ctx, db.conn, Op{"update_daily_new_counts", tableDailyCases}, stmt)
}

// UpdateMovingAverages writes moving_avg_7d for the given dates of one
// region in a single transaction.
func (db *DB) UpdateMovingAverages(ctx context.Context, regionID int64, averages map[models.Day]float64) Result[int64] {
	op := Op{"update_moving_averages", tableDailyCases}
	if len(averages) == 0 {
		return OK[int64](0)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return Fail[int64](fmt.Errorf("%s: begin: %w", op.Name, err))
	}

	var updated int64
	for day, avg := range averages {
		stmt := query.Builder.Update("daily_cases").
			Set("moving_avg_7d", avg).
			Where(sq.Eq{"date": day.Time, "region_id": regionID})
		res := Exec(ctx, tx, op, stmt)
		if !res.Success {
			_ = tx.Rollback()
			return res
		}
		updated += res.Data
	}

	if err := tx.Commit(); err != nil {
		return Fail[int64](fmt.Errorf("%s: commit: %w", op.Name, err))
	}
	return OK(updated)
}

// classifyWriteError maps constraint violations onto the package sentinels.
func classifyWriteError(err error) error {
	if !isConstraintError(err) {
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
		return fmt.Errorf("%w: %v", ErrUnknownRegion, err)
	}
	return fmt.Errorf("%w: %v", ErrDuplicate, err)
}

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

const vaccinationColumns = `v.id, v.date, v.region_id, r.name, v.vaccine_type,
	v.first_dose, v.second_dose, v.booster_dose, v.people_vaccinated,
	v.people_fully_vaccinated, v.created_at, v.updated_at`

// latestPeople holds the newest cumulative people counts per
// (region, vaccine_type). people_* are cumulative within a vaccine type, so
// coverage sums the latest value of each type.
const latestPeople = `(SELECT region_id, vaccine_type,
		arg_max(people_vaccinated, date) AS people_vaccinated,
		arg_max(people_fully_vaccinated, date) AS people_fully_vaccinated
	FROM vaccinations GROUP BY region_id, vaccine_type)`

func scanVaccination(rs RowScanner) (models.VaccinationRecord, error) {
	var v models.VaccinationRecord
	err := rs.Scan(&v.ID, &v.Date, &v.RegionID, &v.RegionName, &v.VaccineType,
		&v.FirstDose, &v.SecondDose, &v.BoosterDose, &v.PeopleVaccinated,
		&v.PeopleFullyVaccinated, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func vaccinationSelect() sq.SelectBuilder {
	return query.Builder.Select(vaccinationColumns).
		From("vaccinations v").
		Join("regions r ON r.id = v.region_id")
}

func vaccinationFilter(f *models.VaccinationFilter) *query.Filter {
	return query.NewFilter().
		Int64("v.region_id", f.RegionID).
		String("v.vaccine_type", f.VaccineType).
		DateRange("v.date", f.From, f.To)
}

// ListVaccinations returns vaccination rows newest first.
func (db *DB) ListVaccinations(ctx context.Context, f models.VaccinationFilter) Result[[]models.VaccinationRecord] {
	stmt := vaccinationFilter(&f).Apply(vaccinationSelect()).
		OrderBy("v.date DESC", "v.region_id", "v.vaccine_type")
	stmt = query.Paginate(stmt, f.Limit, f.Offset)
	return Query(ctx, db.conn, Op{"list_vaccinations", tableVaccinations}, stmt, scanVaccination)
}

// CountVaccinations counts the rows ListVaccinations would return.
func (db *DB) CountVaccinations(ctx context.Context, f models.VaccinationFilter) Result[int64] {
	stmt := vaccinationFilter(&f).Apply(query.Builder.Select("COUNT(*)").From("vaccinations v"))
	return Scalar[int64](ctx, db.conn, Op{"count_vaccinations", tableVaccinations}, stmt)
}

// GetVaccination returns one row; Data is nil when id does not exist.
func (db *DB) GetVaccination(ctx context.Context, id int64) Result[*models.VaccinationRecord] {
	stmt := vaccinationSelect().Where(sq.Eq{"v.id": id})
	return QueryOne(ctx, db.conn, Op{"get_vaccination", tableVaccinations}, stmt, scanVaccination)
}

// VaccinationSummary returns national dose totals and coverage against the
// summed population of all regions.
func (db *DB) VaccinationSummary(ctx context.Context) Result[models.VaccinationSummary] {
	doses := query.Builder.Select(
		sumBigint("first_dose"),
		sumBigint("second_dose"),
		sumBigint("booster_dose"),
		"MAX(date)",
	).From("vaccinations")

	type doseTotals struct {
		first, second, booster int64
		latest                 models.Day
	}
	d := QueryOne(ctx, db.conn, Op{"vaccination_summary_doses", tableVaccinations}, doses,
		func(rs RowScanner) (doseTotals, error) {
			var t doseTotals
			err := rs.Scan(&t.first, &t.second, &t.booster, &t.latest)
			return t, err
		})
	if !d.Success {
		return Fail[models.VaccinationSummary](d.Err())
	}

	people := query.Builder.Select(
		sumBigint("people_vaccinated"),
		sumBigint("people_fully_vaccinated"),
	).From(latestPeople + " lp")
	type peopleTotals struct{ vaccinated, full int64 }
	p := QueryOne(ctx, db.conn, Op{"vaccination_summary_people", tableVaccinations}, people,
		func(rs RowScanner) (peopleTotals, error) {
			var t peopleTotals
			err := rs.Scan(&t.vaccinated, &t.full)
			return t, err
		})
	if !p.Success {
		return Fail[models.VaccinationSummary](p.Err())
	}

	population := Scalar[int64](ctx, db.conn, Op{"total_population", tableRegions},
		query.Builder.Select(sumBigint("population")).From("regions"))
	if !population.Success {
		return Fail[models.VaccinationSummary](population.Err())
	}

	byType := Query(ctx, db.conn, Op{"vaccination_by_type", tableVaccinations},
		query.Builder.Select("vaccine_type", sumBigint("first_dose + second_dose + booster_dose")).
			From("vaccinations").
			GroupBy("vaccine_type").
			OrderBy("vaccine_type"),
		func(rs RowScanner) (models.VaccineTypeUse, error) {
			var u models.VaccineTypeUse
			err := rs.Scan(&u.VaccineType, &u.TotalDoses)
			return u, err
		})
	if !byType.Success {
		return Fail[models.VaccinationSummary](byType.Err())
	}

	var dt doseTotals
	if d.Data != nil {
		dt = *d.Data
	}
	var pt peopleTotals
	if p.Data != nil {
		pt = *p.Data
	}

	summary := models.VaccinationSummary{
		TotalFirstDoses:       dt.first,
		TotalSecondDoses:      dt.second,
		TotalBoosterDoses:     dt.booster,
		TotalDoses:            dt.first + dt.second + dt.booster,
		PeopleVaccinated:      pt.vaccinated,
		PeopleFullyVaccinated: pt.full,
		Population:            population.Data,
		VaccinationRate:       analytics.VaccinationRate(pt.vaccinated, population.Data),
		FullVaccinationRate:   analytics.VaccinationRate(pt.full, population.Data),
		ByVaccineType:         byType.Data,
	}
	if !dt.latest.IsZero() {
		latest := dt.latest
		summary.LatestDate = &latest
	}
	return OK(summary)
}

// VaccinationsByRegion returns coverage for every region, including those
// without vaccination rows.
func (db *DB) VaccinationsByRegion(ctx context.Context) Result[[]models.RegionVaccination] {
	stmt := query.Builder.Select(
		"r.id", "r.name", "r.population",
		"COALESCE(p.vaccinated, 0)", "COALESCE(p.fully, 0)", "COALESCE(d.doses, 0)",
	).From("regions r").
		LeftJoin(`(SELECT region_id,
				` + sumBigint("people_vaccinated") + ` AS vaccinated,
				` + sumBigint("people_fully_vaccinated") + ` AS fully
			FROM ` + latestPeople + ` lp GROUP BY region_id) p ON p.region_id = r.id`).
		LeftJoin(`(SELECT region_id, ` + sumBigint("first_dose + second_dose + booster_dose") + ` AS doses
			FROM vaccinations GROUP BY region_id) d ON d.region_id = r.id`).
		OrderBy("r.name")

	return Query(ctx, db.conn, Op{"vaccinations_by_region", tableVaccinations}, stmt,
		func(rs RowScanner) (models.RegionVaccination, error) {
			var v models.RegionVaccination
			if err := rs.Scan(&v.RegionID, &v.RegionName, &v.Population,
				&v.PeopleVaccinated, &v.PeopleFullyVaccinated, &v.TotalDoses); err != nil {
				return v, err
			}
			v.VaccinationRate = analytics.VaccinationRate(v.PeopleVaccinated, v.Population)
			v.FullVaccinationRate = analytics.VaccinationRate(v.PeopleFullyVaccinated, v.Population)
			return v, nil
		})
}

// VaccinationDailySeries returns national doses per date ending on today,
// oldest first.
func (db *DB) VaccinationDailySeries(ctx context.Context, days int, today models.Day) Result[[]models.VaccinationDailyTotals] {
	stmt := query.Builder.Select(
		"date",
		sumBigint("first_dose"),
		sumBigint("second_dose"),
		sumBigint("booster_dose"),
	).From("vaccinations").
		Where(sq.LtOrEq{"date": today.Time}).
		GroupBy("date").
		OrderBy("date")
	if days > 0 {
		stmt = stmt.Where(sq.GtOrEq{"date": today.AddDays(-(days - 1)).Time})
	}

	return Query(ctx, db.conn, Op{"vaccination_daily_series", tableVaccinations}, stmt,
		func(rs RowScanner) (models.VaccinationDailyTotals, error) {
			var d models.VaccinationDailyTotals
			err := rs.Scan(&d.Date, &d.FirstDose, &d.SecondDose, &d.BoosterDose)
			d.TotalDoses = d.FirstDose + d.SecondDose + d.BoosterDose
			return d, err
		})
}

// InsertVaccination stores a validated POST /vaccinations body.
func (db *DB) InsertVaccination(ctx context.Context, in models.VaccinationInput) Result[*models.VaccinationRecord] {
	date, err := models.ParseDay(in.Date)
	if err != nil {
		return Fail[*models.VaccinationRecord](err)
	}

	stmt := query.Builder.Insert("vaccinations").
		Columns("date", "region_id", "vaccine_type", "first_dose", "second_dose",
			"booster_dose", "people_vaccinated", "people_fully_vaccinated").
		Values(date.Time, in.RegionID, in.VaccineType, in.FirstDose, in.SecondDose,
			in.BoosterDose, in.PeopleVaccinated, in.PeopleFullyVaccinated).
		Suffix("RETURNING id")

	id := Scalar[int64](ctx, db.conn, Op{"insert_vaccination", tableVaccinations}, stmt)
	if !id.Success {
		return Fail[*models.VaccinationRecord](classifyWriteError(id.Err()))
	}
	return db.GetVaccination(ctx, id.Data)
}

// UpsertVaccinationDoses adds d to the (date, region, vaccine_type) row.
// A new row starts from the previous cumulative people counts of the same
// region and vaccine type. First doses raise people_vaccinated and second
// doses raise people_fully_vaccinated.
func (db *DB) UpsertVaccinationDoses(ctx context.Context, date models.Day, regionID int64, vaccineType string, d models.DoseDelta) Result[int64] {
	prevStmt := query.Builder.Select("people_vaccinated", "people_fully_vaccinated").
		From("vaccinations").
		Where(sq.Eq{"region_id": regionID, "vaccine_type": vaccineType}).
		Where(sq.Lt{"date": date.Time}).
		OrderBy("date DESC").
		Limit(1)
	type people struct{ vaccinated, full int64 }
	prev := QueryOne(ctx, db.conn, Op{"previous_vaccination", tableVaccinations}, prevStmt,
		func(rs RowScanner) (people, error) {
			var p people
			err := rs.Scan(&p.vaccinated, &p.full)
			return p, err
		})
	if !prev.Success {
		return Fail[int64](prev.Err())
	}
	var base people
	if prev.Data != nil {
		base = *prev.Data
	}

	stmt := query.Builder.Insert("vaccinations").
		Columns("date", "region_id", "vaccine_type", "first_dose", "second_dose",
			"booster_dose", "people_vaccinated", "people_fully_vaccinated").
		Values(date.Time, regionID, vaccineType, d.FirstDose, d.SecondDose,
			d.BoosterDose, base.vaccinated+d.FirstDose, base.full+d.SecondDose).
		Suffix(`ON CONFLICT (date, region_id, vaccine_type) DO UPDATE SET
			first_dose = first_dose + EXCLUDED.first_dose,
			second_dose = second_dose + EXCLUDED.second_dose,
			booster_dose = booster_dose + EXCLUDED.booster_dose,
			people_vaccinated = people_vaccinated + EXCLUDED.first_dose,
			people_fully_vaccinated = people_fully_vaccinated + EXCLUDED.second_dose,
			updated_at = now()`)

	return Exec(ctx, db.conn, Op{"upsert_vaccination_doses", tableVaccinations}, stmt)
}

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

const hospitalColumns = `h.id, h.region_id, r.name, h.municipality_id, h.name, h.type,
	h.total_beds, h.covid_beds, h.icu_beds, h.ventilators,
	h.occupied_beds, h.occupied_covid_beds, h.occupied_icu_beds, h.ventilators_in_use,
	h.created_at, h.updated_at`

func scanHospital(rs RowScanner) (models.Hospital, error) {
	var h models.Hospital
	if err := rs.Scan(&h.ID, &h.RegionID, &h.RegionName, &h.MunicipalityID, &h.Name, &h.Type,
		&h.TotalBeds, &h.CovidBeds, &h.ICUBeds, &h.Ventilators,
		&h.OccupiedBeds, &h.OccupiedCovidBeds, &h.OccupiedICUBeds, &h.VentilatorsInUse,
		&h.CreatedAt, &h.UpdatedAt); err != nil {
		return h, err
	}
	h.OccupancyRate = analytics.OccupancyRate(h.OccupiedBeds, h.TotalBeds)
	return h, nil
}

func hospitalSelect() sq.SelectBuilder {
	return query.Builder.Select(hospitalColumns).
		From("hospitals h").
		Join("regions r ON r.id = h.region_id")
}

// ListHospitals returns hospitals, optionally limited to one region.
func (db *DB) ListHospitals(ctx context.Context, regionID *int64) Result[[]models.Hospital] {
	stmt := query.NewFilter().Int64("h.region_id", regionID).
		Apply(hospitalSelect()).
		OrderBy("r.name", "h.name")
	return Query(ctx, db.conn, Op{"list_hospitals", tableHospitals}, stmt, scanHospital)
}

// GetHospital returns one hospital; Data is nil when id does not exist.
func (db *DB) GetHospital(ctx context.Context, id int64) Result[*models.Hospital] {
	stmt := hospitalSelect().Where(sq.Eq{"h.id": id})
	return QueryOne(ctx, db.conn, Op{"get_hospital", tableHospitals}, stmt, scanHospital)
}

// UpdateHospitalOccupancy replaces the occupancy counters. Capacity checks
// happen before this call; storage does not enforce them.
func (db *DB) UpdateHospitalOccupancy(ctx context.Context, id int64, occ models.HospitalOccupancy) Result[int64] {
	stmt := query.Builder.Update("hospitals").
		Set("occupied_beds", occ.OccupiedBeds).
		Set("occupied_covid_beds", occ.OccupiedCovidBeds).
		Set("occupied_icu_beds", occ.OccupiedICUBeds).
		Set("ventilators_in_use", occ.VentilatorsInUse).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})
	return Exec(ctx, db.conn, Op{"update_hospital_occupancy", tableHospitals}, stmt)
}

// HospitalCapacity returns occupancy per region and for the whole country.
func (db *DB) HospitalCapacity(ctx context.Context) Result[models.CapacityReport] {
	stmt := query.Builder.Select(
		"r.id", "r.name", "COUNT(h.id)",
		sumBigint("h.total_beds"), sumBigint("h.occupied_beds"),
		sumBigint("h.covid_beds"), sumBigint("h.occupied_covid_beds"),
		sumBigint("h.icu_beds"), sumBigint("h.occupied_icu_beds"),
		sumBigint("h.ventilators"), sumBigint("h.ventilators_in_use"),
	).From("regions r").
		LeftJoin("hospitals h ON h.region_id = r.id").
		GroupBy("r.id", "r.name").
		OrderBy("r.name")

	rows := Query(ctx, db.conn, Op{"hospital_capacity", tableHospitals}, stmt,
		func(rs RowScanner) (models.RegionCapacity, error) {
			var c models.RegionCapacity
			err := rs.Scan(&c.RegionID, &c.RegionName, &c.Hospitals,
				&c.TotalBeds, &c.OccupiedBeds,
				&c.CovidBeds, &c.OccupiedCovidBeds,
				&c.ICUBeds, &c.OccupiedICUBeds,
				&c.Ventilators, &c.VentilatorsInUse)
			return c, err
		})
	if !rows.Success {
		return Fail[models.CapacityReport](rows.Err())
	}

	report := models.CapacityReport{ByRegion: rows.Data}
	for i := range report.ByRegion {
		rc := &report.ByRegion[i]
		fillCapacityRates(&rc.CapacityTotals)

		n := &report.National
		n.Hospitals += rc.Hospitals
		n.TotalBeds += rc.TotalBeds
		n.OccupiedBeds += rc.OccupiedBeds
		n.CovidBeds += rc.CovidBeds
		n.OccupiedCovidBeds += rc.OccupiedCovidBeds
		n.ICUBeds += rc.ICUBeds
		n.OccupiedICUBeds += rc.OccupiedICUBeds
		n.Ventilators += rc.Ventilators
		n.VentilatorsInUse += rc.VentilatorsInUse
	}
	fillCapacityRates(&report.National)
	return OK(report)
}

func fillCapacityRates(t *models.CapacityTotals) {
	t.BedOccupancyRate = analytics.OccupancyRate(t.OccupiedBeds, t.TotalBeds)
	t.CovidOccupancyRate = analytics.OccupancyRate(t.OccupiedCovidBeds, t.CovidBeds)
	t.ICUOccupancyRate = analytics.OccupancyRate(t.OccupiedICUBeds, t.ICUBeds)
	t.VentilatorUseRate = analytics.OccupancyRate(t.VentilatorsInUse, t.Ventilators)
}

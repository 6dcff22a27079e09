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

func scanRegion(rs RowScanner) (models.Region, error) {
	var r models.Region
	err := rs.Scan(&r.ID, &r.Name, &r.Code, &r.Population, &r.AreaKm2, &r.Capital,
		&r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func regionSelect() sq.SelectBuilder {
	return query.Builder.Select("id", "name", "code", "population", "area_km2", "capital",
		"created_at", "updated_at").From("regions")
}

// ListRegions returns every region ordered by name.
func (db *DB) ListRegions(ctx context.Context) Result[[]models.Region] {
	return Query(ctx, db.conn, Op{"list_regions", tableRegions}, regionSelect().OrderBy("name"), scanRegion)
}

// GetRegion returns one region; Data is nil when id does not exist.
func (db *DB) GetRegion(ctx context.Context, id int64) Result[*models.Region] {
	stmt := regionSelect().Where(sq.Eq{"id": id})
	return QueryOne(ctx, db.conn, Op{"get_region", tableRegions}, stmt, scanRegion)
}

// CountRegions returns the number of regions; zero means the database has
// never been seeded.
func (db *DB) CountRegions(ctx context.Context) Result[int64] {
	stmt := query.Builder.Select("COUNT(*)").From("regions")
	return Scalar[int64](ctx, db.conn, Op{"count_regions", tableRegions}, stmt)
}

// ListMunicipalities returns the municipalities of one region.
func (db *DB) ListMunicipalities(ctx context.Context, regionID int64) Result[[]models.Municipality] {
	stmt := query.Builder.Select("id", "region_id", "name", "population", "area_km2", "created_at").
		From("municipalities").
		Where(sq.Eq{"region_id": regionID}).
		OrderBy("name")

	return Query(ctx, db.conn, Op{"list_municipalities", tableMunicipalities}, stmt,
		func(rs RowScanner) (models.Municipality, error) {
			var m models.Municipality
			err := rs.Scan(&m.ID, &m.RegionID, &m.Name, &m.Population, &m.AreaKm2, &m.CreatedAt)
			return m, err
		})
}

// regionStatsSelect joins each region to its latest case row, its
// vaccination coverage and its hospital capacity. Regions without data
// report zeros.
func regionStatsSelect() sq.SelectBuilder {
	return query.Builder.Select(
		"r.id", "r.name", "r.code", "r.population", "r.area_km2",
		"lc.date",
		"COALESCE(lc.total_cases, 0)", "COALESCE(lc.active_cases, 0)",
		"COALESCE(lc.deaths, 0)", "COALESCE(lc.recovered, 0)", "COALESCE(lc.new_cases, 0)",
		"COALESCE(v.vaccinated, 0)", "COALESCE(v.fully, 0)",
		"COALESCE(h.hospitals, 0)", "COALESCE(h.beds, 0)", "COALESCE(h.occupied, 0)",
	).From("regions r").
		LeftJoin(`(SELECT c.region_id, c.date, c.total_cases, c.active_cases,
				c.deaths, c.recovered, c.new_cases
			FROM daily_cases c
			JOIN ` + latestCaseDates + ` m ON m.region_id = c.region_id AND m.max_date = c.date) lc
			ON lc.region_id = r.id`).
		LeftJoin(`(SELECT region_id,
				` + sumBigint("people_vaccinated") + ` AS vaccinated,
				` + sumBigint("people_fully_vaccinated") + ` AS fully
			FROM ` + latestPeople + ` lp GROUP BY region_id) v ON v.region_id = r.id`).
		LeftJoin(`(SELECT region_id, COUNT(*) AS hospitals,
				` + sumBigint("total_beds") + ` AS beds,
				` + sumBigint("occupied_beds") + ` AS occupied
			FROM hospitals GROUP BY region_id) h ON h.region_id = r.id`)
}

func scanRegionStats(rs RowScanner) (models.RegionStats, error) {
	var (
		s      models.RegionStats
		area   float64
		latest models.Day
	)
	if err := rs.Scan(&s.RegionID, &s.RegionName, &s.RegionCode, &s.Population, &area,
		&latest,
		&s.TotalCases, &s.ActiveCases, &s.Deaths, &s.Recovered, &s.NewCases,
		&s.PeopleVaccinated, &s.PeopleFullyVaccinated,
		&s.Hospitals, &s.TotalBeds, &s.OccupiedBeds); err != nil {
		return s, err
	}
	if !latest.IsZero() {
		s.LatestDate = &latest
	}
	s.CaseFatalityRate = analytics.CaseFatalityRate(s.Deaths, s.TotalCases)
	s.RecoveryRate = analytics.RecoveryRate(s.Recovered, s.TotalCases)
	s.IncidencePer100k = analytics.IncidencePer100k(s.TotalCases, s.Population)
	s.VaccinationRate = analytics.VaccinationRate(s.PeopleVaccinated, s.Population)
	s.BedOccupancyRate = analytics.OccupancyRate(s.OccupiedBeds, s.TotalBeds)
	if area > 0 {
		s.PopulationDensity = analytics.Round2(float64(s.Population) / area)
	}
	return s, nil
}

// RegionStats returns the dashboard card of one region; Data is nil when
// id does not exist.
func (db *DB) RegionStats(ctx context.Context, id int64) Result[*models.RegionStats] {
	stmt := regionStatsSelect().Where(sq.Eq{"r.id": id})
	return QueryOne(ctx, db.conn, Op{"region_stats", tableRegions}, stmt, scanRegionStats)
}

// RegionComparison returns the card of every region, highest incidence
// first.
func (db *DB) RegionComparison(ctx context.Context) Result[[]models.RegionStats] {
	stmt := regionStatsSelect().
		OrderBy("COALESCE(lc.total_cases, 0) * 1.0 / GREATEST(r.population, 1) DESC", "r.name")
	return Query(ctx, db.conn, Op{"region_comparison", tableRegions}, stmt, scanRegionStats)
}

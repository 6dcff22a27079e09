// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand/v2"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/kosovo-covid/internal/analytics"
	"github.com/tomtom215/kosovo-covid/internal/database/query"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// seedBatchSize caps the rows per multi-row INSERT.
const seedBatchSize = 500

type seedRegion struct {
	name, code     string
	population     int64
	area           float64
	municipalities []seedMunicipality
}

type seedMunicipality struct {
	name       string
	population int64
	area       float64
}

// The first municipality of each region is its seat.
var seedRegions = []seedRegion{
	{"Prishtina", "PR", 477312, 2470, []seedMunicipality{
		{"Prishtina", 198897, 572}, {"Podujeva", 88499, 633}, {"Fushë Kosova", 34827, 83},
		{"Obiliq", 21549, 105}, {"Lipjan", 57605, 338}, {"Drenas", 58531, 276}, {"Graçanica", 10675, 131},
	}},
	{"Prizren", "PZ", 331670, 1397, []seedMunicipality{
		{"Prizren", 177781, 640}, {"Suhareka", 59722, 361}, {"Malisheva", 54613, 306},
		{"Dragash", 33997, 435}, {"Mamusha", 5507, 11},
	}},
	{"Peja", "PE", 174235, 1365, []seedMunicipality{
		{"Peja", 96450, 603}, {"Istog", 39289, 454}, {"Klina", 38496, 308}, {"Deçan", 40019, 297},
	}},
	{"Mitrovica", "MI", 272247, 2077, []seedMunicipality{
		{"Mitrovica", 71909, 139}, {"Vushtrria", 69870, 345}, {"Skenderaj", 50858, 378},
		{"Zveçan", 16650, 122}, {"Leposaviq", 18600, 539}, {"Zubin Potok", 14900, 335},
	}},
	{"Gjilan", "GJ", 180783, 1206, []seedMunicipality{
		{"Gjilan", 90178, 392}, {"Kamenica", 36085, 423}, {"Vitia", 46987, 300}, {"Novobërda", 6729, 204},
	}},
	{"Ferizaj", "FE", 185806, 1030, []seedMunicipality{
		{"Ferizaj", 108610, 345}, {"Kaçanik", 33409, 211}, {"Shtime", 27324, 134},
		{"Shtërpca", 6949, 247}, {"Hani i Elezit", 9403, 83},
	}},
	{"Gjakova", "GK", 194672, 1129, []seedMunicipality{
		{"Gjakova", 94556, 521}, {"Rahovec", 56208, 276}, {"Junik", 6084, 78},
	}},
}

type seedHospital struct {
	name, regionCode, kind                string
	beds, covidBeds, icuBeds, ventilators int64
}

var seedHospitals = []seedHospital{
	{"University Clinical Center of Kosovo", "PR", "university", 2100, 400, 80, 60},
	{"Regional Hospital Prizren", "PZ", "regional", 650, 120, 20, 15},
	{"Regional Hospital Peja", "PE", "regional", 500, 100, 16, 12},
	{"Regional Hospital Mitrovica", "MI", "regional", 420, 90, 14, 10},
	{"Regional Hospital Gjilan", "GJ", "regional", 450, 90, 14, 10},
	{"Regional Hospital Ferizaj", "FE", "regional", 300, 70, 10, 8},
	{"Regional Hospital Gjakova", "GK", "regional", 480, 95, 15, 12},
}

// SeedOptions controls the synthesized history.
type SeedOptions struct {
	Days  int
	Today models.Day
	Rand  *rand.Rand
	// Sources maps a data source name to its URL.
	Sources map[string]string
}

// Seed fills an empty database with Kosovo's regions, municipalities,
// hospitals and testing centers plus opts.Days of synthesized daily cases,
// vaccinations and testing ending on opts.Today. It does nothing and
// returns false when regions already exist.
func (db *DB) Seed(ctx context.Context, opts SeedOptions) (bool, error) {
	n := db.CountRegions(ctx)
	if !n.Success {
		return false, n.Err()
	}
	if n.Data > 0 {
		return false, nil
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	s := &seeder{q: tx, rng: opts.Rand, regionIDs: map[string]int64{}, seatIDs: map[string]int64{}}
	steps := []func(context.Context) error{
		s.regions,
		s.hospitals,
		s.testingCenters,
		func(ctx context.Context) error { return s.history(ctx, opts.Days, opts.Today) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return false, err
		}
	}
	for name, url := range opts.Sources {
		if res := ensureDataSource(ctx, tx, name, url); !res.Success {
			return false, res.Err()
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	db.logger.Info().Int("days", opts.Days).Int("regions", len(seedRegions)).Msg("Seeded database")
	return true, nil
}

type seeder struct {
	q         *sql.Tx
	rng       *rand.Rand
	regionIDs map[string]int64
	seatIDs   map[string]int64
}

func (s *seeder) regions(ctx context.Context) error {
	for _, r := range seedRegions {
		id := Scalar[int64](ctx, s.q, Op{"seed_region", tableRegions},
			query.Builder.Insert("regions").
				Columns("name", "code", "population", "area_km2", "capital").
				Values(r.name, r.code, r.population, r.area, r.municipalities[0].name).
				Suffix("RETURNING id"))
		if !id.Success {
			return fmt.Errorf("seed region %s: %w", r.code, id.Err())
		}
		s.regionIDs[r.code] = id.Data

		for i, m := range r.municipalities {
			mid := Scalar[int64](ctx, s.q, Op{"seed_municipality", tableMunicipalities},
				query.Builder.Insert("municipalities").
					Columns("region_id", "name", "population", "area_km2").
					Values(id.Data, m.name, m.population, m.area).
					Suffix("RETURNING id"))
			if !mid.Success {
				return fmt.Errorf("seed municipality %s: %w", m.name, mid.Err())
			}
			if i == 0 {
				s.seatIDs[r.code] = mid.Data
			}
		}
	}
	return nil
}

func (s *seeder) hospitals(ctx context.Context) error {
	rows := make([][]any, 0, len(seedHospitals))
	for _, h := range seedHospitals {
		covid := s.upTo(h.covidBeds * 3 / 4)
		rows = append(rows, []any{
			s.regionIDs[h.regionCode], s.seatIDs[h.regionCode], h.name, h.kind,
			h.beds, h.covidBeds, h.icuBeds, h.ventilators,
			s.between(covid, h.beds*4/5), covid, s.upTo(h.icuBeds * 3 / 4), s.upTo(h.ventilators / 2),
		})
	}
	return insertBatches(ctx, s.q, Op{"seed_hospitals", tableHospitals},
		query.Builder.Insert("hospitals").Columns("region_id", "municipality_id", "name", "type",
			"total_beds", "covid_beds", "icu_beds", "ventilators",
			"occupied_beds", "occupied_covid_beds", "occupied_icu_beds", "ventilators_in_use"),
		rows)
}

func (s *seeder) testingCenters(ctx context.Context) error {
	rows := [][]any{
		{s.regionIDs["PR"], s.seatIDs["PR"], "NIPH Central Laboratory", "pcr", int64(4000)},
		{s.regionIDs["PR"], s.seatIDs["PR"], "Prishtina Antigen Point", "antigen", int64(1500)},
	}
	for _, r := range seedRegions {
		if r.code == "PR" {
			continue
		}
		rows = append(rows, []any{
			s.regionIDs[r.code], s.seatIDs[r.code],
			fmt.Sprintf("Regional Public Health Institute %s", r.name), "pcr", r.population / 400,
		})
	}
	return insertBatches(ctx, s.q, Op{"seed_testing_centers", tableTestingCenters},
		query.Builder.Insert("testing_centers").
			Columns("region_id", "municipality_id", "name", "type", "daily_capacity"),
		rows)
}

// history synthesizes days of records per region following one epidemic
// wave, so that cumulative counters only grow and active cases stay
// non-negative.
func (s *seeder) history(ctx context.Context, days int, today models.Day) error {
	if days <= 0 {
		return nil
	}
	first := today.AddDays(-(days - 1))

	var cases, vaccinations, tests [][]any
	for _, r := range seedRegions {
		regionID := s.regionIDs[r.code]
		scale := float64(r.population) / 100000

		newCases := make([]int64, days)
		newAsFloat := make([]float64, days)
		var total, deaths, recovered int64
		caseRows := make([][]any, 0, days)
		for i := range days {
			wave := 1 + 0.8*math.Sin(2*math.Pi*float64(i)/60)
			nc := int64(float64(s.between(5, 25)) * scale * wave)
			nd := s.upTo(nc / 50)
			var nr int64
			if i >= 10 {
				nr = newCases[i-10] * s.between(85, 98) / 100
			}
			newCases[i] = nc
			newAsFloat[i] = float64(nc)

			total += nc
			deaths += nd
			recovered += nr
			active := analytics.ActiveCases(total, deaths, recovered)
			hospitalized := active / 20
			icu := hospitalized / 5

			caseRows = append(caseRows, []any{
				first.AddDays(i).Time, regionID, total, nc, active, deaths, nd, recovered, nr,
				hospitalized, icu, icu * 2 / 5,
			})
		}
		for i, avg := range analytics.MovingAverage7(newAsFloat) {
			if avg != nil {
				caseRows[i] = append(caseRows[i], *avg)
			} else {
				caseRows[i] = append(caseRows[i], nil)
			}
		}
		cases = append(cases, caseRows...)

		for _, vt := range models.VaccineTypes {
			var people, fully int64
			for i := range days {
				firstDose := s.upTo(r.population / 2000)
				secondDose := min(s.upTo(r.population/2500), people+firstDose-fully)
				booster := s.upTo(fully / 200)
				people += firstDose
				fully += secondDose
				vaccinations = append(vaccinations, []any{
					first.AddDays(i).Time, regionID, vt, firstDose, secondDose, booster, people, fully,
				})
			}
		}

		for i := range days {
			pcr := newCases[i]*s.between(4, 8) + s.upTo(50)
			antigen := newCases[i]*s.between(2, 5) + s.upTo(50)
			totalTests := pcr + antigen
			positive := min(newCases[i], totalTests)
			pending := s.upTo((totalTests - positive) / 20)
			tests = append(tests, []any{
				first.AddDays(i).Time, regionID, totalTests, pcr, antigen,
				positive, totalTests - positive - pending, pending,
			})
		}
	}

	batches := []struct {
		op   Op
		stmt sq.InsertBuilder
		rows [][]any
	}{
		{Op{"seed_daily_cases", tableDailyCases}, query.Builder.Insert("daily_cases").
			Columns("date", "region_id", "total_cases", "new_cases", "active_cases",
				"deaths", "new_deaths", "recovered", "new_recovered",
				"hospitalized", "icu_patients", "ventilator_patients", "moving_avg_7d"), cases},
		{Op{"seed_vaccinations", tableVaccinations}, query.Builder.Insert("vaccinations").
			Columns("date", "region_id", "vaccine_type", "first_dose", "second_dose",
				"booster_dose", "people_vaccinated", "people_fully_vaccinated"), vaccinations},
		{Op{"seed_testing_data", tableTestingData}, query.Builder.Insert("testing_data").
			Columns("date", "region_id", "total_tests", "pcr_tests", "antigen_tests",
				"positive_tests", "negative_tests", "pending_tests"), tests},
	}
	for _, b := range batches {
		if err := insertBatches(ctx, s.q, b.op, b.stmt, b.rows); err != nil {
			return err
		}
	}
	return nil
}

// upTo returns a value in [0, n]; n <= 0 yields 0.
func (s *seeder) upTo(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return s.rng.Int64N(n + 1)
}

// between returns a value in [lo, hi]; hi < lo yields lo.
func (s *seeder) between(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Int64N(hi-lo+1)
}

// insertBatches writes rows with multi-row INSERTs of at most
// seedBatchSize rows each.
func insertBatches(ctx context.Context, q Querier, op Op, stmt sq.InsertBuilder, rows [][]any) error {
	for start := 0; start < len(rows); start += seedBatchSize {
		b := stmt
		for _, row := range rows[start:min(start+seedBatchSize, len(rows))] {
			b = b.Values(row...)
		}
		if res := Exec(ctx, q, op, b); !res.Success {
			return fmt.Errorf("%s: %w", op.Name, res.Err())
		}
	}
	return nil
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/kosovo-covid/internal/database/query"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// insertTestRegion adds a region with a round population.
func insertTestRegion(t *testing.T, db *DB, code string, population int64) int64 {
	t.Helper()
	res := Scalar[int64](context.Background(), db.conn, Op{"test_region", tableRegions},
		query.Builder.Insert("regions").
			Columns("name", "code", "population", "area_km2").
			Values("Region "+code, code, population, 100.0).
			Suffix("RETURNING id"))
	if !res.Success {
		t.Fatalf("insert region: %s", res.Error)
	}
	return res.Data
}

func caseInput(date string, regionID, total, deaths, recovered int64) models.CaseInput {
	return models.CaseInput{
		Date:       date,
		RegionID:   regionID,
		TotalCases: total,
		NewCases:   total / 10,
		Deaths:     deaths,
		Recovered:  recovered,
	}
}

func TestInsertCase(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rid := insertTestRegion(t, db, "TS", 100000)

	res := db.InsertCase(ctx, caseInput("2021-03-14", rid, 200, 10, 150))
	if !res.Success || res.Data == nil {
		t.Fatalf("InsertCase failed: %s", res.Error)
	}
	c := res.Data
	if c.ActiveCases != 40 {
		t.Errorf("active_cases = %d, want 40", c.ActiveCases)
	}
	if c.RegionName != "Region TS" || c.Date.String() != "2021-03-14" {
		t.Errorf("unexpected row: %+v", c)
	}

	tests := []struct {
		name    string
		in      models.CaseInput
		wantErr error
	}{
		{"duplicate date and region", caseInput("2021-03-14", rid, 300, 0, 0), ErrDuplicate},
		{"unknown region", caseInput("2021-03-14", 9999, 10, 0, 0), ErrUnknownRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := db.InsertCase(ctx, tt.in)
			if res.Success {
				t.Fatal("expected failure")
			}
			if !errors.Is(res.Err(), tt.wantErr) {
				t.Errorf("error = %v, want %v", res.Err(), tt.wantErr)
			}
		})
	}
}

func TestGetCase_NotFound(t *testing.T) {
	db := setupTestDB(t)

	res := db.GetCase(context.Background(), 42)
	if !res.Success {
		t.Fatalf("GetCase failed: %s", res.Error)
	}
	if res.Data != nil {
		t.Errorf("expected nil for a missing id, got %+v", res.Data)
	}
}

func TestListCases_FilterAndCount(t *testing.T) {
	db := setupSeededDB(t, 10)
	ctx := context.Background()
	rid := regionID(t, db, "PE")

	from := testToday.AddDays(-4)
	f := models.CaseFilter{RegionID: &rid, From: &from, Limit: 3}
	list := db.ListCases(ctx, f)
	if !list.Success || len(list.Data) != 3 {
		t.Fatalf("expected 3 rows, got %d (%s)", len(list.Data), list.Error)
	}
	if !list.Data[0].Date.Equal(testToday.Time) {
		t.Errorf("first row should be newest, got %s", list.Data[0].Date)
	}
	for _, c := range list.Data {
		if c.RegionID != rid {
			t.Errorf("row for region %d leaked through filter", c.RegionID)
		}
	}

	count := db.CountCases(ctx, f)
	if !count.Success || count.Data != 5 {
		t.Errorf("CountCases = %d, want 5 (%s)", count.Data, count.Error)
	}
}

func TestUpsertDailyCaseDelta_Accumulates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rid := insertTestRegion(t, db, "TS", 100000)
	yesterday := testToday.AddDays(-1)

	if res := db.InsertCase(ctx, caseInput(yesterday.String(), rid, 100, 2, 10)); !res.Success {
		t.Fatalf("InsertCase failed: %s", res.Error)
	}

	delta := models.CaseDelta{NewCases: 5, NewDeaths: 1, NewRecovered: 2, Hospitalized: 7}
	const n = 3
	for i := 0; i < n; i++ {
		if res := db.UpsertDailyCaseDelta(ctx, testToday, rid, delta); !res.Success {
			t.Fatalf("upsert %d failed: %s", i, res.Error)
		}
	}

	row := db.GetRegionDay(ctx, testToday, rid)
	if !row.Success || row.Data == nil {
		t.Fatalf("GetRegionDay failed: %s", row.Error)
	}
	c := row.Data
	checks := []struct {
		name      string
		got, want int64
	}{
		{"total_cases", c.TotalCases, 100 + n*5},
		{"new_cases", c.NewCases, n * 5},
		{"deaths", c.Deaths, 2 + n*1},
		{"new_deaths", c.NewDeaths, n * 1},
		{"recovered", c.Recovered, 10 + n*2},
		{"new_recovered", c.NewRecovered, n * 2},
		{"active_cases", c.ActiveCases, (100 + n*5) - (2 + n) - (10 + n*2)},
		{"hospitalized", c.Hospitalized, 7},
	}
	for _, ck := range checks {
		if ck.got != ck.want {
			t.Errorf("%s = %d, want %d", ck.name, ck.got, ck.want)
		}
	}

	exists := db.CaseExists(ctx, testToday, rid)
	if !exists.Success || !exists.Data {
		t.Error("CaseExists should report the upserted row")
	}
}

func TestUpdateDailyNewCountsAndMovingAverages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rid := insertTestRegion(t, db, "TS", 100000)

	if res := db.InsertCase(ctx, caseInput(testToday.String(), rid, 100, 60, 60)); !res.Success {
		t.Fatalf("InsertCase failed: %s", res.Error)
	}
	if res := db.UpdateDailyNewCounts(ctx, testToday, rid, 4, 1, 0); !res.Success || res.Data != 1 {
		t.Fatalf("UpdateDailyNewCounts affected %d rows (%s)", res.Data, res.Error)
	}
	res := db.UpdateMovingAverages(ctx, rid, map[models.Day]float64{testToday: 12.5})
	if !res.Success || res.Data != 1 {
		t.Fatalf("UpdateMovingAverages affected %d rows (%s)", res.Data, res.Error)
	}

	c := db.GetRegionDay(ctx, testToday, rid).Data
	if c.NewCases != 4 || c.NewDeaths != 1 || c.NewRecovered != 0 {
		t.Errorf("daily counters not replaced: %+v", c)
	}
	if c.ActiveCases != 0 {
		t.Errorf("active_cases should clamp to 0, got %d", c.ActiveCases)
	}
	if c.MovingAvg7d == nil || *c.MovingAvg7d != 12.5 {
		t.Errorf("moving_avg_7d = %v, want 12.5", c.MovingAvg7d)
	}
}

func TestCaseSummary(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := insertTestRegion(t, db, "AA", 100000)
	b := insertTestRegion(t, db, "BB", 100000)

	fixtures := []models.CaseInput{
		{Date: testToday.AddDays(-40).String(), RegionID: a, TotalCases: 50, NewCases: 50},
		{Date: testToday.AddDays(-1).String(), RegionID: a, TotalCases: 100, NewCases: 10, Deaths: 5, Recovered: 50},
		{Date: testToday.String(), RegionID: a, TotalCases: 120, NewCases: 20, Deaths: 6, Recovered: 60},
		{Date: testToday.String(), RegionID: b, TotalCases: 80, NewCases: 30, Deaths: 4, Recovered: 40},
	}
	for _, in := range fixtures {
		if res := db.InsertCase(ctx, in); !res.Success {
			t.Fatalf("InsertCase failed: %s", res.Error)
		}
	}

	res := db.CaseSummary(ctx, query.Period7d, testToday)
	if !res.Success {
		t.Fatalf("CaseSummary failed: %s", res.Error)
	}
	s := res.Data
	if s.TotalCases != 200 || s.Deaths != 10 || s.Recovered != 100 {
		t.Errorf("cumulative totals wrong: %+v", s)
	}
	if s.NewCases != 60 {
		t.Errorf("new_cases over 7d = %d, want 60", s.NewCases)
	}
	if s.AvgDailyNewCases != 30 {
		t.Errorf("avg_daily_new_cases = %v, want 30", s.AvgDailyNewCases)
	}
	if s.CaseFatalityRate != "5.00" || s.RecoveryRate != "50.00" {
		t.Errorf("rates = %s / %s", s.CaseFatalityRate, s.RecoveryRate)
	}
	if s.From == nil || s.To == nil || !s.To.Equal(testToday.Time) {
		t.Errorf("period bounds wrong: from=%v to=%v", s.From, s.To)
	}

	all := db.CaseSummary(ctx, "", testToday)
	if !all.Success || all.Data.NewCases != 110 || all.Data.Period != query.PeriodAll {
		t.Errorf("all-time summary = %+v (%s)", all.Data, all.Error)
	}

	if bad := db.CaseSummary(ctx, "14d", testToday); bad.Success {
		t.Error("unknown period should fail")
	}
}

func TestNationalDailySeries(t *testing.T) {
	db := setupSeededDB(t, 20)
	ctx := context.Background()

	res := db.NationalDailySeries(ctx, 7, testToday)
	if !res.Success || len(res.Data) != 7 {
		t.Fatalf("expected 7 days, got %d (%s)", len(res.Data), res.Error)
	}
	if !res.Data[6].Date.Equal(testToday.Time) {
		t.Errorf("series should end today, got %s", res.Data[6].Date)
	}
	for i := 1; i < len(res.Data); i++ {
		if !res.Data[i].Date.After(res.Data[i-1].Date.Time) {
			t.Fatal("series should be ascending")
		}
	}

	latest := db.LatestCases(ctx)
	var sum int64
	for _, c := range latest.Data {
		sum += c.TotalCases
	}
	if sum != res.Data[6].TotalCases {
		t.Errorf("national total %d != sum of latest region rows %d", res.Data[6].TotalCases, sum)
	}
}

func TestVaccinationCoverage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rid := insertTestRegion(t, db, "TS", 100000)

	in := models.VaccinationInput{
		Date:                  testToday.String(),
		RegionID:              rid,
		VaccineType:           models.VaccinePfizer,
		FirstDose:             25000,
		SecondDose:            10000,
		PeopleVaccinated:      25000,
		PeopleFullyVaccinated: 10000,
	}
	if res := db.InsertVaccination(ctx, in); !res.Success {
		t.Fatalf("InsertVaccination failed: %s", res.Error)
	}

	summary := db.VaccinationSummary(ctx)
	if !summary.Success {
		t.Fatalf("VaccinationSummary failed: %s", summary.Error)
	}
	if summary.Data.VaccinationRate != "25.00" {
		t.Errorf("vaccination_rate = %s, want 25.00", summary.Data.VaccinationRate)
	}
	if summary.Data.FullVaccinationRate != "10.00" {
		t.Errorf("full_vaccination_rate = %s, want 10.00", summary.Data.FullVaccinationRate)
	}
	if summary.Data.TotalDoses != 35000 {
		t.Errorf("total_doses = %d, want 35000", summary.Data.TotalDoses)
	}

	if dup := db.InsertVaccination(ctx, in); !errors.Is(dup.Err(), ErrDuplicate) {
		t.Errorf("duplicate vaccination row error = %v", dup.Err())
	}

	byRegion := db.VaccinationsByRegion(ctx)
	if !byRegion.Success || len(byRegion.Data) != 1 || byRegion.Data[0].VaccinationRate != "25.00" {
		t.Errorf("VaccinationsByRegion = %+v (%s)", byRegion.Data, byRegion.Error)
	}
}

func TestUpsertVaccinationDoses(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rid := insertTestRegion(t, db, "TS", 100000)
	yesterday := testToday.AddDays(-1)
	vt := models.VaccineAstraZeneca

	steps := []struct {
		day   models.Day
		delta models.DoseDelta
	}{
		{yesterday, models.DoseDelta{FirstDose: 100}},
		{testToday, models.DoseDelta{FirstDose: 10, SecondDose: 4}},
		{testToday, models.DoseDelta{FirstDose: 10, SecondDose: 6, BoosterDose: 1}},
	}
	for _, s := range steps {
		if res := db.UpsertVaccinationDoses(ctx, s.day, rid, vt, s.delta); !res.Success {
			t.Fatalf("UpsertVaccinationDoses failed: %s", res.Error)
		}
	}

	list := db.ListVaccinations(ctx, models.VaccinationFilter{RegionID: &rid, VaccineType: vt})
	if !list.Success || len(list.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d (%s)", len(list.Data), list.Error)
	}
	today := list.Data[0]
	if today.FirstDose != 20 || today.SecondDose != 10 || today.BoosterDose != 1 {
		t.Errorf("doses not accumulated: %+v", today)
	}
	if today.PeopleVaccinated != 120 || today.PeopleFullyVaccinated != 10 {
		t.Errorf("people counts = %d/%d, want 120/10", today.PeopleVaccinated, today.PeopleFullyVaccinated)
	}

	summary := db.VaccinationSummary(ctx)
	if summary.Data.PeopleVaccinated != 120 {
		t.Errorf("coverage should use the latest cumulative row, got %d", summary.Data.PeopleVaccinated)
	}
}

func TestHospitalCapacity(t *testing.T) {
	db := setupSeededDB(t, 0)
	ctx := context.Background()

	hospitals := db.ListHospitals(ctx, nil)
	if !hospitals.Success || len(hospitals.Data) != 7 {
		t.Fatalf("expected 7 hospitals, got %d (%s)", len(hospitals.Data), hospitals.Error)
	}
	h := hospitals.Data[0]

	occ := models.HospitalOccupancy{OccupiedBeds: h.TotalBeds / 2}
	if res := db.UpdateHospitalOccupancy(ctx, h.ID, occ); !res.Success || res.Data != 1 {
		t.Fatalf("UpdateHospitalOccupancy affected %d rows (%s)", res.Data, res.Error)
	}
	got := db.GetHospital(ctx, h.ID)
	if !got.Success || got.Data == nil || got.Data.OccupiedBeds != h.TotalBeds/2 {
		t.Fatalf("occupancy not stored: %+v (%s)", got.Data, got.Error)
	}
	if missing := db.GetHospital(ctx, 9999); !missing.Success || missing.Data != nil {
		t.Error("missing hospital should return nil data")
	}

	report := db.HospitalCapacity(ctx)
	if !report.Success {
		t.Fatalf("HospitalCapacity failed: %s", report.Error)
	}
	var beds, occupied int64
	for _, r := range report.Data.ByRegion {
		beds += r.TotalBeds
		occupied += r.OccupiedBeds
	}
	n := report.Data.National
	if n.Hospitals != 7 || n.TotalBeds != beds || n.OccupiedBeds != occupied {
		t.Errorf("national totals do not match regions: %+v", n)
	}
	if n.BedOccupancyRate == "" || n.BedOccupancyRate == "0.00" {
		t.Errorf("bed occupancy rate = %q", n.BedOccupancyRate)
	}

	rid := h.RegionID
	byRegion := db.ListHospitals(ctx, &rid)
	if !byRegion.Success || len(byRegion.Data) != 1 {
		t.Errorf("expected one hospital in region %d, got %d", rid, len(byRegion.Data))
	}
}

func TestTesting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rid := insertTestRegion(t, db, "TS", 100000)

	in := models.TestingInput{
		Date: testToday.AddDays(-1).String(), RegionID: rid,
		TotalTests: 8, PCRTests: 5, AntigenTests: 3, PositiveTests: 7, NegativeTests: 1,
	}
	inserted := db.InsertTesting(ctx, in)
	if !inserted.Success || inserted.Data == nil {
		t.Fatalf("InsertTesting failed: %s", inserted.Error)
	}
	if inserted.Data.PositivityRate != "87.50" {
		t.Errorf("positivity_rate = %s, want 87.50", inserted.Data.PositivityRate)
	}

	delta := models.TestingDelta{PCRTests: 10, AntigenTests: 5, PositiveTests: 3, NegativeTests: 12}
	for i := 0; i < 2; i++ {
		if res := db.UpsertTestingDelta(ctx, testToday, rid, delta); !res.Success {
			t.Fatalf("UpsertTestingDelta failed: %s", res.Error)
		}
	}
	list := db.ListTesting(ctx, models.TestingFilter{RegionID: &rid})
	if !list.Success || len(list.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d (%s)", len(list.Data), list.Error)
	}
	if today := list.Data[0]; today.TotalTests != 30 || today.PositiveTests != 6 {
		t.Errorf("testing delta not accumulated: %+v", today)
	}

	summary := db.TestingSummary(ctx, query.Period7d, testToday)
	if !summary.Success {
		t.Fatalf("TestingSummary failed: %s", summary.Error)
	}
	if summary.Data.TotalTests != 38 || summary.Data.PositiveTests != 13 {
		t.Errorf("summary totals: %+v", summary.Data)
	}
	if summary.Data.PositivityRate != "34.21" {
		t.Errorf("positivity_rate = %s, want 34.21", summary.Data.PositivityRate)
	}

	series := db.TestingDailySeries(ctx, 30, testToday)
	if !series.Success || len(series.Data) != 2 {
		t.Errorf("expected 2 series points, got %d (%s)", len(series.Data), series.Error)
	}
}

func TestRegions(t *testing.T) {
	db := setupSeededDB(t, 5)
	ctx := context.Background()
	rid := regionID(t, db, "PZ")

	region := db.GetRegion(ctx, rid)
	if !region.Success || region.Data == nil || region.Data.Name != "Prizren" {
		t.Fatalf("GetRegion = %+v (%s)", region.Data, region.Error)
	}

	munis := db.ListMunicipalities(ctx, rid)
	if !munis.Success || len(munis.Data) == 0 {
		t.Fatalf("expected municipalities for Prizren (%s)", munis.Error)
	}
	for _, m := range munis.Data {
		if m.RegionID != rid {
			t.Errorf("municipality %s belongs to region %d", m.Name, m.RegionID)
		}
	}

	stats := db.RegionStats(ctx, rid)
	if !stats.Success || stats.Data == nil {
		t.Fatalf("RegionStats failed: %s", stats.Error)
	}
	s := stats.Data
	if s.LatestDate == nil || !s.LatestDate.Equal(testToday.Time) {
		t.Errorf("latest_date = %v", s.LatestDate)
	}
	if s.TotalCases == 0 || s.Hospitals != 1 || s.PeopleVaccinated == 0 {
		t.Errorf("stats not joined: %+v", s)
	}
	if s.PopulationDensity != 237.42 {
		t.Errorf("population_density = %v, want 237.42", s.PopulationDensity)
	}

	if missing := db.RegionStats(ctx, 9999); !missing.Success || missing.Data != nil {
		t.Error("RegionStats for an unknown id should return nil data")
	}

	comparison := db.RegionComparison(ctx)
	if !comparison.Success || len(comparison.Data) != 7 {
		t.Fatalf("expected 7 regions in comparison, got %d (%s)", len(comparison.Data), comparison.Error)
	}
}

func TestGateway(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("invalid SQL fails without panicking", func(t *testing.T) {
		res := Query(ctx, db.conn, Op{"broken", "none"},
			query.Builder.Select("*").From("no_such_table"),
			func(rs RowScanner) (int64, error) { return 0, nil })
		if res.Success || res.Error == "" || res.Err() == nil {
			t.Errorf("expected a failed result, got %+v", res)
		}
	})

	t.Run("panicking scanner is recovered", func(t *testing.T) {
		res := Query(ctx, db.conn, Op{"panics", "none"},
			query.Builder.Select("1"),
			func(rs RowScanner) (int64, error) { panic("boom") })
		if res.Success {
			t.Error("expected failure after panic")
		}
	})

	t.Run("scalar on empty result is zero", func(t *testing.T) {
		res := Scalar[int64](ctx, db.conn, Op{"empty", tableRegions},
			query.Builder.Select("id").From("regions"))
		if !res.Success || res.Data != 0 {
			t.Errorf("got %+v", res)
		}
	})
}

func TestUpserts_ConflictRefreshesUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rid := insertTestRegion(t, db, "TS", 100000)
	stale := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		table  string
		upsert func() Result[int64]
	}{
		{"daily cases", "daily_cases", func() Result[int64] {
			return db.UpsertDailyCaseDelta(ctx, testToday, rid, models.CaseDelta{NewCases: 3})
		}},
		{"vaccinations", "vaccinations", func() Result[int64] {
			return db.UpsertVaccinationDoses(ctx, testToday, rid, models.VaccineAstraZeneca, models.DoseDelta{FirstDose: 5})
		}},
		{"testing", "testing_data", func() Result[int64] {
			return db.UpsertTestingDelta(ctx, testToday, rid, models.TestingDelta{PCRTests: 4, NegativeTests: 4})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := tt.upsert(); !res.Success {
				t.Fatalf("insert path failed: %s", res.Error)
			}
			mustExec(t, db, "UPDATE "+tt.table+" SET updated_at = ? WHERE region_id = ?", stale, rid)

			if res := tt.upsert(); !res.Success {
				t.Fatalf("conflict path failed: %s", res.Error)
			}

			var updated time.Time
			row := db.Conn().QueryRowContext(ctx, "SELECT updated_at FROM "+tt.table+" WHERE region_id = ? AND date = ?", rid, testToday.Time)
			if err := row.Scan(&updated); err != nil {
				t.Fatalf("scan updated_at: %v", err)
			}
			if !updated.After(stale) {
				t.Errorf("updated_at = %v, want a time after %v", updated, stale)
			}
		})
	}
}

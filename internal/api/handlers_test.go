// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"bytes"
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/kosovo-covid/internal/automation"
	"github.com/tomtom215/kosovo-covid/internal/config"
	"github.com/tomtom215/kosovo-covid/internal/database"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// testDBSemaphore serializes tests that hold a DuckDB connection.
var testDBSemaphore = make(chan struct{}, 1)

var testToday = models.NewDay(time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC))

const testSeedDays = 40

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2, MaxOpenConns: 4},
		Server:   config.ServerConfig{Environment: "development"},
		API:      config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Security: config.SecurityConfig{RateLimitDisabled: true},
		Freshness: config.FreshnessConfig{
			FreshAfter: time.Hour,
			StaleAfter: 24 * time.Hour,
		},
	}
}

// mockAutomation is a hand-written Automation.
type mockAutomation struct {
	mu     sync.Mutex
	status automation.Status
	record automation.RunRecord
	err    error
	calls  []string
}

func (m *mockAutomation) Status(context.Context) automation.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockAutomation) RunNow(name string) (automation.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	return m.record, m.err
}

// setupTestHandler returns a handler over a seeded in-memory database with
// the clock fixed on testToday.
func setupTestHandler(t *testing.T, auto Automation) (*Handler, *database.DB) {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := testConfig()
	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	if _, err := db.Seed(context.Background(), database.SeedOptions{
		Days:  testSeedDays,
		Today: testToday,
		Rand:  rand.New(rand.NewPCG(7, 11)),
		Sources: map[string]string{
			models.SourceNIPH:           "",
			models.SourceWHO:            "",
			models.SourceMinistryHealth: "",
		},
	}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	h := NewHandler(db, auto, cfg)
	h.now = func() time.Time { return testToday.Time.Add(12 * time.Hour) }
	h.gatherer = prometheus.NewRegistry()
	return h, db
}

// testResponse decodes the envelope leaving data raw.
type testResponse struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Total      *int64          `json:"total"`
	Pagination *PaginationMeta `json:"pagination"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details"`
	RequestID  string          `json:"request_id"`
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: invalid JSON body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, resp
}

func decodeData[T any](t *testing.T, resp testResponse) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", resp.Data, err)
	}
	return v
}

func newTestMux(t *testing.T, auto Automation) (http.Handler, *Handler, *database.DB) {
	t.Helper()
	h, db := setupTestHandler(t, auto)
	return NewRouter(h, h.config).SetupChi(), h, db
}

func firstRegionID(t *testing.T, db *database.DB) int64 {
	t.Helper()
	res := db.ListRegions(context.Background())
	if !res.Success || len(res.Data) == 0 {
		t.Fatalf("no seeded regions: %s", res.Error)
	}
	return res.Data[0].ID
}

func TestCasesEndpoints(t *testing.T) {
	mux, _, db := newTestMux(t, nil)
	regionID := firstRegionID(t, db)

	t.Run("list paginates", func(t *testing.T) {
		w, resp := doRequest(t, mux, http.MethodGet, "/api/v1/cases?limit=5&offset=3", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		rows := decodeData[[]models.DailyCaseRecord](t, resp)
		if len(rows) != 5 {
			t.Errorf("len = %d, want 5", len(rows))
		}
		if resp.Total == nil || *resp.Total != 7*testSeedDays {
			t.Errorf("total = %v, want %d", resp.Total, 7*testSeedDays)
		}
		if resp.Pagination == nil || !resp.Pagination.HasMore || resp.Pagination.Offset != 3 {
			t.Errorf("pagination = %+v", resp.Pagination)
		}
		if w.Header().Get("ETag") == "" {
			t.Error("expected ETag on 200")
		}
	})

	t.Run("list filters by region and date", func(t *testing.T) {
		from := testToday.AddDays(-2).String()
		w, resp := doRequest(t, mux, http.MethodGet,
			"/api/v1/cases?region_id="+itoa(regionID)+"&start_date="+from+"&end_date="+testToday.String(), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		rows := decodeData[[]models.DailyCaseRecord](t, resp)
		if len(rows) != 3 {
			t.Fatalf("len = %d, want 3", len(rows))
		}
		for _, row := range rows {
			if row.RegionID != regionID {
				t.Errorf("row for region %d leaked into filter", row.RegionID)
			}
		}
	})

	t.Run("limit clamped to max page size", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/cases?limit=5000", nil)
		if resp.Pagination == nil || resp.Pagination.Limit != 100 {
			t.Errorf("pagination = %+v, want limit 100", resp.Pagination)
		}
	})

	badParams := []struct {
		name  string
		query string
	}{
		{"non-numeric limit", "limit=abc"},
		{"zero limit", "limit=0"},
		{"negative offset", "offset=-1"},
		{"bad region", "region_id=x"},
		{"bad date", "start_date=2021-13-01"},
		{"end before start", "start_date=2021-03-10&end_date=2021-03-01"},
	}
	for _, tt := range badParams {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, mux, http.MethodGet, "/api/v1/cases?"+tt.query, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if resp.Error != ErrCodeValidationFailed || len(resp.Details) == 0 {
				t.Errorf("unexpected error body: %+v", resp)
			}
			if resp.RequestID == "" {
				t.Error("failure body should carry request_id")
			}
		})
	}

	t.Run("latest has one row per region", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/cases/latest", nil)
		rows := decodeData[[]models.DailyCaseRecord](t, resp)
		if len(rows) != 7 {
			t.Fatalf("len = %d, want 7", len(rows))
		}
		for _, row := range rows {
			if !row.Date.Equal(testToday.Time) {
				t.Errorf("latest row dated %s, want %s", row.Date, testToday)
			}
		}
	})

	t.Run("summary", func(t *testing.T) {
		w, resp := doRequest(t, mux, http.MethodGet, "/api/v1/cases/summary?period=7d", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		s := decodeData[models.CaseSummary](t, resp)
		if s.Period != "7d" || s.TotalCases == 0 {
			t.Errorf("summary = %+v", s)
		}
	})

	t.Run("summary rejects unknown period", func(t *testing.T) {
		w, _ := doRequest(t, mux, http.MethodGet, "/api/v1/cases/summary?period=1y", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("trends", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/cases/trends?days=14", nil)
		points := decodeData[[]models.CaseTrendPoint](t, resp)
		if len(points) != 14 {
			t.Fatalf("len = %d, want 14", len(points))
		}
		if points[5].MovingAvg7d != nil || points[6].MovingAvg7d == nil {
			t.Error("moving average should start at the seventh point")
		}
		if points[0].PercentChange != 0 {
			t.Errorf("first percent change = %v, want 0", points[0].PercentChange)
		}
	})

	for _, days := range []string{"0", "366", "x"} {
		t.Run("trends rejects days="+days, func(t *testing.T) {
			w, _ := doRequest(t, mux, http.MethodGet, "/api/v1/cases/trends?days="+days, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	t.Run("get by id", func(t *testing.T) {
		list := db.ListCases(context.Background(), models.CaseFilter{Limit: 1})
		id := list.Data[0].ID
		w, resp := doRequest(t, mux, http.MethodGet, "/api/v1/cases/"+itoa(id), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if got := decodeData[models.DailyCaseRecord](t, resp); got.ID != id {
			t.Errorf("id = %d, want %d", got.ID, id)
		}
	})

	t.Run("get missing is 404", func(t *testing.T) {
		w, resp := doRequest(t, mux, http.MethodGet, "/api/v1/cases/999999", nil)
		if w.Code != http.StatusNotFound || resp.Error != ErrCodeNotFound {
			t.Errorf("status = %d error = %q", w.Code, resp.Error)
		}
		if w.Header().Get("ETag") != "" {
			t.Error("404 should not carry an ETag")
		}
	})

	t.Run("get non-numeric id is 400", func(t *testing.T) {
		w, _ := doRequest(t, mux, http.MethodGet, "/api/v1/cases/abc", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestCreateCase(t *testing.T) {
	mux, _, db := newTestMux(t, nil)
	regionID := firstRegionID(t, db)
	tomorrow := testToday.AddDays(1).String()

	valid := map[string]any{
		"date":         tomorrow,
		"region_id":    regionID,
		"total_cases":  500,
		"new_cases":    12,
		"deaths":       10,
		"new_deaths":   1,
		"recovered":    300,
		"hospitalized": 20,
		"icu_patients": 4,
	}

	w, resp := doRequest(t, mux, http.MethodPost, "/api/v1/cases", valid)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeData[models.DailyCaseRecord](t, resp)
	if created.ID == 0 || created.ActiveCases != 190 {
		t.Errorf("created = %+v, want active 190", created)
	}

	t.Run("duplicate date and region", func(t *testing.T) {
		w, resp := doRequest(t, mux, http.MethodPost, "/api/v1/cases", valid)
		if w.Code != http.StatusBadRequest || resp.Error != ErrCodeValidationFailed {
			t.Errorf("status = %d error = %q", w.Code, resp.Error)
		}
	})

	invalid := []struct {
		name string
		body any
	}{
		{"malformed json", `{"date":`},
		{"unknown field", map[string]any{"date": tomorrow, "region_id": regionID, "bogus": 1}},
		{"missing date", map[string]any{"region_id": regionID}},
		{"bad date format", map[string]any{"date": "15/03/2021", "region_id": regionID}},
		{"negative count", map[string]any{"date": tomorrow, "region_id": regionID, "total_cases": -1}},
		{"deaths exceed total", map[string]any{"date": tomorrow, "region_id": regionID, "total_cases": 5, "deaths": 6}},
		{"icu exceeds hospitalized", map[string]any{"date": tomorrow, "region_id": regionID, "hospitalized": 1, "icu_patients": 2}},
		{"unknown region", map[string]any{"date": tomorrow, "region_id": 9999}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, mux, http.MethodPost, "/api/v1/cases", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body %s", w.Code, w.Body.String())
			}
			if resp.Success {
				t.Error("success should be false")
			}
		})
	}
}

func TestVaccinationEndpoints(t *testing.T) {
	mux, _, db := newTestMux(t, nil)
	regionID := firstRegionID(t, db)

	t.Run("list filters by vaccine type", func(t *testing.T) {
		w, resp := doRequest(t, mux, http.MethodGet, "/api/v1/vaccinations?vaccine_type="+models.VaccinePfizer, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		for _, v := range decodeData[[]models.VaccinationRecord](t, resp) {
			if v.VaccineType != models.VaccinePfizer {
				t.Errorf("vaccine type %q leaked into filter", v.VaccineType)
			}
		}
	})

	t.Run("unknown vaccine type matches nothing", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/vaccinations?vaccine_type=Unknown", nil)
		if rows := decodeData[[]models.VaccinationRecord](t, resp); len(rows) != 0 {
			t.Errorf("len = %d, want 0", len(rows))
		}
		if resp.Total == nil || *resp.Total != 0 {
			t.Errorf("total = %v, want 0", resp.Total)
		}
	})

	t.Run("by region covers every region", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/vaccinations/by-region", nil)
		if rows := decodeData[[]models.RegionVaccination](t, resp); len(rows) != 7 {
			t.Errorf("len = %d, want 7", len(rows))
		}
	})

	t.Run("summary and trends", func(t *testing.T) {
		w, _ := doRequest(t, mux, http.MethodGet, "/api/v1/vaccinations/summary", nil)
		if w.Code != http.StatusOK {
			t.Errorf("summary status = %d", w.Code)
		}
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/vaccinations/trends?days=10", nil)
		if points := decodeData[[]models.VaccinationTrendPoint](t, resp); len(points) != 10 {
			t.Errorf("trend len = %d, want 10", len(points))
		}
	})

	t.Run("create", func(t *testing.T) {
		body := map[string]any{
			"date":              testToday.AddDays(1).String(),
			"region_id":         regionID,
			"vaccine_type":      models.VaccineModerna,
			"first_dose":        100,
			"second_dose":       40,
			"people_vaccinated": 100,
		}
		w, _ := doRequest(t, mux, http.MethodPost, "/api/v1/vaccinations", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		w, _ = doRequest(t, mux, http.MethodPost, "/api/v1/vaccinations", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("duplicate status = %d, want 400", w.Code)
		}
	})
}

func TestHospitalEndpoints(t *testing.T) {
	mux, _, db := newTestMux(t, nil)
	hospitals := db.ListHospitals(context.Background(), nil)
	if !hospitals.Success || len(hospitals.Data) == 0 {
		t.Fatal("no seeded hospitals")
	}
	hosp := hospitals.Data[0]
	path := "/api/v1/hospitals/" + itoa(hosp.ID)

	t.Run("capacity", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/hospitals/capacity", nil)
		report := decodeData[models.CapacityReport](t, resp)
		if report.National.Hospitals != int64(len(hospitals.Data)) {
			t.Errorf("national hospitals = %d, want %d", report.National.Hospitals, len(hospitals.Data))
		}
	})

	t.Run("get missing", func(t *testing.T) {
		w, _ := doRequest(t, mux, http.MethodGet, "/api/v1/hospitals/424242", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("update occupancy", func(t *testing.T) {
		occ := models.HospitalOccupancy{OccupiedBeds: 10, OccupiedCovidBeds: 5, OccupiedICUBeds: 2, VentilatorsInUse: 1}
		w, resp := doRequest(t, mux, http.MethodPut, path+"/occupancy", occ)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		got := decodeData[models.Hospital](t, resp)
		if got.OccupiedBeds != 10 || got.VentilatorsInUse != 1 {
			t.Errorf("hospital after update = %+v", got)
		}
	})

	t.Run("occupancy over capacity", func(t *testing.T) {
		occ := models.HospitalOccupancy{OccupiedBeds: hosp.TotalBeds + 1}
		w, resp := doRequest(t, mux, http.MethodPut, path+"/occupancy", occ)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if !bytes.Contains(resp.Details, []byte("occupied_beds")) {
			t.Errorf("details should name occupied_beds: %s", resp.Details)
		}
	})

	t.Run("occupancy on missing hospital", func(t *testing.T) {
		w, _ := doRequest(t, mux, http.MethodPut, "/api/v1/hospitals/424242/occupancy", models.HospitalOccupancy{})
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestTestingEndpoints(t *testing.T) {
	mux, _, db := newTestMux(t, nil)
	regionID := firstRegionID(t, db)

	t.Run("summary reports positivity", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/testing/summary?period=30d", nil)
		s := decodeData[models.TestingSummary](t, resp)
		if s.TotalTests == 0 || s.PositivityRate == "" {
			t.Errorf("summary = %+v", s)
		}
	})

	t.Run("centers filter by region", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/testing/centers?region_id="+itoa(regionID), nil)
		for _, c := range decodeData[[]models.TestingCenter](t, resp) {
			if c.RegionID != regionID {
				t.Errorf("center of region %d leaked into filter", c.RegionID)
			}
		}
	})

	t.Run("trends", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/testing/trends?days=7", nil)
		if points := decodeData[[]models.TestingTrendPoint](t, resp); len(points) != 7 {
			t.Errorf("len = %d, want 7", len(points))
		}
	})

	t.Run("create rejects breakdown over total", func(t *testing.T) {
		body := map[string]any{
			"date":           testToday.AddDays(1).String(),
			"region_id":      regionID,
			"total_tests":    10,
			"positive_tests": 8,
			"negative_tests": 8,
		}
		w, _ := doRequest(t, mux, http.MethodPost, "/api/v1/testing", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("create", func(t *testing.T) {
		body := map[string]any{
			"date":           testToday.AddDays(1).String(),
			"region_id":      regionID,
			"total_tests":    100,
			"pcr_tests":      60,
			"antigen_tests":  40,
			"positive_tests": 9,
			"negative_tests": 91,
		}
		w, resp := doRequest(t, mux, http.MethodPost, "/api/v1/testing", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if rec := decodeData[models.TestingRecord](t, resp); rec.PositivityRate != "9.00" {
			t.Errorf("positivity = %q, want 9.00", rec.PositivityRate)
		}
	})
}

func TestRegionEndpoints(t *testing.T) {
	mux, _, db := newTestMux(t, nil)
	regionID := firstRegionID(t, db)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"list", "/api/v1/regions", http.StatusOK},
		{"comparison", "/api/v1/regions/comparison", http.StatusOK},
		{"get", "/api/v1/regions/" + itoa(regionID), http.StatusOK},
		{"stats", "/api/v1/regions/" + itoa(regionID) + "/stats", http.StatusOK},
		{"municipalities", "/api/v1/regions/" + itoa(regionID) + "/municipalities", http.StatusOK},
		{"get missing", "/api/v1/regions/999", http.StatusNotFound},
		{"stats missing", "/api/v1/regions/999/stats", http.StatusNotFound},
		{"municipalities missing", "/api/v1/regions/999/municipalities", http.StatusNotFound},
		{"bad id", "/api/v1/regions/zero", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doRequest(t, mux, http.MethodGet, tt.path, nil)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d, body %s", w.Code, tt.status, w.Body.String())
			}
		})
	}

	t.Run("comparison has every region", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/regions/comparison", nil)
		stats := decodeData[[]models.RegionStats](t, resp)
		if len(stats) != 7 {
			t.Fatalf("len = %d, want 7", len(stats))
		}
		for _, s := range stats {
			if s.TotalCases == 0 || s.IncidencePer100k == "" {
				t.Errorf("incomplete stats for %s: %+v", s.RegionCode, s)
			}
		}
	})

	t.Run("municipalities belong to region", func(t *testing.T) {
		_, resp := doRequest(t, mux, http.MethodGet, "/api/v1/regions/"+itoa(regionID)+"/municipalities", nil)
		munis := decodeData[[]models.Municipality](t, resp)
		if len(munis) == 0 {
			t.Fatal("expected municipalities")
		}
		for _, m := range munis {
			if m.RegionID != regionID {
				t.Errorf("municipality %s belongs to region %d", m.Name, m.RegionID)
			}
		}
	})
}

func TestRunJob(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"unknown job", automation.ErrJobNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"already running", automation.ErrJobRunning, http.StatusConflict, ErrCodeConflict},
		{"scheduler stopped", automation.ErrSchedulerStopped, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auto := &mockAutomation{
				record: automation.RunRecord{Job: "data-refresh", Status: "failed", Error: "boom", Trigger: automation.TriggerManual},
				err:    tt.err,
			}
			mux, _, _ := newTestMux(t, auto)

			w, resp := doRequest(t, mux, http.MethodPost, "/api/v1/automation/jobs/data-refresh/run", nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if resp.Error != tt.code {
				t.Errorf("error = %q, want %q", resp.Error, tt.code)
			}
			if len(auto.calls) != 1 || auto.calls[0] != "data-refresh" {
				t.Errorf("RunNow calls = %v", auto.calls)
			}
			if tt.err == nil {
				if rec := decodeData[automation.RunRecord](t, resp); rec.Status != "failed" {
					t.Errorf("a failed run is still returned, got %+v", rec)
				}
			}
		})
	}

	t.Run("no automation", func(t *testing.T) {
		mux, _, _ := newTestMux(t, nil)
		w, _ := doRequest(t, mux, http.MethodPost, "/api/v1/automation/jobs/data-refresh/run", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		mux, _, _ := newTestMux(t, &mockAutomation{})
		w, resp := doRequest(t, mux, http.MethodGet, "/api/v1/automation/jobs/data-refresh/run", nil)
		if w.Code != http.StatusMethodNotAllowed || resp.Error != ErrCodeMethodNotAllowed {
			t.Errorf("status = %d error = %q", w.Code, resp.Error)
		}
	})
}

func TestUnknownRoute(t *testing.T) {
	mux, _, _ := newTestMux(t, nil)
	w, resp := doRequest(t, mux, http.MethodGet, "/api/v1/nope", nil)
	if w.Code != http.StatusNotFound || resp.Error != ErrCodeNotFound {
		t.Errorf("status = %d error = %q", w.Code, resp.Error)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be set on every response")
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

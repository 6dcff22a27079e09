// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package automation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kosovo-covid/internal/analytics"
	"github.com/tomtom215/kosovo-covid/internal/config"
	"github.com/tomtom215/kosovo-covid/internal/database"
	"github.com/tomtom215/kosovo-covid/internal/metrics"
	"github.com/tomtom215/kosovo-covid/internal/models"
)

// Job names.
const (
	JobDataRefresh  = "data-refresh"
	JobDailyStats   = "daily-stats"
	JobWeeklyReport = "weekly-report"
	JobSourceProbe  = "source-probe"
)

// movingAverageLookback is the number of days daily-stats reloads per
// region to recompute moving_avg_7d.
const movingAverageLookback = 14

// Store is the part of the database the jobs read and write.
type Store interface {
	SourceRecorder
	ListRegions(ctx context.Context) database.Result[[]models.Region]
	LatestCases(ctx context.Context) database.Result[[]models.DailyCaseRecord]
	UpsertDailyCaseDelta(ctx context.Context, date models.Day, regionID int64, d models.CaseDelta) database.Result[int64]
	ListHospitals(ctx context.Context, regionID *int64) database.Result[[]models.Hospital]
	UpdateHospitalOccupancy(ctx context.Context, id int64, occ models.HospitalOccupancy) database.Result[int64]
	UpsertVaccinationDoses(ctx context.Context, date models.Day, regionID int64, vaccineType string, d models.DoseDelta) database.Result[int64]
	UpsertTestingDelta(ctx context.Context, date models.Day, regionID int64, d models.TestingDelta) database.Result[int64]
	GetRegionDay(ctx context.Context, date models.Day, regionID int64) database.Result[*models.DailyCaseRecord]
	UpdateDailyNewCounts(ctx context.Context, date models.Day, regionID int64, newCases, newDeaths, newRecovered int64) database.Result[int64]
	RegionCaseSeries(ctx context.Context, regionID int64, from, to models.Day) database.Result[[]models.DailyCaseRecord]
	UpdateMovingAverages(ctx context.Context, regionID int64, averages map[models.Day]float64) database.Result[int64]
	NationalDailySeries(ctx context.Context, days int, today models.Day) database.Result[[]models.DailyTotals]
}

// Jobs implements the job bodies.
type Jobs struct {
	store  Store
	sim    *Simulator
	prober *Prober
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

// NewJobs wires the job bodies. prober may be nil, which makes
// source-probe a no-op.
func NewJobs(store Store, sim *Simulator, prober *Prober, loc *time.Location, logger zerolog.Logger) *Jobs {
	if loc == nil {
		loc = time.UTC
	}
	return &Jobs{
		store:  store,
		sim:    sim,
		prober: prober,
		loc:    loc,
		now:    time.Now,
		logger: logger.With().Str("component", "automation-jobs").Logger(),
	}
}

// Definitions returns the four scheduled jobs with their configured
// schedules.
func (j *Jobs) Definitions(cfg *config.AutomationConfig) []Job {
	return []Job{
		{Name: JobDataRefresh, Schedule: cfg.RefreshCron, Run: j.Refresh},
		{Name: JobDailyStats, Schedule: cfg.DailyStatsCron, Source: models.SourceNIPH, Run: j.DailyStats},
		{Name: JobWeeklyReport, Schedule: cfg.WeeklyReportCron, Run: func(ctx context.Context) error {
			_, err := j.WeeklyReport(ctx)
			return err
		}},
		{Name: JobSourceProbe, Schedule: cfg.ProbeCron, Run: j.ProbeSources},
	}
}

func (j *Jobs) today() models.Day {
	return models.NewDay(j.now().In(j.loc))
}

// recordSource stores the outcome of a sub-step against its source.
func (j *Jobs) recordSource(ctx context.Context, source string, err error) {
	var res database.Result[int64]
	if err != nil {
		res = j.store.RecordSourceError(ctx, source, err.Error())
	} else {
		res = j.store.RecordSourceSuccess(ctx, source)
	}
	if !res.Success {
		j.logger.Warn().Str("source", source).Str("error", res.Error).Msg("Failed to record source status")
	}
}

// Refresh applies one round of simulated updates for today: case deltas
// and testing counts (niph_kosovo), hospital occupancy
// (ministry_of_health) and doses (who). Each sub-step keeps going past
// per-row failures and reports to its own source; the joined error is
// returned.
func (j *Jobs) Refresh(ctx context.Context) error {
	today := j.today()
	regions := j.store.ListRegions(ctx)
	if !regions.Success {
		return regions.Err()
	}

	newCases, caseErr := j.refreshCases(ctx, today, regions.Data)
	testErr := j.refreshTesting(ctx, today, regions.Data, newCases)
	hospitalErr := j.refreshHospitals(ctx)
	vaccineErr := j.refreshVaccinations(ctx, today, regions.Data)

	j.recordSource(ctx, models.SourceNIPH, errors.Join(caseErr, testErr))
	j.recordSource(ctx, models.SourceMinistryHealth, hospitalErr)
	j.recordSource(ctx, models.SourceWHO, vaccineErr)

	return errors.Join(caseErr, testErr, hospitalErr, vaccineErr)
}

func (j *Jobs) refreshCases(ctx context.Context, today models.Day, regions []models.Region) (map[int64]int64, error) {
	latest := j.store.LatestCases(ctx)
	if !latest.Success {
		return nil, latest.Err()
	}
	byRegion := make(map[int64]*models.DailyCaseRecord, len(latest.Data))
	for i := range latest.Data {
		byRegion[latest.Data[i].RegionID] = &latest.Data[i]
	}

	newCases := make(map[int64]int64, len(regions))
	var errs []error
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		d := j.sim.CaseDelta(r, byRegion[r.ID])
		if res := j.store.UpsertDailyCaseDelta(ctx, today, r.ID, d); !res.Success {
			errs = append(errs, res.Err())
			continue
		}
		newCases[r.ID] = d.NewCases
	}
	metrics.RecordSimulatedRows("daily_cases", len(newCases))
	return newCases, errors.Join(errs...)
}

func (j *Jobs) refreshTesting(ctx context.Context, today models.Day, regions []models.Region, newCases map[int64]int64) error {
	var errs []error
	written := 0
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		d := j.sim.Testing(r, newCases[r.ID])
		if res := j.store.UpsertTestingDelta(ctx, today, r.ID, d); !res.Success {
			errs = append(errs, res.Err())
			continue
		}
		written++
	}
	metrics.RecordSimulatedRows("testing_data", written)
	return errors.Join(errs...)
}

func (j *Jobs) refreshHospitals(ctx context.Context) error {
	hospitals := j.store.ListHospitals(ctx, nil)
	if !hospitals.Success {
		return hospitals.Err()
	}

	var errs []error
	written := 0
	for _, h := range hospitals.Data {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if res := j.store.UpdateHospitalOccupancy(ctx, h.ID, j.sim.Occupancy(h)); !res.Success {
			errs = append(errs, res.Err())
			continue
		}
		written++
	}
	metrics.RecordSimulatedRows("hospitals", written)
	return errors.Join(errs...)
}

func (j *Jobs) refreshVaccinations(ctx context.Context, today models.Day, regions []models.Region) error {
	var errs []error
	written := 0
	for _, r := range regions {
		for _, vt := range models.VaccineTypes {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}
			if res := j.store.UpsertVaccinationDoses(ctx, today, r.ID, vt, j.sim.Doses(r)); !res.Success {
				errs = append(errs, res.Err())
				continue
			}
			written++
		}
	}
	metrics.RecordSimulatedRows("vaccinations", written)
	return errors.Join(errs...)
}

// DailyStats recomputes today's daily counters from the cumulative
// difference to yesterday, then refreshes moving_avg_7d over the last two
// weeks. Regions missing either day are skipped.
func (j *Jobs) DailyStats(ctx context.Context) error {
	today := j.today()
	yesterday := today.AddDays(-1)

	regions := j.store.ListRegions(ctx)
	if !regions.Success {
		return regions.Err()
	}

	var errs []error
	updated, skipped := 0, 0
	for _, r := range regions.Data {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		cur := j.store.GetRegionDay(ctx, today, r.ID)
		prev := j.store.GetRegionDay(ctx, yesterday, r.ID)
		if !cur.Success || !prev.Success {
			errs = append(errs, cur.Err(), prev.Err())
			continue
		}
		if cur.Data == nil || prev.Data == nil {
			skipped++
			continue
		}

		t, y := cur.Data, prev.Data
		res := j.store.UpdateDailyNewCounts(ctx, today, r.ID,
			analytics.NonNegativeDelta(t.TotalCases, y.TotalCases),
			analytics.NonNegativeDelta(t.Deaths, y.Deaths),
			analytics.NonNegativeDelta(t.Recovered, y.Recovered))
		if !res.Success {
			errs = append(errs, res.Err())
			continue
		}
		updated++
	}

	averaged := 0
	for _, r := range regions.Data {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		n, err := j.updateMovingAverages(ctx, r.ID, today)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		averaged += n
	}

	j.logger.Info().
		Str("date", today.String()).
		Int("updated", updated).
		Int("skipped", skipped).
		Int("moving_averages", averaged).
		Msg("Daily statistics computed")
	return errors.Join(errs...)
}

// updateMovingAverages writes the 7-day trailing average of new_cases for
// every row of the lookback window that has six predecessors in it.
func (j *Jobs) updateMovingAverages(ctx context.Context, regionID int64, today models.Day) (int, error) {
	series := j.store.RegionCaseSeries(ctx, regionID, today.AddDays(-(movingAverageLookback - 1)), today)
	if !series.Success {
		return 0, series.Err()
	}

	values := make([]float64, len(series.Data))
	for i, c := range series.Data {
		values[i] = float64(c.NewCases)
	}

	averages := make(map[models.Day]float64)
	for i, avg := range analytics.MovingAverage7(values) {
		if avg != nil {
			averages[series.Data[i].Date] = *avg
		}
	}
	if len(averages) == 0 {
		return 0, nil
	}

	res := j.store.UpdateMovingAverages(ctx, regionID, averages)
	if !res.Success {
		return 0, res.Err()
	}
	return len(averages), nil
}

// WeeklyReport summarizes the national daily counters of the last seven
// days and logs the result.
func (j *Jobs) WeeklyReport(ctx context.Context) (models.WeeklyReport, error) {
	today := j.today()
	series := j.store.NationalDailySeries(ctx, 7, today)
	if !series.Success {
		return models.WeeklyReport{}, series.Err()
	}

	cases := make([]float64, len(series.Data))
	deaths := make([]float64, len(series.Data))
	recovered := make([]float64, len(series.Data))
	for i, d := range series.Data {
		cases[i] = float64(d.NewCases)
		deaths[i] = float64(d.NewDeaths)
		recovered[i] = float64(d.NewRecovered)
	}

	report := models.WeeklyReport{
		From:         today.AddDays(-6),
		To:           today,
		Days:         len(series.Data),
		NewCases:     seriesSummary(cases),
		NewDeaths:    seriesSummary(deaths),
		NewRecovered: seriesSummary(recovered),
	}

	j.logger.Info().
		Str("from", report.From.String()).
		Str("to", report.To.String()).
		Int("days", report.Days).
		Float64("new_cases_sum", report.NewCases.Sum).
		Float64("new_cases_avg", report.NewCases.Avg).
		Float64("new_cases_max", report.NewCases.Max).
		Float64("new_deaths_sum", report.NewDeaths.Sum).
		Float64("new_recovered_sum", report.NewRecovered.Sum).
		Msg("Weekly report")
	return report, nil
}

func seriesSummary(values []float64) models.SeriesSummary {
	s := analytics.Summarize(values)
	return models.SeriesSummary{Sum: s.Sum, Avg: s.Avg, Max: s.Max, Min: s.Min}
}

// ProbeSources checks every configured source URL and records the result
// against the source.
func (j *Jobs) ProbeSources(ctx context.Context) error {
	if j.prober == nil || len(j.prober.Sources()) == 0 {
		j.logger.Debug().Msg("No source URLs configured, skipping probe")
		return nil
	}

	var errs []error
	for _, src := range j.prober.Sources() {
		err := j.prober.Probe(ctx, src)
		j.recordSource(ctx, src.Name, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

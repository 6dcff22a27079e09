// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// Package automation runs the periodic jobs that keep the statistics
// current: simulated data refresh, daily derived counters and moving
// averages, the weekly report and the external source probe.
//
// scheduler.go - Job Scheduler
//
// A single ticker loop checks the registry every CheckInterval. Each due
// job runs in its own goroutine under ExecutionTimeout:
//   - a job still running from its previous dispatch is skipped
//   - errors and panics are caught, logged, counted and recorded against
//     the job's data source; they never affect other jobs
//   - there is no retry; the next scheduled run is the retry
//
// Every outcome is appended to a RunHistory.
package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kosovo-covid/internal/database"
	"github.com/tomtom215/kosovo-covid/internal/logging"
	"github.com/tomtom215/kosovo-covid/internal/metrics"
)

var (
	// ErrJobNotFound is returned by RunNow for an unregistered job name.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobRunning is returned by RunNow while the job is in flight.
	ErrJobRunning = errors.New("job is already running")
	// ErrSchedulerStopped is returned by RunNow before Start or after Stop.
	ErrSchedulerStopped = errors.New("scheduler is not running")
	// ErrScheduleNeverFires is returned by NewScheduler for a cron
	// expression that parses but matches no real date, such as 31 February.
	ErrScheduleNeverFires = errors.New("schedule never fires")
)

// SourceRecorder stores the outcome of work done on behalf of a data source.
type SourceRecorder interface {
	RecordSourceSuccess(ctx context.Context, name string) database.Result[int64]
	RecordSourceError(ctx context.Context, name, msg string) database.Result[int64]
}

// Job is a named unit of periodic work.
type Job struct {
	Name string
	// Schedule is a 5-field cron expression evaluated in Config.Location.
	Schedule string
	// Source, when set, receives a success or error record after each run.
	Source string
	Run    func(ctx context.Context) error
}

// Config holds scheduler settings.
type Config struct {
	Enabled          bool
	CheckInterval    time.Duration
	ExecutionTimeout time.Duration
	Location         *time.Location
}

// Status is the scheduler view served by /health/automation.
type Status struct {
	Enabled  bool        `json:"enabled"`
	Running  bool        `json:"running"`
	Timezone string      `json:"timezone"`
	Jobs     []JobStatus `json:"jobs"`
}

// JobStatus describes one registered job.
type JobStatus struct {
	Name           string      `json:"name"`
	Schedule       string      `json:"schedule"`
	Source         string      `json:"source,omitempty"`
	Running        bool        `json:"running"`
	LastRun        *time.Time  `json:"last_run"`
	LastDurationMS int64       `json:"last_duration_ms"`
	LastError      *string     `json:"last_error"`
	NextRun        *time.Time  `json:"next_run"`
	Runs           int64       `json:"runs"`
	Failures       int64       `json:"failures"`
	RecentRuns     []RunRecord `json:"recent_runs,omitempty"`
}

type jobState struct {
	job          Job
	cron         *CronExpression
	running      bool
	nextRun      time.Time
	lastRun      *time.Time
	lastDuration time.Duration
	lastError    *string
	runs         int64
	failures     int64
}

// Scheduler owns the job registry. It is created once in main and shared by
// the API handler and the supervisor service.
type Scheduler struct {
	cfg     Config
	defs    []Job
	crons   map[string]*CronExpression
	sources SourceRecorder
	history RunHistory
	logger  zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	running  bool
	jobs     map[string]*jobState
	runCtx   context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	inflight sync.WaitGroup
}

// NewScheduler validates every job schedule and returns a stopped
// scheduler. sources and history may be nil.
func NewScheduler(cfg Config, jobs []Job, sources SourceRecorder, history RunHistory, logger zerolog.Logger) (*Scheduler, error) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if history == nil {
		history = NewMemoryHistory()
	}

	crons := make(map[string]*CronExpression, len(jobs))
	for _, j := range jobs {
		if j.Name == "" || j.Run == nil {
			return nil, fmt.Errorf("job %q: name and run function are required", j.Name)
		}
		if _, dup := crons[j.Name]; dup {
			return nil, fmt.Errorf("job %q registered twice", j.Name)
		}
		c, err := ParseCron(j.Schedule)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", j.Name, err)
		}
		if c.NextRun(time.Now(), cfg.Location).IsZero() {
			return nil, fmt.Errorf("job %q: %q: %w", j.Name, j.Schedule, ErrScheduleNeverFires)
		}
		crons[j.Name] = c
	}

	return &Scheduler{
		cfg:     cfg,
		defs:    jobs,
		crons:   crons,
		sources: sources,
		history: history,
		logger:  logger.With().Str("component", "automation").Logger(),
		now:     time.Now,
		jobs:    make(map[string]*jobState),
	}, nil
}

// Start registers the jobs and launches the ticker loop. Calling Start on
// a running scheduler logs a warning and returns nil; a disabled scheduler
// logs and returns without registering anything.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("Automation disabled, scheduler not started")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn().Msg("Scheduler already running, ignoring Start")
		return nil
	}

	now := s.now()
	for _, j := range s.defs {
		c := s.crons[j.Name]
		s.jobs[j.Name] = &jobState{job: j, cron: c, nextRun: c.NextRun(now, s.cfg.Location)}
	}
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true
	metrics.SetJobsRegistered(len(s.jobs))

	s.logger.Info().
		Int("jobs", len(s.jobs)).
		Dur("check_interval", s.cfg.CheckInterval).
		Str("timezone", s.cfg.Location.String()).
		Msg("Scheduler started")

	go s.loop(s.runCtx, s.done)
	return nil
}

// Stop cancels in-flight jobs, waits for them and the loop to exit and
// clears the registry. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	s.inflight.Wait()

	s.mu.Lock()
	s.jobs = make(map[string]*jobState)
	s.mu.Unlock()
	metrics.SetJobsRegistered(0)

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the ticker loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ConfiguredJobs returns the number of job definitions the scheduler was
// built with. Unlike JobCount it is known before Start.
func (s *Scheduler) ConfiguredJobs() int {
	return len(s.defs)
}

// JobCount returns the number of jobs in the live registry, which is empty
// until Start and again after Stop.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue(ctx, s.now())
		}
	}
}

// dispatchDue starts every job whose next run is not after now. A zero
// next run means the schedule has no future match and is never due.
func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.sortedNames() {
		st := s.jobs[name]
		if st.nextRun.IsZero() || now.Before(st.nextRun) {
			continue
		}
		st.nextRun = st.cron.NextRun(now, s.cfg.Location)

		if st.running {
			s.logger.Warn().Str("job", name).Msg("Previous run still in progress, skipping")
			metrics.RecordJobSkipped(name)
			continue
		}
		st.running = true
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.execute(ctx, st, TriggerSchedule)
		}()
	}
}

// RunNow runs a registered job immediately and waits for it. The job runs
// under the scheduler's context, so Stop cancels it like a scheduled run.
func (s *Scheduler) RunNow(name string) (RunRecord, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return RunRecord{}, ErrSchedulerStopped
	}
	st, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return RunRecord{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if st.running {
		s.mu.Unlock()
		return RunRecord{}, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	st.running = true
	s.inflight.Add(1)
	ctx := s.runCtx
	s.mu.Unlock()

	defer s.inflight.Done()
	return s.execute(ctx, st, TriggerManual), nil
}

// execute runs one job and records its outcome. The caller has already
// marked st running.
func (s *Scheduler) execute(ctx context.Context, st *jobState, trigger string) RunRecord {
	name := st.job.Name
	jobCtx, cancel := context.WithTimeout(logging.ContextWithNewCorrelationID(ctx), s.cfg.ExecutionTimeout)
	defer cancel()

	start := s.now()
	err := safeRun(jobCtx, st.job)
	elapsed := time.Since(start)

	rec := RunRecord{
		Job:        name,
		StartedAt:  start,
		DurationMS: elapsed.Milliseconds(),
		Status:     metrics.JobStatusSuccess,
		Trigger:    trigger,
	}
	if err != nil {
		rec.Status = metrics.JobStatusFailure
		rec.Error = err.Error()
	}

	s.mu.Lock()
	st.running = false
	st.runs++
	st.lastRun = &start
	st.lastDuration = elapsed
	st.lastError = nil
	if err != nil {
		st.failures++
		msg := err.Error()
		st.lastError = &msg
	}
	s.mu.Unlock()

	metrics.RecordJobRun(name, elapsed, err)

	// Recorded even when the job was cancelled.
	bookCtx, bookCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer bookCancel()
	s.recordSource(bookCtx, st.job.Source, err)
	if herr := s.history.Record(bookCtx, rec); herr != nil {
		s.logger.Warn().Err(herr).Str("job", name).Msg("Failed to record run history")
	}

	if err != nil {
		logging.CtxErr(jobCtx, err).
			Str("job", name).
			Str("trigger", trigger).
			Dur("duration", elapsed).
			Msg("Job failed")
	} else {
		logging.Ctx(jobCtx).Info().
			Str("job", name).
			Str("trigger", trigger).
			Dur("duration", elapsed).
			Msg("Job completed")
	}
	return rec
}

// safeRun converts a panic in job.Run into an error.
func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

func (s *Scheduler) recordSource(ctx context.Context, source string, err error) {
	if source == "" || s.sources == nil {
		return
	}
	var res database.Result[int64]
	if err != nil {
		res = s.sources.RecordSourceError(ctx, source, err.Error())
	} else {
		res = s.sources.RecordSourceSuccess(ctx, source)
	}
	if !res.Success {
		s.logger.Warn().Str("source", source).Str("error", res.Error).Msg("Failed to record source status")
	}
}

// Status returns the registry state with the most recent runs of each job.
// Jobs that have not run since Start report their last run from history.
func (s *Scheduler) Status(ctx context.Context) Status {
	s.mu.Lock()
	st := Status{
		Enabled:  s.cfg.Enabled,
		Running:  s.running,
		Timezone: s.cfg.Location.String(),
		Jobs:     make([]JobStatus, 0, len(s.jobs)),
	}
	for _, name := range s.sortedNames() {
		js := s.jobs[name]
		next := js.nextRun
		st.Jobs = append(st.Jobs, JobStatus{
			Name:           name,
			Schedule:       js.job.Schedule,
			Source:         js.job.Source,
			Running:        js.running,
			LastRun:        js.lastRun,
			LastDurationMS: js.lastDuration.Milliseconds(),
			LastError:      js.lastError,
			NextRun:        &next,
			Runs:           js.runs,
			Failures:       js.failures,
		})
	}
	s.mu.Unlock()

	for i := range st.Jobs {
		j := &st.Jobs[i]
		recent, err := s.history.Recent(ctx, j.Name, 5)
		if err != nil {
			s.logger.Warn().Err(err).Str("job", j.Name).Msg("Failed to read run history")
			continue
		}
		j.RecentRuns = recent
		if j.LastRun == nil && len(recent) > 0 {
			last := recent[0]
			j.LastRun = &last.StartedAt
			j.LastDurationMS = last.DurationMS
			if last.Error != "" {
				j.LastError = &last.Error
			}
		}
	}
	return st
}

// sortedNames returns registry keys in a stable order. Callers hold mu.
func (s *Scheduler) sortedNames() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

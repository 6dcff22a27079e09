// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/kosovo-covid/internal/api"
	"github.com/tomtom215/kosovo-covid/internal/automation"
	"github.com/tomtom215/kosovo-covid/internal/config"
	"github.com/tomtom215/kosovo-covid/internal/database"
	"github.com/tomtom215/kosovo-covid/internal/logging"
	"github.com/tomtom215/kosovo-covid/internal/metrics"
	"github.com/tomtom215/kosovo-covid/internal/models"
	"github.com/tomtom215/kosovo-covid/internal/supervisor"
	"github.com/tomtom215/kosovo-covid/internal/supervisor/services"
)

// checkpointInterval is how often DuckDB's WAL is folded into the file.
const checkpointInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("automation", cfg.Automation.Enabled).
		Msg("Starting Kosovo COVID-19 tracker")
	metrics.SetAppInfo(api.Version)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := prepareData(ctx, db, cfg); err != nil {
		cancel()
		if closeErr := db.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing database")
		}
		logging.Fatal().Err(err).Msg("Failed to prepare database")
	}

	scheduler, history, err := initAutomation(db, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize automation")
	}
	if history != nil {
		defer func() {
			if err := history.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing run history")
			}
		}()
	}

	// A nil *Scheduler must not become a non-nil interface.
	var auto api.Automation
	if scheduler != nil {
		auto = scheduler
	}
	handler := api.NewHandler(db, auto, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewCheckpointService(db, checkpointInterval))
	if scheduler != nil {
		tree.AddAutomationService(services.NewSchedulerService(scheduler))
		logging.Info().Int("jobs", scheduler.ConfiguredJobs()).Msg("Automation scheduler added to supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// sourceURLs maps each tracked data source to its configured URL.
func sourceURLs(cfg *config.Config) map[string]string {
	return map[string]string{
		models.SourceNIPH:           cfg.Sources.NIPHURL,
		models.SourceWHO:            cfg.Sources.WHOURL,
		models.SourceMinistryHealth: cfg.Sources.MOHURL,
	}
}

// prepareData seeds an empty database when enabled and makes sure every
// data source has its status row.
func prepareData(ctx context.Context, db *database.DB, cfg *config.Config) error {
	urls := sourceURLs(cfg)

	if cfg.Database.SeedMockData {
		today := models.Today(cfg.Automation.Location())
		seeded, err := db.Seed(ctx, database.SeedOptions{
			Days:    cfg.Database.SeedDays,
			Today:   today,
			Sources: urls,
		})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if seeded {
			logging.Info().Int("days", cfg.Database.SeedDays).Str("through", today.String()).Msg("Seeded empty database")
		} else {
			logging.Info().Msg("Database already populated, skipping seed")
		}
	}

	for name, url := range urls {
		if res := db.EnsureDataSource(ctx, name, url); !res.Success {
			return fmt.Errorf("register data source %s: %w", name, res.Err())
		}
	}
	return nil
}

// initAutomation builds the scheduler and its run history. Both are nil
// when automation is disabled.
func initAutomation(db *database.DB, cfg *config.Config) (*automation.Scheduler, automation.RunHistory, error) {
	if !cfg.Automation.Enabled {
		logging.Info().Msg("Automation disabled (AUTOMATION_ENABLED=false)")
		return nil, nil, nil
	}

	history, err := automation.OpenBadgerHistory(cfg.Automation.HistoryPath)
	if err != nil {
		return nil, nil, err
	}

	loc := cfg.Automation.Location()
	logger := logging.WithComponent("automation")

	var sources []automation.ProbeSource
	for name, url := range sourceURLs(cfg) {
		sources = append(sources, automation.ProbeSource{Name: name, URL: url})
	}
	prober := automation.NewProber(sources, automation.ProberConfig{
		Timeout:       cfg.Sources.ProbeTimeout,
		RatePerSecond: cfg.Sources.ProbeRatePerSecond,
	}, logger)

	jobs := automation.NewJobs(db, automation.NewSimulator(nil), prober, loc, logger)
	scheduler, err := automation.NewScheduler(automation.Config{
		Enabled:          cfg.Automation.Enabled,
		CheckInterval:    cfg.Automation.CheckInterval,
		ExecutionTimeout: cfg.Automation.ExecutionTimeout,
		Location:         loc,
	}, jobs.Definitions(&cfg.Automation), db, history, logger)
	if err != nil {
		if closeErr := history.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing run history")
		}
		return nil, nil, err
	}

	logging.Info().
		Str("timezone", loc.String()).
		Str("history", cfg.Automation.HistoryPath).
		Msg("Automation initialized")
	return scheduler, history, nil
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

// Package main is the entry point of the Kosovo COVID-19 tracker server.
//
// The server exposes case, vaccination, hospital, testing and region
// statistics for Kosovo's seven districts over a REST API, and keeps the data
// moving with a cron-style automation service.
//
// # Application Architecture
//
//	RootSupervisor ("kosovo-covid")
//	├── DataSupervisor ("data-layer")
//	│   └── DuckDB checkpoint loop
//	├── AutomationSupervisor ("automation-layer")
//	│   └── Scheduler (data-refresh, daily-stats, weekly-report, source-probe)
//	└── APISupervisor ("api-layer")
//	    └── HTTP Server (chi router, /api/v1 and /metrics)
//
// Initialization order:
//
//  1. Configuration: koanf v2 (defaults, YAML file, environment)
//  2. Logging: zerolog, JSON or console
//  3. Database: DuckDB, schema creation, optional seed of an empty database
//  4. Automation: BadgerDB run history, source prober, job definitions
//  5. HTTP handler and chi router
//  6. Supervisor tree
//
// # Configuration
//
//	Priority: Environment variables > Config file > Defaults
//
// Frequently used variables:
//
//	PORT=3001
//	ENVIRONMENT=production          # hides internal error detail
//	DB_PATH=/data/kosovo-covid.duckdb
//	SEED_MOCK_DATA=true             # seed only when the database is empty
//	SEED_DAYS=90
//	LOG_LEVEL=info
//	LOG_FORMAT=json
//	CORS_ALLOWED_ORIGINS=https://dashboard.example.org
//	RATE_LIMIT_REQUESTS=100
//	RATE_LIMIT_WINDOW=15m
//	AUTOMATION_ENABLED=true
//	AUTOMATION_TIMEZONE=Europe/Belgrade
//	AUTOMATION_CRON="*/30 * * * *"
//	AUTOMATION_HISTORY_PATH=/data/automation-history
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
// to 10s, the scheduler waits for running jobs, and the database is
// checkpointed on close.
package main

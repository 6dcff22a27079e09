// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

/*
database_schema.go - Database Schema Management

Tables:
  - regions, municipalities: demographics, the denominators of every rate
  - daily_cases: one row per (date, region_id), cumulative and daily counters
  - vaccinations: one row per (date, region_id, vaccine_type)
  - hospitals: static capacity plus the latest occupancy
  - testing_centers, testing_data: facilities and one row per (date, region_id)
  - data_source_status: one row per external source, written by automation

Ids come from sequences. DuckDB foreign keys cannot cascade, so the
references are declared without ON DELETE actions; rows are never deleted
in normal operation. The unique keys on the daily tables are the ON CONFLICT
targets of the additive upserts.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// Table names, also used as metrics labels.
const (
	tableRegions        = "regions"
	tableMunicipalities = "municipalities"
	tableDailyCases     = "daily_cases"
	tableVaccinations   = "vaccinations"
	tableHospitals      = "hospitals"
	tableTestingCenters = "testing_centers"
	tableTestingData    = "testing_data"
	tableDataSources    = "data_source_status"
)

// AllTables lists every table in dependency order.
var AllTables = []string{
	tableRegions,
	tableMunicipalities,
	tableDailyCases,
	tableVaccinations,
	tableHospitals,
	tableTestingCenters,
	tableTestingData,
	tableDataSources,
}

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", q, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	sequences := make([]string, 0, len(AllTables))
	for _, t := range AllTables {
		sequences = append(sequences, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS seq_%s START 1", t))
	}

	return append(sequences,
		`CREATE TABLE IF NOT EXISTS regions (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_regions'),
			name VARCHAR NOT NULL,
			code VARCHAR NOT NULL UNIQUE,
			population BIGINT NOT NULL DEFAULT 0,
			area_km2 DOUBLE NOT NULL DEFAULT 0,
			capital VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS municipalities (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_municipalities'),
			region_id BIGINT NOT NULL REFERENCES regions(id),
			name VARCHAR NOT NULL,
			population BIGINT NOT NULL DEFAULT 0,
			area_km2 DOUBLE NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS daily_cases (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_daily_cases'),
			date DATE NOT NULL,
			region_id BIGINT NOT NULL REFERENCES regions(id),
			total_cases BIGINT NOT NULL DEFAULT 0,
			new_cases BIGINT NOT NULL DEFAULT 0,
			active_cases BIGINT NOT NULL DEFAULT 0,
			deaths BIGINT NOT NULL DEFAULT 0,
			new_deaths BIGINT NOT NULL DEFAULT 0,
			recovered BIGINT NOT NULL DEFAULT 0,
			new_recovered BIGINT NOT NULL DEFAULT 0,
			hospitalized BIGINT NOT NULL DEFAULT 0,
			icu_patients BIGINT NOT NULL DEFAULT 0,
			ventilator_patients BIGINT NOT NULL DEFAULT 0,
			moving_avg_7d DOUBLE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (date, region_id)
		)`,

		`CREATE TABLE IF NOT EXISTS vaccinations (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_vaccinations'),
			date DATE NOT NULL,
			region_id BIGINT NOT NULL REFERENCES regions(id),
			vaccine_type VARCHAR NOT NULL,
			first_dose BIGINT NOT NULL DEFAULT 0,
			second_dose BIGINT NOT NULL DEFAULT 0,
			booster_dose BIGINT NOT NULL DEFAULT 0,
			people_vaccinated BIGINT NOT NULL DEFAULT 0,
			people_fully_vaccinated BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (date, region_id, vaccine_type)
		)`,

		`CREATE TABLE IF NOT EXISTS hospitals (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_hospitals'),
			region_id BIGINT NOT NULL REFERENCES regions(id),
			municipality_id BIGINT REFERENCES municipalities(id),
			name VARCHAR NOT NULL,
			type VARCHAR NOT NULL DEFAULT 'regional',
			total_beds BIGINT NOT NULL DEFAULT 0,
			covid_beds BIGINT NOT NULL DEFAULT 0,
			icu_beds BIGINT NOT NULL DEFAULT 0,
			ventilators BIGINT NOT NULL DEFAULT 0,
			occupied_beds BIGINT NOT NULL DEFAULT 0,
			occupied_covid_beds BIGINT NOT NULL DEFAULT 0,
			occupied_icu_beds BIGINT NOT NULL DEFAULT 0,
			ventilators_in_use BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS testing_centers (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_testing_centers'),
			region_id BIGINT NOT NULL REFERENCES regions(id),
			municipality_id BIGINT REFERENCES municipalities(id),
			name VARCHAR NOT NULL,
			type VARCHAR NOT NULL DEFAULT 'pcr',
			daily_capacity BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS testing_data (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_testing_data'),
			date DATE NOT NULL,
			region_id BIGINT NOT NULL REFERENCES regions(id),
			total_tests BIGINT NOT NULL DEFAULT 0,
			pcr_tests BIGINT NOT NULL DEFAULT 0,
			antigen_tests BIGINT NOT NULL DEFAULT 0,
			positive_tests BIGINT NOT NULL DEFAULT 0,
			negative_tests BIGINT NOT NULL DEFAULT 0,
			pending_tests BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (date, region_id)
		)`,

		`CREATE TABLE IF NOT EXISTS data_source_status (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_data_source_status'),
			name VARCHAR NOT NULL UNIQUE,
			url VARCHAR NOT NULL DEFAULT '',
			last_updated TIMESTAMP,
			last_success TIMESTAMP,
			error_count BIGINT NOT NULL DEFAULT 0,
			last_error VARCHAR,
			status VARCHAR NOT NULL DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	)
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_daily_cases_date ON daily_cases(date)`,
		`CREATE INDEX IF NOT EXISTS idx_vaccinations_date ON vaccinations(date)`,
		`CREATE INDEX IF NOT EXISTS idx_testing_data_date ON testing_data(date)`,
		`CREATE INDEX IF NOT EXISTS idx_hospitals_region ON hospitals(region_id)`,
		`CREATE INDEX IF NOT EXISTS idx_municipalities_region ON municipalities(region_id)`,
	}
	for _, q := range indexes {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", q, err)
		}
	}
	return nil
}

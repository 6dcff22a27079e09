// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package services

import (
	"context"
	"time"

	"github.com/tomtom215/kosovo-covid/internal/logging"
)

// Checkpointer flushes the DuckDB WAL into the database file.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService checkpoints the database on a fixed interval so the
// WAL stays small between restarts. A failed checkpoint is logged and
// retried on the next tick; it never restarts the service.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
	name     string
}

// NewCheckpointService creates the checkpoint loop. A non-positive interval
// means 5m.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CheckpointService{
		db:       db,
		interval: interval,
		name:     "duckdb-checkpoint",
	}
}

// Serve implements suture.Service.
func (s *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cctx, cancel := context.WithTimeout(ctx, s.interval)
			err := s.db.Checkpoint(cctx)
			cancel()
			if err != nil {
				logging.Warn().Err(err).Msg("Database checkpoint failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *CheckpointService) String() string {
	return s.name
}

// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// RunRecord is the outcome of one job execution.
type RunRecord struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Trigger    string    `json:"trigger"`
}

// Run triggers.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// RunHistory persists job outcomes so /health/automation can report the
// last runs across restarts.
type RunHistory interface {
	Record(ctx context.Context, rec RunRecord) error
	// Recent returns up to n records of job, newest first.
	Recent(ctx context.Context, job string, n int) ([]RunRecord, error)
	Close() error
}

// historyRetention bounds how long Badger keeps a run record.
const historyRetention = 30 * 24 * time.Hour

const runKeyPrefix = "run:"

// BadgerHistory stores run records in BadgerDB keyed by job and start
// time, so a reverse prefix scan yields the newest runs first.
type BadgerHistory struct {
	db *badger.DB
}

// OpenBadgerHistory opens the store at path. An empty path keeps the
// history in memory.
func OpenBadgerHistory(path string) (*BadgerHistory, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return &BadgerHistory{db: db}, nil
}

func runKey(job string, startedAt time.Time) []byte {
	return fmt.Appendf(nil, "%s%s:%020d", runKeyPrefix, job, startedAt.UnixNano())
}

// Record implements RunHistory.
func (h *BadgerHistory) Record(_ context.Context, rec RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}
	return h.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(runKey(rec.Job, rec.StartedAt), data).WithTTL(historyRetention)
		return txn.SetEntry(e)
	})
}

// Recent implements RunHistory.
func (h *BadgerHistory) Recent(_ context.Context, job string, n int) ([]RunRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	prefix := []byte(runKeyPrefix + job + ":")
	out := make([]RunRecord, 0, n)

	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the last key <= the seek key.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < n; it.Next() {
			var rec RunRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read run history for %s: %w", job, err)
	}
	return out, nil
}

// Close implements RunHistory.
func (h *BadgerHistory) Close() error {
	return h.db.Close()
}

// MemoryHistory keeps run records in process memory.
type MemoryHistory struct {
	mu   sync.Mutex
	runs map[string][]RunRecord
}

// NewMemoryHistory creates an empty MemoryHistory.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{runs: make(map[string][]RunRecord)}
}

// Record implements RunHistory.
func (h *MemoryHistory) Record(_ context.Context, rec RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs[rec.Job] = append(h.runs[rec.Job], rec)
	return nil
}

// Recent implements RunHistory.
func (h *MemoryHistory) Recent(_ context.Context, job string, n int) ([]RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	runs := h.runs[job]
	out := make([]RunRecord, 0, min(n, len(runs)))
	for i := len(runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, runs[i])
	}
	return out, nil
}

// Close implements RunHistory.
func (h *MemoryHistory) Close() error {
	return nil
}

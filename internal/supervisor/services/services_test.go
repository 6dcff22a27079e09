// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockHTTPServer blocks in ListenAndServe until Shutdown is called.
type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	stopped     chan struct{}
	once        sync.Once
	shutdowns   atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stopped: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopped
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	m.once.Do(func() { close(m.stopped) })
	return m.shutdownErr
}

func TestHTTPServerService(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		srv := newMockHTTPServer()
		svc := NewHTTPServerService(srv, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancel")
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("Shutdown calls = %d, want 1", srv.shutdowns.Load())
		}
	})

	t.Run("listen failure is returned", func(t *testing.T) {
		srv := newMockHTTPServer()
		srv.listenErr = errors.New("address already in use")
		err := NewHTTPServerService(srv, time.Second).Serve(context.Background())
		if err == nil || !errors.Is(err, srv.listenErr) {
			t.Errorf("Serve = %v, want wrapped listen error", err)
		}
	})

	t.Run("shutdown failure is returned", func(t *testing.T) {
		srv := newMockHTTPServer()
		srv.shutdownErr = errors.New("connections still open")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewHTTPServerService(srv, time.Second).Serve(ctx)
		if !errors.Is(err, srv.shutdownErr) {
			t.Errorf("Serve = %v, want wrapped shutdown error", err)
		}
	})

	t.Run("server closed elsewhere ends cleanly", func(t *testing.T) {
		srv := newMockHTTPServer()
		srv.listenErr = http.ErrServerClosed
		if err := NewHTTPServerService(srv, time.Second).Serve(context.Background()); err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
		if srv.shutdowns.Load() != 0 {
			t.Error("Shutdown should not be called when the listener already stopped")
		}
	})

	t.Run("defaults and name", func(t *testing.T) {
		svc := NewHTTPServerService(newMockHTTPServer(), 0)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("shutdownTimeout = %v, want 10s", svc.shutdownTimeout)
		}
		if svc.String() != "http-server" {
			t.Errorf("String() = %q", svc.String())
		}
	})
}

type mockScheduler struct {
	startErr error
	stopErr  error
	starts   atomic.Int32
	stops    atomic.Int32
}

func (m *mockScheduler) Start(context.Context) error {
	m.starts.Add(1)
	return m.startErr
}

func (m *mockScheduler) Stop() error {
	m.stops.Add(1)
	return m.stopErr
}

func TestSchedulerService(t *testing.T) {
	t.Run("start then stop on cancel", func(t *testing.T) {
		sched := &mockScheduler{}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- NewSchedulerService(sched).Serve(ctx) }()

		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
		if sched.starts.Load() != 1 || sched.stops.Load() != 1 {
			t.Errorf("starts=%d stops=%d, want 1/1", sched.starts.Load(), sched.stops.Load())
		}
	})

	t.Run("start failure skips stop", func(t *testing.T) {
		sched := &mockScheduler{startErr: errors.New("invalid cron")}
		err := NewSchedulerService(sched).Serve(context.Background())
		if !errors.Is(err, sched.startErr) {
			t.Errorf("Serve = %v, want wrapped start error", err)
		}
		if sched.stops.Load() != 0 {
			t.Error("Stop should not be called after a failed Start")
		}
	})

	t.Run("stop failure is returned", func(t *testing.T) {
		sched := &mockScheduler{stopErr: errors.New("jobs still running")}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := NewSchedulerService(sched).Serve(ctx); !errors.Is(err, sched.stopErr) {
			t.Errorf("Serve = %v, want wrapped stop error", err)
		}
	})
}

type mockCheckpointer struct {
	calls atomic.Int32
	err   error
}

func (m *mockCheckpointer) Checkpoint(context.Context) error {
	m.calls.Add(1)
	return m.err
}

func TestCheckpointService(t *testing.T) {
	db := &mockCheckpointer{err: errors.New("database is locked")}
	svc := NewCheckpointService(db, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for db.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}
	// Failed checkpoints keep the loop alive.
	if db.calls.Load() < 3 {
		t.Errorf("Checkpoint calls = %d, want >= 3", db.calls.Load())
	}
	if NewCheckpointService(db, 0).interval != 5*time.Minute {
		t.Error("zero interval should default to 5m")
	}
}

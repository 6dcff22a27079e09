// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package automation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/kosovo-covid/internal/metrics"
)

func newTestProber(t *testing.T, sources []ProbeSource) *Prober {
	t.Helper()
	return NewProber(sources, ProberConfig{Timeout: 2 * time.Second, RatePerSecond: 1000}, zerolog.Nop())
}

func TestNewProber_SkipsEmptyURLs(t *testing.T) {
	p := newTestProber(t, []ProbeSource{
		{Name: "niph_kosovo", URL: "http://example.invalid"},
		{Name: "who"},
	})
	if got := p.Sources(); len(got) != 1 || got[0].Name != "niph_kosovo" {
		t.Errorf("Sources() = %+v", got)
	}
	if err := p.Probe(context.Background(), ProbeSource{Name: "who"}); err == nil {
		t.Error("probing an unconfigured source should fail")
	}
}

func TestProber_Probe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"no content", http.StatusNoContent, false},
		{"not found", http.StatusNotFound, true},
		{"server error", http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") == "" {
					t.Error("probe sent no User-Agent")
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := newTestProber(t, []ProbeSource{{Name: "who", URL: srv.URL}})
			err := p.Probe(context.Background(), p.Sources()[0])
			if (err != nil) != tt.wantErr {
				t.Errorf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProber_BreakerOpensAfterThreeFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newTestProber(t, []ProbeSource{{Name: "ministry_of_health", URL: srv.URL}})
	src := p.Sources()[0]
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := p.Probe(ctx, src); err == nil {
			t.Fatalf("probe %d: expected failure", i)
		}
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("server hits = %d, want 3", got)
	}

	err := p.Probe(ctx, src)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("fourth probe: err = %v, want ErrOpenState", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("open breaker reached the server: hits = %d", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("source-ministry_of_health")); got != 2 {
		t.Errorf("breaker state gauge = %v, want 2 (open)", got)
	}
}

func TestProber_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := newTestProber(t, []ProbeSource{{Name: "niph_kosovo", URL: srv.URL}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Probe(ctx, p.Sources()[0]); err == nil {
		t.Error("expected error for cancelled context")
	}
}

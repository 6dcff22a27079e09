// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/kosovo-covid/internal/metrics"
)

// ProbeSource is an external publisher whose reachability is tracked in
// data_source_status.
type ProbeSource struct {
	Name string
	URL  string
}

// ProberConfig configures a Prober.
type ProberConfig struct {
	Timeout       time.Duration
	RatePerSecond float64
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Prober issues HTTP GETs to external sources. Each source sits behind its
// own circuit breaker and all requests share one rate limiter.
type Prober struct {
	client   *http.Client
	limiter  *rate.Limiter
	sources  []ProbeSource
	breakers map[string]*gobreaker.CircuitBreaker[int]
	logger   zerolog.Logger
}

// NewProber creates a Prober for sources. Sources without a URL are kept
// out of the probe set.
func NewProber(sources []ProbeSource, cfg ProberConfig, logger zerolog.Logger) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	p := &Prober{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		breakers: make(map[string]*gobreaker.CircuitBreaker[int]),
		logger:   logger,
	}
	for _, src := range sources {
		if src.URL == "" {
			continue
		}
		p.sources = append(p.sources, src)
		p.breakers[src.Name] = p.newBreaker(src.Name)
	}
	return p
}

func (p *Prober) newBreaker(source string) *gobreaker.CircuitBreaker[int] {
	name := "source-" + source
	metrics.RecordCircuitBreakerState(name, 0)

	return gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Hour,
		Timeout:     30 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
			metrics.RecordCircuitBreakerState(name, breakerStateValue(to))
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Sources returns the sources that will be probed.
func (p *Prober) Sources() []ProbeSource {
	return p.sources
}

// Probe GETs src.URL and fails on transport errors and on 4xx/5xx
// answers. An open breaker fails without touching the network.
func (p *Prober) Probe(ctx context.Context, src ProbeSource) error {
	cb, ok := p.breakers[src.Name]
	if !ok {
		return fmt.Errorf("source %q is not configured for probing", src.Name)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("probe %s: %w", src.Name, err)
	}

	start := time.Now()
	_, err := cb.Execute(func() (int, error) {
		return p.get(ctx, src.URL)
	})
	metrics.RecordSourceProbe(src.Name, time.Since(start))

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerRequest(cb.Name(), "rejected")
		return fmt.Errorf("probe %s: %w", src.Name, err)
	case err != nil:
		metrics.RecordCircuitBreakerRequest(cb.Name(), "failure")
		return fmt.Errorf("probe %s: %w", src.Name, err)
	}
	metrics.RecordCircuitBreakerRequest(cb.Name(), "success")
	return nil
}

func (p *Prober) get(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "kosovo-covid-probe/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

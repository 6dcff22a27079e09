// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kosovo-covid/internal/logging"
)

// SlowRequestThreshold promotes access log lines to warn level.
const SlowRequestThreshold = time.Second

// AccessLog writes one structured line per request through the context
// logger, so request_id and correlation_id are attached when RequestID ran
// first. 5xx responses log at error level.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		logger := logging.Ctx(r.Context())

		var event *zerolog.Event
		switch {
		case rec.statusCode >= http.StatusInternalServerError:
			event = logger.Error()
		case duration >= SlowRequestThreshold:
			event = logger.Warn()
		default:
			event = logger.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", routePattern(r)).
			Int("status", rec.statusCode).
			Int("bytes", rec.bytes).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}

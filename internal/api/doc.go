// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

/*
Package api provides the HTTP surface of the tracker: the chi router, its
middleware stack and the handlers for every /api/v1 resource.

# Resources

  - /cases: daily case records per region, summaries, trends
  - /vaccinations: doses per region and vaccine, coverage
  - /hospitals: capacity and occupancy
  - /testing: test counts, positivity, testing centers
  - /regions: districts, municipalities, per-region dashboards
  - /automation/jobs/{name}/run: manual job trigger
  - /health: liveness, database, automation, metrics digest, data freshness

Prometheus exposition is served at /metrics outside the /api/v1 tree.

# Response Envelope

Every /api/v1 response is an APIResponse:

	{"success": true, "data": ..., "total": 42, "pagination": {...}}
	{"success": false, "error": "VALIDATION_FAILED", "message": "...", "details": [...]}

Successful 200 responses carry a weak ETag. Failures carry the request ID
so a client report can be matched against the access log.

# Middleware Order

RequestID, RealIP, Recoverer, CORS, AccessLog and RecoverJSON run on every
route; the /api/v1 tree adds the per-IP rate limiter, security headers and
the Prometheus request metrics. Write routes get a stricter limiter.
*/
package api

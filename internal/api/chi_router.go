// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/kosovo-covid/internal/config"
	"github.com/tomtom215/kosovo-covid/internal/middleware"
)

// Router wires the handler into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for handler using the security settings of cfg.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFromSecurity(cfg.Security)),
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.AccessLog)
	r.Use(RecoverJSON)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil, nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	h := router.handler
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		// ========================
		// Health Endpoints
		// ========================
		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/database", h.HealthDatabase)
			r.Get("/automation", h.HealthAutomation)
			r.Get("/metrics", h.HealthMetrics)
			r.Get("/data-freshness", h.HealthDataFreshness)
		})

		r.Route("/cases", func(r chi.Router) {
			r.Get("/", h.ListCases)
			r.Get("/latest", h.LatestCases)
			r.Get("/summary", h.CaseSummary)
			r.Get("/trends", h.CaseTrends)
			r.Get("/{id}", h.GetCase)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/", h.CreateCase)
		})

		r.Route("/vaccinations", func(r chi.Router) {
			r.Get("/", h.ListVaccinations)
			r.Get("/summary", h.VaccinationSummary)
			r.Get("/by-region", h.VaccinationsByRegion)
			r.Get("/trends", h.VaccinationTrends)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/", h.CreateVaccination)
		})

		r.Route("/hospitals", func(r chi.Router) {
			r.Get("/", h.ListHospitals)
			r.Get("/capacity", h.HospitalCapacity)
			r.Get("/{id}", h.GetHospital)
			r.With(router.chiMiddleware.RateLimitWrite()).Put("/{id}/occupancy", h.UpdateHospitalOccupancy)
		})

		r.Route("/testing", func(r chi.Router) {
			r.Get("/", h.ListTesting)
			r.Get("/summary", h.TestingSummary)
			r.Get("/trends", h.TestingTrends)
			r.Get("/centers", h.TestingCenters)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/", h.CreateTesting)
		})

		r.Route("/regions", func(r chi.Router) {
			r.Get("/", h.ListRegions)
			r.Get("/comparison", h.RegionComparison)
			r.Get("/{id}", h.GetRegion)
			r.Get("/{id}/stats", h.RegionStats)
			r.Get("/{id}/municipalities", h.RegionMunicipalities)
		})

		// ========================
		// Automation Admin
		// ========================
		r.With(router.chiMiddleware.RateLimitAdmin()).
			Post("/automation/jobs/{name}/run", h.RunJob)
	})

	return r
}

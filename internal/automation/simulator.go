// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package automation

import (
	"math/rand/v2"
	"sync"

	"github.com/tomtom215/kosovo-covid/internal/models"
)

// Simulator draws bounded random increments for the data-refresh job.
// Deaths and recoveries never exceed the active cases they come from and
// occupancy stays within capacity.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a Simulator over src. A nil src is seeded from the
// runtime's random source.
func NewSimulator(src rand.Source) *Simulator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Simulator{rng: rand.New(src)}
}

// upTo returns a value in [0, n]; n <= 0 yields 0. Callers hold mu.
func (s *Simulator) upTo(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return s.rng.Int64N(n + 1)
}

// perCapita scales perHundredK to a region's population, at least 1.
func perCapita(population, perHundredK int64) int64 {
	return max(1, population*perHundredK/100000)
}

// CaseDelta draws one refresh worth of case movement for a region whose
// newest row is latest (nil when the region has no history).
func (s *Simulator) CaseDelta(region models.Region, latest *models.DailyCaseRecord) models.CaseDelta {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active int64
	if latest != nil {
		active = latest.ActiveCases
	}

	newCases := s.upTo(perCapita(region.Population, 3))
	newDeaths := s.upTo(min(active, max(newCases/20, 1)))
	newRecovered := s.upTo(min(active-newDeaths, perCapita(region.Population, 4)))

	hospitalized := (active + newCases - newDeaths - newRecovered) / 20
	hospitalized += s.upTo(hospitalized / 10)
	icu := s.upTo(hospitalized / 4)
	return models.CaseDelta{
		NewCases:           newCases,
		NewDeaths:          newDeaths,
		NewRecovered:       newRecovered,
		Hospitalized:       hospitalized,
		ICUPatients:        icu,
		VentilatorPatients: s.upTo(icu / 2),
	}
}

// Occupancy draws a new occupancy within the hospital's capacity with COVID
// beds a subset of occupied beds.
func (s *Simulator) Occupancy(h models.Hospital) models.HospitalOccupancy {
	s.mu.Lock()
	defer s.mu.Unlock()

	covid := s.upTo(min(h.CovidBeds, h.TotalBeds))
	occupied := covid + s.upTo(h.TotalBeds-covid)
	return models.HospitalOccupancy{
		OccupiedBeds:      occupied,
		OccupiedCovidBeds: covid,
		OccupiedICUBeds:   s.upTo(h.ICUBeds),
		VentilatorsInUse:  s.upTo(h.Ventilators),
	}
}

// Doses draws one refresh worth of doses of a vaccine type in a region.
func (s *Simulator) Doses(region models.Region) models.DoseDelta {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := s.upTo(perCapita(region.Population, 5))
	return models.DoseDelta{
		FirstDose:   first,
		SecondDose:  s.upTo(first),
		BoosterDose: s.upTo(first / 4),
	}
}

// Testing draws one refresh worth of tests for a region that just reported
// newCases. Positives plus negatives plus pending equal the tests taken.
func (s *Simulator) Testing(region models.Region, newCases int64) models.TestingDelta {
	s.mu.Lock()
	defer s.mu.Unlock()

	pcr := newCases*3 + s.upTo(perCapita(region.Population, 20))
	antigen := newCases*2 + s.upTo(perCapita(region.Population, 10))
	total := pcr + antigen
	positive := min(total, newCases+s.upTo(newCases/2))
	pending := s.upTo((total - positive) / 20)
	return models.TestingDelta{
		PCRTests:      pcr,
		AntigenTests:  antigen,
		PositiveTests: positive,
		NegativeTests: total - positive - pending,
		PendingTests:  pending,
	}
}

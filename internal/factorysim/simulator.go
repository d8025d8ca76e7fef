// Package factorysim simulates per-factory telemetry: temperature, pressure,
// spindle speed and hourly throughput, with occasional injected faults.
package factorysim

import (
	"math"
	"math/rand/v2"
	"time"

	"factoryfeed/internal/models"
)

// Base operating point shared by every simulated factory.
const (
	BaseTemp     = 180.0
	BasePressure = 150.0
	BaseRPM      = 50.0
	BaseProduct  = 100.0

	// AbnormalProbability is the chance that an unforced step produces a fault.
	AbnormalProbability = 0.15
)

// Simulator holds the live readings of one factory.
// A Simulator is not safe for concurrent use; callers serialize access.
type Simulator struct {
	Name         string
	BaseTemp     float64
	BasePressure float64
	BaseRPM      float64
	BaseProduct  float64

	temp     float64
	pressure float64
	rpm      float64
	count    float64
	status   models.FactoryStatus

	rng *rand.Rand
	now func() time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand injects the random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithClock overrides the timestamp source of CurrentStatus.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// New returns a simulator sitting exactly at its base operating point.
func New(name string, opts ...Option) *Simulator {
	s := &Simulator{
		Name:         name,
		BaseTemp:     BaseTemp,
		BasePressure: BasePressure,
		BaseRPM:      BaseRPM,
		BaseProduct:  BaseProduct,
		status:       models.FactoryStatusNormal,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.temp = s.BaseTemp
	s.pressure = s.BasePressure
	s.rpm = s.BaseRPM
	s.count = s.BaseProduct
	return s
}

// Restore rebuilds a simulator from a persisted factory row so that the next
// fault compounds on the last reading rather than on the base values.
func Restore(f *models.Factory, opts ...Option) *Simulator {
	s := New(f.Name, opts...)
	if f.BaseTemp != 0 {
		s.BaseTemp = f.BaseTemp
		s.BasePressure = f.BasePressure
		s.BaseRPM = f.BaseRPM
		s.BaseProduct = f.BaseProduct
	}
	s.temp, s.pressure, s.rpm, s.count = f.Temp, f.Pressure, f.RPM, f.ProductCount
	s.status = f.Status
	if !s.status.Valid() {
		s.status = models.FactoryStatusNormal
	}
	return s
}

// uniform draws from [lo, hi).
func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// GenerateNormalData jitters every metric around its base value and clears any fault.
func (s *Simulator) GenerateNormalData() {
	s.temp = s.BaseTemp + s.uniform(-5, 5)
	s.pressure = s.BasePressure + s.uniform(-5, 5)
	s.rpm = s.BaseRPM + s.uniform(-2, 2)
	s.count = s.BaseProduct + s.uniform(-5, 5)
	s.status = models.FactoryStatusNormal
}

// AbnormalData injects one uniformly chosen fault. Only the affected metric
// moves, and it moves relative to its current value, so repeated faults compound.
func (s *Simulator) AbnormalData() {
	fault := models.FaultStatuses[s.rng.IntN(len(models.FaultStatuses))]
	switch fault {
	case models.FactoryStatusOverheat:
		s.temp += s.uniform(30, 60)
	case models.FactoryStatusLowPressure:
		s.pressure -= s.uniform(15, 30)
	case models.FactoryStatusRPMIssue:
		s.rpm -= s.uniform(15, 25)
	}
	s.status = fault
}

// Step advances the simulator once: a fault when forced or with
// AbnormalProbability, otherwise a normal reading.
func (s *Simulator) Step(forceAbnormal bool) {
	if forceAbnormal || s.rng.Float64() < AbnormalProbability {
		s.AbnormalData()
		return
	}
	s.GenerateNormalData()
}

// Status returns the current fault classification.
func (s *Simulator) Status() models.FactoryStatus {
	return s.status
}

// CurrentStatus returns a snapshot of the readings rounded to two decimals.
func (s *Simulator) CurrentStatus() models.StatusSnapshot {
	return models.StatusSnapshot{
		Timestamp:    s.now(),
		FactoryName:  s.Name,
		Temperature:  round2(s.temp),
		Pressure:     round2(s.pressure),
		RPM:          round2(s.rpm),
		ProductCount: round2(s.count),
		Status:       s.status,
	}
}

// ApplyTo copies the live readings onto a persisted factory row.
func (s *Simulator) ApplyTo(f *models.Factory, at time.Time) {
	f.BaseTemp = s.BaseTemp
	f.BasePressure = s.BasePressure
	f.BaseRPM = s.BaseRPM
	f.BaseProduct = s.BaseProduct
	f.Temp = s.temp
	f.Pressure = s.pressure
	f.RPM = s.rpm
	f.ProductCount = s.count
	f.Status = s.status
	f.LastUpdate = at
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

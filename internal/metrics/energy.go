package metrics

import (
	"math"

	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/sim"
)

// Energy reports the mean total energy over every observed state.
type Energy struct {
	name        string
	law         physics.Law
	samples     int
	totalEnergy float64
}

func NewEnergy(law physics.Law) *Energy {
	return &Energy{
		name: "energy",
		law:  law,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(_ int, ps []particle.Particle, _ sim.StepStats) {
	e.totalEnergy += physics.TotalEnergy(ps, e.law)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative change of total energy against
// the first observed state. Explicit Euler does not conserve energy, so
// this grows with the time step.
type EnergyDrift struct {
	name          string
	law           physics.Law
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(law physics.Law) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		law:  law,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ int, ps []particle.Particle, _ sim.StepStats) {
	energy := physics.TotalEnergy(ps, e.law)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift is the largest change in the magnitude of total linear
// momentum since the first observed state. Direct summation keeps it near
// zero; the tree approximation does not.
type MomentumDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(_ int, ps []particle.Particle, _ sim.StepStats) {
	p := physics.Momentum(ps).Magnitude()
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, math.Abs(p-m.initial))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

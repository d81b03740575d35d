// Package particle defines the point masses moved by the simulation and the
// seeded generators that create them.
package particle

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Color is an RGB triple in [0,255). It is carried through every step but
// never read by the physics.
type Color [3]float32

type Particle struct {
	ID       uint64        `json:"id"`
	Mass     float64       `json:"mass"`
	Diameter float64       `json:"diameter"`
	Position dynamo.Vector `json:"position"`
	Velocity dynamo.Vector `json:"velocity"`
	Color    Color         `json:"color"`
}

// IDSource hands out identifiers from a monotonic counter. The zero value
// starts at 1, so ID 0 never names a real particle.
type IDSource struct {
	last atomic.Uint64
}

func (s *IDSource) Next() uint64 { return s.last.Add(1) }

// New builds a particle from explicit fields and assigns it the next ID
// from ids.
func New(ids *IDSource, mass, diameter float64, position, velocity dynamo.Vector, color Color) (Particle, error) {
	p := Particle{
		Mass:     mass,
		Diameter: diameter,
		Position: position,
		Velocity: velocity,
		Color:    color,
	}
	if err := p.Validate(); err != nil {
		return Particle{}, err
	}
	p.ID = ids.Next()
	return p, nil
}

// Validate rejects particles the physics cannot handle: non-positive or
// non-finite mass and diameter, and non-finite vectors.
func (p Particle) Validate() error {
	if !positiveFinite(p.Mass) {
		return fmt.Errorf("mass %g: %w", p.Mass, dynamo.ErrParameterBounds)
	}
	if !positiveFinite(p.Diameter) {
		return fmt.Errorf("diameter %g: %w", p.Diameter, dynamo.ErrParameterBounds)
	}
	if !p.Position.IsFinite() || !p.Velocity.IsFinite() {
		return dynamo.ErrInvalidState
	}
	return nil
}

// NextPosition is the explicit Euler position update for the current velocity.
func (p Particle) NextPosition() dynamo.Vector {
	return p.Position.Add(p.Velocity)
}

func (p Particle) String() string {
	return fmt.Sprintf("Particle{id: %d, mass: %.2f, position: %v, velocity: %v}", p.ID, p.Mass, p.Position, p.Velocity)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

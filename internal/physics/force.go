package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
)

// Body is anything with a mass at a position: a particle, or the aggregate
// of a quad-tree node.
type Body struct {
	Mass     float64
	Position dynamo.Vector
}

func BodyOf(p particle.Particle) Body {
	return Body{Mass: p.Mass, Position: p.Position}
}

// Law holds the constants of the softened force.
type Law struct {
	Gravity float64
	Epsilon float64
	Scale   float64
}

func (l Law) Validate() error {
	if !(l.Gravity >= 0) || math.IsInf(l.Gravity, 1) {
		return fmt.Errorf("gravity %g: %w", l.Gravity, dynamo.ErrParameterBounds)
	}
	if !(l.Epsilon >= 0) || math.IsInf(l.Epsilon, 1) {
		return fmt.Errorf("epsilon %g: %w", l.Epsilon, dynamo.ErrParameterBounds)
	}
	if math.IsNaN(l.Scale) || math.IsInf(l.Scale, 0) {
		return fmt.Errorf("scale %g: %w", l.Scale, dynamo.ErrParameterBounds)
	}
	return nil
}

// Between returns the velocity increment on subject caused by other.
// Coincident positions contribute nothing.
func (l Law) Between(subject, other Body) dynamo.Vector {
	if subject.Position == other.Position {
		return dynamo.Vector{}
	}

	d := subject.Position.Sub(other.Position)
	r2 := d.Dot(d)
	eps2 := l.Epsilon * l.Epsilon
	denom := math.Pow(r2+eps2, 1.5)
	mag := l.Gravity * subject.Mass * other.Mass / denom

	force := d.Normalize().Scale(-mag)
	return force.Scale(l.Scale / subject.Mass)
}

// Force is an accumulated velocity increment together with the number of
// force-law evaluations it took.
type Force struct {
	Delta        dynamo.Vector
	Interactions int
}

func (f *Force) Add(delta dynamo.Vector) {
	f.Delta = f.Delta.Add(delta)
	f.Interactions++
}

// DirectAccumulate sums the force on subject from every other particle in
// all. Particles are excluded by ID, not by position.
func DirectAccumulate(subject particle.Particle, all []particle.Particle, law Law) Force {
	var f Force
	s := BodyOf(subject)
	for _, p := range all {
		if p.ID == subject.ID {
			continue
		}
		f.Add(law.Between(s, BodyOf(p)))
	}
	return f
}

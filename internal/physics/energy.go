package physics

import (
	"math"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
)

func KineticEnergy(ps []particle.Particle) float64 {
	ke := 0.0
	for _, p := range ps {
		ke += 0.5 * p.Mass * p.Velocity.Dot(p.Velocity)
	}
	return ke
}

// PotentialEnergy is the pair potential whose gradient is Law.Between:
//
//	U(r) = -scale * G*m1*m2 / (s*(s+r)),  s = sqrt(r^2 + eps^2)
//
// Coincident pairs with zero softening have no finite potential and are
// skipped.
func PotentialEnergy(ps []particle.Particle, law Law) float64 {
	pe := 0.0
	eps2 := law.Epsilon * law.Epsilon
	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			r := ps[i].Position.Distance(ps[j].Position)
			s := math.Sqrt(r*r + eps2)
			denom := s * (s + r)
			if denom == 0 {
				continue
			}
			pe -= law.Gravity * ps[i].Mass * ps[j].Mass / denom
		}
	}
	return pe * law.Scale
}

func TotalEnergy(ps []particle.Particle, law Law) float64 {
	return KineticEnergy(ps) + PotentialEnergy(ps, law)
}

func Momentum(ps []particle.Particle) dynamo.Vector {
	var m dynamo.Vector
	for _, p := range ps {
		m = m.Add(p.Velocity.Scale(p.Mass))
	}
	return m
}

// AngularMomentum is taken about the origin.
func AngularMomentum(ps []particle.Particle) float64 {
	L := 0.0
	for _, p := range ps {
		L += p.Mass * (p.Position.X*p.Velocity.Y - p.Position.Y*p.Velocity.X)
	}
	return L
}

// CenterOfMass returns the mass-weighted mean position and the total mass.
func CenterOfMass(ps []particle.Particle) (dynamo.Vector, float64) {
	var sum dynamo.Vector
	total := 0.0
	for _, p := range ps {
		sum = sum.Add(p.Position.Scale(p.Mass))
		total += p.Mass
	}
	if total == 0 {
		return dynamo.Vector{}, 0
	}
	return sum.Scale(1 / total), total
}

package particle

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Generator draws randomized particles from a caller-supplied source.
// It is not safe for concurrent use because *rand.Rand is not.
type Generator struct {
	ids *IDSource
	rng *rand.Rand
}

func NewGenerator(ids *IDSource, rng *rand.Rand) *Generator {
	return &Generator{ids: ids, rng: rng}
}

// NewSeededGenerator is a convenience for a generator with its own ID
// counter and a rand source seeded with seed.
func NewSeededGenerator(seed int64) *Generator {
	return NewGenerator(&IDSource{}, rand.New(rand.NewSource(seed)))
}

// Random draws one particle inside world. Mass is uniform within
// deviationPct percent of mass, the diameter grows with the mass ratio,
// velocity starts at zero.
func (g *Generator) Random(world dynamo.Region, mass, deviationPct, diameter float64) (Particle, error) {
	if err := validateBand(world, mass, deviationPct, diameter); err != nil {
		return Particle{}, err
	}
	return g.draw(world, mass, deviationPct, diameter), nil
}

// Many draws count particles with Random's distribution, in ID order.
func (g *Generator) Many(count int, world dynamo.Region, mass, deviationPct, diameter float64) ([]Particle, error) {
	if count < 0 {
		return nil, fmt.Errorf("count %d: %w", count, dynamo.ErrParameterBounds)
	}
	if err := validateBand(world, mass, deviationPct, diameter); err != nil {
		return nil, err
	}
	out := make([]Particle, count)
	for i := range out {
		out[i] = g.draw(world, mass, deviationPct, diameter)
	}
	return out, nil
}

func (g *Generator) draw(world dynamo.Region, mass, deviationPct, diameter float64) Particle {
	spread := deviationPct / 100 * mass
	m := mass + (g.rng.Float64()-0.5)*2*spread
	// a 100% band can land exactly on zero
	for m <= 0 {
		m = mass + (g.rng.Float64()-0.5)*2*spread
	}

	pos := dynamo.Vector{
		X: world.Origin.X + g.rng.Float64()*world.Width,
		Y: world.Origin.Y + g.rng.Float64()*world.Height,
	}
	// x + u*w can round up to the far edge
	pos = world.Clamp(pos)

	return Particle{
		ID:       g.ids.Next(),
		Mass:     m,
		Diameter: diameter * m / mass,
		Position: pos,
		Color: Color{
			g.rng.Float32() * 255,
			g.rng.Float32() * 255,
			g.rng.Float32() * 255,
		},
	}
}

func validateBand(world dynamo.Region, mass, deviationPct, diameter float64) error {
	if err := world.Validate(); err != nil {
		return err
	}
	if !positiveFinite(mass) {
		return fmt.Errorf("nominal mass %g: %w", mass, dynamo.ErrParameterBounds)
	}
	if !positiveFinite(diameter) {
		return fmt.Errorf("nominal diameter %g: %w", diameter, dynamo.ErrParameterBounds)
	}
	if !(deviationPct >= 0 && deviationPct <= 100) {
		return fmt.Errorf("mass deviation %g%%: %w", deviationPct, dynamo.ErrParameterBounds)
	}
	return nil
}

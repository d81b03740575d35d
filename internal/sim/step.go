package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/quadtree"
)

// Step advances ps by one tick inside world and returns the new particles
// in the same order. The input slice is not modified.
//
// Forces are read from a tree built over the positions at the start of the
// step, so the result does not depend on the order particles are updated
// in. Velocities are integrated first and positions then move by the new
// velocity (explicit Euler, unit time step).
func Step(ps []particle.Particle, world dynamo.Region, params Params) ([]particle.Particle, StepStats, error) {
	start := time.Now()
	var stats StepStats

	if err := params.Validate(); err != nil {
		return nil, stats, err
	}
	if err := world.Validate(); err != nil {
		return nil, stats, err
	}

	in := make([]particle.Particle, len(ps))
	copy(in, ps)
	for i := range in {
		p := &in[i]
		if err := p.Validate(); err != nil {
			return nil, stats, fmt.Errorf("particle %d: %w", p.ID, err)
		}
		if world.Contains(p.Position) {
			continue
		}
		if params.Bounds == Reject {
			return nil, stats, fmt.Errorf("particle %d at %v outside %v: %w", p.ID, p.Position, world, dynamo.ErrOutOfBounds)
		}
		p.Position = world.Clamp(p.Position)
		stats.Clamped++
	}

	var accumulate func(p particle.Particle) physics.Force
	switch params.Method {
	case Direct:
		accumulate = func(p particle.Particle) physics.Force {
			return physics.DirectAccumulate(p, in, params.Law)
		}
	default:
		tree := quadtree.New(world, quadtree.WithMaxDepth(params.MaxTreeDepth()))
		for _, p := range in {
			tree.Insert(p)
		}
		stats.TreeDepth = tree.Depth()
		stats.TreeNodes = tree.Nodes()
		accumulate = func(p particle.Particle) physics.Force {
			return tree.AccumulateForce(p, params.Law, params.OpeningAngle)
		}
	}

	out := make([]particle.Particle, len(in))
	interactions := make([]int, len(in))
	forEach(len(in), params.Workers, func(i int) {
		p := in[i]
		f := accumulate(p)
		p.Velocity = p.Velocity.Add(f.Delta)
		p.Position = p.Position.Add(p.Velocity)
		out[i] = p
		interactions[i] = f.Interactions
	})

	for _, n := range interactions {
		stats.Interactions += n
	}
	stats.Duration = time.Since(start)
	return out, stats, nil
}

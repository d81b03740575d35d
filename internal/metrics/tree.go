package metrics

import (
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/sim"
)

// Interactions is the mean number of force-law evaluations per particle per
// step. Direct summation gives n-1; a useful Barnes-Hut run stays far below.
// The initial state (step 0) did no work and is skipped.
type Interactions struct {
	name  string
	total float64
	steps int
}

func NewInteractions() *Interactions {
	return &Interactions{name: "interactions"}
}

func (m *Interactions) Name() string { return m.name }

func (m *Interactions) Observe(step int, ps []particle.Particle, stats sim.StepStats) {
	if step == 0 || len(ps) == 0 {
		return
	}
	m.total += stats.MeanInteractions(len(ps))
	m.steps++
}

func (m *Interactions) Value() float64 {
	if m.steps == 0 {
		return 0
	}
	return m.total / float64(m.steps)
}

func (m *Interactions) Reset() {
	m.total = 0
	m.steps = 0
}

// TreeDepth is the deepest quad-tree built during the run.
type TreeDepth struct {
	name string
	max  int
}

func NewTreeDepth() *TreeDepth {
	return &TreeDepth{name: "tree_depth"}
}

func (m *TreeDepth) Name() string { return m.name }

func (m *TreeDepth) Observe(_ int, _ []particle.Particle, stats sim.StepStats) {
	m.max = max(m.max, stats.TreeDepth)
}

func (m *TreeDepth) Value() float64 { return float64(m.max) }

func (m *TreeDepth) Reset() { m.max = 0 }

// Standard returns the metrics every stored run records.
func Standard(law physics.Law) []sim.Metric {
	return []sim.Metric{
		NewEnergyDrift(law),
		NewMomentumDrift(),
		NewInteractions(),
		NewTreeDepth(),
	}
}

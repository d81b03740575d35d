// Package experiment turns a configuration into a seeded, runnable
// simulation.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/quadsim/internal/config"
	"github.com/san-kum/quadsim/internal/metrics"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/sim"
	"go.uber.org/zap"
)

type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
	initial   []particle.Particle
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Seeder generates the configured particle band from a seed.
func Seeder(cfg *config.Config) sim.Seeder {
	world := cfg.WorldRegion()
	pc := cfg.Particles
	return func(seed int64) ([]particle.Particle, error) {
		return particle.NewSeededGenerator(seed).Many(pc.Count, world, pc.Mass, pc.MassDeviation, pc.Diameter)
	}
}

// Setup validates the configuration, generates the initial particles and
// builds a simulator carrying the standard metrics plus extra.
func (e *Experiment) Setup(log *zap.Logger, extra ...sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	initial, err := Seeder(e.cfg)(e.cfg.Particles.Seed)
	if err != nil {
		return err
	}
	e.initial = initial

	e.simulator = sim.New(e.cfg.WorldRegion(), e.cfg.SimParams(), sim.WithLogger(log))
	for _, m := range metrics.Standard(e.cfg.Law()) {
		e.simulator.AddMetric(m)
	}
	for _, m := range extra {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.initial, e.cfg.RunConfig())
}

// Initial returns the generated particles the run starts from.
func (e *Experiment) Initial() []particle.Particle { return e.initial }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

package sim

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/quadtree"
)

// Method selects how forces are accumulated.
type Method string

const (
	BarnesHut Method = "barnes-hut"
	Direct    Method = "direct"
)

// BoundsPolicy decides what happens to particles found outside the world
// region at the start of a step.
type BoundsPolicy string

const (
	// Clamp moves the particle to the nearest point inside the world.
	Clamp BoundsPolicy = "clamp"
	// Reject fails the step with dynamo.ErrOutOfBounds.
	Reject BoundsPolicy = "reject"
)

// DefaultOpeningAngle is the usual Barnes-Hut accuracy setting.
const DefaultOpeningAngle = 0.5

type Params struct {
	Law          physics.Law
	OpeningAngle float64
	Method       Method
	Bounds       BoundsPolicy
	// MaxDepth bounds quad-tree subdivision; zero means quadtree.DefaultMaxDepth.
	MaxDepth int
	// Workers caps force accumulation goroutines; zero means runtime.NumCPU.
	Workers int
}

func DefaultParams() Params {
	return Params{
		Law: physics.Law{
			Gravity: 6.6743e-11,
			Epsilon: 10,
			Scale:   1e8,
		},
		OpeningAngle: DefaultOpeningAngle,
		Method:       BarnesHut,
		Bounds:       Clamp,
		MaxDepth:     quadtree.DefaultMaxDepth,
		Workers:      runtime.NumCPU(),
	}
}

func (p Params) Validate() error {
	if err := p.Law.Validate(); err != nil {
		return err
	}
	if !(p.OpeningAngle >= 0) {
		return fmt.Errorf("opening angle %g: %w", p.OpeningAngle, dynamo.ErrParameterBounds)
	}
	switch p.Method {
	case BarnesHut, Direct:
	default:
		return fmt.Errorf("unknown method %q: %w", p.Method, dynamo.ErrParameterBounds)
	}
	switch p.Bounds {
	case Clamp, Reject:
	default:
		return fmt.Errorf("unknown bounds policy %q: %w", p.Bounds, dynamo.ErrParameterBounds)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max depth %d: %w", p.MaxDepth, dynamo.ErrParameterBounds)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers %d: %w", p.Workers, dynamo.ErrParameterBounds)
	}
	return nil
}

// MaxTreeDepth is MaxDepth with the zero value resolved to the default.
func (p Params) MaxTreeDepth() int {
	if p.MaxDepth == 0 {
		return quadtree.DefaultMaxDepth
	}
	return p.MaxDepth
}

// StepStats describes the work done by one step.
type StepStats struct {
	Interactions int
	TreeDepth    int
	TreeNodes    int
	Clamped      int
	Duration     time.Duration
}

// MeanInteractions is the average number of force evaluations per particle.
func (s StepStats) MeanInteractions(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(s.Interactions) / float64(n)
}

type Metric interface {
	Name() string
	// Observe is called with step 0 for the initial state and after every
	// completed step.
	Observe(step int, ps []particle.Particle, stats StepStats)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, ps []particle.Particle, stats StepStats)
}

type RunConfig struct {
	Steps int
	// RecordEvery keeps a frame every n steps; zero keeps only the first
	// and last frames.
	RecordEvery   int
	ValidateState bool
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Steps:         1000,
		RecordEvery:   10,
		ValidateState: true,
	}
}

type Frame struct {
	Step      int                 `json:"step"`
	Particles []particle.Particle `json:"particles"`
}

type Result struct {
	Frames       []Frame
	Final        []particle.Particle
	Metrics      map[string]float64
	StepsTaken   int
	EnergyDrift  float64
	Interactions int
	Clamped      int
}

func allFinite(ps []particle.Particle) (uint64, bool) {
	for _, p := range ps {
		if !p.Position.IsFinite() || !p.Velocity.IsFinite() {
			return p.ID, false
		}
	}
	return 0, true
}

func relativeDrift(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}
	return math.Abs(final-initial) / math.Abs(initial)
}

package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
	"go.uber.org/zap"
)

type Simulator struct {
	world     dynamo.Region
	params    Params
	metrics   []Metric
	observers []Observer
	log       *zap.Logger
}

type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

func New(world dynamo.Region, params Params, opts ...Option) *Simulator {
	s := &Simulator{
		world:     world,
		params:    params,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) World() dynamo.Region { return s.world }
func (s *Simulator) Params() Params       { return s.params }

// Run steps initial cfg.Steps times. On cancellation it returns the result
// gathered so far together with ctx.Err().
func (s *Simulator) Run(ctx context.Context, initial []particle.Particle, cfg RunConfig) (*Result, error) {
	if err := s.validate(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Frames:  make([]Frame, 0, framesFor(cfg)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	ps := make([]particle.Particle, len(initial))
	copy(ps, initial)

	s.log.Info("run started",
		zap.Int("particles", len(ps)),
		zap.Int("steps", cfg.Steps),
		zap.String("method", string(s.params.Method)),
		zap.Float64("opening_angle", s.params.OpeningAngle),
		zap.Stringer("world", s.world),
	)
	started := time.Now()

	result.Frames = append(result.Frames, Frame{Step: 0, Particles: ps})
	s.notify(0, ps, StepStats{})

	initialEnergy := physics.TotalEnergy(ps, s.params.Law)

	for i := 1; i <= cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, ps, initialEnergy)
			s.log.Warn("run canceled", zap.Int("step", i), zap.Error(ctx.Err()))
			return result, ctx.Err()
		default:
		}

		next, stats, err := Step(ps, s.world, s.params)
		if err != nil {
			s.finish(result, ps, initialEnergy)
			return result, &dynamo.StepError{Step: i, Wrapped: err}
		}

		if cfg.ValidateState {
			if id, ok := allFinite(next); !ok {
				s.finish(result, ps, initialEnergy)
				s.log.Error("invalid state", zap.Int("step", i), zap.Uint64("particle", id))
				return result, &dynamo.StepError{Step: i, ID: id, Wrapped: dynamo.ErrInvalidState}
			}
		}

		ps = next
		result.StepsTaken++
		result.Interactions += stats.Interactions
		result.Clamped += stats.Clamped

		if cfg.RecordEvery > 0 && i%cfg.RecordEvery == 0 {
			result.Frames = append(result.Frames, Frame{Step: i, Particles: ps})
		}
		s.notify(i, ps, stats)

		s.log.Debug("step",
			zap.Int("step", i),
			zap.Int("interactions", stats.Interactions),
			zap.Int("tree_depth", stats.TreeDepth),
			zap.Int("clamped", stats.Clamped),
			zap.Duration("took", stats.Duration),
		)
	}

	s.finish(result, ps, initialEnergy)
	s.log.Info("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("energy_drift", result.EnergyDrift),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (s *Simulator) notify(step int, ps []particle.Particle, stats StepStats) {
	for _, m := range s.metrics {
		m.Observe(step, ps, stats)
	}
	for _, obs := range s.observers {
		obs.OnStep(step, ps, stats)
	}
}

func (s *Simulator) finish(result *Result, ps []particle.Particle, initialEnergy float64) {
	result.Final = ps
	if last := result.Frames[len(result.Frames)-1]; last.Step != result.StepsTaken {
		result.Frames = append(result.Frames, Frame{Step: result.StepsTaken, Particles: ps})
	}
	result.EnergyDrift = relativeDrift(initialEnergy, physics.TotalEnergy(ps, s.params.Law))
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validate(cfg RunConfig) error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("record interval must not be negative, got %d", cfg.RecordEvery)
	}
	if err := s.params.Validate(); err != nil {
		return err
	}
	return s.world.Validate()
}

func framesFor(cfg RunConfig) int {
	if cfg.RecordEvery <= 0 {
		return 2
	}
	return cfg.Steps/cfg.RecordEvery + 2
}

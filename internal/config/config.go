package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/observability"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/quadtree"
	"github.com/san-kum/quadsim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCount         = 100
	DefaultWidth         = 600.0
	DefaultHeight        = 600.0
	DefaultMass          = 50000.0
	DefaultMassDeviation = 100.0
	DefaultDiameter      = 2.0
	DefaultGravity       = 6.6743e-11
	DefaultEpsilon       = 10.0
	DefaultScale         = 1e8
	DefaultSteps         = 1000
	DefaultRecordEvery   = 10
	DefaultDataDir       = "./data"
)

type Config struct {
	Preset    string               `yaml:"preset"`
	World     WorldConfig          `yaml:"world"`
	Particles ParticleConfig       `yaml:"particles"`
	Physics   PhysicsConfig        `yaml:"physics"`
	Run       RunSettings          `yaml:"run"`
	Log       observability.Config `yaml:"log"`
}

type WorldConfig struct {
	OriginX float64 `yaml:"origin_x"`
	OriginY float64 `yaml:"origin_y"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
}

type ParticleConfig struct {
	Count int     `yaml:"count"`
	Mass  float64 `yaml:"mass"`
	// MassDeviation is a percentage of Mass in [0, 100].
	MassDeviation float64 `yaml:"mass_deviation"`
	Diameter      float64 `yaml:"diameter"`
	Seed          int64   `yaml:"seed"`
}

type PhysicsConfig struct {
	Gravity      float64 `yaml:"gravity"`
	Epsilon      float64 `yaml:"epsilon"`
	Scale        float64 `yaml:"scale"`
	OpeningAngle float64 `yaml:"opening_angle"`
	Method       string  `yaml:"method"`
	Bounds       string  `yaml:"bounds"`
	MaxDepth     int     `yaml:"max_depth"`
	Workers      int     `yaml:"workers"`
}

type RunSettings struct {
	Steps         int    `yaml:"steps"`
	RecordEvery   int    `yaml:"record_every"`
	ValidateState bool   `yaml:"validate_state"`
	DataDir       string `yaml:"data_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset: "default",
		World: WorldConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
		},
		Particles: ParticleConfig{
			Count:         DefaultCount,
			Mass:          DefaultMass,
			MassDeviation: DefaultMassDeviation,
			Diameter:      DefaultDiameter,
			Seed:          1,
		},
		Physics: PhysicsConfig{
			Gravity:      DefaultGravity,
			Epsilon:      DefaultEpsilon,
			Scale:        DefaultScale,
			OpeningAngle: sim.DefaultOpeningAngle,
			Method:       string(sim.BarnesHut),
			Bounds:       string(sim.Clamp),
			MaxDepth:     quadtree.DefaultMaxDepth,
			Workers:      runtime.NumCPU(),
		},
		Run: RunSettings{
			Steps:         DefaultSteps,
			RecordEvery:   DefaultRecordEvery,
			ValidateState: true,
			DataDir:       DefaultDataDir,
		},
		Log: observability.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay reads a YAML file on top of cfg. Keys missing from the file keep
// their current values, which lets a file refine a preset.
func Overlay(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every section and joins the failures.
func (c *Config) Validate() error {
	var errs []error
	if err := c.WorldRegion().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("world: %w", err))
	}
	if c.Particles.Count < 0 {
		errs = append(errs, fmt.Errorf("particles.count %d: %w", c.Particles.Count, dynamo.ErrParameterBounds))
	}
	if !(c.Particles.Mass > 0) {
		errs = append(errs, fmt.Errorf("particles.mass %g: %w", c.Particles.Mass, dynamo.ErrParameterBounds))
	}
	if !(c.Particles.MassDeviation >= 0 && c.Particles.MassDeviation <= 100) {
		errs = append(errs, fmt.Errorf("particles.mass_deviation %g: %w", c.Particles.MassDeviation, dynamo.ErrParameterBounds))
	}
	if !(c.Particles.Diameter > 0) {
		errs = append(errs, fmt.Errorf("particles.diameter %g: %w", c.Particles.Diameter, dynamo.ErrParameterBounds))
	}
	if err := c.SimParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("physics: %w", err))
	}
	if c.Run.Steps <= 0 {
		errs = append(errs, fmt.Errorf("run.steps %d: %w", c.Run.Steps, dynamo.ErrParameterBounds))
	}
	if c.Run.RecordEvery < 0 {
		errs = append(errs, fmt.Errorf("run.record_every %d: %w", c.Run.RecordEvery, dynamo.ErrParameterBounds))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ExpandPaths resolves a leading ~ in the data directory and log file.
func (c *Config) ExpandPaths() error {
	dir, err := homedir.Expand(c.Run.DataDir)
	if err != nil {
		return fmt.Errorf("run.data_dir: %w", err)
	}
	c.Run.DataDir = dir

	if c.Log.File != "" {
		file, err := homedir.Expand(c.Log.File)
		if err != nil {
			return fmt.Errorf("log.file: %w", err)
		}
		c.Log.File = file
	}
	return nil
}

func (c *Config) WorldRegion() dynamo.Region {
	return dynamo.NewRegion(dynamo.Vector{X: c.World.OriginX, Y: c.World.OriginY}, c.World.Width, c.World.Height)
}

func (c *Config) Law() physics.Law {
	return physics.Law{
		Gravity: c.Physics.Gravity,
		Epsilon: c.Physics.Epsilon,
		Scale:   c.Physics.Scale,
	}
}

func (c *Config) SimParams() sim.Params {
	return sim.Params{
		Law:          c.Law(),
		OpeningAngle: c.Physics.OpeningAngle,
		Method:       sim.Method(c.Physics.Method),
		Bounds:       sim.BoundsPolicy(c.Physics.Bounds),
		MaxDepth:     c.Physics.MaxDepth,
		Workers:      c.Physics.Workers,
	}
}

func (c *Config) RunConfig() sim.RunConfig {
	return sim.RunConfig{
		Steps:         c.Run.Steps,
		RecordEvery:   c.Run.RecordEvery,
		ValidateState: c.Run.ValidateState,
	}
}

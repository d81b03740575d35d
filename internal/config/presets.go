package config

import "sort"

const (
	sunMass     = 1.9885e30
	sunDiameter = 1.3914e9
	// three times the sun-earth distance, in meters
	solarWorld = 3 * 149.6e9
)

var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"solar": func(c *Config) {
		c.World.Width, c.World.Height = solarWorld, solarWorld
		c.Particles.Mass = sunMass
		c.Particles.MassDeviation = 90
		c.Particles.Diameter = sunDiameter
		c.Physics.Epsilon = 5.84e9
		c.Physics.Scale = 1e16
	},
	"cluster": func(c *Config) {
		c.Particles.Count = 2000
		c.Particles.MassDeviation = 20
		c.Physics.Epsilon = 4
		c.Physics.OpeningAngle = 0.7
		c.Run.Steps = 500
	},
	"exact": func(c *Config) {
		c.Particles.Count = 32
		c.Physics.Method = "direct"
		c.Physics.OpeningAngle = 0
		c.Run.RecordEvery = 1
		c.Run.Steps = 200
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Preset = name
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

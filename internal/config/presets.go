package config

import (
	"sort"

	"github.com/san-kum/attractor/internal/integrators"
)

// base holds the settings shared by every system.
func base(system string) *Config {
	return &Config{
		System:       system,
		LogLevel:     "info",
		OutputDir:    "figures",
		FigureFormat: "png",
		Persist:      true,
		Integrator: IntegratorConfig{
			RTol:     DefaultRTol,
			ATol:     DefaultATol,
			MaxSteps: integrators.DefaultMaxSteps,
		},
		Plot: PlotConfig{Font: "times new roman", FontSize: 16},
		Attractor: RunConfig{
			TEnd: 50, Dt: 5e-3, X0: []float64{1e-3, 1e-3, 1e-3},
		},
		ReturnMap: RunConfig{
			TEnd: 1e3, Dt: 1e-1, X0: []float64{1e-3, 1e-3, 1e-3},
		},
		Divergence: DivergenceConfig{
			Settle: 50, Dt: 1e-2, MaxOffset: DefaultMaxOffset, TCut: 50,
			Neighbors: 1, Window: 100, SlopeThreshold: 0.2,
		},
		Cobweb: CobwebConfig{
			Iterations: 30, Starts: []float64{0.1, 1.8},
			CurveMin: 0, CurveMax: 2, CurveStep: 0.01,
		},
	}
}

func with(cfg *Config, fn func(*Config)) *Config {
	fn(cfg)
	return cfg
}

// Presets are named configurations per system. "study" reproduces the
// reference study.
var Presets = map[string]map[string]*Config{
	"lorenz": {
		"study": base("lorenz"),
		"quick": with(base("lorenz"), func(c *Config) {
			c.Attractor.TEnd = 10
			c.ReturnMap.TEnd = 100
			c.Divergence.TCut = 10
			c.Divergence.Settle = 10
		}),
		"ensemble": with(base("lorenz"), func(c *Config) {
			c.Divergence.Neighbors = 8
			c.Divergence.TCut = 30
		}),
	},
	"rossler": {
		"study": with(base("rossler"), func(c *Config) {
			c.Attractor.TEnd = 500
			c.ReturnMap.TEnd = 1e4
			c.Divergence.TCut = 300
		}),
		"quick": with(base("rossler"), func(c *Config) {
			c.Attractor.TEnd = 100
			c.ReturnMap.TEnd = 500
			c.Divergence.TCut = 100
			c.Divergence.Settle = 50
		}),
		"ensemble": with(base("rossler"), func(c *Config) {
			c.Attractor.TEnd = 500
			c.ReturnMap.TEnd = 1e4
			c.Divergence.Neighbors = 8
			c.Divergence.TCut = 300
		}),
	},
}

// GetPreset returns a copy of a named preset, or nil.
func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

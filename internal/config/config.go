package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/physics"
)

const (
	DefaultSystem    = "lorenz"
	DefaultRTol      = 1e-4
	DefaultATol      = 1e-4
	DefaultMaxOffset = 1e-6
	DefaultDataDir   = "data"
)

type Config struct {
	System         string           `yaml:"system"`
	LogLevel       string           `yaml:"log_level"`
	OutputDir      string           `yaml:"output_dir"`
	FigureFormat   string           `yaml:"figure_format"`
	TrajectoryFile string           `yaml:"trajectory_file"`
	Persist        bool             `yaml:"persist"`
	Seed           uint64           `yaml:"seed"`
	Workers        int              `yaml:"workers"`
	Integrator     IntegratorConfig `yaml:"integrator"`
	Plot           PlotConfig       `yaml:"plot"`
	Attractor      RunConfig        `yaml:"attractor"`
	ReturnMap      RunConfig        `yaml:"return_map"`
	Divergence     DivergenceConfig `yaml:"divergence"`
	Cobweb         CobwebConfig     `yaml:"cobweb"`
}

type IntegratorConfig struct {
	RTol     float64 `yaml:"rtol"`
	ATol     float64 `yaml:"atol"`
	MaxSteps int     `yaml:"max_steps"`
	// Timeout bounds a single integration; zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
}

type PlotConfig struct {
	Font     string  `yaml:"font"`
	FontSize float64 `yaml:"font_size"`
}

// RunConfig describes one integration from t=0.
type RunConfig struct {
	TEnd           float64   `yaml:"t_end"`
	Dt             float64   `yaml:"dt"`
	X0             []float64 `yaml:"x0"`
	OutputInterval float64   `yaml:"output_interval"`
}

type DivergenceConfig struct {
	Settle         float64 `yaml:"settle"`
	Dt             float64 `yaml:"dt"`
	MaxOffset      float64 `yaml:"max_offset"`
	TCut           float64 `yaml:"t_cut"`
	Neighbors      int     `yaml:"neighbors"`
	Window         int     `yaml:"window"`
	SlopeThreshold float64 `yaml:"slope_threshold"`
}

type CobwebConfig struct {
	Iterations int       `yaml:"iterations"`
	Starts     []float64 `yaml:"starts"`
	CurveMin   float64   `yaml:"curve_min"`
	CurveMax   float64   `yaml:"curve_max"`
	CurveStep  float64   `yaml:"curve_step"`
}

// DefaultConfig returns the study preset of the default system.
func DefaultConfig() *Config {
	return GetPreset(DefaultSystem, "study")
}

// Load reads a YAML file over the study preset of the system it names, so a
// file only needs the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		System string `yaml:"system"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if head.System != "" {
		cfg, err = ForSystem(head.System)
		if err != nil {
			return nil, err
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ForSystem returns the study preset for a system tag.
func ForSystem(system string) (*Config, error) {
	sys, err := physics.ParseSystem(system)
	if err != nil {
		return nil, err
	}
	return GetPreset(sys.String(), "study"), nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := physics.ParseSystem(c.System); err != nil {
		return err
	}

	check := func(ok bool, format string, args ...any) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%w: "+format, append([]any{dynamo.ErrPrecondition}, args...)...)
	}
	for _, err := range []error{
		check(c.Integrator.RTol > 0 && c.Integrator.ATol > 0, "integrator tolerances must be positive (rtol=%g atol=%g)", c.Integrator.RTol, c.Integrator.ATol),
		check(c.Integrator.MaxSteps > 0, "integrator.max_steps must be positive, got %d", c.Integrator.MaxSteps),
		check(c.Integrator.Timeout >= 0, "integrator.timeout must not be negative"),
		check(c.Workers >= 0, "workers must not be negative, got %d", c.Workers),
		c.Attractor.validate("attractor"),
		c.ReturnMap.validate("return_map"),
		check(c.Divergence.Settle > 0 && c.Divergence.TCut > 0, "divergence settle and t_cut must be positive"),
		check(c.Divergence.Dt > 0, "divergence.dt must be positive, got %g", c.Divergence.Dt),
		check(c.Divergence.MaxOffset > 0, "divergence.max_offset must be positive, got %g", c.Divergence.MaxOffset),
		check(c.Divergence.Neighbors >= 1, "divergence.neighbors must be at least 1, got %d", c.Divergence.Neighbors),
		check(c.Divergence.SlopeThreshold > 0 && c.Divergence.SlopeThreshold < 1, "divergence.slope_threshold must be in (0, 1), got %g", c.Divergence.SlopeThreshold),
		check(c.Cobweb.Iterations >= 1, "cobweb.iterations must be at least 1, got %d", c.Cobweb.Iterations),
		check(len(c.Cobweb.Starts) > 0, "cobweb.starts is empty"),
		check(c.Cobweb.CurveMax > c.Cobweb.CurveMin && c.Cobweb.CurveStep > 0, "bad cobweb curve range"),
		check(c.Plot.FontSize > 0, "plot.font_size must be positive, got %g", c.Plot.FontSize),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (r RunConfig) validate(name string) error {
	switch {
	case !(r.TEnd > 0):
		return fmt.Errorf("%w: %s.t_end must be positive, got %g", dynamo.ErrPrecondition, name, r.TEnd)
	case !(r.Dt > 0):
		return fmt.Errorf("%w: %s.dt must be positive, got %g", dynamo.ErrPrecondition, name, r.Dt)
	case len(r.X0) != 3:
		return fmt.Errorf("%w: %s.x0 needs 3 values, got %d", dynamo.ErrPrecondition, name, len(r.X0))
	case r.OutputInterval < 0:
		return fmt.Errorf("%w: %s.output_interval must not be negative", dynamo.ErrPrecondition, name)
	}
	return nil
}

// SystemField resolves the configured system tag.
func (c *Config) SystemField() (physics.System, error) {
	return physics.ParseSystem(c.System)
}

// Conditions builds the initial conditions of run with the shared
// integrator tolerances.
func (c *Config) Conditions(run RunConfig) dynamo.InitialConditions {
	var x0 dynamo.State
	copy(x0[:], run.X0)
	return dynamo.NewInitialConditions(0, run.TEnd, run.Dt, x0, c.Integrator.RTol, c.Integrator.ATol).
		WithOutputInterval(run.OutputInterval)
}

// DivergenceConditions starts a run of length tEnd at x0, sampled on the
// divergence output grid.
func (c *Config) DivergenceConditions(x0 dynamo.State, tEnd float64) dynamo.InitialConditions {
	return dynamo.NewInitialConditions(0, tEnd, c.Divergence.Dt, x0, c.Integrator.RTol, c.Integrator.ATol).
		WithOutputInterval(c.Divergence.Dt)
}

// TrajectoryPath is where the attractor run is persisted.
func (c *Config) TrajectoryPath() string {
	if c.TrajectoryFile != "" {
		return c.TrajectoryFile
	}
	return filepath.Join(DefaultDataDir, c.System+".txt")
}

// SeedOrRandom returns the configured seed, or a time based one when unset.
func (c *Config) SeedOrRandom() uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(time.Now().UnixNano()) & math.MaxInt64
}

func (c *Config) Clone() *Config {
	out := *c
	out.Attractor.X0 = append([]float64(nil), c.Attractor.X0...)
	out.ReturnMap.X0 = append([]float64(nil), c.ReturnMap.X0...)
	out.Cobweb.Starts = append([]float64(nil), c.Cobweb.Starts...)
	return &out
}

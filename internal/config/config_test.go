package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.System != "lorenz" {
		t.Errorf("expected system lorenz, got %s", cfg.System)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Integrator.MaxSteps != 100000 {
		t.Errorf("expected max_steps 100000, got %d", cfg.Integrator.MaxSteps)
	}
	if cfg.Attractor.TEnd != 50 || cfg.ReturnMap.TEnd != 1e3 || cfg.Divergence.TCut != 50 {
		t.Errorf("unexpected lorenz study constants: %+v %+v %+v", cfg.Attractor, cfg.ReturnMap, cfg.Divergence)
	}
}

func TestAllPresetsValid(t *testing.T) {
	for system := range Presets {
		for _, name := range ListPresets(system) {
			cfg := GetPreset(system, name)
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s/%s invalid: %v", system, name, err)
			}
			if cfg.System != system {
				t.Errorf("preset %s/%s has system %s", system, name, cfg.System)
			}
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("rossler", "study")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Attractor.TEnd != 500 || cfg.ReturnMap.TEnd != 1e4 || cfg.Divergence.TCut != 300 {
		t.Errorf("unexpected rossler study constants: %+v", cfg)
	}
}

func TestGetPresetIsCopy(t *testing.T) {
	cfg := GetPreset("lorenz", "study")
	cfg.Cobweb.Starts[0] = 99
	cfg.Attractor.X0[0] = 99

	again := GetPreset("lorenz", "study")
	if again.Cobweb.Starts[0] != 0.1 || again.Attractor.X0[0] != 1e-3 {
		t.Error("modifying a preset copy changed the shared preset")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("lorenz", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("duffing", "study") != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("lorenz")
	if len(presets) != 3 || presets[0] != "ensemble" {
		t.Errorf("unexpected presets %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestForSystem(t *testing.T) {
	cfg, err := ForSystem("Rossler")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.System != "rossler" {
		t.Errorf("system = %s", cfg.System)
	}
	if _, err := ForSystem("chua"); !errors.Is(err, dynamo.ErrUnrecognizedSystem) {
		t.Errorf("expected ErrUnrecognizedSystem, got %v", err)
	}
}

func TestLoadOverridesPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	data := `system: rossler
seed: 42
integrator:
  max_steps: 5000
  timeout: 30s
divergence:
  t_cut: 120
cobweb:
  starts: [0.5]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.System != "rossler" || cfg.Seed != 42 {
		t.Errorf("top level keys not applied: %+v", cfg)
	}
	if cfg.Integrator.MaxSteps != 5000 || cfg.Integrator.Timeout != 30*time.Second {
		t.Errorf("integrator = %+v", cfg.Integrator)
	}
	if cfg.Integrator.RTol != DefaultRTol {
		t.Errorf("unset key lost its default: rtol=%g", cfg.Integrator.RTol)
	}
	if cfg.Divergence.TCut != 120 {
		t.Errorf("t_cut = %g", cfg.Divergence.TCut)
	}
	if cfg.Attractor.TEnd != 500 {
		t.Errorf("rossler preset not used as base: attractor t_end = %g", cfg.Attractor.TEnd)
	}
	if len(cfg.Cobweb.Starts) != 1 || cfg.Cobweb.Starts[0] != 0.5 {
		t.Errorf("starts = %v", cfg.Cobweb.Starts)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("system: [lorenz"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	os.WriteFile(unknown, []byte("system: chua\n"), 0644)
	if _, err := Load(unknown); !errors.Is(err, dynamo.ErrUnrecognizedSystem) {
		t.Errorf("expected ErrUnrecognizedSystem, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("rossler", "ensemble")
	cfg.Integrator.Timeout = 90 * time.Second

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Divergence != cfg.Divergence || got.Integrator != cfg.Integrator {
		t.Errorf("round trip changed config:\n%+v\n%+v", got, cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		want error
	}{
		{"unknown system", func(c *Config) { c.System = "henon" }, dynamo.ErrUnrecognizedSystem},
		{"zero rtol", func(c *Config) { c.Integrator.RTol = 0 }, dynamo.ErrPrecondition},
		{"zero max steps", func(c *Config) { c.Integrator.MaxSteps = 0 }, dynamo.ErrPrecondition},
		{"short x0", func(c *Config) { c.Attractor.X0 = []float64{1, 2} }, dynamo.ErrPrecondition},
		{"zero t_cut", func(c *Config) { c.Divergence.TCut = 0 }, dynamo.ErrPrecondition},
		{"no neighbors", func(c *Config) { c.Divergence.Neighbors = 0 }, dynamo.ErrPrecondition},
		{"zero iterations", func(c *Config) { c.Cobweb.Iterations = 0 }, dynamo.ErrPrecondition},
		{"empty starts", func(c *Config) { c.Cobweb.Starts = nil }, dynamo.ErrPrecondition},
		{"threshold out of range", func(c *Config) { c.Divergence.SlopeThreshold = 1 }, dynamo.ErrPrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConditions(t *testing.T) {
	cfg := DefaultConfig()
	ic := cfg.Conditions(cfg.Attractor)

	want := dynamo.NewInitialConditions(0, 50, 5e-3, dynamo.State{1e-3, 1e-3, 1e-3}, 1e-4, 1e-4)
	if ic != want {
		t.Errorf("Conditions = %+v, want %+v", ic, want)
	}

	dc := cfg.DivergenceConditions(dynamo.State{1, 2, 3}, 10)
	if dc.OutputInterval != 1e-2 || dc.TEnd != 10 || dc.X0 != (dynamo.State{1, 2, 3}) {
		t.Errorf("DivergenceConditions = %+v", dc)
	}
}

func TestTrajectoryPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.TrajectoryPath(); got != filepath.Join("data", "lorenz.txt") {
		t.Errorf("TrajectoryPath = %s", got)
	}
	cfg.TrajectoryFile = "/tmp/run.txt"
	if got := cfg.TrajectoryPath(); got != "/tmp/run.txt" {
		t.Errorf("TrajectoryPath = %s", got)
	}
}

func TestSystemField(t *testing.T) {
	sys, err := GetPreset("rossler", "quick").SystemField()
	if err != nil || sys != physics.Rossler {
		t.Errorf("SystemField = %v, %v", sys, err)
	}
}

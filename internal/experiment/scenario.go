package experiment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/physics"
)

// Scenario is a scripted batch of experiments.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario.
type ScenarioStep struct {
	Experiment string  `yaml:"experiment"`
	System     string  `yaml:"system"`
	Preset     string  `yaml:"preset"`
	TCut       float64 `yaml:"t_cut"`
}

// StepResult is the outcome of one step. A failed step has Err set and the
// remaining steps still run.
type StepResult struct {
	Step    ScenarioStep
	RunID   string
	Result  any
	Err     error
	Elapsed time.Duration
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &scenario, nil
}

// Validate checks every step before anything runs. Interactive experiments
// cannot be scripted.
func (s *Scenario) Validate(reg *Registry) error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrPrecondition, s.Name)
	}
	for i, step := range s.Steps {
		if _, err := reg.Get(step.Experiment); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if reg.Interactive(step.Experiment) {
			return fmt.Errorf("%w: step %d: experiment %q needs user input", dynamo.ErrPrecondition, i+1, step.Experiment)
		}
		if step.System != "" {
			if _, err := physics.ParseSystem(step.System); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if step.TCut < 0 {
			return fmt.Errorf("%w: step %d: negative t_cut", dynamo.ErrPrecondition, i+1)
		}
	}
	return nil
}

// stepConfig derives the configuration of one step from the base. The
// system preset supplies the study constants; the base keeps its integrator
// and output settings. Each step writes into its own directory.
func stepConfig(base *config.Config, scenario string, i int, step ScenarioStep) (*config.Config, error) {
	cfg := base.Clone()
	if step.System != "" || step.Preset != "" {
		system := step.System
		if system == "" {
			system = base.System
		}
		sys, err := physics.ParseSystem(system)
		if err != nil {
			return nil, err
		}
		name := step.Preset
		if name == "" {
			name = "study"
		}
		preset := config.GetPreset(sys.String(), name)
		if preset == nil {
			return nil, fmt.Errorf("%w: no preset %q for %s", dynamo.ErrPrecondition, name, sys)
		}
		preset.LogLevel, preset.FigureFormat, preset.Persist = base.LogLevel, base.FigureFormat, base.Persist
		preset.Integrator, preset.Plot, preset.Workers = base.Integrator, base.Plot, base.Workers
		cfg = preset
	}

	dir := filepath.Join(base.OutputDir, scenario, fmt.Sprintf("%02d_%s_%s", i+1, step.Experiment, cfg.System))
	cfg.OutputDir = dir
	cfg.TrajectoryFile = filepath.Join(dir, cfg.System+".txt")
	if base.Seed != 0 {
		cfg.Seed = base.Seed + uint64(i)
	}
	return cfg, nil
}

// RunScenario executes the steps on a worker pool. Configuration errors stop
// the whole scenario; experiment failures are recorded per step.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, opts ...Option) ([]StepResult, error) {
	reg := NewRegistry()
	if err := scenario.Validate(reg); err != nil {
		return nil, err
	}

	results := make([]StepResult, len(scenario.Steps))
	name := scenario.Name
	if name == "" {
		name = "scenario"
	}

	_, err := dynamo.NewBatch(base.Workers).Run(ctx, len(scenario.Steps), func(ctx context.Context, i int) error {
		step := scenario.Steps[i]
		results[i].Step = step

		cfg, err := stepConfig(base, name, i, step)
		if err != nil {
			results[i].Err = err
			return err
		}
		runner, err := New(cfg, opts...)
		if err != nil {
			results[i].Err = err
			return err
		}
		results[i].RunID = runner.ID()

		run, _ := reg.Get(step.Experiment)
		start := time.Now()
		results[i].Result, results[i].Err = run(ctx, runner, step.TCut)
		results[i].Elapsed = time.Since(start)

		if results[i].Err != nil {
			runner.log.Error("step failed", "step", i+1, "experiment", step.Experiment, "err", results[i].Err)
		} else {
			runner.log.Info("step done", "step", i+1, "experiment", step.Experiment, "elapsed", results[i].Elapsed)
		}
		return nil
	})
	return results, err
}

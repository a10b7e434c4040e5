package experiment_test

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/experiment"
	"github.com/san-kum/attractor/internal/prompt"
	"github.com/san-kum/attractor/internal/storage"
)

func quickConfig(system string) *config.Config {
	cfg := config.GetPreset(system, "quick")
	Expect(cfg).NotTo(BeNil())
	dir := GinkgoT().TempDir()
	cfg.FigureFormat = "none"
	cfg.OutputDir = dir
	cfg.TrajectoryFile = filepath.Join(dir, "data", system+".txt")
	cfg.Seed = 1
	return cfg
}

func answering(input string) experiment.Option {
	return experiment.WithPrompt(prompt.NewLine(strings.NewReader(input), io.Discard))
}

var _ = Describe("Runner", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("rejects an unknown system", func() {
		cfg := quickConfig("lorenz")
		cfg.System = "chua"
		_, err := experiment.New(cfg)
		Expect(err).To(MatchError(dynamo.ErrUnrecognizedSystem))
	})

	It("rejects an unknown figure format", func() {
		cfg := quickConfig("lorenz")
		cfg.FigureFormat = "gif"
		_, err := experiment.New(cfg)
		Expect(err).To(MatchError(dynamo.ErrPrecondition))
	})

	Describe("Attractor", func() {
		It("integrates to t_end and persists the trajectory", func() {
			cfg := quickConfig("lorenz")
			r, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Attractor(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Complete).To(BeTrue())
			Expect(res.Path).To(Equal(cfg.TrajectoryFile))

			last, ok := res.Trajectory.Last()
			Expect(ok).To(BeTrue())
			Expect(last.T).To(Equal(cfg.Attractor.TEnd))

			saved, err := storage.ReadTrajectory(res.Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(Equal(res.Trajectory))
		})

		It("returns the partial trajectory without persisting it when the step ceiling is hit", func() {
			cfg := quickConfig("lorenz")
			cfg.Integrator.MaxSteps = 50
			r, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Attractor(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Complete).To(BeFalse())
			Expect(res.Path).To(BeEmpty())
			Expect(len(res.Trajectory)).To(BeNumerically(">", 1))

			_, statErr := os.Stat(cfg.TrajectoryFile)
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})
	})

	Describe("ReturnMap", func() {
		It("extracts maxima of z led by the sentinel", func() {
			r, err := experiment.New(quickConfig("rossler"))
			Expect(err).NotTo(HaveOccurred())

			res, err := r.ReturnMap(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Maxima[0]).To(BeZero())
			Expect(len(res.Maxima.Peaks())).To(BeNumerically(">", 10))
			Expect(res.Ratios).To(HaveLen(len(res.Maxima) - 1))
			Expect(math.IsInf(res.Ratios[0], 1)).To(BeTrue())
			for _, p := range res.Maxima.Peaks() {
				Expect(p).To(BeNumerically(">", 0))
			}
		})
	})

	Describe("Divergence", func() {
		It("shows exponential growth from the perturbation scale", func() {
			cfg := quickConfig("lorenz")
			cfg.Divergence.Settle = 50
			r, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Divergence(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Neighbors).To(HaveLen(1))
			n := res.Neighbors[0]
			Expect(n.Err).NotTo(HaveOccurred())

			series := n.LogSeparation
			Expect(series).To(HaveLen(len(res.Times)))
			Expect(res.Times[len(res.Times)-1]).To(Equal(10.0))

			ln := math.Log(1e-6)
			Expect(series[0]).To(BeNumerically("<=", ln))
			Expect(series[0]).To(BeNumerically(">=", ln-5))

			k := len(series) / 10
			Expect(stat.Mean(series[len(series)-k:], nil)).To(BeNumerically(">", stat.Mean(series[:k], nil)))
			Expect(n.Saturation.Index).To(BeNumerically("<", len(series)))
			Expect(n.Saturation.Time).To(Equal(res.Times[n.Saturation.Index]))
			Expect(res.MeanGrowthRate).To(Equal(n.GrowthRate))
			Expect(res.GrowthRateStdDev).To(BeZero())
		})

		It("runs an ensemble of neighbors on the worker pool", func() {
			cfg := quickConfig("lorenz")
			cfg.Divergence.Neighbors = 4
			cfg.Workers = 2
			r, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Divergence(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Succeeded()).To(HaveLen(4))
			for _, n := range res.Neighbors {
				Expect(n.LogSeparation).To(HaveLen(len(res.Times)))
				Expect(n.Start.Sub(res.Reference).Norm()).To(BeNumerically("<=", cfg.Divergence.MaxOffset))
			}
		})

		It("is reproducible for a fixed seed", func() {
			a, err := experiment.New(quickConfig("lorenz"))
			Expect(err).NotTo(HaveOccurred())
			b, err := experiment.New(quickConfig("lorenz"))
			Expect(err).NotTo(HaveOccurred())

			ra, err := a.Divergence(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			rb, err := b.Divergence(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(ra.Reference).To(Equal(rb.Reference))
			Expect(ra.Neighbors[0].LogSeparation).To(Equal(rb.Neighbors[0].LogSeparation))
		})

		It("rejects a non-positive cut-off", func() {
			r, err := experiment.New(quickConfig("lorenz"))
			Expect(err).NotTo(HaveOccurred())
			_, err = r.Divergence(ctx, 0)
			Expect(err).To(MatchError(dynamo.ErrPrecondition))
		})
	})

	Describe("Cutoff", func() {
		It("reruns the divergence with the entered cut-off", func() {
			r, err := experiment.New(quickConfig("lorenz"), answering("4.5\n"))
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Cutoff(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.TCut).To(Equal(4.5))
			Expect(res.Times[len(res.Times)-1]).To(Equal(4.5))
		})

		It("fails on malformed input without retrying", func() {
			r, err := experiment.New(quickConfig("lorenz"), answering("soon\n5\n"))
			Expect(err).NotTo(HaveOccurred())

			_, err = r.Cutoff(ctx)
			Expect(err).To(MatchError(dynamo.ErrUserInput))
		})
	})

	Describe("Cobweb", func() {
		It("builds one path per start", func() {
			cfg := quickConfig("lorenz")
			r, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Cobweb(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Paths).To(HaveLen(len(cfg.Cobweb.Starts)))
			for _, p := range res.Paths {
				Expect(p.X).To(HaveLen(2 * cfg.Cobweb.Iterations))
				Expect(p.Y).To(HaveLen(2 * cfg.Cobweb.Iterations))
			}
			Expect(res.CurveX).NotTo(BeEmpty())
		})

		It("skips a start outside the domain of the map", func() {
			cfg := quickConfig("lorenz")
			cfg.Cobweb.Starts = []float64{0, 0.5}
			r, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Cobweb(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Starts).To(Equal([]float64{0.5}))
			Expect(res.Errs[0]).To(MatchError(dynamo.ErrNumericDomain))
			Expect(res.Errs[1]).NotTo(HaveOccurred())
		})
	})

	Describe("Study", func() {
		It("runs every experiment and finishes with the entered cut-off", func() {
			r, err := experiment.New(quickConfig("lorenz"), answering("3\n"))
			Expect(err).NotTo(HaveOccurred())

			res, err := r.Study(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Attractor.Complete).To(BeTrue())
			Expect(res.ReturnMap.Maxima.Peaks()).NotTo(BeEmpty())
			Expect(res.Divergence.TCut).To(Equal(10.0))
			Expect(res.Cutoff.TCut).To(Equal(3.0))
		})
	})
})

var _ = Describe("Scenario", func() {
	It("runs every step and records each result", func() {
		base := quickConfig("lorenz")
		base.Workers = 2
		sc := &experiment.Scenario{
			Name: "smoke",
			Steps: []experiment.ScenarioStep{
				{Experiment: "cobweb"},
				{Experiment: "divergence", TCut: 5},
				{Experiment: "attractor", System: "rossler", Preset: "quick"},
			},
		}

		results, err := experiment.RunScenario(context.Background(), sc, base)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		ids := map[string]bool{}
		for _, res := range results {
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.RunID).NotTo(BeEmpty())
			ids[res.RunID] = true
		}
		Expect(ids).To(HaveLen(3))

		div, ok := results[1].Result.(*experiment.DivergenceResult)
		Expect(ok).To(BeTrue())
		Expect(div.TCut).To(Equal(5.0))

		att, ok := results[2].Result.(*experiment.AttractorResult)
		Expect(ok).To(BeTrue())
		Expect(att.Path).To(HaveSuffix(filepath.Join("03_attractor_rossler", "rossler.txt")))
	})

	It("loads steps from YAML", func() {
		path := filepath.Join(GinkgoT().TempDir(), "scenario.yaml")
		data := `name: sweep
description: both systems
steps:
  - experiment: divergence
    system: lorenz
    t_cut: 20
  - experiment: return_map
    system: rossler
`
		Expect(os.WriteFile(path, []byte(data), 0644)).To(Succeed())

		sc, err := experiment.LoadScenario(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(sc.Name).To(Equal("sweep"))
		Expect(sc.Steps).To(Equal([]experiment.ScenarioStep{
			{Experiment: "divergence", System: "lorenz", TCut: 20},
			{Experiment: "return_map", System: "rossler"},
		}))
		Expect(sc.Validate(experiment.NewRegistry())).To(Succeed())
	})

	DescribeTable("rejects invalid steps before running anything",
		func(step experiment.ScenarioStep, want error) {
			sc := &experiment.Scenario{Steps: []experiment.ScenarioStep{{Experiment: "cobweb"}, step}}
			results, err := experiment.RunScenario(context.Background(), sc, quickConfig("lorenz"))
			Expect(err).To(MatchError(want))
			Expect(results).To(BeNil())
		},
		Entry("unknown experiment", experiment.ScenarioStep{Experiment: "bifurcation"}, dynamo.ErrPrecondition),
		Entry("interactive experiment", experiment.ScenarioStep{Experiment: "study"}, dynamo.ErrPrecondition),
		Entry("unknown system", experiment.ScenarioStep{Experiment: "attractor", System: "duffing"}, dynamo.ErrUnrecognizedSystem),
		Entry("negative t_cut", experiment.ScenarioStep{Experiment: "divergence", TCut: -1}, dynamo.ErrPrecondition),
	)

	It("rejects an empty scenario", func() {
		_, err := experiment.RunScenario(context.Background(), &experiment.Scenario{}, quickConfig("lorenz"))
		Expect(err).To(MatchError(dynamo.ErrPrecondition))
	})
})

var _ = Describe("Registry", func() {
	It("lists every experiment", func() {
		reg := experiment.NewRegistry()
		Expect(reg.List()).To(Equal([]string{"attractor", "cobweb", "cutoff", "divergence", "return_map", "study"}))
		Expect(reg.Interactive("study")).To(BeTrue())
		Expect(reg.Interactive("cobweb")).To(BeFalse())

		_, err := reg.Get("nope")
		Expect(err).To(MatchError(dynamo.ErrPrecondition))
	})
})

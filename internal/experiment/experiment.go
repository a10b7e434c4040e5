package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/attractor/internal/analysis"
	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/integrators"
	"github.com/san-kum/attractor/internal/physics"
	"github.com/san-kum/attractor/internal/plot"
	"github.com/san-kum/attractor/internal/prompt"
	"github.com/san-kum/attractor/internal/storage"
)

// Runner carries out the experiments of one study for one system.
type Runner struct {
	cfg     *config.Config
	sys     physics.System
	id      string
	log     *log.Logger
	out     io.Writer
	plot    plot.Renderer
	prompt  prompt.Reader
	integ   *integrators.DormandPrince
	perturb *analysis.Perturber
	batch   *dynamo.Batch
}

type Option func(*Runner)

func WithLogger(l *log.Logger) Option { return func(r *Runner) { r.log = l } }

// WithOutput sets where terminal figures are drawn.
func WithOutput(w io.Writer) Option { return func(r *Runner) { r.out = w } }

func WithRenderer(p plot.Renderer) Option { return func(r *Runner) { r.plot = p } }

func WithPrompt(p prompt.Reader) Option { return func(r *Runner) { r.prompt = p } }

// New validates cfg and builds a Runner. Without options it logs nowhere,
// renders figures as configured and prompts on stdin.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := cfg.SystemField()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:     cfg,
		sys:     sys,
		id:      uuid.NewString(),
		log:     log.New(io.Discard),
		out:     os.Stdout,
		integ:   integrators.New(integrators.WithMaxSteps(cfg.Integrator.MaxSteps)),
		perturb: analysis.NewSeededPerturber(cfg.SeedOrRandom()),
		batch:   dynamo.NewBatch(cfg.Workers),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.plot == nil {
		r.plot, err = plot.New(cfg.FigureFormat, cfg.OutputDir, r.out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrPrecondition, err)
		}
	}
	if r.prompt == nil {
		r.prompt = prompt.New(os.Stdin, r.out)
	}
	r.log = r.log.With("system", sys.String(), "run", r.id[:8])
	return r, nil
}

func (r *Runner) ID() string             { return r.id }
func (r *Runner) System() physics.System { return r.sys }

// Config returns the validated configuration. Callers must not modify it.
func (r *Runner) Config() *config.Config { return r.cfg }

// integrate runs one integration under the configured timeout. The result
// is non-nil whenever err is nil or an integration failure.
func (r *Runner) integrate(ctx context.Context, what string, ic dynamo.InitialConditions) (*dynamo.Result, error) {
	if r.cfg.Integrator.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Integrator.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := r.integ.Integrate(ctx, r.sys, ic)
	if res != nil {
		r.log.Debug("integrated", "what", what, "t_end", ic.TEnd, "samples", len(res.Trajectory),
			"steps", res.Stats.Accepted, "rejected", res.Stats.Rejected, "elapsed", time.Since(start))
		r.log.Debug("step sizes", "what", what, "stats", res.Stats.String())
	}
	if errors.Is(err, dynamo.ErrIntegrationFailure) {
		r.log.Warn("integration stopped early", "what", what, "t_end", ic.TEnd, "err", err)
	}
	return res, err
}

// render draws a figure. Failures are logged and never abort an experiment.
func (r *Runner) render(fig plot.Figure, name string) {
	fig.Font = plot.Font{Name: r.cfg.Plot.Font, Size: r.cfg.Plot.FontSize}
	if err := r.plot.Render(fig, r.sys.String()+"_"+name); err != nil {
		r.log.Warn("figure not rendered", "figure", name, "err", err)
	}
}

type AttractorResult struct {
	Trajectory dynamo.Trajectory
	Stats      dynamo.Stats
	// Complete is false when the run stopped before t_end.
	Complete bool
	// Path is the persisted trajectory file, empty if none was written.
	Path string
}

// Attractor integrates the warm-up run, persists it when it completes and
// draws x against z and z against t.
func (r *Runner) Attractor(ctx context.Context) (*AttractorResult, error) {
	res, err := r.integrate(ctx, "attractor", r.cfg.Conditions(r.cfg.Attractor))
	if err != nil && !errors.Is(err, dynamo.ErrIntegrationFailure) {
		return nil, err
	}

	out := &AttractorResult{Trajectory: res.Trajectory, Stats: res.Stats, Complete: err == nil}
	if out.Complete && r.cfg.Persist {
		path := r.cfg.TrajectoryPath()
		if werr := storage.WriteTrajectory(path, res.Trajectory); werr != nil {
			r.log.Warn("trajectory not saved", "path", path, "err", werr)
		} else {
			out.Path = path
			r.log.Info("saved trajectory", "path", path, "samples", len(res.Trajectory))
		}
	}

	tr := res.Trajectory
	title := fmt.Sprintf("%s attractor", r.sys)
	r.render(plot.Figure{Title: title, XLabel: "x", YLabel: "z",
		Series: []plot.Series{{Name: r.sys.String(), X: tr.Axis(0), Y: tr.Axis(2), Style: plot.Lines}}}, "attractor_xz")
	r.render(plot.Figure{Title: title, XLabel: "t", YLabel: "z",
		Series: []plot.Series{{Name: r.sys.String(), X: tr.Times(), Y: tr.Axis(2), Style: plot.Lines}}}, "attractor_tz")

	r.log.Info("attractor done", "samples", len(tr), "steps", res.Stats.Accepted, "rejected", res.Stats.Rejected, "complete", out.Complete)
	return out, nil
}

type ReturnMapResult struct {
	// Maxima of z, led by the sentinel 0.
	Maxima analysis.Maxima
	// Ratios is Normalize(Maxima); its first element divides by the sentinel.
	Ratios   []float64
	Stats    dynamo.Stats
	Complete bool
}

// ReturnMap integrates the long run and builds the first-return map of the
// maxima of z.
func (r *Runner) ReturnMap(ctx context.Context) (*ReturnMapResult, error) {
	res, err := r.integrate(ctx, "return map", r.cfg.Conditions(r.cfg.ReturnMap))
	if err != nil && !errors.Is(err, dynamo.ErrIntegrationFailure) {
		return nil, err
	}

	m := analysis.FindMaxima(res.Trajectory.Axis(2))
	out := &ReturnMapResult{Maxima: m, Ratios: analysis.Normalize(m), Stats: res.Stats, Complete: err == nil}

	zn, zNext := analysis.ReturnMap(m.Peaks())
	r.render(plot.Figure{Title: fmt.Sprintf("Maxima of z in %s system", r.sys), XLabel: "z_n", YLabel: "z_{n+1}",
		Series: []plot.Series{{Name: "maxima", X: zn, Y: zNext, Style: plot.Points}}}, "return_map")
	r.render(plot.Figure{Title: fmt.Sprintf("Normalized maxima of z in %s system", r.sys), XLabel: "z_n", YLabel: "z_{n+1}/z_n",
		Series: []plot.Series{{Name: "ratios", X: m[:len(m)-1], Y: out.Ratios, Style: plot.Points}}}, "return_map_normalized")

	r.log.Info("return map done", "maxima", len(m.Peaks()), "steps", res.Stats.Accepted, "complete", out.Complete)
	return out, nil
}

// Neighbor is the divergence of one perturbed run from the reference.
type Neighbor struct {
	Start         dynamo.State
	LogSeparation []float64
	Saturation    analysis.Saturation
	GrowthRate    float64
	Err           error
}

type DivergenceResult struct {
	TCut      float64
	Reference dynamo.State
	Times     []float64
	Neighbors []Neighbor
	// MeanGrowthRate and GrowthRateStdDev summarize the neighbors without
	// an error.
	MeanGrowthRate   float64
	GrowthRateStdDev float64
}

// Succeeded returns the neighbors that produced a log separation series.
func (d *DivergenceResult) Succeeded() []Neighbor {
	var out []Neighbor
	for _, n := range d.Neighbors {
		if n.Err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Divergence settles a point onto the attractor, then integrates it and
// perturbed copies of it for tCut and compares them sample by sample. All
// runs share one output grid so their sample counts match.
func (r *Runner) Divergence(ctx context.Context, tCut float64) (*DivergenceResult, error) {
	if !(tCut > 0) || math.IsInf(tCut, 0) {
		return nil, fmt.Errorf("%w: cut-off time must be positive and finite, got %g", dynamo.ErrPrecondition, tCut)
	}
	dc := r.cfg.Divergence

	seed, err := r.perturb.Perturb(dynamo.State{}, dc.MaxOffset)
	if err != nil {
		return nil, err
	}
	settled, err := r.integrate(ctx, "settle", r.cfg.DivergenceConditions(seed, dc.Settle))
	if err != nil {
		return nil, fmt.Errorf("settle onto attractor: %w", err)
	}
	last, _ := settled.Trajectory.Last()
	ref := last.State

	starts := make([]dynamo.State, dc.Neighbors+1)
	starts[0] = ref
	for i := 1; i < len(starts); i++ {
		if starts[i], err = r.perturb.Perturb(ref, dc.MaxOffset); err != nil {
			return nil, err
		}
	}

	runs := make([]*dynamo.Result, len(starts))
	errs, err := r.batch.Run(ctx, len(starts), func(ctx context.Context, i int) error {
		res, err := r.integrate(ctx, fmt.Sprintf("trajectory %d", i), r.cfg.DivergenceConditions(starts[i], tCut))
		runs[i] = res
		return err
	})
	if err != nil {
		return nil, err
	}
	if errs[0] != nil {
		return nil, fmt.Errorf("reference trajectory: %w", errs[0])
	}

	out := &DivergenceResult{TCut: tCut, Reference: ref, Times: runs[0].Trajectory.Times()}
	opts := analysis.SaturationOptions{Window: dc.Window, Threshold: dc.SlopeThreshold}
	var rates []float64
	var series []plot.Series

	for i := 1; i < len(starts); i++ {
		n := Neighbor{Start: starts[i], Err: errs[i]}
		if n.Err == nil {
			n.Err = r.diverge(runs[0].Trajectory, runs[i].Trajectory, out.Times, opts, &n)
		}
		if n.Err != nil {
			r.log.Warn("neighbor skipped", "neighbor", i, "err", n.Err)
		} else {
			rates = append(rates, n.GrowthRate)
			series = append(series, plot.Series{Name: fmt.Sprintf("neighbor %d", i), X: out.Times, Y: n.LogSeparation, Style: plot.Lines})
			r.log.Info("divergence", "neighbor", i, "saturation_t", n.Saturation.Time, "knee", n.Saturation.Knee, "growth_rate", n.GrowthRate)
		}
		out.Neighbors = append(out.Neighbors, n)
	}

	if len(rates) == 0 {
		return out, fmt.Errorf("%w: every neighbor failed", dynamo.ErrIntegrationFailure)
	}
	out.MeanGrowthRate, out.GrowthRateStdDev = stat.MeanStdDev(rates, nil)
	if len(rates) == 1 {
		out.GrowthRateStdDev = 0
	}

	r.render(plot.Figure{Title: fmt.Sprintf("Separation of nearby %s trajectories", r.sys), XLabel: "t", YLabel: "ln d",
		Series: series}, fmt.Sprintf("divergence_%g", tCut))
	r.log.Info("divergence done", "t_cut", tCut, "neighbors", len(rates), "growth_rate", out.MeanGrowthRate)
	return out, nil
}

func (r *Runner) diverge(ref, near dynamo.Trajectory, times []float64, opts analysis.SaturationOptions, n *Neighbor) error {
	sep, err := analysis.Separation(ref, near)
	if err != nil {
		return err
	}
	if n.LogSeparation, err = analysis.LogTransform(sep); err != nil {
		return err
	}
	if len(times) < 3 {
		return nil
	}
	if n.Saturation, err = analysis.SaturationIndex(times, n.LogSeparation, opts); err != nil {
		return err
	}
	end := n.Saturation.Index
	if end < 2 {
		end = len(times)
	}
	n.GrowthRate, err = analysis.GrowthRate(times, n.LogSeparation, end)
	return err
}

// Cutoff asks for a cut-off time and reruns Divergence with it.
func (r *Runner) Cutoff(ctx context.Context) (*DivergenceResult, error) {
	tCut, err := r.prompt.ReadFloat(ctx, "Enter the cutoff time.")
	if err != nil {
		return nil, err
	}
	return r.Divergence(ctx, tCut)
}

type CobwebResult struct {
	Paths  []analysis.Path
	Starts []float64
	CurveX []float64
	CurveY []float64
	// Errs holds one entry per start; a start whose path left the domain of
	// the map has no path.
	Errs []error
}

// Cobweb iterates the Poincare map from every configured start.
func (r *Runner) Cobweb(ctx context.Context) (*CobwebResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cc := r.cfg.Cobweb

	cx, cy, err := analysis.MapCurve(analysis.PoincareMap, cc.CurveMin, cc.CurveMax, cc.CurveStep)
	if err != nil {
		return nil, err
	}
	out := &CobwebResult{CurveX: cx, CurveY: cy}

	series := []plot.Series{
		{Name: "p(r)", X: cx, Y: cy, Style: plot.Lines},
		{Name: "r", X: []float64{cc.CurveMin, cc.CurveMax}, Y: []float64{cc.CurveMin, cc.CurveMax}, Style: plot.Lines},
	}
	var iterates []plot.Series

	for _, start := range cc.Starts {
		p, err := analysis.CobwebPath(analysis.PoincareMap, cc.Iterations, start)
		out.Errs = append(out.Errs, err)
		if err != nil {
			if !errors.Is(err, dynamo.ErrNumericDomain) {
				return nil, err
			}
			r.log.Warn("cobweb skipped", "start", start, "err", err)
			continue
		}
		out.Paths = append(out.Paths, p)
		out.Starts = append(out.Starts, start)

		name := fmt.Sprintf("r0=%g", start)
		series = append(series, plot.Series{Name: name, X: p.X, Y: p.Y, Style: plot.Lines})
		it := p.Iterates()
		k := make([]float64, len(it))
		for i := range k {
			k[i] = float64(i)
		}
		iterates = append(iterates, plot.Series{Name: name, X: k, Y: it, Style: plot.Points})
	}

	r.render(plot.Figure{Title: "Cobweb of the Poincare map", XLabel: "r_n", YLabel: "r_{n+1}", Series: series}, "cobweb")
	r.render(plot.Figure{Title: "Iterates of the Poincare map", XLabel: "n", YLabel: "r_n", Series: iterates}, "cobweb_iterates")
	r.log.Info("cobweb done", "paths", len(out.Paths), "iterations", cc.Iterations)
	return out, nil
}

type StudyResult struct {
	Attractor  *AttractorResult
	ReturnMap  *ReturnMapResult
	Divergence *DivergenceResult
	Cutoff     *DivergenceResult
}

// Study runs the full flow: attractor, return map, divergence with the
// configured cut-off, then divergence with a cut-off read from the user.
func (r *Runner) Study(ctx context.Context) (*StudyResult, error) {
	out := &StudyResult{}
	var err error

	if out.Attractor, err = r.Attractor(ctx); err != nil {
		return out, err
	}
	if out.ReturnMap, err = r.ReturnMap(ctx); err != nil {
		return out, err
	}
	if out.Divergence, err = r.Divergence(ctx, r.cfg.Divergence.TCut); err != nil {
		return out, err
	}
	if ok := out.Divergence.Succeeded(); len(ok) > 0 {
		r.log.Info("identify the cut-off time where the separation stops growing exponentially",
			"suggested", ok[0].Saturation.Time)
	}
	if out.Cutoff, err = r.Cutoff(ctx); err != nil {
		return out, err
	}
	return out, nil
}

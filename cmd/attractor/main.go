package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/experiment"
	"github.com/san-kum/attractor/internal/physics"
	"github.com/san-kum/attractor/internal/plot"
	"github.com/san-kum/attractor/internal/storage"
)

var (
	configFile string
	system     string
	preset     string
	logLevel   string
	outDir     string
	format     string
	seed       uint64
	workers    int
	timeout    time.Duration

	tCut      float64
	neighbors int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "attractor",
		Short:        "numerical study of the lorenz and rossler attractors",
		SilenceUsage: true,
		RunE:         runStudy,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&system, "system", config.DefaultSystem, "system to study ("+strings.Join(physics.Names(), ", ")+")")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&outDir, "out", "figures", "figure output directory")
	pf.StringVar(&format, "format", "png", "figure format ("+strings.Join(plot.Formats(), ", ")+")")
	pf.Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	pf.IntVar(&workers, "workers", 0, "parallel integrations (0 uses every cpu)")
	pf.DurationVar(&timeout, "timeout", 0, "time limit per integration")

	studyCmd := &cobra.Command{
		Use:   "study",
		Short: "run the full study and prompt for a cut-off time",
		Args:  cobra.NoArgs,
		RunE:  runStudy,
	}

	integrateCmd := &cobra.Command{
		Use:   "integrate",
		Short: "integrate the attractor run and save the trajectory",
		Args:  cobra.NoArgs,
		RunE:  runAttractor,
	}

	maximaCmd := &cobra.Command{
		Use:   "maxima",
		Short: "first-return map of the maxima of z",
		Args:  cobra.NoArgs,
		RunE:  runReturnMap,
	}

	divergeCmd := &cobra.Command{
		Use:   "diverge",
		Short: "separation of nearby trajectories",
		Args:  cobra.NoArgs,
		RunE:  runDivergence,
	}
	divergeCmd.Flags().Float64Var(&tCut, "t-cut", 0, "cut-off time (0 uses the configured one)")
	divergeCmd.Flags().IntVar(&neighbors, "neighbors", 0, "perturbed neighbors (0 uses the configured count)")

	cutoffCmd := &cobra.Command{
		Use:   "cutoff",
		Short: "prompt for a cut-off time and rerun the divergence",
		Args:  cobra.NoArgs,
		RunE:  runCutoff,
	}

	cobwebCmd := &cobra.Command{
		Use:   "cobweb",
		Short: "cobweb diagram of the limit cycle poincare map",
		Args:  cobra.NoArgs,
		RunE:  runCobweb,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted batch of experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	showCmd := &cobra.Command{
		Use:   "show [system|file]",
		Short: "draw a saved trajectory in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showTrajectory,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets for a system",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			systems := physics.Names()
			if len(args) > 0 {
				sys, err := physics.ParseSystem(args[0])
				if err != nil {
					return err
				}
				systems = []string{sys.String()}
			}
			for _, s := range systems {
				fmt.Printf("presets for %s:\n", s)
				for _, p := range config.ListPresets(s) {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(studyCmd, integrateCmd, maximaCmd, divergeCmd, cutoffCmd, cobwebCmd,
		scenarioCmd, showCmd, presetsCmd, configCmd)
	return rootCmd
}

// loadConfig layers preset or config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("system") {
			sys, err := physics.ParseSystem(system)
			if err != nil {
				return nil, err
			}
			cfg.System = sys.String()
		}
	case preset != "":
		sys, err := physics.ParseSystem(system)
		if err != nil {
			return nil, err
		}
		cfg = config.GetPreset(sys.String(), preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(sys.String()))
		}
	default:
		cfg, err = config.ForSystem(system)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("out") {
		cfg.OutputDir = outDir
	}
	if flags.Changed("format") {
		cfg.FigureFormat = format
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("timeout") {
		cfg.Integrator.Timeout = timeout
	}
	if flags.Lookup("neighbors") != nil && flags.Changed("neighbors") {
		cfg.Divergence.Neighbors = neighbors
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "attractor",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func newRunner(cmd *cobra.Command) (*experiment.Runner, *log.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.LogLevel)
	r, err := experiment.New(cfg, experiment.WithLogger(logger), experiment.WithOutput(os.Stdout))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("configured", "system", cfg.System, "seed", cfg.Seed, "format", cfg.FigureFormat, "out", cfg.OutputDir)
	return r, logger, nil
}

func runStudy(cmd *cobra.Command, args []string) error {
	r, _, err := newRunner(cmd)
	if err != nil {
		return err
	}
	res, err := r.Study(cmd.Context())
	if res.Attractor != nil {
		printAttractor(os.Stdout, res.Attractor)
	}
	if res.ReturnMap != nil {
		printReturnMap(os.Stdout, res.ReturnMap)
	}
	if res.Divergence != nil {
		printDivergence(os.Stdout, res.Divergence)
	}
	if res.Cutoff != nil {
		printDivergence(os.Stdout, res.Cutoff)
	}
	return err
}

func runAttractor(cmd *cobra.Command, args []string) error {
	r, _, err := newRunner(cmd)
	if err != nil {
		return err
	}
	res, err := r.Attractor(cmd.Context())
	if err != nil {
		return err
	}
	printAttractor(os.Stdout, res)
	return nil
}

func runReturnMap(cmd *cobra.Command, args []string) error {
	r, _, err := newRunner(cmd)
	if err != nil {
		return err
	}
	res, err := r.ReturnMap(cmd.Context())
	if err != nil {
		return err
	}
	printReturnMap(os.Stdout, res)
	return nil
}

func runDivergence(cmd *cobra.Command, args []string) error {
	r, _, err := newRunner(cmd)
	if err != nil {
		return err
	}
	cut := tCut
	if cut == 0 {
		cut = r.Config().Divergence.TCut
	}
	res, err := r.Divergence(cmd.Context(), cut)
	if res != nil {
		printDivergence(os.Stdout, res)
	}
	return err
}

func runCutoff(cmd *cobra.Command, args []string) error {
	r, _, err := newRunner(cmd)
	if err != nil {
		return err
	}
	res, err := r.Cutoff(cmd.Context())
	if err != nil {
		return err
	}
	printDivergence(os.Stdout, res)
	return nil
}

func runCobweb(cmd *cobra.Command, args []string) error {
	r, _, err := newRunner(cmd)
	if err != nil {
		return err
	}
	res, err := r.Cobweb(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tITERATES\tLAST")
	for i, p := range res.Paths {
		it := p.Iterates()
		fmt.Fprintf(w, "%g\t%d\t%.6f\n", res.Starts[i], len(it), it[len(it)-1])
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	sc, err := experiment.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger.Info("running scenario", "name", sc.Name, "steps", len(sc.Steps))

	results, err := experiment.RunScenario(cmd.Context(), sc, cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tEXPERIMENT\tSYSTEM\tRUN\tELAPSED\tSTATUS")
	failed := 0
	for i, res := range results {
		status := "ok"
		if res.Err != nil {
			status = res.Err.Error()
			failed++
		}
		sys := res.Step.System
		if sys == "" {
			sys = cfg.System
		}
		run := res.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\t%s\n", i+1, res.Step.Experiment, sys, run,
			res.Elapsed.Round(time.Millisecond), status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return nil
}

// showTrajectory loads a trajectory by file path, or by system name from
// the data directory, and draws it in the terminal.
func showTrajectory(cmd *cobra.Command, args []string) error {
	var traj dynamo.Trajectory
	var err error
	name := system

	if len(args) > 0 {
		if _, statErr := os.Stat(args[0]); statErr == nil {
			traj, err = storage.ReadTrajectory(args[0])
			name = args[0]
		} else {
			name = args[0]
		}
	}
	if traj == nil && err == nil {
		sys, perr := physics.ParseSystem(name)
		if perr != nil {
			return perr
		}
		name = sys.String()
		traj, err = storage.New(config.DefaultDataDir).Load(name)
	}
	if err != nil {
		return err
	}
	if len(traj) == 0 {
		return fmt.Errorf("%s: empty trajectory", name)
	}

	term, err := plot.New("terminal", "", os.Stdout)
	if err != nil {
		return err
	}
	figs := []plot.Figure{
		{Title: name + ": z against x", XLabel: "x", YLabel: "z",
			Series: []plot.Series{{Name: "z", X: traj.Axis(0), Y: traj.Axis(2), Style: plot.Lines}}},
		{Title: name + ": z against t", XLabel: "t", YLabel: "z",
			Series: []plot.Series{{Name: "z", X: traj.Times(), Y: traj.Axis(2), Style: plot.Lines}}},
	}
	for _, fig := range figs {
		if err := term.Render(fig, ""); err != nil {
			return err
		}
	}
	last, _ := traj.Last()
	fmt.Printf("samples: %d  t: [%g, %g]  final state: %v\n", len(traj), traj[0].T, last.T, last.State)
	return nil
}

func printAttractor(w io.Writer, res *experiment.AttractorResult) {
	last, _ := res.Trajectory.Last()
	fmt.Fprintf(w, "attractor: %d samples to t=%g (complete: %v)\n", len(res.Trajectory), last.T, res.Complete)
	fmt.Fprintf(w, "  steps: %s\n", res.Stats)
	if res.Path != "" {
		fmt.Fprintf(w, "  saved: %s\n", res.Path)
	}
}

func printReturnMap(w io.Writer, res *experiment.ReturnMapResult) {
	peaks := res.Maxima.Peaks()
	fmt.Fprintf(w, "return map: %d maxima of z (complete: %v)\n", len(peaks), res.Complete)
	if len(peaks) > 0 {
		lo, hi := peaks[0], peaks[0]
		for _, p := range peaks {
			lo, hi = min(lo, p), max(hi, p)
		}
		fmt.Fprintf(w, "  range: [%.4f, %.4f]\n", lo, hi)
	}
}

func printDivergence(w io.Writer, res *experiment.DivergenceResult) {
	fmt.Fprintf(w, "divergence: t_cut=%g from %v\n", res.TCut, res.Reference)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NEIGHBOR\tLN D(0)\tSATURATION T\tKNEE\tGROWTH RATE")
	for i, n := range res.Neighbors {
		if n.Err != nil {
			fmt.Fprintf(tw, "%d\t-\t-\t-\t%v\n", i+1, n.Err)
			continue
		}
		fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%v\t%.4f\n", i+1, n.LogSeparation[0], n.Saturation.Time, n.Saturation.Knee, n.GrowthRate)
	}
	tw.Flush()
	if ok := res.Succeeded(); len(ok) > 0 {
		fmt.Fprintf(w, "  mean growth rate: %.4f ± %.4f\n", res.MeanGrowthRate, res.GrowthRateStdDev)
	}
}

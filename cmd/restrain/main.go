package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/san-kum/restrain/internal/automation"
	"github.com/san-kum/restrain/internal/config"
	"github.com/san-kum/restrain/internal/experiment"
	"github.com/san-kum/restrain/internal/logging"
	"github.com/san-kum/restrain/internal/metrics"
	"github.com/san-kum/restrain/internal/optim"
	"github.com/san-kum/restrain/internal/storage"
	"github.com/san-kum/restrain/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	logFile   string
	log       zerolog.Logger
	logCloser io.Closer

	sceneFile string
	preset    string
	noDerivs  bool
	save      bool
	jsonOut   string
	svgOut    string
	promFile  string

	// scan
	scanParticle string
	scanAxis     string
	scanFrom     float64
	scanTo       float64
	scanPoints   int
	showDeriv    bool

	// grid
	gridParticle string
	gridAxes     []string
	gridFrom     float64
	gridTo       float64
	gridPoints   int

	// minimize
	stepSize  float64
	maxStep   float64
	maxSteps  int
	threshold float64
	frameRate int

	// sweep
	sweepRestraint int
	sweepParam     string
	sweepFrom      float64
	sweepTo        float64
	sweepPoints    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "restrain",
		Short:         "restraint scoring and minimization lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ApplyEnv(cmd.Flags(), ".env"); err != nil {
				return err
			}
			l, closer, err := logging.Setup(os.Stderr, logLevel, logFormat, logFile)
			if err != nil {
				return err
			}
			log, logCloser = l, closer
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".restrain", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatAuto, "log format (auto, console, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this rotated file")

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "evaluate a scene once",
		RunE:  evalScene,
	}
	addSceneFlags(evalCmd)
	evalCmd.Flags().BoolVar(&noDerivs, "no-derivs", false, "skip derivative calculation")
	evalCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")
	evalCmd.Flags().StringVar(&jsonOut, "json", "", "also write the result as JSON to this path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "plot the score while moving one coordinate",
		RunE:  scanScene,
	}
	addSceneFlags(scanCmd)
	scanCmd.Flags().StringVar(&scanParticle, "particle", "", "particle name (default: first particle)")
	scanCmd.Flags().StringVar(&scanAxis, "axis", "z", "coordinate to scan (x, y, z)")
	scanCmd.Flags().Float64Var(&scanFrom, "from", -5, "scan start")
	scanCmd.Flags().Float64Var(&scanTo, "to", 5, "scan end")
	scanCmd.Flags().IntVar(&scanPoints, "points", 41, "number of scan points")
	scanCmd.Flags().BoolVar(&showDeriv, "derivative", false, "plot the derivative as well")
	scanCmd.Flags().StringVar(&svgOut, "svg", "", "also write the profile as SVG to this path")

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "move a particle to the best point of a coordinate grid",
		RunE:  gridScene,
	}
	addSceneFlags(gridCmd)
	gridCmd.Flags().StringVar(&gridParticle, "particle", "", "particle name (default: first particle)")
	gridCmd.Flags().StringSliceVar(&gridAxes, "axes", []string{"z"}, "coordinates to search (x, y, z)")
	gridCmd.Flags().Float64Var(&gridFrom, "from", -5, "grid start on every axis")
	gridCmd.Flags().Float64Var(&gridTo, "to", 5, "grid end on every axis")
	gridCmd.Flags().IntVar(&gridPoints, "points", 11, "grid points per axis")
	gridCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")

	minimizeCmd := &cobra.Command{
		Use:   "minimize",
		Short: "minimize the scene score by steepest descent",
		RunE:  minimizeScene,
	}
	addSceneFlags(minimizeCmd)
	addMinimizeFlags(minimizeCmd)
	minimizeCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")
	minimizeCmd.Flags().StringVar(&svgOut, "svg", "", "also write the score history as SVG to this path")
	minimizeCmd.Flags().StringVar(&promFile, "prom-file", "", "write run metrics in Prometheus text format to this path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "minimize with live visualization",
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	addMinimizeFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "steps per second")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "re-evaluate a scene over a range of one restraint parameter",
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepRestraint, "restraint", 0, "restraint index in the scene")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "k", "parameter name")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "sweep start")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 20, "sweep end")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 11, "number of sweep points")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of scenes",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	restraintsCmd := &cobra.Command{
		Use:   "restraints",
		Short: "list restraint types usable in scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("restraints:")
			for _, r := range experiment.NewRegistry().ListRestraints() {
				fmt.Printf("  %s\n", r)
			}
			return nil
		},
	}

	rootCmd.AddCommand(evalCmd, scanCmd, gridCmd, minimizeCmd, liveCmd, sweepCmd, batchCmd, listCmd, showCmd, presetsCmd, restraintsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sceneFile, "scene", "", "scene file (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in scene")
}

func addMinimizeFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&stepSize, "step", config.DefaultStepSize, "initial step size")
	cmd.Flags().Float64Var(&maxStep, "max-step", config.DefaultMaxStep, "largest step size")
	cmd.Flags().IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "step limit")
	cmd.Flags().Float64Var(&threshold, "threshold", config.DefaultThreshold, "stop once the score drops below this")
}

// loadScene resolves --scene/--preset, falling back to the default preset.
func loadScene() (*config.Config, error) {
	if sceneFile == "" && preset == "" {
		return config.GetPreset("default"), nil
	}
	cfg, err := automation.ResolveScene(sceneFile, preset)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}
	return cfg, nil
}

// minimizeConfig applies flags over the scene's minimizer settings; flags
// win only when set explicitly.
func minimizeConfig(cmd *cobra.Command, cfg *config.Config) optim.Config {
	mc := cfg.Minimize
	if cmd.Flags().Changed("step") || mc.StepSize == 0 {
		mc.StepSize = stepSize
	}
	if cmd.Flags().Changed("max-step") || mc.MaxStep == 0 {
		mc.MaxStep = maxStep
	}
	if cmd.Flags().Changed("max-steps") || mc.MaxSteps == 0 {
		mc.MaxSteps = maxSteps
	}
	if cmd.Flags().Changed("threshold") || mc.Threshold == 0 {
		mc.Threshold = threshold
	}
	return automation.OptimConfig(mc)
}

func evalScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}

	exp, err := cfg.NewExperiment(experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	result, err := exp.Run(cmd.Context(), !noDerivs)
	if err != nil {
		return err
	}

	fmt.Println(viz.Report(cfg.Name, result))

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Name, automation.ActionEval, result, nil, nil)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, cfg.Name, result); err != nil {
			return err
		}
		log.Info().Str("path", jsonOut).Msg("exported result")
	}

	return nil
}

func scanScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}

	exp, err := cfg.NewExperiment(experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	pi, err := automation.FindParticle(exp.Model(), scanParticle)
	if err != nil {
		return err
	}

	coord, err := automation.AxisIndex(scanAxis)
	if err != nil {
		return err
	}
	if scanPoints < 2 {
		return fmt.Errorf("need at least 2 scan points, got %d", scanPoints)
	}

	points, err := optim.Scan(cmd.Context(), exp.ScoringFunction(), optim.Axis{
		Particle: pi,
		Coord:    coord,
		Values:   optim.Linspace(scanFrom, scanTo, scanPoints),
	})
	if err != nil {
		return err
	}

	p, err := exp.Model().Particle(pi)
	if err != nil {
		return err
	}
	caption := fmt.Sprintf("%s: score vs %s.%s in [%g, %g]", cfg.Name, p.Name(), scanAxis, scanFrom, scanTo)
	fmt.Println(viz.Profile(points, caption, showDeriv))

	best := points[0]
	for _, pt := range points[1:] {
		if pt.Score < best.Score {
			best = pt
		}
	}
	fmt.Printf("\nlowest score %.6f at %s = %g\n", best.Score, scanAxis, best.Value)

	return writeSVG(viz.ProfileSVG(points, 800, 400))
}

func gridScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}

	exp, err := cfg.NewExperiment(experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	best, score, err := automation.RunGrid(cmd.Context(), exp, automation.GridSpec{
		Particle: gridParticle,
		Axes:     gridAxes,
		From:     gridFrom,
		To:       gridTo,
		Points:   gridPoints,
	})
	if err != nil {
		return err
	}

	result, err := exp.Run(cmd.Context(), true)
	if err != nil {
		return err
	}

	fmt.Println(viz.Report(cfg.Name, result))
	fmt.Printf("\nlowest grid score %.6f at", score)
	for i, ax := range gridAxes {
		fmt.Printf(" %s=%g", ax, best[i])
	}
	fmt.Println()

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Name, automation.ActionGrid, result, nil, nil)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func minimizeScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}

	exp, err := cfg.NewExperiment(experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	opt := optim.NewSteepestDescent(exp.ScoringFunction(), minimizeConfig(cmd, cfg), log)
	ms := metrics.Defaults()
	for _, m := range ms {
		opt.AddObserver(m)
	}

	res, err := opt.Optimize(cmd.Context())
	if err != nil {
		return err
	}

	result, err := exp.Run(cmd.Context(), true)
	if err != nil {
		return err
	}

	fmt.Println(viz.Report(cfg.Name, result))
	history := ms[0].(*metrics.ScoreHistory).Scores()
	if len(history) > 1 {
		fmt.Println(viz.History(history, "score per step", 10, 60))
	}

	fmt.Printf("\nsteps: %d  converged: %v (%s)\n", res.Steps, res.Converged, res.Reason)
	fmt.Println("metrics:")
	for _, m := range ms {
		fmt.Printf("  %s: %.6g\n", m.Name(), m.Value())
	}

	if promFile != "" {
		if err := metrics.WriteTextfile(promFile, cfg.Name, ms, *res); err != nil {
			return err
		}
		log.Info().Str("path", promFile).Msg("wrote metrics")
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Name, automation.ActionMinimize, result, history, metrics.Collect(ms))
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	return writeSVG(viz.HistorySVG(history, 800, 400))
}

func writeSVG(svg string) error {
	if svgOut == "" {
		return nil
	}
	if svg == "" {
		return fmt.Errorf("not enough points to plot")
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	log.Info().Str("path", svgOut).Msg("wrote svg")
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if !logging.IsTerminal(os.Stdout) {
		return fmt.Errorf("live view needs a terminal; use minimize instead")
	}

	cfg, err := loadScene()
	if err != nil {
		return err
	}

	// keep debug logs off the alt screen
	exp, err := cfg.NewExperiment(experiment.NewRegistry(), zerolog.Nop())
	if err != nil {
		return err
	}

	opt := optim.NewSteepestDescent(exp.ScoringFunction(), minimizeConfig(cmd, cfg), zerolog.Nop())
	m, err := viz.NewLiveModel(cfg.Name, exp, opt, frameRate)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return err
	}

	res := m.Result()
	log.Info().
		Int("steps", res.Steps).
		Float64("score", res.Score).
		Bool("converged", res.Converged).
		Msg("live minimization finished")
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene()
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Scene:     cfg,
		Restraint: sweepRestraint,
		ParamName: sweepParam,
		ParamMin:  sweepFrom,
		ParamMax:  sweepTo,
		NumSteps:  sweepPoints,
	}, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSCORE\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.6f\n", r.ParamValue, r.Score)
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), scenario, experiment.NewRegistry(), st, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tACTION\tSCORE\tRUN")
	for _, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%.6f\t%s\n", r.Scene, r.Action, r.Result.Score, runID)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tKIND\tTIME\tSCORE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.6f\n",
			run.ID,
			run.Scene,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Score,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadDerivatives(runID)
	if err != nil {
		return err
	}

	result := &experiment.Result{Score: meta.Score, Restraints: meta.Restraints}
	for _, r := range rows {
		result.Particles = append(result.Particles, experiment.ParticleResult{
			Name:        r.Name,
			Coordinates: r.Coordinates,
			Derivatives: r.Derivatives,
		})
	}

	title := fmt.Sprintf("%s (%s, %s)", meta.Scene, meta.Kind, meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Println(viz.Report(title, result))
	if len(meta.History) > 1 {
		fmt.Println(viz.History(meta.History, "score per step", 10, 60))
	}

	if len(meta.Metrics) > 0 {
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("metrics:")
		for _, name := range names {
			fmt.Printf("  %s: %.6g\n", name, meta.Metrics[name])
		}
	}
	return nil
}

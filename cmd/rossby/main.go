package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/dataset"
	"github.com/san-kum/rossby/internal/pipeline"
	"github.com/san-kum/rossby/internal/storage"
	"github.com/san-kum/rossby/internal/strat"
	"github.com/san-kum/rossby/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	// Shared
	configFile string
	preset     string
	dataPath   string
	variable   string
	runsDir    string
	logLevel   string
	// Pipeline
	frameDir   string
	gifDir     string
	frames     int
	fps        int
	strict     bool
	tui        bool
	reportPath string
	saveRun    bool
	// Stratification
	timestep int
	// Profile plot
	quantity   string
	plotWidth  int
	plotHeight int
	fromRun    string
	// Synthetic datasets
	kind           string
	nt, nz, ny, nx int
)

var logger = logrus.New()

// main registers the commands and flags and runs the full pipeline when no
// subcommand is given. It exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "rossby",
		Short:         "Rossby radius and temperature cross-section animations for tank experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		RunE: runPipeline,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", config.DefaultDataset, "NetCDF dataset")
	rootCmd.PersistentFlags().StringVar(&variable, "var", config.DefaultVariable, "temperature variable name")
	rootCmd.PersistentFlags().StringVar(&runsDir, "runs", ".rossby", "directory of saved runs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	addPipelineFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "render both cross-section animations",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
	addPipelineFlags(runCmd)

	stratifyCmd := &cobra.Command{
		Use:   "stratify",
		Short: "compute N and the Rossby radius",
		Args:  cobra.NoArgs,
		RunE:  runStratify,
	}
	addStratifyFlags(stratifyCmd)

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "plot a stratification quantity over time",
		Args:  cobra.NoArgs,
		RunE:  runProfile,
	}
	profileCmd.Flags().StringVar(&quantity, "quantity", "dtemp", fmt.Sprintf("quantity to plot %v", viz.Quantities()))
	profileCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	profileCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")
	profileCmd.Flags().StringVar(&fromRun, "run", "", "plot a saved run instead of the dataset")

	synthCmd := &cobra.Command{
		Use:   "synth [out.cdf]",
		Short: "write a synthetic dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runSynth,
	}
	synthCmd.Flags().StringVar(&kind, "kind", "warmtop", fmt.Sprintf("field kind %v", dataset.SyntheticKinds()))
	synthCmd.Flags().IntVar(&nt, "nt", config.DefaultFrames, "timesteps")
	synthCmd.Flags().IntVar(&nz, "nz", config.DefaultNZ, "depth levels")
	synthCmd.Flags().IntVar(&ny, "ny", config.DefaultNY, "y samples")
	synthCmd.Flags().IntVar(&nx, "nx", config.DefaultNX, "x samples")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "print or save the resolved configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfig,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a saved run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	rootCmd.AddCommand(runCmd, stratifyCmd, profileCmd, synthCmd, configCmd, presetsCmd, listCmd, exportJSONCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("rossby failed")
		os.Exit(1)
	}
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&frameDir, "frames-dir", config.DefaultFrameDir, "scratch directory for PNG frames")
	cmd.Flags().StringVar(&gifDir, "gif-dir", config.DefaultGIFDir, "output directory for animations")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames per animation")
	cmd.Flags().IntVar(&fps, "fps", config.DefaultFrameRate, "animation frame rate")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on unstable stratification")
	cmd.Flags().BoolVar(&tui, "tui", false, "show a progress view")
	cmd.Flags().StringVar(&reportPath, "report", "", "write a JSON run report to this path")
	cmd.Flags().BoolVar(&saveRun, "save", false, "save the run under --runs")
}

func addStratifyFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&timestep, "timestep", config.DefaultStratStep, "timestep to evaluate")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on unstable stratification")
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)
	return nil
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.Overlay(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Dataset = dataPath
	}
	if flags.Changed("var") {
		cfg.Variable = variable
	}
	if flags.Lookup("frames-dir") != nil {
		if flags.Changed("frames-dir") {
			cfg.FrameDir = frameDir
		}
		if flags.Changed("gif-dir") {
			cfg.GIFDir = gifDir
		}
		if flags.Changed("frames") {
			cfg.Frames.Count = frames
		}
		if flags.Changed("fps") {
			cfg.Frames.Rate = fps
		}
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	if flags.Changed("timestep") {
		cfg.Strat.Timestep = timestep
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	var report *pipeline.Report
	if tui {
		logger.SetOutput(io.Discard)
		report, err = viz.RunTUI(ctx, cfg, logger, tea.WithContext(ctx))
		logger.SetOutput(os.Stderr)
	} else {
		p := pipeline.New(cfg)
		p.Log = logger
		p.AddObserver(pipeline.NewLogObserver(logger))
		report, err = p.Run(ctx)
	}
	if err != nil {
		return err
	}

	if !tui {
		fmt.Println(viz.RunSummary(report))
	}

	meta := runMetadata(report)
	if reportPath != "" {
		if err := storage.ExportJSONFile(reportPath, meta, report.Profile); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.WithField("path", reportPath).Info("report written")
	}
	if saveRun {
		st := storage.New(runsDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(meta, report.Profile)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		logger.WithField("run", runID).Info("run saved")
	}
	return nil
}

func runMetadata(report *pipeline.Report) storage.RunMetadata {
	return storage.RunMetadata{
		Dataset:        report.Config.Dataset,
		Variable:       report.Config.Variable,
		Timestamp:      report.Started,
		Elapsed:        report.Elapsed.Seconds(),
		Stable:         report.Stable(),
		Stratification: report.Stratification,
		Frames:         report.Frames,
		Outputs:        report.Outputs,
		Config:         report.Config,
	}
}

func loadField(cfg *config.Config) (*dataset.Field, error) {
	field, err := dataset.Load(cfg.Dataset, cfg.Variable)
	if err != nil {
		return nil, err
	}
	nt, nz, ny, nx := field.Shape()
	logger.WithFields(logrus.Fields{"nt": nt, "nz": nz, "ny": ny, "nx": nx}).Debug("dataset loaded")
	return field, nil
}

func runStratify(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	field, err := loadField(cfg)
	if err != nil {
		return err
	}

	res, err := strat.Compute(field, cfg.Strat.Timestep, strat.LevelsFromConfig(cfg.Strat), strat.FromConfig(cfg.Constants))
	var warn error
	if err != nil {
		if !errors.Is(err, strat.ErrUnstableStratification) || cfg.Strict {
			return err
		}
		warn = err
	}
	fmt.Println(viz.Summary(res, warn))
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	var profile []strat.Result
	if fromRun != "" {
		var err error
		if profile, err = storage.New(runsDir).LoadProfile(fromRun); err != nil {
			return err
		}
	} else {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		field, err := loadField(cfg)
		if err != nil {
			return err
		}
		if profile, err = strat.Profile(field, strat.LevelsFromConfig(cfg.Strat), strat.FromConfig(cfg.Constants)); err != nil {
			return err
		}
	}

	graph, err := viz.ProfilePlot(profile, quantity, plotWidth, plotHeight)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func runSynth(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	field, err := dataset.Synthetic(kind, nt, nz, ny, nx)
	if err != nil {
		return err
	}
	if err := dataset.WriteFile(args[0], cfg.Variable, field); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"path": args[0], "kind": kind, "variable": cfg.Variable}).Info("synthetic dataset written")
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return config.Save(args[0], cfg)
	}
	return yaml.NewEncoder(os.Stdout).Encode(cfg)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(runsDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATASET\tTIME\tELAPSED\tN2\tR\tSTABLE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4g\t%.4g\t%t\n",
			run.ID,
			run.Dataset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Elapsed,
			run.Stratification.N2,
			run.Stratification.R,
			run.Stable,
		)
	}

	return w.Flush()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(runsDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	profile, err := st.LoadProfile(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, *meta, profile)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"archlens/internal/core/app"
	"archlens/internal/core/config"
	"archlens/internal/core/ports"
	"archlens/internal/shared/observability"
	"archlens/internal/shared/util"
	"archlens/internal/shared/version"
	"archlens/internal/ui/report"
)

// Run drives one CLI invocation. Exit codes: 0 on success, 1 on fatal
// errors, 2 when --fail is set and the fitness run has ERROR violations.
func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 1
	}

	if opts.version {
		fmt.Printf("%s v%s\n", version.AppName, version.Version)
		return 0
	}

	configureLogging(opts.verbose, opts.quiet)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if err := applyOverrides(cfg, &opts); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Observability.Tracing.Enabled,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRatio: cfg.Observability.Tracing.SampleRatio,
		ServiceName: cfg.Observability.Tracing.ServiceName,
	})
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer shutdownTracing(context.Background())

	if cfg.Observability.MetricsAddr != "" {
		srv := NewObservabilityServer(cfg.Observability.MetricsAddr, application)
		srv.Start()
		defer srv.Stop(context.Background())
	}

	reportOpts := ports.ReportOptions{
		Rebuild:      opts.rebuild,
		Fitness:      opts.fitness,
		Patterns:     opts.patterns,
		Trend:        opts.trendLimit > 0,
		TrendLimit:   opts.trendLimit,
		FitnessOpts:  ports.FitnessOptions{Preset: opts.preset},
		PatternsOpts: ports.PatternsOptions{Threshold: opts.threshold},
	}
	if reportOpts.Trend && !cfg.History.Enabled {
		fmt.Fprintln(os.Stderr, "--trend requires history.enabled=true in the config")
		return 1
	}

	project := application.ProjectName()
	rep, err := application.Service.Report(ctx, reportOpts)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 1
	}

	writeOutputs(cfg, project, rep)
	fmt.Print(report.RenderSummary(project, rep))

	code := 0
	if opts.failOnErrors && rep.Fitness != nil && !rep.Fitness.IsPassing() {
		code = 2
	}

	if !opts.watch && !cfg.Watch.Enabled {
		return code
	}

	runner := app.NewWatchRunner(application, reportOpts, func(ctx context.Context, rep *ports.Report) {
		writeOutputs(cfg, project, rep)
	})
	if err := runner.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("watch mode failed", "error", err)
		return 1
	}
	return code
}

// loadConfig falls back to built-in defaults when the default config path
// does not exist; an explicit --config path must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}

func applyOverrides(cfg *config.Config, opts *cliOptions) error {
	if len(opts.args) > 1 {
		return fmt.Errorf("at most one positional root argument is accepted, got %d", len(opts.args))
	}
	if len(opts.args) == 1 {
		cfg.Project.Root = opts.args[0]
	}
	if opts.root != "" {
		cfg.Project.Root = opts.root
	}
	if opts.preset != "" {
		cfg.Fitness.Preset = opts.preset
	}
	if opts.threshold < 0 || opts.threshold > 1 {
		return fmt.Errorf("--threshold must be between 0 and 1, got %v", opts.threshold)
	}
	if opts.threshold > 0 {
		cfg.Patterns.ConfidenceThreshold = opts.threshold
	}
	if opts.noCache {
		disabled := false
		cfg.Graph.Cache = &disabled
	}
	if opts.includeTests {
		cfg.Project.IncludeTests = true
	}
	if opts.outDir != "" {
		cfg.Output.Directory = opts.outDir
	}
	if opts.annotateDOT {
		cfg.Output.AnnotateDOT = true
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	return nil
}

// writeOutputs renders every configured report file. Individual failures are
// logged and do not abort the run.
func writeOutputs(cfg *config.Config, project string, rep *ports.Report) {
	write := func(name string, data []byte) {
		path := filepath.Join(cfg.Output.Directory, name)
		if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
			slog.Error("failed to write output", "path", path, "error", err)
			return
		}
		slog.Debug("output written", "path", path)
	}

	if cfg.Output.DOT != "" {
		write(cfg.Output.DOT, []byte(report.RenderDOT(rep.Analysis, report.DOTOptions{Annotate: cfg.Output.AnnotateDOT})))
	}
	if cfg.Output.Markdown != "" {
		write(cfg.Output.Markdown, []byte(report.RenderMarkdown(project, rep)))
	}
	if cfg.Output.JSON != "" || cfg.Output.YAML != "" {
		doc := report.BuildDocument(project, rep)
		if cfg.Output.JSON != "" {
			if data, err := report.RenderJSON(doc); err == nil {
				write(cfg.Output.JSON, data)
			} else {
				slog.Error("failed to render json report", "error", err)
			}
		}
		if cfg.Output.YAML != "" {
			if data, err := report.RenderYAML(doc); err == nil {
				write(cfg.Output.YAML, data)
			} else {
				slog.Error("failed to render yaml report", "error", err)
			}
		}
	}
	if cfg.Output.SARIF != "" {
		if rep.Fitness == nil {
			slog.Warn("sarif output skipped, fitness did not run")
		} else if data, err := report.RenderSARIF(rep); err == nil {
			write(cfg.Output.SARIF, data)
		} else {
			slog.Error("failed to render sarif report", "error", err)
		}
	}
}

func configureLogging(verbose, quiet bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	if quiet {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

package app

import (
	"context"
	"log/slog"
	"time"

	"archlens/internal/core/ports"
	"archlens/internal/core/watcher"
	"archlens/internal/shared/util"
)

// WatchRunner re-analyzes the project whenever tracked files change. Change
// batches are debounced by the watcher and rebuilds are rate limited, so a
// branch switch triggers one pass instead of hundreds.
type WatchRunner struct {
	app     *App
	opts    ports.ReportOptions
	limiter *util.Limiter
	onPass  func(ctx context.Context, report *ports.Report)
}

var _ ports.WatchService = (*WatchRunner)(nil)

// NewWatchRunner wires the watch loop. onPass runs after every successful
// re-analysis, typically to rewrite configured outputs.
func NewWatchRunner(app *App, opts ports.ReportOptions, onPass func(ctx context.Context, report *ports.Report)) *WatchRunner {
	return &WatchRunner{
		app:     app,
		opts:    opts,
		limiter: util.NewLimiter(app.Config.Watch.RateLimit, app.Config.Watch.Burst),
		onPass:  onPass,
	}
}

// Watch blocks until ctx ends.
func (r *WatchRunner) Watch(ctx context.Context) error {
	cfg := r.app.Config

	changes := make(chan []string, 1)
	w, err := watcher.New(watcher.Options{
		Debounce:     time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		ExcludeDirs:  cfg.Exclude.Dirs,
		ExcludeFiles: cfg.Exclude.Files,
		Extensions:   r.app.Parser.SupportedExtensions(),
		Filenames:    r.app.Parser.SupportedFilenames(),
	}, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A pass is already queued; the next rebuild rescans everything.
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(cfg.Project.Root); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", cfg.Project.Root, "debounce_ms", cfg.Watch.DebounceMS)

	var prevModules, prevEdges, prevCycles int
	if latest, ok := r.app.Analyzer.Latest(); ok {
		prevModules, prevEdges, prevCycles = latest.ModuleCount, latest.EdgeCount, len(latest.Cycles)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case paths := <-changes:
			if err := r.limiter.Wait(ctx, 1); err != nil {
				return err
			}

			opts := r.opts
			opts.Rebuild = true
			report, err := r.app.Service.Report(ctx, opts)
			if err != nil {
				slog.Error("re-analysis failed", "error", err)
				continue
			}

			analysis := report.Analysis
			slog.Info("analysis updated",
				"changed_files", len(paths),
				"modules", analysis.ModuleCount,
				"modules_delta", analysis.ModuleCount-prevModules,
				"edges", analysis.EdgeCount,
				"edges_delta", analysis.EdgeCount-prevEdges,
				"cycles", len(analysis.Cycles),
				"cycles_delta", len(analysis.Cycles)-prevCycles,
			)
			prevModules, prevEdges, prevCycles = analysis.ModuleCount, analysis.EdgeCount, len(analysis.Cycles)

			if r.onPass != nil {
				r.onPass(ctx, report)
			}
		}
	}
}

package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"archlens/internal/core/config"
	"archlens/internal/core/ports"
	"archlens/internal/engine/fitness"
	"archlens/internal/engine/graph"
	"archlens/internal/engine/patterns"
	"archlens/internal/shared/observability"
)

// Service orchestrates the engines over a shared immutable snapshot. The
// engines only read the snapshot, so fitness and pattern runs need no locks.
type Service struct {
	cfg      *config.Config
	analyzer *graph.Analyzer
	policies []fitness.Policy
	patterns *patterns.Engine
	store    ports.AnalysisStore
	project  string
}

var _ ports.AnalysisService = (*Service)(nil)

func NewService(cfg *config.Config, analyzer *graph.Analyzer, policies []fitness.Policy, patternsEngine *patterns.Engine, store ports.AnalysisStore, project string) *Service {
	return &Service{
		cfg:      cfg,
		analyzer: analyzer,
		policies: policies,
		patterns: patternsEngine,
		store:    store,
		project:  project,
	}
}

func (s *Service) Analyze(ctx context.Context, rebuild bool) (*graph.Analysis, error) {
	ctx, span := observability.Tracer.Start(ctx, "analyze")
	defer span.End()

	analysis, err := s.analyzer.Analyze(ctx, rebuild)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("modules", analysis.ModuleCount),
		attribute.Int("edges", analysis.EdgeCount),
		attribute.Int("cycles", len(analysis.Cycles)),
	)

	if len(analysis.Warnings) > 0 {
		slog.Warn("some files were excluded from analysis", "count", len(analysis.Warnings))
	}

	if s.store != nil {
		if err := s.store.SaveAnalysis(ctx, s.project, analysis); err != nil {
			slog.Warn("failed to record analysis history", "error", err)
		}
	}
	return analysis, nil
}

func (s *Service) RunFitness(ctx context.Context, opts ports.FitnessOptions) (*graph.Analysis, *fitness.Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "fitness")
	defer span.End()

	analysis, err := s.Analyze(ctx, false)
	if err != nil {
		return nil, nil, err
	}

	policies := s.policies
	preset := s.cfg.Fitness.Preset
	if opts.Preset != "" && opts.Preset != preset {
		override := s.cfg.Fitness
		override.Preset = opts.Preset
		policies, err = fitness.BuildPolicies(override)
		if err != nil {
			return nil, nil, err
		}
		preset = opts.Preset
	}

	start := time.Now()
	result := fitness.NewEngine(preset).Run(ctx, analysis, policies)
	observability.AnalysisDuration.WithLabelValues("fitness").Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Float64("compliance", result.ComplianceScore),
		attribute.Int("violations", len(result.Violations)),
	)

	if s.store != nil {
		if err := s.store.SaveFitness(ctx, analysis.ID, result); err != nil {
			slog.Warn("failed to record fitness history", "error", err)
		}
	}
	return analysis, result, nil
}

func (s *Service) DetectPatterns(ctx context.Context, opts ports.PatternsOptions) (*patterns.Analysis, error) {
	ctx, span := observability.Tracer.Start(ctx, "patterns")
	defer span.End()

	analysis, err := s.Analyze(ctx, false)
	if err != nil {
		return nil, err
	}

	engine := s.patterns
	if opts.Threshold > 0 {
		engine = patterns.NewEngine(opts.Threshold)
	}

	start := time.Now()
	detected := engine.Detect(ctx, analysis)
	observability.AnalysisDuration.WithLabelValues("patterns").Observe(time.Since(start).Seconds())
	if detected.Primary != nil {
		span.SetAttributes(
			attribute.String("primary", string(detected.Primary.Pattern)),
			attribute.Float64("confidence", detected.Primary.Confidence),
		)
	}
	return detected, nil
}

// Report runs the selected engines against one snapshot and bundles the
// results for rendering.
func (s *Service) Report(ctx context.Context, opts ports.ReportOptions) (*ports.Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "report")
	defer span.End()

	analysis, err := s.Analyze(ctx, opts.Rebuild)
	if err != nil {
		return nil, err
	}

	report := &ports.Report{Analysis: analysis}

	if opts.Fitness {
		policies := s.policies
		preset := s.cfg.Fitness.Preset
		if opts.FitnessOpts.Preset != "" && opts.FitnessOpts.Preset != preset {
			override := s.cfg.Fitness
			override.Preset = opts.FitnessOpts.Preset
			policies, err = fitness.BuildPolicies(override)
			if err != nil {
				return nil, err
			}
			preset = opts.FitnessOpts.Preset
		}
		report.Policies = policies
		report.Fitness = fitness.NewEngine(preset).Run(ctx, analysis, policies)
		if s.store != nil {
			if err := s.store.SaveFitness(ctx, analysis.ID, report.Fitness); err != nil {
				slog.Warn("failed to record fitness history", "error", err)
			}
		}
	}

	if opts.Patterns {
		engine := s.patterns
		if opts.PatternsOpts.Threshold > 0 {
			engine = patterns.NewEngine(opts.PatternsOpts.Threshold)
		}
		report.Patterns = engine.Detect(ctx, analysis)
	}

	if opts.Trend && s.store != nil {
		limit := opts.TrendLimit
		if limit <= 0 {
			limit = 10
		}
		trend, err := s.store.History(ctx, s.project, limit)
		if err != nil {
			slog.Warn("failed to load history trend", "error", err)
		} else {
			report.Trend = trend
		}
	}

	return report, nil
}

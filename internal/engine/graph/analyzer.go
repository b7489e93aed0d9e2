package graph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"archlens/internal/engine/parser"
	"archlens/internal/engine/scanner"
	"archlens/internal/shared/observability"
)

// Analysis is the immutable snapshot one graph pass produces. Everything
// downstream (fitness, patterns, reports, history) reads from it.
type Analysis struct {
	ID          string
	CreatedAt   time.Time
	Root        string
	Fingerprint string

	Graph    *Graph
	Files    []*parser.File
	Metrics  map[string]ModuleMetrics
	Cycles   []Cycle
	Roots    []string
	Leaves   []string
	Hotspots []string
	MaxDepth int

	FileCount   int
	ModuleCount int
	EdgeCount   int
	Warnings    []scanner.FileWarning
}

// Analyzer runs scans and caches the latest snapshot, keyed by the scan
// fingerprint. Concurrent readers get the cached pointer; only a changed
// tree or an explicit rebuild triggers a new pass.
type Analyzer struct {
	scanner    *scanner.Scanner
	root       string
	opts       Options
	thresholds SeverityThresholds

	mu     sync.RWMutex
	latest *Analysis

	cacheEnabled bool
}

type AnalyzerConfig struct {
	Root               string
	GraphOptions       Options
	SeverityThresholds SeverityThresholds
	CacheEnabled       bool
}

func NewAnalyzer(s *scanner.Scanner, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{
		scanner:      s,
		root:         cfg.Root,
		opts:         cfg.GraphOptions,
		thresholds:   cfg.SeverityThresholds,
		cacheEnabled: cfg.CacheEnabled,
	}
}

// Latest returns the cached snapshot without any freshness check.
func (a *Analyzer) Latest() (*Analysis, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest, a.latest != nil
}

// Analyze returns a current snapshot, rescanning only when the tree
// fingerprint changed or rebuild forces it.
func (a *Analyzer) Analyze(ctx context.Context, rebuild bool) (*Analysis, error) {
	if !rebuild && a.cacheEnabled {
		a.mu.RLock()
		cached := a.latest
		a.mu.RUnlock()

		if cached != nil {
			fingerprint, err := a.scanner.Fingerprint(a.root)
			if err == nil && fingerprint == cached.Fingerprint {
				return cached, nil
			}
			if err != nil {
				slog.Warn("fingerprint check failed, rescanning", "error", err)
			}
		}
	}

	start := time.Now()
	result, err := a.scanner.Scan(ctx, a.root)
	if err != nil {
		return nil, err
	}

	analysis := BuildAnalysis(result, a.opts, a.thresholds)
	observability.AnalysisDuration.WithLabelValues("graph").Observe(time.Since(start).Seconds())

	a.mu.Lock()
	a.latest = analysis
	a.mu.Unlock()

	return analysis, nil
}

// BuildAnalysis derives the full snapshot from one scan result.
func BuildAnalysis(result *scanner.Result, opts Options, thresholds SeverityThresholds) *Analysis {
	g := Build(result, opts)
	metrics := g.ComputeMetrics()
	cycles := g.DetectCycles(thresholds)
	observability.GraphCycles.Set(float64(len(cycles)))

	maxDepth := 0
	for _, m := range metrics {
		if m.Depth > maxDepth {
			maxDepth = m.Depth
		}
	}

	return &Analysis{
		ID:          uuid.NewString(),
		CreatedAt:   result.ScannedAt,
		Root:        result.Root,
		Fingerprint: result.Fingerprint,
		Graph:       g,
		Files:       result.Files,
		Metrics:     metrics,
		Cycles:      cycles,
		Roots:       g.Roots(),
		Leaves:      g.Leaves(),
		Hotspots:    g.Hotspots(metrics, 10),
		MaxDepth:    maxDepth,
		FileCount:   len(result.Files),
		ModuleCount: len(g.Modules),
		EdgeCount:   len(g.Edges),
		Warnings:    result.Warnings,
	}
}

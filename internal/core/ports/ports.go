package ports

import (
	"context"
	"time"

	"archlens/internal/engine/fitness"
	"archlens/internal/engine/graph"
	"archlens/internal/engine/parser"
	"archlens/internal/engine/patterns"
)

// CodeParser abstracts source parsing and language-file support checks.
type CodeParser interface {
	ParseFile(path string, content []byte) (*parser.File, error)
	GetLanguage(path string) string
	IsSupportedPath(path string) bool
	IsTestFile(path string) bool
	SupportedExtensions() []string
	SupportedFilenames() []string
}

// AnalysisSummary is the persisted shape of one graph snapshot.
type AnalysisSummary struct {
	ID          string
	Project     string
	Fingerprint string
	CreatedAt   time.Time
	Modules     int
	Edges       int
	Cycles      int
	MaxDepth    int
}

// FitnessSummary is the persisted shape of one fitness run.
type FitnessSummary struct {
	ID         string
	AnalysisID string
	Preset     string
	Score      float64
	Errors     int
	Warnings   int
	Passed     int
	CreatedAt  time.Time
}

// HistoryEntry pairs a stored analysis with its fitness run, when one was
// recorded.
type HistoryEntry struct {
	Analysis AnalysisSummary
	Fitness  *FitnessSummary
}

// AnalysisStore persists snapshots and fitness runs and serves the trend
// feed. Saving the same analysis id twice is a no-op for the caller.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, project string, analysis *graph.Analysis) error
	SaveFitness(ctx context.Context, analysisID string, result *fitness.Result) error
	LatestAnalysis(ctx context.Context, project string) (*HistoryEntry, error)
	History(ctx context.Context, project string, limit int) ([]HistoryEntry, error)
	Close() error
}

// FitnessOptions override the configured policy set for one run.
type FitnessOptions struct {
	Preset string
}

// ReportOptions select which sections a composite report carries.
type ReportOptions struct {
	Rebuild      bool
	Fitness      bool
	Patterns     bool
	Trend        bool
	TrendLimit   int
	FitnessOpts  FitnessOptions
	PatternsOpts PatternsOptions
}

// PatternsOptions override detection tuning for one run.
type PatternsOptions struct {
	Threshold float64
}

// Report is the composite result the renderers consume.
type Report struct {
	Analysis *graph.Analysis
	Fitness  *fitness.Result
	Policies []fitness.Policy
	Patterns *patterns.Analysis
	Trend    []HistoryEntry
}

// AnalysisService is the orchestration surface the CLI and watcher drive.
type AnalysisService interface {
	Analyze(ctx context.Context, rebuild bool) (*graph.Analysis, error)
	RunFitness(ctx context.Context, opts FitnessOptions) (*graph.Analysis, *fitness.Result, error)
	DetectPatterns(ctx context.Context, opts PatternsOptions) (*patterns.Analysis, error)
	Report(ctx context.Context, opts ReportOptions) (*Report, error)
}

// WatchService runs continuous re-analysis until its context ends.
type WatchService interface {
	Watch(ctx context.Context) error
}

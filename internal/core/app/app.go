package app

import (
	"path/filepath"

	"archlens/internal/core/config"
	"archlens/internal/core/ports"
	"archlens/internal/data/history"
	"archlens/internal/engine/fitness"
	"archlens/internal/engine/graph"
	"archlens/internal/engine/parser"
	"archlens/internal/engine/patterns"
	"archlens/internal/engine/scanner"
)

// App wires configuration into the full analysis stack: parser, scanner,
// analyzer, policy and pattern engines, and the optional history store.
type App struct {
	Config   *config.Config
	Parser   *parser.Parser
	Scanner  *scanner.Scanner
	Analyzer *graph.Analyzer
	Policies []fitness.Policy
	Store    ports.AnalysisStore
	Service  *Service
}

func New(cfg *config.Config) (*App, error) {
	overrides := make(map[string]parser.LanguageOverride, len(cfg.Languages))
	for lang, lc := range cfg.Languages {
		overrides[lang] = parser.LanguageOverride{
			Enabled:    lc.Enabled,
			Extensions: lc.Extensions,
			Filenames:  lc.Filenames,
		}
	}
	registry, err := parser.BuildLanguageRegistry(overrides)
	if err != nil {
		return nil, err
	}
	loader, err := parser.NewGrammarLoaderWithRegistry(registry)
	if err != nil {
		return nil, err
	}
	codeParser := parser.NewParser(loader)
	if err := codeParser.RegisterDefaultExtractors(); err != nil {
		return nil, err
	}

	codeScanner, err := scanner.New(codeParser, scanner.Options{
		ExcludeDirs:  cfg.Exclude.Dirs,
		ExcludeFiles: cfg.Exclude.Files,
		IncludeTests: cfg.Project.IncludeTests,
		Workers:      cfg.Scan.Workers,
	})
	if err != nil {
		return nil, err
	}

	analyzer := graph.NewAnalyzer(codeScanner, graph.AnalyzerConfig{
		Root:         cfg.Project.Root,
		GraphOptions: graph.Options{TrackExternal: cfg.Project.TrackExternal},
		SeverityThresholds: graph.SeverityThresholds{
			HighMax:   cfg.Graph.SeverityHighMax,
			MediumMax: cfg.Graph.SeverityMediumMax,
		},
		CacheEnabled: cfg.Graph.CacheEnabled(),
	})

	policies, err := fitness.BuildPolicies(cfg.Fitness)
	if err != nil {
		return nil, err
	}

	var store ports.AnalysisStore
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path, cfg.History.Keep)
		if err != nil {
			return nil, err
		}
	}

	app := &App{
		Config:   cfg,
		Parser:   codeParser,
		Scanner:  codeScanner,
		Analyzer: analyzer,
		Policies: policies,
		Store:    store,
	}
	app.Service = NewService(cfg, analyzer, policies, patterns.NewEngine(cfg.Patterns.ConfidenceThreshold), store, app.ProjectName())
	return app, nil
}

// ProjectName derives the history key from the configured root.
func (a *App) ProjectName() string {
	abs, err := filepath.Abs(a.Config.Project.Root)
	if err != nil {
		return filepath.Base(a.Config.Project.Root)
	}
	return filepath.Base(abs)
}

func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

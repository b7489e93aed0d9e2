package config

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{
			".*", "vendor", "node_modules", "build", "dist",
			"__pycache__", "venv", "target", "testdata",
		}
	}

	if cfg.Graph.SeverityHighMax == 0 {
		cfg.Graph.SeverityHighMax = 2
	}
	if cfg.Graph.SeverityMediumMax == 0 {
		cfg.Graph.SeverityMediumMax = 4
	}

	if cfg.Fitness.Preset == "" {
		cfg.Fitness.Preset = "balanced"
	}

	if cfg.Patterns.ConfidenceThreshold == 0 {
		cfg.Patterns.ConfidenceThreshold = 0.5
	}

	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
	if cfg.Watch.RateLimit == 0 {
		cfg.Watch.RateLimit = 2
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 1
	}

	if cfg.History.Path == "" {
		cfg.History.Path = ".archlens/history.db"
	}
	if cfg.History.Keep == 0 {
		cfg.History.Keep = 50
	}

	if cfg.Observability.Tracing.SampleRatio == 0 {
		cfg.Observability.Tracing.SampleRatio = 1.0
	}
}

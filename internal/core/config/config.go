package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"archlens/internal/core/errors"
)

type Config struct {
	Version       int                 `toml:"version"`
	Project       Project             `toml:"project"`
	Exclude       Exclude             `toml:"exclude"`
	Scan          Scan                `toml:"scan"`
	Languages     map[string]Language `toml:"languages"`
	Graph         Graph               `toml:"graph"`
	Fitness       Fitness             `toml:"fitness"`
	Patterns      Patterns            `toml:"patterns"`
	Output        Output              `toml:"output"`
	Watch         Watch               `toml:"watch"`
	History       History             `toml:"history"`
	Observability Observability       `toml:"observability"`
}

type Project struct {
	Root          string `toml:"root"`
	IncludeTests  bool   `toml:"include_tests"`
	TrackExternal bool   `toml:"track_external"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Scan struct {
	// Workers bounds the parse worker pool. 0 means one per CPU.
	Workers int `toml:"workers"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
	Filenames  []string `toml:"filenames"`
}

type Graph struct {
	Cache *bool `toml:"cache"`
	// Cycle severity bands by cycle length: length <= SeverityHighMax is
	// high, <= SeverityMediumMax is medium, anything longer is low.
	SeverityHighMax   int `toml:"severity_high_max"`
	SeverityMediumMax int `toml:"severity_medium_max"`
}

// CacheEnabled reports whether analysis snapshots may be served from cache.
func (g Graph) CacheEnabled() bool {
	return g.Cache == nil || *g.Cache
}

type Fitness struct {
	Preset     string             `toml:"preset"`
	Disable    []string           `toml:"disable"`
	Enable     []string           `toml:"enable"`
	Levels     map[string]string  `toml:"levels"`
	Thresholds map[string]float64 `toml:"thresholds"`
	Layers     []Layer            `toml:"layers"`
	AllowSkip  *bool              `toml:"allow_skip"`
}

type Layer struct {
	Name  string   `toml:"name"`
	Paths []string `toml:"paths"`
}

type Patterns struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
}

type Output struct {
	Directory   string `toml:"directory"`
	DOT         string `toml:"dot"`
	Markdown    string `toml:"markdown"`
	SARIF       string `toml:"sarif"`
	JSON        string `toml:"json"`
	YAML        string `toml:"yaml"`
	AnnotateDOT bool   `toml:"annotate_dot"`
}

type Watch struct {
	Enabled    bool    `toml:"enabled"`
	DebounceMS int     `toml:"debounce_ms"`
	RateLimit  float64 `toml:"rate_limit"`
	Burst      int     `toml:"burst"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Keep    int    `toml:"keep"`
}

type Observability struct {
	MetricsAddr string  `toml:"metrics_addr"`
	Tracing     Tracing `toml:"tracing"`
}

type Tracing struct {
	Enabled     bool    `toml:"enabled"`
	Endpoint    string  `toml:"endpoint"`
	SampleRatio float64 `toml:"sample_ratio"`
	ServiceName string  `toml:"service_name"`
}

// Load reads a TOML config file, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "read config file")
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "decode config file")
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

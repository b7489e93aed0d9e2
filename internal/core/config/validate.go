package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"archlens/internal/core/errors"
)

var knownPresets = map[string]bool{
	"strict":           true,
	"balanced":         true,
	"lenient":          true,
	"startup":          true,
	"security_focused": true,
}

var knownLevels = map[string]bool{
	"ERROR":   true,
	"WARNING": true,
	"INFO":    true,
}

func validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateScan(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := validateGraph(cfg); err != nil {
		return err
	}
	if err := validateFitness(cfg); err != nil {
		return err
	}
	if err := validatePatterns(cfg); err != nil {
		return err
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.Newf(errors.CodeConfig, "unsupported config version %d", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 0 {
		return errors.Newf(errors.CodeConfig, "scan.workers must be >= 0, got %d", cfg.Scan.Workers)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid exclude dir pattern %q", p))
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
	}
	return nil
}

func validateGraph(cfg *Config) error {
	if cfg.Graph.SeverityHighMax < 2 {
		return errors.Newf(errors.CodeConfig, "graph.severity_high_max must be >= 2, got %d", cfg.Graph.SeverityHighMax)
	}
	if cfg.Graph.SeverityMediumMax < cfg.Graph.SeverityHighMax {
		return errors.Newf(errors.CodeConfig,
			"graph.severity_medium_max (%d) must be >= severity_high_max (%d)",
			cfg.Graph.SeverityMediumMax, cfg.Graph.SeverityHighMax)
	}
	return nil
}

func validateFitness(cfg *Config) error {
	if !knownPresets[cfg.Fitness.Preset] {
		return errors.Newf(errors.CodeConfig, "unknown fitness preset %q", cfg.Fitness.Preset)
	}

	for id, level := range cfg.Fitness.Levels {
		if !knownLevels[strings.ToUpper(level)] {
			return errors.Newf(errors.CodeConfig, "invalid level %q for policy %s", level, id)
		}
	}

	for id, value := range cfg.Fitness.Thresholds {
		if value < 0 {
			return errors.Newf(errors.CodeConfig, "threshold for %s must be >= 0, got %v", id, value)
		}
	}

	seen := make(map[string]bool, len(cfg.Fitness.Layers))
	for _, layer := range cfg.Fitness.Layers {
		if layer.Name == "" {
			return errors.New(errors.CodeConfig, "fitness layer with empty name")
		}
		if seen[layer.Name] {
			return errors.Newf(errors.CodeConfig, "duplicate fitness layer %q", layer.Name)
		}
		seen[layer.Name] = true
		if len(layer.Paths) == 0 {
			return errors.Newf(errors.CodeConfig, "fitness layer %q has no paths", layer.Name)
		}
		for _, p := range layer.Paths {
			if _, err := glob.Compile(p, '/'); err != nil {
				return errors.Wrap(err, errors.CodeConfig,
					fmt.Sprintf("invalid pattern %q in layer %q", p, layer.Name))
			}
		}
	}
	return nil
}

func validatePatterns(cfg *Config) error {
	t := cfg.Patterns.ConfidenceThreshold
	if t < 0 || t > 1 {
		return errors.Newf(errors.CodeConfig, "patterns.confidence_threshold must be in [0,1], got %v", t)
	}
	return nil
}

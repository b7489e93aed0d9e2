package fitness

import (
	"context"
	"fmt"
	"math"

	"github.com/gobwas/glob"

	"archlens/internal/core/errors"
	"archlens/internal/engine/graph"
	"archlens/internal/engine/parser"
)

func defaultValidators() map[ValidatorKind]Validator {
	return map[ValidatorKind]Validator{
		KindNoCycles:        validateNoCycles,
		KindLayering:        validateLayering,
		KindMaxComplexity:   validateMaxComplexity,
		KindMaxFunctionLOC:  validateMaxFunctionLOC,
		KindMaxFileLOC:      validateMaxFileLOC,
		KindMaintainability: validateMaintainability,
		KindMaxCoupling:     validateMaxCoupling,
		KindMaxDepth:        validateMaxDepth,
		KindDocstrings:      validateDocstrings,
	}
}

func severityRank(s graph.CycleSeverity) int {
	switch s {
	case graph.SeverityHigh:
		return 3
	case graph.SeverityMedium:
		return 2
	default:
		return 1
	}
}

func validateNoCycles(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	minRank := severityRank(policy.Thresholds.MinSeverity)

	var out []Violation
	for _, cycle := range analysis.Cycles {
		if severityRank(cycle.Severity) < minRank {
			continue
		}

		v := Violation{
			PolicyID: policy.ID,
			Level:    policy.Level,
			Module:   cycle.Modules[0],
			Message:  fmt.Sprintf("circular dependency (%s): %s; %s", cycle.Severity, cyclePath(cycle.Modules), cycle.Suggestion),
		}
		if len(cycle.Modules) > 1 {
			if edge, ok := analysis.Graph.EdgeBetween(cycle.Modules[0], cycle.Modules[1]); ok {
				v.File, v.Line = edge.File, edge.Line
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func cyclePath(modules []string) string {
	path := ""
	for _, m := range modules {
		path += m + " -> "
	}
	return path + modules[0]
}

func validateLayering(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	layers := policy.Thresholds.Layers
	if len(layers) == 0 {
		return nil, nil
	}

	type layerGlobs struct {
		name  string
		globs []glob.Glob
	}
	compiled := make([]layerGlobs, 0, len(layers))
	for _, layer := range layers {
		lg := layerGlobs{name: layer.Name}
		for _, pattern := range layer.Paths {
			g, err := glob.Compile(pattern)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid layer pattern %q", pattern))
			}
			lg.globs = append(lg.globs, g)
		}
		compiled = append(compiled, lg)
	}

	layerOf := func(module string) int {
		for i, lg := range compiled {
			for _, g := range lg.globs {
				if g.Match(module) {
					return i
				}
			}
		}
		return -1
	}

	var out []Violation
	for _, edge := range analysis.Graph.Edges {
		if edge.External {
			continue
		}
		from, to := layerOf(edge.From), layerOf(edge.To)
		if from < 0 || to < 0 || from == to {
			continue
		}

		if from < to {
			out = append(out, Violation{
				PolicyID: policy.ID,
				Level:    policy.Level,
				Module:   edge.From,
				File:     edge.File,
				Line:     edge.Line,
				Message: fmt.Sprintf("layer %q must not import layer %q (%s -> %s)",
					compiled[from].name, compiled[to].name, edge.From, edge.To),
			})
			continue
		}
		if !policy.Thresholds.AllowSkip && from-to > 1 {
			out = append(out, Violation{
				PolicyID: policy.ID,
				Level:    policy.Level,
				Module:   edge.From,
				File:     edge.File,
				Line:     edge.Line,
				Message: fmt.Sprintf("layer %q skips %d layers importing %q (%s -> %s)",
					compiled[from].name, from-to-1, compiled[to].name, edge.From, edge.To),
			})
		}
	}
	return out, nil
}

func validateMaxComplexity(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	max := int(policy.Thresholds.Value("max", 15))

	var out []Violation
	for _, file := range analysis.Files {
		for _, def := range file.Definitions {
			if !def.Kind.IsCallable() || def.ComplexityScore <= max {
				continue
			}
			out = append(out, Violation{
				PolicyID: policy.ID,
				Level:    policy.Level,
				Module:   file.Module,
				File:     file.Path,
				Line:     def.Location.Line,
				Message:  fmt.Sprintf("%s has complexity %d (max %d)", def.Name, def.ComplexityScore, max),
			})
		}
	}
	return out, nil
}

func validateMaxFunctionLOC(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	max := int(policy.Thresholds.Value("max", 60))

	var out []Violation
	for _, file := range analysis.Files {
		for _, def := range file.Definitions {
			if !def.Kind.IsCallable() || def.LOC <= max {
				continue
			}
			out = append(out, Violation{
				PolicyID: policy.ID,
				Level:    policy.Level,
				Module:   file.Module,
				File:     file.Path,
				Line:     def.Location.Line,
				Message:  fmt.Sprintf("%s spans %d lines (max %d)", def.Name, def.LOC, max),
			})
		}
	}
	return out, nil
}

func validateMaxFileLOC(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	max := int(policy.Thresholds.Value("max", 400))

	var out []Violation
	for _, file := range analysis.Files {
		if file.LOC <= max {
			continue
		}
		out = append(out, Violation{
			PolicyID: policy.ID,
			Level:    policy.Level,
			Module:   file.Module,
			File:     file.Path,
			Line:     1,
			Message:  fmt.Sprintf("file spans %d lines (max %d)", file.LOC, max),
		})
	}
	return out, nil
}

func validateMaintainability(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	min := policy.Thresholds.Value("min", 65)

	var out []Violation
	for _, file := range analysis.Files {
		if file.LOC == 0 {
			continue
		}
		mi := MaintainabilityIndex(file)
		if mi >= min {
			continue
		}
		out = append(out, Violation{
			PolicyID: policy.ID,
			Level:    policy.Level,
			Module:   file.Module,
			File:     file.Path,
			Line:     1,
			Message:  fmt.Sprintf("maintainability index %.1f (min %.1f)", mi, min),
		})
	}
	return out, nil
}

// MaintainabilityIndex is the classic formula normalized to 0..100, with
// Halstead volume proxied by LOC:
//
//	MI = max(0, (171 - 5.2*ln(V) - 0.23*C - 16.2*ln(L)) * 100 / 171)
func MaintainabilityIndex(file *parser.File) float64 {
	loc := float64(file.LOC)
	if loc < 1 {
		loc = 1
	}

	complexity := 0.0
	for _, def := range file.Definitions {
		if def.Kind.IsCallable() {
			complexity += float64(def.BranchCount + 1)
		}
	}

	mi := (171 - 5.2*math.Log(loc) - 0.23*complexity - 16.2*math.Log(loc)) * 100 / 171
	if mi < 0 {
		return 0
	}
	return mi
}

func validateMaxCoupling(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	max := policy.Thresholds.Value("max", 0.8)
	minDeps := int(policy.Thresholds.Value("min_dependencies", 3))

	var out []Violation
	for _, name := range analysis.Graph.InternalModuleNames() {
		m := analysis.Metrics[name]
		if m.FanIn+m.FanOut < minDeps || m.Instability <= max {
			continue
		}
		out = append(out, Violation{
			PolicyID: policy.ID,
			Level:    policy.Level,
			Module:   name,
			Message:  fmt.Sprintf("instability %.2f with %d dependencies (max %.2f)", m.Instability, m.FanIn+m.FanOut, max),
		})
	}
	return out, nil
}

func validateMaxDepth(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	max := int(policy.Thresholds.Value("max", 6))
	if analysis.MaxDepth <= max {
		return nil, nil
	}
	return []Violation{{
		PolicyID: policy.ID,
		Level:    policy.Level,
		Message:  fmt.Sprintf("dependency chain depth %d (max %d)", analysis.MaxDepth, max),
	}}, nil
}

func validateDocstrings(_ context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error) {
	granularity := policy.Thresholds.Granularity
	if granularity == "" {
		granularity = "all"
	}
	checkModules := granularity == "module" || granularity == "all"
	checkFunctions := granularity == "function" || granularity == "all"

	var out []Violation
	for _, file := range analysis.Files {
		// Markup languages have no documentation convention to check.
		if file.Language == "css" || file.Language == "html" {
			continue
		}

		if checkModules && !file.ModuleDoc {
			out = append(out, Violation{
				PolicyID: policy.ID,
				Level:    policy.Level,
				Module:   file.Module,
				File:     file.Path,
				Line:     1,
				Message:  "file has no module documentation",
			})
		}
		if !checkFunctions {
			continue
		}
		for _, def := range file.Definitions {
			if !def.Exported || !def.Kind.IsCallable() || def.HasDoc {
				continue
			}
			out = append(out, Violation{
				PolicyID: policy.ID,
				Level:    policy.Level,
				Module:   file.Module,
				File:     file.Path,
				Line:     def.Location.Line,
				Message:  fmt.Sprintf("exported %s %s is undocumented", def.Kind, def.Name),
			})
		}
	}
	return out, nil
}

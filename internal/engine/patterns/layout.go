package patterns

import (
	"sort"
	"strings"

	"archlens/internal/engine/graph"
)

// Layout is the directory-shaped view of a snapshot the detectors work on.
// Directory names are lowercased path segments of module identities, so the
// same detector works across language-specific separators.
type Layout struct {
	Graph      *graph.Graph
	dirModules map[string][]string
}

func NewLayout(analysis *graph.Analysis) *Layout {
	layout := &Layout{
		Graph:      analysis.Graph,
		dirModules: make(map[string][]string),
	}

	for _, name := range analysis.Graph.InternalModuleNames() {
		seen := make(map[string]bool)
		for _, segment := range moduleSegments(name) {
			if seen[segment] {
				continue
			}
			seen[segment] = true
			layout.dirModules[segment] = append(layout.dirModules[segment], name)
		}
	}
	for dir := range layout.dirModules {
		sort.Strings(layout.dirModules[dir])
	}
	return layout
}

func moduleSegments(module string) []string {
	normalized := strings.NewReplacer("::", "/", ".", "/", "\\", "/").Replace(module)
	parts := strings.Split(strings.ToLower(normalized), "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FindDir returns the first of the candidate names present in the layout.
func (l *Layout) FindDir(names ...string) (string, bool) {
	for _, name := range names {
		if len(l.dirModules[name]) > 0 {
			return name, true
		}
	}
	return "", false
}

// ModulesIn returns the modules under any of the named directories.
func (l *Layout) ModulesIn(names ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		for _, mod := range l.dirModules[name] {
			if !seen[mod] {
				seen[mod] = true
				out = append(out, mod)
			}
		}
	}
	sort.Strings(out)
	return out
}

// EdgesBetween returns internal edges whose source lies under any fromDirs
// directory and whose target lies under any toDirs directory.
func (l *Layout) EdgesBetween(fromDirs, toDirs []string) []graph.Edge {
	from := make(map[string]bool)
	for _, mod := range l.ModulesIn(fromDirs...) {
		from[mod] = true
	}
	to := make(map[string]bool)
	for _, mod := range l.ModulesIn(toDirs...) {
		to[mod] = true
	}

	var out []graph.Edge
	for _, edge := range l.Graph.Edges {
		if !edge.External && from[edge.From] && to[edge.To] {
			out = append(out, edge)
		}
	}
	return out
}

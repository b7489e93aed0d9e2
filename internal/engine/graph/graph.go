package graph

import (
	"sort"

	"archlens/internal/engine/parser"
	"archlens/internal/engine/scanner"
	"archlens/internal/shared/observability"
	"archlens/internal/shared/util"
)

// Graph is an immutable module dependency graph built from one scan pass.
// Modules and Edges are sorted by name so every derived artifact is
// reproducible.
type Graph struct {
	Modules map[string]*Module
	Edges   []Edge

	edgesFrom map[string][]string // module -> sorted internal targets
	edgesTo   map[string][]string // module -> sorted internal importers
}

type Module struct {
	Name          string
	Language      string
	Files         []string
	LOC           int
	MaxComplexity int
	Definitions   []parser.Definition
	External      bool
}

// Edge is one deduplicated module dependency. File and Line record where the
// import was first seen.
type Edge struct {
	From     string
	To       string
	File     string
	Line     int
	External bool
}

type Options struct {
	// TrackExternal keeps edges to modules outside the scanned tree as
	// external placeholder nodes.
	TrackExternal bool
}

// Build folds parsed files into modules, deduplicates import edges and drops
// self imports. Edges to unknown targets are discarded unless TrackExternal
// is set.
func Build(result *scanner.Result, opts Options) *Graph {
	g := &Graph{
		Modules:   make(map[string]*Module),
		edgesFrom: make(map[string][]string),
		edgesTo:   make(map[string][]string),
	}

	for _, file := range result.Files {
		mod, ok := g.Modules[file.Module]
		if !ok {
			mod = &Module{Name: file.Module, Language: file.Language}
			g.Modules[file.Module] = mod
		}
		mod.Files = append(mod.Files, file.Path)
		mod.LOC += file.LOC
		for _, def := range file.Definitions {
			mod.Definitions = append(mod.Definitions, def)
			if def.ComplexityScore > mod.MaxComplexity {
				mod.MaxComplexity = def.ComplexityScore
			}
		}
	}

	seen := make(map[[2]string]bool)
	for _, file := range result.Files {
		for _, imp := range file.Imports {
			if imp.Module == "" || imp.Module == file.Module {
				continue
			}
			_, internal := g.Modules[imp.Module]
			if !internal && !opts.TrackExternal {
				continue
			}

			key := [2]string{file.Module, imp.Module}
			if seen[key] {
				continue
			}
			seen[key] = true

			if !internal {
				g.Modules[imp.Module] = &Module{Name: imp.Module, External: true}
			}
			g.Edges = append(g.Edges, Edge{
				From:     file.Module,
				To:       imp.Module,
				File:     file.Path,
				Line:     imp.Location.Line,
				External: !internal,
			})
		}
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})

	for _, mod := range g.Modules {
		sort.Strings(mod.Files)
	}

	for _, edge := range g.Edges {
		if edge.External {
			continue
		}
		g.edgesFrom[edge.From] = append(g.edgesFrom[edge.From], edge.To)
		g.edgesTo[edge.To] = append(g.edgesTo[edge.To], edge.From)
	}
	for _, adj := range []map[string][]string{g.edgesFrom, g.edgesTo} {
		for name := range adj {
			sort.Strings(adj[name])
		}
	}

	observability.GraphModules.Set(float64(len(g.Modules)))
	observability.GraphEdges.Set(float64(len(g.Edges)))

	return g
}

// ModuleNames returns all module names in sorted order.
func (g *Graph) ModuleNames() []string {
	return util.SortedStringKeys(g.Modules)
}

// InternalModuleNames excludes external placeholder nodes.
func (g *Graph) InternalModuleNames() []string {
	names := make([]string, 0, len(g.Modules))
	for name, mod := range g.Modules {
		if !mod.External {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DependenciesOf returns the internal modules name imports.
func (g *Graph) DependenciesOf(name string) []string {
	return g.edgesFrom[name]
}

// DependentsOf returns the internal modules that import name.
func (g *Graph) DependentsOf(name string) []string {
	return g.edgesTo[name]
}

// EdgeBetween returns the recorded edge from one module to another.
func (g *Graph) EdgeBetween(from, to string) (Edge, bool) {
	for _, edge := range g.Edges {
		if edge.From == from && edge.To == to {
			return edge, true
		}
	}
	return Edge{}, false
}

// ImportChain finds the shortest dependency path between two internal
// modules using BFS over sorted neighbors.
func (g *Graph) ImportChain(from, to string) ([]string, bool) {
	if _, ok := g.Modules[from]; !ok {
		return nil, false
	}
	if _, ok := g.Modules[to]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range g.edgesFrom[curr] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; node = prev[node] {
					path = append(path, prev[node])
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

package graph

import (
	"sort"
	"strings"
)

type StabilityBand string

const (
	BandStable       StabilityBand = "stable"
	BandBalanced     StabilityBand = "balanced"
	BandUnstable     StabilityBand = "unstable"
	BandVeryUnstable StabilityBand = "very unstable"
)

// ModuleMetrics holds the per-module structural measures derived from the
// edge set.
type ModuleMetrics struct {
	FanIn       int
	FanOut      int
	Instability float64
	Band        StabilityBand
	Depth       int
	Importance  float64
}

// ComputeMetrics calculates coupling and depth for every internal module.
// Instability I = Ce / (Ca + Ce); isolated modules get 0. Depth is the
// longest dependency chain below the module, computed on the strongly
// connected component condensation so cycles cannot make it diverge.
func (g *Graph) ComputeMetrics() map[string]ModuleMetrics {
	names := g.InternalModuleNames()
	componentOf, components := stronglyConnectedComponents(names, g.edgesFrom)

	componentEdges := make(map[int]map[int]bool, len(components))
	for _, from := range names {
		fromComp := componentOf[from]
		for _, to := range g.edgesFrom[from] {
			toComp := componentOf[to]
			if fromComp == toComp {
				continue
			}
			if componentEdges[fromComp] == nil {
				componentEdges[fromComp] = make(map[int]bool)
			}
			componentEdges[fromComp][toComp] = true
		}
	}

	depthByComp := make(map[int]int, len(components))
	var computeDepth func(int) int
	computeDepth = func(comp int) int {
		if depth, ok := depthByComp[comp]; ok {
			return depth
		}
		maxDepth := 0
		for next := range componentEdges[comp] {
			if candidate := 1 + computeDepth(next); candidate > maxDepth {
				maxDepth = candidate
			}
		}
		depthByComp[comp] = maxDepth
		return maxDepth
	}
	for comp := range components {
		computeDepth(comp)
	}

	metrics := make(map[string]ModuleMetrics, len(names))
	for _, name := range names {
		ca := len(g.edgesTo[name])
		ce := len(g.edgesFrom[name])

		instability := 0.0
		if ca+ce > 0 {
			instability = float64(ce) / float64(ca+ce)
		}

		metrics[name] = ModuleMetrics{
			FanIn:       ca,
			FanOut:      ce,
			Instability: instability,
			Band:        ClassifyInstability(instability),
			Depth:       depthByComp[componentOf[name]],
			Importance:  ImportanceScore(ca, ce, g.Modules[name].MaxComplexity, name),
		}
	}
	return metrics
}

func ClassifyInstability(i float64) StabilityBand {
	switch {
	case i <= 0.2:
		return BandStable
	case i <= 0.5:
		return BandBalanced
	case i <= 0.8:
		return BandUnstable
	default:
		return BandVeryUnstable
	}
}

// ImportanceScore ranks a module's architectural weight:
//
//	Score = (FanIn * 2) + FanOut + (Complexity * 0.5) + (IsAPI ? 10 : 0)
func ImportanceScore(fanIn, fanOut, maxComplexity int, moduleName string) float64 {
	score := float64(fanIn*2) + float64(fanOut) + float64(maxComplexity)*0.5
	if isAPIModule(moduleName) {
		score += 10
	}
	return score
}

func isAPIModule(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range []string{"api", "gateway", "handler", "server", "service"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Roots returns internal modules no internal module imports.
func (g *Graph) Roots() []string {
	var roots []string
	for _, name := range g.InternalModuleNames() {
		if len(g.edgesTo[name]) == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}

// Leaves returns internal modules that import no internal module.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, name := range g.InternalModuleNames() {
		if len(g.edgesFrom[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	return leaves
}

// Hotspots returns internal modules ordered by descending importance, name
// as the tie-break.
func (g *Graph) Hotspots(metrics map[string]ModuleMetrics, limit int) []string {
	names := g.InternalModuleNames()
	sort.Slice(names, func(i, j int) bool {
		a, b := metrics[names[i]].Importance, metrics[names[j]].Importance
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names
}

func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) (map[string]int, [][]string) {
	index := 0
	stack := make([]string, 0, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	indexByNode := make(map[string]int, len(nodes))
	lowLink := make(map[string]int, len(nodes))
	componentOf := make(map[string]int, len(nodes))
	components := make([][]string, 0)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indexByNode[v] = index
		lowLink[v] = index
		index++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indexByNode[w]; !seen {
				strongConnect(w)
				if lowLink[w] < lowLink[v] {
					lowLink[v] = lowLink[w]
				}
			} else if onStack[w] && indexByNode[w] < lowLink[v] {
				lowLink[v] = indexByNode[w]
			}
		}

		if lowLink[v] != indexByNode[v] {
			return
		}

		component := make([]string, 0)
		for {
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[last] = false
			component = append(component, last)
			if last == v {
				break
			}
		}
		sort.Strings(component)
		compID := len(components)
		components = append(components, component)
		for _, n := range component {
			componentOf[n] = compID
		}
	}

	for _, node := range nodes {
		if _, seen := indexByNode[node]; !seen {
			strongConnect(node)
		}
	}

	return componentOf, components
}

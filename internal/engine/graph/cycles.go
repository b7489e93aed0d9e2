package graph

import (
	"sort"
	"strings"
)

type CycleSeverity string

const (
	SeverityHigh   CycleSeverity = "high"
	SeverityMedium CycleSeverity = "medium"
	SeverityLow    CycleSeverity = "low"
)

// Cycle is one circular dependency. Modules holds the cycle path rotated so
// the lexicographically smallest module comes first; the edge from the last
// module back to the first closes the loop.
type Cycle struct {
	Modules    []string
	Severity   CycleSeverity
	Suggestion string
}

// SeverityThresholds maps cycle length to severity. Short cycles are the
// tightest coupling and rank highest.
type SeverityThresholds struct {
	HighMax   int
	MediumMax int
}

func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{HighMax: 2, MediumMax: 4}
}

func (t SeverityThresholds) Classify(length int) CycleSeverity {
	switch {
	case length <= t.HighMax:
		return SeverityHigh
	case length <= t.MediumMax:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// DetectCycles finds circular dependencies via DFS back edges. The same loop
// reached from different start nodes is reported once: each cycle is rotated
// to its canonical form and deduplicated.
func (g *Graph) DetectCycles(thresholds SeverityThresholds) []Cycle {
	var raw [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, name := range g.InternalModuleNames() {
		if !visited[name] {
			g.findCycles(name, visited, onStack, nil, &raw)
		}
	}

	seen := make(map[string]bool)
	cycles := make([]Cycle, 0, len(raw))
	for _, path := range raw {
		canonical := rotateToSmallest(path)
		key := strings.Join(canonical, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true

		cycles = append(cycles, Cycle{
			Modules:    canonical,
			Severity:   thresholds.Classify(len(canonical)),
			Suggestion: g.breakSuggestion(canonical),
		})
	}

	sort.Slice(cycles, func(i, j int) bool {
		if len(cycles[i].Modules) != len(cycles[j].Modules) {
			return len(cycles[i].Modules) < len(cycles[j].Modules)
		}
		return strings.Join(cycles[i].Modules, ",") < strings.Join(cycles[j].Modules, ",")
	})
	return cycles
}

func (g *Graph) findCycles(curr string, visited, onStack map[string]bool, path []string, out *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range g.edgesFrom[curr] {
		if onStack[next] {
			start := -1
			for i, mod := range path {
				if mod == next {
					start = i
					break
				}
			}
			if start != -1 {
				cycle := make([]string, len(path)-start)
				copy(cycle, path[start:])
				*out = append(*out, cycle)
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, out)
		}
	}

	onStack[curr] = false
}

func rotateToSmallest(path []string) []string {
	smallest := 0
	for i, mod := range path {
		if mod < path[smallest] {
			smallest = i
		}
	}
	rotated := make([]string, 0, len(path))
	rotated = append(rotated, path[smallest:]...)
	rotated = append(rotated, path[:smallest]...)
	return rotated
}

// breakSuggestion names the cycle edge whose inversion is least disruptive:
// the one pointing into the most widely imported module, where extracting an
// interface removes the back dependency.
func (g *Graph) breakSuggestion(cycle []string) string {
	bestFrom, bestTo := cycle[len(cycle)-1], cycle[0]
	bestFanIn := len(g.edgesTo[bestTo])

	for i := 0; i < len(cycle)-1; i++ {
		from, to := cycle[i], cycle[i+1]
		fanIn := len(g.edgesTo[to])
		if fanIn > bestFanIn || (fanIn == bestFanIn && from < bestFrom) {
			bestFrom, bestTo, bestFanIn = from, to, fanIn
		}
	}

	return "invert the dependency from " + bestFrom + " to " + bestTo + ", for example by extracting an interface"
}

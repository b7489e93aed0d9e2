package graph

import (
	"testing"
	"time"

	"archlens/internal/engine/parser"
	"archlens/internal/engine/scanner"
)

// fakeResult builds a scan result where each module is a single file
// importing the listed targets.
func fakeResult(modules map[string][]string) *scanner.Result {
	result := &scanner.Result{
		Root:        "/proj",
		Fingerprint: "test",
		ScannedAt:   time.Now(),
	}
	for name, targets := range modules {
		file := &parser.File{
			Path:     "/proj/" + name + ".py",
			Language: "python",
			Module:   name,
			LOC:      10,
		}
		for _, target := range targets {
			file.Imports = append(file.Imports, parser.Import{
				Module:   target,
				Location: parser.Location{File: file.Path, Line: 1},
			})
		}
		result.Files = append(result.Files, file)
	}
	return result
}

func TestBuildDropsExternalAndDuplicates(t *testing.T) {
	result := fakeResult(map[string][]string{
		"a": {"b", "b", "requests", "a"},
		"b": nil,
	})

	g := Build(result, Options{})
	if len(g.Modules) != 2 {
		t.Fatalf("modules = %d, want 2", len(g.Modules))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %+v, want one a->b", g.Edges)
	}
	if g.Edges[0].From != "a" || g.Edges[0].To != "b" {
		t.Errorf("edge = %+v", g.Edges[0])
	}
}

func TestBuildTracksExternal(t *testing.T) {
	result := fakeResult(map[string][]string{
		"a": {"requests"},
	})

	g := Build(result, Options{TrackExternal: true})
	ext, ok := g.Modules["requests"]
	if !ok || !ext.External {
		t.Fatalf("requests = %+v, want external module node", ext)
	}
	if len(g.Edges) != 1 || !g.Edges[0].External {
		t.Errorf("edges = %+v, want one external edge", g.Edges)
	}

	// External edges carry no coupling weight.
	metrics := g.ComputeMetrics()
	if metrics["a"].FanOut != 0 {
		t.Errorf("fan-out = %d, want 0 for external-only imports", metrics["a"].FanOut)
	}
}

func TestDetectCyclesSeverityAndDedup(t *testing.T) {
	result := fakeResult(map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"x": {"y"},
		"y": {"z"},
		"z": {"x"},
	})

	g := Build(result, Options{})
	cycles := g.DetectCycles(DefaultSeverityThresholds())
	if len(cycles) != 2 {
		t.Fatalf("cycles = %+v, want 2", cycles)
	}

	pair := cycles[0]
	if len(pair.Modules) != 2 || pair.Modules[0] != "a" || pair.Severity != SeverityHigh {
		t.Errorf("two-cycle = %+v, want canonical [a b] high", pair)
	}
	triple := cycles[1]
	if len(triple.Modules) != 3 || triple.Modules[0] != "x" || triple.Severity != SeverityMedium {
		t.Errorf("three-cycle = %+v, want canonical [x y z] medium", triple)
	}
	if triple.Suggestion == "" {
		t.Error("cycle should carry a break suggestion")
	}
}

func TestDetectCyclesLongIsLow(t *testing.T) {
	result := fakeResult(map[string][]string{
		"a": {"b"}, "b": {"c"}, "c": {"d"}, "d": {"e"}, "e": {"a"},
	})

	g := Build(result, Options{})
	cycles := g.DetectCycles(DefaultSeverityThresholds())
	if len(cycles) != 1 || cycles[0].Severity != SeverityLow {
		t.Fatalf("cycles = %+v, want one low", cycles)
	}
}

func TestComputeMetricsInstability(t *testing.T) {
	result := fakeResult(map[string][]string{
		"core":     nil,
		"api":      {"core", "store"},
		"store":    {"core"},
		"isolated": nil,
	})

	g := Build(result, Options{})
	metrics := g.ComputeMetrics()

	core := metrics["core"]
	if core.FanIn != 2 || core.FanOut != 0 || core.Instability != 0 || core.Band != BandStable {
		t.Errorf("core = %+v, want fully stable", core)
	}

	api := metrics["api"]
	if api.FanIn != 0 || api.FanOut != 2 || api.Instability != 1 || api.Band != BandVeryUnstable {
		t.Errorf("api = %+v, want fully unstable", api)
	}
	if api.Depth != 2 {
		t.Errorf("api depth = %d, want 2 (api -> store -> core)", api.Depth)
	}

	store := metrics["store"]
	if store.Instability != 0.5 || store.Band != BandBalanced {
		t.Errorf("store = %+v, want balanced 0.5", store)
	}

	isolated := metrics["isolated"]
	if isolated.Instability != 0 || isolated.Depth != 0 {
		t.Errorf("isolated = %+v, want zeroes", isolated)
	}
}

func TestRootsAndLeaves(t *testing.T) {
	result := fakeResult(map[string][]string{
		"api":      {"core"},
		"core":     nil,
		"isolated": nil,
	})

	g := Build(result, Options{})
	roots := g.Roots()
	leaves := g.Leaves()

	if len(roots) != 2 || roots[0] != "api" || roots[1] != "isolated" {
		t.Errorf("roots = %v, want [api isolated]", roots)
	}
	if len(leaves) != 2 || leaves[0] != "core" || leaves[1] != "isolated" {
		t.Errorf("leaves = %v, want [core isolated]", leaves)
	}
}

func TestDepthWithCycleDoesNotDiverge(t *testing.T) {
	result := fakeResult(map[string][]string{
		"a": {"b"},
		"b": {"a", "c"},
		"c": nil,
	})

	g := Build(result, Options{})
	metrics := g.ComputeMetrics()
	if metrics["a"].Depth != 1 || metrics["b"].Depth != 1 {
		t.Errorf("cycle depths = %d/%d, want 1/1", metrics["a"].Depth, metrics["b"].Depth)
	}
	if metrics["c"].Depth != 0 {
		t.Errorf("c depth = %d, want 0", metrics["c"].Depth)
	}
}

func TestImportChain(t *testing.T) {
	result := fakeResult(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
		"d": nil,
	})

	g := Build(result, Options{})
	chain, ok := g.ImportChain("a", "c")
	if !ok || len(chain) != 3 || chain[0] != "a" || chain[2] != "c" {
		t.Errorf("chain = %v, want [a b c]", chain)
	}
	if _, ok := g.ImportChain("a", "d"); ok {
		t.Error("a should not reach d")
	}
	if _, ok := g.ImportChain("a", "missing"); ok {
		t.Error("unknown module should not resolve")
	}
}

func TestImportanceScoreAPIBoost(t *testing.T) {
	plain := ImportanceScore(2, 1, 4, "core/model")
	if plain != 7 {
		t.Errorf("plain importance = %v, want 7", plain)
	}
	boosted := ImportanceScore(2, 1, 4, "core/api")
	if boosted != 17 {
		t.Errorf("api importance = %v, want 17", boosted)
	}
}

func TestBuildAnalysisSnapshot(t *testing.T) {
	result := fakeResult(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})

	analysis := BuildAnalysis(result, Options{}, DefaultSeverityThresholds())
	if analysis.ID == "" {
		t.Error("analysis should carry an id")
	}
	if analysis.ModuleCount != 2 || analysis.EdgeCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", analysis.ModuleCount, analysis.EdgeCount)
	}
	if len(analysis.Cycles) != 1 {
		t.Errorf("cycles = %+v, want 1", analysis.Cycles)
	}
	if analysis.MaxDepth != 0 {
		t.Errorf("max depth = %d, want 0 (single component)", analysis.MaxDepth)
	}
	if analysis.Fingerprint != "test" {
		t.Errorf("fingerprint = %q", analysis.Fingerprint)
	}
}

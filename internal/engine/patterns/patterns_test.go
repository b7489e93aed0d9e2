package patterns

import (
	"context"
	"strings"
	"testing"
	"time"

	"archlens/internal/engine/graph"
	"archlens/internal/engine/parser"
	"archlens/internal/engine/scanner"
)

func fakeSnapshot(t *testing.T, modules map[string][]string) *graph.Analysis {
	t.Helper()
	result := &scanner.Result{
		Root:        "/proj",
		Fingerprint: "test",
		ScannedAt:   time.Now(),
	}
	for name, imports := range modules {
		file := &parser.File{
			Path:     "/proj/" + name + ".py",
			Language: "python",
			Module:   name,
			LOC:      10,
		}
		for _, imp := range imports {
			file.Imports = append(file.Imports, parser.Import{Module: imp})
		}
		result.Files = append(result.Files, file)
	}
	return graph.BuildAnalysis(result, graph.Options{}, graph.DefaultSeverityThresholds())
}

func matchFor(t *testing.T, analysis *Analysis, id PatternID) Match {
	t.Helper()
	for _, m := range analysis.Matches {
		if m.Pattern == id {
			return m
		}
	}
	t.Fatalf("no match for %s", id)
	return Match{}
}

func TestDetectHexagonalLayout(t *testing.T) {
	snapshot := fakeSnapshot(t, map[string][]string{
		"domain/billing":  nil,
		"ports/store":     nil,
		"adapters/sqlite": {"ports/store"},
		"app/service":     {"domain/billing", "ports/store"},
	})

	engine := NewEngine(DefaultThreshold)
	analysis := engine.Detect(context.Background(), snapshot)

	if len(analysis.Matches) != 5 {
		t.Fatalf("matches = %d, want one per detector", len(analysis.Matches))
	}
	if analysis.Primary == nil || analysis.Primary.Pattern != PatternHexagonal {
		t.Fatalf("primary = %+v, want hexagonal", analysis.Primary)
	}
	if analysis.Primary.Band != BandHigh {
		t.Errorf("band = %s, want High at confidence %v", analysis.Primary.Band, analysis.Primary.Confidence)
	}
	if len(analysis.Primary.Violations) != 0 {
		t.Errorf("violations = %v, want none", analysis.Primary.Violations)
	}
}

func TestDetectHexagonalViolationLowersConfidence(t *testing.T) {
	clean := fakeSnapshot(t, map[string][]string{
		"domain/billing":  nil,
		"ports/store":     nil,
		"adapters/sqlite": {"ports/store"},
	})
	dirty := fakeSnapshot(t, map[string][]string{
		"domain/billing":  {"adapters/sqlite"},
		"ports/store":     nil,
		"adapters/sqlite": {"ports/store"},
	})

	engine := NewEngine(DefaultThreshold)
	cleanMatch := matchFor(t, engine.Detect(context.Background(), clean), PatternHexagonal)
	dirtyMatch := matchFor(t, engine.Detect(context.Background(), dirty), PatternHexagonal)

	if dirtyMatch.Confidence >= cleanMatch.Confidence {
		t.Errorf("violation should lower confidence: clean %v, dirty %v", cleanMatch.Confidence, dirtyMatch.Confidence)
	}
	if len(dirtyMatch.Violations) != 1 || !strings.Contains(dirtyMatch.Violations[0], "domain/billing") {
		t.Errorf("violations = %v", dirtyMatch.Violations)
	}
}

func TestDetectMVC(t *testing.T) {
	snapshot := fakeSnapshot(t, map[string][]string{
		"models/user":      nil,
		"views/user":       {"models/user"},
		"controllers/user": {"models/user", "views/user"},
	})

	engine := NewEngine(DefaultThreshold)
	match := matchFor(t, engine.Detect(context.Background(), snapshot), PatternMVC)
	if match.Band != BandHigh {
		t.Errorf("mvc = %+v, want High band", match)
	}
}

func TestPriorityBreaksConfidenceTies(t *testing.T) {
	fixed := func(id PatternID, confidence float64) Detector {
		return Detector{
			ID: id,
			Detect: func(context.Context, *Layout) (Match, error) {
				return Match{Pattern: id, Confidence: confidence}, nil
			},
		}
	}
	detectors := []Detector{
		{ID: PatternHexagonal, Priority: 1, Detect: fixed(PatternHexagonal, 0.75).Detect},
		{ID: PatternDDD, Priority: 2, Detect: fixed(PatternDDD, 0.75).Detect},
		{ID: PatternLayered, Priority: 3, Detect: fixed(PatternLayered, 0.40).Detect},
	}

	engine := NewEngineWithDetectors(DefaultThreshold, detectors)
	analysis := engine.Detect(context.Background(), fakeSnapshot(t, map[string][]string{"a": nil}))

	if analysis.Primary == nil || analysis.Primary.Pattern != PatternHexagonal {
		t.Fatalf("primary = %+v, want hexagonal on tie", analysis.Primary)
	}
	if analysis.Matches[1].Pattern != PatternDDD {
		t.Errorf("order = %v, want ddd second", analysis.Matches)
	}
}

func TestConfidenceBands(t *testing.T) {
	cases := []struct {
		confidence float64
		want       ConfidenceBand
	}{
		{0.75, BandHigh},
		{0.70, BandHigh},
		{0.55, BandMedium},
		{0.50, BandMedium},
		{0.30, BandLow},
	}
	for _, tc := range cases {
		if got := ClassifyConfidence(tc.confidence); got != tc.want {
			t.Errorf("ClassifyConfidence(%v) = %s, want %s", tc.confidence, got, tc.want)
		}
	}
}

func TestDetectorPanicIsContained(t *testing.T) {
	detectors := []Detector{
		{ID: PatternHexagonal, Priority: 1, Detect: func(context.Context, *Layout) (Match, error) {
			panic("boom")
		}},
		{ID: PatternMVC, Priority: 5, Detect: func(context.Context, *Layout) (Match, error) {
			return Match{Pattern: PatternMVC, Confidence: 0.9}, nil
		}},
	}

	engine := NewEngineWithDetectors(DefaultThreshold, detectors)
	analysis := engine.Detect(context.Background(), fakeSnapshot(t, map[string][]string{"a": nil}))

	if len(analysis.Matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(analysis.Matches))
	}
	failed := matchFor(t, analysis, PatternHexagonal)
	if failed.Confidence != 0 || len(failed.Notes) != 1 {
		t.Errorf("failed match = %+v, want zero confidence with note", failed)
	}
	if analysis.Primary == nil || analysis.Primary.Pattern != PatternMVC {
		t.Errorf("primary = %+v, want mvc", analysis.Primary)
	}
}

func TestRecommendationsNoClearPattern(t *testing.T) {
	engine := NewEngine(DefaultThreshold)
	analysis := engine.Detect(context.Background(), fakeSnapshot(t, map[string][]string{
		"stuff/a": nil,
		"misc/b":  nil,
	}))

	if analysis.Primary != nil {
		t.Errorf("primary = %+v, want none", analysis.Primary)
	}
	if len(analysis.Recommendations) == 0 || !strings.Contains(analysis.Recommendations[0], "no architecture pattern") {
		t.Errorf("recommendations = %v, want adopt-a-pattern advice first", analysis.Recommendations)
	}
}

func TestRecommendationsConsolidation(t *testing.T) {
	fixed := func(id PatternID, priority int) Detector {
		return Detector{ID: id, Priority: priority, Detect: func(context.Context, *Layout) (Match, error) {
			return Match{Pattern: id, Confidence: 0.8}, nil
		}}
	}
	engine := NewEngineWithDetectors(DefaultThreshold, []Detector{
		fixed(PatternHexagonal, 1),
		fixed(PatternDDD, 2),
		fixed(PatternLayered, 3),
	})

	analysis := engine.Detect(context.Background(), fakeSnapshot(t, map[string][]string{"a": nil}))
	found := false
	for _, rec := range analysis.Recommendations {
		if strings.Contains(rec, "consolidate") {
			found = true
		}
	}
	if !found {
		t.Errorf("recommendations = %v, want consolidation advice", analysis.Recommendations)
	}
}

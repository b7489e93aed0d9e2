package report

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"archlens/internal/core/ports"
	"archlens/internal/engine/fitness"
	"archlens/internal/engine/graph"
	"archlens/internal/engine/parser"
	"archlens/internal/engine/patterns"
	"archlens/internal/engine/scanner"
)

func fakeReport(t *testing.T) *ports.Report {
	t.Helper()
	result := &scanner.Result{
		Root:        "/proj",
		Fingerprint: "test",
		ScannedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Files: []*parser.File{
			{Path: "/proj/a.py", Language: "python", Module: "a", LOC: 10, ModuleDoc: true,
				Imports: []parser.Import{{Module: "b", Location: parser.Location{File: "/proj/a.py", Line: 1}}}},
			{Path: "/proj/b.py", Language: "python", Module: "b", LOC: 10, ModuleDoc: true,
				Imports: []parser.Import{{Module: "a", Location: parser.Location{File: "/proj/b.py", Line: 1}}}},
		},
	}
	analysis := graph.BuildAnalysis(result, graph.Options{}, graph.DefaultSeverityThresholds())

	policies := fitness.DefaultPolicies()
	fitnessResult := fitness.NewEngine("balanced").Run(context.Background(), analysis, policies)
	patternsResult := patterns.NewEngine(patterns.DefaultThreshold).Detect(context.Background(), analysis)

	return &ports.Report{
		Analysis: analysis,
		Fitness:  fitnessResult,
		Policies: policies,
		Patterns: patternsResult,
	}
}

func TestRenderDOT(t *testing.T) {
	rep := fakeReport(t)
	dot := RenderDOT(rep.Analysis, DOTOptions{})

	for _, want := range []string{
		"digraph dependencies {",
		"rankdir=LR;",
		"label=\"CYCLE\"",
		"cluster_legend",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot output missing %q", want)
		}
	}
	if strings.Contains(dot, "Ca=") {
		t.Error("annotation should be off by default")
	}

	annotated := RenderDOT(rep.Analysis, DOTOptions{Annotate: true})
	if !strings.Contains(annotated, "Ca=1 Ce=1 I=0.50") {
		t.Errorf("annotated output missing coupling label:\n%s", annotated)
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	rep := fakeReport(t)
	doc := BuildDocument("demo", rep)

	body, err := RenderJSON(doc)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Document
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Project != "demo" {
		t.Errorf("project = %q", decoded.Project)
	}
	if len(decoded.Graph.Modules) != 2 || len(decoded.Graph.Cycles) != 1 {
		t.Errorf("graph doc = %+v", decoded.Graph)
	}
	if decoded.Fitness == nil || decoded.Fitness.Passing {
		t.Errorf("fitness doc = %+v, want failing", decoded.Fitness)
	}
	if decoded.Patterns == nil || len(decoded.Patterns.Matches) != 5 {
		t.Errorf("patterns doc = %+v", decoded.Patterns)
	}
}

func TestRenderYAML(t *testing.T) {
	rep := fakeReport(t)
	body, err := RenderYAML(BuildDocument("demo", rep))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "project: demo") {
		t.Errorf("yaml missing project:\n%s", body)
	}
}

func TestRenderSARIF(t *testing.T) {
	rep := fakeReport(t)
	body, err := RenderSARIF(rep)
	if err != nil {
		t.Fatal(err)
	}

	var log sarifLog
	if err := json.Unmarshal(body, &log); err != nil {
		t.Fatal(err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}

	run := log.Runs[0]
	if run.Tool.Driver.Name != "archlens" {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Tool.Driver.Rules) == 0 {
		t.Error("rules missing")
	}

	foundCycle := false
	for _, result := range run.Results {
		if result.RuleID == "NO_CYCLES" && result.Level == "error" {
			foundCycle = true
			if len(result.Locations) != 1 || result.Locations[0].PhysicalLocation.ArtifactLocation.URI != "a.py" {
				t.Errorf("cycle location = %+v, want relative a.py", result.Locations)
			}
		}
	}
	if !foundCycle {
		t.Errorf("results = %+v, want NO_CYCLES error", run.Results)
	}
}

func TestRenderSARIFRequiresFitness(t *testing.T) {
	rep := fakeReport(t)
	rep.Fitness = nil
	if _, err := RenderSARIF(rep); err == nil {
		t.Fatal("expected error without a fitness run")
	}
}

func TestRenderMarkdownSections(t *testing.T) {
	rep := fakeReport(t)
	md := RenderMarkdown("demo", rep)

	for _, want := range []string{
		"# Architecture Report: demo",
		"## Dependency Graph",
		"### Cycles",
		"## Fitness",
		"## Architecture Patterns",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	rep := fakeReport(t)
	summary := RenderSummary("demo", rep)

	if !strings.Contains(summary, "cycles: 1") {
		t.Errorf("summary missing cycle count:\n%s", summary)
	}
	if !strings.Contains(summary, "FAIL") {
		t.Errorf("summary should flag failing fitness:\n%s", summary)
	}
}

func TestRenderTrendDeltas(t *testing.T) {
	score := 0.8
	entries := []ports.HistoryEntry{
		{Analysis: ports.AnalysisSummary{ID: "new", CreatedAt: time.Now(), Modules: 12, Edges: 20, Cycles: 1},
			Fitness: &ports.FitnessSummary{Score: score}},
		{Analysis: ports.AnalysisSummary{ID: "old", CreatedAt: time.Now().Add(-time.Hour), Modules: 10, Edges: 20, Cycles: 2}},
	}

	table := RenderTrend(entries)
	if !strings.Contains(table, "12 (+2)") {
		t.Errorf("trend missing module delta:\n%s", table)
	}
	if !strings.Contains(table, "1 (-1)") {
		t.Errorf("trend missing cycle delta:\n%s", table)
	}
	if !strings.Contains(table, "80%") {
		t.Errorf("trend missing score:\n%s", table)
	}
}

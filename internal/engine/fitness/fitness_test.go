package fitness

import (
	"context"
	"strings"
	"testing"
	"time"

	"archlens/internal/core/config"
	"archlens/internal/engine/graph"
	"archlens/internal/engine/parser"
	"archlens/internal/engine/scanner"
)

func fakeAnalysis(t *testing.T, files []*parser.File) *graph.Analysis {
	t.Helper()
	result := &scanner.Result{
		Root:        "/proj",
		Files:       files,
		Fingerprint: "test",
		ScannedAt:   time.Now(),
	}
	return graph.BuildAnalysis(result, graph.Options{}, graph.DefaultSeverityThresholds())
}

func moduleFile(name string, imports ...string) *parser.File {
	file := &parser.File{
		Path:      "/proj/" + name + ".py",
		Language:  "python",
		Module:    name,
		ModuleDoc: true,
		LOC:       20,
	}
	for _, imp := range imports {
		file.Imports = append(file.Imports, parser.Import{Module: imp, Location: parser.Location{File: file.Path, Line: 1}})
	}
	return file
}

func findPolicy(t *testing.T, policies []Policy, id string) Policy {
	t.Helper()
	for _, p := range policies {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("policy %s not found", id)
	return Policy{}
}

func TestRunCleanProjectPasses(t *testing.T) {
	analysis := fakeAnalysis(t, []*parser.File{
		moduleFile("api", "core"),
		moduleFile("core"),
	})

	// Documentation checks need definitions with docs.
	engine := NewEngine("balanced")
	policies, err := BuildPolicies(config.Fitness{Preset: "balanced"})
	if err != nil {
		t.Fatal(err)
	}

	result := engine.Run(context.Background(), analysis, policies)
	if !result.IsPassing() {
		t.Errorf("clean project should pass: %+v", result.Violations)
	}
	if result.ComplianceScore != 1.0 {
		t.Errorf("score = %v, want 1.0", result.ComplianceScore)
	}
	if result.PassedCount == 0 {
		t.Error("passed count should reflect evaluated policies")
	}
}

func TestComplianceScoreFormula(t *testing.T) {
	analysis := fakeAnalysis(t, []*parser.File{moduleFile("a")})

	validators := map[ValidatorKind]Validator{
		KindNoCycles: func(_ context.Context, _ *graph.Analysis, p Policy) ([]Violation, error) {
			return []Violation{
				{PolicyID: p.ID, Level: LevelError, Message: "e1"},
				{PolicyID: p.ID, Level: LevelError, Message: "e2"},
			}, nil
		},
		KindMaxDepth: func(_ context.Context, _ *graph.Analysis, p Policy) ([]Violation, error) {
			return []Violation{
				{PolicyID: p.ID, Level: LevelWarning, Message: "w1"},
				{PolicyID: p.ID, Level: LevelWarning, Message: "w2"},
				{PolicyID: p.ID, Level: LevelWarning, Message: "w3"},
			}, nil
		},
	}
	engine := NewEngineWithValidators("balanced", validators)

	policies := []Policy{
		{ID: "NO_CYCLES", Validator: KindNoCycles, Level: LevelError, Enabled: true},
		{ID: "MAX_DEPTH", Validator: KindMaxDepth, Level: LevelWarning, Enabled: true},
	}
	result := engine.Run(context.Background(), analysis, policies)

	if result.ErrorCount != 2 || result.WarningCount != 3 {
		t.Fatalf("counts = %d/%d, want 2/3", result.ErrorCount, result.WarningCount)
	}
	if got := result.ComplianceScore; got < 0.649 || got > 0.651 {
		t.Errorf("score = %v, want 0.65", got)
	}
	if result.IsPassing() {
		t.Error("errors should fail the run")
	}
}

func TestPanickingValidatorIsContained(t *testing.T) {
	analysis := fakeAnalysis(t, []*parser.File{moduleFile("a")})

	ran := false
	validators := map[ValidatorKind]Validator{
		KindNoCycles: func(_ context.Context, _ *graph.Analysis, _ Policy) ([]Violation, error) {
			panic("boom")
		},
		KindMaxDepth: func(_ context.Context, _ *graph.Analysis, _ Policy) ([]Violation, error) {
			ran = true
			return nil, nil
		},
	}
	engine := NewEngineWithValidators("balanced", validators)

	policies := []Policy{
		{ID: "NO_CYCLES", Validator: KindNoCycles, Level: LevelError, Enabled: true},
		{ID: "MAX_DEPTH", Validator: KindMaxDepth, Level: LevelWarning, Enabled: true},
	}
	result := engine.Run(context.Background(), analysis, policies)

	if !ran {
		t.Error("later policies should still run after a panic")
	}
	if result.ErrorCount != 1 {
		t.Fatalf("errors = %d, want exactly one contained failure", result.ErrorCount)
	}
	if result.Violations[0].PolicyID != "NO_CYCLES" {
		t.Errorf("violation = %+v, want located at NO_CYCLES", result.Violations[0])
	}
	if len(result.Notes) != 1 || result.Notes[0].Status != "failed" {
		t.Errorf("notes = %+v, want one failed note", result.Notes)
	}
}

func TestUnknownValidatorKindSkipped(t *testing.T) {
	analysis := fakeAnalysis(t, []*parser.File{moduleFile("a")})
	engine := NewEngineWithValidators("balanced", map[ValidatorKind]Validator{})

	policies := []Policy{{ID: "NO_CYCLES", Validator: KindNoCycles, Level: LevelError, Enabled: true}}
	result := engine.Run(context.Background(), analysis, policies)

	if len(result.Violations) != 0 {
		t.Errorf("violations = %+v, want none", result.Violations)
	}
	if len(result.Notes) != 1 || result.Notes[0].Status != "skipped" {
		t.Errorf("notes = %+v, want one skipped note", result.Notes)
	}
}

func TestNoCyclesValidator(t *testing.T) {
	analysis := fakeAnalysis(t, []*parser.File{
		moduleFile("a", "b"),
		moduleFile("b", "a"),
	})

	policy := findPolicy(t, DefaultPolicies(), "NO_CYCLES")
	violations, err := validateNoCycles(context.Background(), analysis, policy)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %+v, want 1", violations)
	}
	if !strings.Contains(violations[0].Message, "a -> b -> a") {
		t.Errorf("message = %q, want cycle path", violations[0].Message)
	}
}

func TestNoCyclesMinSeverityFilter(t *testing.T) {
	analysis := fakeAnalysis(t, []*parser.File{
		moduleFile("a", "b"),
		moduleFile("b", "c"),
		moduleFile("c", "a"),
	})

	policy := findPolicy(t, DefaultPolicies(), "NO_CYCLES")
	policy.Thresholds.MinSeverity = graph.SeverityHigh

	violations, err := validateNoCycles(context.Background(), analysis, policy)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Errorf("medium cycle should be filtered below high: %+v", violations)
	}
}

func TestLayeringValidator(t *testing.T) {
	analysis := fakeAnalysis(t, []*parser.File{
		moduleFile("core/model", "api/routes"),
		moduleFile("app/service", "core/model"),
		moduleFile("api/routes", "core/model"),
	})

	policy := findPolicy(t, DefaultPolicies(), "LAYERING")
	policy.Thresholds.Layers = []config.Layer{
		{Name: "core", Paths: []string{"core/**"}},
		{Name: "app", Paths: []string{"app/**"}},
		{Name: "api", Paths: []string{"api/**"}},
	}

	violations, err := validateLayering(context.Background(), analysis, policy)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %+v, want only the upward core->api edge", violations)
	}
	if violations[0].Module != "core/model" {
		t.Errorf("violation = %+v", violations[0])
	}

	// api -> core skips the app layer.
	policy.Thresholds.AllowSkip = false
	violations, err = validateLayering(context.Background(), analysis, policy)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 2 {
		t.Errorf("violations = %+v, want upward edge plus skip", violations)
	}
}

func TestMaxCouplingMinDependencies(t *testing.T) {
	analysis := fakeAnalysis(t, []*parser.File{
		moduleFile("hub", "a", "b", "c"),
		moduleFile("two", "a", "b"),
		moduleFile("a"),
		moduleFile("b"),
		moduleFile("c"),
	})

	policy := findPolicy(t, DefaultPolicies(), "MAX_COUPLING")
	violations, err := validateMaxCoupling(context.Background(), analysis, policy)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 1 || violations[0].Module != "hub" {
		t.Errorf("violations = %+v, want only hub (two is below min_dependencies)", violations)
	}
}

func TestDocstringsValidator(t *testing.T) {
	file := moduleFile("svc")
	file.ModuleDoc = false
	file.Definitions = []parser.Definition{
		{Name: "Documented", Kind: parser.KindFunction, Exported: true, HasDoc: true},
		{Name: "Bare", Kind: parser.KindFunction, Exported: true, HasDoc: false},
		{Name: "internal", Kind: parser.KindFunction, Exported: false, HasDoc: false},
	}
	analysis := fakeAnalysis(t, []*parser.File{file})

	policy := findPolicy(t, DefaultPolicies(), "DOCSTRINGS")
	violations, err := validateDocstrings(context.Background(), analysis, policy)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 2 {
		t.Fatalf("violations = %+v, want missing module doc plus Bare", violations)
	}
}

func TestMaintainabilityIndexBounds(t *testing.T) {
	small := &parser.File{LOC: 10}
	if mi := MaintainabilityIndex(small); mi < 70 || mi > 100 {
		t.Errorf("small file MI = %v, want high", mi)
	}

	huge := &parser.File{LOC: 100000}
	huge.Definitions = []parser.Definition{{Kind: parser.KindFunction, BranchCount: 400}}
	if mi := MaintainabilityIndex(huge); mi != 0 {
		t.Errorf("degenerate file MI = %v, want clamped to 0", mi)
	}
}

func TestBuildPoliciesOverrides(t *testing.T) {
	cfg := config.Fitness{
		Preset:     "strict",
		Disable:    []string{"docstrings"},
		Levels:     map[string]string{"max_depth": "info"},
		Thresholds: map[string]float64{"MAX_COMPLEXITY.max": 8},
	}
	policies, err := BuildPolicies(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if findPolicy(t, policies, "DOCSTRINGS").Enabled {
		t.Error("DOCSTRINGS should be disabled")
	}
	if findPolicy(t, policies, "MAX_DEPTH").Level != LevelInfo {
		t.Error("MAX_DEPTH level override not applied")
	}
	if got := findPolicy(t, policies, "MAX_COMPLEXITY").Thresholds.Value("max", 0); got != 8 {
		t.Errorf("MAX_COMPLEXITY.max = %v, want 8", got)
	}
}

func TestBuildPoliciesUnknownPreset(t *testing.T) {
	if _, err := BuildPolicies(config.Fitness{Preset: "paranoid"}); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestBuildPoliciesUnknownPolicyID(t *testing.T) {
	if _, err := BuildPolicies(config.Fitness{Disable: []string{"NOPE"}}); err == nil {
		t.Fatal("expected error for unknown policy id")
	}
}

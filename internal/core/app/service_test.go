package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"archlens/internal/core/config"
	"archlens/internal/core/ports"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestApp(t *testing.T, root string, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Project.Root = root
	cfg.History.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	application, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = application.Close() })
	return application
}

func TestServiceReportEndToEnd(t *testing.T) {
	root := writeProject(t, map[string]string{
		"app/__init__.py":  "",
		"app/a.py":         "from app import b\n",
		"app/b.py":         "from app import a\n",
		"app/c.py":         "\"\"\"Standalone helper.\"\"\"\n",
	})

	application := newTestApp(t, root, nil)
	report, err := application.Service.Report(context.Background(), ports.ReportOptions{
		Fitness:  true,
		Patterns: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if report.Analysis.ModuleCount == 0 {
		t.Fatal("analysis should find modules")
	}
	if len(report.Analysis.Cycles) != 1 {
		t.Errorf("cycles = %+v, want the a<->b cycle", report.Analysis.Cycles)
	}

	if report.Fitness == nil {
		t.Fatal("fitness section missing")
	}
	foundCycleViolation := false
	for _, v := range report.Fitness.Violations {
		if v.PolicyID == "NO_CYCLES" {
			foundCycleViolation = true
		}
	}
	if !foundCycleViolation {
		t.Errorf("violations = %+v, want NO_CYCLES", report.Fitness.Violations)
	}
	if report.Fitness.IsPassing() {
		t.Error("cycle at ERROR level should fail the run")
	}

	if report.Patterns == nil || len(report.Patterns.Matches) != 5 {
		t.Errorf("patterns = %+v, want 5 matches", report.Patterns)
	}
}

func TestServiceAnalyzeUsesCache(t *testing.T) {
	root := writeProject(t, map[string]string{"a.py": "import os\n"})
	application := newTestApp(t, root, nil)

	ctx := context.Background()
	first, err := application.Service.Analyze(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := application.Service.Analyze(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Error("unchanged tree should reuse the cached snapshot")
	}

	third, err := application.Service.Analyze(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if third.ID == first.ID {
		t.Error("rebuild should produce a fresh snapshot")
	}
}

func TestServiceFitnessPresetOverride(t *testing.T) {
	root := writeProject(t, map[string]string{"a.py": "import os\n"})
	application := newTestApp(t, root, nil)

	_, result, err := application.Service.RunFitness(context.Background(), ports.FitnessOptions{Preset: "lenient"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Preset != "lenient" {
		t.Errorf("preset = %q, want lenient", result.Preset)
	}

	if _, _, err := application.Service.RunFitness(context.Background(), ports.FitnessOptions{Preset: "nope"}); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Project.Root = t.TempDir()
	cfg.Exclude.Dirs = []string{"["}

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid exclude pattern")
	}
}

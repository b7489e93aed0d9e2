package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"archlens/internal/core/config"
)

func writeCycleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.py": "\"\"\"Module a.\"\"\"\nimport b\n",
		"b.py": "\"\"\"Module b.\"\"\"\nimport a\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writeConfig(t *testing.T, root, outDir string) string {
	t.Helper()
	body := fmt.Sprintf(`
[project]
root = %q

[output]
directory = %q
dot = "graph.dot"
json = "report.json"
markdown = "report.md"
sarif = "report.sarif"
`, root, outDir)

	path := filepath.Join(t.TempDir(), "archlens.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := parseOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.configPath != defaultConfigPath {
		t.Errorf("configPath = %q", opts.configPath)
	}
	if !opts.fitness || !opts.patterns {
		t.Error("fitness and patterns should default on")
	}
	if opts.failOnErrors || opts.watch {
		t.Error("fail and watch should default off")
	}
}

func TestParseOptionsRejectsUnknownFlag(t *testing.T) {
	if _, err := parseOptions([]string{"-bogus"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	opts := cliOptions{
		root:      "/tmp/project",
		preset:    "strict",
		threshold: 0.7,
		noCache:   true,
		outDir:    "reports",
	}
	if err := applyOverrides(cfg, &opts); err != nil {
		t.Fatal(err)
	}
	if cfg.Project.Root != "/tmp/project" {
		t.Errorf("root = %q", cfg.Project.Root)
	}
	if cfg.Fitness.Preset != "strict" {
		t.Errorf("preset = %q", cfg.Fitness.Preset)
	}
	if cfg.Patterns.ConfidenceThreshold != 0.7 {
		t.Errorf("threshold = %v", cfg.Patterns.ConfidenceThreshold)
	}
	if cfg.Graph.CacheEnabled() {
		t.Error("cache should be disabled")
	}
	if cfg.Output.Directory != "reports" {
		t.Errorf("output dir = %q", cfg.Output.Directory)
	}
}

func TestApplyOverridesRejectsBadInput(t *testing.T) {
	cfg := config.Default()
	opts := cliOptions{threshold: 1.5}
	if err := applyOverrides(cfg, &opts); err == nil {
		t.Error("expected threshold range error")
	}

	opts = cliOptions{args: []string{"a", "b"}}
	if err := applyOverrides(config.Default(), &opts); err == nil {
		t.Error("expected positional argument error")
	}
}

func TestRunVersion(t *testing.T) {
	if code := Run([]string{"-version"}); code != 0 {
		t.Fatalf("code = %d", code)
	}
}

func TestRunWritesOutputsAndFailsOnCycle(t *testing.T) {
	root := writeCycleProject(t)
	outDir := filepath.Join(t.TempDir(), "out")
	cfgPath := writeConfig(t, root, outDir)

	if code := Run([]string{"-config", cfgPath}); code != 0 {
		t.Fatalf("code without --fail = %d, want 0", code)
	}
	if code := Run([]string{"-config", cfgPath, "-fail"}); code != 2 {
		t.Fatalf("code with --fail = %d, want 2", code)
	}

	for _, name := range []string{"graph.dot", "report.json", "report.md", "report.sarif"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("output %s missing: %v", name, err)
		}
	}
}

func TestRunFailFlagIgnoresWarnings(t *testing.T) {
	root := t.TempDir()
	body := "\"\"\"Module a.\"\"\"\n\n\ndef long(x):\n"
	for i := 0; i < 70; i++ {
		body += "    x = x + 1\n"
	}
	body += "    return x\n"
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, root, filepath.Join(t.TempDir(), "out"))

	if code := Run([]string{"-config", cfgPath, "-fail"}); code != 0 {
		t.Fatalf("code = %d, want 0 for warnings only", code)
	}
}

func TestRunTrendRequiresHistory(t *testing.T) {
	root := writeCycleProject(t)
	cfgPath := writeConfig(t, root, filepath.Join(t.TempDir(), "out"))

	if code := Run([]string{"-config", cfgPath, "-trend", "5"}); code != 1 {
		t.Fatalf("code = %d, want 1 when history is disabled", code)
	}
}

func TestRunBadPreset(t *testing.T) {
	root := writeCycleProject(t)
	cfgPath := writeConfig(t, root, filepath.Join(t.TempDir(), "out"))

	if code := Run([]string{"-config", cfgPath, "-preset", "nope"}); code != 1 {
		t.Fatalf("code = %d, want 1 for unknown preset", code)
	}
}

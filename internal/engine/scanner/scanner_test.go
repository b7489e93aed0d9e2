package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"archlens/internal/engine/parser"
)

func newTestScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	if err != nil {
		t.Fatal(err)
	}
	p := parser.NewParser(loader)
	if err := p.RegisterDefaultExtractors(); err != nil {
		t.Fatal(err)
	}
	s, err := New(p, opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func fileByRel(t *testing.T, result *Result, rel string) *parser.File {
	t.Helper()
	want := filepath.Join(result.Root, filepath.FromSlash(rel))
	for _, f := range result.Files {
		if f.Path == want {
			return f
		}
	}
	t.Fatalf("file %q not in result", rel)
	return nil
}

func TestScanGoProject(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"go.mod":             "module example.com/demo\n\ngo 1.24\n",
		"main.go":            "package main\n\nimport \"example.com/demo/internal/store\"\n\nfunc main() { store.Open() }\n",
		"internal/store/store.go":      "package store\n\nfunc Open() {}\n",
		"internal/store/store_test.go": "package store\n\nfunc helper() {}\n",
		"vendor/dep/dep.go":  "package dep\n",
	})

	s := newTestScanner(t, Options{ExcludeDirs: []string{".*", "vendor"}})
	result, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Files) != 2 {
		for _, f := range result.Files {
			t.Logf("scanned: %s", f.Path)
		}
		t.Fatalf("files = %d, want 2 (test file and vendor excluded)", len(result.Files))
	}

	main := fileByRel(t, result, "main.go")
	if main.Module != "example.com/demo" {
		t.Errorf("main module = %q, want example.com/demo", main.Module)
	}
	store := fileByRel(t, result, "internal/store/store.go")
	if store.Module != "example.com/demo/internal/store" {
		t.Errorf("store module = %q", store.Module)
	}

	if len(main.Imports) != 1 || main.Imports[0].Module != "example.com/demo/internal/store" {
		t.Errorf("main imports = %+v", main.Imports)
	}
	if result.Fingerprint == "" {
		t.Error("fingerprint should not be empty")
	}
}

func TestScanPythonModuleResolution(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app/__init__.py":          "",
		"app/api/__init__.py":      "",
		"app/api/routes.py":        "from ..core import engine\nfrom . import schemas\n",
		"app/api/schemas.py":       "",
		"app/core/__init__.py":     "",
		"app/core/engine.py":       "import os\n",
	})

	s := newTestScanner(t, Options{})
	result, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	routes := fileByRel(t, result, "app/api/routes.py")
	if routes.Module != "app.api.routes" {
		t.Fatalf("routes module = %q, want app.api.routes", routes.Module)
	}

	got := make(map[string]bool)
	for _, imp := range routes.Imports {
		got[imp.Module] = true
	}
	if !got["app.core.engine"] {
		t.Errorf("relative ..core import not resolved: %v", routes.Imports)
	}
	if !got["app.api.schemas"] {
		t.Errorf("from . import schemas not resolved to sibling: %v", routes.Imports)
	}
}

func TestScanJavaScriptIndexResolution(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.js":         "import { db } from \"./store\";\nimport axios from \"axios\";\n",
		"src/store/index.js": "export const db = {};\n",
	})

	s := newTestScanner(t, Options{})
	result, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	app := fileByRel(t, result, "src/app.js")
	if app.Module != "src/app" {
		t.Fatalf("app module = %q, want src/app", app.Module)
	}

	got := make(map[string]bool)
	for _, imp := range app.Imports {
		got[imp.Module] = true
	}
	if !got["src/store/index"] {
		t.Errorf("./store should resolve to src/store/index: %v", app.Imports)
	}
	if !got["axios"] {
		t.Errorf("bare axios import should stay unresolved: %v", app.Imports)
	}
}

func TestScanRustCratePaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/lib.rs":        "mod graph;\nmod metrics;\n",
		"src/graph/mod.rs":  "use crate::metrics::record;\n",
		"src/metrics.rs":    "pub fn record() {}\n",
	})

	s := newTestScanner(t, Options{})
	result, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	lib := fileByRel(t, result, "src/lib.rs")
	if lib.Module != "crate" {
		t.Errorf("lib module = %q, want crate", lib.Module)
	}
	graph := fileByRel(t, result, "src/graph/mod.rs")
	if graph.Module != "crate::graph" {
		t.Errorf("graph module = %q, want crate::graph", graph.Module)
	}

	got := make(map[string]bool)
	for _, imp := range graph.Imports {
		got[imp.Module] = true
	}
	if !got["crate::metrics"] {
		t.Errorf("use crate::metrics::record should trim to crate::metrics: %v", graph.Imports)
	}
}

func TestScanParseFailureBecomesWarning(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.py": "import os\n",
	})
	// Unreadable file still listed by the walk.
	bad := filepath.Join(root, "bad.py")
	if err := os.WriteFile(bad, []byte("import sys\n"), 0o000); err != nil {
		t.Fatal(err)
	}
	if os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	s := newTestScanner(t, Options{})
	result, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Files) != 1 {
		t.Errorf("files = %d, want 1", len(result.Files))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Path != bad {
		t.Errorf("warnings = %+v, want one for bad.py", result.Warnings)
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := newTestScanner(t, Options{})
	if _, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "", "b.py": "", "c.py": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScanner(t, Options{Workers: 1})
	if _, err := s.Scan(ctx, root); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "import os\n"})

	s := newTestScanner(t, Options{})
	first, err := s.Fingerprint(root)
	if err != nil {
		t.Fatal(err)
	}

	writeTree(t, root, map[string]string{"b.py": "import sys\n"})
	second, err := s.Fingerprint(root)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("fingerprint should change when files are added")
	}
}

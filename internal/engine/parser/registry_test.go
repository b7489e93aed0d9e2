package parser

import (
	"testing"
)

func TestBuildLanguageRegistryDefaults(t *testing.T) {
	registry, err := BuildLanguageRegistry(nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, lang := range []string{"go", "python", "javascript", "typescript", "tsx", "java", "rust"} {
		spec, ok := registry[lang]
		if !ok {
			t.Fatalf("language %q missing from registry", lang)
		}
		if !spec.Enabled {
			t.Errorf("language %q should be enabled by default", lang)
		}
	}

	for _, lang := range []string{"css", "html"} {
		if registry[lang].Enabled {
			t.Errorf("language %q should be disabled by default", lang)
		}
	}
}

func TestBuildLanguageRegistryOverrides(t *testing.T) {
	enabled := true
	registry, err := BuildLanguageRegistry(map[string]LanguageOverride{
		"css": {Enabled: &enabled},
		"go":  {Extensions: []string{"go", ".GO"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !registry["css"].Enabled {
		t.Error("css override should enable the language")
	}
	exts := registry["go"].Extensions
	if len(exts) != 1 || exts[0] != ".go" {
		t.Errorf("go extensions = %v, want [.go]", exts)
	}
}

func TestBuildLanguageRegistryUnknownLanguage(t *testing.T) {
	if _, err := BuildLanguageRegistry(map[string]LanguageOverride{"cobol": {}}); err == nil {
		t.Fatal("expected error for unknown language override")
	}
}

func TestBuildLanguageRegistryDuplicateExtension(t *testing.T) {
	_, err := BuildLanguageRegistry(map[string]LanguageOverride{
		"python": {Extensions: []string{".go"}},
	})
	if err == nil {
		t.Fatal("expected duplicate extension error")
	}
}

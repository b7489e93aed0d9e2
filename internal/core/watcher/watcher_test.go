package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherBatchesTrackedChanges(t *testing.T) {
	root := t.TempDir()

	changes := make(chan []string, 1)
	w, err := New(Options{
		Debounce:    50 * time.Millisecond,
		ExcludeDirs: []string{".*"},
		Extensions:  []string{".py"},
	}, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(root); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, "app.py"), []byte("import os\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changes:
		if len(paths) != 1 || filepath.Base(paths[0]) != "app.py" {
			t.Errorf("paths = %v, want only app.py", paths)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change batch delivered")
	}
}

func TestWatcherRequiresCallback(t *testing.T) {
	if _, err := New(Options{Debounce: time.Millisecond}, nil); err == nil {
		t.Fatal("expected error without callback")
	}
}

func TestWatcherRejectsBadPattern(t *testing.T) {
	_, err := New(Options{ExcludeDirs: []string{"["}}, func([]string) {})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

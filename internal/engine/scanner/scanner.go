package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"archlens/internal/core/errors"
	"archlens/internal/engine/parser"
	"archlens/internal/shared/observability"
)

// Scanner walks a project tree, parses every supported source file on a
// bounded worker pool and resolves module identities. Results are sorted by
// path so downstream output is reproducible regardless of scan order.
type Scanner struct {
	parser       *parser.Parser
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	includeTests bool
	workers      int
}

type Options struct {
	ExcludeDirs  []string
	ExcludeFiles []string
	IncludeTests bool
	// Workers bounds the parse pool. 0 means one per CPU.
	Workers int
}

// Result is the immutable outcome of one scan pass.
type Result struct {
	Root        string
	Files       []*parser.File
	Warnings    []FileWarning
	Fingerprint string
	ScannedAt   time.Time
}

// FileWarning records a file that was excluded because it could not be parsed.
type FileWarning struct {
	Path    string
	Message string
}

func New(codeParser *parser.Parser, opts Options) (*Scanner, error) {
	dirGlobs := make([]glob.Glob, 0, len(opts.ExcludeDirs))
	for _, p := range opts.ExcludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid exclude dir pattern %q", p))
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(opts.ExcludeFiles))
	for _, p := range opts.ExcludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
		fileGlobs = append(fileGlobs, g)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Scanner{
		parser:       codeParser,
		excludeDirs:  dirGlobs,
		excludeFiles: fileGlobs,
		includeTests: opts.IncludeTests,
		workers:      workers,
	}, nil
}

// Scan parses every supported file under root. A single unparsable file
// becomes a warning and is excluded; a missing or unreadable root is fatal.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "resolve project root")
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, fmt.Sprintf("project root %q", root))
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.CodeNotFound, "project root %q is not a directory", root)
	}

	paths, err := s.listFiles(absRoot)
	if err != nil {
		return nil, err
	}

	files, warnings, err := s.parseAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	resolveModules(absRoot, files)
	resolveImports(files)

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Path < warnings[j].Path })

	fingerprint, err := fingerprintPaths(absRoot, paths)
	if err != nil {
		return nil, err
	}

	observability.ScanDuration.Observe(time.Since(start).Seconds())

	return &Result{
		Root:        absRoot,
		Files:       files,
		Warnings:    warnings,
		Fingerprint: fingerprint,
		ScannedAt:   start,
	}, nil
}

// Fingerprint hashes the (path, size, mtime) triples of every tracked file
// without parsing anything. Used as the analysis cache key.
func (s *Scanner) Fingerprint(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConfig, "resolve project root")
	}
	paths, err := s.listFiles(absRoot)
	if err != nil {
		return "", err
	}
	return fingerprintPaths(absRoot, paths)
}

func (s *Scanner) listFiles(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if path != root {
				for _, g := range s.excludeDirs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
			}
			return nil
		}

		if !s.parser.IsSupportedPath(path) {
			return nil
		}
		if !s.includeTests && s.parser.IsTestFile(path) {
			return nil
		}
		for _, g := range s.excludeFiles {
			if g.Match(base) {
				return nil
			}
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, "walk project tree")
	}

	sort.Strings(paths)
	return paths, nil
}

func (s *Scanner) parseAll(ctx context.Context, paths []string) ([]*parser.File, []FileWarning, error) {
	type parsed struct {
		file    *parser.File
		warning *FileWarning
	}

	jobs := make(chan string)
	results := make(chan parsed, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				file, err := s.parseOne(path)
				if err != nil {
					slog.Warn("failed to parse file", "path", path, "error", err)
					results <- parsed{warning: &FileWarning{Path: path, Message: err.Error()}}
					continue
				}
				results <- parsed{file: file}
			}
		}()
	}

	cancelled := false
scheduling:
	for _, path := range paths {
		select {
		case <-ctx.Done():
			cancelled = true
			break scheduling
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if cancelled {
		return nil, nil, errors.Wrap(ctx.Err(), errors.CodeCancelled, "scan cancelled")
	}

	var files []*parser.File
	var warnings []FileWarning
	for res := range results {
		if res.warning != nil {
			warnings = append(warnings, *res.warning)
			continue
		}
		files = append(files, res.file)
	}
	return files, warnings, nil
}

func (s *Scanner) parseOne(path string) (*parser.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "read file")
	}
	return s.parser.ParseFile(path, content)
}

func fingerprintPaths(root string, paths []string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			// File vanished between walk and hash: fold its absence in.
			fmt.Fprintf(h, "%s|gone\n", path)
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		fmt.Fprintf(h, "%s|%d|%d\n", filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

package scanner

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"archlens/internal/engine/parser"
)

// resolveModules assigns each file its module identity: the resolved relative
// path with language-appropriate normalization.
func resolveModules(root string, files []*parser.File) {
	goResolver := newGoResolver()
	for _, file := range files {
		switch file.Language {
		case "go":
			file.Module = goResolver.moduleName(file.Path, root)
		case "python":
			file.Module = pythonModuleName(root, file.Path)
		case "java":
			file.Module = javaModuleName(file)
		case "rust":
			file.Module = rustModuleName(root, file.Path)
		default:
			file.Module = relPathModule(root, file.Path)
		}
		if file.Module == "" {
			file.Module = relPathModule(root, file.Path)
		}

		for i := range file.Definitions {
			if file.Module != "" {
				file.Definitions[i].FullName = file.Module + "." + file.Definitions[i].Name
			}
		}
	}
}

// resolveImports rewrites import targets to module identities where the
// target can be determined from the scanned file set. Unresolvable targets
// are left as written; the graph builder treats them as external.
func resolveImports(files []*parser.File) {
	known := make(map[string]bool, len(files))
	for _, file := range files {
		known[file.Module] = true
	}

	for _, file := range files {
		switch file.Language {
		case "python":
			file.Imports = resolvePythonImports(file, known)
		case "javascript", "typescript", "tsx", "css", "html":
			resolvePathImports(file, known)
		case "rust":
			resolveRustImports(file, known)
		}
	}
}

// relPathModule is the default identity: project-relative path, forward
// slashes, no extension.
func relPathModule(root, filePath string) string {
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		rel = filePath
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel))
}

var goModuleRe = regexp.MustCompile(`(?m)^module\s+(\S+)`)

// goResolver resolves files against the nearest enclosing go.mod, caching one
// lookup per directory.
type goResolver struct {
	byDir map[string]goModule
}

type goModule struct {
	path string
	root string
}

func newGoResolver() *goResolver {
	return &goResolver{byDir: make(map[string]goModule)}
}

func (r *goResolver) moduleName(filePath, projectRoot string) string {
	dir := filepath.Dir(filePath)
	mod, ok := r.byDir[dir]
	if !ok {
		mod = findGoModule(dir, projectRoot)
		r.byDir[dir] = mod
	}
	if mod.path == "" {
		return ""
	}

	rel, err := filepath.Rel(mod.root, filePath)
	if err != nil {
		return ""
	}
	relDir := filepath.ToSlash(filepath.Dir(rel))
	if relDir == "." {
		return mod.path
	}
	return mod.path + "/" + relDir
}

func findGoModule(startDir, stopRoot string) goModule {
	current := startDir
	for {
		modPath := filepath.Join(current, "go.mod")
		if data, err := os.ReadFile(modPath); err == nil {
			if m := goModuleRe.FindSubmatch(data); len(m) > 1 {
				return goModule{path: string(m[1]), root: current}
			}
			return goModule{}
		}

		if current == stopRoot {
			return goModule{}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return goModule{}
		}
		current = parent
	}
}

// pythonModuleName builds a dotted module name, skipping leading directories
// that are not packages (no __init__.py).
func pythonModuleName(root, filePath string) string {
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		return ""
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")

	packageStart := 0
	for i := 0; i < len(parts)-1; i++ {
		checkPath := filepath.Join(root, filepath.Join(parts[:i+1]...), "__init__.py")
		if _, err := os.Stat(checkPath); os.IsNotExist(err) {
			packageStart = i + 1
		} else {
			break
		}
	}

	parts = parts[packageStart:]
	parts[len(parts)-1] = strings.TrimSuffix(parts[len(parts)-1], ".py")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

func javaModuleName(file *parser.File) string {
	stem := strings.TrimSuffix(filepath.Base(file.Path), ".java")
	if file.PackageName == "" {
		return stem
	}
	return file.PackageName + "." + stem
}

// rustModuleName maps the src/ layout to crate paths: src/lib.rs and
// src/main.rs are the crate root, src/a/mod.rs is crate::a, src/a/b.rs is
// crate::a::b.
func rustModuleName(root, filePath string) string {
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 0 && parts[0] == "src" {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return "crate"
	}

	last := strings.TrimSuffix(parts[len(parts)-1], ".rs")
	switch last {
	case "lib", "main", "mod":
		parts = parts[:len(parts)-1]
	default:
		parts[len(parts)-1] = last
	}
	if len(parts) == 0 {
		return "crate"
	}
	return "crate::" + strings.Join(parts, "::")
}

func resolvePythonImports(file *parser.File, known map[string]bool) []parser.Import {
	out := make([]parser.Import, 0, len(file.Imports))
	for _, imp := range file.Imports {
		target := imp.Module
		if imp.IsRelative {
			target = resolvePythonRelative(file.Module, imp.Module, imp.Level)
		}

		// "from pkg import a, b" imports submodules when a and b are
		// modules, so item expansion wins over the package itself.
		matched := false
		for _, item := range imp.Items {
			candidate := target + "." + item
			if target == "" {
				candidate = item
			}
			if known[candidate] {
				resolved := imp
				resolved.Module = candidate
				out = append(out, resolved)
				matched = true
			}
		}
		if !matched {
			resolved := imp
			resolved.Module = target
			out = append(out, resolved)
		}
	}
	return out
}

func resolvePythonRelative(fromModule, module string, level int) string {
	parts := strings.Split(fromModule, ".")
	if level > len(parts) {
		return module
	}
	base := strings.Join(parts[:len(parts)-level], ".")
	if module == "" {
		return base
	}
	if base == "" {
		return module
	}
	return base + "." + module
}

// resolvePathImports resolves relative specifiers against the importing
// file's module path, trying index files for directory imports.
func resolvePathImports(file *parser.File, known map[string]bool) {
	for i := range file.Imports {
		spec := file.Imports[i].Module
		if !strings.HasPrefix(spec, ".") {
			continue
		}

		spec = strings.TrimSuffix(spec, path.Ext(spec))
		candidate := path.Clean(path.Join(path.Dir(file.Module), spec))
		for _, resolved := range []string{candidate, candidate + "/index"} {
			if known[resolved] {
				file.Imports[i].Module = resolved
				file.Imports[i].IsRelative = true
				break
			}
		}
	}
}

func resolveRustImports(file *parser.File, known map[string]bool) {
	for i := range file.Imports {
		target := file.Imports[i].Module
		switch {
		case strings.HasPrefix(target, "self::"):
			target = joinRustSegments(file.Module, strings.TrimPrefix(target, "self::"))
		case strings.HasPrefix(target, "super::"):
			target = joinRustSegments(rustParent(file.Module), strings.TrimPrefix(target, "super::"))
		}

		// Trim trailing segments (type/function names) until a known module
		// remains.
		for probe := target; probe != ""; probe = rustParent(probe) {
			if known[probe] {
				file.Imports[i].Module = probe
				break
			}
			if !strings.Contains(probe, "::") {
				break
			}
		}
	}
}

func joinRustSegments(base, rest string) string {
	if rest == "" {
		return base
	}
	if base == "" {
		return rest
	}
	return base + "::" + rest
}

func rustParent(module string) string {
	idx := strings.LastIndex(module, "::")
	if idx < 0 {
		return ""
	}
	return module[:idx]
}

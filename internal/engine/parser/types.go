package parser

import (
	"time"
)

type File struct {
	Path        string
	Language    string
	Module      string // Resolved module identity (set by the scanner)
	PackageName string // Declared package/module name
	ModuleDoc   bool   // File carries module-level documentation
	LOC         int    // Physical lines in the file
	Imports     []Import
	Definitions []Definition
	ParsedAt    time.Time
}

type Import struct {
	Module     string   // Import target as written (resolved later)
	RawImport  string   // Original import string
	Alias      string   // Optional alias
	Items      []string // For "from X import Y, Z" style imports
	IsRelative bool     // Python/JS relative imports
	Level      int      // Python relative level (number of leading dots)
	Location   Location
}

type Definition struct {
	Name      string
	FullName  string // module.Name once the module identity is known
	Kind      DefinitionKind
	Location  Location
	Exported  bool
	HasDoc    bool
	Signature string
	// Heuristic complexity metrics consumed by the fitness validators.
	BranchCount     int
	ParameterCount  int
	NestingDepth    int
	LOC             int
	ComplexityScore int
}

type DefinitionKind int

const (
	KindFunction DefinitionKind = iota
	KindMethod
	KindClass
	KindType
	KindInterface
)

func (k DefinitionKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindClass:
		return "class"
	case KindType:
		return "type"
	case KindInterface:
		return "interface"
	}
	return "unknown"
}

// IsCallable reports whether the definition has a body whose size and
// branching are meaningful for complexity checks.
func (k DefinitionKind) IsCallable() bool {
	return k == KindFunction || k == KindMethod
}

type Location struct {
	File   string
	Line   int
	Column int
}

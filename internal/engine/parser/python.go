package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:      filePath,
		Language:  "python",
		ModuleDoc: e.hasDocstring(root),
		ParsedAt:  time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":      e.extractImport,
		"import_from_statement": e.extractFromImport,
		"function_definition":   e.extractFunction,
		"class_definition":      e.extractClass,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		if child.Kind() == "dotted_name" || child.Kind() == "identifier" {
			module := ctx.Text(child)
			ctx.File.Imports = append(ctx.File.Imports, Import{
				Module:    module,
				RawImport: module,
				Location:  ctx.Location(child),
			})
		} else if child.Kind() == "aliased_import" {
			var module, alias string
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub.Kind() == "dotted_name" || sub.Kind() == "identifier" {
					if module == "" {
						module = ctx.Text(sub)
					} else {
						alias = ctx.Text(sub)
					}
				}
			}
			ctx.File.Imports = append(ctx.File.Imports, Import{
				Module:    module,
				RawImport: module,
				Alias:     alias,
				Location:  ctx.Location(child),
			})
		}
	}
	return true
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	var module string
	var items []string
	isRelative := false
	level := 0

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "relative_import":
			isRelative = true
			relText := ctx.Text(child)
			level = len(relText) - len(strings.TrimLeft(relText, "."))
			module = strings.TrimLeft(relText, ".")
		case "dotted_name", "identifier":
			if !isRelative {
				module = ctx.Text(child)
			}
		case "import_list", "aliased_import":
			e.collectItems(ctx, child, &items)
		}
	}

	if len(items) == 0 {
		foundImport := false
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.Kind() == "import" {
				foundImport = true
				continue
			}
			if foundImport && (child.Kind() == "identifier" || child.Kind() == "dotted_name") {
				items = append(items, ctx.Text(child))
			}
		}
	}

	ctx.File.Imports = append(ctx.File.Imports, Import{
		Module:     module,
		RawImport:  module,
		Items:      items,
		IsRelative: isRelative,
		Level:      level,
		Location:   ctx.Location(node),
	})
	return true
}

func (e *PythonExtractor) collectItems(ctx *ExtractionContext, node *sitter.Node, items *[]string) {
	kind := node.Kind()
	if kind == "identifier" || kind == "dotted_name" {
		*items = append(*items, ctx.Text(node))
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.collectItems(ctx, node.Child(i), items)
	}
}

func (e *PythonExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.ChildText(node, "identifier")
	if name == "" {
		return false
	}

	params := node.ChildByFieldName("parameters")
	paramCount := e.countParameters(params)
	branches, nesting := e.computeComplexity(node.ChildByFieldName("body"), 0)
	loc := NodeLOC(node)

	kind := KindFunction
	if e.insideClass(node) {
		kind = KindMethod
	}

	paramsText := "()"
	if params != nil {
		paramsText = ctx.Text(params)
	}

	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:            name,
		FullName:        name,
		Kind:            kind,
		Exported:        !strings.HasPrefix(name, "_"),
		HasDoc:          e.hasDocstring(node.ChildByFieldName("body")),
		Signature:       name + paramsText,
		ParameterCount:  paramCount,
		BranchCount:     branches,
		NestingDepth:    nesting,
		LOC:             loc,
		ComplexityScore: complexityScore(branches, nesting, paramCount, loc),
		Location:        ctx.Location(node),
	})
	return false
}

func (e *PythonExtractor) extractClass(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.ChildText(node, "identifier")
	if name == "" {
		return false
	}

	signature := name
	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		signature += ctx.Text(superclasses)
	}

	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:      name,
		FullName:  name,
		Kind:      KindClass,
		Exported:  !strings.HasPrefix(name, "_"),
		HasDoc:    e.hasDocstring(node.ChildByFieldName("body")),
		Signature: signature,
		LOC:       NodeLOC(node),
		Location:  ctx.Location(node),
	})
	return false
}

// hasDocstring reports whether the first statement of a body (or module) is a
// bare string expression.
func (e *PythonExtractor) hasDocstring(body *sitter.Node) bool {
	if body == nil {
		return false
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		switch child.Kind() {
		case "comment":
			continue
		case "expression_statement":
			for j := uint(0); j < child.ChildCount(); j++ {
				if child.Child(j).Kind() == "string" {
					return true
				}
			}
			return false
		default:
			return false
		}
	}
	return false
}

func (e *PythonExtractor) insideClass(node *sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "class_definition":
			return true
		case "function_definition":
			return false
		}
	}
	return false
}

func (e *PythonExtractor) countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < params.ChildCount(); i++ {
		if e.isParameterNode(params.Child(i)) {
			count++
		}
	}
	return count
}

func (e *PythonExtractor) isParameterNode(node *sitter.Node) bool {
	if node == nil {
		return false
	}

	switch node.Kind() {
	case "identifier", "typed_parameter", "default_parameter", "typed_default_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		return true
	case ",", "(", ")", "*", "/":
		return false
	}

	kind := node.Kind()
	return strings.HasSuffix(kind, "_parameter") || strings.HasSuffix(kind, "_pattern")
}

func (e *PythonExtractor) computeComplexity(node *sitter.Node, depth int) (branches int, maxDepth int) {
	if node == nil {
		return 0, depth
	}

	maxDepth = depth
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		childDepth := depth

		switch child.Kind() {
		case "if_statement", "elif_clause", "for_statement", "while_statement", "try_statement", "except_clause", "with_statement", "match_statement":
			branches++
			childDepth = depth + 1
		}

		subBranches, subDepth := e.computeComplexity(child, childDepth)
		branches += subBranches
		if subDepth > maxDepth {
			maxDepth = subDepth
		}
	}

	return branches, maxDepth
}

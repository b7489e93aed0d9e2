package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type GoExtractor struct{}

func (e *GoExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:      filePath,
		Language:  "go",
		ModuleDoc: hasTopComment(source, "//", "/*"),
		ParsedAt:  time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"package_clause":       e.extractPackage,
		"import_declaration":   e.extractImports,
		"function_declaration": e.extractFunction,
		"method_declaration":   e.extractMethod,
		"type_declaration":     e.extractType,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *GoExtractor) extractPackage(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "package_identifier" {
			ctx.File.PackageName = ctx.Text(child)
		}
	}
	return true
}

func (e *GoExtractor) extractImports(ctx *ExtractionContext, node *sitter.Node) bool {
	e.walkImports(ctx, node)
	return true
}

func (e *GoExtractor) walkImports(ctx *ExtractionContext, node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		if child.Kind() == "import_spec" {
			var alias, path string

			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				kind := spec.Kind()

				if kind == "package_identifier" || kind == "_" || kind == "." {
					alias = ctx.Text(spec)
				} else if kind == "interpreted_string_literal" || kind == "raw_string_literal" {
					path = strings.Trim(ctx.Text(spec), "\"`")
				}
			}

			if path != "" {
				ctx.File.Imports = append(ctx.File.Imports, Import{
					Module:    path,
					RawImport: path,
					Alias:     alias,
					Location:  ctx.Location(child),
				})
			}
		} else {
			e.walkImports(ctx, child)
		}
	}
}

func (e *GoExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractCallable(ctx, node, KindFunction)
	return true
}

func (e *GoExtractor) extractMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractCallable(ctx, node, KindMethod)
	return true
}

func (e *GoExtractor) extractCallable(ctx *ExtractionContext, node *sitter.Node, kind DefinitionKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := ctx.Text(nameNode)
	if name == "" {
		return
	}

	params := node.ChildByFieldName("parameters")
	paramCount := e.countParameters(params)
	branches, nesting := e.computeComplexity(node.ChildByFieldName("body"), 0)
	loc := NodeLOC(node)

	paramsText := ""
	if params != nil {
		paramsText = ctx.Text(params)
	}
	signature := name + paramsText
	if results := node.ChildByFieldName("result"); results != nil {
		signature += " " + ctx.Text(results)
	}

	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:            name,
		FullName:        name,
		Kind:            kind,
		Exported:        isExportedName(name),
		HasDoc:          hasDocAbove(ctx.Source, node, "//"),
		Signature:       signature,
		ParameterCount:  paramCount,
		BranchCount:     branches,
		NestingDepth:    nesting,
		LOC:             loc,
		ComplexityScore: complexityScore(branches, nesting, paramCount, loc),
		Location:        ctx.Location(node),
	})
}

func (e *GoExtractor) countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "identifier":
			count++
		case "variadic_parameter":
			for i := uint(0); i < n.ChildCount(); i++ {
				child := n.Child(i)
				if child.Kind() == "identifier" {
					count++
				}
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(params)
	return count
}

func (e *GoExtractor) computeComplexity(body *sitter.Node, depth int) (branches int, maxDepth int) {
	if body == nil {
		return 0, depth
	}

	maxDepth = depth
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		childDepth := depth

		switch child.Kind() {
		case "if_statement", "for_statement", "range_clause", "switch_statement", "type_switch_statement", "select_statement", "case_clause", "communication_case":
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

func (e *GoExtractor) extractType(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "type_spec" {
			e.extractTypeSpec(ctx, node, child)
		}
	}
	return true
}

func (e *GoExtractor) extractTypeSpec(ctx *ExtractionContext, decl, node *sitter.Node) {
	var name string
	kind := KindType

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		if child.Kind() == "type_identifier" {
			name = ctx.Text(child)
		} else if child.Kind() == "interface_type" {
			kind = KindInterface
		}
	}

	if name == "" {
		return
	}

	signature := name
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		signature += " " + typeNode.Kind()
	}

	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name: name,
		// Doc comments sit above the enclosing declaration, not the spec.
		HasDoc:    hasDocAbove(ctx.Source, decl, "//"),
		FullName:  name,
		Kind:      kind,
		Exported:  isExportedName(name),
		Signature: signature,
		LOC:       NodeLOC(node),
		Location:  ctx.Location(node),
	})
}

package parser

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type JavaExtractor struct{}

func (e *JavaExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:      filePath,
		Language:  "java",
		ModuleDoc: hasTopComment(source, "/*", "//"),
		ParsedAt:  time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"package_declaration":   e.extractPackage,
		"import_declaration":    e.extractImport,
		"class_declaration":     e.extractClass,
		"interface_declaration": e.extractInterface,
		"enum_declaration":      e.extractEnum,
		"record_declaration":    e.extractClass,
		"method_declaration":    e.extractMethod,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *JavaExtractor) extractPackage(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		kind := child.Kind()
		if kind == "scoped_identifier" || kind == "identifier" {
			ctx.File.PackageName = ctx.Text(child)
		}
	}
	return true
}

func (e *JavaExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		kind := child.Kind()
		if kind != "scoped_identifier" && kind != "identifier" {
			continue
		}
		module := ctx.Text(child)
		if module == "" {
			continue
		}
		ctx.File.Imports = append(ctx.File.Imports, Import{
			Module:    module,
			RawImport: module,
			Location:  ctx.Location(node),
		})
		break
	}
	return true
}

func (e *JavaExtractor) extractClass(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractTypeDecl(ctx, node, KindClass)
	return false
}

func (e *JavaExtractor) extractInterface(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractTypeDecl(ctx, node, KindInterface)
	return false
}

func (e *JavaExtractor) extractEnum(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractTypeDecl(ctx, node, KindType)
	return false
}

func (e *JavaExtractor) extractTypeDecl(ctx *ExtractionContext, node *sitter.Node, kind DefinitionKind) {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}
	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:      name,
		FullName:  name,
		Kind:      kind,
		Exported:  e.isPublic(ctx, node),
		HasDoc:    hasDocAbove(ctx.Source, node, "/*", "*", "//"),
		Signature: name,
		LOC:       NodeLOC(node),
		Location:  ctx.Location(node),
	})
}

func (e *JavaExtractor) extractMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return true
	}

	params := node.ChildByFieldName("parameters")
	paramCount := e.countParameters(params)
	branches, nesting := e.computeComplexity(node.ChildByFieldName("body"), 0)
	loc := NodeLOC(node)

	paramsText := "()"
	if params != nil {
		paramsText = ctx.Text(params)
	}

	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:            name,
		FullName:        name,
		Kind:            KindMethod,
		Exported:        e.isPublic(ctx, node),
		HasDoc:          hasDocAbove(ctx.Source, node, "/*", "*", "//"),
		Signature:       name + paramsText,
		ParameterCount:  paramCount,
		BranchCount:     branches,
		NestingDepth:    nesting,
		LOC:             loc,
		ComplexityScore: complexityScore(branches, nesting, paramCount, loc),
		Location:        ctx.Location(node),
	})
	return true
}

func (e *JavaExtractor) isPublic(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			if ctx.Text(child.Child(j)) == "public" {
				return true
			}
		}
	}
	return false
}

func (e *JavaExtractor) countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < params.ChildCount(); i++ {
		switch params.Child(i).Kind() {
		case "formal_parameter", "spread_parameter", "receiver_parameter":
			count++
		}
	}
	return count
}

func (e *JavaExtractor) computeComplexity(body *sitter.Node, depth int) (branches int, maxDepth int) {
	if body == nil {
		return 0, depth
	}

	maxDepth = depth
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		childDepth := depth

		switch child.Kind() {
		case "if_statement", "for_statement", "enhanced_for_statement", "while_statement", "do_statement", "switch_expression", "catch_clause", "ternary_expression":
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

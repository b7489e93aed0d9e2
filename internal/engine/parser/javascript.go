package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JavaScriptExtractor covers javascript, typescript and tsx: the import and
// definition shapes it reads are shared across the three grammars.
type JavaScriptExtractor struct {
	Language string
}

func (e *JavaScriptExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:      filePath,
		Language:  e.Language,
		ModuleDoc: hasTopComment(source, "//", "/*"),
		ParsedAt:  time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":               e.extractImport,
		"export_statement":               e.extractReExport,
		"call_expression":                e.extractRequire,
		"function_declaration":           e.extractFunction,
		"generator_function_declaration": e.extractFunction,
		"method_definition":              e.extractMethod,
		"class_declaration":              e.extractClass,
		"interface_declaration":          e.extractInterface,
		"type_alias_declaration":         e.extractTypeAlias,
		"enum_declaration":               e.extractTypeAlias,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *JavaScriptExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return true
	}
	module := trimQuoted(ctx.Text(sourceNode))
	if module == "" {
		return true
	}

	var items []string
	e.collectImportedNames(ctx, node, &items)

	ctx.File.Imports = append(ctx.File.Imports, Import{
		Module:     module,
		RawImport:  module,
		Items:      items,
		IsRelative: strings.HasPrefix(module, "."),
		Location:   ctx.Location(node),
	})
	return true
}

// extractReExport handles `export ... from "x"`, which creates a dependency
// just like an import does.
func (e *JavaScriptExtractor) extractReExport(ctx *ExtractionContext, node *sitter.Node) bool {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return false
	}
	module := trimQuoted(ctx.Text(sourceNode))
	if module == "" {
		return false
	}
	ctx.File.Imports = append(ctx.File.Imports, Import{
		Module:     module,
		RawImport:  module,
		IsRelative: strings.HasPrefix(module, "."),
		Location:   ctx.Location(node),
	})
	return false
}

func (e *JavaScriptExtractor) extractRequire(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil || ctx.Text(fn) != "require" {
		return false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return false
	}
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if child.Kind() != "string" {
			continue
		}
		module := trimQuoted(ctx.Text(child))
		if module == "" {
			continue
		}
		ctx.File.Imports = append(ctx.File.Imports, Import{
			Module:     module,
			RawImport:  module,
			IsRelative: strings.HasPrefix(module, "."),
			Location:   ctx.Location(node),
		})
		break
	}
	return false
}

func (e *JavaScriptExtractor) collectImportedNames(ctx *ExtractionContext, node *sitter.Node, items *[]string) {
	kind := node.Kind()
	if kind == "identifier" || kind == "import_specifier" || kind == "namespace_import" {
		text := ctx.Text(node)
		text = strings.TrimSpace(strings.TrimPrefix(text, "* as"))
		if text != "" {
			*items = append(*items, text)
		}
		return
	}
	if kind == "string" {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.collectImportedNames(ctx, node.Child(i), items)
	}
}

func (e *JavaScriptExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractCallable(ctx, node, KindFunction)
	return true
}

func (e *JavaScriptExtractor) extractMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractCallable(ctx, node, KindMethod)
	return true
}

func (e *JavaScriptExtractor) extractCallable(ctx *ExtractionContext, node *sitter.Node, kind DefinitionKind) {
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

	paramsText := "()"
	if params != nil {
		paramsText = ctx.Text(params)
	}

	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:            name,
		FullName:        name,
		Kind:            kind,
		Exported:        !strings.HasPrefix(name, "_") && name != "constructor",
		HasDoc:          hasDocAbove(ctx.Source, node, "//", "/*", "*"),
		Signature:       name + paramsText,
		ParameterCount:  paramCount,
		BranchCount:     branches,
		NestingDepth:    nesting,
		LOC:             loc,
		ComplexityScore: complexityScore(branches, nesting, paramCount, loc),
		Location:        ctx.Location(node),
	})
}

func (e *JavaScriptExtractor) extractClass(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return false
	}
	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:      name,
		FullName:  name,
		Kind:      KindClass,
		Exported:  !strings.HasPrefix(name, "_"),
		HasDoc:    hasDocAbove(ctx.Source, node, "//", "/*", "*"),
		Signature: name,
		LOC:       NodeLOC(node),
		Location:  ctx.Location(node),
	})
	return false
}

func (e *JavaScriptExtractor) extractInterface(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractNamedType(ctx, node, KindInterface)
	return true
}

func (e *JavaScriptExtractor) extractTypeAlias(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractNamedType(ctx, node, KindType)
	return true
}

func (e *JavaScriptExtractor) extractNamedType(ctx *ExtractionContext, node *sitter.Node, kind DefinitionKind) {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}
	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:      name,
		FullName:  name,
		Kind:      kind,
		Exported:  !strings.HasPrefix(name, "_"),
		HasDoc:    hasDocAbove(ctx.Source, node, "//", "/*", "*"),
		Signature: name,
		LOC:       NodeLOC(node),
		Location:  ctx.Location(node),
	})
}

func (e *JavaScriptExtractor) countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < params.ChildCount(); i++ {
		switch params.Child(i).Kind() {
		case "identifier", "required_parameter", "optional_parameter", "rest_pattern", "object_pattern", "array_pattern", "assignment_pattern":
			count++
		}
	}
	return count
}

func (e *JavaScriptExtractor) computeComplexity(body *sitter.Node, depth int) (branches int, maxDepth int) {
	if body == nil {
		return 0, depth
	}

	maxDepth = depth
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		childDepth := depth

		switch child.Kind() {
		case "if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_case", "catch_clause", "ternary_expression":
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

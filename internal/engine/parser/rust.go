package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type RustExtractor struct{}

func (e *RustExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:      filePath,
		Language:  "rust",
		ModuleDoc: hasTopComment(source, "//!", "//"),
		ParsedAt:  time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"use_declaration": e.extractUse,
		"mod_item":        e.extractMod,
		"function_item":   e.extractFunction,
		"struct_item":     e.extractStruct,
		"enum_item":       e.extractStruct,
		"trait_item":      e.extractTrait,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *RustExtractor) extractUse(ctx *ExtractionContext, node *sitter.Node) bool {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return true
	}
	e.collectUsePaths(ctx, node, arg, "")
	return true
}

// collectUsePaths flattens `use a::{b, c::d}` into one import per leaf path.
func (e *RustExtractor) collectUsePaths(ctx *ExtractionContext, decl, node *sitter.Node, prefix string) {
	switch node.Kind() {
	case "scoped_use_list", "use_wildcard":
		pathNode := node.ChildByFieldName("path")
		newPrefix := prefix
		if pathNode != nil {
			newPrefix = joinRustPath(prefix, ctx.Text(pathNode))
		}
		if node.Kind() == "use_wildcard" {
			e.appendUse(ctx, decl, newPrefix)
			return
		}
		if list := node.ChildByFieldName("list"); list != nil {
			for i := uint(0); i < list.ChildCount(); i++ {
				child := list.Child(i)
				if child.Kind() == "," || child.Kind() == "{" || child.Kind() == "}" {
					continue
				}
				e.collectUsePaths(ctx, decl, child, newPrefix)
			}
		}
	case "use_as_clause":
		if pathNode := node.ChildByFieldName("path"); pathNode != nil {
			e.appendUse(ctx, decl, joinRustPath(prefix, ctx.Text(pathNode)))
		}
	case "scoped_identifier", "identifier", "crate", "self", "super":
		e.appendUse(ctx, decl, joinRustPath(prefix, ctx.Text(node)))
	default:
		for i := uint(0); i < node.ChildCount(); i++ {
			e.collectUsePaths(ctx, decl, node.Child(i), prefix)
		}
	}
}

func (e *RustExtractor) appendUse(ctx *ExtractionContext, decl *sitter.Node, path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	ctx.File.Imports = append(ctx.File.Imports, Import{
		Module:     path,
		RawImport:  path,
		IsRelative: strings.HasPrefix(path, "self::") || strings.HasPrefix(path, "super::"),
		Location:   ctx.Location(decl),
	})
}

func joinRustPath(prefix, part string) string {
	part = strings.TrimSpace(part)
	if prefix == "" {
		return part
	}
	if part == "" {
		return prefix
	}
	return prefix + "::" + part
}

func (e *RustExtractor) extractMod(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return false
	}
	// `mod foo;` without a body declares a child file module: a dependency.
	if node.ChildByFieldName("body") == nil {
		ctx.File.Imports = append(ctx.File.Imports, Import{
			Module:     "self::" + name,
			RawImport:  name,
			IsRelative: true,
			Location:   ctx.Location(node),
		})
		return true
	}
	return false
}

func (e *RustExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return true
	}

	params := node.ChildByFieldName("parameters")
	paramCount := e.countParameters(params)
	branches, nesting := e.computeComplexity(node.ChildByFieldName("body"), 0)
	loc := NodeLOC(node)

	kind := KindFunction
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "impl_item" || p.Kind() == "trait_item" {
			kind = KindMethod
			break
		}
	}

	paramsText := "()"
	if params != nil {
		paramsText = ctx.Text(params)
	}

	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:            name,
		FullName:        name,
		Kind:            kind,
		Exported:        e.isPub(ctx, node),
		HasDoc:          hasDocAbove(ctx.Source, node, "///", "//"),
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

func (e *RustExtractor) extractStruct(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractTypeDecl(ctx, node, KindType)
	return true
}

func (e *RustExtractor) extractTrait(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractTypeDecl(ctx, node, KindInterface)
	return false
}

func (e *RustExtractor) extractTypeDecl(ctx *ExtractionContext, node *sitter.Node, kind DefinitionKind) {
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}
	ctx.File.Definitions = append(ctx.File.Definitions, Definition{
		Name:      name,
		FullName:  name,
		Kind:      kind,
		Exported:  e.isPub(ctx, node),
		HasDoc:    hasDocAbove(ctx.Source, node, "///", "//"),
		Signature: name,
		LOC:       NodeLOC(node),
		Location:  ctx.Location(node),
	})
}

func (e *RustExtractor) isPub(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "visibility_modifier" {
			return true
		}
	}
	return false
}

func (e *RustExtractor) countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < params.ChildCount(); i++ {
		switch params.Child(i).Kind() {
		case "parameter", "self_parameter":
			count++
		}
	}
	return count
}

func (e *RustExtractor) computeComplexity(body *sitter.Node, depth int) (branches int, maxDepth int) {
	if body == nil {
		return 0, depth
	}

	maxDepth = depth
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		childDepth := depth

		switch child.Kind() {
		case "if_expression", "for_expression", "while_expression", "loop_expression", "match_expression", "match_arm":
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

package parser

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// CSSExtractor reads @import statements. Stylesheets have no definitions worth
// tracking, only dependencies between files.
type CSSExtractor struct{}

func (e *CSSExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		Language: "css",
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement": e.extractImport,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *CSSExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "string_value":
			e.appendImport(ctx, node, trimQuoted(ctx.Text(child)))
			return true
		case "call_expression":
			// @import url("x.css")
			for j := uint(0); j < child.ChildCount(); j++ {
				arg := child.Child(j)
				if arg.Kind() == "arguments" {
					e.appendImport(ctx, node, trimQuoted(ctx.Text(arg)))
					return true
				}
			}
		}
	}
	return true
}

func (e *CSSExtractor) appendImport(ctx *ExtractionContext, node *sitter.Node, module string) {
	module = trimQuoted(module)
	if module == "" {
		return
	}
	ctx.File.Imports = append(ctx.File.Imports, Import{
		Module:    module,
		RawImport: module,
		Location:  ctx.Location(node),
	})
}

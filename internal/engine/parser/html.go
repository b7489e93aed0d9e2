package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// HTMLExtractor reads <script src> and <link href> references.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		Language: "html",
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"element":        e.extractElement,
		"script_element": e.extractElement,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *HTMLExtractor) extractElement(ctx *ExtractionContext, node *sitter.Node) bool {
	tag := e.startTag(node)
	if tag == nil {
		return false
	}

	tagName := ""
	for i := uint(0); i < tag.ChildCount(); i++ {
		if tag.Child(i).Kind() == "tag_name" {
			tagName = strings.ToLower(ctx.Text(tag.Child(i)))
			break
		}
	}

	var wantAttr string
	switch tagName {
	case "script":
		wantAttr = "src"
	case "link":
		wantAttr = "href"
	default:
		return false
	}

	if ref := e.attributeValue(ctx, tag, wantAttr); ref != "" {
		ctx.File.Imports = append(ctx.File.Imports, Import{
			Module:    ref,
			RawImport: ref,
			Location:  ctx.Location(node),
		})
	}
	return false
}

func (e *HTMLExtractor) startTag(node *sitter.Node) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "start_tag" || child.Kind() == "self_closing_tag" {
			return child
		}
	}
	return nil
}

func (e *HTMLExtractor) attributeValue(ctx *ExtractionContext, tag *sitter.Node, name string) string {
	for i := uint(0); i < tag.ChildCount(); i++ {
		attr := tag.Child(i)
		if attr.Kind() != "attribute" {
			continue
		}
		attrName := ""
		attrValue := ""
		for j := uint(0); j < attr.ChildCount(); j++ {
			child := attr.Child(j)
			switch child.Kind() {
			case "attribute_name":
				attrName = strings.ToLower(ctx.Text(child))
			case "quoted_attribute_value", "attribute_value":
				attrValue = trimQuoted(ctx.Text(child))
			}
		}
		if attrName == name {
			return attrValue
		}
	}
	return ""
}

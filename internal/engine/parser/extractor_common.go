package parser

import (
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func trimQuoted(value string) string {
	value = strings.TrimSpace(value)
	return strings.Trim(value, "\"'`")
}

func isExportedName(name string) bool {
	if name == "" {
		return false
	}
	first := rune(name[0])
	return unicode.IsUpper(first)
}

// complexityScore combines the heuristic metrics into one score, min 1.
func complexityScore(branches, nesting, params, loc int) int {
	score := (branches * 2) + (nesting * 2) + params + (loc / 10)
	if score < 1 {
		score = 1
	}
	return score
}

// sourceLines counts physical lines in the source, at least 1 for non-empty
// content.
func sourceLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	lines := 1
	for _, b := range source {
		if b == '\n' {
			lines++
		}
	}
	if source[len(source)-1] == '\n' {
		lines--
	}
	if lines < 1 {
		lines = 1
	}
	return lines
}

// hasDocAbove reports whether the line directly above the node starts with one
// of the given comment markers. Text-based on purpose: sibling shapes differ
// per grammar, the layout convention does not.
func hasDocAbove(source []byte, node *sitter.Node, markers ...string) bool {
	if node == nil {
		return false
	}
	row := int(node.StartPosition().Row)
	if row == 0 {
		return false
	}
	line := strings.TrimSpace(lineAt(source, row-1))
	for _, marker := range markers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

// hasTopComment reports whether the file opens with one of the given comment
// markers, optionally below a shebang line.
func hasTopComment(source []byte, markers ...string) bool {
	for row := 0; row < 2; row++ {
		line := strings.TrimSpace(lineAt(source, row))
		if row == 0 && strings.HasPrefix(line, "#!") {
			continue
		}
		for _, marker := range markers {
			if strings.HasPrefix(line, marker) {
				return true
			}
		}
		return false
	}
	return false
}

func lineAt(source []byte, row int) string {
	start := 0
	for row > 0 {
		idx := indexByte(source, start, '\n')
		if idx < 0 {
			return ""
		}
		start = idx + 1
		row--
	}
	end := indexByte(source, start, '\n')
	if end < 0 {
		end = len(source)
	}
	return string(source[start:end])
}

func indexByte(source []byte, from int, b byte) int {
	for i := from; i < len(source); i++ {
		if source[i] == b {
			return i
		}
	}
	return -1
}

package parser

// DefaultExtractorForLanguage maps a registry language id to its built-in
// extractor.
func DefaultExtractorForLanguage(lang string) (Extractor, bool) {
	switch lang {
	case "css":
		return &CSSExtractor{}, true
	case "go":
		return &GoExtractor{}, true
	case "html":
		return &HTMLExtractor{}, true
	case "java":
		return &JavaExtractor{}, true
	case "javascript", "typescript", "tsx":
		return &JavaScriptExtractor{Language: lang}, true
	case "python":
		return &PythonExtractor{}, true
	case "rust":
		return &RustExtractor{}, true
	}
	return nil, false
}

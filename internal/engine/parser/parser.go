package parser

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"archlens/internal/core/errors"
	"archlens/internal/shared/observability"
	"archlens/internal/shared/util"
)

type Parser struct {
	loader       *GrammarLoader
	pools        map[string]*ParserPool
	extractors   map[string]Extractor // language -> extractor
	extensions   map[string]string
	filenames    map[string]string
	testSuffixes []string
	testPrefixes []string
}

type Extractor interface {
	Extract(node *sitter.Node, source []byte, filePath string) (*File, error)
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		pools:      make(map[string]*ParserPool),
		extractors: make(map[string]Extractor),
		extensions: make(map[string]string),
		filenames:  make(map[string]string),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
		for _, name := range spec.Filenames {
			p.filenames[strings.ToLower(path.Base(name))] = lang
		}
		p.testSuffixes = append(p.testSuffixes, spec.TestFileSuffixes...)
		p.testPrefixes = append(p.testPrefixes, spec.TestFilePrefixes...)
		if grammar := loader.Language(lang); grammar != nil {
			p.pools[lang] = NewParserPool(grammar)
		}
	}
	p.testSuffixes = util.UniqueSorted(p.testSuffixes)
	p.testPrefixes = util.UniqueSorted(p.testPrefixes)
	return p
}

func (p *Parser) RegisterExtractor(lang string, e Extractor) {
	p.extractors[lang] = e
}

func (p *Parser) RegisterDefaultExtractors() error {
	for lang, spec := range p.loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		extractor, ok := DefaultExtractorForLanguage(lang)
		if !ok {
			return errors.Newf(errors.CodeNotSupported, "no default extractor for enabled language: %s", lang)
		}
		p.RegisterExtractor(lang, extractor)
	}
	return nil
}

func (p *Parser) ParseFile(filePath string, content []byte) (*File, error) {
	lang := p.detectLanguage(filePath)
	if lang == "" {
		return nil, errors.New(errors.CodeNotSupported, "unsupported language")
	}

	extractor := p.extractors[lang]
	if extractor == nil {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("no extractor for: %s", lang))
	}

	pool := p.pools[lang]
	if pool == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	start := time.Now()
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "parse failed"), errors.CtxPath, filePath)
	}
	defer tree.Close()

	file, err := extractor.Extract(tree.RootNode(), content, filePath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "extraction failed")
	}
	file.LOC = sourceLines(content)
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	return file, nil
}

func (p *Parser) detectLanguage(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if lang, ok := p.filenames[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := p.extensions[ext]; ok {
		return lang
	}
	return ""
}

func (p *Parser) IsSupportedPath(filePath string) bool {
	return p.GetLanguage(filePath) != ""
}

func (p *Parser) GetLanguage(path string) string {
	return p.detectLanguage(path)
}

func (p *Parser) IsTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, suffix := range p.testSuffixes {
		if strings.HasSuffix(base, strings.ToLower(suffix)) {
			return true
		}
	}
	for _, prefix := range p.testPrefixes {
		if strings.HasPrefix(base, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(p.extensions)
}

func (p *Parser) SupportedFilenames() []string {
	return util.SortedStringKeys(p.filenames)
}

func (p *Parser) SupportedTestFileSuffixes() []string {
	out := make([]string, len(p.testSuffixes))
	copy(out, p.testSuffixes)
	return out
}

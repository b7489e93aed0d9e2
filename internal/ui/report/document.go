package report

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"

	"archlens/internal/core/errors"
	"archlens/internal/core/ports"
)

// Document is the serializable shape of a composite report, shared by the
// JSON and YAML renderers.
type Document struct {
	Project     string    `json:"project" yaml:"project"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	Graph    GraphDoc     `json:"graph" yaml:"graph"`
	Fitness  *FitnessDoc  `json:"fitness,omitempty" yaml:"fitness,omitempty"`
	Patterns *PatternsDoc `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Trend    []TrendDoc   `json:"trend,omitempty" yaml:"trend,omitempty"`
}

type GraphDoc struct {
	Root     string      `json:"root" yaml:"root"`
	Files    int         `json:"files" yaml:"files"`
	Modules  []ModuleDoc `json:"modules" yaml:"modules"`
	Edges    []EdgeDoc   `json:"edges" yaml:"edges"`
	Cycles   []CycleDoc  `json:"cycles" yaml:"cycles"`
	Roots    []string    `json:"roots,omitempty" yaml:"roots,omitempty"`
	Leaves   []string    `json:"leaves,omitempty" yaml:"leaves,omitempty"`
	Hotspots []string    `json:"hotspots,omitempty" yaml:"hotspots,omitempty"`
	MaxDepth int         `json:"max_depth" yaml:"max_depth"`
}

type ModuleDoc struct {
	Name        string  `json:"name" yaml:"name"`
	Language    string  `json:"language,omitempty" yaml:"language,omitempty"`
	Files       int     `json:"files" yaml:"files"`
	LOC         int     `json:"loc" yaml:"loc"`
	FanIn       int     `json:"fan_in" yaml:"fan_in"`
	FanOut      int     `json:"fan_out" yaml:"fan_out"`
	Instability float64 `json:"instability" yaml:"instability"`
	Band        string  `json:"band" yaml:"band"`
	Depth       int     `json:"depth" yaml:"depth"`
	External    bool    `json:"external,omitempty" yaml:"external,omitempty"`
}

type EdgeDoc struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

type CycleDoc struct {
	Modules    []string `json:"modules" yaml:"modules"`
	Severity   string   `json:"severity" yaml:"severity"`
	Suggestion string   `json:"suggestion" yaml:"suggestion"`
}

type FitnessDoc struct {
	Preset          string         `json:"preset" yaml:"preset"`
	ComplianceScore float64        `json:"compliance_score" yaml:"compliance_score"`
	Passing         bool           `json:"passing" yaml:"passing"`
	Passed          int            `json:"passed" yaml:"passed"`
	Errors          int            `json:"errors" yaml:"errors"`
	Warnings        int            `json:"warnings" yaml:"warnings"`
	Infos           int            `json:"infos" yaml:"infos"`
	Violations      []ViolationDoc `json:"violations" yaml:"violations"`
}

type ViolationDoc struct {
	Policy  string `json:"policy" yaml:"policy"`
	Level   string `json:"level" yaml:"level"`
	Message string `json:"message" yaml:"message"`
	Module  string `json:"module,omitempty" yaml:"module,omitempty"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

type PatternsDoc struct {
	Primary         string     `json:"primary,omitempty" yaml:"primary,omitempty"`
	Matches         []MatchDoc `json:"matches" yaml:"matches"`
	Recommendations []string   `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

type MatchDoc struct {
	Pattern    string   `json:"pattern" yaml:"pattern"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Band       string   `json:"band" yaml:"band"`
	Evidence   []string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Violations []string `json:"violations,omitempty" yaml:"violations,omitempty"`
	Notes      []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type TrendDoc struct {
	AnalysisID string    `json:"analysis_id" yaml:"analysis_id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Modules    int       `json:"modules" yaml:"modules"`
	Edges      int       `json:"edges" yaml:"edges"`
	Cycles     int       `json:"cycles" yaml:"cycles"`
	Score      *float64  `json:"score,omitempty" yaml:"score,omitempty"`
}

// BuildDocument flattens a composite report into its serializable form. All
// slices follow the snapshot's sorted order, so output is reproducible.
func BuildDocument(project string, rep *ports.Report) *Document {
	analysis := rep.Analysis
	doc := &Document{
		Project:     project,
		GeneratedAt: analysis.CreatedAt,
		Graph: GraphDoc{
			Root:     analysis.Root,
			Files:    analysis.FileCount,
			Roots:    analysis.Roots,
			Leaves:   analysis.Leaves,
			Hotspots: analysis.Hotspots,
			MaxDepth: analysis.MaxDepth,
		},
	}

	for _, name := range analysis.Graph.ModuleNames() {
		mod := analysis.Graph.Modules[name]
		m := analysis.Metrics[name]
		doc.Graph.Modules = append(doc.Graph.Modules, ModuleDoc{
			Name:        name,
			Language:    mod.Language,
			Files:       len(mod.Files),
			LOC:         mod.LOC,
			FanIn:       m.FanIn,
			FanOut:      m.FanOut,
			Instability: m.Instability,
			Band:        string(m.Band),
			Depth:       m.Depth,
			External:    mod.External,
		})
	}
	for _, edge := range analysis.Graph.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, EdgeDoc{From: edge.From, To: edge.To, File: edge.File, Line: edge.Line})
	}
	for _, cycle := range analysis.Cycles {
		doc.Graph.Cycles = append(doc.Graph.Cycles, CycleDoc{
			Modules:    cycle.Modules,
			Severity:   string(cycle.Severity),
			Suggestion: cycle.Suggestion,
		})
	}

	if rep.Fitness != nil {
		fit := &FitnessDoc{
			Preset:          rep.Fitness.Preset,
			ComplianceScore: rep.Fitness.ComplianceScore,
			Passing:         rep.Fitness.IsPassing(),
			Passed:          rep.Fitness.PassedCount,
			Errors:          rep.Fitness.ErrorCount,
			Warnings:        rep.Fitness.WarningCount,
			Infos:           rep.Fitness.InfoCount,
		}
		for _, v := range rep.Fitness.Violations {
			fit.Violations = append(fit.Violations, ViolationDoc{
				Policy:  v.PolicyID,
				Level:   string(v.Level),
				Message: v.Message,
				Module:  v.Module,
				File:    v.File,
				Line:    v.Line,
			})
		}
		doc.Fitness = fit
	}

	if rep.Patterns != nil {
		pat := &PatternsDoc{Recommendations: rep.Patterns.Recommendations}
		if rep.Patterns.Primary != nil {
			pat.Primary = string(rep.Patterns.Primary.Pattern)
		}
		for _, m := range rep.Patterns.Matches {
			pat.Matches = append(pat.Matches, MatchDoc{
				Pattern:    string(m.Pattern),
				Confidence: m.Confidence,
				Band:       string(m.Band),
				Evidence:   m.Evidence,
				Violations: m.Violations,
				Notes:      m.Notes,
			})
		}
		doc.Patterns = pat
	}

	for _, entry := range rep.Trend {
		td := TrendDoc{
			AnalysisID: entry.Analysis.ID,
			CreatedAt:  entry.Analysis.CreatedAt,
			Modules:    entry.Analysis.Modules,
			Edges:      entry.Analysis.Edges,
			Cycles:     entry.Analysis.Cycles,
		}
		if entry.Fitness != nil {
			score := entry.Fitness.Score
			td.Score = &score
		}
		doc.Trend = append(doc.Trend, td)
	}

	return doc
}

// RenderJSON serializes a document with two-space indentation.
func RenderJSON(doc *Document) ([]byte, error) {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode json report")
	}
	return append(body, '\n'), nil
}

// RenderYAML serializes a document as YAML.
func RenderYAML(doc *Document) ([]byte, error) {
	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode yaml report")
	}
	return body, nil
}

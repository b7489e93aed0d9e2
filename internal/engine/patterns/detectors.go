package patterns

import (
	"context"
	"fmt"
)

type PatternID string

const (
	PatternHexagonal PatternID = "hexagonal"
	PatternDDD       PatternID = "ddd"
	PatternLayered   PatternID = "layered"
	PatternCQRS      PatternID = "cqrs"
	PatternMVC       PatternID = "mvc"
)

// Detector scores one architecture pattern against a layout. Lower Priority
// wins confidence ties.
type Detector struct {
	ID       PatternID
	Priority int
	Detect   func(ctx context.Context, layout *Layout) (Match, error)
}

// DefaultDetectors returns the built-in detector table in priority order.
func DefaultDetectors() []Detector {
	return []Detector{
		{ID: PatternHexagonal, Priority: 1, Detect: detectHexagonal},
		{ID: PatternDDD, Priority: 2, Detect: detectDDD},
		{ID: PatternLayered, Priority: 3, Detect: detectLayered},
		{ID: PatternCQRS, Priority: 4, Detect: detectCQRS},
		{ID: PatternMVC, Priority: 5, Detect: detectMVC},
	}
}

type evidenceBuilder struct {
	match Match
}

func (b *evidenceBuilder) dir(layout *Layout, weight float64, names ...string) {
	name, ok := layout.FindDir(names...)
	if !ok {
		return
	}
	b.match.Confidence += weight
	b.match.Evidence = append(b.match.Evidence, fmt.Sprintf("directory %q present", name))
}

func (b *evidenceBuilder) violations(layout *Layout, penalty float64, format string, fromDirs, toDirs []string) {
	for _, edge := range layout.EdgesBetween(fromDirs, toDirs) {
		b.match.Confidence -= penalty
		b.match.Violations = append(b.match.Violations, fmt.Sprintf(format, edge.From, edge.To))
	}
}

func (b *evidenceBuilder) done(id PatternID) Match {
	b.match.Pattern = id
	if b.match.Confidence < 0 {
		b.match.Confidence = 0
	}
	if b.match.Confidence > 1 {
		b.match.Confidence = 1
	}
	return b.match
}

var (
	hexDomainDirs  = []string{"domain", "core"}
	hexPortDirs    = []string{"ports", "port"}
	hexAdapterDirs = []string{"adapters", "adapter", "infrastructure", "infra"}
)

func detectHexagonal(_ context.Context, layout *Layout) (Match, error) {
	var b evidenceBuilder
	b.dir(layout, 0.30, hexDomainDirs...)
	b.dir(layout, 0.30, hexPortDirs...)
	b.dir(layout, 0.25, hexAdapterDirs...)
	b.dir(layout, 0.15, "application", "usecases", "app")
	b.violations(layout, 0.10, "domain module %s imports adapter %s", hexDomainDirs, hexAdapterDirs)
	return b.done(PatternHexagonal), nil
}

func detectDDD(_ context.Context, layout *Layout) (Match, error) {
	var b evidenceBuilder
	b.dir(layout, 0.30, "domain")
	b.dir(layout, 0.20, "entities", "aggregates", "model")
	b.dir(layout, 0.20, "repositories", "repository")
	b.dir(layout, 0.15, "valueobjects", "value_objects")
	b.dir(layout, 0.15, "services", "application")
	b.violations(layout, 0.10, "domain module %s imports infrastructure %s",
		[]string{"domain"}, []string{"infrastructure", "persistence"})
	return b.done(PatternDDD), nil
}

var layeredOrder = [][]string{
	{"domain", "business", "core", "model", "models"},
	{"infrastructure", "persistence", "data", "repository", "repositories"},
	{"application", "service", "services", "usecase", "usecases"},
	{"presentation", "api", "ui", "web", "handlers"},
}

func detectLayered(_ context.Context, layout *Layout) (Match, error) {
	var b evidenceBuilder
	present := 0
	for _, layer := range layeredOrder {
		if name, ok := layout.FindDir(layer...); ok {
			present++
			b.match.Confidence += 0.25
			b.match.Evidence = append(b.match.Evidence, fmt.Sprintf("layer directory %q present", name))
		}
	}
	if present >= 2 {
		// Lower layers importing higher layers break the stack.
		for i := 0; i < len(layeredOrder); i++ {
			for j := i + 1; j < len(layeredOrder); j++ {
				b.violations(layout, 0.10, "lower layer module %s imports upper layer %s", layeredOrder[i], layeredOrder[j])
			}
		}
	}
	return b.done(PatternLayered), nil
}

func detectCQRS(_ context.Context, layout *Layout) (Match, error) {
	var b evidenceBuilder
	b.dir(layout, 0.35, "commands", "command")
	b.dir(layout, 0.35, "queries", "query")
	b.dir(layout, 0.15, "handlers")
	b.dir(layout, 0.15, "events")
	b.violations(layout, 0.10, "command module %s imports query module %s",
		[]string{"commands", "command"}, []string{"queries", "query"})
	b.violations(layout, 0.10, "query module %s imports command module %s",
		[]string{"queries", "query"}, []string{"commands", "command"})
	return b.done(PatternCQRS), nil
}

func detectMVC(_ context.Context, layout *Layout) (Match, error) {
	var b evidenceBuilder
	b.dir(layout, 0.30, "models", "model")
	b.dir(layout, 0.30, "views", "view", "templates")
	b.dir(layout, 0.30, "controllers", "controller", "handlers")
	b.dir(layout, 0.10, "static", "assets")
	b.violations(layout, 0.10, "model %s imports view %s",
		[]string{"models", "model"}, []string{"views", "view", "templates"})
	b.violations(layout, 0.10, "model %s imports controller %s",
		[]string{"models", "model"}, []string{"controllers", "controller"})
	return b.done(PatternMVC), nil
}

// Tip is the pattern-specific advice attached to clean high-confidence
// matches.
func Tip(id PatternID) string {
	switch id {
	case PatternHexagonal:
		return "keep ports free of framework types so adapters stay swappable"
	case PatternDDD:
		return "keep aggregates small and reference other aggregates by id"
	case PatternLayered:
		return "depend strictly downward; introduce interfaces where a lower layer needs callbacks"
	case PatternCQRS:
		return "keep command and query models separate; share only primitive contracts"
	case PatternMVC:
		return "keep models free of view and controller imports"
	default:
		return ""
	}
}

package fitness

import (
	"fmt"
	"strings"

	"archlens/internal/core/config"
	"archlens/internal/core/errors"
	"archlens/internal/engine/graph"
)

type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarning Level = "WARNING"
	LevelInfo    Level = "INFO"
)

// ValidatorKind is the closed set of checks the engine knows how to run.
type ValidatorKind string

const (
	KindNoCycles        ValidatorKind = "no_cycles"
	KindLayering        ValidatorKind = "layering"
	KindMaxComplexity   ValidatorKind = "max_complexity"
	KindMaxFunctionLOC  ValidatorKind = "max_function_loc"
	KindMaxFileLOC      ValidatorKind = "max_file_loc"
	KindMaintainability ValidatorKind = "maintainability"
	KindMaxCoupling     ValidatorKind = "max_coupling"
	KindMaxDepth        ValidatorKind = "max_depth"
	KindDocstrings      ValidatorKind = "docstrings"
)

// Thresholds carries per-policy tuning. Values holds the numeric knobs;
// the structured fields only apply to the validators that read them.
type Thresholds struct {
	Values      map[string]float64
	Layers      []config.Layer
	AllowSkip   bool
	MinSeverity graph.CycleSeverity
	Granularity string
}

// Value returns a numeric threshold with a fallback.
func (t Thresholds) Value(key string, fallback float64) float64 {
	if v, ok := t.Values[key]; ok {
		return v
	}
	return fallback
}

func (t Thresholds) withValue(key string, v float64) Thresholds {
	values := make(map[string]float64, len(t.Values)+1)
	for k, old := range t.Values {
		values[k] = old
	}
	values[key] = v
	t.Values = values
	return t
}

type Policy struct {
	ID          string
	Name        string
	Description string
	Level       Level
	Validator   ValidatorKind
	Enabled     bool
	Tags        []string
	Thresholds  Thresholds
}

// DefaultPolicies is the balanced baseline every preset transforms.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			ID:          "NO_CYCLES",
			Name:        "No circular dependencies",
			Description: "Modules must not form import cycles",
			Level:       LevelError,
			Validator:   KindNoCycles,
			Enabled:     true,
			Tags:        []string{"structure"},
			Thresholds:  Thresholds{MinSeverity: graph.SeverityLow},
		},
		{
			ID:          "LAYERING",
			Name:        "Layer dependencies point downward",
			Description: "Foundational layers must not import higher layers",
			Level:       LevelError,
			Validator:   KindLayering,
			Enabled:     true,
			Tags:        []string{"structure"},
			Thresholds:  Thresholds{AllowSkip: true},
		},
		{
			ID:          "MAX_COMPLEXITY",
			Name:        "Bounded function complexity",
			Description: "Functions must stay below the complexity ceiling",
			Level:       LevelWarning,
			Validator:   KindMaxComplexity,
			Enabled:     true,
			Tags:        []string{"quality"},
			Thresholds:  Thresholds{Values: map[string]float64{"max": 15}},
		},
		{
			ID:          "MAX_FUNCTION_LOC",
			Name:        "Bounded function length",
			Description: "Functions must stay below the line ceiling",
			Level:       LevelWarning,
			Validator:   KindMaxFunctionLOC,
			Enabled:     true,
			Tags:        []string{"quality"},
			Thresholds:  Thresholds{Values: map[string]float64{"max": 60}},
		},
		{
			ID:          "MAX_FILE_LOC",
			Name:        "Bounded file length",
			Description: "Files must stay below the line ceiling",
			Level:       LevelWarning,
			Validator:   KindMaxFileLOC,
			Enabled:     true,
			Tags:        []string{"quality"},
			Thresholds:  Thresholds{Values: map[string]float64{"max": 400}},
		},
		{
			ID:          "MAINTAINABILITY",
			Name:        "Maintainability floor",
			Description: "Files must keep a maintainability index above the floor",
			Level:       LevelWarning,
			Validator:   KindMaintainability,
			Enabled:     true,
			Tags:        []string{"quality"},
			Thresholds:  Thresholds{Values: map[string]float64{"min": 65}},
		},
		{
			ID:          "MAX_COUPLING",
			Name:        "Bounded instability",
			Description: "Connected modules must not be almost purely outgoing",
			Level:       LevelWarning,
			Validator:   KindMaxCoupling,
			Enabled:     true,
			Tags:        []string{"structure"},
			Thresholds:  Thresholds{Values: map[string]float64{"max": 0.8, "min_dependencies": 3}},
		},
		{
			ID:          "MAX_DEPTH",
			Name:        "Bounded dependency depth",
			Description: "The longest dependency chain must stay below the ceiling",
			Level:       LevelWarning,
			Validator:   KindMaxDepth,
			Enabled:     true,
			Tags:        []string{"structure"},
			Thresholds:  Thresholds{Values: map[string]float64{"max": 6}},
		},
		{
			ID:          "DOCSTRINGS",
			Name:        "Public API documentation",
			Description: "Modules and exported callables should be documented",
			Level:       LevelInfo,
			Validator:   KindDocstrings,
			Enabled:     true,
			Tags:        []string{"docs"},
			Thresholds:  Thresholds{Granularity: "all"},
		},
	}
}

// ApplyPreset transforms the default set in place. Presets only touch
// levels, thresholds and enablement; they never invent policies.
func ApplyPreset(policies []Policy, preset string) ([]Policy, error) {
	switch preset {
	case "", "balanced":
		return policies, nil
	case "strict":
		for i := range policies {
			p := &policies[i]
			switch p.ID {
			case "MAX_COMPLEXITY":
				p.Level = LevelError
				p.Thresholds = p.Thresholds.withValue("max", 10)
			case "MAX_FUNCTION_LOC":
				p.Level = LevelError
				p.Thresholds = p.Thresholds.withValue("max", 50)
			case "MAX_FILE_LOC":
				p.Level = LevelError
				p.Thresholds = p.Thresholds.withValue("max", 300)
			case "MAINTAINABILITY":
				p.Level = LevelError
				p.Thresholds = p.Thresholds.withValue("min", 70)
			case "MAX_COUPLING":
				p.Level = LevelError
				p.Thresholds = p.Thresholds.withValue("max", 0.7)
			case "MAX_DEPTH":
				p.Level = LevelError
				p.Thresholds = p.Thresholds.withValue("max", 5)
			case "DOCSTRINGS":
				p.Level = LevelWarning
			}
		}
		return policies, nil
	case "lenient":
		for i := range policies {
			p := &policies[i]
			switch p.ID {
			case "NO_CYCLES", "LAYERING":
				// Structural errors stay errors.
			case "MAX_COMPLEXITY":
				p.Level = LevelInfo
				p.Thresholds = p.Thresholds.withValue("max", 25)
			case "MAX_FUNCTION_LOC":
				p.Level = LevelInfo
				p.Thresholds = p.Thresholds.withValue("max", 120)
			case "MAX_FILE_LOC":
				p.Level = LevelInfo
				p.Thresholds = p.Thresholds.withValue("max", 800)
			case "MAINTAINABILITY":
				p.Level = LevelInfo
				p.Thresholds = p.Thresholds.withValue("min", 50)
			case "MAX_COUPLING", "MAX_DEPTH":
				p.Level = LevelInfo
			case "DOCSTRINGS":
				p.Enabled = false
			}
		}
		return policies, nil
	case "startup":
		for i := range policies {
			p := &policies[i]
			switch p.ID {
			case "NO_CYCLES":
				p.Level = LevelWarning
			case "LAYERING", "DOCSTRINGS", "MAINTAINABILITY":
				p.Enabled = false
			case "MAX_COMPLEXITY":
				p.Level = LevelWarning
				p.Thresholds = p.Thresholds.withValue("max", 20)
			case "MAX_FUNCTION_LOC", "MAX_FILE_LOC", "MAX_COUPLING", "MAX_DEPTH":
				p.Level = LevelInfo
			}
		}
		return policies, nil
	case "security_focused":
		for i := range policies {
			p := &policies[i]
			switch p.ID {
			case "MAX_COUPLING":
				p.Level = LevelError
				p.Thresholds = p.Thresholds.withValue("max", 0.7)
			case "MAX_DEPTH":
				p.Level = LevelWarning
			case "MAX_FUNCTION_LOC", "MAX_FILE_LOC", "DOCSTRINGS":
				p.Enabled = false
			}
		}
		return policies, nil
	default:
		return nil, errors.Newf(errors.CodeConfig, "unknown fitness preset %q", preset)
	}
}

// BuildPolicies assembles the effective policy set from configuration:
// defaults, then the preset transform, then explicit per-policy overrides.
func BuildPolicies(cfg config.Fitness) ([]Policy, error) {
	policies, err := ApplyPreset(DefaultPolicies(), cfg.Preset)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Policy, len(policies))
	for i := range policies {
		byID[policies[i].ID] = &policies[i]
	}

	for _, id := range cfg.Disable {
		p, ok := byID[strings.ToUpper(id)]
		if !ok {
			return nil, errors.Newf(errors.CodeConfig, "unknown policy %q in fitness.disable", id)
		}
		p.Enabled = false
	}
	for _, id := range cfg.Enable {
		p, ok := byID[strings.ToUpper(id)]
		if !ok {
			return nil, errors.Newf(errors.CodeConfig, "unknown policy %q in fitness.enable", id)
		}
		p.Enabled = true
	}
	for id, level := range cfg.Levels {
		p, ok := byID[strings.ToUpper(id)]
		if !ok {
			return nil, errors.Newf(errors.CodeConfig, "unknown policy %q in fitness.levels", id)
		}
		p.Level = Level(strings.ToUpper(level))
	}
	for key, value := range cfg.Thresholds {
		id, name, found := strings.Cut(key, ".")
		if !found {
			return nil, errors.Newf(errors.CodeConfig, "fitness threshold %q must be POLICY.key", key)
		}
		p, ok := byID[strings.ToUpper(id)]
		if !ok {
			return nil, errors.Newf(errors.CodeConfig, "unknown policy %q in fitness.thresholds", id)
		}
		p.Thresholds = p.Thresholds.withValue(name, value)
	}

	if len(cfg.Layers) > 0 {
		layering := byID["LAYERING"]
		layering.Thresholds.Layers = append([]config.Layer(nil), cfg.Layers...)
		if cfg.AllowSkip != nil {
			layering.Thresholds.AllowSkip = *cfg.AllowSkip
		}
	}

	return policies, nil
}

// EnabledIDs lists the ids of enabled policies, for logging.
func EnabledIDs(policies []Policy) string {
	var ids []string
	for _, p := range policies {
		if p.Enabled {
			ids = append(ids, p.ID)
		}
	}
	return fmt.Sprintf("%v", ids)
}

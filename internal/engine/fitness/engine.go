package fitness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"archlens/internal/engine/graph"
	"archlens/internal/shared/observability"
)

type Violation struct {
	PolicyID string
	Level    Level
	Message  string
	Module   string
	File     string
	Line     int
}

// EvalNote records a policy the engine could not evaluate normally.
type EvalNote struct {
	PolicyID string
	Status   string // "skipped" or "failed"
	Message  string
}

type Result struct {
	Preset          string
	EvaluatedAt     time.Time
	Violations      []Violation
	Notes           []EvalNote
	PassedCount     int
	WarningCount    int
	ErrorCount      int
	InfoCount       int
	ComplianceScore float64
}

// IsPassing reports whether the run produced no ERROR violations.
func (r *Result) IsPassing() bool {
	return r.ErrorCount == 0
}

// Validator checks one policy against a snapshot.
type Validator func(ctx context.Context, analysis *graph.Analysis, policy Policy) ([]Violation, error)

// Engine runs policies against an analysis snapshot. Validators are injected
// at construction so tests can swap them.
type Engine struct {
	preset     string
	validators map[ValidatorKind]Validator
}

func NewEngine(preset string) *Engine {
	return &Engine{preset: preset, validators: defaultValidators()}
}

func NewEngineWithValidators(preset string, validators map[ValidatorKind]Validator) *Engine {
	return &Engine{preset: preset, validators: validators}
}

// Run evaluates enabled policies in declaration order. A validator that
// errors or panics yields exactly one ERROR violation at its policy id;
// the remaining policies still run.
func (e *Engine) Run(ctx context.Context, analysis *graph.Analysis, policies []Policy) *Result {
	result := &Result{
		Preset:      e.preset,
		EvaluatedAt: time.Now(),
	}

	for _, policy := range policies {
		if !policy.Enabled {
			continue
		}

		validator, ok := e.validators[policy.Validator]
		if !ok {
			slog.Warn("no validator registered for policy", "policy", policy.ID, "kind", policy.Validator)
			result.Notes = append(result.Notes, EvalNote{
				PolicyID: policy.ID,
				Status:   "skipped",
				Message:  fmt.Sprintf("no validator registered for kind %q", policy.Validator),
			})
			continue
		}

		violations, err := e.runOne(ctx, validator, analysis, policy)
		if err != nil {
			slog.Warn("policy evaluation failed", "policy", policy.ID, "error", err)
			result.Notes = append(result.Notes, EvalNote{PolicyID: policy.ID, Status: "failed", Message: err.Error()})
			result.Violations = append(result.Violations, Violation{
				PolicyID: policy.ID,
				Level:    LevelError,
				Message:  fmt.Sprintf("policy evaluation failed: %v", err),
				Module:   policy.ID,
			})
			continue
		}

		if len(violations) == 0 {
			result.PassedCount++
		}
		result.Violations = append(result.Violations, violations...)
	}

	for _, v := range result.Violations {
		switch v.Level {
		case LevelError:
			result.ErrorCount++
		case LevelWarning:
			result.WarningCount++
		default:
			result.InfoCount++
		}
	}
	result.ComplianceScore = complianceScore(result.ErrorCount, result.WarningCount)

	observability.FitnessScore.Set(result.ComplianceScore)
	observability.FitnessViolations.WithLabelValues(string(LevelError)).Set(float64(result.ErrorCount))
	observability.FitnessViolations.WithLabelValues(string(LevelWarning)).Set(float64(result.WarningCount))
	observability.FitnessViolations.WithLabelValues(string(LevelInfo)).Set(float64(result.InfoCount))

	return result
}

func (e *Engine) runOne(ctx context.Context, validator Validator, analysis *graph.Analysis, policy Policy) (violations []Violation, err error) {
	defer func() {
		if r := recover(); r != nil {
			violations = nil
			err = fmt.Errorf("validator panicked: %v", r)
		}
	}()
	return validator(ctx, analysis, policy)
}

func complianceScore(errors, warnings int) float64 {
	score := 1.0 - 0.10*float64(errors) - 0.05*float64(warnings)
	if score < 0 {
		return 0
	}
	return score
}

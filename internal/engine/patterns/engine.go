package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"archlens/internal/engine/graph"
	"archlens/internal/shared/observability"
)

type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "High"
	BandMedium ConfidenceBand = "Medium"
	BandLow    ConfidenceBand = "Low"
)

func ClassifyConfidence(c float64) ConfidenceBand {
	switch {
	case c >= 0.7:
		return BandHigh
	case c >= 0.5:
		return BandMedium
	default:
		return BandLow
	}
}

type Match struct {
	Pattern    PatternID
	Confidence float64
	Band       ConfidenceBand
	Evidence   []string
	Violations []string
	Notes      []string
}

// Analysis always carries one match per registered detector, sorted by
// confidence, ties broken by detector priority.
type Analysis struct {
	DetectedAt      time.Time
	Threshold       float64
	Matches         []Match
	Primary         *Match
	Recommendations []string
}

// Engine runs the detector table against a snapshot. Detectors are injected
// at construction.
type Engine struct {
	detectors []Detector
	threshold float64
}

const DefaultThreshold = 0.5

func NewEngine(threshold float64) *Engine {
	return NewEngineWithDetectors(threshold, DefaultDetectors())
}

func NewEngineWithDetectors(threshold float64, detectors []Detector) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{detectors: detectors, threshold: threshold}
}

// Detect scores every pattern. A failing detector yields a zero-confidence
// match with a note; the others are unaffected.
func (e *Engine) Detect(ctx context.Context, snapshot *graph.Analysis) *Analysis {
	layout := NewLayout(snapshot)

	priority := make(map[PatternID]int, len(e.detectors))
	matches := make([]Match, 0, len(e.detectors))
	for _, detector := range e.detectors {
		priority[detector.ID] = detector.Priority

		match, err := e.runOne(ctx, detector, layout)
		if err != nil {
			slog.Warn("pattern detector failed", "pattern", detector.ID, "error", err)
			match = Match{
				Pattern: detector.ID,
				Notes:   []string{fmt.Sprintf("detector failed: %v", err)},
			}
		}
		match.Band = ClassifyConfidence(match.Confidence)
		matches = append(matches, match)

		observability.PatternConfidence.WithLabelValues(string(detector.ID)).Set(match.Confidence)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return priority[matches[i].Pattern] < priority[matches[j].Pattern]
	})

	analysis := &Analysis{
		DetectedAt: time.Now(),
		Threshold:  e.threshold,
		Matches:    matches,
	}
	if len(matches) > 0 && matches[0].Confidence >= e.threshold {
		analysis.Primary = &matches[0]
	}
	analysis.Recommendations = recommend(matches)
	return analysis
}

func (e *Engine) runOne(ctx context.Context, detector Detector, layout *Layout) (match Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = Match{}
			err = fmt.Errorf("detector panicked: %v", r)
		}
	}()
	return detector.Detect(ctx, layout)
}

// recommend produces advice in a fixed order so reports are reproducible.
func recommend(matches []Match) []string {
	var out []string

	high := 0
	mid := 0
	for _, m := range matches {
		switch {
		case m.Confidence >= 0.7:
			high++
		case m.Confidence >= 0.5:
			mid++
		}
	}

	if high == 0 {
		out = append(out, "no architecture pattern is clearly established; pick one and align the module layout with it")
	}
	if high > 2 {
		out = append(out, "several patterns score highly; consolidate on one to keep the structure predictable")
	}
	for _, m := range matches {
		for _, v := range m.Violations {
			out = append(out, fmt.Sprintf("%s: fix %s", m.Pattern, v))
		}
	}
	if high == 0 && mid > 0 {
		for _, m := range matches {
			if m.Confidence >= 0.5 && m.Confidence < 0.7 {
				out = append(out, fmt.Sprintf("%s is partially established; strengthen its missing structures", m.Pattern))
			}
		}
	}
	for _, m := range matches {
		if m.Confidence >= 0.7 && len(m.Violations) == 0 {
			if tip := Tip(m.Pattern); tip != "" {
				out = append(out, fmt.Sprintf("%s: %s", m.Pattern, tip))
			}
		}
	}
	return out
}

package report

import (
	"fmt"
	"sort"
	"strings"

	"archlens/internal/core/ports"
	"archlens/internal/engine/graph"
)

// RenderMarkdown produces the full architecture report.
func RenderMarkdown(project string, rep *ports.Report) string {
	var buf strings.Builder
	analysis := rep.Analysis

	fmt.Fprintf(&buf, "# Architecture Report: %s\n\n", project)
	fmt.Fprintf(&buf, "Generated: %s\n\n", analysis.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	buf.WriteString("## Dependency Graph\n\n")
	fmt.Fprintf(&buf, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&buf, "| Files | %d |\n", analysis.FileCount)
	fmt.Fprintf(&buf, "| Modules | %d |\n", analysis.ModuleCount)
	fmt.Fprintf(&buf, "| Edges | %d |\n", analysis.EdgeCount)
	fmt.Fprintf(&buf, "| Cycles | %d |\n", len(analysis.Cycles))
	fmt.Fprintf(&buf, "| Max depth | %d |\n\n", analysis.MaxDepth)

	writeInstabilityTable(&buf, analysis)
	writeCycles(&buf, analysis)

	if len(analysis.Hotspots) > 0 {
		buf.WriteString("### Hotspots\n\n")
		for _, name := range analysis.Hotspots {
			m := analysis.Metrics[name]
			fmt.Fprintf(&buf, "- `%s` (importance %.1f, fan-in %d, fan-out %d)\n", name, m.Importance, m.FanIn, m.FanOut)
		}
		buf.WriteString("\n")
	}

	if rep.Fitness != nil {
		writeFitness(&buf, rep)
	}
	if rep.Patterns != nil {
		writePatterns(&buf, rep)
	}
	if len(rep.Trend) > 0 {
		buf.WriteString("## History\n\n")
		buf.WriteString(RenderTrend(rep.Trend))
	}

	return buf.String()
}

func writeInstabilityTable(buf *strings.Builder, analysis *graph.Analysis) {
	names := analysis.Graph.InternalModuleNames()
	sort.Slice(names, func(i, j int) bool {
		a, b := analysis.Metrics[names[i]].Instability, analysis.Metrics[names[j]].Instability
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	if len(names) > 10 {
		names = names[:10]
	}
	if len(names) == 0 {
		return
	}

	buf.WriteString("### Least Stable Modules\n\n")
	buf.WriteString("| Module | Ca | Ce | Instability | Band |\n|---|---|---|---|---|\n")
	for _, name := range names {
		m := analysis.Metrics[name]
		fmt.Fprintf(buf, "| `%s` | %d | %d | %.2f | %s |\n", name, m.FanIn, m.FanOut, m.Instability, m.Band)
	}
	buf.WriteString("\n")
}

func writeCycles(buf *strings.Builder, analysis *graph.Analysis) {
	if len(analysis.Cycles) == 0 {
		buf.WriteString("### Cycles\n\nNo circular dependencies found.\n\n")
		return
	}

	buf.WriteString("### Cycles\n\n")
	for _, cycle := range analysis.Cycles {
		fmt.Fprintf(buf, "- **%s**: `%s`\n", cycle.Severity, strings.Join(append(cycle.Modules, cycle.Modules[0]), " -> "))
		fmt.Fprintf(buf, "  - %s\n", cycle.Suggestion)
	}
	buf.WriteString("\n")
}

func writeFitness(buf *strings.Builder, rep *ports.Report) {
	fit := rep.Fitness
	status := "PASS"
	if !fit.IsPassing() {
		status = "FAIL"
	}

	buf.WriteString("## Fitness\n\n")
	fmt.Fprintf(buf, "Preset `%s`, compliance **%.0f%%**, status **%s** (%d passed, %d errors, %d warnings, %d infos)\n\n",
		fit.Preset, fit.ComplianceScore*100, status, fit.PassedCount, fit.ErrorCount, fit.WarningCount, fit.InfoCount)

	if len(fit.Violations) > 0 {
		buf.WriteString("| Policy | Level | Location | Message |\n|---|---|---|---|\n")
		for _, v := range fit.Violations {
			location := v.Module
			if v.File != "" {
				location = fmt.Sprintf("%s:%d", v.File, v.Line)
			}
			fmt.Fprintf(buf, "| %s | %s | %s | %s |\n", v.PolicyID, v.Level, location, strings.ReplaceAll(v.Message, "|", "\\|"))
		}
		buf.WriteString("\n")
	}
	for _, note := range fit.Notes {
		fmt.Fprintf(buf, "- note: %s %s (%s)\n", note.PolicyID, note.Status, note.Message)
	}
	if len(fit.Notes) > 0 {
		buf.WriteString("\n")
	}
}

func writePatterns(buf *strings.Builder, rep *ports.Report) {
	pat := rep.Patterns

	buf.WriteString("## Architecture Patterns\n\n")
	if pat.Primary != nil {
		fmt.Fprintf(buf, "Primary pattern: **%s** (%.0f%%, %s confidence)\n\n",
			pat.Primary.Pattern, pat.Primary.Confidence*100, pat.Primary.Band)
	} else {
		buf.WriteString("No pattern met the confidence threshold.\n\n")
	}

	buf.WriteString("| Pattern | Confidence | Band | Evidence | Violations |\n|---|---|---|---|---|\n")
	for _, m := range pat.Matches {
		fmt.Fprintf(buf, "| %s | %.2f | %s | %d | %d |\n", m.Pattern, m.Confidence, m.Band, len(m.Evidence), len(m.Violations))
	}
	buf.WriteString("\n")

	if len(pat.Recommendations) > 0 {
		buf.WriteString("### Recommendations\n\n")
		for _, rec := range pat.Recommendations {
			fmt.Fprintf(buf, "- %s\n", rec)
		}
		buf.WriteString("\n")
	}
}

// RenderTrend formats stored runs, newest first, with per-run deltas.
func RenderTrend(entries []ports.HistoryEntry) string {
	var buf strings.Builder
	buf.WriteString("| When | Modules | Edges | Cycles | Score |\n|---|---|---|---|---|\n")

	for i, entry := range entries {
		modules := fmt.Sprintf("%d", entry.Analysis.Modules)
		edges := fmt.Sprintf("%d", entry.Analysis.Edges)
		cycles := fmt.Sprintf("%d", entry.Analysis.Cycles)
		if i+1 < len(entries) {
			prev := entries[i+1].Analysis
			modules += delta(entry.Analysis.Modules - prev.Modules)
			edges += delta(entry.Analysis.Edges - prev.Edges)
			cycles += delta(entry.Analysis.Cycles - prev.Cycles)
		}

		score := "-"
		if entry.Fitness != nil {
			score = fmt.Sprintf("%.0f%%", entry.Fitness.Score*100)
		}
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s |\n",
			entry.Analysis.CreatedAt.Format("2006-01-02 15:04"), modules, edges, cycles, score)
	}
	buf.WriteString("\n")
	return buf.String()
}

func delta(d int) string {
	if d == 0 {
		return ""
	}
	return fmt.Sprintf(" (%+d)", d)
}

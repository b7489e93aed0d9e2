package report

import (
	"fmt"
	"strings"

	"archlens/internal/core/ports"
)

// RenderSummary is the compact terminal view printed after every run.
func RenderSummary(project string, rep *ports.Report) string {
	var buf strings.Builder
	analysis := rep.Analysis

	fmt.Fprintf(&buf, "%s: %d files, %d modules, %d edges, max depth %d\n",
		project, analysis.FileCount, analysis.ModuleCount, analysis.EdgeCount, analysis.MaxDepth)

	if len(analysis.Warnings) > 0 {
		fmt.Fprintf(&buf, "warnings: %d files could not be parsed\n", len(analysis.Warnings))
	}

	if len(analysis.Cycles) == 0 {
		buf.WriteString("cycles: none\n")
	} else {
		fmt.Fprintf(&buf, "cycles: %d\n", len(analysis.Cycles))
		for _, cycle := range analysis.Cycles {
			fmt.Fprintf(&buf, "  [%s] %s\n", cycle.Severity, strings.Join(append(cycle.Modules, cycle.Modules[0]), " -> "))
		}
	}

	if rep.Fitness != nil {
		status := "PASS"
		if !rep.Fitness.IsPassing() {
			status = "FAIL"
		}
		fmt.Fprintf(&buf, "fitness: %s, compliance %.0f%% (%d errors, %d warnings)\n",
			status, rep.Fitness.ComplianceScore*100, rep.Fitness.ErrorCount, rep.Fitness.WarningCount)
		for _, v := range rep.Fitness.Violations {
			if v.Level == "ERROR" {
				fmt.Fprintf(&buf, "  %s: %s\n", v.PolicyID, v.Message)
			}
		}
	}

	if rep.Patterns != nil {
		if rep.Patterns.Primary != nil {
			fmt.Fprintf(&buf, "pattern: %s (%.0f%%, %s)\n",
				rep.Patterns.Primary.Pattern, rep.Patterns.Primary.Confidence*100, rep.Patterns.Primary.Band)
		} else {
			buf.WriteString("pattern: none above threshold\n")
		}
	}

	return buf.String()
}

package report

import (
	"fmt"
	"strings"

	"archlens/internal/engine/graph"
)

// DOTOptions tune the Graphviz rendering.
type DOTOptions struct {
	// Annotate adds fan-in/fan-out/instability to every internal node label.
	Annotate bool
}

// RenderDOT emits the dependency graph as Graphviz source. Cycle members and
// cycle edges are highlighted in red; external modules are dimmed.
func RenderDOT(analysis *graph.Analysis, opts DOTOptions) string {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := make(map[string]map[string]bool)
	inCycle := make(map[string]bool)
	for _, cycle := range analysis.Cycles {
		for i, from := range cycle.Modules {
			to := cycle.Modules[(i+1)%len(cycle.Modules)]
			if cycleEdges[from] == nil {
				cycleEdges[from] = make(map[string]bool)
			}
			cycleEdges[from][to] = true
			inCycle[from] = true
		}
	}

	buf.WriteString("  subgraph cluster_internal {\n")
	buf.WriteString("    label=\"Internal Modules\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")

	for _, name := range analysis.Graph.InternalModuleNames() {
		mod := analysis.Graph.Modules[name]
		label := fmt.Sprintf("%s\\n(%d files, %d loc)", name, len(mod.Files), mod.LOC)
		if opts.Annotate {
			m := analysis.Metrics[name]
			label = fmt.Sprintf("%s\\nCa=%d Ce=%d I=%.2f", label, m.FanIn, m.FanOut, m.Instability)
		}

		if inCycle[name] {
			fmt.Fprintf(&buf, "    %q [label=\"%s\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", name, label)
		} else {
			fmt.Fprintf(&buf, "    %q [label=\"%s\", color=\"darkslategrey\"];\n", name, label)
		}
	}
	buf.WriteString("  }\n\n")

	externals := externalNames(analysis.Graph)
	if len(externals) > 0 {
		buf.WriteString("  // External modules\n")
		buf.WriteString("  node [fillcolor=\"gainsboro\", style=\"rounded,filled\", color=\"grey\"];\n")
		for _, name := range externals {
			fmt.Fprintf(&buf, "  %q [label=%q];\n", name, name)
		}
		buf.WriteString("\n")
	}

	for _, edge := range analysis.Graph.Edges {
		switch {
		case cycleEdges[edge.From] != nil && cycleEdges[edge.From][edge.To]:
			fmt.Fprintf(&buf, "  %q -> %q [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", edge.From, edge.To)
		case edge.External:
			fmt.Fprintf(&buf, "  %q -> %q [color=\"grey\", style=dashed];\n", edge.From, edge.To)
		default:
			fmt.Fprintf(&buf, "  %q -> %q [color=\"forestgreen\", penwidth=1.8];\n", edge.From, edge.To)
		}
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_internal [label=\"Internal Module\", fillcolor=\"white\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_external [label=\"External Module\", fillcolor=\"gainsboro\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_cycle [label=\"Circular Import\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_edge_internal [label=\"Internal Edge\", shape=plaintext, fontcolor=\"forestgreen\"];\n")
	buf.WriteString("    legend_edge_external [label=\"External Edge\", shape=plaintext, fontcolor=\"grey\"];\n")
	buf.WriteString("  }\n")
	buf.WriteString("}\n")

	return buf.String()
}

func externalNames(g *graph.Graph) []string {
	var names []string
	for _, name := range g.ModuleNames() {
		if g.Modules[name].External {
			names = append(names, name)
		}
	}
	return names
}

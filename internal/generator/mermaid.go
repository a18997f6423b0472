package generator

import (
	"fmt"
	"regexp"
	"strings"

	"digen/internal/graph"
)

// MermaidGenerator renders resolved dependency digraphs as mermaid
// blocks, fenced for markdown embedding.
type MermaidGenerator struct{}

// DependencyDiagram draws every node and resolved edge.
func (m *MermaidGenerator) DependencyDiagram(d *graph.Digraph) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph LR\n")
	m.writeNodesAndEdges(&sb, d)
	sb.WriteString("```\n")
	return sb.String()
}

// ImpactDiagram draws the full graph and highlights what a change to
// the given types would touch: the changed nodes and everything that
// transitively depends on them.
func (m *MermaidGenerator) ImpactDiagram(d *graph.Digraph, changed []string) string {
	report := graph.AnalyzeImpact(d, changed)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph LR\n")
	m.writeNodesAndEdges(&sb, d)

	sb.WriteString("    classDef changed fill:#f66,stroke:#900\n")
	sb.WriteString("    classDef impacted fill:#fc6,stroke:#960\n")
	if ids := idList(report.DirectlyAffected); ids != "" {
		fmt.Fprintf(&sb, "    class %s changed\n", ids)
	}
	if ids := idList(report.IndirectlyAffected); ids != "" {
		fmt.Fprintf(&sb, "    class %s impacted\n", ids)
	}

	sb.WriteString("```\n")
	return sb.String()
}

func (m *MermaidGenerator) writeNodesAndEdges(sb *strings.Builder, d *graph.Digraph) {
	nodes := d.Nodes()
	for _, n := range nodes {
		fmt.Fprintf(sb, "    %s[%q]\n", sanitizeMermaidID(n), n)
	}
	for _, n := range nodes {
		for _, to := range d.Neighbors(n) {
			fmt.Fprintf(sb, "    %s --> %s\n", sanitizeMermaidID(n), sanitizeMermaidID(to))
		}
	}
}

func idList(names []string) string {
	ids := make([]string, len(names))
	for i, n := range names {
		ids[i] = sanitizeMermaidID(n)
	}
	return strings.Join(ids, ",")
}

var mermaidIDChars = regexp.MustCompile(`[^a-z0-9_]`)

func sanitizeMermaidID(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	v = mermaidIDChars.ReplaceAllString(strings.ReplaceAll(v, "-", "_"), "_")
	if v == "" {
		return "node"
	}
	if v[0] >= '0' && v[0] <= '9' {
		v = "n_" + v
	}
	return v
}

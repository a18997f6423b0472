package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"digen/internal/graph"
)

func testDigraph() *graph.Digraph {
	d := graph.NewDigraph()
	d.AddNode("Service")
	d.AddNode("ConsoleLog")
	d.AddNode("Repo")
	d.AddEdge("Service", "ConsoleLog")
	d.AddEdge("Service", "Repo")
	return d
}

func TestMermaid_DependencyDiagram(t *testing.T) {
	out := (&MermaidGenerator{}).DependencyDiagram(testDigraph())

	assert.True(t, len(out) > 0)
	assert.Contains(t, out, "```mermaid\n")
	assert.Contains(t, out, "graph LR\n")
	assert.Contains(t, out, `consolelog["ConsoleLog"]`)
	assert.Contains(t, out, `service["Service"]`)
	assert.Contains(t, out, "service --> consolelog")
	assert.Contains(t, out, "service --> repo")
}

func TestMermaid_ImpactDiagram(t *testing.T) {
	out := (&MermaidGenerator{}).ImpactDiagram(testDigraph(), []string{"ConsoleLog"})

	assert.Contains(t, out, "classDef changed")
	assert.Contains(t, out, "class consolelog changed")
	assert.Contains(t, out, "class service impacted")
}

func TestMermaid_ImpactDiagram_NoHits(t *testing.T) {
	out := (&MermaidGenerator{}).ImpactDiagram(testDigraph(), []string{"Unknown"})

	// classDef lines stay, but no class assignment is emitted.
	assert.Contains(t, out, "classDef changed")
	assert.NotContains(t, out, "    class ")
}

func TestSanitizeMermaidID(t *testing.T) {
	assert.Equal(t, "console_log", sanitizeMermaidID("Console-Log"))
	assert.Equal(t, "n_3rd", sanitizeMermaidID("3rd"))
	assert.Equal(t, "node", sanitizeMermaidID("  "))
	assert.Equal(t, "ihandler_order_", sanitizeMermaidID("IHandler[Order]"))
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digen/internal/analysis"
	"digen/internal/index"
	"digen/internal/resolver"
	"digen/internal/symbol"
)

func TestDigraph_CyclesThreeNodeRing(t *testing.T) {
	d := NewDigraph()
	d.AddEdge("A", "B")
	d.AddEdge("B", "C")
	d.AddEdge("C", "A")

	cycles := d.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A", "B", "C"}, cycles[0])
}

func TestDigraph_AcyclicReportsNothing(t *testing.T) {
	d := NewDigraph()
	d.AddEdge("A", "B")
	d.AddEdge("B", "C")
	d.AddEdge("A", "C")

	assert.Empty(t, d.Cycles())
}

func TestDigraph_SelfCycle(t *testing.T) {
	d := NewDigraph()
	d.AddEdge("A", "A")

	cycles := d.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A"}, cycles[0])
}

func TestDigraph_CycleReportedOnce(t *testing.T) {
	d := NewDigraph()
	d.AddEdge("B", "C")
	d.AddEdge("C", "B")
	// Two entry points into the same ring.
	d.AddEdge("A", "B")
	d.AddEdge("D", "C")

	cycles := d.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"B", "C"}, cycles[0])
}

func TestDigraph_Dependents(t *testing.T) {
	d := NewDigraph()
	d.AddEdge("Handler", "Service")
	d.AddEdge("Service", "Repo")
	d.AddEdge("Job", "Repo")
	d.AddNode("Standalone")

	assert.Equal(t, []string{"Handler", "Job", "Service"}, d.Dependents("Repo"))
	assert.Empty(t, d.Dependents("Handler"))
	assert.Empty(t, d.Dependents("Standalone"))
}

func TestBuildResolved(t *testing.T) {
	g := symbol.NewGraph()
	g.Add(&symbol.TypeRecord{Name: "ConsoleLog", Capabilities: []string{"ILog"}})
	g.Add(&symbol.TypeRecord{
		Name: "Service", Extensible: true,
		Edges: []symbol.DependencyEdge{
			{Target: symbol.TypeRef{Name: "ILog"}, Source: symbol.SourceField, Member: "_log"},
			{Target: symbol.TypeRef{Name: "IMissing"}, Source: symbol.SourceParam},
		},
	})
	g.Add(&symbol.TypeRecord{Name: "Job", Base: "Service", Extensible: true})

	ix := index.Build(g, symbol.LifetimeTransient)
	d := BuildResolved(g, analysis.NewAnalyzer(g), ix, resolver.DefaultChain())

	assert.Equal(t, []string{"ConsoleLog", "IMissing"}, d.Neighbors("Service"))
	// Inherited dependencies reach the digraph through the base edge,
	// not by duplication onto the subtype.
	assert.Equal(t, []string{"Service"}, d.Neighbors("Job"))
	assert.Contains(t, d.Nodes(), "IMissing")
}

func TestBuildResolved_InheritanceCycle(t *testing.T) {
	g := symbol.NewGraph()
	g.Add(&symbol.TypeRecord{
		Name: "Base", Extensible: true,
		Edges: []symbol.DependencyEdge{
			{Target: symbol.TypeRef{Name: "ILeaf"}, Source: symbol.SourceField, Member: "_leaf"},
		},
	})
	g.Add(&symbol.TypeRecord{Name: "Leaf", Base: "Base", Capabilities: []string{"ILeaf"}, Extensible: true})

	ix := index.Build(g, symbol.LifetimeTransient)
	d := BuildResolved(g, analysis.NewAnalyzer(g), ix, resolver.DefaultChain())

	cycles := d.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"Base", "Leaf"}, cycles[0])
}

func TestAnalyzeImpact(t *testing.T) {
	d := NewDigraph()
	d.AddEdge("Handler", "Service")
	d.AddEdge("Service", "Repo")
	d.AddEdge("Worker", "Service")

	report := AnalyzeImpact(d, []string{"Repo", "Unknown"})

	assert.Equal(t, []string{"Repo"}, report.DirectlyAffected)
	assert.Equal(t, []string{"Handler", "Service", "Worker"}, report.IndirectlyAffected)
}

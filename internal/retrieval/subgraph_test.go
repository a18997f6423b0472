package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"digen/internal/git"
	"digen/internal/graph"
	"digen/internal/symbol"
)

func chainFixture() (*symbol.Graph, *graph.Digraph) {
	g := symbol.NewGraph()
	g.Add(&symbol.TypeRecord{Name: "Gateway", File: "gateway.go", Line: 10, EndLine: 14})
	g.Add(&symbol.TypeRecord{Name: "Service", File: "service.go", Line: 5, EndLine: 20})
	g.Add(&symbol.TypeRecord{Name: "Repo", File: "repo.go", Line: 3, EndLine: 9})
	g.Add(&symbol.TypeRecord{Name: "Metrics", File: "metrics.go", Line: 1, EndLine: 4})

	d := graph.NewDigraph()
	d.AddEdge("Gateway", "Service")
	d.AddEdge("Service", "Repo")
	d.AddNode("Metrics")
	return g, d
}

func TestExtractFromChanges_SingleHop(t *testing.T) {
	g, d := chainFixture()
	changes := []git.ChangedFile{{Path: "gateway.go", ChangedLines: []int{12}}}

	sub := ExtractFromChanges(g, d, changes, Config{MaxHops: 1})

	assert.Equal(t, []string{"Gateway"}, sub.Seeds)
	assert.Equal(t, []string{"gateway.go"}, sub.UpdatedFiles)
	assert.Equal(t, []string{"Gateway", "Service"}, sub.Types)
	assert.Equal(t, []Edge{{From: "Gateway", To: "Service"}}, sub.Edges)
}

func TestExtractFromChanges_TwoHopsReachWholeChain(t *testing.T) {
	g, d := chainFixture()
	changes := []git.ChangedFile{{Path: "gateway.go", ChangedLines: []int{12}}}

	sub := ExtractFromChanges(g, d, changes, Config{MaxHops: 2})

	assert.Equal(t, []string{"Gateway", "Repo", "Service"}, sub.Types)
	assert.Equal(t, []Edge{
		{From: "Gateway", To: "Service"},
		{From: "Service", To: "Repo"},
	}, sub.Edges)
}

func TestExtractFromChanges_WalksTowardDependents(t *testing.T) {
	g, d := chainFixture()
	changes := []git.ChangedFile{{Path: "repo.go", ChangedLines: []int{5}}}

	sub := ExtractFromChanges(g, d, changes, Config{MaxHops: 1})

	assert.Equal(t, []string{"Repo"}, sub.Seeds)
	assert.Equal(t, []string{"Repo", "Service"}, sub.Types,
		"a change to a dependency pulls in its dependents")
	assert.Equal(t, []Edge{{From: "Service", To: "Repo"}}, sub.Edges)
}

func TestExtractFromChanges_LineFiltering(t *testing.T) {
	g, d := chainFixture()

	outside := []git.ChangedFile{{Path: "gateway.go", ChangedLines: []int{99}}}
	sub := ExtractFromChanges(g, d, outside, DefaultConfig())
	assert.Empty(t, sub.Seeds)
	assert.Empty(t, sub.Types)

	wholesale := []git.ChangedFile{{Path: "gateway.go"}}
	sub = ExtractFromChanges(g, d, wholesale, Config{MaxHops: 0})
	assert.Equal(t, []string{"Gateway"}, sub.Seeds,
		"changes without line detail match every type in the file")
	assert.Equal(t, []string{"Gateway"}, sub.Types)
	assert.Empty(t, sub.Edges)
}

func TestSubgraph_Digraph(t *testing.T) {
	g, d := chainFixture()
	changes := []git.ChangedFile{{Path: "service.go", ChangedLines: []int{6}}}

	sub := ExtractFromChanges(g, d, changes, Config{MaxHops: 1})
	focused := sub.Digraph()

	assert.Equal(t, sub.Types, focused.Nodes())
	assert.Equal(t, []string{"Repo"}, focused.Neighbors("Service"))
	assert.Equal(t, []string{"Service"}, focused.Neighbors("Gateway"))
}

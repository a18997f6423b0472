package graph

import (
	"sort"
	"strings"

	"digen/internal/analysis"
	"digen/internal/index"
	"digen/internal/resolver"
	"digen/internal/symbol"
)

// Digraph is a directed dependency graph over type names. Nodes and
// adjacency lists are kept sorted so every traversal visits them in the
// same order.
type Digraph struct {
	nodes     map[string]bool
	adjacency map[string][]string
	edgeSet   map[string]map[string]bool
}

func NewDigraph() *Digraph {
	return &Digraph{
		nodes:     make(map[string]bool),
		adjacency: make(map[string][]string),
		edgeSet:   make(map[string]map[string]bool),
	}
}

func (d *Digraph) AddNode(name string) {
	if name == "" {
		return
	}
	d.nodes[name] = true
}

// AddEdge records "from depends on to". Both endpoints become nodes.
func (d *Digraph) AddEdge(from, to string) {
	if from == "" || to == "" {
		return
	}
	d.AddNode(from)
	d.AddNode(to)
	if d.edgeSet[from] == nil {
		d.edgeSet[from] = make(map[string]bool)
	}
	if d.edgeSet[from][to] {
		return
	}
	d.edgeSet[from][to] = true

	neighbors := append(d.adjacency[from], to)
	sort.Strings(neighbors)
	d.adjacency[from] = neighbors
}

// Nodes returns every node name in sorted order.
func (d *Digraph) Nodes() []string {
	names := make([]string, 0, len(d.nodes))
	for name := range d.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Neighbors returns the sorted dependency targets of one node.
func (d *Digraph) Neighbors(name string) []string {
	return d.adjacency[name]
}

// Cycles runs a depth-first traversal and returns each cycle found as a
// path of node names. Every cycle is rotated so its lexicographically
// smallest member leads, and reported once.
func (d *Digraph) Cycles() [][]string {
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	seen := make(map[string]bool)

	var stack []string
	var cycles [][]string

	var walk func(name string)
	walk = func(name string) {
		visiting[name] = true
		stack = append(stack, name)

		for _, next := range d.Neighbors(name) {
			if visiting[next] {
				cycle := canonicalCycle(extractCycle(stack, next))
				key := strings.Join(cycle, "->")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
				continue
			}
			if !visited[next] {
				walk(next)
			}
		}

		stack = stack[:len(stack)-1]
		visiting[name] = false
		visited[name] = true
	}

	for _, name := range d.Nodes() {
		if !visited[name] {
			walk(name)
		}
	}

	return cycles
}

// Dependents returns every node that transitively depends on the given
// one, sorted by name. The node itself is excluded unless it sits on a
// cycle back to itself.
func (d *Digraph) Dependents(name string) []string {
	reverse := make(map[string][]string)
	for from, targets := range d.adjacency {
		for _, to := range targets {
			reverse[to] = append(reverse[to], from)
		}
	}

	seen := make(map[string]bool)
	queue := append([]string(nil), reverse[name]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		queue = append(queue, reverse[current]...)
	}

	out := make([]string, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// extractCycle slices the traversal stack from the first occurrence of
// start, which closes the cycle.
func extractCycle(stack []string, start string) []string {
	for i, name := range stack {
		if name == start {
			return append([]string(nil), stack[i:]...)
		}
	}
	return append([]string(nil), start)
}

func canonicalCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	min := 0
	for i, name := range cycle {
		if name < cycle[min] {
			min = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[min:]...)
	out = append(out, cycle[:min]...)
	return out
}

// BuildResolved builds the run's dependency digraph. Each type gets a
// node, an edge to its base type, and an edge per declared dependency
// with the capability reference resolved to concrete implementations.
// Unresolved references fall back to the capability name itself so
// cycles among declared-but-unimplemented capabilities still surface.
func BuildResolved(g *symbol.Graph, an *analysis.Analyzer, ix *index.CapabilityIndex, chain *resolver.Chain) *Digraph {
	d := NewDigraph()

	for _, t := range g.Sorted() {
		d.AddNode(t.Name)
		if t.Base != "" && g.Lookup(t.Base) != nil {
			d.AddEdge(t.Name, t.Base)
		}

		merged := an.Merge(t)
		for _, e := range merged.Edges {
			// Config-bound values are resolved outside the container and
			// never participate in the dependency graph.
			if e.Level != 0 || e.Source == symbol.SourceConfig {
				continue
			}
			res := chain.Resolve(ix, e.Target)
			if len(res.Matches) == 0 {
				d.AddEdge(t.Name, e.Target.Name)
				continue
			}
			for _, impl := range res.Matches {
				d.AddEdge(t.Name, impl.Name)
			}
		}
	}

	return d
}

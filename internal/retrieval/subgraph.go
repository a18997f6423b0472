package retrieval

import (
	"sort"

	"digen/internal/git"
	"digen/internal/graph"
	"digen/internal/symbol"
)

// Config controls how change subgraphs are extracted.
type Config struct {
	// MaxHops bounds the neighborhood radius around a seed type.
	MaxHops int
}

func DefaultConfig() Config {
	return Config{MaxHops: 2}
}

// Edge is one resolved dependency inside the subgraph.
type Edge struct {
	From string
	To   string
}

// Subgraph is the dependency neighborhood of the types a change touched.
type Subgraph struct {
	MaxHops      int
	Seeds        []string
	UpdatedFiles []string
	Types        []string
	Edges        []Edge
}

// ExtractFromChanges seeds the subgraph with every type whose declaration
// overlaps a changed line, then walks the resolved digraph outward from
// the seeds, at most MaxHops in either direction. A change ripples to
// dependents as much as to dependencies, so the walk treats edges as
// undirected; the induced edges keep their direction.
func ExtractFromChanges(g *symbol.Graph, d *graph.Digraph, changes []git.ChangedFile, cfg Config) *Subgraph {
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}

	sub := &Subgraph{
		MaxHops:      cfg.MaxHops,
		UpdatedFiles: changedPaths(changes),
	}
	if g != nil {
		sub.Seeds = seedTypes(g, changes)
	}
	if len(sub.Seeds) == 0 || d == nil {
		return sub
	}

	adj := make(map[string][]string)
	for _, from := range d.Nodes() {
		for _, to := range d.Neighbors(from) {
			adj[from] = append(adj[from], to)
			adj[to] = append(adj[to], from)
		}
	}

	depth := make(map[string]int, len(sub.Seeds))
	queue := make([]string, 0, len(sub.Seeds))
	for _, s := range sub.Seeds {
		depth[s] = 0
		queue = append(queue, s)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if depth[cur] >= cfg.MaxHops {
			continue
		}
		for _, next := range adj[cur] {
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[cur] + 1
			queue = append(queue, next)
		}
	}

	// Types iterates sorted and Neighbors is sorted, so the induced
	// edges come out ordered by (From, To) without another sort.
	sub.Types = sortedKeys(depth)
	for _, from := range sub.Types {
		for _, to := range d.Neighbors(from) {
			if _, ok := depth[to]; ok {
				sub.Edges = append(sub.Edges, Edge{From: from, To: to})
			}
		}
	}
	return sub
}

// Digraph materializes the subgraph for rendering and impact queries.
func (s *Subgraph) Digraph() *graph.Digraph {
	d := graph.NewDigraph()
	for _, t := range s.Types {
		d.AddNode(t)
	}
	for _, e := range s.Edges {
		d.AddEdge(e.From, e.To)
	}
	return d
}

func seedTypes(g *symbol.Graph, changes []git.ChangedFile) []string {
	seen := make(map[string]bool)
	for _, ch := range changes {
		for _, t := range g.Types {
			if t == nil || t.File != ch.Path {
				continue
			}
			if !overlaps(t.Line, t.EndLine, ch.ChangedLines) {
				continue
			}
			seen[t.Name] = true
		}
	}
	return sortedKeys(seen)
}

// overlaps reports whether any changed line falls inside the declaration
// range. Changes without line detail and records without positions match
// wholesale.
func overlaps(start, end int, changed []int) bool {
	if len(changed) == 0 || start == 0 {
		return true
	}
	for _, line := range changed {
		if line >= start && line <= end {
			return true
		}
	}
	return false
}

func changedPaths(changes []git.ChangedFile) []string {
	seen := make(map[string]bool, len(changes))
	for _, ch := range changes {
		if ch.Path != "" {
			seen[ch.Path] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

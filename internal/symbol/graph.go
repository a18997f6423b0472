package symbol

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Graph is the symbol-graph input for one analysis run: every declared
// service type plus a name index. Build it with Add, then treat it as
// read-only.
type Graph struct {
	Types []*TypeRecord `json:"types"`

	nameIndex map[string]*TypeRecord
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Types:     []*TypeRecord{},
		nameIndex: make(map[string]*TypeRecord),
	}
}

// Add appends a type record and indexes it by name. The first record
// wins when a name is added twice.
func (g *Graph) Add(t *TypeRecord) {
	if t == nil || t.Name == "" {
		return
	}
	g.Types = append(g.Types, t)
	if _, ok := g.nameIndex[t.Name]; !ok {
		g.nameIndex[t.Name] = t
	}
}

// Lookup finds a type record by name, or nil.
func (g *Graph) Lookup(name string) *TypeRecord {
	return g.nameIndex[name]
}

// RebuildIndex recreates the name index from Types. Needed after
// deserializing a graph, which bypasses Add.
func (g *Graph) RebuildIndex() {
	g.nameIndex = make(map[string]*TypeRecord, len(g.Types))
	for _, t := range g.Types {
		if t == nil || t.Name == "" {
			continue
		}
		if _, ok := g.nameIndex[t.Name]; !ok {
			g.nameIndex[t.Name] = t
		}
	}
}

// Sorted returns the type records ordered by name. The input order of
// the graph must never leak into any output, so consumers iterate this.
func (g *Graph) Sorted() []*TypeRecord {
	out := make([]*TypeRecord, 0, len(g.Types))
	for _, t := range g.Types {
		if t != nil {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Chain returns the ancestor chain of the named type, nearest ancestor
// first, excluding the type itself. The walk ends at the first ancestor
// without a base reference or with an unknown base. A repeated name
// truncates the chain so the list is always finite; cyclic base
// references are a data-integrity violation of the input, not something
// the analyzer guards at every step.
func (g *Graph) Chain(name string) []*TypeRecord {
	var chain []*TypeRecord
	seen := map[string]bool{name: true}

	cur := g.Lookup(name)
	if cur == nil {
		return chain
	}
	for cur.Base != "" {
		next := g.Lookup(cur.Base)
		if next == nil || seen[next.Name] {
			break
		}
		seen[next.Name] = true
		chain = append(chain, next)
		cur = next
	}
	return chain
}

// Fingerprint returns a stable content hash of the graph. Type order is
// canonicalized first, so two graphs holding the same records in a
// different order share a fingerprint. Used as a cache identity only.
func (g *Graph) Fingerprint() string {
	canonical := struct {
		Types []*TypeRecord `json:"types"`
	}{Types: g.Sorted()}

	data, err := json.Marshal(canonical)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

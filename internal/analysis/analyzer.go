package analysis

import (
	"sort"
	"sync"

	"digen/internal/symbol"
)

// SourceConflict is one target declared under two or more source kinds
// in the analyzed type's own declarations.
type SourceConflict struct {
	Target symbol.TypeRef
	Kinds  []symbol.SourceKind
}

// Duplicate is one target declared more than once, either across
// hierarchy levels or twice on the type itself. Only duplicates the
// analyzed type participates in are recorded here; ancestor-only
// duplicates surface when that ancestor is analyzed.
type Duplicate struct {
	Target symbol.TypeRef
	Levels []int
}

// Merged is the combined dependency view of one type and its ancestors.
// Edges are deduplicated by target with the closest declaration winning;
// the slice preserves first-seen order, which is level 0 outward.
type Merged struct {
	Type       *symbol.TypeRecord
	Edges      []symbol.DependencyEdge
	Conflicts  []SourceConflict
	Duplicates []Duplicate
}

type occurrence struct {
	level int
	kind  symbol.SourceKind
}

// Analyzer walks inheritance chains and merges dependency declarations.
// It is a pure function of the graph; results are memoized since deep
// chains revisit the same ancestors for every descendant.
type Analyzer struct {
	graph *symbol.Graph

	mu   sync.RWMutex
	memo map[string]*Merged
}

// NewAnalyzer creates an analyzer over the given graph.
func NewAnalyzer(g *symbol.Graph) *Analyzer {
	return &Analyzer{graph: g, memo: make(map[string]*Merged)}
}

// Merge collects the type's dependency edges together with every
// ancestor's, tags each edge with its hierarchy level, and deduplicates
// by target keeping the lowest level. The returned value is shared
// across calls and must be treated as read-only.
func (a *Analyzer) Merge(t *symbol.TypeRecord) *Merged {
	a.mu.RLock()
	cached, ok := a.memo[t.Name]
	a.mu.RUnlock()
	if ok {
		return cached
	}

	m := a.merge(t)

	a.mu.Lock()
	a.memo[t.Name] = m
	a.mu.Unlock()
	return m
}

func (a *Analyzer) merge(t *symbol.TypeRecord) *Merged {
	m := &Merged{Type: t}

	chain := append([]*symbol.TypeRecord{t}, a.graph.Chain(t.Name)...)

	occurrences := make(map[string][]occurrence)
	kept := make(map[string]int)

	for level, rec := range chain {
		for _, e := range rec.Edges {
			key := e.Target.String()
			occurrences[key] = append(occurrences[key], occurrence{level: level, kind: e.Source})

			// The chain is walked from level 0 outward, so the first
			// occurrence is always the closest declaration.
			if _, ok := kept[key]; ok {
				continue
			}
			edge := e
			edge.Level = level
			edge.DeclaredBy = rec.Name
			kept[key] = len(m.Edges)
			m.Edges = append(m.Edges, edge)
		}
	}

	keys := make([]string, 0, len(occurrences))
	for key := range occurrences {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		occ := occurrences[key]
		if len(occ) < 2 {
			continue
		}
		target := m.Edges[kept[key]].Target

		if kinds := ownKinds(occ); len(kinds) > 1 {
			m.Conflicts = append(m.Conflicts, SourceConflict{Target: target, Kinds: kinds})
			continue
		}

		// occ has at least two entries here, so a lone distinct level 0
		// means the target was declared twice on the type itself.
		if levels := distinctLevels(occ); levels[0] == 0 {
			m.Duplicates = append(m.Duplicates, Duplicate{Target: target, Levels: levels})
		}
	}

	return m
}

// ownKinds returns the distinct source kinds used at level 0.
func ownKinds(occ []occurrence) []symbol.SourceKind {
	seen := make(map[symbol.SourceKind]bool)
	var kinds []symbol.SourceKind
	for _, o := range occ {
		if o.level != 0 || seen[o.kind] {
			continue
		}
		seen[o.kind] = true
		kinds = append(kinds, o.kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func distinctLevels(occ []occurrence) []int {
	seen := make(map[int]bool)
	var levels []int
	for _, o := range occ {
		if seen[o.level] {
			continue
		}
		seen[o.level] = true
		levels = append(levels, o.level)
	}
	sort.Ints(levels)
	return levels
}

package planner

import (
	"sort"

	"digen/internal/analysis"
	"digen/internal/diag"
	"digen/internal/symbol"
)

// PlanEntry is one slot of a type's initialization signature.
type PlanEntry struct {
	Target symbol.TypeRef `json:"target"`
	// Member is the stored-member name, empty for pass-through params.
	Member string            `json:"member,omitempty"`
	Source symbol.SourceKind `json:"source"`
	Level  int               `json:"level"`
}

func (e PlanEntry) String() string {
	if e.Member == "" {
		return e.Target.String()
	}
	return e.Target.String() + "(" + e.Member + ")"
}

// ConstructionPlan is the ordered initialization plan for one type.
// Entries inherited from ancestors come first, most ancestral level
// leading, then the type's own entries; within a level the order is
// lexicographic by target display name. BaseForward is the immediate
// base type's full entry list in that base's own order, the arguments a
// forwarding call must pass through.
type ConstructionPlan struct {
	Type string `json:"type"`
	// Base is the immediate base type receiving the forwarding call,
	// empty when the type has no known base.
	Base        string      `json:"base,omitempty"`
	Entries     []PlanEntry `json:"entries"`
	BaseForward []PlanEntry `json:"base_forward,omitempty"`
}

// InheritedCount returns how many entries came from ancestor levels.
func (p *ConstructionPlan) InheritedCount() int {
	n := 0
	for _, e := range p.Entries {
		if e.Level > 0 {
			n++
		}
	}
	return n
}

// Planner turns merged dependency views into construction plans.
type Planner struct {
	graph    *symbol.Graph
	analyzer *analysis.Analyzer
	naming   NamingOptions
}

func NewPlanner(g *symbol.Graph, a *analysis.Analyzer, naming NamingOptions) *Planner {
	return &Planner{graph: g, analyzer: a, naming: naming}
}

// Plan builds the construction plan for one type. Structural findings
// suppress the plan for that type only: the returned plan is nil and
// the diagnostics say why. Redundancy findings keep the plan.
func (p *Planner) Plan(t *symbol.TypeRecord) (*ConstructionPlan, []diag.Diagnostic) {
	merged := p.analyzer.Merge(t)

	var diags []diag.Diagnostic
	for _, c := range merged.Conflicts {
		kinds := make([]string, len(c.Kinds))
		for i, k := range c.Kinds {
			kinds[i] = string(k)
		}
		diags = append(diags, diag.ConflictingSources(t.Name, c.Target.String(), kinds))
	}
	for _, d := range merged.Duplicates {
		diags = append(diags, diag.DuplicateDependency(t.Name, d.Target.String(), d.Levels))
	}

	if len(merged.Edges) > 0 && !t.Extensible {
		diags = append(diags, diag.NotExtensible(t.Name, len(merged.Edges)))
		return nil, diags
	}
	if len(merged.Conflicts) > 0 {
		return nil, diags
	}

	plan := &ConstructionPlan{Type: t.Name, Entries: p.entries(merged)}

	if t.Base != "" {
		if base := p.graph.Lookup(t.Base); base != nil {
			plan.Base = base.Name
			plan.BaseForward = p.entries(p.analyzer.Merge(base))
		}
	}

	return plan, diags
}

// entries orders the merged edges into plan slots: ancestor levels
// first, most ancestral leading, lexicographic by target within a level.
func (p *Planner) entries(merged *analysis.Merged) []PlanEntry {
	entries := make([]PlanEntry, 0, len(merged.Edges))
	for _, e := range merged.Edges {
		entries = append(entries, PlanEntry{
			Target: e.Target,
			Member: p.memberFor(e),
			Source: e.Source,
			Level:  e.Level,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Level != entries[j].Level {
			return entries[i].Level > entries[j].Level
		}
		return entries[i].Target.String() < entries[j].Target.String()
	})

	return entries
}

func (p *Planner) memberFor(e symbol.DependencyEdge) string {
	if !e.Source.Stored() {
		return ""
	}
	if e.Member != "" {
		return e.Member
	}
	return p.naming.MemberName(e.Target)
}

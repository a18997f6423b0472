package validator

import (
	"digen/internal/analysis"
	"digen/internal/diag"
	"digen/internal/index"
	"digen/internal/resolver"
	"digen/internal/symbol"
)

// LifetimeValidator checks that singleton types never capture instances
// with a shorter sharing scope. A singleton holding a scoped instance is
// a correctness bug; a singleton holding a transient one silently pins
// the transient for the whole process lifetime, which is reported as a
// warning.
type LifetimeValidator struct {
	graph    *symbol.Graph
	analyzer *analysis.Analyzer
	index    *index.CapabilityIndex
	chain    *resolver.Chain
}

func NewLifetimeValidator(g *symbol.Graph, a *analysis.Analyzer, ix *index.CapabilityIndex, chain *resolver.Chain) *LifetimeValidator {
	return &LifetimeValidator{graph: g, analyzer: a, index: ix, chain: chain}
}

// Validate checks one type. Dependencies are taken from the merged view
// so inherited declarations count; capability references are resolved to
// every concrete implementation, collections included.
func (v *LifetimeValidator) Validate(t *symbol.TypeRecord) []diag.Diagnostic {
	if v.index.Lifetime(t.Name) != symbol.LifetimeSingleton {
		return nil
	}

	var diags []diag.Diagnostic

	for _, ancestor := range v.graph.Chain(t.Name) {
		if v.index.Lifetime(ancestor.Name) == symbol.LifetimeScoped {
			diags = append(diags, diag.SingletonDependsOn(t.Name, ancestor.Name, "inheritance", string(symbol.LifetimeScoped)))
		}
	}

	merged := v.analyzer.Merge(t)
	for _, e := range merged.Edges {
		if e.Source == symbol.SourceConfig {
			continue
		}
		res := v.chain.Resolve(v.index, e.Target)
		for _, impl := range res.Matches {
			lifetime := v.index.Lifetime(impl.Name)
			if lifetime != symbol.LifetimeScoped && lifetime != symbol.LifetimeTransient {
				continue
			}
			diags = append(diags, diag.SingletonDependsOn(t.Name, impl.Name, via(e, impl), string(lifetime)))
		}
	}

	return diags
}

// via names the indirection a violation travelled through: the ancestor
// that declared the edge, or the capability the implementation was
// resolved from. Direct concrete dependencies get no qualifier.
func via(e symbol.DependencyEdge, impl *symbol.TypeRecord) string {
	if e.Level > 0 {
		return e.DeclaredBy
	}
	if e.Target.Name != impl.Name {
		return e.Target.String()
	}
	return ""
}

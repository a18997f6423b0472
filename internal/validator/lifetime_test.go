package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digen/internal/analysis"
	"digen/internal/diag"
	"digen/internal/index"
	"digen/internal/resolver"
	"digen/internal/symbol"
)

func newLifetimeValidator(types ...*symbol.TypeRecord) (*LifetimeValidator, *symbol.Graph) {
	g := symbol.NewGraph()
	for _, t := range types {
		g.Add(t)
	}
	ix := index.Build(g, symbol.LifetimeTransient)
	return NewLifetimeValidator(g, analysis.NewAnalyzer(g), ix, resolver.DefaultChain()), g
}

func singleton(name string, edges ...symbol.DependencyEdge) *symbol.TypeRecord {
	return &symbol.TypeRecord{
		Name:       name,
		Extensible: true,
		Lifetimes:  []symbol.Lifetime{symbol.LifetimeSingleton},
		Edges:      edges,
	}
}

func TestLifetime_SingletonDependsOnScoped(t *testing.T) {
	v, g := newLifetimeValidator(
		singleton("Cache", symbol.DependencyEdge{Target: symbol.TypeRef{Name: "ISession"}, Source: symbol.SourceField, Member: "_session"}),
		&symbol.TypeRecord{Name: "Session", Capabilities: []string{"ISession"}, Lifetimes: []symbol.Lifetime{symbol.LifetimeScoped}},
	)

	diags := v.Validate(g.Lookup("Cache"))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeSingletonScoped, diags[0].Code)
	assert.Equal(t, "Cache", diags[0].Type)
	assert.Contains(t, diags[0].Detail, "Session")
	assert.Contains(t, diags[0].Detail, "via ISession")
}

func TestLifetime_SingletonDependsOnTransient(t *testing.T) {
	v, g := newLifetimeValidator(
		singleton("Cache", symbol.DependencyEdge{Target: symbol.TypeRef{Name: "Mapper"}, Source: symbol.SourceParam}),
		&symbol.TypeRecord{Name: "Mapper", Lifetimes: []symbol.Lifetime{symbol.LifetimeTransient}},
	)

	diags := v.Validate(g.Lookup("Cache"))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeSingletonTransient, diags[0].Code)
	assert.NotContains(t, diags[0].Detail, "via")
}

func TestLifetime_SingletonDependsOnSingletonIsClean(t *testing.T) {
	v, g := newLifetimeValidator(
		singleton("Cache", symbol.DependencyEdge{Target: symbol.TypeRef{Name: "IStore"}, Source: symbol.SourceParam}),
		&symbol.TypeRecord{Name: "Store", Capabilities: []string{"IStore"}, Lifetimes: []symbol.Lifetime{symbol.LifetimeSingleton}},
	)

	assert.Empty(t, v.Validate(g.Lookup("Cache")))
}

func TestLifetime_InheritedEdgeViolation(t *testing.T) {
	base := &symbol.TypeRecord{
		Name: "BaseJob", Extensible: true,
		Edges: []symbol.DependencyEdge{
			{Target: symbol.TypeRef{Name: "ISession"}, Source: symbol.SourceField, Member: "_session"},
		},
	}
	mid := &symbol.TypeRecord{Name: "MidJob", Base: "BaseJob", Extensible: true}
	leaf := singleton("LeafJob")
	leaf.Base = "MidJob"

	v, g := newLifetimeValidator(
		base, mid, leaf,
		&symbol.TypeRecord{Name: "Session", Capabilities: []string{"ISession"}, Lifetimes: []symbol.Lifetime{symbol.LifetimeScoped}},
	)

	diags := v.Validate(g.Lookup("LeafJob"))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeSingletonScoped, diags[0].Code)
	assert.Contains(t, diags[0].Detail, "via BaseJob")
}

func TestLifetime_ScopedAncestor(t *testing.T) {
	base := &symbol.TypeRecord{Name: "ScopedBase", Extensible: true, Lifetimes: []symbol.Lifetime{symbol.LifetimeScoped}}
	leaf := singleton("Leaf")
	leaf.Base = "ScopedBase"

	v, g := newLifetimeValidator(base, leaf)

	diags := v.Validate(g.Lookup("Leaf"))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeSingletonScoped, diags[0].Code)
	assert.Contains(t, diags[0].Detail, "via inheritance")
}

func TestLifetime_CollectionChecksEveryImplementation(t *testing.T) {
	v, g := newLifetimeValidator(
		singleton("Dispatcher", symbol.DependencyEdge{Target: symbol.TypeRef{Name: "IHandler", Collection: true}, Source: symbol.SourceField}),
		&symbol.TypeRecord{Name: "AHandler", Capabilities: []string{"IHandler"}, Lifetimes: []symbol.Lifetime{symbol.LifetimeSingleton}},
		&symbol.TypeRecord{Name: "BHandler", Capabilities: []string{"IHandler"}, Lifetimes: []symbol.Lifetime{symbol.LifetimeScoped}},
	)

	diags := v.Validate(g.Lookup("Dispatcher"))
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Detail, "BHandler")
}

func TestLifetime_GenericCapabilityResolution(t *testing.T) {
	v, g := newLifetimeValidator(
		singleton("Bus", symbol.DependencyEdge{Target: symbol.TypeRef{Name: "IHandler", Collection: true}, Source: symbol.SourceField}),
		&symbol.TypeRecord{Name: "OrderHandler", Capabilities: []string{"IHandler[Order]"}, Lifetimes: []symbol.Lifetime{symbol.LifetimeScoped}},
	)

	diags := v.Validate(g.Lookup("Bus"))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeSingletonScoped, diags[0].Code)
	assert.Contains(t, diags[0].Detail, "OrderHandler")
}

func TestLifetime_NonSingletonIsNotChecked(t *testing.T) {
	v, g := newLifetimeValidator(
		&symbol.TypeRecord{
			Name: "Handler", Extensible: true,
			Lifetimes: []symbol.Lifetime{symbol.LifetimeScoped},
			Edges: []symbol.DependencyEdge{
				{Target: symbol.TypeRef{Name: "Session"}, Source: symbol.SourceParam},
			},
		},
		&symbol.TypeRecord{Name: "Session", Lifetimes: []symbol.Lifetime{symbol.LifetimeScoped}},
	)

	assert.Empty(t, v.Validate(g.Lookup("Handler")))
}

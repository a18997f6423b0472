package index

import (
	"sort"

	"digen/internal/symbol"
)

// CapabilityIndex maps every capability contract to the types that
// implement it, and every type to its full capability set and effective
// lifetime. It is built in one pass over the symbol graph before any
// per-type consumer runs, then read concurrently without locking.
type CapabilityIndex struct {
	implementers map[string][]*symbol.TypeRecord
	capabilities map[string][]string
	lifetimes    map[string]symbol.Lifetime
	contracts    []string
}

// Build constructs the index. Each type is recorded under every
// capability it implements, including capabilities inherited from its
// ancestor chain, and under its own identity. Types without a declared
// lifetime get defaultLifetime; workers always resolve as singletons.
func Build(g *symbol.Graph, defaultLifetime symbol.Lifetime) *CapabilityIndex {
	ix := &CapabilityIndex{
		implementers: make(map[string][]*symbol.TypeRecord),
		capabilities: make(map[string][]string),
		lifetimes:    make(map[string]symbol.Lifetime),
	}

	for _, t := range g.Sorted() {
		caps := inheritedCapabilities(g, t)
		ix.capabilities[t.Name] = caps

		ix.implementers[t.Name] = append(ix.implementers[t.Name], t)
		for _, cap := range caps {
			ix.implementers[cap] = append(ix.implementers[cap], t)
		}

		lifetime := t.DeclaredLifetime()
		if t.Worker {
			lifetime = symbol.LifetimeSingleton
		} else if lifetime == symbol.LifetimeUnset {
			lifetime = defaultLifetime
		}
		ix.lifetimes[t.Name] = lifetime
	}

	for contract, impls := range ix.implementers {
		sort.Slice(impls, func(i, j int) bool { return impls[i].Name < impls[j].Name })
		ix.implementers[contract] = dedupeImplementers(impls)
		ix.contracts = append(ix.contracts, contract)
	}
	sort.Strings(ix.contracts)

	return ix
}

// Implementers returns the types registered under the contract, ordered
// by name. The contract may be a capability or a concrete type name.
func (ix *CapabilityIndex) Implementers(contract string) []*symbol.TypeRecord {
	return ix.implementers[contract]
}

// CapabilitiesOf returns the type's full capability set, inherited
// capabilities included, sorted by name.
func (ix *CapabilityIndex) CapabilitiesOf(name string) []string {
	return ix.capabilities[name]
}

// Lifetime returns the effective lifetime of the named type, or unset
// for unknown names.
func (ix *CapabilityIndex) Lifetime(name string) symbol.Lifetime {
	return ix.lifetimes[name]
}

// Contracts returns every indexed contract name in sorted order, for
// deterministic iteration.
func (ix *CapabilityIndex) Contracts() []string {
	return ix.contracts
}

// inheritedCapabilities merges the type's own capability set with every
// ancestor's, deduplicated and sorted.
func inheritedCapabilities(g *symbol.Graph, t *symbol.TypeRecord) []string {
	seen := make(map[string]bool)
	var caps []string
	add := func(names []string) {
		for _, c := range names {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			caps = append(caps, c)
		}
	}

	add(t.Capabilities)
	for _, ancestor := range g.Chain(t.Name) {
		add(ancestor.Capabilities)
	}
	sort.Strings(caps)
	return caps
}

func dedupeImplementers(impls []*symbol.TypeRecord) []*symbol.TypeRecord {
	out := impls[:0]
	var last string
	for _, t := range impls {
		if t.Name == last && len(out) > 0 {
			continue
		}
		out = append(out, t)
		last = t.Name
	}
	return out
}

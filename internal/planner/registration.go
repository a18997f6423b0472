package planner

import (
	"path"
	"sort"

	"digen/internal/diag"
	"digen/internal/index"
	"digen/internal/symbol"
)

// RegistrationKind separates ordinary service bindings from the fixed
// background-worker binding.
type RegistrationKind string

const (
	KindService RegistrationKind = "service"
	KindWorker  RegistrationKind = "worker"
)

// RegistrationEntry is one planned binding from an implementation to a
// contract. The full tuple is the identity used for deduplication.
type RegistrationEntry struct {
	Implementation string             `json:"implementation"`
	Contract       string             `json:"contract"`
	Lifetime       symbol.Lifetime    `json:"lifetime"`
	Sharing        symbol.SharingMode `json:"sharing"`
	Condition      string             `json:"condition,omitempty"`
	Kind           RegistrationKind   `json:"kind"`
}

// RegistrationPlanner expands per-type registration directives into the
// flat plan for the run. Skip patterns suppress a type's registrations
// while its construction plan is still produced; exceptions opt
// individual types back in.
type RegistrationPlanner struct {
	index          *index.CapabilityIndex
	skipPatterns   []string
	skipExceptions map[string]bool
}

func NewRegistrationPlanner(ix *index.CapabilityIndex, skipPatterns, skipExceptions []string) *RegistrationPlanner {
	exceptions := make(map[string]bool, len(skipExceptions))
	for _, name := range skipExceptions {
		exceptions[name] = true
	}
	return &RegistrationPlanner{index: ix, skipPatterns: skipPatterns, skipExceptions: exceptions}
}

// BuildRegistrationPlan expands every type in the graph and returns the
// deduplicated plan in its fixed output order.
func (rp *RegistrationPlanner) BuildRegistrationPlan(g *symbol.Graph) ([]RegistrationEntry, []diag.Diagnostic) {
	var entries []RegistrationEntry
	var diags []diag.Diagnostic

	for _, t := range g.Sorted() {
		expanded, ds := rp.Expand(t)
		entries = append(entries, expanded...)
		diags = append(diags, ds...)
	}

	return Dedupe(entries), diags
}

// Expand turns one type's directive into registration entries.
func (rp *RegistrationPlanner) Expand(t *symbol.TypeRecord) ([]RegistrationEntry, []diag.Diagnostic) {
	var diags []diag.Diagnostic

	if t.ConflictingLifetimes() {
		declared := make([]string, len(t.Lifetimes))
		for i, l := range t.Lifetimes {
			declared[i] = string(l)
		}
		diags = append(diags, diag.ConflictingLifetimes(t.Name, declared))
	}

	if rp.skipped(t.Name) {
		return nil, diags
	}

	if t.Worker {
		if lt := t.DeclaredLifetime(); lt != symbol.LifetimeUnset && lt != symbol.LifetimeSingleton {
			diags = append(diags, diag.WorkerLifetime(t.Name, string(lt)))
		}
		entry := RegistrationEntry{
			Implementation: t.Name,
			Contract:       t.Name,
			Lifetime:       symbol.LifetimeSingleton,
			Sharing:        symbol.SharingSeparate,
			Condition:      t.Directive.Condition,
			Kind:           KindWorker,
		}
		return []RegistrationEntry{entry}, diags
	}

	entries := rp.expand(t, t.Directive)

	if !t.Directive.IsDefault() && sameEntrySet(entries, rp.expand(t, symbol.Directive{})) {
		diags = append(diags, diag.RedundantDirective(t.Name, string(t.Directive.Mode)))
	}

	return entries, diags
}

// expand lists the contracts a directive selects, applies exclusions,
// and stamps lifetime, sharing, and condition onto each entry.
func (rp *RegistrationPlanner) expand(t *symbol.TypeRecord, d symbol.Directive) []RegistrationEntry {
	lifetime := rp.index.Lifetime(t.Name)
	caps := rp.index.CapabilitiesOf(t.Name)

	var contracts []string
	switch d.Mode {
	case symbol.DirectiveDefault, symbol.DirectiveAll:
		contracts = append(contracts, t.Name)
		contracts = append(contracts, caps...)
	case symbol.DirectiveSelf:
		contracts = append(contracts, t.Name)
	case symbol.DirectiveCapabilities:
		contracts = append(contracts, caps...)
	case symbol.DirectiveSelective:
		if d.Sharing == symbol.SharingShared {
			contracts = append(contracts, t.Name)
		}
		listed := append([]string(nil), d.Listed...)
		sort.Strings(listed)
		contracts = append(contracts, listed...)
	}

	excluded := make(map[string]bool, len(d.Exclusions))
	for _, name := range d.Exclusions {
		excluded[name] = true
	}

	sharing := d.Sharing
	if sharing == "" {
		sharing = symbol.SharingSeparate
	}

	entries := make([]RegistrationEntry, 0, len(contracts))
	for _, contract := range contracts {
		if contract == "" || excluded[contract] {
			continue
		}
		entries = append(entries, RegistrationEntry{
			Implementation: t.Name,
			Contract:       contract,
			Lifetime:       lifetime,
			Sharing:        sharing,
			Condition:      d.Condition,
			Kind:           KindService,
		})
	}
	return entries
}

// Dedupe collapses identical tuples and fixes the plan order.
func Dedupe(entries []RegistrationEntry) []RegistrationEntry {
	seen := make(map[RegistrationEntry]bool, len(entries))
	out := make([]RegistrationEntry, 0, len(entries))
	for _, e := range entries {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Implementation != b.Implementation {
			return a.Implementation < b.Implementation
		}
		if a.Contract != b.Contract {
			return a.Contract < b.Contract
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Lifetime != b.Lifetime {
			return a.Lifetime < b.Lifetime
		}
		if a.Sharing != b.Sharing {
			return a.Sharing < b.Sharing
		}
		return a.Condition < b.Condition
	})

	return out
}

// Covered reports whether the plan contains a binding from the
// implementation to the contract.
func Covered(plan []RegistrationEntry, implementation, contract string) bool {
	for _, e := range plan {
		if e.Implementation == implementation && e.Contract == contract {
			return true
		}
	}
	return false
}

func (rp *RegistrationPlanner) skipped(name string) bool {
	if rp.skipExceptions[name] {
		return false
	}
	for _, pattern := range rp.skipPatterns {
		if pattern == name {
			return true
		}
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func sameEntrySet(a, b []RegistrationEntry) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[RegistrationEntry]int, len(a))
	for _, e := range a {
		set[e]++
	}
	for _, e := range b {
		set[e]--
		if set[e] < 0 {
			return false
		}
	}
	return true
}

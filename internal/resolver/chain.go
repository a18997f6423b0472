package resolver

import (
	"sort"
	"strings"

	"digen/internal/index"
	"digen/internal/symbol"
)

// Resolution is the outcome of resolving one dependency target to
// concrete implementations. Resolver names which chain member produced
// the matches; it stays empty when nothing matched, which callers must
// treat as an explicitly reported case rather than an empty success.
type Resolution struct {
	Target   symbol.TypeRef
	Matches  []*symbol.TypeRecord
	Resolver string
}

// CapabilityResolver is one strategy for mapping a capability reference
// to implementing types.
type CapabilityResolver interface {
	Name() string
	Resolve(ix *index.CapabilityIndex, target symbol.TypeRef) []*symbol.TypeRecord
}

// Chain runs resolvers in order and keeps the first non-empty answer.
type Chain struct {
	resolvers []CapabilityResolver
}

// NewChain builds a chain from the given resolvers.
func NewChain(resolvers ...CapabilityResolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// DefaultChain resolves by exact contract lookup first, then by the
// generic-base heuristic.
func DefaultChain() *Chain {
	return NewChain(&ExactResolver{}, &GenericBaseResolver{})
}

// Resolve walks the chain for one target.
func (c *Chain) Resolve(ix *index.CapabilityIndex, target symbol.TypeRef) Resolution {
	res := Resolution{Target: target}
	for _, r := range c.resolvers {
		matches := r.Resolve(ix, target)
		if len(matches) > 0 {
			res.Matches = matches
			res.Resolver = r.Name()
			return res
		}
	}
	return res
}

// ExactResolver looks the target name up directly in the index.
type ExactResolver struct{}

func (r *ExactResolver) Name() string { return "exact" }

func (r *ExactResolver) Resolve(ix *index.CapabilityIndex, target symbol.TypeRef) []*symbol.TypeRecord {
	return ix.Implementers(target.Name)
}

// GenericBaseResolver handles the case where nothing is registered
// under the requested capability but implementations exist under a more
// specific generic form, e.g. a request for Handler matched by types
// implementing Handler[Order]. This scan of declared capability sets is
// a heuristic, not a guaranteed-correct resolution.
type GenericBaseResolver struct{}

func (r *GenericBaseResolver) Name() string { return "generic_base" }

func (r *GenericBaseResolver) Resolve(ix *index.CapabilityIndex, target symbol.TypeRef) []*symbol.TypeRecord {
	var matches []*symbol.TypeRecord
	seen := make(map[string]bool)

	for _, contract := range ix.Contracts() {
		if genericBase(contract) != target.Name {
			continue
		}
		for _, impl := range ix.Implementers(contract) {
			if seen[impl.Name] {
				continue
			}
			seen[impl.Name] = true
			matches = append(matches, impl)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches
}

// genericBase strips a generic argument list: Handler[Order] -> Handler.
// Names without one return empty so they never match themselves here.
func genericBase(name string) string {
	open := strings.Index(name, "[")
	if open <= 0 || !strings.HasSuffix(name, "]") {
		return ""
	}
	return name[:open]
}

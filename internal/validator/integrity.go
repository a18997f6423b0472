package validator

import (
	"strings"

	"digen/internal/diag"
	"digen/internal/index"
	"digen/internal/planner"
	"digen/internal/resolver"
	"digen/internal/symbol"
)

// IntegrityValidator checks each type's own declared dependencies
// against what actually exists: a declared target must resolve to at
// least one implementation, and every resolved implementation must
// carry a registration for the requested contract. An implementation
// registered only under other contracts, because of a skip pattern or
// a directive exclusion, is reported. Inherited edges are checked when
// their declaring ancestor is validated, so nothing is reported twice.
type IntegrityValidator struct {
	index      *index.CapabilityIndex
	chain      *resolver.Chain
	registered map[string]map[string]bool
}

func NewIntegrityValidator(ix *index.CapabilityIndex, chain *resolver.Chain, plan []planner.RegistrationEntry) *IntegrityValidator {
	registered := make(map[string]map[string]bool, len(plan))
	for _, e := range plan {
		contracts := registered[e.Implementation]
		if contracts == nil {
			contracts = make(map[string]bool)
			registered[e.Implementation] = contracts
		}
		contracts[e.Contract] = true
	}
	return &IntegrityValidator{index: ix, chain: chain, registered: registered}
}

func (v *IntegrityValidator) Validate(t *symbol.TypeRecord) []diag.Diagnostic {
	var diags []diag.Diagnostic

	for _, e := range t.Edges {
		if e.Source == symbol.SourceConfig {
			continue
		}

		res := v.chain.Resolve(v.index, e.Target)
		if len(res.Matches) == 0 {
			if e.Target.Collection {
				diags = append(diags, diag.EmptyCollection(t.Name, e.Target.String()))
			} else {
				diags = append(diags, diag.MissingImplementation(t.Name, e.Target.String()))
			}
			continue
		}

		var unregistered []string
		for _, impl := range res.Matches {
			if !v.covered(impl.Name, e.Target) {
				unregistered = append(unregistered, impl.Name)
			}
		}
		if len(unregistered) > 0 {
			diags = append(diags, diag.UnregisteredImplementation(t.Name, e.Target.String(), unregistered))
		}
	}

	return diags
}

// covered reports whether the implementation is registered under the
// requested contract. A concrete-type target counts as its own
// contract, and generic-base matches register under the specific form,
// e.g. Handler[Order] for a Handler request.
func (v *IntegrityValidator) covered(implementation string, target symbol.TypeRef) bool {
	contracts := v.registered[implementation]
	if contracts[target.Name] {
		return true
	}
	for c := range contracts {
		if strings.HasPrefix(c, target.Name+"[") && strings.HasSuffix(c, "]") {
			return true
		}
	}
	return false
}

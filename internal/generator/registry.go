package generator

import (
	"fmt"
	"go/format"
	"sort"
	"strings"

	"digen/internal/planner"
	"digen/internal/symbol"
)

// RegistryFileName is the single registry artifact of a run.
const RegistryFileName = "registry.gen.go"

// RegistryGenerator renders the registration plan as one Go file of
// container bindings, services before workers, grouped by lifetime.
type RegistryGenerator struct {
	pkg string
}

func NewRegistryGenerator(pkg string) *RegistryGenerator {
	if pkg == "" {
		pkg = "digen_gen"
	}
	return &RegistryGenerator{pkg: pkg}
}

func (g *RegistryGenerator) Generate(entries []planner.RegistrationEntry) string {
	grouped := append([]planner.RegistrationEntry(nil), entries...)
	sort.SliceStable(grouped, func(i, j int) bool {
		a, b := grouped[i], grouped[j]
		if a.Kind != b.Kind {
			return kindRank(a.Kind) < kindRank(b.Kind)
		}
		return lifetimeRank(a.Lifetime) < lifetimeRank(b.Lifetime)
	})

	var sb strings.Builder
	sb.WriteString(generatedHeader)
	sb.WriteString("\npackage " + g.pkg + "\n\n")
	sb.WriteString(`// Registration is one planned container binding.
type Registration struct {
	Implementation string
	Contract       string
	Lifetime       string
	Sharing        string
	Condition      string
	Kind           string
}

// Registrations returns every planned binding.
func Registrations() []Registration {
	return []Registration{
`)

	lastGroup := ""
	for _, e := range grouped {
		group := fmt.Sprintf("%s %ss", e.Lifetime, e.Kind)
		if group != lastGroup {
			fmt.Fprintf(&sb, "\t\t// %s\n", group)
			lastGroup = group
		}
		fmt.Fprintf(&sb, "\t\t{Implementation: %q, Contract: %q, Lifetime: %q, Sharing: %q,",
			e.Implementation, e.Contract, e.Lifetime, e.Sharing)
		if e.Condition != "" {
			fmt.Fprintf(&sb, " Condition: %q,", e.Condition)
		}
		fmt.Fprintf(&sb, " Kind: %q},\n", e.Kind)
	}

	sb.WriteString("\t}\n}\n")

	src := sb.String()
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return src
	}
	return string(formatted)
}

func kindRank(k planner.RegistrationKind) int {
	if k == planner.KindWorker {
		return 1
	}
	return 0
}

func lifetimeRank(l symbol.Lifetime) int {
	switch l {
	case symbol.LifetimeSingleton:
		return 0
	case symbol.LifetimeScoped:
		return 1
	case symbol.LifetimeTransient:
		return 2
	}
	return 3
}

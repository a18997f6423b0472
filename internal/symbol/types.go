package symbol

import "strings"

// Lifetime is the sharing scope of a constructed instance.
type Lifetime string

const (
	LifetimeUnset     Lifetime = ""
	LifetimeSingleton Lifetime = "singleton"
	LifetimeScoped    Lifetime = "scoped"
	LifetimeTransient Lifetime = "transient"
)

// ParseLifetime normalizes a declared lifetime string.
func ParseLifetime(s string) (Lifetime, bool) {
	switch Lifetime(strings.ToLower(strings.TrimSpace(s))) {
	case LifetimeUnset:
		return LifetimeUnset, true
	case LifetimeSingleton:
		return LifetimeSingleton, true
	case LifetimeScoped:
		return LifetimeScoped, true
	case LifetimeTransient:
		return LifetimeTransient, true
	}
	return LifetimeUnset, false
}

// SourceKind tags how a dependency edge was declared.
type SourceKind string

const (
	// SourceField is a dependency stored on the type as a member.
	SourceField SourceKind = "field"
	// SourceParam is a pass-through dependency with no stored member.
	SourceParam SourceKind = "param"
	// SourceConfig is a configuration-bound value stored on the type.
	SourceConfig SourceKind = "config"
)

// Stored reports whether the kind produces a stored member.
func (k SourceKind) Stored() bool {
	return k == SourceField || k == SourceConfig
}

// DirectiveMode selects which registration surface a type exposes.
type DirectiveMode string

const (
	// DirectiveDefault registers the type under its own identity plus
	// every capability it implements.
	DirectiveDefault DirectiveMode = ""
	// DirectiveSelective registers only the explicitly listed capabilities.
	DirectiveSelective DirectiveMode = "selective"
	// DirectiveAll is the default surface, requested explicitly.
	DirectiveAll DirectiveMode = "all"
	// DirectiveSelf registers the implementation only.
	DirectiveSelf DirectiveMode = "self"
	// DirectiveCapabilities registers the capabilities only.
	DirectiveCapabilities DirectiveMode = "capabilities"
)

// SharingMode controls whether multiple contracts registered for one
// implementation resolve to the same instance.
type SharingMode string

const (
	SharingSeparate SharingMode = "separate"
	SharingShared   SharingMode = "shared"
)

// TypeRef names a dependency target: a capability contract or a concrete
// type, optionally as a collection of all implementations.
type TypeRef struct {
	Name       string `json:"name"`
	Collection bool   `json:"collection,omitempty"`
}

func (r TypeRef) String() string {
	if r.Collection {
		return "[]" + r.Name
	}
	return r.Name
}

// ParseTypeRef reads a target name, treating a "[]" prefix as a
// collection-of-capability dependency.
func ParseTypeRef(s string) TypeRef {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "[]"); ok {
		return TypeRef{Name: strings.TrimPrefix(rest, "*"), Collection: true}
	}
	return TypeRef{Name: strings.TrimPrefix(s, "*")}
}

// DependencyEdge is one declared need for an instance satisfying a
// capability or concrete type.
type DependencyEdge struct {
	Target     TypeRef    `json:"target"`
	DeclaredBy string     `json:"declared_by"`
	Source     SourceKind `json:"source"`
	// Member is the stored-member name. Only meaningful for field and
	// config edges; when empty the planner derives one from naming options.
	Member string `json:"member,omitempty"`
	// Key is the configuration key for config edges.
	Key string `json:"key,omitempty"`
	// Level is the hierarchy distance from the analyzed type: 0 is the
	// type itself, increasing toward ancestors.
	Level int `json:"level"`
}

// Directive is a type's registration directive.
type Directive struct {
	Mode       DirectiveMode `json:"mode,omitempty"`
	Listed     []string      `json:"listed,omitempty"`
	Exclusions []string      `json:"exclusions,omitempty"`
	Sharing    SharingMode   `json:"sharing,omitempty"`
	// Condition is an uninterpreted predicate propagated verbatim into
	// every registration entry produced for the type.
	Condition string `json:"condition,omitempty"`
}

// IsDefault reports whether the directive requests nothing beyond the
// default expansion.
func (d Directive) IsDefault() bool {
	return d.Mode == DirectiveDefault && len(d.Listed) == 0 &&
		len(d.Exclusions) == 0 && d.Sharing != SharingShared && d.Condition == ""
}

// TypeRecord is one declared service type. Records are created once per
// analysis run from the symbol graph and never mutated afterward.
type TypeRecord struct {
	Name    string `json:"name"`
	Package string `json:"package,omitempty"`
	File    string `json:"file,omitempty"`
	// Line and EndLine bound the declaration in File, 1-based inclusive.
	// Zero means the position is unknown, as in hand-written graph
	// documents.
	Line         int      `json:"line,omitempty"`
	EndLine      int      `json:"end_line,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	// Base names the immediate base type; empty for root types.
	Base  string           `json:"base,omitempty"`
	Edges []DependencyEdge `json:"edges,omitempty"`
	// Lifetimes holds every declared lifetime directive in declaration
	// order. More than one distinct value is a redundancy finding; the
	// first one wins.
	Lifetimes []Lifetime `json:"lifetimes,omitempty"`
	Directive Directive  `json:"directive,omitempty"`
	// Extensible reports whether the generator may append members to the
	// type. Declaring dependencies on a non-extensible type is a
	// structural error.
	Extensible bool `json:"extensible"`
	Exported   bool `json:"exported"`
	// Worker marks a long-running background worker, which always gets a
	// single fixed singleton registration.
	Worker bool `json:"worker,omitempty"`
}

// DeclaredLifetime returns the first declared lifetime, or unset.
func (t *TypeRecord) DeclaredLifetime() Lifetime {
	if len(t.Lifetimes) == 0 {
		return LifetimeUnset
	}
	return t.Lifetimes[0]
}

// ConflictingLifetimes reports whether more than one distinct lifetime
// was declared.
func (t *TypeRecord) ConflictingLifetimes() bool {
	seen := make(map[Lifetime]bool, len(t.Lifetimes))
	for _, l := range t.Lifetimes {
		if l == LifetimeUnset {
			continue
		}
		seen[l] = true
	}
	return len(seen) > 1
}

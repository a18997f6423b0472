package diag

import (
	"fmt"
	"strings"
)

// Diagnostic codes, grouped by taxonomy. Severities are configurable per
// code; the defaults live in DefaultSeverities.
const (
	// Structural findings suppress the affected type's construction plan.
	CodeNotExtensible      = "structural_not_extensible"
	CodeConflictingSources = "structural_conflicting_sources"

	// Graph-integrity findings; analysis continues with partial information.
	CodeMissingImplementation      = "graph_missing_implementation"
	CodeUnregisteredImplementation = "graph_unregistered_implementation"
	CodeCycle                      = "graph_cycle"
	CodeEmptyCollection            = "graph_empty_collection"

	// Lifetime findings.
	CodeSingletonScoped    = "lifetime_singleton_scoped"
	CodeSingletonTransient = "lifetime_singleton_transient"
	CodeWorkerLifetime     = "lifetime_worker"

	// Redundancy findings.
	CodeDuplicateDependency  = "redundant_duplicate_dependency"
	CodeRedundantDirective   = "redundant_directive"
	CodeConflictingLifetimes = "redundant_conflicting_lifetimes"

	// Internal tool faults, always reported.
	CodeAnalysisPanic = "internal_analysis_panic"
)

// Severity of a diagnostic. Off drops the diagnostic entirely.
type Severity string

const (
	SeverityOff     Severity = "off"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity normalizes a configured severity string.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityOff:
		return SeverityOff, true
	case SeverityInfo:
		return SeverityInfo, true
	case SeverityWarning:
		return SeverityWarning, true
	case SeverityError:
		return SeverityError, true
	}
	return "", false
}

// Rank orders severities for output sorting, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// DefaultSeverities returns the built-in code severity table.
func DefaultSeverities() map[string]Severity {
	return map[string]Severity{
		CodeNotExtensible:              SeverityError,
		CodeConflictingSources:         SeverityError,
		CodeMissingImplementation:      SeverityError,
		CodeUnregisteredImplementation: SeverityWarning,
		CodeCycle:                      SeverityError,
		CodeEmptyCollection:            SeverityWarning,
		CodeSingletonScoped:            SeverityError,
		CodeSingletonTransient:         SeverityWarning,
		CodeWorkerLifetime:             SeverityWarning,
		CodeDuplicateDependency:        SeverityWarning,
		CodeRedundantDirective:         SeverityWarning,
		CodeConflictingLifetimes:       SeverityWarning,
		CodeAnalysisPanic:              SeverityError,
	}
}

// NotExtensible reports dependency edges declared on a type the
// generator may not extend.
func NotExtensible(typeName string, edgeCount int) Diagnostic {
	return Diagnostic{
		Code:   CodeNotExtensible,
		Type:   typeName,
		Detail: fmt.Sprintf("%d dependency edge(s) declared but the type is not extensible; no construction plan emitted", edgeCount),
	}
}

// ConflictingSources reports one target declared under two source kinds
// in the same type's own declarations.
func ConflictingSources(typeName, target string, kinds []string) Diagnostic {
	return Diagnostic{
		Code:   CodeConflictingSources,
		Type:   typeName,
		Detail: fmt.Sprintf("target %s declared via conflicting source kinds (%s)", target, strings.Join(kinds, ", ")),
	}
}

// MissingImplementation reports a declared target with no implementation.
func MissingImplementation(typeName, target string) Diagnostic {
	return Diagnostic{
		Code:   CodeMissingImplementation,
		Type:   typeName,
		Detail: fmt.Sprintf("no implementation found for declared dependency %s", target),
	}
}

// UnregisteredImplementation reports a resolvable dependency whose
// implementations never make it into the registration plan.
func UnregisteredImplementation(typeName, target string, impls []string) Diagnostic {
	return Diagnostic{
		Code:   CodeUnregisteredImplementation,
		Type:   typeName,
		Detail: fmt.Sprintf("dependency %s resolves to unregistered implementation(s): %s", target, strings.Join(impls, ", ")),
	}
}

// Cycle reports one circular dependency chain. The path lists each
// participant once; the closing hop back to the first is rendered
// explicitly.
func Cycle(path []string) Diagnostic {
	detail := strings.Join(path, " -> ")
	if len(path) > 0 {
		detail += " -> " + path[0]
	}
	first := ""
	if len(path) > 0 {
		first = path[0]
	}
	return Diagnostic{
		Code:   CodeCycle,
		Type:   first,
		Detail: "circular dependency chain: " + detail,
	}
}

// EmptyCollection reports a collection dependency that resolved to zero
// implementations, including via the generic-base fallback.
func EmptyCollection(typeName, target string) Diagnostic {
	return Diagnostic{
		Code:   CodeEmptyCollection,
		Type:   typeName,
		Detail: fmt.Sprintf("collection dependency %s has no implementations", target),
	}
}

// SingletonDependsOn reports a lifetime violation on a singleton type.
func SingletonDependsOn(typeName, impl, via string, lifetime string) Diagnostic {
	code := CodeSingletonScoped
	if lifetime == "transient" {
		code = CodeSingletonTransient
	}
	detail := fmt.Sprintf("singleton depends on %s %s", lifetime, impl)
	if via != "" {
		detail += " (via " + via + ")"
	}
	return Diagnostic{Code: code, Type: typeName, Detail: detail}
}

// WorkerLifetime reports a worker declared with a non-singleton lifetime.
func WorkerLifetime(typeName string, declared string) Diagnostic {
	return Diagnostic{
		Code:   CodeWorkerLifetime,
		Type:   typeName,
		Detail: fmt.Sprintf("worker registration is always singleton; declared lifetime %s is ignored", declared),
	}
}

// DuplicateDependency reports one target declared at multiple levels of
// the hierarchy; the closest declaration wins.
func DuplicateDependency(typeName, target string, levels []int) Diagnostic {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%d", l)
	}
	return Diagnostic{
		Code:   CodeDuplicateDependency,
		Type:   typeName,
		Detail: fmt.Sprintf("target %s declared at levels %s; keeping the closest declaration", target, strings.Join(parts, ", ")),
	}
}

// RedundantDirective reports a registration directive whose expansion
// equals the default one.
func RedundantDirective(typeName string, mode string) Diagnostic {
	return Diagnostic{
		Code:   CodeRedundantDirective,
		Type:   typeName,
		Detail: fmt.Sprintf("directive %q produces the same registrations as the default", mode),
	}
}

// ConflictingLifetimes reports multiple distinct lifetime declarations.
func ConflictingLifetimes(typeName string, declared []string) Diagnostic {
	return Diagnostic{
		Code:   CodeConflictingLifetimes,
		Type:   typeName,
		Detail: fmt.Sprintf("conflicting lifetime directives (%s); the first one wins", strings.Join(declared, ", ")),
	}
}

// AnalysisPanic wraps a recovered per-type failure. The rest of the run
// continues.
func AnalysisPanic(typeName string, value interface{}) Diagnostic {
	return Diagnostic{
		Code:   CodeAnalysisPanic,
		Type:   typeName,
		Detail: fmt.Sprintf("analysis failed: %v", value),
	}
}

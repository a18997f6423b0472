package graph

import "sort"

// ImpactReport summarizes which types are affected when a set of types
// changes: the changed types themselves, and every type whose
// construction transitively depends on one of them.
type ImpactReport struct {
	DirectlyAffected   []string
	IndirectlyAffected []string
}

// AnalyzeImpact computes the impact of changing the named types. Names
// not present in the digraph are ignored.
func AnalyzeImpact(d *Digraph, changed []string) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []string{},
		IndirectlyAffected: []string{},
	}

	seenDirect := make(map[string]bool)
	for _, name := range changed {
		if !d.nodes[name] || seenDirect[name] {
			continue
		}
		seenDirect[name] = true
		report.DirectlyAffected = append(report.DirectlyAffected, name)
	}
	sort.Strings(report.DirectlyAffected)

	seenIndirect := make(map[string]bool)
	for _, name := range report.DirectlyAffected {
		for _, dep := range d.Dependents(name) {
			if seenDirect[dep] || seenIndirect[dep] {
				continue
			}
			seenIndirect[dep] = true
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
		}
	}
	sort.Strings(report.IndirectlyAffected)

	return report
}

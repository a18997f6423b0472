package validator

import (
	"digen/internal/diag"
	"digen/internal/graph"
)

// ValidateCycles reports every circular dependency chain in the
// resolved digraph, once per cycle.
func ValidateCycles(d *graph.Digraph) []diag.Diagnostic {
	cycles := d.Cycles()
	if len(cycles) == 0 {
		return nil
	}

	diags := make([]diag.Diagnostic, 0, len(cycles))
	for _, cycle := range cycles {
		diags = append(diags, diag.Cycle(cycle))
	}
	return diags
}

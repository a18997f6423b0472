package reporter

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"digen/internal/diag"
	"digen/internal/planner"
	"digen/internal/symbol"
)

func plainConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	return NewConsole(&buf), &buf
}

func TestPrintDiagnostics(t *testing.T) {
	c, buf := plainConsole(t)

	c.PrintDiagnostics([]diag.Diagnostic{
		{Code: "graph_cycle", Severity: diag.SeverityError, Type: "Leaf",
			Detail: "circular dependency chain: Leaf -> Repo -> Leaf"},
		{Code: "redundant_directive", Severity: diag.SeverityInfo, Type: "Svc",
			Detail: "registration directive restates the default expansion"},
	})

	out := buf.String()
	assert.Contains(t, out, "2 findings")
	assert.Contains(t, out, "ERROR [graph_cycle] circular dependency chain: Leaf -> Repo -> Leaf")
	assert.Contains(t, out, "INFO [redundant_directive]")
}

func TestPrintDiagnostics_Empty(t *testing.T) {
	c, buf := plainConsole(t)

	c.PrintDiagnostics(nil)
	assert.Contains(t, buf.String(), "no findings")
}

func TestPrintPlans(t *testing.T) {
	c, buf := plainConsole(t)

	c.PrintPlans([]*planner.ConstructionPlan{
		nil,
		{
			Type: "Leaf",
			Base: "Mid",
			Entries: []planner.PlanEntry{
				{Target: symbol.TypeRef{Name: "ILog"}, Member: "_log", Source: symbol.SourceField, Level: 1},
				{Target: symbol.TypeRef{Name: "IClock"}, Source: symbol.SourceParam, Level: 0},
			},
			BaseForward: []planner.PlanEntry{
				{Target: symbol.TypeRef{Name: "ILog"}, Member: "_log", Source: symbol.SourceField},
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "NewLeaf(ILog(_log), IClock)")
	assert.Contains(t, out, "forwards 1 arg(s) to NewMid")
}

func TestPrintSummary(t *testing.T) {
	c, buf := plainConsole(t)

	c.PrintSummary("0123456789abcdef", 4, 7, []diag.Diagnostic{
		{Code: "a", Severity: diag.SeverityError},
		{Code: "b", Severity: diag.SeverityWarning},
		{Code: "c", Severity: diag.SeverityWarning},
	})

	out := buf.String()
	assert.Contains(t, out, "analysis 0123456789ab")
	assert.Contains(t, out, "plans: 4  registrations: 7  findings: 3")
	assert.Contains(t, out, "errors: 1")
	assert.Contains(t, out, "warnings: 2")
}

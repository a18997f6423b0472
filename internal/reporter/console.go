package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"digen/internal/diag"
	"digen/internal/planner"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Console renders diagnostics and run summaries for humans. It is the
// only component that formats findings as text; everything upstream
// passes them around as data. fatih/color handles NO_COLOR and
// non-terminal output on its own.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// PrintDiagnostics lists every finding, one line each, in the
// aggregator's severity-first order.
func (c *Console) PrintDiagnostics(items []diag.Diagnostic) {
	if len(items) == 0 {
		fmt.Fprintf(c.out, "%s no findings\n", green("✔"))
		return
	}

	fmt.Fprintf(c.out, "%s\n", bold(fmt.Sprintf("%d findings", len(items))))
	for _, d := range items {
		fmt.Fprintf(c.out, "  %s %s %s\n", severityTag(d.Severity), gray("["+d.Code+"]"), d.Detail)
	}
}

// PrintPlans lists each construction plan as a pseudo-signature.
func (c *Console) PrintPlans(plans []*planner.ConstructionPlan) {
	for _, p := range plans {
		if p == nil {
			continue
		}
		parts := make([]string, len(p.Entries))
		for i, e := range p.Entries {
			parts[i] = e.String()
		}
		fmt.Fprintf(c.out, "  %s(%s)\n", bold("New"+p.Type), strings.Join(parts, ", "))
		if p.Base != "" {
			fmt.Fprintf(c.out, "    %s\n", gray(fmt.Sprintf("forwards %d arg(s) to New%s", len(p.BaseForward), p.Base)))
		}
	}
}

// PrintSummary prints the run totals with severity counts.
func (c *Console) PrintSummary(fingerprint string, plans, registrations int, items []diag.Diagnostic) {
	errors, warnings := 0, 0
	for _, d := range items {
		switch d.Severity {
		case diag.SeverityError:
			errors++
		case diag.SeverityWarning:
			warnings++
		}
	}

	if len(fingerprint) > 12 {
		fingerprint = fingerprint[:12]
	}
	fmt.Fprintf(c.out, "%s %s\n", bold("analysis"), gray(fingerprint))
	fmt.Fprintf(c.out, "  plans: %d  registrations: %d  findings: %d", plans, registrations, len(items))
	if errors > 0 {
		fmt.Fprintf(c.out, "  %s", red(fmt.Sprintf("errors: %d", errors)))
	}
	if warnings > 0 {
		fmt.Fprintf(c.out, "  %s", yellow(fmt.Sprintf("warnings: %d", warnings)))
	}
	fmt.Fprintln(c.out)
}

func severityTag(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return red("ERROR")
	case diag.SeverityWarning:
		return yellow(" WARN")
	case diag.SeverityInfo:
		return cyan(" INFO")
	}
	return string(s)
}

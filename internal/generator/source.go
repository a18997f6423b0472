package generator

import (
	"fmt"
	"go/format"
	"go/token"
	"strings"
	"unicode"

	"digen/internal/planner"
	"digen/internal/symbol"
)

const generatedHeader = "// Code generated by digen. DO NOT EDIT.\n"

// SourceGenerator renders construction plans as Go constructor files.
type SourceGenerator struct {
	pkg string
}

func NewSourceGenerator(pkg string) *SourceGenerator {
	if pkg == "" {
		pkg = "digen_gen"
	}
	return &SourceGenerator{pkg: pkg}
}

// FileName returns the output file name for one plan.
func (g *SourceGenerator) FileName(plan *planner.ConstructionPlan) string {
	return toSnake(plan.Type) + ".gen.go"
}

// Constructor renders the constructor source for one plan: the full
// parameter list in plan order, the forwarding call to the base
// constructor, and one assignment per stored member. The output is
// gofmt-formatted; if formatting fails the raw rendering is returned so
// the broken output stays inspectable.
func (g *SourceGenerator) Constructor(plan *planner.ConstructionPlan) (string, error) {
	if plan == nil {
		return "", fmt.Errorf("nil construction plan")
	}

	params := paramNames(plan.Entries)

	var sb strings.Builder
	sb.WriteString(generatedHeader)
	sb.WriteString("\npackage " + g.pkg + "\n\n")
	fmt.Fprintf(&sb, "// New%s builds %s from its planned dependencies.\n", plan.Type, plan.Type)
	fmt.Fprintf(&sb, "func New%s(%s) *%s {\n", plan.Type, signature(plan.Entries, params), plan.Type)
	fmt.Fprintf(&sb, "\tv := &%s{}\n", plan.Type)

	if plan.Base != "" {
		args, err := forwardArgs(plan, params)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "\tv.%s = *New%s(%s)\n", plan.Base, plan.Base, strings.Join(args, ", "))
	}

	for i, e := range plan.Entries {
		if e.Level != 0 || e.Member == "" {
			continue
		}
		fmt.Fprintf(&sb, "\tv.%s = %s\n", e.Member, params[i])
	}

	sb.WriteString("\treturn v\n}\n")

	src := sb.String()
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return src, nil
	}
	return string(formatted), nil
}

// signature joins the parameter declarations in plan order.
func signature(entries []planner.PlanEntry, params []string) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = params[i] + " " + e.Target.String()
	}
	return strings.Join(parts, ", ")
}

// forwardArgs matches base-plan slots to this plan's parameters. Every
// base entry target has a slot here: closest-level dedup keeps one entry
// per target, never zero.
func forwardArgs(plan *planner.ConstructionPlan, params []string) ([]string, error) {
	byTarget := make(map[string]string, len(plan.Entries))
	for i, e := range plan.Entries {
		byTarget[e.Target.String()] = params[i]
	}

	args := make([]string, len(plan.BaseForward))
	for i, e := range plan.BaseForward {
		param, ok := byTarget[e.Target.String()]
		if !ok {
			return nil, fmt.Errorf("plan %s: base slot %s has no matching entry", plan.Type, e.Target)
		}
		args[i] = param
	}
	return args, nil
}

// paramNames derives one unique parameter name per plan slot.
func paramNames(entries []planner.PlanEntry) []string {
	used := make(map[string]bool, len(entries))
	names := make([]string, len(entries))
	for i, e := range entries {
		name := paramName(e)
		for used[name] || token.IsKeyword(name) {
			name += "_"
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func paramName(e planner.PlanEntry) string {
	if m := strings.TrimLeft(e.Member, "_"); m != "" {
		return lowerFirst(m)
	}
	return derivedName(e.Target)
}

func derivedName(ref symbol.TypeRef) string {
	name := ref.Name
	if rest, ok := strings.CutPrefix(name, "I"); ok && startsUpper(rest) {
		name = rest
	}
	name = lowerFirst(name)
	if ref.Collection && !strings.HasSuffix(name, "s") {
		name += "s"
	}
	if name == "" {
		name = "dep"
	}
	return name
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func toSnake(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	out := strings.Trim(sb.String(), "_")
	if out == "" {
		return "type"
	}
	return out
}

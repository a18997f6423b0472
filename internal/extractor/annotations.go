package extractor

import (
	"fmt"
	"strings"

	"digen/internal/symbol"
)

// annotationSet is everything a type's digen comment block declares.
type annotationSet struct {
	Service   bool
	Worker    bool
	Sealed    bool
	Base      string
	Lifetimes []symbol.Lifetime
	Caps      []string
	Requires  []symbol.TypeRef
	Directive symbol.Directive
}

// parseAnnotations reads the digen directive lines out of a doc comment.
// Directives follow the Go convention: the line must start with "//digen:"
// with no space after the slashes. Returns nil when the comment carries no
// digen lines at all.
func parseAnnotations(comments []string) (*annotationSet, error) {
	var (
		set          annotationSet
		found        bool
		seenService  bool
		seenRegister bool
	)

	for _, comment := range comments {
		for _, line := range strings.Split(comment, "\n") {
			rest, ok := strings.CutPrefix(strings.TrimSpace(line), "//digen:")
			if !ok {
				continue
			}
			found = true

			name, args, _ := strings.Cut(rest, " ")
			args = strings.TrimSpace(args)

			switch name {
			case "service":
				if seenService {
					return nil, fmt.Errorf("duplicate //digen:service")
				}
				seenService = true
				set.Service = true
				if err := parseServiceOptions(&set, args); err != nil {
					return nil, err
				}
			case "implements":
				caps := splitList(args)
				if len(caps) == 0 {
					return nil, fmt.Errorf("//digen:implements needs at least one capability")
				}
				set.Caps = append(set.Caps, caps...)
			case "requires":
				fields := strings.Fields(args)
				if len(fields) != 1 {
					return nil, fmt.Errorf("//digen:requires expects exactly one target, got %q", args)
				}
				set.Requires = append(set.Requires, symbol.ParseTypeRef(fields[0]))
			case "register":
				if seenRegister {
					return nil, fmt.Errorf("duplicate //digen:register")
				}
				seenRegister = true
				if err := parseRegister(&set.Directive, args); err != nil {
					return nil, err
				}
			case "lifetime":
				lt, ok := symbol.ParseLifetime(args)
				if !ok || lt == symbol.LifetimeUnset {
					return nil, fmt.Errorf("unknown lifetime %q", args)
				}
				set.Lifetimes = append(set.Lifetimes, lt)
			default:
				return nil, fmt.Errorf("unknown annotation //digen:%s", name)
			}
		}
	}

	if !found {
		return nil, nil
	}
	return &set, nil
}

func parseServiceOptions(set *annotationSet, args string) error {
	for _, opt := range strings.Fields(args) {
		key, value, hasValue := strings.Cut(opt, "=")
		switch {
		case key == "worker" && !hasValue:
			set.Worker = true
		case key == "sealed" && !hasValue:
			set.Sealed = true
		case key == "lifetime" && hasValue:
			lt, ok := symbol.ParseLifetime(value)
			if !ok || lt == symbol.LifetimeUnset {
				return fmt.Errorf("unknown lifetime %q", value)
			}
			set.Lifetimes = append(set.Lifetimes, lt)
		case key == "extends" && hasValue:
			if value == "" {
				return fmt.Errorf("empty extends= value")
			}
			set.Base = value
		default:
			return fmt.Errorf("unknown option %q in //digen:service", opt)
		}
	}
	return nil
}

func parseRegister(d *symbol.Directive, args string) error {
	fields := strings.Fields(args)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		switch {
		case f == "shared":
			d.Sharing = symbol.SharingShared
		case strings.HasPrefix(f, "mode="):
			mode, err := parseMode(strings.TrimPrefix(f, "mode="))
			if err != nil {
				return err
			}
			d.Mode = mode
		case strings.HasPrefix(f, "only="):
			d.Listed = splitList(strings.TrimPrefix(f, "only="))
			if d.Mode == symbol.DirectiveDefault {
				d.Mode = symbol.DirectiveSelective
			}
		case strings.HasPrefix(f, "exclude="):
			d.Exclusions = splitList(strings.TrimPrefix(f, "exclude="))
		case strings.HasPrefix(f, "when="):
			// The predicate runs to the end of the line, spaces included.
			at := strings.Index(args, "when=")
			d.Condition = strings.TrimSpace(args[at+len("when="):])
			return nil
		default:
			return fmt.Errorf("unknown option %q in //digen:register", f)
		}
	}
	return nil
}

func parseMode(s string) (symbol.DirectiveMode, error) {
	switch mode := symbol.DirectiveMode(s); mode {
	case symbol.DirectiveSelective, symbol.DirectiveAll,
		symbol.DirectiveSelf, symbol.DirectiveCapabilities:
		return mode, nil
	}
	return symbol.DirectiveDefault, fmt.Errorf("unknown register mode %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package planner

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"digen/internal/symbol"
)

// NamingOptions control how a capability name turns into a stored member
// name when a field or config edge does not carry one explicitly. The
// literal rendering of members and parameters stays with the emitter;
// the planner only fixes the derived name.
type NamingOptions struct {
	// StripPrefix is a conventional leading marker removed from the
	// capability name, usually "I". It is stripped only when the rest of
	// the name still starts with an upper-case rune, so Item stays Item.
	StripPrefix string
	// MemberPrefix is prepended to every derived member name.
	MemberPrefix string
	// MemberCase is "lower" to lower the first rune or "preserve".
	MemberCase string
}

// DefaultNaming derives ILog into _log.
func DefaultNaming() NamingOptions {
	return NamingOptions{StripPrefix: "I", MemberPrefix: "_", MemberCase: "lower"}
}

// MemberName derives the stored member name for a dependency target.
// Collection targets get a plural name: []IHandler becomes _handlers.
func (n NamingOptions) MemberName(target symbol.TypeRef) string {
	name := target.Name

	if n.StripPrefix != "" {
		if rest, ok := strings.CutPrefix(name, n.StripPrefix); ok && startsUpper(rest) {
			name = rest
		}
	}

	if n.MemberCase == "lower" && name != "" {
		r, size := utf8.DecodeRuneInString(name)
		name = string(unicode.ToLower(r)) + name[size:]
	}

	if target.Collection && !strings.HasSuffix(name, "s") {
		name += "s"
	}

	return n.MemberPrefix + name
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

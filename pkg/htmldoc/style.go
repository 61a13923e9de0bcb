package htmldoc

import (
	"sort"
	"strings"
)

// Declaration is one property/value pair from an inline style attribute.
type Declaration struct {
	Prop string
	Val  string
}

// ParseStyle splits an inline style attribute into declarations. Empty and
// malformed segments are dropped; property names are lowercased.
func ParseStyle(style string) []Declaration {
	var out []Declaration
	for _, seg := range strings.Split(style, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		colon := strings.IndexByte(seg, ':')
		if colon <= 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(seg[:colon]))
		val := strings.TrimSpace(seg[colon+1:])
		if prop == "" || val == "" {
			continue
		}
		out = append(out, Declaration{Prop: prop, Val: val})
	}
	return out
}

// StyleValue returns the last value of a property in an inline style
// attribute, mirroring CSS last-wins semantics.
func StyleValue(style, prop string) (string, bool) {
	val, found := "", false
	for _, d := range ParseStyle(style) {
		if d.Prop == prop {
			val, found = d.Val, true
		}
	}
	return val, found
}

// NormalizeStyle rewrites an inline style attribute into canonical form:
// duplicate properties collapse last-wins, declarations sort alphabetically,
// and each serializes as "prop: value;". Normalizing twice is a no-op, which
// the auto-fix idempotence guarantee depends on.
func NormalizeStyle(style string) string {
	decls := ParseStyle(style)
	if len(decls) == 0 {
		return ""
	}

	last := make(map[string]string, len(decls))
	for _, d := range decls {
		last[d.Prop] = d.Val
	}

	props := make([]string, 0, len(last))
	for prop := range last {
		props = append(props, prop)
	}
	sort.Strings(props)

	parts := make([]string, len(props))
	for i, prop := range props {
		parts[i] = prop + ": " + last[prop] + ";"
	}
	return strings.Join(parts, " ")
}

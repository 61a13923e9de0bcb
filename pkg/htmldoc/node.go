// Package htmldoc parses the email-HTML subset into a small index-based node
// arena and re-serializes it deterministically. The validation and auto-fix
// engines operate on this arena instead of scanning strings, so repairs stay
// idempotent and structural findings carry real line numbers.
//
// The parser is deliberately lenient: imbalances are recorded and recovered
// from, never fatal. Only genuinely unparseable input (binary content, no
// element at all, an <html> that never closes) is rejected.
package htmldoc

import "fmt"

// Kind discriminates arena node variants.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
	KindDoctype
)

// Attr is a single attribute. Bare attributes (no value) serialize without
// an equals sign.
type Attr struct {
	Key  string
	Val  string
	Bare bool
}

// Node is one arena entry. Children are indices into Document.Nodes.
type Node struct {
	Kind     Kind
	Tag      string // element tag, lowercased
	Attrs    []Attr
	Text     string // text/comment/doctype payload, verbatim
	Children []int
	Parent   int // -1 for roots
	Line     int // 1-based source line of the opening token
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr replaces or appends an attribute value.
func (n *Node) SetAttr(key, val string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			n.Attrs[i].Bare = false
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

// ImbalanceKind classifies a structural defect found during parsing.
type ImbalanceKind string

const (
	ImbalanceUnclosed ImbalanceKind = "unclosed"
	ImbalanceStray    ImbalanceKind = "stray-close"
)

// Imbalance records one tag open/close defect with its inferred line.
type Imbalance struct {
	Kind ImbalanceKind
	Tag  string
	Line int
}

// Document is the parsed arena. Nodes[0..] hold every node; Roots index the
// top-level sequence (doctype, comments, the html element).
type Document struct {
	Nodes      []Node
	Roots      []int
	Imbalances []Imbalance
}

// MalformedDocumentError marks input too broken to analyze at all.
type MalformedDocumentError struct {
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %s", e.Reason)
}

// node returns a pointer into the arena.
func (d *Document) node(i int) *Node { return &d.Nodes[i] }

// Walk visits every node depth-first in document order.
func (d *Document) Walk(visit func(idx int, n *Node)) {
	var rec func(int)
	rec = func(i int) {
		visit(i, &d.Nodes[i])
		for _, c := range d.Nodes[i].Children {
			rec(c)
		}
	}
	for _, r := range d.Roots {
		rec(r)
	}
}

// Elements returns the indices of every element with the given tag, in
// document order.
func (d *Document) Elements(tag string) []int {
	var out []int
	d.Walk(func(idx int, n *Node) {
		if n.Kind == KindElement && n.Tag == tag {
			out = append(out, idx)
		}
	})
	return out
}

// voidTags never carry children and always serialize self-closed.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// rawTextTags swallow their content verbatim until the matching close tag.
var rawTextTags = map[string]bool{
	"style": true, "script": true,
}

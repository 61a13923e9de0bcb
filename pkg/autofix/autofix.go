// Package autofix consumes a validation-style view of an email document and
// emits repaired HTML plus a summary of the changes made. Repairs are
// deterministic and idempotent: fixing already-fixed output applies nothing
// and returns byte-identical HTML.
package autofix

import (
	"fmt"
	"path"
	"strings"

	"github.com/emailforge/emailforge/pkg/htmldoc"
)

// Summary counts the repairs applied, keyed by category. Unresolved lists
// defects too severe to repair deterministically; their content is left in
// place and they are reported again by any later validation pass.
type Summary struct {
	TagsClosed         int      `json:"tagsClosed"`
	StructuralFixes    int      `json:"structuralFixes"`
	CSSNormalizations  int      `json:"cssNormalizations"`
	AccessibilityFixes int      `json:"accessibilityFixes"`
	OutlookHardening   int      `json:"outlookHardening"`
	Unresolved         []string `json:"unresolved,omitempty"`
}

// IsZero reports whether no repair was applied. Unresolved markers are not
// repairs and do not count.
func (s Summary) IsZero() bool {
	return s.TagsClosed == 0 && s.StructuralFixes == 0 &&
		s.CSSNormalizations == 0 && s.AccessibilityFixes == 0 &&
		s.OutlookHardening == 0
}

// Total returns the number of repairs applied.
func (s Summary) Total() int {
	return s.TagsClosed + s.StructuralFixes + s.CSSNormalizations +
		s.AccessibilityFixes + s.OutlookHardening
}

const msoPaddingComment = "[if mso]>&nbsp;&nbsp;&nbsp;&nbsp;<![endif]"

// Fix repairs the document and returns the new HTML with a change summary.
// The input string is never mutated; unparseable input fails with
// *htmldoc.MalformedDocumentError.
func Fix(html string) (string, Summary, error) {
	doc, err := htmldoc.Parse(html)
	if err != nil {
		return "", Summary{}, err
	}

	var s Summary

	// Tag balance. Parsing already rebuilt a consistent tree: unclosed tags
	// gain their close on serialization, stray closers are dropped.
	for _, im := range doc.Imbalances {
		if im.Kind == htmldoc.ImbalanceUnclosed {
			s.TagsClosed++
		} else {
			s.StructuralFixes++
		}
	}

	fixMissingAlt(doc, &s)
	normalizeInlineCSS(doc, &s)
	hardenButtons(doc, &s)
	hardenNamespaces(doc, &s)
	flagUnresolved(doc, &s)

	return doc.Serialize(), s, nil
}

// fixMissingAlt injects a deterministic placeholder alt derived from the
// image file name. Deterministic on purpose: a random placeholder would break
// the idempotence guarantee.
func fixMissingAlt(doc *htmldoc.Document, s *Summary) {
	for _, idx := range doc.Elements("img") {
		n := &doc.Nodes[idx]
		if alt, ok := n.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			continue
		}
		src, _ := n.Attr("src")
		n.SetAttr("alt", placeholderAlt(src))
		s.AccessibilityFixes++
	}
}

func placeholderAlt(src string) string {
	base := path.Base(src)
	if dot := strings.LastIndexByte(base, '.'); dot > 0 {
		base = base[:dot]
	}
	base = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	if base == "" || base == "." || base == "/" {
		return "Image"
	}
	return base
}

// normalizeInlineCSS rewrites style attributes into canonical form: duplicate
// declarations collapse last-wins, output is alphabetized. Counted only when
// the attribute actually changes.
func normalizeInlineCSS(doc *htmldoc.Document, s *Summary) {
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.Kind != htmldoc.KindElement {
			continue
		}
		style, ok := n.Attr("style")
		if !ok {
			continue
		}
		if norm := htmldoc.NormalizeStyle(style); norm != style {
			n.SetAttr("style", norm)
			s.CSSNormalizations++
		}
	}
}

// hardenButtons wraps bulletproof-button anchors in MSO non-breaking-space
// padding comments when they lack them, so Outlook does not collapse the
// click target.
func hardenButtons(doc *htmldoc.Document, s *Summary) {
	type target struct{ parent, child int }
	var targets []target

	for _, idx := range doc.Elements("a") {
		n := &doc.Nodes[idx]
		style, _ := n.Attr("style")
		display, _ := htmldoc.StyleValue(style, "display")
		_, hasBg := htmldoc.StyleValue(style, "background-color")
		if display != "inline-block" || !hasBg {
			continue
		}

		parent := n.Parent
		if parent < 0 {
			continue
		}
		if hasMSOComment(doc, doc.Nodes[parent].Children) {
			continue
		}
		targets = append(targets, target{parent: parent, child: idx})
	}

	for _, t := range targets {
		wrapWithComments(doc, t.parent, t.child, msoPaddingComment)
		s.OutlookHardening++
	}
}

func hasMSOComment(doc *htmldoc.Document, children []int) bool {
	for _, c := range children {
		n := &doc.Nodes[c]
		if n.Kind == htmldoc.KindComment && strings.Contains(n.Text, "[if mso") {
			return true
		}
	}
	return false
}

// wrapWithComments inserts comment nodes immediately before and after the
// child inside its parent.
func wrapWithComments(doc *htmldoc.Document, parent, child int, text string) {
	before := len(doc.Nodes)
	doc.Nodes = append(doc.Nodes, htmldoc.Node{
		Kind: htmldoc.KindComment, Text: text, Parent: parent,
	})
	after := len(doc.Nodes)
	doc.Nodes = append(doc.Nodes, htmldoc.Node{
		Kind: htmldoc.KindComment, Text: text, Parent: parent,
	})

	old := doc.Nodes[parent].Children
	rebuilt := make([]int, 0, len(old)+2)
	for _, c := range old {
		if c == child {
			rebuilt = append(rebuilt, before, c, after)
			continue
		}
		rebuilt = append(rebuilt, c)
	}
	doc.Nodes[parent].Children = rebuilt
}

// hardenNamespaces declares the VML/Office namespaces on <html> when the
// document carries MSO conditional comments without them.
func hardenNamespaces(doc *htmldoc.Document, s *Summary) {
	hasMSO := false
	doc.Walk(func(idx int, n *htmldoc.Node) {
		if n.Kind == htmldoc.KindComment && strings.Contains(n.Text, "[if mso") {
			hasMSO = true
		}
	})
	if !hasMSO {
		return
	}

	for _, idx := range doc.Elements("html") {
		n := &doc.Nodes[idx]
		hardened := false
		if _, ok := n.Attr("xmlns:v"); !ok {
			n.SetAttr("xmlns:v", "urn:schemas-microsoft-com:vml")
			hardened = true
		}
		if _, ok := n.Attr("xmlns:o"); !ok {
			n.SetAttr("xmlns:o", "urn:schemas-microsoft-com:office:office")
			hardened = true
		}
		if hardened {
			s.OutlookHardening++
		}
	}
}

// flagUnresolved marks content stranded outside the document root. Moving it
// would require guessing intent, so it stays in place and is reported.
func flagUnresolved(doc *htmldoc.Document, s *Summary) {
	htmlSeen := len(doc.Elements("html")) > 0
	if !htmlSeen {
		return
	}

	for _, r := range doc.Roots {
		n := &doc.Nodes[r]
		if n.Kind == htmldoc.KindText && strings.TrimSpace(n.Text) != "" {
			s.Unresolved = append(s.Unresolved,
				fmt.Sprintf("line %d: text content outside the document root was left in place", n.Line))
		}
	}
}

package htmldoc

import "strings"

// Serialize writes the arena back out as HTML. The output is deterministic
// and stable: serializing, re-parsing and serializing again yields identical
// bytes, which is what lets the auto-fix engine guarantee idempotence.
//
// Normalizations applied on the way out: tag and attribute names are
// lowercase, attribute values are double-quoted, and void elements are
// self-closed (the synthesis engine's XHTML doctype expects that form).
func (d *Document) Serialize() string {
	var b strings.Builder
	for _, r := range d.Roots {
		d.writeNode(&b, r)
	}
	return b.String()
}

func (d *Document) writeNode(b *strings.Builder, idx int) {
	n := &d.Nodes[idx]

	switch n.Kind {
	case KindText:
		b.WriteString(n.Text)
	case KindComment:
		b.WriteString("<!--")
		b.WriteString(n.Text)
		b.WriteString("-->")
	case KindDoctype:
		b.WriteString(n.Text)
	case KindElement:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		for _, a := range n.Attrs {
			b.WriteByte(' ')
			b.WriteString(a.Key)
			if a.Bare {
				continue
			}
			b.WriteString(`="`)
			b.WriteString(strings.ReplaceAll(a.Val, `"`, "&quot;"))
			b.WriteByte('"')
		}

		if voidTags[n.Tag] {
			b.WriteString(" />")
			return
		}

		b.WriteByte('>')
		for _, c := range n.Children {
			d.writeNode(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	}
}

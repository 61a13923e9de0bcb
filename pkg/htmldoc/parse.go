package htmldoc

import (
	"strings"
)

// Parse builds a Document arena from email HTML. Structural defects are
// recorded in Imbalances and recovered from; only binary input, input with no
// element at all, or an <html> that never closes fail with
// *MalformedDocumentError.
func Parse(src string) (*Document, error) {
	if strings.ContainsRune(src, 0) {
		return nil, &MalformedDocumentError{Reason: "binary content"}
	}

	p := &parser{src: src, line: 1, doc: &Document{}}
	p.run()

	elements := 0
	htmlUnclosed := false
	for _, n := range p.doc.Nodes {
		if n.Kind == KindElement {
			elements++
		}
	}
	for _, im := range p.doc.Imbalances {
		if im.Kind == ImbalanceUnclosed && im.Tag == "html" {
			htmlUnclosed = true
		}
	}

	if elements == 0 {
		return nil, &MalformedDocumentError{Reason: "no element root"}
	}
	if htmlUnclosed {
		return nil, &MalformedDocumentError{Reason: "missing closing </html>"}
	}

	return p.doc, nil
}

type parser struct {
	src   string
	pos   int
	line  int
	doc   *Document
	stack []int // open element indices
}

func (p *parser) run() {
	for p.pos < len(p.src) {
		rest := p.src[p.pos:]

		switch {
		case strings.HasPrefix(rest, "<!--"):
			p.comment()
		case strings.HasPrefix(rest, "<!"):
			p.doctype()
		case strings.HasPrefix(rest, "</"):
			p.closeTag()
		case rest[0] == '<' && len(rest) > 1 && isNameStart(rest[1]):
			p.openTag()
		default:
			p.text()
		}
	}

	// Anything still open at EOF is unclosed.
	for i := len(p.stack) - 1; i >= 0; i-- {
		n := p.doc.node(p.stack[i])
		p.doc.Imbalances = append(p.doc.Imbalances, Imbalance{
			Kind: ImbalanceUnclosed, Tag: n.Tag, Line: n.Line,
		})
	}
	p.stack = nil
}

// advance consumes n bytes, keeping the line counter current.
func (p *parser) advance(n int) {
	p.line += strings.Count(p.src[p.pos:p.pos+n], "\n")
	p.pos += n
}

func (p *parser) append(n Node) int {
	n.Parent = -1
	idx := len(p.doc.Nodes)
	if len(p.stack) > 0 {
		parent := p.stack[len(p.stack)-1]
		n.Parent = parent
		p.doc.Nodes = append(p.doc.Nodes, n)
		p.doc.Nodes[parent].Children = append(p.doc.Nodes[parent].Children, idx)
		return idx
	}
	p.doc.Nodes = append(p.doc.Nodes, n)
	p.doc.Roots = append(p.doc.Roots, idx)
	return idx
}

func (p *parser) text() {
	end := strings.IndexByte(p.src[p.pos+1:], '<')
	var chunk string
	if end < 0 {
		chunk = p.src[p.pos:]
	} else {
		chunk = p.src[p.pos : p.pos+1+end]
	}
	line := p.line
	p.advance(len(chunk))
	p.append(Node{Kind: KindText, Text: chunk, Line: line})
}

func (p *parser) comment() {
	line := p.line
	p.advance(4) // <!--
	end := strings.Index(p.src[p.pos:], "-->")
	var body string
	if end < 0 {
		body = p.src[p.pos:]
		p.advance(len(body))
	} else {
		body = p.src[p.pos : p.pos+end]
		p.advance(end + 3)
	}
	p.append(Node{Kind: KindComment, Text: body, Line: line})
}

func (p *parser) doctype() {
	line := p.line
	end := strings.IndexByte(p.src[p.pos:], '>')
	var body string
	if end < 0 {
		body = p.src[p.pos:]
		p.advance(len(body))
	} else {
		body = p.src[p.pos : p.pos+end+1]
		p.advance(end + 1)
	}
	p.append(Node{Kind: KindDoctype, Text: body, Line: line})
}

func (p *parser) closeTag() {
	line := p.line
	p.advance(2) // </
	tag := strings.ToLower(p.readName())
	p.skipToGT()

	// Find the matching open element on the stack.
	match := -1
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.doc.node(p.stack[i]).Tag == tag {
			match = i
			break
		}
	}

	if match < 0 {
		p.doc.Imbalances = append(p.doc.Imbalances, Imbalance{
			Kind: ImbalanceStray, Tag: tag, Line: line,
		})
		return
	}

	// Auto-close everything opened after the match; each one is unclosed.
	for i := len(p.stack) - 1; i > match; i-- {
		n := p.doc.node(p.stack[i])
		p.doc.Imbalances = append(p.doc.Imbalances, Imbalance{
			Kind: ImbalanceUnclosed, Tag: n.Tag, Line: n.Line,
		})
	}
	p.stack = p.stack[:match]
}

func (p *parser) openTag() {
	line := p.line
	p.advance(1) // <
	tag := strings.ToLower(p.readName())

	attrs, selfClosed := p.readAttrs()
	idx := p.append(Node{Kind: KindElement, Tag: tag, Attrs: attrs, Line: line})

	if selfClosed || voidTags[tag] {
		return
	}

	p.stack = append(p.stack, idx)

	if rawTextTags[tag] {
		p.rawText(tag)
	}
}

// rawText consumes everything up to the matching close tag verbatim.
func (p *parser) rawText(tag string) {
	lower := strings.ToLower(p.src[p.pos:])
	end := strings.Index(lower, "</"+tag)
	line := p.line

	if end < 0 {
		// Unterminated raw element; EOF handling records the imbalance.
		if p.pos < len(p.src) {
			body := p.src[p.pos:]
			p.advance(len(body))
			p.append(Node{Kind: KindText, Text: body, Line: line})
		}
		return
	}

	if end > 0 {
		body := p.src[p.pos : p.pos+end]
		p.advance(end)
		p.append(Node{Kind: KindText, Text: body, Line: line})
	}
	p.advance(2) // </
	p.readName()
	p.skipToGT()
	p.stack = p.stack[:len(p.stack)-1]
}

func (p *parser) readName() string {
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) readAttrs() (attrs []Attr, selfClosed bool) {
	for p.pos < len(p.src) {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return attrs, false
		}

		switch p.src[p.pos] {
		case '>':
			p.advance(1)
			return attrs, false
		case '/':
			p.advance(1)
			if p.pos < len(p.src) && p.src[p.pos] == '>' {
				p.advance(1)
				return attrs, true
			}
			continue
		}

		key := strings.ToLower(p.readAttrName())
		if key == "" {
			p.advance(1) // unparseable byte inside the tag, skip it
			continue
		}

		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '=' {
			p.advance(1)
			p.skipSpace()
			attrs = append(attrs, Attr{Key: key, Val: p.readAttrValue()})
		} else {
			attrs = append(attrs, Attr{Key: key, Bare: true})
		}
	}
	return attrs, false
}

func (p *parser) readAttrName() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '=' || c == '>' || c == '/' || isSpace(c) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) readAttrValue() string {
	if p.pos >= len(p.src) {
		return ""
	}

	quote := p.src[p.pos]
	if quote == '"' || quote == '\'' {
		p.advance(1)
		end := strings.IndexByte(p.src[p.pos:], quote)
		if end < 0 {
			val := p.src[p.pos:]
			p.advance(len(val))
			return val
		}
		val := p.src[p.pos : p.pos+end]
		p.advance(end + 1)
		return val
	}

	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '>' || isSpace(c) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.advance(1)
	}
}

func (p *parser) skipToGT() {
	end := strings.IndexByte(p.src[p.pos:], '>')
	if end < 0 {
		p.advance(len(p.src) - p.pos)
		return
	}
	p.advance(end + 1)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == ':'
}

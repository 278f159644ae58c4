package script

import "strings"

// parseElement parses a JSX element or fragment starting at the '<' at p.pos.
func (p *parser) parseElement() error {
	start := p.pos
	p.pos++ // '<'

	name := p.readTagName()
	selfClosing, err := p.parseAttributes()
	if err != nil {
		return err
	}
	if selfClosing {
		return nil
	}

	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '<':
			if p.peek(1) == '/' {
				p.pos += 2
				closing := p.readTagName()
				p.skipSpace()
				if p.pos >= len(p.src) || p.src[p.pos] != '>' {
					return p.errorf(p.pos, "malformed closing tag")
				}
				p.pos++
				if closing != name {
					return p.errorf(p.pos, "closing tag </%s> does not match <%s>", closing, name)
				}
				return nil
			}
			if err := p.parseElement(); err != nil {
				return err
			}
		case '{':
			p.pos++
			p.prev = token{kind: tkPunct, text: "{"}
			if err := p.scan(true); err != nil {
				return err
			}
		default:
			p.readText()
		}
	}
	return p.errorf(start, "unterminated JSX element <%s>", name)
}

func (p *parser) readTagName() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isIdentPart(c) || c == '.' || c == ':' || c == '-' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

// parseAttributes consumes the attribute list up to and including '>' or '/>'.
func (p *parser) parseAttributes() (bool, error) {
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return false, p.errorf(p.pos, "unterminated JSX tag")
		}

		switch c := p.src[p.pos]; {
		case c == '/' && p.peek(1) == '>':
			p.pos += 2
			return true, nil
		case c == '>':
			p.pos++
			return false, nil
		case c == '{':
			// spread attribute
			p.pos++
			p.prev = token{kind: tkPunct, text: "{"}
			if err := p.scan(true); err != nil {
				return false, err
			}
		case c == '/' && p.peek(1) == '*':
			if err := p.blockComment(); err != nil {
				return false, err
			}
		default:
			if err := p.parseAttribute(); err != nil {
				return false, err
			}
		}
	}
}

func (p *parser) parseAttribute() error {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '=' || c == '>' || c == '{' || c == ' ' || c == '\t' || c == '\n' || c == '\r' || (c == '/' && p.peek(1) == '>') {
			break
		}
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return p.errorf(p.pos, "malformed JSX attribute")
	}

	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '=' {
		return nil // boolean attribute
	}
	p.pos++
	p.skipSpace()
	if p.pos >= len(p.src) {
		return p.errorf(p.pos, "missing JSX attribute value")
	}

	switch c := p.src[p.pos]; c {
	case '"', '\'':
		valStart := p.pos
		end := strings.IndexByte(p.src[p.pos+1:], c)
		if end < 0 {
			return p.errorf(valStart, "unterminated JSX attribute string")
		}
		p.pos += end + 2
		p.addNode(&Node{
			Kind:      NodeString,
			Start:     valStart,
			End:       p.pos,
			Raw:       p.src[valStart+1 : p.pos-1],
			Attr:      name,
			AttrStart: valStart,
			AttrEnd:   p.pos,
			JSXString: true,
		})
		return nil

	case '{':
		return p.parseAttrContainer(name)

	case '<':
		return p.parseElement()
	}
	return p.errorf(p.pos, "unexpected JSX attribute value")
}

// parseAttrContainer parses {expr} as an attribute value. When the container
// holds a single string or template literal, that literal node is tagged
// with the attribute so it can be rewritten as a whole.
func (p *parser) parseAttrContainer(name string) error {
	open := p.pos
	p.pos++
	p.prev = token{kind: tkPunct, text: "{"}

	first := len(p.tree.Nodes)
	if err := p.scan(true); err != nil {
		return err
	}
	if len(p.tree.Nodes) == first {
		return nil
	}

	n := p.tree.Nodes[first]
	inner := strings.TrimSpace(p.src[open+1 : p.pos-1])
	if n.Kind == NodeText || inner != p.src[n.Start:n.End] {
		return nil
	}
	n.Attr = name
	n.AttrStart = open
	n.AttrEnd = p.pos
	n.MemberKey = false
	return nil
}

// readText consumes JSX text up to the next '<' or '{'.
func (p *parser) readText() {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '<' && p.src[p.pos] != '{' {
		p.pos++
	}
	raw := p.src[start:p.pos]
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return
	}
	lead := strings.Index(raw, trimmed)
	p.addNode(&Node{
		Kind:  NodeText,
		Start: start + lead,
		End:   start + lead + len(trimmed),
		Raw:   trimmed,
	})
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

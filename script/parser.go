package script

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseOptions selects syntax extensions.
type ParseOptions struct {
	JSX   bool // Recognise JSX elements in expression position
	Typed bool // Typed superset; only affects JSX/generic disambiguation
}

// SyntaxError describes why a script could not be parsed.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
}

type tokKind int

const (
	tkNone tokKind = iota
	tkIdent
	tkKeyword
	tkNumber
	tkString
	tkTemplate
	tkRegex
	tkPunct
	tkJSX
)

type token struct {
	kind  tokKind
	text  string
	start int
	end   int
}

type frame struct {
	open      byte
	callee    string
	decorator bool
}

type parser struct {
	src  string
	pos  int
	opts ParseOptions
	tree *Tree

	stack []frame
	prev  token

	chainStart int  // start of the current member-access chain
	chainAt    bool // the chain follows a '@'

	pendingImport bool
}

// keywords after which an expression (and therefore a regex or JSX) may start.
var exprKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true, "default": true,
	"extends": true,
}

// keywords that are followed by '(' without being calls.
var nonCallKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "typeof": true, "with": true, "await": true,
	"yield": true, "void": true, "delete": true, "new": true, "in": true, "of": true,
	"case": true, "else": true, "do": true, "throw": true, "instanceof": true,
}

// Parse parses src into a Tree of translatable candidates.
func Parse(src string, opts ParseOptions) (*Tree, error) {
	p := &parser{
		src:  src,
		opts: opts,
		tree: &Tree{Source: src, LastImportEnd: -1, lines: lineStarts(src)},
	}

	if strings.HasPrefix(src, "#!") {
		if nl := strings.IndexByte(src, '\n'); nl >= 0 {
			p.pos = nl + 1
		} else {
			p.pos = len(src)
		}
		p.tree.ShebangEnd = p.pos
	}

	if err := p.scan(false); err != nil {
		return nil, err
	}
	if len(p.stack) > 0 {
		return nil, p.errorf(len(src), "unclosed %q", p.stack[len(p.stack)-1].open)
	}
	return p.tree, nil
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// scan consumes tokens until EOF or, when inBrace is set, until the '}'
// closing the expression container or interpolation it was called for.
func (p *parser) scan(inBrace bool) error {
	base := len(p.stack)

	for p.pos < len(p.src) {
		c := p.src[p.pos]

		switch {
		case c == '\n' || c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			p.pos++

		case c == '/' && p.peek(1) == '/':
			p.lineComment()

		case c == '/' && p.peek(1) == '*':
			if err := p.blockComment(); err != nil {
				return err
			}

		case c == '\'' || c == '"':
			n, err := p.readString(c)
			if err != nil {
				return err
			}
			p.addNode(n)

		case c == '`':
			if _, err := p.readTemplate(); err != nil {
				return err
			}

		case c == '/' && p.regexAllowed():
			if err := p.readRegex(); err != nil {
				return err
			}

		case c == '<' && p.opts.JSX && p.regexAllowed() && p.jsxStart():
			start := p.pos
			if err := p.parseElement(); err != nil {
				return err
			}
			p.setPrev(tkJSX, start)

		case isIdentStart(c) || c >= utf8.RuneSelf:
			p.readIdent()

		case c >= '0' && c <= '9' || (c == '.' && isDigit(p.peek(1))):
			p.readNumber()

		case c == '(' || c == '[' || c == '{':
			p.open(c)

		case c == ')' || c == ']' || c == '}':
			if c == '}' && inBrace && len(p.stack) == base {
				p.pos++
				return nil
			}
			if err := p.close(c); err != nil {
				return err
			}

		default:
			p.readPunct()
		}
	}

	if inBrace {
		return p.errorf(p.pos, "unterminated expression")
	}
	return nil
}

func (p *parser) peek(n int) byte {
	if p.pos+n < len(p.src) {
		return p.src[p.pos+n]
	}
	return 0
}

func (p *parser) setPrev(kind tokKind, start int) {
	p.prev = token{kind: kind, text: p.src[start:p.pos], start: start, end: p.pos}
}

func (p *parser) lineComment() {
	start := p.pos
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		p.pos = len(p.src)
	} else {
		p.pos += end
	}
	p.addComment(start, p.pos)
}

func (p *parser) blockComment() error {
	start := p.pos
	end := strings.Index(p.src[p.pos+2:], "*/")
	if end < 0 {
		return p.errorf(start, "unterminated comment")
	}
	p.pos += end + 4
	p.addComment(start, p.pos)
	return nil
}

func (p *parser) addComment(start, end int) {
	p.tree.Comments = append(p.tree.Comments, Comment{
		Start: start,
		End:   end,
		Text:  p.src[start:end],
		Line:  p.tree.LineAt(start),
		EndLn: p.tree.LineAt(max(start, end-1)),
	})
}

// readString reads a quoted string starting at p.pos.
func (p *parser) readString(q byte) (*Node, error) {
	start := p.pos
	for i := p.pos + 1; i < len(p.src); i++ {
		switch p.src[i] {
		case '\\':
			i++
		case q:
			p.pos = i + 1
			n := &Node{Kind: NodeString, Start: start, End: p.pos, Raw: p.src[start+1 : i]}
			p.markImport(n)
			p.setPrev(tkString, start)
			return n, nil
		case '\n':
			return nil, p.errorf(start, "unterminated string literal")
		}
	}
	return nil, p.errorf(start, "unterminated string literal")
}

// markImport flags module specifiers and closes pending top-level imports.
func (p *parser) markImport(n *Node) {
	if p.prev.kind == tkIdent && (p.prev.text == "from" || p.prev.text == "import") {
		n.ImportPath = true
	}
	if p.pendingImport && len(p.stack) == 0 {
		end := p.pos
		for end < len(p.src) && (p.src[end] == ' ' || p.src[end] == '\t') {
			end++
		}
		if end < len(p.src) && p.src[end] == ';' {
			end++
		}
		p.tree.LastImportEnd = end
		p.pendingImport = false
	}
}

// readTemplate reads a template literal, adding its node before any nodes
// found inside its interpolations.
func (p *parser) readTemplate() (*Node, error) {
	start := p.pos
	n := &Node{Kind: NodeTemplate, Start: start, Tagged: p.prev.kind == tkIdent || p.prev.kind == tkKeyword && !exprKeywords[p.prev.text] || p.prev.text == ")" || p.prev.text == "]"}
	p.addNode(n)

	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case '`':
			p.pos++
			n.End = p.pos
			n.Raw = p.src[start+1 : p.pos-1]
			p.setPrev(tkTemplate, start)
			return n, nil
		case '$':
			if p.peek(1) != '{' {
				p.pos++
				continue
			}
			p.pos += 2
			saved := p.prev
			p.prev = token{kind: tkPunct, text: "${"}
			if err := p.scan(true); err != nil {
				return nil, err
			}
			p.prev = saved
		default:
			p.pos++
		}
	}
	return nil, p.errorf(start, "unterminated template literal")
}

func (p *parser) readRegex() error {
	start := p.pos
	inClass := false
	for i := p.pos + 1; i < len(p.src); i++ {
		switch p.src[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if inClass {
				continue
			}
			p.pos = i + 1
			for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
				p.pos++
			}
			p.setPrev(tkRegex, start)
			return nil
		case '\n':
			return p.errorf(start, "unterminated regular expression")
		}
	}
	return p.errorf(start, "unterminated regular expression")
}

func (p *parser) readIdent() {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r == '$' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || r == 0x200c || r == 0x200d {
			p.pos += size
			continue
		}
		break
	}
	if p.pos == start {
		// stray non-identifier rune outside any literal
		_, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		p.setPrev(tkPunct, start)
		return
	}

	word := p.src[start:p.pos]
	if p.prev.kind == tkPunct && (p.prev.text == "." || p.prev.text == "?.") {
		// member access continues the chain
	} else {
		p.chainStart = start
		p.chainAt = p.prev.kind == tkPunct && p.prev.text == "@"
	}

	kind := tkIdent
	if exprKeywords[word] || nonCallKeywords[word] {
		kind = tkKeyword
	}
	if word == "import" && len(p.stack) == 0 && p.prev.text != "." {
		next := p.nextSignificant()
		if next != '(' && next != '.' {
			p.pendingImport = true
		}
	}
	if word == "from" || word == "import" {
		kind = tkIdent
	}
	p.setPrev(kind, start)
}

func (p *parser) readNumber() {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isIdentPart(c) || c == '.' {
			p.pos++
			continue
		}
		if (c == '+' || c == '-') && p.pos > start && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') && !strings.HasPrefix(p.src[start:], "0x") {
			p.pos++
			continue
		}
		break
	}
	p.setPrev(tkNumber, start)
}

func (p *parser) readPunct() {
	start := p.pos
	switch {
	case strings.HasPrefix(p.src[p.pos:], "?.") && !isDigit(p.peek(2)):
		p.pos += 2
	case strings.HasPrefix(p.src[p.pos:], "++"), strings.HasPrefix(p.src[p.pos:], "--"), strings.HasPrefix(p.src[p.pos:], "=>"):
		p.pos += 2
	default:
		p.pos++
	}
	p.setPrev(tkPunct, start)
}

func (p *parser) open(c byte) {
	f := frame{open: c}
	if c == '(' && p.prev.kind == tkIdent {
		f.callee = compact(p.src[p.chainStart:p.prev.end])
		f.decorator = p.chainAt
	}
	p.stack = append(p.stack, f)
	start := p.pos
	p.pos++
	p.setPrev(tkPunct, start)
}

func (p *parser) close(c byte) error {
	want := map[byte]byte{')': '(', ']': '[', '}': '{'}[c]
	if len(p.stack) == 0 || p.stack[len(p.stack)-1].open != want {
		return p.errorf(p.pos, "unexpected %q", c)
	}
	p.stack = p.stack[:len(p.stack)-1]
	start := p.pos
	p.pos++
	p.setPrev(tkPunct, start)
	return nil
}

// regexAllowed reports whether an expression may start at p.pos.
func (p *parser) regexAllowed() bool {
	switch p.prev.kind {
	case tkNone:
		return true
	case tkKeyword:
		return exprKeywords[p.prev.text]
	case tkPunct:
		switch p.prev.text {
		case ")", "]", "}", "++", "--":
			return false
		}
		return true
	}
	return false
}

// jsxStart reports whether the '<' at p.pos opens a JSX element.
func (p *parser) jsxStart() bool {
	next := p.peek(1)
	if next == '>' {
		return true
	}
	if !isIdentStart(next) {
		return false
	}
	if p.opts.Typed {
		// <T,>(...) and <T extends U>(...) are generic arrow functions.
		rest := p.src[p.pos+1:]
		end := strings.IndexAny(rest, " \t\n>,/")
		if end > 0 && end < len(rest) {
			tail := strings.TrimLeft(rest[end:], " \t\n")
			if rest[end] == ',' || strings.HasPrefix(tail, "extends ") {
				return false
			}
		}
	}
	return true
}

func (p *parser) nextSignificant() byte {
	for i := p.pos; i < len(p.src); i++ {
		switch p.src[i] {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return p.src[i]
	}
	return 0
}

// addNode records a node with the current enclosing context.
func (p *parser) addNode(n *Node) {
	n.Line = p.tree.LineAt(n.Start)
	for _, f := range p.stack {
		if f.decorator {
			n.InDecorator = true
		}
		if f.callee != "" {
			n.Callees = append(n.Callees, f.callee)
		}
	}
	if n.Kind == NodeString && p.isMemberKey(n) {
		n.MemberKey = true
	}
	p.tree.Nodes = append(p.tree.Nodes, n)
}

// isMemberKey reports whether a string literal sits in an object or class
// member key position: `{ 'k': v }`, `{ a, 'k': v }` or `{ 'k'() {} }`.
func (p *parser) isMemberKey(n *Node) bool {
	if len(p.stack) == 0 || p.stack[len(p.stack)-1].open != '{' {
		return false
	}
	before := strings.TrimRight(p.src[:n.Start], " \t\r\n")
	if before == "" {
		return false
	}
	prev := before[len(before)-1]
	if prev != '{' && prev != ',' && prev != ';' && prev != '}' {
		return false
	}
	after := strings.TrimLeft(p.src[n.End:], " \t\r\n")
	if after == "" {
		return false
	}
	switch after[0] {
	case ':':
		return prev == '{' || prev == ','
	case '(':
		return prev != ','
	}
	return false
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isIdentStart(c byte) bool {
	return c == '$' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

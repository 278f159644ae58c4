// Package lexer implements a dependency-free character-scanning classifier
// that inventories CJK text in source files without parsing them.
//
// The classifier never rewrites anything. It backs inventory-only scans and
// is the fallback inventory when a parse fails.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type state int

const (
	stDefault state = iota
	stSingle
	stDouble
	stTemplate
	stLineComment
	stBlockComment
	stMarkupComment
	stMeta
	stRegex
	stTag
)

// Marker delimits a metadata block whose content is never inventoried.
type Marker struct {
	Open  string
	Close string
}

// DefaultMarkers are the metadata blocks skipped by default.
var DefaultMarkers = []Marker{
	{Open: "<i18n", Close: "</i18n>"},
	{Open: "<docs", Close: "</docs>"},
}

// Options tunes the classifier.
type Options struct {
	Markers []Marker // Metadata blocks; nil means DefaultMarkers
	Exclude []string // Literals starting with any of these are dropped
}

// regexPrecursors are the tokens after which a '/' starts a regular expression.
var regexPrecursors = []string{"return", "=", "(", "[", ",", "{", ":", ";", "!", "&", "|"}

// Classify returns the distinct CJK-bearing substrings of text in first-seen order.
func Classify(text string, opts Options) []string {
	markers := opts.Markers
	if markers == nil {
		markers = DefaultMarkers
	}

	c := &collector{seen: make(map[string]bool), exclude: opts.Exclude}

	var (
		st         = stDefault
		prev       = stDefault // state to resume after a string or template inside a tag
		start      int         // start of the current string/template body
		braceDepth int         // interpolation depth inside a template
		innerQuote byte        // quote open inside an interpolation
		metaClose  string
	)

	for i := 0; ; {
		if i >= len(text) {
			if st != stSingle && st != stDouble && st != stTemplate {
				break
			}
			// Unterminated at EOF: classify the body as plain text.
			st, i = stDefault, start
			continue
		}
		ch := text[i]

		switch st {
		case stDefault, stTag:
			if st == stDefault && i == 0 && strings.HasPrefix(text, "---\n") {
				if end := strings.Index(text[4:], "\n---"); end >= 0 {
					i = 4 + end + 4
					continue
				}
			}
			if st == stDefault {
				if m, ok := matchMarker(text, i, markers); ok {
					st, metaClose = stMeta, m.Close
					i += len(m.Open)
					continue
				}
			}
			switch {
			case strings.HasPrefix(text[i:], "<!--"):
				st = stMarkupComment
				i += 4
			case ch == '/' && i+1 < len(text) && text[i+1] == '/' && st == stDefault && !isURLColon(text, i):
				st = stLineComment
				i += 2
			case ch == '/' && i+1 < len(text) && text[i+1] == '*':
				st = stBlockComment
				i += 2
			case ch == '\'' || ch == '"':
				prev = st
				if ch == '\'' {
					st = stSingle
				} else {
					st = stDouble
				}
				i++
				start = i
			case ch == '`':
				prev = st
				st, braceDepth, innerQuote = stTemplate, 0, 0
				i++
				start = i
			case ch == '/' && st == stDefault && isRegexStart(text, i):
				st = stRegex
				i++
			case ch == '<' && st == stDefault && i+1 < len(text) && isTagStart(text[i+1]) && tagAllowed(text, i):
				st = stTag
				i++
			case ch == '>' && st == stTag && text[i-1] != '=':
				st = stDefault
				i++
			default:
				r, size := utf8.DecodeRuneInString(text[i:])
				if st == stDefault && unicode.Is(unicode.Han, r) {
					end := scanRun(text, i)
					c.add(text[i:end])
					i = end
					continue
				}
				i += size
			}

		case stSingle, stDouble:
			quote := byte('\'')
			if st == stDouble {
				quote = '"'
			}
			switch {
			case ch == quote && !escaped(text, i):
				c.add(text[start:i])
				st = prev
			case ch == '\n' && prev == stDefault && !escaped(text, i):
				// Unterminated string: classify the body as plain text.
				st, i = stDefault, start
				continue
			}
			i++

		case stTemplate:
			switch {
			case innerQuote != 0:
				if ch == innerQuote && !escaped(text, i) {
					innerQuote = 0
				}
			case braceDepth > 0 && (ch == '\'' || ch == '"' || ch == '`'):
				innerQuote = ch
			case ch == '$' && i+1 < len(text) && text[i+1] == '{' && !escaped(text, i):
				braceDepth++
				i++
			case ch == '{' && braceDepth > 0:
				braceDepth++
			case ch == '}' && braceDepth > 0:
				braceDepth--
			case ch == '`' && braceDepth == 0 && !escaped(text, i):
				c.add(text[start:i])
				st = prev
			}
			i++

		case stLineComment:
			if ch == '\n' {
				st = stDefault
			}
			i++

		case stBlockComment:
			if strings.HasPrefix(text[i:], "*/") {
				st = stDefault
				i += 2
				continue
			}
			i++

		case stMarkupComment:
			if strings.HasPrefix(text[i:], "-->") {
				st = stDefault
				i += 3
				continue
			}
			i++

		case stMeta:
			if strings.HasPrefix(text[i:], metaClose) {
				st = stDefault
				i += len(metaClose)
				continue
			}
			i++

		case stRegex:
			switch {
			case ch == '\\':
				i += 2
				continue
			case ch == '[':
				if end := strings.IndexByte(text[i:], ']'); end > 0 {
					i += end + 1
					continue
				}
			case ch == '/' || ch == '\n':
				st = stDefault
			}
			i++
		}
	}

	return c.out
}

type collector struct {
	seen    map[string]bool
	out     []string
	exclude []string
}

func (c *collector) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" || c.seen[s] || !containsHan(s) {
		return
	}
	for _, ex := range c.exclude {
		if ex != "" && strings.HasPrefix(s, ex) {
			return
		}
	}
	c.seen[s] = true
	c.out = append(c.out, s)
}

// escaped reports whether text[i] is preceded by an odd number of backslashes.
func escaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// isRegexStart decides whether the '/' at i opens a regular expression.
func isRegexStart(text string, i int) bool {
	if i+1 < len(text) && (text[i+1] == '/' || text[i+1] == '*') {
		return false
	}
	from := max(0, i-10)
	before := strings.TrimRight(text[from:i], " \t\r\n")
	if before == "" {
		return from == 0
	}
	for _, tok := range regexPrecursors {
		if strings.HasSuffix(before, tok) {
			return true
		}
	}
	return false
}

// isURLColon keeps "http://" inside markup text from opening a comment.
func isURLColon(text string, i int) bool {
	return i > 0 && text[i-1] == ':' && i > 1 && isWordByte(text[i-2])
}

// tagWords are the keywords after which '<' opens markup in an expression.
var tagWords = map[string]bool{"return": true, "yield": true, "await": true, "case": true, "default": true, "else": true, "do": true}

// tagAllowed reports whether the '<' at i can open a tag. After an operand
// (identifier, number, ')' or ']') it is a comparison or a type argument.
func tagAllowed(text string, i int) bool {
	j := i
	for j > 0 && strings.IndexByte(" \t\r\n", text[j-1]) >= 0 {
		j--
	}
	if j == 0 {
		return true
	}
	switch b := text[j-1]; {
	case b == ')' || b == ']':
		return false
	case !isWordByte(b) && b != '$':
		return true
	}
	k := j
	for k > 0 && (isWordByte(text[k-1]) || text[k-1] == '$') {
		k--
	}
	return tagWords[text[k:j]]
}

func isTagStart(b byte) bool {
	return b == '/' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// scanRun returns the end of a contiguous CJK run starting at i. Spaces and
// plain punctuation between CJK characters keep the run going.
func scanRun(text string, i int) int {
	end := i
	for j := i; j < len(text); {
		r, size := utf8.DecodeRuneInString(text[j:])
		switch {
		case unicode.Is(unicode.Han, r) || isCJKPunct(r):
			j += size
			end = j
		case r == '\n' || r == '<' || r == '{' || r == '}' || r == '\'' || r == '"' || r == '`':
			return end
		case unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r):
			j += size
		default:
			return end
		}
	}
	return end
}

func matchMarker(text string, i int, markers []Marker) (Marker, bool) {
	for _, m := range markers {
		if m.Open != "" && strings.HasPrefix(text[i:], m.Open) {
			return m, true
		}
	}
	return Marker{}, false
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func isCJKPunct(r rune) bool {
	return (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF) ||
		r == '“' || r == '”' || r == '‘' || r == '’' || r == '…' || r == '—'
}

package component

import (
	"errors"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/ZaguanLabs/hankey"
	"github.com/ZaguanLabs/hankey/script"
)

// elements without a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// attributes that exclude an element and its children from rewriting
var skipAttrs = []string{"data-no-translate", "v-pre"}

type templateRewriter struct {
	opts    hankey.Options
	fn      string
	alloc   *hankey.Allocator
	lines   []int
	base    int
	ignored map[int]bool
	reps    []hankey.Replacement
}

// RewriteTemplate rewrites the text, attributes and interpolations of a
// template section and returns the edited section content. file is the
// whole component text, used for line numbers.
func RewriteTemplate(file string, sec Section, alloc *hankey.Allocator, opts hankey.Options) (string, error) {
	opts = opts.WithDefaults()
	r := &templateRewriter{
		opts:    opts,
		fn:      opts.TemplateCallee,
		alloc:   alloc,
		lines:   lineStarts(file),
		base:    sec.Offset,
		ignored: make(map[int]bool),
	}

	var (
		skipName  string
		skipDepth int
		pos       int
	)

	z := html.NewTokenizer(strings.NewReader(sec.Content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return "", &script.SyntaxError{Offset: sec.Offset + pos, Msg: z.Err().Error()}
		}
		raw := string(z.Raw())

		switch tt {
		case html.CommentToken:
			if strings.Contains(strings.ToLower(raw), strings.ToLower(opts.IgnoreMarker)) {
				line := r.line(pos + len(raw) - 1)
				r.ignored[line] = true
				r.ignored[line+1] = true
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name := tagName(z)
			selfClosing := tt == html.SelfClosingTagToken || voidElements[name]
			if skipName != "" {
				if name == skipName && !selfClosing {
					skipDepth++
				}
				break
			}
			attrs := scanAttrs(raw)
			if name == "script" || name == "style" || hasAnyAttr(attrs, skipAttrs) {
				if !selfClosing {
					skipName, skipDepth = name, 0
				}
				break
			}
			r.attributes(raw, attrs, pos)

		case html.EndTagToken:
			if skipName != "" && tagName(z) == skipName {
				if skipDepth == 0 {
					skipName = ""
				} else {
					skipDepth--
				}
			}

		case html.TextToken:
			if skipName == "" {
				r.text(raw, pos)
			}
		}
		pos += len(raw)
	}

	if len(r.reps) == 0 {
		return sec.Content, nil
	}
	return hankey.ApplyReplacements(sec.Content, r.reps)
}

func (r *templateRewriter) line(off int) int {
	return sort.SearchInts(r.lines, r.base+off+1)
}

func (r *templateRewriter) skipLine(off int) bool {
	return r.ignored[r.line(off)]
}

func (r *templateRewriter) hasCall(s string) bool {
	for _, name := range r.opts.CallNames() {
		if strings.Contains(s, name+"(") {
			return true
		}
	}
	return false
}

// text splits a text token into plain runs and {{ }} interpolations.
func (r *templateRewriter) text(raw string, off int) {
	for i := 0; i < len(raw); {
		open := strings.Index(raw[i:], "{{")
		if open < 0 {
			r.plain(raw[i:], off+i)
			return
		}
		r.plain(raw[i:i+open], off+i)

		start := i + open + 2
		end := strings.Index(raw[start:], "}}")
		if end < 0 {
			return
		}
		r.expression(raw[start:start+end], off+start, 0)
		i = start + end + 2
	}
}

func (r *templateRewriter) plain(seg string, off int) {
	trimmed := strings.TrimSpace(seg)
	if !hankey.ContainsTarget(trimmed) || r.hasCall(trimmed) {
		return
	}
	start := off + strings.Index(seg, trimmed)
	if r.skipLine(start) {
		return
	}

	key := r.alloc.Allocate(hankey.Literal{
		Text: html.UnescapeString(trimmed),
		Form: hankey.FormTagText,
		Line: r.line(start),
	})
	r.reps = append(r.reps, hankey.Replacement{
		Start: start,
		End:   start + len(trimmed),
		Text:  "{{ " + hankey.CallExpr(r.fn, key, nil) + " }}",
	})
}

func (r *templateRewriter) attributes(raw string, attrs []attr, off int) {
	for _, a := range attrs {
		if a.ValStart < 0 {
			continue
		}
		val := raw[a.ValStart:a.ValEnd]
		if !hankey.ContainsTarget(val) || r.skipLine(off+a.Start) {
			continue
		}

		if isDynamic(a.Name) {
			r.expression(val, off+a.ValStart, a.Quote)
			continue
		}

		key := r.alloc.Allocate(hankey.Literal{
			Text: html.UnescapeString(strings.TrimSpace(val)),
			Form: hankey.FormString,
			Line: r.line(off + a.Start),
		})
		r.reps = append(r.reps, hankey.Replacement{
			Start: off + a.Start,
			End:   off + a.End,
			Text:  ":" + a.Name + `="` + hankey.CallExpr(r.fn, key, nil) + `"`,
		})
	}
}

// expression rewrites the target-script literals of a bound attribute value
// or an interpolation in place. With a top-level ternary only the two
// branches are considered. An expression without any literal that still
// holds target text is taken as one literal.
func (r *templateRewriter) expression(expr string, off int, quote byte) {
	if !hankey.ContainsTarget(expr) || r.skipLine(off) {
		return
	}

	tree, err := script.Parse(expr, script.ParseOptions{})
	if err != nil || len(tree.Nodes) == 0 {
		r.whole(expr, off, quote)
		return
	}

	lo, mid, ok := topLevelTernary(expr)
	covered := -1
	for _, n := range tree.Nodes {
		if n.Start < covered || script.Skip(n, r.opts) {
			continue
		}
		if ok && !(n.Start > lo && n.End <= mid || n.Start > mid) {
			continue
		}
		lit, qualifies := script.LiteralOf(n)
		if !qualifies {
			continue
		}
		lit.Line = r.line(off + n.Start)
		key := r.alloc.Allocate(lit)
		r.reps = append(r.reps, hankey.Replacement{
			Start: off + n.Start,
			End:   off + n.End,
			Text:  callIn(r.fn, key, lit.Exprs, quote),
		})
		covered = n.End
	}
}

func (r *templateRewriter) whole(expr string, off int, quote byte) {
	trimmed := strings.TrimSpace(expr)
	if r.hasCall(trimmed) {
		return
	}
	start := off + strings.Index(expr, trimmed)
	key := r.alloc.Allocate(hankey.Literal{
		Text: trimmed,
		Form: hankey.FormString,
		Line: r.line(start),
	})
	r.reps = append(r.reps, hankey.Replacement{
		Start: start,
		End:   start + len(trimmed),
		Text:  callIn(r.fn, key, nil, quote),
	})
}

// callIn renders a call whose quotes do not clash with the enclosing
// attribute quote.
func callIn(fn, key string, exprs []string, quote byte) string {
	if quote != '\'' {
		return hankey.CallExpr(fn, key, exprs)
	}
	s := fn + `("` + key + `"`
	if len(exprs) > 0 {
		s += ", [" + strings.Join(exprs, ", ") + "]"
	}
	return s + ")"
}

// topLevelTernary returns the offsets of the '?' and ':' of a ternary that
// is not nested in brackets.
func topLevelTernary(expr string) (int, int, bool) {
	depth := 0
	q := -1
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; c {
		case '\'', '"', '`':
			for i++; i < len(expr) && expr[i] != c; i++ {
				if expr[i] == '\\' {
					i++
				}
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '?':
			next := byte(0)
			if i+1 < len(expr) {
				next = expr[i+1]
			}
			if next == '?' || next == '.' {
				i++
				continue
			}
			if depth == 0 && q < 0 {
				q = i
			}
		case ':':
			if depth == 0 && q >= 0 {
				return q, i, true
			}
		}
	}
	return 0, 0, false
}

func isDynamic(name string) bool {
	return strings.HasPrefix(name, ":") || strings.HasPrefix(name, "@") ||
		strings.HasPrefix(name, "#") || strings.HasPrefix(name, "v-")
}

func lineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

package script

import (
	"errors"
	"strings"

	"github.com/ZaguanLabs/hankey"
)

// calls whose arguments are module specifiers rather than content
var builtinSkips = map[string]bool{
	"require": true,
	"import":  true,
}

// Transformer rewrites string literals, template literals and JSX text in
// scripts and typed scripts, with or without JSX.
type Transformer struct{}

var _ hankey.Transformer = (*Transformer)(nil)

// NewTransformer creates a script Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Kinds implements hankey.Transformer.
func (t *Transformer) Kinds() []hankey.SourceKind {
	return []hankey.SourceKind{hankey.KindScript, hankey.KindTyped, hankey.KindJSX}
}

// Transform implements hankey.Transformer.
func (t *Transformer) Transform(unit hankey.SourceUnit, opts hankey.Options) (*hankey.Result, error) {
	opts = opts.WithDefaults()
	popts := ParseOptions{JSX: unit.Kind == hankey.KindJSX, Typed: unit.Typed}

	alloc := hankey.NewAllocator(opts.KeyPrefix, opts.KeyOffset, opts.Existing)
	out, rewrites, err := TransformSection(unit.Text, popts, alloc, opts)
	if err != nil {
		return nil, parseError(unit, err)
	}

	if rewrites > 0 && opts.ImportStatement != "" {
		out = InjectImport(out, opts.ImportStatement, popts)
	}

	return &hankey.Result{
		Content:  out,
		Literals: alloc.Literals(),
		Kind:     unit.Kind,
	}, nil
}

func parseError(unit hankey.SourceUnit, err error) error {
	pe := &hankey.ParseError{Path: unit.Path, Kind: unit.Kind, Offset: -1, Cause: err}
	var se *SyntaxError
	if errors.As(err, &se) {
		pe.Offset = se.Offset
	}
	return pe
}

// TransformSection rewrites the literals of one script text, allocating keys
// from alloc in discovery order. It returns the edited text and the number
// of rewritten sites.
func TransformSection(src string, popts ParseOptions, alloc *hankey.Allocator, opts hankey.Options) (string, int, error) {
	opts = opts.WithDefaults()

	tree, err := Parse(src, popts)
	if err != nil {
		return "", 0, err
	}

	v := &visitor{
		opts:    opts,
		alloc:   alloc,
		ignored: tree.IgnoredLines(opts.IgnoreMarker),
	}

	var reps []hankey.Replacement
	covered := -1
	for _, n := range tree.Nodes {
		if n.Start < covered {
			continue
		}
		rep, ok := v.visit(n)
		if !ok {
			continue
		}
		reps = append(reps, rep)
		covered = rep.End
	}

	if len(reps) == 0 {
		return src, 0, nil
	}
	out, err := hankey.ApplyReplacements(src, reps)
	if err != nil {
		return "", 0, err
	}
	return out, len(reps), nil
}

type visitor struct {
	opts    hankey.Options
	alloc   *hankey.Allocator
	ignored map[int]bool
}

func (v *visitor) visit(n *Node) (hankey.Replacement, bool) {
	if v.ignored[n.Line] || Skip(n, v.opts) {
		return hankey.Replacement{}, false
	}
	lit, ok := LiteralOf(n)
	if !ok {
		return hankey.Replacement{}, false
	}

	key := v.alloc.Allocate(lit)

	switch {
	case n.Kind == NodeText:
		return hankey.Replacement{
			Start: n.Start,
			End:   n.End,
			Text:  "{" + hankey.CallExpr(v.opts.JSXCallee, key, nil) + "}",
		}, true
	case n.Attr != "":
		return hankey.Replacement{
			Start: n.AttrStart,
			End:   n.AttrEnd,
			Text:  "{" + hankey.CallExpr(v.opts.JSXCallee, key, lit.Exprs) + "}",
		}, true
	}
	return hankey.Replacement{
		Start: n.Start,
		End:   n.End,
		Text:  hankey.CallExpr(v.opts.ScriptCallee, key, lit.Exprs),
	}, true
}

// LiteralOf returns the literal carried by n. It reports false when the
// node holds no target-script text.
func LiteralOf(n *Node) (hankey.Literal, bool) {
	lit := hankey.Literal{Line: n.Line}
	switch n.Kind {
	case NodeString:
		lit.Form = hankey.FormString
		lit.Text = n.Raw
		if !n.JSXString {
			lit.Text = hankey.Unescape(n.Raw)
		}
	case NodeTemplate:
		flat, err := hankey.FlattenTemplate(n.Raw)
		if err != nil {
			return lit, false
		}
		lit.Form = hankey.FormTemplate
		lit.Text = flat.Text
		lit.Exprs = flat.Exprs
	case NodeText:
		lit.Form = hankey.FormTagText
		lit.Text = n.Raw
	}
	return lit, hankey.ContainsTarget(lit.Text)
}

// Skip reports whether n sits in a position that is never rewritten: a
// member key, a module specifier, a tagged template, a decorator argument,
// or an argument of a diagnostic, denied or translation call.
func Skip(n *Node, opts hankey.Options) bool {
	if n.MemberKey || n.ImportPath || n.Tagged || n.InDecorator {
		return true
	}
	calls := opts.CallNames()
	for _, callee := range n.Callees {
		if builtinSkips[callee] || strings.HasPrefix(callee, "console.") {
			return true
		}
		for _, deny := range opts.DenyCallees {
			if callee == deny {
				return true
			}
		}
		for _, name := range calls {
			if callee == name || strings.HasSuffix(callee, "."+name) {
				return true
			}
		}
	}
	return false
}

// InjectImport inserts stmt after the last top-level import of src, or after
// a shebang line, or at the top. It is a no-op when stmt is already present.
func InjectImport(src, stmt string, popts ParseOptions) string {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || strings.Contains(src, stmt) {
		return src
	}

	pos := 0
	if tree, err := Parse(src, popts); err == nil {
		switch {
		case tree.LastImportEnd >= 0:
			pos = tree.LastImportEnd
			return src[:pos] + "\n" + stmt + src[pos:]
		case tree.ShebangEnd > 0:
			pos = tree.ShebangEnd
		case strings.HasPrefix(src, "\n"):
			pos = 1
		}
	}
	return src[:pos] + stmt + "\n" + src[pos:]
}

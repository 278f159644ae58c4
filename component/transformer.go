package component

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/hankey"
	"github.com/ZaguanLabs/hankey/script"
)

// Transformer rewrites single-file components. Template keys and script
// keys are allocated in separate namespaces.
type Transformer struct{}

var _ hankey.Transformer = (*Transformer)(nil)

// NewTransformer creates a component Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Kinds implements hankey.Transformer.
func (t *Transformer) Kinds() []hankey.SourceKind {
	return []hankey.SourceKind{hankey.KindComponent}
}

// Transform implements hankey.Transformer.
func (t *Transformer) Transform(unit hankey.SourceUnit, opts hankey.Options) (*hankey.Result, error) {
	opts = opts.WithDefaults()

	f, err := Split(unit.Text)
	if err != nil {
		return nil, parseError(unit, 0, err)
	}

	tplAlloc := hankey.NewAllocator(opts.KeyPrefix+hankey.NamespaceTemplate, opts.KeyOffset, opts.Existing)
	scriptAlloc := hankey.NewAllocator(opts.KeyPrefix+hankey.NamespaceScript, opts.KeyOffset, opts.Existing)

	var reps []hankey.Replacement

	if tpl := f.Template; tpl != nil && (tpl.Lang() == "" || tpl.Lang() == "html") {
		out, err := RewriteTemplate(unit.Text, *tpl, tplAlloc, opts)
		if err != nil {
			return nil, parseError(unit, 0, err)
		}
		if out != tpl.Content {
			rep, err := locate(unit.Text, *tpl, out)
			if err != nil {
				return nil, parseError(unit, tpl.Offset, err)
			}
			reps = append(reps, rep)
		}
	}

	var shifts []lineShift
	for _, sec := range f.Scripts {
		if sec.Attrs["src"] != "" {
			continue
		}
		popts := scriptOptions(sec)

		out, n, err := script.TransformSection(sec.Content, popts, scriptAlloc, opts)
		if err != nil {
			return nil, parseError(unit, sec.Offset, err)
		}
		shifts = append(shifts, lineShift{upTo: scriptAlloc.Len(), by: strings.Count(unit.Text[:sec.Offset], "\n")})
		if n == 0 {
			continue
		}
		if opts.ImportStatement != "" {
			out = script.InjectImport(out, opts.ImportStatement, popts)
		}

		rep, err := locate(unit.Text, sec, out)
		if err != nil {
			return nil, parseError(unit, sec.Offset, err)
		}
		reps = append(reps, rep)
	}

	content, err := hankey.ApplyReplacements(unit.Text, reps)
	if err != nil {
		return nil, err
	}

	// Script literal lines are section-relative until shifted.
	scriptLits := scriptAlloc.Literals()
	from := 0
	for _, s := range shifts {
		for i := from; i < s.upTo; i++ {
			scriptLits[i].Line += s.by
		}
		from = s.upTo
	}

	return &hankey.Result{
		Content:  content,
		Literals: append(tplAlloc.Literals(), scriptLits...),
		Kind:     unit.Kind,
	}, nil
}

type lineShift struct {
	upTo int // Literal count after the section
	by   int // Lines before the section
}

// locate finds the section content at or after its recorded offset and
// returns the edit replacing it with out.
func locate(src string, sec Section, out string) (hankey.Replacement, error) {
	idx := strings.Index(src[sec.Offset:], sec.Content)
	if idx < 0 {
		return hankey.Replacement{}, fmt.Errorf("section <%s> not found at offset %d", sec.Name, sec.Offset)
	}
	start := sec.Offset + idx
	return hankey.Replacement{Start: start, End: start + len(sec.Content), Text: out}, nil
}

func scriptOptions(sec Section) script.ParseOptions {
	switch sec.Lang() {
	case "ts":
		return script.ParseOptions{Typed: true}
	case "tsx":
		return script.ParseOptions{Typed: true, JSX: true}
	case "jsx":
		return script.ParseOptions{JSX: true}
	}
	return script.ParseOptions{}
}

func parseError(unit hankey.SourceUnit, base int, err error) error {
	pe := &hankey.ParseError{Path: unit.Path, Kind: unit.Kind, Offset: -1, Cause: err}
	var se *script.SyntaxError
	if errors.As(err, &se) {
		pe.Offset = base + se.Offset
	}
	return pe
}

package script

import "sort"

// NodeKind is the kind of a visitable node.
type NodeKind int

const (
	// NodeString is a quoted string literal (or a JSX attribute string).
	NodeString NodeKind = iota
	// NodeTemplate is a template literal.
	NodeTemplate
	// NodeText is text between JSX tags.
	NodeText
)

func (k NodeKind) String() string {
	switch k {
	case NodeString:
		return "string"
	case NodeTemplate:
		return "template"
	case NodeText:
		return "text"
	}
	return "unknown"
}

// Node is a translatable candidate found while parsing.
type Node struct {
	Kind  NodeKind
	Start int    // Offset of the literal (opening quote/backtick, or first non-space text byte)
	End   int    // Offset just past the literal
	Raw   string // Body without delimiters
	Line  int    // 1-based line of Start

	// JSX attribute holding this literal as its value.
	Attr      string
	AttrStart int // Start of the attribute value (quote or '{')
	AttrEnd   int // End of the attribute value

	JSXString   bool     // JSX attribute string: no backslash escapes
	Tagged      bool     // Tagged template literal
	MemberKey   bool     // Object or class member key position
	ImportPath  bool     // Module specifier of an import/export/require
	InDecorator bool     // Nested inside a decorator application
	Callees     []string // Enclosing call names, innermost last
}

// Comment is a line or block comment.
type Comment struct {
	Start int
	End   int
	Text  string
	Line  int // 1-based line of Start
	EndLn int // 1-based line of End
}

// Tree is the result of parsing one script.
type Tree struct {
	Source   string
	Nodes    []*Node
	Comments []Comment

	// LastImportEnd is the offset just past the last top-level import
	// statement, or -1 when there is none.
	LastImportEnd int
	// ShebangEnd is the offset just past a leading #! line, or 0.
	ShebangEnd int

	lines []int
}

// LineAt returns the 1-based line containing offset.
func (t *Tree) LineAt(offset int) int {
	return sort.SearchInts(t.lines, offset+1)
}

// IgnoredLines returns the lines suppressed by comments containing marker.
// A marker applies to the comment's own line and the line after it.
func (t *Tree) IgnoredLines(marker string) map[int]bool {
	out := make(map[int]bool)
	if marker == "" {
		return out
	}
	for _, c := range t.Comments {
		if containsFold(c.Text, marker) {
			out[c.EndLn] = true
			out[c.EndLn+1] = true
		}
	}
	return out
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

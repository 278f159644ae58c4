package hankey

// SourceKind is the syntactic flavour of a source file.
type SourceKind string

const (
	// KindScript is plain ECMAScript.
	KindScript SourceKind = "script"
	// KindTyped is the typed superset (TypeScript).
	KindTyped SourceKind = "typed"
	// KindJSX is ECMAScript or TypeScript with JSX markup.
	KindJSX SourceKind = "jsx"
	// KindComponent is a single-file UI component (template + script sections).
	KindComponent SourceKind = "component"
	// KindUnknown is anything the engine does not handle.
	KindUnknown SourceKind = "unknown"
)

// IsScript reports whether the kind is handled by the script transformer.
func (k SourceKind) IsScript() bool {
	return k == KindScript || k == KindTyped || k == KindJSX
}

// SourceUnit is one file's original text plus its detected kind.
type SourceUnit struct {
	Path string
	Text string
	Kind SourceKind

	// Typed is set when the script uses the typed superset (also for typed JSX).
	Typed bool
	// Decorators is set when legacy-style decorators appear in the source.
	Decorators bool
}

// LiteralForm tags the origin of a Literal.
type LiteralForm string

const (
	// FormString is a plain quoted string.
	FormString LiteralForm = "string"
	// FormTemplate is an interpolated template; Text holds the flattened form.
	FormTemplate LiteralForm = "template"
	// FormTagText is text between markup tags.
	FormTagText LiteralForm = "tag_text"
)

// Literal is a detected run of target-script text eligible for key substitution.
type Literal struct {
	Text  string      // Original text, or the flattened form for templates
	Form  LiteralForm // Origin form
	Exprs []string    // Ordered expression snippets (templates only)
	Key   string      // Allocated key
	Line  int         // 1-based line of the first occurrence
}

// Replacement is a (start, end, text) edit over a source text.
type Replacement struct {
	Start int
	End   int
	Text  string
}

// Options is the configuration bundle for one transform call.
type Options struct {
	DefaultLang string   // Default language code (its sub-map holds the literal text)
	Languages   []string // Every configured language, default included or not
	KeyPrefix   string   // Prefix of generated keys (e.g. "I18N_")
	KeyOffset   int      // First index used for script keys

	ScriptCallee   string // Translation call in script context (default "i18n.t")
	JSXCallee      string // Translation call in markup context for JSX (default "t")
	TemplateCallee string // Translation call in component templates (default "$t")

	DenyCallees  []string // Calls whose arguments are never rewritten
	IgnoreMarker string   // Comment marker suppressing its own and the next line

	// Existing holds previously allocated default-language messages; a literal
	// whose text equals an existing value reuses that key.
	Existing *Messages

	// ImportStatement is injected once into an edited script when any rewrite occurred.
	ImportStatement string
}

// Defaults used when Options leaves a field empty.
const (
	DefaultScriptCallee   = "i18n.t"
	DefaultJSXCallee      = "t"
	DefaultTemplateCallee = "$t"
	DefaultIgnoreMarker   = "i18n-ignore"
)

// WithDefaults returns a copy of o with empty callee names and marker filled in.
func (o Options) WithDefaults() Options {
	if o.ScriptCallee == "" {
		o.ScriptCallee = DefaultScriptCallee
	}
	if o.JSXCallee == "" {
		o.JSXCallee = DefaultJSXCallee
	}
	if o.TemplateCallee == "" {
		o.TemplateCallee = DefaultTemplateCallee
	}
	if o.IgnoreMarker == "" {
		o.IgnoreMarker = DefaultIgnoreMarker
	}
	return o
}

// CallNames returns every configured translation call name.
func (o Options) CallNames() []string {
	o = o.WithDefaults()
	return []string{o.ScriptCallee, o.JSXCallee, o.TemplateCallee}
}

// Result is the outcome of transforming one file.
type Result struct {
	Content  string         // Edited source (the original text when nothing changed)
	Literals []Literal      // Found literals, one per key, in discovery order
	Object   LanguageObject // Per-language skeleton for the found literals
	Kind     SourceKind     // Kind the file was handled as

	// Unhandled lists classifier findings when the parse failed and nothing was rewritten.
	Unhandled []string
}

// Count returns the number of literals found.
func (r *Result) Count() int {
	return len(r.Literals)
}

// Changed reports whether the content differs from the input.
func (r *Result) Changed(original string) bool {
	return r.Content != original
}

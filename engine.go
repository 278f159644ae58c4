package hankey

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/hankey/lexer"
)

// Transformer rewrites one kind of source unit.
type Transformer interface {
	// Transform returns the edited text and found literals. A *ParseError
	// means the unit could not be parsed; the engine turns it into a no-op.
	Transform(unit SourceUnit, opts Options) (*Result, error)

	// Kinds lists the source kinds this transformer handles.
	Kinds() []SourceKind
}

// Engine routes files to transformers and serialises work per path.
type Engine struct {
	transformers map[SourceKind]Transformer
	logger       zerolog.Logger
	classifier   lexer.Options
	locks        sync.Map // path -> *sync.Mutex
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithTransformer registers a transformer for every kind it reports.
func WithTransformer(t Transformer) EngineOption {
	return func(e *Engine) {
		for _, k := range t.Kinds() {
			e.transformers[k] = t
		}
	}
}

// WithLogger sets the logger used for recovered failures.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClassifierOptions tunes the literal classifier used by Scan and for the
// fallback inventory of files that fail to parse.
func WithClassifierOptions(o lexer.Options) EngineOption {
	return func(e *Engine) {
		e.classifier = o
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		transformers: make(map[SourceKind]Transformer),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transform rewrites the CJK literals of one file. Concurrent calls for the
// same path run one after another. A parse failure is not an error: the
// original text comes back unchanged with an empty literal list.
func (e *Engine) Transform(ctx context.Context, path, text string, opts Options) (*Result, error) {
	mu := e.lock(path)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.DefaultLang == "" {
		return nil, &ConfigError{Field: "default_language", Message: "not set"}
	}
	opts = opts.WithDefaults()

	unit := DetectKind(path, text)
	unchanged := &Result{
		Content: text,
		Kind:    unit.Kind,
		Object:  BuildLanguageObject(nil, opts.DefaultLang, opts.Languages),
	}

	t, ok := e.transformers[unit.Kind]
	if !ok {
		e.logger.Debug().Str("path", path).Str("kind", string(unit.Kind)).Msg("no transformer registered")
		return unchanged, nil
	}

	if !ContainsTarget(text) {
		return unchanged, nil
	}

	res, err := t.Transform(unit, opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			inventory := e.Scan(text)
			e.logger.Warn().Err(err).Str("path", path).Str("kind", string(unit.Kind)).
				Int("literals", len(inventory)).Msg("parse failed, file left unchanged")
			unchanged.Unhandled = inventory
			return unchanged, nil
		}
		return nil, err
	}

	res.Kind = unit.Kind
	res.Object = BuildLanguageObject(res.Literals, opts.DefaultLang, opts.Languages)
	e.logger.Debug().Str("path", path).Int("literals", len(res.Literals)).Msg("transformed")
	return res, nil
}

// Scan returns the classifier inventory of text without rewriting it.
func (e *Engine) Scan(text string) []string {
	return lexer.Classify(text, e.classifier)
}

// Supports reports whether a transformer is registered for path.
func (e *Engine) Supports(path string) bool {
	_, ok := e.transformers[kindFromExt(path)]
	return ok
}

func (e *Engine) lock(path string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(filepath.Clean(path), &sync.Mutex{})
	return mu.(*sync.Mutex)
}

var (
	jsxPattern       = regexp.MustCompile(`(?:return|=>|[=(,?:&|])\s*<(?:[A-Za-z][\w.:-]*|>)`)
	decoratorPattern = regexp.MustCompile(`(?m)^\s*@[A-Za-z_$][\w$.]*`)
)

// DetectKind resolves the kind of a file from its extension and content.
func DetectKind(path, text string) SourceUnit {
	unit := SourceUnit{Path: path, Text: text, Kind: kindFromExt(path)}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts", ".tsx":
		unit.Typed = true
	}

	if unit.Kind == KindScript && jsxPattern.MatchString(text) && strings.Contains(text, "</") {
		unit.Kind = KindJSX
	}
	if unit.Kind.IsScript() {
		unit.Decorators = decoratorPattern.MatchString(text)
	}
	return unit
}

func kindFromExt(path string) SourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return KindScript
	case ".ts", ".mts", ".cts":
		return KindTyped
	case ".jsx", ".tsx":
		return KindJSX
	case ".vue":
		return KindComponent
	default:
		return KindUnknown
	}
}

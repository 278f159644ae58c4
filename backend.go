package hankey

import "context"

// TranslateRequest is one batch of distinct default-language texts bound
// for a single target language.
type TranslateRequest struct {
	Texts      []string // Distinct source texts
	SourceLang string   // Default language code
	TargetLang string   // Target language code
	Context    string   // Optional project description for the backend
	Glossary   map[string]string
}

// Backend is the translation boundary. It maps every text of the batch to
// its translation; a missing entry fails the batch.
type Backend interface {
	Translate(ctx context.Context, req TranslateRequest) (map[string]string, error)
}

// TranslateFunc adapts a function to the Backend interface.
type TranslateFunc func(ctx context.Context, req TranslateRequest) (map[string]string, error)

// Translate implements Backend.
func (f TranslateFunc) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	return f(ctx, req)
}

// TranslationCache stores translations keyed by CacheKey.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if not found or expired.
	Get(key string) (string, bool)

	// Set stores a translation in the cache.
	Set(key string, value string) error
}

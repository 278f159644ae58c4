// Package langfile persists LanguageObjects as one file per language and
// gives the CLI access to the source tree it rewrites.
package langfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"sigs.k8s.io/yaml"

	"github.com/ZaguanLabs/hankey"
)

// Format is the on-disk encoding of a language file.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Store reads and writes <dir>/<lang>.<ext>.
type Store struct {
	dir    string
	format Format
	logger zerolog.Logger
}

// Option is a functional option for configuring the Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a store rooted at dir. An empty format means JSON.
func NewStore(dir string, format Format, opts ...Option) *Store {
	if format == "" {
		format = FormatJSON
	}
	s := &Store{dir: dir, format: format, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory holding the language files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path of lang.
func (s *Store) Path(lang string) string {
	return filepath.Join(s.dir, lang+"."+string(s.format))
}

// Load reads every language in langs. The default language file must exist;
// other missing files load as empty.
func (s *Store) Load(defaultLang string, langs []string) (hankey.LanguageObject, error) {
	if s.dir == "" {
		return nil, &hankey.ConfigError{Field: "lang_dir", Message: "not set"}
	}

	lo := make(hankey.LanguageObject)
	for _, lang := range withDefault(defaultLang, langs) {
		m, err := s.LoadLang(lang)
		switch {
		case errors.Is(err, fs.ErrNotExist) && lang == defaultLang:
			return nil, &hankey.ConfigError{
				Field:   "default_language",
				Message: fmt.Sprintf("no language file at %s", s.Path(lang)),
				Cause:   err,
			}
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Debug().Str("lang", lang).Msg("language file missing, starting empty")
			m = hankey.NewMessages()
		case err != nil:
			return nil, err
		}
		lo[lang] = m
	}
	return lo, nil
}

// LoadLang reads one language file.
func (s *Store) LoadLang(lang string) (*hankey.Messages, error) {
	data, err := os.ReadFile(s.Path(lang))
	if err != nil {
		return nil, err
	}
	return Decode(data, s.format)
}

// Save writes every language of lo, creating the directory if needed.
func (s *Store) Save(lo hankey.LanguageObject) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", s.dir, err)
	}
	for _, lang := range lo.Languages() {
		data, err := Encode(lo[lang], s.format)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", lang, err)
		}
		if err := os.WriteFile(s.Path(lang), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", lang, err)
		}
		s.logger.Debug().Str("lang", lang).Int("keys", lo[lang].Len()).Msg("language file written")
	}
	return nil
}

// Decode parses a flat key/value document. YAML is converted to JSON first.
func Decode(data []byte, format Format) (*hankey.Messages, error) {
	if format == FormatYAML {
		if len(bytes.TrimSpace(data)) == 0 {
			return hankey.NewMessages(), nil
		}
		j, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("converting YAML: %w", err)
		}
		data = j
	}

	m := hankey.NewMessages()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode renders messages. JSON keeps insertion order; YAML output is sorted
// by key.
func Encode(m *hankey.Messages, format Format) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		return yaml.JSONToYAML(raw)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Merge copies src into dst. Existing non-empty values in dst win; new keys
// are appended in src order. It returns the number of keys added.
func Merge(dst, src hankey.LanguageObject) int {
	added := 0
	for _, lang := range src.Languages() {
		target := dst.Lang(lang)
		from := src[lang]
		for _, key := range from.Keys() {
			v, _ := from.Get(key)
			cur, ok := target.Get(key)
			switch {
			case !ok:
				target.Set(key, v)
				added++
			case cur == "" && v != "":
				target.Set(key, v)
			}
		}
	}
	return added
}

// NextOffset returns one past the highest numeric suffix among keys of the
// form prefix+N, or 0 when there are none.
func NextOffset(m *hankey.Messages, prefix string) int {
	re := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `(\d+)$`)
	next := 0
	for _, key := range m.Keys() {
		sub := re.FindStringSubmatch(key)
		if sub == nil {
			continue
		}
		if n, err := strconv.Atoi(sub[1]); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

func withDefault(defaultLang string, langs []string) []string {
	out := []string{defaultLang}
	for _, l := range langs {
		if l != defaultLang && l != "" {
			out = append(out, l)
		}
	}
	return out
}

// pointer escapes key as a JSON Pointer reference token.
func pointer(key string) string {
	return "/" + strings.NewReplacer("~", "~0", "/", "~1").Replace(key)
}

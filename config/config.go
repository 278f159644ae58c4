// Package config loads .hankey.yaml project settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ZaguanLabs/hankey"
)

// FileName is the config file looked up in the project root.
const FileName = ".hankey.yaml"

// Config is the .hankey.yaml schema.
type Config struct {
	// Languages lists every language code kept in the language files.
	Languages []string `yaml:"languages"`
	// DefaultLanguage is the language the source text is written in.
	DefaultLanguage string `yaml:"default_language"`
	// KeyPrefix is prepended to generated keys.
	KeyPrefix string `yaml:"key_prefix"`

	CallNames       CallNames `yaml:"call_names"`
	DenyCallees     []string  `yaml:"deny_callees,omitempty"`
	IgnoreMarker    string    `yaml:"ignore_marker"`
	ImportStatement string    `yaml:"import_statement,omitempty"`

	// LangDir holds one file per language, relative to the project root.
	LangDir    string `yaml:"lang_dir"`
	LangFormat string `yaml:"lang_format"`

	// Sources are the directories scanned for source files.
	Sources    []string `yaml:"sources,omitempty"`
	Extensions []string `yaml:"extensions,omitempty"`

	BatchSize     int `yaml:"batch_size"`
	Concurrency   int `yaml:"concurrency"`
	MergeMinCount int `yaml:"merge_min_count"`

	// Context describes the project to the translation backend.
	Context  string            `yaml:"context,omitempty"`
	Glossary map[string]string `yaml:"glossary,omitempty"`

	Provider Provider `yaml:"provider"`
	Cache    Cache    `yaml:"cache"`
}

// CallNames are the translation call names written into rewritten sources.
type CallNames struct {
	Script   string `yaml:"script"`
	Template string `yaml:"template"`
	JSX      string `yaml:"jsx"`
}

// Provider selects the translation backend.
type Provider struct {
	Name              string `yaml:"name"` // openai or mock
	Model             string `yaml:"model,omitempty"`
	BaseURL           string `yaml:"base_url,omitempty"`
	APIKeyEnv         string `yaml:"api_key_env"`
	RequestsPerMinute int    `yaml:"requests_per_minute,omitempty"`
	TextsPerMinute    int    `yaml:"texts_per_minute,omitempty"`
	MaxRetries        int    `yaml:"max_retries"`
	RetryIncomplete   bool   `yaml:"retry_incomplete,omitempty"`
}

// Cache configures the translation cache.
type Cache struct {
	TTL       time.Duration `yaml:"ttl"`
	RedisURL  string        `yaml:"redis_url,omitempty"`
	File      string        `yaml:"file,omitempty"` // used without redis_url
	KeyPrefix string        `yaml:"key_prefix,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Languages:       []string{"zh", "en"},
		DefaultLanguage: "zh",
		KeyPrefix:       "I18N_",
		CallNames: CallNames{
			Script:   hankey.DefaultScriptCallee,
			Template: hankey.DefaultTemplateCallee,
			JSX:      hankey.DefaultJSXCallee,
		},
		IgnoreMarker:  hankey.DefaultIgnoreMarker,
		LangDir:       "locales",
		LangFormat:    "json",
		Sources:       []string{"src"},
		BatchSize:     10,
		Concurrency:   3,
		MergeMinCount: 2,
		Provider: Provider{
			Name:      "openai",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Cache: Cache{TTL: 30 * 24 * time.Hour},
	}
}

// Load reads dir/.hankey.yaml over the defaults. A missing file yields the
// defaults. The result is validated.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &hankey.ConfigError{Message: "parsing " + path, Cause: err}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write stores cfg as dir/.hankey.yaml.
func (c *Config) Write(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0o644)
}

// Validate checks required fields and language codes, and adds the default
// language to Languages when it is missing.
func (c *Config) Validate() error {
	if c.DefaultLanguage == "" {
		return &hankey.ConfigError{Field: "default_language", Message: "not set"}
	}
	if c.LangDir == "" {
		return &hankey.ConfigError{Field: "lang_dir", Message: "not set"}
	}

	seen := make(map[string]bool)
	for _, lang := range c.Languages {
		if _, err := hankey.ParseLanguage(lang); err != nil {
			return &hankey.ConfigError{Field: "languages", Message: fmt.Sprintf("invalid code %q", lang), Cause: err}
		}
		if seen[lang] {
			return &hankey.ConfigError{Field: "languages", Message: fmt.Sprintf("duplicate code %q", lang)}
		}
		seen[lang] = true
	}
	if _, err := hankey.ParseLanguage(c.DefaultLanguage); err != nil {
		return &hankey.ConfigError{Field: "default_language", Message: fmt.Sprintf("invalid code %q", c.DefaultLanguage), Cause: err}
	}
	if !seen[c.DefaultLanguage] {
		c.Languages = append([]string{c.DefaultLanguage}, c.Languages...)
	}

	switch c.LangFormat {
	case "", "json", "yaml":
	default:
		return &hankey.ConfigError{Field: "lang_format", Message: fmt.Sprintf("unsupported format %q", c.LangFormat)}
	}
	switch c.Provider.Name {
	case "", "openai", "mock":
	default:
		return &hankey.ConfigError{Field: "provider.name", Message: fmt.Sprintf("unknown provider %q", c.Provider.Name)}
	}

	if c.BatchSize <= 0 {
		return &hankey.ConfigError{Field: "batch_size", Message: "must be positive"}
	}
	if c.Concurrency <= 0 {
		return &hankey.ConfigError{Field: "concurrency", Message: "must be positive"}
	}
	return nil
}

// TransformOptions builds the rewrite options for this project.
func (c *Config) TransformOptions() hankey.Options {
	return hankey.Options{
		DefaultLang:     c.DefaultLanguage,
		Languages:       c.Languages,
		KeyPrefix:       c.KeyPrefix,
		ScriptCallee:    c.CallNames.Script,
		JSXCallee:       c.CallNames.JSX,
		TemplateCallee:  c.CallNames.Template,
		DenyCallees:     c.DenyCallees,
		IgnoreMarker:    c.IgnoreMarker,
		ImportStatement: c.ImportStatement,
	}.WithDefaults()
}

// LangPath resolves LangDir against the project root.
func (c *Config) LangPath(root string) string {
	return resolve(root, c.LangDir)
}

// CachePath resolves cache.file against root. It is empty when no cache
// file is configured.
func (c *Config) CachePath(root string) string {
	if c.Cache.File == "" {
		return ""
	}
	return resolve(root, c.Cache.File)
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// Package dedupe collapses default-language keys that share one value into
// a single canonical key.
//
// Preview computes the plan and every source reference to a discarded key
// without touching anything. Execute rewrites those references and drops
// the discarded keys from every language. A reference that is no longer at
// its recorded place is skipped and reported; it never aborts the run.
package dedupe

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/hankey"
)

// DefaultMinCount is the smallest group size merged by default.
const DefaultMinCount = 2

// DefaultCallNames are the lookup calls whose first argument is a key.
var DefaultCallNames = []string{"i18n.t", "$t", "t"}

// Group is a set of keys sharing one default-language value.
type Group struct {
	Value       string
	Canonical   string
	Discarded   []string
	Occurrences int // Source references to discarded keys
}

// SourceFile is one file handed in by the caller.
type SourceFile struct {
	Path    string
	Content string
}

// Occurrence is one reference to a discarded key.
type Occurrence struct {
	File    string
	Line    int // 1-based
	Offset  int // Byte offset of the key (inside its quotes)
	OldKey  string
	NewKey  string
	Context string // The trimmed source line
}

// FileRefs groups the occurrences of one file.
type FileRefs struct {
	File        string
	Occurrences []Occurrence
}

// Summary holds plan totals.
type Summary struct {
	Groups        int
	KeysSaved     int
	FilesAffected int
	Occurrences   int
}

// Plan is the outcome of Preview.
type Plan struct {
	Groups  []Group
	Files   []FileRefs
	Summary Summary
}

// Merger plans and applies key merges.
type Merger struct {
	minCount int
	hints    map[string]string
	calls    []string
	logger   zerolog.Logger
	patterns sync.Map // joined keys -> *regexp.Regexp
}

// Option is a functional option for configuring the Merger.
type Option func(*Merger)

// WithMinCount sets the minimum group size. Values below 2 are raised to 2.
func WithMinCount(k int) Option {
	return func(m *Merger) {
		m.minCount = max(k, DefaultMinCount)
	}
}

// WithCanonical designates key as the survivor of the group holding value.
// The key does not have to exist yet.
func WithCanonical(value, key string) Option {
	return func(m *Merger) {
		m.hints[value] = key
	}
}

// WithCallNames sets the lookup calls a reference must appear in.
// Empty names are ignored; an empty list keeps DefaultCallNames.
func WithCallNames(names ...string) Option {
	return func(m *Merger) {
		var calls []string
		for _, n := range names {
			if n != "" {
				calls = append(calls, n)
			}
		}
		if len(calls) > 0 {
			m.calls = calls
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Merger) {
		m.logger = l
	}
}

// New creates a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{
		minCount: DefaultMinCount,
		hints:    make(map[string]string),
		calls:    DefaultCallNames,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Groups returns the merge groups of defaults, ordered by canonical key.
// Empty values never form a group.
func (m *Merger) Groups(defaults *hankey.Messages) []Group {
	byValue := make(map[string][]string)
	var values []string
	for _, key := range defaults.Keys() {
		v, _ := defaults.Get(key)
		if v == "" {
			continue
		}
		if _, ok := byValue[v]; !ok {
			values = append(values, v)
		}
		byValue[v] = append(byValue[v], key)
	}

	var groups []Group
	for _, v := range values {
		keys := byValue[v]
		if len(keys) < m.minCount {
			continue
		}
		sorted := append([]string(nil), keys...)
		sort.Strings(sorted)

		canonical := sorted[0]
		if hint, ok := m.hints[v]; ok && hint != "" {
			canonical = hint
		}

		g := Group{Value: v, Canonical: canonical}
		for _, k := range sorted {
			if k != canonical {
				g.Discarded = append(g.Discarded, k)
			}
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Canonical < groups[j].Canonical })
	return groups
}

// Preview computes the merge plan and the references it would rewrite.
func (m *Merger) Preview(defaults *hankey.Messages, files []SourceFile) *Plan {
	plan := &Plan{Groups: m.Groups(defaults)}

	rename := make(map[string]string)
	for _, g := range plan.Groups {
		for _, k := range g.Discarded {
			rename[k] = g.Canonical
		}
		plan.Summary.KeysSaved += len(g.Discarded)
	}
	plan.Summary.Groups = len(plan.Groups)
	if len(rename) == 0 {
		return plan
	}

	counts := make(map[string]int)
	re := m.pattern(rename)
	for _, f := range files {
		occ := find(re, f, rename)
		if len(occ) == 0 {
			continue
		}
		for _, o := range occ {
			counts[o.OldKey]++
		}
		plan.Files = append(plan.Files, FileRefs{File: f.Path, Occurrences: occ})
		plan.Summary.Occurrences += len(occ)
	}
	sort.Slice(plan.Files, func(i, j int) bool { return plan.Files[i].File < plan.Files[j].File })
	plan.Summary.FilesAffected = len(plan.Files)

	for i := range plan.Groups {
		for _, k := range plan.Groups[i].Discarded {
			plan.Groups[i].Occurrences += counts[k]
		}
	}
	return plan
}

// pattern returns a regexp matching any of the keys as the quoted first
// argument of a lookup call. Compiled patterns are cached per key set.
func (m *Merger) pattern(rename map[string]string) *regexp.Regexp {
	keys := make([]string, 0, len(rename))
	for k := range rename {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	id := strings.Join(keys, "\x00")

	if re, ok := m.patterns.Load(id); ok {
		return re.(*regexp.Regexp)
	}

	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	calls := make([]string, len(m.calls))
	for i, c := range m.calls {
		calls[i] = regexp.QuoteMeta(c)
	}
	alt := "(" + strings.Join(quoted, "|") + ")"
	call := `(?:^|[^\w$])(?:` + strings.Join(calls, "|") + `)\(\s*`
	re := regexp.MustCompile(call + `(?:'` + alt + `'|"` + alt + `"|` + "`" + alt + "`)")

	m.patterns.Store(id, re)
	return re
}

func find(re *regexp.Regexp, f SourceFile, rename map[string]string) []Occurrence {
	var out []Occurrence
	for _, loc := range re.FindAllStringSubmatchIndex(f.Content, -1) {
		start, end := -1, -1
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] >= 0 {
				start, end = loc[g], loc[g+1]
				break
			}
		}
		if start < 0 {
			continue
		}

		key := f.Content[start:end]
		lineStart := strings.LastIndexByte(f.Content[:start], '\n') + 1
		lineEnd := strings.IndexByte(f.Content[start:], '\n')
		if lineEnd < 0 {
			lineEnd = len(f.Content)
		} else {
			lineEnd += start
		}

		out = append(out, Occurrence{
			File:    f.Path,
			Line:    strings.Count(f.Content[:start], "\n") + 1,
			Offset:  start,
			OldKey:  key,
			NewKey:  rename[key],
			Context: strings.TrimSpace(f.Content[lineStart:lineEnd]),
		})
	}
	return out
}

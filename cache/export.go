package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/ZaguanLabs/hankey"
)

// DumpFormat tags every dump so unrelated JSON files are rejected on import.
const DumpFormat = "hankey-cache/v2"

// Dump is the on-disk form of a cache.
type Dump struct {
	Format     string            `json:"format"`
	ExportedAt time.Time         `json:"exported_at"`
	Entries    []DumpEntry       `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// DumpEntry is one cached translation. Source and Target are decoded from
// Key for readability; Key alone is authoritative on import.
type DumpEntry struct {
	Key         string `json:"key"`
	Source      string `json:"source,omitempty"`
	Target      string `json:"target,omitempty"`
	Translation string `json:"translation"`
}

// Filter narrows an export or import to some target languages. An empty
// filter matches everything.
type Filter []string

func (f Filter) match(key string) bool {
	if len(f) == 0 {
		return true
	}
	_, _, target, ok := hankey.SplitCacheKey(key)
	return ok && slices.Contains(f, target)
}

// Exporter writes cache contents for warm-starting another cache.
type Exporter struct {
	cache Enumerable
	now   func() time.Time
}

// NewExporter creates an exporter over cache.
func NewExporter(cache Enumerable) *Exporter {
	return &Exporter{cache: cache, now: time.Now}
}

// Export writes the entries matching targets as indented JSON, sorted by
// language pair and then key. It returns the number of entries written.
func (e *Exporter) Export(w io.Writer, targets Filter, metadata map[string]string) (int, error) {
	data, err := e.cache.Entries()
	if err != nil {
		return 0, fmt.Errorf("listing cache entries: %w", err)
	}

	dump := Dump{
		Format:     DumpFormat,
		ExportedAt: e.now().UTC().Truncate(time.Second),
		Entries:    make([]DumpEntry, 0, len(data)),
		Metadata:   metadata,
	}
	for key, value := range data {
		if !targets.match(key) {
			continue
		}
		entry := DumpEntry{Key: key, Translation: value}
		if _, src, tgt, ok := hankey.SplitCacheKey(key); ok {
			entry.Source, entry.Target = src, tgt
		}
		dump.Entries = append(dump.Entries, entry)
	}
	sort.Slice(dump.Entries, func(i, j int) bool {
		a, b := dump.Entries[i], dump.Entries[j]
		if pa, pb := a.Source+":"+a.Target, b.Source+":"+b.Target; pa != pb {
			return pa < pb
		}
		return a.Key < b.Key
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(dump); err != nil {
		return 0, fmt.Errorf("encoding cache dump: %w", err)
	}
	return len(dump.Entries), nil
}

// ExportToFile writes the dump to path.
func (e *Exporter) ExportToFile(path string, targets Filter, metadata map[string]string) (int, error) {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := e.Export(f, targets, metadata)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return n, err
}

// Importer loads a dump into a cache.
type Importer struct {
	cache TranslationCache

	// Targets limits the import to some target languages.
	Targets Filter
	// Overwrite replaces translations already cached under the same key.
	Overwrite bool
}

// NewImporter creates an importer that keeps existing entries.
func NewImporter(cache TranslationCache) *Importer {
	return &Importer{cache: cache}
}

// ImportResult counts what happened to each dump entry.
type ImportResult struct {
	Imported int
	Skipped  int // empty, filtered out or already cached
	Failed   int
	Metadata map[string]string
}

// Import reads a dump from r.
func (i *Importer) Import(r io.Reader) (*ImportResult, error) {
	var dump Dump
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decoding cache dump: %w", err)
	}
	if dump.Format != DumpFormat {
		return nil, fmt.Errorf("unsupported cache dump format %q (want %q)", dump.Format, DumpFormat)
	}

	result := &ImportResult{Metadata: dump.Metadata}
	for _, entry := range dump.Entries {
		if entry.Key == "" || entry.Translation == "" || !i.Targets.match(entry.Key) {
			result.Skipped++
			continue
		}
		if !i.Overwrite {
			if _, ok := i.cache.Get(entry.Key); ok {
				result.Skipped++
				continue
			}
		}
		if err := i.cache.Set(entry.Key, entry.Translation); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}
	return result, nil
}

// ImportFromFile reads a dump from path.
func (i *Importer) ImportFromFile(path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return i.Import(f)
}

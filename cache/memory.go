package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type memoryEntry struct {
	value   string
	expires time.Time // zero never expires
}

// InMemoryCache is a process-local cache with optional TTL. When backed by a
// file it is loaded on creation and written back on Close, which lets a
// single-user setup keep translations between runs without Redis.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	file    string
}

// NewInMemoryCache creates an empty cache. A ttl of zero or less never expires.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     max(ttl, 0),
		now:     time.Now,
	}
}

// OpenFileCache creates a cache persisted at path. A missing file starts
// empty; the file and its directory are created on Close.
func OpenFileCache(path string, ttl time.Duration) (*InMemoryCache, error) {
	c := NewInMemoryCache(ttl)
	c.file = path

	imp := NewImporter(c)
	if _, err := imp.ImportFromFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading cache file: %w", err)
	}
	return c, nil
}

func (c *InMemoryCache) live(e memoryEntry, now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// Get returns the value and true if present and not expired. Expired entries
// are dropped on access.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if !c.live(e, c.now()) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

// Set stores value under key, restarting its TTL.
func (c *InMemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{value: value}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[key] = e
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Prune drops expired entries and returns how many were removed.
func (c *InMemoryCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prune(c.now())
}

func (c *InMemoryCache) prune(now time.Time) int {
	n := 0
	for key, e := range c.entries {
		if !c.live(e, now) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Entries returns all live entries, pruning the rest.
func (c *InMemoryCache) Entries() (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune(c.now())
	out := make(map[string]string, len(c.entries))
	for key, e := range c.entries {
		out[key] = e.value
	}
	return out, nil
}

// Close writes a file-backed cache back to disk. It is a no-op otherwise.
// Entry TTLs restart when the file is loaded again.
func (c *InMemoryCache) Close() error {
	if c.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.file), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp := c.file + ".tmp"
	if _, err := NewExporter(c).ExportToFile(tmp, nil, nil); err != nil {
		return err
	}
	return os.Rename(tmp, c.file)
}

var _ Enumerable = (*InMemoryCache)(nil)

// Package cache provides translation caches consulted by the batch scheduler.
//
// Keys are built with hankey.CacheKey(text, sourceLang, targetLang); values
// are finished translations.
package cache

import (
	"time"

	"github.com/ZaguanLabs/hankey"
)

// TranslationCache is an alias to the root package interface.
type TranslationCache = hankey.TranslationCache

// Enumerable is a cache whose entries can be listed for export. Close
// releases connections and flushes file-backed caches.
type Enumerable interface {
	TranslationCache
	Entries() (map[string]string, error)
	Close() error
}

// Config selects and tunes a cache implementation.
type Config struct {
	RedisURL  string        // Use Redis when set
	File      string        // Otherwise persist memory entries here, if set
	TTL       time.Duration // Zero means no expiration
	KeyPrefix string        // Redis only
}

// New builds the cache described by cfg.
func New(cfg Config) (Enumerable, error) {
	switch {
	case cfg.RedisURL != "":
	case cfg.File != "":
		return OpenFileCache(cfg.File, cfg.TTL)
	default:
		return NewInMemoryCache(cfg.TTL), nil
	}
	return NewRedisCache(RedisConfig{URL: cfg.RedisURL, TTL: cfg.TTL, KeyPrefix: cfg.KeyPrefix})
}

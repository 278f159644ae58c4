package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/hankey"
)

// DefaultKeyPrefix namespaces every key written by RedisCache.
const DefaultKeyPrefix = "hankey:"

const (
	opTimeout = 5 * time.Second
	scanCount = 100
)

// RedisCache shares translations between runs and machines. Translations
// live in one hash per language pair ("<prefix>pair:zh:en", field = text
// hash), so a pair expires as a unit and can be listed without scanning
// every text. Keys not built by hankey.CacheKey are stored as plain strings
// under "<prefix>key:".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string        // e.g. redis://localhost:6379/0
	TTL       time.Duration // refreshed on every write to a pair; zero never expires
	KeyPrefix string        // default "hankey:"
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, &hankey.CacheError{Message: "invalid redis url", Cause: err}
	}

	c := NewRedisCacheFromClient(redis.NewClient(opts), cfg.TTL, cfg.KeyPrefix)
	if err := c.Ping(); err != nil {
		_ = c.client.Close()
		return nil, &hankey.CacheError{Message: "redis unreachable", Cause: err}
	}
	return c, nil
}

// NewRedisCacheFromClient creates a RedisCache from an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisCache{
		client: client,
		ttl:    max(ttl, 0),
		prefix: keyPrefix,
		logger: zerolog.Nop(),
	}
}

// SetLogger sets the logger used for errors that are reported as misses.
func (c *RedisCache) SetLogger(l zerolog.Logger) {
	c.logger = l
}

func (c *RedisCache) pairKey(src, tgt string) string {
	return c.prefix + "pair:" + src + ":" + tgt
}

func (c *RedisCache) plainKey(key string) string {
	return c.prefix + "key:" + key
}

// Get retrieves a translation. Errors other than a missing entry are logged
// and reported as a miss.
func (c *RedisCache) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cmd *redis.StringCmd
	if hash, src, tgt, ok := hankey.SplitCacheKey(key); ok {
		cmd = c.client.HGet(ctx, c.pairKey(src, tgt), hash)
	} else {
		cmd = c.client.Get(ctx, c.plainKey(key))
	}

	val, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("redis get failed")
		return "", false
	}
	return val, true
}

// Set stores a translation and refreshes the TTL of its language pair.
func (c *RedisCache) Set(key string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	hash, src, tgt, ok := hankey.SplitCacheKey(key)
	if !ok {
		if err := c.client.Set(ctx, c.plainKey(key), value, c.ttl).Err(); err != nil {
			return &hankey.CacheError{Message: "redis set failed", Cause: err}
		}
		return nil
	}

	pair := c.pairKey(src, tgt)
	if err := c.client.HSet(ctx, pair, hash, value).Err(); err != nil {
		return &hankey.CacheError{Message: "redis hset failed", Cause: err}
	}
	if c.ttl > 0 {
		if err := c.client.Expire(ctx, pair, c.ttl).Err(); err != nil {
			return &hankey.CacheError{Message: "redis expire failed", Cause: err}
		}
	}
	return nil
}

// Entries lists every stored translation under its CacheKey. Entries that
// vanish between the scan and the read are skipped.
func (c *RedisCache) Entries() (map[string]string, error) {
	ctx := context.Background()
	out := make(map[string]string)

	err := c.scan(ctx, c.prefix+"pair:*", func(full string) error {
		src, tgt, ok := strings.Cut(strings.TrimPrefix(full, c.prefix+"pair:"), ":")
		if !ok {
			return nil
		}
		fields, err := c.client.HGetAll(ctx, full).Result()
		if err != nil {
			return err
		}
		for hash, value := range fields {
			out[hash+":"+src+":"+tgt] = value
		}
		return nil
	})
	if err != nil {
		return nil, &hankey.CacheError{Message: "listing redis translations", Cause: err}
	}

	err = c.scan(ctx, c.prefix+"key:*", func(full string) error {
		val, err := c.client.Get(ctx, full).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		out[strings.TrimPrefix(full, c.prefix+"key:")] = val
		return nil
	})
	if err != nil {
		return nil, &hankey.CacheError{Message: "listing redis keys", Cause: err}
	}
	return out, nil
}

func (c *RedisCache) scan(ctx context.Context, match string, fn func(key string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, scanCount).Result()
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := fn(key); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

var _ Enumerable = (*RedisCache)(nil)

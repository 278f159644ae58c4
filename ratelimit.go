package hankey

import (
	"context"
	"sync"
	"time"
)

// bucket is a token bucket refilled continuously.
type bucket struct {
	tokens float64
	max    float64
	rate   float64 // tokens per second
}

func newBucket(perMinute, burst int) *bucket {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &bucket{tokens: float64(burst), max: float64(burst), rate: float64(perMinute) / 60}
}

func (b *bucket) refill(elapsed time.Duration) {
	b.tokens += elapsed.Seconds() * b.rate
	if b.tokens > b.max {
		b.tokens = b.max
	}
}

// cost caps n at the bucket size so an oversized request waits for a full
// bucket instead of forever.
func (b *bucket) cost(n int) float64 {
	return min(float64(n), b.max)
}

// wait returns how long until n tokens are available.
func (b *bucket) wait(n int) time.Duration {
	short := b.cost(n) - b.tokens
	if short <= 0 {
		return 0
	}
	return time.Duration(short / b.rate * float64(time.Second))
}

// RateLimiter paces backend calls by request count and, optionally, by the
// number of texts they carry.
type RateLimiter struct {
	mu       sync.Mutex
	requests *bucket
	texts    *bucket // nil when texts are not limited
	last     time.Time
	now      func() time.Time
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute (default: 60)
	BurstSize         int // Requests allowed back to back (default: same as RPM)
	TextsPerMinute    int // Maximum texts per minute; zero means unlimited
}

// NewRateLimiter creates a new rate limiter with full buckets.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	r := &RateLimiter{
		requests: newBucket(rpm, cfg.BurstSize),
		texts:    newBucket(cfg.TextsPerMinute, 0),
		now:      time.Now,
	}
	r.last = r.now()
	return r
}

// reserve takes the tokens for a call carrying n texts, or reports how long
// to wait before trying again.
func (r *RateLimiter) reserve(n int) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()

	wait := r.requests.wait(1)
	if r.texts != nil {
		wait = max(wait, r.texts.wait(n))
	}
	if wait > 0 {
		return wait, false
	}

	r.requests.tokens--
	if r.texts != nil {
		r.texts.tokens -= r.texts.cost(n)
	}
	return 0, true
}

// advance refills the buckets; the lock must be held.
func (r *RateLimiter) advance() {
	now := r.now()
	elapsed := now.Sub(r.last)
	r.last = now

	r.requests.refill(elapsed)
	if r.texts != nil {
		r.texts.refill(elapsed)
	}
}

// Wait blocks until a call carrying n texts may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, n int) error {
	for {
		wait, ok := r.reserve(n)
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes the tokens for a call carrying n texts without blocking.
func (r *RateLimiter) TryAcquire(n int) bool {
	_, ok := r.reserve(n)
	return ok
}

// Available returns the current number of request tokens.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	return r.requests.tokens
}

// RateLimitedBackend wraps a Backend with rate limiting.
type RateLimitedBackend struct {
	backend Backend
	limiter *RateLimiter
}

// NewRateLimitedBackend creates a rate-limited backend.
func NewRateLimitedBackend(backend Backend, cfg RateLimitConfig) *RateLimitedBackend {
	return &RateLimitedBackend{
		backend: backend,
		limiter: NewRateLimiter(cfg),
	}
}

// Translate waits for one request slot and len(req.Texts) text slots.
func (b *RateLimitedBackend) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	if err := b.limiter.Wait(ctx, len(req.Texts)); err != nil {
		return nil, &ProviderError{
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Retryable: false,
		}
	}
	return b.backend.Translate(ctx, req)
}

// Limiter returns the underlying rate limiter for inspection.
func (b *RateLimitedBackend) Limiter() *RateLimiter {
	return b.limiter
}

var _ Backend = (*RateLimitedBackend)(nil)

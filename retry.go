package hankey

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Delay before the first retry, doubled after each
	MaxDelay   time.Duration // Upper bound of a single delay

	// RetryIncomplete also retries payloads that miss texts or have the wrong
	// length. Model output varies between calls, so a second try often fixes it.
	RetryIncomplete bool

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	if attempt >= 62 {
		return c.MaxDelay
	}
	d := c.BaseDelay << attempt
	if d > c.MaxDelay || d <= 0 {
		d = c.MaxDelay
	}
	return d
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry runs fn until it succeeds, fails with an error IsRetryable
// rejects, or MaxRetries is used up. Delays grow exponentially.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	return retry(ctx, cfg, fn, IsRetryable)
}

func retry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T], retryable func(error) bool) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxRetries || !retryable(err) {
			return zero, err
		}

		d := cfg.delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, d)
		}

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryable reports whether err is worth another attempt. Only provider
// errors flagged as retryable and retryable batch errors qualify.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		return batchErr.Retryable
	}
	return false
}

// isIncomplete reports whether err describes a payload of the wrong shape.
func isIncomplete(err error) bool {
	var cm *CountMismatchError
	var se *ShapeError
	return errors.As(err, &cm) || errors.As(err, &se)
}

// RetryableBackend wraps a Backend with retry logic. The scheduler never
// retries on its own; callers opt in by wrapping the backend they inject.
type RetryableBackend struct {
	backend Backend
	config  RetryConfig
}

// NewRetryableBackend creates a backend with retry logic.
func NewRetryableBackend(backend Backend, cfg RetryConfig) *RetryableBackend {
	return &RetryableBackend{
		backend: backend,
		config:  cfg,
	}
}

// Translate implements Backend with retry logic.
func (b *RetryableBackend) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	retryable := IsRetryable
	if b.config.RetryIncomplete {
		retryable = func(err error) bool { return IsRetryable(err) || isIncomplete(err) }
	}

	return retry(ctx, b.config, func() (map[string]string, error) {
		out, err := b.backend.Translate(ctx, req)
		if err != nil || !b.config.RetryIncomplete {
			return out, err
		}
		if missing := missingTexts(req.Texts, out); len(missing) > 0 {
			return nil, &ShapeError{Missing: missing}
		}
		return out, nil
	}, retryable)
}

func missingTexts(texts []string, out map[string]string) []string {
	var missing []string
	for _, text := range texts {
		if out[text] == "" {
			missing = append(missing, text)
		}
	}
	return missing
}

var _ Backend = (*RetryableBackend)(nil)

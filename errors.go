package hankey

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is reported for work that was never started because the caller cancelled.
var ErrCancelled = fmt.Errorf("cancelled: %w", context.Canceled)

// ParseError indicates malformed source. Transformers recover from it locally
// by returning the original text unchanged.
type ParseError struct {
	Path   string
	Kind   SourceKind
	Offset int // Byte offset of the failure, -1 when unknown
	Cause  error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<input>"
	}
	if e.Offset >= 0 {
		loc = fmt.Sprintf("%s@%d", loc, e.Offset)
	}
	if e.Cause != nil {
		return fmt.Sprintf("parse error (%s) %s: %v", e.Kind, loc, e.Cause)
	}
	return fmt.Sprintf("parse error (%s) %s", e.Kind, loc)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// BatchError indicates that one translation batch failed.
type BatchError struct {
	Lang      string
	Batch     int      // Batch index within the run
	Keys      []string // Keys left untranslated by this batch
	Retryable bool
	Cause     error
}

func (e *BatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("batch %d (%s) failed: %v", e.Batch, e.Lang, e.Cause)
	}
	return fmt.Sprintf("batch %d (%s) failed", e.Batch, e.Lang)
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}

// ReferenceNotFoundError indicates that an expected key reference was not
// found at its recorded location.
type ReferenceNotFoundError struct {
	File string
	Line int
	Key  string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("reference to %q not found at %s:%d", e.Key, e.File, e.Line)
}

// ConfigError indicates missing or invalid configuration. It is fatal for the
// command that hit it.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a translation backend failure (API error, rate limit, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the backend returned a different number of translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}

// ShapeError indicates a backend payload that lacks translations for some inputs.
type ShapeError struct {
	Missing []string
}

func (e *ShapeError) Error() string {
	const max = 3
	shown := e.Missing
	if len(shown) > max {
		shown = shown[:max]
	}
	return fmt.Sprintf("unexpected payload: %d texts without translation (%s)", len(e.Missing), strings.Join(shown, ", "))
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Package schedule fills outstanding translations of a LanguageObject by
// sending batches of default-language texts to a translation backend under
// a concurrency ceiling.
//
// A failed batch never fails the run: the result keeps every translation
// that did arrive and lists the failed batches. Retrying is left to the
// caller, either by wrapping the backend (hankey.NewRetryableBackend) or by
// running again.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/hankey"
)

// Defaults for batch size and concurrency.
const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 3
)

// Scheduler runs translation batches through one backend.
type Scheduler struct {
	backend     hankey.Backend
	batchSize   int
	concurrency int
	logger      zerolog.Logger
	cache       hankey.TranslationCache
	metrics     *Metrics
	tracker     *Tracker
	context     string
	glossary    map[string]string
}

// Option is a functional option for configuring the Scheduler.
type Option func(*Scheduler)

// WithBatchSize sets the maximum number of texts per backend call.
func WithBatchSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency sets the maximum number of backend calls in flight.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithCache consults c before batching and stores fresh translations in it.
func WithCache(c hankey.TranslationCache) Option {
	return func(s *Scheduler) {
		s.cache = c
	}
}

// WithMetrics records batch outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithTracker shares a progress tracker between runs, typically one per
// command spanning many files.
func WithTracker(t *Tracker) Option {
	return func(s *Scheduler) {
		s.tracker = t
	}
}

// WithContext passes a project description to the backend.
func WithContext(description string) Option {
	return func(s *Scheduler) {
		s.context = description
	}
}

// WithGlossary passes preferred translations to the backend.
func WithGlossary(g map[string]string) Option {
	return func(s *Scheduler) {
		s.glossary = g
	}
}

// New creates a Scheduler.
func New(backend hankey.Backend, opts ...Option) *Scheduler {
	s := &Scheduler{
		backend:     backend,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request is the input of one run.
type Request struct {
	Object      hankey.LanguageObject
	DefaultLang string

	// Offset is the number of batches finished by earlier runs sharing the
	// tracker; progress of this run is reported on top of it.
	Offset int
}

// Result is the outcome of one run.
type Result struct {
	RunID  string
	Object hankey.LanguageObject // Copy of the input with translations filled in

	Batches    int                  // Batches planned after cache lookups
	Completed  int                  // Batches that returned a full payload
	Failures   []*hankey.BatchError // Failed or never-started batches, by index
	Translated int                  // Keys filled, cache hits included
	CacheHits  int                  // Texts answered by the cache

	// Message is set when the run as a whole failed.
	Message string
}

// OK reports whether every batch succeeded.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

type outcome struct {
	values []string // aligned with Batch.Texts
	err    error
}

// Run translates every outstanding entry of req.Object. Only configuration
// problems are returned as errors; batch failures are reported in the Result.
func (s *Scheduler) Run(ctx context.Context, req Request) (*Result, error) {
	if req.DefaultLang == "" {
		return nil, &hankey.ConfigError{Field: "default_language", Message: "not set"}
	}
	if _, ok := req.Object[req.DefaultLang]; !ok {
		return nil, &hankey.ConfigError{
			Field:   "default_language",
			Message: fmt.Sprintf("no messages for %q", req.DefaultLang),
		}
	}

	res := &Result{
		RunID:  uuid.NewString(),
		Object: req.Object.Clone(),
	}
	log := s.logger.With().Str("run", res.RunID).Logger()

	work := s.fromCache(collect(res.Object, req.DefaultLang), req.DefaultLang, res)
	batches := chunk(work, s.batchSize)
	res.Batches = len(batches)

	tracker := s.tracker
	if tracker == nil {
		tracker = NewTracker(req.Offset+len(batches), nil)
	}

	log.Debug().Int("batches", len(batches)).Int("cache_hits", res.CacheHits).Msg("translation run started")

	outcomes := make([]outcome, len(batches))
	var finished atomic.Int64

	runParallel(ctx, batches, s.concurrency,
		func(ctx context.Context, i int, b Batch) {
			outcomes[i] = s.translate(ctx, req.DefaultLang, b)
			tracker.Observe(req.Offset + int(finished.Add(1)))
		},
		func(i int, b Batch) {
			outcomes[i] = outcome{err: hankey.ErrCancelled}
		})

	for i, b := range batches {
		out := outcomes[i]
		if out.err != nil {
			be := &hankey.BatchError{
				Lang:      b.Lang,
				Batch:     b.Index,
				Keys:      flatten(b.Keys),
				Retryable: hankey.IsRetryable(out.err),
				Cause:     out.err,
			}
			res.Failures = append(res.Failures, be)
			if errors.Is(out.err, hankey.ErrCancelled) {
				s.metrics.batch(b.Lang, "skipped")
			} else {
				s.metrics.batch(b.Lang, "failed")
				log.Warn().Err(out.err).Str("lang", b.Lang).Int("batch", b.Index).Msg("translation batch failed")
			}
			continue
		}

		res.Completed++
		s.metrics.batch(b.Lang, "ok")
		s.metrics.texts(len(b.Texts))

		target := res.Object.Lang(b.Lang)
		for j, text := range b.Texts {
			for _, key := range b.Keys[j] {
				target.Set(key, out.values[j])
				res.Translated++
			}
			s.store(text, req.DefaultLang, b.Lang, out.values[j], log)
		}
	}

	if res.Batches > 0 && res.Completed == 0 {
		res.Message = fmt.Sprintf("translation failed: all %d batches failed: %v", res.Batches, res.Failures[0].Cause)
	}

	log.Debug().Int("completed", res.Completed).Int("failed", len(res.Failures)).
		Int("translated", res.Translated).Msg("translation run finished")
	return res, nil
}

// translate sends one batch and pairs the payload with the batch texts by index.
func (s *Scheduler) translate(ctx context.Context, sourceLang string, b Batch) outcome {
	payload, err := s.backend.Translate(ctx, hankey.TranslateRequest{
		Texts:      b.Texts,
		SourceLang: sourceLang,
		TargetLang: b.Lang,
		Context:    s.context,
		Glossary:   s.glossary,
	})
	if err != nil {
		return outcome{err: err}
	}

	values := make([]string, len(b.Texts))
	var missing []string
	for i, text := range b.Texts {
		v, ok := payload[text]
		if !ok || v == "" {
			missing = append(missing, text)
			continue
		}
		values[i] = v
	}
	if len(missing) > 0 {
		return outcome{err: &hankey.ShapeError{Missing: missing}}
	}
	return outcome{values: values}
}

// fromCache fills cached translations directly and drops them from the work list.
func (s *Scheduler) fromCache(work []pending, sourceLang string, res *Result) []pending {
	if s.cache == nil {
		return work
	}

	out := work[:0]
	for _, p := range work {
		kept := pending{lang: p.lang}
		target := res.Object.Lang(p.lang)
		for i, text := range p.texts {
			v, ok := s.cache.Get(hankey.CacheKey(text, sourceLang, p.lang))
			if !ok || v == "" {
				kept.texts = append(kept.texts, text)
				kept.keys = append(kept.keys, p.keys[i])
				continue
			}
			res.CacheHits++
			s.metrics.cacheHit()
			for _, key := range p.keys[i] {
				target.Set(key, v)
				res.Translated++
			}
		}
		if len(kept.texts) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

func (s *Scheduler) store(text, sourceLang, targetLang, value string, log zerolog.Logger) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(hankey.CacheKey(text, sourceLang, targetLang), value); err != nil {
		log.Debug().Err(err).Str("lang", targetLang).Msg("cache write failed")
	}
}

func flatten(keys [][]string) []string {
	var out []string
	for _, k := range keys {
		out = append(out, k...)
	}
	return out
}

package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ZaguanLabs/hankey"
	"github.com/ZaguanLabs/hankey/cache"
	"github.com/ZaguanLabs/hankey/provider"
)

func sampleObject() hankey.LanguageObject {
	lo := hankey.LanguageObject{}
	zh := lo.Lang("zh")
	zh.Set("K0", "你好")
	zh.Set("K1", "世界")
	zh.Set("K2", "你好")

	en := lo.Lang("en")
	en.Set("K0", "")
	en.Set("K1", "")
	en.Set("K2", "")

	ja := lo.Lang("ja")
	ja.Set("K0", "こんにちは")
	ja.Set("K1", "")
	return lo
}

func get(lo hankey.LanguageObject, lang, key string) string {
	v, _ := lo[lang].Get(key)
	return v
}

// upper answers every text with lang:text.
func upper() hankey.Backend {
	return hankey.TranslateFunc(func(ctx context.Context, req hankey.TranslateRequest) (map[string]string, error) {
		out := make(map[string]string, len(req.Texts))
		for _, t := range req.Texts {
			out[t] = req.TargetLang + ":" + t
		}
		return out, nil
	})
}

func TestScheduler_Run(t *testing.T) {
	s := New(upper())

	res, err := s.Run(context.Background(), Request{Object: sampleObject(), DefaultLang: "zh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !res.OK() || res.Message != "" {
		t.Fatalf("Expected success, got failures %v message %q", res.Failures, res.Message)
	}
	if res.Batches != 2 || res.Completed != 2 {
		t.Errorf("Expected 2 completed batches, got %d/%d", res.Completed, res.Batches)
	}
	if got := get(res.Object, "en", "K0"); got != "en:你好" {
		t.Errorf("Expected en:你好, got %q", got)
	}
	if got := get(res.Object, "en", "K2"); got != "en:你好" {
		t.Errorf("Expected shared text to fill K2, got %q", got)
	}
	if got := get(res.Object, "ja", "K0"); got != "こんにちは" {
		t.Errorf("Expected existing ja value untouched, got %q", got)
	}
	if got := get(res.Object, "ja", "K2"); got != "ja:你好" {
		t.Errorf("Expected missing ja key to be filled, got %q", got)
	}
	if res.Translated != 5 {
		t.Errorf("Expected 5 keys translated, got %d", res.Translated)
	}
	if res.RunID == "" {
		t.Error("Expected run id")
	}
}

func TestScheduler_InputUntouched(t *testing.T) {
	lo := sampleObject()
	if _, err := New(upper()).Run(context.Background(), Request{Object: lo, DefaultLang: "zh"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := get(lo, "en", "K0"); got != "" {
		t.Errorf("Expected input object unchanged, got %q", got)
	}
}

func TestScheduler_DistinctTextsPerBatch(t *testing.T) {
	var mu sync.Mutex
	var requests []hankey.TranslateRequest
	backend := hankey.TranslateFunc(func(ctx context.Context, req hankey.TranslateRequest) (map[string]string, error) {
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()
		return upper().Translate(ctx, req)
	})

	lo := hankey.LanguageObject{}
	for i := 0; i < 25; i++ {
		key := fmt.Sprintf("K%d", i)
		lo.Lang("zh").Set(key, fmt.Sprintf("文本%d", i%23))
		lo.Lang("en").Set(key, "")
	}

	res, err := New(backend, WithBatchSize(10)).Run(context.Background(), Request{Object: lo, DefaultLang: "zh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Batches != 3 || len(requests) != 3 {
		t.Fatalf("Expected 3 batches for 23 distinct texts, got %d (%d calls)", res.Batches, len(requests))
	}
	seen := 0
	for _, r := range requests {
		if len(r.Texts) > 10 {
			t.Errorf("Batch exceeds size: %d", len(r.Texts))
		}
		if r.SourceLang != "zh" || r.TargetLang != "en" {
			t.Errorf("Unexpected languages %s -> %s", r.SourceLang, r.TargetLang)
		}
		seen += len(r.Texts)
	}
	if seen != 23 {
		t.Errorf("Expected 23 texts sent, got %d", seen)
	}
	if got := get(res.Object, "en", "K24"); got != "en:文本1" {
		t.Errorf("Expected duplicate text filled, got %q", got)
	}
}

func TestScheduler_ConcurrencyCeiling(t *testing.T) {
	var active, peak atomic.Int32
	backend := hankey.TranslateFunc(func(ctx context.Context, req hankey.TranslateRequest) (map[string]string, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return upper().Translate(ctx, req)
	})

	lo := hankey.LanguageObject{}
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("K%d", i)
		lo.Lang("zh").Set(key, fmt.Sprintf("文本%d", i))
		lo.Lang("en").Set(key, "")
	}

	res, err := New(backend, WithBatchSize(1), WithConcurrency(3)).Run(context.Background(), Request{Object: lo, DefaultLang: "zh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Completed != 20 {
		t.Errorf("Expected 20 completed batches, got %d", res.Completed)
	}
	if peak.Load() > 3 {
		t.Errorf("Expected at most 3 calls in flight, got %d", peak.Load())
	}
}

func TestScheduler_PartialFailure(t *testing.T) {
	boom := &hankey.ProviderError{Message: "boom", Retryable: true}
	backend := hankey.TranslateFunc(func(ctx context.Context, req hankey.TranslateRequest) (map[string]string, error) {
		if req.TargetLang == "ja" {
			return nil, boom
		}
		return upper().Translate(ctx, req)
	})

	res, err := New(backend).Run(context.Background(), Request{Object: sampleObject(), DefaultLang: "zh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.OK() {
		t.Fatal("Expected a failed batch")
	}
	if res.Message != "" {
		t.Errorf("Expected no run-level message for partial failure, got %q", res.Message)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(res.Failures))
	}
	f := res.Failures[0]
	if f.Lang != "ja" || !f.Retryable || !errors.Is(f, boom) {
		t.Errorf("Unexpected failure %+v", f)
	}
	if strings.Join(f.Keys, ",") != "K1,K2" {
		t.Errorf("Expected failed keys K1,K2, got %v", f.Keys)
	}
	if got := get(res.Object, "en", "K1"); got != "en:世界" {
		t.Errorf("Expected en to be filled, got %q", got)
	}
	if got := get(res.Object, "ja", "K1"); got != "" {
		t.Errorf("Expected ja to stay empty, got %q", got)
	}
}

func TestScheduler_ShapeFailure(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Drop = map[string]bool{"世界": true}

	res, err := New(mock).Run(context.Background(), Request{Object: sampleObject(), DefaultLang: "zh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Failures) != 2 {
		t.Fatalf("Expected both batches to fail on missing text, got %d", len(res.Failures))
	}
	var se *hankey.ShapeError
	if !errors.As(res.Failures[0], &se) || se.Missing[0] != "世界" {
		t.Errorf("Expected ShapeError for 世界, got %v", res.Failures[0])
	}
	if get(res.Object, "en", "K0") != "" {
		t.Error("Expected failed batch to leave every key of the batch empty")
	}
	if !strings.Contains(res.Message, "all 2 batches failed") {
		t.Errorf("Expected run-level message, got %q", res.Message)
	}
}

func TestScheduler_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	backend := hankey.TranslateFunc(func(c context.Context, req hankey.TranslateRequest) (map[string]string, error) {
		calls.Add(1)
		cancel()
		return upper().Translate(c, req)
	})

	lo := hankey.LanguageObject{}
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("K%d", i)
		lo.Lang("zh").Set(key, fmt.Sprintf("文本%d", i))
		lo.Lang("en").Set(key, "")
	}

	res, err := New(backend, WithBatchSize(1), WithConcurrency(1)).Run(ctx, Request{Object: lo, DefaultLang: "zh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("Expected no batch to start after cancellation, got %d calls", calls.Load())
	}
	if res.Completed != 1 {
		t.Errorf("Expected the in-flight batch to finish, got %d", res.Completed)
	}
	if len(res.Failures) != 4 {
		t.Fatalf("Expected 4 skipped batches, got %d", len(res.Failures))
	}
	for _, f := range res.Failures {
		if !errors.Is(f, hankey.ErrCancelled) || !errors.Is(f, context.Canceled) {
			t.Errorf("Expected cancellation, got %v", f)
		}
	}
}

func TestScheduler_MonotonicProgressOutOfOrder(t *testing.T) {
	backend := hankey.TranslateFunc(func(ctx context.Context, req hankey.TranslateRequest) (map[string]string, error) {
		// Earlier texts finish later.
		var n int
		fmt.Sscanf(strings.TrimPrefix(req.Texts[0], "文本"), "%d", &n)
		time.Sleep(time.Duration(6-n) * 3 * time.Millisecond)
		return upper().Translate(ctx, req)
	})

	lo := hankey.LanguageObject{}
	for i := 0; i < 6; i++ {
		key := fmt.Sprintf("K%d", i)
		lo.Lang("zh").Set(key, fmt.Sprintf("文本%d", i))
		lo.Lang("en").Set(key, "")
	}

	var mu sync.Mutex
	var seen []int
	tracker := NewTracker(10, ReporterFunc(func(done, total int) {
		mu.Lock()
		seen = append(seen, done)
		mu.Unlock()
	}))
	tracker.Observe(4)

	s := New(backend, WithBatchSize(1), WithConcurrency(6), WithTracker(tracker))
	if _, err := s.Run(context.Background(), Request{Object: lo, DefaultLang: "zh", Offset: 4}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("Progress decreased: %v", seen)
		}
	}
	if tracker.Done() != 10 || seen[len(seen)-1] != 10 {
		t.Errorf("Expected progress to reach 10, got %d (%v)", tracker.Done(), seen)
	}
}

func TestScheduler_Cache(t *testing.T) {
	c := cache.NewInMemoryCache(time.Hour)
	c.Set(hankey.CacheKey("你好", "zh", "en"), "Hello")

	var calls atomic.Int32
	backend := hankey.TranslateFunc(func(ctx context.Context, req hankey.TranslateRequest) (map[string]string, error) {
		calls.Add(1)
		for _, text := range req.Texts {
			if text == "你好" {
				t.Errorf("Cached text sent to backend")
			}
		}
		return upper().Translate(ctx, req)
	})

	lo := sampleObject()
	delete(lo, "ja")

	res, err := New(backend, WithCache(c)).Run(context.Background(), Request{Object: lo, DefaultLang: "zh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.CacheHits != 1 {
		t.Errorf("Expected 1 cache hit, got %d", res.CacheHits)
	}
	if get(res.Object, "en", "K0") != "Hello" || get(res.Object, "en", "K2") != "Hello" {
		t.Error("Expected cached translation for both keys")
	}
	if v, ok := c.Get(hankey.CacheKey("世界", "zh", "en")); !ok || v != "en:世界" {
		t.Errorf("Expected fresh translation stored in cache, got %q", v)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 backend call, got %d", calls.Load())
	}
}

func TestScheduler_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	backend := hankey.TranslateFunc(func(ctx context.Context, req hankey.TranslateRequest) (map[string]string, error) {
		if req.TargetLang == "ja" {
			return nil, errors.New("down")
		}
		return upper().Translate(ctx, req)
	})

	if _, err := New(backend, WithMetrics(m)).Run(context.Background(), Request{Object: sampleObject(), DefaultLang: "zh"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if v := testutil.ToFloat64(m.Batches.WithLabelValues("en", "ok")); v != 1 {
		t.Errorf("Expected 1 ok batch, got %v", v)
	}
	if v := testutil.ToFloat64(m.Batches.WithLabelValues("ja", "failed")); v != 1 {
		t.Errorf("Expected 1 failed batch, got %v", v)
	}
	if v := testutil.ToFloat64(m.Texts); v != 2 {
		t.Errorf("Expected 2 translated texts, got %v", v)
	}
}

func TestScheduler_MissingDefaultLanguage(t *testing.T) {
	_, err := New(upper()).Run(context.Background(), Request{Object: sampleObject(), DefaultLang: "fr"})
	if !hankey.IsConfigError(err) {
		t.Errorf("Expected ConfigError, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	batches := Plan(sampleObject(), "zh", 1)

	if len(batches) != 4 {
		t.Fatalf("Expected 4 batches, got %d", len(batches))
	}
	first := batches[0]
	if first.Lang != "en" || first.Texts[0] != "你好" || strings.Join(first.Keys[0], ",") != "K0,K2" {
		t.Errorf("Unexpected first batch %+v", first)
	}
	for i, b := range batches {
		if b.Index != i {
			t.Errorf("Expected index %d, got %d", i, b.Index)
		}
	}
}

func TestPlan_SortedKeys(t *testing.T) {
	lo := hankey.LanguageObject{}
	lo.Lang("zh").Set("b.title", "标题")
	lo.Lang("zh").Set("a.ok", "确定")
	lo.Lang("zh").Set("c.ok", "确定")
	lo.Lang("en").Set("b.title", "")

	batches := Plan(lo, "zh", 10)
	if len(batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(batches))
	}
	b := batches[0]
	if strings.Join(b.Texts, ",") != "确定,标题" {
		t.Errorf("Expected texts in sorted key order, got %v", b.Texts)
	}
	if strings.Join(b.Keys[0], ",") != "a.ok,c.ok" {
		t.Errorf("Expected keys a.ok,c.ok for the first text, got %v", b.Keys[0])
	}
}

func TestTracker_Monotonic(t *testing.T) {
	var seen []int
	tr := NewTracker(5, ReporterFunc(func(done, total int) { seen = append(seen, done) }))

	for _, v := range []int{3, 1, 5, 4, 9} {
		tr.Observe(v)
	}

	if fmt.Sprint(seen) != "[3 5]" {
		t.Errorf("Expected reports [3 5], got %v", seen)
	}
	if tr.Done() != 5 || tr.Total() != 5 {
		t.Errorf("Unexpected tracker state %d/%d", tr.Done(), tr.Total())
	}
}

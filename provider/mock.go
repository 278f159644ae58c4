package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a deterministic backend for tests and dry runs.
type MockProvider struct {
	Translations map[string]string // Source text to translation
	Drop         map[string]bool   // Texts left out of the response payload
	Err          error             // Returned for every call when set

	mu          sync.Mutex
	callCount   int
	lastRequest *TranslateRequest
}

// NewMockProvider creates a mock provider with a few default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"你好":     "Hello",
			"世界":     "World",
			"你好世界":   "Hello World",
			"你好，{0}": "Hello, {0}",
		},
	}
}

// Translate returns known translations and bracketed text for the rest.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}

	out := make(map[string]string, len(req.Texts))
	for _, text := range req.Texts {
		if m.Drop[text] {
			continue
		}
		if translation, ok := m.Translations[text]; ok {
			out[text] = translation
		} else {
			out[text] = fmt.Sprintf("[%s:%s]", req.TargetLang, text)
		}
	}
	return out, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset clears the call statistics.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

var _ Backend = (*MockProvider)(nil)

package hankey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Messages is an insertion-ordered key/value map of one language.
type Messages struct {
	keys   []string
	values map[string]string
}

// NewMessages creates an empty Messages.
func NewMessages() *Messages {
	return &Messages{values: make(map[string]string)}
}

// MessagesFrom builds Messages from a plain map, ordering keys lexicographically.
func MessagesFrom(m map[string]string) *Messages {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := NewMessages()
	for _, k := range keys {
		out.Set(k, m[k])
	}
	return out
}

// Get returns the value for key.
func (m *Messages) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Messages) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores a value, appending the key if it is new.
func (m *Messages) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes a key. It reports whether the key existed.
func (m *Messages) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Messages) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Messages) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Map returns a plain copy of the entries.
func (m *Messages) Map() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// KeyOf returns the first key (in insertion order) whose value equals text.
func (m *Messages) KeyOf(text string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, k := range m.keys {
		if m.values[k] == text {
			return k, true
		}
	}
	return "", false
}

// Clone returns a deep copy.
func (m *Messages) Clone() *Messages {
	out := NewMessages()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m *Messages) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object of strings, keeping key order.
func (m *Messages) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	t, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected {, got %v", t)
	}

	m.keys = nil
	m.values = make(map[string]string)

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %T", kt)
		}

		vt, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := vt.(type) {
		case string:
			m.Set(key, v)
		case nil:
			m.Set(key, "")
		default:
			return fmt.Errorf("expected string value for key %q, got %T", key, vt)
		}
	}

	return nil
}

// LanguageObject maps a language code to its messages.
type LanguageObject map[string]*Messages

// Languages returns the language codes in lexicographic order.
func (lo LanguageObject) Languages() []string {
	langs := make([]string, 0, len(lo))
	for l := range lo {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Lang returns the messages of lang, creating them if absent.
func (lo LanguageObject) Lang(lang string) *Messages {
	m, ok := lo[lang]
	if !ok {
		m = NewMessages()
		lo[lang] = m
	}
	return m
}

// Outstanding returns, per non-default language, the keys whose value is empty.
func (lo LanguageObject) Outstanding(defaultLang string) map[string][]string {
	out := make(map[string][]string)
	for _, lang := range lo.Languages() {
		if lang == defaultLang {
			continue
		}
		var keys []string
		for _, k := range lo[lang].Keys() {
			if v, _ := lo[lang].Get(k); v == "" {
				keys = append(keys, k)
			}
		}
		if len(keys) > 0 {
			sort.Strings(keys)
			out[lang] = keys
		}
	}
	return out
}

// Clone returns a deep copy.
func (lo LanguageObject) Clone() LanguageObject {
	out := make(LanguageObject, len(lo))
	for l, m := range lo {
		out[l] = m.Clone()
	}
	return out
}

package langfile

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/ZaguanLabs/hankey"
)

type operation struct {
	Op    string  `json:"op"`
	Path  string  `json:"path"`
	Value *string `json:"value,omitempty"`
}

// Removal drops Keys from every language. When Canonical has an empty value
// in a language, the first non-empty value among Keys is carried over to it.
type Removal struct {
	Canonical string
	Keys      []string
}

// RemoveKeys applies removals to lo in place, one RFC 6902 patch per
// language. Key order of the surviving entries is kept. It returns the
// number of entries removed across all languages.
func RemoveKeys(lo hankey.LanguageObject, removals []Removal) (int, error) {
	removed := 0
	for _, lang := range lo.Languages() {
		m := lo[lang]
		ops, n := operations(m, removals)
		if len(ops) == 0 {
			continue
		}

		patched, err := applyPatch(m, ops)
		if err != nil {
			return removed, fmt.Errorf("patching %s: %w", lang, err)
		}
		lo[lang] = patched
		removed += n
	}
	return removed, nil
}

func operations(m *hankey.Messages, removals []Removal) ([]operation, int) {
	var ops []operation
	removed := 0
	for _, r := range removals {
		if cur, ok := m.Get(r.Canonical); r.Canonical != "" && cur == "" {
			for _, k := range r.Keys {
				if v, _ := m.Get(k); v != "" {
					value := v
					op := "replace"
					if !ok {
						op = "add"
					}
					ops = append(ops, operation{Op: op, Path: pointer(r.Canonical), Value: &value})
					break
				}
			}
		}
		for _, k := range r.Keys {
			if k == r.Canonical || !m.Has(k) {
				continue
			}
			ops = append(ops, operation{Op: "remove", Path: pointer(k)})
			removed++
		}
	}
	return ops, removed
}

// applyPatch runs ops against the JSON form of m and rebuilds the messages
// in the original key order.
func applyPatch(m *hankey.Messages, ops []operation) (*hankey.Messages, error) {
	doc, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		return nil, err
	}

	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, err
	}
	out, err := patch.Apply(doc)
	if err != nil {
		return nil, err
	}

	var values map[string]string
	if err := json.Unmarshal(out, &values); err != nil {
		return nil, err
	}

	result := hankey.NewMessages()
	for _, k := range m.Keys() {
		if v, ok := values[k]; ok {
			result.Set(k, v)
			delete(values, k)
		}
	}
	rest := hankey.MessagesFrom(values)
	for _, k := range rest.Keys() {
		v, _ := rest.Get(k)
		result.Set(k, v)
	}
	return result, nil
}

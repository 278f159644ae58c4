package schedule

import (
	"sort"

	"github.com/ZaguanLabs/hankey"
)

// Batch is one backend call: distinct texts for one target language. Keys
// is aligned with Texts by index; Keys[i] lists every key whose
// default-language value is Texts[i].
type Batch struct {
	Index int
	Lang  string
	Texts []string
	Keys  [][]string
}

// pending is the outstanding work of one language before chunking.
type pending struct {
	lang  string
	texts []string
	keys  [][]string
}

// collect gathers, per non-default language, the distinct default-language
// texts of keys whose value is empty or missing. Texts are ordered by their
// first key in sorted key order.
func collect(lo hankey.LanguageObject, defaultLang string) []pending {
	source := lo[defaultLang]
	keys := source.Keys()
	sort.Strings(keys)

	var out []pending
	for _, lang := range lo.Languages() {
		if lang == defaultLang {
			continue
		}
		target := lo[lang]

		p := pending{lang: lang}
		index := make(map[string]int)
		for _, key := range keys {
			text, _ := source.Get(key)
			if text == "" {
				continue
			}
			if v, _ := target.Get(key); v != "" {
				continue
			}
			i, ok := index[text]
			if !ok {
				i = len(p.texts)
				index[text] = i
				p.texts = append(p.texts, text)
				p.keys = append(p.keys, nil)
			}
			p.keys[i] = append(p.keys[i], key)
		}
		if len(p.texts) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// chunk splits pending work into batches of at most size texts, numbering
// them consecutively.
func chunk(work []pending, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}

	var batches []Batch
	for _, p := range work {
		for start := 0; start < len(p.texts); start += size {
			end := min(start+size, len(p.texts))
			batches = append(batches, Batch{
				Index: len(batches),
				Lang:  p.lang,
				Texts: p.texts[start:end],
				Keys:  p.keys[start:end],
			})
		}
	}
	return batches
}

// Plan returns the batches Run would send for lo, ignoring any cache. The
// CLI uses it to size a progress display spanning several files.
func Plan(lo hankey.LanguageObject, defaultLang string, batchSize int) []Batch {
	return chunk(collect(lo, defaultLang), batchSize)
}

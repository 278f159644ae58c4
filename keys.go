package hankey

import "strconv"

// Namespaces used for single-file components.
const (
	NamespaceTemplate = "tpl."
	NamespaceScript   = "script."
)

// Allocator hands out keys for literals during one transform call. Keys are
// prefix+(offset+index) in allocation order; identical text reuses its key.
type Allocator struct {
	prefix   string
	next     int
	existing *Messages
	byText   map[string]int
	literals []Literal
}

// NewAllocator creates an allocator. existing may be nil.
func NewAllocator(prefix string, offset int, existing *Messages) *Allocator {
	return &Allocator{
		prefix:   prefix,
		next:     offset,
		existing: existing,
		byText:   make(map[string]int),
	}
}

// Allocate returns the key for lit, allocating a new one for unseen text.
func (a *Allocator) Allocate(lit Literal) string {
	if i, ok := a.byText[lit.Text]; ok {
		return a.literals[i].Key
	}

	key, ok := a.existing.KeyOf(lit.Text)
	if !ok {
		key = a.prefix + strconv.Itoa(a.next)
		a.next++
	}

	lit.Key = key
	a.byText[lit.Text] = len(a.literals)
	a.literals = append(a.literals, lit)
	return key
}

// Literals returns the allocated literals in allocation order.
func (a *Allocator) Literals() []Literal {
	out := make([]Literal, len(a.literals))
	copy(out, a.literals)
	return out
}

// Len returns the number of allocated literals.
func (a *Allocator) Len() int {
	return len(a.literals)
}

// Next returns the index the next new key would receive.
func (a *Allocator) Next() int {
	return a.next
}

// AllocateAll keys an ordered found-list in one go.
func AllocateAll(found []Literal, prefix string, offset int, existing *Messages) []Literal {
	a := NewAllocator(prefix, offset, existing)
	for _, lit := range found {
		a.Allocate(lit)
	}
	return a.Literals()
}

// BuildLanguageObject turns keyed literals into a LanguageObject. The default
// language holds the literal text; every other language holds empty placeholders.
func BuildLanguageObject(lits []Literal, defaultLang string, langs []string) LanguageObject {
	lo := make(LanguageObject)
	lo.Lang(defaultLang)
	for _, l := range langs {
		lo.Lang(l)
	}

	for _, lit := range lits {
		for lang, m := range lo {
			if lang == defaultLang {
				m.Set(lit.Key, lit.Text)
			} else {
				m.Set(lit.Key, "")
			}
		}
	}
	return lo
}

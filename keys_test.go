package hankey

import "testing"

func TestAllocator_SequentialUniqueKeys(t *testing.T) {
	a := NewAllocator("I18N_", 0, nil)

	k0 := a.Allocate(Literal{Text: "你好"})
	k1 := a.Allocate(Literal{Text: "世界"})
	k2 := a.Allocate(Literal{Text: "你好"})

	if k0 != "I18N_0" || k1 != "I18N_1" {
		t.Errorf("Expected I18N_0 and I18N_1, got %s and %s", k0, k1)
	}
	if k2 != k0 {
		t.Errorf("Expected repeated text to reuse %s, got %s", k0, k2)
	}
	if len(a.Literals()) != 2 {
		t.Errorf("Expected 2 literals, got %d", len(a.Literals()))
	}
	if a.Next() != 2 {
		t.Errorf("Expected next index 2, got %d", a.Next())
	}
}

func TestAllocator_OffsetAndExisting(t *testing.T) {
	existing := NewMessages()
	existing.Set("I18N_9", "世界")
	existing.Set("I18N_3", "世界")

	lits := AllocateAll([]Literal{{Text: "你好"}, {Text: "世界"}, {Text: "再见"}}, "I18N_", 10, existing)

	expected := []string{"I18N_10", "I18N_9", "I18N_11"}
	for i, lit := range lits {
		if lit.Key != expected[i] {
			t.Errorf("Literal %d: expected %s, got %s", i, expected[i], lit.Key)
		}
	}
}

func TestAllocator_LiteralsIsCopy(t *testing.T) {
	a := NewAllocator("K", 0, nil)
	a.Allocate(Literal{Text: "你好"})

	lits := a.Literals()
	lits[0].Key = "changed"

	if a.Literals()[0].Key != "K0" {
		t.Error("Expected Literals to return a copy")
	}
}

func TestBuildLanguageObject(t *testing.T) {
	lits := []Literal{{Text: "你好", Key: "I18N_0"}, {Text: "世界", Key: "I18N_1"}}
	lo := BuildLanguageObject(lits, "zh", []string{"zh", "en", "ja"})

	if got := lo.Languages(); len(got) != 3 {
		t.Fatalf("Expected 3 languages, got %v", got)
	}
	if v, _ := lo["zh"].Get("I18N_1"); v != "世界" {
		t.Errorf("Expected default text 世界, got %q", v)
	}
	for _, lang := range []string{"en", "ja"} {
		keys := lo[lang].Keys()
		if len(keys) != 2 || keys[0] != "I18N_0" || keys[1] != "I18N_1" {
			t.Errorf("Expected %s to hold both keys in order, got %v", lang, keys)
		}
		if v, _ := lo[lang].Get("I18N_0"); v != "" {
			t.Errorf("Expected empty placeholder for %s, got %q", lang, v)
		}
	}
}

func TestBuildLanguageObject_DefaultNotListed(t *testing.T) {
	lo := BuildLanguageObject([]Literal{{Text: "你好", Key: "K0"}}, "zh", []string{"en"})
	if _, ok := lo["zh"]; !ok {
		t.Error("Expected default language to be present")
	}
}

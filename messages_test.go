package hankey

import (
	"encoding/json"
	"testing"
)

func TestMessages_Order(t *testing.T) {
	m := NewMessages()
	m.Set("b", "2")
	m.Set("a", "1")
	m.Set("b", "3")

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Expected insertion order [b a], got %v", keys)
	}
	if v, _ := m.Get("b"); v != "3" {
		t.Errorf("Expected updated value 3, got %q", v)
	}

	if !m.Delete("b") {
		t.Error("Expected Delete to report existing key")
	}
	if m.Delete("b") {
		t.Error("Expected second Delete to report missing key")
	}
	if m.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", m.Len())
	}
}

func TestMessages_JSONKeepsOrder(t *testing.T) {
	input := `{"z":"最后","a":"开始","m":null}`

	var m Messages
	if err := json.Unmarshal([]byte(input), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	out, err := json.Marshal(&m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{"z":"最后","a":"开始","m":""}`
	if string(out) != expected {
		t.Errorf("Expected %s, got %s", expected, out)
	}
}

func TestMessages_UnmarshalRejectsNested(t *testing.T) {
	var m Messages
	if err := json.Unmarshal([]byte(`{"a":{"b":"c"}}`), &m); err == nil {
		t.Error("Expected error for nested object")
	}
}

func TestMessages_KeyOf(t *testing.T) {
	m := NewMessages()
	m.Set("K2", "你好")
	m.Set("K1", "你好")

	key, ok := m.KeyOf("你好")
	if !ok || key != "K2" {
		t.Errorf("Expected first inserted key K2, got %q (%v)", key, ok)
	}

	var nilMessages *Messages
	if _, ok := nilMessages.KeyOf("你好"); ok {
		t.Error("Expected nil messages to find nothing")
	}
}

func TestMessagesFrom_SortsKeys(t *testing.T) {
	m := MessagesFrom(map[string]string{"b": "2", "a": "1", "c": "3"})
	keys := m.Keys()
	if keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Expected sorted keys, got %v", keys)
	}
}

func TestLanguageObject_Outstanding(t *testing.T) {
	lo := LanguageObject{}
	lo.Lang("zh").Set("K0", "你好")
	lo.Lang("zh").Set("K1", "世界")
	lo.Lang("en").Set("K1", "")
	lo.Lang("en").Set("K0", "Hello")
	lo.Lang("ja").Set("K0", "")
	lo.Lang("ja").Set("K1", "")

	out := lo.Outstanding("zh")
	if _, ok := out["zh"]; ok {
		t.Error("Expected default language to be excluded")
	}
	if len(out["en"]) != 1 || out["en"][0] != "K1" {
		t.Errorf("Expected en [K1], got %v", out["en"])
	}
	if len(out["ja"]) != 2 {
		t.Errorf("Expected ja to have 2 outstanding keys, got %v", out["ja"])
	}
}

func TestLanguageObject_Clone(t *testing.T) {
	lo := LanguageObject{}
	lo.Lang("en").Set("K0", "Hello")

	clone := lo.Clone()
	clone.Lang("en").Set("K0", "changed")

	if v, _ := lo["en"].Get("K0"); v != "Hello" {
		t.Errorf("Expected original untouched, got %q", v)
	}
}

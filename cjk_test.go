package hankey

import "testing"

func TestContainsTarget(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"你好", true},
		{"hello 世界", true},
		{"hello", false},
		{"，。！", false},
		{"こんにちは", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ContainsTarget(tt.input); got != tt.expected {
			t.Errorf("ContainsTarget(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestIsCJKPunct(t *testing.T) {
	for _, r := range "，。！？：；「」…" {
		if !IsCJKPunct(r) {
			t.Errorf("Expected %q to be CJK punctuation", r)
		}
	}
	for _, r := range ",.!a" {
		if IsCJKPunct(r) {
			t.Errorf("Expected %q not to be CJK punctuation", r)
		}
	}
}

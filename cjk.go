package hankey

import "unicode"

// IsIdeograph reports whether r is a CJK ideograph.
func IsIdeograph(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// IsCJKPunct reports whether r is CJK or fullwidth punctuation that keeps a
// run of ideographs contiguous.
func IsCJKPunct(r rune) bool {
	switch {
	case r >= 0x3000 && r <= 0x303F: // CJK symbols and punctuation
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // halfwidth and fullwidth forms
		return true
	case r == '“' || r == '”' || r == '‘' || r == '’' || r == '…' || r == '—' || r == '·':
		return true
	}
	return false
}

// ContainsTarget reports whether s contains at least one CJK ideograph.
func ContainsTarget(s string) bool {
	for _, r := range s {
		if IsIdeograph(r) {
			return true
		}
	}
	return false
}

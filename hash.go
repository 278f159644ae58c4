package hankey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// HashText fingerprints a source literal. Surrounding whitespace is ignored
// and the text is NFC-normalized, so the same literal typed through different
// input methods shares one cache entry.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(norm.NFC.String(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:])
}

// CacheKey identifies the translation of text from sourceLang to targetLang.
// The layout is "<sha256>:<source>:<target>".
func CacheKey(text, sourceLang, targetLang string) string {
	return HashText(text) + ":" + sourceLang + ":" + targetLang
}

// SplitCacheKey reverses CacheKey. ok is false for keys of any other shape.
func SplitCacheKey(key string) (hash, sourceLang, targetLang string, ok bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || len(parts[0]) != sha256.Size*2 || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

package hankey

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// rtlBases contains base languages written right to left.
var rtlBases = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}

// ParseLanguage parses a language code written either as BCP 47 ("zh-CN")
// or in the underscore locale form ("zh_CN").
func ParseLanguage(code string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// LanguageName returns the English name of a language code for backend
// prompts. Codes that do not parse come back unchanged.
func LanguageName(code string) string {
	tag, err := ParseLanguage(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(code string) bool {
	tag, err := ParseLanguage(code)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	return rtlBases[base.String()]
}

package hankey

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TemplateKey is the flattened form of an interpolated template.
type TemplateKey struct {
	Text  string   // Literal chunks joined by positional placeholders {0}, {1}, ...
	Exprs []string // Source snippets of the interpolations, in order
}

// FlattenTemplate parses the raw body of a template literal (without the
// enclosing backticks) and replaces each top-level ${...} interpolation by a
// positional placeholder.
func FlattenTemplate(raw string) (TemplateKey, error) {
	var (
		key   TemplateKey
		chunk strings.Builder
		out   strings.Builder
	)

	flush := func() {
		out.WriteString(collapseTrailingSpace(chunk.String()))
		chunk.Reset()
	}

	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			n := escapeLen(raw, i)
			chunk.WriteString(Unescape(raw[i : i+n]))
			i += n
		case c == '$' && i+1 < len(raw) && raw[i+1] == '{':
			end, err := skipInterpolation(raw, i+2)
			if err != nil {
				return TemplateKey{}, err
			}
			flush()
			out.WriteString("{" + strconv.Itoa(len(key.Exprs)) + "}")
			key.Exprs = append(key.Exprs, strings.TrimSpace(raw[i+2:end]))
			i = end + 1
		default:
			chunk.WriteByte(c)
			i++
		}
	}
	flush()

	key.Text = out.String()
	return key, nil
}

// Substitute rebuilds a template literal from flattened text and expressions.
func Substitute(text string, exprs []string) string {
	var b strings.Builder
	b.WriteByte('`')
	for i := 0; i < len(text); {
		if text[i] == '{' {
			if j := strings.IndexByte(text[i:], '}'); j > 1 {
				if n, err := strconv.Atoi(text[i+1 : i+j]); err == nil && n >= 0 && n < len(exprs) {
					b.WriteString("${" + exprs[n] + "}")
					i += j + 1
					continue
				}
			}
		}
		switch text[i] {
		case '`', '\\':
			b.WriteByte('\\')
			b.WriteByte(text[i])
		case '$':
			if i+1 < len(text) && text[i+1] == '{' {
				b.WriteByte('\\')
			}
			b.WriteByte('$')
		default:
			b.WriteByte(text[i])
		}
		i++
	}
	b.WriteByte('`')
	return b.String()
}

// CallExpr renders callee('key') or callee('key', [e0, e1]).
func CallExpr(callee, key string, exprs []string) string {
	quoted := "'" + strings.ReplaceAll(key, "'", `\'`) + "'"
	if len(exprs) == 0 {
		return callee + "(" + quoted + ")"
	}
	return callee + "(" + quoted + ", [" + strings.Join(exprs, ", ") + "])"
}

// skipInterpolation returns the index of the '}' closing an interpolation
// whose body starts at i. Nested braces, strings, templates and comments are
// honoured.
func skipInterpolation(s string, i int) (int, error) {
	depth := 0
	for i < len(s) {
		switch c := s[i]; c {
		case '{':
			depth++
			i++
		case '}':
			if depth == 0 {
				return i, nil
			}
			depth--
			i++
		case '\'', '"':
			end, err := skipQuoted(s, i)
			if err != nil {
				return 0, err
			}
			i = end
		case '`':
			end, err := skipTemplate(s, i)
			if err != nil {
				return 0, err
			}
			i = end
		case '/':
			switch {
			case i+1 < len(s) && s[i+1] == '/':
				nl := strings.IndexByte(s[i:], '\n')
				if nl < 0 {
					return 0, fmt.Errorf("unterminated interpolation")
				}
				i += nl + 1
			case i+1 < len(s) && s[i+1] == '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return 0, fmt.Errorf("unterminated comment in interpolation")
				}
				i += end + 4
			default:
				i++
			}
		default:
			i++
		}
	}
	return 0, fmt.Errorf("unterminated interpolation")
}

// skipQuoted returns the index just past the quoted string starting at i.
func skipQuoted(s string, i int) (int, error) {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1, nil
		case '\n':
			return 0, fmt.Errorf("unterminated string literal")
		}
	}
	return 0, fmt.Errorf("unterminated string literal")
}

// skipTemplate returns the index just past the template literal starting at i.
func skipTemplate(s string, i int) (int, error) {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '`':
			return j + 1, nil
		case '$':
			if j+1 < len(s) && s[j+1] == '{' {
				end, err := skipInterpolation(s, j+2)
				if err != nil {
					return 0, err
				}
				j = end
			}
		}
	}
	return 0, fmt.Errorf("unterminated template literal")
}

// collapseTrailingSpace trims a trailing whitespace run that follows a CJK
// character down to its first character.
func collapseTrailingSpace(chunk string) string {
	trimmed := strings.TrimRight(chunk, " \t\r\n")
	if len(chunk)-len(trimmed) < 2 || trimmed == "" {
		return chunk
	}
	r, _ := utf8.DecodeLastRuneInString(trimmed)
	if !IsIdeograph(r) && !IsCJKPunct(r) {
		return chunk
	}
	return chunk[:len(trimmed)+1]
}

// escapeLen returns the byte length of the escape sequence starting at s[i] == '\\'.
func escapeLen(s string, i int) int {
	if i+1 >= len(s) {
		return 1
	}
	switch s[i+1] {
	case 'x':
		return min(4, len(s)-i)
	case 'u':
		if i+2 < len(s) && s[i+2] == '{' {
			if end := strings.IndexByte(s[i:], '}'); end > 0 {
				return end + 1
			}
		}
		return min(6, len(s)-i)
	case '\r':
		if i+2 < len(s) && s[i+2] == '\n' {
			return 3
		}
	}
	_, size := utf8.DecodeRuneInString(s[i+1:])
	return 1 + size
}

// Unescape decodes ECMAScript escape sequences in a string or template body.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			i++
			continue
		}

		n := escapeLen(s, i)
		seq := s[i+1 : i+n]
		i += n

		switch seq[0] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n', '\r':
			// line continuation
		case 'x', 'u':
			hex := strings.Trim(seq[1:], "{}")
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				b.WriteRune(rune(v))
			} else {
				b.WriteString(`\` + seq)
			}
		default:
			b.WriteString(seq)
		}
	}
	return b.String()
}

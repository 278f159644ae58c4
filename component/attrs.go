package component

import "strings"

// attr is an attribute of a raw opening tag. Offsets are relative to the tag.
type attr struct {
	Name     string
	Start    int
	End      int
	ValStart int // -1 for attributes without a value
	ValEnd   int
	Quote    byte // 0 for unquoted values
}

// scanAttrs lists the attributes of a raw opening tag such as
// `<a :title="x" href='y' disabled>`, keeping the original name case.
func scanAttrs(tag string) []attr {
	i := 1
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}

	var out []attr
	for i < len(tag) {
		for i < len(tag) && (isSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}

		a := attr{Start: i, ValStart: -1}
		for i < len(tag) && !isSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && !(tag[i] == '/' && i+1 < len(tag) && tag[i+1] == '>') {
			i++
		}
		if i == a.Start {
			i++
			continue
		}
		a.Name = tag[a.Start:i]

		j := i
		for j < len(tag) && isSpace(tag[j]) {
			j++
		}
		if j < len(tag) && tag[j] == '=' {
			j++
			for j < len(tag) && isSpace(tag[j]) {
				j++
			}
			switch {
			case j < len(tag) && (tag[j] == '"' || tag[j] == '\''):
				end := strings.IndexByte(tag[j+1:], tag[j])
				if end < 0 {
					return out
				}
				a.Quote = tag[j]
				a.ValStart = j + 1
				a.ValEnd = j + 1 + end
				i = a.ValEnd + 1
			default:
				a.ValStart = j
				for j < len(tag) && !isSpace(tag[j]) && tag[j] != '>' {
					j++
				}
				a.ValEnd = j
				i = j
			}
		}
		a.End = i
		out = append(out, a)
	}
	return out
}

func hasAnyAttr(attrs []attr, names []string) bool {
	for _, a := range attrs {
		for _, n := range names {
			if strings.EqualFold(a.Name, n) {
				return true
			}
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

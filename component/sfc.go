// Package component rewrites single-file UI components: a declarative
// template section paired with one or more script sections.
package component

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/ZaguanLabs/hankey/script"
)

// Section is one top-level block of a component file.
type Section struct {
	Name    string            // Block name: template, script, style or a custom block
	Attrs   map[string]string // Attributes of the opening tag (lowercased names)
	Offset  int               // Offset of Content in the file
	Content string            // Text between the opening and closing tags
}

// Lang returns the lang attribute, or "" when absent.
func (s Section) Lang() string {
	return strings.ToLower(s.Attrs["lang"])
}

// File is a component split into its sections.
type File struct {
	Template *Section
	Scripts  []Section
	Others   []Section
}

// Split separates a component file into its top-level sections.
func Split(src string) (*File, error) {
	f := &File{}

	for pos := 0; pos < len(src); {
		z := html.NewTokenizer(strings.NewReader(src[pos:]))
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, &script.SyntaxError{Offset: pos, Msg: z.Err().Error()}
		}
		raw := len(z.Raw())

		if tt != html.StartTagToken {
			// text, comments and stray tags between blocks
			pos += raw
			continue
		}

		tok := z.Token()
		sec := Section{Name: tok.Data, Attrs: make(map[string]string), Offset: pos + raw}
		for _, a := range tok.Attr {
			sec.Attrs[a.Key] = a.Val
		}

		var end, next int
		var err error
		if sec.Name == "template" {
			end, next, err = closeNested(z, sec.Offset, "template")
		} else {
			end, next, err = closeRaw(src, sec.Offset, sec.Name)
		}
		if err != nil {
			return nil, err
		}
		sec.Content = src[sec.Offset:end]

		switch {
		case sec.Name == "template" && f.Template == nil:
			s := sec
			f.Template = &s
		case sec.Name == "script":
			f.Scripts = append(f.Scripts, sec)
		default:
			f.Others = append(f.Others, sec)
		}
		pos = next
	}
	return f, nil
}

// closeNested walks the tokens after an opening tag until the matching
// closing tag, counting nested tags of the same name. It returns the offset
// of the closing tag and the offset just past it.
func closeNested(z *html.Tokenizer, offset int, name string) (int, int, error) {
	depth := 0
	pos := offset
	for {
		tt := z.Next()
		raw := len(z.Raw())
		switch tt {
		case html.ErrorToken:
			return 0, 0, &script.SyntaxError{Offset: offset, Msg: "unclosed <" + name + ">"}
		case html.StartTagToken:
			if tagName(z) == name {
				depth++
			}
		case html.EndTagToken:
			if tagName(z) == name {
				if depth == 0 {
					return pos, pos + raw, nil
				}
				depth--
			}
		}
		pos += raw
	}
}

// closeRaw finds the closing tag of a block whose content is not markup.
func closeRaw(src string, offset int, name string) (int, int, error) {
	idx := indexCloseTag(src[offset:], name)
	if idx < 0 {
		return 0, 0, &script.SyntaxError{Offset: offset, Msg: "unclosed <" + name + ">"}
	}
	end := offset + idx
	gt := strings.IndexByte(src[end:], '>')
	if gt < 0 {
		return 0, 0, &script.SyntaxError{Offset: end, Msg: "malformed </" + name + ">"}
	}
	return end, end + gt + 1, nil
}

func tagName(z *html.Tokenizer) string {
	name, _ := z.TagName()
	return string(name)
}

// indexCloseTag returns the index of "</name" in s, matching name without
// regard to ASCII case.
func indexCloseTag(s, name string) int {
	for i := 0; i+2+len(name) <= len(s); i++ {
		if s[i] == '<' && s[i+1] == '/' && strings.EqualFold(s[i+2:i+2+len(name)], name) {
			return i
		}
	}
	return -1
}

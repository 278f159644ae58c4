package lexer

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     Options
		expected []string
	}{
		{
			name:     "strings",
			input:    "const a = '你好';\nconst b = \"世界\";",
			expected: []string{"你好", "世界"},
		},
		{
			name:     "comments skipped",
			input:    "// 注释\nconst a = 1; /* 块注释 */\n<!-- 标记注释 -->",
			expected: nil,
		},
		{
			name:     "template body",
			input:    "const s = `你好${name}`;",
			expected: []string{"你好${name}"},
		},
		{
			name:     "markup text",
			input:    "<div>你好</div>",
			expected: []string{"你好"},
		},
		{
			name:     "duplicates",
			input:    "f('你好'); g('你好');",
			expected: []string{"你好"},
		},
		{
			name:     "metadata block",
			input:    "<i18n>{\"a\": \"你好\"}</i18n>\n<p>世界</p>",
			expected: []string{"世界"},
		},
		{
			name:     "regex",
			input:    "/你好/.test(x); f('世界')",
			expected: []string{"世界"},
		},
		{
			name:     "exclude",
			input:    "f('@你好'); f('世界')",
			opts:     Options{Exclude: []string{"@"}},
			expected: []string{"世界"},
		},
		{
			name:     "quote inside interpolation",
			input:    "const s = `你${a ? '}' : b}好`;",
			expected: []string{"你${a ? '}' : b}好"},
		},
		{
			name:     "even backslashes before quote",
			input:    `f('你好\\', 'x')`,
			expected: []string{`你好\\`},
		},
		{
			name:     "attribute strings",
			input:    `<a title="标题" :x="a > b">正文</a>`,
			expected: []string{"标题", "正文"},
		},
		{
			name:     "template inside tag",
			input:    "<a :t={`标题`}>正文</a>",
			expected: []string{"标题", "正文"},
		},
		{
			name:     "division is not a regex",
			input:    "x = a / 2; f('你好')",
			expected: []string{"你好"},
		},
		{
			name:     "regex after assignment",
			input:    "const r = /你好/; f('世界')",
			expected: []string{"世界"},
		},
		{
			name:     "comparison is not a tag",
			input:    "if (a<b) { t = 1 }\n你好",
			expected: []string{"你好"},
		},
		{
			name:     "loop bound is not a tag",
			input:    "for (i = 0; i<n; i++) f('你好')",
			expected: []string{"你好"},
		},
		{
			name:     "markup after return",
			input:    "return <p>你好</p>",
			expected: []string{"你好"},
		},
		{
			name:     "unterminated string at EOF",
			input:    "const a = '你好",
			expected: []string{"你好"},
		},
		{
			name:     "no target text",
			input:    "const a = 'hello';",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input, tt.opts)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

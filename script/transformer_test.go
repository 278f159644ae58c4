package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ZaguanLabs/hankey"
)

func baseOptions() hankey.Options {
	return hankey.Options{
		DefaultLang: "zh",
		Languages:   []string{"zh", "en"},
		KeyPrefix:   "I18N_",
	}
}

func transform(t *testing.T, path, src string, opts hankey.Options) *hankey.Result {
	t.Helper()
	unit := hankey.DetectKind(path, src)
	res, err := NewTransformer().Transform(unit, opts)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	return res
}

func TestTransformer_PlainString(t *testing.T) {
	res := transform(t, "a.js", "const a = '你好世界';", baseOptions())

	expected := "const a = i18n.t('I18N_0');"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
	if res.Count() != 1 {
		t.Fatalf("Expected 1 literal, got %d", res.Count())
	}
	if res.Literals[0].Text != "你好世界" || res.Literals[0].Key != "I18N_0" {
		t.Errorf("Unexpected literal: %+v", res.Literals[0])
	}
}

func TestTransformer_Template(t *testing.T) {
	res := transform(t, "a.js", "const s = `你好，${name}`;", baseOptions())

	expected := "const s = i18n.t('I18N_0', [name]);"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
	lit := res.Literals[0]
	if lit.Text != "你好，{0}" {
		t.Errorf("Expected flattened text '你好，{0}', got %q", lit.Text)
	}
	if len(lit.Exprs) != 1 || lit.Exprs[0] != "name" {
		t.Errorf("Expected exprs [name], got %v", lit.Exprs)
	}
	if lit.Form != hankey.FormTemplate {
		t.Errorf("Expected template form, got %s", lit.Form)
	}
}

func TestTransformer_TemplateWithoutExpressions(t *testing.T) {
	res := transform(t, "a.js", "const s = `共计`;", baseOptions())

	expected := "const s = i18n.t('I18N_0');"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
}

func TestTransformer_IgnoreMarker(t *testing.T) {
	src := "// i18n-ignore\nconst a = '忽略';\nconst b = '翻译';\n"
	res := transform(t, "a.js", src, baseOptions())

	expected := "// i18n-ignore\nconst a = '忽略';\nconst b = i18n.t('I18N_0');\n"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
	if res.Count() != 1 || res.Literals[0].Text != "翻译" {
		t.Errorf("Expected only '翻译', got %+v", res.Literals)
	}
}

func TestTransformer_SameTextSharesKey(t *testing.T) {
	res := transform(t, "a.js", "a('你好'); b('你好'); c('再见');", baseOptions())

	expected := "a(i18n.t('I18N_0')); b(i18n.t('I18N_0')); c(i18n.t('I18N_1'));"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
	if res.Count() != 2 {
		t.Errorf("Expected 2 literals, got %d", res.Count())
	}
}

func TestTransformer_Skips(t *testing.T) {
	src := "console.log('调试');\nconst o = { '键': '值' };\ni18n.t('已翻译');\n"
	res := transform(t, "a.js", src, baseOptions())

	expected := "console.log('调试');\nconst o = { '键': i18n.t('I18N_0') };\ni18n.t('已翻译');\n"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
	if res.Count() != 1 || res.Literals[0].Text != "值" {
		t.Errorf("Expected only '值', got %+v", res.Literals)
	}
}

func TestTransformer_DenyCallees(t *testing.T) {
	opts := baseOptions()
	opts.DenyCallees = []string{"alert"}

	src := "alert('警告');"
	res := transform(t, "a.js", src, opts)
	if res.Content != src {
		t.Errorf("Expected unchanged content, got %q", res.Content)
	}
	if res.Count() != 0 {
		t.Errorf("Expected 0 literals, got %d", res.Count())
	}
}

func TestTransformer_Decorators(t *testing.T) {
	src := "@Component({ name: '组件' })\nclass A {\n  title = '标题';\n}\n"
	res := transform(t, "a.ts", src, baseOptions())

	expected := "@Component({ name: '组件' })\nclass A {\n  title = i18n.t('I18N_0');\n}\n"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
}

func TestTransformer_TaggedTemplate(t *testing.T) {
	src := "const c = css`中文`;"
	res := transform(t, "a.js", src, baseOptions())
	if res.Content != src {
		t.Errorf("Expected tagged template untouched, got %q", res.Content)
	}
}

func TestTransformer_RegexWithQuote(t *testing.T) {
	res := transform(t, "a.js", "const r = /'/; const s = '中';", baseOptions())

	expected := "const r = /'/; const s = i18n.t('I18N_0');"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
}

func TestTransformer_NestedInInterpolation(t *testing.T) {
	res := transform(t, "a.js", "const s = `${ok ? '成功' : 'fail'}`;", baseOptions())

	expected := "const s = `${ok ? i18n.t('I18N_0') : 'fail'}`;"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
}

func TestTransformer_JSX(t *testing.T) {
	src := "const App = () => (\n" +
		"  <div title=\"标题\">\n" +
		"    你好\n" +
		"    <Button label={'按钮'} />\n" +
		"  </div>\n" +
		");\n"
	res := transform(t, "App.jsx", src, baseOptions())

	expected := "const App = () => (\n" +
		"  <div title={t('I18N_0')}>\n" +
		"    {t('I18N_1')}\n" +
		"    <Button label={t('I18N_2')} />\n" +
		"  </div>\n" +
		");\n"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
	if res.Count() != 3 {
		t.Fatalf("Expected 3 literals, got %d", res.Count())
	}
	if res.Literals[1].Form != hankey.FormTagText {
		t.Errorf("Expected tag text form, got %s", res.Literals[1].Form)
	}
}

func TestTransformer_KeyOffsetAndExisting(t *testing.T) {
	opts := baseOptions()
	opts.KeyOffset = 5
	opts.Existing = hankey.MessagesFrom(map[string]string{"OLD_1": "你好"})

	res := transform(t, "a.js", "a('你好'); b('新的');", opts)

	expected := "a(i18n.t('OLD_1')); b(i18n.t('I18N_5'));"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
}

func TestTransformer_Idempotent(t *testing.T) {
	opts := baseOptions()
	first := transform(t, "a.js", "const a = '你好';\nconst s = `共${n}条`;\n", opts)
	if first.Count() != 2 {
		t.Fatalf("Expected 2 literals on first pass, got %d", first.Count())
	}

	opts.DenyCallees = opts.CallNames()
	second := transform(t, "a.js", first.Content, opts)
	if second.Count() != 0 {
		t.Errorf("Expected 0 literals on second pass, got %d", second.Count())
	}
	if second.Content != first.Content {
		t.Errorf("Expected second pass to be a no-op, got %q", second.Content)
	}
}

func TestTransformer_ParseFailure(t *testing.T) {
	unit := hankey.DetectKind("a.js", "const a = '未闭合;\n")
	_, err := NewTransformer().Transform(unit, baseOptions())

	var pe *hankey.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if pe.Offset != 10 {
		t.Errorf("Expected offset 10, got %d", pe.Offset)
	}
}

func TestTransformer_ImportInjection(t *testing.T) {
	opts := baseOptions()
	opts.ImportStatement = "import i18n from '@/i18n';"

	src := "import React from 'react';\nimport { a } from './a';\n\nconst x = '你好';\n"
	res := transform(t, "a.js", src, opts)

	expected := "import React from 'react';\nimport { a } from './a';\nimport i18n from '@/i18n';\n\nconst x = i18n.t('I18N_0');\n"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}

	// Already present: not injected twice.
	again := transform(t, "a.js", expected+"const y = '再见';\n", opts)
	if n := strings.Count(again.Content, opts.ImportStatement); n != 1 {
		t.Errorf("Expected import once, found %d times", n)
	}
}

func TestTransformer_ImportInjectionShebang(t *testing.T) {
	opts := baseOptions()
	opts.ImportStatement = "import i18n from '@/i18n';"

	res := transform(t, "cli.js", "#!/usr/bin/env node\nconst x = '你好';\n", opts)

	expected := "#!/usr/bin/env node\nimport i18n from '@/i18n';\nconst x = i18n.t('I18N_0');\n"
	if res.Content != expected {
		t.Errorf("Expected %q, got %q", expected, res.Content)
	}
}

func TestTransformer_NoRewriteNoImport(t *testing.T) {
	opts := baseOptions()
	opts.ImportStatement = "import i18n from '@/i18n';"

	src := "const x = 'hello';\n"
	res := transform(t, "a.js", src, opts)
	if res.Content != src {
		t.Errorf("Expected unchanged content, got %q", res.Content)
	}
}

func TestEngine_Scenario(t *testing.T) {
	engine := hankey.NewEngine(hankey.WithTransformer(NewTransformer()))

	res, err := engine.Transform(context.Background(), "a.js", "const a = '你好世界';", baseOptions())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if res.Content != "const a = i18n.t('I18N_0');" {
		t.Errorf("Unexpected content %q", res.Content)
	}
	if v, _ := res.Object["zh"].Get("I18N_0"); v != "你好世界" {
		t.Errorf("Expected zh value '你好世界', got %q", v)
	}
	if v, ok := res.Object["en"].Get("I18N_0"); !ok || v != "" {
		t.Errorf("Expected empty en placeholder, got %q (present=%v)", v, ok)
	}
	if res.Kind != hankey.KindScript {
		t.Errorf("Expected kind script, got %s", res.Kind)
	}
}

func TestEngine_ParseFailureIsNoop(t *testing.T) {
	engine := hankey.NewEngine(hankey.WithTransformer(NewTransformer()))

	src := "const b = \"好\";\nconst a = '未闭合;\n"
	res, err := engine.Transform(context.Background(), "a.js", src, baseOptions())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Content != src {
		t.Errorf("Expected unchanged content, got %q", res.Content)
	}
	if res.Count() != 0 {
		t.Errorf("Expected 0 literals, got %d", res.Count())
	}
	if len(res.Unhandled) != 1 || res.Unhandled[0] != "好" {
		t.Errorf("Expected unhandled inventory [好], got %v", res.Unhandled)
	}
}

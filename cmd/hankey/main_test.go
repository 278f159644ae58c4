package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZaguanLabs/hankey"
)

// execute runs the CLI with args against root and returns stdout, stderr.
func execute(t *testing.T, root string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--root", root, "--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func readMessages(t *testing.T, path string) map[string]string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal([]byte(readFile(t, path)), &m); err != nil {
		t.Fatalf("Invalid JSON in %s: %v", path, err)
	}
	return m
}

// project creates a tree with the default config and one source file.
func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.js"), "const a = '你好';\nconst b = \"世界\";\n")
	writeFile(t, filepath.Join(root, "src", "b.js"), "export const x = 1;\n")
	return root
}

func TestRun_Version(t *testing.T) {
	stdout, _, err := execute(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "hankey") {
		t.Errorf("Expected version output, got: %s", stdout)
	}
}

func TestRun_Init(t *testing.T) {
	root := t.TempDir()
	if _, _, err := execute(t, root, "init", "--languages", "zh,en,ja"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(readFile(t, filepath.Join(root, ".hankey.yaml")), "ja") {
		t.Error("Expected ja in the written config")
	}

	if _, _, err := execute(t, root, "init"); err == nil {
		t.Error("Expected error when config exists")
	}
	if _, _, err := execute(t, root, "init", "--force"); err != nil {
		t.Errorf("Expected --force to overwrite, got %v", err)
	}
}

func TestRun_Scan(t *testing.T) {
	root := project(t)
	stdout, _, err := execute(t, root, "scan", "--json")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	var found []scanFile
	if err := json.Unmarshal([]byte(stdout), &found); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(found))
	}
	if found[0].File != filepath.Join("src", "a.js") {
		t.Errorf("Expected src/a.js, got %s", found[0].File)
	}
	if len(found[0].Literals) != 2 || found[0].Literals[0] != "你好" {
		t.Errorf("Expected [你好 世界], got %v", found[0].Literals)
	}

	// scan never writes.
	if strings.Contains(readFile(t, filepath.Join(root, "src", "a.js")), "i18n.t") {
		t.Error("scan should not rewrite sources")
	}
}

func TestRun_Extract(t *testing.T) {
	root := project(t)
	if _, _, err := execute(t, root, "extract"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	expected := "const a = i18n.t('I18N_0');\nconst b = i18n.t('I18N_1');\n"
	if got := readFile(t, filepath.Join(root, "src", "a.js")); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	zh := readMessages(t, filepath.Join(root, "locales", "zh.json"))
	if zh["I18N_0"] != "你好" || zh["I18N_1"] != "世界" {
		t.Errorf("Unexpected zh messages %v", zh)
	}
	en := readMessages(t, filepath.Join(root, "locales", "en.json"))
	if v, ok := en["I18N_0"]; !ok || v != "" {
		t.Errorf("Expected empty en placeholder, got %v", en)
	}
}

func TestRun_ExtractReusesKeysAcrossRuns(t *testing.T) {
	root := project(t)
	if _, _, err := execute(t, root, "extract"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	writeFile(t, filepath.Join(root, "src", "c.js"), "alert('你好');\nalert('再见');\n")
	if _, _, err := execute(t, root, "extract"); err != nil {
		t.Fatalf("second extract failed: %v", err)
	}

	expected := "alert(i18n.t('I18N_0'));\nalert(i18n.t('I18N_2'));\n"
	if got := readFile(t, filepath.Join(root, "src", "c.js")); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
	zh := readMessages(t, filepath.Join(root, "locales", "zh.json"))
	if len(zh) != 3 || zh["I18N_2"] != "再见" {
		t.Errorf("Expected 3 keys with I18N_2=再见, got %v", zh)
	}
}

func TestRun_ExtractDryRun(t *testing.T) {
	root := project(t)
	stdout, _, err := execute(t, root, "extract", "--dry-run")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(stdout, "I18N_0") {
		t.Errorf("Expected new keys listed, got %s", stdout)
	}
	if strings.Contains(readFile(t, filepath.Join(root, "src", "a.js")), "i18n.t") {
		t.Error("dry run should not rewrite sources")
	}
	if _, err := os.Stat(filepath.Join(root, "locales")); !os.IsNotExist(err) {
		t.Error("dry run should not write language files")
	}
}

func TestRun_ExtractTranslate(t *testing.T) {
	root := project(t)
	metrics := filepath.Join(root, "metrics.prom")
	_, _, err := execute(t, root, "extract", "--translate", "--mock", "--metrics-out", metrics)
	if err != nil {
		t.Fatalf("extract --translate failed: %v", err)
	}

	en := readMessages(t, filepath.Join(root, "locales", "en.json"))
	if en["I18N_0"] != "Hello" || en["I18N_1"] != "World" {
		t.Errorf("Expected mock translations, got %v", en)
	}
	if !strings.Contains(readFile(t, metrics), "hankey_translation_batches_total") {
		t.Error("Expected batch counter in metrics file")
	}
}

func TestRun_Translate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hankey.yaml"), "languages: [zh, en, ja]\ndefault_language: zh\n")
	writeFile(t, filepath.Join(root, "locales", "zh.json"), `{"K1": "你好", "K2": "世界"}`)
	writeFile(t, filepath.Join(root, "locales", "en.json"), `{"K1": "Hi there", "K2": ""}`)

	if _, _, err := execute(t, root, "--quiet", "translate", "--mock"); err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	en := readMessages(t, filepath.Join(root, "locales", "en.json"))
	if en["K1"] != "Hi there" {
		t.Errorf("Expected existing translation kept, got %q", en["K1"])
	}
	if en["K2"] != "World" {
		t.Errorf("Expected K2 translated, got %q", en["K2"])
	}
	ja := readMessages(t, filepath.Join(root, "locales", "ja.json"))
	if ja["K1"] != "Hello" || ja["K2"] != "World" {
		t.Errorf("Expected ja filled, got %v", ja)
	}
}

func TestRun_TranslateFileCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hankey.yaml"), "languages: [zh, en, ja]\ncache:\n  file: .hankey/cache.json\n")
	writeFile(t, filepath.Join(root, "locales", "zh.json"), `{"K1": "你好"}`)

	if _, _, err := execute(t, root, "--quiet", "translate", "--mock"); err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	dump := readFile(t, filepath.Join(root, ".hankey", "cache.json"))
	if !strings.Contains(dump, hankey.CacheKey("你好", "zh", "ja")) {
		t.Errorf("Expected the ja translation cached on disk, got %s", dump)
	}

	out := filepath.Join(root, "ja.json")
	if _, _, err := execute(t, root, "cache", "export", "--lang", "ja", out); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	exported := readFile(t, out)
	if !strings.Contains(exported, `"target": "ja"`) || strings.Contains(exported, `"target": "en"`) {
		t.Errorf("Expected only ja entries, got %s", exported)
	}
}

func TestRun_TranslateMissingDefaultFile(t *testing.T) {
	_, _, err := execute(t, t.TempDir(), "translate", "--mock")
	if !hankey.IsConfigError(err) {
		t.Errorf("Expected ConfigError, got %v", err)
	}
}

func TestRun_TranslateMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "locales", "zh.json"), `{"K1": "你好"}`)

	_, _, err := execute(t, root, "translate")
	var ce *hankey.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ConfigError, got %v", err)
	}
	if !strings.Contains(ce.Error(), "OPENAI_API_KEY") {
		t.Errorf("Expected the env variable named, got %v", ce)
	}
}

func mergeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "locales", "zh.json"), `{"K1": "确定", "K2": "确定", "K3": "取消"}`)
	writeFile(t, filepath.Join(root, "locales", "en.json"), `{"K1": "OK", "K2": "", "K3": "Cancel"}`)
	writeFile(t, filepath.Join(root, "src", "a.js"), "t('K1');\nt('K2');\nt('K3');\n")
	return root
}

func TestRun_MergePreview(t *testing.T) {
	root := mergeProject(t)
	report := filepath.Join(root, "report.html")

	stdout, _, err := execute(t, root, "merge", "--html", report)
	if err != nil {
		t.Fatalf("merge preview failed: %v", err)
	}
	if !strings.Contains(stdout, "K2 -> K1") {
		t.Errorf("Expected the rename listed, got %s", stdout)
	}
	if got := readFile(t, filepath.Join(root, "src", "a.js")); got != "t('K1');\nt('K2');\nt('K3');\n" {
		t.Errorf("preview should not rewrite sources, got %q", got)
	}
	if !strings.Contains(readFile(t, report), "确定") {
		t.Error("Expected the value in the HTML report")
	}
}

func TestRun_MergeExecute(t *testing.T) {
	root := mergeProject(t)
	if _, _, err := execute(t, root, "merge", "--execute"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	expected := "t('K1');\nt('K1');\nt('K3');\n"
	if got := readFile(t, filepath.Join(root, "src", "a.js")); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
	zh := readMessages(t, filepath.Join(root, "locales", "zh.json"))
	if _, ok := zh["K2"]; ok || len(zh) != 2 {
		t.Errorf("Expected K2 removed, got %v", zh)
	}
	en := readMessages(t, filepath.Join(root, "locales", "en.json"))
	if en["K1"] != "OK" {
		t.Errorf("Expected canonical translation kept, got %v", en)
	}
}

func TestRun_MergeNothingToDo(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "locales", "zh.json"), `{"K1": "确定"}`)
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := execute(t, root, "merge", "--execute")
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if !strings.Contains(stderr, "No duplicate values") {
		t.Errorf("Expected no-op message, got %s", stderr)
	}
}

func TestRun_CacheExportImport(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "cache.json")
	writeFile(t, file, `{"format": "hankey-cache/v2", "entries": [{"key": "a", "translation": "A"}, {"key": "b", "translation": ""}]}`)

	_, stderr, err := execute(t, root, "cache", "import", file)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(stderr, "Imported 1 entries (1 skipped)") {
		t.Errorf("Unexpected import summary: %s", stderr)
	}

	out := filepath.Join(root, "export.json")
	if _, _, err := execute(t, root, "cache", "export", out); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(readFile(t, out), `"format": "hankey-cache/v2"`) {
		t.Error("Expected export file with format tag")
	}
}

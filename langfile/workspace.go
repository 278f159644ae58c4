package langfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are the source files a workspace lists.
var DefaultExtensions = []string{".js", ".mjs", ".cjs", ".ts", ".mts", ".cts", ".jsx", ".tsx", ".vue"}

var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".nuxt":        true,
	".output":      true,
}

// Workspace is the set of source directories a command reads and rewrites.
type Workspace struct {
	Root       string
	Sources    []string // Relative to Root; empty means Root itself
	Extensions []string // Empty means DefaultExtensions
}

// Files lists matching source files, sorted, as paths joined onto Root.
// Dependency and build directories are skipped.
func (w Workspace) Files() ([]string, error) {
	exts := w.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[strings.ToLower(e)] = true
	}

	sources := w.Sources
	if len(sources) == 0 {
		sources = []string{"."}
	}

	seen := make(map[string]bool)
	var files []string
	for _, src := range sources {
		dir := filepath.Join(w.Root, src)
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != dir && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if want[strings.ToLower(filepath.Ext(path))] && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", dir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Read returns the content of a source file.
func (w Workspace) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write replaces the content of a source file, keeping its permissions.
func (w Workspace) Write(path, content string) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(content), mode)
}

// Rel returns path relative to Root for display.
func (w Workspace) Rel(path string) string {
	if rel, err := filepath.Rel(w.Root, path); err == nil {
		return rel
	}
	return path
}

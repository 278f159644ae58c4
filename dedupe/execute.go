package dedupe

import (
	"errors"
	"fmt"

	"github.com/ZaguanLabs/hankey"
	"github.com/ZaguanLabs/hankey/langfile"
)

// Outcome is the result of Execute.
type Outcome struct {
	Files     map[string]string // Rewritten content by path, changed files only
	Object    hankey.LanguageObject
	Rewritten int
	Removed   int // Entries removed across all languages
	Skipped   []*hankey.ReferenceNotFoundError
}

// Partial reports whether some references were skipped.
func (o *Outcome) Partial() bool {
	return len(o.Skipped) > 0
}

// Execute applies plan to files and to a copy of lo. Each occurrence is
// checked at its recorded offset first; a mismatch skips that occurrence.
func (m *Merger) Execute(plan *Plan, files []SourceFile, lo hankey.LanguageObject) (*Outcome, error) {
	out := &Outcome{Files: make(map[string]string)}

	content := make(map[string]string, len(files))
	for _, f := range files {
		content[f.Path] = f.Content
	}

	for _, refs := range plan.Files {
		src, ok := content[refs.File]

		var reps []hankey.Replacement
		for _, o := range refs.Occurrences {
			if !ok || !at(src, o.Offset, o.OldKey) {
				miss := &hankey.ReferenceNotFoundError{File: o.File, Line: o.Line, Key: o.OldKey}
				m.logger.Debug().Err(miss).Msg("reference skipped")
				out.Skipped = append(out.Skipped, miss)
				continue
			}
			reps = append(reps, hankey.Replacement{Start: o.Offset, End: o.Offset + len(o.OldKey), Text: o.NewKey})
		}
		if len(reps) == 0 {
			continue
		}

		edited, err := hankey.ApplyReplacements(src, reps)
		if err != nil {
			return nil, fmt.Errorf("rewriting %s: %w", refs.File, err)
		}
		out.Files[refs.File] = edited
		out.Rewritten += len(reps)
	}

	out.Object = lo.Clone()
	removals := make([]langfile.Removal, len(plan.Groups))
	for i, g := range plan.Groups {
		removals[i] = langfile.Removal{Canonical: g.Canonical, Keys: g.Discarded}
	}
	removed, err := langfile.RemoveKeys(out.Object, removals)
	if err != nil {
		return nil, err
	}
	out.Removed = removed
	return out, nil
}

func at(src string, offset int, key string) bool {
	return offset >= 0 && offset+len(key) <= len(src) && src[offset:offset+len(key)] == key
}

// IsReferenceNotFound reports whether err is a skipped reference.
func IsReferenceNotFound(err error) bool {
	var rnf *hankey.ReferenceNotFoundError
	return errors.As(err, &rnf)
}

package hankey

import "sort"

// DiffResult is the difference between two default-language message sets.
type DiffResult struct {
	Added     []string // Keys only in the new set
	Removed   []string // Keys only in the old set
	Changed   []string // Keys whose value differs
	Unchanged []string // Keys present in both with the same value
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Changed   int
	Unchanged int
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Changed:   len(d.Changed),
		Unchanged: len(d.Unchanged),
	}
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// NeedsTranslation returns the keys whose translations are stale: new keys
// and keys whose default text changed.
func (d *DiffResult) NeedsTranslation() []string {
	out := make([]string, 0, len(d.Added)+len(d.Changed))
	out = append(out, d.Added...)
	out = append(out, d.Changed...)
	sort.Strings(out)
	return out
}

// DiffMessages compares two message sets. Every list is sorted by key.
func DiffMessages(old, new *Messages) *DiffResult {
	result := &DiffResult{}
	oldMap, newMap := old.Map(), new.Map()

	for key, value := range newMap {
		prev, ok := oldMap[key]
		switch {
		case !ok:
			result.Added = append(result.Added, key)
		case prev != value:
			result.Changed = append(result.Changed, key)
		default:
			result.Unchanged = append(result.Unchanged, key)
		}
	}
	for key := range oldMap {
		if _, ok := newMap[key]; !ok {
			result.Removed = append(result.Removed, key)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Strings(result.Changed)
	sort.Strings(result.Unchanged)
	return result
}

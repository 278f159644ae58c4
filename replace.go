package hankey

import (
	"fmt"
	"sort"
)

// ApplyReplacements applies edits to src. Edits may be given in any order;
// they are applied in strictly descending start order so that earlier
// offsets stay valid. Overlapping or out-of-range edits are rejected.
func ApplyReplacements(src string, reps []Replacement) (string, error) {
	if len(reps) == 0 {
		return src, nil
	}

	sorted := make([]Replacement, len(reps))
	copy(sorted, reps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	return ApplyDescending(src, sorted)
}

// ApplyDescending applies edits exactly in the given order, which must be
// strictly descending by start offset and non-overlapping.
func ApplyDescending(src string, reps []Replacement) (string, error) {
	if err := ValidateDescending(len(src), reps); err != nil {
		return src, err
	}

	out := src
	for _, r := range reps {
		out = out[:r.Start] + r.Text + out[r.End:]
	}
	return out, nil
}

// ValidateDescending checks the ordering invariant for a replacement sequence
// over a text of length n.
func ValidateDescending(n int, reps []Replacement) error {
	for i, r := range reps {
		if r.Start < 0 || r.End < r.Start || r.End > n {
			return fmt.Errorf("replacement %d [%d,%d) out of range for length %d", i, r.Start, r.End, n)
		}
		if i == 0 {
			continue
		}
		prev := reps[i-1]
		if r.Start >= prev.Start {
			return fmt.Errorf("replacement %d starts at %d, not before previous start %d", i, r.Start, prev.Start)
		}
		if r.End > prev.Start {
			return fmt.Errorf("replacement %d [%d,%d) overlaps [%d,%d)", i, r.Start, r.End, prev.Start, prev.End)
		}
	}
	return nil
}

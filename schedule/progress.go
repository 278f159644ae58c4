package schedule

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress updates. done never decreases between calls.
type Reporter interface {
	Report(done, total int)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(done, total int)

// Report implements Reporter.
func (f ReporterFunc) Report(done, total int) {
	f(done, total)
}

// Tracker is a shared done/total counter. Observed values are folded with a
// monotonic max, so late reports of a smaller count never move it back.
type Tracker struct {
	mu       sync.Mutex
	done     int
	total    int
	reporter Reporter
}

// NewTracker creates a tracker for total units. reporter may be nil.
func NewTracker(total int, reporter Reporter) *Tracker {
	return &Tracker{total: total, reporter: reporter}
}

// Observe records that at least done units are complete and returns the
// current value.
func (t *Tracker) Observe(done int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if done > t.total {
		done = t.total
	}
	if done <= t.done {
		return t.done
	}
	t.done = done
	if t.reporter != nil {
		t.reporter.Report(t.done, t.total)
	}
	return t.done
}

// Done returns the current count.
func (t *Tracker) Done() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Total returns the number of units tracked.
func (t *Tracker) Total() int {
	return t.total
}

// BarReporter draws progress as a terminal bar.
type BarReporter struct {
	bar *progressbar.ProgressBar
}

// NewBarReporter creates a bar of total batches written to w.
func NewBarReporter(w io.Writer, total int, description string) *BarReporter {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
	return &BarReporter{bar: bar}
}

// Report implements Reporter.
func (b *BarReporter) Report(done, total int) {
	_ = b.bar.Set(done)
}

// Finish completes the bar.
func (b *BarReporter) Finish() error {
	return b.bar.Finish()
}

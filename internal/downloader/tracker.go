package downloader

import (
	"sync"

	"ljdl/pkg/ui"
)

// Tracker counts finished jobs and forwards them to the progress bar.
// Updates are serialized: the count only grows and the label shown is
// the one reported last.
type Tracker struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	bytes     int64
	label     string
	progress  *ui.Progress
}

// NewTracker creates a tracker for total jobs. progress may be nil.
func NewTracker(total int, progress *ui.Progress) *Tracker {
	return &Tracker{total: total, progress: progress}
}

// Done records a saved file of size bytes
func (t *Tracker) Done(label string, size int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed++
	t.bytes += size
	t.label = label
	t.progress.Update(t.completed+t.failed, label)
}

// Failed records a job that did not produce a file
func (t *Tracker) Failed(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failed++
	t.label = label
	t.progress.Update(t.completed+t.failed, label)
}

// Snapshot returns the current counters and label
func (t *Tracker) Snapshot() (completed, failed int, bytes int64, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed, t.failed, t.bytes, t.label
}

// Total returns the number of jobs being tracked
func (t *Tracker) Total() int {
	return t.total
}

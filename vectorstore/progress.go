package vectorstore

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints a single, rewritten status line as batches commit.
type ProgressTracker struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	every   int
	last    BatchProgress
	printed int // Stored count at the last printed line
	start   time.Time
}

// NewProgressTracker prints to w every time at least every more documents
// of total have been stored.
func NewProgressTracker(w io.Writer, total, every int) *ProgressTracker {
	return &ProgressTracker{w: w, total: total, every: every}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = time.Now()
	p.last = BatchProgress{}
	p.printed = 0
}

// BatchStored records a committed batch. It matches the callback expected
// by WithOnBatch and ContextWithBatchObserver. Calls before Start are ignored.
func (p *ProgressTracker) BatchStored(progress BatchProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		return
	}
	p.last = progress
	if progress.Stored-p.printed >= p.every {
		p.print()
		p.printed = progress.Stored
	}
}

// Finish prints the final line and a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		return
	}
	p.print()
	fmt.Fprintln(p.w)
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		return 0
	}
	return time.Since(p.start)
}

// print must be called with mu held.
func (p *ProgressTracker) print() {
	stored := min(p.last.Stored, p.total)
	percent := 0.0
	if p.total > 0 {
		percent = 100 * float64(stored) / float64(p.total)
	}
	rate := float64(stored) / time.Since(p.start).Seconds()
	fmt.Fprintf(p.w, "\rStored: %d/%d (%.1f%%) in %d batches - %.1f docs/s",
		stored, p.total, percent, p.last.Batch, rate)
}

package database

import (
	"sync"
	"time"

	"image-browser/internal/metrics"
)

// Debouncer coalesces bursts of triggers into a single deferred
// callback. Each Schedule cancels any armed timer and re-arms it, so a
// burst of writes produces exactly one flush after the burst ends.
type Debouncer struct {
	delay time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a Debouncer with the given quiescence delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arms the timer to run callback after the delay, cancelling
// any previously armed timer. The callback runs on the timer's own
// goroutine and never blocks the caller.
func (b *Debouncer) Schedule(callback func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, callback)
	metrics.DebounceScheduled.Inc()
}

// Cancel disarms any pending timer without running the callback.
func (b *Debouncer) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

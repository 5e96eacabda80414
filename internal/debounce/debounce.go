// Package debounce coalesces rapid-fire calls, such as a threshold slider being
// dragged, into one call after the input settles.
package debounce

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDelay is the quiet period used by the cleaning screen.
const DefaultDelay = 300 * time.Millisecond

// Debouncer runs only the most recently triggered function, once no new trigger
// has arrived for the configured delay.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// New creates a debouncer. delay <= 0 uses DefaultDelay.
func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any function still waiting.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop drops the pending function, if any. It reports whether one was dropped.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// Generation hands out increasing tokens so a finished job can tell whether a
// newer one has started since. The newest token wins.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new generation and returns its token.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current reports whether token is still the newest generation.
func (g *Generation) Current(token uint64) bool {
	return g.n.Load() == token
}

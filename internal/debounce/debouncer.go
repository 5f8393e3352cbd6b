// Package debounce coalesces bursts of text input into a single settled
// event after a quiet interval.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the quiet interval used when none is configured.
const DefaultWindow = 300 * time.Millisecond

// Debouncer calls its callback once with the last value seen after Input has
// been quiet for the configured window. A burst superseded before the window
// elapses never emits.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	emit    func(text string)
	timer   *time.Timer
	last    string
	stopped bool
}

// New creates a debouncer. window <= 0 falls back to DefaultWindow.
func New(window time.Duration, emit func(text string)) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window, emit: emit}
}

// Input records a keystroke's value and restarts the quiet window.
func (d *Debouncer) Input(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.last = text
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Stop cancels any pending emit. Called on session teardown.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	text := d.last
	d.mu.Unlock()

	d.emit(text)
}

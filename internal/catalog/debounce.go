package catalog

import (
	"sync"
	"time"
)

// DefaultSearchDelay matches search-as-you-type expectations.
const DefaultSearchDelay = 350 * time.Millisecond

// Debouncer runs the last submitted function after a quiet period, dropping
// earlier submissions. Search inputs feed keystrokes through one of these so
// only the settled query reaches the backend.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels a pending run, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

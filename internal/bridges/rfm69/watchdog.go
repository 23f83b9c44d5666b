package rfm69

import (
	"sync"
	"time"
)

// Watchdog forces a transceiver reinitialisation after a period with no
// received frames. It cannot tell quiet nodes from a locked-up radio, so
// it reinitialises in both cases.
type Watchdog struct {
	timeout time.Duration

	mu        sync.Mutex
	lastFrame time.Time
}

// NewWatchdog starts the liveness clock at now. A timeout <= 0 disables it.
func NewWatchdog(timeout time.Duration, now time.Time) *Watchdog {
	return &Watchdog{timeout: timeout, lastFrame: now}
}

// RecordFrame marks the link alive. Call it for every received frame,
// valid or not.
func (w *Watchdog) RecordFrame(now time.Time) {
	w.mu.Lock()
	w.lastFrame = now
	w.mu.Unlock()
}

// LastFrame returns the time of the last recorded frame (or reset).
func (w *Watchdog) LastFrame() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastFrame
}

// Timeout returns the configured timeout.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Check calls reinit when more than the timeout has passed since the last
// frame, and restarts the clock at now. It fires at most once per window.
// The boolean reports whether reinit was called; its error is returned as is.
func (w *Watchdog) Check(now time.Time, reinit func() error) (bool, error) {
	if w.timeout <= 0 {
		return false, nil
	}

	w.mu.Lock()
	expired := now.Sub(w.lastFrame) > w.timeout
	if expired {
		w.lastFrame = now
	}
	w.mu.Unlock()

	if !expired {
		return false, nil
	}
	return true, reinit()
}

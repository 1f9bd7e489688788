package poller

import (
	"context"
	"sync"
	"sync/atomic"
)

// Handle controls a background poll started by Poller.Start.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	// mu serializes callbacks against Cancel.
	mu        sync.Mutex
	cancelled atomic.Bool
}

// Cancel stops the poll. Once Cancel returns no progress or completion
// callback of this handle runs. A callback of this same handle must not
// call it; use Service.Cancel from inside callbacks instead.
func (h *Handle) Cancel() {
	h.stop()
	// Wait out a callback already in flight.
	h.mu.Lock()
	h.mu.Unlock()
}

// stop marks the handle cancelled without waiting for a running callback.
// No callback starts after it returns.
func (h *Handle) stop() {
	h.cancelled.Store(true)
	h.cancel()
}

// Cancelled reports whether the poll was cancelled.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// Done is closed when the background goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the background goroutine has exited.
func (h *Handle) Wait() {
	<-h.done
}

func (h *Handle) deliver(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled.Load() {
		return
	}
	fn()
}

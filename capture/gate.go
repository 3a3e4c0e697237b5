package capture

import (
	"context"
	"sync"
)

// gate is a channel-based pause point. The capture loop waits on the
// gate at each page boundary; pausing blocks the passage and resuming
// reopens it. Blocked waiters wake on resume or cancellation rather
// than polling on a timer.
type gate struct {
	mu     sync.Mutex
	open   chan struct{} // closed while the gate is open
	paused bool
}

func newGate() *gate {
	g := &gate{open: make(chan struct{})}
	close(g.open)
	return g
}

// pause blocks future waits. Idempotent.
func (g *gate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return
	}
	g.paused = true
	g.open = make(chan struct{})
}

// resume reopens the gate and wakes all waiters. Idempotent.
func (g *gate) resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return
	}
	g.paused = false
	close(g.open)
}

// wait blocks while the gate is paused. It returns the context error
// when ctx is canceled during the wait and nil otherwise.
func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

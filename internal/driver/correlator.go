package driver

import (
	"fmt"
	"sync"

	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

// Correlator maps outstanding requestIds to reply channels. It is
// transport-agnostic: the listener loop feeds it real frames, tests
// feed it fakes.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]chan *protocol.Frame
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[string]chan *protocol.Frame)}
}

// Register creates the completion channel for a requestId. The id must
// not already be pending.
func (c *Correlator) Register(id string) (<-chan *protocol.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[id]; exists {
		return nil, fmt.Errorf("requestId %s already pending", id)
	}
	ch := make(chan *protocol.Frame, 1)
	c.pending[id] = ch
	return ch, nil
}

// Resolve completes the pending request matching the frame's requestId.
// Returns false when no such request is waiting.
func (c *Correlator) Resolve(id string, f *protocol.Frame) bool {
	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	ch <- f
	return true
}

// Cancel removes a pending entry, typically after its waiter timed out,
// so a late reply cannot resolve a channel nobody reads.
func (c *Correlator) Cancel(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

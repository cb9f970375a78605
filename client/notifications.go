// Package client is the reconciliation layer a connected client runs: it
// merges server-pushed socket events with locally optimistic state (chat
// list ordering, unread markers, pending-favorite markers) so the UI stays
// consistent under concurrent, out-of-order delivery.
package client

import "sync"

// Counter is the per-session unread-notification count. It never goes below
// zero and is reset on logout.
type Counter struct {
	mu sync.Mutex
	n  int
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Increase() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *Counter) Decrease() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n > 0 {
		c.n--
	}
}

// Set replaces the count with an authoritative server value.
func (c *Counter) Set(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = 0
	}
	c.n = n
}

func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}

func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Package testutil holds deterministic helpers for tests and the
// conformance harness: a sequence counter, fixed run IDs, a recording
// backend and a counting lowerer.
package testutil

import "sync"

// SeqCounter hands out monotonically increasing sequence numbers for trace
// events, so the same scenario always produces the same trace.
//
// Thread-safety: all methods are safe for concurrent use.
type SeqCounter struct {
	mu  sync.Mutex
	seq int64
}

// NewSeqCounter creates a counter whose first Next() returns 1.
func NewSeqCounter() *SeqCounter {
	return &SeqCounter{}
}

// Next increments and returns the sequence number.
func (c *SeqCounter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out, 0 before the first Next().
func (c *SeqCounter) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the counter so a scenario can be replayed.
func (c *SeqCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

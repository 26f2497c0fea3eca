package testutil

import (
	"fmt"
	"sync"
)

// FixedIDs returns predictable run IDs: "<prefix>-0001", "<prefix>-0002", ...
//
// It satisfies store.IDGenerator so tests and golden snapshots do not
// depend on UUIDv7 timestamps.
type FixedIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedIDs creates a generator. An empty prefix defaults to "run".
func NewFixedIDs(prefix string) *FixedIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &FixedIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *FixedIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Package blocks provides a write-once registry of named builders.
//
// A block is a reusable macro: invoking it appends into whatever program is
// active at the call site. The registry itself is agnostic of the builder
// type; circuit.Session instantiates it with its Block signature.
package blocks

import (
	"slices"
	"strings"
	"sync"

	"github.com/roach88/qdsl/internal/ir"
)

// Registry maps non-empty names to builders of type F.
//
// Insertion is write-once per name: the first registration wins and later
// ones are rejected with a DuplicateBlock error, leaving the original in
// place.
//
// Thread-safety: Registry is safe for concurrent use, so one registry may be
// shared by several sessions.
type Registry[F any] struct {
	mu      sync.RWMutex
	entries map[string]F
}

// NewRegistry creates an empty registry.
func NewRegistry[F any]() *Registry[F] {
	return &Registry[F]{entries: make(map[string]F)}
}

// Register adds fn under name.
// Returns a Validation error for a blank name and a DuplicateBlock error if
// name is taken; in both cases the registry is unchanged.
func (r *Registry[F]) Register(name string, fn F) error {
	if strings.TrimSpace(name) == "" {
		return ir.Errorf(ir.ErrCodeValidation, "blocks.register", "block name must be a non-empty string")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return ir.Errorf(ir.ErrCodeDuplicateBlock, "blocks.register", "block %q already exists", name)
	}
	r.entries[name] = fn
	return nil
}

// Lookup returns the builder registered under name.
func (r *Registry[F]) Lookup(name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.entries[name]
	if !ok {
		var zero F
		return zero, ir.Errorf(ir.ErrCodeUnknownBlock, "blocks.use", "unknown block %q", name)
	}
	return fn, nil
}

// Has reports whether name is registered.
func (r *Registry[F]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry[F]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

package testutil

import (
	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/ir"
)

// Lowerer matches circuit.Lowerer without importing circuit.
type Lowerer interface {
	Known(kind ir.GateKind) bool
	Lower(p *ir.Program) (*compiler.Executable, error)
}

// CountingLowerer wraps a Lowerer and counts Lower calls.
type CountingLowerer struct {
	Inner Lowerer
	Calls int
}

// Known delegates to Inner.
func (c *CountingLowerer) Known(kind ir.GateKind) bool { return c.Inner.Known(kind) }

// Lower counts the call and delegates to Inner.
func (c *CountingLowerer) Lower(p *ir.Program) (*compiler.Executable, error) {
	c.Calls++
	return c.Inner.Lower(p)
}

package backend

import (
	"context"

	"github.com/roach88/qdsl/internal/ir"
)

// Matrix is a dense square complex matrix in row-major order.
// A k-wire unitary is 2^k x 2^k with the first wire most significant.
type Matrix [][]complex128

// Backend is a simulation backend.
type Backend interface {
	// Name identifies the backend (e.g. "statevector").
	Name() string

	// Gates returns the backend's gate name table.
	Gates() Table

	// Open creates a fresh device initialized to |0...0> on width wires.
	Open(ctx context.Context, width int) (Device, error)
}

// Device is one simulation context. Devices are not safe for concurrent use.
type Device interface {
	// Width returns the number of wires.
	Width() int

	// Apply applies u to wires.
	Apply(u Matrix, wires []int) error

	// ApplyControlled applies u to targets conditioned on every control
	// wire being |1>. Any number of controls is accepted.
	ApplyControlled(u Matrix, controls, targets []int) error

	// Prepare initializes wires to the given amplitude vector. The wires
	// must currently be in |0>.
	Prepare(amplitudes []complex128, wires []int) error

	// State returns the full statevector.
	State() ([]complex128, error)

	// Probabilities returns basis-state probabilities marginalized onto
	// wires, with wires[0] as the most significant bit.
	Probabilities(wires []int) ([]float64, error)

	// Expectation returns <psi|H|psi>.
	Expectation(h *ir.Hamiltonian) (float64, error)
}

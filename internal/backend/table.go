package backend

import (
	"math"
	"math/cmplx"
	"slices"

	"github.com/roach88/qdsl/internal/ir"
)

// Gate describes one entry of the name table.
type Gate struct {
	// Name is the gate kind.
	Name ir.GateKind

	// Wires is the exact number of wires one application takes,
	// including Controls. Zero marks kinds that are lowered specially
	// (CTRL, state preparation) and have no fixed arity.
	Wires int

	// Params is the number of numeric parameters Unitary expects.
	Params int

	// Controls is the number of leading wires that act as controls.
	// Unitary then acts on the remaining Wires-Controls wires.
	Controls int

	// Unitary builds the (uncontrolled) matrix. Nil for special kinds.
	Unitary func(params []float64) Matrix
}

// Table maps gate kinds to their backend definitions.
type Table map[ir.GateKind]Gate

// Has reports whether kind is in the table. Suitable for ir.Canonicalize.
func (t Table) Has(kind ir.GateKind) bool {
	_, ok := t[kind]
	return ok
}

// Lookup returns the entry for kind or an UnknownGate error.
func (t Table) Lookup(kind ir.GateKind) (Gate, error) {
	g, ok := t[kind]
	if !ok {
		return Gate{}, ir.Errorf(ir.ErrCodeUnknownGate, "lower", "gate %q has no backend entry", kind)
	}
	return g, nil
}

// Kinds returns the table's kinds in sorted order.
func (t Table) Kinds() []ir.GateKind {
	kinds := make([]ir.GateKind, 0, len(t))
	for k := range t {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Standard returns the standard gate table shared by the bundled backends.
func Standard() Table {
	fixed := func(m Matrix) func([]float64) Matrix {
		return func([]float64) Matrix { return m }
	}
	t := Table{
		ir.KindH: {Name: ir.KindH, Wires: 1, Unitary: fixed(Hadamard)},
		ir.KindX: {Name: ir.KindX, Wires: 1, Unitary: fixed(PauliX)},
		ir.KindY: {Name: ir.KindY, Wires: 1, Unitary: fixed(PauliY)},
		ir.KindZ: {Name: ir.KindZ, Wires: 1, Unitary: fixed(PauliZ)},
		ir.KindS: {Name: ir.KindS, Wires: 1, Unitary: fixed(Phase(math.Pi / 2))},
		ir.KindT: {Name: ir.KindT, Wires: 1, Unitary: fixed(Phase(math.Pi / 4))},

		ir.KindSWAP: {Name: ir.KindSWAP, Wires: 2, Unitary: fixed(Swap)},
		ir.KindCNOT: {Name: ir.KindCNOT, Wires: 2, Controls: 1, Unitary: fixed(PauliX)},
		ir.KindCZ:   {Name: ir.KindCZ, Wires: 2, Controls: 1, Unitary: fixed(PauliZ)},
		ir.KindCY:   {Name: ir.KindCY, Wires: 2, Controls: 1, Unitary: fixed(PauliY)},

		ir.KindRX:  {Name: ir.KindRX, Wires: 1, Params: 1, Unitary: angle(RX)},
		ir.KindRY:  {Name: ir.KindRY, Wires: 1, Params: 1, Unitary: angle(RY)},
		ir.KindRZ:  {Name: ir.KindRZ, Wires: 1, Params: 1, Unitary: angle(RZ)},
		ir.KindCRX: {Name: ir.KindCRX, Wires: 2, Params: 1, Controls: 1, Unitary: angle(RX)},
		ir.KindCRY: {Name: ir.KindCRY, Wires: 2, Params: 1, Controls: 1, Unitary: angle(RY)},
		ir.KindCRZ: {Name: ir.KindCRZ, Wires: 2, Params: 1, Controls: 1, Unitary: angle(RZ)},

		ir.KindSingleExcitation: {Name: ir.KindSingleExcitation, Wires: 2, Params: 1, Unitary: angle(SingleExcitation)},
		ir.KindDoubleExcitation: {Name: ir.KindDoubleExcitation, Wires: 4, Params: 1, Unitary: angle(DoubleExcitation)},

		ir.KindCTRL:        {Name: ir.KindCTRL},
		ir.KindStatePrep:   {Name: ir.KindStatePrep},
		ir.KindBasisState:  {Name: ir.KindBasisState},
		ir.KindHartreeFock: {Name: ir.KindHartreeFock},
	}
	return t
}

func angle(f func(theta float64) Matrix) func([]float64) Matrix {
	return func(params []float64) Matrix { return f(params[0]) }
}

var invSqrt2 = complex(1/math.Sqrt2, 0)

// Single-qubit constants.
var (
	Identity = Matrix{{1, 0}, {0, 1}}
	Hadamard = Matrix{{invSqrt2, invSqrt2}, {invSqrt2, -invSqrt2}}
	PauliX   = Matrix{{0, 1}, {1, 0}}
	PauliY   = Matrix{{0, -1i}, {1i, 0}}
	PauliZ   = Matrix{{1, 0}, {0, -1}}
	Swap     = Matrix{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
)

// Phase returns diag(1, e^{i phi}).
func Phase(phi float64) Matrix {
	return Matrix{{1, 0}, {0, cmplx.Exp(complex(0, phi))}}
}

// RX returns exp(-i theta X / 2).
func RX(theta float64) Matrix {
	c, s := complex(math.Cos(theta/2), 0), complex(0, -math.Sin(theta/2))
	return Matrix{{c, s}, {s, c}}
}

// RY returns exp(-i theta Y / 2).
func RY(theta float64) Matrix {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return Matrix{{c, -s}, {s, c}}
}

// RZ returns exp(-i theta Z / 2).
func RZ(theta float64) Matrix {
	return Matrix{
		{cmplx.Exp(complex(0, -theta/2)), 0},
		{0, cmplx.Exp(complex(0, theta/2))},
	}
}

// SingleExcitation rotates |01> and |10> into each other by theta/2.
func SingleExcitation(theta float64) Matrix {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return Matrix{
		{1, 0, 0, 0},
		{0, c, -s, 0},
		{0, s, c, 0},
		{0, 0, 0, 1},
	}
}

// DoubleExcitation rotates |0011> and |1100> into each other by theta/2
// and leaves every other basis state unchanged.
func DoubleExcitation(theta float64) Matrix {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	m := identity(16)
	m[3][3], m[3][12] = c, -s
	m[12][3], m[12][12] = s, c
	return m
}

// ObservableMatrix returns the 2x2 matrix of a single-qubit observable.
func ObservableMatrix(o ir.Observable) (Matrix, bool) {
	switch o {
	case ir.ObsI:
		return Identity, true
	case ir.ObsX:
		return PauliX, true
	case ir.ObsY:
		return PauliY, true
	case ir.ObsZ:
		return PauliZ, true
	case ir.ObsH:
		return Hadamard, true
	}
	return nil, false
}

func identity(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]complex128, n)
		m[i][i] = 1
	}
	return m
}

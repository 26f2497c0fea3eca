package ir

import "slices"

// GateKind names a gate in the backend name table.
type GateKind string

// Known gate kinds. The backend table decides which of them are executable;
// canonicalization rejects anything the table does not carry.
const (
	KindH    GateKind = "H"
	KindX    GateKind = "X"
	KindY    GateKind = "Y"
	KindZ    GateKind = "Z"
	KindS    GateKind = "S"
	KindT    GateKind = "T"
	KindSWAP GateKind = "SWAP"
	KindCNOT GateKind = "CNOT"
	KindCZ   GateKind = "CZ"
	KindCY   GateKind = "CY"

	KindRX  GateKind = "RX"
	KindRY  GateKind = "RY"
	KindRZ  GateKind = "RZ"
	KindCRX GateKind = "CRX"
	KindCRY GateKind = "CRY"
	KindCRZ GateKind = "CRZ"

	KindCTRL             GateKind = "CTRL"
	KindStatePrep        GateKind = "StatePrep"
	KindBasisState       GateKind = "BasisState"
	KindHartreeFock      GateKind = "HartreeFock"
	KindSingleExcitation GateKind = "SingleExcitation"
	KindDoubleExcitation GateKind = "DoubleExcitation"
)

// Encoding selects how a Hartree-Fock occupation is mapped onto qubits.
type Encoding string

const (
	EncodingOccupation   Encoding = "occupation_number"
	EncodingParity       Encoding = "parity"
	EncodingBravyiKitaev Encoding = "bravyi_kitaev"
)

// ValidEncodings defines allowed Hartree-Fock encodings.
var ValidEncodings = map[Encoding]bool{
	EncodingOccupation:   true,
	EncodingParity:       true,
	EncodingBravyiKitaev: true,
}

// Instruction is a sealed interface over gates and measurements.
// Only the variants declared in this package implement it.
//
// Wires returns the instruction's wire list. The returned slice must not be
// modified; use Program.Clone for an independent copy.
type Instruction interface {
	Wires() []int
	instruction()
	clone() Instruction
	canonical() map[string]any
}

// Gate is a unitary or state-initialization instruction.
type Gate interface {
	Instruction
	Kind() GateKind
}

// Fixed is a parameterless named gate (H, X, SWAP, CNOT, ...).
// For two-wire kinds the leading wire is the control.
type Fixed struct {
	Name    GateKind
	Targets []int
}

func (Fixed) instruction()         {}
func (g Fixed) Kind() GateKind     { return g.Name }
func (g Fixed) Wires() []int       { return g.Targets }
func (g Fixed) clone() Instruction { return Fixed{Name: g.Name, Targets: slices.Clone(g.Targets)} }
func (g Fixed) canonical() map[string]any {
	return opMap(string(g.Name), g.Targets, nil)
}

// Rotation is a single-angle parameterized gate: RX/RY/RZ on one wire,
// CRX/CRY/CRZ on a (control, target) pair.
type Rotation struct {
	Name    GateKind
	Angle   float64
	Targets []int
}

func (Rotation) instruction()     {}
func (g Rotation) Kind() GateKind { return g.Name }
func (g Rotation) Wires() []int   { return g.Targets }
func (g Rotation) clone() Instruction {
	g.Targets = slices.Clone(g.Targets)
	return g
}
func (g Rotation) canonical() map[string]any {
	return opMap(string(g.Name), g.Targets, []any{g.Angle})
}

// Controlled applies the parameterless single-wire gate Base to Target,
// conditioned on every wire in Controls being |1>.
type Controlled struct {
	Base     GateKind
	Controls []int
	Target   int
}

func (Controlled) instruction()   {}
func (Controlled) Kind() GateKind { return KindCTRL }
func (g Controlled) Wires() []int { return append(slices.Clone(g.Controls), g.Target) }
func (g Controlled) clone() Instruction {
	g.Controls = slices.Clone(g.Controls)
	return g
}
func (g Controlled) canonical() map[string]any {
	return opMap(string(KindCTRL), g.Wires(), []any{string(g.Base)})
}

// StatePrep initializes Targets to the given amplitude vector.
// len(Amplitudes) must be 2^len(Targets).
type StatePrep struct {
	Amplitudes []complex128
	Targets    []int
}

func (StatePrep) instruction()   {}
func (StatePrep) Kind() GateKind { return KindStatePrep }
func (g StatePrep) Wires() []int { return g.Targets }
func (g StatePrep) clone() Instruction {
	return StatePrep{Amplitudes: slices.Clone(g.Amplitudes), Targets: slices.Clone(g.Targets)}
}
func (g StatePrep) canonical() map[string]any {
	amps := make([]any, len(g.Amplitudes))
	for i, a := range g.Amplitudes {
		amps[i] = []any{real(a), imag(a)}
	}
	return opMap(string(KindStatePrep), g.Targets, []any{amps})
}

// BasisState initializes Targets to the computational basis state Bits.
type BasisState struct {
	Bits    []int
	Targets []int
}

func (BasisState) instruction()   {}
func (BasisState) Kind() GateKind { return KindBasisState }
func (g BasisState) Wires() []int { return g.Targets }
func (g BasisState) clone() Instruction {
	return BasisState{Bits: slices.Clone(g.Bits), Targets: slices.Clone(g.Targets)}
}
func (g BasisState) canonical() map[string]any {
	return opMap(string(KindBasisState), g.Targets, []any{intsToAny(g.Bits)})
}

// HartreeFock prepares the Hartree-Fock reference state of Electrons
// electrons in Orbitals spin orbitals on wires 0..Orbitals-1.
type HartreeFock struct {
	Electrons int
	Orbitals  int
	Basis     Encoding
}

func (HartreeFock) instruction()         {}
func (HartreeFock) Kind() GateKind       { return KindHartreeFock }
func (g HartreeFock) clone() Instruction { return g }

// Wires returns 0..Orbitals-1.
func (g HartreeFock) Wires() []int {
	wires := make([]int, max(g.Orbitals, 0))
	for i := range wires {
		wires[i] = i
	}
	return wires
}

func (g HartreeFock) canonical() map[string]any {
	return opMap(string(KindHartreeFock), g.Wires(), []any{g.Electrons, string(g.Basis)})
}

// Excitation is a Givens rotation in the two-particle (single) or
// four-particle (double) subspace. Single needs exactly 2 wires, double 4.
type Excitation struct {
	Double  bool
	Angle   float64
	Targets []int
}

func (Excitation) instruction() {}

func (g Excitation) Kind() GateKind {
	if g.Double {
		return KindDoubleExcitation
	}
	return KindSingleExcitation
}

func (g Excitation) Wires() []int { return g.Targets }
func (g Excitation) clone() Instruction {
	g.Targets = slices.Clone(g.Targets)
	return g
}
func (g Excitation) canonical() map[string]any {
	return opMap(string(g.Kind()), g.Targets, []any{g.Angle})
}

// Arity returns the exact wire count an excitation requires.
func (g Excitation) Arity() int {
	if g.Double {
		return 4
	}
	return 2
}

func opMap(op string, wires []int, params []any) map[string]any {
	m := map[string]any{
		"op":    op,
		"wires": intsToAny(wires),
	}
	if len(params) > 0 {
		m["params"] = params
	}
	return m
}

func intsToAny(xs []int) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

package circuit

import (
	"math"
	"slices"

	"github.com/roach88/qdsl/internal/ir"
)

// Pair is an ordered (a, b) wire pair for two-wire gates. For controlled
// gates a is the control.
type Pair [2]int

func invalid(op, format string, args ...any) *ir.Error {
	return ir.Errorf(ir.ErrCodeValidation, op, format, args...)
}

func checkWires(op string, wires []int) error {
	if len(wires) == 0 {
		return invalid(op, "expects at least one wire")
	}
	for _, w := range wires {
		if w < 0 {
			return invalid(op, "wire must be non-negative, got %d", w)
		}
	}
	return nil
}

func checkAngle(op string, theta float64) error {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return invalid(op, "angle must be a finite real number, got %v", theta)
	}
	return nil
}

func (s *Session) single(kind ir.GateKind, wires []int) error {
	if err := checkWires(string(kind), wires); err != nil {
		return err
	}
	ops := make([]ir.Instruction, len(wires))
	for i, w := range wires {
		ops[i] = ir.Fixed{Name: kind, Targets: []int{w}}
	}
	return s.emit(ops...)
}

func (s *Session) pairs(kind ir.GateKind, pairs []Pair) error {
	if len(pairs) == 0 {
		return invalid(string(kind), "expects at least one (a, b) pair")
	}
	ops := make([]ir.Instruction, len(pairs))
	for i, pr := range pairs {
		if err := checkWires(string(kind), pr[:]); err != nil {
			return err
		}
		if pr[0] == pr[1] {
			return invalid(string(kind), "pair %d uses wire %d twice", i, pr[0])
		}
		ops[i] = ir.Fixed{Name: kind, Targets: []int{pr[0], pr[1]}}
	}
	return s.emit(ops...)
}

// H applies a Hadamard to each wire.
func (s *Session) H(wires ...int) error { return s.single(ir.KindH, wires) }

// X applies Pauli-X to each wire.
func (s *Session) X(wires ...int) error { return s.single(ir.KindX, wires) }

// Y applies Pauli-Y to each wire.
func (s *Session) Y(wires ...int) error { return s.single(ir.KindY, wires) }

// Z applies Pauli-Z to each wire.
func (s *Session) Z(wires ...int) error { return s.single(ir.KindZ, wires) }

// S applies the phase gate to each wire.
func (s *Session) S(wires ...int) error { return s.single(ir.KindS, wires) }

// T applies the pi/8 gate to each wire.
func (s *Session) T(wires ...int) error { return s.single(ir.KindT, wires) }

// SWAP exchanges each pair of wires.
func (s *Session) SWAP(pairs ...Pair) error { return s.pairs(ir.KindSWAP, pairs) }

// CNOT applies controlled-X for each (control, target) pair.
func (s *Session) CNOT(pairs ...Pair) error { return s.pairs(ir.KindCNOT, pairs) }

// CZ applies controlled-Z for each (control, target) pair.
func (s *Session) CZ(pairs ...Pair) error { return s.pairs(ir.KindCZ, pairs) }

// CY applies controlled-Y for each (control, target) pair.
func (s *Session) CY(pairs ...Pair) error { return s.pairs(ir.KindCY, pairs) }

func (s *Session) rotation(kind ir.GateKind, theta float64, wires ...int) error {
	if err := checkAngle(string(kind), theta); err != nil {
		return err
	}
	if err := checkWires(string(kind), wires); err != nil {
		return err
	}
	if len(wires) == 2 && wires[0] == wires[1] {
		return invalid(string(kind), "control and target must differ, got %d", wires[0])
	}
	return s.emit(ir.Rotation{Name: kind, Angle: theta, Targets: wires})
}

// RX rotates wire about the X axis.
func (s *Session) RX(theta float64, wire int) error { return s.rotation(ir.KindRX, theta, wire) }

// RY rotates wire about the Y axis.
func (s *Session) RY(theta float64, wire int) error { return s.rotation(ir.KindRY, theta, wire) }

// RZ rotates wire about the Z axis.
func (s *Session) RZ(theta float64, wire int) error { return s.rotation(ir.KindRZ, theta, wire) }

// CRX is RX on target controlled by control.
func (s *Session) CRX(theta float64, control, target int) error {
	return s.rotation(ir.KindCRX, theta, control, target)
}

// CRY is RY on target controlled by control.
func (s *Session) CRY(theta float64, control, target int) error {
	return s.rotation(ir.KindCRY, theta, control, target)
}

// CRZ is RZ on target controlled by control.
func (s *Session) CRZ(theta float64, control, target int) error {
	return s.rotation(ir.KindCRZ, theta, control, target)
}

// Ctrl applies base to target, conditioned on every control wire being 1.
// Any number of controls is accepted.
func (s *Session) Ctrl(base ir.GateKind, controls []int, target int) error {
	if base == "" {
		return invalid("CTRL", "base gate name is required")
	}
	if err := checkWires("CTRL", controls); err != nil {
		return err
	}
	if err := checkWires("CTRL", []int{target}); err != nil {
		return err
	}
	if slices.Contains(controls, target) {
		return invalid("CTRL", "target %d is also a control", target)
	}
	return s.emit(ir.Controlled{Base: base, Controls: slices.Clone(controls), Target: target})
}

// StatePrep loads amplitudes onto wires. With no wires the amplitudes
// cover wires 0..n-1 where len(amplitudes) == 2^n.
func (s *Session) StatePrep(amplitudes []complex128, wires ...int) error {
	if len(amplitudes) == 0 {
		return invalid("StatePrep", "expects a non-empty amplitude vector")
	}
	for i, a := range amplitudes {
		if math.IsNaN(real(a)) || math.IsNaN(imag(a)) || math.IsInf(real(a), 0) || math.IsInf(imag(a), 0) {
			return invalid("StatePrep", "amplitude %d is not finite", i)
		}
	}
	if len(wires) == 0 {
		n := 0
		for 1<<n < len(amplitudes) {
			n++
		}
		if 1<<n != len(amplitudes) {
			return invalid("StatePrep", "amplitude count %d is not a power of two", len(amplitudes))
		}
		wires = wireRange(n)
	}
	if err := checkWires("StatePrep", wires); err != nil {
		return err
	}
	return s.emit(ir.StatePrep{Amplitudes: slices.Clone(amplitudes), Targets: slices.Clone(wires)})
}

// BasisState prepares the computational basis state bits on wires. With no
// wires the bitstring covers wires 0..len(bits)-1.
func (s *Session) BasisState(bits []int, wires ...int) error {
	if len(bits) == 0 {
		return invalid("BasisState", "expects a non-empty bitstring")
	}
	for i, b := range bits {
		if b != 0 && b != 1 {
			return invalid("BasisState", "bit %d must be 0 or 1, got %d", i, b)
		}
	}
	if len(wires) == 0 {
		wires = wireRange(len(bits))
	}
	if err := checkWires("BasisState", wires); err != nil {
		return err
	}
	if len(bits) != len(wires) {
		return invalid("BasisState", "state length %d must match number of wires %d", len(bits), len(wires))
	}
	return s.emit(ir.BasisState{Bits: slices.Clone(bits), Targets: slices.Clone(wires)})
}

// HartreeFock prepares the Hartree-Fock reference state on wires
// 0..orbitals-1. An empty encoding means occupation number.
func (s *Session) HartreeFock(electrons, orbitals int, encoding ir.Encoding) error {
	if encoding == "" {
		encoding = ir.EncodingOccupation
	}
	if orbitals <= 0 {
		return invalid("HartreeFock", "orbitals must be positive, got %d", orbitals)
	}
	if electrons <= 0 || electrons > orbitals {
		return invalid("HartreeFock", "electrons must be in [1, %d], got %d", orbitals, electrons)
	}
	if !ir.ValidEncodings[encoding] {
		return invalid("HartreeFock", "unknown encoding %q", encoding)
	}
	return s.emit(ir.HartreeFock{Electrons: electrons, Orbitals: orbitals, Basis: encoding})
}

// SingleExcitation applies a Givens rotation on exactly two wires.
func (s *Session) SingleExcitation(theta float64, wires ...int) error {
	return s.excitation(false, 2, theta, wires)
}

// DoubleExcitation applies a double excitation on exactly four wires.
func (s *Session) DoubleExcitation(theta float64, wires ...int) error {
	return s.excitation(true, 4, theta, wires)
}

func (s *Session) excitation(double bool, arity int, theta float64, wires []int) error {
	g := ir.Excitation{Double: double, Angle: theta, Targets: slices.Clone(wires)}
	op := string(g.Kind())
	if err := checkAngle(op, theta); err != nil {
		return err
	}
	if len(wires) != arity {
		return invalid(op, "requires exactly %d wires, got %d", arity, len(wires))
	}
	if err := checkWires(op, wires); err != nil {
		return err
	}
	return s.emit(g)
}

// Superpose applies H to each wire.
func (s *Session) Superpose(wires ...int) error {
	if err := checkWires("SUPERPOSE", wires); err != nil {
		return err
	}
	return s.H(wires...)
}

// Entangle applies CNOT(a, b).
func (s *Session) Entangle(a, b int) error { return s.CNOT(Pair{a, b}) }

// BellPhiPlus prepares (|00> + |11>)/sqrt2 on (a, b) from |00>.
func (s *Session) BellPhiPlus(a, b int) error {
	return s.bell(a, b, false, false)
}

// BellPhiMinus prepares (|00> - |11>)/sqrt2.
func (s *Session) BellPhiMinus(a, b int) error {
	return s.bell(a, b, true, false)
}

// BellPsiPlus prepares (|01> + |10>)/sqrt2.
func (s *Session) BellPsiPlus(a, b int) error {
	return s.bell(a, b, false, true)
}

// BellPsiMinus prepares (|01> - |10>)/sqrt2.
func (s *Session) BellPsiMinus(a, b int) error {
	return s.bell(a, b, true, true)
}

// bell builds H(a), CNOT(a, b) and then the phase and bit flips that select
// the Bell state. The sequence is validated before anything is appended.
func (s *Session) bell(a, b int, phase, flip bool) error {
	if err := checkWires("BELL", []int{a, b}); err != nil {
		return err
	}
	if a == b {
		return invalid("BELL", "wires must differ, got %d", a)
	}
	ops := []ir.Instruction{
		ir.Fixed{Name: ir.KindH, Targets: []int{a}},
		ir.Fixed{Name: ir.KindCNOT, Targets: []int{a, b}},
	}
	if phase {
		ops = append(ops, ir.Fixed{Name: ir.KindZ, Targets: []int{a}})
	}
	if flip {
		ops = append(ops, ir.Fixed{Name: ir.KindX, Targets: []int{b}})
	}
	return s.emit(ops...)
}

func wireRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

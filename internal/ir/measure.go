package ir

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// MeasureKind selects the shape of a measurement result.
type MeasureKind string

const (
	// MeasureState requests the full statevector.
	MeasureState MeasureKind = "state"

	// MeasureProbs requests basis-state probabilities over some wires.
	MeasureProbs MeasureKind = "probs"

	// MeasureExpval requests an expectation value.
	MeasureExpval MeasureKind = "expval"
)

// ValidMeasureKinds defines the recognized measurement kinds.
var ValidMeasureKinds = map[MeasureKind]bool{
	MeasureState:  true,
	MeasureProbs:  true,
	MeasureExpval: true,
}

// Observable tags a single-qubit observable.
// I is only meaningful as a factor inside a Hamiltonian term.
type Observable string

const (
	ObsI Observable = "I"
	ObsX Observable = "X"
	ObsY Observable = "Y"
	ObsZ Observable = "Z"
	ObsH Observable = "H"
)

// SingleQubit reports whether o may be measured on its own via
// MEASURE expval with a wire.
func (o Observable) SingleQubit() bool {
	switch o {
	case ObsX, ObsY, ObsZ, ObsH:
		return true
	}
	return false
}

func (o Observable) valid() bool {
	return o == ObsI || o.SingleQubit()
}

// Measurement is a terminal request for a result.
type Measurement interface {
	Instruction
	MeasureKind() MeasureKind
}

// State requests the full statevector. Targets is informational only;
// the result always covers the whole register.
type State struct {
	Targets []int
}

func (State) instruction()             {}
func (State) MeasureKind() MeasureKind { return MeasureState }
func (m State) Wires() []int           { return m.Targets }
func (m State) clone() Instruction     { return State{Targets: slices.Clone(m.Targets)} }
func (m State) canonical() map[string]any {
	return measureMap(MeasureState, m.Targets)
}

// Probabilities requests basis-state probabilities restricted to Targets.
type Probabilities struct {
	Targets []int
}

func (Probabilities) instruction()             {}
func (Probabilities) MeasureKind() MeasureKind { return MeasureProbs }
func (m Probabilities) Wires() []int           { return m.Targets }
func (m Probabilities) clone() Instruction {
	return Probabilities{Targets: slices.Clone(m.Targets)}
}
func (m Probabilities) canonical() map[string]any {
	return measureMap(MeasureProbs, m.Targets)
}

// Expectation requests an expectation value. Exactly one form is set:
// either Operator (a multi-term Hamiltonian, Target ignored) or a
// single-qubit Observable on Target.
type Expectation struct {
	Target     int
	Observable Observable
	Operator   *Hamiltonian
}

func (Expectation) instruction()             {}
func (Expectation) MeasureKind() MeasureKind { return MeasureExpval }

// Wires returns nil for the operator form; the operator carries its own wires.
func (m Expectation) Wires() []int {
	if m.Operator != nil {
		return nil
	}
	return []int{m.Target}
}

func (m Expectation) clone() Instruction {
	if m.Operator != nil {
		m.Operator = m.Operator.Clone()
	}
	return m
}

func (m Expectation) canonical() map[string]any {
	out := measureMap(MeasureExpval, m.Wires())
	if m.Operator != nil {
		out["operator"] = m.Operator.canonical()
	} else {
		out["observable"] = string(m.Observable)
	}
	return out
}

// AsHamiltonian returns the operator to evaluate: Operator itself, or a
// one-term Hamiltonian wrapping the single-qubit observable.
func (m Expectation) AsHamiltonian() *Hamiltonian {
	if m.Operator != nil {
		return m.Operator
	}
	return &Hamiltonian{Terms: []Term{{
		Coeff:   1,
		Factors: []Factor{{Wire: m.Target, Observable: m.Observable}},
	}}}
}

func measureMap(kind MeasureKind, wires []int) map[string]any {
	return map[string]any{
		"op":    "MEASURE",
		"kind":  string(kind),
		"wires": intsToAny(wires),
	}
}

// Hamiltonian is a real linear combination of tensor products of
// single-qubit observables.
type Hamiltonian struct {
	Terms []Term `json:"terms" yaml:"terms"`
}

// Term is Coeff times the tensor product of its factors.
// An empty factor list is the identity.
type Term struct {
	Coeff   float64  `json:"coeff" yaml:"coeff"`
	Factors []Factor `json:"factors" yaml:"factors"`
}

// Factor places an observable on one wire.
type Factor struct {
	Wire       int        `json:"wire" yaml:"wire"`
	Observable Observable `json:"obs" yaml:"obs"`
}

// Wires returns the sorted set of wires the operator acts on.
func (h *Hamiltonian) Wires() []int {
	var wires []int
	for _, t := range h.Terms {
		for _, f := range t.Factors {
			wires = append(wires, f.Wire)
		}
	}
	slices.Sort(wires)
	return slices.Compact(wires)
}

// Validate checks the operator's shape.
func (h *Hamiltonian) Validate() error {
	if h == nil || len(h.Terms) == 0 {
		return Errorf(ErrCodeValidation, "operator", "operator must have at least one term")
	}
	for i, t := range h.Terms {
		if math.IsNaN(t.Coeff) || math.IsInf(t.Coeff, 0) {
			return Errorf(ErrCodeValidation, "operator", "term %d: coefficient must be finite", i)
		}
		seen := make(map[int]bool, len(t.Factors))
		for _, f := range t.Factors {
			if f.Wire < 0 {
				return Errorf(ErrCodeValidation, "operator", "term %d: negative wire %d", i, f.Wire)
			}
			if !f.Observable.valid() {
				return Errorf(ErrCodeValidation, "operator", "term %d: unknown observable %q", i, f.Observable)
			}
			if seen[f.Wire] {
				return Errorf(ErrCodeValidation, "operator", "term %d: wire %d appears twice", i, f.Wire)
			}
			seen[f.Wire] = true
		}
	}
	return nil
}

// Clone returns a deep copy.
func (h *Hamiltonian) Clone() *Hamiltonian {
	out := &Hamiltonian{Terms: make([]Term, len(h.Terms))}
	for i, t := range h.Terms {
		out.Terms[i] = Term{Coeff: t.Coeff, Factors: slices.Clone(t.Factors)}
	}
	return out
}

// String renders the operator as e.g. "0.5 * Z0 Z1 + -1 * X0".
func (h *Hamiltonian) String() string {
	parts := make([]string, len(h.Terms))
	for i, t := range h.Terms {
		if len(t.Factors) == 0 {
			parts[i] = fmt.Sprintf("%g * I", t.Coeff)
			continue
		}
		factors := make([]string, len(t.Factors))
		for j, f := range t.Factors {
			factors[j] = fmt.Sprintf("%s%d", f.Observable, f.Wire)
		}
		parts[i] = fmt.Sprintf("%g * %s", t.Coeff, strings.Join(factors, " "))
	}
	return strings.Join(parts, " + ")
}

func (h *Hamiltonian) canonical() []any {
	terms := make([]any, len(h.Terms))
	for i, t := range h.Terms {
		factors := make([]any, len(t.Factors))
		for j, f := range t.Factors {
			factors[j] = map[string]any{"wire": f.Wire, "obs": string(f.Observable)}
		}
		terms[i] = map[string]any{"coeff": t.Coeff, "factors": factors}
	}
	return terms
}

package compiler

import (
	"encoding/json"
	"math/cmplx"

	"github.com/roach88/qdsl/internal/ir"
)

// Value is one measurement result: StateVector, Probabilities or
// Expectation.
type Value interface {
	MeasureKind() ir.MeasureKind
}

// StateVector is the full register state.
type StateVector []complex128

// MeasureKind implements Value.
func (StateVector) MeasureKind() ir.MeasureKind { return ir.MeasureState }

// Probabilities are basis-state probabilities over the measured wires.
type Probabilities []float64

// MeasureKind implements Value.
func (Probabilities) MeasureKind() ir.MeasureKind { return ir.MeasureProbs }

// Expectation is a scalar expectation value.
type Expectation float64

// MeasureKind implements Value.
func (Expectation) MeasureKind() ir.MeasureKind { return ir.MeasureExpval }

// Probabilities returns |amplitude|^2 for each basis state.
func (s StateVector) Probabilities() Probabilities {
	probs := make(Probabilities, len(s))
	for i, a := range s {
		abs := cmplx.Abs(a)
		probs[i] = abs * abs
	}
	return probs
}

// MarshalJSON renders amplitudes as [re, im] pairs.
func (s StateVector) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(s))
	for i, a := range s {
		pairs[i] = [2]float64{real(a), imag(a)}
	}
	return json.Marshal(pairs)
}

// Result holds the measurement results in measurement order.
type Result struct {
	Values []Value
}

// Single returns the only value when exactly one measurement was present.
func (r *Result) Single() (Value, bool) {
	if len(r.Values) != 1 {
		return nil, false
	}
	return r.Values[0], true
}

// IsTuple reports whether the result is an ordered tuple of values.
func (r *Result) IsTuple() bool { return len(r.Values) > 1 }

// MarshalJSON renders a single value as itself and a tuple as an array.
func (r *Result) MarshalJSON() ([]byte, error) {
	if v, ok := r.Single(); ok {
		return json.Marshal(v)
	}
	return json.Marshal(r.Values)
}

package circuit

import (
	"slices"

	"github.com/roach88/qdsl/internal/ir"
)

// MeasureOption configures an expval measurement.
type MeasureOption func(*measureConfig)

type measureConfig struct {
	observable ir.Observable
	operator   *ir.Hamiltonian
}

// WithObservable measures a single-qubit observable (X, Y, Z or H).
func WithObservable(o ir.Observable) MeasureOption {
	return func(c *measureConfig) { c.observable = o }
}

// WithOperator measures a multi-term operator. Wires are taken from the
// operator.
func WithOperator(h *ir.Hamiltonian) MeasureOption {
	return func(c *measureConfig) { c.operator = h }
}

// Measure appends a measurement of the given kind.
//
//	state   wires optional, result covers the full register
//	probs   at least one wire
//	expval  WithOperator (wires ignored), or one wire plus WithObservable
func (s *Session) Measure(kind ir.MeasureKind, wires []int, opts ...MeasureOption) error {
	var cfg measureConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	for _, w := range wires {
		if w < 0 {
			return invalid("MEASURE", "wire must be non-negative, got %d", w)
		}
	}

	switch kind {
	case ir.MeasureState:
		return s.emit(ir.State{Targets: slices.Clone(wires)})

	case ir.MeasureProbs:
		if len(wires) == 0 {
			return invalid("MEASURE", "probs expects at least one wire")
		}
		return s.emit(ir.Probabilities{Targets: slices.Clone(wires)})

	case ir.MeasureExpval:
		if cfg.operator != nil {
			if cfg.observable != "" {
				return ir.Errorf(ir.ErrCodeStructural, "MEASURE", "expval takes an operator or an observable, not both")
			}
			if err := cfg.operator.Validate(); err != nil {
				return err
			}
			return s.emit(ir.Expectation{Operator: cfg.operator.Clone()})
		}
		if len(wires) != 1 {
			return ir.Errorf(ir.ErrCodeStructural, "MEASURE",
				"expval expects exactly one wire when no operator is given, got %d", len(wires))
		}
		if !cfg.observable.SingleQubit() {
			return ir.Errorf(ir.ErrCodeStructural, "MEASURE",
				"expval requires observable X, Y, Z or H, got %q", cfg.observable)
		}
		return s.emit(ir.Expectation{Target: wires[0], Observable: cfg.observable})
	}
	return invalid("MEASURE", "kind must be state, probs or expval, got %q", kind)
}

// MeasureState requests the full statevector.
func (s *Session) MeasureState(wires ...int) error {
	return s.Measure(ir.MeasureState, wires)
}

// MeasureProbs requests basis-state probabilities over wires.
func (s *Session) MeasureProbs(wires ...int) error {
	return s.Measure(ir.MeasureProbs, wires)
}

// MeasureExpval requests the expectation of a single-qubit observable.
func (s *Session) MeasureExpval(o ir.Observable, wire int) error {
	return s.Measure(ir.MeasureExpval, []int{wire}, WithObservable(o))
}

// MeasureOperator requests the expectation of a multi-term operator.
func (s *Session) MeasureOperator(h *ir.Hamiltonian) error {
	return s.Measure(ir.MeasureExpval, nil, WithOperator(h))
}

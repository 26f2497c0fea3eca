package compiler

import (
	"context"
	"fmt"

	"github.com/roach88/qdsl/internal/backend"
	"github.com/roach88/qdsl/internal/ir"
)

// Executable is a lowered program bound to a backend.
// It is immutable and may be run any number of times; each run uses a
// fresh device.
type Executable struct {
	width        int
	backend      backend.Backend
	steps        []step
	measurements []ir.Measurement
	hash         string
}

// Width returns the register width.
func (e *Executable) Width() int { return e.width }

// Hash returns the program hash the executable was lowered from.
func (e *Executable) Hash() string { return e.hash }

// Steps returns the number of lowered gate steps.
func (e *Executable) Steps() int { return len(e.steps) }

// Backend returns the backend the executable is bound to.
func (e *Executable) Backend() backend.Backend { return e.backend }

// Shape returns the measurement kinds in result order, without running.
func (e *Executable) Shape() []ir.MeasureKind {
	shape := make([]ir.MeasureKind, len(e.measurements))
	for i, m := range e.measurements {
		shape[i] = m.MeasureKind()
	}
	return shape
}

// Run replays the program on a fresh device and collects the results.
// ctx is checked between steps.
func (e *Executable) Run(ctx context.Context) (*Result, error) {
	dev, err := e.backend.Open(ctx, e.width)
	if err != nil {
		return nil, fmt.Errorf("run: open %s device: %w", e.backend.Name(), err)
	}

	for i, s := range e.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.run(dev); err != nil {
			return nil, fmt.Errorf("run: step %d (%s): %w", i, s.kind, err)
		}
	}

	result := &Result{Values: make([]Value, 0, len(e.measurements))}
	for i, m := range e.measurements {
		v, err := measure(dev, m)
		if err != nil {
			return nil, fmt.Errorf("run: measurement %d (%s): %w", i, m.MeasureKind(), err)
		}
		result.Values = append(result.Values, v)
	}
	return result, nil
}

func measure(dev backend.Device, m ir.Measurement) (Value, error) {
	switch v := m.(type) {
	case ir.State:
		state, err := dev.State()
		return StateVector(state), err
	case ir.Probabilities:
		probs, err := dev.Probabilities(v.Targets)
		return Probabilities(probs), err
	case ir.Expectation:
		ev, err := dev.Expectation(v.AsHamiltonian())
		return Expectation(ev), err
	}
	return nil, fmt.Errorf("unsupported measurement %T", m)
}

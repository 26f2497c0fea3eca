package compiler

import (
	"fmt"
	"log/slog"

	"github.com/roach88/qdsl/internal/backend"
	"github.com/roach88/qdsl/internal/chem"
	"github.com/roach88/qdsl/internal/ir"
)

// Compiler lowers programs for one backend.
type Compiler struct {
	backend backend.Backend
	table   backend.Table
	logger  *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// New creates a compiler targeting b.
func New(b backend.Backend, opts ...Option) *Compiler {
	c := &Compiler{backend: b, table: b.Gates(), logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the target backend.
func (c *Compiler) Backend() backend.Backend { return c.backend }

// Known reports whether kind is in the backend table.
func (c *Compiler) Known(kind ir.GateKind) bool { return c.table.Has(kind) }

// step is one lowered gate.
type step struct {
	kind ir.GateKind
	run  func(backend.Device) error
}

// Lower translates p into an Executable.
//
// p is copied first, so later changes to p do not affect the executable.
// Lower does not run canonicalization; callers that need range checks run
// ir.Canonicalize beforehand (circuit.Program.Compile does).
func (c *Compiler) Lower(p *ir.Program) (*Executable, error) {
	if p == nil || p.Width <= 0 {
		return nil, ir.Errorf(ir.ErrCodeStructural, "lower", "program must have a positive width")
	}
	frozen := p.Clone()

	exe := &Executable{width: frozen.Width, backend: c.backend}
	for i, op := range frozen.Ops {
		switch v := op.(type) {
		case ir.Gate:
			s, err := c.lowerGate(i, v)
			if err != nil {
				return nil, err
			}
			exe.steps = append(exe.steps, s)
		case ir.Measurement:
			exe.measurements = append(exe.measurements, v)
		default:
			return nil, ir.Errorf(ir.ErrCodeStructural, "lower", "instruction %d: unsupported instruction %T", i, op)
		}
	}

	if len(exe.measurements) == 0 {
		return nil, ir.Errorf(ir.ErrCodeNoMeasurement, "lower", "program has no MEASURE instruction")
	}
	if len(exe.measurements) > 1 {
		for _, m := range exe.measurements {
			if m.MeasureKind() == ir.MeasureState {
				return nil, ir.Errorf(ir.ErrCodeStructural, "lower",
					"state measurement cannot be combined with other measurements")
			}
		}
	}
	for i, m := range exe.measurements {
		if e, ok := m.(ir.Expectation); ok {
			if err := e.AsHamiltonian().Validate(); err != nil {
				return nil, ir.Errorf(ir.ErrCodeStructural, "lower", "measurement %d: %v", i, err)
			}
		}
	}

	hash, err := ir.ProgramHash(frozen)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}
	exe.hash = hash

	c.logger.Debug("program lowered",
		"backend", c.backend.Name(),
		"width", exe.width,
		"steps", len(exe.steps),
		"measurements", len(exe.measurements),
		"hash", hash,
	)
	return exe, nil
}

func (c *Compiler) lowerGate(idx int, g ir.Gate) (step, error) {
	entry, err := c.table.Lookup(g.Kind())
	if err != nil {
		return step{}, err
	}
	wires := g.Wires()

	switch v := g.(type) {
	case ir.Fixed:
		return c.lowerUnitary(idx, entry, nil, wires)

	case ir.Rotation:
		return c.lowerUnitary(idx, entry, []float64{v.Angle}, wires)

	case ir.Excitation:
		if len(wires) != v.Arity() {
			return step{}, structural(idx, "%s requires exactly %d wires, got %d", v.Kind(), v.Arity(), len(wires))
		}
		return c.lowerUnitary(idx, entry, []float64{v.Angle}, wires)

	case ir.Controlled:
		if len(v.Controls) == 0 {
			return step{}, structural(idx, "CTRL requires at least one control wire")
		}
		base, err := c.table.Lookup(v.Base)
		if err != nil {
			return step{}, err
		}
		if base.Unitary == nil || base.Wires != 1 || base.Params != 0 {
			return step{}, structural(idx, "CTRL base %q must be a parameterless single-wire gate", v.Base)
		}
		u := base.Unitary(nil)
		controls, target := v.Controls, []int{v.Target}
		return step{kind: ir.KindCTRL, run: func(d backend.Device) error {
			return d.ApplyControlled(u, controls, target)
		}}, nil

	case ir.StatePrep:
		if len(v.Amplitudes) != 1<<len(wires) {
			return step{}, structural(idx, "StatePrep needs %d amplitudes for %d wire(s), got %d",
				1<<len(wires), len(wires), len(v.Amplitudes))
		}
		amps := v.Amplitudes
		return step{kind: ir.KindStatePrep, run: func(d backend.Device) error {
			return d.Prepare(amps, wires)
		}}, nil

	case ir.BasisState:
		amps, err := basisAmplitudes(v.Bits, len(wires))
		if err != nil {
			return step{}, structural(idx, "%v", err)
		}
		return step{kind: ir.KindBasisState, run: func(d backend.Device) error {
			return d.Prepare(amps, wires)
		}}, nil

	case ir.HartreeFock:
		bits, err := chem.HFState(v.Electrons, v.Orbitals, v.Basis)
		if err != nil {
			return step{}, structural(idx, "%v", err)
		}
		amps, err := basisAmplitudes(bits, len(wires))
		if err != nil {
			return step{}, structural(idx, "%v", err)
		}
		return step{kind: ir.KindHartreeFock, run: func(d backend.Device) error {
			return d.Prepare(amps, wires)
		}}, nil
	}
	return step{}, structural(idx, "unsupported gate %T", g)
}

// lowerUnitary handles table gates whose entry carries a unitary. The
// entry's Controls leading wires become controls.
func (c *Compiler) lowerUnitary(idx int, entry backend.Gate, params []float64, wires []int) (step, error) {
	if entry.Unitary == nil {
		return step{}, structural(idx, "%s has no unitary in the %s table", entry.Name, c.backend.Name())
	}
	if len(params) != entry.Params {
		return step{}, structural(idx, "%s expects %d parameter(s), got %d", entry.Name, entry.Params, len(params))
	}
	if len(wires) != entry.Wires {
		return step{}, structural(idx, "%s acts on %d wire(s), got %d", entry.Name, entry.Wires, len(wires))
	}
	u := entry.Unitary(params)
	controls, targets := wires[:entry.Controls], wires[entry.Controls:]
	if len(controls) == 0 {
		return step{kind: entry.Name, run: func(d backend.Device) error {
			return d.Apply(u, targets)
		}}, nil
	}
	return step{kind: entry.Name, run: func(d backend.Device) error {
		return d.ApplyControlled(u, controls, targets)
	}}, nil
}

// basisAmplitudes turns a bitstring (first bit most significant) into a
// one-hot amplitude vector.
func basisAmplitudes(bits []int, wires int) ([]complex128, error) {
	if len(bits) != wires {
		return nil, fmt.Errorf("basis state length %d must match number of wires %d", len(bits), wires)
	}
	idx := 0
	for _, b := range bits {
		if b != 0 && b != 1 {
			return nil, fmt.Errorf("basis state entries must be 0 or 1, got %d", b)
		}
		idx = idx<<1 | b
	}
	amps := make([]complex128, 1<<wires)
	amps[idx] = 1
	return amps, nil
}

func structural(idx int, format string, args ...any) *ir.Error {
	return ir.Errorf(ir.ErrCodeStructural, "lower", "instruction %d: %s", idx, fmt.Sprintf(format, args...))
}

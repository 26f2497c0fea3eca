package loader

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/qdsl/internal/circuit"
	"github.com/roach88/qdsl/internal/ir"
)

// Build registers the file's blocks with s and replays its ops into a new
// program. Blocks already registered under the same name keep their first
// definition.
func (f *File) Build(s *circuit.Session) (*circuit.Program, error) {
	if err := checkBlockCycles(f.Blocks); err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(f.Blocks) {
		spec := f.Blocks[name]
		err := s.Block(name, spec.block(name))
		if err != nil && !ir.IsDuplicateBlock(err) {
			return nil, err
		}
	}

	p, err := s.Prepare(f.Width)
	if err != nil {
		return nil, err
	}
	err = s.Within(p, func() error {
		for i, op := range f.Ops {
			if err := apply(s, op, nil); err != nil {
				return fmt.Errorf("ops[%d]: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b BlockSpec) block(name string) circuit.Block {
	return func(s *circuit.Session, args circuit.Args) error {
		for _, param := range b.Params {
			if _, ok := args[param]; !ok {
				return ir.Errorf(ir.ErrCodeValidation, "block", "%s: missing argument %q", name, param)
			}
		}
		for i, op := range b.Ops {
			if err := apply(s, op, args); err != nil {
				return fmt.Errorf("ops[%d]: %w", i, err)
			}
		}
		return nil
	}
}

// apply dispatches one op spec onto the session.
func apply(s *circuit.Session, op OpSpec, args circuit.Args) error {
	set := 0
	for _, v := range []string{op.Gate, op.Use, op.Measure} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return ir.Errorf(ir.ErrCodeValidation, "load", "op must set exactly one of gate, use, measure")
	}

	switch {
	case op.Use != "":
		return applyUse(s, op, args)
	case op.Measure != "":
		return applyMeasure(s, op, args)
	}
	return applyGate(s, op, args)
}

func applyUse(s *circuit.Session, op OpSpec, args circuit.Args) error {
	name, err := resolveString(op.Use, args)
	if err != nil {
		return err
	}
	inner := make(circuit.Args, len(op.Args))
	for k, v := range op.Args {
		if ref, ok := paramRef(v); ok {
			if v, ok = args[ref]; !ok {
				return ir.Errorf(ir.ErrCodeValidation, "load", "unbound parameter $%s", ref)
			}
		}
		inner[k] = v
	}
	return s.Use(name, inner)
}

func applyMeasure(s *circuit.Session, op OpSpec, args circuit.Args) error {
	wires, err := resolveWires(op.Wires, args)
	if err != nil {
		return err
	}
	var opts []circuit.MeasureOption
	if op.Observable != "" {
		opts = append(opts, circuit.WithObservable(ir.Observable(op.Observable)))
	}
	if op.Operator != nil {
		opts = append(opts, circuit.WithOperator(op.Operator))
	}
	return s.Measure(ir.MeasureKind(op.Measure), wires, opts...)
}

func applyGate(s *circuit.Session, op OpSpec, args circuit.Args) error {
	wires, err := resolveWires(op.Wires, args)
	if err != nil {
		return err
	}

	switch kind := ir.GateKind(op.Gate); kind {
	case ir.KindH:
		return s.H(wires...)
	case ir.KindX:
		return s.X(wires...)
	case ir.KindY:
		return s.Y(wires...)
	case ir.KindZ:
		return s.Z(wires...)
	case ir.KindS:
		return s.S(wires...)
	case ir.KindT:
		return s.T(wires...)

	case ir.KindSWAP, ir.KindCNOT, ir.KindCZ, ir.KindCY:
		pairs, err := resolvePairs(op, wires, args)
		if err != nil {
			return err
		}
		switch kind {
		case ir.KindSWAP:
			return s.SWAP(pairs...)
		case ir.KindCNOT:
			return s.CNOT(pairs...)
		case ir.KindCZ:
			return s.CZ(pairs...)
		}
		return s.CY(pairs...)

	case ir.KindRX, ir.KindRY, ir.KindRZ:
		theta, err := resolveAngle(op.Angle, args)
		if err != nil {
			return err
		}
		if len(wires) != 1 {
			return ir.Errorf(ir.ErrCodeValidation, op.Gate, "expects exactly one wire, got %d", len(wires))
		}
		switch kind {
		case ir.KindRX:
			return s.RX(theta, wires[0])
		case ir.KindRY:
			return s.RY(theta, wires[0])
		}
		return s.RZ(theta, wires[0])

	case ir.KindCRX, ir.KindCRY, ir.KindCRZ:
		theta, err := resolveAngle(op.Angle, args)
		if err != nil {
			return err
		}
		if len(wires) != 2 {
			return ir.Errorf(ir.ErrCodeValidation, op.Gate, "expects [control, target], got %d wires", len(wires))
		}
		switch kind {
		case ir.KindCRX:
			return s.CRX(theta, wires[0], wires[1])
		case ir.KindCRY:
			return s.CRY(theta, wires[0], wires[1])
		}
		return s.CRZ(theta, wires[0], wires[1])

	case ir.KindCTRL:
		controls, err := resolveWires(op.Controls, args)
		if err != nil {
			return err
		}
		if op.Target == nil {
			return ir.Errorf(ir.ErrCodeValidation, "CTRL", "target is required")
		}
		target, err := resolveInt(op.Target, args)
		if err != nil {
			return err
		}
		return s.Ctrl(ir.GateKind(op.Base), controls, target)

	case ir.KindStatePrep:
		amps, err := amplitudes(op.Amplitudes)
		if err != nil {
			return err
		}
		return s.StatePrep(amps, wires...)

	case ir.KindBasisState:
		return s.BasisState(op.Bits, wires...)

	case ir.KindHartreeFock:
		return s.HartreeFock(op.Electrons, op.Orbitals, ir.Encoding(op.Encoding))

	case ir.KindSingleExcitation, ir.KindDoubleExcitation:
		theta, err := resolveAngle(op.Angle, args)
		if err != nil {
			return err
		}
		if kind == ir.KindSingleExcitation {
			return s.SingleExcitation(theta, wires...)
		}
		return s.DoubleExcitation(theta, wires...)
	}

	switch strings.ToUpper(op.Gate) {
	case "SUPERPOSE":
		return s.Superpose(wires...)
	case "ENTANGLE":
		if len(wires) != 2 {
			return ir.Errorf(ir.ErrCodeValidation, "ENTANGLE", "expects two wires, got %d", len(wires))
		}
		return s.Entangle(wires[0], wires[1])
	case "BELL_PHI_PLUS", "BELL_PHI_MINUS", "BELL_PSI_PLUS", "BELL_PSI_MINUS":
		if len(wires) != 2 {
			return ir.Errorf(ir.ErrCodeValidation, op.Gate, "expects two wires, got %d", len(wires))
		}
		return bell(s, strings.ToUpper(op.Gate), wires[0], wires[1])
	}

	// Anything else is appended verbatim; canonicalization decides whether
	// the backend knows it.
	p, err := s.Current()
	if err != nil {
		return err
	}
	return p.Append(ir.Fixed{Name: ir.GateKind(op.Gate), Targets: wires})
}

func bell(s *circuit.Session, name string, a, b int) error {
	switch name {
	case "BELL_PHI_PLUS":
		return s.BellPhiPlus(a, b)
	case "BELL_PHI_MINUS":
		return s.BellPhiMinus(a, b)
	case "BELL_PSI_PLUS":
		return s.BellPsiPlus(a, b)
	}
	return s.BellPsiMinus(a, b)
}

func resolvePairs(op OpSpec, wires []int, args circuit.Args) ([]circuit.Pair, error) {
	if len(op.Pairs) == 0 {
		// A flat wires list is one pair.
		if len(wires) != 2 {
			return nil, ir.Errorf(ir.ErrCodeValidation, op.Gate, "expects pairs or exactly two wires")
		}
		return []circuit.Pair{{wires[0], wires[1]}}, nil
	}
	pairs := make([]circuit.Pair, len(op.Pairs))
	for i, raw := range op.Pairs {
		ws, err := resolveWires(raw, args)
		if err != nil {
			return nil, err
		}
		if len(ws) != 2 {
			return nil, ir.Errorf(ir.ErrCodeValidation, op.Gate, "pair %d must have two wires, got %d", i, len(ws))
		}
		pairs[i] = circuit.Pair{ws[0], ws[1]}
	}
	return pairs, nil
}

func amplitudes(raw []any) ([]complex128, error) {
	out := make([]complex128, len(raw))
	for i, v := range raw {
		if pair, ok := v.([]any); ok {
			if len(pair) != 2 {
				return nil, ir.Errorf(ir.ErrCodeValidation, "StatePrep", "amplitude %d must be [re, im]", i)
			}
			re, err := toFloat(pair[0])
			if err != nil {
				return nil, err
			}
			im, err := toFloat(pair[1])
			if err != nil {
				return nil, err
			}
			out[i] = complex(re, im)
			continue
		}
		re, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		out[i] = complex(re, 0)
	}
	return out, nil
}

// paramRef reports whether v is a "$name" reference.
func paramRef(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return "", false
	}
	return s[1:], true
}

func resolveInt(v any, args circuit.Args) (int, error) {
	if ref, ok := paramRef(v); ok {
		return args.Int(ref)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, ir.Errorf(ir.ErrCodeValidation, "load", "wire must be an integer, got %v", v)
	}
	return int(f), nil
}

func resolveWires(raw []any, args circuit.Args) ([]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	wires := make([]int, len(raw))
	for i, v := range raw {
		w, err := resolveInt(v, args)
		if err != nil {
			return nil, err
		}
		wires[i] = w
	}
	return wires, nil
}

func resolveAngle(v any, args circuit.Args) (float64, error) {
	if v == nil {
		return 0, ir.Errorf(ir.ErrCodeValidation, "load", "angle is required")
	}
	if ref, ok := paramRef(v); ok {
		return args.Float(ref)
	}
	return toFloat(v)
}

func resolveString(s string, args circuit.Args) (string, error) {
	if ref, ok := paramRef(s); ok {
		return args.String(ref)
	}
	return s, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, ir.Errorf(ir.ErrCodeValidation, "load", "expected a number, got %v", v)
}

func sortedKeys(m map[string]BlockSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

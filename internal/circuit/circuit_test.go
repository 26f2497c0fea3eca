package circuit

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qdsl/internal/blocks"
	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/ir"
	"github.com/roach88/qdsl/internal/sim"
	"github.com/roach88/qdsl/internal/testutil"
)

const tol = 1e-9

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(opts ...Option) *Session {
	return NewSession(append([]Option{WithLogger(quietLogger())}, opts...)...)
}

// build prepares a program of width and runs fn inside it.
func build(t *testing.T, s *Session, width int, fn func() error) *Program {
	t.Helper()
	p, err := s.Prepare(width)
	require.NoError(t, err)
	require.NoError(t, s.Within(p, fn))
	return p
}

func TestPrepare(t *testing.T) {
	s := newSession()

	p, err := s.Prepare(3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Width())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, s.Depth(), "Prepare does not make the program current")

	for _, width := range []int{0, -1} {
		_, err := s.Prepare(width)
		assert.True(t, ir.IsValidation(err), "width %d", width)
	}
}

func TestBuilderWithoutProgram(t *testing.T) {
	s := newSession()
	err := s.H(0)
	assert.True(t, ir.IsNoActiveProgram(err))

	_, err = s.Current()
	assert.True(t, ir.IsNoActiveProgram(err))
}

func TestOneInstructionPerApplication(t *testing.T) {
	s := newSession()
	p := build(t, s, 4, func() error {
		require.NoError(t, s.H(0, 1, 2))
		require.NoError(t, s.CNOT(Pair{0, 3}, Pair{1, 3}))
		require.NoError(t, s.Ctrl(ir.KindX, []int{0, 1, 2}, 3))
		return s.MeasureProbs(3)
	})

	prog := p.IR()
	require.Len(t, prog.Ops, 7)
	assert.Equal(t, []int{0}, prog.Ops[0].Wires())
	assert.Equal(t, []int{2}, prog.Ops[2].Wires())
	assert.Equal(t, []int{0, 3}, prog.Ops[3].Wires())
	assert.Equal(t, []int{1, 3}, prog.Ops[4].Wires())
	assert.Equal(t, []int{0, 1, 2, 3}, prog.Ops[5].Wires())
	assert.Equal(t, ir.KindCTRL, prog.Ops[5].(ir.Gate).Kind())
}

func TestValidationAppendsNothing(t *testing.T) {
	tests := []struct {
		name  string
		call  func(s *Session) error
		check func(error) bool
	}{
		{"no wires", func(s *Session) error { return s.H() }, ir.IsValidation},
		{"negative wire", func(s *Session) error { return s.X(0, -1) }, ir.IsValidation},
		{"no pairs", func(s *Session) error { return s.SWAP() }, ir.IsValidation},
		{"repeated pair wire", func(s *Session) error { return s.CNOT(Pair{0, 1}, Pair{1, 1}) }, ir.IsValidation},
		{"nan angle", func(s *Session) error { return s.RX(math.NaN(), 0) }, ir.IsValidation},
		{"inf angle", func(s *Session) error { return s.CRZ(math.Inf(1), 0, 1) }, ir.IsValidation},
		{"ctrl without controls", func(s *Session) error { return s.Ctrl(ir.KindX, nil, 1) }, ir.IsValidation},
		{"ctrl target is control", func(s *Session) error { return s.Ctrl(ir.KindX, []int{1}, 1) }, ir.IsValidation},
		{"basis length mismatch", func(s *Session) error { return s.BasisState([]int{1, 0}, 0) }, ir.IsValidation},
		{"basis non-bit", func(s *Session) error { return s.BasisState([]int{2}) }, ir.IsValidation},
		{"stateprep not power of two", func(s *Session) error { return s.StatePrep([]complex128{1, 0, 0}) }, ir.IsValidation},
		{"single excitation arity", func(s *Session) error { return s.SingleExcitation(0.1, 0, 1, 2) }, ir.IsValidation},
		{"double excitation arity", func(s *Session) error { return s.DoubleExcitation(0.1, 0, 1) }, ir.IsValidation},
		{"hartree fock electrons", func(s *Session) error { return s.HartreeFock(5, 4, "") }, ir.IsValidation},
		{"hartree fock encoding", func(s *Session) error { return s.HartreeFock(2, 4, "jordan") }, ir.IsValidation},
		{"measure kind", func(s *Session) error { return s.Measure("sample", []int{0}) }, ir.IsValidation},
		{"probs without wires", func(s *Session) error { return s.MeasureProbs() }, ir.IsValidation},
		{"expval without observable", func(s *Session) error { return s.Measure(ir.MeasureExpval, []int{0}) }, ir.IsStructural},
		{"expval two wires", func(s *Session) error {
			return s.Measure(ir.MeasureExpval, []int{0, 1}, WithObservable(ir.ObsZ))
		}, ir.IsStructural},
		{"expval observable and operator", func(s *Session) error {
			h := &ir.Hamiltonian{Terms: []ir.Term{{Coeff: 1, Factors: []ir.Factor{{Wire: 0, Observable: ir.ObsZ}}}}}
			return s.Measure(ir.MeasureExpval, nil, WithOperator(h), WithObservable(ir.ObsZ))
		}, ir.IsStructural},
		{"empty operator", func(s *Session) error { return s.MeasureOperator(&ir.Hamiltonian{}) }, ir.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession()
			p, err := s.Prepare(4)
			require.NoError(t, err)

			err = s.Within(p, func() error { return tt.call(s) })
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Equal(t, 0, p.Len())
		})
	}
}

func TestNestedScopesAreLIFO(t *testing.T) {
	s := newSession()
	outer, err := s.Prepare(2)
	require.NoError(t, err)
	inner, err := s.Prepare(1)
	require.NoError(t, err)

	err = s.Within(outer, func() error {
		require.NoError(t, s.H(0))
		require.NoError(t, s.Within(inner, func() error {
			assert.Equal(t, 2, s.Depth())
			return s.X(0)
		}))
		cur, err := s.Current()
		require.NoError(t, err)
		assert.Same(t, outer, cur)
		return s.Z(1)
	})
	require.NoError(t, err)

	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, 2, outer.Len())
	assert.Equal(t, 1, inner.Len())
}

func TestWithinPopsOnPanic(t *testing.T) {
	s := newSession()
	p, err := s.Prepare(1)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = s.Within(p, func() error { panic("boom") })
	})
	assert.Equal(t, 0, s.Depth())
}

func TestEnterOutOfOrderPanics(t *testing.T) {
	s := newSession()
	a, _ := s.Prepare(1)
	b, _ := s.Prepare(1)

	exitA := s.Enter(a)
	exitB := s.Enter(b)
	assert.Panics(t, exitA)
	exitB()
	exitA()
	assert.Equal(t, 0, s.Depth())
}

func TestFirstBlockWins(t *testing.T) {
	s := newSession()
	require.NoError(t, s.Block("flip", func(s *Session, a Args) error {
		w, err := a.Int("w")
		if err != nil {
			return err
		}
		return s.X(w)
	}))
	err := s.Block("flip", func(s *Session, a Args) error {
		w, err := a.Int("w")
		if err != nil {
			return err
		}
		return s.Z(w)
	})
	assert.True(t, ir.IsDuplicateBlock(err))

	p := build(t, s, 1, func() error { return s.Use("flip", Args{"w": 0}) })
	prog := p.IR()
	require.Len(t, prog.Ops, 1)
	assert.Equal(t, ir.KindX, prog.Ops[0].(ir.Gate).Kind())
}

func TestUseErrors(t *testing.T) {
	s := newSession()
	require.NoError(t, s.Block("noop", func(*Session, Args) error { return nil }))

	err := s.Use("noop", nil)
	assert.True(t, ir.IsNoActiveProgram(err))

	p, _ := s.Prepare(1)
	err = s.Within(p, func() error { return s.Use("missing", nil) })
	assert.True(t, ir.IsUnknownBlock(err))

	err = s.Block("", func(*Session, Args) error { return nil })
	assert.True(t, ir.IsValidation(err))
}

func TestFailedUseAppendsNothing(t *testing.T) {
	s := newSession()
	require.NoError(t, s.Block("broken", func(s *Session, _ Args) error {
		if err := s.H(0); err != nil {
			return err
		}
		return s.X(-1)
	}))
	require.NoError(t, s.Block("outer", func(s *Session, _ Args) error {
		if err := s.Z(0); err != nil {
			return err
		}
		return s.Use("broken", nil)
	}))

	p, err := s.Prepare(1)
	require.NoError(t, err)
	err = s.Within(p, func() error {
		require.NoError(t, s.T(0))
		assert.True(t, ir.IsValidation(s.Use("broken", nil)))
		assert.True(t, ir.IsValidation(s.Use("outer", nil)))
		return nil
	})
	require.NoError(t, err)

	prog := p.IR()
	require.Len(t, prog.Ops, 1)
	assert.Equal(t, ir.KindT, prog.Ops[0].(ir.Gate).Kind())
}

func TestRecursiveBlockHitsDepthLimit(t *testing.T) {
	s := newSession()
	require.NoError(t, s.Block("loop", func(s *Session, a Args) error {
		if err := s.H(0); err != nil {
			return err
		}
		return s.Use("loop", a)
	}))
	require.NoError(t, s.Block("count", func(s *Session, a Args) error {
		n, err := a.Int("n")
		if err != nil {
			return err
		}
		if n == 0 {
			return s.X(0)
		}
		return s.Use("count", Args{"n": n - 1})
	}))

	p, err := s.Prepare(1)
	require.NoError(t, err)
	err = s.Within(p, func() error { return s.Use("loop", nil) })
	require.Error(t, err)
	assert.True(t, ir.IsStructural(err))
	assert.Zero(t, p.Len())

	// The depth counter unwinds, so a chain right at the limit still works.
	p = build(t, s, 1, func() error { return s.Use("count", Args{"n": MaxBlockDepth - 1}) })
	assert.Equal(t, 1, p.Len())

	p, err = s.Prepare(1)
	require.NoError(t, err)
	err = s.Within(p, func() error { return s.Use("count", Args{"n": MaxBlockDepth}) })
	assert.True(t, ir.IsStructural(err))
	assert.Zero(t, p.Len())
}

func TestSharedRegistry(t *testing.T) {
	reg := blocks.NewRegistry[Block]()
	a := newSession(WithRegistry(reg))
	b := newSession(WithRegistry(reg))

	require.NoError(t, a.Block("h0", func(s *Session, _ Args) error { return s.H(0) }))
	assert.True(t, b.Registry().Has("h0"))
}

func registerDeutschJozsa(t *testing.T, s *Session) {
	t.Helper()
	wires := func(a Args) (x0, x1, anc int, err error) {
		if x0, err = a.Int("x0"); err != nil {
			return
		}
		if x1, err = a.Int("x1"); err != nil {
			return
		}
		anc, err = a.Int("a")
		return
	}

	require.NoError(t, s.Block("oracle_x0_x1", func(s *Session, a Args) error {
		x0, x1, anc, err := wires(a)
		if err != nil {
			return err
		}
		return s.CNOT(Pair{x0, anc}, Pair{x1, anc})
	}))
	require.NoError(t, s.Block("dj_2bit", func(s *Session, a Args) error {
		x0, x1, anc, err := wires(a)
		if err != nil {
			return err
		}
		oracle, err := a.String("oracle")
		if err != nil {
			return err
		}
		if err := s.X(anc); err != nil {
			return err
		}
		if err := s.Superpose(anc, x0, x1); err != nil {
			return err
		}
		if err := s.Use(oracle, a); err != nil {
			return err
		}
		if err := s.Superpose(x0, x1); err != nil {
			return err
		}
		return s.MeasureProbs(x0, x1)
	}))
}

func TestXOROracle(t *testing.T) {
	s := newSession()
	registerDeutschJozsa(t, s)

	p := build(t, s, 3, func() error {
		return s.Use("dj_2bit", Args{"oracle": "oracle_x0_x1", "x0": 0, "x1": 1, "a": 2})
	})

	res, err := p.Invoke(context.Background())
	require.NoError(t, err)
	v, ok := res.Single()
	require.True(t, ok)
	probs, ok := v.(compiler.Probabilities)
	require.True(t, ok)
	require.Len(t, probs, 4)
	assert.InDelta(t, 0, probs[0], tol)
	assert.InDelta(t, 0, probs[1], tol)
	assert.InDelta(t, 0, probs[2], tol)
	assert.InDelta(t, 1, probs[3], tol)
}

func TestBellStates(t *testing.T) {
	r := 1 / math.Sqrt2
	tests := []struct {
		name  string
		build func(s *Session) error
		want  []complex128
	}{
		{"phi plus", func(s *Session) error { return s.BellPhiPlus(0, 1) }, []complex128{complex(r, 0), 0, 0, complex(r, 0)}},
		{"phi minus", func(s *Session) error { return s.BellPhiMinus(0, 1) }, []complex128{complex(r, 0), 0, 0, complex(-r, 0)}},
		{"psi plus", func(s *Session) error { return s.BellPsiPlus(0, 1) }, []complex128{0, complex(r, 0), complex(r, 0), 0}},
		{"psi minus", func(s *Session) error { return s.BellPsiMinus(0, 1) }, []complex128{0, complex(r, 0), complex(-r, 0), 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession()
			p := build(t, s, 2, func() error {
				if err := tt.build(s); err != nil {
					return err
				}
				return s.MeasureState()
			})

			res, err := p.Invoke(context.Background())
			require.NoError(t, err)
			v, ok := res.Single()
			require.True(t, ok)
			state := v.(compiler.StateVector)
			require.Len(t, state, 4)
			for i := range tt.want {
				assert.InDelta(t, real(tt.want[i]), real(state[i]), tol, "re[%d]", i)
				assert.InDelta(t, imag(tt.want[i]), imag(state[i]), tol, "im[%d]", i)
			}
		})
	}
}

func TestUnknownGateNeverReachesBackend(t *testing.T) {
	rec := testutil.NewRecorder()
	s := newSession(WithBackend(rec))
	p, _ := s.Prepare(1)
	require.NoError(t, p.Append(ir.Fixed{Name: "NOPE", Targets: []int{0}}))
	require.NoError(t, p.Append(ir.State{}))

	_, err := p.Invoke(context.Background())
	assert.True(t, ir.IsUnknownGate(err))
	assert.Empty(t, rec.Calls)
	assert.False(t, p.Compiled())
}

func TestExpvalWithOperatorIsScalar(t *testing.T) {
	s := newSession()
	h := &ir.Hamiltonian{Terms: []ir.Term{
		{Coeff: 0.5, Factors: []ir.Factor{{Wire: 0, Observable: ir.ObsZ}, {Wire: 1, Observable: ir.ObsZ}}},
		{Coeff: 2, Factors: []ir.Factor{{Wire: 0, Observable: ir.ObsX}}},
	}}
	p := build(t, s, 2, func() error { return s.MeasureOperator(h) })

	res, err := p.Invoke(context.Background())
	require.NoError(t, err)
	assert.False(t, res.IsTuple())
	v, ok := res.Single()
	require.True(t, ok)
	ev, ok := v.(compiler.Expectation)
	require.True(t, ok)
	assert.InDelta(t, 0.5, float64(ev), tol)
}

func TestMultipleMeasurementsFormTuple(t *testing.T) {
	s := newSession()
	p := build(t, s, 1, func() error {
		if err := s.X(0); err != nil {
			return err
		}
		if err := s.MeasureProbs(0); err != nil {
			return err
		}
		return s.MeasureExpval(ir.ObsZ, 0)
	})

	res, err := p.Invoke(context.Background())
	require.NoError(t, err)
	require.True(t, res.IsTuple())
	require.Len(t, res.Values, 2)
	assert.Equal(t, ir.MeasureProbs, res.Values[0].MeasureKind())
	assert.InDelta(t, -1, float64(res.Values[1].(compiler.Expectation)), tol)
}

func TestCompileOnce(t *testing.T) {
	counter := &testutil.CountingLowerer{Inner: compiler.New(sim.New(), compiler.WithLogger(quietLogger()))}
	s := newSession(WithLowerer(counter))
	p := build(t, s, 1, func() error {
		if err := s.H(0); err != nil {
			return err
		}
		return s.MeasureProbs(0)
	})

	first, err := p.Compile()
	require.NoError(t, err)
	second, err := p.Compile()
	require.NoError(t, err)
	_, err = p.Invoke(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, counter.Calls)
}

func TestAppendAfterCompileIsSealed(t *testing.T) {
	s := newSession()
	p := build(t, s, 1, func() error { return s.MeasureState() })
	_, err := p.Compile()
	require.NoError(t, err)

	err = s.Within(p, func() error { return s.H(0) })
	assert.True(t, ir.IsSealed(err))
	assert.Equal(t, 1, p.Len())
}

func TestCompileWithoutMeasurement(t *testing.T) {
	s := newSession()
	p := build(t, s, 1, func() error { return s.H(0) })

	_, err := p.Compile()
	assert.True(t, ir.IsNoMeasurement(err))
	assert.False(t, p.Compiled())

	// A failed compile does not seal the program.
	require.NoError(t, s.Within(p, func() error { return s.MeasureProbs(0) }))
	_, err = p.Compile()
	require.NoError(t, err)
}

func TestWireOutOfRangeFailsCanonicalization(t *testing.T) {
	s := newSession()
	p := build(t, s, 2, func() error {
		if err := s.H(5); err != nil {
			return err
		}
		return s.MeasureState()
	})

	_, err := p.Compile()
	assert.True(t, ir.IsStructural(err))
}

func TestHartreeFockOccupation(t *testing.T) {
	s := newSession()
	p := build(t, s, 4, func() error {
		if err := s.HartreeFock(2, 4, ""); err != nil {
			return err
		}
		return s.MeasureProbs(0, 1, 2, 3)
	})

	res, err := p.Invoke(context.Background())
	require.NoError(t, err)
	v, _ := res.Single()
	probs := v.(compiler.Probabilities)
	assert.InDelta(t, 1, probs[0b1100], tol)
}

func TestBasisStateRequiresFreshWires(t *testing.T) {
	s := newSession()
	p := build(t, s, 2, func() error {
		if err := s.X(0); err != nil {
			return err
		}
		if err := s.BasisState([]int{0}, 0); err != nil {
			return err
		}
		return s.MeasureState()
	})

	_, err := p.Compile()
	require.NoError(t, err)
	_, err = p.Invoke(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in |0>")

	// Untouched wires prepare fine.
	p = build(t, s, 2, func() error {
		if err := s.X(0); err != nil {
			return err
		}
		if err := s.BasisState([]int{1}, 1); err != nil {
			return err
		}
		return s.MeasureProbs(0, 1)
	})
	res, err := p.Invoke(context.Background())
	require.NoError(t, err)
	v, _ := res.Single()
	assert.InDelta(t, 1, v.(compiler.Probabilities)[0b11], tol)
}

func TestIRIsACopy(t *testing.T) {
	s := newSession()
	p := build(t, s, 2, func() error { return s.CNOT(Pair{0, 1}) })

	prog := p.IR()
	prog.Ops[0].Wires()[0] = 1
	prog.Ops = nil

	again := p.IR()
	require.Len(t, again.Ops, 1)
	assert.Equal(t, []int{0, 1}, again.Ops[0].Wires())
}

func TestHashIsContentAddressed(t *testing.T) {
	s := newSession()
	mk := func() *Program {
		return build(t, s, 2, func() error {
			if err := s.BellPhiPlus(0, 1); err != nil {
				return err
			}
			return s.MeasureState()
		})
	}

	h1, err := mk().Hash()
	require.NoError(t, err)
	h2, err := mk().Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	other := build(t, s, 2, func() error { return s.MeasureState() })
	h3, err := other.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestArgs(t *testing.T) {
	a := Args{"w": 2, "f": 2.0, "half": 0.5, "name": "oracle", "big": int64(7)}

	w, err := a.Int("w")
	require.NoError(t, err)
	assert.Equal(t, 2, w)

	f, err := a.Int("f")
	require.NoError(t, err)
	assert.Equal(t, 2, f)

	big, err := a.Int("big")
	require.NoError(t, err)
	assert.Equal(t, 7, big)

	_, err = a.Int("half")
	assert.True(t, ir.IsValidation(err))

	theta, err := a.Float("w")
	require.NoError(t, err)
	assert.Equal(t, 2.0, theta)

	name, err := a.String("name")
	require.NoError(t, err)
	assert.Equal(t, "oracle", name)

	_, err = a.String("missing")
	assert.True(t, ir.IsValidation(err))
}

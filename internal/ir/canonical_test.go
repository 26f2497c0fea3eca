package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKinds = map[GateKind]bool{
	KindH: true, KindX: true, KindCNOT: true, KindRX: true, KindCTRL: true,
	KindBasisState: true, KindHartreeFock: true, KindSingleExcitation: true,
}

func knownTestKind(k GateKind) bool { return testKinds[k] }

func bellProgram() *Program {
	p := NewProgram(2)
	p.Append(Fixed{Name: KindH, Targets: []int{0}})
	p.Append(Fixed{Name: KindCNOT, Targets: []int{0, 1}})
	p.Append(State{})
	return p
}

func TestCanonicalizeAcceptsKnownGates(t *testing.T) {
	require.NoError(t, Canonicalize(bellProgram(), knownTestKind))
}

func TestCanonicalizeUnknownGate(t *testing.T) {
	p := NewProgram(1)
	p.Append(Fixed{Name: "NOPE", Targets: []int{0}})
	p.Append(State{})

	err := Canonicalize(p, knownTestKind)
	require.Error(t, err)
	assert.True(t, IsUnknownGate(err))
	assert.Contains(t, err.Error(), `"NOPE"`)
}

func TestCanonicalizeUnknownCtrlBase(t *testing.T) {
	p := NewProgram(3)
	p.Append(Controlled{Base: "NOPE", Controls: []int{0, 1}, Target: 2})

	err := Canonicalize(p, knownTestKind)
	assert.True(t, IsUnknownGate(err))
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	good := bellProgram()
	bad := NewProgram(1)
	bad.Append(Fixed{Name: "NOPE", Targets: []int{0}})

	for _, p := range []*Program{good, bad} {
		before := MustProgramHashOrEmpty(p)
		first := Canonicalize(p, knownTestKind)
		second := Canonicalize(p, knownTestKind)
		assert.Equal(t, first, second)
		assert.Equal(t, before, MustProgramHashOrEmpty(p), "canonicalize must not mutate")
	}
}

// MustProgramHashOrEmpty is a test helper tolerant of unhashable programs.
func MustProgramHashOrEmpty(p *Program) string {
	h, err := ProgramHash(p)
	if err != nil {
		return ""
	}
	return h
}

func TestCanonicalizeWireChecks(t *testing.T) {
	tests := []struct {
		name string
		op   Instruction
	}{
		{"out of range", Fixed{Name: KindH, Targets: []int{2}}},
		{"negative", Fixed{Name: KindH, Targets: []int{-1}}},
		{"repeated", Fixed{Name: KindCNOT, Targets: []int{1, 1}}},
		{"no wires", Fixed{Name: KindH}},
		{"ctrl target is control", Controlled{Base: KindX, Controls: []int{0}, Target: 0}},
		{"probs without wires", Probabilities{}},
		{"probs out of range", Probabilities{Targets: []int{0, 5}}},
		{"expval identity", Expectation{Target: 0, Observable: ObsI}},
		{"expval operator out of range", Expectation{Operator: &Hamiltonian{Terms: []Term{
			{Coeff: 1, Factors: []Factor{{Wire: 7, Observable: ObsZ}}},
		}}}},
		{"expval both forms", Expectation{Observable: ObsZ, Operator: &Hamiltonian{Terms: []Term{
			{Coeff: 1, Factors: []Factor{{Wire: 0, Observable: ObsZ}}},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProgram(2)
			p.Append(tt.op)
			err := Canonicalize(p, knownTestKind)
			require.Error(t, err)
			assert.True(t, IsStructural(err), "got %v", err)
		})
	}
}

func TestCanonicalizeWidth(t *testing.T) {
	err := Canonicalize(&Program{Width: 0}, knownTestKind)
	assert.True(t, IsStructural(err))
}

func TestMarshalCanonicalKeyOrder(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"wires": []any{1, 0},
		"op":    "CNOT",
		"angle": 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"angle":0.5,"op":"CNOT","wires":[1,0]}`, string(data))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	data, err := MarshalCanonical("a<b&c>")
	require.NoError(t, err)
	assert.Equal(t, `"a<b&c>"`, string(data))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	for _, v := range []any{nil, math.NaN(), math.Inf(1), struct{}{}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%v", v)
	}
}

func TestMarshalCanonicalNegativeZero(t *testing.T) {
	data, err := MarshalCanonical(math.Copysign(0, -1))
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))
}

package backend

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qdsl/internal/ir"
)

func TestStandardCoversEveryKind(t *testing.T) {
	table := Standard()
	kinds := []ir.GateKind{
		ir.KindH, ir.KindX, ir.KindY, ir.KindZ, ir.KindS, ir.KindT,
		ir.KindSWAP, ir.KindCNOT, ir.KindCZ, ir.KindCY,
		ir.KindRX, ir.KindRY, ir.KindRZ, ir.KindCRX, ir.KindCRY, ir.KindCRZ,
		ir.KindCTRL, ir.KindStatePrep, ir.KindBasisState, ir.KindHartreeFock,
		ir.KindSingleExcitation, ir.KindDoubleExcitation,
	}
	for _, k := range kinds {
		assert.True(t, table.Has(k), "missing %s", k)
	}
	assert.Len(t, table.Kinds(), len(kinds))
	assert.False(t, table.Has("NOPE"))
}

func TestLookupUnknown(t *testing.T) {
	_, err := Standard().Lookup("NOPE")
	require.Error(t, err)
	assert.True(t, ir.IsUnknownGate(err))
}

func TestControlledEntries(t *testing.T) {
	table := Standard()
	for _, k := range []ir.GateKind{ir.KindCNOT, ir.KindCZ, ir.KindCY, ir.KindCRX, ir.KindCRY, ir.KindCRZ} {
		g, err := table.Lookup(k)
		require.NoError(t, err)
		assert.Equal(t, 1, g.Controls, "%s", k)
		assert.Equal(t, 2, g.Wires, "%s", k)
	}
}

func TestUnitariesAreUnitary(t *testing.T) {
	for _, g := range Standard() {
		if g.Unitary == nil {
			continue
		}
		params := make([]float64, g.Params)
		for i := range params {
			params[i] = 0.37
		}
		u := g.Unitary(params)
		dim := 1 << (g.Wires - g.Controls)
		require.Len(t, u, dim, "%s", g.Name)
		assertUnitary(t, string(g.Name), u)
	}
}

func TestRotationAtPi(t *testing.T) {
	u := RX(math.Pi)
	assert.InDelta(t, 0, cmplx.Abs(u[0][0]), 1e-12)
	assert.InDelta(t, 1, cmplx.Abs(u[0][1]), 1e-12)
}

func TestObservableMatrix(t *testing.T) {
	for _, o := range []ir.Observable{ir.ObsI, ir.ObsX, ir.ObsY, ir.ObsZ, ir.ObsH} {
		m, ok := ObservableMatrix(o)
		require.True(t, ok)
		assertUnitary(t, string(o), m)
	}
	_, ok := ObservableMatrix("Q")
	assert.False(t, ok)
}

func assertUnitary(t *testing.T, name string, u Matrix) {
	t.Helper()
	n := len(u)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for k := 0; k < n; k++ {
				sum += u[i][k] * cmplx.Conj(u[j][k])
			}
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, real(sum), 1e-12, "%s [%d][%d]", name, i, j)
			assert.InDelta(t, 0, imag(sum), 1e-12, "%s [%d][%d]", name, i, j)
		}
	}
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qdsl/internal/ir"
	"github.com/roach88/qdsl/internal/testutil"
)

func bellIR() *ir.Program {
	p := ir.NewProgram(2)
	p.Append(ir.Fixed{Name: ir.KindH, Targets: []int{0}})
	p.Append(ir.Fixed{Name: ir.KindCNOT, Targets: []int{0, 1}})
	p.Append(ir.State{})
	return p
}

func TestWriteProgram_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	h1, err := s.WriteProgram(ctx, bellIR())
	require.NoError(t, err)
	h2, err := s.WriteProgram(ctx, bellIR())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, ir.MustProgramHash(bellIR()), h1)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM programs").Scan(&count))
	assert.Equal(t, 1, count)

	rec, err := s.ReadProgram(ctx, h1)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Width)
	assert.Equal(t, ir.IRVersion, rec.IRVersion)
	assert.Contains(t, rec.IR, `"op":"CNOT"`)
}

func TestReadProgram_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadProgram(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecordRun(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(testutil.NewFixedIDs("")))
	ctx := context.Background()

	ok, err := s.RecordRun(ctx, bellIR(), "bell.yaml", "statevector", []float64{0.5, 0, 0, 0.5}, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-0001", ok.ID)
	assert.Equal(t, int64(1), ok.Seq)
	assert.Equal(t, StatusOK, ok.Status)
	assert.JSONEq(t, `[0.5, 0, 0, 0.5]`, string(ok.Result))

	runErr := ir.Errorf(ir.ErrCodeUnknownGate, "canonicalize", "unknown gate %q", "NOPE")
	failed, err := s.RecordRun(ctx, bellIR(), "bell.yaml", "statevector", nil, runErr)
	require.NoError(t, err)
	assert.Equal(t, int64(2), failed.Seq)
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, string(ir.ErrCodeUnknownGate), failed.ErrorCode)
	assert.Nil(t, failed.Result)

	runs, err := s.RunsForProgram(ctx, ok.ProgramHash)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-0001", runs[0].ID)
	assert.Equal(t, "run-0002", runs[1].ID)
	assert.Nil(t, runs[1].Result)
	assert.Equal(t, ir.ToolVersion, runs[0].ToolVersion)
}

func TestListRuns_Limit(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(testutil.NewFixedIDs("r")))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.RecordRun(ctx, bellIR(), "", "statevector", 1.0, nil)
		require.NoError(t, err)
	}

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	last, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, int64(4), last[0].Seq)
	assert.Equal(t, int64(5), last[1].Seq)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestUUIDv7(t *testing.T) {
	id := UUIDv7{}.Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, UUIDv7{}.Generate())
}

package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/store"
	"github.com/roach88/qdsl/internal/testutil"
)

func TestRun_SingleValue(t *testing.T) {
	stdout, _, err := execute(t, "run", circuitPath("bell.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "state: [0.707107+0i "), stdout)
	assert.NotContains(t, stdout, "Recorded run")
}

func TestRun_Tuple(t *testing.T) {
	stdout, _, err := execute(t, "run", circuitPath("tuple.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "[0] probs: [0.5 0.5]\n[1] expval: 1\n", stdout)
}

func TestRun_JSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "run", circuitPath("xor_oracle.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Hash   string    `json:"hash"`
			Result []float64 `json:"result"`
			RunID  string    `json:"run_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Hash, 64)
	assert.Empty(t, resp.Data.RunID)
	require.Len(t, resp.Data.Result, 4)
	assert.InDelta(t, 1.0, resp.Data.Result[3], 1e-9)
	assert.InDelta(t, 0.0, resp.Data.Result[0], 1e-9)
}

func TestRun_OperatorExpectation(t *testing.T) {
	stdout, _, err := execute(t, "run", circuitPath("h2.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "expval: 0.75\n", stdout)
}

func TestRun_UnknownGate(t *testing.T) {
	stdout, _, err := execute(t, "run", circuitPath("nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E205]")
}

func runWithDB(t *testing.T, db, circuit string, ids *testutil.FixedIDs) (string, error) {
	t.Helper()
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    db,
		IDs:         ids,
	}
	cmd, buf := bareCommand()
	err := runCircuit(opts, circuitPath(circuit), cmd)
	return buf.String(), err
}

func TestRun_RecordsToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	ids := testutil.NewFixedIDs("cli")

	stdout, err := runWithDB(t, db, "bell.yaml", ids)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Recorded run cli-0001")

	_, err = runWithDB(t, db, "nope.yaml", ids)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, store.StatusOK, runs[0].Status)
	assert.Equal(t, "bell.yaml", runs[0].Source)
	assert.Equal(t, "statevector", runs[0].Backend)
	var state [][2]float64
	require.NoError(t, json.Unmarshal(runs[0].Result, &state))
	assert.InDelta(t, 0.7071067811865476, state[0][0], 1e-9)

	assert.Equal(t, int64(2), runs[1].Seq)
	assert.Equal(t, store.StatusError, runs[1].Status)
	assert.Equal(t, "E205", runs[1].ErrorCode)
	assert.Equal(t, "statevector", runs[1].Backend)
}

func TestRun_DatabaseFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "qdsl.toml")
	writeFile(t, cfg, "[store]\ndb = \"runs.db\"\n")

	cmd := NewRootCommand()
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs([]string{"--config", cfg, "run", circuitPath("bell.yaml")})
	require.NoError(t, cmd.Execute())

	st, err := store.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRun_BadDatabasePath(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing", "runs.db")
	stdout, err := runWithDB(t, db, "bell.yaml", testutil.NewFixedIDs("cli"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E008]")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "probs: [0.25 0.75]", formatValue(compiler.Probabilities{0.25, 0.75}))
	assert.Equal(t, "state: [1+0i 0-0.5i]", formatValue(compiler.StateVector{1, complex(0, -0.5)}))
	assert.Equal(t, "expval: -0.5", formatValue(compiler.Expectation(-0.5)))
}

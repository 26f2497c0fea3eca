package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/sim"
	"github.com/roach88/qdsl/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// IDs overrides the run ID generator (for testing). If nil, runs get
	// UUIDv7 IDs.
	IDs store.IDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Hash   string           `json:"hash"`
	Result *compiler.Result `json:"result"`
	RunID  string           `json:"run_id,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <circuit-file>",
		Short: "Compile and execute a circuit",
		Long: `Compile a circuit file and execute it on the statevector simulator.

A single measurement prints one value; several measurements print an
ordered tuple. With --db (or store.db in qdsl.toml) the program and the
run outcome are recorded in a SQLite run log, failures included.

Examples:
  qdsl run ./circuits/bell.yaml
  qdsl run ./circuits/h2.yaml --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCircuit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runCircuit(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := loadProgram(formatter, path, logger)
	if err != nil {
		return err
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.config().Store.DB
	}
	var st *store.Store
	if dbPath != "" {
		var storeOpts []store.Option
		if opts.IDs != nil {
			storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDs))
		}
		st, err = store.Open(dbPath, storeOpts...)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		logger.Debug("database ready", "path", dbPath)
	}

	stage := stageCompile
	exe, runErr := p.Compile()
	var out *compiler.Result
	if runErr == nil {
		stage = stageRun
		out, runErr = exe.Run(ctx)
	}

	var runID string
	if st != nil {
		var stored any
		if out != nil {
			stored = out
		}
		run, err := st.RecordRun(ctx, p.IR(), filepath.Base(path), backendName(exe), stored, runErr)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		runID = run.ID
		logger.Info("run recorded", "id", run.ID, "seq", run.Seq, "status", run.Status)
	}

	if runErr != nil {
		return formatter.Fail(stage, runErr)
	}

	result := RunResult{Hash: exe.Hash(), Result: out, RunID: runID}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if out.IsTuple() {
		for i, v := range out.Values {
			fmt.Fprintf(w, "[%d] %s\n", i, formatValue(v))
		}
	} else {
		fmt.Fprintln(w, formatValue(out.Values[0]))
	}
	if runID != "" {
		fmt.Fprintf(w, "\nRecorded run %s\n", runID)
	}
	return nil
}

// backendName names the backend a run used. Compile failures never reach
// an executable, so they report the simulator the session was built on.
func backendName(exe *compiler.Executable) string {
	if exe != nil {
		return exe.Backend().Name()
	}
	return sim.New().Name()
}

// formatValue renders one measurement value on a single line.
func formatValue(v compiler.Value) string {
	switch val := v.(type) {
	case compiler.Probabilities:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = fmt.Sprintf("%.6g", p)
		}
		return "probs: [" + strings.Join(parts, " ") + "]"
	case compiler.StateVector:
		parts := make([]string, len(val))
		for i, a := range val {
			parts[i] = fmt.Sprintf("%.6g%+.6gi", real(a), imag(a))
		}
		return "state: [" + strings.Join(parts, " ") + "]"
	case compiler.Expectation:
		return fmt.Sprintf("expval: %.6g", float64(val))
	}
	data, _ := json.Marshal(v)
	return string(data)
}

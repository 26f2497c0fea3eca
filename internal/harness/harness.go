package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/roach88/qdsl/internal/backend"
	"github.com/roach88/qdsl/internal/circuit"
	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/ir"
	"github.com/roach88/qdsl/internal/loader"
	"github.com/roach88/qdsl/internal/sim"
	"github.com/roach88/qdsl/internal/store"
	"github.com/roach88/qdsl/internal/testutil"
)

// Harness holds the per-scenario execution state.
type Harness struct {
	store     *store.Store
	seq       *testutil.SeqCounter
	backend   backend.Backend
	logger    *slog.Logger
	tolerance float64
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger routes session and compiler logs to l. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithBackend replaces the statevector simulator.
func WithBackend(b backend.Backend) Option {
	return func(h *Harness) { h.backend = b }
}

// WithTolerance sets the comparison tolerance for scenarios that do not
// set their own.
func WithTolerance(tol float64) Option {
	return func(h *Harness) { h.tolerance = tol }
}

// Run executes a scenario and returns its result.
//
// Each scenario runs in a fresh in-memory database with deterministic run
// IDs and sequence numbers. Execution flow:
//  1. Load the circuit file and build it in a new session
//  2. Compile and run the program
//  3. Record the run in the store
//  4. Check the expected outcome and evaluate assertions
//
// The returned error covers harness failures only (unreadable circuit,
// store errors). Program errors are part of the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewFixedIDs(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:     st,
		seq:       testutil.NewSeqCounter(),
		backend:   sim.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(h)
	}

	file, err := loader.Load(scenario.Circuit)
	if err != nil {
		return nil, fmt.Errorf("failed to load circuit: %w", err)
	}

	ctx := context.Background()
	result := NewResult()
	h.execute(ctx, file, filepath.Base(scenario.Circuit), result)

	checkExpect(result, scenario.Expect, h.tolerance)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// execute builds, compiles and runs the circuit, filling result.Trace,
// result.Output and result.Err.
func (h *Harness) execute(ctx context.Context, file *loader.File, source string, result *Result) {
	session := circuit.NewSession(
		circuit.WithBackend(h.backend),
		circuit.WithLogger(h.logger),
	)

	p, err := file.Build(session)
	if err != nil {
		h.fail(result, err)
		return
	}
	h.traceBuild(p.IR(), result)

	out, runErr := h.invoke(ctx, p, result)
	if runErr != nil {
		h.fail(result, runErr)
	} else {
		result.Output = out
		values := make([]any, len(out.Values))
		for i, v := range out.Values {
			values[i] = traceValue(v)
		}
		result.Trace = append(result.Trace, TraceEvent{
			Seq:    h.seq.Next(),
			Stage:  StageResult,
			Values: values,
		})
	}

	var stored any
	if out != nil {
		stored = out
	}
	run, err := h.store.RecordRun(ctx, p.IR(), source, h.backend.Name(), stored, runErr)
	if err != nil {
		result.AddError(fmt.Sprintf("record run: %v", err))
		return
	}
	result.RunID = run.ID
}

// invoke compiles p, adds the compile event and runs the executable.
func (h *Harness) invoke(ctx context.Context, p *circuit.Program, result *Result) (*compiler.Result, error) {
	exe, err := p.Compile()
	if err != nil {
		return nil, err
	}
	shape := exe.Shape()
	kinds := make([]string, len(shape))
	for i, k := range shape {
		kinds[i] = string(k)
	}
	result.Trace = append(result.Trace, TraceEvent{
		Seq:   h.seq.Next(),
		Stage: StageCompile,
		Shape: kinds,
		Steps: exe.Steps(),
	})
	return exe.Run(ctx)
}

func (h *Harness) traceBuild(p *ir.Program, result *Result) {
	for _, op := range ir.Describe(p).Operations {
		event := TraceEvent{
			Seq:    h.seq.Next(),
			Stage:  StageBuild,
			Op:     op.Op,
			Wires:  op.Wires,
			Params: op.Params,
		}
		if op.Kind != nil {
			event.Kind = *op.Kind
		}
		result.Trace = append(result.Trace, event)
	}
}

func (h *Harness) fail(result *Result, err error) {
	result.Err = err
	code := ir.CodeOf(err)
	result.Trace = append(result.Trace, TraceEvent{
		Seq:   h.seq.Next(),
		Stage: StageError,
		Code:  string(code),
		Name:  code.Name(),
	})
}

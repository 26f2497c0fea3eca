package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/ir"
	"github.com/roach88/qdsl/internal/store"
)

// AssertionError is returned when an assertion fails. It includes the
// build trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nProgram:\n")
	for _, event := range e.Trace {
		if event.Stage == StageBuild {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", event.Seq, event.Op, event.Wires)
		}
	}
	return buf.String()
}

// AssertionContext provides store access for stored_run assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOpCount:
			err = assertOpCount(result.Trace, assertion)
		case AssertOpContains:
			err = assertOpContains(result.Trace, assertion)
		case AssertOpOrder:
			err = assertOpOrder(result.Trace, assertion)
		case AssertShape:
			err = assertShape(result.Trace, assertion)
		case AssertStoredRun:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: stored_run requires database context", i)
			} else {
				err = assertStoredRun(actx.Ctx, actx.Store, result.RunID, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func buildOps(trace []TraceEvent) []TraceEvent {
	var ops []TraceEvent
	for _, event := range trace {
		if event.Stage == StageBuild {
			ops = append(ops, event)
		}
	}
	return ops
}

func assertOpCount(trace []TraceEvent, a Assertion) error {
	ops := buildOps(trace)
	if len(ops) != a.Count {
		return &AssertionError{
			Type:     AssertOpCount,
			Expected: fmt.Sprintf("%d instructions", a.Count),
			Actual:   fmt.Sprintf("%d instructions", len(ops)),
			Trace:    trace,
		}
	}
	return nil
}

func assertOpContains(trace []TraceEvent, a Assertion) error {
	for _, event := range buildOps(trace) {
		if event.Op != a.Op {
			continue
		}
		if a.Wires == nil || slices.Equal(event.Wires, a.Wires) {
			return nil
		}
	}
	want := a.Op
	if a.Wires != nil {
		want = fmt.Sprintf("%s %v", a.Op, a.Wires)
	}
	return &AssertionError{
		Type:     AssertOpContains,
		Expected: want,
		Actual:   "not found",
		Trace:    trace,
	}
}

// assertOpOrder checks that the ops appear in order. Other instructions
// may sit between them.
func assertOpOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range buildOps(trace) {
		if next < len(a.Ops) && event.Op == a.Ops[next] {
			next++
		}
	}
	if next == len(a.Ops) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOpOrder,
		Expected: strings.Join(a.Ops, " -> "),
		Actual:   fmt.Sprintf("matched up to %q", strings.Join(a.Ops[:next], " -> ")),
		Trace:    trace,
	}
}

func assertShape(trace []TraceEvent, a Assertion) error {
	var kinds []string
	for _, event := range buildOps(trace) {
		if event.Kind != "" {
			kinds = append(kinds, event.Kind)
		}
	}
	if slices.Equal(kinds, a.Kinds) {
		return nil
	}
	return &AssertionError{
		Type:     AssertShape,
		Expected: fmt.Sprintf("%v", a.Kinds),
		Actual:   fmt.Sprintf("%v", kinds),
		Trace:    trace,
	}
}

func assertStoredRun(ctx context.Context, st *store.Store, runID string, a Assertion) error {
	if runID == "" {
		return fmt.Errorf("stored_run: no run was recorded")
	}
	runs, err := st.ListRuns(ctx, -1)
	if err != nil {
		return fmt.Errorf("stored_run: %w", err)
	}
	for _, run := range runs {
		if run.ID != runID {
			continue
		}
		if run.Status != a.Status {
			return fmt.Errorf("stored_run: expected status %q, got %q", a.Status, run.Status)
		}
		if a.Code != "" && run.ErrorCode != a.Code {
			return fmt.Errorf("stored_run: expected error code %q, got %q", a.Code, run.ErrorCode)
		}
		return nil
	}
	return fmt.Errorf("stored_run: run %s not found", runID)
}

// checkExpect compares the run outcome with the scenario's expectation.
func checkExpect(result *Result, e Expect, defaultTol float64) {
	if e.Error != "" {
		if result.Err == nil {
			result.AddError(fmt.Sprintf("expected error %s, program succeeded", e.Error))
			return
		}
		if got := ir.CodeOf(result.Err).Name(); got != e.Error {
			result.AddError(fmt.Sprintf("expected error %s, got %s: %v", e.Error, got, result.Err))
		}
		return
	}
	if result.Err != nil {
		result.AddError(fmt.Sprintf("unexpected error: %v", result.Err))
		return
	}

	tol := e.Tolerance
	if tol == 0 {
		tol = defaultTol
	}
	want := e.Tuple
	if len(want) == 0 {
		want = []ValueExpect{e.ValueExpect}
	}
	got := result.Output.Values
	if len(got) != len(want) {
		result.AddError(fmt.Sprintf("expected %d values, got %d", len(want), len(got)))
		return
	}
	for i := range want {
		if err := compareValue(want[i], got[i], tol); err != nil {
			result.AddError(fmt.Sprintf("value[%d]: %v", i, err))
		}
	}
}

func compareValue(want ValueExpect, got compiler.Value, tol float64) error {
	switch {
	case want.Probs != nil:
		probs, ok := got.(compiler.Probabilities)
		if !ok {
			return fmt.Errorf("expected probs, got %s", got.MeasureKind())
		}
		return compareFloats(want.Probs, probs, tol)
	case want.State != nil:
		state, ok := got.(compiler.StateVector)
		if !ok {
			return fmt.Errorf("expected state, got %s", got.MeasureKind())
		}
		if len(state) != len(want.State) {
			return fmt.Errorf("expected %d amplitudes, got %d", len(want.State), len(state))
		}
		for i, pair := range want.State {
			if math.Abs(real(state[i])-pair[0]) > tol || math.Abs(imag(state[i])-pair[1]) > tol {
				return fmt.Errorf("amplitude[%d]: expected %v, got %v", i, pair, state[i])
			}
		}
		return nil
	case want.Expval != nil:
		e, ok := got.(compiler.Expectation)
		if !ok {
			return fmt.Errorf("expected expval, got %s", got.MeasureKind())
		}
		if math.Abs(float64(e)-*want.Expval) > tol {
			return fmt.Errorf("expected %v, got %v", *want.Expval, float64(e))
		}
		return nil
	}
	return fmt.Errorf("empty expectation")
}

func compareFloats(want, got []float64, tol float64) error {
	if len(want) != len(got) {
		return fmt.Errorf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > tol {
			return fmt.Errorf("entry[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
	return nil
}

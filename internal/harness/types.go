package harness

import (
	"math"

	"github.com/roach88/qdsl/internal/compiler"
)

// Trace stages.
const (
	StageBuild   = "build"
	StageCompile = "compile"
	StageResult  = "result"
	StageError   = "error"
)

// TraceEvent is one step of a scenario run. Which fields are set depends
// on Stage.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	Stage string `json:"stage"`

	// build
	Op     string `json:"op,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Wires  []int  `json:"wires,omitempty"`
	Params []any  `json:"params,omitempty"`

	// compile
	Shape []string `json:"shape,omitempty"`
	Steps int      `json:"steps,omitempty"`

	// result
	Values []any `json:"values,omitempty"`

	// error
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when the expectation and every assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Output is the measurement result, nil when the run failed.
	Output *compiler.Result `json:"-"`

	// Err is the build, compile or run error, nil on success.
	Err error `json:"-"`

	// RunID is the ID of the run recorded in the store.
	RunID string `json:"run_id,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed check.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// roundTrace rounds to 1e-9 so traces are platform independent.
func roundTrace(x float64) float64 {
	return math.Round(x*1e9) / 1e9
}

// traceValue converts a measurement value to plain canonical-friendly data.
func traceValue(v compiler.Value) any {
	switch val := v.(type) {
	case compiler.StateVector:
		out := make([]any, len(val))
		for i, a := range val {
			out[i] = []any{roundTrace(real(a)), roundTrace(imag(a))}
		}
		return out
	case compiler.Probabilities:
		out := make([]any, len(val))
		for i, p := range val {
			out[i] = roundTrace(p)
		}
		return out
	case compiler.Expectation:
		return roundTrace(float64(val))
	}
	return nil
}

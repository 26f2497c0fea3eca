package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/qdsl/internal/ir"
)

// TraceSnapshot is the golden-file view of a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot into plain values, since
// ir.MarshalCanonical accepts only maps, slices and scalars.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"seq":   event.Seq,
			"stage": event.Stage,
		}
		switch event.Stage {
		case StageBuild:
			m["op"] = event.Op
			m["wires"] = intsToAny(event.Wires)
			params := event.Params
			if params == nil {
				params = []any{}
			}
			m["params"] = params
			if event.Kind != "" {
				m["kind"] = event.Kind
			}
		case StageCompile:
			shape := make([]any, len(event.Shape))
			for j, k := range event.Shape {
				shape[j] = k
			}
			m["shape"] = shape
			m["steps"] = event.Steps
		case StageResult:
			m["values"] = event.Values
		case StageError:
			m["code"] = event.Code
			m["name"] = event.Name
		}
		traceList[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

func intsToAny(xs []int) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// Snapshot renders a result's trace as canonical JSON, the format of the
// golden files.
func Snapshot(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden runs a scenario and compares its trace against
// {goldenDir}/{scenario.Name}.golden. The qdsl test command keeps goldens
// in <scenarios-dir>/golden, so tests pass that directory.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, goldenDir string) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, goldenDir, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, goldenDir, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qdsl/internal/ir"
)

// Scenario is a conformance check over one circuit file.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Circuit is the path of the circuit file, relative to the scenario
	// file.
	Circuit string `yaml:"circuit"`

	// Expect is the outcome the program must produce.
	Expect Expect `yaml:"expect"`

	// Assertions are extra checks over the built program and the store.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect is either an error code or the measurement values.
type Expect struct {
	// Error is the expected error name, e.g. "UNKNOWN_GATE".
	Error string `yaml:"error,omitempty"`

	// Single-measurement shorthand.
	ValueExpect `yaml:",inline"`

	// Tuple lists the expected values for multi-measurement programs.
	Tuple []ValueExpect `yaml:"tuple,omitempty"`

	// Tolerance for numeric comparison. Defaults to 1e-9.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// ValueExpect describes one measurement value. Exactly one field is set.
type ValueExpect struct {
	Probs  []float64    `yaml:"probs,omitempty"`
	State  [][2]float64 `yaml:"state,omitempty"`
	Expval *float64     `yaml:"expval,omitempty"`
}

func (v ValueExpect) set() int {
	n := 0
	if v.Probs != nil {
		n++
	}
	if v.State != nil {
		n++
	}
	if v.Expval != nil {
		n++
	}
	return n
}

// Assertion is an extra check. Supported types:
//   - op_count: the program has exactly Count instructions
//   - op_contains: an instruction with Op (and Wires, when given) exists
//   - op_order: the Ops appear in this order, gaps allowed
//   - shape: the measurement kinds are exactly Kinds
//   - stored_run: the recorded run has Status (and Code, when given)
type Assertion struct {
	Type   string   `yaml:"type"`
	Count  int      `yaml:"count,omitempty"`
	Op     string   `yaml:"op,omitempty"`
	Wires  []int    `yaml:"wires,omitempty"`
	Ops    []string `yaml:"ops,omitempty"`
	Kinds  []string `yaml:"kinds,omitempty"`
	Status string   `yaml:"status,omitempty"`
	Code   string   `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertOpCount    = "op_count"
	AssertOpContains = "op_contains"
	AssertOpOrder    = "op_order"
	AssertShape      = "shape"
	AssertStoredRun  = "stored_run"
)

// DefaultTolerance is used when a scenario sets none.
const DefaultTolerance = 1e-9

// LoadScenario reads a scenario file. Unknown fields are rejected and the
// circuit path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(scenario.Circuit) {
		scenario.Circuit = filepath.Join(filepath.Dir(path), scenario.Circuit)
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml/.yml files under dir whose base name
// (without extension) matches filter. An empty filter matches everything.
// Files in "golden" directories are skipped.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(filepath.Base(path), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Circuit == "" {
		return fmt.Errorf("circuit is required")
	}

	e := s.Expect
	outcomes := 0
	if e.Error != "" {
		outcomes++
		if !knownErrorName(e.Error) {
			return fmt.Errorf("expect.error: unknown error name %q", e.Error)
		}
	}
	if e.set() > 0 {
		outcomes++
		if e.set() > 1 {
			return fmt.Errorf("expect: set only one of probs, state, expval")
		}
	}
	if len(e.Tuple) > 0 {
		outcomes++
		for i, v := range e.Tuple {
			if v.set() != 1 {
				return fmt.Errorf("expect.tuple[%d]: set exactly one of probs, state, expval", i)
			}
		}
	}
	if outcomes != 1 {
		return fmt.Errorf("expect: set exactly one of error, a value, or tuple")
	}
	if e.Tolerance < 0 {
		return fmt.Errorf("expect.tolerance must be non-negative")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertOpCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for op_count", index)
		}
	case AssertOpContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for op_contains", index)
		}
	case AssertOpOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for op_order", index)
		}
	case AssertShape:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for shape", index)
		}
	case AssertStoredRun:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for stored_run", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func knownErrorName(name string) bool {
	for _, code := range []ir.ErrorCode{
		ir.ErrCodeValidation, ir.ErrCodeNoActiveProgram, ir.ErrCodeDuplicateBlock,
		ir.ErrCodeUnknownBlock, ir.ErrCodeUnknownGate, ir.ErrCodeNoMeasurement,
		ir.ErrCodeStructural, ir.ErrCodeSealedProgram,
	} {
		if code.Name() == name {
			return true
		}
	}
	return false
}

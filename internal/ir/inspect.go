package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Inspection formats accepted by Inspect.
const (
	InspectDict = "dict"
	InspectText = "text"
)

// InspectedProgram is the dictionary view of a program.
type InspectedProgram struct {
	Qubits     int           `json:"qubits"`
	Operations []InspectedOp `json:"operations"`
}

// InspectedOp is one row of the dictionary view. Kind is set only for
// measurements.
type InspectedOp struct {
	Op     string  `json:"op"`
	Wires  []int   `json:"wires"`
	Params []any   `json:"params"`
	Kind   *string `json:"kind"`
}

// Describe builds the dictionary view of p.
func Describe(p *Program) InspectedProgram {
	out := InspectedProgram{Qubits: p.Width, Operations: make([]InspectedOp, len(p.Ops))}
	for i, op := range p.Ops {
		row := InspectedOp{Op: "MEASURE", Wires: op.Wires(), Params: []any{}}
		if row.Wires == nil {
			row.Wires = []int{}
		}
		switch v := op.(type) {
		case Gate:
			row.Op = string(v.Kind())
			if params, ok := v.canonical()["params"].([]any); ok {
				row.Params = params
			}
		case Measurement:
			kind := string(v.MeasureKind())
			row.Kind = &kind
			if e, ok := v.(Expectation); ok {
				if e.Operator != nil {
					row.Params = []any{e.Operator.String()}
				} else {
					row.Params = []any{string(e.Observable)}
				}
			}
		}
		out.Operations[i] = row
	}
	return out
}

// Inspect renders p as "dict" (indented JSON) or "text" (numbered listing).
func Inspect(p *Program, format string) (string, error) {
	switch format {
	case InspectDict:
		data, err := json.MarshalIndent(Describe(p), "", "  ")
		if err != nil {
			return "", fmt.Errorf("inspect: %w", err)
		}
		return string(data), nil
	case InspectText:
		return inspectText(p), nil
	default:
		return "", Errorf(ErrCodeValidation, "inspect", "format must be %q or %q, got %q", InspectDict, InspectText, format)
	}
}

func inspectText(p *Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Qubits: %d\n\nInstructions:", p.Width)
	for i, row := range Describe(p).Operations {
		b.WriteString("\n")
		if row.Kind != nil {
			fmt.Fprintf(&b, "  %d. MEASURE(kind='%s', wires=%v", i+1, *row.Kind, row.Wires)
			if len(row.Params) > 0 {
				fmt.Fprintf(&b, ", observable=%v", row.Params[0])
			}
			b.WriteString(")")
			continue
		}
		if len(row.Params) > 0 {
			fmt.Fprintf(&b, "  %d. %s(wires=%v, params=%v)", i+1, row.Op, row.Wires, row.Params)
		} else {
			fmt.Fprintf(&b, "  %d. %s(wires=%v)", i+1, row.Op, row.Wires)
		}
	}
	return b.String()
}

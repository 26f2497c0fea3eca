package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize validates p against the backend's gate set.
//
// It is a read-only pass: every gate kind (and the base kind of every CTRL)
// must satisfy known, wires must lie in [0, Width) and be distinct within a
// single instruction, and measurement payloads must be well formed.
// Returns the first error found. Running it twice yields the same outcome.
func Canonicalize(p *Program, known func(GateKind) bool) error {
	if p == nil {
		return Errorf(ErrCodeStructural, "canonicalize", "nil program")
	}
	if p.Width <= 0 {
		return Errorf(ErrCodeStructural, "canonicalize", "width must be positive, got %d", p.Width)
	}

	for i, op := range p.Ops {
		switch v := op.(type) {
		case Gate:
			if !known(v.Kind()) {
				return Errorf(ErrCodeUnknownGate, "canonicalize", "instruction %d: unknown gate %q", i, v.Kind())
			}
			if c, ok := v.(Controlled); ok && !known(c.Base) {
				return Errorf(ErrCodeUnknownGate, "canonicalize", "instruction %d: unknown CTRL base gate %q", i, c.Base)
			}
			if len(v.Wires()) == 0 {
				return Errorf(ErrCodeStructural, "canonicalize", "instruction %d: %s has no wires", i, v.Kind())
			}
			if err := checkWires(p.Width, i, string(v.Kind()), v.Wires()); err != nil {
				return err
			}
		case Measurement:
			if err := canonicalizeMeasurement(p.Width, i, v); err != nil {
				return err
			}
		default:
			return Errorf(ErrCodeStructural, "canonicalize", "instruction %d: unsupported instruction %T", i, op)
		}
	}
	return nil
}

func canonicalizeMeasurement(width, idx int, m Measurement) error {
	switch v := m.(type) {
	case State:
		return checkWires(width, idx, "MEASURE state", v.Targets)
	case Probabilities:
		if len(v.Targets) == 0 {
			return Errorf(ErrCodeStructural, "canonicalize", "instruction %d: probs needs at least one wire", idx)
		}
		return checkWires(width, idx, "MEASURE probs", v.Targets)
	case Expectation:
		if v.Operator != nil {
			if v.Observable != "" {
				return Errorf(ErrCodeStructural, "canonicalize", "instruction %d: expval has both operator and observable", idx)
			}
			if err := v.Operator.Validate(); err != nil {
				return Errorf(ErrCodeStructural, "canonicalize", "instruction %d: %v", idx, err)
			}
			return checkWires(width, idx, "MEASURE expval", v.Operator.Wires())
		}
		if !v.Observable.SingleQubit() {
			return Errorf(ErrCodeStructural, "canonicalize", "instruction %d: expval needs an operator or an X/Y/Z/H observable", idx)
		}
		return checkWires(width, idx, "MEASURE expval", v.Wires())
	}
	return Errorf(ErrCodeStructural, "canonicalize", "instruction %d: unsupported measurement %T", idx, m)
}

func checkWires(width, idx int, what string, wires []int) error {
	seen := make(map[int]bool, len(wires))
	for _, w := range wires {
		if w < 0 || w >= width {
			return Errorf(ErrCodeStructural, "canonicalize",
				"instruction %d: %s wire %d out of range [0, %d)", idx, what, w, width)
		}
		if seen[w] {
			return Errorf(ErrCodeStructural, "canonicalize",
				"instruction %d: %s uses wire %d twice", idx, what, w)
		}
		seen[w] = true
	}
	return nil
}

// MarshalCanonical produces canonical JSON for hashing.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed program identity.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Floats use the shortest round-trip form; NaN and Inf are rejected
//  5. null is rejected
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("non-finite float in canonical JSON: %v", val)
		}
		if val == 0 {
			// collapse -0
			val = 0
		}
		buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysUTF16)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// marshalCanonicalString writes s NFC-normalized without HTML escaping.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// compareKeysUTF16 orders strings by UTF-16 code units.
// Go's native string comparison is UTF-8 bytewise, which differs for
// characters outside the BMP.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < min(len(a16), len(b16)); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

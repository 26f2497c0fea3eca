package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors raised while building, canonicalizing or
// lowering a program.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed arguments to a builder call.
	ErrCodeValidation ErrorCode = "E201"

	// ErrCodeNoActiveProgram indicates a builder call with no open program.
	ErrCodeNoActiveProgram ErrorCode = "E202"

	// ErrCodeDuplicateBlock indicates a second registration under a used name.
	ErrCodeDuplicateBlock ErrorCode = "E203"

	// ErrCodeUnknownBlock indicates a block invocation with no registration.
	ErrCodeUnknownBlock ErrorCode = "E204"

	// ErrCodeUnknownGate indicates a gate kind absent from the backend table.
	ErrCodeUnknownGate ErrorCode = "E205"

	// ErrCodeNoMeasurement indicates compilation of a program with no
	// measurement instruction.
	ErrCodeNoMeasurement ErrorCode = "E206"

	// ErrCodeStructural indicates a well-typed but structurally invalid
	// program (arity, lengths, wire ranges, measurement combinations).
	ErrCodeStructural ErrorCode = "E207"

	// ErrCodeSealedProgram indicates an append to an already compiled program.
	ErrCodeSealedProgram ErrorCode = "E208"
)

var codeNames = map[ErrorCode]string{
	ErrCodeValidation:      "VALIDATION",
	ErrCodeNoActiveProgram: "NO_ACTIVE_PROGRAM",
	ErrCodeDuplicateBlock:  "DUPLICATE_BLOCK",
	ErrCodeUnknownBlock:    "UNKNOWN_BLOCK",
	ErrCodeUnknownGate:     "UNKNOWN_GATE",
	ErrCodeNoMeasurement:   "NO_MEASUREMENT",
	ErrCodeStructural:      "STRUCTURAL",
	ErrCodeSealedProgram:   "SEALED_PROGRAM",
}

// Name returns the symbolic name of the code, e.g. "UNKNOWN_GATE".
func (c ErrorCode) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// Error is the error type returned by every qdsl package.
//
// Op names the operation that failed ("CNOT", "canonicalize", "lower",
// "blocks.register"), Message is human-readable.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Op, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Errorf builds an *Error with a formatted message.
func Errorf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain.
// Returns "" if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err wraps an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsValidation returns true for malformed builder arguments.
func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }

// IsNoActiveProgram returns true when a builder ran with an empty scope stack.
func IsNoActiveProgram(err error) bool { return HasCode(err, ErrCodeNoActiveProgram) }

// IsDuplicateBlock returns true for a rejected duplicate block registration.
func IsDuplicateBlock(err error) bool { return HasCode(err, ErrCodeDuplicateBlock) }

// IsUnknownBlock returns true for an invocation of an unregistered block.
func IsUnknownBlock(err error) bool { return HasCode(err, ErrCodeUnknownBlock) }

// IsUnknownGate returns true for gate kinds missing from the backend table.
func IsUnknownGate(err error) bool { return HasCode(err, ErrCodeUnknownGate) }

// IsNoMeasurement returns true when a program has nothing to measure.
func IsNoMeasurement(err error) bool { return HasCode(err, ErrCodeNoMeasurement) }

// IsStructural returns true for structural program errors.
func IsStructural(err error) bool { return HasCode(err, ErrCodeStructural) }

// IsSealed returns true for appends to a compiled program.
func IsSealed(err error) bool { return HasCode(err, ErrCodeSealedProgram) }

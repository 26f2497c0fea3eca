// Package compiler lowers an ir.Program into an Executable bound to a
// simulation backend.
//
// Lowering is a pure function of the program and the backend's gate table:
// every gate becomes one step that replays against a fresh device, and the
// measurement instructions decide the result shape. Nothing touches the
// backend until Executable.Run.
//
// Result shapes:
//   - state  -> StateVector (full register)
//   - probs  -> Probabilities (wire-restricted, wires[0] most significant)
//   - expval -> Expectation (operator or single-qubit observable)
//
// A program with one measurement yields a single value; with several it
// yields an ordered tuple, in which case none may be a state measurement.
package compiler

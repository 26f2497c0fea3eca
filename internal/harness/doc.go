// Package harness runs conformance scenarios against circuit files.
//
// A scenario names a circuit file, the result the program must produce
// (or the error code it must fail with) and optional assertions over the
// built program. Each run:
//
//  1. Loads the circuit with internal/loader into a fresh Session
//  2. Canonicalizes, lowers and runs it on the statevector simulator
//  3. Records the run in an in-memory store
//  4. Emits a deterministic trace (one event per instruction, then the
//     compile, result or error event) for golden comparison
//
// Traces carry logical sequence numbers and results rounded to 1e-9, so
// golden files are stable across platforms.
package harness

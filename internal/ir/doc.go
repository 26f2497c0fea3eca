// Package ir provides the backend-independent intermediate representation
// for quantum programs.
//
// This package contains the instruction vocabulary, the program container,
// canonicalization and the error taxonomy shared by the rest of the module.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Gates and measurements are closed sets of variants (sealed interfaces)
//   - Every variant carries its own structured payload, never a generic
//     positional parameter list
//   - Canonicalization is read-only; it never rewrites instructions
//   - Wire indices are global register indices, wire 0 is the most
//     significant qubit in basis-state ordering
package ir

// Package store keeps a SQLite log of compiled programs and their runs.
//
// Two tables:
//   - programs: one row per distinct program, keyed by its content hash,
//     holding the canonical IR JSON
//   - runs: one row per invocation, referencing the program hash, with the
//     JSON result or the error code on failure
//
// Runs are ordered by seq, a logical counter assigned at write time, never
// by wall-clock time. Run IDs are UUIDv7 by default.
//
// The database is configured with WAL mode, synchronous=NORMAL, a
// 5-second busy timeout and foreign keys on.
package store

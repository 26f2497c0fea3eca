// Package backend defines the boundary between the compiler and a
// simulation backend.
//
// A Backend exposes a fixed name table (Table) mapping gate kinds to gate
// constructors, and opens Devices: fresh simulation contexts sized to a
// register width. The compiler only talks to a backend through this
// package; it never passes an unknown gate name through.
package backend

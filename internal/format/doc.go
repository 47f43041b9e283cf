// Package format defines the language-neutral description of data shapes
// that serdegen compiles: Format trees, container definitions and the
// ordered Registry that holds them.
//
// This package has no internal dependencies. Every other package consumes
// a *Registry as read-only input.
//
// Key invariants:
//   - Struct field order and enum variant indices are wire positions
//   - Registry iteration order is insertion order, never map order
//   - TypeName references resolve inside the same Registry (see Validate)
package format

// Package loader reads registry documents from disk.
//
// Four document kinds are understood, chosen by file extension:
//
//   - .json: the interchange form
//   - .jsonc: JSON with comments and trailing commas
//   - .yaml, .yml: the layout serde-reflection tracers emit
//   - .cue: CUE, evaluated and exported in field order
//
// A directory is loaded as a single CUE instance. Container order is
// preserved in every kind because it is part of the generated output.
package loader

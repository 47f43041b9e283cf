// Package python3 emits a Python 3 package of frozen dataclasses with
// explicit serialize and deserialize methods over the bundled runtime.
//
// Annotations has no effect on this target.
package python3

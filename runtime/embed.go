// Package runtime embeds the support libraries that generated code
// depends on, so the generator can install them next to its output.
package runtime

import "embed"

// Go holds the serde, lcs and bincode packages under golang/.
//
//go:embed golang/serde/*.go golang/lcs/*.go golang/bincode/*.go
var Go embed.FS

// Rust holds the std-only runtime module used by explicit-mode crates.
//
//go:embed rust/serde_runtime.rs
var Rust []byte

// Python holds the serde_types, serde_binary, lcs and bincode packages
// under python/.
//
//go:embed python/serde_types/*.py python/serde_binary/*.py python/lcs/*.py python/bincode/*.py
var Python embed.FS

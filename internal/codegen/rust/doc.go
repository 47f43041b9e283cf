// Package rust emits a Rust crate for a registry: src/lib.rs plus a
// Cargo.toml. Explicit mode implements the traits of the bundled
// serde_runtime module by hand; derive mode relies on the serde crate.
package rust

// Package codegen holds what every target generator shares: the
// generation Config, the identifier Namer, shape checks over a registry
// and an indenting source writer.
//
// Target packages (codegen/golang, codegen/rust, codegen/python3) implement
// Generator. Generation is pure: the same registry, plan and config always
// produce byte-identical files.
package codegen

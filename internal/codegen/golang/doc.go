// Package golang emits Go sources for a registry.
//
// Each container becomes a named type with a Serialize method and a
// DeserializeX function written against the runtime serde interfaces;
// enums become sealed interfaces implemented by one struct per variant.
// Composite formats (Option, Seq, Map, tuples, arrays) share helper
// functions named after the mangled format.
package golang

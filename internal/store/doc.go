// Package store provides a SQLite-backed cache of generated artifacts.
//
// Entries are content addressed: the key is a domain-separated SHA-256
// over the registry's canonical JSON, the generation config and the
// runtime flag, so any change to the inputs misses the cache. Artifact
// bodies are stored as deterministic CBOR compressed with zstd.
//
// # Ordering
//
// Every entry carries a seq INTEGER assigned on insert. Listing orders by
// seq then key, never by wall-clock time, so output is reproducible.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store

// Package publish writes generated artifacts into a destination tree.
//
// Source files land under <dest>/<module>/; runtime files land directly
// under <dest>. Every file is written to a uniquely named temp file in
// its target directory, synced, then renamed into place, so a reader
// never sees a partially written file.
package publish

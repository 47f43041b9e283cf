// Package backend maps each codegen.Target to its generator and runs
// generation for one or several targets.
package backend

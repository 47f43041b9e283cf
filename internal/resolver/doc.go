// Package resolver computes the emission order of a registry and the
// reference edges that every backend must break with indirection.
//
// The decision is made once, centrally, so that all targets box the same
// edges. Resolve never fails: every registry graph can be made finite by
// boxing a feedback edge set.
package resolver

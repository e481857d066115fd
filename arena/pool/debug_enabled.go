//go:build arenadebug

package pool

// debugChecks enables free-block signing and Deallocate validation.
const debugChecks = true

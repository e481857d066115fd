//go:build arenadebug

package buddy

// debugChecks enables header signatures and Deallocate validation.
const debugChecks = true

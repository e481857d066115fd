//go:build !arenadebug

package arena

// debugChecks enables initialization and ownership assertions on the fast
// paths.
const debugChecks = false

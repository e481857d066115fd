// Package arena provides the process-wide allocation front end: it owns two
// buddy engines (and, optionally, six fixed-size small-block pools) and
// routes every request by size.
//
// # Routing
//
// Allocate(n) first tries the small pool whose class is the smallest power
// of two >= n when pools are enabled and n <= 1024 bytes. On a pool miss —
// or with pools disabled — the request goes to one of the two buddy
// engines, chosen by an atomic round-robin counter. Two engines halve lock
// contention on allocation at the cost of one extra range check on free,
// which stays O(1).
//
// Deallocate locates the owning component by range check, in the order
// pools first, then the engines, and forwards the pointer.
//
// # The default arena
//
// The package maintains one process-wide Arena used by the package-level
// functions:
//
//	if err := arena.Initialize(); err != nil {
//		return err
//	}
//	defer arena.Deinitialize()
//
//	p := arena.Allocate(512)
//	defer arena.Deallocate(p)
//
// Explicit instances are available through New for callers that want their
// own pools (tests do this with small configurations):
//
//	a := arena.New(&arena.Config{Engine: buddy.Config{K: 20}})
//	err := a.Initialize()
//
// # Thread safety
//
// All methods are safe for concurrent use once Initialize has returned.
// Initialize and Deinitialize must not race with allocation; the
// initialized flag is checked on the fast path only in debug builds.
package arena

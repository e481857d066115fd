// Package osmem obtains raw, aligned memory regions from the operating
// system. It is the only place the allocator talks to the OS: one region is
// mapped per pool at initialization and unmapped at deinitialization.
//
// Regions are page-aligned, which satisfies every alignment requirement in
// the allocator (the strictest is 32 bytes).
package osmem

import "errors"

// ErrMapFailed indicates the OS refused to provide the requested region.
var ErrMapFailed = errors.New("osmem: mapping failed")

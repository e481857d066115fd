package arena

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/joshuapare/arenakit/arena/buddy"
	"github.com/joshuapare/arenakit/arena/pool"
	"github.com/joshuapare/arenakit/internal/bits"
	"github.com/joshuapare/arenakit/internal/spin"
)

// Arena routes allocation requests to its pools and engines. The zero
// value is not usable; construct with New and call Initialize.
type Arena struct {
	cfg Config

	initMu      spin.Mutex
	initialized atomic.Bool

	// pools are nil unless Config.UsePools is set.
	pools   [NumPoolClasses]*pool.Pool
	engines [2]*buddy.Engine

	// toggle's low bit picks the engine for buddy-bound requests. It is
	// bumped only when a request actually reaches the engines, so pool
	// hits do not advance the rotation.
	toggle atomic.Uint32
}

// New returns an uninitialized arena. A nil cfg selects DefaultConfig. No
// memory is mapped until Initialize.
func New(cfg *Config) *Arena {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	return &Arena{cfg: *cfg}
}

// Initialize maps every pool and both engines and marks the arena ready.
// A second Initialize fails with ErrAlreadyInitialized (and panics in
// debug builds). An OS mapping failure tears down whatever was already
// mapped and is returned to the caller; it is fatal for this arena.
func (a *Arena) Initialize() error {
	a.initMu.Lock()
	defer a.initMu.Unlock()

	if a.initialized.Load() {
		if debugChecks {
			panic("arena: Initialize: already initialized")
		}
		return ErrAlreadyInitialized
	}

	if a.cfg.UsePools {
		for c := range a.pools {
			p, err := pool.New(poolBlockSizes[c], a.cfg.PoolCounts[c])
			if err != nil {
				a.teardown()
				return fmt.Errorf("arena: pool class %d: %w", c, err)
			}
			a.pools[c] = p
		}
	}
	for idx := range a.engines {
		e, err := buddy.New(&a.cfg.Engine)
		if err != nil {
			a.teardown()
			return fmt.Errorf("arena: engine %d: %w", idx, err)
		}
		a.engines[idx] = e
	}

	a.initialized.Store(true)
	return nil
}

// Deinitialize releases every pool and engine. All pointers ever returned
// by the arena become invalid. Fails with ErrNotInitialized when the arena
// is not initialized (and panics in debug builds).
func (a *Arena) Deinitialize() error {
	a.initMu.Lock()
	defer a.initMu.Unlock()

	if !a.initialized.Load() {
		if debugChecks {
			panic("arena: Deinitialize: not initialized")
		}
		return ErrNotInitialized
	}

	a.initialized.Store(false)
	return a.teardown()
}

// teardown closes whatever components exist. Caller holds initMu.
func (a *Arena) teardown() error {
	var errs []error
	for c, p := range a.pools {
		if p != nil {
			errs = append(errs, p.Close())
			a.pools[c] = nil
		}
	}
	for idx, e := range a.engines {
		if e != nil {
			errs = append(errs, e.Close())
			a.engines[idx] = nil
		}
	}
	return errors.Join(errs...)
}

// IsInitialized reports whether Initialize has completed.
func (a *Arena) IsInitialized() bool {
	return a.initialized.Load()
}

// MaxSize returns the upper limit for a single allocation. Valid before
// Initialize: it depends only on the configuration.
func (a *Arena) MaxSize() int {
	return a.cfg.Engine.MaxSize()
}

// Allocate returns a 32-byte-aligned pointer owning at least n bytes, or
// nil when n is zero, oversized, or no component has room.
func (a *Arena) Allocate(n int) unsafe.Pointer {
	if n <= 0 {
		return nil
	}
	if debugChecks && !a.initialized.Load() {
		panic("arena: Allocate before Initialize")
	}

	if a.cfg.UsePools && n <= MaxPoolBlockSize {
		if ptr := a.pools[poolClass(n)].Allocate(); ptr != nil {
			return ptr
		}
	}
	idx := a.toggle.Add(1) & 1
	return a.engines[idx].Allocate(n)
}

// AllocateUseful is Allocate plus the usable size of the returned block:
// the pool's block size on a pool hit, 2^(k-1) minus the header for a
// buddy block. Failure reports (nil, 0).
func (a *Arena) AllocateUseful(n int) (unsafe.Pointer, int) {
	if n <= 0 {
		return nil, 0
	}
	if debugChecks && !a.initialized.Load() {
		panic("arena: AllocateUseful before Initialize")
	}

	if a.cfg.UsePools && n <= MaxPoolBlockSize {
		c := poolClass(n)
		if ptr := a.pools[c].Allocate(); ptr != nil {
			return ptr, poolBlockSizes[c]
		}
	}
	idx := a.toggle.Add(1) & 1
	return a.engines[idx].AllocateUseful(n)
}

// Deallocate returns ptr to the component that owns it, located by range
// check: pools first, then the engines. A nil ptr is a no-op. A pointer
// outside every component panics in debug builds; release builds forward
// it to the second engine, matching the allocation dispatch order, with
// undefined results.
func (a *Arena) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	if debugChecks {
		if !a.initialized.Load() {
			panic("arena: Deallocate before Initialize")
		}
		if !a.Contains(ptr) {
			panic(fmt.Sprintf("arena: Deallocate(%p): pointer is outside of the address space", ptr))
		}
	}

	if a.cfg.UsePools {
		for _, p := range a.pools {
			if p.Contains(ptr) {
				p.Deallocate(ptr)
				return
			}
		}
	}
	if a.engines[0].Contains(ptr) {
		a.engines[0].Deallocate(ptr)
	} else {
		a.engines[1].Deallocate(ptr)
	}
}

// Contains reports whether ptr lies inside any of the arena's regions.
func (a *Arena) Contains(ptr unsafe.Pointer) bool {
	if a.cfg.UsePools {
		for _, p := range a.pools {
			if p != nil && p.Contains(ptr) {
				return true
			}
		}
	}
	for _, e := range a.engines {
		if e != nil && e.Contains(ptr) {
			return true
		}
	}
	return false
}

// poolClass maps a request size to the pool whose block size is the
// smallest power of two >= n. Callers guarantee 0 < n <= 1024.
func poolClass(n int) int {
	if n <= 32 {
		return 0
	}
	return int(bits.FastLog2(uint32(n-1))) - 4
}

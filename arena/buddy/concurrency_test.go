package buddy

import (
	"math/rand"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// TestConcurrent_DisjointAllocFree runs several goroutines doing random
// alloc/free pairs on their own pointers. Afterwards the pool must have
// coalesced back into the root and every invariant must hold.
func TestConcurrent_DisjointAllocFree(t *testing.T) {
	e := newTestEngine(t)

	const (
		workers    = 8
		iterations = 500
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			var mine []unsafe.Pointer

			for range iterations {
				if rng.Intn(2) == 0 || len(mine) == 0 {
					// Small sizes keep the shared pool from exhausting
					// under 8 concurrent holders.
					if ptr := e.Allocate(1 + rng.Intn(1024)); ptr != nil {
						mine = append(mine, ptr)
					}
				} else {
					victim := rng.Intn(len(mine))
					e.Deallocate(mine[victim])
					mine[victim] = mine[len(mine)-1]
					mine = mine[:len(mine)-1]
				}
			}
			for _, ptr := range mine {
				e.Deallocate(ptr)
			}
		}(int64(w + 1))
	}
	wg.Wait()

	requireRootOnly(t, e)
	checkInvariants(t, e)
}

// TestConcurrent_PointersAreDistinct hammers Allocate from many goroutines
// and verifies no two callers ever receive overlapping blocks.
func TestConcurrent_PointersAreDistinct(t *testing.T) {
	e := newTestEngine(t)

	const (
		workers = 8
		perGoro = 100
	)

	results := make([][]unsafe.Pointer, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func(slot int) {
			defer wg.Done()
			for range perGoro {
				if ptr := e.Allocate(256); ptr != nil {
					results[slot] = append(results[slot], ptr)
				}
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[uintptr]bool)
	for _, ptrs := range results {
		for _, ptr := range ptrs {
			require.False(t, seen[uintptr(ptr)], "pointer %p returned twice", ptr)
			seen[uintptr(ptr)] = true
		}
	}
	require.NotEmpty(t, seen)

	for _, ptrs := range results {
		for _, ptr := range ptrs {
			e.Deallocate(ptr)
		}
	}
	requireRootOnly(t, e)
}

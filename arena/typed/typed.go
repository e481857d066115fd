// Package typed adapts the arena's byte API for typed slices: Allocate(n)
// of element type T forwards n * sizeof(T) bytes to the process-wide arena
// and views the result as []T.
//
// The adapter is pure glue. It holds no state, every instance is equal to
// every other, and element types must not require alignment beyond the
// arena's 32 bytes (no Go type does without explicit padding).
package typed

import (
	"unsafe"

	"github.com/joshuapare/arenakit/arena"
)

// Allocator hands out typed slices backed by the process-wide arena.
type Allocator[T any] struct{}

// Allocate returns a slice of count elements, or nil when count is not
// positive or the arena has no room. The memory is not zeroed.
func (Allocator[T]) Allocate(count int) []T {
	if count <= 0 {
		return nil
	}
	var zero T
	ptr := arena.Allocate(count * int(unsafe.Sizeof(zero)))
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*T)(ptr), count)
}

// Deallocate returns a slice previously produced by Allocate. A nil slice
// is a no-op.
func (Allocator[T]) Deallocate(s []T) {
	if s == nil {
		return
	}
	arena.Deallocate(unsafe.Pointer(unsafe.SliceData(s)))
}

// Equal reports whether two allocators are interchangeable. They always
// are: the adapter is stateless.
func (Allocator[T]) Equal(Allocator[T]) bool {
	return true
}

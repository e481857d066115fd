package pool

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, blockSize, count int) *Pool {
	t.Helper()
	p, err := New(blockSize, count)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, p.Close())
	})
	return p
}

func TestNew_Validation(t *testing.T) {
	_, err := New(24, 10)
	require.ErrorIs(t, err, ErrBadBlockSize, "not a power of two")

	_, err = New(16, 10)
	require.ErrorIs(t, err, ErrBadBlockSize, "below minimum")

	_, err = New(64, 0)
	require.ErrorIs(t, err, ErrBadCount)
}

func TestAllocate_PopsInIndexOrder(t *testing.T) {
	p := newTestPool(t, 64, 4)

	// A fresh pool hands out blocks front to back.
	for i := range 4 {
		ptr := p.Allocate()
		require.NotNil(t, ptr, "block %d", i)
		require.Equal(t, uintptr(p.base)+uintptr(i*64), uintptr(ptr))
		require.Zero(t, uintptr(ptr)%blockAlign)
		require.True(t, p.Contains(ptr))
	}

	// Exhausted.
	require.Nil(t, p.Allocate())
}

func TestDeallocate_LIFOReuse(t *testing.T) {
	p := newTestPool(t, 128, 8)

	a := p.Allocate()
	b := p.Allocate()
	require.NotNil(t, a)
	require.NotNil(t, b)

	p.Deallocate(b)
	// The freed block is the new head and comes back first.
	require.Equal(t, b, p.Allocate())

	p.Deallocate(a)
	p.Deallocate(b)
}

func TestExhaustionAndRecovery(t *testing.T) {
	const count = 16
	p := newTestPool(t, 32, count)

	ptrs := make([]unsafe.Pointer, 0, count)
	for {
		ptr := p.Allocate()
		if ptr == nil {
			break
		}
		ptrs = append(ptrs, ptr)
	}
	require.Len(t, ptrs, count)

	for _, ptr := range ptrs {
		p.Deallocate(ptr)
	}

	// Every block must be allocatable again.
	for range count {
		require.NotNil(t, p.Allocate())
	}
}

func TestBlocksAreWritable(t *testing.T) {
	p := newTestPool(t, 256, 4)

	ptr := p.Allocate()
	require.NotNil(t, ptr)

	b := unsafe.Slice((*byte)(ptr), 256)
	for i := range b {
		b[i] = byte(i)
	}

	// A sibling allocation must not see the neighbour's writes corrupt its
	// own free-list link before being handed out.
	sibling := p.Allocate()
	require.NotNil(t, sibling)
	require.NotEqual(t, ptr, sibling)

	p.Deallocate(sibling)
	p.Deallocate(ptr)
}

func TestContains_Bounds(t *testing.T) {
	p := newTestPool(t, 64, 4)

	first := p.Allocate()
	require.True(t, p.Contains(first))
	require.True(t, p.Contains(unsafe.Add(first, 4*64-1)), "last byte of the slab")
	require.False(t, p.Contains(unsafe.Add(first, 4*64)), "one past the slab")

	var local int
	require.False(t, p.Contains(unsafe.Pointer(&local)))

	p.Deallocate(first)
}

func TestBlockSize(t *testing.T) {
	p := newTestPool(t, 512, 2)
	require.Equal(t, 512, p.BlockSize())
}

func TestPrintCondition(t *testing.T) {
	p := newTestPool(t, 64, 10)

	ptr := p.Allocate()
	require.NotNil(t, ptr)

	var sb strings.Builder
	p.PrintCondition(&sb)
	out := sb.String()

	require.Contains(t, out, "Pool<64>:")
	require.Contains(t, out, "pool size:  640 bytes (10 blocks)")
	require.Contains(t, out, "free space: 576 bytes (9 blocks)")
	require.Contains(t, out, "used space: 64 bytes (1 blocks)")

	p.Deallocate(ptr)
}

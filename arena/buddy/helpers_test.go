package buddy

import (
	"cmp"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/internal/bits"
)

// testK keeps the mapped pool at 1MB so full-pool scenarios stay cheap.
const testK = 20

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(&Config{K: testK})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, e.Close())
	})
	return e
}

// freeBlockState identifies one free superblock: its list cell and its
// virtual offset.
type freeBlockState struct {
	k, i uint32
	off  uint64
}

// collectFree walks the whole free table and returns every free superblock
// in deterministic order.
func collectFree(e *Engine) []freeBlockState {
	var out []freeBlockState
	for k := range e.freeBlocks {
		for i := range e.freeBlocks[k] {
			head := &e.freeBlocks[k][i]
			for s := head.next; s != head; s = s.next {
				out = append(out, freeBlockState{uint32(k), uint32(i), e.toVirtualOffset(s)})
			}
		}
	}
	slices.SortFunc(out, func(a, b freeBlockState) int {
		return cmp.Or(
			cmp.Compare(a.off, b.off),
			cmp.Compare(a.k, b.k),
			cmp.Compare(a.i, b.i),
		)
	})
	return out
}

// checkInvariants validates the free table against its redundant indexes:
// every listed superblock matches its cell's (k, i), every bitvector bit
// mirrors list non-emptiness, and the least-set-bit cache is fresh. Free
// superblocks must not overlap each other and must stay inside the pool.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()

	type span struct{ lo, hi uint64 }
	var spans []span

	for k := range e.freeBlocks {
		for i := range e.freeBlocks[k] {
			head := &e.freeBlocks[k][i]
			empty := head.next == head
			bitSet := e.bitvectors[k]&(1<<uint(i)) != 0
			require.Equal(t, !empty, bitSet, "BV[%d] bit %d vs list emptiness", k, i)

			for s := head.next; s != head; s = s.next {
				require.EqualValues(t, 1, s.free, "free flag of listed block (%d,%d)", k, i)
				require.EqualValues(t, k, s.k, "power class of listed block in row %d", k)
				require.EqualValues(t, i, e.calculateI(s), "offset class of listed block (%d,%d)", k, i)

				off := e.toVirtualOffset(s)
				require.Less(t, off, uint64(1)<<e.cfg.K, "offset inside the pool")
				require.Zero(t, off%MinAllocationSize, "offset granularity")
				size := uint64(1)<<uint(k) - uint64(1)<<uint(i)
				spans = append(spans, span{off, off + size})
			}
		}
		require.Equal(t, bits.LeastSetBit64(e.bitvectors[k]), e.leastSetBits[k],
			"LSB cache of row %d", k)
	}

	slices.SortFunc(spans, func(a, b span) int { return cmp.Compare(a.lo, b.lo) })
	for n := 1; n < len(spans); n++ {
		require.LessOrEqual(t, spans[n-1].hi, spans[n].lo,
			"free superblocks [%#x,%#x) and [%#x,%#x) overlap",
			spans[n-1].lo, spans[n-1].hi, spans[n].lo, spans[n].hi)
	}
}

// requireRootOnly asserts the pool has fully coalesced back into the
// single root superblock (K+1, K) at offset zero.
func requireRootOnly(t *testing.T, e *Engine) {
	t.Helper()
	free := collectFree(e)
	require.Len(t, free, 1, "expected a single free superblock")
	require.Equal(t, freeBlockState{e.cfg.K + 1, e.cfg.K, 0}, free[0])
}

package buddy

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/joshuapare/arenakit/internal/bits"
	"github.com/joshuapare/arenakit/internal/osmem"
	"github.com/joshuapare/arenakit/internal/spin"
)

// Runtime flag for allocation tracing - controlled by ARENAKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("ARENAKIT_LOG_ALLOC") != ""

// Engine is one buddy allocator over a single 2^K-byte pool.
//
// All mutable state — the free table, the bitvectors, the least-set-bit
// cache — is guarded by one spinlock held for the whole of every operation.
type Engine struct {
	cfg Config
	mu  spin.Mutex

	// region is the mapped pool: 2^K bytes plus Alignment slack at the low
	// end for the first block's header.
	region []byte

	// virtualZero is region base + Alignment - headerSize. Every block
	// header lives at virtualZero + offset for a virtual offset in
	// [0, 2^K), and every user pointer at a further headerSize bytes,
	// which is 32-byte aligned.
	virtualZero unsafe.Pointer

	// freeBlocks[k][i] is the sentinel of the cyclic list of free
	// superblocks of shape 2^k - 2^i. Cyclic-with-sentinel removes nil
	// checks on splice and gives O(1) removal at arbitrary positions.
	freeBlocks [][]superblock

	// bitvectors[k] bit i is set iff freeBlocks[k][i] is non-empty;
	// leastSetBits[k] caches the lowest set bit (64 when empty).
	bitvectors   []uint64
	leastSetBits []uint32

	stats Stats
}

// Stats counts engine activity. Snapshots are taken under the engine lock.
type Stats struct {
	AllocCalls  int64 // total Allocate calls
	AllocFailed int64 // Allocate calls that returned nil
	FreeCalls   int64 // total Deallocate calls
	Splits      int64 // superblocks split during allocation
	Merges      int64 // buddy pairs merged during deallocation
}

// New maps the pool and builds the free table, leaving a single root
// superblock of shape (K+1, K) covering the whole region. A nil cfg selects
// DefaultConfig. Mapping failure is returned as an error; the engine is
// unusable afterwards.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: *cfg}
	if err := e.initialize(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initialize() error {
	K := e.cfg.K

	// The extra Alignment bytes hold the first block's header, so that the
	// first user address lands back on a 32-byte boundary.
	region, err := osmem.Alloc((1 << K) + Alignment)
	if err != nil {
		return fmt.Errorf("buddy: initialize: %w", err)
	}
	e.region = region
	e.virtualZero = unsafe.Add(unsafe.Pointer(&region[0]), Alignment-headerSize)

	e.freeBlocks = make([][]superblock, K+2)
	for k := range e.freeBlocks {
		row := make([]superblock, K+1)
		for i := range row {
			row[i].prev = &row[i]
			row[i].next = &row[i]
		}
		e.freeBlocks[k] = row
	}
	e.bitvectors = make([]uint64, K+2)
	e.leastSetBits = make([]uint32, K+2)
	for k := range e.leastSetBits {
		e.leastSetBits[k] = 64
	}

	root := e.fromVirtualOffset(0)
	root.free = 1
	root.k = uint16(K + 1)
	sign(root)
	e.insertFreeSuperblock(root)

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[BUDDY] initialized: K=%d, pool=%d bytes\n", K, 1<<K)
	}
	return nil
}

// Close returns the pool to the OS and resets all tables. The engine must
// not be used afterwards; outstanding pointers become invalid.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := osmem.Free(e.region)
	e.region = nil
	e.virtualZero = nil
	e.freeBlocks = nil
	e.bitvectors = nil
	e.leastSetBits = nil
	return err
}

// MaxSize returns the largest single allocation the engine accepts.
func (e *Engine) MaxSize() int {
	return e.cfg.MaxSize()
}

// Contains reports whether ptr lies inside this engine's region. The range
// includes the Alignment slack at the low end, mirroring the mapped extent.
func (e *Engine) Contains(ptr unsafe.Pointer) bool {
	if e.region == nil {
		return false
	}
	base := uintptr(unsafe.Pointer(&e.region[0]))
	u := uintptr(ptr)
	return u >= base && u < base+uintptr(len(e.region))
}

// Allocate returns a 32-byte-aligned pointer owning at least n usable
// bytes, or nil when n is out of range or no suitable block is free.
func (e *Engine) Allocate(n int) unsafe.Pointer {
	if n <= 0 || n > e.MaxSize() {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.AllocCalls++
	ptr := e.allocateSuperblock(uint64(n))
	if ptr == nil {
		e.stats.AllocFailed++
		if logAlloc {
			fmt.Fprintf(os.Stderr, "[BUDDY] Allocate(%d): no free superblock\n", n)
		}
	}
	return ptr
}

// AllocateUseful is Allocate plus the actual usable size of the returned
// block, 2^(k-1) - headerSize for the block's power class k. Failure
// reports (nil, 0).
func (e *Engine) AllocateUseful(n int) (unsafe.Pointer, int) {
	ptr := e.Allocate(n)
	if ptr == nil {
		return nil, 0
	}
	k := uint32(fromUserAddress(ptr).k)
	return ptr, (1 << (k - 1)) - headerSize
}

// Deallocate releases a pointer previously returned by this engine and
// merges the freed block with its buddies as far as possible. With debug
// checks on, an unaligned pointer or an invalid header signature (double
// free, foreign pointer, corruption) panics with a diagnostic.
func (e *Engine) Deallocate(ptr unsafe.Pointer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if debugChecks {
		if uintptr(ptr)%Alignment != 0 {
			panic(fmt.Sprintf("buddy: Deallocate(%p): pointer is not %d-byte aligned", ptr, Alignment))
		}
		if !e.validSignature(fromUserAddress(ptr)) {
			panic(fmt.Sprintf("buddy: Deallocate(%p): pointer is already freed or was not returned by this engine", ptr))
		}
	}

	e.stats.FreeCalls++
	sblk := fromUserAddress(ptr)
	sblk.free = 1
	e.merge(sblk)
}

// GetStats returns a snapshot of the engine's counters.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// allocateSuperblock carves a block of class j out of the best-fitting free
// superblock. Caller holds the engine lock.
func (e *Engine) allocateSuperblock(n uint64) unsafe.Pointer {
	j := calculateJ(n)
	sblk := e.findFreeSuperblock(j)
	if sblk == nil {
		return nil
	}

	// Remove the selected superblock; its residuals are re-inserted below.
	e.removeFreeSuperblock(sblk)
	oldK := uint32(sblk.k)
	oldI := e.calculateI(sblk)

	if oldI > j {
		// The block is too skewed to hold the notch: carve the user block
		// at its base and leave up to two residual superblocks.
		e.stats.Splits++
		sblk.free = 0
		sblk.k = uint16(j + 1)

		block1 := e.fromVirtualOffset(e.toVirtualOffset(sblk) + 1<<j)
		block1.free = 1
		block1.k = uint16(oldI)
		sign(block1)
		e.insertFreeSuperblock(block1)

		if oldK != oldI+1 {
			block2 := e.fromVirtualOffset(e.toVirtualOffset(sblk) + 1<<oldI)
			block2.free = 1
			block2.k = uint16(oldK)
			sign(block2)
			e.insertFreeSuperblock(block2)
		}

		sign(sblk)
		return toUserAddress(sblk)
	}

	// The user block sits in the notch: 2^j - 2^oldI past the base.
	addr := e.fromVirtualOffset(e.toVirtualOffset(sblk) + 1<<j - 1<<oldI)
	addr.free = 0
	addr.k = uint16(j + 1)

	// A left remainder may not exist (j == oldI)...
	if j > oldI {
		e.stats.Splits++
		sblk.k = uint16(j)
		sign(sblk)
		e.insertFreeSuperblock(sblk)
	}
	// ...and a right remainder may not be needed.
	if j < oldK-1 {
		e.stats.Splits++
		rblock := e.fromVirtualOffset(e.toVirtualOffset(addr) + 1<<j)
		rblock.free = 1
		rblock.k = uint16(oldK)
		sign(rblock)
		e.insertFreeSuperblock(rblock)
	}

	sign(addr)
	return toUserAddress(addr)
}

// merge coalesces sblk with its buddy repeatedly, then inserts the result.
// The loop runs at most K times: each round doubles the block. Caller holds
// the engine lock and has set sblk.free.
func (e *Engine) merge(sblk *superblock) {
	for {
		// The whole pool has coalesced; nothing left to merge with.
		if e.toVirtualOffset(sblk) == 0 && uint32(sblk.k) == e.cfg.K+1 {
			break
		}
		buddy := e.findBuddySuperblock(sblk)
		if buddy.free == 0 || e.calculateI(buddy) != e.calculateI(sblk) {
			break
		}

		e.stats.Merges++
		e.removeFreeSuperblock(buddy)
		buddyK := uint32(buddy.k)
		if uintptr(unsafe.Pointer(buddy)) < uintptr(unsafe.Pointer(sblk)) {
			sblk = buddy
		}
		sblk.k = uint16(buddyK + 1)
	}
	sign(sblk)
	e.insertFreeSuperblock(sblk)
}

// insertFreeSuperblock splices sblk at the head of its (k, i) list and
// updates the bitvector and least-set-bit cache.
func (e *Engine) insertFreeSuperblock(sblk *superblock) {
	k := uint32(sblk.k)
	i := e.calculateI(sblk)
	head := &e.freeBlocks[k][i]

	sblk.next = head.next
	head.next = sblk
	sblk.prev = head
	sblk.next.prev = sblk

	e.bitvectors[k] |= 1 << i
	e.leastSetBits[k] = bits.LeastSetBit64(e.bitvectors[k])
}

// removeFreeSuperblock unlinks sblk; when that empties the (k, i) list it
// clears the bitvector bit and refreshes the cache.
func (e *Engine) removeFreeSuperblock(sblk *superblock) {
	sblk.prev.next = sblk.next
	sblk.next.prev = sblk.prev

	k := uint32(sblk.k)
	i := e.calculateI(sblk)
	head := &e.freeBlocks[k][i]
	if head.next == head {
		e.bitvectors[k] &^= 1 << i
		e.leastSetBits[k] = bits.LeastSetBit64(e.bitvectors[k])
	}
}

// findFreeSuperblock picks the free superblock for class j: scan powers
// k = j+1 .. K+1 and take the (k, i) minimizing i, ties to the smallest k.
// Best fit by smallest offset class minimizes the split residuals. Returns
// nil when every row is empty.
func (e *Engine) findFreeSuperblock(j uint32) *superblock {
	minI, minK := uint32(64), uint32(0)
	for k := j + 1; k < e.cfg.K+2; k++ {
		if e.leastSetBits[k] < minI {
			minI = e.leastSetBits[k]
			minK = k
		}
	}
	if minI == 64 {
		return nil
	}
	return e.freeBlocks[minK][minI].next
}

// findBuddySuperblock flips bit i of the virtual offset: the sibling under
// the binary tree of splits at the current offset class.
func (e *Engine) findBuddySuperblock(sblk *superblock) *superblock {
	return e.fromVirtualOffset(e.toVirtualOffset(sblk) ^ 1<<e.calculateI(sblk))
}

// calculateI derives a superblock's offset class from its position:
// min(leastSetBit(offset), k-1). The root block (offset 0) saturates to
// k-1.
func (e *Engine) calculateI(sblk *superblock) uint32 {
	return min(bits.LeastSetBit64(e.toVirtualOffset(sblk)), uint32(sblk.k)-1)
}

// calculateJ maps a request of n user bytes to its power class: the
// smallest j with 2^j >= n + headerSize, never below the minimum block
// size.
func calculateJ(n uint64) uint32 {
	return max(bits.FastLog64(n+headerSize-1)+1, MinAllocationSizeLog)
}

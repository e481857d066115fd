// Package pool implements fixed-size small-block pools: one slab per size
// class, carved into equal blocks linked through an intrusive, index-keyed
// free list.
//
// For small allocations a pool is O(1) with no splitting and good cache
// locality; the arena dispatcher fronts the buddy engines with six of them
// (32B .. 1024B) when enabled.
//
// Debug signing is inverted relative to the buddy engine: a free block
// carries the signature, so freeing an already-free block is detected.
package pool

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/arenakit/internal/osmem"
	"github.com/joshuapare/arenakit/internal/spin"
)

// blockAlign is the alignment every block satisfies: slabs are page-aligned
// and block sizes are powers of two no smaller than this.
const blockAlign = 32

// invalidIdx terminates the free list.
const invalidIdx = ^uint64(0)

// Pool is one fixed-size slab. Blocks are addressed by index; the free
// list threads through the first word of each free block, and the head
// index is cached in the struct. One spinlock guards the head and counter.
type Pool struct {
	blockSize int
	count     int

	mu        spin.Mutex
	slab      []byte
	base      unsafe.Pointer
	headIdx   uint64
	allocated int
}

// New maps a slab of blockSize*count bytes and links every block onto the
// free list. blockSize must be a power of two, at least 32.
func New(blockSize, count int) (*Pool, error) {
	if blockSize < blockAlign || blockSize&(blockSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadBlockSize, blockSize)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadCount, count)
	}

	slab, err := osmem.Alloc(blockSize * count)
	if err != nil {
		return nil, fmt.Errorf("pool: initialize: %w", err)
	}

	p := &Pool{
		blockSize: blockSize,
		count:     count,
		slab:      slab,
		base:      unsafe.Pointer(&slab[0]),
	}
	for i := range count {
		*p.nextPtr(uint64(i)) = uint64(i) + 1
		p.signFree(uint64(i))
	}
	*p.nextPtr(uint64(count - 1)) = invalidIdx
	return p, nil
}

// Close returns the slab to the OS. Outstanding pointers become invalid.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := osmem.Free(p.slab)
	p.slab = nil
	p.base = nil
	p.headIdx = invalidIdx
	p.allocated = 0
	return err
}

// BlockSize returns the pool's fixed block size.
func (p *Pool) BlockSize() int {
	return p.blockSize
}

// Allocate pops the free-list head. Returns nil when the pool is empty.
func (p *Pool) Allocate() unsafe.Pointer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.headIdx == invalidIdx {
		return nil
	}
	free := p.headIdx
	p.headIdx = *p.nextPtr(free)
	p.allocated++
	if debugChecks {
		p.unsignFree(free)
	}
	return p.blockPtr(free)
}

// Deallocate pushes the block back on the free-list head. With debug
// checks on, an unaligned pointer or a block still carrying its free-block
// signature (double free) panics with a diagnostic.
func (p *Pool) Deallocate(ptr unsafe.Pointer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := uint64(uintptr(ptr)-uintptr(p.base)) / uint64(p.blockSize)
	if debugChecks {
		if uintptr(ptr)%blockAlign != 0 {
			panic(fmt.Sprintf("pool: Deallocate(%p): pointer is not %d-byte aligned", ptr, blockAlign))
		}
		if p.isSignedFree(idx) {
			panic(fmt.Sprintf("pool: Deallocate(%p): block has already been freed", ptr))
		}
		p.signFree(idx)
	}
	p.allocated--
	*p.nextPtr(idx) = p.headIdx
	p.headIdx = idx
}

// Contains reports whether ptr lies inside the slab.
func (p *Pool) Contains(ptr unsafe.Pointer) bool {
	if p.slab == nil {
		return false
	}
	base := uintptr(p.base)
	u := uintptr(ptr)
	return u >= base && u < base+uintptr(len(p.slab))
}

// blockPtr returns the address of block idx.
func (p *Pool) blockPtr(idx uint64) unsafe.Pointer {
	return unsafe.Add(p.base, uintptr(idx)*uintptr(p.blockSize))
}

// nextPtr returns the free-list link word of block idx: its first 8 bytes.
func (p *Pool) nextPtr(idx uint64) *uint64 {
	return (*uint64)(p.blockPtr(idx))
}

// sigPtr returns the signature word of block idx: the 8 bytes after the
// link word. Valid because blocks are at least 32 bytes.
func (p *Pool) sigPtr(idx uint64) *uint64 {
	return (*uint64)(unsafe.Add(p.blockPtr(idx), 8))
}

func (p *Pool) signature(idx uint64) uint64 {
	return ^uint64(uintptr(p.blockPtr(idx)))
}

func (p *Pool) signFree(idx uint64) {
	if debugChecks {
		*p.sigPtr(idx) = p.signature(idx)
	}
}

func (p *Pool) unsignFree(idx uint64) {
	*p.sigPtr(idx) = 0
}

func (p *Pool) isSignedFree(idx uint64) bool {
	return *p.sigPtr(idx) == p.signature(idx)
}

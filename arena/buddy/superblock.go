package buddy

import "unsafe"

// superblock is the in-region view of a block. The first headerSize bytes
// (k, free, signature) form the header present on every block; prev and
// next overlay the block's payload and are valid only while the block is on
// a free list. Sentinel nodes in the free table are ordinary Go values of
// this type living outside the region.
type superblock struct {
	k         uint16
	free      uint16
	signature uint32
	prev      *superblock
	next      *superblock
}

// headerSize is the per-block overhead, in bytes. It must stay below both
// Alignment and MinAllocationSize so headers never overlap their
// neighbours.
const headerSize = 8

// Compile-time checks: the link words must start exactly at headerSize.
var (
	_ [unsafe.Offsetof(superblock{}.prev) - headerSize]struct{}
	_ [headerSize - unsafe.Offsetof(superblock{}.prev)]struct{}
)

// toUserAddress returns the pointer handed to the caller: just past the
// header, which lands on a 32-byte boundary for every block in the pool.
func toUserAddress(s *superblock) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(s), headerSize)
}

// fromUserAddress recovers the header from a pointer previously returned
// by toUserAddress.
func fromUserAddress(p unsafe.Pointer) *superblock {
	return (*superblock)(unsafe.Add(p, -headerSize))
}

// toVirtualOffset converts a block address to its canonical identity: the
// distance from virtualZero. Offsets range over [0, 2^K) and are always a
// multiple of MinAllocationSize.
func (e *Engine) toVirtualOffset(s *superblock) uint64 {
	return uint64(uintptr(unsafe.Pointer(s)) - uintptr(e.virtualZero))
}

// fromVirtualOffset is the inverse of toVirtualOffset.
func (e *Engine) fromVirtualOffset(off uint64) *superblock {
	return (*superblock)(unsafe.Add(e.virtualZero, uintptr(off)))
}

// blueprint packs the header's mutable fields into one word for signing.
func blueprint(s *superblock) uint32 {
	return uint32(s.free)<<16 | uint32(s.k)
}

// signatureOf derives the tamper-detection tag from the header's contents
// and its address. A random address holding a valid tag is a ~1 in 10^13
// event, and the address term makes the odds shrink with every run.
func signatureOf(s *superblock) uint32 {
	return ^blueprint(s) ^ uint32(uintptr(unsafe.Pointer(s))>>8)
}

// sign refreshes the tag after a header mutation. No-op in release builds.
func sign(s *superblock) {
	if debugChecks {
		s.signature = signatureOf(s)
	}
}

// validSignature reports whether a header looks like one this engine handed
// out: in use, plausible power class, matching tag.
func (e *Engine) validSignature(s *superblock) bool {
	return s.free == 0 &&
		uint32(s.k) > MinAllocationSizeLog &&
		uint32(s.k) <= e.cfg.K+1 &&
		s.signature == signatureOf(s)
}

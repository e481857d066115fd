// Package bits provides the branch-free bit arithmetic used on the
// allocator's hot paths: floor-log2 and least-set-bit over 32- and 64-bit
// words, implemented with De Bruijn multiplication tables.
//
// Every allocation and deallocation calls into this package, so the kernels
// are a multiply and a small table lookup. FastLog2 is branch-free; the
// least-set-bit functions branch on a zero input, and the 64-bit variants
// branch to pick a half and reuse the 32-bit kernels.
package bits

// deBruijnLog2 is the inverse permutation for the 0x07C4ACDD multiplier.
var deBruijnLog2 = [32]uint32{
	0, 9, 1, 10, 13, 21, 2, 29, 11, 14, 16, 18, 22, 25, 3, 30,
	8, 12, 20, 28, 15, 17, 24, 7, 19, 27, 23, 6, 26, 5, 4, 31,
}

// deBruijnLSB is the inverse permutation for the 0x077CB531 multiplier.
var deBruijnLSB = [32]uint32{
	0, 1, 28, 2, 29, 14, 24, 3, 30, 22, 20, 15, 25, 17, 4, 8,
	31, 27, 13, 23, 21, 19, 16, 7, 26, 12, 18, 6, 11, 5, 10, 9,
}

// FastLog2 returns floor(log2(x)) for any x > 0.
//
// The value is first rounded down to one less than a power of two by
// smearing the top bit right, then the De Bruijn multiply extracts the
// bit position.
//
// Example:
//
//	FastLog2(1)    = 0
//	FastLog2(1024) = 10
//	FastLog2(1025) = 10
func FastLog2(x uint32) uint32 {
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	return deBruijnLog2[(x*0x07C4ACDD)>>27]
}

// FastLog64 returns floor(log2(x)) for any 64-bit x > 0.
// Values below 2^32 reuse the 32-bit kernel directly.
func FastLog64(x uint64) uint32 {
	if x < 1<<32 {
		return FastLog2(uint32(x))
	}
	return 32 + FastLog2(uint32(x>>32))
}

// LeastSetBit returns the 0-indexed position of the lowest set bit of x.
// For x = 0 it returns 64, which callers treat as "no bit set"; the
// free-superblock search relies on this sentinel.
func LeastSetBit(x uint32) uint32 {
	if x == 0 {
		return 64
	}
	return deBruijnLSB[((x&(^x+1))*0x077CB531)>>27]
}

// LeastSetBit64 returns the 0-indexed position of the lowest set bit of a
// 64-bit word, preferring the low half. Returns 64 for x = 0.
func LeastSetBit64(x uint64) uint32 {
	if lo := uint32(x); lo != 0 {
		return LeastSetBit(lo)
	}
	if x != 0 {
		return LeastSetBit(uint32(x>>32)) + 32
	}
	return 64
}

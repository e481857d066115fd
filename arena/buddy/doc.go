// Package buddy implements the allocator's core engine: a buddy system over
// one large, fixed-size virtual region, serving variable-size allocations in
// O(log N) time with worst-case internal fragmentation of 50%.
//
// # Overview
//
// The engine owns a single region of 2^K bytes obtained from the OS once at
// construction and released at Close. Free space is tracked as superblocks:
// maximal free regions whose size has the shape 2^k - 2^i. The initial state
// is one superblock of shape (K+1, K) covering the whole pool.
//
// The engine's state is:
//
//   - A table FB[k][i] of cyclic doubly-linked lists, one per superblock
//     shape, each headed by a sentinel that is never allocatable.
//   - A bitvector BV[k] per power class, bit i set iff FB[k][i] is
//     non-empty.
//   - A cached least-set-bit LSB[k] per bitvector, giving O(1) best-fit
//     search within a row.
//
// # Block headers
//
// Every block carries an 8-byte header at its low address holding the power
// class k, the free flag, and (in debug builds) a tamper-detection
// signature. Free blocks additionally store their list links in the bytes
// immediately after the header. Headers live inside the region and are
// accessed through an unsafe.Pointer boundary; user pointers are
// header + 8 bytes and always 32-byte aligned.
//
// # Allocation
//
// A request of n bytes maps to the class j, the smallest power with
// 2^j >= n + headerSize. The search scans k = j+1 .. K+1 picking the
// (k, i) with the smallest i (best fit by smallest offset class), then
// splits the selected superblock, leaving at most two residuals on the
// free lists.
//
// # Deallocation
//
// Freeing marks the block free and then merges it with its buddy — the
// block at virtual offset XOR 2^i — repeatedly, until the buddy is
// unavailable or the whole pool has coalesced back into the root
// superblock.
//
// # Thread safety
//
// Each engine serializes Allocate/Deallocate behind one spinlock; the
// critical sections are a handful of pointer operations. Engines are
// independent: the arena dispatcher shards load across two of them.
//
// # Debug checks
//
// Building with the arenadebug tag enables header signatures: every
// handed-out header is tagged with a value derived from its contents and
// address, and Deallocate panics on a missing or stale tag (double free,
// foreign pointer, or heap corruption). Release builds skip all checks.
package buddy

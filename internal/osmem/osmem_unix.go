//go:build linux || darwin || freebsd

package osmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Alloc maps an anonymous, private, read-write region of the given size.
// The returned slice is page-aligned.
func Alloc(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap(%d): %v", ErrMapFailed, size, err)
	}
	return b, nil
}

// Free unmaps a region previously returned by Alloc.
func Free(b []byte) error {
	if b == nil {
		return nil
	}
	return unix.Munmap(b)
}

package pool

import "errors"

var (
	// ErrBadBlockSize indicates the block size is not a power of two >= 32.
	ErrBadBlockSize = errors.New("pool: block size must be a power of two, no less than 32")

	// ErrBadCount indicates a non-positive block count.
	ErrBadCount = errors.New("pool: block count must be positive")
)

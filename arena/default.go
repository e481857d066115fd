package arena

import (
	"io"
	"unsafe"
)

// std is the process-wide arena behind the package-level functions.
var std = New(nil)

// Default returns the process-wide arena.
func Default() *Arena {
	return std
}

// Configure replaces the default arena's configuration. It must be called
// before Initialize; afterwards it fails with ErrAlreadyInitialized.
func Configure(cfg *Config) error {
	std.initMu.Lock()
	defer std.initMu.Unlock()

	if std.initialized.Load() {
		return ErrAlreadyInitialized
	}
	if cfg == nil {
		cfg = &DefaultConfig
	}
	std.cfg = *cfg
	return nil
}

// Initialize initializes the default arena.
func Initialize() error {
	return std.Initialize()
}

// Deinitialize deinitializes the default arena.
func Deinitialize() error {
	return std.Deinitialize()
}

// IsInitialized reports whether the default arena is ready.
func IsInitialized() bool {
	return std.IsInitialized()
}

// Allocate allocates from the default arena.
func Allocate(n int) unsafe.Pointer {
	return std.Allocate(n)
}

// AllocateUseful allocates from the default arena and reports the usable
// size of the returned block.
func AllocateUseful(n int) (unsafe.Pointer, int) {
	return std.AllocateUseful(n)
}

// Deallocate returns a pointer to the default arena.
func Deallocate(ptr unsafe.Pointer) {
	std.Deallocate(ptr)
}

// MaxSize returns the default arena's single-allocation limit.
func MaxSize() int {
	return std.MaxSize()
}

// Contains reports whether ptr belongs to the default arena.
func Contains(ptr unsafe.Pointer) bool {
	return std.Contains(ptr)
}

// PrintCondition dumps the default arena's state to w.
func PrintCondition(w io.Writer) {
	std.PrintCondition(w)
}

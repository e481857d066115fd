package arena

import "errors"

var (
	// ErrAlreadyInitialized indicates a second Initialize (or a Configure
	// after Initialize) on the same arena.
	ErrAlreadyInitialized = errors.New("arena: already initialized")

	// ErrNotInitialized indicates Deinitialize on an arena that was never
	// initialized or has already been deinitialized.
	ErrNotInitialized = errors.New("arena: not initialized")
)

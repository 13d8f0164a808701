package resolver

import "errors"

// Resolver errors.
var (
	// ErrModuleNotFound is returned when no module source exists for a name.
	ErrModuleNotFound = errors.New("module not found")

	// ErrResolverClosed is returned when using a resolver after Close.
	ErrResolverClosed = errors.New("resolver is closed")
)

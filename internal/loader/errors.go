package loader

import "errors"

// Loader errors.
var (
	// ErrNotRegistered is returned when loading a repo with no registry
	// entry. It indicates a configuration bug, not a runtime condition.
	ErrNotRegistered = errors.New("plugin is not registered")
)

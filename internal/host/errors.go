package host

import "errors"

// Host trigger errors.
var (
	// ErrUnknownCommand is returned when dispatching a command nothing has
	// registered.
	ErrUnknownCommand = errors.New("unknown command")
)

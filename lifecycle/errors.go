package lifecycle

import "errors"

var (
	// ErrRegistryRequired is returned when a registry store is not provided.
	ErrRegistryRequired = errors.New("registry store required")

	// ErrPoolRequired is returned when a handle pool is not provided.
	ErrPoolRequired = errors.New("handle pool required")

	// ErrInvalidMaxAttempts is returned when retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrTeardown indicates storage could not be removed or renamed out
	// of the active namespace. The registry entry is left in place so it
	// never points at storage whose fate is unknown.
	ErrTeardown = errors.New("teardown failure")
)

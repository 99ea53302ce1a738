package registry

import "errors"

var (
	// ErrNotFound indicates no record with the requested hash exists.
	ErrNotFound = errors.New("dataset not found")

	// ErrCorrupt indicates the registry file could not be read or
	// decoded. The inconsistency is reported, never papered over.
	ErrCorrupt = errors.New("registry file unreadable")
)

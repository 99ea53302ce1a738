package vectorstore

import (
	"errors"
	"log/slog"
	"sync"
)

// HandlePool caches open Stores by location so repeated queries against
// the same dataset reuse one handle, and so teardown has a single place
// to force every handle closed before deleting storage.
//
// The pool does not reference-count: Release closes the handle even if
// a caller still holds it. That matches the system's
// one-operation-at-a-time session model, where teardown never runs
// concurrently with a query for the same tenant.
type HandlePool struct {
	opener OpenFunc
	mu     sync.Mutex
	open   map[string]Store
	logger *slog.Logger
}

// NewHandlePool creates a pool that opens stores with opener.
func NewHandlePool(opener OpenFunc) *HandlePool {
	return &HandlePool{
		opener: opener,
		open:   make(map[string]Store),
		logger: slog.Default().With("component", "handle-pool"),
	}
}

// Acquire returns the open store for location, opening it lazily.
func (p *HandlePool) Acquire(location, collection string) (Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if store, ok := p.open[location]; ok {
		return store, nil
	}
	store, err := p.opener(location, collection)
	if err != nil {
		return nil, err
	}
	p.open[location] = store
	return store, nil
}

// Release closes and drops the handle for location. Releasing a
// location with no open handle is a no-op.
func (p *HandlePool) Release(location string) error {
	p.mu.Lock()
	store, ok := p.open[location]
	delete(p.open, location)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	p.logger.Debug("releasing index handle", "location", location)
	return store.Close()
}

// ReleaseAll closes every open handle, returning the first error seen
// after attempting all of them.
func (p *HandlePool) ReleaseAll() error {
	p.mu.Lock()
	stores := p.open
	p.open = make(map[string]Store)
	p.mu.Unlock()

	var errs []error
	for location, store := range stores {
		if err := store.Close(); err != nil {
			p.logger.Error("error closing index handle", "location", location, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of open handles.
func (p *HandlePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.open)
}

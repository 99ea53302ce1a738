// Copyright 2026 Crewlens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lifecycle reclaims dataset storage. Vector index runtimes
// can hold OS-level file locks slightly past handle close, so deletion
// runs as a small state machine: release in-process handles, wait a
// settle interval, delete with retries, and as a last resort rename
// the directory out of the active namespace. The registry entry goes
// away only after the storage does, so the catalog never points at
// storage already deleted.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/crewlens/crewlens/core"
	"github.com/crewlens/crewlens/layout"
	"github.com/crewlens/crewlens/registry"
	"github.com/crewlens/crewlens/session"
	"github.com/crewlens/crewlens/vectorstore"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second
	defaultSettle      = 2 * time.Second
)

// Manager tears down dataset storage for a tenant.
type Manager struct {
	registry *registry.Store
	layout   layout.Layout
	pool     *vectorstore.HandlePool
	sessions *session.Manager

	maxAttempts int
	backoff     time.Duration
	settle      time.Duration
	logger      *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithSessions wires a session manager so teardown invalidates
// session-local state in the same step that removes the registry
// entry.
func WithSessions(sessions *session.Manager) Option {
	return func(m *Manager) {
		m.sessions = sessions
	}
}

// WithMaxAttempts overrides the deletion attempt count.
func WithMaxAttempts(attempts int) Option {
	return func(m *Manager) {
		if attempts < 1 {
			attempts = 1
		}
		m.maxAttempts = attempts
	}
}

// WithBackoff overrides the base delay between deletion attempts.
func WithBackoff(d time.Duration) Option {
	return func(m *Manager) {
		if d < 0 {
			d = 0
		}
		m.backoff = d
	}
}

// WithSettleInterval overrides the wait after releasing handles,
// there for runtimes that drop file locks a beat after Close returns.
func WithSettleInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d < 0 {
			d = 0
		}
		m.settle = d
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a teardown manager.
func NewManager(reg *registry.Store, lay layout.Layout, pool *vectorstore.HandlePool, opts ...Option) (*Manager, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if pool == nil {
		return nil, ErrPoolRequired
	}

	m := &Manager{
		registry:    reg,
		layout:      lay,
		pool:        pool,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		settle:      defaultSettle,
		logger:      slog.Default().With("component", "lifecycle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// RemoveDataset tears down one dataset: its index directory, its
// snapshot, its registry entry and any session state keyed by its
// hash, in that order. Returns registry.ErrNotFound when the hash is
// not registered. When even the rename fallback fails the registry
// entry is kept and ErrTeardown is returned.
func (m *Manager) RemoveDataset(ctx context.Context, tenant string, hash core.Hash) (Result, error) {
	record, err := m.registry.Lookup(tenant, hash)
	if err != nil {
		return Result{}, err
	}

	result, err := m.teardownLocation(ctx, record.IndexLocation)
	if err != nil {
		return result, err
	}

	if record.SnapshotPath != "" {
		if rmErr := os.Remove(record.SnapshotPath); rmErr != nil && !os.IsNotExist(rmErr) {
			m.logger.Warn("failed to remove snapshot", "path", record.SnapshotPath, "err", rmErr)
		}
	}

	if err := m.registry.Remove(tenant, hash); err != nil {
		return result, err
	}
	if m.sessions != nil {
		m.sessions.Get(tenant).Invalidate(hash)
	}

	m.logger.Info("dataset removed",
		"tenant", tenant, "hash", hash, "final", result.Final, "attempts", result.Attempts)
	return result, nil
}

// Reset reclaims everything a tenant owns: every registered dataset,
// any orphaned index directories left by aborted ingestions, all
// metadata files, and the tenant's session. Teardown failures for
// individual directories are collected; the rest of the sweep still
// runs.
func (m *Manager) Reset(ctx context.Context, tenant string) ([]Result, error) {
	records, err := m.registry.List(tenant)
	if err != nil && !errors.Is(err, registry.ErrCorrupt) {
		return nil, err
	}

	var (
		results []Result
		errs    []error
	)
	for i := range records {
		record := &records[i]
		result, tdErr := m.teardownLocation(ctx, record.IndexLocation)
		results = append(results, result)
		if tdErr != nil {
			errs = append(errs, tdErr)
			continue
		}
		if rmErr := m.registry.Remove(tenant, record.Hash); rmErr != nil {
			errs = append(errs, rmErr)
		}
	}

	// Orphan sweep: directories under the vector root that no record
	// claims, left behind by aborted ingestion attempts.
	orphanResults, orphanErrs := m.sweepOrphans(ctx, tenant)
	results = append(results, orphanResults...)
	errs = append(errs, orphanErrs...)

	if len(errs) == 0 {
		m.clearMetadata(tenant)
	}

	if m.sessions != nil {
		m.sessions.Get(tenant).InvalidateAll()
	}

	m.logger.Info("tenant reset", "tenant", tenant, "torn_down", len(results), "errors", len(errs))
	return results, errors.Join(errs...)
}

// sweepOrphans tears down every directory still present under the
// tenant's vector root.
func (m *Manager) sweepOrphans(ctx context.Context, tenant string) ([]Result, []error) {
	root := m.layout.VectorRoot(tenant)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{err}
	}

	var (
		results []Result
		errs    []error
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		result, tdErr := m.teardownLocation(ctx, filepath.Join(root, entry.Name()))
		results = append(results, result)
		if tdErr != nil {
			errs = append(errs, tdErr)
		}
	}
	return results, errs
}

// clearMetadata removes every file in the tenant's metadata directory,
// registry file included. Only called once all storage is gone.
func (m *Manager) clearMetadata(tenant string) {
	dir := m.layout.MetadataDir(tenant)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if rmErr := os.Remove(path); rmErr != nil {
			m.logger.Warn("failed to remove metadata file", "path", path, "err", rmErr)
		}
	}
}

// teardownLocation drives one directory through the state machine.
func (m *Manager) teardownLocation(ctx context.Context, location string) (Result, error) {
	result := Result{Final: StateRequested, Location: location}

	if _, err := os.Stat(location); os.IsNotExist(err) {
		// Already gone; reported inconsistency, not a crash.
		m.logger.Warn("index location already absent", "location", location)
		result.Final = StateDone
		return result, nil
	}

	result.Final = StateReleasingHandles
	if err := m.releaseHandles(ctx, location); err != nil {
		result.Final = StateFailed
		return result, fmt.Errorf("%w: releasing handles for %s: %v", ErrTeardown, location, err)
	}

	result.Final = StateDeleting
	deleteErr := RetryWithBackoff(ctx, func() error {
		result.Attempts++
		if err := os.RemoveAll(location); err != nil {
			// A lingering lock may have reappeared; force handles
			// closed again before the next attempt.
			m.releaseHandles(ctx, location)
			return err
		}
		return nil
	}, m.maxAttempts, m.backoff)

	if deleteErr == nil {
		result.Final = StateDone
		return result, nil
	}
	if ctx.Err() != nil {
		result.Final = StateFailed
		return result, fmt.Errorf("%w: %v", ErrTeardown, deleteErr)
	}

	// Rename fallback: park the directory out of the active namespace
	// so the dataset is gone from the system's view even though the
	// space was not reclaimed.
	parked := fmt.Sprintf("%s_old_%d", location, time.Now().Unix())
	if renameErr := os.Rename(location, parked); renameErr != nil {
		result.Final = StateFailed
		return result, fmt.Errorf("%w: delete failed (%v) and rename failed (%v)", ErrTeardown, deleteErr, renameErr)
	}

	m.logger.Warn("deletion failed, directory renamed out of active namespace",
		"location", location, "parked", parked, "err", deleteErr)
	result.Final = StateRenamedFallback
	result.RenamedTo = parked
	return result, nil
}

// releaseHandles drops the pool's handle for location, nudges the
// runtime to run finalizers, and waits the settle interval so external
// runtimes can let go of their file locks.
func (m *Manager) releaseHandles(ctx context.Context, location string) error {
	if err := m.pool.Release(location); err != nil {
		m.logger.Warn("error closing index handle during teardown", "location", location, "err", err)
	}
	runtime.GC()

	if m.settle <= 0 {
		return nil
	}
	timer := time.NewTimer(m.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

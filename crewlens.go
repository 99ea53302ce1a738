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

// Package crewlens answers natural-language questions about workforce
// spreadsheets. Uploads are normalized into row sentences, embedded,
// and indexed per dataset; questions retrieve the most relevant rows
// and a completion model produces a grounded answer. Everything is
// tenant-scoped and local-first: one directory tree holds every
// tenant's indexes, snapshots and catalogs.
package crewlens

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/crewlens/crewlens/ai"
	"github.com/crewlens/crewlens/ai/openai"
	"github.com/crewlens/crewlens/core"
	"github.com/crewlens/crewlens/ingest"
	"github.com/crewlens/crewlens/layout"
	"github.com/crewlens/crewlens/lifecycle"
	"github.com/crewlens/crewlens/rag"
	"github.com/crewlens/crewlens/registry"
	"github.com/crewlens/crewlens/session"
	"github.com/crewlens/crewlens/vectorstore"
	badgerstore "github.com/crewlens/crewlens/vectorstore/badger"
)

// Workspace wires the whole system over one base directory.
type Workspace struct {
	layout    layout.Layout
	registry  *registry.Store
	pool      *vectorstore.HandlePool
	sessions  *session.Manager
	provider  ai.Provider
	pipeline  *ingest.Pipeline
	responder *rag.Responder
	teardown  *lifecycle.Manager
	logger    *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	aiConfig     *ai.Config
	provider     ai.Provider
	opener       vectorstore.OpenFunc
	logger       *slog.Logger
	teardownOpts []lifecycle.Option
}

// WithAIConfig sets the AI service configuration used to build the
// default provider. Ignored when WithProvider is given.
func WithAIConfig(config *ai.Config) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.aiConfig = config
	}
}

// WithProvider substitutes a pre-built AI provider. The workspace
// takes ownership and closes it on Close.
func WithProvider(provider ai.Provider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = provider
	}
}

// WithOpener substitutes the vector store backend.
// Default is the badger-backed store.
func WithOpener(opener vectorstore.OpenFunc) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.opener = opener
	}
}

// WithLogger sets the logger shared by all components.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.logger = logger
	}
}

// WithTeardownOptions forwards options to the lifecycle manager, e.g.
// to tune the settle interval or retry backoff.
func WithTeardownOptions(opts ...lifecycle.Option) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.teardownOpts = append(o.teardownOpts, opts...)
	}
}

// NewWorkspace assembles a workspace rooted at baseDir.
func NewWorkspace(baseDir string, opts ...WorkspaceOption) (*Workspace, error) {
	options := &workspaceOptions{
		aiConfig: ai.DefaultConfig(),
		opener:   badgerstore.Open,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	lay := layout.New(baseDir)
	reg := registry.NewStore(lay, registry.WithLogger(options.logger))
	pool := vectorstore.NewHandlePool(options.opener)
	sessions := session.NewManager()

	pipeline, err := ingest.NewPipeline(reg, lay, provider, options.opener,
		ingest.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		return nil, err
	}

	responder, err := rag.NewResponder(provider, pool, rag.WithLogger(options.logger))
	if err != nil {
		pipeline.Release()
		provider.Close()
		return nil, err
	}

	teardownOpts := append([]lifecycle.Option{
		lifecycle.WithSessions(sessions),
		lifecycle.WithLogger(options.logger),
	}, options.teardownOpts...)
	teardown, err := lifecycle.NewManager(reg, lay, pool, teardownOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		return nil, err
	}

	return &Workspace{
		layout:    lay,
		registry:  reg,
		pool:      pool,
		sessions:  sessions,
		provider:  provider,
		pipeline:  pipeline,
		responder: responder,
		teardown:  teardown,
		logger:    options.logger,
	}, nil
}

// Upload ingests a file for a tenant and makes the resulting dataset
// the session's active one. Identical bytes resolve to the existing
// dataset without rebuilding anything.
func (w *Workspace) Upload(ctx context.Context, tenant, filename string, data []byte) (ingest.Status, *core.DatasetRecord, error) {
	status, record, err := w.pipeline.Ingest(ctx, tenant, filename, data)
	if err != nil {
		return "", nil, err
	}
	w.sessions.Get(tenant).SetActive(record.Hash)
	return status, record, nil
}

// Rebuild force-reingests a file, replacing any dataset with the same
// content hash, and tears down the superseded index afterwards.
func (w *Workspace) Rebuild(ctx context.Context, tenant, filename string, data []byte) (*core.DatasetRecord, error) {
	record, replaced, err := w.pipeline.Reingest(ctx, tenant, filename, data)
	if err != nil {
		return nil, err
	}
	w.sessions.Get(tenant).SetActive(record.Hash)

	if replaced != nil && replaced.IndexLocation != record.IndexLocation {
		w.pool.Release(replaced.IndexLocation)
		if err := removeStale(replaced); err != nil {
			w.logger.Warn("could not remove superseded dataset storage",
				"location", replaced.IndexLocation, "err", err)
		}
	}
	return record, nil
}

// Datasets lists the tenant's registered datasets, oldest first.
func (w *Workspace) Datasets(tenant string) ([]core.DatasetRecord, error) {
	return w.registry.List(tenant)
}

// Activate selects which dataset the tenant's questions run against.
func (w *Workspace) Activate(tenant string, hash core.Hash) error {
	if _, err := w.registry.Lookup(tenant, hash); err != nil {
		return err
	}
	w.sessions.Get(tenant).SetActive(hash)
	return nil
}

// Ask answers a question against the tenant's active dataset, folding
// in that dataset's recent conversation. With no selection the most
// recently ingested dataset is used; with no datasets at all the
// responder's degraded answer comes back. History is appended only
// after a successful answer, so a failed question can simply be
// retried.
func (w *Workspace) Ask(ctx context.Context, tenant, query string) (string, error) {
	sess := w.sessions.Get(tenant)
	record, err := w.activeRecord(tenant, sess)
	if err != nil {
		return "", err
	}

	var history []core.ConversationTurn
	if record != nil {
		history = sess.History(record.Hash)
	}

	answer, err := w.responder.Answer(ctx, record, query, history)
	if err != nil {
		return "", err
	}

	if record != nil {
		if err := sess.AppendTurn(record.Hash, core.RoleUser, query); err != nil {
			return "", err
		}
		if err := sess.AppendTurn(record.Hash, core.RoleAssistant, answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

// History returns the tenant's conversation with its active dataset.
func (w *Workspace) History(tenant string) []core.ConversationTurn {
	sess := w.sessions.Get(tenant)
	hash, ok := sess.Active()
	if !ok {
		return nil
	}
	return sess.History(hash)
}

// ClearHistory forgets the conversation with the active dataset.
func (w *Workspace) ClearHistory(tenant string) {
	sess := w.sessions.Get(tenant)
	if hash, ok := sess.Active(); ok {
		sess.ClearHistory(hash)
	}
}

// RemoveDataset tears down one dataset's storage, catalog entry and
// session state.
func (w *Workspace) RemoveDataset(ctx context.Context, tenant string, hash core.Hash) (lifecycle.Result, error) {
	return w.teardown.RemoveDataset(ctx, tenant, hash)
}

// Reset reclaims everything the tenant owns.
func (w *Workspace) Reset(ctx context.Context, tenant string) ([]lifecycle.Result, error) {
	return w.teardown.Reset(ctx, tenant)
}

// Close releases worker pools, open index handles and the AI provider.
func (w *Workspace) Close() error {
	w.pipeline.Release()

	var errs []error
	if err := w.pool.ReleaseAll(); err != nil {
		w.logger.Error("error releasing index handles", "err", err)
		errs = append(errs, err)
	}
	if err := w.provider.Close(); err != nil {
		w.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// removeStale deletes a superseded dataset's index directory and
// snapshot. Best-effort: the replacement is already committed.
func removeStale(record *core.DatasetRecord) error {
	var errs []error
	if err := os.RemoveAll(record.IndexLocation); err != nil {
		errs = append(errs, err)
	}
	if record.SnapshotPath != "" {
		if err := os.Remove(record.SnapshotPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// activeRecord resolves which dataset a question runs against. The
// session's selection wins; otherwise the newest registered dataset is
// selected and remembered. nil with no error means the tenant has no
// datasets, which the responder treats as degraded mode.
func (w *Workspace) activeRecord(tenant string, sess *session.Session) (*core.DatasetRecord, error) {
	if hash, ok := sess.Active(); ok {
		record, err := w.registry.Lookup(tenant, hash)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, registry.ErrNotFound) {
			return nil, err
		}
		// The selection points at a removed dataset; fall through and
		// reselect.
		sess.Invalidate(hash)
	}

	records, err := w.registry.List(tenant)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	newest := records[len(records)-1]
	sess.SetActive(newest.Hash)
	return &newest, nil
}

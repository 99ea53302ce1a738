package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/crewlens/crewlens/ai"
	"github.com/crewlens/crewlens/core"
	"github.com/crewlens/crewlens/layout"
	"github.com/crewlens/crewlens/registry"
	"github.com/crewlens/crewlens/tabular"
	"github.com/crewlens/crewlens/vectorstore"
	"github.com/panjf2000/ants/v2"
)

// Status reports whether an upload produced a new dataset or matched
// an existing one by content hash.
type Status string

const (
	// StatusNew means a fresh index was built and committed.
	StatusNew Status = "NEW"
	// StatusExisting means the upload matched a registered dataset
	// byte for byte and no work was done.
	StatusExisting Status = "EXISTING"
)

const (
	// DefaultMaxUploadBytes caps raw upload size at 50 MB.
	DefaultMaxUploadBytes = 50 << 20

	defaultMaxAttempts   = 3
	defaultEmbedBatch    = 32
	defaultRetryCooldown = time.Second
)

// Pipeline turns raw tabular uploads into committed datasets: normalize,
// embed, build a vector index, write a snapshot, register. Commits are
// all-or-nothing; a failure at any stage leaves the registry untouched.
type Pipeline struct {
	registry *registry.Store
	layout   layout.Layout
	provider ai.Provider
	opener   vectorstore.OpenFunc

	embeddingPool *ants.Pool

	maxUploadBytes int64
	maxAttempts    int
	embedBatch     int
	retryCooldown  time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMaxUploadBytes overrides the upload size ceiling.
func WithMaxUploadBytes(limit int64) Option {
	return func(p *Pipeline) error {
		if limit < 1 {
			return errors.New("upload limit must be positive")
		}
		p.maxUploadBytes = limit
		return nil
	}
}

// WithMaxAttempts overrides the number of index build attempts.
func WithMaxAttempts(attempts int) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			attempts = 1
		}
		p.maxAttempts = attempts
		return nil
	}
}

// WithRetryCooldown overrides the pause between index build attempts.
func WithRetryCooldown(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			d = 0
		}
		p.retryCooldown = d
		return nil
	}
}

// WithEmbedBatchSize sets how many row sentences go to the embedding
// service per request.
func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.embedBatch = size
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	reg *registry.Store,
	lay layout.Layout,
	provider ai.Provider,
	opener vectorstore.OpenFunc,
	opts ...Option,
) (*Pipeline, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if opener == nil {
		return nil, ErrOpenerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		registry:       reg,
		layout:         lay,
		provider:       provider,
		opener:         opener,
		embeddingPool:  pool,
		maxUploadBytes: DefaultMaxUploadBytes,
		maxAttempts:    defaultMaxAttempts,
		embedBatch:     defaultEmbedBatch,
		retryCooldown:  defaultRetryCooldown,
		logger:         slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest registers an uploaded file for a tenant. If the content hash
// already appears in the tenant's registry the existing record is
// returned with StatusExisting and nothing is rebuilt. Otherwise the
// file is normalized, embedded, indexed, snapshotted and committed.
func (p *Pipeline) Ingest(ctx context.Context, tenant, filename string, data []byte) (Status, *core.DatasetRecord, error) {
	if int64(len(data)) > p.maxUploadBytes {
		return "", nil, fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, len(data))
	}

	hash := core.HashBytes(data)
	existing, err := p.registry.Lookup(tenant, hash)
	switch {
	case err == nil:
		p.logger.Info("duplicate upload, reusing existing dataset",
			"tenant", tenant, "hash", hash, "filename", filename)
		return StatusExisting, existing, nil
	case !errors.Is(err, registry.ErrNotFound):
		return "", nil, err
	}

	record, err := p.build(ctx, tenant, filename, data, hash)
	if err != nil {
		return "", nil, err
	}
	return StatusNew, record, nil
}

// Reingest rebuilds a dataset from its raw bytes even when the hash is
// already registered. It returns the committed record and, when the
// hash was previously registered, the record it replaced so the caller
// can tear down the superseded index and snapshot.
func (p *Pipeline) Reingest(ctx context.Context, tenant, filename string, data []byte) (*core.DatasetRecord, *core.DatasetRecord, error) {
	if int64(len(data)) > p.maxUploadBytes {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, len(data))
	}

	hash := core.HashBytes(data)
	var replaced *core.DatasetRecord
	if prev, err := p.registry.Lookup(tenant, hash); err == nil {
		replaced = prev
	} else if !errors.Is(err, registry.ErrNotFound) {
		return nil, nil, err
	}

	record, err := p.build(ctx, tenant, filename, data, hash)
	if err != nil {
		return nil, nil, err
	}
	return record, replaced, nil
}

// build runs the full pipeline for one upload. On any failure it
// removes whatever it created so far and returns without committing.
func (p *Pipeline) build(ctx context.Context, tenant, filename string, data []byte, hash core.Hash) (*core.DatasetRecord, error) {
	table, chunks, err := tabular.Normalize(filename, data)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, core.ErrEmptyDataset
	}

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vectorstore.Document{
			Text:      chunk.Text,
			Person:    chunk.Person,
			Project:   chunk.Project,
			DateLabel: chunk.DateLabel,
			RowIndex:  chunk.RowIndex,
			Vector:    vectors[i],
		}
	}

	if err := p.layout.EnsureTenant(tenant); err != nil {
		return nil, err
	}

	location, err := p.buildIndex(ctx, tenant, docs)
	if err != nil {
		return nil, err
	}

	snapshot, err := p.writeSnapshot(tenant, filename, table)
	if err != nil {
		os.RemoveAll(location)
		return nil, err
	}

	record := &core.DatasetRecord{
		Hash:          hash,
		DisplayName:   filename,
		SnapshotPath:  snapshot,
		IndexLocation: location,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.registry.Upsert(tenant, record); err != nil {
		os.Remove(snapshot)
		os.RemoveAll(location)
		return nil, err
	}

	p.logger.Info("dataset committed",
		"tenant", tenant, "hash", hash, "rows", len(chunks), "location", location)
	return record, nil
}

// embedChunks embeds all row sentences in batches across the worker
// pool, preserving row order in the result.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []core.RowChunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += p.embedBatch {
		end := start + p.embedBatch
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		wg.Add(1)
		submitErr := p.embeddingPool.Submit(func() {
			defer wg.Done()
			batch, err := p.provider.Embedder().EmbedTexts(ctx, texts[start:end])
			if err != nil {
				record(err)
				return
			}
			if len(batch) != end-start {
				record(fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start))
				return
			}
			copy(vectors[start:end], batch)
		})
		if submitErr != nil {
			wg.Done()
			record(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, firstErr)
	}
	return vectors, nil
}

// buildIndex opens a fresh vector index location, inserts all
// documents and closes it. Retryable initialization failures get a
// brand-new location on the next attempt; the index is never rebuilt
// in place.
func (p *Pipeline) buildIndex(ctx context.Context, tenant string, docs []vectorstore.Document) (string, error) {
	root := p.layout.VectorRoot(tenant)

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		location := newIndexLocation(root)
		err := p.tryBuild(ctx, location, docs)
		if err == nil {
			return location, nil
		}
		lastErr = err

		initErr, ok := vectorstore.AsInitError(err)
		if !ok || !initErr.Kind.Retryable() || attempt == p.maxAttempts {
			break
		}

		p.logger.Warn("index build failed, retrying at a fresh location",
			"tenant", tenant, "attempt", attempt, "kind", initErr.Kind, "err", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.retryCooldown):
		}
	}
	return "", fmt.Errorf("%w: %v", ErrStorageInit, lastErr)
}

// tryBuild performs one open-insert-close cycle. On failure the
// half-built directory is removed, except under lock contention where
// the directory may belong to a live holder.
func (p *Pipeline) tryBuild(ctx context.Context, location string, docs []vectorstore.Document) error {
	store, err := p.opener(location, vectorstore.Collection)
	if err != nil {
		p.cleanupLocation(location, err)
		return err
	}
	if err := store.Insert(ctx, docs); err != nil {
		store.Close()
		os.RemoveAll(location)
		return err
	}
	if err := store.Close(); err != nil {
		os.RemoveAll(location)
		return err
	}
	return nil
}

func (p *Pipeline) cleanupLocation(location string, cause error) {
	if initErr, ok := vectorstore.AsInitError(cause); ok && initErr.Kind == vectorstore.KindLockContention {
		return
	}
	if err := os.RemoveAll(location); err != nil {
		p.logger.Warn("failed to clean up index location", "location", location, "err", err)
	}
}

// writeSnapshot persists the normalized table as CSV in the tenant's
// metadata directory and returns the snapshot path.
func (p *Pipeline) writeSnapshot(tenant, filename string, table *tabular.Table) (string, error) {
	path := filepath.Join(p.layout.MetadataDir(tenant), snapshotFilename(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Release releases the embedding worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}

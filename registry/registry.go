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

// Package registry persists the per-tenant catalog of ingested
// datasets, keyed by content hash.
//
// The catalog lives in one JSON file per tenant. Writes replace the
// whole file via a temp-file-and-rename, so a concurrent reader in the
// same process never observes a torn write. Mutation is append/remove
// of whole records; the only in-place change is replacing a record that
// carries the same hash (the re-ingest path).
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crewlens/crewlens/core"
	"github.com/crewlens/crewlens/layout"
	"github.com/google/uuid"
)

// Store reads and writes tenant registries. Safe for concurrent use
// within one process; cross-process writers are last-writer-wins.
type Store struct {
	layout layout.Layout
	mu     sync.Mutex
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a registry store over the given layout.
func NewStore(l layout.Layout, opts ...Option) *Store {
	s := &Store{
		layout: l,
		logger: slog.Default().With("component", "registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the record with the given content hash, or ErrNotFound.
func (s *Store) Lookup(tenant string, hash core.Hash) (*core.DatasetRecord, error) {
	records, err := s.List(tenant)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Hash == hash {
			return &records[i], nil
		}
	}
	return nil, ErrNotFound
}

// List returns all of the tenant's records in catalog order. A missing
// registry file is an empty catalog, not an error.
func (s *Store) List(tenant string) ([]core.DatasetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(tenant)
}

// Upsert inserts the record, replacing any existing record with the
// same hash, and atomically publishes the rewritten registry file.
func (s *Store) Upsert(tenant string, record *core.DatasetRecord) error {
	if err := core.ValidateDatasetRecord(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(tenant)
	if err != nil {
		return err
	}

	replaced := false
	for i := range records {
		if records[i].Hash == record.Hash {
			records[i] = *record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, *record)
	}

	if err := s.save(tenant, records); err != nil {
		return err
	}
	s.logger.Debug("registry updated", "tenant", tenant, "hash", record.Hash, "replaced", replaced)
	return nil
}

// Remove deletes the record with the given hash from the catalog.
// It does not touch the referenced storage; callers are expected to
// reclaim the index directory and snapshot first.
func (s *Store) Remove(tenant string, hash core.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(tenant)
	if err != nil {
		return err
	}

	kept := records[:0]
	found := false
	for _, r := range records {
		if r.Hash == hash {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return ErrNotFound
	}
	return s.save(tenant, kept)
}

// load reads and decodes the tenant's registry file. Callers hold s.mu.
func (s *Store) load(tenant string) ([]core.DatasetRecord, error) {
	data, err := os.ReadFile(s.layout.RegistryPath(tenant))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return decodeRegistry(data, s.layout.MetadataDir(tenant))
}

// save atomically rewrites the tenant's registry file.
func (s *Store) save(tenant string, records []core.DatasetRecord) error {
	if err := s.layout.EnsureTenant(tenant); err != nil {
		return err
	}

	data, err := encodeRegistry(records)
	if err != nil {
		return err
	}

	path := s.layout.RegistryPath(tenant)
	tmp := filepath.Join(filepath.Dir(path), ".datasets."+uuid.NewString()[:8]+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// registryFile is the on-disk wire shape. Field names match the
// original catalog format so existing registries stay readable.
type registryFile struct {
	Datasets []datasetEntry `json:"datasets"`

	// Legacy single-dataset fields, upgraded on read.
	ActiveDBPath string   `json:"active_db_path,omitempty"`
	Filenames    []string `json:"filenames,omitempty"`
	Hashes       []string `json:"hashes,omitempty"`
}

type datasetEntry struct {
	Filename  string `json:"filename"`
	DBPath    string `json:"db_path"`
	CSVPath   string `json:"csv_path"`
	Hash      string `json:"hash"`
	CreatedAt string `json:"created_at,omitempty"`
}

func encodeRegistry(records []core.DatasetRecord) ([]byte, error) {
	file := registryFile{Datasets: make([]datasetEntry, len(records))}
	for i, r := range records {
		entry := datasetEntry{
			Filename: r.DisplayName,
			DBPath:   r.IndexLocation,
			CSVPath:  r.SnapshotPath,
			Hash:     string(r.Hash),
		}
		if !r.CreatedAt.IsZero() {
			entry.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
		}
		file.Datasets[i] = entry
	}
	return json.Marshal(&file)
}

// decodeRegistry parses a registry file, transparently upgrading the
// legacy single-dataset shape.
func decodeRegistry(data []byte, metadataDir string) ([]core.DatasetRecord, error) {
	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if len(file.Datasets) == 0 && file.ActiveDBPath != "" {
		file.Datasets = upgradeLegacy(&file, metadataDir)
	}

	records := make([]core.DatasetRecord, 0, len(file.Datasets))
	for _, entry := range file.Datasets {
		record := core.DatasetRecord{
			Hash:          core.Hash(entry.Hash),
			DisplayName:   entry.Filename,
			SnapshotPath:  entry.CSVPath,
			IndexLocation: entry.DBPath,
		}
		if entry.CreatedAt != "" {
			if ts, err := time.Parse(time.RFC3339, entry.CreatedAt); err == nil {
				record.CreatedAt = ts
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// upgradeLegacy converts the old single-dataset registry shape into a
// one-entry catalog. No migration step is required from callers; the
// next Upsert persists the new shape.
func upgradeLegacy(file *registryFile, metadataDir string) []datasetEntry {
	entry := datasetEntry{
		Filename: "Legacy Dataset",
		DBPath:   file.ActiveDBPath,
		CSVPath:  filepath.Join(metadataDir, "active_data.csv"),
		Hash:     "unknown",
	}
	if len(file.Filenames) > 0 {
		entry.Filename = file.Filenames[0]
	}
	if len(file.Hashes) > 0 {
		entry.Hash = file.Hashes[0]
	}
	return []datasetEntry{entry}
}

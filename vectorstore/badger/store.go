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

// Package badger implements the vector index runtime on BadgerDB.
// Each index location is one BadgerDB directory; documents are stored
// under collection-scoped keys in insertion order and queried by
// brute-force cosine similarity.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/crewlens/crewlens/vectorstore"
)

const sequenceBandwidth = 100

// Store is a BadgerDB-backed vector index for one dataset.
type Store struct {
	db         *badger.DB
	seq        *badger.Sequence
	collection string
	location   string
	logger     *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens (creating if absent) the vector index at location. It
// satisfies vectorstore.OpenFunc. Initialization failures come back as
// classified *vectorstore.InitError values.
func Open(location, collection string) (vectorstore.Store, error) {
	if err := os.MkdirAll(location, 0755); err != nil {
		return nil, classifyInit(location, err)
	}

	opts := badger.DefaultOptions(location)
	opts.Logger = &badgerLoggerAdapter{logger: slog.Default().With("component", "vectorstore")}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, classifyInit(location, err)
	}

	seq, err := db.GetSequence(makeSequenceKey(collection), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, classifyInit(location, err)
	}

	return &Store{
		db:         db,
		seq:        seq,
		collection: collection,
		location:   location,
		logger:     slog.Default().With("component", "vectorstore", "location", location),
	}, nil
}

// Insert adds documents to the index in slice order.
func (s *Store) Insert(ctx context.Context, docs []vectorstore.Document) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		ord, err := s.seq.Next()
		if err != nil {
			return classifyInit(s.location, err)
		}
		if err := wb.Set(makeDocumentKey(s.collection, ord), marshalDocument(&docs[i])); err != nil {
			return classifyInit(s.location, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return classifyInit(s.location, err)
	}
	s.logger.Debug("inserted documents", "count", len(docs))
	return nil
}

// scoredMatch pairs a match with its insertion order for tie-breaking.
type scoredMatch struct {
	match vectorstore.Match
	ord   uint64
}

// Query returns the k nearest documents by cosine similarity, ties
// broken by insertion order.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	if k <= 0 {
		return nil, nil
	}

	var scored []scoredMatch
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(s.collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			ord, ok := documentOrd(s.collection, item.Key())
			if !ok {
				continue
			}

			var doc *vectorstore.Document
			err := item.Value(func(val []byte) error {
				var err error
				doc, err = unmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}

			scored = append(scored, scoredMatch{
				match: vectorstore.Match{
					Text:      doc.Text,
					Person:    doc.Person,
					Project:   doc.Project,
					DateLabel: doc.DateLabel,
					RowIndex:  doc.RowIndex,
					Score:     cosineSimilarity(vector, doc.Vector),
				},
				ord: ord,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(scored, func(a, b scoredMatch) int {
		if a.match.Score > b.match.Score {
			return -1
		}
		if a.match.Score < b.match.Score {
			return 1
		}
		// Equal scores: insertion order.
		if a.ord < b.ord {
			return -1
		}
		if a.ord > b.ord {
			return 1
		}
		return 0
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	matches := make([]vectorstore.Match, len(scored))
	for i, sm := range scored {
		matches[i] = sm.match
	}
	return matches, nil
}

// Close releases the sequence lease and the database, including the
// directory lock badger holds while open.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.logger.Error("error releasing sequence", "err", err)
	}
	return s.db.Close()
}

// classifyInit maps runtime errors onto vectorstore init-error kinds.
// Message matching is confined to this one function; everything above
// the adapter switches on the Kind.
func classifyInit(location string, err error) error {
	kind := vectorstore.KindUnknown
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, os.ErrPermission) || strings.Contains(msg, "read-only file system") || strings.Contains(msg, "read only"):
		kind = vectorstore.KindReadOnly
	case strings.Contains(msg, "directory lock") || strings.Contains(msg, "resource temporarily unavailable"):
		kind = vectorstore.KindLockContention
	case strings.Contains(msg, "manifest") || strings.Contains(msg, "checksum") || strings.Contains(msg, "no such table"):
		kind = vectorstore.KindMissingSchema
	}
	return &vectorstore.InitError{Kind: kind, Location: location, Err: err}
}

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

// Package rag answers questions over an ingested dataset by retrieval
// augmented generation: embed the question, pull the most similar row
// chunks from the dataset's vector index, and hand a grounded prompt to
// the completion model.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/crewlens/crewlens/ai"
	"github.com/crewlens/crewlens/core"
	"github.com/crewlens/crewlens/vectorstore"
)

const (
	// DefaultTopK is how many chunks are retrieved per question.
	DefaultTopK = 20

	// DefaultHistoryWindow is how many recent conversation turns are
	// folded into the prompt.
	DefaultHistoryWindow = 10
)

// Responder answers questions against one dataset at a time. It is
// stateless between calls: the active dataset record and the
// conversation history arrive with every question, so a Responder can
// be rebuilt from scratch per request.
type Responder struct {
	provider      ai.Provider
	pool          *vectorstore.HandlePool
	topK          int
	historyWindow int
	logger        *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder) error

// WithTopK sets the retrieval count per question.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Responder) error {
		if k < 1 {
			k = 1
		}
		r.topK = k
		return nil
	}
}

// WithHistoryWindow sets how many recent turns reach the prompt.
// Zero disables history. Default is DefaultHistoryWindow.
func WithHistoryWindow(n int) Option {
	return func(r *Responder) error {
		if n < 0 {
			n = 0
		}
		r.historyWindow = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewResponder creates a responder that retrieves through pool and
// generates with provider.
func NewResponder(provider ai.Provider, pool *vectorstore.HandlePool, opts ...Option) (*Responder, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if pool == nil {
		return nil, ErrPoolRequired
	}

	r := &Responder{
		provider:      provider,
		pool:          pool,
		topK:          DefaultTopK,
		historyWindow: DefaultHistoryWindow,
		logger:        slog.Default().With("component", "rag"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Answer responds to query over the dataset in record, folding the
// recent history into the prompt. When record is nil or its index
// location is gone from disk it returns DegradedAnswer with no error.
// Retrieval or completion failures surface as ErrAnswerGeneration;
// neither mutates anything, so the caller may simply retry.
func (r *Responder) Answer(ctx context.Context, record *core.DatasetRecord, query string, history []core.ConversationTurn) (string, error) {
	if record == nil {
		return DegradedAnswer, nil
	}
	if _, err := os.Stat(record.IndexLocation); err != nil {
		r.logger.Warn("index location missing, answering degraded",
			"location", record.IndexLocation, "err", err)
		return DegradedAnswer, nil
	}

	vector, err := r.provider.Embedder().EmbedText(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: embedding query: %v", ErrAnswerGeneration, err)
	}

	store, err := r.pool.Acquire(record.IndexLocation, vectorstore.Collection)
	if err != nil {
		return "", fmt.Errorf("%w: opening index: %v", ErrAnswerGeneration, err)
	}
	matches, err := store.Query(ctx, vector, r.topK)
	if err != nil {
		return "", fmt.Errorf("%w: retrieval: %v", ErrAnswerGeneration, err)
	}

	texts := make([]string, len(matches))
	for i, match := range matches {
		texts[i] = match.Text
	}
	prompt := buildPrompt(formatContext(texts), truncateHistory(history, r.historyWindow), query)

	answer, err := r.provider.Completer().Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnswerGeneration, err)
	}
	r.logger.Debug("answered question",
		"dataset", record.Hash, "retrieved", len(matches))
	return answer, nil
}

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

// Package session holds per-tenant interaction state: the active
// dataset selection and one bounded chat history per dataset, keyed by
// content hash. All state is explicit and in-memory; nothing here is
// persisted, so a restarted process starts with clean sessions while
// the registry keeps the durable truth.
package session

import (
	"sync"

	"github.com/crewlens/crewlens/core"
)

// defaultMaxTurns bounds each dataset's in-memory history. The
// responder folds in far fewer turns; this cap only keeps a chatty
// session from growing without limit.
const defaultMaxTurns = 100

// Session is one tenant's interaction state. Safe for concurrent use.
type Session struct {
	tenant   string
	maxTurns int

	mu        sync.Mutex
	active    core.Hash
	histories map[core.Hash][]core.ConversationTurn
}

// Option configures a Session.
type Option func(*Session)

// WithMaxTurns bounds each dataset's history length.
// Default is defaultMaxTurns.
func WithMaxTurns(n int) Option {
	return func(s *Session) {
		if n < 1 {
			n = 1
		}
		s.maxTurns = n
	}
}

// New creates a session for a tenant with no active dataset.
func New(tenant string, opts ...Option) *Session {
	s := &Session{
		tenant:    tenant,
		maxTurns:  defaultMaxTurns,
		histories: make(map[core.Hash][]core.ConversationTurn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tenant returns the tenant this session belongs to.
func (s *Session) Tenant() string {
	return s.tenant
}

// SetActive selects the dataset subsequent questions run against.
func (s *Session) SetActive(hash core.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = hash
}

// Active returns the selected dataset hash, if any.
func (s *Session) Active() (core.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// AppendTurn records one conversation turn against a dataset's
// history, evicting the oldest turns past the bound.
func (s *Session) AppendTurn(hash core.Hash, role core.Role, text string) error {
	if err := core.ValidateRole(role); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	turns := append(s.histories[hash], core.ConversationTurn{Role: role, Text: text})
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	s.histories[hash] = turns
	return nil
}

// History returns a copy of a dataset's turns, oldest first.
func (s *Session) History(hash core.Hash) []core.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.histories[hash]
	if len(turns) == 0 {
		return nil
	}
	out := make([]core.ConversationTurn, len(turns))
	copy(out, turns)
	return out
}

// ClearHistory forgets a dataset's conversation without touching the
// active selection.
func (s *Session) ClearHistory(hash core.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, hash)
}

// Invalidate forgets everything tied to a dataset: its history and,
// when it is the active selection, the selection itself. Teardown
// calls this in the same step that removes the registry entry.
func (s *Session) Invalidate(hash core.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, hash)
	if s.active == hash {
		s.active = ""
	}
}

// InvalidateAll resets the session to its initial state.
func (s *Session) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
	s.histories = make(map[core.Hash][]core.ConversationTurn)
}

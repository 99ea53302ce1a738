package session

import "sync"

// Manager hands out one Session per tenant, creating them on demand.
// Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     []Option
}

// NewManager creates a manager whose sessions are built with opts.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Get returns the tenant's session, creating it if needed.
func (m *Manager) Get(tenant string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tenant]
	if !ok {
		s = New(tenant, m.opts...)
		m.sessions[tenant] = s
	}
	return s
}

// Drop discards the tenant's session entirely. The next Get starts
// fresh.
func (m *Manager) Drop(tenant string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tenant)
}

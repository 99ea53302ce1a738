package mock

import (
	"context"
	"fmt"
	"hash/fnv"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default deterministic behavior.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	callCount int
	// Prompts records every prompt passed to Complete, so tests can
	// assert on prompt composition.
	Prompts []string
}

// NewMockCompleter creates a mock completer with default deterministic behavior.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns a deterministic canned answer derived from the prompt.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.callCount++
	m.Prompts = append(m.Prompts, prompt)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}

	h := fnv.New32a()
	h.Write([]byte(prompt))
	return fmt.Sprintf("mock answer %08x", h.Sum32()), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// LastPrompt returns the most recent prompt, or "" when none was made.
func (m *MockCompleter) LastPrompt() string {
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

// Reset clears recorded prompts, the call count and injected behavior.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.Prompts = nil
	m.CompleteFunc = nil
}

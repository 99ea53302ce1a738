package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/crewlens/crewlens/ai/mock"
	"github.com/crewlens/crewlens/core"
	"github.com/crewlens/crewlens/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedStore returns fixed matches for every query.
type cannedStore struct {
	matches  []vectorstore.Match
	queryErr error
	lastK    int
}

func (s *cannedStore) Insert(ctx context.Context, docs []vectorstore.Document) error { return nil }

func (s *cannedStore) Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	s.lastK = k
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.matches, nil
}

func (s *cannedStore) Close() error { return nil }

// testIndexLocation creates a real directory so the existence check
// passes.
func testIndexLocation(t *testing.T) string {
	t.Helper()
	location := filepath.Join(t.TempDir(), "1700000000_abcd1234")
	require.NoError(t, os.MkdirAll(location, 0755))
	return location
}

func testRecord(location string) *core.DatasetRecord {
	return &core.DatasetRecord{
		Hash:          "deadbeef",
		DisplayName:   "report.csv",
		IndexLocation: location,
	}
}

func newTestResponder(t *testing.T, store *cannedStore, completer *mock.MockCompleter, opts ...Option) *Responder {
	t.Helper()
	pool := vectorstore.NewHandlePool(func(location, collection string) (vectorstore.Store, error) {
		return store, nil
	})
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), completer)
	r, err := NewResponder(provider, pool, opts...)
	require.NoError(t, err)
	return r
}

func TestAnswerDegradedWhenNoRecord(t *testing.T) {
	r := newTestResponder(t, &cannedStore{}, mock.NewMockCompleter())

	answer, err := r.Answer(context.Background(), nil, "who worked on Apollo?", nil)
	require.NoError(t, err)
	assert.Equal(t, DegradedAnswer, answer)
}

func TestAnswerDegradedWhenLocationMissing(t *testing.T) {
	completer := mock.NewMockCompleter()
	r := newTestResponder(t, &cannedStore{}, completer)

	record := testRecord(filepath.Join(t.TempDir(), "never_created"))
	answer, err := r.Answer(context.Background(), record, "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, DegradedAnswer, answer)
	assert.Empty(t, completer.Prompts, "no model call in degraded mode")
}

func TestAnswerReturnsCompletionVerbatim(t *testing.T) {
	store := &cannedStore{matches: []vectorstore.Match{
		{Text: "Ann (Apollo): Hours: 5", Score: 0.9},
		{Text: "Bob (Apollo): Hours: 3", Score: 0.8},
	}}
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "  Ann logged 5 hours.  ", nil
	}
	r := newTestResponder(t, store, completer)

	answer, err := r.Answer(context.Background(), testRecord(testIndexLocation(t)), "who worked on Apollo?", nil)
	require.NoError(t, err)
	assert.Equal(t, "  Ann logged 5 hours.  ", answer, "model output is not post-processed")
}

func TestAnswerPromptContainsNumberedContext(t *testing.T) {
	store := &cannedStore{matches: []vectorstore.Match{
		{Text: "Ann (Apollo): Hours: 5"},
		{Text: "Bob (Hermes): Hours: 3"},
	}}
	completer := mock.NewMockCompleter()
	r := newTestResponder(t, store, completer)

	_, err := r.Answer(context.Background(), testRecord(testIndexLocation(t)), "who logged hours?", nil)
	require.NoError(t, err)

	require.Len(t, completer.Prompts, 1)
	prompt := completer.Prompts[0]
	assert.Contains(t, prompt, "expert Employee Data Analyst")
	assert.Contains(t, prompt, "[1] Ann (Apollo): Hours: 5")
	assert.Contains(t, prompt, "[2] Bob (Hermes): Hours: 3")
	assert.Contains(t, prompt, "Question: who logged hours?")
}

func TestAnswerEmptyRetrievalUsesMarker(t *testing.T) {
	completer := mock.NewMockCompleter()
	r := newTestResponder(t, &cannedStore{}, completer)

	_, err := r.Answer(context.Background(), testRecord(testIndexLocation(t)), "anything relevant?", nil)
	require.NoError(t, err)

	require.Len(t, completer.Prompts, 1)
	assert.Contains(t, completer.Prompts[0], "No relevant data found.")
}

func TestAnswerHistoryWindow(t *testing.T) {
	completer := mock.NewMockCompleter()
	r := newTestResponder(t, &cannedStore{}, completer, WithHistoryWindow(4))

	var history []core.ConversationTurn
	for i := 0; i < 10; i++ {
		history = append(history,
			core.ConversationTurn{Role: core.RoleUser, Text: fmt.Sprintf("question %d", i)},
			core.ConversationTurn{Role: core.RoleAssistant, Text: fmt.Sprintf("answer %d", i)},
		)
	}

	_, err := r.Answer(context.Background(), testRecord(testIndexLocation(t)), "latest?", history)
	require.NoError(t, err)

	require.Len(t, completer.Prompts, 1)
	prompt := completer.Prompts[0]
	assert.Contains(t, prompt, "User: question 9")
	assert.Contains(t, prompt, "Assistant: answer 9")
	assert.Contains(t, prompt, "User: question 8")
	assert.NotContains(t, prompt, "question 7", "only the recent window survives")
	assert.NotContains(t, prompt, "question 0")
}

func TestAnswerNoHistorySection(t *testing.T) {
	completer := mock.NewMockCompleter()
	r := newTestResponder(t, &cannedStore{}, completer)

	_, err := r.Answer(context.Background(), testRecord(testIndexLocation(t)), "first question", nil)
	require.NoError(t, err)

	require.Len(t, completer.Prompts, 1)
	assert.NotContains(t, completer.Prompts[0], "CONVERSATION SO FAR")
}

func TestAnswerUsesConfiguredTopK(t *testing.T) {
	store := &cannedStore{}
	r := newTestResponder(t, store, mock.NewMockCompleter(), WithTopK(7))

	_, err := r.Answer(context.Background(), testRecord(testIndexLocation(t)), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, store.lastK)
}

func TestAnswerCompletionFailure(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("model overloaded")
	}
	r := newTestResponder(t, &cannedStore{}, completer)

	_, err := r.Answer(context.Background(), testRecord(testIndexLocation(t)), "anything", nil)
	assert.ErrorIs(t, err, ErrAnswerGeneration)
}

func TestAnswerRetrievalFailure(t *testing.T) {
	store := &cannedStore{queryErr: errors.New("index corrupt")}
	r := newTestResponder(t, store, mock.NewMockCompleter())

	_, err := r.Answer(context.Background(), testRecord(testIndexLocation(t)), "anything", nil)
	assert.ErrorIs(t, err, ErrAnswerGeneration)
}

func TestTruncateHistory(t *testing.T) {
	turns := []core.ConversationTurn{
		{Role: core.RoleUser, Text: "a"},
		{Role: core.RoleAssistant, Text: "b"},
		{Role: core.RoleUser, Text: "c"},
	}

	assert.Equal(t, turns, truncateHistory(turns, 5), "window larger than history")
	assert.Equal(t, turns[1:], truncateHistory(turns, 2))
	assert.Empty(t, truncateHistory(turns, 0), "zero window disables history")
}

package session

import (
	"fmt"
	"testing"

	"github.com/crewlens/crewlens/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hashA = core.Hash("aaaa")
	hashB = core.Hash("bbbb")
)

func TestActiveSelection(t *testing.T) {
	s := New("ana@example.com")

	_, ok := s.Active()
	assert.False(t, ok, "fresh session has no active dataset")

	s.SetActive(hashA)
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, hashA, active)
}

func TestAppendAndHistory(t *testing.T) {
	s := New("ana@example.com")

	require.NoError(t, s.AppendTurn(hashA, core.RoleUser, "who worked on Apollo?"))
	require.NoError(t, s.AppendTurn(hashA, core.RoleAssistant, "Ann and Bob."))

	turns := s.History(hashA)
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "who worked on Apollo?", turns[0].Text)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)

	assert.Nil(t, s.History(hashB), "histories are per dataset")
}

func TestAppendRejectsInvalidRole(t *testing.T) {
	s := New("ana@example.com")
	err := s.AppendTurn(hashA, core.Role("moderator"), "hi")
	assert.ErrorIs(t, err, core.ErrInvalidRole)
	assert.Nil(t, s.History(hashA))
}

func TestHistoryIsBounded(t *testing.T) {
	s := New("ana@example.com", WithMaxTurns(4))

	for i := 0; i < 10; i++ {
		require.NoError(t, s.AppendTurn(hashA, core.RoleUser, fmt.Sprintf("q%d", i)))
	}

	turns := s.History(hashA)
	require.Len(t, turns, 4)
	assert.Equal(t, "q6", turns[0].Text, "oldest turns evicted first")
	assert.Equal(t, "q9", turns[3].Text)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := New("ana@example.com")
	require.NoError(t, s.AppendTurn(hashA, core.RoleUser, "original"))

	turns := s.History(hashA)
	turns[0].Text = "mutated"

	assert.Equal(t, "original", s.History(hashA)[0].Text)
}

func TestClearHistoryKeepsSelection(t *testing.T) {
	s := New("ana@example.com")
	s.SetActive(hashA)
	require.NoError(t, s.AppendTurn(hashA, core.RoleUser, "hello"))

	s.ClearHistory(hashA)

	assert.Nil(t, s.History(hashA))
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, hashA, active)
}

func TestInvalidateDropsSelectionAndHistory(t *testing.T) {
	s := New("ana@example.com")
	s.SetActive(hashA)
	require.NoError(t, s.AppendTurn(hashA, core.RoleUser, "hello"))
	require.NoError(t, s.AppendTurn(hashB, core.RoleUser, "other"))

	s.Invalidate(hashA)

	assert.Nil(t, s.History(hashA))
	_, ok := s.Active()
	assert.False(t, ok, "invalidating the active dataset clears the selection")
	assert.Len(t, s.History(hashB), 1, "other datasets untouched")
}

func TestInvalidateOtherDatasetKeepsSelection(t *testing.T) {
	s := New("ana@example.com")
	s.SetActive(hashA)

	s.Invalidate(hashB)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, hashA, active)
}

func TestInvalidateAll(t *testing.T) {
	s := New("ana@example.com")
	s.SetActive(hashA)
	require.NoError(t, s.AppendTurn(hashA, core.RoleUser, "hello"))
	require.NoError(t, s.AppendTurn(hashB, core.RoleUser, "other"))

	s.InvalidateAll()

	_, ok := s.Active()
	assert.False(t, ok)
	assert.Nil(t, s.History(hashA))
	assert.Nil(t, s.History(hashB))
}

func TestManagerReturnsSameSessionPerTenant(t *testing.T) {
	m := NewManager()

	ana := m.Get("ana@example.com")
	ana.SetActive(hashA)

	again := m.Get("ana@example.com")
	active, ok := again.Active()
	require.True(t, ok)
	assert.Equal(t, hashA, active)

	bruno := m.Get("bruno@example.com")
	_, ok = bruno.Active()
	assert.False(t, ok, "tenants do not share sessions")
}

func TestManagerDrop(t *testing.T) {
	m := NewManager()
	m.Get("ana@example.com").SetActive(hashA)

	m.Drop("ana@example.com")

	_, ok := m.Get("ana@example.com").Active()
	assert.False(t, ok)
}

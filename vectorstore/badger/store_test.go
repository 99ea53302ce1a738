package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlens/crewlens/vectorstore"
)

func testDocs() []vectorstore.Document {
	return []vectorstore.Document{
		{Text: "Ann (X): Hours: 5", Person: "Ann", Project: "X", DateLabel: "Ongoing", RowIndex: 0, Vector: []float32{1, 0, 0}},
		{Text: "Bob (X): Hours: 0", Person: "Bob", Project: "X", DateLabel: "Ongoing", RowIndex: 1, Vector: []float32{0, 1, 0}},
		{Text: "Unknown (Y): Hours: 3", Person: "Unknown", Project: "Y", DateLabel: "Ongoing", RowIndex: 2, Vector: []float32{0.7, 0.7, 0}},
	}
}

func TestInsertAndQuery(t *testing.T) {
	location := filepath.Join(t.TempDir(), "1_abcd1234")
	store, err := Open(location, vectorstore.Collection)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, testDocs()))

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "Ann", matches[0].Person)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "Unknown", matches[1].Person)
	assert.Equal(t, 2, matches[1].RowIndex)
}

func TestQuery_TiesBreakByInsertionOrder(t *testing.T) {
	location := filepath.Join(t.TempDir(), "idx")
	store, err := Open(location, vectorstore.Collection)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	docs := []vectorstore.Document{
		{Text: "first", RowIndex: 0, Vector: []float32{1, 0}},
		{Text: "second", RowIndex: 1, Vector: []float32{1, 0}},
	}
	require.NoError(t, store.Insert(ctx, docs))

	matches, err := store.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].Text)
	assert.Equal(t, "second", matches[1].Text)
}

func TestQuery_KLargerThanIndex(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "idx"), vectorstore.Collection)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, testDocs()[:1]))

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 20)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	location := filepath.Join(t.TempDir(), "idx")
	ctx := context.Background()

	store, err := Open(location, vectorstore.Collection)
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, testDocs()))
	require.NoError(t, store.Close())

	reopened, err := Open(location, vectorstore.Collection)
	require.NoError(t, err)
	defer reopened.Close()

	matches, err := reopened.Query(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Bob (X): Hours: 0", matches[0].Text)
	assert.Equal(t, "Bob", matches[0].Person)
	assert.Equal(t, "X", matches[0].Project)
}

func TestOpen_LockContentionClassified(t *testing.T) {
	location := filepath.Join(t.TempDir(), "idx")
	store, err := Open(location, vectorstore.Collection)
	require.NoError(t, err)
	defer store.Close()

	_, err = Open(location, vectorstore.Collection)
	require.Error(t, err)

	initErr, ok := vectorstore.AsInitError(err)
	require.True(t, ok, "open failure must be a classified InitError")
	assert.Equal(t, vectorstore.KindLockContention, initErr.Kind)
	assert.True(t, initErr.Kind.Retryable())
	assert.Equal(t, location, initErr.Location)
}

func TestIndependentLocations(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	a, err := Open(filepath.Join(base, "a"), vectorstore.Collection)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(filepath.Join(base, "b"), vectorstore.Collection)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Insert(ctx, testDocs()[:1]))

	matches, err := b.Query(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches, "locations must be fully isolated")
}

func TestDocumentSerializationRoundTrip(t *testing.T) {
	doc := &vectorstore.Document{
		Text:      "Ann (X): Hours: 5; Note: on-site",
		Person:    "Ann",
		Project:   "X",
		DateLabel: "March 1, 2024",
		RowIndex:  41,
		Vector:    []float32{0.25, -1.5, 3.75},
	}

	decoded, err := unmarshalDocument(marshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

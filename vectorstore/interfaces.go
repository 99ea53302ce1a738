package vectorstore

import "context"

// Collection is the fixed collection identifier under which every
// dataset's documents are stored.
const Collection = "employee_kb"

// Document is one embedded row chunk as stored in a vector index.
type Document struct {
	Text      string
	Person    string
	Project   string
	DateLabel string
	RowIndex  int
	Vector    []float32
}

// Match is one retrieval hit, ranked by similarity score.
type Match struct {
	Text      string
	Person    string
	Project   string
	DateLabel string
	RowIndex  int
	Score     float32
}

// Store is an exclusively-owned connection to one dataset's vector
// index. Implementations must be safe for concurrent use and must
// release any OS-level resources (file locks included) on Close.
type Store interface {
	// Insert adds documents to the index in the given order.
	Insert(ctx context.Context, docs []Document) error

	// Query returns the k most similar documents to the vector, ordered
	// by descending score. Ties break by insertion order, so results
	// are deterministic for a fixed index state.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)

	// Close releases the index handle. The backing directory can only
	// be deleted once Close has returned (and possibly not even then;
	// see the lifecycle package).
	Close() error
}

// OpenFunc opens the vector index rooted at location, creating it if
// absent. Multiple locations may be open concurrently in one process;
// opening the same location twice fails with lock contention.
type OpenFunc func(location, collection string) (Store, error)

package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Hash is the dedup identity of an uploaded dataset: a 128-bit BLAKE2b
// digest over the raw upload bytes, hex encoded. Identical bytes always
// produce the same Hash within and across processes.
type Hash string

// HashBytes computes the content hash of raw upload bytes.
func HashBytes(data []byte) Hash {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// DatasetRecord is one catalog entry in a tenant's registry.
// At most one record exists per (tenant, Hash) pair.
type DatasetRecord struct {
	Hash          Hash
	DisplayName   string // original filename as uploaded
	SnapshotPath  string // cleaned table snapshot (CSV), unique per dataset
	IndexLocation string // vector index directory, unique per ingestion attempt
	CreatedAt     time.Time
}

// RowChunk is one normalized table row rendered as a natural-language
// record with structured metadata. RowChunks are ephemeral: they exist
// between the normalizer and the index build, never on their own.
type RowChunk struct {
	Text      string
	Person    string
	Project   string
	DateLabel string
	RowIndex  int
}

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the human operator.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the responder.
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message in a per-dataset conversation.
type ConversationTurn struct {
	Role Role
	Text string
}

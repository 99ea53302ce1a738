package ingest

import "errors"

var (
	// ErrRegistryRequired is returned when a registry store is not provided.
	ErrRegistryRequired = errors.New("registry store required")

	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrOpenerRequired is returned when a vector store opener is not provided.
	ErrOpenerRequired = errors.New("vector store opener required")

	// ErrUploadTooLarge indicates the upload exceeds the size ceiling.
	// Rejected before the normalizer ever sees the bytes.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// ErrEmbeddingService indicates the embedding service failed.
	// Fatal to the ingestion attempt; nothing is committed.
	ErrEmbeddingService = errors.New("embedding service failure")

	// ErrStorageInit indicates the vector index could not be built
	// after all retry attempts. Nothing is committed.
	ErrStorageInit = errors.New("vector index initialization failure")
)

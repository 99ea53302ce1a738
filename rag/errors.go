package rag

import "errors"

var (
	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrPoolRequired is returned when a handle pool is not provided.
	ErrPoolRequired = errors.New("handle pool required")

	// ErrAnswerGeneration indicates retrieval or completion failed for a
	// query. The caller may retry the same question; history is never
	// mutated on this path.
	ErrAnswerGeneration = errors.New("answer generation failure")
)

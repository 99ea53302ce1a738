package ai

import "context"

// Embedder generates vector embeddings from text for semantic
// similarity search. Implementations must be thread-safe and
// deterministic: identical text yields an identical vector.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in a batch.
	// The returned slice is in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer produces a completion for a fully composed prompt.
// The call is stateless: conversation history, retrieved context, and
// instructions are all folded into the prompt by the caller.
// Implementations must be thread-safe.
type Completer interface {
	// Complete returns the model's text for the prompt, generated at
	// temperature 0.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the completion service.
	Completer() Completer

	// Close releases resources held by the provider and its services.
	Close() error
}

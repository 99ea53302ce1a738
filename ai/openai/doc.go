// Package openai implements the ai service contracts against any
// OpenAI-compatible API: a local Ollama/LocalAI/vLLM server for
// embeddings and a hosted endpoint (Groq by default) for completions.
package openai

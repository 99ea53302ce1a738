// Copyright 2026 Crewlens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Embeddings run against a local OpenAI-compatible server so
	// ingestion has no per-call network dependency.
	// Example: "http://localhost:11434/v1"
	EmbeddingHost string

	// EmbeddingModel is the model identifier for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// CompletionHost is the base URL for the chat completion API.
	// Example: "https://api.groq.com/openai/v1"
	CompletionHost string

	// CompletionModel is the model identifier for answer generation.
	// Example: "llama-3.3-70b-versatile"
	CompletionModel string

	// APIKey authenticates against the completion host. Local
	// embedding services that need no authentication get "none".
	APIKey string

	// EmbedTimeout bounds a single embedding batch call.
	EmbedTimeout time.Duration

	// CompleteTimeout bounds a single completion call.
	CompleteTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithAPIKey sets the completion service API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbedTimeout sets the per-call embedding timeout.
func WithEmbedTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.EmbedTimeout = d
	}
}

// WithCompleteTimeout sets the per-call completion timeout.
func WithCompleteTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CompleteTimeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults: a local
// OpenAI-compatible embedding server and a Groq-hosted completion
// model.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:   "http://localhost:11434/v1",
		EmbeddingModel:  "all-minilm",
		CompletionHost:  "https://api.groq.com/openai/v1",
		CompletionModel: "llama-3.3-70b-versatile",
		APIKey:          "none",
		EmbedTimeout:    60 * time.Second,
		CompleteTimeout: 120 * time.Second,
	}
}

// NewConfig creates a Config with default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures both hosts carry the /v1 suffix most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, Groq) require.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.CompletionHost = normalizeHost(c.CompletionHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.CompletionHost == "" {
		return errors.New("ai config: CompletionHost is required")
	}
	if c.CompletionModel == "" {
		return errors.New("ai config: CompletionModel is required")
	}
	if c.EmbedTimeout <= 0 || c.CompleteTimeout <= 0 {
		return errors.New("ai config: timeouts must be positive")
	}
	return nil
}

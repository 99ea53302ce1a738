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

package openai

import (
	"context"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/crewlens/crewlens/ai"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs
// (Groq, Ollama, vLLM and similar).
type Completer struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Completer{
		client:  client,
		timeout: config.CompleteTimeout,
		logger:  slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new completer using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete generates a completion for the prompt at temperature 0.
// The call is bounded by the configured completion timeout.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("generating completion", "promptLength", len(prompt))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := llms.GenerateFromSinglePrompt(ctx, c.client, prompt, llms.WithTemperature(0.0))
	if err != nil {
		c.logger.Error("failed to generate completion", "err", err)
		return "", err
	}
	return answer, nil
}

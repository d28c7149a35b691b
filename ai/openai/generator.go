// Copyright 2025 Poiesic Systems
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
	"errors"
	"log/slog"

	"github.com/poiesic/doctalk/ai"
	"github.com/poiesic/doctalk/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrNoChoices indicates the model returned a response with no choices.
var ErrNoChoices = errors.New("model returned no choices")

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(apiToken()),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate produces a single complete response for the given messages.
func (g *Generator) Generate(ctx context.Context, messages []core.Message) (string, error) {
	response, err := g.client.GenerateContent(ctx, toMessageContent(messages),
		llms.WithTemperature(0.0))
	if err != nil {
		g.logger.Error("generation failed", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		return "", ErrNoChoices
	}

	return response.Choices[0].Content, nil
}

// Stream produces a response incrementally, invoking fn for every fragment.
func (g *Generator) Stream(ctx context.Context, messages []core.Message, fn func(token string) error) error {
	_, err := g.client.GenerateContent(ctx, toMessageContent(messages),
		llms.WithTemperature(0.0),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return fn(string(chunk))
		}))
	if err != nil {
		g.logger.Error("streaming generation failed", "err", err)
	}
	return err
}

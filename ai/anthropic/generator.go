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


// Package anthropic implements ai.Generator against the Anthropic API.
// It serves as the secondary generation provider behind the gateway.
package anthropic

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/doctalk/ai"
	"github.com/poiesic/doctalk/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// ErrNoChoices indicates the model returned a response with no choices.
var ErrNoChoices = errors.New("model returned no choices")

// Generator implements ai.Generator using the Anthropic messages API.
// The API key is read from the ANTHROPIC_API_KEY environment variable.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// NewGenerator creates a new Anthropic generator for the configured
// fallback model.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := anthropic.New(
		anthropic.WithModel(config.FallbackModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "anthropic-generator"),
	}, nil
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

// toMessageContent converts domain messages to the langchaingo wire format.
func toMessageContent(messages []core.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case core.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case core.RoleAI:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		content = append(content, llms.TextParts(role, msg.Contents))
	}
	return content
}

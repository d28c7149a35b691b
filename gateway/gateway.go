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


package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/doctalk/ai"
	"github.com/poiesic/doctalk/core"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Gateway orchestrates generation calls across a primary and a secondary
// provider. It implements ai.Generator so callers stay provider-agnostic.
type Gateway struct {
	primary     ai.Generator
	secondary   ai.Generator
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *slog.Logger
}

var _ ai.Generator = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway) error

// WithMaxAttempts sets the retry budget against the primary provider.
// Default is 3.
func WithMaxAttempts(attempts int) Option {
	return func(g *Gateway) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		g.maxAttempts = attempts
		return nil
	}
}

// WithBaseDelay sets the delay before the first retry.
// Default is 2s.
func WithBaseDelay(delay time.Duration) Option {
	return func(g *Gateway) error {
		g.baseDelay = delay
		return nil
	}
}

// WithMaxDelay sets the upper bound on the backoff delay.
// Default is 10s.
func WithMaxDelay(delay time.Duration) Option {
	return func(g *Gateway) error {
		g.maxDelay = delay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// New creates a gateway over the given primary and secondary generators.
func New(primary, secondary ai.Generator, opts ...Option) (*Gateway, error) {
	if primary == nil {
		return nil, ErrPrimaryRequired
	}
	if secondary == nil {
		return nil, ErrSecondaryRequired
	}

	g := &Gateway{
		primary:     primary,
		secondary:   secondary,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		logger:      slog.Default().With("component", "gateway"),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Generate invokes the primary provider, retrying the whole call with
// capped exponential backoff. When the retry budget is exhausted a single
// attempt is made against the secondary provider; if that also fails, the
// combined error propagates to the caller. There is no further fallback tier.
func (g *Gateway) Generate(ctx context.Context, messages []core.Message) (string, error) {
	var response string

	primaryErr := RetryWithBackoff(ctx, func() error {
		var err error
		response, err = g.primary.Generate(ctx, messages)
		return err
	}, g.maxAttempts, g.baseDelay, g.maxDelay)

	if primaryErr == nil {
		return response, nil
	}

	// Context cancellation is not a provider failure; don't fail over.
	if ctx.Err() != nil {
		return "", primaryErr
	}

	g.logger.Warn("primary generator exhausted retries, falling back",
		"attempts", g.maxAttempts, "err", primaryErr)

	response, secondaryErr := g.secondary.Generate(ctx, messages)
	if secondaryErr != nil {
		g.logger.Error("both generation providers failed",
			"primaryErr", primaryErr, "secondaryErr", secondaryErr)
		return "", fmt.Errorf("secondary provider failed: %w (primary: %w)", secondaryErr, primaryErr)
	}

	return response, nil
}

// Stream streams tokens from the primary provider. If the primary stream
// fails before completion, the entire stream is restarted once from the
// secondary provider; the caller may observe fragments from both. Fragments
// already emitted are not rolled back. The retry/backoff policy does not
// apply to streaming.
func (g *Gateway) Stream(ctx context.Context, messages []core.Message, fn func(token string) error) error {
	// Track consumer aborts so they are not mistaken for provider failures.
	var fnErr error
	wrapped := func(token string) error {
		if err := fn(token); err != nil {
			fnErr = err
			return err
		}
		return nil
	}

	primaryErr := g.primary.Stream(ctx, messages, wrapped)
	if primaryErr == nil {
		return nil
	}

	if fnErr != nil || ctx.Err() != nil {
		return primaryErr
	}

	g.logger.Warn("primary stream failed, restarting from secondary", "err", primaryErr)

	if secondaryErr := g.secondary.Stream(ctx, messages, wrapped); secondaryErr != nil {
		g.logger.Error("both streaming providers failed",
			"primaryErr", primaryErr, "secondaryErr", secondaryErr)
		return fmt.Errorf("secondary stream failed: %w (primary: %w)", secondaryErr, primaryErr)
	}

	return nil
}

package mock

import (
	"context"
	"strings"

	"github.com/poiesic/doctalk/core"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns Response (or a default echo of the last message).
	GenerateFunc func(ctx context.Context, messages []core.Message) (string, error)

	// StreamFunc is called by Stream if set.
	// If nil, streams the Generate result word by word.
	StreamFunc func(ctx context.Context, messages []core.Message, fn func(token string) error) error

	// Response is the canned answer used when GenerateFunc is nil.
	Response string

	// Err, when set, is returned by every call.
	Err error

	generateCalls int
	streamCalls   int
}

// NewMockGenerator creates a mock generator returning the given canned response.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

// Generate returns the injected behavior, the canned response, or an echo
// of the last message.
func (m *MockGenerator) Generate(ctx context.Context, messages []core.Message) (string, error) {
	m.generateCalls++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, messages)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Contents, nil
	}
	return "", nil
}

// Stream streams the Generate result split on word boundaries, preserving
// whitespace in the emitted tokens.
func (m *MockGenerator) Stream(ctx context.Context, messages []core.Message, fn func(token string) error) error {
	m.streamCalls++

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, messages, fn)
	}
	if m.Err != nil {
		return m.Err
	}

	response, err := m.Generate(ctx, messages)
	m.generateCalls-- // Generate above is an implementation detail, not a call
	if err != nil {
		return err
	}

	words := strings.SplitAfter(response, " ")
	for _, word := range words {
		if word == "" {
			continue
		}
		if err := fn(word); err != nil {
			return err
		}
	}
	return nil
}

// GenerateCalls returns the number of Generate invocations.
func (m *MockGenerator) GenerateCalls() int {
	return m.generateCalls
}

// StreamCalls returns the number of Stream invocations.
func (m *MockGenerator) StreamCalls() int {
	return m.streamCalls
}

// Reset clears call counts and injected behavior.
func (m *MockGenerator) Reset() {
	m.generateCalls = 0
	m.streamCalls = 0
	m.GenerateFunc = nil
	m.StreamFunc = nil
	m.Err = nil
}

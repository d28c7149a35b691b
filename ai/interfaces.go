package ai

import (
	"context"

	"github.com/poiesic/doctalk/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text from a conversation transcript.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate produces a single complete response for the given messages.
	Generate(ctx context.Context, messages []core.Message) (string, error)

	// Stream produces a response incrementally, invoking fn for every text
	// fragment as it arrives. A non-nil error from fn aborts the stream.
	// Stream returns the error that ended the stream, or nil on completion.
	Stream(ctx context.Context, messages []core.Message, fn func(token string) error) error
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// Generator instances, ensuring they share configuration.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the language generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

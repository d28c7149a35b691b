package workflow

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrEmptyQuestion is returned when a run is started with a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrEmptyThread is returned when a run is started with a blank thread ID.
	ErrEmptyThread = errors.New("thread ID is empty")
)

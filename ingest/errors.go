package ingest

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrFileStoreRequired is returned when a file store is not provided.
	ErrFileStoreRequired = errors.New("file store required")

	// ErrEmptyUpload is returned when an uploaded document contains no bytes.
	ErrEmptyUpload = errors.New("uploaded document is empty")

	// ErrNoChunks is returned when a document yields no text chunks.
	ErrNoChunks = errors.New("document produced no chunks")
)

package storage

import (
	"context"

	"github.com/poiesic/doctalk/core"
)

// Repository provides common lifecycle operations shared across repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the repository and releases resources.
	Close() error
}

// DocumentRepository is the dedup ledger: it manages document records and
// enforces fingerprint uniqueness at the storage layer.
type DocumentRepository interface {
	Repository

	// AddDocument adds a document record to the ledger.
	// Generates an ID if the record has none and sets CreatedAt/UpdatedAt.
	// Returns ErrDuplicateFingerprint if a non-deleted record with the same
	// fingerprint already exists.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetDocument(ctx context.Context, id core.DocumentID) (*core.Document, error)

	// FindByFingerprint returns the document with the given content
	// fingerprint. Returns ErrNotFound if no record has that fingerprint.
	FindByFingerprint(ctx context.Context, fingerprint string) (*core.Document, error)

	// ListDocuments returns all document records, ordered by creation time.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// UpdateStatus transitions a document's processing status, capturing an
	// error message for failed transitions. Updates UpdatedAt.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateStatus(ctx context.Context, id core.DocumentID, status core.ProcessingStatus, errorMessage string) (*core.Document, error)

	// DeleteDocument removes a document record and its fingerprint index
	// entry. Returns ErrNotFound if the record doesn't exist.
	DeleteDocument(ctx context.Context, id core.DocumentID) error
}

// ChunkRepository is the vector store: it holds write-once chunks tagged
// with their owning document and supports similarity search over their
// embedding vectors.
type ChunkRepository interface {
	Repository

	// AddChunks adds one or more chunks to storage.
	// For chunks with ID=0, generates new IDs from sequence.
	// Returns the chunks with generated IDs populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ChunkID) (*core.Chunk, error)

	// CountByDocument returns the number of chunks owned by a document.
	CountByDocument(ctx context.Context, documentID core.DocumentID) (int, error)

	// DeleteByDocument removes all chunks owned by a document.
	DeleteByDocument(ctx context.Context, documentID core.DocumentID) error

	// FindSimilar finds chunks similar to the given vector, ranked by
	// similarity score (highest first), up to limit results. A non-empty
	// documentID restricts the search to chunks owned by that document.
	FindSimilar(ctx context.Context, vector []float32, limit int, documentID core.DocumentID) ([]*core.SearchResult, error)
}

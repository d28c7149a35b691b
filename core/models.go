package core

import (
	"time"

	"github.com/google/uuid"
)

// DocumentID is the opaque unique identifier for an uploaded document.
// IDs are UUID strings so they can be handed to external callers safely.
type DocumentID string

// NewDocumentID generates a fresh random DocumentID.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.NewString())
}

// ChunkID is a unique identifier for a stored chunk.
// IDs are generated from database sequences.
type ChunkID uint64

// ProcessingStatus tracks a document through the ingestion lifecycle.
type ProcessingStatus int

const (
	// StatusPending marks a document accepted but not yet indexed.
	StatusPending ProcessingStatus = iota + 1
	// StatusIndexed marks a document whose chunks are stored and searchable.
	StatusIndexed
	// StatusFailed marks a document whose ingestion failed.
	StatusFailed
)

// String returns the canonical name of the status.
func (s ProcessingStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusIndexed:
		return "INDEXED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Document is the ledger record for one uploaded document.
// At most one non-deleted document per fingerprint may be Indexed.
type Document struct {
	Id           DocumentID
	Title        string
	Path         string // Location of the stored raw content
	Fingerprint  string // Hex BLAKE2b-256 digest of the raw content
	Status       ProcessingStatus
	ErrorMessage string // Populated when Status is Failed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chunk is a bounded span of a source document's text, the unit of
// vector indexing. Chunks are write-once and owned by exactly one document.
type Chunk struct {
	Id         ChunkID
	DocumentId DocumentID
	Seq        int // Position of the chunk within its document
	Contents   string
	Vector     []float32 // Embedding vector (populated before storage)
}

// MessageRole identifies the source of a conversation message.
type MessageRole int

const (
	// RoleSystem represents a system instruction.
	RoleSystem MessageRole = iota + 1
	// RoleHuman represents the human user.
	RoleHuman
	// RoleAI represents the assistant.
	RoleAI
)

// Message is a single turn in a conversation thread.
type Message struct {
	Role      MessageRole
	Contents  string
	Timestamp time.Time
}

// SearchResult is a chunk match from vector similarity search.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

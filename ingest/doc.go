// Package ingest provides pipeline orchestration for turning uploaded
// documents into searchable chunks.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Accepting uploads with content-fingerprint deduplication
//   - Loading and splitting document text into overlapping chunks
//   - Generating embeddings and storing chunks with their vectors
//   - Transitioning document status and broadcasting lifecycle events
//
// Background ingestion is performed on a worker pool. Errors during async
// processing transition the document to a failed status and are logged but
// never panic the pool.
package ingest

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/doctalk/ai"
	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/storage"
)

// Pipeline orchestrates document ingestion from upload to indexed chunks.
type Pipeline struct {
	documentRepo storage.DocumentRepository
	chunkRepo    storage.ChunkRepository
	embedder     ai.Embedder
	loader       Loader
	splitter     *Splitter
	files        *FileStore
	pool         *ants.Pool
	events       *Broadcaster
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for background ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithLoader sets a custom document loader.
// Default is a plain text loader.
func WithLoader(loader Loader) Option {
	return func(p *Pipeline) error {
		if loader != nil {
			p.loader = loader
		}
		return nil
	}
}

// WithChunking sets the chunk size and overlap used when splitting.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		p.splitter = NewSplitter(size, overlap)
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documentRepo storage.DocumentRepository,
	chunkRepo storage.ChunkRepository,
	provider ai.AIProvider,
	files *FileStore,
	opts ...Option,
) (*Pipeline, error) {
	if documentRepo == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunkRepo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if files == nil {
		return nil, ErrFileStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		embedder:     provider.Embedder(),
		loader:       NewTextLoader(),
		splitter:     NewSplitter(defaultChunkSize, defaultChunkOverlap),
		files:        files,
		pool:         pool,
		events:       NewBroadcaster(),
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Subscribe registers for document lifecycle events.
func (p *Pipeline) Subscribe() (<-chan Event, func()) {
	return p.events.Subscribe()
}

// Accept takes an uploaded document, deduplicates it by content
// fingerprint, and enqueues background ingestion for new content.
//
// If content with the same fingerprint already exists, the existing
// record is returned with alreadyExists true and the spooled bytes are
// discarded. A failed twin is re-enqueued so a retry upload restarts
// ingestion.
func (p *Pipeline) Accept(ctx context.Context, title string, r io.Reader) (doc *core.Document, alreadyExists bool, err error) {
	// The upload streams through the hash into a spool file, so memory
	// stays bounded regardless of upload size.
	spool, err := p.files.Spool()
	if err != nil {
		return nil, false, err
	}
	defer spool.Discard()

	fingerprint, err := core.Fingerprint(io.TeeReader(r, spool))
	if err != nil {
		return nil, false, err
	}
	if spool.Size() == 0 {
		return nil, false, ErrEmptyUpload
	}

	existing, err := p.documentRepo.FindByFingerprint(ctx, fingerprint)
	if err == nil {
		if existing.Status == core.StatusFailed {
			p.Enqueue(existing)
		}
		return existing, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	id := core.NewDocumentID()
	path, err := spool.Promote(string(id), title)
	if err != nil {
		return nil, false, err
	}

	doc, err = p.documentRepo.AddDocument(ctx, &core.Document{
		Id:          id,
		Title:       title,
		Path:        path,
		Fingerprint: fingerprint,
	})
	if err != nil {
		p.files.Remove(path)
		// Lost an upload race for the same content. Resolve to the winner.
		if errors.Is(err, storage.ErrDuplicateFingerprint) {
			if winner, findErr := p.documentRepo.FindByFingerprint(ctx, fingerprint); findErr == nil {
				return winner, true, nil
			}
		}
		return nil, false, err
	}

	p.Enqueue(doc)
	return doc, false, nil
}

// Enqueue submits a document for background ingestion.
// Completion surfaces via lifecycle events, not a return value.
func (p *Pipeline) Enqueue(doc *core.Document) {
	submitErr := p.pool.Submit(func() {
		if err := p.Ingest(context.Background(), doc); err != nil {
			p.logger.Error("background ingestion failed",
				"document_id", doc.Id, "err", err)
		}
	})
	if submitErr != nil {
		p.logger.Error("failed to submit ingestion task",
			"document_id", doc.Id, "err", submitErr)
	}
}

// Ingest runs the full ingestion workflow for one document: load, split,
// embed, store, then transition to an indexed status. Any failure
// transitions the document to failed with the error text.
//
// Ingest is idempotent for already-indexed documents and safe to re-run
// after a failure: stale chunks from a previous attempt are replaced.
func (p *Pipeline) Ingest(ctx context.Context, doc *core.Document) error {
	fresh, err := p.documentRepo.GetDocument(ctx, doc.Id)
	if err != nil {
		// Record lookup failures still surface to subscribers.
		p.logger.Error("document lookup failed", "document_id", doc.Id, "err", err)
		p.events.Publish(Event{
			Kind:       EventDocumentFailed,
			DocumentId: doc.Id,
			Message:    err.Error(),
		})
		return err
	}
	if fresh.Status == core.StatusIndexed {
		return nil
	}

	sections, err := p.loader.Load(ctx, fresh.Path)
	if err != nil {
		return p.fail(ctx, fresh, err)
	}

	texts, err := p.splitter.Split(sections)
	if err != nil {
		return p.fail(ctx, fresh, err)
	}
	if len(texts) == 0 {
		return p.fail(ctx, fresh, ErrNoChunks)
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return p.fail(ctx, fresh, err)
	}

	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			DocumentId: fresh.Id,
			Seq:        i,
			Contents:   text,
			Vector:     vectors[i],
		}
	}

	// A retry after failure may leave stale chunks behind.
	if err := p.chunkRepo.DeleteByDocument(ctx, fresh.Id); err != nil {
		return p.fail(ctx, fresh, err)
	}
	if _, err := p.chunkRepo.AddChunks(ctx, chunks...); err != nil {
		return p.fail(ctx, fresh, err)
	}

	if _, err := p.documentRepo.UpdateStatus(ctx, fresh.Id, core.StatusIndexed, ""); err != nil {
		return p.fail(ctx, fresh, err)
	}

	p.logger.Info("document indexed", "document_id", fresh.Id, "chunks", len(chunks))
	p.events.Publish(Event{
		Kind:       EventDocumentIndexed,
		DocumentId: fresh.Id,
		Message:    fmt.Sprintf("indexed %d chunks", len(chunks)),
	})
	return nil
}

// Delete removes a document, its chunks, and its stored file.
func (p *Pipeline) Delete(ctx context.Context, id core.DocumentID) error {
	doc, err := p.documentRepo.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := p.chunkRepo.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := p.documentRepo.DeleteDocument(ctx, id); err != nil {
		return err
	}

	if err := p.files.Remove(doc.Path); err != nil {
		p.logger.Warn("failed to remove stored file",
			"document_id", id, "path", doc.Path, "err", err)
	}
	return nil
}

// Release releases the worker pool and closes the event broadcaster.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
	p.events.Close()
}

// fail transitions the document to a failed status and publishes the
// failure event. The original cause is always returned; a status
// persistence error is logged but does not mask the cause.
func (p *Pipeline) fail(ctx context.Context, doc *core.Document, cause error) error {
	if _, err := p.documentRepo.UpdateStatus(ctx, doc.Id, core.StatusFailed, cause.Error()); err != nil {
		p.logger.Error("failed to record failure status",
			"document_id", doc.Id, "err", err)
	}
	p.logger.Error("document ingestion failed", "document_id", doc.Id, "err", cause)
	p.events.Publish(Event{
		Kind:       EventDocumentFailed,
		DocumentId: doc.Id,
		Message:    cause.Error(),
	})
	return cause
}

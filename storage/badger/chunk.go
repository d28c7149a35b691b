package badger

import (
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Chunks are stored with their embedding vectors; similarity search is a
// linear scan with dot-product scoring, optionally restricted to one
// document via the per-document index.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	if backend == nil {
		return nil, storage.ErrBackendRequired
	}

	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// AddChunks adds one or more chunks to storage.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				chunk.Id = core.ChunkID(nextID)
			}

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeChunkByDocumentKey(chunk.DocumentId, chunk.Id),
				storage.MarshalChunkID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ChunkID) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		chunk, err = r.readChunk(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// CountByDocument returns the number of chunks owned by a document.
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID core.DocumentID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkByDocumentKey(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByDocument removes all chunks owned by a document.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID core.DocumentID) error {
	ids, err := r.chunkIDsForDocument(documentID)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkByDocumentKey(documentID, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// FindSimilar finds chunks similar to the given vector.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, limit int, documentID core.DocumentID) ([]*core.SearchResult, error) {
	var results []*core.SearchResult

	score := func(chunk *core.Chunk) {
		if len(chunk.Vector) == 0 {
			return
		}
		results = append(results, &core.SearchResult{
			Chunk: chunk,
			Score: dotProduct(vector, chunk.Vector),
		})
	}

	var err error
	if documentID != "" {
		// Scoped search: walk the per-document index.
		var ids []core.ChunkID
		ids, err = r.chunkIDsForDocument(documentID)
		if err != nil {
			return nil, err
		}
		err = r.backend.WithTx(func(tx *badger.Txn) error {
			for _, id := range ids {
				chunk, err := r.readChunk(tx, id)
				if err != nil {
					return err
				}
				score(chunk)
			}
			return nil
		}, false)
	} else {
		err = r.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(chunkRecordPrefix)
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Rewind(); iter.Valid(); iter.Next() {
				var chunk *core.Chunk
				err := iter.Item().Value(func(val []byte) error {
					var err error
					chunk, err = storage.UnmarshalChunk(val)
					return err
				})
				if err != nil {
					return err
				}
				score(chunk)
			}
			return nil
		}, false)
	}
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// chunkIDsForDocument collects the chunk IDs owned by a document.
func (r *ChunkRepository) chunkIDsForDocument(documentID core.DocumentID) ([]core.ChunkID, error) {
	var ids []core.ChunkID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkByDocumentKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ChunkID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalChunkID(val)
				return err
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// readChunk reads a chunk record within a transaction.
func (r *ChunkRepository) readChunk(tx *badger.Txn, id core.ChunkID) (*core.Chunk, error) {
	item, err := tx.Get(makeChunkKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var chunk *core.Chunk
	if err := item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	}); err != nil {
		return nil, err
	}
	return chunk, nil
}

// dotProduct calculates the dot product of two vectors.
// For normalized vectors this equals cosine similarity.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

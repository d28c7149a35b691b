package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
// Fingerprint uniqueness is enforced with an index key per fingerprint
// whose value is the owning document's ID.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	if backend == nil {
		return nil, storage.ErrBackendRequired
	}
	return &DocumentRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *DocumentRepository) Close() error {
	return nil
}

// AddDocument adds a document record to the ledger.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc.Id == "" {
		doc.Id = core.NewDocumentID()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Status == 0 {
		doc.Status = core.StatusPending
	}

	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Fingerprint uniqueness check. This is the storage-layer constraint
		// that catches two identical uploads racing past the upload-time
		// dedup check: the second insert fails here.
		fpKey := makeFingerprintKey(doc.Fingerprint)
		if _, err := tx.Get(fpKey); err == nil {
			return storage.ErrDuplicateFingerprint
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(fpKey, storage.MarshalDocumentID(doc.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.DocumentID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocument(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// FindByFingerprint returns the document with the given content fingerprint.
func (r *DocumentRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFingerprintKey(fingerprint))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.DocumentID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalDocumentID(val)
			return err
		}); err != nil {
			return err
		}

		doc, err = r.readDocument(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all document records, ordered by creation time.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(docs, func(a, b *core.Document) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return docs, nil
}

// UpdateStatus transitions a document's processing status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id core.DocumentID, status core.ProcessingStatus, errorMessage string) (*core.Document, error) {
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}

	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocument(tx, id)
		if err != nil {
			return err
		}

		doc.Status = status
		doc.ErrorMessage = errorMessage
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a document record and its fingerprint index entry.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.DocumentID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}

		// Only remove the fingerprint entry if it still points at this
		// record, so a concurrent re-upload's claim is left intact.
		fpKey := makeFingerprintKey(doc.Fingerprint)
		if item, err := tx.Get(fpKey); err == nil {
			var owner core.DocumentID
			if err := item.Value(func(val []byte) error {
				var err error
				owner, err = storage.UnmarshalDocumentID(val)
				return err
			}); err != nil {
				return err
			}
			if owner == id {
				if err := tx.Delete(fpKey); err != nil {
					return err
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return tx.Commit()
	}, true)
}

// readDocument reads a document record within a transaction.
func (r *DocumentRepository) readDocument(tx *badger.Txn, id core.DocumentID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var doc *core.Document
	if err := item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

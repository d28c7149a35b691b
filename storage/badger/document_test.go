package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/storage"
)

func TestDocumentBasics(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()

	doc := &core.Document{
		Title:       "handbook.txt",
		Fingerprint: core.FingerprintBytes([]byte("handbook body")),
	}

	added, err := documentRepo.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if added.Id == "" {
		t.Fatal("Expected a generated document ID")
	}
	if added.Status != core.StatusPending {
		t.Fatalf("Expected PENDING status, got %s", added.Status)
	}
	if added.CreatedAt.IsZero() || added.UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be set")
	}

	retrieved, err := documentRepo.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Title != "handbook.txt" {
		t.Fatalf("Expected 'handbook.txt', got '%s'", retrieved.Title)
	}
}

func TestDocumentDuplicateFingerprint(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()
	fingerprint := core.FingerprintBytes([]byte("same content"))

	_, err = documentRepo.AddDocument(ctx, &core.Document{
		Title:       "first.txt",
		Fingerprint: fingerprint,
	})
	if err != nil {
		t.Fatalf("Failed to add first document: %v", err)
	}

	_, err = documentRepo.AddDocument(ctx, &core.Document{
		Title:       "second.txt",
		Fingerprint: fingerprint,
	})
	if !errors.Is(err, storage.ErrDuplicateFingerprint) {
		t.Fatalf("Expected ErrDuplicateFingerprint, got %v", err)
	}
}

func TestFindByFingerprint(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()
	fingerprint := core.FingerprintBytes([]byte("findable content"))

	added, err := documentRepo.AddDocument(ctx, &core.Document{
		Title:       "findable.txt",
		Fingerprint: fingerprint,
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	found, err := documentRepo.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		t.Fatalf("Failed to find by fingerprint: %v", err)
	}
	if found.Id != added.Id {
		t.Fatalf("Expected ID %s, got %s", added.Id, found.Id)
	}

	_, err = documentRepo.FindByFingerprint(ctx, core.FingerprintBytes([]byte("never uploaded")))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListDocumentsOrdering(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()

	titles := []string{"alpha.txt", "beta.txt", "gamma.txt"}
	for _, title := range titles {
		_, err := documentRepo.AddDocument(ctx, &core.Document{
			Title:       title,
			Fingerprint: core.FingerprintBytes([]byte(title)),
		})
		if err != nil {
			t.Fatalf("Failed to add %s: %v", title, err)
		}
	}

	docs, err := documentRepo.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].CreatedAt.Before(docs[i-1].CreatedAt) {
			t.Fatal("Expected documents ordered by creation time")
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := documentRepo.AddDocument(ctx, &core.Document{
		Title:       "status.txt",
		Fingerprint: core.FingerprintBytes([]byte("status content")),
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	updated, err := documentRepo.UpdateStatus(ctx, added.Id, core.StatusFailed, "embedding host unreachable")
	if err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}
	if updated.Status != core.StatusFailed {
		t.Fatalf("Expected FAILED, got %s", updated.Status)
	}
	if updated.ErrorMessage != "embedding host unreachable" {
		t.Fatalf("Unexpected error message: %s", updated.ErrorMessage)
	}

	// Recovering clears the error message.
	updated, err = documentRepo.UpdateStatus(ctx, added.Id, core.StatusIndexed, "")
	if err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}
	if updated.Status != core.StatusIndexed || updated.ErrorMessage != "" {
		t.Fatalf("Expected clean INDEXED record, got %s / %q", updated.Status, updated.ErrorMessage)
	}

	_, err = documentRepo.UpdateStatus(ctx, "no-such-id", core.StatusIndexed, "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()
	fingerprint := core.FingerprintBytes([]byte("deletable content"))

	added, err := documentRepo.AddDocument(ctx, &core.Document{
		Title:       "deletable.txt",
		Fingerprint: fingerprint,
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if err := documentRepo.DeleteDocument(ctx, added.Id); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	_, err = documentRepo.GetDocument(ctx, added.Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// The fingerprint must be free for re-upload after deletion.
	_, err = documentRepo.AddDocument(ctx, &core.Document{
		Title:       "deletable.txt",
		Fingerprint: fingerprint,
	})
	if err != nil {
		t.Fatalf("Expected re-upload after delete to succeed, got %v", err)
	}
}

package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/storage"
)

func addTestDocument(t *testing.T, repo storage.DocumentRepository, title string) *core.Document {
	t.Helper()
	doc, err := repo.AddDocument(context.Background(), &core.Document{
		Title:       title,
		Fingerprint: core.FingerprintBytes([]byte(title)),
	})
	if err != nil {
		t.Fatalf("Failed to add document %s: %v", title, err)
	}
	return doc
}

func TestChunkBasics(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()
	doc := addTestDocument(t, documentRepo, "chunky.txt")

	chunks := []*core.Chunk{
		{DocumentId: doc.Id, Seq: 0, Contents: "first span", Vector: []float32{1, 0, 0}},
		{DocumentId: doc.Id, Seq: 1, Contents: "second span", Vector: []float32{0, 1, 0}},
	}

	added, err := chunkRepo.AddChunks(ctx, chunks...)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(added))
	}
	for _, chunk := range added {
		if chunk.Id == 0 {
			t.Fatal("Expected non-zero chunk ID")
		}
	}

	retrieved, err := chunkRepo.GetChunk(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if retrieved.Contents != "first span" {
		t.Fatalf("Expected 'first span', got '%s'", retrieved.Contents)
	}

	count, err := chunkRepo.CountByDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to count chunks: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 chunks for document, got %d", count)
	}
}

func TestDeleteByDocument(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()
	kept := addTestDocument(t, documentRepo, "kept.txt")
	doomed := addTestDocument(t, documentRepo, "doomed.txt")

	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{DocumentId: kept.Id, Seq: 0, Contents: "kept span", Vector: []float32{1, 0}},
		&core.Chunk{DocumentId: doomed.Id, Seq: 0, Contents: "doomed span", Vector: []float32{0, 1}},
		&core.Chunk{DocumentId: doomed.Id, Seq: 1, Contents: "doomed span 2", Vector: []float32{0, 1}},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	if err := chunkRepo.DeleteByDocument(ctx, doomed.Id); err != nil {
		t.Fatalf("Failed to delete chunks: %v", err)
	}

	count, err := chunkRepo.CountByDocument(ctx, doomed.Id)
	if err != nil {
		t.Fatalf("Failed to count chunks: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 chunks after delete, got %d", count)
	}

	count, err = chunkRepo.CountByDocument(ctx, kept.Id)
	if err != nil {
		t.Fatalf("Failed to count chunks: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected kept document untouched, got %d chunks", count)
	}
}

func TestFindSimilar(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()
	doc := addTestDocument(t, documentRepo, "similar.txt")

	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{DocumentId: doc.Id, Seq: 0, Contents: "exact match", Vector: []float32{1, 0, 0}},
		&core.Chunk{DocumentId: doc.Id, Seq: 1, Contents: "partial match", Vector: []float32{0.7, 0.7, 0}},
		&core.Chunk{DocumentId: doc.Id, Seq: 2, Contents: "orthogonal", Vector: []float32{0, 0, 1}},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	results, err := chunkRepo.FindSimilar(ctx, []float32{1, 0, 0}, 2, "")
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.Contents != "exact match" {
		t.Fatalf("Expected best match first, got '%s'", results[0].Chunk.Contents)
	}
	if results[0].Score < results[1].Score {
		t.Fatal("Expected results sorted by score descending")
	}
}

func TestFindSimilarScoped(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	ctx := context.Background()
	docA := addTestDocument(t, documentRepo, "a.txt")
	docB := addTestDocument(t, documentRepo, "b.txt")

	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{DocumentId: docA.Id, Seq: 0, Contents: "from a", Vector: []float32{1, 0}},
		&core.Chunk{DocumentId: docB.Id, Seq: 0, Contents: "from b", Vector: []float32{1, 0}},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	results, err := chunkRepo.FindSimilar(ctx, []float32{1, 0}, 10, docA.Id)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 scoped result, got %d", len(results))
	}
	if results[0].Chunk.DocumentId != docA.Id {
		t.Fatal("Expected result scoped to document A")
	}
}

func TestGetChunkNotFound(t *testing.T) {
	documentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); documentRepo.Close(); backend.Close() }()

	_, err = chunkRepo.GetChunk(context.Background(), 999999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

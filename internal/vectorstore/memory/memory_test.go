package memory

import (
	"context"
	"testing"

	"customgpt/internal/models"
	"customgpt/internal/vectorstore"
)

func chunk(content string) models.Payload {
	return models.DocumentChunkPayload{Content: content, Filename: "test.pdf"}
}

func TestUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if err := s.Upsert(ctx, "c", []vectorstore.Point{
		{ID: 1, Vector: []float32{1, 0}, Payload: chunk("old")},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, "c", []vectorstore.Point{
		{ID: 1, Vector: []float32{1, 0}, Payload: chunk("new")},
		{ID: 2, Vector: []float32{0, 1}, Payload: chunk("other")},
	}); err != nil {
		t.Fatal(err)
	}
	n, err := s.Count(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 points after replace, got %d", n)
	}
	hits, err := s.Search(ctx, "c", []float32{1, 0}, 0.99, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Payload.(models.DocumentChunkPayload).Content != "new" {
		t.Fatalf("unexpected hits: %v", hits)
	}
}

func TestSearchThresholdOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	err := s.Upsert(ctx, "c", []vectorstore.Point{
		{ID: 0, Vector: []float32{1, 0}, Payload: chunk("exact")},
		{ID: 1, Vector: []float32{1, 0.2}, Payload: chunk("close")},
		{ID: 2, Vector: []float32{0, 1}, Payload: chunk("orthogonal")},
	})
	if err != nil {
		t.Fatal(err)
	}

	hits, err := s.Search(ctx, "c", []float32{1, 0}, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected threshold to drop orthogonal vector, got %d hits", len(hits))
	}
	if hits[0].Score < hits[1].Score {
		t.Fatal("hits not sorted by descending score")
	}
	if hits[0].Payload.(models.DocumentChunkPayload).Content != "exact" {
		t.Fatalf("best hit wrong: %v", hits[0])
	}

	hits, err = s.Search(ctx, "c", []float32{1, 0}, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("limit not applied: %d hits", len(hits))
	}
}

func TestCountEmptyCollection(t *testing.T) {
	s := NewStore()
	n, err := s.Count(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

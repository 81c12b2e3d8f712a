package knowledge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/navigatorhq/navigator/internal/knowledge"
	"github.com/navigatorhq/navigator/internal/testutil"
)

const testDimension = 1024

func entry(id, source string, ordinal int, content string) knowledge.Entry {
	return knowledge.Entry{
		ID:        id,
		SourceKey: source,
		Ordinal:   ordinal,
		Content:   content,
		Embedding: testutil.HashVector(content, testDimension),
		Start:     0,
		End:       len(content),
	}
}

func TestPostgresIndexIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	idx := knowledge.NewPostgresIndex(db.Pool, testDimension, 512, nil)

	t.Run("ensure schema is idempotent", func(t *testing.T) {
		// Migrations already created the table; both calls must succeed.
		if err := idx.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema: %v", err)
		}
		if err := idx.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema (second call): %v", err)
		}
	})

	t.Run("ensure schema rejects dimension conflict", func(t *testing.T) {
		wrong := knowledge.NewPostgresIndex(db.Pool, 512, 0, nil)
		if err := wrong.EnsureSchema(ctx); !errors.Is(err, knowledge.ErrSchemaConflict) {
			t.Errorf("EnsureSchema with wrong dimension = %v, want ErrSchemaConflict", err)
		}
	})

	t.Run("search on empty index", func(t *testing.T) {
		hits, err := idx.Search(ctx, testutil.HashVector("anything", testDimension), 5)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(hits) != 0 {
			t.Errorf("Search on empty index = %d hits, want 0", len(hits))
		}
	})

	entries := []knowledge.Entry{
		entry("doc1-0", "course/doc1.txt", 0, "Certification renewal happens every two years."),
		entry("doc1-1", "course/doc1.txt", 1, "Submit the renewal form before the deadline."),
		entry("doc1-2", "course/doc1.txt", 2, "Late submissions require a written appeal."),
	}

	t.Run("upsert and exact-match search", func(t *testing.T) {
		for _, e := range entries {
			if err := idx.Upsert(ctx, e); err != nil {
				t.Fatalf("Upsert(%s): %v", e.ID, err)
			}
		}
		if err := idx.Refresh(ctx); err != nil {
			t.Fatalf("Refresh: %v", err)
		}

		// Querying with an embedding identical to entry 1's must return
		// entry 1 first with similarity ~1.
		hits, err := idx.Search(ctx, entries[1].Embedding, 1)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(hits) != 1 {
			t.Fatalf("Search = %d hits, want 1", len(hits))
		}
		if hits[0].ID != "doc1-1" {
			t.Errorf("top hit = %s, want doc1-1", hits[0].ID)
		}
		if hits[0].Similarity < 0.999 {
			t.Errorf("exact-match similarity = %f, want ~1", hits[0].Similarity)
		}
	})

	t.Run("search caps at topK and orders by similarity", func(t *testing.T) {
		hits, err := idx.Search(ctx, entries[0].Embedding, 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(hits) != len(entries) {
			t.Fatalf("Search = %d hits, want %d", len(hits), len(entries))
		}
		for i := 1; i < len(hits); i++ {
			if hits[i].Similarity > hits[i-1].Similarity {
				t.Errorf("hits out of order: %f before %f", hits[i-1].Similarity, hits[i].Similarity)
			}
		}
	})

	t.Run("upsert overwrites by id", func(t *testing.T) {
		updated := entry("doc1-0", "course/doc1.txt", 0, "Renewal cadence changed to three years.")
		if err := idx.Upsert(ctx, updated); err != nil {
			t.Fatalf("Upsert overwrite: %v", err)
		}

		hits, err := idx.Search(ctx, updated.Embedding, 1)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if hits[0].ID != "doc1-0" || hits[0].Content != updated.Content {
			t.Errorf("overwrite not visible: got %s %q", hits[0].ID, hits[0].Content)
		}

		// Still three rows, not four.
		all, err := idx.Search(ctx, updated.Embedding, 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(all) != len(entries) {
			t.Errorf("entry count after overwrite = %d, want %d", len(all), len(entries))
		}
	})

	t.Run("upsert rejects wrong dimension", func(t *testing.T) {
		bad := entries[0]
		bad.ID = "bad"
		bad.Embedding = testutil.HashVector("bad", 16)
		if err := idx.Upsert(ctx, bad); !errors.Is(err, knowledge.ErrDimensionMismatch) {
			t.Errorf("Upsert wrong dimension = %v, want ErrDimensionMismatch", err)
		}
	})

	t.Run("prune removes stale tail", func(t *testing.T) {
		if err := idx.PruneSource(ctx, "course/doc1.txt", 1); err != nil {
			t.Fatalf("PruneSource: %v", err)
		}

		hits, err := idx.Search(ctx, entries[0].Embedding, 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(hits) != 1 {
			t.Fatalf("after prune = %d hits, want 1", len(hits))
		}
		if hits[0].ID != "doc1-0" {
			t.Errorf("surviving entry = %s, want doc1-0", hits[0].ID)
		}
	})
}

package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/navigatorhq/navigator/internal/knowledge"
	"github.com/navigatorhq/navigator/internal/log"
	"github.com/navigatorhq/navigator/internal/testutil"
)

const testDim = 64

func seedIndex(t *testing.T, idx *testutil.MemoryIndex, contents ...string) {
	t.Helper()
	for i, content := range contents {
		err := idx.Upsert(context.Background(), knowledge.Entry{
			ID:        content,
			SourceKey: "course/doc.txt",
			Ordinal:   i,
			Content:   content,
			Embedding: testutil.HashVector(content, testDim),
			IndexedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seeding index: %v", err)
		}
	}
}

func TestRetrieveMapsHitsToCitations(t *testing.T) {
	idx := testutil.NewMemoryIndex()
	seedIndex(t, idx,
		"Renewal happens every two years.",
		"Invoices are due monthly.",
		"Certification requires forty hours of training.",
	)
	r := NewRetriever(testutil.NewFakeEmbedder(testDim), idx, 2, log.NewNop())

	// The fake embedder is deterministic, so an exact content query embeds
	// identically to its chunk and must rank first.
	got := r.Retrieve(context.Background(), "Invoices are due monthly.")
	if len(got) != 2 {
		t.Fatalf("Retrieve = %d citations, want topK=2", len(got))
	}
	if got[0].Text != "Invoices are due monthly." {
		t.Errorf("top citation = %q, want the exact-match chunk", got[0].Text)
	}
	if got[0].Source != "course/doc.txt" {
		t.Errorf("citation source = %q", got[0].Source)
	}
	if got[0].Similarity < got[1].Similarity {
		t.Error("citations not ordered by descending similarity")
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := NewRetriever(testutil.NewFakeEmbedder(testDim), testutil.NewMemoryIndex(), 5, log.NewNop())

	if got := r.Retrieve(context.Background(), "anything"); len(got) != 0 {
		t.Errorf("Retrieve on empty index = %d citations, want 0", len(got))
	}
}

func TestRetrieveDegradesOnEmbeddingFailure(t *testing.T) {
	emb := testutil.NewFakeEmbedder(testDim)
	emb.Err = knowledge.ErrEmbeddingUnavailable
	idx := testutil.NewMemoryIndex()
	seedIndex(t, idx, "Some indexed content sentence.")

	r := NewRetriever(emb, idx, 5, log.NewNop())
	if got := r.Retrieve(context.Background(), "query"); got != nil {
		t.Errorf("Retrieve with failing embedder = %v, want nil", got)
	}
}

func TestRetrieveDegradesOnSearchFailure(t *testing.T) {
	idx := testutil.NewMemoryIndex()
	idx.SearchErr = errors.New("index offline")

	r := NewRetriever(testutil.NewFakeEmbedder(testDim), idx, 5, log.NewNop())
	if got := r.Retrieve(context.Background(), "query"); got != nil {
		t.Errorf("Retrieve with failing index = %v, want nil", got)
	}
}

func TestRetrieveTruncatesLongQuery(t *testing.T) {
	emb := testutil.NewFakeEmbedder(testDim)
	r := NewRetriever(emb, testutil.NewMemoryIndex(), 5, log.NewNop())

	r.Retrieve(context.Background(), strings.Repeat("q", knowledge.MaxEmbedChars+500))
	if len(emb.Calls) != 1 {
		t.Fatalf("embedder called %d times, want 1", len(emb.Calls))
	}
	if got := len([]rune(emb.Calls[0])); got != knowledge.MaxEmbedChars {
		t.Errorf("embedded query length = %d, want truncated to %d", got, knowledge.MaxEmbedChars)
	}
}
